package composer

import "github.com/welldanyogia/webrana-support-assistant/internal/models"

var fallbackTemplates = map[models.Category]string{
	models.CategorySupport: `Dear Customer,

Thank you for reaching out to our support team. We have received your request and understand the importance of resolving your issue promptly.

Our team is currently reviewing your message and will provide you with a detailed response within 24 hours.

If this is an urgent matter, please don't hesitate to contact us directly at [support phone number].

Best regards,
Customer Support Team`,

	models.CategoryQuery: `Dear Customer,

Thank you for your inquiry. We appreciate your interest and are happy to assist you.

We have received your query and our team is working on providing you with the most accurate and helpful information. You can expect a detailed response within the next business day.

If you have any additional questions in the meantime, please feel free to reach out.

Best regards,
Customer Service Team`,

	models.CategoryRequest: `Dear Customer,

Thank you for your request. We have successfully received it and our team is currently processing it.

We will review your requirements carefully and get back to you with a comprehensive response within 24-48 hours.

We appreciate your patience and look forward to assisting you.

Best regards,
Support Team`,

	models.CategoryHelp: `Dear Customer,

Thank you for contacting us for assistance. We understand you need help and we're here to support you.

Your message has been received and assigned to our support team. We will review your situation and provide you with the guidance you need as soon as possible.

If this is urgent, please reply to this email with "URGENT" in the subject line.

Best regards,
Help Desk Team`,
}

// Template returns the fallback reply for category. Unknown categories get
// the support template.
func Template(category models.Category) string {
	if text, ok := fallbackTemplates[category]; ok {
		return text
	}
	return fallbackTemplates[models.CategorySupport]
}
