package classifier

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/welldanyogia/webrana-support-assistant/internal/errors"
	"github.com/welldanyogia/webrana-support-assistant/internal/models"
)

type mockPriorityModel struct {
	mock.Mock
}

func (m *mockPriorityModel) ClassifyPriority(ctx context.Context, text string) (models.Priority, error) {
	args := m.Called(ctx, text)
	return args.Get(0).(models.Priority), args.Error(1)
}

// blockingModel waits for the context to expire
type blockingModel struct{}

func (blockingModel) ClassifyPriority(ctx context.Context, text string) (models.Priority, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

// ==================== Priority Tests ====================

func TestDecidePriority(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		urgent  bool
		keyword string
	}{
		{"server down", "Our server down since this morning", true, "down"},
		{"uppercase", "URGENT: invoice", true, "urgent"},
		{"cannot access", "I cannot access my account", true, "cannot access"},
		{"not working", "The export is not working", true, "not working"},
		{"asap", "please reply asap", true, "asap"},
		{"plain question", "What are your opening hours?", false, ""},
		{"empty", "", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision := DecidePriority(tt.text)

			if tt.urgent {
				match, ok := decision.(FastPathMatch)
				require.True(t, ok, "expected FastPathMatch, got %T", decision)
				assert.Equal(t, tt.keyword, match.Keyword)
			} else {
				assert.IsType(t, FallbackNeeded{}, decision)
			}
		})
	}
}

func TestClassifier_Priority_KeywordSkipsModel(t *testing.T) {
	// Arrange
	model := new(mockPriorityModel)
	c := New(model, time.Second, nil)

	// Act
	p, src, err := c.Priority(context.Background(), "m1", "server down")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, models.PriorityUrgent, p)
	assert.Equal(t, models.PrioritySourceKeyword, src)
	model.AssertNotCalled(t, "ClassifyPriority", mock.Anything, mock.Anything)
}

func TestClassifier_Priority_ModelDecides(t *testing.T) {
	// Arrange
	model := new(mockPriorityModel)
	model.On("ClassifyPriority", mock.Anything, "my payment vanished").Return(models.PriorityUrgent, nil)
	c := New(model, time.Second, nil)

	// Act
	p, src, err := c.Priority(context.Background(), "m1", "my payment vanished")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, models.PriorityUrgent, p)
	assert.Equal(t, models.PrioritySourceModel, src)
	model.AssertExpectations(t)
}

func TestClassifier_Priority_ModelErrorDefaultsToNormal(t *testing.T) {
	// Arrange
	model := new(mockPriorityModel)
	model.On("ClassifyPriority", mock.Anything, mock.Anything).Return(models.Priority(""), errors.New("quota exceeded"))
	c := New(model, time.Second, nil)

	// Act
	p, src, err := c.Priority(context.Background(), "m1", "hello there")

	// Assert
	assert.Equal(t, models.PriorityNormal, p)
	assert.Equal(t, models.PrioritySourceDefault, src)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrClassificationFallback)
	assert.False(t, apperrors.IsFatal(err))
}

func TestClassifier_Priority_ModelUnknownValue(t *testing.T) {
	// Arrange
	model := new(mockPriorityModel)
	model.On("ClassifyPriority", mock.Anything, mock.Anything).Return(models.Priority("maybe"), nil)
	c := New(model, time.Second, nil)

	// Act
	p, src, err := c.Priority(context.Background(), "m1", "hello there")

	// Assert
	assert.Equal(t, models.PriorityNormal, p)
	assert.Equal(t, models.PrioritySourceDefault, src)
	assert.ErrorIs(t, err, apperrors.ErrClassificationFallback)
}

func TestClassifier_Priority_Timeout(t *testing.T) {
	// Arrange
	c := New(blockingModel{}, 20*time.Millisecond, nil)

	// Act
	start := time.Now()
	p, src, err := c.Priority(context.Background(), "m1", "hello there")

	// Assert
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, models.PriorityNormal, p)
	assert.Equal(t, models.PrioritySourceDefault, src)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClassifier_Priority_NilModel(t *testing.T) {
	c := New(nil, 0, nil)

	p, src, err := c.Priority(context.Background(), "m1", "hello there")

	require.NoError(t, err)
	assert.Equal(t, models.PriorityNormal, p)
	assert.Equal(t, models.PrioritySourceDefault, src)
}

// ==================== Sentiment Tests ====================

func TestSentiment(t *testing.T) {
	tests := []struct {
		name string
		text string
		want models.Sentiment
	}{
		{"positive", "Thank you so much, the support was great and very helpful", models.SentimentPositive},
		{"negative", "I am frustrated and angry, this is terrible", models.SentimentNegative},
		{"neutral", "Please send the invoice for order 42 to the billing address", models.SentimentNeutral},
		{"empty", "", models.SentimentNeutral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sentiment(tt.text))
		})
	}
}

func TestSentiment_Deterministic(t *testing.T) {
	text := "The app is slow but your team is great"
	first := Sentiment(text)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Sentiment(text))
	}
}

func TestSentimentScore_Average(t *testing.T) {
	// "great" scores 3 across two tokens
	assert.InDelta(t, 1.5, SentimentScore("great day"), 0.0001)
	assert.Zero(t, SentimentScore("   "))
}

// ==================== Extraction Tests ====================

func TestExtractInfo(t *testing.T) {
	// Arrange
	body := `Hi team,
I need a refund for order 991. Could you call me on +1 555-123-4567?
You can also reach me at backup.me@example.org or sender@example.com.
Thanks, I appreciate it but I'm frustrated.`

	// Act
	info := ExtractInfo(body, ExtractOptions{ExcludeEmails: []string{"Sender@Example.com"}})

	// Assert
	assert.Equal(t, []string{"+1 555-123-4567"}, info.PhoneNumbers)
	assert.Equal(t, []string{"backup.me@example.org"}, info.AlternateEmails)
	assert.Equal(t, []string{
		"I need a refund for order 991.",
		"Could you call me on +1 555-123-4567?",
	}, info.Requirements)
	assert.Equal(t, []string{"+thank", "+appreciate", "-frustrated"}, info.SentimentIndicators)
}

func TestExtractInfo_RequirementsCapped(t *testing.T) {
	body := "Please a. Please b. Please c. Please d. Please e. Please f. Please g."

	info := ExtractInfo(body, ExtractOptions{})

	assert.Len(t, info.Requirements, MaxRequirements)
	assert.Equal(t, "Please a.", info.Requirements[0])
}

func TestExtractInfo_EmptyText(t *testing.T) {
	info := ExtractInfo("", ExtractOptions{})

	assert.Empty(t, info.PhoneNumbers)
	assert.Empty(t, info.AlternateEmails)
	assert.Empty(t, info.Requirements)
	assert.Empty(t, info.SentimentIndicators)
	assert.NotNil(t, info.PhoneNumbers)
}

func TestExtractInfo_ShortNumbersIgnored(t *testing.T) {
	info := ExtractInfo("Order 2024 shipped on 12.05", ExtractOptions{})

	assert.Empty(t, info.PhoneNumbers)
}

// ==================== Categorize Tests ====================

func TestCategorize(t *testing.T) {
	tests := []struct {
		subject string
		want    models.Category
	}{
		{"Support needed", models.CategorySupport},
		{"Query about billing", models.CategoryQuery},
		{"Feature REQUEST", models.CategoryRequest},
		{"Help!", models.CategoryHelp},
		{"Support request, please help", models.CategorySupport},
		{"Hello", models.CategoryOther},
	}

	for _, tt := range tests {
		t.Run(tt.subject, func(t *testing.T) {
			assert.Equal(t, tt.want, Categorize(tt.subject))
		})
	}
}

// ==================== Classify Tests ====================

func TestClassifier_Classify(t *testing.T) {
	// Arrange
	c := New(nil, 0, nil)

	// Act
	res := c.Classify(context.Background(), Input{
		Identity: "m1",
		Sender:   "a@example.com",
		Subject:  "Support: server down",
		Body:     "Everything is broken and I am upset. Please fix it.",
	})

	// Assert
	assert.Equal(t, models.CategorySupport, res.Category)
	assert.Equal(t, models.PriorityUrgent, res.Priority)
	assert.Equal(t, models.PrioritySourceKeyword, res.PrioritySource)
	assert.Equal(t, models.SentimentNegative, res.Sentiment)
	assert.Equal(t, []string{"Please fix it."}, res.Info.Requirements)
	assert.NoError(t, res.Fallback)
}
