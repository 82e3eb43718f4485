package handlers

import (
	"errors"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/welldanyogia/webrana-support-assistant/internal/api/response"
	"github.com/welldanyogia/webrana-support-assistant/internal/models"
	"github.com/welldanyogia/webrana-support-assistant/internal/repository"
)

// MessageHandler handles support message HTTP requests
type MessageHandler struct {
	service SupportService
}

// NewMessageHandler creates a new MessageHandler
func NewMessageHandler(service SupportService) *MessageHandler {
	return &MessageHandler{service: service}
}

// DraftRequest is the body of PUT /messages/:id/draft
type DraftRequest struct {
	Response string `json:"response"`
}

// SendRequest is the body of POST /messages/:id/send. A missing
// custom_response sends the stored draft.
type SendRequest struct {
	CustomResponse *string `json:"custom_response"`
}

// BulkStatusRequest is the body of PATCH /messages/status
type BulkStatusRequest struct {
	IDs    []uint        `json:"ids"`
	Status models.Status `json:"status"`
}

// List handles GET /api/v1/messages
func (h *MessageHandler) List(c echo.Context) error {
	filter, err := messageFilter(c)
	if err != nil {
		return response.BadRequest(c, err.Error())
	}

	messages, total, err := h.service.List(c.Request().Context(), filter)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Paginated(c, messages, total, filter.Limit, filter.Offset)
}

// Pending handles GET /api/v1/messages/pending
func (h *MessageHandler) Pending(c echo.Context) error {
	filter, err := messageFilter(c)
	if err != nil {
		return response.BadRequest(c, err.Error())
	}

	messages, total, err := h.service.ListPending(c.Request().Context(), filter)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Paginated(c, messages, total, filter.Limit, filter.Offset)
}

// Get handles GET /api/v1/messages/:id
func (h *MessageHandler) Get(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return response.BadRequest(c, "invalid message ID")
	}

	message, err := h.service.Get(c.Request().Context(), id)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, message)
}

// UpdateDraft handles PUT /api/v1/messages/:id/draft
func (h *MessageHandler) UpdateDraft(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return response.BadRequest(c, "invalid message ID")
	}

	var req DraftRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	message, err := h.service.UpdateDraft(c.Request().Context(), id, req.Response)
	if err != nil {
		return response.Error(c, err)
	}
	return response.SuccessWithMessage(c, message, "draft updated")
}

// Send handles POST /api/v1/messages/:id/send
func (h *MessageHandler) Send(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return response.BadRequest(c, "invalid message ID")
	}

	var req SendRequest
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&req); err != nil {
			return response.BadRequest(c, "invalid request body")
		}
	}

	result, err := h.service.Dispatch(c.Request().Context(), id, req.CustomResponse)
	if err != nil {
		return response.Error(c, err)
	}
	if result.AlreadySent {
		return response.SuccessWithMessage(c, result, "reply was already sent")
	}
	return response.SuccessWithMessage(c, result, "reply sent")
}

// Resolve handles PUT /api/v1/messages/:id/resolve
func (h *MessageHandler) Resolve(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return response.BadRequest(c, "invalid message ID")
	}

	message, err := h.service.MarkResolved(c.Request().Context(), id)
	if err != nil {
		return response.Error(c, err)
	}
	return response.SuccessWithMessage(c, message, "message resolved")
}

// BulkStatus handles PATCH /api/v1/messages/status
func (h *MessageHandler) BulkStatus(c echo.Context) error {
	var req BulkStatusRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}
	if !req.Status.Valid() {
		return response.BadRequest(c, "invalid status")
	}

	changed, err := h.service.BulkUpdateStatus(c.Request().Context(), req.IDs, req.Status)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]int{"updated": changed})
}

// messageFilter reads list filters from the query string
func messageFilter(c echo.Context) (repository.MessageFilter, error) {
	var filter repository.MessageFilter
	filter.Limit, filter.Offset = pagination(c)
	filter.Search = strings.TrimSpace(c.QueryParam("search"))

	if v := c.QueryParam("status"); v != "" {
		filter.Status = models.Status(v)
		if !filter.Status.Valid() {
			return filter, errors.New("invalid status")
		}
	}
	if v := c.QueryParam("priority"); v != "" {
		filter.Priority = models.Priority(v)
		if !filter.Priority.Valid() {
			return filter, errors.New("invalid priority")
		}
	}
	if v := c.QueryParam("sentiment"); v != "" {
		filter.Sentiment = models.Sentiment(v)
		if !filter.Sentiment.Valid() {
			return filter, errors.New("invalid sentiment")
		}
	}
	if v := c.QueryParam("category"); v != "" {
		filter.Category = models.Category(v)
		if !filter.Category.Valid() {
			return filter, errors.New("invalid category")
		}
	}
	return filter, nil
}
