package handlers

import (
	"github.com/labstack/echo/v4"

	"github.com/welldanyogia/webrana-support-assistant/internal/api/response"
	"github.com/welldanyogia/webrana-support-assistant/internal/models"
	"github.com/welldanyogia/webrana-support-assistant/internal/pipeline"
)

// KnowledgeHandler handles knowledge base HTTP requests
type KnowledgeHandler struct {
	service KnowledgeService
}

// NewKnowledgeHandler creates a new KnowledgeHandler
func NewKnowledgeHandler(service KnowledgeService) *KnowledgeHandler {
	return &KnowledgeHandler{service: service}
}

// KnowledgeRequest is the body of POST and PUT /knowledge
type KnowledgeRequest struct {
	Question string          `json:"question"`
	Answer   string          `json:"answer"`
	Category models.Category `json:"category"`
	Keywords []string        `json:"keywords"`
}

func (r KnowledgeRequest) input() pipeline.KnowledgeInput {
	return pipeline.KnowledgeInput{
		Question: r.Question,
		Answer:   r.Answer,
		Category: r.Category,
		Keywords: r.Keywords,
	}
}

// bind reads and checks the request body
func (h *KnowledgeHandler) bind(c echo.Context) (KnowledgeRequest, string) {
	var req KnowledgeRequest
	if err := c.Bind(&req); err != nil {
		return req, "invalid request body"
	}
	if req.Category != "" && !req.Category.Valid() {
		return req, "invalid category"
	}
	return req, ""
}

// Create handles POST /api/v1/knowledge
func (h *KnowledgeHandler) Create(c echo.Context) error {
	req, problem := h.bind(c)
	if problem != "" {
		return response.BadRequest(c, problem)
	}

	entry, err := h.service.CreateKnowledge(c.Request().Context(), req.input())
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, entry)
}

// List handles GET /api/v1/knowledge
func (h *KnowledgeHandler) List(c echo.Context) error {
	limit, offset := pagination(c)

	entries, total, err := h.service.ListKnowledge(c.Request().Context(), limit, offset)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Paginated(c, entries, total, limit, offset)
}

// Get handles GET /api/v1/knowledge/:id
func (h *KnowledgeHandler) Get(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return response.BadRequest(c, "invalid knowledge entry ID")
	}

	entry, err := h.service.GetKnowledge(c.Request().Context(), id)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, entry)
}

// Update handles PUT /api/v1/knowledge/:id
func (h *KnowledgeHandler) Update(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return response.BadRequest(c, "invalid knowledge entry ID")
	}
	req, problem := h.bind(c)
	if problem != "" {
		return response.BadRequest(c, problem)
	}

	entry, err := h.service.UpdateKnowledge(c.Request().Context(), id, req.input())
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, entry)
}

// Delete handles DELETE /api/v1/knowledge/:id
func (h *KnowledgeHandler) Delete(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return response.BadRequest(c, "invalid knowledge entry ID")
	}

	if err := h.service.DeleteKnowledge(c.Request().Context(), id); err != nil {
		return response.Error(c, err)
	}
	return response.NoContent(c)
}
