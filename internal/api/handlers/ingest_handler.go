package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/welldanyogia/webrana-support-assistant/internal/api/response"
	apperrors "github.com/welldanyogia/webrana-support-assistant/internal/errors"
	"github.com/welldanyogia/webrana-support-assistant/internal/pipeline"
)

// IngestHandler exposes manual ingestion and scheduler status
type IngestHandler struct {
	service   SupportService
	scheduler SchedulerControl
}

// NewIngestHandler creates a new IngestHandler. scheduler may be nil when
// polling is disabled.
func NewIngestHandler(service SupportService, scheduler SchedulerControl) *IngestHandler {
	return &IngestHandler{service: service, scheduler: scheduler}
}

// CycleResponse is the wire form of a finished cycle
type CycleResponse struct {
	Processed  int            `json:"processed"`
	New        int            `json:"new"`
	Skipped    int            `json:"skipped"`
	Dispatched int            `json:"dispatched"`
	Partial    bool           `json:"partial"`
	Stage      pipeline.Stage `json:"stage"`
	StartedAt  time.Time      `json:"started_at"`
	DurationMS int64          `json:"duration_ms"`
	Errors     []string       `json:"errors"`
}

// StatusResponse is returned by GET /ingest/status
type StatusResponse struct {
	SchedulerRunning bool           `json:"scheduler_running"`
	Stage            pipeline.Stage `json:"stage"`
	LastCycle        *CycleResponse `json:"last_cycle,omitempty"`
	LastError        string         `json:"last_error,omitempty"`
}

func toCycleResponse(r pipeline.CycleResult) *CycleResponse {
	return &CycleResponse{
		Processed:  r.Processed,
		New:        r.New,
		Skipped:    r.Skipped,
		Dispatched: r.Dispatched,
		Partial:    r.Partial,
		Stage:      r.Stage,
		StartedAt:  r.StartedAt,
		DurationMS: r.Duration.Milliseconds(),
		Errors:     r.ErrorMessages(),
	}
}

// Run handles POST /api/v1/ingest/run. The cycle runs within the request.
func (h *IngestHandler) Run(c echo.Context) error {
	result, err := h.service.RunIngestionCycle(c.Request().Context())
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, toCycleResponse(result))
}

// Trigger handles POST /api/v1/ingest/trigger by queueing a cycle on the
// scheduler
func (h *IngestHandler) Trigger(c echo.Context) error {
	if h.scheduler == nil || !h.scheduler.IsRunning() {
		return c.JSON(http.StatusServiceUnavailable, response.ErrorResponse{
			Success: false,
			Error:   "scheduler is not running",
			Code:    apperrors.CodeInternalError,
		})
	}
	if !h.scheduler.Trigger() {
		return response.Error(c, apperrors.ErrCycleInProgress)
	}
	return response.Accepted(c, nil, "ingestion cycle queued")
}

// Status handles GET /api/v1/ingest/status
func (h *IngestHandler) Status(c echo.Context) error {
	status := StatusResponse{Stage: h.service.CurrentStage()}
	if h.scheduler != nil {
		status.SchedulerRunning = h.scheduler.IsRunning()
	}
	if last, ok := h.service.LastCycle(); ok {
		status.LastCycle = toCycleResponse(last.Result)
		if last.Err != nil {
			status.LastError = last.Err.Error()
		}
	}
	return response.Success(c, status)
}
