package handlers

import (
	"context"

	"github.com/welldanyogia/webrana-support-assistant/internal/dispatch"
	"github.com/welldanyogia/webrana-support-assistant/internal/models"
	"github.com/welldanyogia/webrana-support-assistant/internal/pipeline"
	"github.com/welldanyogia/webrana-support-assistant/internal/repository"
)

// SupportService is the message side of pipeline.Service
type SupportService interface {
	RunIngestionCycle(ctx context.Context) (pipeline.CycleResult, error)
	LastCycle() (pipeline.CycleStatus, bool)
	CurrentStage() pipeline.Stage
	Dispatch(ctx context.Context, id uint, override *string) (dispatch.Result, error)
	ListPending(ctx context.Context, filter repository.MessageFilter) ([]models.SupportMessage, int64, error)
	List(ctx context.Context, filter repository.MessageFilter) ([]models.SupportMessage, int64, error)
	Get(ctx context.Context, id uint) (*models.SupportMessage, error)
	UpdateDraft(ctx context.Context, id uint, text string) (*models.SupportMessage, error)
	MarkResolved(ctx context.Context, id uint) (*models.SupportMessage, error)
	BulkUpdateStatus(ctx context.Context, ids []uint, status models.Status) (int, error)
}

// KnowledgeService is the knowledge base side of pipeline.Service
type KnowledgeService interface {
	CreateKnowledge(ctx context.Context, in pipeline.KnowledgeInput) (*models.KnowledgeEntry, error)
	GetKnowledge(ctx context.Context, id uint) (*models.KnowledgeEntry, error)
	ListKnowledge(ctx context.Context, limit, offset int) ([]models.KnowledgeEntry, int64, error)
	UpdateKnowledge(ctx context.Context, id uint, in pipeline.KnowledgeInput) (*models.KnowledgeEntry, error)
	DeleteKnowledge(ctx context.Context, id uint) error
}

// SchedulerControl is the part of pipeline.Scheduler exposed over HTTP
type SchedulerControl interface {
	IsRunning() bool
	Trigger() bool
}
