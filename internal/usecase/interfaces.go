package usecase

import (
	"context"
	"time"

	"github.com/rollingriches/leadsync/internal/entity"
	"github.com/rollingriches/leadsync/internal/infra/integration/ghl"
	"github.com/rollingriches/leadsync/internal/infra/integration/wordpress"
	"github.com/rollingriches/leadsync/internal/infra/queue"
)

type SourceConnector interface {
	FetchLeads(ctx context.Context, since time.Time, limit, offset int) ([]wordpress.RawLead, error)
}

type CRMForwarder interface {
	CreateOrUpdateContact(ctx context.Context, input ghl.ContactInput) (*ghl.ForwardResult, error)
}

type SyncRunRepositoryInterface interface {
	Start(ctx context.Context) (*entity.SyncRun, error)
	Finish(ctx context.Context, run *entity.SyncRun) error
}

type ForwardAttemptRepositoryInterface interface {
	Create(ctx context.Context, attempt *entity.ForwardAttempt) error
	LatestForLead(ctx context.Context, leadID string) (*entity.ForwardAttempt, error)
	LeadsToForward(ctx context.Context, maxRetries, limit int) ([]*entity.Lead, error)
}

type CheckpointRepositoryInterface interface {
	Get(ctx context.Context) (time.Time, bool, error)
	Set(ctx context.Context, value time.Time) error
}

type AlertProducerInterface interface {
	PublishAlert(ctx context.Context, payload queue.AlertPayload) error
}
