package jobs

import (
	"context"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

// TypeMaterializeRecurring is the asynq task type for the recurring
// materialization sweep.
const TypeMaterializeRecurring = "billing:materialize_recurring"

// NewMaterializeRecurringTask builds the sweep task. The task carries no
// payload; the handler works from the database state at execution time.
func NewMaterializeRecurringTask() *asynq.Task {
	return asynq.NewTask(TypeMaterializeRecurring, nil)
}

// Materializer generates due recurring documents.
type Materializer interface {
	MaterializeDue(ctx context.Context, asOf time.Time) (int, error)
}

// RecurringHandler processes the materialization sweep task.
type RecurringHandler struct {
	Svc    Materializer
	Logger zerolog.Logger
}

// ProcessTask implements asynq.Handler. A returned error makes asynq retry
// the whole sweep; per-document failures are logged and skipped inside the
// service instead.
func (h *RecurringHandler) ProcessTask(ctx context.Context, _ *asynq.Task) error {
	started := time.Now()
	created, err := h.Svc.MaterializeDue(ctx, time.Now().UTC())
	if err != nil {
		h.Logger.Error().Err(err).Msg("recurring sweep failed")
		return err
	}
	h.Logger.Info().
		Int("created", created).
		Dur("elapsed", time.Since(started)).
		Msg("recurring sweep complete")
	return nil
}
