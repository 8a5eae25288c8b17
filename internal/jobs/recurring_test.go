package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type fakeMaterializer struct {
	created int
	err     error
	asOf    time.Time
}

func (f *fakeMaterializer) MaterializeDue(_ context.Context, asOf time.Time) (int, error) {
	f.asOf = asOf
	return f.created, f.err
}

func TestProcessTaskRunsSweep(t *testing.T) {
	m := &fakeMaterializer{created: 3}
	h := &RecurringHandler{Svc: m, Logger: zerolog.Nop()}

	err := h.ProcessTask(context.Background(), NewMaterializeRecurringTask())
	require.NoError(t, err)
	require.WithinDuration(t, time.Now().UTC(), m.asOf, time.Minute)
}

func TestProcessTaskPropagatesSweepError(t *testing.T) {
	sweepErr := errors.New("database unavailable")
	h := &RecurringHandler{Svc: &fakeMaterializer{err: sweepErr}, Logger: zerolog.Nop()}

	err := h.ProcessTask(context.Background(), NewMaterializeRecurringTask())
	require.ErrorIs(t, err, sweepErr)
}

func TestTaskType(t *testing.T) {
	require.Equal(t, TypeMaterializeRecurring, NewMaterializeRecurringTask().Type())
}
