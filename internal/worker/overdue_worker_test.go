package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRepo struct {
	calls atomic.Int32
	count int
	err   error
}

func (r *countingRepo) CountOverdue(_ context.Context, ownerID *uuid.UUID, _ time.Time) (int, error) {
	r.calls.Add(1)
	if ownerID != nil {
		return 0, errors.New("ожидалась глобальная выборка")
	}
	return r.count, r.err
}

func TestCheck_CountsGlobally(t *testing.T) {
	repo := &countingRepo{count: 3}
	w := NewOverdueWorker(repo, time.Minute)

	w.Check(context.Background())
	assert.Equal(t, int32(1), repo.calls.Load())
}

func TestCheck_ErrorDoesNotPanic(t *testing.T) {
	repo := &countingRepo{err: errors.New("база недоступна")}
	w := NewOverdueWorker(repo, time.Minute)

	assert.NotPanics(t, func() {
		w.Check(context.Background())
	})
}

func TestStart_StopsOnContextCancel(t *testing.T) {
	repo := &countingRepo{}
	w := NewOverdueWorker(repo, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	// даём тикеру сработать хотя бы раз
	require.Eventually(t, func() bool {
		return repo.calls.Load() >= 1
	}, time.Second, 5*time.Millisecond)

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("воркер не остановился по отмене контекста")
	}
}

func TestNewOverdueWorker_DefaultInterval(t *testing.T) {
	w := NewOverdueWorker(&countingRepo{}, 0)
	assert.Equal(t, 5*time.Minute, w.interval)
}
