package worker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// blockingWorker runs until stopped
type blockingWorker struct {
	*BaseWorker
	started chan struct{}
}

func newBlockingWorker(name string) *blockingWorker {
	return &blockingWorker{
		BaseWorker: NewBaseWorker(name, "group", zap.NewNop()),
		started:    make(chan struct{}),
	}
}

func (w *blockingWorker) Start(ctx context.Context) error {
	close(w.started)
	select {
	case <-w.StopChan():
	case <-ctx.Done():
	}
	return nil
}

// stuckWorker ignores Stop
type stuckWorker struct {
	*BaseWorker
	release chan struct{}
}

func (w *stuckWorker) Start(context.Context) error {
	<-w.release
	return nil
}

func TestWorkerManager_StartWithoutWorkers(t *testing.T) {
	m := NewWorkerManager(zap.NewNop())
	assert.Error(t, m.Start(context.Background()))
}

func TestWorkerManager_StartStop(t *testing.T) {
	m := NewWorkerManager(zap.NewNop())
	a, b := newBlockingWorker("a"), newBlockingWorker("b")
	m.Register(a)
	m.Register(b)

	require.NoError(t, m.Start(context.Background()))
	<-a.started
	<-b.started

	require.NoError(t, m.Stop())
	assert.True(t, a.IsStopped())
	assert.True(t, b.IsStopped())
}

func TestWorkerManager_StopTimeout(t *testing.T) {
	m := NewWorkerManager(zap.NewNop())
	m.shutdownTimeout = 20 * time.Millisecond
	w := &stuckWorker{BaseWorker: NewBaseWorker("stuck", "group", zap.NewNop()), release: make(chan struct{})}
	defer close(w.release)
	m.Register(w)

	require.NoError(t, m.Start(context.Background()))
	assert.Error(t, m.Stop())
}

func TestBaseWorker_StopIsIdempotent(t *testing.T) {
	w := NewBaseWorker("profile-refresh", "group", zap.NewNop())
	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop())
	assert.True(t, w.IsStopped())

	select {
	case <-w.StopChan():
	default:
		t.Fatal("stop channel is open")
	}
}
