package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/railway-info/internal/domain"
	"github.com/railway-info/internal/domain/repository"
	"github.com/railway-info/internal/pkg/metrics"
	"github.com/railway-info/internal/usecase"
	"github.com/railway-info/internal/worker"
	"go.uber.org/zap"
)

const workerName = "profile-refresh"

// Refresher re-fetches one Discord profile.
type Refresher interface {
	Refresh(ctx context.Context, userID string) (*domain.DiscordProfile, error)
}

// RefreshWorker consumes stream:user:refresh events.
type RefreshWorker struct {
	*worker.BaseWorker
	streamRepo   repository.StreamRepository
	refresher    Refresher
	consumerName string
	maxRetries   int
	retryDelay   time.Duration
}

func NewRefreshWorker(
	streamRepo repository.StreamRepository,
	refresher Refresher,
	consumerGroup string,
	maxRetries int,
	logger *zap.Logger,
) *RefreshWorker {
	hostname, _ := os.Hostname()
	if maxRetries < 1 {
		maxRetries = 1
	}

	return &RefreshWorker{
		BaseWorker:   worker.NewBaseWorker(workerName, consumerGroup, logger),
		streamRepo:   streamRepo,
		refresher:    refresher,
		consumerName: fmt.Sprintf("%s-%d", hostname, os.Getpid()),
		maxRetries:   maxRetries,
		retryDelay:   time.Second,
	}
}

// Start reads the stream until Stop or ctx is cancelled.
func (w *RefreshWorker) Start(ctx context.Context) error {
	logger := w.Logger()
	logger.Info("Starting profile refresh worker",
		zap.String("consumer_group", w.ConsumerGroup()),
		zap.String("consumer_name", w.consumerName))

	if err := w.streamRepo.CreateConsumerGroup(ctx, domain.StreamUserRefresh, w.ConsumerGroup()); err != nil {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	msgChan, err := w.streamRepo.ConsumeStream(ctx, domain.StreamUserRefresh, w.ConsumerGroup(), w.consumerName)
	if err != nil {
		return fmt.Errorf("failed to consume stream: %w", err)
	}

	for {
		select {
		case <-w.StopChan():
			logger.Info("Worker stopped")
			return nil

		case <-ctx.Done():
			logger.Info("Context cancelled")
			return nil

		case msg, ok := <-msgChan:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("message channel closed")
			}
			w.handle(ctx, msg)
		}
	}
}

// handle acks everything except transient failures that outlived the
// retries; those stay pending and come back after a restart.
func (w *RefreshWorker) handle(ctx context.Context, msg domain.StreamMessage) {
	logger := w.Logger().With(zap.String("message_id", msg.ID))

	var event domain.UserRefreshEvent
	if err := json.Unmarshal([]byte(msg.Data), &event); err != nil || event.UserID == "" {
		logger.Warn("Dropping malformed refresh event", zap.String("data", msg.Data), zap.Error(err))
		metrics.WorkerMessages.WithLabelValues(workerName, "malformed").Inc()
		w.ack(ctx, msg.ID)
		return
	}

	logger = logger.With(zap.String("user_id", event.UserID), zap.String("reason", event.Reason))

	var err error
	for attempt := 1; attempt <= w.maxRetries; attempt++ {
		_, err = w.refresher.Refresh(ctx, event.UserID)
		if err == nil || usecase.IsPermanent(err) {
			break
		}
		logger.Warn("Profile refresh failed", zap.Int("attempt", attempt), zap.Error(err))
		if attempt < w.maxRetries {
			select {
			case <-time.After(w.retryDelay):
			case <-ctx.Done():
				return
			}
		}
	}

	switch {
	case err == nil:
		logger.Debug("Profile refreshed")
		metrics.WorkerMessages.WithLabelValues(workerName, "ok").Inc()
	case usecase.IsPermanent(err):
		logger.Info("Profile refresh skipped", zap.Error(err))
		metrics.WorkerMessages.WithLabelValues(workerName, "skipped").Inc()
	default:
		logger.Error("Giving up on profile refresh", zap.Error(err))
		metrics.WorkerMessages.WithLabelValues(workerName, "failed").Inc()
		return
	}

	w.ack(ctx, msg.ID)
}

func (w *RefreshWorker) ack(ctx context.Context, id string) {
	if err := w.streamRepo.AckMessage(ctx, domain.StreamUserRefresh, w.ConsumerGroup(), id); err != nil {
		w.Logger().Error("Failed to acknowledge message", zap.String("message_id", id), zap.Error(err))
	}
}
