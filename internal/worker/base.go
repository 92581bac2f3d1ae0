package worker

import (
	"sync"

	"go.uber.org/zap"
)

// BaseWorker - общая часть воркеров: имя, группа, сигнал остановки
type BaseWorker struct {
	name          string
	consumerGroup string
	logger        *zap.Logger

	mu       sync.Mutex
	stopChan chan struct{}
	stopped  bool
}

func NewBaseWorker(name, consumerGroup string, logger *zap.Logger) *BaseWorker {
	return &BaseWorker{
		name:          name,
		consumerGroup: consumerGroup,
		logger:        logger.Named(name),
		stopChan:      make(chan struct{}),
	}
}

func (w *BaseWorker) Name() string {
	return w.name
}

// Stop закрывает StopChan; повторный вызов ничего не делает
func (w *BaseWorker) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return nil
	}
	w.logger.Info("Stopping worker")
	close(w.stopChan)
	w.stopped = true
	return nil
}

func (w *BaseWorker) IsStopped() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stopped
}

func (w *BaseWorker) StopChan() <-chan struct{} {
	return w.stopChan
}

func (w *BaseWorker) ConsumerGroup() string {
	return w.consumerGroup
}

func (w *BaseWorker) Logger() *zap.Logger {
	return w.logger
}
