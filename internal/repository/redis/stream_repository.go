package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/railway-info/internal/domain"
	"github.com/railway-info/internal/domain/repository"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	defaultBlock     = time.Second
	defaultBatchSize = 10
)

type streamRepository struct {
	client    *redis.Client
	logger    *zap.Logger
	block     time.Duration
	batchSize int64
}

// NewStreamRepository создает новый экземпляр StreamRepository. block - сколько
// один XREADGROUP ждёт новых записей; ноль значит одну секунду.
func NewStreamRepository(client *redis.Client, block time.Duration, logger *zap.Logger) repository.StreamRepository {
	if block <= 0 {
		block = defaultBlock
	}
	return &streamRepository{
		client:    client,
		logger:    logger,
		block:     block,
		batchSize: defaultBatchSize,
	}
}

// CreateConsumerGroup создаёт consumer group, начиная с новых сообщений.
// MKSTREAM создаст стрим, если его нет; существующая группа не ошибка.
func (r *streamRepository) CreateConsumerGroup(ctx context.Context, stream, group string) error {
	err := r.client.XGroupCreateMkStream(ctx, stream, group, "$").Err()
	if err != nil {
		if strings.HasPrefix(err.Error(), "BUSYGROUP") {
			r.logger.Debug("Consumer group already exists",
				zap.String("stream", stream),
				zap.String("group", group))
			return nil
		}
		r.logger.Error("Failed to create consumer group",
			zap.String("stream", stream),
			zap.String("group", group),
			zap.Error(err))
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	r.logger.Info("Consumer group created",
		zap.String("stream", stream),
		zap.String("group", group))
	return nil
}

// ConsumeStream отдаёт сообщения в канал до отмены ctx. Сначала идут
// полученные ранее, но не подтверждённые записи этого consumer, потом новые.
func (r *streamRepository) ConsumeStream(ctx context.Context, stream, group, consumer string) (<-chan domain.StreamMessage, error) {
	msgChan := make(chan domain.StreamMessage, r.batchSize)

	go func() {
		defer close(msgChan)

		// "0" перечитывает собственный PEL, ">" - только новые сообщения
		lastID := "0"

		for {
			if ctx.Err() != nil {
				r.logger.Info("Stream consumer stopped",
					zap.String("stream", stream),
					zap.String("consumer", consumer))
				return
			}

			args := &redis.XReadGroupArgs{
				Group:    group,
				Consumer: consumer,
				Streams:  []string{stream, lastID},
				Count:    r.batchSize,
				Block:    -1,
			}
			if lastID == ">" {
				args.Block = r.block
			}

			result, err := r.client.XReadGroup(ctx, args).Result()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					continue
				}
				if ctx.Err() != nil {
					return
				}
				r.logger.Error("Failed to read from stream",
					zap.String("stream", stream),
					zap.Error(err))
				select {
				case <-time.After(time.Second):
				case <-ctx.Done():
					return
				}
				continue
			}

			pendingPhase := lastID != ">"
			for _, s := range result {
				for _, msg := range s.Messages {
					if pendingPhase {
						lastID = msg.ID
					}
					data, ok := msg.Values["data"].(string)
					if !ok {
						r.logger.Warn("Message does not contain 'data' field, acknowledging",
							zap.String("message_id", msg.ID))
						_ = r.client.XAck(ctx, stream, group, msg.ID).Err()
						continue
					}

					select {
					case msgChan <- domain.StreamMessage{ID: msg.ID, Data: data}:
					case <-ctx.Done():
						return
					}
				}
			}

			if pendingPhase && messageCount(result) == 0 {
				lastID = ">"
			}
		}
	}()

	return msgChan, nil
}

// AckMessage подтверждает обработку сообщения
func (r *streamRepository) AckMessage(ctx context.Context, stream, group, messageID string) error {
	if err := r.client.XAck(ctx, stream, group, messageID).Err(); err != nil {
		r.logger.Error("Failed to acknowledge message",
			zap.String("stream", stream),
			zap.String("group", group),
			zap.String("message_id", messageID),
			zap.Error(err))
		return fmt.Errorf("failed to acknowledge message: %w", err)
	}

	r.logger.Debug("Message acknowledged", zap.String("message_id", messageID))
	return nil
}

// PublishToStream сериализует data в JSON и кладёт в поле "data"
func (r *streamRepository) PublishToStream(ctx context.Context, stream string, data interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}

	id, err := r.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]interface{}{"data": string(jsonData)},
	}).Result()
	if err != nil {
		r.logger.Error("Failed to publish to stream",
			zap.String("stream", stream),
			zap.Error(err))
		return fmt.Errorf("failed to publish to stream: %w", err)
	}

	r.logger.Debug("Message published to stream",
		zap.String("stream", stream),
		zap.String("message_id", id))
	return nil
}

func messageCount(result []redis.XStream) int {
	n := 0
	for _, s := range result {
		n += len(s.Messages)
	}
	return n
}
