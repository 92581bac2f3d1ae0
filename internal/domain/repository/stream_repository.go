package repository

import (
	"context"

	"github.com/railway-info/internal/domain"
)

// StreamRepository carries profile refresh events over Redis Streams.
type StreamRepository interface {
	// ConsumeStream delivers this consumer's pending entries first, then
	// new ones, until ctx is cancelled. The channel is closed on exit.
	ConsumeStream(ctx context.Context, stream, group, consumer string) (<-chan domain.StreamMessage, error)

	AckMessage(ctx context.Context, stream, group, messageID string) error

	// CreateConsumerGroup is idempotent and creates the stream if needed.
	CreateConsumerGroup(ctx context.Context, stream, group string) error

	// PublishToStream stores data as JSON in the entry's "data" field.
	PublishToStream(ctx context.Context, stream string, data interface{}) error
}
