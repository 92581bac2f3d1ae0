package profile

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/railway-info/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockStream struct {
	mock.Mock
}

func (m *mockStream) ConsumeStream(ctx context.Context, stream, group, consumer string) (<-chan domain.StreamMessage, error) {
	args := m.Called(ctx, stream, group, consumer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(<-chan domain.StreamMessage), args.Error(1)
}

func (m *mockStream) AckMessage(ctx context.Context, stream, group, messageID string) error {
	return m.Called(ctx, stream, group, messageID).Error(0)
}

func (m *mockStream) CreateConsumerGroup(ctx context.Context, stream, group string) error {
	return m.Called(ctx, stream, group).Error(0)
}

func (m *mockStream) PublishToStream(ctx context.Context, stream string, data interface{}) error {
	return m.Called(ctx, stream, data).Error(0)
}

type mockRefresher struct {
	mock.Mock
}

func (m *mockRefresher) Refresh(ctx context.Context, userID string) (*domain.DiscordProfile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DiscordProfile), args.Error(1)
}

const group = "user-profile-workers"

func newTestWorker(stream *mockStream, refresher *mockRefresher, retries int) *RefreshWorker {
	w := NewRefreshWorker(stream, refresher, group, retries, zap.NewNop())
	w.retryDelay = 0
	return w
}

func eventMessage(t *testing.T, id, userID string) domain.StreamMessage {
	t.Helper()
	data, err := json.Marshal(domain.NewUserRefreshEvent(userID, "login"))
	require.NoError(t, err)
	return domain.StreamMessage{ID: id, Data: string(data)}
}

func TestRefreshWorker_Name(t *testing.T) {
	w := newTestWorker(&mockStream{}, &mockRefresher{}, 3)
	assert.Equal(t, "profile-refresh", w.Name())
	assert.Equal(t, group, w.ConsumerGroup())
}

func TestRefreshWorker_Handle(t *testing.T) {
	ctx := context.Background()

	t.Run("acks after successful refresh", func(t *testing.T) {
		stream := &mockStream{}
		refresher := &mockRefresher{}
		refresher.On("Refresh", ctx, "42").Return(&domain.DiscordProfile{ID: "42"}, nil).Once()
		stream.On("AckMessage", ctx, domain.StreamUserRefresh, group, "1-0").Return(nil).Once()

		newTestWorker(stream, refresher, 3).handle(ctx, eventMessage(t, "1-0", "42"))

		refresher.AssertExpectations(t)
		stream.AssertExpectations(t)
	})

	t.Run("acks malformed payload without refreshing", func(t *testing.T) {
		stream := &mockStream{}
		refresher := &mockRefresher{}
		stream.On("AckMessage", ctx, domain.StreamUserRefresh, group, "2-0").Return(nil).Once()

		newTestWorker(stream, refresher, 3).handle(ctx, domain.StreamMessage{ID: "2-0", Data: "{not json"})

		refresher.AssertNotCalled(t, "Refresh", mock.Anything, mock.Anything)
		stream.AssertExpectations(t)
	})

	t.Run("acks event without user id", func(t *testing.T) {
		stream := &mockStream{}
		refresher := &mockRefresher{}
		stream.On("AckMessage", ctx, domain.StreamUserRefresh, group, "3-0").Return(nil).Once()

		newTestWorker(stream, refresher, 3).handle(ctx, domain.StreamMessage{ID: "3-0", Data: `{"reason":"members"}`})

		refresher.AssertNotCalled(t, "Refresh", mock.Anything, mock.Anything)
		stream.AssertExpectations(t)
	})

	t.Run("permanent error is acked without retry", func(t *testing.T) {
		stream := &mockStream{}
		refresher := &mockRefresher{}
		refresher.On("Refresh", ctx, "42").Return(nil, domain.ErrDiscordUserNotFound).Once()
		stream.On("AckMessage", ctx, domain.StreamUserRefresh, group, "4-0").Return(nil).Once()

		newTestWorker(stream, refresher, 3).handle(ctx, eventMessage(t, "4-0", "42"))

		refresher.AssertNumberOfCalls(t, "Refresh", 1)
		stream.AssertExpectations(t)
	})

	t.Run("transient error retries then leaves message pending", func(t *testing.T) {
		stream := &mockStream{}
		refresher := &mockRefresher{}
		refresher.On("Refresh", ctx, "42").Return(nil, errors.New("discord: 502")).Times(3)

		newTestWorker(stream, refresher, 3).handle(ctx, eventMessage(t, "5-0", "42"))

		refresher.AssertNumberOfCalls(t, "Refresh", 3)
		stream.AssertNotCalled(t, "AckMessage", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("recovers on a later attempt", func(t *testing.T) {
		stream := &mockStream{}
		refresher := &mockRefresher{}
		refresher.On("Refresh", ctx, "42").Return(nil, errors.New("timeout")).Once()
		refresher.On("Refresh", ctx, "42").Return(&domain.DiscordProfile{ID: "42"}, nil).Once()
		stream.On("AckMessage", ctx, domain.StreamUserRefresh, group, "6-0").Return(nil).Once()

		newTestWorker(stream, refresher, 3).handle(ctx, eventMessage(t, "6-0", "42"))

		refresher.AssertNumberOfCalls(t, "Refresh", 2)
		stream.AssertExpectations(t)
	})
}

func TestRefreshWorker_StartStop(t *testing.T) {
	stream := &mockStream{}
	refresher := &mockRefresher{}
	msgs := make(chan domain.StreamMessage, 1)
	msgs <- eventMessage(t, "7-0", "42")

	stream.On("CreateConsumerGroup", mock.Anything, domain.StreamUserRefresh, group).Return(nil)
	stream.On("ConsumeStream", mock.Anything, domain.StreamUserRefresh, group, mock.Anything).
		Return((<-chan domain.StreamMessage)(msgs), nil)
	refresher.On("Refresh", mock.Anything, "42").Return(&domain.DiscordProfile{ID: "42"}, nil)

	acked := make(chan struct{})
	stream.On("AckMessage", mock.Anything, domain.StreamUserRefresh, group, "7-0").
		Run(func(mock.Arguments) { close(acked) }).Return(nil)

	w := newTestWorker(stream, refresher, 3)
	done := make(chan error, 1)
	go func() { done <- w.Start(context.Background()) }()

	select {
	case <-acked:
	case <-time.After(2 * time.Second):
		t.Fatal("message was not acknowledged")
	}

	require.NoError(t, w.Stop())
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
	assert.True(t, w.IsStopped())
}

func TestRefreshWorker_StartFailsWithoutGroup(t *testing.T) {
	stream := &mockStream{}
	stream.On("CreateConsumerGroup", mock.Anything, domain.StreamUserRefresh, group).Return(errors.New("NOAUTH"))

	err := newTestWorker(stream, &mockRefresher{}, 3).Start(context.Background())

	assert.Error(t, err)
	stream.AssertNotCalled(t, "ConsumeStream", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
