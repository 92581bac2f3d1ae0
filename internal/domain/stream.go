package domain

import (
	"time"

	"github.com/google/uuid"
)

// Stream names
const (
	StreamUserRefresh = "stream:user:refresh"
)

// UserRefreshEvent asks the worker to re-fetch a Discord profile.
type UserRefreshEvent struct {
	EventID     uuid.UUID `json:"event_id"`
	UserID      string    `json:"user_id"`
	Reason      string    `json:"reason"`
	RequestedAt time.Time `json:"requested_at"`
}

func NewUserRefreshEvent(userID, reason string) UserRefreshEvent {
	return UserRefreshEvent{
		EventID:     uuid.New(),
		UserID:      userID,
		Reason:      reason,
		RequestedAt: time.Now().UTC(),
	}
}

// StreamMessage is one Redis stream entry.
type StreamMessage struct {
	ID   string
	Data string
}
