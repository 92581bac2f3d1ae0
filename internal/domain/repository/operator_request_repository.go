package repository

import (
	"context"
	"time"

	"github.com/railway-info/internal/domain"
)

// OperatorRequestRepository stores requests to create operators.
type OperatorRequestRepository interface {
	Create(ctx context.Context, in domain.OperatorRequestInput) (int64, error)

	// GetAll and GetPending return newest first.
	GetAll(ctx context.Context) ([]domain.OperatorRequest, error)
	GetPending(ctx context.Context) ([]domain.OperatorRequest, error)

	GetByID(ctx context.Context, id int64) (*domain.OperatorRequest, error)
	GetByTimestamp(ctx context.Context, ts time.Time) (*domain.OperatorRequest, error)

	// UpdateStatus moves a pending request to a terminal status. It returns
	// domain.ErrRequestNotFound or domain.ErrInvalidTransition otherwise.
	UpdateStatus(ctx context.Context, id int64, status domain.RequestStatus) error

	Delete(ctx context.Context, id int64) (bool, error)
	DeleteByTimestamp(ctx context.Context, ts time.Time) (bool, error)

	// Count counts all requests when status is empty.
	Count(ctx context.Context, status domain.RequestStatus) (int, error)
}
