package repository

import (
	"context"

	"github.com/railway-info/internal/domain"
)

// OperatorRepository stores operators and their members.
type OperatorRepository interface {
	GetAll(ctx context.Context) ([]domain.Operator, error)
	GetByUID(ctx context.Context, uid string) (*domain.Operator, error)
	GetByName(ctx context.Context, name string) (*domain.Operator, error)
	GetByUser(ctx context.Context, userID string) ([]domain.Operator, error)

	// Create skips users that cannot be resolved and logs a warning for each.
	Create(ctx context.Context, in domain.OperatorInput) (int64, error)

	Update(ctx context.Context, uid string, upd domain.OperatorUpdate) (bool, error)

	// Delete proceeds even when the operator still owns lines.
	Delete(ctx context.Context, uid string) (bool, error)

	AddUser(ctx context.Context, uid, userID string) (bool, error)
	RemoveUser(ctx context.Context, uid, userID string) (bool, error)
	Exists(ctx context.Context, uid string) (bool, error)
	UserBelongs(ctx context.Context, uid, userID string) (bool, error)
	Count(ctx context.Context) (int, error)
}
