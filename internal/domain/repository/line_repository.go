package repository

import (
	"context"

	"github.com/railway-info/internal/domain"
)

// LineRepository stores lines with their station and composition links.
type LineRepository interface {
	// GetAll returns every line with stations and compositions in two queries.
	GetAll(ctx context.Context) ([]domain.Line, error)

	// GetByName returns nil when no line matches.
	GetByName(ctx context.Context, name string) (*domain.Line, error)

	// GetByOperator returns an empty slice for unknown operators.
	GetByOperator(ctx context.Context, operatorUID string) ([]domain.Line, error)

	// Create returns domain.ErrOperatorNotFound when the operator uid is unknown.
	Create(ctx context.Context, in domain.LineInput) (int64, error)

	Update(ctx context.Context, name string, upd domain.LineUpdate) (bool, error)
	Delete(ctx context.Context, name string) (bool, error)
	Exists(ctx context.Context, name string) (bool, error)

	// Count counts all lines, or only those of operatorUID when it is not empty.
	Count(ctx context.Context, operatorUID string) (int, error)

	// CountStationLinks counts line/station associations.
	CountStationLinks(ctx context.Context) (int, error)
}
