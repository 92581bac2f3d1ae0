package repository

import (
	"context"

	"github.com/railway-info/internal/domain"
)

type UserRepository interface {
	// Ensure creates a bare user row when the id is not known yet.
	Ensure(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByIDs(ctx context.Context, ids []string) ([]domain.User, error)
	UpdateProfile(ctx context.Context, profile domain.DiscordProfile) error
}
