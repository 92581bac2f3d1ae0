package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/railway-info/internal/domain"
	"github.com/railway-info/internal/domain/repository"
	"go.uber.org/zap"
)

type userRow struct {
	ID          string         `db:"id"`
	DisplayName sql.NullString `db:"display_name"`
	Username    sql.NullString `db:"username"`
	AvatarHash  sql.NullString `db:"avatar_hash"`
	RefreshedAt sql.NullTime   `db:"refreshed_at"`
}

type userRepository struct {
	store  *Store
	logger *zap.Logger
	now    func() time.Time
}

func NewUserRepository(store *Store, logger *zap.Logger) repository.UserRepository {
	return &userRepository{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

func (r *userRepository) Ensure(ctx context.Context, id string) error {
	if _, err := r.store.InsertIgnore(ctx, "user", Fields{"id": id}); err != nil {
		return fmt.Errorf("ensure user %s: %w", id, err)
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	var row userRow
	found, err := r.store.SelectOne(ctx, &row, "user", Filter{"id": id},
		"id", "display_name", "username", "avatar_hash", "refreshed_at")
	if err != nil {
		return nil, fmt.Errorf("query user %s: %w", id, err)
	}
	if !found {
		return nil, nil
	}
	user := row.toDomain()
	return &user, nil
}

// GetByIDs returns the known users among ids; unknown ids are left out.
func (r *userRepository) GetByIDs(ctx context.Context, ids []string) ([]domain.User, error) {
	if len(ids) == 0 {
		return []domain.User{}, nil
	}

	query, args, err := sqlx.In(
		"SELECT id, display_name, username, avatar_hash, refreshed_at FROM `user` WHERE id IN (?) ORDER BY id", ids)
	if err != nil {
		return nil, fmt.Errorf("build user query: %w", err)
	}

	var rows []userRow
	if err := r.store.RawQuery(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}

	users := make([]domain.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.toDomain())
	}
	return users, nil
}

// UpdateProfile stores the Discord profile, creating the user if needed.
func (r *userRepository) UpdateProfile(ctx context.Context, profile domain.DiscordProfile) error {
	_, err := r.store.Upsert(ctx, "user", Fields{
		"id":           profile.ID,
		"display_name": nullString(profile.DisplayName),
		"username":     nullString(profile.Username),
		"avatar_hash":  nullString(profile.AvatarHash),
		"refreshed_at": r.now().UTC().Truncate(time.Second),
	}, "display_name", "username", "avatar_hash", "refreshed_at")
	if err != nil {
		return fmt.Errorf("update profile of %s: %w", profile.ID, err)
	}

	r.logger.Debug("Stored user profile", zap.String("user_id", profile.ID))
	return nil
}

func (row userRow) toDomain() domain.User {
	u := domain.User{
		ID:          row.ID,
		DisplayName: row.DisplayName.String,
		Username:    row.Username.String,
		AvatarHash:  row.AvatarHash.String,
	}
	if row.RefreshedAt.Valid {
		t := row.RefreshedAt.Time
		u.RefreshedAt = &t
	}
	return u
}
