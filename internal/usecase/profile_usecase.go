package usecase

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/railway-info/internal/domain"
	"github.com/railway-info/internal/domain/repository"
	"github.com/railway-info/internal/usecase/dto"
	"go.uber.org/zap"
)

// ProfileUseCase keeps the cached Discord profiles of users up to date.
type ProfileUseCase struct {
	users      repository.UserRepository
	discord    repository.DiscordRepository
	cacheRepo  repository.CacheRepository
	streamRepo repository.StreamRepository
	profileTTL time.Duration
	logger     *zap.Logger
}

func NewProfileUseCase(
	users repository.UserRepository,
	discord repository.DiscordRepository,
	cacheRepo repository.CacheRepository,
	streamRepo repository.StreamRepository,
	profileTTL time.Duration,
	logger *zap.Logger,
) *ProfileUseCase {
	return &ProfileUseCase{
		users:      users,
		discord:    discord,
		cacheRepo:  cacheRepo,
		streamRepo: streamRepo,
		profileTTL: profileTTL,
		logger:     logger,
	}
}

// Refresh fetches the profile from Discord and stores it on the user row
// and in the cache. Permanent failures (no bot token, unknown user) are
// returned as is so callers can tell them apart.
func (uc *ProfileUseCase) Refresh(ctx context.Context, userID string) (*domain.DiscordProfile, error) {
	profile, err := uc.discord.FetchUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("fetch discord user %s: %w", userID, err)
	}

	if err := uc.Store(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// Store saves an already fetched profile, e.g. the one returned by login.
func (uc *ProfileUseCase) Store(ctx context.Context, profile *domain.DiscordProfile) error {
	if err := uc.users.UpdateProfile(ctx, *profile); err != nil {
		return fmt.Errorf("store profile %s: %w", profile.ID, err)
	}

	if err := uc.cacheRepo.SetProfile(ctx, profile, uc.profileTTL); err != nil {
		uc.logger.Warn("Failed to cache profile", zap.String("user_id", profile.ID), zap.Error(err))
	}
	return nil
}

// RequestRefresh queues a refresh for each user. Publishing is best effort.
func (uc *ProfileUseCase) RequestRefresh(ctx context.Context, reason string, userIDs ...string) {
	for _, id := range userIDs {
		if id == "" {
			continue
		}
		event := domain.NewUserRefreshEvent(id, reason)
		if err := uc.streamRepo.PublishToStream(ctx, domain.StreamUserRefresh, event); err != nil {
			uc.logger.Warn("Failed to queue profile refresh",
				zap.String("user_id", id),
				zap.String("reason", reason),
				zap.Error(err),
			)
		}
	}
}

// Members resolves user ids into display data, keeping the order of ids.
// Users never seen by the refresh worker get placeholders.
func (uc *ProfileUseCase) Members(ctx context.Context, userIDs []string) ([]dto.Member, error) {
	members := make([]dto.Member, 0, len(userIDs))
	if len(userIDs) == 0 {
		return members, nil
	}

	users, err := uc.users.GetByIDs(ctx, userIDs)
	if err != nil {
		return nil, fmt.Errorf("get members: %w", err)
	}
	known := make(map[string]domain.User, len(users))
	for _, u := range users {
		known[u.ID] = u
	}

	var missing []string
	for _, id := range userIDs {
		u, ok := known[id]
		if !ok {
			members = append(members, dto.Member{
				ID:        id,
				AvatarURL: uc.discord.AvatarURL(id, "", ""),
			})
			missing = append(missing, id)
			continue
		}

		m := dto.Member{
			ID:          id,
			Username:    u.Username,
			DisplayName: u.DisplayName,
			AvatarURL:   uc.discord.AvatarURL(id, u.AvatarHash, "0"),
		}
		if m.Username == "" {
			m.Username = "id:" + id
			missing = append(missing, id)
		}
		if m.DisplayName == "" {
			m.DisplayName = "Unknown"
		}
		members = append(members, m)
	}

	if len(missing) > 0 {
		uc.RequestRefresh(ctx, "members", missing...)
	}
	return members, nil
}

// IsPermanent reports refresh failures that retrying will not fix.
func IsPermanent(err error) bool {
	return stderrors.Is(err, domain.ErrDiscordNotConfigured) || stderrors.Is(err, domain.ErrDiscordUserNotFound)
}
