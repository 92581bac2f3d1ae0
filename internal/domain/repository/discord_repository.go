package repository

import (
	"context"

	"github.com/railway-info/internal/domain"
)

// DiscordRepository fetches user profiles from the Discord API.
type DiscordRepository interface {
	FetchUser(ctx context.Context, userID string) (*domain.DiscordProfile, error)
	AvatarURL(userID, avatarHash, discriminator string) string
}

// DiscordAuthenticator runs the OAuth2 login against Discord.
type DiscordAuthenticator interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*domain.DiscordProfile, error)
}
