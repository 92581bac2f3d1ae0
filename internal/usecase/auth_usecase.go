package usecase

import (
	"context"
	"fmt"

	"github.com/railway-info/internal/domain"
	"github.com/railway-info/internal/domain/repository"
	"github.com/railway-info/internal/pkg/errors"
	"github.com/railway-info/internal/usecase/dto"
	"go.uber.org/zap"
)

// AuthUseCase runs the Discord login.
type AuthUseCase struct {
	oauth     repository.DiscordAuthenticator
	profiles  *ProfileUseCase
	operators repository.OperatorRepository
	access    *Access
	logger    *zap.Logger
}

func NewAuthUseCase(
	oauth repository.DiscordAuthenticator,
	profiles *ProfileUseCase,
	operators repository.OperatorRepository,
	access *Access,
	logger *zap.Logger,
) *AuthUseCase {
	return &AuthUseCase{
		oauth:     oauth,
		profiles:  profiles,
		operators: operators,
		access:    access,
		logger:    logger,
	}
}

func (uc *AuthUseCase) LoginURL(state string) string {
	return uc.oauth.AuthCodeURL(state)
}

// Callback exchanges the OAuth code and returns what goes in the session.
// The profile is stored right away so the user shows up with a name.
func (uc *AuthUseCase) Callback(ctx context.Context, code string) (*domain.SessionUser, error) {
	if code == "" {
		return nil, errors.ErrOAuthFailed.WithMessage("Missing authorization code")
	}

	profile, err := uc.oauth.Exchange(ctx, code)
	if err != nil {
		uc.logger.Warn("Discord login failed", zap.Error(err))
		return nil, errors.ErrOAuthFailed
	}

	if err := uc.profiles.Store(ctx, profile); err != nil {
		// a profile cache failure must not fail the login
		uc.logger.Error("Failed to store profile on login", zap.String("user_id", profile.ID), zap.Error(err))
	}

	user := &domain.SessionUser{
		ID:       profile.ID,
		Username: profile.Username,
		Avatar:   profile.AvatarURL,
	}
	user.Admin = uc.access.IsAdmin(user)

	uc.logger.Info("User logged in", zap.String("user", user.Username), zap.Bool("admin", user.Admin))
	return user, nil
}

func (uc *AuthUseCase) Me(ctx context.Context, user *domain.SessionUser) (*dto.MeResponse, error) {
	if user == nil {
		return nil, errors.ErrUnauthorized
	}

	ops, err := uc.operators.GetByUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("get operators of %s: %w", user.ID, err)
	}
	uids := make([]string, 0, len(ops))
	for _, op := range ops {
		uids = append(uids, op.UID)
	}

	return &dto.MeResponse{
		ID:        user.ID,
		Username:  user.Username,
		AvatarURL: user.Avatar,
		Admin:     uc.access.IsAdmin(user),
		Operators: uids,
		Readonly:  uc.access.Readonly(),
	}, nil
}
