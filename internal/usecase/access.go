package usecase

import (
	"context"
	"fmt"

	"github.com/railway-info/internal/config"
	"github.com/railway-info/internal/domain"
	"github.com/railway-info/internal/domain/repository"
	"github.com/railway-info/internal/pkg/errors"
	"go.uber.org/zap"
)

// ConfigSource hands out the current configuration snapshot.
type ConfigSource interface {
	Current() *config.Config
}

// Access decides who may change what. Admin rights always come from the
// current config, never from what the session remembers.
type Access struct {
	operators repository.OperatorRepository
	cfg       ConfigSource
	logger    *zap.Logger
}

func NewAccess(operators repository.OperatorRepository, cfg ConfigSource, logger *zap.Logger) *Access {
	return &Access{
		operators: operators,
		cfg:       cfg,
		logger:    logger,
	}
}

func (a *Access) IsAdmin(user *domain.SessionUser) bool {
	return user != nil && a.cfg.Current().IsAdmin(user.ID)
}

func (a *Access) Readonly() bool {
	return a.cfg.Current().Admin.Readonly
}

// CanWrite checks login and read-only mode.
func (a *Access) CanWrite(user *domain.SessionUser) error {
	if user == nil {
		return errors.ErrUnauthorized
	}
	if a.Readonly() {
		a.logger.Warn("Write attempted in readonly mode", zap.String("user", user.Username))
		return errors.ErrReadOnly
	}
	return nil
}

// RequireAdmin checks login and admin rights. Read-only mode does not
// lock administrators out.
func (a *Access) RequireAdmin(user *domain.SessionUser) error {
	if user == nil {
		return errors.ErrUnauthorized
	}
	if !a.IsAdmin(user) {
		a.logger.Warn("Admin action refused", zap.String("user", user.Username))
		return errors.ErrAdminOnly
	}
	return nil
}

// RequireOperator returns the operator uid when user may write to it:
// logged in, not read-only, and an admin or a member.
func (a *Access) RequireOperator(ctx context.Context, user *domain.SessionUser, uid string) (*domain.Operator, error) {
	if err := a.CanWrite(user); err != nil {
		return nil, err
	}

	op, err := a.operators.GetByUID(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("get operator %q: %w", uid, err)
	}
	if op == nil {
		return nil, errors.ErrOperatorNotFound
	}

	if !a.IsAdmin(user) && !op.HasUser(user.ID) {
		a.logger.Warn("Not a member of the operator",
			zap.String("user", user.Username),
			zap.String("operator", uid),
		)
		return nil, errors.ErrForbidden
	}
	return op, nil
}

// RequireMember lets admins and members of any operator through.
func (a *Access) RequireMember(ctx context.Context, user *domain.SessionUser) error {
	if err := a.CanWrite(user); err != nil {
		return err
	}
	if a.IsAdmin(user) {
		return nil
	}

	ops, err := a.operators.GetByUser(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("get operators of %s: %w", user.ID, err)
	}
	if len(ops) == 0 {
		return errors.ErrForbidden
	}
	return nil
}
