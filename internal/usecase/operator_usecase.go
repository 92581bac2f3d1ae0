package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/railway-info/internal/domain"
	"github.com/railway-info/internal/domain/repository"
	"github.com/railway-info/internal/pkg/errors"
	"github.com/railway-info/internal/pkg/logger"
	"github.com/railway-info/internal/pkg/sanitize"
	"github.com/railway-info/internal/usecase/dto"
	"go.uber.org/zap"
)

// OperatorUseCase holds the operator rules.
type OperatorUseCase struct {
	operators repository.OperatorRepository
	lines     repository.LineRepository
	cacheRepo repository.CacheRepository
	profiles  *ProfileUseCase
	access    *Access
	feedTTL   time.Duration
	logger    *zap.Logger
}

func NewOperatorUseCase(
	operators repository.OperatorRepository,
	lines repository.LineRepository,
	cacheRepo repository.CacheRepository,
	profiles *ProfileUseCase,
	access *Access,
	feedTTL time.Duration,
	logger *zap.Logger,
) *OperatorUseCase {
	return &OperatorUseCase{
		operators: operators,
		lines:     lines,
		cacheRepo: cacheRepo,
		profiles:  profiles,
		access:    access,
		feedTTL:   feedTTL,
		logger:    logger,
	}
}

func (uc *OperatorUseCase) GetAll(ctx context.Context) ([]domain.Operator, error) {
	ops, err := uc.operators.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("get operators: %w", err)
	}
	return ops, nil
}

// Summaries lists operators with the number of lines each runs.
func (uc *OperatorUseCase) Summaries(ctx context.Context) ([]dto.OperatorSummary, error) {
	ops, err := uc.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	lines, err := uc.lines.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}

	counts := make(map[string]int, len(ops))
	for _, l := range lines {
		counts[l.OperatorUID]++
	}

	out := make([]dto.OperatorSummary, 0, len(ops))
	for _, op := range ops {
		out = append(out, dto.OperatorSummary{Operator: op, TrainCount: counts[op.UID]})
	}
	return out, nil
}

func (uc *OperatorUseCase) Get(ctx context.Context, uid string) (*domain.Operator, error) {
	op, err := uc.operators.GetByUID(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("get operator %q: %w", uid, err)
	}
	if op == nil {
		return nil, errors.ErrOperatorNotFound
	}
	return op, nil
}

// ForUser returns the operators userID is a member of.
func (uc *OperatorUseCase) ForUser(ctx context.Context, userID string) ([]domain.Operator, error) {
	ops, err := uc.operators.GetByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get operators of %s: %w", userID, err)
	}
	return ops, nil
}

// Page builds the public operator page: lines with notices and station
// names cleaned for display, plus member profiles.
func (uc *OperatorUseCase) Page(ctx context.Context, uid string) (*dto.OperatorPage, error) {
	op, err := uc.Get(ctx, uid)
	if err != nil {
		return nil, err
	}

	lines, err := uc.lines.GetByOperator(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("get lines of %q: %w", uid, err)
	}
	for i := range lines {
		lines[i].Notice = sanitize.Notice(lines[i].Notice)
		lines[i].Stations = sanitize.StationNames(lines[i].Stations)
	}

	members, err := uc.profiles.Members(ctx, op.Users)
	if err != nil {
		return nil, err
	}

	return &dto.OperatorPage{
		Operator: *op,
		Members:  members,
		Lines:    lines,
	}, nil
}

// Feed returns the JSON served at /operators.json.
func (uc *OperatorUseCase) Feed(ctx context.Context) ([]byte, error) {
	return cachedFeed(ctx, uc.cacheRepo, uc.logger, operatorsFeedKey, uc.feedTTL, func() (interface{}, error) {
		return uc.GetAll(ctx)
	})
}

func (uc *OperatorUseCase) Update(ctx context.Context, user *domain.SessionUser, uid string, req dto.UpdateOperatorRequest) error {
	op, err := uc.access.RequireOperator(ctx, user, uid)
	if err != nil {
		return err
	}

	upd, err := req.ToUpdate()
	if err != nil {
		return errors.ErrInvalidColor
	}

	ok, err := uc.operators.Update(ctx, uid, upd)
	if err != nil {
		return fmt.Errorf("update operator %q: %w", uid, err)
	}
	if !ok {
		return errors.ErrOperatorNotFound
	}

	uc.invalidate(ctx)
	uc.logger.Info("Operator updated",
		zap.String("user", user.Username),
		zap.String("operator", uid),
	)

	if upd.Users != nil {
		uc.profiles.RequestRefresh(ctx, "membership", newUsers(op.Users, *upd.Users)...)
	}
	return nil
}

// Delete removes an operator. Its lines stay, without an operator.
func (uc *OperatorUseCase) Delete(ctx context.Context, user *domain.SessionUser, uid string) error {
	if err := uc.access.RequireAdmin(user); err != nil {
		return err
	}

	ok, err := uc.operators.Delete(ctx, uid)
	if err != nil {
		return fmt.Errorf("delete operator %q: %w", uid, err)
	}
	if !ok {
		return errors.ErrOperatorNotFound
	}

	uc.invalidate(ctx)
	uc.logger.Info("Deleted operator", zap.String("user", user.Username), zap.String("operator", uid), logger.Admin())
	return nil
}

func (uc *OperatorUseCase) AddMember(ctx context.Context, user *domain.SessionUser, uid, memberID string) error {
	if _, err := uc.access.RequireOperator(ctx, user, uid); err != nil {
		return err
	}

	added, err := uc.operators.AddUser(ctx, uid, memberID)
	if err != nil {
		return fmt.Errorf("add %s to %q: %w", memberID, uid, err)
	}

	uc.invalidate(ctx)
	if added {
		uc.logger.Info("Added operator member",
			zap.String("user", user.Username),
			zap.String("operator", uid),
			zap.String("member", memberID),
		)
		uc.profiles.RequestRefresh(ctx, "membership", memberID)
	}
	return nil
}

func (uc *OperatorUseCase) RemoveMember(ctx context.Context, user *domain.SessionUser, uid, memberID string) error {
	if _, err := uc.access.RequireOperator(ctx, user, uid); err != nil {
		return err
	}

	removed, err := uc.operators.RemoveUser(ctx, uid, memberID)
	if err != nil {
		return fmt.Errorf("remove %s from %q: %w", memberID, uid, err)
	}
	if !removed {
		return errors.ErrInvalidRequest.WithMessage("User is not a member of this operator")
	}

	uc.invalidate(ctx)
	uc.logger.Info("Removed operator member",
		zap.String("user", user.Username),
		zap.String("operator", uid),
		zap.String("member", memberID),
	)
	return nil
}

func (uc *OperatorUseCase) invalidate(ctx context.Context) {
	if err := uc.cacheRepo.Delete(ctx, operatorsFeedKey, linesFeedKey); err != nil {
		uc.logger.Warn("Failed to invalidate feeds", zap.Error(err))
	}
}

// newUsers returns the ids in next that are not in prev.
func newUsers(prev, next []string) []string {
	seen := make(map[string]struct{}, len(prev))
	for _, id := range prev {
		seen[id] = struct{}{}
	}
	var out []string
	for _, id := range next {
		if _, ok := seen[id]; !ok {
			out = append(out, id)
			seen[id] = struct{}{}
		}
	}
	return out
}
