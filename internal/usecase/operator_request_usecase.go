package usecase

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"github.com/railway-info/internal/domain"
	"github.com/railway-info/internal/domain/repository"
	"github.com/railway-info/internal/pkg/errors"
	"github.com/railway-info/internal/pkg/logger"
	"github.com/railway-info/internal/usecase/dto"
	"go.uber.org/zap"
)

// OperatorRequestUseCase runs the "new operator" approval workflow.
type OperatorRequestUseCase struct {
	requests  repository.OperatorRequestRepository
	operators repository.OperatorRepository
	tx        repository.Transactor
	cacheRepo repository.CacheRepository
	profiles  *ProfileUseCase
	access    *Access
	logger    *zap.Logger
}

func NewOperatorRequestUseCase(
	requests repository.OperatorRequestRepository,
	operators repository.OperatorRepository,
	tx repository.Transactor,
	cacheRepo repository.CacheRepository,
	profiles *ProfileUseCase,
	access *Access,
	logger *zap.Logger,
) *OperatorRequestUseCase {
	return &OperatorRequestUseCase{
		requests:  requests,
		operators: operators,
		tx:        tx,
		cacheRepo: cacheRepo,
		profiles:  profiles,
		access:    access,
		logger:    logger,
	}
}

// Submit files a request on behalf of the logged in user.
func (uc *OperatorRequestUseCase) Submit(ctx context.Context, user *domain.SessionUser, req dto.CreateOperatorRequest) (*dto.CreatedRequestResponse, error) {
	if err := uc.access.CanWrite(user); err != nil {
		return nil, err
	}

	color, err := domain.ParseColor(req.Color)
	if err != nil {
		return nil, errors.ErrInvalidColor
	}

	uid := strings.ToLower(strings.TrimSpace(req.CompanyUID))
	if uid == "" {
		uid = slug.Make(req.CompanyName)
	}
	if uid == "" {
		return nil, errors.ErrInvalidRequest.WithMessage("Company uid cannot be derived from the name")
	}

	exists, err := uc.operators.Exists(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("check operator %q: %w", uid, err)
	}
	if exists {
		return nil, errors.ErrOperatorExists
	}

	id, err := uc.requests.Create(ctx, domain.OperatorRequestInput{
		Requester:       domain.Requester{ID: user.ID, Username: user.Username},
		CompanyName:     strings.TrimSpace(req.CompanyName),
		ShortCode:       strings.TrimSpace(req.ShortCode),
		Color:           color,
		AdditionalUsers: req.AdditionalUsers,
		CompanyUID:      uid,
	})
	if err != nil {
		return nil, fmt.Errorf("create operator request: %w", err)
	}

	uc.logger.Info("New company request", zap.String("user", user.Username), zap.String("company_uid", uid))
	uc.profiles.RequestRefresh(ctx, "request", req.AdditionalUsers...)

	return &dto.CreatedRequestResponse{ID: id, CompanyUID: uid}, nil
}

// List returns pending requests, or every request when all is set.
func (uc *OperatorRequestUseCase) List(ctx context.Context, user *domain.SessionUser, all bool) ([]domain.OperatorRequest, error) {
	if err := uc.access.RequireAdmin(user); err != nil {
		return nil, err
	}

	var (
		reqs []domain.OperatorRequest
		err  error
	)
	if all {
		reqs, err = uc.requests.GetAll(ctx)
	} else {
		reqs, err = uc.requests.GetPending(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("list operator requests: %w", err)
	}
	return reqs, nil
}

func (uc *OperatorRequestUseCase) Get(ctx context.Context, user *domain.SessionUser, id int64) (*domain.OperatorRequest, error) {
	if err := uc.access.RequireAdmin(user); err != nil {
		return nil, err
	}

	req, err := uc.requests.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get operator request %d: %w", id, err)
	}
	if req == nil {
		return nil, errors.ErrRequestNotFound
	}
	return req, nil
}

// Handle accepts or rejects a pending request. Accepting creates the
// operator with the requester as its first member; both writes share one
// transaction.
func (uc *OperatorRequestUseCase) Handle(ctx context.Context, user *domain.SessionUser, id int64, action string) error {
	if err := uc.access.RequireAdmin(user); err != nil {
		return err
	}

	status, err := actionStatus(action)
	if err != nil {
		return err
	}

	var handled *domain.OperatorRequest
	err = uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		req, err := uc.requests.GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("get operator request %d: %w", id, err)
		}
		if req == nil {
			return errors.ErrRequestNotFound
		}
		if !req.Status.CanTransitionTo(status) {
			return errors.ErrInvalidTransition
		}

		if status == domain.RequestAccepted {
			if err := uc.createOperator(ctx, req); err != nil {
				return err
			}
		}

		if err := uc.requests.UpdateStatus(ctx, id, status); err != nil {
			return mapRequestError(err)
		}
		handled = req
		return nil
	})
	if err != nil {
		return err
	}

	if status == domain.RequestAccepted {
		if err := uc.cacheRepo.Delete(ctx, operatorsFeedKey); err != nil {
			uc.logger.Warn("Failed to invalidate feeds", zap.Error(err))
		}
		uc.profiles.RequestRefresh(ctx, "membership", requestUsers(handled)...)
	}

	uc.logger.Info("Handled operator request",
		zap.String("user", user.Username),
		zap.Int64("request_id", id),
		zap.String("status", string(status)),
		zap.String("company", handled.CompanyName),
		logger.Admin(),
	)
	return nil
}

// HandleByTimestamp serves clients that still identify requests by their
// creation time.
func (uc *OperatorRequestUseCase) HandleByTimestamp(ctx context.Context, user *domain.SessionUser, ts time.Time, action string) error {
	if err := uc.access.RequireAdmin(user); err != nil {
		return err
	}

	req, err := uc.requests.GetByTimestamp(ctx, ts)
	if err != nil {
		return fmt.Errorf("get operator request at %s: %w", ts, err)
	}
	if req == nil {
		return errors.ErrRequestNotFound
	}
	return uc.Handle(ctx, user, req.ID, action)
}

func (uc *OperatorRequestUseCase) Delete(ctx context.Context, user *domain.SessionUser, id int64) error {
	if err := uc.access.RequireAdmin(user); err != nil {
		return err
	}

	ok, err := uc.requests.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete operator request %d: %w", id, err)
	}
	if !ok {
		return errors.ErrRequestNotFound
	}

	uc.logger.Info("Deleted operator request", zap.String("user", user.Username), zap.Int64("request_id", id), logger.Admin())
	return nil
}

// DeleteByTimestamp is Delete for the old admin page, which only knows
// the creation time.
func (uc *OperatorRequestUseCase) DeleteByTimestamp(ctx context.Context, user *domain.SessionUser, ts time.Time) error {
	if err := uc.access.RequireAdmin(user); err != nil {
		return err
	}

	ok, err := uc.requests.DeleteByTimestamp(ctx, ts)
	if err != nil {
		return fmt.Errorf("delete operator request at %s: %w", ts, err)
	}
	if !ok {
		return errors.ErrRequestNotFound
	}

	uc.logger.Info("Deleted operator request", zap.String("user", user.Username), zap.Time("timestamp", ts), logger.Admin())
	return nil
}

func (uc *OperatorRequestUseCase) createOperator(ctx context.Context, req *domain.OperatorRequest) error {
	uid := strings.ToLower(req.CompanyUID)

	exists, err := uc.operators.Exists(ctx, uid)
	if err != nil {
		return fmt.Errorf("check operator %q: %w", uid, err)
	}
	if exists {
		return errors.ErrOperatorExists
	}

	_, err = uc.operators.Create(ctx, domain.OperatorInput{
		UID:   uid,
		Name:  req.CompanyName,
		Short: req.ShortCode,
		Color: req.Color,
		Users: requestUsers(req),
	})
	if err != nil {
		if stderrors.Is(err, domain.ErrDuplicate) {
			return errors.ErrOperatorExists
		}
		return fmt.Errorf("create operator %q: %w", uid, err)
	}
	return nil
}

// requestUsers is the requester followed by the additional users.
func requestUsers(req *domain.OperatorRequest) []string {
	users := make([]string, 0, len(req.AdditionalUsers)+1)
	users = append(users, req.Requester.ID)
	for _, u := range req.AdditionalUsers {
		if u != req.Requester.ID {
			users = append(users, u)
		}
	}
	return users
}

func actionStatus(action string) (domain.RequestStatus, error) {
	switch action {
	case "accept":
		return domain.RequestAccepted, nil
	case "reject":
		return domain.RequestRejected, nil
	}
	return "", errors.ErrInvalidRequest.WithMessage("Action must be accept or reject")
}

func mapRequestError(err error) error {
	switch {
	case stderrors.Is(err, domain.ErrRequestNotFound):
		return errors.ErrRequestNotFound
	case stderrors.Is(err, domain.ErrInvalidTransition):
		return errors.ErrInvalidTransition
	}
	return fmt.Errorf("update request status: %w", err)
}
