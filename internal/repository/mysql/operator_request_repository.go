package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/railway-info/internal/domain"
	"github.com/railway-info/internal/domain/repository"
	"go.uber.org/zap"
)

var requestColumns = []string{
	"id", "timestamp", "status", "requester_id", "requester_username",
	"company_name", "short_code", "color", "additional_users", "company_uid",
}

type requestRow struct {
	ID                int64          `db:"id"`
	Timestamp         time.Time      `db:"timestamp"`
	Status            string         `db:"status"`
	RequesterID       string         `db:"requester_id"`
	RequesterUsername string         `db:"requester_username"`
	CompanyName       string         `db:"company_name"`
	ShortCode         string         `db:"short_code"`
	Color             domain.Color   `db:"color"`
	AdditionalUsers   sql.NullString `db:"additional_users"`
	CompanyUID        string         `db:"company_uid"`
}

type operatorRequestRepository struct {
	store  *Store
	logger *zap.Logger
	now    func() time.Time
}

func NewOperatorRequestRepository(store *Store, logger *zap.Logger) repository.OperatorRequestRepository {
	return &operatorRequestRepository{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// Create stores a pending request stamped with the current time and makes
// sure the requester has a user row.
func (r *operatorRequestRepository) Create(ctx context.Context, in domain.OperatorRequestInput) (int64, error) {
	additional := in.AdditionalUsers
	if additional == nil {
		additional = []string{}
	}
	usersJSON, err := json.Marshal(additional)
	if err != nil {
		return 0, fmt.Errorf("encode additional users: %w", err)
	}

	var id int64
	err = r.store.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := r.store.InsertIgnore(ctx, "user", Fields{"id": in.Requester.ID}); err != nil {
			return fmt.Errorf("ensure requester %s: %w", in.Requester.ID, err)
		}

		id, err = r.store.Insert(ctx, "operator_request", Fields{
			"timestamp":          r.now().UTC().Truncate(time.Microsecond),
			"status":             string(domain.RequestPending),
			"requester_id":       in.Requester.ID,
			"requester_username": in.Requester.Username,
			"company_name":       in.CompanyName,
			"short_code":         in.ShortCode,
			"color":              in.Color,
			"additional_users":   string(usersJSON),
			"company_uid":        in.CompanyUID,
		})
		if err != nil {
			return fmt.Errorf("create operator request: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	r.logger.Info("Created operator request",
		zap.Int64("id", id),
		zap.String("company_uid", in.CompanyUID),
		zap.String("requester", in.Requester.ID),
	)
	return id, nil
}

func (r *operatorRequestRepository) GetAll(ctx context.Context) ([]domain.OperatorRequest, error) {
	return r.list(ctx, nil)
}

func (r *operatorRequestRepository) GetPending(ctx context.Context) ([]domain.OperatorRequest, error) {
	return r.list(ctx, Filter{"status": string(domain.RequestPending)})
}

func (r *operatorRequestRepository) GetByID(ctx context.Context, id int64) (*domain.OperatorRequest, error) {
	return r.getOne(ctx, Filter{"id": id})
}

// GetByTimestamp looks a request up by its creation time, the identifier
// older clients still send.
func (r *operatorRequestRepository) GetByTimestamp(ctx context.Context, ts time.Time) (*domain.OperatorRequest, error) {
	return r.getOne(ctx, Filter{"timestamp": ts.UTC()})
}

func (r *operatorRequestRepository) UpdateStatus(ctx context.Context, id int64, status domain.RequestStatus) error {
	if !domain.RequestPending.CanTransitionTo(status) {
		return fmt.Errorf("request %d to %q: %w", id, status, domain.ErrInvalidTransition)
	}

	n, err := r.store.Update(ctx, "operator_request",
		Fields{"status": string(status)},
		Filter{"id": id, "status": string(domain.RequestPending)},
	)
	if err != nil {
		return fmt.Errorf("update request %d: %w", id, err)
	}
	if n > 0 {
		r.logger.Info("Updated operator request status", zap.Int64("id", id), zap.String("status", string(status)))
		return nil
	}

	// nothing changed: the request is gone or already handled
	exists, err := r.store.Exists(ctx, "operator_request", Filter{"id": id})
	if err != nil {
		return fmt.Errorf("find request %d: %w", id, err)
	}
	if !exists {
		return fmt.Errorf("request %d: %w", id, domain.ErrRequestNotFound)
	}
	return fmt.Errorf("request %d is no longer pending: %w", id, domain.ErrInvalidTransition)
}

func (r *operatorRequestRepository) Delete(ctx context.Context, id int64) (bool, error) {
	return r.store.DeleteByID(ctx, "operator_request", id)
}

func (r *operatorRequestRepository) DeleteByTimestamp(ctx context.Context, ts time.Time) (bool, error) {
	n, err := r.store.Delete(ctx, "operator_request", Filter{"timestamp": ts.UTC()})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *operatorRequestRepository) Count(ctx context.Context, status domain.RequestStatus) (int, error) {
	var where Filter
	if status != "" {
		where = Filter{"status": string(status)}
	}
	return r.store.Count(ctx, "operator_request", where)
}

func (r *operatorRequestRepository) list(ctx context.Context, where Filter) ([]domain.OperatorRequest, error) {
	var rows []requestRow
	err := r.store.Select(ctx, &rows, "operator_request", Query{
		Columns: requestColumns,
		Where:   where,
		OrderBy: []Order{{Column: "timestamp", Desc: true}, {Column: "id", Desc: true}},
	})
	if err != nil {
		return nil, fmt.Errorf("query operator requests: %w", err)
	}

	requests := make([]domain.OperatorRequest, 0, len(rows))
	for _, row := range rows {
		requests = append(requests, r.toDomain(row))
	}
	return requests, nil
}

func (r *operatorRequestRepository) getOne(ctx context.Context, where Filter) (*domain.OperatorRequest, error) {
	var row requestRow
	found, err := r.store.SelectOne(ctx, &row, "operator_request", where, requestColumns...)
	if err != nil {
		return nil, fmt.Errorf("query operator request: %w", err)
	}
	if !found {
		return nil, nil
	}
	req := r.toDomain(row)
	return &req, nil
}

func (r *operatorRequestRepository) toDomain(row requestRow) domain.OperatorRequest {
	users := []string{}
	if row.AdditionalUsers.Valid && row.AdditionalUsers.String != "" {
		if err := json.Unmarshal([]byte(row.AdditionalUsers.String), &users); err != nil {
			r.logger.Warn("Malformed additional_users, ignoring",
				zap.Int64("id", row.ID),
				zap.Error(err),
			)
			users = []string{}
		}
	}

	return domain.OperatorRequest{
		ID:        row.ID,
		Timestamp: row.Timestamp,
		Status:    domain.RequestStatus(row.Status),
		Requester: domain.Requester{
			ID:       row.RequesterID,
			Username: row.RequesterUsername,
		},
		CompanyName:     row.CompanyName,
		ShortCode:       row.ShortCode,
		Color:           row.Color,
		AdditionalUsers: users,
		CompanyUID:      row.CompanyUID,
	}
}
