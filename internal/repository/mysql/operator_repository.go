package mysql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/railway-info/internal/domain"
	"github.com/railway-info/internal/domain/repository"
	"go.uber.org/zap"
)

var operatorColumns = []string{"id", "uid", "name", "color", "short", "image_path", "description"}

type operatorRow struct {
	ID          int64          `db:"id"`
	UID         string         `db:"uid"`
	Name        string         `db:"name"`
	Color       sql.NullInt64  `db:"color"`
	Short       sql.NullString `db:"short"`
	ImagePath   sql.NullString `db:"image_path"`
	Description sql.NullString `db:"description"`
}

type membershipRow struct {
	OperatorID int64  `db:"operator_id"`
	UserID     string `db:"user_id"`
}

type operatorRepository struct {
	store  *Store
	logger *zap.Logger
}

func NewOperatorRepository(store *Store, logger *zap.Logger) repository.OperatorRepository {
	return &operatorRepository{
		store:  store,
		logger: logger,
	}
}

// GetAll reads operators and all memberships in two queries.
func (r *operatorRepository) GetAll(ctx context.Context) ([]domain.Operator, error) {
	var rows []operatorRow
	err := r.store.Select(ctx, &rows, "operator", Query{
		Columns: operatorColumns,
		OrderBy: []Order{{Column: "name"}},
	})
	if err != nil {
		return nil, fmt.Errorf("query operators: %w", err)
	}

	var members []membershipRow
	err = r.store.Select(ctx, &members, "operator_user", Query{
		Columns: []string{"operator_id", "user_id"},
		OrderBy: []Order{{Column: "operator_id"}, {Column: "user_id"}},
	})
	if err != nil {
		return nil, fmt.Errorf("query operator members: %w", err)
	}

	return assembleOperators(rows, members), nil
}

func (r *operatorRepository) GetByUID(ctx context.Context, uid string) (*domain.Operator, error) {
	return r.getOne(ctx, Filter{"uid": uid})
}

func (r *operatorRepository) GetByName(ctx context.Context, name string) (*domain.Operator, error) {
	return r.getOne(ctx, Filter{"name": name})
}

// GetByUser returns every operator userID is a member of.
func (r *operatorRepository) GetByUser(ctx context.Context, userID string) ([]domain.Operator, error) {
	var rows []operatorRow
	query := `
SELECT o.id, o.uid, o.name, o.color, o.short, o.image_path, o.description
FROM operator o
JOIN operator_user ou ON ou.operator_id = o.id
WHERE ou.user_id = ?
ORDER BY o.name`
	if err := r.store.RawQuery(ctx, &rows, query, userID); err != nil {
		return nil, fmt.Errorf("query operators of user %s: %w", userID, err)
	}
	if len(rows) == 0 {
		return []domain.Operator{}, nil
	}

	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	inQuery, args, err := sqlx.In("SELECT operator_id, user_id FROM operator_user WHERE operator_id IN (?) ORDER BY operator_id, user_id", ids)
	if err != nil {
		return nil, fmt.Errorf("build members query: %w", err)
	}

	var members []membershipRow
	if err := r.store.RawQuery(ctx, &members, inQuery, args...); err != nil {
		return nil, fmt.Errorf("query members of user operators: %w", err)
	}

	return assembleOperators(rows, members), nil
}

// Create inserts the operator and its memberships. A user that cannot be
// stored is skipped with a warning; the operator is still created.
func (r *operatorRepository) Create(ctx context.Context, in domain.OperatorInput) (int64, error) {
	var operatorID int64

	err := r.store.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		operatorID, err = r.store.Insert(ctx, "operator", Fields{
			"uid":         in.UID,
			"name":        in.Name,
			"color":       in.Color,
			"short":       in.Short,
			"image_path":  nullString(in.ImagePath),
			"description": nullString(in.Description),
		})
		if err != nil {
			return fmt.Errorf("insert operator %q: %w", in.UID, err)
		}

		r.addMembers(ctx, operatorID, in.UID, in.Users)
		return nil
	})
	if err != nil {
		return 0, err
	}

	r.logger.Info("Created operator", zap.String("uid", in.UID), zap.Int64("id", operatorID))
	return operatorID, nil
}

// Update applies the non-nil fields of upd; Users replaces all memberships.
func (r *operatorRepository) Update(ctx context.Context, uid string, upd domain.OperatorUpdate) (bool, error) {
	updated := false

	err := r.store.WithinTx(ctx, func(ctx context.Context) error {
		var row idRow
		found, err := r.store.SelectOne(ctx, &row, "operator", Filter{"uid": uid}, "id")
		if err != nil {
			return fmt.Errorf("find operator %q: %w", uid, err)
		}
		if !found {
			return nil
		}

		fields := Fields{}
		if upd.Name != nil {
			fields["name"] = *upd.Name
		}
		if upd.Color != nil {
			fields["color"] = *upd.Color
		}
		if upd.Short != nil {
			fields["short"] = *upd.Short
		}
		if upd.ImagePath != nil {
			fields["image_path"] = nullString(*upd.ImagePath)
		}
		if upd.Description != nil {
			fields["description"] = nullString(*upd.Description)
		}
		if len(fields) > 0 {
			if _, err := r.store.UpdateByID(ctx, "operator", row.ID, fields); err != nil {
				return fmt.Errorf("update operator %q: %w", uid, err)
			}
		}

		if upd.Users != nil {
			if _, err := r.store.Delete(ctx, "operator_user", Filter{"operator_id": row.ID}); err != nil {
				return fmt.Errorf("clear members of operator %q: %w", uid, err)
			}
			r.addMembers(ctx, row.ID, uid, *upd.Users)
		}

		updated = true
		return nil
	})
	if err != nil {
		return false, err
	}

	if updated {
		r.logger.Info("Updated operator", zap.String("uid", uid))
	}
	return updated, nil
}

// Delete removes memberships and the operator. Lines the operator still
// owns are kept and lose their operator reference.
func (r *operatorRepository) Delete(ctx context.Context, uid string) (bool, error) {
	deleted := false

	err := r.store.WithinTx(ctx, func(ctx context.Context) error {
		var row idRow
		found, err := r.store.SelectOne(ctx, &row, "operator", Filter{"uid": uid}, "id")
		if err != nil {
			return fmt.Errorf("find operator %q: %w", uid, err)
		}
		if !found {
			return nil
		}

		if _, err := r.store.Delete(ctx, "operator_user", Filter{"operator_id": row.ID}); err != nil {
			return fmt.Errorf("delete members of operator %q: %w", uid, err)
		}

		lines, err := r.store.Count(ctx, "line", Filter{"operator_id": row.ID})
		if err != nil {
			return fmt.Errorf("count lines of operator %q: %w", uid, err)
		}
		if lines > 0 {
			r.logger.Warn("Deleting operator that still owns lines",
				zap.String("uid", uid),
				zap.Int("lines", lines),
			)
		}

		deleted, err = r.store.DeleteByID(ctx, "operator", row.ID)
		if err != nil {
			return fmt.Errorf("delete operator %q: %w", uid, err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	if deleted {
		r.logger.Info("Deleted operator", zap.String("uid", uid))
	}
	return deleted, nil
}

// AddUser is idempotent: an existing member is reported as success.
func (r *operatorRepository) AddUser(ctx context.Context, uid, userID string) (bool, error) {
	added := false

	err := r.store.WithinTx(ctx, func(ctx context.Context) error {
		var row idRow
		found, err := r.store.SelectOne(ctx, &row, "operator", Filter{"uid": uid}, "id")
		if err != nil {
			return fmt.Errorf("find operator %q: %w", uid, err)
		}
		if !found {
			r.logger.Warn("Operator not found", zap.String("uid", uid))
			return nil
		}

		member, err := r.store.Exists(ctx, "operator_user", Filter{"operator_id": row.ID, "user_id": userID})
		if err != nil {
			return fmt.Errorf("check membership: %w", err)
		}
		if member {
			r.logger.Warn("User already belongs to operator", zap.String("uid", uid), zap.String("user_id", userID))
			added = true
			return nil
		}

		if _, err := r.store.InsertIgnore(ctx, "user", Fields{"id": userID}); err != nil {
			return fmt.Errorf("ensure user %s: %w", userID, err)
		}
		if _, err := r.store.InsertIgnore(ctx, "operator_user", Fields{"operator_id": row.ID, "user_id": userID}); err != nil {
			return fmt.Errorf("add user %s to operator %q: %w", userID, uid, err)
		}
		added = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return added, nil
}

// RemoveUser returns false with a warning when userID is not a member.
func (r *operatorRepository) RemoveUser(ctx context.Context, uid, userID string) (bool, error) {
	var row idRow
	found, err := r.store.SelectOne(ctx, &row, "operator", Filter{"uid": uid}, "id")
	if err != nil {
		return false, fmt.Errorf("find operator %q: %w", uid, err)
	}
	if !found {
		r.logger.Warn("Operator not found", zap.String("uid", uid))
		return false, nil
	}

	n, err := r.store.Delete(ctx, "operator_user", Filter{"operator_id": row.ID, "user_id": userID})
	if err != nil {
		return false, fmt.Errorf("remove user %s from operator %q: %w", userID, uid, err)
	}
	if n == 0 {
		r.logger.Warn("User is not a member of operator", zap.String("uid", uid), zap.String("user_id", userID))
		return false, nil
	}
	return true, nil
}

func (r *operatorRepository) Exists(ctx context.Context, uid string) (bool, error) {
	return r.store.Exists(ctx, "operator", Filter{"uid": uid})
}

func (r *operatorRepository) UserBelongs(ctx context.Context, uid, userID string) (bool, error) {
	var one int
	query := `
SELECT 1
FROM operator_user ou
JOIN operator o ON o.id = ou.operator_id
WHERE o.uid = ? AND ou.user_id = ?
LIMIT 1`
	found, err := r.store.RawGet(ctx, &one, query, uid, userID)
	if err != nil {
		return false, fmt.Errorf("check membership of %s in %q: %w", userID, uid, err)
	}
	return found, nil
}

func (r *operatorRepository) Count(ctx context.Context) (int, error) {
	return r.store.Count(ctx, "operator", nil)
}

func (r *operatorRepository) getOne(ctx context.Context, where Filter) (*domain.Operator, error) {
	var row operatorRow
	found, err := r.store.SelectOne(ctx, &row, "operator", where, operatorColumns...)
	if err != nil {
		return nil, fmt.Errorf("query operator: %w", err)
	}
	if !found {
		return nil, nil
	}

	var members []membershipRow
	err = r.store.Select(ctx, &members, "operator_user", Query{
		Columns: []string{"operator_id", "user_id"},
		Where:   Filter{"operator_id": row.ID},
		OrderBy: []Order{{Column: "user_id"}},
	})
	if err != nil {
		return nil, fmt.Errorf("query members of operator %q: %w", row.UID, err)
	}

	op := assembleOperators([]operatorRow{row}, members)[0]
	return &op, nil
}

func (r *operatorRepository) addMembers(ctx context.Context, operatorID int64, uid string, users []string) {
	for _, userID := range users {
		if userID == "" {
			r.logger.Warn("Skipping empty user id", zap.String("uid", uid))
			continue
		}
		if _, err := r.store.InsertIgnore(ctx, "user", Fields{"id": userID}); err != nil {
			r.logger.Warn("Skipping user that could not be stored",
				zap.String("uid", uid),
				zap.String("user_id", userID),
				zap.Error(err),
			)
			continue
		}
		if _, err := r.store.InsertIgnore(ctx, "operator_user", Fields{"operator_id": operatorID, "user_id": userID}); err != nil {
			r.logger.Warn("Skipping membership that could not be stored",
				zap.String("uid", uid),
				zap.String("user_id", userID),
				zap.Error(err),
			)
		}
	}
}

func assembleOperators(rows []operatorRow, members []membershipRow) []domain.Operator {
	byOperator := make(map[int64][]string)
	for _, m := range members {
		byOperator[m.OperatorID] = append(byOperator[m.OperatorID], m.UserID)
	}

	ops := make([]domain.Operator, 0, len(rows))
	for _, row := range rows {
		op := domain.Operator{
			ID:          row.ID,
			UID:         row.UID,
			Name:        row.Name,
			Color:       domain.DefaultOperatorColor,
			Short:       row.Short.String,
			ImagePath:   row.ImagePath.String,
			Description: row.Description.String,
			Users:       byOperator[row.ID],
		}
		if row.Color.Valid {
			op.Color = domain.Color(row.Color.Int64)
		}
		if op.Users == nil {
			op.Users = []string{}
		}
		ops = append(ops, op)
	}
	return ops
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
