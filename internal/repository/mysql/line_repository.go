package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/railway-info/internal/domain"
	"github.com/railway-info/internal/domain/repository"
	"go.uber.org/zap"
)

// Both aggregate reads share this shape; callers only add a WHERE clause.
const (
	lineSelectSQL = `
SELECT
	l.id, l.name, l.color, l.status, l.type, l.notice,
	o.name AS operator_name,
	o.uid AS operator_uid,
	GROUP_CONCAT(s.name ORDER BY ls.station_order, ls.station_id SEPARATOR '` + domain.StationSeparator + `') AS stations
FROM line l
LEFT JOIN operator o ON l.operator_id = o.id
LEFT JOIN line_station ls ON l.id = ls.line_id
LEFT JOIN station s ON ls.station_id = s.id`

	lineGroupSQL = `
GROUP BY l.id, l.name, l.color, l.status, l.type, l.notice, o.name, o.uid
ORDER BY l.name`

	compositionSelectSQL = `
SELECT lc.line_id, c.parts, c.name AS comp_name
FROM line_composition lc
JOIN composition c ON lc.composition_id = c.id`

	compositionOrderSQL = `
ORDER BY lc.line_id, c.id`
)

type lineRow struct {
	ID           int64          `db:"id"`
	Name         string         `db:"name"`
	Color        domain.Color   `db:"color"`
	Status       sql.NullInt64  `db:"status"`
	Type         sql.NullString `db:"type"`
	Notice       sql.NullString `db:"notice"`
	OperatorName sql.NullString `db:"operator_name"`
	OperatorUID  sql.NullString `db:"operator_uid"`
	Stations     sql.NullString `db:"stations"`
}

type compositionRow struct {
	LineID int64          `db:"line_id"`
	Parts  string         `db:"parts"`
	Name   sql.NullString `db:"comp_name"`
}

type idRow struct {
	ID int64 `db:"id"`
}

type lineRepository struct {
	store  *Store
	logger *zap.Logger
}

func NewLineRepository(store *Store, logger *zap.Logger) repository.LineRepository {
	return &lineRepository{
		store:  store,
		logger: logger,
	}
}

// GetAll returns every line. Exactly two queries are issued: one for lines
// with their ordered station names, one for all composition links.
func (r *lineRepository) GetAll(ctx context.Context) ([]domain.Line, error) {
	var rows []lineRow
	if err := r.store.RawQuery(ctx, &rows, lineSelectSQL+lineGroupSQL); err != nil {
		return nil, fmt.Errorf("query lines: %w", err)
	}

	var comps []compositionRow
	if err := r.store.RawQuery(ctx, &comps, compositionSelectSQL+compositionOrderSQL); err != nil {
		return nil, fmt.Errorf("query compositions: %w", err)
	}

	lines := assembleLines(rows, comps)
	r.logger.Debug("Retrieved lines", zap.Int("count", len(lines)))
	return lines, nil
}

func (r *lineRepository) GetByName(ctx context.Context, name string) (*domain.Line, error) {
	var rows []lineRow
	if err := r.store.RawQuery(ctx, &rows, lineSelectSQL+"\nWHERE l.name = ?"+lineGroupSQL, name); err != nil {
		return nil, fmt.Errorf("query line %q: %w", name, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	var comps []compositionRow
	if err := r.store.RawQuery(ctx, &comps, compositionSelectSQL+"\nWHERE lc.line_id = ?"+compositionOrderSQL, rows[0].ID); err != nil {
		return nil, fmt.Errorf("query compositions for line %q: %w", name, err)
	}

	line := assembleLines(rows[:1], comps)[0]
	return &line, nil
}

// GetByOperator resolves the uid first and then runs the GetAll pair of
// queries restricted to that operator.
func (r *lineRepository) GetByOperator(ctx context.Context, operatorUID string) ([]domain.Line, error) {
	var op idRow
	found, err := r.store.SelectOne(ctx, &op, "operator", Filter{"uid": operatorUID}, "id")
	if err != nil {
		return nil, fmt.Errorf("resolve operator %q: %w", operatorUID, err)
	}
	if !found {
		return []domain.Line{}, nil
	}

	var rows []lineRow
	if err := r.store.RawQuery(ctx, &rows, lineSelectSQL+"\nWHERE l.operator_id = ?"+lineGroupSQL, op.ID); err != nil {
		return nil, fmt.Errorf("query lines of operator %q: %w", operatorUID, err)
	}
	if len(rows) == 0 {
		return []domain.Line{}, nil
	}

	var comps []compositionRow
	query := compositionSelectSQL + "\nJOIN line l ON lc.line_id = l.id\nWHERE l.operator_id = ?" + compositionOrderSQL
	if err := r.store.RawQuery(ctx, &comps, query, op.ID); err != nil {
		return nil, fmt.Errorf("query compositions of operator %q: %w", operatorUID, err)
	}

	return assembleLines(rows, comps), nil
}

// Create inserts the line and links its stations and compositions in one
// transaction. Stations and compositions are created on first reference.
func (r *lineRepository) Create(ctx context.Context, in domain.LineInput) (int64, error) {
	var lineID int64

	err := r.store.WithinTx(ctx, func(ctx context.Context) error {
		var op idRow
		found, err := r.store.SelectOne(ctx, &op, "operator", Filter{"uid": in.OperatorUID}, "id")
		if err != nil {
			return fmt.Errorf("resolve operator %q: %w", in.OperatorUID, err)
		}
		if !found {
			return domain.ErrOperatorNotFound
		}

		lineID, err = r.store.Insert(ctx, "line", Fields{
			"name":        in.Name,
			"color":       in.Color,
			"status":      in.Status,
			"type":        string(in.Type),
			"notice":      in.Notice,
			"operator_id": op.ID,
		})
		if err != nil {
			return fmt.Errorf("insert line %q: %w", in.Name, err)
		}

		if err := r.linkStations(ctx, lineID, in.Stations); err != nil {
			return err
		}
		return r.linkCompositions(ctx, lineID, in.Compositions)
	})
	if err != nil {
		return 0, err
	}

	r.logger.Info("Created line", zap.String("name", in.Name), zap.Int64("id", lineID))
	return lineID, nil
}

// Update applies the non-nil fields of upd. Stations and compositions, when
// given, replace the existing links entirely.
func (r *lineRepository) Update(ctx context.Context, name string, upd domain.LineUpdate) (bool, error) {
	updated := false

	err := r.store.WithinTx(ctx, func(ctx context.Context) error {
		var row idRow
		found, err := r.store.SelectOne(ctx, &row, "line", Filter{"name": name}, "id")
		if err != nil {
			return fmt.Errorf("find line %q: %w", name, err)
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
		if upd.Status != nil {
			fields["status"] = *upd.Status
		}
		if upd.Type != nil {
			fields["type"] = string(*upd.Type)
		}
		if upd.Notice != nil {
			fields["notice"] = *upd.Notice
		}
		if len(fields) > 0 {
			if _, err := r.store.UpdateByID(ctx, "line", row.ID, fields); err != nil {
				return fmt.Errorf("update line %q: %w", name, err)
			}
		}

		if upd.Stations != nil {
			if _, err := r.store.Delete(ctx, "line_station", Filter{"line_id": row.ID}); err != nil {
				return fmt.Errorf("clear stations of line %q: %w", name, err)
			}
			if err := r.linkStations(ctx, row.ID, *upd.Stations); err != nil {
				return err
			}
		}

		if upd.Compositions != nil {
			if _, err := r.store.Delete(ctx, "line_composition", Filter{"line_id": row.ID}); err != nil {
				return fmt.Errorf("clear compositions of line %q: %w", name, err)
			}
			if err := r.linkCompositions(ctx, row.ID, *upd.Compositions); err != nil {
				return err
			}
		}

		updated = true
		return nil
	})
	if err != nil {
		return false, err
	}

	if updated {
		r.logger.Info("Updated line", zap.String("name", name))
	}
	return updated, nil
}

// Delete removes the line and its links. Stations and compositions stay.
func (r *lineRepository) Delete(ctx context.Context, name string) (bool, error) {
	deleted := false

	err := r.store.WithinTx(ctx, func(ctx context.Context) error {
		var row idRow
		found, err := r.store.SelectOne(ctx, &row, "line", Filter{"name": name}, "id")
		if err != nil {
			return fmt.Errorf("find line %q: %w", name, err)
		}
		if !found {
			return nil
		}

		if _, err := r.store.Delete(ctx, "line_station", Filter{"line_id": row.ID}); err != nil {
			return fmt.Errorf("delete station links of line %q: %w", name, err)
		}
		if _, err := r.store.Delete(ctx, "line_composition", Filter{"line_id": row.ID}); err != nil {
			return fmt.Errorf("delete composition links of line %q: %w", name, err)
		}
		deleted, err = r.store.DeleteByID(ctx, "line", row.ID)
		if err != nil {
			return fmt.Errorf("delete line %q: %w", name, err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	if deleted {
		r.logger.Info("Deleted line", zap.String("name", name))
	}
	return deleted, nil
}

func (r *lineRepository) Exists(ctx context.Context, name string) (bool, error) {
	return r.store.Exists(ctx, "line", Filter{"name": name})
}

func (r *lineRepository) Count(ctx context.Context, operatorUID string) (int, error) {
	if operatorUID == "" {
		return r.store.Count(ctx, "line", nil)
	}

	var count int
	query := "SELECT COUNT(*) FROM line l JOIN operator o ON l.operator_id = o.id WHERE o.uid = ?"
	if _, err := r.store.RawGet(ctx, &count, query, operatorUID); err != nil {
		return 0, fmt.Errorf("count lines of operator %q: %w", operatorUID, err)
	}
	return count, nil
}

func (r *lineRepository) CountStationLinks(ctx context.Context) (int, error) {
	return r.store.Count(ctx, "line_station", nil)
}

// linkStations links names to the line with zero-based order. A name that
// appears twice keeps its last position.
func (r *lineRepository) linkStations(ctx context.Context, lineID int64, names []string) error {
	for _, name := range names {
		if !domain.ValidStationName(name) {
			return fmt.Errorf("station %q: %w", name, domain.ErrInvalidStationName)
		}
	}

	for i, name := range names {
		stationID, err := r.store.InsertOrGet(ctx, "station", Fields{"name": name})
		if err != nil {
			return fmt.Errorf("resolve station %q: %w", name, err)
		}
		_, err = r.store.Upsert(ctx, "line_station", Fields{
			"line_id":       lineID,
			"station_id":    stationID,
			"station_order": i,
		}, "station_order")
		if err != nil {
			return fmt.Errorf("link station %q: %w", name, err)
		}
	}
	return nil
}

func (r *lineRepository) linkCompositions(ctx context.Context, lineID int64, comps []domain.Composition) error {
	for _, comp := range comps {
		compID, err := r.store.InsertOrGet(ctx, "composition", Fields{
			"parts": comp.Parts,
			"name":  comp.Name,
		})
		if err != nil {
			return fmt.Errorf("resolve composition %q: %w", comp.Parts, err)
		}
		if _, err := r.store.InsertIgnore(ctx, "line_composition", Fields{
			"line_id":        lineID,
			"composition_id": compID,
		}); err != nil {
			return fmt.Errorf("link composition %q: %w", comp.Parts, err)
		}
	}
	return nil
}

func assembleLines(rows []lineRow, comps []compositionRow) []domain.Line {
	byLine := make(map[int64][]domain.Composition)
	for _, c := range comps {
		byLine[c.LineID] = append(byLine[c.LineID], domain.Composition{
			Name:  c.Name.String,
			Parts: c.Parts,
		})
	}

	lines := make([]domain.Line, 0, len(rows))
	for _, row := range rows {
		lines = append(lines, row.toDomain(byLine[row.ID]))
	}
	return lines
}

func (row lineRow) toDomain(comps []domain.Composition) domain.Line {
	line := domain.Line{
		ID:           row.ID,
		Name:         row.Name,
		Color:        row.Color,
		Status:       domain.StatusRunning,
		Type:         domain.LineTypePublic,
		Notice:       row.Notice.String,
		Operator:     row.OperatorName.String,
		OperatorUID:  row.OperatorUID.String,
		Stations:     []string{},
		Compositions: comps,
	}
	if row.Status.Valid {
		line.Status = domain.LineStatus(row.Status.Int64)
	}
	if row.Type.Valid && row.Type.String != "" {
		line.Type = domain.LineType(row.Type.String)
	}
	if row.Stations.Valid && row.Stations.String != "" {
		line.Stations = strings.Split(row.Stations.String, domain.StationSeparator)
	}
	if line.Compositions == nil {
		line.Compositions = []domain.Composition{}
	}
	return line
}
