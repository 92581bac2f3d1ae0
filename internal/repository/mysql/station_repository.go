package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/railway-info/internal/domain"
	"github.com/railway-info/internal/domain/repository"
	"go.uber.org/zap"
)

var stationColumns = []string{"id", "name", "alt_name", "description", "type", "status", "platform_count", "symbol", "image_path"}

type stationRow struct {
	ID            int64          `db:"id"`
	Name          string         `db:"name"`
	AltName       sql.NullString `db:"alt_name"`
	Description   sql.NullString `db:"description"`
	Type          sql.NullString `db:"type"`
	Status        sql.NullString `db:"status"`
	PlatformCount sql.NullInt64  `db:"platform_count"`
	Symbol        sql.NullString `db:"symbol"`
	ImagePath     sql.NullString `db:"image_path"`
}

type lineStationRow struct {
	ID      int64          `db:"id"`
	Name    string         `db:"name"`
	AltName sql.NullString `db:"alt_name"`
	Order   int            `db:"station_order"`
}

type stationLineRow struct {
	ID           int64          `db:"id"`
	Name         string         `db:"name"`
	Color        domain.Color   `db:"color"`
	Status       sql.NullInt64  `db:"status"`
	Type         sql.NullString `db:"type"`
	OperatorName sql.NullString `db:"operator_name"`
	OperatorUID  sql.NullString `db:"operator_uid"`
}

type stationRepository struct {
	store  *Store
	logger *zap.Logger
}

func NewStationRepository(store *Store, logger *zap.Logger) repository.StationRepository {
	return &stationRepository{
		store:  store,
		logger: logger,
	}
}

func (r *stationRepository) GetAll(ctx context.Context) ([]domain.Station, error) {
	var rows []stationRow
	err := r.store.Select(ctx, &rows, "station", Query{
		Columns: stationColumns,
		OrderBy: []Order{{Column: "name"}},
	})
	if err != nil {
		return nil, fmt.Errorf("query stations: %w", err)
	}

	stations := make([]domain.Station, 0, len(rows))
	for _, row := range rows {
		stations = append(stations, row.toDomain())
	}
	return stations, nil
}

func (r *stationRepository) GetByID(ctx context.Context, id int64) (*domain.Station, error) {
	return r.getOne(ctx, Filter{"id": id})
}

func (r *stationRepository) GetByName(ctx context.Context, name string) (*domain.Station, error) {
	return r.getOne(ctx, Filter{"name": name})
}

// GetByLine returns the stations of a line sorted by station_order.
func (r *stationRepository) GetByLine(ctx context.Context, lineName string) ([]domain.LineStation, error) {
	var rows []lineStationRow
	query := `
SELECT s.id, s.name, s.alt_name, ls.station_order
FROM station s
JOIN line_station ls ON s.id = ls.station_id
JOIN line l ON ls.line_id = l.id
WHERE l.name = ?
ORDER BY ls.station_order, s.id`
	if err := r.store.RawQuery(ctx, &rows, query, lineName); err != nil {
		return nil, fmt.Errorf("query stations of line %q: %w", lineName, err)
	}

	stations := make([]domain.LineStation, 0, len(rows))
	for _, row := range rows {
		stations = append(stations, domain.LineStation{
			ID:      row.ID,
			Name:    row.Name,
			AltName: ptrString(row.AltName),
			Order:   row.Order,
		})
	}
	return stations, nil
}

func (r *stationRepository) LinesAtStation(ctx context.Context, stationName string) ([]domain.StationLine, error) {
	var rows []stationLineRow
	query := `
SELECT l.id, l.name, l.color, l.status, l.type,
	o.name AS operator_name,
	o.uid AS operator_uid
FROM line l
JOIN line_station ls ON l.id = ls.line_id
JOIN station s ON ls.station_id = s.id
LEFT JOIN operator o ON l.operator_id = o.id
WHERE s.name = ?
ORDER BY l.name`
	if err := r.store.RawQuery(ctx, &rows, query, stationName); err != nil {
		return nil, fmt.Errorf("query lines at station %q: %w", stationName, err)
	}

	lines := make([]domain.StationLine, 0, len(rows))
	for _, row := range rows {
		line := domain.StationLine{
			ID:          row.ID,
			Name:        row.Name,
			Color:       row.Color,
			Status:      domain.StatusRunning,
			Type:        domain.LineTypePublic,
			Operator:    row.OperatorName.String,
			OperatorUID: row.OperatorUID.String,
		}
		if row.Status.Valid {
			line.Status = domain.LineStatus(row.Status.Int64)
		}
		if row.Type.Valid && row.Type.String != "" {
			line.Type = domain.LineType(row.Type.String)
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// Create returns the id of the station named name, creating it if needed.
func (r *stationRepository) Create(ctx context.Context, name string) (int64, error) {
	if !domain.ValidStationName(name) {
		return 0, fmt.Errorf("station %q: %w", name, domain.ErrInvalidStationName)
	}

	var existing idRow
	found, err := r.store.SelectOne(ctx, &existing, "station", Filter{"name": name}, "id")
	if err != nil {
		return 0, fmt.Errorf("find station %q: %w", name, err)
	}
	if found {
		r.logger.Warn("Station already exists", zap.String("name", name), zap.Int64("id", existing.ID))
		return existing.ID, nil
	}

	// a concurrent insert of the same name resolves to the same row
	id, err := r.store.InsertOrGet(ctx, "station", Fields{"name": name})
	if err != nil {
		return 0, fmt.Errorf("create station %q: %w", name, err)
	}
	r.logger.Info("Created station", zap.String("name", name), zap.Int64("id", id))
	return id, nil
}

// Update writes the whitelisted fields of upd. Renaming onto a different
// station's name fails with domain.ErrDuplicate; renaming to the current
// name is allowed.
func (r *stationRepository) Update(ctx context.Context, id int64, upd domain.StationUpdate) (bool, error) {
	exists, err := r.store.Exists(ctx, "station", Filter{"id": id})
	if err != nil {
		return false, fmt.Errorf("find station %d: %w", id, err)
	}
	if !exists {
		return false, nil
	}
	if upd.Name != nil && !domain.ValidStationName(*upd.Name) {
		return false, fmt.Errorf("station %q: %w", *upd.Name, domain.ErrInvalidStationName)
	}

	fields := Fields{}
	setOptional(fields, "name", upd.Name)
	setOptional(fields, "alt_name", upd.AltName)
	setOptional(fields, "description", upd.Description)
	setOptional(fields, "type", upd.Type)
	setOptional(fields, "status", upd.Status)
	setOptional(fields, "symbol", upd.Symbol)
	setOptional(fields, "image_path", upd.ImagePath)
	if upd.PlatformCount.Set {
		if upd.PlatformCount.Value == nil {
			r.logger.Warn("Invalid platform_count, storing NULL", zap.Int64("id", id))
			fields["platform_count"] = nil
		} else {
			fields["platform_count"] = *upd.PlatformCount.Value
		}
	}

	if len(fields) == 0 {
		r.logger.Warn("No valid fields provided for station", zap.Int64("id", id))
		return false, nil
	}

	if upd.Name != nil {
		var other idRow
		found, err := r.store.SelectOne(ctx, &other, "station", Filter{"name": *upd.Name}, "id")
		if err != nil {
			return false, fmt.Errorf("check station name %q: %w", *upd.Name, err)
		}
		if found && other.ID != id {
			return false, fmt.Errorf("station name %q is used by station %d: %w", *upd.Name, other.ID, domain.ErrDuplicate)
		}
	}

	if _, err := r.store.UpdateByID(ctx, "station", id, fields); err != nil {
		return false, fmt.Errorf("update station %d: %w", id, err)
	}

	r.logger.Info("Updated station", zap.Int64("id", id), zap.Strings("fields", sortedKeys(fields)))
	return true, nil
}

// Delete removes the station, first dropping any line links to it.
func (r *stationRepository) Delete(ctx context.Context, id int64) (bool, error) {
	deleted := false

	err := r.store.WithinTx(ctx, func(ctx context.Context) error {
		linked, err := r.store.Count(ctx, "line_station", Filter{"station_id": id})
		if err != nil {
			return fmt.Errorf("count line links of station %d: %w", id, err)
		}
		if linked > 0 {
			r.logger.Warn("Station is used by lines, removing links", zap.Int64("id", id), zap.Int("lines", linked))
			if _, err := r.store.Delete(ctx, "line_station", Filter{"station_id": id}); err != nil {
				return fmt.Errorf("delete line links of station %d: %w", id, err)
			}
		}

		deleted, err = r.store.DeleteByID(ctx, "station", id)
		if err != nil {
			return fmt.Errorf("delete station %d: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return deleted, nil
}

// AddToLine links the station to the line at order, creating the station if
// needed. An existing link has its order updated instead.
func (r *stationRepository) AddToLine(ctx context.Context, lineName, stationName string, order int) (bool, error) {
	if !domain.ValidStationName(stationName) {
		return false, fmt.Errorf("station %q: %w", stationName, domain.ErrInvalidStationName)
	}

	added := false

	err := r.store.WithinTx(ctx, func(ctx context.Context) error {
		var line idRow
		found, err := r.store.SelectOne(ctx, &line, "line", Filter{"name": lineName}, "id")
		if err != nil {
			return fmt.Errorf("find line %q: %w", lineName, err)
		}
		if !found {
			r.logger.Warn("Line not found", zap.String("line", lineName))
			return nil
		}

		stationID, err := r.store.InsertOrGet(ctx, "station", Fields{"name": stationName})
		if err != nil {
			return fmt.Errorf("resolve station %q: %w", stationName, err)
		}

		if _, err := r.store.Upsert(ctx, "line_station", Fields{
			"line_id":       line.ID,
			"station_id":    stationID,
			"station_order": order,
		}, "station_order"); err != nil {
			return fmt.Errorf("link station %q to line %q: %w", stationName, lineName, err)
		}
		added = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return added, nil
}

func (r *stationRepository) RemoveFromLine(ctx context.Context, lineName, stationName string) (bool, error) {
	query := `
DELETE ls FROM line_station ls
JOIN line l ON ls.line_id = l.id
JOIN station s ON ls.station_id = s.id
WHERE l.name = ? AND s.name = ?`
	n, err := r.store.RawExec(ctx, query, lineName, stationName)
	if err != nil {
		return false, fmt.Errorf("remove station %q from line %q: %w", stationName, lineName, err)
	}
	if n == 0 {
		r.logger.Warn("Station was not on line", zap.String("line", lineName), zap.String("station", stationName))
		return false, nil
	}
	return true, nil
}

// Reorder rewrites station_order following stationNames. Names that are not
// stations, or not on this line, are skipped with a warning.
func (r *stationRepository) Reorder(ctx context.Context, lineName string, stationNames []string) (bool, error) {
	reordered := false

	err := r.store.WithinTx(ctx, func(ctx context.Context) error {
		var line idRow
		found, err := r.store.SelectOne(ctx, &line, "line", Filter{"name": lineName}, "id")
		if err != nil {
			return fmt.Errorf("find line %q: %w", lineName, err)
		}
		if !found {
			r.logger.Warn("Line not found", zap.String("line", lineName))
			return nil
		}

		for order, name := range stationNames {
			var station idRow
			found, err := r.store.SelectOne(ctx, &station, "station", Filter{"name": name}, "id")
			if err != nil {
				return fmt.Errorf("find station %q: %w", name, err)
			}
			if !found {
				r.logger.Warn("Station not found, skipping", zap.String("station", name))
				continue
			}
			n, err := r.store.Update(ctx, "line_station",
				Fields{"station_order": order},
				Filter{"line_id": line.ID, "station_id": station.ID},
			)
			if err != nil {
				return fmt.Errorf("reorder station %q: %w", name, err)
			}
			if n == 0 {
				r.logger.Warn("Station is not on line, skipping",
					zap.String("line", lineName),
					zap.String("station", name),
				)
			}
		}
		reordered = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return reordered, nil
}

func (r *stationRepository) Exists(ctx context.Context, name string) (bool, error) {
	return r.store.Exists(ctx, "station", Filter{"name": name})
}

func (r *stationRepository) Count(ctx context.Context) (int, error) {
	return r.store.Count(ctx, "station", nil)
}

// Search matches term as a substring of the name; case sensitivity follows
// the column collation.
func (r *stationRepository) Search(ctx context.Context, term string) ([]domain.StationRef, error) {
	var refs []domain.StationRef
	query := "SELECT id, name FROM station WHERE name LIKE ? ORDER BY name"
	if err := r.store.RawQuery(ctx, &refs, query, "%"+escapeLike(term)+"%"); err != nil {
		return nil, fmt.Errorf("search stations %q: %w", term, err)
	}
	if refs == nil {
		refs = []domain.StationRef{}
	}
	return refs, nil
}

// Statistics summarises the lines serving a station. It returns nil for an
// unknown station.
func (r *stationRepository) Statistics(ctx context.Context, name string) (*domain.StationStatistics, error) {
	var station idRow
	found, err := r.store.SelectOne(ctx, &station, "station", Filter{"name": name}, "id")
	if err != nil {
		return nil, fmt.Errorf("find station %q: %w", name, err)
	}
	if !found {
		return nil, nil
	}

	lines, err := r.LinesAtStation(ctx, name)
	if err != nil {
		return nil, err
	}

	stats := &domain.StationStatistics{
		StationName: name,
		StationID:   station.ID,
		TotalLines:  len(lines),
		LinesByType: make(map[domain.LineType]int),
		Operators:   []string{},
		Lines:       make([]domain.LineSummary, 0, len(lines)),
	}
	seen := make(map[string]struct{})
	for _, l := range lines {
		stats.LinesByType[l.Type]++
		stats.Lines = append(stats.Lines, domain.LineSummary{Name: l.Name, Color: l.Color})
		if l.Operator == "" {
			continue
		}
		if _, ok := seen[l.Operator]; !ok {
			seen[l.Operator] = struct{}{}
			stats.Operators = append(stats.Operators, l.Operator)
		}
	}
	sort.Strings(stats.Operators)
	stats.OperatorsCount = len(stats.Operators)

	return stats, nil
}

func (r *stationRepository) getOne(ctx context.Context, where Filter) (*domain.Station, error) {
	var row stationRow
	found, err := r.store.SelectOne(ctx, &row, "station", where, stationColumns...)
	if err != nil {
		return nil, fmt.Errorf("query station: %w", err)
	}
	if !found {
		return nil, nil
	}
	station := row.toDomain()
	return &station, nil
}

func (row stationRow) toDomain() domain.Station {
	s := domain.Station{
		ID:          row.ID,
		Name:        row.Name,
		AltName:     ptrString(row.AltName),
		Description: ptrString(row.Description),
		Type:        ptrString(row.Type),
		Status:      ptrString(row.Status),
		Symbol:      ptrString(row.Symbol),
		ImagePath:   ptrString(row.ImagePath),
	}
	if row.PlatformCount.Valid {
		n := int(row.PlatformCount.Int64)
		s.PlatformCount = &n
	}
	return s
}

func setOptional(fields Fields, column string, value *string) {
	if value != nil {
		fields[column] = *value
	}
}

func ptrString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
