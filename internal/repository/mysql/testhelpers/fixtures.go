package testhelpers

import (
	"context"
	"database/sql"
	"fmt"
)

// LoadFixtures runs the statements in order.
func LoadFixtures(ctx context.Context, tdb *TestDB, statements ...string) error {
	for i, stmt := range statements {
		if _, err := tdb.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("load fixture #%d: %w", i, err)
		}
	}
	return nil
}

// InsertOperator creates a bare operator row and returns its id.
func InsertOperator(ctx context.Context, tdb *TestDB, uid, name string) (int64, error) {
	res, err := tdb.DB.ExecContext(ctx, "INSERT INTO `operator` (`uid`, `name`) VALUES (?, ?)", uid, name)
	if err != nil {
		return 0, fmt.Errorf("insert operator %q: %w", uid, err)
	}
	return res.LastInsertId()
}

// LineOperatorID returns the raw operator_id of a line; invalid means NULL.
func LineOperatorID(ctx context.Context, tdb *TestDB, lineName string) (sql.NullInt64, error) {
	var id sql.NullInt64
	err := tdb.DB.GetContext(ctx, &id, "SELECT `operator_id` FROM `line` WHERE `name` = ?", lineName)
	if err != nil {
		return id, fmt.Errorf("get operator of line %q: %w", lineName, err)
	}
	return id, nil
}

// StationNamesInOrder reads line_station directly, bypassing GROUP_CONCAT.
func StationNamesInOrder(ctx context.Context, tdb *TestDB, lineName string) ([]string, error) {
	var names []string
	err := tdb.DB.SelectContext(ctx, &names, `
SELECT s.name
FROM line_station ls
JOIN line l ON ls.line_id = l.id
JOIN station s ON ls.station_id = s.id
WHERE l.name = ?
ORDER BY ls.station_order, s.id`, lineName)
	if err != nil {
		return nil, fmt.Errorf("get stations of line %q: %w", lineName, err)
	}
	return names, nil
}
