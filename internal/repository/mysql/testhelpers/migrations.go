package testhelpers

import (
	"context"
	"fmt"

	"github.com/railway-info/internal/repository/mysql"
)

// ApplyMigrations runs the embedded migrations through mysql.Migrate.
func ApplyMigrations(ctx context.Context, tdb *TestDB) error {
	if err := mysql.Migrate(ctx, mysql.NewDBForTest(tdb.DB, tdb.Logger), tdb.Logger); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// AppliedMigrations returns the versions recorded in schema_migrations.
func AppliedMigrations(ctx context.Context, tdb *TestDB) ([]string, error) {
	var versions []string
	err := tdb.DB.SelectContext(ctx, &versions, "SELECT `version` FROM `schema_migrations` ORDER BY `version`")
	if err != nil {
		return nil, fmt.Errorf("read schema_migrations: %w", err)
	}
	return versions, nil
}

// TableExists checks information_schema of the current database.
func TableExists(ctx context.Context, tdb *TestDB, table string) (bool, error) {
	var n int
	err := tdb.DB.GetContext(ctx, &n,
		"SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = DATABASE() AND table_name = ?", table)
	if err != nil {
		return false, fmt.Errorf("look up table %s: %w", table, err)
	}
	return n > 0, nil
}
