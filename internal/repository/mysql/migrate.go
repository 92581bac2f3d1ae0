package mysql

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"go.uber.org/zap"
)

//go:embed migrations/*.up.sql
var migrationFiles embed.FS

const createMigrationsTable = "CREATE TABLE IF NOT EXISTS `schema_migrations` (" +
	"`version` VARCHAR(255) NOT NULL PRIMARY KEY, " +
	"`applied_at` DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP" +
	") ENGINE=InnoDB DEFAULT CHARSET=utf8mb4"

// Migrate applies every embedded .up.sql file that is not yet recorded in
// schema_migrations, in file name order.
func Migrate(ctx context.Context, db *DB, logger *zap.Logger) error {
	if _, err := db.ExecContext(ctx, createMigrationsTable); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	var applied []string
	if err := db.SelectContext(ctx, &applied, "SELECT `version` FROM `schema_migrations`"); err != nil {
		return fmt.Errorf("read schema_migrations: %w", err)
	}
	done := make(map[string]struct{}, len(applied))
	for _, v := range applied {
		done[v] = struct{}{}
	}

	names, err := fs.Glob(migrationFiles, "migrations/*.up.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(names)

	for _, name := range names {
		version := strings.TrimSuffix(strings.TrimPrefix(name, "migrations/"), ".up.sql")
		if _, ok := done[version]; ok {
			continue
		}

		content, err := migrationFiles.ReadFile(name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}

		// DDL is not transactional in MySQL; statements run one by one.
		for _, stmt := range splitStatements(string(content)) {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("apply migration %s: %w", version, err)
			}
		}

		if _, err := db.ExecContext(ctx, "INSERT INTO `schema_migrations` (`version`) VALUES (?)", version); err != nil {
			return fmt.Errorf("record migration %s: %w", version, err)
		}
		logger.Info("Applied migration", zap.String("version", version))
	}

	return nil
}

func splitStatements(script string) []string {
	var stmts []string
	for _, part := range strings.Split(script, ";") {
		if stmt := strings.TrimSpace(part); stmt != "" {
			stmts = append(stmts, stmt)
		}
	}
	return stmts
}
