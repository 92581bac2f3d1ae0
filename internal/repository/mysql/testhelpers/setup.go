package testhelpers

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/railway-info/internal/config"
	"github.com/railway-info/internal/repository/mysql"
)

// TestDB - подключение к тестовой базе
type TestDB struct {
	DB     *sqlx.DB
	Logger *zap.Logger
}

// SetupTestDB подключается к MySQL из TEST_DB_* переменных.
// Если база недоступна, тест пропускается.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	port, err := strconv.Atoi(getEnv("TEST_DB_PORT", "3307"))
	if err != nil {
		t.Fatalf("invalid TEST_DB_PORT: %v", err)
	}

	cfg := &config.DatabaseConfig{
		Host:     getEnv("TEST_DB_HOST", "localhost"),
		Port:     port,
		User:     getEnv("TEST_DB_USER", "railway"),
		Password: getEnv("TEST_DB_PASSWORD", "railway"),
		DBName:   getEnv("TEST_DB_NAME", "railway_test"),
	}

	// база в docker-compose поднимается не сразу
	var db *sqlx.DB
	maxRetries := 3
	retryDelay := 200 * time.Millisecond

	for i := 0; i < maxRetries; i++ {
		db, err = sqlx.Connect("mysql", mysql.DSN(cfg))
		if err == nil {
			break
		}
		if i < maxRetries-1 {
			t.Logf("Database not ready (attempt %d/%d), waiting %v...", i+1, maxRetries, retryDelay)
			time.Sleep(retryDelay)
			retryDelay *= 2
		}
	}
	if err != nil {
		t.Skipf("MySQL is not reachable at %s:%d, skipping: %v", cfg.Host, cfg.Port, err)
	}

	var version string
	if err := db.Get(&version, "SELECT VERSION()"); err != nil {
		_ = db.Close()
		t.Skipf("MySQL did not answer: %v", err)
	}
	t.Logf("MySQL version: %s", version)

	return &TestDB{
		DB:     db,
		Logger: zaptest.NewLogger(t, zaptest.Level(zap.WarnLevel)),
	}
}

// Store оборачивает соединение в mysql.Store для репозиториев.
func (tdb *TestDB) Store() *mysql.Store {
	return mysql.NewStore(mysql.NewDBForTest(tdb.DB, tdb.Logger), tdb.Logger)
}

func (tdb *TestDB) Close() {
	if tdb.DB != nil {
		_ = tdb.DB.Close()
	}
}

// Cleanup очищает все таблицы схемы. Проверка внешних ключей отключается
// на время TRUNCATE, поэтому всё выполняется на одном соединении.
func (tdb *TestDB) Cleanup(ctx context.Context) error {
	tables := []string{
		"operator_request",
		"operator_user",
		"line_composition",
		"line_station",
		"composition",
		"line",
		"station",
		"operator",
		"user",
	}

	conn, err := tdb.DB.Connx(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "SET FOREIGN_KEY_CHECKS = 0"); err != nil {
		return fmt.Errorf("disable foreign keys: %w", err)
	}
	defer func() {
		_, _ = conn.ExecContext(ctx, "SET FOREIGN_KEY_CHECKS = 1")
	}()

	for _, table := range tables {
		if _, err := conn.ExecContext(ctx, fmt.Sprintf("TRUNCATE TABLE `%s`", table)); err != nil {
			return fmt.Errorf("truncate %s: %w", table, err)
		}
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
