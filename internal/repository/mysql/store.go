package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/railway-info/internal/domain"
	"github.com/railway-info/internal/pkg/metrics"
	"go.uber.org/zap"
)

// Fields maps column names to values for INSERT/UPDATE.
type Fields map[string]interface{}

// Filter is a conjunction of equality predicates. A nil value matches NULL.
type Filter map[string]interface{}

type Order struct {
	Column string
	Desc   bool
}

// Query describes a single-table SELECT.
type Query struct {
	Columns []string
	Where   Filter
	OrderBy []Order
	Limit   int
}

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

const mysqlDuplicateEntry = 1062

type txKey struct{}

// Store provides table-agnostic CRUD over the pool. Identifiers are
// validated and quoted, values are always bound. Every call runs on the
// transaction stored in ctx by WithinTx, or on the pool otherwise.
type Store struct {
	db     *DB
	logger *zap.Logger
}

func NewStore(db *DB, logger *zap.Logger) *Store {
	return &Store{
		db:     db,
		logger: logger,
	}
}

// ============================================================================
// Transactions
// ============================================================================

// WithinTx runs fn in a transaction. Nested calls join the outer one.
// Returning an error or panicking rolls everything back.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if _, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return fn(ctx)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				s.logger.Error("failed to rollback transaction", zap.Error(rbErr))
			}
			return
		}
		if cErr := tx.Commit(); cErr != nil {
			err = fmt.Errorf("commit tx: %w", cErr)
		}
	}()

	return fn(context.WithValue(ctx, txKey{}, tx))
}

func (s *Store) ext(ctx context.Context) sqlx.ExtContext {
	if tx, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return tx
	}
	return s.db
}

// ============================================================================
// Writes
// ============================================================================

// Insert returns the auto-increment id of the new row.
func (s *Store) Insert(ctx context.Context, table string, fields Fields) (id int64, err error) {
	defer s.observe("insert", table, time.Now(), &err)

	query, args, err := buildInsert("INSERT INTO", table, fields, "")
	if err != nil {
		return 0, err
	}

	res, err := s.ext(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return 0, s.wrap("insert", table, err)
	}
	return res.LastInsertId()
}

// InsertOrGet inserts the row or, when a unique key already holds it,
// returns the id of the existing row. The table must have an `id` column.
func (s *Store) InsertOrGet(ctx context.Context, table string, fields Fields) (id int64, err error) {
	defer s.observe("insert_or_get", table, time.Now(), &err)

	query, args, err := buildInsert("INSERT INTO", table, fields, " ON DUPLICATE KEY UPDATE `id` = LAST_INSERT_ID(`id`)")
	if err != nil {
		return 0, err
	}

	res, err := s.ext(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return 0, s.wrap("insert_or_get", table, err)
	}
	return res.LastInsertId()
}

// InsertIgnore inserts the row unless a unique key already holds it and
// reports whether a row was written.
func (s *Store) InsertIgnore(ctx context.Context, table string, fields Fields) (inserted bool, err error) {
	defer s.observe("insert_ignore", table, time.Now(), &err)

	query, args, err := buildInsert("INSERT IGNORE INTO", table, fields, "")
	if err != nil {
		return false, err
	}

	res, err := s.ext(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return false, s.wrap("insert_ignore", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Upsert inserts the row or updates the listed columns of the existing one.
func (s *Store) Upsert(ctx context.Context, table string, fields Fields, updateColumns ...string) (affected int64, err error) {
	defer s.observe("upsert", table, time.Now(), &err)

	if len(updateColumns) == 0 {
		return 0, fmt.Errorf("upsert %s: %w", table, domain.ErrNoFields)
	}
	sets := make([]string, 0, len(updateColumns))
	for _, col := range updateColumns {
		q, err := quoteIdent(col)
		if err != nil {
			return 0, err
		}
		sets = append(sets, fmt.Sprintf("%s = VALUES(%s)", q, q))
	}

	query, args, err := buildInsert("INSERT INTO", table, fields, " ON DUPLICATE KEY UPDATE "+strings.Join(sets, ", "))
	if err != nil {
		return 0, err
	}

	res, err := s.ext(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return 0, s.wrap("upsert", table, err)
	}
	return res.RowsAffected()
}

// Update refuses an empty filter and returns the number of affected rows.
func (s *Store) Update(ctx context.Context, table string, fields Fields, where Filter) (affected int64, err error) {
	defer s.observe("update", table, time.Now(), &err)

	if len(where) == 0 {
		return 0, fmt.Errorf("update %s: %w", table, domain.ErrEmptyFilter)
	}
	if len(fields) == 0 {
		return 0, fmt.Errorf("update %s: %w", table, domain.ErrNoFields)
	}

	qt, err := quoteIdent(table)
	if err != nil {
		return 0, err
	}
	cols := sortedKeys(fields)
	sets := make([]string, 0, len(cols))
	args := make([]interface{}, 0, len(cols)+len(where))
	for _, col := range cols {
		qc, err := quoteIdent(col)
		if err != nil {
			return 0, err
		}
		sets = append(sets, qc+" = ?")
		args = append(args, fields[col])
	}
	whereSQL, whereArgs, err := buildWhere(where)
	if err != nil {
		return 0, err
	}
	args = append(args, whereArgs...)

	query := fmt.Sprintf("UPDATE %s SET %s%s", qt, strings.Join(sets, ", "), whereSQL)
	res, err := s.ext(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return 0, s.wrap("update", table, err)
	}
	return res.RowsAffected()
}

func (s *Store) UpdateByID(ctx context.Context, table string, id interface{}, fields Fields) (bool, error) {
	n, err := s.Update(ctx, table, fields, Filter{"id": id})
	return n > 0, err
}

// Delete refuses an empty filter and returns the number of removed rows.
func (s *Store) Delete(ctx context.Context, table string, where Filter) (affected int64, err error) {
	defer s.observe("delete", table, time.Now(), &err)

	if len(where) == 0 {
		return 0, fmt.Errorf("delete from %s: %w", table, domain.ErrEmptyFilter)
	}
	qt, err := quoteIdent(table)
	if err != nil {
		return 0, err
	}
	whereSQL, args, err := buildWhere(where)
	if err != nil {
		return 0, err
	}

	res, err := s.ext(ctx).ExecContext(ctx, "DELETE FROM "+qt+whereSQL, args...)
	if err != nil {
		return 0, s.wrap("delete", table, err)
	}
	return res.RowsAffected()
}

func (s *Store) DeleteByID(ctx context.Context, table string, id interface{}) (bool, error) {
	n, err := s.Delete(ctx, table, Filter{"id": id})
	return n > 0, err
}

// ============================================================================
// Reads
// ============================================================================

// Select scans every matching row into dest, a pointer to a slice.
func (s *Store) Select(ctx context.Context, dest interface{}, table string, q Query) (err error) {
	defer s.observe("select", table, time.Now(), &err)

	query, args, err := buildSelect(table, q)
	if err != nil {
		return err
	}
	if err := sqlx.SelectContext(ctx, s.ext(ctx), dest, query, args...); err != nil {
		return s.wrap("select", table, err)
	}
	return nil
}

// SelectOne scans the first matching row into dest. found is false when
// nothing matches.
func (s *Store) SelectOne(ctx context.Context, dest interface{}, table string, where Filter, columns ...string) (found bool, err error) {
	defer s.observe("select_one", table, time.Now(), &err)

	query, args, err := buildSelect(table, Query{Columns: columns, Where: where, Limit: 1})
	if err != nil {
		return false, err
	}
	if err := sqlx.GetContext(ctx, s.ext(ctx), dest, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, s.wrap("select_one", table, err)
	}
	return true, nil
}

func (s *Store) SelectByID(ctx context.Context, dest interface{}, table string, id interface{}) (bool, error) {
	return s.SelectOne(ctx, dest, table, Filter{"id": id})
}

// Exists checks with SELECT 1 ... LIMIT 1 instead of counting.
func (s *Store) Exists(ctx context.Context, table string, where Filter) (exists bool, err error) {
	defer s.observe("exists", table, time.Now(), &err)

	qt, err := quoteIdent(table)
	if err != nil {
		return false, err
	}
	whereSQL, args, err := buildWhere(where)
	if err != nil {
		return false, err
	}

	var one int
	err = s.ext(ctx).QueryRowxContext(ctx, "SELECT 1 FROM "+qt+whereSQL+" LIMIT 1", args...).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, s.wrap("exists", table, err)
	}
	return true, nil
}

// Count counts matching rows; a nil filter counts the whole table.
func (s *Store) Count(ctx context.Context, table string, where Filter) (count int, err error) {
	defer s.observe("count", table, time.Now(), &err)

	qt, err := quoteIdent(table)
	if err != nil {
		return 0, err
	}
	whereSQL, args, err := buildWhere(where)
	if err != nil {
		return 0, err
	}

	if err := sqlx.GetContext(ctx, s.ext(ctx), &count, "SELECT COUNT(*) FROM "+qt+whereSQL, args...); err != nil {
		return 0, s.wrap("count", table, err)
	}
	return count, nil
}

// RawQuery runs a hand-written SELECT and scans all rows into dest.
func (s *Store) RawQuery(ctx context.Context, dest interface{}, query string, args ...interface{}) (err error) {
	defer s.observe("raw_query", "", time.Now(), &err)

	if err := sqlx.SelectContext(ctx, s.ext(ctx), dest, query, args...); err != nil {
		return s.wrap("raw_query", "", err)
	}
	return nil
}

// RawGet runs a hand-written SELECT and scans the first row into dest.
func (s *Store) RawGet(ctx context.Context, dest interface{}, query string, args ...interface{}) (found bool, err error) {
	defer s.observe("raw_get", "", time.Now(), &err)

	if err := sqlx.GetContext(ctx, s.ext(ctx), dest, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, s.wrap("raw_get", "", err)
	}
	return true, nil
}

// RawExec runs a hand-written statement and returns the affected row count.
func (s *Store) RawExec(ctx context.Context, query string, args ...interface{}) (affected int64, err error) {
	defer s.observe("raw_exec", "", time.Now(), &err)

	res, err := s.ext(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return 0, s.wrap("raw_exec", "", err)
	}
	return res.RowsAffected()
}

// ============================================================================
// Helpers
// ============================================================================

func (s *Store) wrap(op, table string, err error) error {
	s.logger.Error("store operation failed",
		zap.String("operation", op),
		zap.String("table", table),
		zap.Error(err),
	)
	if isDuplicate(err) {
		return fmt.Errorf("%s %s: %w (%w)", op, table, domain.ErrDuplicate, err)
	}
	return fmt.Errorf("%s %s: %w", op, table, err)
}

func (s *Store) observe(op, table string, start time.Time, err *error) {
	result := "ok"
	if *err != nil {
		result = "error"
	}
	metrics.StoreQueries.WithLabelValues(op, table, result).Inc()
	metrics.StoreDuration.WithLabelValues(op, table).Observe(time.Since(start).Seconds())
}

func isDuplicate(err error) bool {
	var me *gomysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}

func quoteIdent(name string) (string, error) {
	if !identPattern.MatchString(name) {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidIdentifier, name)
	}
	return "`" + name + "`", nil
}

func sortedKeys[M ~map[string]interface{}](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func buildInsert(verb, table string, fields Fields, suffix string) (string, []interface{}, error) {
	if len(fields) == 0 {
		return "", nil, fmt.Errorf("insert into %s: %w", table, domain.ErrNoFields)
	}
	qt, err := quoteIdent(table)
	if err != nil {
		return "", nil, err
	}

	cols := sortedKeys(fields)
	quoted := make([]string, 0, len(cols))
	args := make([]interface{}, 0, len(cols))
	for _, col := range cols {
		qc, err := quoteIdent(col)
		if err != nil {
			return "", nil, err
		}
		quoted = append(quoted, qc)
		args = append(args, fields[col])
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	query := fmt.Sprintf("%s %s (%s) VALUES (%s)%s", verb, qt, strings.Join(quoted, ", "), placeholders, suffix)
	return query, args, nil
}

func buildWhere(where Filter) (string, []interface{}, error) {
	if len(where) == 0 {
		return "", nil, nil
	}

	cols := sortedKeys(where)
	parts := make([]string, 0, len(cols))
	args := make([]interface{}, 0, len(cols))
	for _, col := range cols {
		qc, err := quoteIdent(col)
		if err != nil {
			return "", nil, err
		}
		if where[col] == nil {
			parts = append(parts, qc+" IS NULL")
			continue
		}
		parts = append(parts, qc+" = ?")
		args = append(args, where[col])
	}
	return " WHERE " + strings.Join(parts, " AND "), args, nil
}

func buildSelect(table string, q Query) (string, []interface{}, error) {
	qt, err := quoteIdent(table)
	if err != nil {
		return "", nil, err
	}

	columns := "*"
	if len(q.Columns) > 0 {
		quoted := make([]string, 0, len(q.Columns))
		for _, col := range q.Columns {
			qc, err := quoteIdent(col)
			if err != nil {
				return "", nil, err
			}
			quoted = append(quoted, qc)
		}
		columns = strings.Join(quoted, ", ")
	}

	whereSQL, args, err := buildWhere(q.Where)
	if err != nil {
		return "", nil, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s%s", columns, qt, whereSQL)

	if len(q.OrderBy) > 0 {
		orders := make([]string, 0, len(q.OrderBy))
		for _, o := range q.OrderBy {
			qc, err := quoteIdent(o.Column)
			if err != nil {
				return "", nil, err
			}
			if o.Desc {
				qc += " DESC"
			}
			orders = append(orders, qc)
		}
		b.WriteString(" ORDER BY " + strings.Join(orders, ", "))
	}
	if q.Limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", q.Limit)
	}
	return b.String(), args, nil
}
