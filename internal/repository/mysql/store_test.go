package mysql

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	gomysql "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/railway-info/internal/domain"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	sqlxDB := sqlx.NewDb(db, "mysql")
	return NewStore(NewDBForTest(sqlxDB, zap.NewNop()), zap.NewNop()), mock
}

func TestStore_Insert(t *testing.T) {
	// Arrange
	store, mock := newMockStore(t)
	ctx := context.Background()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `line` (`color`, `name`, `status`) VALUES (?, ?, ?)")).
		WithArgs(int64(0xff0000), "Red Line", int64(domain.StatusSuspended)).
		WillReturnResult(sqlmock.NewResult(7, 1))

	// Act
	id, err := store.Insert(ctx, "line", Fields{
		"name":   "Red Line",
		"color":  domain.Color(0xff0000),
		"status": domain.StatusSuspended,
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Insert_DuplicateKey(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `line` (`name`) VALUES (?)")).
		WithArgs("Red Line").
		WillReturnError(&gomysql.MySQLError{Number: 1062, Message: "Duplicate entry 'Red Line'"})

	_, err := store.Insert(context.Background(), "line", Fields{"name": "Red Line"})

	assert.ErrorIs(t, err, domain.ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_InsertOrGet(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `station` (`name`) VALUES (?) ON DUPLICATE KEY UPDATE `id` = LAST_INSERT_ID(`id`)")).
		WithArgs("Alpha").
		WillReturnResult(sqlmock.NewResult(3, 0))

	id, err := store.InsertOrGet(context.Background(), "station", Fields{"name": "Alpha"})

	require.NoError(t, err)
	assert.Equal(t, int64(3), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_RefusesEmptyFilter(t *testing.T) {
	store, mock := newMockStore(t)
	ctx := context.Background()

	_, err := store.Update(ctx, "line", Fields{"notice": ""}, nil)
	assert.ErrorIs(t, err, domain.ErrEmptyFilter)

	_, err = store.Delete(ctx, "line", Filter{})
	assert.ErrorIs(t, err, domain.ErrEmptyFilter)

	// no statement reached the database
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_RejectsInvalidIdentifiers(t *testing.T) {
	store, mock := newMockStore(t)
	ctx := context.Background()

	_, err := store.Insert(ctx, "line; DROP TABLE line", Fields{"name": "x"})
	assert.ErrorIs(t, err, domain.ErrInvalidIdentifier)

	_, err = store.Exists(ctx, "line", Filter{"name`) OR 1=1": "x"})
	assert.ErrorIs(t, err, domain.ErrInvalidIdentifier)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_UpdateAndDeleteByID(t *testing.T) {
	store, mock := newMockStore(t)
	ctx := context.Background()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE `line` SET `name` = ?, `notice` = ? WHERE `id` = ?")).
		WithArgs("Blue Line", "closed", 4).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM `line` WHERE `id` = ?")).
		WithArgs(5).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := store.UpdateByID(ctx, "line", 4, Fields{"notice": "closed", "name": "Blue Line"})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.DeleteByID(ctx, "line", 5)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_SelectBuildsQuery(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT `id`, `name` FROM `station` WHERE `status` = ? AND `type` IS NULL ORDER BY `name`, `id` DESC LIMIT 10")).
		WithArgs("open").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(1, "Alpha").AddRow(2, "Beta"))

	var refs []domain.StationRef
	err := store.Select(context.Background(), &refs, "station", Query{
		Columns: []string{"id", "name"},
		Where:   Filter{"status": "open", "type": nil},
		OrderBy: []Order{{Column: "name"}, {Column: "id", Desc: true}},
		Limit:   10,
	})

	require.NoError(t, err)
	assert.Equal(t, []domain.StationRef{{ID: 1, Name: "Alpha"}, {ID: 2, Name: "Beta"}}, refs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_SelectOne_NotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT `id` FROM `operator` WHERE `uid` = ? LIMIT 1")).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	var row idRow
	found, err := store.SelectOne(context.Background(), &row, "operator", Filter{"uid": "ghost"}, "id")

	require.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_ExistsAndCount(t *testing.T) {
	store, mock := newMockStore(t)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM `station` WHERE `name` = ? LIMIT 1")).
		WithArgs("Alpha").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM `station` WHERE `name` = ? LIMIT 1")).
		WithArgs("Omega").
		WillReturnRows(sqlmock.NewRows([]string{"1"}))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM `line`")).
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(12))

	exists, err := store.Exists(ctx, "station", Filter{"name": "Alpha"})
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = store.Exists(ctx, "station", Filter{"name": "Omega"})
	require.NoError(t, err)
	assert.False(t, exists)

	count, err := store.Count(ctx, "line", nil)
	require.NoError(t, err)
	assert.Equal(t, 12, count)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_WithinTx(t *testing.T) {
	t.Run("commits on success and nested calls join", func(t *testing.T) {
		store, mock := newMockStore(t)

		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO `user`").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT IGNORE INTO `operator_user`").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := store.WithinTx(context.Background(), func(ctx context.Context) error {
			if _, err := store.Insert(ctx, "user", Fields{"id": "111"}); err != nil {
				return err
			}
			return store.WithinTx(ctx, func(ctx context.Context) error {
				_, err := store.InsertIgnore(ctx, "operator_user", Fields{"operator_id": 1, "user_id": "111"})
				return err
			})
		})

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back on error", func(t *testing.T) {
		store, mock := newMockStore(t)
		boom := errors.New("boom")

		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO `line`").WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectRollback()

		err := store.WithinTx(context.Background(), func(ctx context.Context) error {
			if _, err := store.Insert(ctx, "line", Fields{"name": "Red"}); err != nil {
				return err
			}
			return boom
		})

		assert.ErrorIs(t, err, boom)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back and re-panics", func(t *testing.T) {
		store, mock := newMockStore(t)

		mock.ExpectBegin()
		mock.ExpectRollback()

		assert.Panics(t, func() {
			_ = store.WithinTx(context.Background(), func(ctx context.Context) error {
				panic("unexpected")
			})
		})
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
