package mysql

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/railway-info/internal/domain"
)

const updateRequestStatus = "UPDATE `operator_request` SET `status` = ? WHERE `id` = ? AND `status` = ?"

var fixedNow = time.Date(2024, 5, 1, 12, 30, 0, 123456789, time.UTC)

func newRequestRepo(t *testing.T) (*operatorRequestRepository, sqlmock.Sqlmock) {
	store, mock := newMockStore(t)
	repo := NewOperatorRequestRepository(store, zap.NewNop()).(*operatorRequestRepository)
	repo.now = func() time.Time { return fixedNow }
	return repo, mock
}

func TestOperatorRequestRepository_Create(t *testing.T) {
	// Arrange
	repo, mock := newRequestRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(insertUserIgnore)).
		WithArgs("111").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `operator_request` (`additional_users`, `color`, `company_name`, `company_uid`, `requester_id`, `requester_username`, `short_code`, `status`, `timestamp`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)")).
		WithArgs(`["222","333"]`, int64(0x00ff00), "Nova Transit", "Nova", "111", "alice", "NT", "pending",
			fixedNow.Truncate(time.Microsecond)).
		WillReturnResult(sqlmock.NewResult(5, 1))
	mock.ExpectCommit()

	// Act
	id, err := repo.Create(context.Background(), domain.OperatorRequestInput{
		Requester:       domain.Requester{ID: "111", Username: "alice"},
		CompanyName:     "Nova Transit",
		ShortCode:       "NT",
		Color:           0x00ff00,
		AdditionalUsers: []string{"222", "333"},
		CompanyUID:      "Nova",
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, int64(5), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOperatorRequestRepository_GetPending_NewestFirst(t *testing.T) {
	repo, mock := newRequestRepo(t)
	older := fixedNow.Add(-time.Hour)

	mock.ExpectQuery(regexp.QuoteMeta("FROM `operator_request` WHERE `status` = ? ORDER BY `timestamp` DESC, `id` DESC")).
		WithArgs("pending").
		WillReturnRows(sqlmock.NewRows(requestColumns).
			AddRow(2, fixedNow, "pending", "111", "alice", "Nova Transit", "NT", 0x00ff00, `["222"]`, "nova").
			AddRow(1, older, "pending", "444", "bob", "Old Rail", "", 0, nil, "old"))

	reqs, err := repo.GetPending(context.Background())

	require.NoError(t, err)
	require.Len(t, reqs, 2)
	assert.Equal(t, int64(2), reqs[0].ID)
	assert.Equal(t, []string{"222"}, reqs[0].AdditionalUsers)
	assert.Equal(t, "alice", reqs[0].Requester.Username)
	assert.Equal(t, []string{}, reqs[1].AdditionalUsers)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOperatorRequestRepository_UpdateStatus(t *testing.T) {
	t.Run("pending to accepted", func(t *testing.T) {
		repo, mock := newRequestRepo(t)

		mock.ExpectExec(regexp.QuoteMeta(updateRequestStatus)).
			WithArgs("accepted", int64(3), "pending").
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.UpdateStatus(context.Background(), 3, domain.RequestAccepted)

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("already handled", func(t *testing.T) {
		repo, mock := newRequestRepo(t)

		mock.ExpectExec(regexp.QuoteMeta(updateRequestStatus)).
			WithArgs("rejected", int64(3), "pending").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM `operator_request` WHERE `id` = ? LIMIT 1")).
			WithArgs(int64(3)).
			WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

		err := repo.UpdateStatus(context.Background(), 3, domain.RequestRejected)

		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing request", func(t *testing.T) {
		repo, mock := newRequestRepo(t)

		mock.ExpectExec(regexp.QuoteMeta(updateRequestStatus)).
			WithArgs("accepted", int64(42), "pending").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM `operator_request` WHERE `id` = ? LIMIT 1")).
			WithArgs(int64(42)).
			WillReturnRows(sqlmock.NewRows([]string{"1"}))

		err := repo.UpdateStatus(context.Background(), 42, domain.RequestAccepted)

		assert.ErrorIs(t, err, domain.ErrRequestNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("back to pending is refused without a query", func(t *testing.T) {
		repo, mock := newRequestRepo(t)

		err := repo.UpdateStatus(context.Background(), 3, domain.RequestPending)

		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestOperatorRequestRepository_Count(t *testing.T) {
	repo, mock := newRequestRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM `operator_request` WHERE `status` = ?")).
		WithArgs("pending").
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(4))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM `operator_request`")).
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(9))

	pending, err := repo.Count(context.Background(), domain.RequestPending)
	require.NoError(t, err)
	assert.Equal(t, 4, pending)

	all, err := repo.Count(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 9, all)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOperatorRequestRepository_DeleteByTimestamp(t *testing.T) {
	repo, mock := newRequestRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM `operator_request` WHERE `timestamp` = ?")).
		WithArgs(fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.DeleteByTimestamp(context.Background(), fixedNow)

	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}
