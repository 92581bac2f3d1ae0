package mysql

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/railway-info/internal/domain"
)

var operatorRowColumns = []string{"id", "uid", "name", "color", "short", "image_path", "description"}

const (
	selectOperators   = "SELECT `id`, `uid`, `name`, `color`, `short`, `image_path`, `description` FROM `operator` ORDER BY `name`"
	selectAllMembers  = "SELECT `operator_id`, `user_id` FROM `operator_user` ORDER BY `operator_id`, `user_id`"
	insertUserIgnore  = "INSERT IGNORE INTO `user` (`id`) VALUES (?)"
	insertMembership  = "INSERT IGNORE INTO `operator_user` (`operator_id`, `user_id`) VALUES (?, ?)"
	deleteMemberships = "DELETE FROM `operator_user` WHERE `operator_id` = ?"
)

func newOperatorRepo(t *testing.T) (*operatorRepository, sqlmock.Sqlmock, *observer.ObservedLogs) {
	store, mock := newMockStore(t)
	core, logs := observer.New(zapcore.WarnLevel)
	return NewOperatorRepository(store, zap.New(core)).(*operatorRepository), mock, logs
}

func TestOperatorRepository_GetAll(t *testing.T) {
	// Arrange
	repo, mock, _ := newOperatorRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(selectOperators)).
		WillReturnRows(sqlmock.NewRows(operatorRowColumns).
			AddRow(1, "acme", "Acme Rail", 0xff0000, "AR", nil, nil).
			AddRow(2, "nova", "Nova Transit", nil, nil, nil, nil))
	mock.ExpectQuery(regexp.QuoteMeta(selectAllMembers)).
		WillReturnRows(sqlmock.NewRows([]string{"operator_id", "user_id"}).
			AddRow(1, "111").
			AddRow(1, "222"))

	// Act
	ops, err := repo.GetAll(context.Background())

	// Assert
	require.NoError(t, err)
	require.Len(t, ops, 2)
	assert.Equal(t, []string{"111", "222"}, ops[0].Users)
	assert.Equal(t, "#ff0000", ops[0].Color.String())
	assert.Equal(t, "#808080", ops[1].Color.String())
	assert.Equal(t, "", ops[1].Short)
	assert.Equal(t, []string{}, ops[1].Users)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOperatorRepository_GetByUID(t *testing.T) {
	repo, mock, _ := newOperatorRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM `operator` WHERE `uid` = ? LIMIT 1")).
		WithArgs("acme").
		WillReturnRows(sqlmock.NewRows(operatorRowColumns).AddRow(1, "acme", "Acme Rail", 0xff0000, "AR", nil, "Since 1901"))
	mock.ExpectQuery(regexp.QuoteMeta("FROM `operator_user` WHERE `operator_id` = ? ORDER BY `user_id`")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"operator_id", "user_id"}).AddRow(1, "111"))

	op, err := repo.GetByUID(context.Background(), "acme")

	require.NoError(t, err)
	require.NotNil(t, op)
	assert.Equal(t, "Acme Rail", op.Name)
	assert.Equal(t, "Since 1901", op.Description)
	assert.True(t, op.HasUser("111"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOperatorRepository_Create_SkipsFailingUser(t *testing.T) {
	// Arrange
	repo, mock, logs := newOperatorRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `operator` (`color`, `description`, `image_path`, `name`, `short`, `uid`) VALUES (?, ?, ?, ?, ?, ?)")).
		WithArgs(int64(0xff0000), nil, nil, "Acme Rail", "AR", "acme").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta(insertUserIgnore)).
		WithArgs("111").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(insertMembership)).
		WithArgs(int64(1), "111").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(insertUserIgnore)).
		WithArgs("222").
		WillReturnError(assert.AnError)
	mock.ExpectCommit()

	// Act
	id, err := repo.Create(context.Background(), domain.OperatorInput{
		UID:   "acme",
		Name:  "Acme Rail",
		Color: 0xff0000,
		Short: "AR",
		Users: []string{"111", "222"},
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)
	assert.Equal(t, 1, logs.FilterMessage("Skipping user that could not be stored").Len())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOperatorRepository_Update_ReplacesUsers(t *testing.T) {
	repo, mock, _ := newOperatorRepo(t)
	name := "Acme Railways"
	users := []string{"333"}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(selectOperatorID)).
		WithArgs("acme").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE `operator` SET `name` = ? WHERE `id` = ?")).
		WithArgs("Acme Railways", int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(deleteMemberships)).
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta(insertUserIgnore)).
		WithArgs("333").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(insertMembership)).
		WithArgs(int64(1), "333").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	ok, err := repo.Update(context.Background(), "acme", domain.OperatorUpdate{Name: &name, Users: &users})

	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOperatorRepository_Delete_WithLinesWarnsAndProceeds(t *testing.T) {
	// Arrange
	repo, mock, logs := newOperatorRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(selectOperatorID)).
		WithArgs("acme").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectExec(regexp.QuoteMeta(deleteMemberships)).
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM `line` WHERE `operator_id` = ?")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM `operator` WHERE `id` = ?")).
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	// Act
	ok, err := repo.Delete(context.Background(), "acme")

	// Assert
	require.NoError(t, err)
	assert.True(t, ok)
	warnings := logs.FilterMessage("Deleting operator that still owns lines")
	require.Equal(t, 1, warnings.Len())
	assert.Equal(t, int64(1), warnings.All()[0].ContextMap()["lines"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOperatorRepository_AddUser_AlreadyMember(t *testing.T) {
	repo, mock, logs := newOperatorRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(selectOperatorID)).
		WithArgs("acme").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM `operator_user` WHERE `operator_id` = ? AND `user_id` = ? LIMIT 1")).
		WithArgs(int64(1), "111").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectCommit()

	ok, err := repo.AddUser(context.Background(), "acme", "111")

	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, logs.FilterMessage("User already belongs to operator").Len())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOperatorRepository_RemoveUser_NotMember(t *testing.T) {
	repo, mock, logs := newOperatorRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(selectOperatorID)).
		WithArgs("acme").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM `operator_user` WHERE `operator_id` = ? AND `user_id` = ?")).
		WithArgs(int64(1), "999").
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.RemoveUser(context.Background(), "acme", "999")

	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, logs.FilterMessage("User is not a member of operator").Len())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOperatorRepository_UserBelongs(t *testing.T) {
	repo, mock, _ := newOperatorRepo(t)

	mock.ExpectQuery("WHERE o.uid = \\? AND ou.user_id = \\?").
		WithArgs("acme", "111").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	belongs, err := repo.UserBelongs(context.Background(), "acme", "111")

	require.NoError(t, err)
	assert.True(t, belongs)
	assert.NoError(t, mock.ExpectationsWereMet())
}
