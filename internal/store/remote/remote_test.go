package remote_test

import (
	"context"
	"testing"
	"time"

	"tasky/internal/model"
	"tasky/internal/store"
	"tasky/internal/store/remote"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		DSN:                  "sqlmock_db_0",
		DriverName:           "postgres",
		Conn:                 db,
		PreferSimpleProtocol: true,
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	return gormDB, mock
}

func listRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "color", "created_by", "shared_with", "created_at", "updated_at"})
}

func taskRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "list_id", "title", "notes", "due_date", "priority", "completed", "sort_order", "created_by", "assigned_to", "created_at", "updated_at"})
}

func TestRemote_GetList_Found(t *testing.T) {
	// Arrange
	gormDB, mock := setupMockDB(t)
	r := remote.NewWithDB(gormDB)
	ts := time.Now().UTC()

	// Ожидаем SQL запрос на поиск списка по id
	mock.ExpectQuery(`SELECT .* FROM "lists" WHERE id = .*`).
		WillReturnRows(listRows().AddRow("l1", "Дом", "blue", "u1", `["u2"]`, ts, ts))

	// Act
	list, err := r.GetList(context.Background(), "l1")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "l1", list.ID)
	assert.Equal(t, "Дом", list.Name)
	assert.True(t, list.SharedWith.Contains("u2"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRemote_GetList_NotFound(t *testing.T) {
	// Arrange
	gormDB, mock := setupMockDB(t)
	r := remote.NewWithDB(gormDB)

	mock.ExpectQuery(`SELECT .* FROM "lists" WHERE id = .*`).
		WillReturnError(gorm.ErrRecordNotFound)

	// Act
	list, err := r.GetList(context.Background(), "missing")

	// Assert: инфраструктурная ошибка переводится в доменную
	assert.Nil(t, list)
	assert.ErrorIs(t, err, store.ErrListNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRemote_UpdateList_NotFound(t *testing.T) {
	// Arrange
	gormDB, mock := setupMockDB(t)
	r := remote.NewWithDB(gormDB)

	// UPDATE не задел ни одной строки
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "lists" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	// Act
	err := r.UpdateList(context.Background(), "missing", store.Fields{store.FieldName: "x"})

	// Assert
	assert.ErrorIs(t, err, store.ErrListNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRemote_UpdateList_StampsUpdatedAt(t *testing.T) {
	// Arrange
	gormDB, mock := setupMockDB(t)
	r := remote.NewWithDB(gormDB)

	var events []store.Event
	cancel := r.Watch(store.CollectionLists, func(e store.Event) { events = append(events, e) })
	defer cancel()

	// SET содержит и name, и проставленный сервером updated_at
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "lists" SET .*"name".*"updated_at".*|UPDATE "lists" SET .*"updated_at".*"name".*`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	// Act
	err := r.UpdateList(context.Background(), "l1", store.Fields{store.FieldName: "Новое"})

	// Assert: запись прошла и событие опубликовано
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "l1", events[0].EntityID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRemote_UpdateTask_DropsAbsentFields(t *testing.T) {
	// Arrange
	gormDB, mock := setupMockDB(t)
	r := remote.NewWithDB(gormDB)
	ts := time.Now().UTC()

	mock.ExpectQuery(`SELECT .* FROM "tasks" WHERE id = .*`).
		WillReturnRows(taskRows().AddRow("t1", "l1", "x", "", nil, 0, false, 0, "u1", "u1", ts, ts))

	// nil-поле notes не должно попасть в SET
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "tasks" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	// Act
	err := r.UpdateTask(context.Background(), "t1", store.Fields{
		store.FieldTitle: "новое",
		store.FieldNotes: nil,
	})

	// Assert
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRemote_UpdateTask_NotFound(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	r := remote.NewWithDB(gormDB)

	mock.ExpectQuery(`SELECT .* FROM "tasks" WHERE id = .*`).
		WillReturnError(gorm.ErrRecordNotFound)

	err := r.UpdateTask(context.Background(), "missing", store.Fields{store.FieldTitle: "x"})

	assert.ErrorIs(t, err, store.ErrTaskNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRemote_DeleteTask_MissingIsNotAnError(t *testing.T) {
	// Arrange: удаление отсутствующей задачи идемпотентно
	gormDB, mock := setupMockDB(t)
	r := remote.NewWithDB(gormDB)

	mock.ExpectQuery(`SELECT .* FROM "tasks" WHERE id = .*`).
		WillReturnError(gorm.ErrRecordNotFound)

	// Act
	err := r.DeleteTask(context.Background(), "missing")

	// Assert
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRemote_TasksByList(t *testing.T) {
	// Arrange
	gormDB, mock := setupMockDB(t)
	r := remote.NewWithDB(gormDB)
	ts := time.Now().UTC()

	mock.ExpectQuery(`SELECT .* FROM "tasks" WHERE list_id = .* ORDER BY updated_at DESC`).
		WithArgs("l1").
		WillReturnRows(taskRows().
			AddRow("t2", "l1", "b", "", nil, 1, false, 1, "u1", "u1", ts, ts).
			AddRow("t1", "l1", "a", "", nil, 0, false, 0, "u1", "u1", ts, ts))

	// Act
	tasks, err := r.TasksByList(context.Background(), "l1")

	// Assert
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "t2", tasks[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRemote_TasksDueOn(t *testing.T) {
	// Arrange
	gormDB, mock := setupMockDB(t)
	r := remote.NewWithDB(gormDB)
	ts := time.Now().UTC()
	day := "2026-09-01"

	// Завершённые задачи в выборку «на сегодня» не попадают
	mock.ExpectQuery(`SELECT .* FROM "tasks" WHERE created_by = .* AND due_date = .* AND completed = .*`).
		WithArgs("u1", day, false).
		WillReturnRows(taskRows().AddRow("t1", "l1", "a", "", day, 0, false, 0, "u1", "u1", ts, ts))

	// Act
	tasks, err := r.TasksDueOn(context.Background(), "u1", day)

	// Assert
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	require.NotNil(t, tasks[0].DueDate)
	assert.Equal(t, day, *tasks[0].DueDate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRemote_CountIncomplete(t *testing.T) {
	// Arrange
	gormDB, mock := setupMockDB(t)
	r := remote.NewWithDB(gormDB)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "tasks" WHERE list_id = .* AND completed = .*`).
		WithArgs("l1", false).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	// Act
	n, err := r.CountIncomplete(context.Background(), "l1")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRemote_PendingInvitations(t *testing.T) {
	// Arrange
	gormDB, mock := setupMockDB(t)
	r := remote.NewWithDB(gormDB)
	ts := time.Now().UTC()

	mock.ExpectQuery(`SELECT .* FROM "invitations" WHERE invitee_email = .* AND status = .*`).
		WithArgs("guest@example.com", string(model.InvitationPending)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "list_id", "inviter_user_id", "invitee_email", "status", "created_at"}).
			AddRow("inv1", "l1", "u1", "guest@example.com", "pending", ts))

	// Act
	invs, err := r.PendingInvitations(context.Background(), "guest@example.com")

	// Assert
	require.NoError(t, err)
	require.Len(t, invs, 1)
	assert.Equal(t, model.InvitationPending, invs[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRemote_GetInvitation_NotFound(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	r := remote.NewWithDB(gormDB)

	mock.ExpectQuery(`SELECT .* FROM "invitations" WHERE id = .*`).
		WillReturnError(gorm.ErrRecordNotFound)

	inv, err := r.GetInvitation(context.Background(), "missing")

	assert.Nil(t, inv)
	assert.ErrorIs(t, err, store.ErrInvitationNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRemote_RejectInvitation_AlreadyResolved(t *testing.T) {
	// Arrange: терминальный статус не переписывается
	gormDB, mock := setupMockDB(t)
	r := remote.NewWithDB(gormDB)
	ts := time.Now().UTC()

	mock.ExpectQuery(`SELECT .* FROM "invitations" WHERE id = .*`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "list_id", "inviter_user_id", "invitee_email", "status", "created_at"}).
			AddRow("inv1", "l1", "u1", "guest@example.com", "accepted", ts))

	// Act
	err := r.RejectInvitation(context.Background(), "inv1")

	// Assert: UPDATE даже не отправляется
	assert.ErrorIs(t, err, store.ErrInvitationResolved)
	assert.NoError(t, mock.ExpectationsWereMet())
}
