package repository_test

import (
	"testing"
	"time"

	"github.com/Houeta/timekeeper-bot/internal/repository"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const insertReminderSQL = `INSERT INTO reminders \(employee_id, remind_at, message\)`

const listRemindersSQL = `SELECT id, employee_id, remind_at, message\s+FROM reminders\s+WHERE employee_id = \$1\s+ORDER BY remind_at ASC`

const deleteReminderSQL = `DELETE FROM reminders WHERE id = \$1 AND employee_id = \$2`

const listPendingRemindersSQL = `SELECT r.id, r.employee_id, e.telegram_id, r.remind_at, r.message\s+FROM reminders r\s+JOIN employees e`

func TestCreateReminder(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	employeeID := 7
	remindAt := time.Date(2025, 6, 1, 18, 30, 0, 0, time.UTC)
	message := "Сдать отчёт"

	t.Run("error - insert failed", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock)

		mock.ExpectQuery(insertReminderSQL).
			WithArgs(employeeID, remindAt, message).
			WillReturnError(assert.AnError)

		_, err = repo.CreateReminder(ctx, employeeID, remindAt, message)

		require.ErrorIs(t, err, assert.AnError)
		require.ErrorContains(t, err, "failed to insert reminder")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock)

		mock.ExpectQuery(insertReminderSQL).
			WithArgs(employeeID, remindAt, message).
			WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(101))

		reminder, err := repo.CreateReminder(ctx, employeeID, remindAt, message)

		require.NoError(t, err)
		assert.Equal(t, 101, reminder.ID)
		assert.Equal(t, employeeID, reminder.EmployeeID)
		assert.Equal(t, remindAt, reminder.RemindAt)
		assert.Equal(t, message, reminder.Message)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestListReminders(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	employeeID := 7

	t.Run("success - empty", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock)

		mock.ExpectQuery(listRemindersSQL).
			WithArgs(employeeID).
			WillReturnRows(pgxmock.NewRows([]string{"id", "employee_id", "remind_at", "message"}))

		reminders, err := repo.ListReminders(ctx, employeeID)

		require.NoError(t, err)
		assert.Empty(t, reminders)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success - ordered by fire time", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock)

		first := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
		second := time.Date(2025, 6, 1, 18, 30, 0, 0, time.UTC)

		mock.ExpectQuery(listRemindersSQL).
			WithArgs(employeeID).
			WillReturnRows(pgxmock.NewRows([]string{"id", "employee_id", "remind_at", "message"}).
				AddRow(1, employeeID, first, "Встреча").
				AddRow(2, employeeID, second, "Сдать отчёт"))

		reminders, err := repo.ListReminders(ctx, employeeID)

		require.NoError(t, err)
		require.Len(t, reminders, 2)
		assert.Equal(t, "Встреча", reminders[0].Message)
		assert.Equal(t, second, reminders[1].RemindAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDeleteReminder(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	t.Run("error - reminder not found", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock)

		mock.ExpectExec(deleteReminderSQL).
			WithArgs(101, 7).
			WillReturnResult(pgxmock.NewResult("DELETE", 0))

		err = repo.DeleteReminder(ctx, 101, 7)

		require.ErrorIs(t, err, repository.ErrReminderNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock)

		mock.ExpectExec(deleteReminderSQL).
			WithArgs(101, 7).
			WillReturnResult(pgxmock.NewResult("DELETE", 1))

		err = repo.DeleteReminder(ctx, 101, 7)

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestListPendingReminders(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := repository.NewRepository(mock)

	remindAt := time.Date(2025, 6, 1, 18, 30, 0, 0, time.UTC)

	mock.ExpectQuery(listPendingRemindersSQL).
		WillReturnRows(pgxmock.NewRows([]string{"id", "employee_id", "telegram_id", "remind_at", "message"}).
			AddRow(1, 7, int64(54321), remindAt, "Сдать отчёт"))

	pending, err := repo.ListPendingReminders(ctx)

	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, int64(54321), pending[0].ChatID)
	assert.Equal(t, "Сдать отчёт", pending[0].Message)
	assert.NoError(t, mock.ExpectationsWereMet())
}
