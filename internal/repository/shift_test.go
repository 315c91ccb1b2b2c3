package repository_test

import (
	"regexp"
	"testing"
	"time"

	"github.com/Houeta/timekeeper-bot/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const lockEmployeeSQL = `SELECT id FROM employees WHERE id = \$1 FOR UPDATE`

const insertSessionSQL = `INSERT INTO work_sessions \(employee_id, started_at\) VALUES \(\$1, \$2\)`

const closeSessionSQL = `UPDATE\s+work_sessions\s+SET ended_at = \$2, duration = \$2 - started_at`

const insertBreakSQL = `INSERT INTO breaks \(session_id, started_at\)`

const closeBreakSQL = `UPDATE\s+breaks\s+SET ended_at = \$2, duration = \$2 - started_at`

const accrueOvertimeSQL = `UPDATE employees SET overtime = overtime \+ make_interval\(secs => \$2\) WHERE id = \$1`

const updateOnlineSQL = `UPDATE online_status SET is_online = \$2, updated_at = \$3 WHERE employee_id = \$1`

func expectLockedSnapshot(mock pgxmock.PgxPoolIface, employeeID int, openSession, openBreak bool) {
	mock.ExpectQuery(lockEmployeeSQL).
		WithArgs(employeeID).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(employeeID))
	mock.ExpectQuery(regexp.QuoteMeta(repository.GetShiftSnapshotSQL)).
		WithArgs(employeeID).
		WillReturnRows(pgxmock.NewRows([]string{"has_open_session", "has_open_break"}).
			AddRow(openSession, openBreak))
}

func TestStartShift(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	employeeID := 7
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	t.Run("error - failed to begin transaction", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock)

		mock.ExpectBegin().WillReturnError(assert.AnError)

		err = repo.StartShift(ctx, employeeID, now)

		require.Error(t, err)
		require.ErrorContains(t, err, "failed to begin transaction")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error - employee does not exist", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock)

		mock.ExpectBegin()
		mock.ExpectQuery(lockEmployeeSQL).WithArgs(employeeID).WillReturnError(pgx.ErrNoRows)

		err = repo.StartShift(ctx, employeeID, now)

		require.ErrorIs(t, err, repository.ErrEmployeeNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error - session already open", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock)

		mock.ExpectBegin()
		expectLockedSnapshot(mock, employeeID, true, false)
		mock.ExpectRollback()

		err = repo.StartShift(ctx, employeeID, now)

		require.ErrorIs(t, err, repository.ErrInvalidTransition)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock)

		mock.ExpectBegin()
		expectLockedSnapshot(mock, employeeID, false, false)
		mock.ExpectExec(insertSessionSQL).
			WithArgs(employeeID, now).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectExec(updateOnlineSQL).
			WithArgs(employeeID, true, now).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		mock.ExpectCommit()

		err = repo.StartShift(ctx, employeeID, now)

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestEndShift(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	employeeID := 7
	now := time.Date(2025, 3, 10, 17, 0, 0, 0, time.UTC)

	t.Run("error - no open session", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock)

		mock.ExpectBegin()
		expectLockedSnapshot(mock, employeeID, false, false)
		mock.ExpectRollback()

		_, err = repo.EndShift(ctx, employeeID, now)

		require.ErrorIs(t, err, repository.ErrInvalidTransition)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error - break still open", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock)

		mock.ExpectBegin()
		expectLockedSnapshot(mock, employeeID, true, true)
		mock.ExpectRollback()

		_, err = repo.EndShift(ctx, employeeID, now)

		require.ErrorIs(t, err, repository.ErrInvalidTransition)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success - within standard workday", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock)

		workedSeconds := float64(7*3600 + 45*60)

		mock.ExpectBegin()
		expectLockedSnapshot(mock, employeeID, true, false)
		mock.ExpectQuery(closeSessionSQL).
			WithArgs(employeeID, now).
			WillReturnRows(pgxmock.NewRows([]string{"extract"}).AddRow(workedSeconds))
		mock.ExpectExec(updateOnlineSQL).
			WithArgs(employeeID, false, now).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		mock.ExpectCommit()

		event, err := repo.EndShift(ctx, employeeID, now)

		require.NoError(t, err)
		assert.Equal(t, now, event.OccurredAt)
		assert.Equal(t, 7*time.Hour+45*time.Minute, event.Duration)
		assert.Zero(t, event.Overtime)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success - overtime accrued beyond eight hours", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock)

		workedSeconds := float64(8*3600 + 1800)

		mock.ExpectBegin()
		expectLockedSnapshot(mock, employeeID, true, false)
		mock.ExpectQuery(closeSessionSQL).
			WithArgs(employeeID, now).
			WillReturnRows(pgxmock.NewRows([]string{"extract"}).AddRow(workedSeconds))
		mock.ExpectExec(accrueOvertimeSQL).
			WithArgs(employeeID, float64(1800)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		mock.ExpectExec(updateOnlineSQL).
			WithArgs(employeeID, false, now).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		mock.ExpectCommit()

		event, err := repo.EndShift(ctx, employeeID, now)

		require.NoError(t, err)
		assert.Equal(t, 8*time.Hour+30*time.Minute, event.Duration)
		assert.Equal(t, 30*time.Minute, event.Overtime)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestStartBreak(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	employeeID := 3
	now := time.Date(2025, 3, 10, 13, 0, 0, 0, time.UTC)

	t.Run("error - no open session", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock)

		mock.ExpectBegin()
		expectLockedSnapshot(mock, employeeID, false, false)
		mock.ExpectRollback()

		err = repo.StartBreak(ctx, employeeID, now)

		require.ErrorIs(t, err, repository.ErrInvalidTransition)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error - break already open", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock)

		mock.ExpectBegin()
		expectLockedSnapshot(mock, employeeID, true, true)
		mock.ExpectRollback()

		err = repo.StartBreak(ctx, employeeID, now)

		require.ErrorIs(t, err, repository.ErrInvalidTransition)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock)

		mock.ExpectBegin()
		expectLockedSnapshot(mock, employeeID, true, false)
		mock.ExpectExec(insertBreakSQL).
			WithArgs(employeeID, now).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectExec(updateOnlineSQL).
			WithArgs(employeeID, false, now).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		mock.ExpectCommit()

		err = repo.StartBreak(ctx, employeeID, now)

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestEndBreak(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	employeeID := 3
	now := time.Date(2025, 3, 10, 13, 15, 0, 0, time.UTC)

	t.Run("error - no open break", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock)

		mock.ExpectBegin()
		expectLockedSnapshot(mock, employeeID, true, false)
		mock.ExpectRollback()

		_, err = repo.EndBreak(ctx, employeeID, now)

		require.ErrorIs(t, err, repository.ErrInvalidTransition)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock)

		mock.ExpectBegin()
		expectLockedSnapshot(mock, employeeID, true, true)
		mock.ExpectQuery(closeBreakSQL).
			WithArgs(employeeID, now).
			WillReturnRows(pgxmock.NewRows([]string{"extract"}).AddRow(float64(900)))
		mock.ExpectExec(updateOnlineSQL).
			WithArgs(employeeID, true, now).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		mock.ExpectCommit()

		event, err := repo.EndBreak(ctx, employeeID, now)

		require.NoError(t, err)
		assert.Equal(t, 15*time.Minute, event.Duration)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGetShiftState(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	employeeID := 11

	t.Run("error - query failed", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock)

		mock.ExpectQuery(regexp.QuoteMeta(repository.GetShiftSnapshotSQL)).
			WithArgs(employeeID).
			WillReturnError(assert.AnError)

		_, err = repo.GetShiftState(ctx, employeeID)

		require.ErrorIs(t, err, assert.AnError)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock)

		mock.ExpectQuery(regexp.QuoteMeta(repository.GetShiftSnapshotSQL)).
			WithArgs(employeeID).
			WillReturnRows(pgxmock.NewRows([]string{"has_open_session", "has_open_break"}).
				AddRow(true, true))

		snap, err := repo.GetShiftState(ctx, employeeID)

		require.NoError(t, err)
		assert.True(t, snap.HasOpenSession)
		assert.True(t, snap.HasOpenBreak)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
