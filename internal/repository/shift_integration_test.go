package repository_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Houeta/timekeeper-bot/internal/models"
	"github.com/Houeta/timekeeper-bot/internal/repository"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const attendanceSchema = `
CREATE TABLE employees (
	id SERIAL PRIMARY KEY,
	telegram_id BIGINT UNIQUE NOT NULL,
	last_name TEXT NOT NULL,
	first_name TEXT NOT NULL,
	patronymic TEXT NOT NULL DEFAULT '-',
	department_id INT NOT NULL DEFAULT 0,
	division_id INT NOT NULL DEFAULT 0,
	role TEXT NOT NULL DEFAULT 'worker',
	overtime INTERVAL NOT NULL DEFAULT '0',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE work_sessions (
	id SERIAL PRIMARY KEY,
	employee_id INT NOT NULL REFERENCES employees (id),
	started_at TIMESTAMPTZ NOT NULL,
	ended_at TIMESTAMPTZ,
	duration INTERVAL
);

CREATE TABLE breaks (
	id SERIAL PRIMARY KEY,
	session_id INT NOT NULL REFERENCES work_sessions (id),
	started_at TIMESTAMPTZ NOT NULL,
	ended_at TIMESTAMPTZ,
	duration INTERVAL
);

CREATE TABLE online_status (
	employee_id INT PRIMARY KEY REFERENCES employees (id),
	is_online BOOLEAN NOT NULL DEFAULT FALSE,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

// startAttendanceDB spins up a postgres container with the attendance schema
// and one registered employee, returning the pool and the employee ID.
func startAttendanceDB(t *testing.T) (*pgxpool.Pool, int) {
	t.Helper()
	ctx := t.Context()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("timekeeper_test"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpassword"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Second),
		),
	)
	require.NoError(t, err, "failed to start postgres container")
	t.Cleanup(func() {
		require.NoError(t, pgContainer.Terminate(context.Background()), "failed to terminate postgres container")
	})

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)

	port, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dbpool, err := repository.NewDatabase(host, port.Port(), "testuser", "testpassword", "timekeeper_test")
	require.NoError(t, err, "NewDatabase failed")
	t.Cleanup(dbpool.Close)

	_, err = dbpool.Exec(ctx, attendanceSchema)
	require.NoError(t, err, "failed to create schema")

	var employeeID int
	err = dbpool.QueryRow(ctx, `
		INSERT INTO employees (telegram_id, last_name, first_name)
		VALUES (54321, 'Иванов', 'Иван')
		RETURNING id
	`).Scan(&employeeID)
	require.NoError(t, err)

	_, err = dbpool.Exec(ctx,
		"INSERT INTO online_status (employee_id, is_online) VALUES ($1, FALSE)", employeeID)
	require.NoError(t, err)

	return dbpool, employeeID
}

func isOnline(t *testing.T, dbpool *pgxpool.Pool, employeeID int) bool {
	t.Helper()
	var online bool
	err := dbpool.QueryRow(t.Context(),
		"SELECT is_online FROM online_status WHERE employee_id = $1", employeeID).Scan(&online)
	require.NoError(t, err)
	return online
}

// raceTransition runs the same transition twice concurrently and returns the
// two results.
func raceTransition(op func() error) []error {
	var wg sync.WaitGroup
	results := make(chan error, 2)
	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- op()
		}()
	}
	wg.Wait()
	close(results)

	var errs []error
	for err := range results {
		errs = append(errs, err)
	}
	return errs
}

func requireOneRejected(t *testing.T, errs []error) {
	t.Helper()
	require.Len(t, errs, 2)

	var succeeded, rejected int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		default:
			require.ErrorIs(t, err, repository.ErrInvalidTransition)
			rejected++
		}
	}
	assert.Equal(t, 1, succeeded, "exactly one racing transition must succeed")
	assert.Equal(t, 1, rejected, "the losing transition must observe the post-transition state")
}

func TestShiftTransitions_Postgres(t *testing.T) {
	t.Parallel()
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}

	ctx := t.Context()
	dbpool, employeeID := startAttendanceDB(t)
	repo := repository.NewRepository(dbpool)

	shiftStart := time.Date(2025, 6, 5, 9, 0, 0, 0, time.UTC)
	breakStart := shiftStart.Add(time.Hour)
	breakEnd := breakStart.Add(15 * time.Minute)
	shiftEnd := shiftStart.Add(8 * time.Hour)

	// Two near-simultaneous clock-ins: the row lock serializes them, the
	// second observes the open session and is rejected.
	requireOneRejected(t, raceTransition(func() error {
		return repo.StartShift(ctx, employeeID, shiftStart)
	}))
	assert.True(t, isOnline(t, dbpool, employeeID))

	var openSessions int
	err := dbpool.QueryRow(ctx,
		"SELECT COUNT(*) FROM work_sessions WHERE employee_id = $1 AND ended_at IS NULL", employeeID).
		Scan(&openSessions)
	require.NoError(t, err)
	assert.Equal(t, 1, openSessions, "the race must open exactly one session")

	// A break in the middle of the shift.
	require.NoError(t, repo.StartBreak(ctx, employeeID, breakStart))
	assert.False(t, isOnline(t, dbpool, employeeID))

	breakEvent, err := repo.EndBreak(ctx, employeeID, breakEnd)
	require.NoError(t, err)
	assert.Equal(t, 15*time.Minute, breakEvent.Duration)
	assert.True(t, isOnline(t, dbpool, employeeID))

	// Double-tap of clock-out: exactly one closed session, one rejection.
	var mu sync.Mutex
	var event models.ShiftEvent
	requireOneRejected(t, raceTransition(func() error {
		got, opErr := repo.EndShift(ctx, employeeID, shiftEnd)
		if opErr == nil {
			mu.Lock()
			event = got
			mu.Unlock()
		}
		return opErr
	}))
	assert.False(t, isOnline(t, dbpool, employeeID))
	assert.Equal(t, 8*time.Hour, event.Duration)
	assert.Zero(t, event.Overtime)

	var closedSessions int
	err = dbpool.QueryRow(ctx,
		"SELECT COUNT(*) FROM work_sessions WHERE employee_id = $1 AND ended_at IS NOT NULL", employeeID).
		Scan(&closedSessions)
	require.NoError(t, err)
	assert.Equal(t, 1, closedSessions, "the race must close exactly one session")
}
