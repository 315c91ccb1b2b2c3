package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Houeta/timekeeper-bot/internal/models"
	"github.com/jackc/pgx/v5"
)

// Workday is the standard shift length; the excess of a closed session over it
// is accumulated as the employee's overtime.
const Workday = 8 * time.Hour

var (
	// ErrInvalidTransition is returned when a shift/break action is attempted from a state it is not legal in.
	ErrInvalidTransition = errors.New("invalid shift transition")
	// ErrEmployeeNotFound is returned when the referenced employee does not exist.
	ErrEmployeeNotFound = errors.New("employee not found")
)

// StartShift opens a new work session for the employee and marks them online.
// It is rejected with ErrInvalidTransition if a session is already open. The
// validation read and all writes happen in one transaction holding a lock on
// the employee row, so concurrent actions by the same employee serialize and
// the losing one observes the post-transition state.
func (r *Repository) StartShift(ctx context.Context, employeeID int, now time.Time) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // omitted because checking for errors will not affect the function

	snap, err := lockShiftState(ctx, tx, employeeID)
	if err != nil {
		return err
	}
	if snap.HasOpenSession {
		return fmt.Errorf("%w: a work session is already open", ErrInvalidTransition)
	}

	_, err = tx.Exec(ctx, "INSERT INTO work_sessions (employee_id, started_at) VALUES ($1, $2)", employeeID, now)
	if err != nil {
		return fmt.Errorf("failed to insert work session: %w", err)
	}

	if err = setOnline(ctx, tx, employeeID, true, now); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// EndShift closes the open work session, defines its duration from the
// mutation timestamp, accrues overtime beyond the standard workday and marks
// the employee offline. Rejected if no session is open or a break is still
// running.
func (r *Repository) EndShift(ctx context.Context, employeeID int, now time.Time) (models.ShiftEvent, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return models.ShiftEvent{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // omitted because checking for errors will not affect the function

	snap, err := lockShiftState(ctx, tx, employeeID)
	if err != nil {
		return models.ShiftEvent{}, err
	}
	if !snap.HasOpenSession {
		return models.ShiftEvent{}, fmt.Errorf("%w: no open work session", ErrInvalidTransition)
	}
	if snap.HasOpenBreak {
		return models.ShiftEvent{}, fmt.Errorf("%w: a break is still open, end it first", ErrInvalidTransition)
	}

	var seconds float64
	err = tx.QueryRow(ctx, `
		UPDATE work_sessions
		SET ended_at = $2, duration = $2 - started_at
		WHERE employee_id = $1 AND ended_at IS NULL
		RETURNING EXTRACT(EPOCH FROM duration)::float8
	`, employeeID, now).Scan(&seconds)
	if err != nil {
		return models.ShiftEvent{}, fmt.Errorf("failed to close work session: %w", err)
	}

	event := models.ShiftEvent{
		OccurredAt: now,
		Duration:   time.Duration(seconds * float64(time.Second)),
	}

	if overtime := event.Duration - Workday; overtime > 0 {
		_, err = tx.Exec(ctx,
			"UPDATE employees SET overtime = overtime + make_interval(secs => $2) WHERE id = $1",
			employeeID, overtime.Seconds(),
		)
		if err != nil {
			return models.ShiftEvent{}, fmt.Errorf("failed to accrue overtime: %w", err)
		}
		event.Overtime = overtime
	}

	if err = setOnline(ctx, tx, employeeID, false, now); err != nil {
		return models.ShiftEvent{}, err
	}

	return event, tx.Commit(ctx)
}

// StartBreak opens a break under the current open session and marks the
// employee offline. Rejected if no session is open or a break already is.
func (r *Repository) StartBreak(ctx context.Context, employeeID int, now time.Time) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // omitted because checking for errors will not affect the function

	snap, err := lockShiftState(ctx, tx, employeeID)
	if err != nil {
		return err
	}
	if !snap.HasOpenSession {
		return fmt.Errorf("%w: no open work session", ErrInvalidTransition)
	}
	if snap.HasOpenBreak {
		return fmt.Errorf("%w: a break is already open", ErrInvalidTransition)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO breaks (session_id, started_at)
		SELECT id, $2 FROM work_sessions
		WHERE employee_id = $1 AND ended_at IS NULL
	`, employeeID, now)
	if err != nil {
		return fmt.Errorf("failed to insert break: %w", err)
	}

	if err = setOnline(ctx, tx, employeeID, false, now); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// EndBreak closes the open break, defines its duration and marks the employee
// online again. Rejected if the employee is not currently on a break.
func (r *Repository) EndBreak(ctx context.Context, employeeID int, now time.Time) (models.ShiftEvent, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return models.ShiftEvent{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // omitted because checking for errors will not affect the function

	snap, err := lockShiftState(ctx, tx, employeeID)
	if err != nil {
		return models.ShiftEvent{}, err
	}
	if !snap.HasOpenBreak {
		return models.ShiftEvent{}, fmt.Errorf("%w: no open break", ErrInvalidTransition)
	}

	var seconds float64
	err = tx.QueryRow(ctx, `
		UPDATE breaks
		SET ended_at = $2, duration = $2 - started_at
		WHERE id = (
			SELECT b.id FROM breaks b
			JOIN work_sessions w ON b.session_id = w.id
			WHERE w.employee_id = $1 AND w.ended_at IS NULL AND b.ended_at IS NULL
			ORDER BY b.started_at DESC
			LIMIT 1
		)
		RETURNING EXTRACT(EPOCH FROM duration)::float8
	`, employeeID, now).Scan(&seconds)
	if err != nil {
		return models.ShiftEvent{}, fmt.Errorf("failed to close break: %w", err)
	}

	if err = setOnline(ctx, tx, employeeID, true, now); err != nil {
		return models.ShiftEvent{}, err
	}

	event := models.ShiftEvent{
		OccurredAt: now,
		Duration:   time.Duration(seconds * float64(time.Second)),
	}

	return event, tx.Commit(ctx)
}

// GetShiftState derives the employee's current logical state from the stored
// session/break rows without taking locks.
func (r *Repository) GetShiftState(ctx context.Context, employeeID int) (models.ShiftSnapshot, error) {
	var snap models.ShiftSnapshot

	err := r.db.QueryRow(ctx, GetShiftSnapshotSQL, employeeID).Scan(&snap.HasOpenSession, &snap.HasOpenBreak)
	if err != nil {
		return models.ShiftSnapshot{}, fmt.Errorf("failed to get shift state: %w", err)
	}

	return snap, nil
}

// lockShiftState takes the per-employee row lock and reads the authoritative
// state inside the transaction. The lock is what makes a racing second action
// by the same employee observe the post-transition state.
func lockShiftState(ctx context.Context, tx pgx.Tx, employeeID int) (models.ShiftSnapshot, error) {
	var id int
	err := tx.QueryRow(ctx, "SELECT id FROM employees WHERE id = $1 FOR UPDATE", employeeID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ShiftSnapshot{}, ErrEmployeeNotFound
		}
		return models.ShiftSnapshot{}, fmt.Errorf("failed to lock employee row: %w", err)
	}

	var snap models.ShiftSnapshot
	err = tx.QueryRow(ctx, GetShiftSnapshotSQL, employeeID).Scan(&snap.HasOpenSession, &snap.HasOpenBreak)
	if err != nil {
		return models.ShiftSnapshot{}, fmt.Errorf("failed to read shift state: %w", err)
	}

	return snap, nil
}

// setOnline updates the denormalized online flag inside the same transaction
// as the session/break mutation, so the projection never drifts from the rows
// it is derived from.
func setOnline(ctx context.Context, tx pgx.Tx, employeeID int, isOnline bool, now time.Time) error {
	_, err := tx.Exec(ctx,
		"UPDATE online_status SET is_online = $2, updated_at = $3 WHERE employee_id = $1",
		employeeID, isOnline, now,
	)
	if err != nil {
		return fmt.Errorf("failed to update online status: %w", err)
	}

	return nil
}
