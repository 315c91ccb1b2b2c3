// Package shift exposes the employee shift/break state machine. The logical
// state is derived from stored session and break rows; every transition is
// validated against a fresh read and applied atomically by the store.
package shift

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Houeta/timekeeper-bot/internal/models"
	"github.com/Houeta/timekeeper-bot/internal/repository"
)

// State is the employee's logical shift state.
type State int

const (
	// StateIdle means no open work session exists.
	StateIdle State = iota
	// StateWorking means an open session exists and no open break.
	StateWorking
	// StateOnBreak means both an open session and an open break exist.
	StateOnBreak
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateWorking:
		return "working"
	case StateOnBreak:
		return "on break"
	default:
		return "idle"
	}
}

// retryDelay is the backoff before the single retry of a transient store failure.
const retryDelay = 200 * time.Millisecond

// Machine drives the shift transitions against the attendance store.
// Transient store failures are retried once; validation rejections are not.
type Machine struct {
	store repository.ShiftManager
	log   *slog.Logger
	clock func() time.Time
}

// NewMachine creates a shift state machine on top of the given store.
func NewMachine(log *slog.Logger, store repository.ShiftManager) *Machine {
	return &Machine{store: store, log: log, clock: time.Now}
}

// StartShift opens a new work session. Legal only from the idle state.
func (m *Machine) StartShift(ctx context.Context, employeeID int) (models.ShiftEvent, error) {
	now := m.clock()
	err := m.withRetry(ctx, "start shift", employeeID, func() error {
		return m.store.StartShift(ctx, employeeID, now)
	})
	if err != nil {
		return models.ShiftEvent{}, err
	}

	return models.ShiftEvent{OccurredAt: now}, nil
}

// EndShift closes the open work session. Legal only from the working state;
// an open break must be ended first.
func (m *Machine) EndShift(ctx context.Context, employeeID int) (models.ShiftEvent, error) {
	now := m.clock()
	var event models.ShiftEvent
	err := m.withRetry(ctx, "end shift", employeeID, func() error {
		var opErr error
		event, opErr = m.store.EndShift(ctx, employeeID, now)
		return opErr
	})
	if err != nil {
		return models.ShiftEvent{}, err
	}

	return event, nil
}

// StartBreak opens a break under the current session. Legal only while working.
func (m *Machine) StartBreak(ctx context.Context, employeeID int) (models.ShiftEvent, error) {
	now := m.clock()
	err := m.withRetry(ctx, "start break", employeeID, func() error {
		return m.store.StartBreak(ctx, employeeID, now)
	})
	if err != nil {
		return models.ShiftEvent{}, err
	}

	return models.ShiftEvent{OccurredAt: now}, nil
}

// EndBreak closes the open break. Legal only while on a break.
func (m *Machine) EndBreak(ctx context.Context, employeeID int) (models.ShiftEvent, error) {
	now := m.clock()
	var event models.ShiftEvent
	err := m.withRetry(ctx, "end break", employeeID, func() error {
		var opErr error
		event, opErr = m.store.EndBreak(ctx, employeeID, now)
		return opErr
	})
	if err != nil {
		return models.ShiftEvent{}, err
	}

	return event, nil
}

// CurrentState derives the employee's logical state from a single
// authoritative read.
func (m *Machine) CurrentState(ctx context.Context, employeeID int) (State, error) {
	snap, err := m.store.GetShiftState(ctx, employeeID)
	if err != nil {
		return StateIdle, fmt.Errorf("failed to read shift state: %w", err)
	}

	return stateOf(snap), nil
}

// withRetry runs the transition and retries once with backoff when the store
// failed transiently. Validation rejections and unknown-employee errors are
// final and returned as-is.
func (m *Machine) withRetry(ctx context.Context, action string, employeeID int, op func() error) error {
	err := op()
	if err == nil || isFinal(err) {
		return err
	}

	m.log.WarnContext(ctx, "Transient store failure, retrying",
		"action", action, "employee", employeeID, "error", err)

	select {
	case <-time.After(retryDelay):
	case <-ctx.Done():
		return fmt.Errorf("%s canceled: %w", action, ctx.Err())
	}

	if err = op(); err != nil {
		return fmt.Errorf("failed to %s after retry: %w", action, err)
	}

	return nil
}

func isFinal(err error) bool {
	return errors.Is(err, repository.ErrInvalidTransition) || errors.Is(err, repository.ErrEmployeeNotFound)
}

func stateOf(snap models.ShiftSnapshot) State {
	switch {
	case snap.HasOpenSession && snap.HasOpenBreak:
		return StateOnBreak
	case snap.HasOpenSession:
		return StateWorking
	default:
		return StateIdle
	}
}
