package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Houeta/timekeeper-bot/internal/models"
)

// ErrReminderNotFound is returned when the reminder does not exist, already
// fired or belongs to another employee.
var ErrReminderNotFound = errors.New("reminder not found")

// CreateReminder persists a new reminder and returns the stored record.
func (r *Repository) CreateReminder(
	ctx context.Context,
	employeeID int,
	remindAt time.Time,
	message string,
) (models.Reminder, error) {
	reminder := models.Reminder{EmployeeID: employeeID, RemindAt: remindAt, Message: message}

	err := r.db.QueryRow(ctx, `
		INSERT INTO reminders (employee_id, remind_at, message)
		VALUES ($1, $2, $3)
		RETURNING id
	`, employeeID, remindAt, message).Scan(&reminder.ID)
	if err != nil {
		return models.Reminder{}, fmt.Errorf("failed to insert reminder: %w", err)
	}

	return reminder, nil
}

// ListReminders returns all live reminders of the employee ordered by fire
// time ascending.
func (r *Repository) ListReminders(ctx context.Context, employeeID int) ([]models.Reminder, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, employee_id, remind_at, message
		FROM reminders
		WHERE employee_id = $1
		ORDER BY remind_at ASC
	`, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query reminders: %w", err)
	}
	defer rows.Close()

	var reminders []models.Reminder
	for rows.Next() {
		var rem models.Reminder
		if errScan := rows.Scan(&rem.ID, &rem.EmployeeID, &rem.RemindAt, &rem.Message); errScan != nil {
			return nil, fmt.Errorf("failed to scan reminder row: %w", errScan)
		}
		reminders = append(reminders, rem)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	return reminders, nil
}

// DeleteReminder removes the employee's reminder. Deleting an unknown,
// already fired or foreign reminder yields ErrReminderNotFound.
func (r *Repository) DeleteReminder(ctx context.Context, reminderID, employeeID int) error {
	cmdTag, err := r.db.Exec(ctx,
		"DELETE FROM reminders WHERE id = $1 AND employee_id = $2", reminderID, employeeID)
	if err != nil {
		return fmt.Errorf("failed to delete reminder %d: %w", reminderID, err)
	}

	if cmdTag.RowsAffected() == 0 {
		return ErrReminderNotFound
	}

	return nil
}

// ListPendingReminders returns every stored reminder joined with the owner's
// Telegram chat ID. The startup recovery sweep reschedules these; rows whose
// fire time has already passed are delivered immediately by the scheduler.
func (r *Repository) ListPendingReminders(ctx context.Context) ([]models.PendingReminder, error) {
	rows, err := r.db.Query(ctx, `
		SELECT r.id, r.employee_id, e.telegram_id, r.remind_at, r.message
		FROM reminders r
		JOIN employees e ON r.employee_id = e.id
		ORDER BY r.remind_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending reminders: %w", err)
	}
	defer rows.Close()

	var pending []models.PendingReminder
	for rows.Next() {
		var rem models.PendingReminder
		if errScan := rows.Scan(&rem.ID, &rem.EmployeeID, &rem.ChatID, &rem.RemindAt, &rem.Message); errScan != nil {
			return nil, fmt.Errorf("failed to scan pending reminder row: %w", errScan)
		}
		pending = append(pending, rem)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	return pending, nil
}
