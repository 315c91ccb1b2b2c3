// Package scheduler delivers one-shot reminder notifications at their
// wall-clock deadlines. Timers live only in the running process; the stored
// reminders table is the durable source, swept on startup via Restore.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Houeta/timekeeper-bot/internal/metrics"
	"github.com/Houeta/timekeeper-bot/internal/models"
	"github.com/Houeta/timekeeper-bot/internal/repository"
)

// ErrPastDeadline is returned when the requested fire time is not strictly in the future.
var ErrPastDeadline = errors.New("reminder time is in the past")

// storeTimeout bounds the store calls made from a firing timer.
const storeTimeout = 3 * time.Second

// retryDelay is the backoff before the single retry of a transient store failure.
const retryDelay = 200 * time.Millisecond

// Notifier delivers a reminder text to the employee's chat.
type Notifier interface {
	Notify(chatID int64, text string) error
}

// Scheduler keeps exactly one pending timer per live reminder, keyed by the
// reminder's ID. Timers are independent per employee and never contend with
// shift transitions.
type Scheduler struct {
	log     *slog.Logger
	store   repository.ReminderManager
	metrics *metrics.Metrics
	clock   func() time.Time

	mu       sync.Mutex
	notifier Notifier
	timers   map[int]*time.Timer
}

// New creates a Scheduler over the given reminder store. A Notifier must be
// attached via SetNotifier before Restore or Create are used.
func New(log *slog.Logger, store repository.ReminderManager, appMetrics *metrics.Metrics) *Scheduler {
	return &Scheduler{
		log:     log,
		store:   store,
		metrics: appMetrics,
		clock:   time.Now,
		timers:  make(map[int]*time.Timer),
	}
}

// SetNotifier attaches the delivery channel. The bot is constructed after the
// scheduler (handlers need it), so the channel is wired afterwards.
func (s *Scheduler) SetNotifier(n Notifier) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.notifier = n
}

// Create validates and persists a reminder, then schedules its one-shot timer.
// A fire time that is not strictly in the future is rejected with ErrPastDeadline.
func (s *Scheduler) Create(
	ctx context.Context,
	employeeID int,
	chatID int64,
	remindAt time.Time,
	message string,
) (models.Reminder, error) {
	if !remindAt.After(s.clock()) {
		return models.Reminder{}, ErrPastDeadline
	}

	var reminder models.Reminder
	err := s.withRetry(ctx, "create reminder", func() error {
		var opErr error
		reminder, opErr = s.store.CreateReminder(ctx, employeeID, remindAt, message)
		return opErr
	})
	if err != nil {
		return models.Reminder{}, fmt.Errorf("failed to store reminder: %w", err)
	}

	s.schedule(models.PendingReminder{Reminder: reminder, ChatID: chatID})
	s.metrics.RemindersScheduled.Inc()
	s.log.InfoContext(ctx, "Reminder scheduled",
		"reminder", reminder.ID, "employee", employeeID, "remind_at", remindAt)

	return reminder, nil
}

// List returns the employee's live reminders ordered by fire time.
func (s *Scheduler) List(ctx context.Context, employeeID int) ([]models.Reminder, error) {
	var reminders []models.Reminder
	err := s.withRetry(ctx, "list reminders", func() error {
		var opErr error
		reminders, opErr = s.store.ListReminders(ctx, employeeID)
		return opErr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list reminders: %w", err)
	}

	return reminders, nil
}

// Delete removes the stored reminder and cancels its timer if still pending.
// An already fired or unknown reminder yields repository.ErrReminderNotFound.
// A timer that is already in its firing step may still deliver once.
func (s *Scheduler) Delete(ctx context.Context, reminderID, employeeID int) error {
	err := s.withRetry(ctx, "delete reminder", func() error {
		return s.store.DeleteReminder(ctx, reminderID, employeeID)
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	if timer, ok := s.timers[reminderID]; ok {
		timer.Stop()
		delete(s.timers, reminderID)
	}
	s.mu.Unlock()

	s.log.InfoContext(ctx, "Reminder deleted", "reminder", reminderID, "employee", employeeID)
	return nil
}

// Restore sweeps the stored reminders after a restart: future ones are
// rescheduled, past-due ones fire immediately.
func (s *Scheduler) Restore(ctx context.Context) error {
	pending, err := s.store.ListPendingReminders(ctx)
	if err != nil {
		return fmt.Errorf("failed to load pending reminders: %w", err)
	}

	for _, reminder := range pending {
		s.schedule(reminder)
	}

	s.log.InfoContext(ctx, "Reminder schedule restored", "count", len(pending))
	return nil
}

// Stop cancels all pending timers. Stored reminders survive for the next Restore.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, timer := range s.timers {
		timer.Stop()
		delete(s.timers, id)
	}
}

// withRetry runs the store operation and retries once with backoff when it
// failed transiently. A missing reminder is an expected condition and is
// returned as-is.
func (s *Scheduler) withRetry(ctx context.Context, op string, fn func() error) error {
	err := fn()
	if err == nil || errors.Is(err, repository.ErrReminderNotFound) {
		return err
	}

	s.log.WarnContext(ctx, "Transient store failure, retrying", "op", op, "error", err)

	select {
	case <-time.After(retryDelay):
	case <-ctx.Done():
		return fmt.Errorf("%s canceled: %w", op, ctx.Err())
	}

	if err = fn(); err != nil {
		return fmt.Errorf("failed to %s after retry: %w", op, err)
	}

	return nil
}

// schedule registers the one-shot timer for a reminder. A past-due fire time
// yields an immediate fire.
func (s *Scheduler) schedule(reminder models.PendingReminder) {
	delay := reminder.RemindAt.Sub(s.clock())
	if delay < 0 {
		delay = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.timers[reminder.ID] = time.AfterFunc(delay, func() {
		s.fire(reminder)
	})
}

// fire runs in the timer goroutine. The stored row is removed before
// delivery, so a concurrent explicit delete suppresses the notification and
// the startup sweep never re-fires it.
func (s *Scheduler) fire(reminder models.PendingReminder) {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	s.mu.Lock()
	delete(s.timers, reminder.ID)
	notifier := s.notifier
	s.mu.Unlock()

	if err := s.store.DeleteReminder(ctx, reminder.ID, reminder.EmployeeID); err != nil {
		if errors.Is(err, repository.ErrReminderNotFound) {
			// Deleted by the employee while the timer was firing.
			return
		}
		s.log.ErrorContext(ctx, "Failed to retire fired reminder", "reminder", reminder.ID, "error", err)
		return
	}

	if notifier == nil {
		s.log.ErrorContext(ctx, "No notifier attached, reminder dropped", "reminder", reminder.ID)
		return
	}

	if err := notifier.Notify(reminder.ChatID, "Напоминание: "+reminder.Message); err != nil {
		s.log.WarnContext(ctx, "Failed to deliver reminder", "reminder", reminder.ID, "error", err)
		return
	}

	s.metrics.RemindersFired.Inc()
	s.log.InfoContext(ctx, "Reminder delivered", "reminder", reminder.ID, "employee", reminder.EmployeeID)
}
