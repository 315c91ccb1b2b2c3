package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Houeta/timekeeper-bot/internal/repository"
	"gopkg.in/telebot.v4"
)

// Transition metric outcomes.
const (
	outcomeOK       = "ok"
	outcomeRejected = "rejected"
	outcomeError    = "error"
)

// startWorkHandler opens a work session for the sender.
func (b *Bot) startWorkHandler(ctx telebot.Context) error {
	timeoutCtx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	b.metrics.CommandReceived.WithLabelValues(btnTextStartWork).Inc()

	emp, registered, err := b.employeeOrPrompt(timeoutCtx, ctx)
	if !registered {
		return err
	}

	if _, err = b.machine.StartShift(timeoutCtx, emp.ID); err != nil {
		return b.transitionFailed(ctx, "start_shift", emp.ID, err,
			"Вы уже начали рабочий день.")
	}

	b.metrics.ShiftTransitions.WithLabelValues("start_shift", outcomeOK).Inc()
	return ctx.Send("Начало рабочего дня зафиксировано.")
}

// endWorkHandler closes the sender's open work session and reports the worked
// time together with any accrued overtime.
func (b *Bot) endWorkHandler(ctx telebot.Context) error {
	timeoutCtx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	b.metrics.CommandReceived.WithLabelValues(btnTextEndWork).Inc()

	emp, registered, err := b.employeeOrPrompt(timeoutCtx, ctx)
	if !registered {
		return err
	}

	event, err := b.machine.EndShift(timeoutCtx, emp.ID)
	if err != nil {
		return b.transitionFailed(ctx, "end_shift", emp.ID, err,
			"Рабочий день не начат или Вы ещё на перерыве.")
	}

	b.metrics.ShiftTransitions.WithLabelValues("end_shift", outcomeOK).Inc()

	msg := fmt.Sprintf("Рабочий день завершен. Отработано: %s.", formatClock(event.Duration))
	if event.Overtime > 0 {
		msg += fmt.Sprintf(" Переработка: %s.", formatClock(event.Overtime))
	}
	return ctx.Send(msg)
}

// startBreakHandler opens a break under the sender's open session.
func (b *Bot) startBreakHandler(ctx telebot.Context) error {
	timeoutCtx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	b.metrics.CommandReceived.WithLabelValues(btnTextStartBreak).Inc()

	emp, registered, err := b.employeeOrPrompt(timeoutCtx, ctx)
	if !registered {
		return err
	}

	if _, err = b.machine.StartBreak(timeoutCtx, emp.ID); err != nil {
		return b.transitionFailed(ctx, "start_break", emp.ID, err,
			"Нельзя начать перерыв: рабочий день не начат или перерыв уже идёт.")
	}

	b.metrics.ShiftTransitions.WithLabelValues("start_break", outcomeOK).Inc()
	return ctx.Send("Перерыв начат.")
}

// endBreakHandler closes the sender's open break.
func (b *Bot) endBreakHandler(ctx telebot.Context) error {
	timeoutCtx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	b.metrics.CommandReceived.WithLabelValues(btnTextEndBreak).Inc()

	emp, registered, err := b.employeeOrPrompt(timeoutCtx, ctx)
	if !registered {
		return err
	}

	event, err := b.machine.EndBreak(timeoutCtx, emp.ID)
	if err != nil {
		return b.transitionFailed(ctx, "end_break", emp.ID, err,
			"Перерыв не был начат.")
	}

	b.metrics.ShiftTransitions.WithLabelValues("end_break", outcomeOK).Inc()
	return ctx.Send(fmt.Sprintf("Перерыв завершен. Длительность: %s.", formatClock(event.Duration)))
}

// transitionFailed replies to a failed transition: validation rejections get
// the action-specific explanation, anything else a generic retry prompt.
func (b *Bot) transitionFailed(ctx telebot.Context, action string, employeeID int, err error, rejection string) error {
	if errors.Is(err, repository.ErrInvalidTransition) {
		b.metrics.ShiftTransitions.WithLabelValues(action, outcomeRejected).Inc()
		return ctx.Send(rejection)
	}

	b.metrics.ShiftTransitions.WithLabelValues(action, outcomeError).Inc()
	b.log.Error("Shift transition failed", "action", action, "employee", employeeID, "error", err)
	return ctx.Send(msgInternalError)
}

// formatClock renders a duration as "Nч MMм".
func formatClock(d time.Duration) string {
	d = d.Round(time.Minute)
	return fmt.Sprintf("%dч %02dм", int(d.Hours()), int(d.Minutes())%60)
}
