package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Houeta/timekeeper-bot/internal/repository"
	"github.com/Houeta/timekeeper-bot/internal/scheduler"
	"gopkg.in/telebot.v4"
)

// reminderTimeLayout is the input format the reminder conversation expects.
const reminderTimeLayout = "2006-01-02 15:04"

// remindersHandler shows the sender's live reminders with the management keyboard.
func (b *Bot) remindersHandler(ctx telebot.Context) error {
	timeoutCtx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	b.metrics.CommandReceived.WithLabelValues(btnTextReminders).Inc()

	emp, registered, err := b.employeeOrPrompt(timeoutCtx, ctx)
	if !registered {
		return err
	}

	reminders, err := b.scheduler.List(timeoutCtx, emp.ID)
	if err != nil {
		b.log.Error("Failed to list reminders", "employee", emp.ID, "error", err)
		return ctx.Send(msgInternalError)
	}

	markup := &telebot.ReplyMarkup{}
	rows := []telebot.Row{
		{markup.Data("Добавить напоминание", btnAddReminder.Unique)},
	}

	text := "У вас нет активных напоминаний."
	if len(reminders) > 0 {
		text = "Ваши напоминания:\n"
		for i, rem := range reminders {
			text += fmt.Sprintf("%d. %s — %s\n", i+1, rem.RemindAt.Format(reminderTimeLayout), rem.Message)
			rows = append(rows, telebot.Row{
				markup.Data(fmt.Sprintf("Удалить %d", i+1), btnDeleteReminder.Unique, strconv.Itoa(rem.ID)),
			})
		}
	}

	rows = append(rows, telebot.Row{markup.Data("Назад", btnCancelReminders.Unique)})
	markup.Inline(rows...)

	return ctx.Send(text, markup)
}

// addReminderHandler starts the add-reminder conversation.
func (b *Bot) addReminderHandler(ctx telebot.Context) error {
	b.stateManager.Set(ctx.Sender().ID, UserState{WaitingFor: stateAwaitingReminderText})

	if err := ctx.Respond(); err != nil {
		return err
	}
	return ctx.Send("Введите текст напоминания:")
}

// reminderTextHandler stores the reminder text and asks for the fire time.
func (b *Bot) reminderTextHandler(ctx telebot.Context, state UserState) error {
	state.ReminderMessage = ctx.Text()
	state.WaitingFor = stateAwaitingReminderTime
	b.stateManager.Set(ctx.Sender().ID, state)

	return ctx.Send("Введите дату и время в формате ГГГГ-ММ-ДД ЧЧ:ММ (например, 2026-09-01 18:30):")
}

// reminderTimeHandler parses the fire time and creates the reminder.
func (b *Bot) reminderTimeHandler(ctx telebot.Context, state UserState) error {
	timeoutCtx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	remindAt, err := time.ParseInLocation(reminderTimeLayout, ctx.Text(), time.Local)
	if err != nil {
		b.stateManager.Set(ctx.Sender().ID, state)
		return ctx.Send("Неверный формат даты. Используйте ГГГГ-ММ-ДД ЧЧ:ММ.")
	}

	emp, registered, err := b.employeeOrPrompt(timeoutCtx, ctx)
	if !registered {
		return err
	}

	_, err = b.scheduler.Create(timeoutCtx, emp.ID, ctx.Sender().ID, remindAt, state.ReminderMessage)
	if err != nil {
		if errors.Is(err, scheduler.ErrPastDeadline) {
			b.stateManager.Set(ctx.Sender().ID, state)
			return ctx.Send("Вы указали прошлую дату. Напоминание должно быть в будущем.")
		}
		b.log.Error("Failed to create reminder", "employee", emp.ID, "error", err)
		return ctx.Send(msgInternalError)
	}

	return ctx.Send(fmt.Sprintf("Напоминание создано на %s.", remindAt.Format(reminderTimeLayout)))
}

// deleteReminderHandler asks for confirmation before removing a reminder.
func (b *Bot) deleteReminderHandler(ctx telebot.Context) error {
	reminderID := ctx.Data()

	markup := &telebot.ReplyMarkup{}
	markup.Inline(telebot.Row{
		markup.Data("Да, удалить", btnConfirmDelete.Unique, reminderID),
		markup.Data("Отмена", btnCancelReminders.Unique),
	})

	if err := ctx.Respond(); err != nil {
		return err
	}
	return ctx.Edit("Удалить это напоминание?", markup)
}

// confirmDeleteReminderHandler removes the reminder and cancels its timer.
func (b *Bot) confirmDeleteReminderHandler(ctx telebot.Context) error {
	timeoutCtx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	reminderID, err := strconv.Atoi(ctx.Data())
	if err != nil {
		b.log.Error("Malformed reminder callback data", "data", ctx.Data(), "error", err)
		return ctx.Respond(&telebot.CallbackResponse{Text: msgInternalError})
	}

	emp, registered, err := b.employeeOrPrompt(timeoutCtx, ctx)
	if !registered {
		return err
	}

	if err = b.scheduler.Delete(timeoutCtx, reminderID, emp.ID); err != nil {
		if errors.Is(err, repository.ErrReminderNotFound) {
			if respErr := ctx.Respond(); respErr != nil {
				return respErr
			}
			return ctx.Edit("Напоминание уже удалено или сработало.")
		}
		b.log.Error("Failed to delete reminder", "reminder", reminderID, "employee", emp.ID, "error", err)
		return ctx.Respond(&telebot.CallbackResponse{Text: msgInternalError})
	}

	if err = ctx.Respond(); err != nil {
		return err
	}
	return ctx.Edit("Напоминание удалено.")
}

// cancelRemindersHandler closes the reminder keyboard.
func (b *Bot) cancelRemindersHandler(ctx telebot.Context) error {
	if err := ctx.Respond(); err != nil {
		return err
	}
	return ctx.Edit("Действие отменено.")
}
