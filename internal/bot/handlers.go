package bot

import (
	"context"
	"errors"
	"time"

	"github.com/Houeta/timekeeper-bot/internal/models"
	"github.com/Houeta/timekeeper-bot/internal/repository"
	"gopkg.in/telebot.v4"
)

// defaultTimeout bounds every store call made from a handler.
const defaultTimeout = 3 * time.Second

const (
	// registration conversation states.
	stateAwaitingLastName   = "awaiting_last_name"
	stateAwaitingFirstName  = "awaiting_first_name"
	stateAwaitingPatronymic = "awaiting_patronymic"
	stateAwaitingDepartment = "awaiting_department"
	stateAwaitingDivision   = "awaiting_division"

	// reminder conversation states.
	stateAwaitingReminderText = "awaiting_reminder_text"
	stateAwaitingReminderTime = "awaiting_reminder_time"

	// report conversation states.
	stateAwaitingReportStart  = "awaiting_report_start"
	stateAwaitingReportEnd    = "awaiting_report_end"
	stateAwaitingReportFormat = "awaiting_report_format"
)

const (
	msgInternalError = "🚫 Не получилось выполнить действие, попробуйте ещё раз позже."
	msgNotRegistered = "Сначала зарегистрируйтесь через /start."
	msgNoAdminRight  = "У вас нет прав администратора."
	msgUnknown       = "Извините, я не понимаю команду. Используйте /start, чтобы зарегистрироваться, или кнопку меню."
)

// startHandler processes command /start: registered users get the main menu,
// new users enter the registration conversation.
func (b *Bot) startHandler(ctx telebot.Context) error {
	timeoutCtx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	userID := ctx.Sender().ID
	b.log.Info("User started the bot", "id", userID, "username", ctx.Sender().Username)
	b.metrics.CommandReceived.WithLabelValues("/start").Inc()

	emp, err := b.emrepo.GetEmployeeByTelegramID(timeoutCtx, userID)
	if err == nil {
		return ctx.Send("Вы уже зарегистрированы. Выберите действие:", b.buildMainMenu(emp.IsAdmin()))
	}
	if !errors.Is(err, repository.ErrEmployeeNotFound) {
		b.log.Error("Failed to look up employee", "id", userID, "error", err)
		return ctx.Send(msgInternalError)
	}

	b.stateManager.Set(userID, UserState{WaitingFor: stateAwaitingLastName})
	return ctx.Send("Добро пожаловать! Пожалуйста, введите Вашу фамилию:")
}

// menuHandler re-sends the main menu for the registered sender.
func (b *Bot) menuHandler(ctx telebot.Context) error {
	timeoutCtx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	b.metrics.CommandReceived.WithLabelValues("/menu").Inc()

	emp, registered, err := b.employeeOrPrompt(timeoutCtx, ctx)
	if !registered {
		return err
	}

	return ctx.Send("Выберите действие:", b.buildMainMenu(emp.IsAdmin()))
}

// routeTextHandler processes incoming text messages: a pending conversation
// state wins over menu buttons, anything else is rejected as unknown.
func (b *Bot) routeTextHandler(ctx telebot.Context) error {
	userID := ctx.Sender().ID

	if state, ok := b.stateManager.Get(userID); ok {
		switch state.WaitingFor {
		case stateAwaitingLastName, stateAwaitingFirstName, stateAwaitingPatronymic,
			stateAwaitingDepartment, stateAwaitingDivision:
			return b.registrationStepHandler(ctx, state)
		case stateAwaitingReminderText:
			return b.reminderTextHandler(ctx, state)
		case stateAwaitingReminderTime:
			return b.reminderTimeHandler(ctx, state)
		case stateAwaitingReportStart:
			return b.reportStartDateHandler(ctx, state)
		case stateAwaitingReportEnd:
			return b.reportEndDateHandler(ctx, state)
		}
	}

	switch ctx.Text() {
	case btnTextStartWork:
		return b.startWorkHandler(ctx)
	case btnTextEndWork:
		return b.endWorkHandler(ctx)
	case btnTextStartBreak:
		return b.startBreakHandler(ctx)
	case btnTextEndBreak:
		return b.endBreakHandler(ctx)
	case btnTextColleagues:
		return b.colleaguesHandler(ctx)
	case btnTextStatistic:
		return b.statisticHandler(ctx)
	case btnTextReminders:
		return b.remindersHandler(ctx)
	case btnTextPromote:
		return b.promoteHandler(ctx)
	case btnTextDemote:
		return b.demoteHandler(ctx)
	case btnTextReports:
		return b.reportsHandler(ctx)
	}

	return ctx.Reply(msgUnknown)
}

// employeeOrPrompt fetches the sender's employee record. When the sender is
// not registered, it replies with the registration prompt and reports false.
func (b *Bot) employeeOrPrompt(ctx context.Context, tCtx telebot.Context) (models.Employee, bool, error) {
	userID := tCtx.Sender().ID

	emp, err := b.emrepo.GetEmployeeByTelegramID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrEmployeeNotFound) {
			return models.Employee{}, false, tCtx.Send(msgNotRegistered)
		}
		b.log.ErrorContext(ctx, "Failed to look up employee", "id", userID, "error", err)
		return models.Employee{}, false, tCtx.Send(msgInternalError)
	}

	return emp, true, nil
}

// adminOrPrompt is employeeOrPrompt plus the admin role check.
func (b *Bot) adminOrPrompt(ctx context.Context, tCtx telebot.Context) (models.Employee, bool, error) {
	emp, registered, err := b.employeeOrPrompt(ctx, tCtx)
	if !registered {
		return models.Employee{}, false, err
	}

	if !emp.IsAdmin() {
		b.log.InfoContext(ctx, "Non-admin attempted admin action", "id", tCtx.Sender().ID)
		return models.Employee{}, false, tCtx.Send(msgNoAdminRight)
	}

	return emp, true, nil
}
