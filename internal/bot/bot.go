package bot

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/Houeta/timekeeper-bot/internal/metrics"
	"github.com/Houeta/timekeeper-bot/internal/repository"
	"github.com/Houeta/timekeeper-bot/internal/scheduler"
	"github.com/Houeta/timekeeper-bot/internal/shift"
	"gopkg.in/telebot.v4"
)

// Bot contains the bot API instance and other information.
type Bot struct {
	bot          *telebot.Bot
	log          *slog.Logger
	emrepo       repository.EmployeeManager
	strepo       repository.StatsManager
	machine      *shift.Machine
	scheduler    *scheduler.Scheduler
	metrics      *metrics.Metrics
	stateManager *StateManager
	clock        func() time.Time
}

var (
	// inline buttons for the reminders flow.
	btnAddReminder     = telebot.InlineButton{Unique: "add_reminder"}
	btnDeleteReminder  = telebot.InlineButton{Unique: "del_reminder"}
	btnConfirmDelete   = telebot.InlineButton{Unique: "confirm_delete"}
	btnCancelReminders = telebot.InlineButton{Unique: "cancel_reminders"}

	// inline buttons for the admin role flow.
	btnAdminDepartment = telebot.InlineButton{Unique: "admin_dep"}
	btnAdminDivision   = telebot.InlineButton{Unique: "admin_div"}
	btnAdminEmployee   = telebot.InlineButton{Unique: "admin_emp"}
	btnAdminConfirm    = telebot.InlineButton{Unique: "admin_confirm"}

	// inline buttons for the attendance report flow.
	btnReportFormat = telebot.InlineButton{Unique: "report_format"}
	btnCancelReport = telebot.InlineButton{Unique: "cancel_report"}
)

// NewBot creates a new bot with the given token.
func NewBot(
	log *slog.Logger,
	emrepo repository.EmployeeManager,
	strepo repository.StatsManager,
	machine *shift.Machine,
	sched *scheduler.Scheduler,
	appMetrics *metrics.Metrics,
	token string,
	poller time.Duration,
) (*Bot, error) {
	bot, err := telebot.NewBot(telebot.Settings{
		Token:  token,
		Poller: &telebot.LongPoller{Timeout: poller},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Telegram bot: %w", err)
	}
	log.Info("Authorized on account", "account", bot.Me.Username)

	botInstance := &Bot{
		bot:          bot,
		log:          log,
		emrepo:       emrepo,
		strepo:       strepo,
		machine:      machine,
		scheduler:    sched,
		metrics:      appMetrics,
		stateManager: NewStateManager(),
		clock:        time.Now,
	}

	botInstance.registerRoutes()

	return botInstance, nil
}

// Start launches the bot to listen for updates.
func (b *Bot) Start() {
	b.log.Info("Telegram bot is starting...")
	b.bot.Start()
}

// Stop gracefully stops the Telegram bot and logs the action.
func (b *Bot) Stop() {
	b.log.Info("Telegram bot is stopped...")
	b.bot.Stop()
}

// Notify delivers a plain text message to the given chat. The reminder
// scheduler uses it as its delivery channel.
func (b *Bot) Notify(chatID int64, text string) error {
	if _, err := b.bot.Send(telebot.ChatID(chatID), text); err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}

	return nil
}

// registerRoutes configures all routes (commands).
func (b *Bot) registerRoutes() {
	// Public routes.
	b.bot.Handle("/start", b.startHandler)
	b.bot.Handle("/menu", b.menuHandler)
	b.bot.Handle(telebot.OnText, b.routeTextHandler)

	// Reminder callbacks.
	b.bot.Handle(&btnAddReminder, b.addReminderHandler)
	b.bot.Handle(&btnDeleteReminder, b.deleteReminderHandler)
	b.bot.Handle(&btnConfirmDelete, b.confirmDeleteReminderHandler)
	b.bot.Handle(&btnCancelReminders, b.cancelRemindersHandler)

	// Admin role callbacks.
	b.bot.Handle(&btnAdminDepartment, b.adminDepartmentHandler)
	b.bot.Handle(&btnAdminDivision, b.adminDivisionHandler)
	b.bot.Handle(&btnAdminEmployee, b.adminEmployeeHandler)
	b.bot.Handle(&btnAdminConfirm, b.adminConfirmHandler)

	// Report callbacks.
	b.bot.Handle(&btnReportFormat, b.reportFormatHandler)
	b.bot.Handle(&btnCancelReport, b.cancelReportHandler)
}
