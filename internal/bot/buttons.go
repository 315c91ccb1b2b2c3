package bot

import (
	"gopkg.in/telebot.v4"
)

// Main menu button captions. routeTextHandler dispatches on them.
const (
	btnTextStartWork  = "Начал"
	btnTextEndWork    = "Закончил"
	btnTextStartBreak = "Отошел"
	btnTextEndBreak   = "Вернулся"
	btnTextColleagues = "Коллеги"
	btnTextStatistic  = "Статистика"
	btnTextReminders  = "Напоминания"
	btnTextPromote    = "Дать админ"
	btnTextDemote     = "Удалить"
	btnTextReports    = "Отчёты"
)

// buildMainMenu creates the main reply keyboard. Admins get extra rows for
// role management and reports.
func (b *Bot) buildMainMenu(isAdmin bool) *telebot.ReplyMarkup {
	menu := &telebot.ReplyMarkup{ResizeKeyboard: true}

	rows := []telebot.Row{
		menu.Row(menu.Text(btnTextStartWork), menu.Text(btnTextEndWork)),
		menu.Row(menu.Text(btnTextStartBreak), menu.Text(btnTextEndBreak)),
		menu.Row(menu.Text(btnTextColleagues), menu.Text(btnTextStatistic)),
		menu.Row(menu.Text(btnTextReminders)),
	}

	if isAdmin {
		rows = append(rows,
			menu.Row(menu.Text(btnTextPromote), menu.Text(btnTextDemote)),
			menu.Row(menu.Text(btnTextReports)),
		)
	}

	menu.Reply(rows...)

	return menu
}

// buildNamesMenu creates a one-column reply keyboard from the given captions,
// used by the registration department/division steps.
func buildNamesMenu(names []string) *telebot.ReplyMarkup {
	menu := &telebot.ReplyMarkup{ResizeKeyboard: true}

	rows := make([]telebot.Row, 0, len(names))
	for _, name := range names {
		rows = append(rows, menu.Row(menu.Text(name)))
	}
	menu.Reply(rows...)

	return menu
}
