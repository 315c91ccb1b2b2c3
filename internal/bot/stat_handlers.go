package bot

import (
	"context"
	"fmt"
	"strings"

	"gopkg.in/telebot.v4"
)

// colleaguesHandler lists the sender's unit colleagues who are online right now.
func (b *Bot) colleaguesHandler(ctx telebot.Context) error {
	timeoutCtx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	b.metrics.CommandReceived.WithLabelValues(btnTextColleagues).Inc()

	emp, registered, err := b.employeeOrPrompt(timeoutCtx, ctx)
	if !registered {
		return err
	}

	colleagues, err := b.emrepo.GetOnlineColleagues(timeoutCtx, emp.DepartmentID, emp.DivisionID)
	if err != nil {
		b.log.Error("Failed to list online colleagues", "employee", emp.ID, "error", err)
		return ctx.Send(msgInternalError)
	}

	if len(colleagues) == 0 {
		return ctx.Send("Сейчас никто из ваших коллег не в сети.")
	}

	var sb strings.Builder
	sb.WriteString("Коллеги в сети:\n")
	for _, col := range colleagues {
		sb.WriteString(fmt.Sprintf("- %s %s\n", col.LastName, col.FirstName))
	}

	return ctx.Send(sb.String())
}

// statisticHandler shows the sender's personal worked-time figures.
func (b *Bot) statisticHandler(ctx telebot.Context) error {
	timeoutCtx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	b.metrics.CommandReceived.WithLabelValues(btnTextStatistic).Inc()

	emp, registered, err := b.employeeOrPrompt(timeoutCtx, ctx)
	if !registered {
		return err
	}

	stats, err := b.strepo.GetWorkStats(timeoutCtx, emp.ID, b.clock())
	if err != nil {
		b.log.Error("Failed to read work stats", "employee", emp.ID, "error", err)
		return ctx.Send(msgInternalError)
	}

	msg := fmt.Sprintf(
		"Отработано сегодня: %s\nСреднее время работы за неделю: %s\nСреднее время работы за месяц: %s",
		formatClock(stats.Today),
		formatClock(stats.WeekAverage),
		formatClock(stats.MonthAverage),
	)

	return ctx.Send(msg)
}
