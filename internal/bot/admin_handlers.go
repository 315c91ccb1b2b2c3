package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Houeta/timekeeper-bot/internal/models"
	"github.com/Houeta/timekeeper-bot/internal/report"
	"github.com/Houeta/timekeeper-bot/internal/repository"
	"gopkg.in/telebot.v4"
)

// reportDateLayout is the input format of the report period conversation.
const reportDateLayout = "2006-01-02"

// Report output formats carried in callback data.
const (
	reportFormatText  = "text"
	reportFormatExcel = "excel"
)

// promoteHandler starts the grant-admin drill-down.
func (b *Bot) promoteHandler(ctx telebot.Context) error {
	b.metrics.CommandReceived.WithLabelValues(btnTextPromote).Inc()
	return b.roleChangeStart(ctx, models.RoleAdmin)
}

// demoteHandler starts the revoke-admin drill-down.
func (b *Bot) demoteHandler(ctx telebot.Context) error {
	b.metrics.CommandReceived.WithLabelValues(btnTextDemote).Inc()
	return b.roleChangeStart(ctx, models.RoleWorker)
}

// roleChangeStart shows the department pick-list, with the target role
// carried through the callback data of every step.
func (b *Bot) roleChangeStart(ctx telebot.Context, role string) error {
	timeoutCtx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	_, allowed, err := b.adminOrPrompt(timeoutCtx, ctx)
	if !allowed {
		return err
	}

	departments, err := b.emrepo.ListDepartments(timeoutCtx)
	if err != nil {
		b.log.Error("Failed to list departments", "error", err)
		return ctx.Send(msgInternalError)
	}

	markup := &telebot.ReplyMarkup{}
	rows := make([]telebot.Row, 0, len(departments))
	for _, dep := range departments {
		rows = append(rows, telebot.Row{
			markup.Data(dep.Name, btnAdminDepartment.Unique, role, strconv.Itoa(dep.ID)),
		})
	}
	markup.Inline(rows...)

	return ctx.Send("Выберите отдел сотрудника:", markup)
}

// adminDepartmentHandler shows the division pick-list of the chosen department.
func (b *Bot) adminDepartmentHandler(ctx telebot.Context) error {
	timeoutCtx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	args := ctx.Args()
	if len(args) != 2 {
		return b.malformedCallback(ctx, args)
	}
	role := args[0]
	departmentID, err := strconv.Atoi(args[1])
	if err != nil {
		return b.malformedCallback(ctx, args)
	}

	divisions, err := b.emrepo.ListDivisions(timeoutCtx, departmentID)
	if err != nil {
		b.log.Error("Failed to list divisions", "department_id", departmentID, "error", err)
		return ctx.Respond(&telebot.CallbackResponse{Text: msgInternalError})
	}

	markup := &telebot.ReplyMarkup{}
	rows := make([]telebot.Row, 0, len(divisions))
	for _, div := range divisions {
		rows = append(rows, telebot.Row{
			markup.Data(div.Name, btnAdminDivision.Unique, role, strconv.Itoa(departmentID), strconv.Itoa(div.ID)),
		})
	}
	markup.Inline(rows...)

	if err = ctx.Respond(); err != nil {
		return err
	}
	return ctx.Edit("Выберите подразделение:", markup)
}

// adminDivisionHandler shows the employees of the chosen unit.
func (b *Bot) adminDivisionHandler(ctx telebot.Context) error {
	timeoutCtx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	args := ctx.Args()
	if len(args) != 3 {
		return b.malformedCallback(ctx, args)
	}
	role := args[0]
	departmentID, depErr := strconv.Atoi(args[1])
	divisionID, divErr := strconv.Atoi(args[2])
	if depErr != nil || divErr != nil {
		return b.malformedCallback(ctx, args)
	}

	employees, err := b.emrepo.ListEmployeesByUnit(timeoutCtx, departmentID, divisionID)
	if err != nil {
		b.log.Error("Failed to list unit employees",
			"department_id", departmentID, "division_id", divisionID, "error", err)
		return ctx.Respond(&telebot.CallbackResponse{Text: msgInternalError})
	}

	if len(employees) == 0 {
		if err = ctx.Respond(); err != nil {
			return err
		}
		return ctx.Edit("В этом подразделении нет сотрудников.")
	}

	markup := &telebot.ReplyMarkup{}
	rows := make([]telebot.Row, 0, len(employees))
	for _, emp := range employees {
		rows = append(rows, telebot.Row{
			markup.Data(emp.FullName, btnAdminEmployee.Unique, role, strconv.Itoa(emp.ID)),
		})
	}
	markup.Inline(rows...)

	if err = ctx.Respond(); err != nil {
		return err
	}
	return ctx.Edit("Выберите сотрудника:", markup)
}

// adminEmployeeHandler asks for confirmation of the role change.
func (b *Bot) adminEmployeeHandler(ctx telebot.Context) error {
	args := ctx.Args()
	if len(args) != 2 {
		return b.malformedCallback(ctx, args)
	}
	role := args[0]

	question := "Назначить сотрудника администратором?"
	if role == models.RoleWorker {
		question = "Снять с сотрудника права администратора?"
	}

	markup := &telebot.ReplyMarkup{}
	markup.Inline(telebot.Row{
		markup.Data("Подтвердить", btnAdminConfirm.Unique, args...),
		markup.Data("Отмена", btnCancelReminders.Unique),
	})

	if err := ctx.Respond(); err != nil {
		return err
	}
	return ctx.Edit(question, markup)
}

// adminConfirmHandler applies the confirmed role change.
func (b *Bot) adminConfirmHandler(ctx telebot.Context) error {
	timeoutCtx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	args := ctx.Args()
	if len(args) != 2 {
		return b.malformedCallback(ctx, args)
	}
	role := args[0]
	employeeID, err := strconv.Atoi(args[1])
	if err != nil {
		return b.malformedCallback(ctx, args)
	}

	admin, allowed, err := b.adminOrPrompt(timeoutCtx, ctx)
	if !allowed {
		return err
	}

	if err = b.emrepo.SetEmployeeRole(timeoutCtx, employeeID, role); err != nil {
		if errors.Is(err, repository.ErrEmployeeNotFound) {
			if respErr := ctx.Respond(); respErr != nil {
				return respErr
			}
			return ctx.Edit("Сотрудник не найден.")
		}
		b.log.Error("Failed to change employee role", "employee", employeeID, "role", role, "error", err)
		return ctx.Respond(&telebot.CallbackResponse{Text: msgInternalError})
	}

	b.log.Info("Employee role changed", "employee", employeeID, "role", role, "by", admin.ID)

	result := "Сотрудник назначен администратором."
	if role == models.RoleWorker {
		result = "Права администратора сняты."
	}

	if err = ctx.Respond(); err != nil {
		return err
	}
	return ctx.Edit(result)
}

// reportsHandler starts the attendance report conversation.
func (b *Bot) reportsHandler(ctx telebot.Context) error {
	timeoutCtx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	b.metrics.CommandReceived.WithLabelValues(btnTextReports).Inc()

	_, allowed, err := b.adminOrPrompt(timeoutCtx, ctx)
	if !allowed {
		return err
	}

	b.stateManager.Set(ctx.Sender().ID, UserState{WaitingFor: stateAwaitingReportStart})
	return ctx.Send("Введите начальную дату периода (ГГГГ-ММ-ДД):")
}

// reportStartDateHandler parses the period start and asks for the end.
func (b *Bot) reportStartDateHandler(ctx telebot.Context, state UserState) error {
	from, err := time.ParseInLocation(reportDateLayout, ctx.Text(), time.Local)
	if err != nil {
		b.stateManager.Set(ctx.Sender().ID, state)
		return ctx.Send("Неверный формат даты. Используйте ГГГГ-ММ-ДД.")
	}

	state.ReportFrom = from
	state.WaitingFor = stateAwaitingReportEnd
	b.stateManager.Set(ctx.Sender().ID, state)

	return ctx.Send("Введите конечную дату периода (ГГГГ-ММ-ДД):")
}

// reportEndDateHandler parses the period end and asks for the output format.
func (b *Bot) reportEndDateHandler(ctx telebot.Context, state UserState) error {
	to, err := time.ParseInLocation(reportDateLayout, ctx.Text(), time.Local)
	if err != nil {
		b.stateManager.Set(ctx.Sender().ID, state)
		return ctx.Send("Неверный формат даты. Используйте ГГГГ-ММ-ДД.")
	}
	if to.Before(state.ReportFrom) {
		b.stateManager.Set(ctx.Sender().ID, state)
		return ctx.Send("Конечная дата не может быть раньше начальной. Введите конечную дату ещё раз:")
	}

	state.ReportTo = to
	state.WaitingFor = stateAwaitingReportFormat
	b.stateManager.Set(ctx.Sender().ID, state)

	markup := &telebot.ReplyMarkup{}
	markup.Inline(
		telebot.Row{
			markup.Data("Текстом", btnReportFormat.Unique, reportFormatText),
			markup.Data("Excel", btnReportFormat.Unique, reportFormatExcel),
		},
		telebot.Row{markup.Data("Отмена", btnCancelReport.Unique)},
	)

	return ctx.Send("Выберите формат отчёта:", markup)
}

// reportFormatHandler generates and delivers the report in the chosen format.
func (b *Bot) reportFormatHandler(ctx telebot.Context) error {
	timeoutCtx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	format := ctx.Data()

	state, ok := b.stateManager.Get(ctx.Sender().ID)
	if !ok || state.WaitingFor != stateAwaitingReportFormat {
		if err := ctx.Respond(); err != nil {
			return err
		}
		return ctx.Edit("Период отчёта не задан. Начните заново через меню.")
	}

	admin, allowed, err := b.adminOrPrompt(timeoutCtx, ctx)
	if !allowed {
		return err
	}

	started := time.Now()
	rows, err := b.strepo.GetAttendanceReport(
		timeoutCtx, admin.DepartmentID, admin.DivisionID, state.ReportFrom, state.ReportTo,
	)
	if err != nil {
		b.log.Error("Failed to build attendance report", "admin", admin.ID, "error", err)
		return ctx.Respond(&telebot.CallbackResponse{Text: msgInternalError})
	}

	if err = ctx.Respond(); err != nil {
		return err
	}

	switch format {
	case reportFormatText:
		b.metrics.ReportGeneration.WithLabelValues(format).Observe(time.Since(started).Seconds())
		return ctx.Send(report.GenerateTextReport(rows, state.ReportFrom, state.ReportTo))

	case reportFormatExcel:
		buffer, genErr := report.GenerateExcelReport(rows)
		if genErr != nil {
			if errors.Is(genErr, report.ErrNoRows) {
				return ctx.Send("За выбранный период данных не найдено.")
			}
			b.log.Error("Failed to render Excel report", "admin", admin.ID, "error", genErr)
			return ctx.Send(msgInternalError)
		}
		b.metrics.ReportGeneration.WithLabelValues(format).Observe(time.Since(started).Seconds())

		document := &telebot.Document{
			File:     telebot.FromReader(buffer),
			FileName: fmt.Sprintf("attendance_%s_%s.xlsx", state.ReportFrom.Format(reportDateLayout), state.ReportTo.Format(reportDateLayout)),
			MIME:     "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		}
		return ctx.Send(document)
	}

	return b.malformedCallback(ctx, []string{format})
}

// cancelReportHandler aborts the report conversation.
func (b *Bot) cancelReportHandler(ctx telebot.Context) error {
	b.stateManager.Get(ctx.Sender().ID)

	if err := ctx.Respond(); err != nil {
		return err
	}
	return ctx.Edit("Формирование отчёта отменено.")
}

func (b *Bot) malformedCallback(ctx telebot.Context, args []string) error {
	b.log.Error("Malformed callback data", "args", args)
	return ctx.Respond(&telebot.CallbackResponse{Text: msgInternalError})
}
