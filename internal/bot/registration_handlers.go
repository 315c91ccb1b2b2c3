package bot

import (
	"context"
	"strings"

	"github.com/Houeta/timekeeper-bot/internal/models"
	"gopkg.in/telebot.v4"
)

// registrationStepHandler advances the registration conversation by one step.
// The state tells which input the previous step asked for.
func (b *Bot) registrationStepHandler(ctx telebot.Context, state UserState) error {
	switch state.WaitingFor {
	case stateAwaitingLastName:
		return b.lastNameStep(ctx, state)
	case stateAwaitingFirstName:
		return b.firstNameStep(ctx, state)
	case stateAwaitingPatronymic:
		return b.patronymicStep(ctx, state)
	case stateAwaitingDepartment:
		return b.departmentStep(ctx, state)
	case stateAwaitingDivision:
		return b.divisionStep(ctx, state)
	}

	return ctx.Reply(msgUnknown)
}

func (b *Bot) lastNameStep(ctx telebot.Context, state UserState) error {
	lastName := strings.TrimSpace(ctx.Text())
	if lastName == "" {
		b.stateManager.Set(ctx.Sender().ID, state)
		return ctx.Send("Фамилия не может быть пустой. Пожалуйста, введите Вашу фамилию:")
	}

	state.LastName = lastName
	state.WaitingFor = stateAwaitingFirstName
	b.stateManager.Set(ctx.Sender().ID, state)

	return ctx.Send("Введите Ваше имя:")
}

func (b *Bot) firstNameStep(ctx telebot.Context, state UserState) error {
	firstName := strings.TrimSpace(ctx.Text())
	if firstName == "" {
		b.stateManager.Set(ctx.Sender().ID, state)
		return ctx.Send("Имя не может быть пустым. Пожалуйста, введите Ваше имя:")
	}

	state.FirstName = firstName
	state.WaitingFor = stateAwaitingPatronymic
	b.stateManager.Set(ctx.Sender().ID, state)

	return ctx.Send("Введите Ваше отчество (или «-», если его нет):")
}

func (b *Bot) patronymicStep(ctx telebot.Context, state UserState) error {
	timeoutCtx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	patronymic := strings.TrimSpace(ctx.Text())
	if patronymic == "" {
		patronymic = "-"
	}
	state.Patronymic = patronymic

	departments, err := b.emrepo.ListDepartments(timeoutCtx)
	if err != nil {
		b.log.Error("Failed to list departments", "error", err)
		return ctx.Send(msgInternalError)
	}

	names := make([]string, 0, len(departments))
	for _, dep := range departments {
		names = append(names, dep.Name)
	}

	state.WaitingFor = stateAwaitingDepartment
	b.stateManager.Set(ctx.Sender().ID, state)

	return ctx.Send("Выберите Ваш отдел:", buildNamesMenu(names))
}

func (b *Bot) departmentStep(ctx telebot.Context, state UserState) error {
	timeoutCtx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	departments, err := b.emrepo.ListDepartments(timeoutCtx)
	if err != nil {
		b.log.Error("Failed to list departments", "error", err)
		return ctx.Send(msgInternalError)
	}

	var chosen *models.Department
	for i, dep := range departments {
		if dep.Name == ctx.Text() {
			chosen = &departments[i]
			break
		}
	}
	if chosen == nil {
		b.stateManager.Set(ctx.Sender().ID, state)
		return ctx.Send("Пожалуйста, выберите отдел кнопкой на клавиатуре.")
	}

	divisions, err := b.emrepo.ListDivisions(timeoutCtx, chosen.ID)
	if err != nil {
		b.log.Error("Failed to list divisions", "department_id", chosen.ID, "error", err)
		return ctx.Send(msgInternalError)
	}

	names := make([]string, 0, len(divisions))
	for _, div := range divisions {
		names = append(names, div.Name)
	}

	state.DepartmentID = chosen.ID
	state.WaitingFor = stateAwaitingDivision
	b.stateManager.Set(ctx.Sender().ID, state)

	return ctx.Send("Выберите Ваше подразделение:", buildNamesMenu(names))
}

func (b *Bot) divisionStep(ctx telebot.Context, state UserState) error {
	timeoutCtx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	divisions, err := b.emrepo.ListDivisions(timeoutCtx, state.DepartmentID)
	if err != nil {
		b.log.Error("Failed to list divisions", "department_id", state.DepartmentID, "error", err)
		return ctx.Send(msgInternalError)
	}

	var chosen *models.Division
	for i, div := range divisions {
		if div.Name == ctx.Text() {
			chosen = &divisions[i]
			break
		}
	}
	if chosen == nil {
		b.stateManager.Set(ctx.Sender().ID, state)
		return ctx.Send("Пожалуйста, выберите подразделение кнопкой на клавиатуре.")
	}

	emp := models.Employee{
		TelegramID:   ctx.Sender().ID,
		LastName:     state.LastName,
		FirstName:    state.FirstName,
		Patronymic:   state.Patronymic,
		DepartmentID: state.DepartmentID,
		DivisionID:   chosen.ID,
		Role:         models.RoleWorker,
	}

	if _, err = b.emrepo.CreateEmployee(timeoutCtx, emp); err != nil {
		b.log.Error("Failed to create employee", "telegram_id", emp.TelegramID, "error", err)
		return ctx.Send(msgInternalError)
	}

	b.metrics.NewUsers.Inc()
	b.log.Info("Registered new employee",
		"telegram_id", emp.TelegramID,
		"department_id", emp.DepartmentID,
		"division_id", chosen.ID,
	)

	return ctx.Send("Регистрация завершена! Выберите действие:", b.buildMainMenu(false))
}
