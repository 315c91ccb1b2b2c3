package repository

import (
	"context"
	"time"

	"github.com/Houeta/timekeeper-bot/internal/models"
)

type Repository struct {
	db Database
}

// EmployeeManager defines repository operations for employee registration,
// lookup, organizational structure and the online colleagues view.
type EmployeeManager interface {
	CreateEmployee(ctx context.Context, emp models.Employee) (int, error)
	GetEmployeeByTelegramID(ctx context.Context, telegramID int64) (models.Employee, error)
	ListDepartments(ctx context.Context) ([]models.Department, error)
	ListDivisions(ctx context.Context, departmentID int) ([]models.Division, error)
	ListEmployeesByUnit(ctx context.Context, departmentID, divisionID int) ([]models.UnitEmployee, error)
	SetEmployeeRole(ctx context.Context, employeeID int, role string) error
	GetOnlineColleagues(ctx context.Context, departmentID, divisionID int) ([]models.Colleague, error)
}

// ShiftManager defines the atomic shift/break transitions. Every method reads
// the current state, validates the transition and applies all affected rows
// (session/break plus online_status) in a single transaction serialized per
// employee.
type ShiftManager interface {
	StartShift(ctx context.Context, employeeID int, now time.Time) error
	EndShift(ctx context.Context, employeeID int, now time.Time) (models.ShiftEvent, error)
	StartBreak(ctx context.Context, employeeID int, now time.Time) error
	EndBreak(ctx context.Context, employeeID int, now time.Time) (models.ShiftEvent, error)
	GetShiftState(ctx context.Context, employeeID int) (models.ShiftSnapshot, error)
}

// ReminderManager defines persistence operations for one-shot reminders.
type ReminderManager interface {
	CreateReminder(ctx context.Context, employeeID int, remindAt time.Time, message string) (models.Reminder, error)
	ListReminders(ctx context.Context, employeeID int) ([]models.Reminder, error)
	DeleteReminder(ctx context.Context, reminderID, employeeID int) error
	ListPendingReminders(ctx context.Context) ([]models.PendingReminder, error)
}

// StatsManager defines read-only attendance statistics and report queries.
type StatsManager interface {
	GetWorkStats(ctx context.Context, employeeID int, now time.Time) (models.WorkStats, error)
	GetAttendanceReport(
		ctx context.Context,
		departmentID, divisionID int,
		from, to time.Time,
	) ([]models.AttendanceRow, error)
}

// NewRepository creates a new instance of Repository with the provided Database.
// It returns a pointer to the newly created Repository.
func NewRepository(db Database) *Repository {
	return &Repository{db: db}
}
