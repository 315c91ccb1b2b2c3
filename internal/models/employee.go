package models

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// Employee roles. Role is mutated only by an admin action.
const (
	RoleWorker = "worker"
	RoleAdmin  = "admin"
)

// Employee represents a registered employee of the company.
// It contains the employee's internal ID, the Telegram ID the account is bound to,
// name parts, organizational placement and the accumulated overtime.
type Employee struct {
	ID           int             // Unique identifier for the employee
	TelegramID   int64           // Telegram account ID the employee registered with
	LastName     string          // Last name of the employee
	FirstName    string          // First name of the employee
	Patronymic   string          // Patronymic of the employee, "-" if absent
	DepartmentID int             // Department the employee belongs to
	DivisionID   int             // Division inside the department
	Role         string          // Role of the employee: worker or admin
	Overtime     pgtype.Interval // Accumulated overtime beyond the standard workday
	CreatedAt    time.Time       // Timestamp of when the employee record was created
}

// IsAdmin reports whether the employee has administrator rights.
func (e Employee) IsAdmin() bool {
	return e.Role == RoleAdmin
}

// FullName returns "LastName FirstName" the way lists and reports render it.
func (e Employee) FullName() string {
	return e.LastName + " " + e.FirstName
}

// OnlineStatus is the denormalized projection of "has an open work session and
// no open break", kept consistent with session/break rows by every transition.
type OnlineStatus struct {
	EmployeeID int       // Employee the status belongs to
	IsOnline   bool      // Whether the employee is currently working and not on break
	UpdatedAt  time.Time // Timestamp of the last transition that touched the status
}

// Colleague is a single row of the "who is online" view.
type Colleague struct {
	LastName  string
	FirstName string
}

// UnitEmployee is a short employee entry used by admin pick-lists.
type UnitEmployee struct {
	ID       int    // Employee ID
	FullName string // "LastName FirstName"
}

// Department is an organizational department.
type Department struct {
	ID   int
	Name string
}

// Division is a subdivision of a department.
type Division struct {
	ID           int
	DepartmentID int
	Name         string
}
