package models

import "time"

// WorkSession is a continuous period of attributed work time, from clock-in to
// clock-out. EndedAt and Duration are nil while the session is open; Duration
// is derived exactly once, at the moment the session is closed.
// At most one open session exists per employee.
type WorkSession struct {
	ID         int            // Unique identifier for the session
	EmployeeID int            // Owner of the session
	StartedAt  time.Time      // Clock-in timestamp
	EndedAt    *time.Time     // Clock-out timestamp, nil while open
	Duration   *time.Duration // EndedAt - StartedAt, set at close
}

// Break is a sub-interval of an open work session during which the employee is
// not considered online. At most one open break exists per open session.
type Break struct {
	ID        int            // Unique identifier for the break
	SessionID int            // Parent work session
	StartedAt time.Time      // Break start timestamp
	EndedAt   *time.Time     // Break end timestamp, nil while open
	Duration  *time.Duration // EndedAt - StartedAt, set at close
}

// ShiftSnapshot is the authoritative read the state machine derives its
// logical state from.
type ShiftSnapshot struct {
	HasOpenSession bool // An open work session exists
	HasOpenBreak   bool // An open break exists under the open session
}

// ShiftEvent describes the outcome of a successful transition: when it
// happened and, for closing transitions, the duration defined at close.
type ShiftEvent struct {
	OccurredAt time.Time     // Mutation timestamp of the transition
	Duration   time.Duration // Closed session/break duration, zero for opening transitions
	Overtime   time.Duration // Overtime accrued by this transition, zero unless a shift was closed
}

// WorkStats holds an employee's personal attendance figures.
type WorkStats struct {
	Today        time.Duration // Total worked today over closed sessions
	WeekAverage  time.Duration // Average per worked day since Monday
	MonthAverage time.Duration // Average per worked day since the 1st
}

// AttendanceRow is one employee's line of the admin attendance report.
type AttendanceRow struct {
	FullName string        // "LastName FirstName"
	Days     int           // Distinct days with at least one closed session
	Total    time.Duration // Total worked time over the period
	Overtime time.Duration // Accumulated overtime of the employee
}

// AveragePerDay returns the mean worked time per attended day.
func (r AttendanceRow) AveragePerDay() time.Duration {
	if r.Days == 0 {
		return 0
	}
	return r.Total / time.Duration(r.Days)
}
