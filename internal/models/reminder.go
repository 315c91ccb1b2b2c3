package models

import "time"

// Reminder is a one-shot future notification tied to an employee.
// The row lives until it is explicitly deleted or has fired.
type Reminder struct {
	ID         int       // Unique identifier for the reminder
	EmployeeID int       // Owner of the reminder
	RemindAt   time.Time // Wall-clock deadline the message is delivered at
	Message    string    // Text delivered to the employee
}

// PendingReminder is a reminder joined with the owner's Telegram chat ID,
// as loaded by the startup recovery sweep.
type PendingReminder struct {
	Reminder

	ChatID int64 // Telegram chat the notification is delivered to
}
