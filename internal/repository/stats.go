package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Houeta/timekeeper-bot/internal/models"
)

// GetWorkStats returns the employee's personal attendance figures: total
// worked today and the average per worked day since Monday and since the
// first of the month. Only closed sessions count.
func (r *Repository) GetWorkStats(
	ctx context.Context,
	employeeID int,
	now time.Time,
) (models.WorkStats, error) {
	var stats models.WorkStats

	var todaySeconds float64
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(EXTRACT(EPOCH FROM SUM(duration)), 0)::float8
		FROM work_sessions
		WHERE employee_id = $1
		  AND started_at::date = $2::date
		  AND duration IS NOT NULL
	`, employeeID, now).Scan(&todaySeconds)
	if err != nil {
		return models.WorkStats{}, fmt.Errorf("failed to query today's total: %w", err)
	}
	stats.Today = time.Duration(todaySeconds * float64(time.Second))

	monday := now.AddDate(0, 0, -mondayOffset(now))
	weekSeconds, err := r.averageDailySeconds(ctx, employeeID, monday, now)
	if err != nil {
		return models.WorkStats{}, fmt.Errorf("failed to query weekly average: %w", err)
	}
	stats.WeekAverage = time.Duration(weekSeconds * float64(time.Second))

	firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	monthSeconds, err := r.averageDailySeconds(ctx, employeeID, firstOfMonth, now)
	if err != nil {
		return models.WorkStats{}, fmt.Errorf("failed to query monthly average: %w", err)
	}
	stats.MonthAverage = time.Duration(monthSeconds * float64(time.Second))

	return stats, nil
}

// averageDailySeconds computes the mean of per-day worked totals over closed
// sessions between from and to inclusive.
func (r *Repository) averageDailySeconds(
	ctx context.Context,
	employeeID int,
	from, to time.Time,
) (float64, error) {
	var seconds float64
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(AVG(day_seconds), 0)::float8
		FROM (
			SELECT EXTRACT(EPOCH FROM SUM(duration)) AS day_seconds
			FROM work_sessions
			WHERE employee_id = $1
			  AND started_at::date BETWEEN $2::date AND $3::date
			  AND duration IS NOT NULL
			GROUP BY started_at::date
		) AS daily
	`, employeeID, from, to).Scan(&seconds)
	if err != nil {
		return 0, err
	}

	return seconds, nil
}

// GetAttendanceReport aggregates closed sessions for every employee of one
// department/division over the inclusive date range.
func (r *Repository) GetAttendanceReport(
	ctx context.Context,
	departmentID, divisionID int,
	from, to time.Time,
) ([]models.AttendanceRow, error) {
	rows, err := r.db.Query(ctx, GetAttendanceReportSQL, from, to, departmentID, divisionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query attendance report: %w", err)
	}
	defer rows.Close()

	var report []models.AttendanceRow
	for rows.Next() {
		var row models.AttendanceRow
		var totalSeconds, overtimeSeconds float64
		if errScan := rows.Scan(&row.FullName, &row.Days, &totalSeconds, &overtimeSeconds); errScan != nil {
			return nil, fmt.Errorf("failed to scan report row: %w", errScan)
		}
		row.Total = time.Duration(totalSeconds * float64(time.Second))
		row.Overtime = time.Duration(overtimeSeconds * float64(time.Second))
		report = append(report, row)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	return report, nil
}

// mondayOffset returns how many days back the week's Monday is.
func mondayOffset(now time.Time) int {
	offset := int(now.Weekday()) - int(time.Monday)
	if offset < 0 {
		offset += 7
	}
	return offset
}
