package repository

// GetAttendanceReportSQL aggregates closed sessions per employee of one
// department/division over a date range: distinct worked days, total worked
// seconds and the employee's accumulated overtime.
const GetAttendanceReportSQL = `
SELECT
    e.last_name || ' ' || e.first_name AS "full_name",
    COUNT(DISTINCT ws.started_at::date) AS "days",
    COALESCE(EXTRACT(EPOCH FROM SUM(ws.duration)), 0)::float8 AS "total_seconds",
    COALESCE(EXTRACT(EPOCH FROM e.overtime), 0)::float8 AS "overtime_seconds"
FROM
    work_sessions ws
JOIN
    employees e ON ws.employee_id = e.id
WHERE
    ws.started_at::date BETWEEN $1 AND $2
    AND ws.duration IS NOT NULL
    AND e.department_id = $3
    AND e.division_id = $4
GROUP BY
    e.id, "full_name", e.overtime
ORDER BY
    "full_name";
`

// GetShiftSnapshotSQL derives the employee's logical shift state from the
// authoritative session/break rows in a single read.
const GetShiftSnapshotSQL = `
SELECT
    EXISTS (
        SELECT 1 FROM work_sessions
        WHERE employee_id = $1 AND ended_at IS NULL
    ) AS "has_open_session",
    EXISTS (
        SELECT 1 FROM breaks b
        JOIN work_sessions w ON b.session_id = w.id
        WHERE w.employee_id = $1 AND w.ended_at IS NULL AND b.ended_at IS NULL
    ) AS "has_open_break";
`
