package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Houeta/timekeeper-bot/internal/models"
	"github.com/jackc/pgx/v5"
)

// CreateEmployee registers a new employee and seeds their offline online_status
// row in one transaction. Registration is idempotent: if the Telegram ID is
// already bound, the existing employee ID is returned.
func (r *Repository) CreateEmployee(ctx context.Context, emp models.Employee) (int, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // omitted because checking for errors will not affect the function

	var employeeID int
	err = tx.QueryRow(ctx, `
		INSERT INTO employees (telegram_id, last_name, first_name, patronymic, department_id, division_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (telegram_id) DO NOTHING
		RETURNING id
	`, emp.TelegramID, emp.LastName, emp.FirstName, emp.Patronymic, emp.DepartmentID, emp.DivisionID,
	).Scan(&employeeID)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("failed to insert employee: %w", err)
		}
		// Already registered, keep the existing record.
		err = tx.QueryRow(ctx, "SELECT id FROM employees WHERE telegram_id = $1", emp.TelegramID).Scan(&employeeID)
		if err != nil {
			return 0, fmt.Errorf("failed to find existing employee: %w", err)
		}
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO online_status (employee_id, is_online)
		VALUES ($1, FALSE)
		ON CONFLICT (employee_id) DO NOTHING
	`, employeeID)
	if err != nil {
		return 0, fmt.Errorf("failed to seed online status: %w", err)
	}

	return employeeID, tx.Commit(ctx)
}

// GetEmployeeByTelegramID retrieves an employee's details using their Telegram ID.
// It returns ErrEmployeeNotFound if the Telegram ID is not registered.
func (r *Repository) GetEmployeeByTelegramID(ctx context.Context, telegramID int64) (models.Employee, error) {
	var emp models.Employee
	query := `
		SELECT id, telegram_id, last_name, first_name, patronymic,
		       department_id, division_id, role, overtime, created_at
		FROM employees
		WHERE telegram_id = $1;
	`

	err := r.db.QueryRow(ctx, query, telegramID).Scan(
		&emp.ID, &emp.TelegramID, &emp.LastName, &emp.FirstName, &emp.Patronymic,
		&emp.DepartmentID, &emp.DivisionID, &emp.Role, &emp.Overtime, &emp.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Employee{}, ErrEmployeeNotFound
		}
		return models.Employee{}, fmt.Errorf("failed to get employee data: %w", err)
	}

	return emp, nil
}

// ListDepartments returns all departments ordered by name.
func (r *Repository) ListDepartments(ctx context.Context) ([]models.Department, error) {
	rows, err := r.db.Query(ctx, "SELECT id, name FROM departments ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to query departments: %w", err)
	}
	defer rows.Close()

	var departments []models.Department
	for rows.Next() {
		var dep models.Department
		if errScan := rows.Scan(&dep.ID, &dep.Name); errScan != nil {
			return nil, fmt.Errorf("failed to scan department row: %w", errScan)
		}
		departments = append(departments, dep)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	return departments, nil
}

// ListDivisions returns the divisions of one department ordered by name.
func (r *Repository) ListDivisions(ctx context.Context, departmentID int) ([]models.Division, error) {
	rows, err := r.db.Query(ctx,
		"SELECT id, department_id, name FROM divisions WHERE department_id = $1 ORDER BY name", departmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query divisions: %w", err)
	}
	defer rows.Close()

	var divisions []models.Division
	for rows.Next() {
		var div models.Division
		if errScan := rows.Scan(&div.ID, &div.DepartmentID, &div.Name); errScan != nil {
			return nil, fmt.Errorf("failed to scan division row: %w", errScan)
		}
		divisions = append(divisions, div)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	return divisions, nil
}

// ListEmployeesByUnit returns short entries for every employee of one
// department/division, as used by the admin pick-lists.
func (r *Repository) ListEmployeesByUnit(
	ctx context.Context,
	departmentID, divisionID int,
) ([]models.UnitEmployee, error) {
	query := `
		SELECT id, last_name || ' ' || first_name AS full_name
		FROM employees
		WHERE department_id = $1 AND division_id = $2
		ORDER BY full_name;
	`
	rows, err := r.db.Query(ctx, query, departmentID, divisionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query employees: %w", err)
	}
	defer rows.Close()

	var employees []models.UnitEmployee
	for rows.Next() {
		var emp models.UnitEmployee
		if errScan := rows.Scan(&emp.ID, &emp.FullName); errScan != nil {
			return nil, fmt.Errorf("failed to scan employee row: %w", errScan)
		}
		employees = append(employees, emp)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	return employees, nil
}

// SetEmployeeRole updates the employee's role. Only admin workflows call this.
func (r *Repository) SetEmployeeRole(ctx context.Context, employeeID int, role string) error {
	cmdTag, err := r.db.Exec(ctx,
		"UPDATE employees SET role = $2, updated_at = NOW() WHERE id = $1", employeeID, role)
	if err != nil {
		return fmt.Errorf("failed to update role for employee %d: %w", employeeID, err)
	}

	if cmdTag.RowsAffected() == 0 {
		return ErrEmployeeNotFound
	}

	return nil
}

// GetOnlineColleagues returns employees of one department/division whose
// online_status projection is currently true.
func (r *Repository) GetOnlineColleagues(
	ctx context.Context,
	departmentID, divisionID int,
) ([]models.Colleague, error) {
	query := `
		SELECT e.last_name, e.first_name
		FROM employees e
		JOIN online_status o ON e.id = o.employee_id
		WHERE o.is_online = TRUE
		  AND e.department_id = $1
		  AND e.division_id = $2;
	`
	rows, err := r.db.Query(ctx, query, departmentID, divisionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query online colleagues: %w", err)
	}
	defer rows.Close()

	var colleagues []models.Colleague
	for rows.Next() {
		var col models.Colleague
		if errScan := rows.Scan(&col.LastName, &col.FirstName); errScan != nil {
			return nil, fmt.Errorf("failed to scan colleague row: %w", errScan)
		}
		colleagues = append(colleagues, col)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	return colleagues, nil
}
