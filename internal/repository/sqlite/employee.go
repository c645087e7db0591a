package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/timeclock/internal/domain/employee"
	"github.com/cmlabs-hris/timeclock/internal/pkg/database"
)

type employeeRepositoryImpl struct {
	db  *database.SQLite
	now func() time.Time
}

func NewEmployeeRepository(db *database.SQLite) employee.EmployeeRepository {
	return &employeeRepositoryImpl{db: db, now: time.Now}
}

const employeeColumns = `id, name, branch_id, created_at, updated_at`

func scanEmployee(row interface{ Scan(...any) error }) (employee.Employee, error) {
	var (
		e                    employee.Employee
		branchID             sql.NullInt64
		createdAt, updatedAt int64
	)
	if err := row.Scan(&e.ID, &e.Name, &branchID, &createdAt, &updatedAt); err != nil {
		return employee.Employee{}, err
	}
	e.BranchID = int64FromNull(branchID)
	e.CreatedAt = fromMillis(createdAt)
	e.UpdatedAt = fromMillis(updatedAt)
	return e, nil
}

// Create implements employee.EmployeeRepository.
func (r *employeeRepositoryImpl) Create(ctx context.Context, e employee.Employee) (employee.Employee, error) {
	q := GetQuerier(ctx, r.db)

	now := r.now().UTC().Truncate(time.Millisecond)
	res, err := q.ExecContext(ctx, `
		insert into employees (name, branch_id, created_at, updated_at)
		values (?, ?, ?, ?)
	`, e.Name, nullInt64(e.BranchID), toMillis(now), toMillis(now))
	if err != nil {
		return employee.Employee{}, fmt.Errorf("failed to create employee: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return employee.Employee{}, fmt.Errorf("failed to read employee id: %w", err)
	}

	e.ID = id
	e.CreatedAt = now
	e.UpdatedAt = now
	return e, nil
}

// GetByID implements employee.EmployeeRepository.
func (r *employeeRepositoryImpl) GetByID(ctx context.Context, id int64) (employee.Employee, error) {
	q := GetQuerier(ctx, r.db)

	e, err := scanEmployee(q.QueryRowContext(ctx, `select `+employeeColumns+` from employees where id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, fmt.Errorf("failed to get employee: %w", err)
	}
	return e, nil
}

// List implements employee.EmployeeRepository.
func (r *employeeRepositoryImpl) List(ctx context.Context) ([]employee.Employee, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.QueryContext(ctx, `select `+employeeColumns+` from employees order by id asc`)
	if err != nil {
		return nil, fmt.Errorf("failed to get employees: %w", err)
	}
	defer rows.Close()

	employees := []employee.Employee{}
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, e)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return employees, nil
}

// Update implements employee.EmployeeRepository.
func (r *employeeRepositoryImpl) Update(ctx context.Context, e employee.Employee) error {
	q := GetQuerier(ctx, r.db)

	res, err := q.ExecContext(ctx, `
		update employees set name = ?, branch_id = ?, updated_at = ? where id = ?
	`, e.Name, nullInt64(e.BranchID), toMillis(r.now()), e.ID)
	if err != nil {
		return fmt.Errorf("failed to update employee: %w", err)
	}

	return expectAffected(res, employee.ErrEmployeeNotFound)
}

// Delete implements employee.EmployeeRepository.
func (r *employeeRepositoryImpl) Delete(ctx context.Context, id int64) error {
	q := GetQuerier(ctx, r.db)

	res, err := q.ExecContext(ctx, `delete from employees where id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete employee: %w", err)
	}

	return expectAffected(res, employee.ErrEmployeeNotFound)
}

// ReplaceAll implements employee.EmployeeRepository.
func (r *employeeRepositoryImpl) ReplaceAll(ctx context.Context, employees []employee.Employee) error {
	return WithTransaction(ctx, r.db, func(ctx context.Context) error {
		q := GetQuerier(ctx, r.db)

		if _, err := q.ExecContext(ctx, `delete from employees`); err != nil {
			return fmt.Errorf("failed to clear employees: %w", err)
		}

		for _, e := range employees {
			_, err := q.ExecContext(ctx, `
				insert into employees (id, name, branch_id, created_at, updated_at)
				values (?, ?, ?, ?, ?)
			`, e.ID, e.Name, nullInt64(e.BranchID), toMillis(e.CreatedAt), toMillis(e.UpdatedAt))
			if err != nil {
				return fmt.Errorf("failed to restore employee %d: %w", e.ID, err)
			}
		}
		return nil
	})
}
