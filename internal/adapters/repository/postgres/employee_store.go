package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/ogurasousui/codex-employee-roster/internal/core/employee"
	pgdb "github.com/ogurasousui/codex-employee-roster/internal/platform/db/postgres"
)

const (
	uniqueViolationCode = "23505"
	checkViolationCode  = "23514"
)

// EmployeeStore は社員スナップショットを PostgreSQL に保存する employee.Store の実装です。
type EmployeeStore struct {
	pool pgdb.Queryer
}

var _ employee.Store = (*EmployeeStore)(nil)

// NewEmployeeStore は EmployeeStore を生成します。
func NewEmployeeStore(pool pgdb.Queryer) *EmployeeStore {
	return &EmployeeStore{pool: pool}
}

// Save は社員を email の正規化キーで upsert します。登録順を保つため seq は初回挿入時のみ採番されます。
func (s *EmployeeStore) Save(ctx context.Context, e *employee.Employee) error {
	if e == nil {
		return employee.ErrInvalidRecord
	}

	exec := pgdb.QueryerFromContext(ctx, s.pool)
	_, err := exec.Exec(ctx, `
        INSERT INTO employees (id, email_key, first_name, last_name, email, company_name, role, salary, status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
        ON CONFLICT (email_key) DO UPDATE
           SET first_name = EXCLUDED.first_name,
               last_name = EXCLUDED.last_name,
               company_name = EXCLUDED.company_name,
               role = EXCLUDED.role,
               salary = EXCLUDED.salary,
               status = EXCLUDED.status,
               updated_at = EXCLUDED.updated_at
    `,
		e.ID,
		storeKey(e.Email),
		e.FirstName,
		e.LastName,
		e.Email,
		e.CompanyName,
		string(e.Role),
		e.Salary,
		string(e.Status),
		e.CreatedAt,
		e.UpdatedAt,
	)
	return translatePgError(err)
}

// Delete は email に一致する社員を削除します。
func (s *EmployeeStore) Delete(ctx context.Context, email string) error {
	exec := pgdb.QueryerFromContext(ctx, s.pool)
	tag, err := exec.Exec(ctx, `DELETE FROM employees WHERE email_key = $1`, storeKey(email))
	if err != nil {
		return translatePgError(err)
	}
	if tag.RowsAffected() == 0 {
		return employee.ErrEmployeeNotFound
	}
	return nil
}

// LoadAll は保存済みの社員を登録順に返します。
func (s *EmployeeStore) LoadAll(ctx context.Context) ([]*employee.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, s.pool)
	rows, err := exec.Query(ctx, `
        SELECT id, first_name, last_name, email, company_name, role, salary, status, created_at, updated_at
          FROM employees
         ORDER BY seq ASC
    `)
	if err != nil {
		return nil, translatePgError(err)
	}
	defer rows.Close()

	var employees []*employee.Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, translatePgError(err)
		}
		employees = append(employees, emp)
	}
	if err := rows.Err(); err != nil {
		return nil, translatePgError(err)
	}

	return employees, nil
}

func scanEmployee(row pgx.Row) (*employee.Employee, error) {
	var (
		id          string
		firstName   string
		lastName    string
		email       string
		companyName string
		role        string
		salary      int
		status      string
		createdAt   time.Time
		updatedAt   time.Time
	)

	if err := row.Scan(
		&id,
		&firstName,
		&lastName,
		&email,
		&companyName,
		&role,
		&salary,
		&status,
		&createdAt,
		&updatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, employee.ErrEmployeeNotFound
		}
		return nil, err
	}

	return &employee.Employee{
		ID:          id,
		FirstName:   firstName,
		LastName:    lastName,
		Email:       email,
		CompanyName: companyName,
		Role:        employee.Role(role),
		Salary:      salary,
		Status:      employee.Status(status),
		CreatedAt:   createdAt.UTC(),
		UpdatedAt:   updatedAt.UTC(),
	}, nil
}

func translatePgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return employee.ErrEmployeeNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolationCode:
			return employee.ErrDuplicateEmail
		case checkViolationCode:
			if pgErr.ConstraintName == "employees_salary_check" {
				return employee.ErrInvalidSalary
			}
			return employee.ErrInvalidRecord
		}
	}

	return err
}

func storeKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
