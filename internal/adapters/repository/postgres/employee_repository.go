package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/ogurasousui/access-request-service/internal/core/directory"
	pgdb "github.com/ogurasousui/access-request-service/internal/platform/db/postgres"
)

const (
	uniqueViolationCode     = "23505"
	foreignKeyViolationCode = "23503"
)

// EmployeeRepository は PostgreSQL を利用した組織ディレクトリ永続化の実装です。
type EmployeeRepository struct {
	pool pgdb.Queryer
}

// NewEmployeeRepository は EmployeeRepository を生成します。
func NewEmployeeRepository(pool pgdb.Queryer) *EmployeeRepository {
	return &EmployeeRepository{pool: pool}
}

// Create は従業員を新規登録します。
func (r *EmployeeRepository) Create(ctx context.Context, e *directory.Employee) (*directory.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO employees (id, first_name, last_name, email, department, is_manager, manager_id, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING id, first_name, last_name, email, department, is_manager, manager_id, created_at
    `,
		e.ID,
		e.FirstName,
		e.LastName,
		e.Email,
		e.Department,
		e.IsManager,
		e.ManagerID,
		e.CreatedAt,
	)

	created, err := scanEmployee(row)
	if err != nil {
		return nil, translateEmployeePgError(err)
	}
	return created, nil
}

// FindByID はIDで従業員を取得します。
func (r *EmployeeRepository) FindByID(ctx context.Context, id string) (*directory.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT id, first_name, last_name, email, department, is_manager, manager_id, created_at
          FROM employees
         WHERE id = $1
         LIMIT 1
    `, id)

	found, err := scanEmployee(row)
	if err != nil {
		return nil, translateEmployeePgError(err)
	}
	return found, nil
}

// FindByEmail はメールアドレスで従業員を取得します。
func (r *EmployeeRepository) FindByEmail(ctx context.Context, email string) (*directory.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT id, first_name, last_name, email, department, is_manager, manager_id, created_at
          FROM employees
         WHERE email = $1
         LIMIT 1
    `, email)

	found, err := scanEmployee(row)
	if err != nil {
		return nil, translateEmployeePgError(err)
	}
	return found, nil
}

// ListSubordinates はマネージャー直下の従業員を氏名順で返します。
func (r *EmployeeRepository) ListSubordinates(ctx context.Context, managerID string) ([]*directory.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT id, first_name, last_name, email, department, is_manager, manager_id, created_at
          FROM employees
         WHERE manager_id = $1
         ORDER BY last_name, first_name
    `, managerID)
	if err != nil {
		return nil, translateEmployeePgError(err)
	}
	defer rows.Close()

	var employees []*directory.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, e)
	}
	if err := rows.Err(); err != nil {
		return nil, translateEmployeePgError(err)
	}

	return employees, nil
}

func scanEmployee(row pgx.Row) (*directory.Employee, error) {
	var (
		id         string
		firstName  string
		lastName   string
		email      string
		department string
		isManager  bool
		managerID  *string
		createdAt  time.Time
	)

	if err := row.Scan(&id, &firstName, &lastName, &email, &department, &isManager, &managerID, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, directory.ErrEmployeeNotFound
		}
		return nil, err
	}

	return &directory.Employee{
		ID:         id,
		FirstName:  firstName,
		LastName:   lastName,
		Email:      email,
		Department: department,
		IsManager:  isManager,
		ManagerID:  managerID,
		CreatedAt:  createdAt,
	}, nil
}

func translateEmployeePgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolationCode:
			return directory.ErrEmailAlreadyExists
		case foreignKeyViolationCode:
			return directory.ErrManagerNotFound
		}
	}
	return err
}
