package directory

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Clock は現在時刻を提供します。
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

// TransactionManager はトランザクション制御の抽象化です。
type TransactionManager interface {
	WithinReadOnly(ctx context.Context, fn func(context.Context) error) error
	WithinReadWrite(ctx context.Context, fn func(context.Context) error) error
}

type noopTransactionManager struct{}

func (noopTransactionManager) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

func (noopTransactionManager) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Service は組織ディレクトリに関するユースケースをまとめます。
type Service struct {
	repo  Repository
	clock Clock
	tx    TransactionManager
}

// UseCase は組織ディレクトリの公開インターフェースです。
type UseCase interface {
	RegisterManager(ctx context.Context, in RegisterManagerInput) (*Employee, error)
	RegisterSubordinate(ctx context.Context, in RegisterSubordinateInput) (*Employee, error)
	GetEmployee(ctx context.Context, id string) (*Employee, error)
	GetEmployeeByEmail(ctx context.Context, email string) (*Employee, error)
	ManagerOf(ctx context.Context, employeeID string) (*string, error)
	IsManager(ctx context.Context, employeeID string) (bool, error)
	EmployeeExists(ctx context.Context, id string) (bool, error)
	ListSubordinates(ctx context.Context, managerID string) ([]*Employee, error)
}

// NewService は Service を生成します。
func NewService(repo Repository, clock Clock, tx TransactionManager) *Service {
	if clock == nil {
		clock = realClock{}
	}
	if tx == nil {
		tx = noopTransactionManager{}
	}
	return &Service{repo: repo, clock: clock, tx: tx}
}

// RegisterManagerInput はマネージャー登録時の入力です。
type RegisterManagerInput struct {
	FirstName  string
	LastName   string
	Email      string
	Department string
	ManagerID  *string
}

// RegisterSubordinateInput は部下登録時の入力です。マネージャーとの紐付けは登録時に確定します。
type RegisterSubordinateInput struct {
	FirstName  string
	LastName   string
	Email      string
	Department string
	ManagerID  string
}

// RegisterManager はマネージャーを登録します。ManagerID を指定すると上位マネージャー配下に登録されます。
func (s *Service) RegisterManager(ctx context.Context, in RegisterManagerInput) (*Employee, error) {
	firstName, lastName, err := normalizeName(in.FirstName, in.LastName)
	if err != nil {
		return nil, err
	}

	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}

	department, err := normalizeDepartment(in.Department)
	if err != nil {
		return nil, err
	}

	var created *Employee
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		if in.ManagerID != nil {
			if err := s.ensureManager(txCtx, *in.ManagerID); err != nil {
				return err
			}
		}

		emp := &Employee{
			ID:         uuid.NewString(),
			FirstName:  firstName,
			LastName:   lastName,
			Email:      email,
			Department: department,
			IsManager:  true,
			ManagerID:  in.ManagerID,
			CreatedAt:  s.clock.Now(),
		}

		result, err := s.repo.Create(txCtx, emp)
		if err != nil {
			return err
		}

		created = result
		return nil
	}); err != nil {
		return nil, err
	}

	return created, nil
}

// RegisterSubordinate はマネージャー配下の従業員を登録します。
func (s *Service) RegisterSubordinate(ctx context.Context, in RegisterSubordinateInput) (*Employee, error) {
	firstName, lastName, err := normalizeName(in.FirstName, in.LastName)
	if err != nil {
		return nil, err
	}

	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}

	department, err := normalizeDepartment(in.Department)
	if err != nil {
		return nil, err
	}

	managerID := strings.TrimSpace(in.ManagerID)
	if managerID == "" {
		return nil, fmt.Errorf("manager_id: %w", ErrInvalidID)
	}

	var created *Employee
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		if err := s.ensureManager(txCtx, managerID); err != nil {
			return err
		}

		emp := &Employee{
			ID:         uuid.NewString(),
			FirstName:  firstName,
			LastName:   lastName,
			Email:      email,
			Department: department,
			IsManager:  false,
			ManagerID:  &managerID,
			CreatedAt:  s.clock.Now(),
		}

		result, err := s.repo.Create(txCtx, emp)
		if err != nil {
			return err
		}

		created = result
		return nil
	}); err != nil {
		return nil, err
	}

	return created, nil
}

// GetEmployee はIDで従業員を取得します。
func (s *Service) GetEmployee(ctx context.Context, id string) (*Employee, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}

	var result *Employee
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		found, err := s.repo.FindByID(txCtx, id)
		if err != nil {
			return err
		}
		result = found
		return nil
	}); err != nil {
		return nil, err
	}

	return result, nil
}

// GetEmployeeByEmail はメールアドレスで従業員を取得します。
func (s *Service) GetEmployeeByEmail(ctx context.Context, email string) (*Employee, error) {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}

	var result *Employee
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		found, err := s.repo.FindByEmail(txCtx, normalized)
		if err != nil {
			return err
		}
		result = found
		return nil
	}); err != nil {
		return nil, err
	}

	return result, nil
}

// ManagerOf は従業員の現在のマネージャーIDを返します。トップレベルの場合は nil を返します。
// 承認権限の導出に使われるため、結果をキャッシュしてはいけません。
func (s *Service) ManagerOf(ctx context.Context, employeeID string) (*string, error) {
	emp, err := s.GetEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	return emp.ManagerID, nil
}

// IsManager は従業員がマネージャー権限を持つかどうかを返します。
func (s *Service) IsManager(ctx context.Context, employeeID string) (bool, error) {
	emp, err := s.GetEmployee(ctx, employeeID)
	if err != nil {
		return false, err
	}
	return emp.IsManager, nil
}

// EmployeeExists は従業員がディレクトリに存在するかどうかを返します。
func (s *Service) EmployeeExists(ctx context.Context, id string) (bool, error) {
	if strings.TrimSpace(id) == "" {
		return false, fmt.Errorf("id: %w", ErrInvalidID)
	}

	_, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrEmployeeNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ListSubordinates はマネージャー直下の従業員一覧を返します。
func (s *Service) ListSubordinates(ctx context.Context, managerID string) ([]*Employee, error) {
	if strings.TrimSpace(managerID) == "" {
		return nil, fmt.Errorf("manager_id: %w", ErrInvalidID)
	}

	var result []*Employee
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		list, err := s.repo.ListSubordinates(txCtx, managerID)
		if err != nil {
			return err
		}
		result = list
		return nil
	}); err != nil {
		return nil, err
	}

	return result, nil
}

func (s *Service) ensureManager(ctx context.Context, managerID string) error {
	manager, err := s.repo.FindByID(ctx, managerID)
	if err != nil {
		if errors.Is(err, ErrEmployeeNotFound) {
			return ErrManagerNotFound
		}
		return err
	}
	if !manager.IsManager {
		return ErrNotAManager
	}
	return nil
}

func normalizeName(first, last string) (string, string, error) {
	firstName := strings.TrimSpace(first)
	lastName := strings.TrimSpace(last)
	if firstName == "" || lastName == "" {
		return "", "", ErrInvalidName
	}
	return firstName, lastName, nil
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if !emailPattern.MatchString(email) {
		return "", ErrInvalidEmail
	}
	return email, nil
}

func normalizeDepartment(raw string) (string, error) {
	department := strings.TrimSpace(raw)
	if department == "" {
		return "", ErrInvalidDepartment
	}
	return department, nil
}
