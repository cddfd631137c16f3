package catalog

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

var identifierPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Service はカタログ参照データに関するユースケースをまとめます。
type Service struct {
	repo  Repository
	clock Clock
	tx    TransactionManager
}

// UseCase はカタログの公開インターフェースです。
type UseCase interface {
	CreateResource(ctx context.Context, in CreateResourceInput) (*Resource, error)
	CreateAccessLevel(ctx context.Context, in CreateAccessLevelInput) (*AccessLevel, error)
	ListResources(ctx context.Context) ([]*Resource, error)
	ListAccessLevels(ctx context.Context) ([]*AccessLevel, error)
	ResourceExists(ctx context.Context, id string) (bool, error)
	AccessLevelExists(ctx context.Context, id string) (bool, error)
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

// CreateResourceInput はテーブル登録時の入力です。
type CreateResourceInput struct {
	SchemaName  string
	TableName   string
	Description string
}

// CreateAccessLevelInput はロール登録時の入力です。
type CreateAccessLevelInput struct {
	Name        string
	Description string
}

// CreateResource は申請対象テーブルをカタログに登録します。
func (s *Service) CreateResource(ctx context.Context, in CreateResourceInput) (*Resource, error) {
	schemaName, err := normalizeIdentifier(in.SchemaName, ErrInvalidSchemaName)
	if err != nil {
		return nil, err
	}

	tableName, err := normalizeIdentifier(in.TableName, ErrInvalidTableName)
	if err != nil {
		return nil, err
	}

	var created *Resource
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		resource := &Resource{
			ID:          uuid.NewString(),
			SchemaName:  schemaName,
			TableName:   tableName,
			Description: strings.TrimSpace(in.Description),
			CreatedAt:   s.clock.Now(),
		}

		result, err := s.repo.CreateResource(txCtx, resource)
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

// CreateAccessLevel はアクセスロールをカタログに登録します。
func (s *Service) CreateAccessLevel(ctx context.Context, in CreateAccessLevelInput) (*AccessLevel, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, ErrInvalidLevelName
	}

	var created *AccessLevel
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		level := &AccessLevel{
			ID:          uuid.NewString(),
			Name:        name,
			Description: strings.TrimSpace(in.Description),
			CreatedAt:   s.clock.Now(),
		}

		result, err := s.repo.CreateAccessLevel(txCtx, level)
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

// ListResources は申請対象テーブルの一覧を返します。
func (s *Service) ListResources(ctx context.Context) ([]*Resource, error) {
	var result []*Resource
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		list, err := s.repo.ListResources(txCtx)
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

// ListAccessLevels はアクセスロールの一覧を返します。
func (s *Service) ListAccessLevels(ctx context.Context) ([]*AccessLevel, error) {
	var result []*AccessLevel
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		list, err := s.repo.ListAccessLevels(txCtx)
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

// ResourceExists はテーブルがカタログに存在するかどうかを返します。
func (s *Service) ResourceExists(ctx context.Context, id string) (bool, error) {
	if strings.TrimSpace(id) == "" {
		return false, fmt.Errorf("id: %w", ErrInvalidID)
	}

	_, err := s.repo.FindResourceByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrResourceNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// AccessLevelExists はロールがカタログに存在するかどうかを返します。
func (s *Service) AccessLevelExists(ctx context.Context, id string) (bool, error) {
	if strings.TrimSpace(id) == "" {
		return false, fmt.Errorf("id: %w", ErrInvalidID)
	}

	_, err := s.repo.FindAccessLevelByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAccessLevelNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func normalizeIdentifier(raw string, invalidErr error) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	if !identifierPattern.MatchString(normalized) {
		return "", invalidErr
	}
	return normalized, nil
}
