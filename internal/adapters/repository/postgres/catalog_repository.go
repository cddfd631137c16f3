package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/ogurasousui/access-request-service/internal/core/catalog"
	pgdb "github.com/ogurasousui/access-request-service/internal/platform/db/postgres"
)

// CatalogRepository は PostgreSQL を利用したカタログ参照データ永続化の実装です。
type CatalogRepository struct {
	pool pgdb.Queryer
}

// NewCatalogRepository は CatalogRepository を生成します。
func NewCatalogRepository(pool pgdb.Queryer) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

// CreateResource は申請対象テーブルを登録します。
func (r *CatalogRepository) CreateResource(ctx context.Context, res *catalog.Resource) (*catalog.Resource, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO resources (id, schema_name, table_name, description, created_at)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, schema_name, table_name, description, created_at
    `, res.ID, res.SchemaName, res.TableName, res.Description, res.CreatedAt)

	created, err := scanResource(row)
	if err != nil {
		return nil, translateCatalogPgError(err, catalog.ErrResourceAlreadyExists)
	}
	return created, nil
}

// CreateAccessLevel はアクセスロールを登録します。
func (r *CatalogRepository) CreateAccessLevel(ctx context.Context, level *catalog.AccessLevel) (*catalog.AccessLevel, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO access_levels (id, name, description, created_at)
        VALUES ($1, $2, $3, $4)
        RETURNING id, name, description, created_at
    `, level.ID, level.Name, level.Description, level.CreatedAt)

	created, err := scanAccessLevel(row)
	if err != nil {
		return nil, translateCatalogPgError(err, catalog.ErrAccessLevelAlreadyExists)
	}
	return created, nil
}

// FindResourceByID はIDでテーブルを取得します。
func (r *CatalogRepository) FindResourceByID(ctx context.Context, id string) (*catalog.Resource, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT id, schema_name, table_name, description, created_at
          FROM resources
         WHERE id = $1
         LIMIT 1
    `, id)

	found, err := scanResource(row)
	if err != nil {
		return nil, err
	}
	return found, nil
}

// FindAccessLevelByID はIDでロールを取得します。
func (r *CatalogRepository) FindAccessLevelByID(ctx context.Context, id string) (*catalog.AccessLevel, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT id, name, description, created_at
          FROM access_levels
         WHERE id = $1
         LIMIT 1
    `, id)

	found, err := scanAccessLevel(row)
	if err != nil {
		return nil, err
	}
	return found, nil
}

// ListResources は申請対象テーブルを完全修飾名順で返します。
func (r *CatalogRepository) ListResources(ctx context.Context) ([]*catalog.Resource, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT id, schema_name, table_name, description, created_at
          FROM resources
         ORDER BY schema_name, table_name
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var resources []*catalog.Resource
	for rows.Next() {
		res, err := scanResource(rows)
		if err != nil {
			return nil, err
		}
		resources = append(resources, res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return resources, nil
}

// ListAccessLevels はアクセスロールを名前順で返します。
func (r *CatalogRepository) ListAccessLevels(ctx context.Context) ([]*catalog.AccessLevel, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT id, name, description, created_at
          FROM access_levels
         ORDER BY name
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var levels []*catalog.AccessLevel
	for rows.Next() {
		level, err := scanAccessLevel(rows)
		if err != nil {
			return nil, err
		}
		levels = append(levels, level)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return levels, nil
}

func scanResource(row pgx.Row) (*catalog.Resource, error) {
	var (
		id          string
		schemaName  string
		tableName   string
		description string
		createdAt   time.Time
	)

	if err := row.Scan(&id, &schemaName, &tableName, &description, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrResourceNotFound
		}
		return nil, err
	}

	return &catalog.Resource{
		ID:          id,
		SchemaName:  schemaName,
		TableName:   tableName,
		Description: description,
		CreatedAt:   createdAt,
	}, nil
}

func scanAccessLevel(row pgx.Row) (*catalog.AccessLevel, error) {
	var (
		id          string
		name        string
		description string
		createdAt   time.Time
	)

	if err := row.Scan(&id, &name, &description, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrAccessLevelNotFound
		}
		return nil, err
	}

	return &catalog.AccessLevel{
		ID:          id,
		Name:        name,
		Description: description,
		CreatedAt:   createdAt,
	}, nil
}

func translateCatalogPgError(err error, uniqueErr error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == uniqueViolationCode {
			return uniqueErr
		}
	}
	return err
}
