package catalog

import "context"

// Repository はカタログ参照データ永続化の抽象です。
type Repository interface {
	CreateResource(ctx context.Context, resource *Resource) (*Resource, error)
	CreateAccessLevel(ctx context.Context, level *AccessLevel) (*AccessLevel, error)
	FindResourceByID(ctx context.Context, id string) (*Resource, error)
	FindAccessLevelByID(ctx context.Context, id string) (*AccessLevel, error)
	ListResources(ctx context.Context) ([]*Resource, error)
	ListAccessLevels(ctx context.Context) ([]*AccessLevel, error)
}
