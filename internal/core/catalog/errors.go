package catalog

import "errors"

var (
	// ErrResourceNotFound はテーブルが存在しない場合に返却されます。
	ErrResourceNotFound = errors.New("catalog: resource not found")
	// ErrAccessLevelNotFound はロールが存在しない場合に返却されます。
	ErrAccessLevelNotFound = errors.New("catalog: access level not found")
	// ErrResourceAlreadyExists は同名テーブルの重複登録時に返却されます。
	ErrResourceAlreadyExists = errors.New("catalog: resource already exists")
	// ErrAccessLevelAlreadyExists は同名ロールの重複登録時に返却されます。
	ErrAccessLevelAlreadyExists = errors.New("catalog: access level already exists")
	// ErrInvalidID はIDが不正な場合に返却されます。
	ErrInvalidID = errors.New("catalog: invalid id")
	// ErrInvalidSchemaName はスキーマ名が不正な場合に返却されます。
	ErrInvalidSchemaName = errors.New("catalog: invalid schema name")
	// ErrInvalidTableName はテーブル名が不正な場合に返却されます。
	ErrInvalidTableName = errors.New("catalog: invalid table name")
	// ErrInvalidLevelName はロール名が不正な場合に返却されます。
	ErrInvalidLevelName = errors.New("catalog: invalid access level name")
)
