package catalog

import "time"

// Resource は申請対象となるデータベーステーブルを表します。
type Resource struct {
	ID          string
	SchemaName  string
	TableName   string
	Description string
	CreatedAt   time.Time
}

// QualifiedName は schema.table 形式の完全修飾名を返します。
func (r *Resource) QualifiedName() string {
	return r.SchemaName + "." + r.TableName
}

// AccessLevel は付与されるアクセスロールを表します。
type AccessLevel struct {
	ID          string
	Name        string
	Description string
	CreatedAt   time.Time
}
