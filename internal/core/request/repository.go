package request

import (
	"context"
	"time"
)

// Repository はアクセス申請永続化の抽象です。
//
// DecideByManager / CancelByRequester は「status が pending であること」と
// 認可述語(申請者の現在のマネージャーであること / 申請者本人であること)を
// 同一の条件付き更新文で評価しなければなりません。条件を満たす行が無い場合、
// 申請が存在しなければ ErrRequestNotFound、存在すれば ErrNotDecidable を返します。
type Repository interface {
	Insert(ctx context.Context, req *AccessRequest) (*AccessRequest, error)
	FindByID(ctx context.Context, id int64) (*AccessRequest, error)
	DecideByManager(ctx context.Context, id int64, managerID string, status Status, comment string, decidedAt time.Time) (*AccessRequest, error)
	CancelByRequester(ctx context.Context, id int64, requesterID string, comment string, decidedAt time.Time) (*AccessRequest, error)

	ListByRequester(ctx context.Context, requesterID string) ([]*Summary, error)
	ListForManager(ctx context.Context, managerID string) ([]*ApprovalItem, error)
	FindDetail(ctx context.Context, id int64) (*Detail, error)
	ListAuditLog(ctx context.Context) ([]*AuditEntry, error)
	ListApprovedGrants(ctx context.Context) ([]*Grant, error)
	ListPendingAging(ctx context.Context) ([]*PendingAging, error)
}
