package request

import "time"

// Status はアクセス申請の状態を表します。pending からのみ遷移し、終端状態からは二度と遷移しません。
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// DeciderRole は終端遷移を実行した主体の種別です。マネージャーによる却下と
// 申請者自身による取り下げを、コメント本文ではなく構造で区別します。
type DeciderRole string

const (
	DeciderRoleManager   DeciderRole = "manager"
	DeciderRoleRequester DeciderRole = "requester"
)

// Decision は Decide 操作の判断種別です。
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// AccessRequest はアクセス申請エンティティです。ライフサイクルエンジンのみが書き込みます。
type AccessRequest struct {
	ID              int64
	RequesterID     string
	ResourceID      string
	LevelID         string
	Justification   string
	Status          Status
	CreatedAt       time.Time
	DecidedBy       *string
	DeciderRole     *DeciderRole
	DecidedAt       *time.Time
	DecisionComment *string
}

// IsTerminal は申請が終端状態に達しているかどうかを返します。
func (r *AccessRequest) IsTerminal() bool {
	return r.Status == StatusApproved || r.Status == StatusRejected
}

// IsCancelled は申請者自身による取り下げかどうかを返します。
func (r *AccessRequest) IsCancelled() bool {
	return r.Status == StatusRejected && r.DeciderRole != nil && *r.DeciderRole == DeciderRoleRequester
}
