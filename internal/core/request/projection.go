package request

import "time"

// Summary は「自分の申請一覧」の読み取りモデルです。
type Summary struct {
	RequestID       int64
	ResourceName    string
	LevelName       string
	Justification   string
	Status          Status
	RequestedAt     time.Time
	DeciderName     string
	DecidedAt       *time.Time
	DecisionComment *string
}

// ApprovalItem は「自分宛ての承認待ち・決裁済み一覧」の読み取りモデルです。
type ApprovalItem struct {
	RequestID      int64
	RequesterName  string
	RequesterEmail string
	ResourceName   string
	LevelName      string
	Justification  string
	Status         Status
	RequestedAt    time.Time
}

// Detail は単一申請の詳細表示用の読み取りモデルです。
type Detail struct {
	RequestID           int64
	RequesterName       string
	RequesterEmail      string
	RequesterDepartment string
	ResourceName        string
	ResourceDescription string
	LevelName           string
	LevelDescription    string
	Justification       string
	Status              Status
	RequestedAt         time.Time
	DeciderName         string
	DecidedAt           *time.Time
	DecisionComment     *string
}

// AuditEntry は監査ログの読み取りモデルです。全申請を対象にした最も情報量の多い結合です。
type AuditEntry struct {
	RequestID           int64
	RequesterName       string
	RequesterDepartment string
	ResourceName        string
	LevelName           string
	Justification       string
	Status              Status
	RequestedAt         time.Time
	DeciderName         string
	DeciderRole         *DeciderRole
	DecidedAt           *time.Time
	DecisionComment     *string
}

// Grant は承認済みアクセス権のスナップショットです。
type Grant struct {
	EmployeeName  string
	EmployeeEmail string
	Department    string
	ResourceName  string
	LevelName     string
	ApprovedAt    *time.Time
	ApprovedBy    string
}

// PendingAging は承認待ち申請の滞留レポートです。マネージャー未割り当てでも欠落せず返されます。
type PendingAging struct {
	RequestID     int64
	RequesterName string
	ResourceName  string
	LevelName     string
	RequestedAt   time.Time
	DaysPending   float64
	ManagerName   string
}
