package request

import (
	"context"
	"strings"
	"time"
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

// DirectoryLookup は組織ディレクトリへの参照です。承認権限そのものは
// ストレージの条件付き更新文の中で毎回導出されるため、ここでは申請者の
// 実在確認のみを消費します。
type DirectoryLookup interface {
	EmployeeExists(ctx context.Context, id string) (bool, error)
}

// CatalogLookup はカタログ参照データへの参照です。
type CatalogLookup interface {
	ResourceExists(ctx context.Context, id string) (bool, error)
	AccessLevelExists(ctx context.Context, id string) (bool, error)
}

const (
	// MinJustificationLength は申請理由に要求される最小文字数です。
	MinJustificationLength = 20

	// DefaultApprovalComment は承認時にコメントが省略された場合の既定文言です。
	DefaultApprovalComment = "Approved by manager."
	// CancellationComment は申請者自身による取り下げ時に記録される文言です。
	CancellationComment = "Cancelled by requester."
)

// Service はアクセス申請のライフサイクルをまとめます。AccessRequest の唯一の書き込み主体です。
type Service struct {
	repo      Repository
	directory DirectoryLookup
	catalog   CatalogLookup
	clock     Clock
	tx        TransactionManager
}

// UseCase はライフサイクルエンジンの公開インターフェースです。
type UseCase interface {
	Submit(ctx context.Context, in SubmitInput) (*AccessRequest, error)
	Decide(ctx context.Context, in DecideInput) (*AccessRequest, error)
	Cancel(ctx context.Context, in CancelInput) (*AccessRequest, error)

	GetRequest(ctx context.Context, id int64) (*AccessRequest, error)
	ListMyRequests(ctx context.Context, requesterID string) ([]*Summary, error)
	ListApprovals(ctx context.Context, managerID string) ([]*ApprovalItem, error)
	GetRequestDetail(ctx context.Context, id int64) (*Detail, error)
	AuditLog(ctx context.Context) ([]*AuditEntry, error)
	ApprovedGrants(ctx context.Context) ([]*Grant, error)
	PendingAging(ctx context.Context) ([]*PendingAging, error)
}

// NewService は Service を生成します。
func NewService(repo Repository, directory DirectoryLookup, catalog CatalogLookup, clock Clock, tx TransactionManager) *Service {
	if clock == nil {
		clock = realClock{}
	}
	if tx == nil {
		tx = noopTransactionManager{}
	}
	return &Service{repo: repo, directory: directory, catalog: catalog, clock: clock, tx: tx}
}

// SubmitInput は申請作成時の入力です。
type SubmitInput struct {
	RequesterID   string
	ResourceID    string
	LevelID       string
	Justification string
}

// DecideInput は決裁時の入力です。ActorID は認証済みの操作主体であり、
// 申請者の現在のマネージャーと一致しなければ更新は成立しません。
type DecideInput struct {
	RequestID int64
	ActorID   string
	Decision  Decision
	Comment   string
}

// CancelInput は申請者自身による取り下げ時の入力です。
type CancelInput struct {
	RequestID int64
	ActorID   string
}

// Submit は新しいアクセス申請を pending 状態で作成します。
func (s *Service) Submit(ctx context.Context, in SubmitInput) (*AccessRequest, error) {
	requesterID := strings.TrimSpace(in.RequesterID)
	if requesterID == "" {
		return nil, ErrInvalidRequesterID
	}

	justification := strings.TrimSpace(in.Justification)
	if len([]rune(justification)) < MinJustificationLength {
		return nil, ErrJustificationTooShort
	}

	var created *AccessRequest
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		exists, err := s.directory.EmployeeExists(txCtx, requesterID)
		if err != nil {
			return err
		}
		if !exists {
			return ErrRequesterNotFound
		}

		if ok, err := s.catalog.ResourceExists(txCtx, in.ResourceID); err != nil {
			return err
		} else if !ok {
			return ErrResourceNotFound
		}

		if ok, err := s.catalog.AccessLevelExists(txCtx, in.LevelID); err != nil {
			return err
		} else if !ok {
			return ErrAccessLevelNotFound
		}

		req := &AccessRequest{
			RequesterID:   requesterID,
			ResourceID:    in.ResourceID,
			LevelID:       in.LevelID,
			Justification: justification,
			Status:        StatusPending,
			CreatedAt:     s.clock.Now(),
		}

		result, err := s.repo.Insert(txCtx, req)
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

// Decide は pending 状態の申請を承認または却下します。認可述語と状態確認は
// ストレージ層の単一の条件付き更新で評価され、競合する Decide のうち
// 勝者は常に一つだけです。敗者は ErrNotDecidable を受け取ります。
func (s *Service) Decide(ctx context.Context, in DecideInput) (*AccessRequest, error) {
	if in.RequestID <= 0 {
		return nil, ErrInvalidID
	}

	actorID := strings.TrimSpace(in.ActorID)
	if actorID == "" {
		return nil, ErrInvalidActorID
	}

	var status Status
	switch in.Decision {
	case DecisionApprove:
		status = StatusApproved
	case DecisionReject:
		status = StatusRejected
	default:
		return nil, ErrInvalidDecision
	}

	comment := strings.TrimSpace(in.Comment)
	if in.Decision == DecisionReject && comment == "" {
		return nil, ErrCommentRequired
	}
	if comment == "" {
		comment = DefaultApprovalComment
	}

	var decided *AccessRequest
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		result, err := s.repo.DecideByManager(txCtx, in.RequestID, actorID, status, comment, s.clock.Now())
		if err != nil {
			return err
		}
		decided = result
		return nil
	}); err != nil {
		return nil, err
	}

	return decided, nil
}

// Cancel は申請者自身が pending 状態の申請を取り下げます。Decide と同じ
// 条件付き更新の規律に従い、認可述語だけが「申請者本人であること」に変わります。
func (s *Service) Cancel(ctx context.Context, in CancelInput) (*AccessRequest, error) {
	if in.RequestID <= 0 {
		return nil, ErrInvalidID
	}

	actorID := strings.TrimSpace(in.ActorID)
	if actorID == "" {
		return nil, ErrInvalidActorID
	}

	var cancelled *AccessRequest
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		result, err := s.repo.CancelByRequester(txCtx, in.RequestID, actorID, CancellationComment, s.clock.Now())
		if err != nil {
			return err
		}
		cancelled = result
		return nil
	}); err != nil {
		return nil, err
	}

	return cancelled, nil
}

// GetRequest は申請をIDで取得します。
func (s *Service) GetRequest(ctx context.Context, id int64) (*AccessRequest, error) {
	if id <= 0 {
		return nil, ErrInvalidID
	}

	var result *AccessRequest
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

// ListMyRequests は申請者自身の申請一覧を新しい順で返します。
func (s *Service) ListMyRequests(ctx context.Context, requesterID string) ([]*Summary, error) {
	if strings.TrimSpace(requesterID) == "" {
		return nil, ErrInvalidRequesterID
	}

	var result []*Summary
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		list, err := s.repo.ListByRequester(txCtx, requesterID)
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

// ListApprovals はマネージャー直下の部下による申請一覧を pending 優先で返します。
func (s *Service) ListApprovals(ctx context.Context, managerID string) ([]*ApprovalItem, error) {
	if strings.TrimSpace(managerID) == "" {
		return nil, ErrInvalidActorID
	}

	var result []*ApprovalItem
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		list, err := s.repo.ListForManager(txCtx, managerID)
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

// GetRequestDetail は単一申請の詳細を返します。
func (s *Service) GetRequestDetail(ctx context.Context, id int64) (*Detail, error) {
	if id <= 0 {
		return nil, ErrInvalidID
	}

	var result *Detail
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		found, err := s.repo.FindDetail(txCtx, id)
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

// AuditLog は全申請の監査ログを返します。
func (s *Service) AuditLog(ctx context.Context) ([]*AuditEntry, error) {
	var result []*AuditEntry
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		list, err := s.repo.ListAuditLog(txCtx)
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

// ApprovedGrants は承認済みアクセス権のスナップショットを返します。
func (s *Service) ApprovedGrants(ctx context.Context) ([]*Grant, error) {
	var result []*Grant
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		list, err := s.repo.ListApprovedGrants(txCtx)
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

// PendingAging は承認待ち申請の滞留レポートを返します。
func (s *Service) PendingAging(ctx context.Context) ([]*PendingAging, error) {
	var result []*PendingAging
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		list, err := s.repo.ListPendingAging(txCtx)
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
