package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/ogurasousui/access-request-service/internal/core/request"
	pgdb "github.com/ogurasousui/access-request-service/internal/platform/db/postgres"
)

const (
	requesterFKConstraint = "access_requests_requester_id_fkey"
	resourceFKConstraint  = "access_requests_resource_id_fkey"
	levelFKConstraint     = "access_requests_level_id_fkey"
)

// AccessRequestRepository は PostgreSQL を利用したアクセス申請永続化の実装です。
type AccessRequestRepository struct {
	pool pgdb.Queryer
}

// NewAccessRequestRepository は AccessRequestRepository を生成します。
func NewAccessRequestRepository(pool pgdb.Queryer) *AccessRequestRepository {
	return &AccessRequestRepository{pool: pool}
}

// Insert は申請を pending 状態で新規作成します。IDはデータベースが採番します。
func (r *AccessRequestRepository) Insert(ctx context.Context, req *request.AccessRequest) (*request.AccessRequest, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO access_requests (requester_id, resource_id, level_id, justification, status, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, requester_id, resource_id, level_id, justification, status, created_at, decided_by, decider_role, decided_at, decision_comment
    `,
		req.RequesterID,
		req.ResourceID,
		req.LevelID,
		req.Justification,
		string(req.Status),
		req.CreatedAt,
	)

	created, err := scanAccessRequest(row)
	if err != nil {
		return nil, translateRequestPgError(err)
	}
	return created, nil
}

// FindByID はIDで申請を取得します。
func (r *AccessRequestRepository) FindByID(ctx context.Context, id int64) (*request.AccessRequest, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT id, requester_id, resource_id, level_id, justification, status, created_at, decided_by, decider_role, decided_at, decision_comment
          FROM access_requests
         WHERE id = $1
         LIMIT 1
    `, id)

	found, err := scanAccessRequest(row)
	if err != nil {
		return nil, translateRequestPgError(err)
	}
	return found, nil
}

// DecideByManager は pending 状態の申請を承認または却下します。状態確認と
// 「操作主体が申請者の現在のマネージャーであること」の認可述語を単一の
// 条件付き更新文で評価するため、競合する決裁の勝者は常に一つだけです。
func (r *AccessRequestRepository) DecideByManager(ctx context.Context, id int64, managerID string, status request.Status, comment string, decidedAt time.Time) (*request.AccessRequest, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        UPDATE access_requests AS ar
           SET status = $1,
               decided_by = $2,
               decider_role = 'manager',
               decided_at = $3,
               decision_comment = $4
         WHERE ar.id = $5
           AND ar.status = 'pending'
           AND EXISTS (
               SELECT 1
                 FROM employees e
                WHERE e.id = ar.requester_id
                  AND e.manager_id = $2
           )
        RETURNING ar.id, ar.requester_id, ar.resource_id, ar.level_id, ar.justification, ar.status, ar.created_at, ar.decided_by, ar.decider_role, ar.decided_at, ar.decision_comment
    `, string(status), managerID, decidedAt, comment, id)

	decided, err := scanAccessRequest(row)
	if err != nil {
		if errors.Is(err, request.ErrRequestNotFound) {
			return nil, r.classifyNoEffect(ctx, id)
		}
		return nil, translateRequestPgError(err)
	}
	return decided, nil
}

// CancelByRequester は申請者本人が pending 状態の申請を取り下げます。
// DecideByManager と同じ条件付き更新の規律で、認可述語だけが申請者本人に変わります。
func (r *AccessRequestRepository) CancelByRequester(ctx context.Context, id int64, requesterID string, comment string, decidedAt time.Time) (*request.AccessRequest, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        UPDATE access_requests AS ar
           SET status = 'rejected',
               decided_by = $1,
               decider_role = 'requester',
               decided_at = $2,
               decision_comment = $3
         WHERE ar.id = $4
           AND ar.requester_id = $1
           AND ar.status = 'pending'
        RETURNING ar.id, ar.requester_id, ar.resource_id, ar.level_id, ar.justification, ar.status, ar.created_at, ar.decided_by, ar.decider_role, ar.decided_at, ar.decision_comment
    `, requesterID, decidedAt, comment, id)

	cancelled, err := scanAccessRequest(row)
	if err != nil {
		if errors.Is(err, request.ErrRequestNotFound) {
			return nil, r.classifyNoEffect(ctx, id)
		}
		return nil, translateRequestPgError(err)
	}
	return cancelled, nil
}

// classifyNoEffect は条件付き更新が行に影響しなかった場合の失敗理由を切り分けます。
// 申請行は削除されないため、実在確認だけであれば更新の後から行っても安全です。
func (r *AccessRequestRepository) classifyNoEffect(ctx context.Context, id int64) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)

	var exists bool
	if err := exec.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM access_requests WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return request.ErrRequestNotFound
	}
	return request.ErrNotDecidable
}

// ListByRequester は申請者自身の申請一覧を新しい順で返します。
func (r *AccessRequestRepository) ListByRequester(ctx context.Context, requesterID string) ([]*request.Summary, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT ar.id,
               res.schema_name || '.' || res.table_name AS resource_name,
               al.name AS level_name,
               ar.justification,
               ar.status,
               ar.created_at,
               COALESCE(dec.first_name || ' ' || dec.last_name, '') AS decider_name,
               ar.decided_at,
               ar.decision_comment
          FROM access_requests ar
          JOIN resources res ON res.id = ar.resource_id
          JOIN access_levels al ON al.id = ar.level_id
          LEFT JOIN employees dec ON dec.id = ar.decided_by
         WHERE ar.requester_id = $1
         ORDER BY ar.created_at DESC, ar.id DESC
    `, requesterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []*request.Summary
	for rows.Next() {
		var (
			s      request.Summary
			status string
		)
		if err := rows.Scan(&s.RequestID, &s.ResourceName, &s.LevelName, &s.Justification, &status, &s.RequestedAt, &s.DeciderName, &s.DecidedAt, &s.DecisionComment); err != nil {
			return nil, err
		}
		s.Status = request.Status(status)
		summaries = append(summaries, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return summaries, nil
}

// ListForManager はマネージャー直下の部下による申請一覧を pending 優先・新しい順で返します。
func (r *AccessRequestRepository) ListForManager(ctx context.Context, managerID string) ([]*request.ApprovalItem, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT ar.id,
               req.first_name || ' ' || req.last_name AS requester_name,
               req.email AS requester_email,
               res.schema_name || '.' || res.table_name AS resource_name,
               al.name AS level_name,
               ar.justification,
               ar.status,
               ar.created_at
          FROM access_requests ar
          JOIN employees req ON req.id = ar.requester_id
          JOIN resources res ON res.id = ar.resource_id
          JOIN access_levels al ON al.id = ar.level_id
         WHERE req.manager_id = $1
         ORDER BY CASE ar.status WHEN 'pending' THEN 0 ELSE 1 END, ar.created_at DESC
    `, managerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*request.ApprovalItem
	for rows.Next() {
		var (
			item   request.ApprovalItem
			status string
		)
		if err := rows.Scan(&item.RequestID, &item.RequesterName, &item.RequesterEmail, &item.ResourceName, &item.LevelName, &item.Justification, &status, &item.RequestedAt); err != nil {
			return nil, err
		}
		item.Status = request.Status(status)
		items = append(items, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

// FindDetail は単一申請の詳細を取得します。
func (r *AccessRequestRepository) FindDetail(ctx context.Context, id int64) (*request.Detail, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT ar.id,
               req.first_name || ' ' || req.last_name AS requester_name,
               req.email AS requester_email,
               req.department AS requester_department,
               res.schema_name || '.' || res.table_name AS resource_name,
               res.description AS resource_description,
               al.name AS level_name,
               al.description AS level_description,
               ar.justification,
               ar.status,
               ar.created_at,
               COALESCE(dec.first_name || ' ' || dec.last_name, '') AS decider_name,
               ar.decided_at,
               ar.decision_comment
          FROM access_requests ar
          JOIN employees req ON req.id = ar.requester_id
          JOIN resources res ON res.id = ar.resource_id
          JOIN access_levels al ON al.id = ar.level_id
          LEFT JOIN employees dec ON dec.id = ar.decided_by
         WHERE ar.id = $1
         LIMIT 1
    `, id)

	var (
		d      request.Detail
		status string
	)
	if err := row.Scan(&d.RequestID, &d.RequesterName, &d.RequesterEmail, &d.RequesterDepartment, &d.ResourceName, &d.ResourceDescription, &d.LevelName, &d.LevelDescription, &d.Justification, &status, &d.RequestedAt, &d.DeciderName, &d.DecidedAt, &d.DecisionComment); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, request.ErrRequestNotFound
		}
		return nil, err
	}
	d.Status = request.Status(status)

	return &d, nil
}

// ListAuditLog は全申請の監査ログを申請ID降順で返します。
func (r *AccessRequestRepository) ListAuditLog(ctx context.Context) ([]*request.AuditEntry, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT ar.id,
               req.first_name || ' ' || req.last_name AS requester_name,
               req.department AS requester_department,
               res.schema_name || '.' || res.table_name AS resource_name,
               al.name AS level_name,
               ar.justification,
               ar.status,
               ar.created_at,
               COALESCE(dec.first_name || ' ' || dec.last_name, '') AS decider_name,
               ar.decider_role,
               ar.decided_at,
               ar.decision_comment
          FROM access_requests ar
          JOIN employees req ON req.id = ar.requester_id
          JOIN resources res ON res.id = ar.resource_id
          JOIN access_levels al ON al.id = ar.level_id
          LEFT JOIN employees dec ON dec.id = ar.decided_by
         ORDER BY ar.id DESC
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*request.AuditEntry
	for rows.Next() {
		var (
			e           request.AuditEntry
			status      string
			deciderRole *string
		)
		if err := rows.Scan(&e.RequestID, &e.RequesterName, &e.RequesterDepartment, &e.ResourceName, &e.LevelName, &e.Justification, &status, &e.RequestedAt, &e.DeciderName, &deciderRole, &e.DecidedAt, &e.DecisionComment); err != nil {
			return nil, err
		}
		e.Status = request.Status(status)
		if deciderRole != nil {
			role := request.DeciderRole(*deciderRole)
			e.DeciderRole = &role
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

// ListApprovedGrants は承認済みアクセス権のスナップショットを従業員名順で返します。
func (r *AccessRequestRepository) ListApprovedGrants(ctx context.Context) ([]*request.Grant, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT req.first_name || ' ' || req.last_name AS employee_name,
               req.email AS employee_email,
               req.department,
               res.schema_name || '.' || res.table_name AS resource_name,
               al.name AS level_name,
               ar.decided_at,
               COALESCE(dec.first_name || ' ' || dec.last_name, '') AS approved_by
          FROM access_requests ar
          JOIN employees req ON req.id = ar.requester_id
          JOIN resources res ON res.id = ar.resource_id
          JOIN access_levels al ON al.id = ar.level_id
          LEFT JOIN employees dec ON dec.id = ar.decided_by
         WHERE ar.status = 'approved'
         ORDER BY req.last_name, req.first_name, res.schema_name, res.table_name
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var grants []*request.Grant
	for rows.Next() {
		var g request.Grant
		if err := rows.Scan(&g.EmployeeName, &g.EmployeeEmail, &g.Department, &g.ResourceName, &g.LevelName, &g.ApprovedAt, &g.ApprovedBy); err != nil {
			return nil, err
		}
		grants = append(grants, &g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return grants, nil
}

// ListPendingAging は承認待ち申請の滞留レポートを古い順で返します。
// マネージャーが未割り当ての申請者も欠落せず含まれます。
func (r *AccessRequestRepository) ListPendingAging(ctx context.Context) ([]*request.PendingAging, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT ar.id,
               req.first_name || ' ' || req.last_name AS requester_name,
               res.schema_name || '.' || res.table_name AS resource_name,
               al.name AS level_name,
               ar.created_at,
               ROUND(EXTRACT(EPOCH FROM (NOW() - ar.created_at)) / 86400, 2)::float8 AS days_pending,
               COALESCE(mgr.first_name || ' ' || mgr.last_name, '') AS manager_name
          FROM access_requests ar
          JOIN employees req ON req.id = ar.requester_id
          JOIN resources res ON res.id = ar.resource_id
          JOIN access_levels al ON al.id = ar.level_id
          LEFT JOIN employees mgr ON mgr.id = req.manager_id
         WHERE ar.status = 'pending'
         ORDER BY ar.created_at ASC
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var agings []*request.PendingAging
	for rows.Next() {
		var a request.PendingAging
		if err := rows.Scan(&a.RequestID, &a.RequesterName, &a.ResourceName, &a.LevelName, &a.RequestedAt, &a.DaysPending, &a.ManagerName); err != nil {
			return nil, err
		}
		agings = append(agings, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return agings, nil
}

func scanAccessRequest(row pgx.Row) (*request.AccessRequest, error) {
	var (
		id              int64
		requesterID     string
		resourceID      string
		levelID         string
		justification   string
		status          string
		createdAt       time.Time
		decidedBy       *string
		deciderRole     *string
		decidedAt       *time.Time
		decisionComment *string
	)

	if err := row.Scan(&id, &requesterID, &resourceID, &levelID, &justification, &status, &createdAt, &decidedBy, &deciderRole, &decidedAt, &decisionComment); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, request.ErrRequestNotFound
		}
		return nil, err
	}

	req := &request.AccessRequest{
		ID:              id,
		RequesterID:     requesterID,
		ResourceID:      resourceID,
		LevelID:         levelID,
		Justification:   justification,
		Status:          request.Status(status),
		CreatedAt:       createdAt,
		DecidedBy:       decidedBy,
		DecidedAt:       decidedAt,
		DecisionComment: decisionComment,
	}
	if deciderRole != nil {
		role := request.DeciderRole(*deciderRole)
		req.DeciderRole = &role
	}

	return req, nil
}

func translateRequestPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == foreignKeyViolationCode {
			switch pgErr.ConstraintName {
			case requesterFKConstraint:
				return request.ErrRequesterNotFound
			case resourceFKConstraint:
				return request.ErrResourceNotFound
			case levelFKConstraint:
				return request.ErrAccessLevelNotFound
			}
		}
	}
	return err
}
