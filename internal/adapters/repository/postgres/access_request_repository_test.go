package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/ogurasousui/access-request-service/internal/core/request"
	pgxmock "github.com/pashagolub/pgxmock/v4"
)

type stubRequestRow struct {
	scanFn func(dest ...interface{}) error
}

func (s stubRequestRow) Scan(dest ...interface{}) error {
	return s.scanFn(dest...)
}

const decideByManagerQuery = `
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
    `

const cancelByRequesterQuery = `
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
    `

const classifyExistsQuery = `SELECT EXISTS (SELECT 1 FROM access_requests WHERE id = $1)`

var requestColumns = []string{"id", "requester_id", "resource_id", "level_id", "justification", "status", "created_at", "decided_by", "decider_role", "decided_at", "decision_comment"}

func TestScanAccessRequest_Success(t *testing.T) {
	t.Parallel()

	createdAt := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	decidedAt := createdAt.Add(time.Hour)
	decidedBy := "mgr-1"
	role := "manager"
	comment := "Approved by manager."

	row := stubRequestRow{scanFn: func(dest ...interface{}) error {
		if len(dest) != 11 {
			return errors.New("unexpected dest length")
		}
		*(dest[0].(*int64)) = 42
		*(dest[1].(*string)) = "emp-1"
		*(dest[2].(*string)) = "res-1"
		*(dest[3].(*string)) = "lvl-1"
		*(dest[4].(*string)) = "Need read access for the quarterly revenue report."
		*(dest[5].(*string)) = string(request.StatusApproved)
		*(dest[6].(*time.Time)) = createdAt
		*(dest[7].(**string)) = &decidedBy
		*(dest[8].(**string)) = &role
		*(dest[9].(**time.Time)) = &decidedAt
		*(dest[10].(**string)) = &comment
		return nil
	}}

	req, err := scanAccessRequest(row)
	if err != nil {
		t.Fatalf("scanAccessRequest returned error: %v", err)
	}

	if req.ID != 42 {
		t.Fatalf("expected id 42, got %d", req.ID)
	}
	if req.Status != request.StatusApproved {
		t.Fatalf("expected approved status, got %s", req.Status)
	}
	if req.DeciderRole == nil || *req.DeciderRole != request.DeciderRoleManager {
		t.Fatalf("expected manager decider role, got %+v", req.DeciderRole)
	}
	if req.DecidedAt == nil || !req.DecidedAt.Equal(decidedAt) {
		t.Fatalf("expected decided_at, got %+v", req.DecidedAt)
	}
}

func TestScanAccessRequest_NoRows(t *testing.T) {
	t.Parallel()

	row := stubRequestRow{scanFn: func(dest ...interface{}) error {
		return pgx.ErrNoRows
	}}

	_, err := scanAccessRequest(row)
	if !errors.Is(err, request.ErrRequestNotFound) {
		t.Fatalf("expected ErrRequestNotFound, got %v", err)
	}
}

func TestTranslateRequestPgError(t *testing.T) {
	t.Parallel()

	requesterErr := &pgconn.PgError{Code: foreignKeyViolationCode, ConstraintName: requesterFKConstraint}
	if !errors.Is(translateRequestPgError(requesterErr), request.ErrRequesterNotFound) {
		t.Fatalf("expected requester fk to map to ErrRequesterNotFound")
	}

	resourceErr := &pgconn.PgError{Code: foreignKeyViolationCode, ConstraintName: resourceFKConstraint}
	if !errors.Is(translateRequestPgError(resourceErr), request.ErrResourceNotFound) {
		t.Fatalf("expected resource fk to map to ErrResourceNotFound")
	}

	levelErr := &pgconn.PgError{Code: foreignKeyViolationCode, ConstraintName: levelFKConstraint}
	if !errors.Is(translateRequestPgError(levelErr), request.ErrAccessLevelNotFound) {
		t.Fatalf("expected level fk to map to ErrAccessLevelNotFound")
	}

	other := errors.New("other")
	if translateRequestPgError(other) != other {
		t.Fatalf("unexpected translation for generic error")
	}
}

func TestAccessRequestRepository_DecideByManager_Winner(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewAccessRequestRepository(mock)

	createdAt := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	decidedAt := createdAt.Add(2 * time.Hour)
	decidedBy := "mgr-1"
	role := "manager"
	comment := "Approved by manager."

	mock.ExpectQuery(regexp.QuoteMeta(decideByManagerQuery)).
		WithArgs(string(request.StatusApproved), "mgr-1", decidedAt, comment, int64(7)).
		WillReturnRows(pgxmock.NewRows(requestColumns).
			AddRow(int64(7), "emp-1", "res-1", "lvl-1", "Need read access for the quarterly revenue report.", string(request.StatusApproved), createdAt, &decidedBy, &role, &decidedAt, &comment))

	decided, err := repo.DecideByManager(context.Background(), 7, "mgr-1", request.StatusApproved, comment, decidedAt)
	if err != nil {
		t.Fatalf("DecideByManager returned error: %v", err)
	}

	if decided.Status != request.StatusApproved {
		t.Fatalf("expected approved status, got %s", decided.Status)
	}
	if decided.DecidedBy == nil || *decided.DecidedBy != "mgr-1" {
		t.Fatalf("expected decided_by mgr-1, got %+v", decided.DecidedBy)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAccessRequestRepository_DecideByManager_LoserOnDecidedRequest(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewAccessRequestRepository(mock)
	decidedAt := time.Date(2025, 3, 1, 11, 0, 0, 0, time.UTC)

	// 条件付き更新が空振りし、行は実在するので ErrNotDecidable に落ちます。
	mock.ExpectQuery(regexp.QuoteMeta(decideByManagerQuery)).
		WithArgs(string(request.StatusRejected), "mgr-1", decidedAt, "Scope is too broad.", int64(7)).
		WillReturnRows(pgxmock.NewRows(requestColumns))
	mock.ExpectQuery(regexp.QuoteMeta(classifyExistsQuery)).
		WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	_, err = repo.DecideByManager(context.Background(), 7, "mgr-1", request.StatusRejected, "Scope is too broad.", decidedAt)
	if !errors.Is(err, request.ErrNotDecidable) {
		t.Fatalf("expected ErrNotDecidable, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAccessRequestRepository_DecideByManager_MissingRequest(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewAccessRequestRepository(mock)
	decidedAt := time.Date(2025, 3, 1, 11, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(decideByManagerQuery)).
		WithArgs(string(request.StatusApproved), "mgr-1", decidedAt, "Approved by manager.", int64(999)).
		WillReturnRows(pgxmock.NewRows(requestColumns))
	mock.ExpectQuery(regexp.QuoteMeta(classifyExistsQuery)).
		WithArgs(int64(999)).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))

	_, err = repo.DecideByManager(context.Background(), 999, "mgr-1", request.StatusApproved, "Approved by manager.", decidedAt)
	if !errors.Is(err, request.ErrRequestNotFound) {
		t.Fatalf("expected ErrRequestNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAccessRequestRepository_CancelByRequester_Winner(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewAccessRequestRepository(mock)

	createdAt := time.Date(2025, 3, 2, 9, 0, 0, 0, time.UTC)
	decidedAt := createdAt.Add(30 * time.Minute)
	decidedBy := "emp-1"
	role := "requester"
	comment := "Cancelled by requester."

	mock.ExpectQuery(regexp.QuoteMeta(cancelByRequesterQuery)).
		WithArgs("emp-1", decidedAt, comment, int64(8)).
		WillReturnRows(pgxmock.NewRows(requestColumns).
			AddRow(int64(8), "emp-1", "res-1", "lvl-1", "Need read access for the quarterly revenue report.", string(request.StatusRejected), createdAt, &decidedBy, &role, &decidedAt, &comment))

	cancelled, err := repo.CancelByRequester(context.Background(), 8, "emp-1", comment, decidedAt)
	if err != nil {
		t.Fatalf("CancelByRequester returned error: %v", err)
	}

	if !cancelled.IsCancelled() {
		t.Fatalf("expected requester cancellation, got role %+v", cancelled.DeciderRole)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAccessRequestRepository_CancelByRequester_NotOwner(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewAccessRequestRepository(mock)
	decidedAt := time.Date(2025, 3, 2, 9, 30, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(cancelByRequesterQuery)).
		WithArgs("intruder", decidedAt, "Cancelled by requester.", int64(8)).
		WillReturnRows(pgxmock.NewRows(requestColumns))
	mock.ExpectQuery(regexp.QuoteMeta(classifyExistsQuery)).
		WithArgs(int64(8)).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	_, err = repo.CancelByRequester(context.Background(), 8, "intruder", "Cancelled by requester.", decidedAt)
	if !errors.Is(err, request.ErrNotDecidable) {
		t.Fatalf("expected ErrNotDecidable, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAccessRequestRepository_Insert(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewAccessRequestRepository(mock)
	createdAt := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	query := regexp.QuoteMeta(`
        INSERT INTO access_requests (requester_id, resource_id, level_id, justification, status, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, requester_id, resource_id, level_id, justification, status, created_at, decided_by, decider_role, decided_at, decision_comment
    `)

	mock.ExpectQuery(query).
		WithArgs("emp-1", "res-1", "lvl-1", "Need read access for the quarterly revenue report.", string(request.StatusPending), createdAt).
		WillReturnRows(pgxmock.NewRows(requestColumns).
			AddRow(int64(1), "emp-1", "res-1", "lvl-1", "Need read access for the quarterly revenue report.", string(request.StatusPending), createdAt, nil, nil, nil, nil))

	created, err := repo.Insert(context.Background(), &request.AccessRequest{
		RequesterID:   "emp-1",
		ResourceID:    "res-1",
		LevelID:       "lvl-1",
		Justification: "Need read access for the quarterly revenue report.",
		Status:        request.StatusPending,
		CreatedAt:     createdAt,
	})
	if err != nil {
		t.Fatalf("Insert returned error: %v", err)
	}

	if created.ID != 1 {
		t.Fatalf("expected database-assigned id 1, got %d", created.ID)
	}
	if created.DecidedBy != nil || created.DeciderRole != nil {
		t.Fatalf("expected empty decision fields, got %+v %+v", created.DecidedBy, created.DeciderRole)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAccessRequestRepository_ListPendingAging(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewAccessRequestRepository(mock)
	requestedAt := time.Date(2025, 2, 20, 9, 0, 0, 0, time.UTC)

	query := regexp.QuoteMeta(`
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

	rows := pgxmock.NewRows([]string{"id", "requester_name", "resource_name", "level_name", "created_at", "days_pending", "manager_name"}).
		AddRow(int64(3), "Taro Yamada", "sales.orders", "read-only", requestedAt, 9.25, "Hanako Sato").
		AddRow(int64(5), "Ichiro Suzuki", "finance.invoices", "read-write", requestedAt.Add(24*time.Hour), 8.25, "")

	mock.ExpectQuery(query).WillReturnRows(rows)

	agings, err := repo.ListPendingAging(context.Background())
	if err != nil {
		t.Fatalf("ListPendingAging returned error: %v", err)
	}

	if len(agings) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(agings))
	}
	if agings[0].DaysPending != 9.25 {
		t.Fatalf("expected days_pending 9.25, got %v", agings[0].DaysPending)
	}
	if agings[1].ManagerName != "" {
		t.Fatalf("expected empty manager name for unassigned requester, got %q", agings[1].ManagerName)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAccessRequestRepository_ListForManager(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewAccessRequestRepository(mock)
	requestedAt := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	query := regexp.QuoteMeta(`
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
    `)

	rows := pgxmock.NewRows([]string{"id", "requester_name", "requester_email", "resource_name", "level_name", "justification", "status", "created_at"}).
		AddRow(int64(2), "Taro Yamada", "taro@example.com", "sales.orders", "read-only", "Need read access for the quarterly revenue report.", string(request.StatusPending), requestedAt).
		AddRow(int64(1), "Taro Yamada", "taro@example.com", "finance.invoices", "read-write", "Month-end close requires write access to invoices.", string(request.StatusApproved), requestedAt.Add(-time.Hour))

	mock.ExpectQuery(query).WithArgs("mgr-1").WillReturnRows(rows)

	items, err := repo.ListForManager(context.Background(), "mgr-1")
	if err != nil {
		t.Fatalf("ListForManager returned error: %v", err)
	}

	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].Status != request.StatusPending {
		t.Fatalf("expected pending item first, got %s", items[0].Status)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
