package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/ogurasousui/access-request-service/internal/adapters/http/middleware"
	"github.com/ogurasousui/access-request-service/internal/core/directory"
	"github.com/ogurasousui/access-request-service/internal/core/request"
)

// RequestHandler はアクセス申請ライフサイクルの HTTP ハンドラです。
// 操作主体は常に認証済みトークンから取り出し、セッション等の暗黙状態には依存しません。
type RequestHandler struct {
	svc       request.UseCase
	directory directory.UseCase
}

// NewRequestHandler は RequestHandler を生成します。
func NewRequestHandler(svc request.UseCase, dir directory.UseCase) *RequestHandler {
	return &RequestHandler{svc: svc, directory: dir}
}

type submitBody struct {
	ResourceID    string `json:"resource_id"`
	LevelID       string `json:"level_id"`
	Justification string `json:"justification"`
}

type decideBody struct {
	Decision string `json:"decision"`
	Comment  string `json:"comment"`
}

type accessRequestResponse struct {
	ID              int64      `json:"id"`
	RequesterID     string     `json:"requester_id"`
	ResourceID      string     `json:"resource_id"`
	LevelID         string     `json:"level_id"`
	Justification   string     `json:"justification"`
	Status          string     `json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
	DecidedBy       *string    `json:"decided_by,omitempty"`
	DeciderRole     *string    `json:"decider_role,omitempty"`
	DecidedAt       *time.Time `json:"decided_at,omitempty"`
	DecisionComment *string    `json:"decision_comment,omitempty"`
}

func toAccessRequestResponse(r *request.AccessRequest) accessRequestResponse {
	resp := accessRequestResponse{
		ID:              r.ID,
		RequesterID:     r.RequesterID,
		ResourceID:      r.ResourceID,
		LevelID:         r.LevelID,
		Justification:   r.Justification,
		Status:          string(r.Status),
		CreatedAt:       r.CreatedAt,
		DecidedBy:       r.DecidedBy,
		DecidedAt:       r.DecidedAt,
		DecisionComment: r.DecisionComment,
	}
	if r.DeciderRole != nil {
		role := string(*r.DeciderRole)
		resp.DeciderRole = &role
	}
	return resp
}

// Submit は POST /api/v1/requests を処理します。
func (h *RequestHandler) Submit(c *fiber.Ctx) error {
	var body submitBody
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	created, err := h.svc.Submit(c.Context(), request.SubmitInput{
		RequesterID:   middleware.EmployeeIDFromCtx(c),
		ResourceID:    body.ResourceID,
		LevelID:       body.LevelID,
		Justification: body.Justification,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(toAccessRequestResponse(created))
}

// Decide は POST /api/v1/requests/:id/decision を処理します。
func (h *RequestHandler) Decide(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request id"})
	}

	var body decideBody
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	decided, err := h.svc.Decide(c.Context(), request.DecideInput{
		RequestID: int64(id),
		ActorID:   middleware.EmployeeIDFromCtx(c),
		Decision:  request.Decision(body.Decision),
		Comment:   body.Comment,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(toAccessRequestResponse(decided))
}

// Cancel は POST /api/v1/requests/:id/cancel を処理します。
func (h *RequestHandler) Cancel(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request id"})
	}

	cancelled, err := h.svc.Cancel(c.Context(), request.CancelInput{
		RequestID: int64(id),
		ActorID:   middleware.EmployeeIDFromCtx(c),
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(toAccessRequestResponse(cancelled))
}

type summaryResponse struct {
	RequestID       int64      `json:"request_id"`
	ResourceName    string     `json:"resource_name"`
	LevelName       string     `json:"level_name"`
	Justification   string     `json:"justification"`
	Status          string     `json:"status"`
	RequestedAt     time.Time  `json:"requested_at"`
	DeciderName     string     `json:"decider_name,omitempty"`
	DecidedAt       *time.Time `json:"decided_at,omitempty"`
	DecisionComment *string    `json:"decision_comment,omitempty"`
}

// ListMine は GET /api/v1/requests/mine を処理します。
func (h *RequestHandler) ListMine(c *fiber.Ctx) error {
	list, err := h.svc.ListMyRequests(c.Context(), middleware.EmployeeIDFromCtx(c))
	if err != nil {
		return respondError(c, err)
	}

	responses := make([]summaryResponse, 0, len(list))
	for _, s := range list {
		responses = append(responses, summaryResponse{
			RequestID:       s.RequestID,
			ResourceName:    s.ResourceName,
			LevelName:       s.LevelName,
			Justification:   s.Justification,
			Status:          string(s.Status),
			RequestedAt:     s.RequestedAt,
			DeciderName:     s.DeciderName,
			DecidedAt:       s.DecidedAt,
			DecisionComment: s.DecisionComment,
		})
	}

	return c.JSON(responses)
}

type approvalItemResponse struct {
	RequestID      int64     `json:"request_id"`
	RequesterName  string    `json:"requester_name"`
	RequesterEmail string    `json:"requester_email"`
	ResourceName   string    `json:"resource_name"`
	LevelName      string    `json:"level_name"`
	Justification  string    `json:"justification"`
	Status         string    `json:"status"`
	RequestedAt    time.Time `json:"requested_at"`
}

// ListApprovals は GET /api/v1/requests/approvals を処理します。マネージャーのみ参照できます。
func (h *RequestHandler) ListApprovals(c *fiber.Ctx) error {
	actorID := middleware.EmployeeIDFromCtx(c)

	isManager, err := h.directory.IsManager(c.Context(), actorID)
	if err != nil {
		return respondError(c, err)
	}
	if !isManager {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "manager role required"})
	}

	list, err := h.svc.ListApprovals(c.Context(), actorID)
	if err != nil {
		return respondError(c, err)
	}

	responses := make([]approvalItemResponse, 0, len(list))
	for _, item := range list {
		responses = append(responses, approvalItemResponse{
			RequestID:      item.RequestID,
			RequesterName:  item.RequesterName,
			RequesterEmail: item.RequesterEmail,
			ResourceName:   item.ResourceName,
			LevelName:      item.LevelName,
			Justification:  item.Justification,
			Status:         string(item.Status),
			RequestedAt:    item.RequestedAt,
		})
	}

	return c.JSON(responses)
}

type detailResponse struct {
	RequestID           int64      `json:"request_id"`
	RequesterName       string     `json:"requester_name"`
	RequesterEmail      string     `json:"requester_email"`
	RequesterDepartment string     `json:"requester_department"`
	ResourceName        string     `json:"resource_name"`
	ResourceDescription string     `json:"resource_description"`
	LevelName           string     `json:"level_name"`
	LevelDescription    string     `json:"level_description"`
	Justification       string     `json:"justification"`
	Status              string     `json:"status"`
	RequestedAt         time.Time  `json:"requested_at"`
	DeciderName         string     `json:"decider_name,omitempty"`
	DecidedAt           *time.Time `json:"decided_at,omitempty"`
	DecisionComment     *string    `json:"decision_comment,omitempty"`
}

// GetDetail は GET /api/v1/requests/:id を処理します。
func (h *RequestHandler) GetDetail(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request id"})
	}

	d, err := h.svc.GetRequestDetail(c.Context(), int64(id))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(detailResponse{
		RequestID:           d.RequestID,
		RequesterName:       d.RequesterName,
		RequesterEmail:      d.RequesterEmail,
		RequesterDepartment: d.RequesterDepartment,
		ResourceName:        d.ResourceName,
		ResourceDescription: d.ResourceDescription,
		LevelName:           d.LevelName,
		LevelDescription:    d.LevelDescription,
		Justification:       d.Justification,
		Status:              string(d.Status),
		RequestedAt:         d.RequestedAt,
		DeciderName:         d.DeciderName,
		DecidedAt:           d.DecidedAt,
		DecisionComment:     d.DecisionComment,
	})
}

type auditEntryResponse struct {
	RequestID           int64      `json:"request_id"`
	RequesterName       string     `json:"requester_name"`
	RequesterDepartment string     `json:"requester_department"`
	ResourceName        string     `json:"resource_name"`
	LevelName           string     `json:"level_name"`
	Justification       string     `json:"justification"`
	Status              string     `json:"status"`
	RequestedAt         time.Time  `json:"requested_at"`
	DeciderName         string     `json:"decider_name,omitempty"`
	DeciderRole         *string    `json:"decider_role,omitempty"`
	DecidedAt           *time.Time `json:"decided_at,omitempty"`
	DecisionComment     *string    `json:"decision_comment,omitempty"`
}

// AuditLog は GET /api/v1/reports/audit-log を処理します。
func (h *RequestHandler) AuditLog(c *fiber.Ctx) error {
	entries, err := h.svc.AuditLog(c.Context())
	if err != nil {
		return respondError(c, err)
	}

	responses := make([]auditEntryResponse, 0, len(entries))
	for _, e := range entries {
		resp := auditEntryResponse{
			RequestID:           e.RequestID,
			RequesterName:       e.RequesterName,
			RequesterDepartment: e.RequesterDepartment,
			ResourceName:        e.ResourceName,
			LevelName:           e.LevelName,
			Justification:       e.Justification,
			Status:              string(e.Status),
			RequestedAt:         e.RequestedAt,
			DeciderName:         e.DeciderName,
			DecidedAt:           e.DecidedAt,
			DecisionComment:     e.DecisionComment,
		}
		if e.DeciderRole != nil {
			role := string(*e.DeciderRole)
			resp.DeciderRole = &role
		}
		responses = append(responses, resp)
	}

	return c.JSON(responses)
}

type grantResponse struct {
	EmployeeName  string     `json:"employee_name"`
	EmployeeEmail string     `json:"employee_email"`
	Department    string     `json:"department"`
	ResourceName  string     `json:"resource_name"`
	LevelName     string     `json:"level_name"`
	ApprovedAt    *time.Time `json:"approved_at,omitempty"`
	ApprovedBy    string     `json:"approved_by,omitempty"`
}

// ApprovedGrants は GET /api/v1/reports/permissions を処理します。
func (h *RequestHandler) ApprovedGrants(c *fiber.Ctx) error {
	grants, err := h.svc.ApprovedGrants(c.Context())
	if err != nil {
		return respondError(c, err)
	}

	responses := make([]grantResponse, 0, len(grants))
	for _, g := range grants {
		responses = append(responses, grantResponse{
			EmployeeName:  g.EmployeeName,
			EmployeeEmail: g.EmployeeEmail,
			Department:    g.Department,
			ResourceName:  g.ResourceName,
			LevelName:     g.LevelName,
			ApprovedAt:    g.ApprovedAt,
			ApprovedBy:    g.ApprovedBy,
		})
	}

	return c.JSON(responses)
}

type pendingAgingResponse struct {
	RequestID     int64     `json:"request_id"`
	RequesterName string    `json:"requester_name"`
	ResourceName  string    `json:"resource_name"`
	LevelName     string    `json:"level_name"`
	RequestedAt   time.Time `json:"requested_at"`
	DaysPending   float64   `json:"days_pending"`
	ManagerName   string    `json:"manager_name,omitempty"`
}

// PendingAging は GET /api/v1/reports/pending を処理します。
func (h *RequestHandler) PendingAging(c *fiber.Ctx) error {
	agings, err := h.svc.PendingAging(c.Context())
	if err != nil {
		return respondError(c, err)
	}

	responses := make([]pendingAgingResponse, 0, len(agings))
	for _, a := range agings {
		responses = append(responses, pendingAgingResponse{
			RequestID:     a.RequestID,
			RequesterName: a.RequesterName,
			ResourceName:  a.ResourceName,
			LevelName:     a.LevelName,
			RequestedAt:   a.RequestedAt,
			DaysPending:   a.DaysPending,
			ManagerName:   a.ManagerName,
		})
	}

	return c.JSON(responses)
}
