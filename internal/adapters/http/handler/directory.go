package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/ogurasousui/access-request-service/internal/core/directory"
)

// DirectoryHandler は組織ディレクトリの HTTP ハンドラです。
type DirectoryHandler struct {
	svc directory.UseCase
}

// NewDirectoryHandler は DirectoryHandler を生成します。
func NewDirectoryHandler(svc directory.UseCase) *DirectoryHandler {
	return &DirectoryHandler{svc: svc}
}

type registerManagerBody struct {
	FirstName  string  `json:"first_name"`
	LastName   string  `json:"last_name"`
	Email      string  `json:"email"`
	Department string  `json:"department"`
	ManagerID  *string `json:"manager_id"`
}

type registerSubordinateBody struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Email      string `json:"email"`
	Department string `json:"department"`
	ManagerID  string `json:"manager_id"`
}

type employeeResponse struct {
	ID         string    `json:"id"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	Email      string    `json:"email"`
	Department string    `json:"department"`
	IsManager  bool      `json:"is_manager"`
	ManagerID  *string   `json:"manager_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

func toEmployeeResponse(e *directory.Employee) employeeResponse {
	return employeeResponse{
		ID:         e.ID,
		FirstName:  e.FirstName,
		LastName:   e.LastName,
		Email:      e.Email,
		Department: e.Department,
		IsManager:  e.IsManager,
		ManagerID:  e.ManagerID,
		CreatedAt:  e.CreatedAt,
	}
}

// RegisterManager は POST /api/v1/directory/managers を処理します。
func (h *DirectoryHandler) RegisterManager(c *fiber.Ctx) error {
	var body registerManagerBody
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	created, err := h.svc.RegisterManager(c.Context(), directory.RegisterManagerInput{
		FirstName:  body.FirstName,
		LastName:   body.LastName,
		Email:      body.Email,
		Department: body.Department,
		ManagerID:  body.ManagerID,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(toEmployeeResponse(created))
}

// RegisterSubordinate は POST /api/v1/directory/employees を処理します。
func (h *DirectoryHandler) RegisterSubordinate(c *fiber.Ctx) error {
	var body registerSubordinateBody
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	created, err := h.svc.RegisterSubordinate(c.Context(), directory.RegisterSubordinateInput{
		FirstName:  body.FirstName,
		LastName:   body.LastName,
		Email:      body.Email,
		Department: body.Department,
		ManagerID:  body.ManagerID,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(toEmployeeResponse(created))
}

// GetEmployee は GET /api/v1/directory/employees/:id を処理します。
func (h *DirectoryHandler) GetEmployee(c *fiber.Ctx) error {
	emp, err := h.svc.GetEmployee(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(toEmployeeResponse(emp))
}

// ListSubordinates は GET /api/v1/directory/employees/:id/subordinates を処理します。
func (h *DirectoryHandler) ListSubordinates(c *fiber.Ctx) error {
	list, err := h.svc.ListSubordinates(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}

	responses := make([]employeeResponse, 0, len(list))
	for _, e := range list {
		responses = append(responses, toEmployeeResponse(e))
	}

	return c.JSON(responses)
}
