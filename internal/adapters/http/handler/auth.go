package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/ogurasousui/access-request-service/internal/adapters/http/middleware"
	"github.com/ogurasousui/access-request-service/internal/core/directory"
)

// AuthHandler はトークン発行の HTTP ハンドラです。資格情報の検証自体は
// 外部の認証基盤に委ねており、ここではディレクトリ上の従業員にのみ発行します。
type AuthHandler struct {
	directory directory.UseCase
	secret    string
	tokenTTL  time.Duration
}

// NewAuthHandler は AuthHandler を生成します。
func NewAuthHandler(dir directory.UseCase, secret string, tokenTTL time.Duration) *AuthHandler {
	return &AuthHandler{directory: dir, secret: secret, tokenTTL: tokenTTL}
}

type issueTokenBody struct {
	Email string `json:"email"`
}

type issueTokenResponse struct {
	Token      string `json:"token"`
	EmployeeID string `json:"employee_id"`
	IsManager  bool   `json:"is_manager"`
}

// IssueToken は POST /api/v1/auth/token を処理します。
func (h *AuthHandler) IssueToken(c *fiber.Ctx) error {
	var body issueTokenBody
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	emp, err := h.directory.GetEmployeeByEmail(c.Context(), body.Email)
	if err != nil {
		return respondError(c, err)
	}

	token, err := middleware.IssueToken(h.secret, emp.ID, h.tokenTTL, time.Now().UTC())
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(issueTokenResponse{
		Token:      token,
		EmployeeID: emp.ID,
		IsManager:  emp.IsManager,
	})
}
