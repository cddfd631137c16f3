package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/ogurasousui/access-request-service/internal/core/catalog"
)

// CatalogHandler はカタログ参照データの HTTP ハンドラです。
type CatalogHandler struct {
	svc catalog.UseCase
}

// NewCatalogHandler は CatalogHandler を生成します。
func NewCatalogHandler(svc catalog.UseCase) *CatalogHandler {
	return &CatalogHandler{svc: svc}
}

type createResourceBody struct {
	SchemaName  string `json:"schema_name"`
	TableName   string `json:"table_name"`
	Description string `json:"description"`
}

type createAccessLevelBody struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type resourceResponse struct {
	ID            string    `json:"id"`
	SchemaName    string    `json:"schema_name"`
	TableName     string    `json:"table_name"`
	QualifiedName string    `json:"qualified_name"`
	Description   string    `json:"description"`
	CreatedAt     time.Time `json:"created_at"`
}

type accessLevelResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

func toResourceResponse(r *catalog.Resource) resourceResponse {
	return resourceResponse{
		ID:            r.ID,
		SchemaName:    r.SchemaName,
		TableName:     r.TableName,
		QualifiedName: r.QualifiedName(),
		Description:   r.Description,
		CreatedAt:     r.CreatedAt,
	}
}

func toAccessLevelResponse(l *catalog.AccessLevel) accessLevelResponse {
	return accessLevelResponse{
		ID:          l.ID,
		Name:        l.Name,
		Description: l.Description,
		CreatedAt:   l.CreatedAt,
	}
}

// CreateResource は POST /api/v1/catalog/resources を処理します。
func (h *CatalogHandler) CreateResource(c *fiber.Ctx) error {
	var body createResourceBody
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	created, err := h.svc.CreateResource(c.Context(), catalog.CreateResourceInput{
		SchemaName:  body.SchemaName,
		TableName:   body.TableName,
		Description: body.Description,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(toResourceResponse(created))
}

// CreateAccessLevel は POST /api/v1/catalog/access-levels を処理します。
func (h *CatalogHandler) CreateAccessLevel(c *fiber.Ctx) error {
	var body createAccessLevelBody
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	created, err := h.svc.CreateAccessLevel(c.Context(), catalog.CreateAccessLevelInput{
		Name:        body.Name,
		Description: body.Description,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(toAccessLevelResponse(created))
}

// ListResources は GET /api/v1/catalog/resources を処理します。
func (h *CatalogHandler) ListResources(c *fiber.Ctx) error {
	list, err := h.svc.ListResources(c.Context())
	if err != nil {
		return respondError(c, err)
	}

	responses := make([]resourceResponse, 0, len(list))
	for _, r := range list {
		responses = append(responses, toResourceResponse(r))
	}

	return c.JSON(responses)
}

// ListAccessLevels は GET /api/v1/catalog/access-levels を処理します。
func (h *CatalogHandler) ListAccessLevels(c *fiber.Ctx) error {
	list, err := h.svc.ListAccessLevels(c.Context())
	if err != nil {
		return respondError(c, err)
	}

	responses := make([]accessLevelResponse, 0, len(list))
	for _, l := range list {
		responses = append(responses, toAccessLevelResponse(l))
	}

	return c.JSON(responses)
}
