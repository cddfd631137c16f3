package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/ogurasousui/access-request-service/internal/core/catalog"
	"github.com/ogurasousui/access-request-service/internal/core/directory"
	"github.com/ogurasousui/access-request-service/internal/core/request"
)

// notDecidableMessage は統一エラーの利用者向け文言です。原因を区別しません。
const notDecidableMessage = "this request can no longer be acted on"

func respondError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, request.ErrNotDecidable):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": notDecidableMessage})
	case errors.Is(err, request.ErrJustificationTooShort),
		errors.Is(err, request.ErrCommentRequired),
		errors.Is(err, request.ErrInvalidDecision),
		errors.Is(err, request.ErrInvalidID),
		errors.Is(err, request.ErrInvalidRequesterID),
		errors.Is(err, request.ErrInvalidActorID),
		errors.Is(err, directory.ErrInvalidID),
		errors.Is(err, directory.ErrInvalidEmail),
		errors.Is(err, directory.ErrInvalidName),
		errors.Is(err, directory.ErrInvalidDepartment),
		errors.Is(err, directory.ErrNotAManager),
		errors.Is(err, catalog.ErrInvalidID),
		errors.Is(err, catalog.ErrInvalidSchemaName),
		errors.Is(err, catalog.ErrInvalidTableName),
		errors.Is(err, catalog.ErrInvalidLevelName):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, request.ErrRequestNotFound),
		errors.Is(err, request.ErrRequesterNotFound),
		errors.Is(err, request.ErrResourceNotFound),
		errors.Is(err, request.ErrAccessLevelNotFound),
		errors.Is(err, directory.ErrEmployeeNotFound),
		errors.Is(err, directory.ErrManagerNotFound),
		errors.Is(err, catalog.ErrResourceNotFound),
		errors.Is(err, catalog.ErrAccessLevelNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, directory.ErrEmailAlreadyExists),
		errors.Is(err, catalog.ErrResourceAlreadyExists),
		errors.Is(err, catalog.ErrAccessLevelAlreadyExists):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
}
