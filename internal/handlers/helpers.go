package handlers

import (
	"errors"
	"strings"

	"github.com/assetshare/backend/internal/middleware"
	"github.com/assetshare/backend/internal/services"
	"github.com/assetshare/backend/pkg/logger"
	"github.com/assetshare/backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func parseUUID(value string) (uuid.UUID, error) {
	return uuid.Parse(strings.TrimSpace(value))
}

// parseAssetID treats a malformed id like an unknown one.
func parseAssetID(c *fiber.Ctx) (uuid.UUID, bool) {
	id, err := parseUUID(c.Params("id"))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func statusForKind(kind services.ErrorKind) int {
	switch kind {
	case services.KindValidation, services.KindConflict:
		return fiber.StatusBadRequest
	case services.KindAuth:
		return fiber.StatusUnauthorized
	case services.KindPaymentRequired:
		return fiber.StatusPaymentRequired
	case services.KindNotFound:
		return fiber.StatusNotFound
	case services.KindTooLarge:
		return fiber.StatusRequestEntityTooLarge
	default:
		return fiber.StatusInternalServerError
	}
}

// respondError is the one place service errors become HTTP responses.
// Causes of server errors are logged, never sent.
func respondError(c *fiber.Ctx, action string, err error) error {
	var svcErr *services.Error
	if !errors.As(err, &svcErr) {
		svcErr = &services.Error{Kind: services.KindServer, Message: "Server error", Err: err}
	}

	status := statusForKind(svcErr.Kind)
	if status == fiber.StatusInternalServerError {
		details := map[string]interface{}{
			"path":   c.Path(),
			"method": c.Method(),
		}
		if identity := middleware.GetIdentity(c); identity != uuid.Nil {
			logger.ErrorWithUser(identity.String(), action, err, details)
		} else {
			logger.Error(action, err, details)
		}
	}

	return utils.Error(c, status, svcErr.Message)
}
