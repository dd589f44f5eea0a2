package middleware

import (
	"strings"

	"github.com/assetshare/backend/pkg/logger"
	"github.com/assetshare/backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/google/uuid"
)

const identityKey = "identity"

// Authenticator turns a bearer token into the user id it was issued for.
type Authenticator interface {
	Authenticate(token string) (uuid.UUID, error)
}

type AuthMiddleware struct {
	Auth Authenticator
}

func NewAuthMiddleware(auth Authenticator) *AuthMiddleware {
	return &AuthMiddleware{Auth: auth}
}

func CORS(origins []string) fiber.Handler {
	return cors.New(cors.Config{
		AllowOrigins: strings.Join(origins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	})
}

func (a *AuthMiddleware) RequireAuth(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		logger.Warn("jwt_missing_header", map[string]interface{}{
			"ip":   c.IP(),
			"path": c.Path(),
		})
		return utils.Error(c, fiber.StatusUnauthorized, "Not authorized, no token")
	}

	tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
	if tokenString == authHeader || tokenString == "" {
		logger.Warn("jwt_invalid_format", map[string]interface{}{
			"ip":          c.IP(),
			"path":        c.Path(),
			"auth_header": authHeader[:min(len(authHeader), 20)] + "...",
		})
		return utils.Error(c, fiber.StatusUnauthorized, "Not authorized, no token")
	}

	identity, err := a.Auth.Authenticate(tokenString)
	if err != nil {
		logger.Warn("jwt_validation_failed", map[string]interface{}{
			"ip":    c.IP(),
			"path":  c.Path(),
			"error": err.Error(),
		})
		return utils.Error(c, fiber.StatusUnauthorized, "Not authorized, token failed")
	}

	c.Locals(identityKey, identity)
	c.Locals(logger.UserIDKey, identity.String())
	return c.Next()
}

// GetIdentity returns uuid.Nil when the request was not authenticated.
func GetIdentity(c *fiber.Ctx) uuid.UUID {
	value, ok := c.Locals(identityKey).(uuid.UUID)
	if !ok {
		return uuid.Nil
	}
	return value
}
