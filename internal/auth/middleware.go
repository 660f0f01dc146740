package auth

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/ci-water/adhydro-streamflow/internal/web/session"
)

// RequireStaff creates Fiber middleware that only lets active staff users and superusers pass.
// The user is reloaded on every request so a revoked flag takes effect at once.
func RequireStaff(authService *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sessionID := c.Cookies(session.CookieName)
		if sessionID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
		}

		sessionData := new(session.Data)
		if err := sessionData.Read(sessionID); err != nil || sessionData.User.ID == 0 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
		}

		user, err := authService.User(sessionData.User.ID)
		if err != nil {
			log.Warn().Err(err).Uint64("user_id", sessionData.User.ID).Msg("session user not found")

			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
		}

		if !user.CanAdminister() {
			log.Warn().Uint64("user_id", user.ID).Str("path", c.Path()).Msg("user is not staff")

			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Forbidden: You don't have permission to access this resource",
			})
		}

		return c.Next()
	}
}
