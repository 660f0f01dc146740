package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ci-water/adhydro-streamflow/internal/web/session"
)

// Middleware is a Fiber middleware that loads the session user, if any.
func Middleware(c *fiber.Ctx) error {
	loginCookie := c.Cookies(session.CookieName)
	if loginCookie == "" {
		return c.Next()
	}

	sessData := new(session.Data)
	if err := sessData.Read(loginCookie); err != nil {
		return c.Next()
	}

	if sessData.User.ID > 0 {
		c.Locals(session.LocalUser, sessData.User)
	}

	return c.Next()
}

// CurrentUser returns the session user stored by Middleware.
func CurrentUser(c *fiber.Ctx) (session.User, bool) {
	user, ok := c.Locals(session.LocalUser).(session.User)

	return user, ok && user.ID > 0
}
