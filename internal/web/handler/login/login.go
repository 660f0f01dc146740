// Package login opens a session for a local user.
package login

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/ci-water/adhydro-streamflow/internal/auth"
	"github.com/ci-water/adhydro-streamflow/internal/config"
	"github.com/ci-water/adhydro-streamflow/internal/web/handler"
	authmiddleware "github.com/ci-water/adhydro-streamflow/internal/web/middleware/auth"
	"github.com/ci-water/adhydro-streamflow/internal/web/session"
)

const (
	// Path is the path of the login route.
	Path = handler.RootPath + "login"

	msgInvalidCredentials = "Invalid username or password"
	msgAccountDisabled    = "User account is disabled"
)

type formInput struct {
	Username string `form:"username" json:"username" validate:"required,max=100"`
	Password string `form:"password" json:"password" validate:"required"`
}

// Service is the login handler service.
type Service struct {
	cfg         *config.Config
	authService *auth.Service
	validator   handler.XValidator
}

// Handler is the login handler.
var Handler = Service{} //nolint:gochecknoglobals

var _ handler.Service = (*Service)(nil)

// Init initializes the login handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB) error {
	if app == nil || cfg == nil || db == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg) //nolint:goerr113
	}

	s.cfg = cfg
	s.authService = auth.NewService(db)

	app.Route(Path, func(router fiber.Router) {
		router.Get(handler.RouterRootPath, s.Get)
		router.Post(handler.RouterRootPath, s.Post)
	})

	return nil
}

// Get returns the user of the current session.
func (s *Service) Get(c *fiber.Ctx) error {
	current, ok := authmiddleware.CurrentUser(c)
	if !ok {
		return handler.Error(c, fiber.StatusUnauthorized, "Not logged in.")
	}

	user, err := s.authService.User(current.ID)
	if err != nil {
		return handler.Error(c, fiber.StatusUnauthorized, "Not logged in.")
	}

	return c.JSON(fiber.Map{
		"username": user.Username,
		"is_staff": user.CanAdminister(),
	})
}

// Post handles the login form submission.
func (s *Service) Post(c *fiber.Ctx) error {
	in := new(formInput)

	if err := c.BodyParser(in); err != nil {
		log.Debug().Err(err).Msg(ErrInvalidFormData.Error())

		return handler.Error(c, fiber.StatusBadRequest, msgInvalidCredentials)
	}

	if errs := s.validator.Validate(in); len(errs) > 0 {
		return handler.Error(c, fiber.StatusBadRequest, msgInvalidCredentials)
	}

	user, err := s.authService.Authenticate(in.Username, in.Password)

	switch {
	case errors.Is(err, auth.ErrUserAccountDisabled):
		return handler.Error(c, fiber.StatusForbidden, msgAccountDisabled)
	case errors.Is(err, auth.ErrUserNotFound), errors.Is(err, auth.ErrInvalidPassword), errors.Is(err, auth.ErrEmptyCredentials):
		log.Info().Str("username", in.Username).Msg(ErrInvalidCredentials.Error())

		return handler.Error(c, fiber.StatusUnauthorized, msgInvalidCredentials)
	case err != nil:
		return handler.Internal(c, err, "login failed")
	}

	sessionID, err := session.GenerateSessionID()
	if err != nil {
		return handler.Internal(c, err, "failed to generate session ID")
	}

	userSession := &session.Data{
		User: session.User{ID: user.ID, Username: user.Username},
	}

	if err = userSession.Write(sessionID, s.cfg.Webserver.Session.ExpiryTime); err != nil {
		return handler.Internal(c, err, "failed to write session")
	}

	cookieSettings := &fiber.Cookie{
		Name:     session.CookieName,
		Value:    sessionID,
		MaxAge:   int(s.cfg.Webserver.Session.ExpiryTime.Seconds()),
		Secure:   true,
		HTTPOnly: true,
		SameSite: "Lax",
	}

	if s.cfg.DevMode {
		cookieSettings.Secure = false
	}

	c.Cookie(cookieSettings)

	log.Info().Str("username", user.Username).Msg("user logged in")

	return handler.Success(c, "Logged in.", fiber.Map{
		"username": user.Username,
		"is_staff": user.CanAdminister(),
	})
}
