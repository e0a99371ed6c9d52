package handler

import (
	"log/slog"

	"github.com/AnthoniusHendriyanto/blogger-auth/config"
	"github.com/gofiber/fiber/v2"
)

type RouteDeps struct {
	Auth          *AuthHandler
	Security      *SecurityHandler
	Users         *UserHandler
	Limiter       RateLimiter
	Authenticator Authenticator
	BasicAuth     config.BasicAuthConfig
	Log           *slog.Logger
}

func RegisterRoutes(app *fiber.App, d RouteDeps) {
	limit := RateLimit(d.Limiter, d.Log)
	refresh := RequireRefreshCookie(d.Authenticator)

	auth := app.Group("/auth")
	auth.Post("/login", limit, d.Auth.Login)
	auth.Post("/registration", limit, d.Auth.Register)
	auth.Post("/registration-confirmation", limit, d.Auth.ConfirmRegistration)
	auth.Post("/registration-email-resending", limit, d.Auth.ResendConfirmation)
	auth.Post("/password-recovery", limit, d.Auth.PasswordRecovery)
	auth.Post("/new-password", limit, d.Auth.NewPassword)
	auth.Post("/refresh-token", d.Auth.RefreshToken)
	auth.Post("/logout", d.Auth.Logout)
	auth.Get("/me", RequireBearer(d.Authenticator), d.Auth.Me)

	security := app.Group("/security/devices", refresh)
	security.Get("/", d.Security.ListDevices)
	security.Delete("/", d.Security.TerminateOtherDevices)
	security.Delete("/:id", d.Security.TerminateDevice)

	app.Post("/users", RequireBasicAuth(d.BasicAuth), d.Users.CreateUser)
}
