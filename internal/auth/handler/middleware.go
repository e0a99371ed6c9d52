package handler

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/AnthoniusHendriyanto/blogger-auth/config"
	"github.com/AnthoniusHendriyanto/blogger-auth/internal/auth/domain"
	"github.com/AnthoniusHendriyanto/blogger-auth/pkg/constant"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
)

type RateLimiter interface {
	Check(ctx context.Context, ip, route string) error
}

type Authenticator interface {
	AuthenticateAccess(ctx context.Context, accessToken string) (*domain.Principal, error)
	AuthenticateRefresh(ctx context.Context, refreshToken string) (*domain.Principal, error)
}

// RateLimit rejects a request once its ip has hit the route too often
// within the guard's window. The route key is the request path.
func RateLimit(limiter RateLimiter, log *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := limiter.Check(c.UserContext(), c.IP(), c.Path()); err != nil {
			return writeError(c, log, err, "")
		}
		return c.Next()
	}
}

// RequireBearer authenticates the request with the access token in the
// Authorization header.
func RequireBearer(auth Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, constant.DefaultTokenType) || token == "" {
			return c.SendStatus(fiber.StatusUnauthorized)
		}

		principal, err := auth.AuthenticateAccess(c.UserContext(), token)
		if err != nil {
			return c.SendStatus(fiber.StatusUnauthorized)
		}

		c.Locals(constant.PrincipalLocalsKey, principal)
		return c.Next()
	}
}

// RequireRefreshCookie authenticates the request with the refresh token
// cookie. The token must still belong to a live device session.
func RequireRefreshCookie(auth Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Cookies(constant.RefreshTokenCookie)
		if token == "" {
			return c.SendStatus(fiber.StatusUnauthorized)
		}

		principal, err := auth.AuthenticateRefresh(c.UserContext(), token)
		if err != nil {
			return c.SendStatus(fiber.StatusUnauthorized)
		}

		c.Locals(constant.PrincipalLocalsKey, principal)
		return c.Next()
	}
}

func RequireBasicAuth(cfg config.BasicAuthConfig) fiber.Handler {
	return basicauth.New(basicauth.Config{
		Users: map[string]string{cfg.Login: cfg.Password},
		Realm: "Restricted",
	})
}

// principalFrom returns the principal stored by one of the auth middlewares.
func principalFrom(c *fiber.Ctx) (*domain.Principal, bool) {
	p, ok := c.Locals(constant.PrincipalLocalsKey).(*domain.Principal)
	return p, ok && p != nil
}

// RequestLogger logs one line per request.
func RequestLogger(log *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		attrs := []slog.Attr{
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.Int("status", status),
			slog.Duration("latency", time.Since(start)),
			slog.String("ip", c.IP()),
		}
		level := slog.LevelInfo
		if err != nil {
			attrs = append(attrs, slog.String("error", err.Error()))
			level = slog.LevelError
		}
		log.LogAttrs(c.UserContext(), level, "request", attrs...)

		return err
	}
}
