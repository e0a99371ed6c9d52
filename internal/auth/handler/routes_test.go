package handler_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/AnthoniusHendriyanto/blogger-auth/internal/auth/domain"
	"github.com/AnthoniusHendriyanto/blogger-auth/internal/auth/handler"
	autherror "github.com/AnthoniusHendriyanto/blogger-auth/internal/errors"
	"github.com/AnthoniusHendriyanto/blogger-auth/internal/logger"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterRoutes(t *testing.T) {
	ta := newTestApp(t)

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/auth/login"},
		{http.MethodPost, "/auth/registration"},
		{http.MethodPost, "/auth/registration-confirmation"},
		{http.MethodPost, "/auth/registration-email-resending"},
		{http.MethodPost, "/auth/password-recovery"},
		{http.MethodPost, "/auth/new-password"},
		{http.MethodPost, "/auth/refresh-token"},
		{http.MethodPost, "/auth/logout"},
		{http.MethodGet, "/auth/me"},
		{http.MethodGet, "/security/devices"},
		{http.MethodDelete, "/security/devices"},
		{http.MethodDelete, "/security/devices/some-id"},
		{http.MethodPost, "/users"},
	}

	for _, r := range routes {
		t.Run(r.method+" "+r.path, func(t *testing.T) {
			resp := ta.do(t, r.method, r.path, nil)
			assert.NotEqual(t, http.StatusNotFound, resp.StatusCode, "route should exist")
			assert.NotEqual(t, http.StatusMethodNotAllowed, resp.StatusCode)
		})
	}
}

type limiterFunc func(ctx context.Context, ip, route string) error

func (f limiterFunc) Check(ctx context.Context, ip, route string) error { return f(ctx, ip, route) }

func TestRateLimitMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "allowed", wantStatus: http.StatusOK},
		{name: "limited", err: autherror.ErrTooManyRequests, wantStatus: http.StatusTooManyRequests},
		{name: "ledger failure", err: errors.New("database error"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotRoute string
			app := fiber.New()
			app.Post("/auth/login", handler.RateLimit(limiterFunc(func(_ context.Context, _, route string) error {
				gotRoute = route
				return tt.err
			}), logger.Discard()), func(c *fiber.Ctx) error {
				return c.SendStatus(http.StatusOK)
			})

			resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/auth/login", nil))
			require.NoError(t, err)

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, "/auth/login", gotRoute)
		})
	}
}

type stubAuthenticator struct {
	principal *domain.Principal
	err       error
}

func (s stubAuthenticator) AuthenticateAccess(context.Context, string) (*domain.Principal, error) {
	return s.principal, s.err
}

func (s stubAuthenticator) AuthenticateRefresh(context.Context, string) (*domain.Principal, error) {
	return s.principal, s.err
}

func TestRequireBearerMiddleware(t *testing.T) {
	newApp := func(auth handler.Authenticator) *fiber.App {
		app := fiber.New()
		app.Get("/protected", handler.RequireBearer(auth), func(c *fiber.Ctx) error {
			p := c.Locals("principal").(*domain.Principal)
			return c.SendString(p.UserID)
		})
		return app
	}

	t.Run("missing token", func(t *testing.T) {
		resp, err := newApp(stubAuthenticator{}).Test(httptest.NewRequest(http.MethodGet, "/protected", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("malformed header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "InvalidFormat")
		resp, err := newApp(stubAuthenticator{}).Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("rejected token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer expired")
		resp, err := newApp(stubAuthenticator{err: autherror.ErrUnauthorized}).Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("valid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer good")
		resp, err := newApp(stubAuthenticator{principal: &domain.Principal{UserID: "user-1"}}).Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})
}
