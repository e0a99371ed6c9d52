package handler_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/AnthoniusHendriyanto/blogger-auth/config"
	"github.com/AnthoniusHendriyanto/blogger-auth/internal/auth/handler"
	"github.com/AnthoniusHendriyanto/blogger-auth/internal/auth/service"
	"github.com/AnthoniusHendriyanto/blogger-auth/internal/logger"
	"github.com/AnthoniusHendriyanto/blogger-auth/internal/testutil"
	"github.com/AnthoniusHendriyanto/blogger-auth/pkg/constant"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type testApp struct {
	app      *fiber.App
	users    *testutil.CredentialStore
	sessions *testutil.DeviceStore
	ledger   *testutil.AttemptLedger
	mailer   *testutil.Mailer
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	ta := &testApp{
		users:    testutil.NewCredentialStore(),
		sessions: testutil.NewDeviceStore(),
		ledger:   testutil.NewAttemptLedger(),
		mailer:   &testutil.Mailer{},
	}
	log := logger.Discard()

	tokens := service.NewTokenService("access-secret", "refresh-secret", time.Minute, time.Hour)
	hasher := service.NewBcryptHasher(bcrypt.MinCost)
	authService := service.NewAuthService(ta.users, ta.sessions, tokens, hasher, ta.mailer,
		service.AuthSettings{CodeTTL: 10 * time.Minute, StrictRefreshRotation: true},
		service.WithLogger(log),
	)
	userService := service.NewUserService(ta.users, hasher)
	deviceService := service.NewDeviceService(ta.sessions)
	guard := service.NewAttemptGuard(ta.ledger, 5, 10*time.Second, log)
	validator := handler.NewValidator()

	ta.app = fiber.New()
	handler.RegisterRoutes(ta.app, handler.RouteDeps{
		Auth:          handler.NewAuthHandler(authService, userService, validator, handler.CookieSettings{Secure: true, MaxAge: time.Hour}, log),
		Security:      handler.NewSecurityHandler(deviceService, log),
		Users:         handler.NewUserHandler(userService, validator, log),
		Limiter:       guard,
		Authenticator: authService,
		BasicAuth:     config.BasicAuthConfig{Login: "admin", Password: "qwerty"},
		Log:           log,
	})
	return ta
}

type requestOption func(*http.Request)

func withCookie(value string) requestOption {
	return func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: constant.RefreshTokenCookie, Value: value})
	}
}

func withBearer(token string) requestOption {
	return func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	}
}

func withBasicAuth(login, password string) requestOption {
	return func(r *http.Request) {
		r.SetBasicAuth(login, password)
	}
}

func (ta *testApp) do(t *testing.T, method, path string, body interface{}, opts ...requestOption) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, opt := range opts {
		opt(req)
	}

	resp, err := ta.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

// registerConfirmed registers and confirms an account through the API.
func (ta *testApp) registerConfirmed(t *testing.T, login, email string) {
	t.Helper()

	resp := ta.do(t, http.MethodPost, "/auth/registration", fiber.Map{"login": login, "password": "pw123456", "email": email})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	mail, ok := ta.mailer.Last()
	require.True(t, ok)
	resp = ta.do(t, http.MethodPost, "/auth/registration-confirmation", fiber.Map{"code": mail.Code})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	// Keep the rate limit out of the way of the calling test.
	ta.ledger.Attempts = nil
}

type loginResult struct {
	accessToken  string
	refreshToken string
}

func (ta *testApp) login(t *testing.T, loginOrEmail string, opts ...requestOption) loginResult {
	t.Helper()

	resp := ta.do(t, http.MethodPost, "/auth/login", fiber.Map{"loginOrEmail": loginOrEmail, "password": "pw123456"}, opts...)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		AccessToken string `json:"accessToken"`
	}
	decode(t, resp, &body)

	ta.ledger.Attempts = nil
	return loginResult{accessToken: body.AccessToken, refreshToken: refreshCookie(t, resp).Value}
}

func refreshCookie(t *testing.T, resp *http.Response) *http.Cookie {
	t.Helper()
	for _, c := range resp.Cookies() {
		if c.Name == constant.RefreshTokenCookie {
			return c
		}
	}
	t.Fatalf("response has no %s cookie", constant.RefreshTokenCookie)
	return nil
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func fieldsOf(t *testing.T, resp *http.Response) []string {
	t.Helper()

	var body handler.ErrorsResponse
	decode(t, resp, &body)

	fields := make([]string, 0, len(body.ErrorsMessages))
	for _, e := range body.ErrorsMessages {
		fields = append(fields, e.Field)
	}
	return fields
}
