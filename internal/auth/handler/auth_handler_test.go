package handler_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/AnthoniusHendriyanto/blogger-auth/pkg/constant"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterConfirmLoginMe(t *testing.T) {
	ta := newTestApp(t)
	ta.registerConfirmed(t, "alice", "alice@example.com")

	resp := ta.do(t, http.MethodPost, "/auth/login", fiber.Map{"loginOrEmail": "alice@example.com", "password": "pw123456"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	cookie := refreshCookie(t, resp)
	assert.True(t, cookie.HttpOnly)
	assert.True(t, cookie.Secure)
	assert.NotEmpty(t, cookie.Value)

	var body map[string]interface{}
	decode(t, resp, &body)
	token, ok := body["accessToken"].(string)
	require.True(t, ok)

	resp = ta.do(t, http.MethodGet, "/auth/me", nil, withBearer(token))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var me map[string]string
	decode(t, resp, &me)
	assert.Equal(t, "alice", me["login"])
	assert.Equal(t, "alice@example.com", me["email"])
	assert.NotEmpty(t, me["userId"])
}

func TestRegister_Validation(t *testing.T) {
	ta := newTestApp(t)

	resp := ta.do(t, http.MethodPost, "/auth/registration", fiber.Map{"login": "a!", "password": "pw123456", "email": "not-an-email"})

	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.ElementsMatch(t, []string{"login", "email"}, fieldsOf(t, resp))
	assert.Empty(t, ta.users.Accounts)
}

func TestRegister_LoginTaken(t *testing.T) {
	ta := newTestApp(t)
	ta.registerConfirmed(t, "alice", "alice@example.com")

	resp := ta.do(t, http.MethodPost, "/auth/registration", fiber.Map{"login": "alice", "password": "pw123456", "email": "other@example.com"})

	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, []string{"login"}, fieldsOf(t, resp))
}

func TestRegister_DeliveryFailed(t *testing.T) {
	ta := newTestApp(t)
	ta.mailer.SendErr = errors.New("smtp down")

	resp := ta.do(t, http.MethodPost, "/auth/registration", fiber.Map{"login": "bob", "password": "pw123456", "email": "bob@example.com"})

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Len(t, ta.users.Accounts, 1, "account is kept for a later resend")
}

func TestConfirmation_UnknownCode(t *testing.T) {
	ta := newTestApp(t)

	resp := ta.do(t, http.MethodPost, "/auth/registration-confirmation", fiber.Map{"code": "nope"})

	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, []string{"code"}, fieldsOf(t, resp))
}

func TestResend(t *testing.T) {
	ta := newTestApp(t)

	resp := ta.do(t, http.MethodPost, "/auth/registration-email-resending", fiber.Map{"email": "ghost@example.com"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, []string{"email"}, fieldsOf(t, resp))

	resp = ta.do(t, http.MethodPost, "/auth/registration", fiber.Map{"login": "bob", "password": "pw123456", "email": "bob@example.com"})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	first, _ := ta.mailer.Last()

	resp = ta.do(t, http.MethodPost, "/auth/registration-email-resending", fiber.Map{"email": "bob@example.com"})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	second, _ := ta.mailer.Last()
	assert.NotEqual(t, first.Code, second.Code)

	resp = ta.do(t, http.MethodPost, "/auth/registration-confirmation", fiber.Map{"code": second.Code})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = ta.do(t, http.MethodPost, "/auth/registration-email-resending", fiber.Map{"email": "bob@example.com"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, []string{"email"}, fieldsOf(t, resp), "already confirmed is reported on the email field")
}

func TestPasswordRecovery(t *testing.T) {
	ta := newTestApp(t)
	ta.registerConfirmed(t, "carol", "carol@example.com")

	resp := ta.do(t, http.MethodPost, "/auth/password-recovery", fiber.Map{"email": "ghost@example.com"})
	assert.Equal(t, http.StatusNoContent, resp.StatusCode, "unknown emails are not disclosed")

	resp = ta.do(t, http.MethodPost, "/auth/password-recovery", fiber.Map{"email": "carol@example.com"})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	mail, ok := ta.mailer.Last()
	require.True(t, ok)
	require.True(t, mail.Recovery)

	resp = ta.do(t, http.MethodPost, "/auth/new-password", fiber.Map{"recoveryCode": "wrong", "newPassword": "newpass1"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, []string{"recoveryCode"}, fieldsOf(t, resp))

	resp = ta.do(t, http.MethodPost, "/auth/new-password", fiber.Map{"recoveryCode": mail.Code, "newPassword": "short"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, []string{"newPassword"}, fieldsOf(t, resp))

	resp = ta.do(t, http.MethodPost, "/auth/new-password", fiber.Map{"recoveryCode": mail.Code, "newPassword": "newpass1"})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	ta.ledger.Attempts = nil
	resp = ta.do(t, http.MethodPost, "/auth/login", fiber.Map{"loginOrEmail": "carol", "password": "newpass1"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	ta := newTestApp(t)
	ta.registerConfirmed(t, "alice", "alice@example.com")

	resp := ta.do(t, http.MethodPost, "/auth/login", fiber.Map{"loginOrEmail": "alice", "password": "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = ta.do(t, http.MethodPost, "/auth/login", fiber.Map{"loginOrEmail": "nobody", "password": "pw123456"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLogin_InvalidBody(t *testing.T) {
	ta := newTestApp(t)

	resp := ta.do(t, http.MethodPost, "/auth/login", fiber.Map{"loginOrEmail": "", "password": ""})

	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.ElementsMatch(t, []string{"loginOrEmail", "password"}, fieldsOf(t, resp))
}

func TestRateLimit(t *testing.T) {
	ta := newTestApp(t)

	for i := 0; i < 5; i++ {
		resp := ta.do(t, http.MethodPost, "/auth/login", fiber.Map{"loginOrEmail": "nobody", "password": "pw123456"})
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode, "attempt %d", i+1)
	}

	resp := ta.do(t, http.MethodPost, "/auth/login", fiber.Map{"loginOrEmail": "nobody", "password": "pw123456"})
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)

	resp = ta.do(t, http.MethodPost, "/auth/password-recovery", fiber.Map{"email": "ghost@example.com"})
	assert.Equal(t, http.StatusNoContent, resp.StatusCode, "other routes keep their own budget")
}

func TestRefreshAndLogout(t *testing.T) {
	ta := newTestApp(t)
	ta.registerConfirmed(t, "dave", "dave@example.com")
	session := ta.login(t, "dave")

	resp := ta.do(t, http.MethodPost, "/auth/refresh-token", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = ta.do(t, http.MethodPost, "/auth/refresh-token", nil, withCookie("garbage"))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = ta.do(t, http.MethodPost, "/auth/refresh-token", nil, withCookie(session.refreshToken))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	rotated := refreshCookie(t, resp).Value
	assert.NotEqual(t, session.refreshToken, rotated)
	assert.Equal(t, 1, ta.sessions.Count())

	resp = ta.do(t, http.MethodPost, "/auth/logout", nil, withCookie(rotated))
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	for _, c := range resp.Cookies() {
		if c.Name == constant.RefreshTokenCookie {
			assert.Empty(t, c.Value)
		}
	}
	assert.Zero(t, ta.sessions.Count())

	resp = ta.do(t, http.MethodPost, "/auth/refresh-token", nil, withCookie(rotated))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = ta.do(t, http.MethodPost, "/auth/logout", nil, withCookie(rotated))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestMe_RequiresBearer(t *testing.T) {
	ta := newTestApp(t)
	ta.registerConfirmed(t, "erin", "erin@example.com")
	session := ta.login(t, "erin")

	tests := []struct {
		name   string
		header string
	}{
		{name: "missing header", header: ""},
		{name: "wrong scheme", header: "Basic " + session.accessToken},
		{name: "no token", header: "Bearer "},
		{name: "refresh token as access", header: "Bearer " + session.refreshToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ta.do(t, http.MethodGet, "/auth/me", nil, func(r *http.Request) {
				if tt.header != "" {
					r.Header.Set("Authorization", tt.header)
				}
			})
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		})
	}
}
