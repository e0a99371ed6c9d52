package handler

import (
	"log/slog"
	"time"

	"github.com/AnthoniusHendriyanto/blogger-auth/internal/auth/dto"
	"github.com/AnthoniusHendriyanto/blogger-auth/internal/auth/service"
	"github.com/AnthoniusHendriyanto/blogger-auth/pkg/constant"
	"github.com/gofiber/fiber/v2"
)

// CookieSettings controls the refresh token cookie.
type CookieSettings struct {
	Secure bool
	MaxAge time.Duration
}

type AuthHandler struct {
	authService *service.AuthService
	userService *service.UserService
	validator   *Validator
	cookie      CookieSettings
	log         *slog.Logger
}

func NewAuthHandler(authService *service.AuthService, userService *service.UserService, validator *Validator, cookie CookieSettings, log *slog.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		userService: userService,
		validator:   validator,
		cookie:      cookie,
		log:         log,
	}
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var input dto.LoginInput
	if ok, err := h.validator.bind(c, &input); !ok {
		return err
	}

	input.IPAddress = c.IP()
	input.UserAgent = c.Get(fiber.HeaderUserAgent)

	tokens, err := h.authService.Login(c.UserContext(), input)
	if err != nil {
		return writeError(c, h.log, err, "")
	}

	h.setRefreshCookie(c, tokens.RefreshToken)
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"accessToken": tokens.AccessToken})
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var input dto.RegisterInput
	if ok, err := h.validator.bind(c, &input); !ok {
		return err
	}

	if _, err := h.authService.Register(c.UserContext(), input); err != nil {
		return writeError(c, h.log, err, "")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *AuthHandler) ConfirmRegistration(c *fiber.Ctx) error {
	var input dto.ConfirmCodeInput
	if ok, err := h.validator.bind(c, &input); !ok {
		return err
	}

	if err := h.authService.ConfirmEmail(c.UserContext(), input.Code); err != nil {
		return writeError(c, h.log, err, "code")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *AuthHandler) ResendConfirmation(c *fiber.Ctx) error {
	var input dto.EmailInput
	if ok, err := h.validator.bind(c, &input); !ok {
		return err
	}

	if err := h.authService.ResendConfirmation(c.UserContext(), input.Email); err != nil {
		return writeError(c, h.log, err, "email")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *AuthHandler) PasswordRecovery(c *fiber.Ctx) error {
	var input dto.EmailInput
	if ok, err := h.validator.bind(c, &input); !ok {
		return err
	}

	if err := h.authService.RequestPasswordRecovery(c.UserContext(), input.Email); err != nil {
		return writeError(c, h.log, err, "email")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *AuthHandler) NewPassword(c *fiber.Ctx) error {
	var input dto.NewPasswordInput
	if ok, err := h.validator.bind(c, &input); !ok {
		return err
	}

	if err := h.authService.CompletePasswordRecovery(c.UserContext(), input); err != nil {
		return writeError(c, h.log, err, "recoveryCode")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *AuthHandler) RefreshToken(c *fiber.Ctx) error {
	token := c.Cookies(constant.RefreshTokenCookie)
	if token == "" {
		return c.SendStatus(fiber.StatusUnauthorized)
	}

	tokens, err := h.authService.Refresh(c.UserContext(), dto.RefreshInput{
		RefreshToken: token,
		IPAddress:    c.IP(),
		UserAgent:    c.Get(fiber.HeaderUserAgent),
	})
	if err != nil {
		return writeError(c, h.log, err, "")
	}

	h.setRefreshCookie(c, tokens.RefreshToken)
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"accessToken": tokens.AccessToken})
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	token := c.Cookies(constant.RefreshTokenCookie)
	if token == "" {
		return c.SendStatus(fiber.StatusUnauthorized)
	}

	if err := h.authService.Logout(c.UserContext(), token); err != nil {
		return writeError(c, h.log, err, "")
	}

	c.ClearCookie(constant.RefreshTokenCookie)
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	principal, ok := principalFrom(c)
	if !ok {
		return c.SendStatus(fiber.StatusUnauthorized)
	}

	me, err := h.userService.GetMe(c.UserContext(), principal.UserID)
	if err != nil {
		return writeError(c, h.log, err, "")
	}
	return c.Status(fiber.StatusOK).JSON(me)
}

func (h *AuthHandler) setRefreshCookie(c *fiber.Ctx, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     constant.RefreshTokenCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.cookie.MaxAge.Seconds()),
		HTTPOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
}
