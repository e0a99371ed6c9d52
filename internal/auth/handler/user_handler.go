package handler

import (
	"log/slog"

	"github.com/AnthoniusHendriyanto/blogger-auth/internal/auth/dto"
	"github.com/AnthoniusHendriyanto/blogger-auth/internal/auth/service"
	"github.com/gofiber/fiber/v2"
)

type UserHandler struct {
	userService *service.UserService
	validator   *Validator
	log         *slog.Logger
}

func NewUserHandler(userService *service.UserService, validator *Validator, log *slog.Logger) *UserHandler {
	return &UserHandler{userService: userService, validator: validator, log: log}
}

// CreateUser creates an already confirmed account.
func (h *UserHandler) CreateUser(c *fiber.Ctx) error {
	var input dto.RegisterInput
	if ok, err := h.validator.bind(c, &input); !ok {
		return err
	}

	user, err := h.userService.CreateByAdmin(c.UserContext(), input)
	if err != nil {
		return writeError(c, h.log, err, "")
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}
