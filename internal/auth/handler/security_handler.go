package handler

import (
	"log/slog"

	"github.com/AnthoniusHendriyanto/blogger-auth/internal/auth/service"
	"github.com/gofiber/fiber/v2"
)

// SecurityHandler serves the device sessions of the refresh-token holder.
type SecurityHandler struct {
	deviceService *service.DeviceService
	log           *slog.Logger
}

func NewSecurityHandler(deviceService *service.DeviceService, log *slog.Logger) *SecurityHandler {
	return &SecurityHandler{deviceService: deviceService, log: log}
}

func (h *SecurityHandler) ListDevices(c *fiber.Ctx) error {
	principal, ok := principalFrom(c)
	if !ok {
		return c.SendStatus(fiber.StatusUnauthorized)
	}

	devices, err := h.deviceService.ListDeviceSessions(c.UserContext(), principal.UserID)
	if err != nil {
		return writeError(c, h.log, err, "")
	}
	return c.Status(fiber.StatusOK).JSON(devices)
}

func (h *SecurityHandler) TerminateOtherDevices(c *fiber.Ctx) error {
	principal, ok := principalFrom(c)
	if !ok {
		return c.SendStatus(fiber.StatusUnauthorized)
	}

	if err := h.deviceService.TerminateOtherDevices(c.UserContext(), *principal); err != nil {
		return writeError(c, h.log, err, "")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *SecurityHandler) TerminateDevice(c *fiber.Ctx) error {
	principal, ok := principalFrom(c)
	if !ok {
		return c.SendStatus(fiber.StatusUnauthorized)
	}

	if err := h.deviceService.TerminateDevice(c.UserContext(), *principal, c.Params("id")); err != nil {
		return writeError(c, h.log, err, "")
	}
	return c.SendStatus(fiber.StatusNoContent)
}
