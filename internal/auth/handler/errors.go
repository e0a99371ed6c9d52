package handler

import (
	"log/slog"

	autherror "github.com/AnthoniusHendriyanto/blogger-auth/internal/errors"
	"github.com/gofiber/fiber/v2"
)

type FieldError struct {
	Message string `json:"message"`
	Field   string `json:"field"`
}

type ErrorsResponse struct {
	ErrorsMessages []FieldError `json:"errorsMessages"`
}

func badRequest(c *fiber.Ctx, errs ...FieldError) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorsResponse{ErrorsMessages: errs})
}

func statusFor(code autherror.Code) int {
	switch code {
	case autherror.CodeInvalidCredentials, autherror.CodeUnauthorized, autherror.CodeInvalidToken:
		return fiber.StatusUnauthorized
	case autherror.CodeTooManyRequests:
		return fiber.StatusTooManyRequests
	case autherror.CodeDeliveryFailed:
		return fiber.StatusServiceUnavailable
	case autherror.CodeSessionNotFound, autherror.CodeNotFound:
		return fiber.StatusNotFound
	case autherror.CodeSessionNotOwned:
		return fiber.StatusForbidden
	case autherror.CodeCodeNotFound, autherror.CodeCodeExpired, autherror.CodeAlreadyConfirmed, autherror.CodeAlreadyExists:
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

// writeError renders err as an HTTP response. Errors tied to a request field
// become 400 errorsMessages bodies; field, when set, overrides the field name
// carried by the error.
func writeError(c *fiber.Ctx, log *slog.Logger, err error, field string) error {
	status := statusFor(autherror.CodeOf(err))

	switch {
	case status == fiber.StatusInternalServerError:
		log.ErrorContext(c.UserContext(), "request failed", "method", c.Method(), "path", c.Path(), "error", err)
		return c.Status(status).JSON(fiber.Map{"error": "internal server error"})
	case autherror.FieldOf(err) != "":
		if field == "" {
			field = autherror.FieldOf(err)
		}
		return badRequest(c, FieldError{Message: messageOf(err), Field: field})
	case status == fiber.StatusServiceUnavailable, status == fiber.StatusBadRequest:
		return c.Status(status).JSON(fiber.Map{"error": messageOf(err)})
	default:
		return c.SendStatus(status)
	}
}

func messageOf(err error) string {
	if appErr, ok := autherror.AsAppError(err); ok {
		return appErr.Message
	}
	return err.Error()
}
