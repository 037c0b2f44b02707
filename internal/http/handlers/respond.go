package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"storefront/internal/domain"
	applog "storefront/internal/log"
)

// RequestTimeout bounds the store work a single request may do.
const RequestTimeout = 5 * time.Second

type errorBody struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	VariantID string `json:"variantId,omitempty"`
}

type fieldError struct{ field, msg string }

func reqCtx(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.UserContext(), RequestTimeout)
}

func fail(c *fiber.Ctx, status int, code, msg string) error {
	return c.Status(status).JSON(errorBody{Error: code, Message: msg})
}

// badRequest logs a validation failure for field and answers 400.
func badRequest(c *fiber.Ctx, field, msg string) error {
	applog.Security(c, "validation.fail", map[string]any{"field": field})
	return fail(c, fiber.StatusBadRequest, "invalid_request", msg)
}

// writeError is the single mapping from service errors to HTTP responses.
// Unmapped errors become a generic 500 and are logged under action.
func writeError(c *fiber.Ctx, action string, err error) error {
	var (
		short *domain.InsufficientStockError
		nf    *domain.VariantNotFoundError
		fe    *fiber.Error
	)
	switch {
	case errors.As(err, &short):
		applog.Info(c, action+".conflict", map[string]any{"variant_id": short.VariantID})
		return c.Status(fiber.StatusConflict).JSON(errorBody{
			Error: "insufficient_stock", Message: short.Error(), VariantID: short.VariantID,
		})
	case errors.As(err, &nf):
		return c.Status(fiber.StatusNotFound).JSON(errorBody{
			Error: "variant_not_found", Message: nf.Error(), VariantID: nf.VariantID,
		})
	case errors.Is(err, domain.ErrInvalidRequest):
		applog.Security(c, "validation.fail", map[string]any{"action": action})
		return fail(c, fiber.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return fail(c, fiber.StatusNotFound, "not_found", "resource not found")
	case errors.Is(err, domain.ErrEmailExists):
		return fail(c, fiber.StatusConflict, "email_exists", err.Error())
	case errors.Is(err, domain.ErrConflict):
		return fail(c, fiber.StatusConflict, "conflict", err.Error())
	case errors.Is(err, domain.ErrBadCredentials):
		return fail(c, fiber.StatusUnauthorized, "unauthenticated", err.Error())
	case errors.Is(err, domain.ErrInvalidCredential), errors.Is(err, domain.ErrIdentityNotFound):
		return fail(c, fiber.StatusUnauthorized, "unauthenticated", "authentication required")
	case errors.Is(err, domain.ErrForbidden):
		applog.Security(c, "access.denied", map[string]any{"action": action})
		return fail(c, fiber.StatusForbidden, "forbidden", "not allowed")
	case errors.As(err, &fe) && fe.Code < fiber.StatusInternalServerError:
		return fail(c, fe.Code, codeFor(fe.Code), fe.Message)
	}
	applog.Error(c, action, err, nil)
	return fail(c, fiber.StatusInternalServerError, "internal", "something went wrong, please try again")
}

func codeFor(status int) string {
	switch status {
	case fiber.StatusBadRequest:
		return "invalid_request"
	case fiber.StatusUnauthorized:
		return "unauthenticated"
	case fiber.StatusForbidden:
		return "forbidden"
	case fiber.StatusNotFound:
		return "not_found"
	case fiber.StatusRequestEntityTooLarge:
		return "payload_too_large"
	case fiber.StatusTooManyRequests:
		return "too_many_requests"
	}
	return "request_failed"
}

// ErrorHandler renders anything a handler returned unhandled, including
// framework errors such as 404 routes and oversized bodies. 5xx text is never exposed.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) && fe.Code < fiber.StatusInternalServerError {
		return fail(c, fe.Code, codeFor(fe.Code), fe.Message)
	}
	applog.Error(c, "server.error", err, nil)
	return fail(c, fiber.StatusInternalServerError, "internal", "something went wrong, please try again")
}
