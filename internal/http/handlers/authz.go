package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"storefront/internal/auth"
	"storefront/internal/domain"
	applog "storefront/internal/log"
	"storefront/internal/services"
)

const localIdentity = "identity"

// Authenticate resolves the bearer token before the handler runs. Requests
// without a valid token stop here with 401.
func Authenticate(svc *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw, ok := bearer(c.Get(fiber.HeaderAuthorization))
		if !ok {
			applog.Security(c, "auth.missing", nil)
			return fail(c, fiber.StatusUnauthorized, "unauthenticated", "missing bearer token")
		}
		ctx, cancel := reqCtx(c)
		defer cancel()
		id, err := svc.Authenticate(ctx, raw)
		if err != nil {
			fields := map[string]any{"reason": "invalid_token"}
			if auth.IsExpired(err) {
				fields["reason"] = "expired"
			}
			if errors.Is(err, domain.ErrIdentityNotFound) {
				fields["reason"] = "unknown_identity"
			}
			applog.Security(c, "auth.reject", fields)
			return writeError(c, "auth.reject", err)
		}
		c.Locals(localIdentity, id)
		c.Locals(applog.LocalUserID, id.UserID)
		return c.Next()
	}
}

// RequirePermission lets the request through only if the caller's role holds every perm.
// It must run after Authenticate.
func RequirePermission(policy auth.Policy, perms ...auth.Permission) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := identity(c)
		if !ok {
			return fail(c, fiber.StatusUnauthorized, "unauthenticated", "authentication required")
		}
		if !policy.Allows(id.Role, perms...) {
			applog.Security(c, "access.denied", map[string]any{"role": string(id.Role), "need": perms})
			return fail(c, fiber.StatusForbidden, "forbidden", "not allowed")
		}
		return c.Next()
	}
}

func identity(c *fiber.Ctx) (domain.Identity, bool) {
	id, ok := c.Locals(localIdentity).(domain.Identity)
	return id, ok && id.UserID != ""
}

func bearer(h string) (string, bool) {
	const prefix = "bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return "", false
	}
	tok := strings.TrimSpace(h[len(prefix):])
	return tok, tok != ""
}
