package rbac

import (
	common_models "go-lpm/internal/common/models"

	"github.com/gofiber/fiber/v2"
)

// Guards run after the auth middleware and enforce the policy map on fiber
// routes. Each guard lazily attaches the per-request permission cache so every
// permission read behind it is memoized.

// RequireAction resolves the requirement for a resource action from the policy
// map and enforces it. Unauthenticated requests get 401; authenticated
// requests missing a permission get a generic 403 that does not leak which
// permission was required.
func RequireAction(evaluator *Evaluator, policy *PolicyMap, resource string, action Action) fiber.Handler {
	req, gated := policy.Resolve(resource, action)
	return func(c *fiber.Ctx) error {
		principal, ok := requirePrincipal(c)
		if !ok {
			return nil
		}
		if !gated {
			return c.Next()
		}
		satisfied, err := req.IsSatisfied(c.Context(), evaluator, principal)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Permission check failed",
			})
		}
		if !satisfied {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "You do not have permission to perform this action",
			})
		}
		return c.Next()
	}
}

// RequirePermission enforces a single permission code directly, for routes
// outside the resource/action vocabulary.
func RequirePermission(evaluator *Evaluator, code string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := requirePrincipal(c)
		if !ok {
			return nil
		}
		allowed, err := evaluator.HasPermission(c.Context(), principal, code)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Permission check failed",
			})
		}
		if !allowed {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "You do not have permission to perform this action",
			})
		}
		return c.Next()
	}
}

// RequireOrganizationMember rejects requests without an authenticated
// principal bound to an organization.
func RequireOrganizationMember() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := requirePrincipal(c)
		if !ok {
			return nil
		}
		if principal.OrganizationID.IsZero() {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authentication required",
			})
		}
		return c.Next()
	}
}

// RequireNotClient blocks portal identities from staff-only surfaces even when
// a misconfigured role would otherwise let them through.
func RequireNotClient(evaluator *Evaluator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := requirePrincipal(c)
		if !ok {
			return nil
		}
		isClient, err := evaluator.IsClientUser(c.Context(), principal)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Permission check failed",
			})
		}
		if principal.IsClient() || isClient {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "You do not have permission to perform this action",
			})
		}
		return c.Next()
	}
}

// requirePrincipal rejects unauthenticated requests (writing the 401 itself)
// and makes sure a permission cache is attached for the rest of the request.
func requirePrincipal(c *fiber.Ctx) (Principal, bool) {
	principal := PrincipalFrom(c.Context())
	if !principal.Authenticated {
		_ = c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
		return principal, false
	}
	if CacheFrom(c.Context()) == nil {
		c.Locals(common_models.PermCacheKey, NewCache())
	}
	return principal, true
}
