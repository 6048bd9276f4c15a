package middleware

import (
	common_models "go-lpm/internal/common/models"
	"go-lpm/pkg/utils"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AuthMiddleware validates JWT tokens and injects the principal and tenant id
// into the request context.
func AuthMiddleware(skipAuth bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if skipAuth {
			// Dev mode: requests stay unauthenticated, permission-gated
			// handlers will still deny.
			return c.Next()
		}

		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authorization header required",
			})
		}

		// Extract token from "Bearer <token>"
		if len(authHeader) < 7 || authHeader[:7] != "Bearer " {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid authorization header format",
			})
		}

		token := authHeader[7:]
		claims, err := utils.ValidateToken(token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid token",
			})
		}

		principal, err := principalFromClaims(claims)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid token",
			})
		}

		// Locals keys double as context.Value keys downstream: repositories
		// and services read them through c.Context(), so the typed keys must
		// match exactly.
		c.Locals(utils.UserClaimsKey, claims)
		c.Locals(common_models.PrincipalKey, principal)
		c.Locals(common_models.TenantIDKey, claims.OrganizationID)
		return c.Next()
	}
}

func principalFromClaims(claims *utils.UserClaims) (common_models.Principal, error) {
	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return common_models.Principal{}, err
	}
	orgID, err := primitive.ObjectIDFromHex(claims.OrganizationID)
	if err != nil {
		return common_models.Principal{}, err
	}
	principal := common_models.Principal{
		UserID:         userID,
		OrganizationID: orgID,
		Authenticated:  true,
	}
	if claims.ClientID != "" {
		clientID, err := primitive.ObjectIDFromHex(claims.ClientID)
		if err != nil {
			return common_models.Principal{}, err
		}
		principal.ClientID = clientID
	}
	return principal, nil
}
