package rbac

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RBACController struct {
	Service RBACService
}

func NewRBACController(service RBACService) *RBACController {
	return &RBACController{Service: service}
}

type roleRequest struct {
	Name            string   `json:"name"`
	PermissionCodes []string `json:"permission_codes"`
}

type assignmentRequest struct {
	UserID string `json:"user_id"`
	RoleID string `json:"role_id"`
}

// ListPermissions godoc
// @Summary      List permissions
// @Description  Get the full permission catalog
// @Tags         rbac
// @Produce      json
// @Success      200 {object} map[string]interface{}
// @Router       /rbac/permissions [get]
func (ctrl *RBACController) ListPermissions(c *fiber.Ctx) error {
	permissions, err := ctrl.Service.ListPermissions(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch permissions",
		})
	}
	return c.JSON(fiber.Map{"data": permissions})
}

// ListRoles godoc
// @Summary      List roles
// @Description  Get system and custom roles for the organization
// @Tags         rbac
// @Produce      json
// @Success      200 {object} map[string]interface{}
// @Router       /rbac/roles [get]
func (ctrl *RBACController) ListRoles(c *fiber.Ctx) error {
	principal := PrincipalFrom(c.Context())
	roles, err := ctrl.Service.ListRoles(c.Context(), principal.OrganizationID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch roles",
		})
	}
	return c.JSON(fiber.Map{"data": roles})
}

// GetRole godoc
func (ctrl *RBACController) GetRole(c *fiber.Ctx) error {
	principal := PrincipalFrom(c.Context())
	id, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid role ID",
		})
	}
	role, err := ctrl.Service.GetRole(c.Context(), principal.OrganizationID, id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Role not found",
		})
	}
	return c.JSON(role)
}

// CreateRole godoc
// @Summary      Create custom role
// @Tags         rbac
// @Accept       json
// @Produce      json
// @Success      201 {object} map[string]interface{}
// @Router       /rbac/roles [post]
func (ctrl *RBACController) CreateRole(c *fiber.Ctx) error {
	var req roleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Role name is required",
		})
	}

	principal := PrincipalFrom(c.Context())
	role, err := ctrl.Service.CreateCustomRole(c.Context(), principal.OrganizationID, req.Name, req.PermissionCodes)
	if err != nil {
		if errors.Is(err, ErrUnknownPermission) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create role",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Role created successfully",
		"data":    role,
	})
}

// UpdateRole godoc
func (ctrl *RBACController) UpdateRole(c *fiber.Ctx) error {
	id, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid role ID",
		})
	}
	var req roleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	principal := PrincipalFrom(c.Context())
	if err := ctrl.Service.UpdateCustomRole(c.Context(), principal.OrganizationID, id, req.Name, req.PermissionCodes); err != nil {
		switch {
		case errors.Is(err, ErrSystemRoleImmutable):
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "System roles cannot be modified",
			})
		case errors.Is(err, ErrUnknownPermission):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		case errors.Is(err, ErrRoleNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Role not found",
			})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to update role",
			})
		}
	}

	return c.JSON(fiber.Map{"message": "Role updated successfully"})
}

// DeleteRole godoc
func (ctrl *RBACController) DeleteRole(c *fiber.Ctx) error {
	id, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid role ID",
		})
	}

	principal := PrincipalFrom(c.Context())
	if err := ctrl.Service.DeleteRole(c.Context(), principal.OrganizationID, id); err != nil {
		switch {
		case errors.Is(err, ErrSystemRoleImmutable):
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "System roles cannot be deleted",
			})
		case errors.Is(err, ErrRoleNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Role not found",
			})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to delete role",
			})
		}
	}

	return c.JSON(fiber.Map{"message": "Role deleted successfully"})
}

// GrantRole godoc
// @Summary      Grant a role to a user
// @Tags         rbac
// @Accept       json
// @Produce      json
// @Success      200 {object} map[string]interface{}
// @Router       /rbac/assignments [post]
func (ctrl *RBACController) GrantRole(c *fiber.Ctx) error {
	userID, roleID, ok := ctrl.parseAssignment(c)
	if !ok {
		return nil
	}

	principal := PrincipalFrom(c.Context())
	if err := ctrl.Service.GrantRole(c.Context(), principal.OrganizationID, userID, roleID); err != nil {
		if errors.Is(err, ErrRoleNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Role not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to grant role",
		})
	}

	return c.JSON(fiber.Map{"message": "Role granted successfully"})
}

// RevokeRole godoc
func (ctrl *RBACController) RevokeRole(c *fiber.Ctx) error {
	userID, roleID, ok := ctrl.parseAssignment(c)
	if !ok {
		return nil
	}

	principal := PrincipalFrom(c.Context())
	if err := ctrl.Service.RevokeRole(c.Context(), principal.OrganizationID, userID, roleID); err != nil {
		if errors.Is(err, ErrRoleNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Role not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to revoke role",
		})
	}

	return c.JSON(fiber.Map{"message": "Role revoked successfully"})
}

// parseAssignment writes the error response itself and reports validity.
func (ctrl *RBACController) parseAssignment(c *fiber.Ctx) (primitive.ObjectID, primitive.ObjectID, bool) {
	var req assignmentRequest
	if err := c.BodyParser(&req); err != nil {
		_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
		return primitive.NilObjectID, primitive.NilObjectID, false
	}
	userID, err := primitive.ObjectIDFromHex(req.UserID)
	if err != nil {
		_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid user ID",
		})
		return primitive.NilObjectID, primitive.NilObjectID, false
	}
	roleID, err := primitive.ObjectIDFromHex(req.RoleID)
	if err != nil {
		_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid role ID",
		})
		return primitive.NilObjectID, primitive.NilObjectID, false
	}
	return userID, roleID, true
}
