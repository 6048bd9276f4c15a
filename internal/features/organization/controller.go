package organization

import (
	"go-lpm/internal/features/rbac"

	"github.com/gofiber/fiber/v2"
)

type OrganizationController struct {
	Service OrganizationService
}

func NewOrganizationController(service OrganizationService) *OrganizationController {
	return &OrganizationController{Service: service}
}

type organizationRequest struct {
	Name         string `json:"name"`
	Region       string `json:"region"`
	MatterPrefix string `json:"matter_prefix"`
}

// GetMyOrganization godoc
// @Summary      Get current organization
// @Tags         organization
// @Produce      json
// @Success      200 {object} map[string]interface{}
// @Router       /organization [get]
func (ctrl *OrganizationController) GetMyOrganization(c *fiber.Ctx) error {
	principal := rbac.PrincipalFrom(c.Context())
	org, err := ctrl.Service.GetOrganization(c.Context(), principal.OrganizationID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Organization not found",
		})
	}
	return c.JSON(org)
}

// UpdateMyOrganization godoc
// @Summary      Update current organization
// @Tags         organization
// @Accept       json
// @Produce      json
// @Success      200 {object} map[string]interface{}
// @Router       /organization [put]
func (ctrl *OrganizationController) UpdateMyOrganization(c *fiber.Ctx) error {
	var req organizationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	principal := rbac.PrincipalFrom(c.Context())
	org, err := ctrl.Service.UpdateOrganization(c.Context(), principal.OrganizationID, req.Name, req.Region, req.MatterPrefix)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update organization",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Organization updated successfully",
		"data":    org,
	})
}

// SyncRoles godoc
// @Summary      Re-sync system roles
// @Tags         organization
// @Produce      json
// @Success      200 {object} map[string]interface{}
// @Router       /organization/sync-roles [post]
func (ctrl *OrganizationController) SyncRoles(c *fiber.Ctx) error {
	principal := rbac.PrincipalFrom(c.Context())
	if err := ctrl.Service.SyncRoles(c.Context(), principal.OrganizationID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to sync roles",
		})
	}
	return c.JSON(fiber.Map{"message": "Roles synchronized successfully"})
}
