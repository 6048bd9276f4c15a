package matter

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type MatterController struct {
	Service MatterService
}

func NewMatterController(service MatterService) *MatterController {
	return &MatterController{Service: service}
}

type accessRequest struct {
	UserID string `json:"user_id"`
}

// CreateMatter godoc
// @Summary      Create matter
// @Tags         matter
// @Accept       json
// @Produce      json
// @Success      201 {object} map[string]interface{}
// @Router       /matters [post]
func (ctrl *MatterController) CreateMatter(c *fiber.Ctx) error {
	var m Matter
	if err := c.BodyParser(&m); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if m.Title == "" || m.ClientID.IsZero() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "title and client_id are required",
		})
	}

	if err := ctrl.Service.CreateMatter(c.Context(), &m); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create matter",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Matter created successfully",
		"data":    m,
	})
}

// ListMatters godoc
// @Summary      List matters visible to the caller
// @Tags         matter
// @Produce      json
// @Param        status query string false "Filter by status"
// @Param        page query int false "Page number" default(1)
// @Param        limit query int false "Items per page" default(20)
// @Success      200 {object} map[string]interface{}
// @Router       /matters [get]
func (ctrl *MatterController) ListMatters(c *fiber.Ctx) error {
	page, _ := strconv.ParseInt(c.Query("page", "1"), 10, 64)
	limit, _ := strconv.ParseInt(c.Query("limit", "20"), 10, 64)

	matters, err := ctrl.Service.ListMatters(c.Context(), c.Query("status"), page, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch matters",
		})
	}

	return c.JSON(fiber.Map{
		"data":  matters,
		"page":  page,
		"limit": limit,
	})
}

// GetMatter godoc
func (ctrl *MatterController) GetMatter(c *fiber.Ctx) error {
	id, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid matter ID",
		})
	}

	m, err := ctrl.Service.GetMatter(c.Context(), id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Matter not found",
		})
	}
	return c.JSON(m)
}

// UpdateMatter godoc
func (ctrl *MatterController) UpdateMatter(c *fiber.Ctx) error {
	id, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid matter ID",
		})
	}
	var m Matter
	if err := c.BodyParser(&m); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	m.ID = id

	if err := ctrl.Service.UpdateMatter(c.Context(), &m); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Matter not found",
		})
	}
	return c.JSON(fiber.Map{"message": "Matter updated successfully"})
}

// DeleteMatter godoc
func (ctrl *MatterController) DeleteMatter(c *fiber.Ctx) error {
	id, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid matter ID",
		})
	}

	if err := ctrl.Service.DeleteMatter(c.Context(), id); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Matter not found",
		})
	}
	return c.JSON(fiber.Map{"message": "Matter deleted successfully"})
}

// GrantAccess godoc
// @Summary      Grant a user access to a matter
// @Tags         matter
// @Accept       json
// @Produce      json
// @Success      200 {object} map[string]interface{}
// @Router       /matters/{id}/access [post]
func (ctrl *MatterController) GrantAccess(c *fiber.Ctx) error {
	matterID, userID, ok := ctrl.parseAccess(c)
	if !ok {
		return nil
	}
	if err := ctrl.Service.GrantAccess(c.Context(), matterID, userID); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Matter not found",
		})
	}
	return c.JSON(fiber.Map{"message": "Access granted"})
}

// RevokeAccess godoc
func (ctrl *MatterController) RevokeAccess(c *fiber.Ctx) error {
	matterID, userID, ok := ctrl.parseAccess(c)
	if !ok {
		return nil
	}
	if err := ctrl.Service.RevokeAccess(c.Context(), matterID, userID); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Matter not found",
		})
	}
	return c.JSON(fiber.Map{"message": "Access revoked"})
}

func (ctrl *MatterController) parseAccess(c *fiber.Ctx) (primitive.ObjectID, primitive.ObjectID, bool) {
	matterID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid matter ID",
		})
		return primitive.NilObjectID, primitive.NilObjectID, false
	}
	var req accessRequest
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
	return matterID, userID, true
}
