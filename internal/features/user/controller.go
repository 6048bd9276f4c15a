package user

import (
	"strconv"

	"go-lpm/internal/features/rbac"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserController struct {
	Service UserService
}

func NewUserController(service UserService) *UserController {
	return &UserController{Service: service}
}

type profileRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type statusRequest struct {
	Status string `json:"status"`
}

// ListUsers godoc
// @Summary      List organization members
// @Tags         user
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        limit query int false "Items per page" default(20)
// @Success      200 {object} map[string]interface{}
// @Router       /users [get]
func (ctrl *UserController) ListUsers(c *fiber.Ctx) error {
	page, _ := strconv.ParseInt(c.Query("page", "1"), 10, 64)
	limit, _ := strconv.ParseInt(c.Query("limit", "20"), 10, 64)

	principal := rbac.PrincipalFrom(c.Context())
	users, err := ctrl.Service.ListUsers(c.Context(), principal.OrganizationID, page, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch users",
		})
	}

	return c.JSON(fiber.Map{
		"data":  users,
		"page":  page,
		"limit": limit,
	})
}

// GetUser godoc
func (ctrl *UserController) GetUser(c *fiber.Ctx) error {
	id, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid user ID",
		})
	}

	principal := rbac.PrincipalFrom(c.Context())
	user, err := ctrl.Service.GetUser(c.Context(), principal.OrganizationID, id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User not found",
		})
	}
	return c.JSON(user)
}

// GetMe returns the caller's own profile; no user.view permission needed.
func (ctrl *UserController) GetMe(c *fiber.Ctx) error {
	principal := rbac.PrincipalFrom(c.Context())
	user, err := ctrl.Service.GetUser(c.Context(), principal.OrganizationID, principal.UserID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User not found",
		})
	}
	return c.JSON(user)
}

// UpdateUser godoc
func (ctrl *UserController) UpdateUser(c *fiber.Ctx) error {
	id, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid user ID",
		})
	}
	var req profileRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	principal := rbac.PrincipalFrom(c.Context())
	if err := ctrl.Service.UpdateProfile(c.Context(), principal.OrganizationID, id, req.FirstName, req.LastName); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update user",
		})
	}
	return c.JSON(fiber.Map{"message": "User updated successfully"})
}

// SetStatus godoc
func (ctrl *UserController) SetStatus(c *fiber.Ctx) error {
	id, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid user ID",
		})
	}
	var req statusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	switch req.Status {
	case "active", "inactive", "suspended":
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid status",
		})
	}

	principal := rbac.PrincipalFrom(c.Context())
	if err := ctrl.Service.SetStatus(c.Context(), principal.OrganizationID, id, req.Status); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update status",
		})
	}
	return c.JSON(fiber.Map{"message": "Status updated successfully"})
}
