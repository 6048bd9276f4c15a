package auth

import (
	"errors"
	"strconv"

	"go-lpm/internal/features/rbac"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AuthController struct {
	Service AuthService
}

func NewAuthController(service AuthService) *AuthController {
	return &AuthController{Service: service}
}

type registerRequest struct {
	OrganizationName string `json:"organization_name"`
	Region           string `json:"region"`
	Email            string `json:"email"`
	Password         string `json:"password"`
	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type inviteRequest struct {
	Email    string `json:"email"`
	RoleName string `json:"role_name"`
	ClientID string `json:"client_id,omitempty"`
}

type acceptRequest struct {
	Token     string `json:"token"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Register godoc
// @Summary      Register a new organization
// @Tags         auth
// @Accept       json
// @Produce      json
// @Success      201 {object} map[string]interface{}
// @Router       /auth/register [post]
func (ctrl *AuthController) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.OrganizationName == "" || req.Email == "" || req.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "organization_name, email and password are required",
		})
	}

	newUser, err := ctrl.Service.Register(c.Context(), req.OrganizationName, req.Region, req.Email, req.Password, req.FirstName, req.LastName)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Registration failed",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Registration successful",
		"data":    newUser,
	})
}

// Login godoc
// @Summary      Authenticate and receive a JWT
// @Tags         auth
// @Accept       json
// @Produce      json
// @Success      200 {object} map[string]interface{}
// @Failure      401 {object} map[string]interface{}
// @Router       /auth/login [post]
func (ctrl *AuthController) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	token, err := ctrl.Service.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrAccountDisabled) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Account disabled",
			})
		}
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid credentials",
		})
	}

	return c.JSON(fiber.Map{"token": token})
}

// Invite godoc
// @Summary      Invite a user to the organization
// @Tags         auth
// @Accept       json
// @Produce      json
// @Success      201 {object} map[string]interface{}
// @Router       /auth/invitations [post]
func (ctrl *AuthController) Invite(c *fiber.Ctx) error {
	var req inviteRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.Email == "" || req.RoleName == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "email and role_name are required",
		})
	}

	var clientID *primitive.ObjectID
	if req.ClientID != "" {
		oid, err := primitive.ObjectIDFromHex(req.ClientID)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid client ID",
			})
		}
		clientID = &oid
	}

	principal := rbac.PrincipalFrom(c.Context())
	inv, err := ctrl.Service.Invite(c.Context(), principal.OrganizationID, principal.UserID, req.Email, req.RoleName, clientID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create invitation",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Invitation created",
		"data":    inv,
		"token":   inv.Token,
	})
}

// Accept godoc
// @Summary      Accept an invitation
// @Tags         auth
// @Accept       json
// @Produce      json
// @Success      201 {object} map[string]interface{}
// @Router       /auth/accept-invitation [post]
func (ctrl *AuthController) Accept(c *fiber.Ctx) error {
	var req acceptRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.Token == "" || req.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "token and password are required",
		})
	}

	newUser, err := ctrl.Service.AcceptInvitation(c.Context(), req.Token, req.Password, req.FirstName, req.LastName)
	if err != nil {
		if errors.Is(err, ErrInvitationInvalid) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invitation is invalid or expired",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to accept invitation",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Invitation accepted",
		"data":    newUser,
	})
}

// ListInvitations godoc
func (ctrl *AuthController) ListInvitations(c *fiber.Ctx) error {
	page, _ := strconv.ParseInt(c.Query("page", "1"), 10, 64)
	limit, _ := strconv.ParseInt(c.Query("limit", "20"), 10, 64)

	principal := rbac.PrincipalFrom(c.Context())
	invitations, err := ctrl.Service.ListInvitations(c.Context(), principal.OrganizationID, page, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch invitations",
		})
	}

	return c.JSON(fiber.Map{
		"data":  invitations,
		"page":  page,
		"limit": limit,
	})
}
