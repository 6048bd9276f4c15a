package caserules

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RuleController struct {
	Service RuleService
}

func NewRuleController(service RuleService) *RuleController {
	return &RuleController{Service: service}
}

type calculateRequest struct {
	RuleID      string                 `json:"rule_id"`
	TriggerDate string                 `json:"trigger_date"`
	Params      map[string]interface{} `json:"params"`
}

// CreateRule godoc
// @Summary      Create a deadline rule
// @Tags         caserules
// @Accept       json
// @Produce      json
// @Success      201 {object} map[string]interface{}
// @Router       /case-rules [post]
func (ctrl *RuleController) CreateRule(c *fiber.Ctx) error {
	var rule Rule
	if err := c.BodyParser(&rule); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if rule.Name == "" || rule.Script == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "name and script are required",
		})
	}

	if err := ctrl.Service.CreateRule(c.Context(), &rule); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Rule created successfully",
		"data":    rule,
	})
}

// ListRules godoc
func (ctrl *RuleController) ListRules(c *fiber.Ctx) error {
	rules, err := ctrl.Service.ListRules(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch rules",
		})
	}
	return c.JSON(fiber.Map{"data": rules})
}

// GetRule godoc
func (ctrl *RuleController) GetRule(c *fiber.Ctx) error {
	id, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid rule ID",
		})
	}

	rule, err := ctrl.Service.GetRule(c.Context(), id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Rule not found",
		})
	}
	return c.JSON(rule)
}

// UpdateRule godoc
func (ctrl *RuleController) UpdateRule(c *fiber.Ctx) error {
	id, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid rule ID",
		})
	}
	var rule Rule
	if err := c.BodyParser(&rule); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	rule.ID = id

	if err := ctrl.Service.UpdateRule(c.Context(), &rule); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{"message": "Rule updated successfully"})
}

// DeleteRule godoc
func (ctrl *RuleController) DeleteRule(c *fiber.Ctx) error {
	id, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid rule ID",
		})
	}

	if err := ctrl.Service.DeleteRule(c.Context(), id); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Rule not found",
		})
	}
	return c.JSON(fiber.Map{"message": "Rule deleted successfully"})
}

// Calculate godoc
// @Summary      Run a deadline rule
// @Description  Compute concrete deadline dates from a rule and trigger date
// @Tags         caserules
// @Accept       json
// @Produce      json
// @Success      200 {object} map[string]interface{}
// @Router       /case-rules/calculate [post]
func (ctrl *RuleController) Calculate(c *fiber.Ctx) error {
	var req calculateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	ruleID, err := primitive.ObjectIDFromHex(req.RuleID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid rule ID",
		})
	}
	trigger, err := time.Parse(time.RFC3339, req.TriggerDate)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid trigger date",
		})
	}

	deadlines, err := ctrl.Service.Calculate(c.Context(), ruleID, trigger, req.Params)
	if err != nil {
		if errors.Is(err, ErrRuleDisabled) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Rule is disabled",
			})
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{"data": deadlines})
}
