package matter

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type DeadlineController struct {
	Service DeadlineService
}

func NewDeadlineController(service DeadlineService) *DeadlineController {
	return &DeadlineController{Service: service}
}

// CreateDeadline godoc
// @Summary      Create deadline
// @Tags         deadline
// @Accept       json
// @Produce      json
// @Success      201 {object} map[string]interface{}
// @Router       /deadlines [post]
func (ctrl *DeadlineController) CreateDeadline(c *fiber.Ctx) error {
	var d Deadline
	if err := c.BodyParser(&d); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if d.Title == "" || d.MatterID.IsZero() || d.DueDate.IsZero() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "title, matter_id and due_date are required",
		})
	}

	if err := ctrl.Service.CreateDeadline(c.Context(), &d); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Matter not found",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Deadline created successfully",
		"data":    d,
	})
}

// ListDeadlines godoc
func (ctrl *DeadlineController) ListDeadlines(c *fiber.Ctx) error {
	page, _ := strconv.ParseInt(c.Query("page", "1"), 10, 64)
	limit, _ := strconv.ParseInt(c.Query("limit", "50"), 10, 64)

	var matterID *primitive.ObjectID
	if raw := c.Query("matter_id"); raw != "" {
		oid, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid matter ID",
			})
		}
		matterID = &oid
	}

	deadlines, err := ctrl.Service.ListDeadlines(c.Context(), matterID, page, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch deadlines",
		})
	}

	return c.JSON(fiber.Map{
		"data":  deadlines,
		"page":  page,
		"limit": limit,
	})
}

// GetDeadline godoc
func (ctrl *DeadlineController) GetDeadline(c *fiber.Ctx) error {
	id, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid deadline ID",
		})
	}

	d, err := ctrl.Service.GetDeadline(c.Context(), id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Deadline not found",
		})
	}
	return c.JSON(d)
}

// UpdateDeadline godoc
func (ctrl *DeadlineController) UpdateDeadline(c *fiber.Ctx) error {
	id, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid deadline ID",
		})
	}
	var d Deadline
	if err := c.BodyParser(&d); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	d.ID = id

	if err := ctrl.Service.UpdateDeadline(c.Context(), &d); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Deadline not found",
		})
	}
	return c.JSON(fiber.Map{"message": "Deadline updated successfully"})
}

// DeleteDeadline godoc
func (ctrl *DeadlineController) DeleteDeadline(c *fiber.Ctx) error {
	id, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid deadline ID",
		})
	}

	if err := ctrl.Service.DeleteDeadline(c.Context(), id); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Deadline not found",
		})
	}
	return c.JSON(fiber.Map{"message": "Deadline deleted successfully"})
}

// MarkCompleted godoc
// @Summary      Mark a deadline completed
// @Tags         deadline
// @Produce      json
// @Success      200 {object} map[string]interface{}
// @Router       /deadlines/{id}/complete [post]
func (ctrl *DeadlineController) MarkCompleted(c *fiber.Ctx) error {
	id, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid deadline ID",
		})
	}

	if err := ctrl.Service.MarkCompleted(c.Context(), id); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Deadline not found or already completed",
		})
	}
	return c.JSON(fiber.Map{"message": "Deadline marked completed"})
}

// Summary godoc
// @Summary      Deadline urgency rollup
// @Tags         deadline
// @Produce      json
// @Success      200 {object} DeadlineSummary
// @Router       /deadlines/summary [get]
func (ctrl *DeadlineController) Summary(c *fiber.Ctx) error {
	summary, err := ctrl.Service.Summary(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to build summary",
		})
	}
	return c.JSON(summary)
}

// Calendar godoc
// @Summary      Deadlines in a date range
// @Tags         deadline
// @Produce      json
// @Param        from query string true "Range start (RFC3339)"
// @Param        to query string true "Range end (RFC3339)"
// @Success      200 {object} map[string]interface{}
// @Router       /deadlines/calendar [get]
func (ctrl *DeadlineController) Calendar(c *fiber.Ctx) error {
	from, err := time.Parse(time.RFC3339, c.Query("from"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid from date",
		})
	}
	to, err := time.Parse(time.RFC3339, c.Query("to"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid to date",
		})
	}

	deadlines, err := ctrl.Service.Calendar(c.Context(), from, to)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch calendar",
		})
	}
	return c.JSON(fiber.Map{"data": deadlines})
}
