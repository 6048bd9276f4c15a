package messaging

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type MessagingController struct {
	Service MessagingService
}

func NewMessagingController(service MessagingService) *MessagingController {
	return &MessagingController{Service: service}
}

type createThreadRequest struct {
	MatterID string `json:"matter_id"`
	Subject  string `json:"subject"`
}

type postMessageRequest struct {
	Body string `json:"body"`
}

func (ctrl *MessagingController) CreateThread(c *fiber.Ctx) error {
	var req createThreadRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	matterID, err := primitive.ObjectIDFromHex(req.MatterID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid matter ID",
		})
	}
	if strings.TrimSpace(req.Subject) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Subject is required",
		})
	}

	thread := &MessageThread{MatterID: matterID, Subject: req.Subject}
	if err := ctrl.Service.CreateThread(c.Context(), thread); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Matter not found",
		})
	}
	return c.Status(fiber.StatusCreated).JSON(thread)
}

func (ctrl *MessagingController) ListThreads(c *fiber.Ctx) error {
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
	page, _ := strconv.ParseInt(c.Query("page", "1"), 10, 64)
	limit, _ := strconv.ParseInt(c.Query("limit", "20"), 10, 64)

	threads, err := ctrl.Service.ListThreads(c.Context(), matterID, page, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch threads",
		})
	}
	return c.JSON(fiber.Map{"data": threads, "page": page, "limit": limit})
}

func (ctrl *MessagingController) GetThread(c *fiber.Ctx) error {
	id, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid thread ID",
		})
	}

	thread, err := ctrl.Service.GetThread(c.Context(), id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Thread not found",
		})
	}
	return c.JSON(thread)
}

func (ctrl *MessagingController) PostMessage(c *fiber.Ctx) error {
	id, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid thread ID",
		})
	}
	var req postMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if strings.TrimSpace(req.Body) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Message body is required",
		})
	}

	msg, err := ctrl.Service.PostMessage(c.Context(), id, req.Body)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Thread not found",
		})
	}
	return c.Status(fiber.StatusCreated).JSON(msg)
}

func (ctrl *MessagingController) ListMessages(c *fiber.Ctx) error {
	id, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid thread ID",
		})
	}
	page, _ := strconv.ParseInt(c.Query("page", "1"), 10, 64)
	limit, _ := strconv.ParseInt(c.Query("limit", "50"), 10, 64)

	messages, err := ctrl.Service.ListMessages(c.Context(), id, page, limit)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Thread not found",
		})
	}
	return c.JSON(fiber.Map{"data": messages, "page": page, "limit": limit})
}
