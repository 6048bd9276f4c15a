package notification

import (
	"strconv"

	common_models "go-lpm/internal/common/models"
	"go-lpm/internal/features/rbac"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type NotificationController struct {
	Service NotificationService
	Hub     *Hub
}

func NewNotificationController(service NotificationService, hub *Hub) *NotificationController {
	return &NotificationController{
		Service: service,
		Hub:     hub,
	}
}

// List godoc
// @Summary      List the caller's notifications
// @Tags         notification
// @Produce      json
// @Success      200 {array} Notification
// @Router       /notifications [get]
func (ctrl *NotificationController) List(c *fiber.Ctx) error {
	principal := rbac.PrincipalFrom(c.Context())
	page, _ := strconv.ParseInt(c.Query("page", "1"), 10, 64)
	limit, _ := strconv.ParseInt(c.Query("limit", "20"), 10, 64)

	notifications, total, err := ctrl.Service.ListForUser(c.Context(), principal.OrganizationID, principal.UserID, page, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch notifications",
		})
	}
	return c.JSON(fiber.Map{
		"data":  notifications,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

// UnreadCount godoc
func (ctrl *NotificationController) UnreadCount(c *fiber.Ctx) error {
	principal := rbac.PrincipalFrom(c.Context())
	count, err := ctrl.Service.UnreadCount(c.Context(), principal.OrganizationID, principal.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to count notifications",
		})
	}
	return c.JSON(fiber.Map{"count": count})
}

// MarkRead godoc
func (ctrl *NotificationController) MarkRead(c *fiber.Ctx) error {
	principal := rbac.PrincipalFrom(c.Context())
	id, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid notification ID",
		})
	}

	if err := ctrl.Service.MarkRead(c.Context(), principal.OrganizationID, principal.UserID, id); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Notification not found",
		})
	}
	return c.JSON(fiber.Map{"status": "success"})
}

// MarkAllRead godoc
func (ctrl *NotificationController) MarkAllRead(c *fiber.Ctx) error {
	principal := rbac.PrincipalFrom(c.Context())
	if err := ctrl.Service.MarkAllRead(c.Context(), principal.OrganizationID, principal.UserID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to mark notifications read",
		})
	}
	return c.JSON(fiber.Map{"status": "success"})
}

// connLocals is the slice of websocket.Conn that Stream reads; the websocket
// wrapper copies request Locals onto the connection under string keys.
type connLocals interface {
	Locals(key string, value ...interface{}) interface{}
}

// streamPrincipal pulls the authenticated principal off an upgraded
// connection. The auth middleware ran before the upgrade.
func streamPrincipal(conn connLocals) (common_models.Principal, bool) {
	principal, ok := conn.Locals(string(common_models.PrincipalKey)).(common_models.Principal)
	if !ok || !principal.Authenticated {
		return common_models.Principal{}, false
	}
	return principal, true
}

// Stream keeps a websocket open and delivers the caller's notifications as
// they are created. Inbound frames are ignored; the read loop only detects
// disconnects.
func (ctrl *NotificationController) Stream(conn *websocket.Conn) {
	principal, ok := streamPrincipal(conn)
	if !ok {
		conn.Close()
		return
	}

	ctrl.Hub.Register(principal.UserID, conn)
	defer func() {
		ctrl.Hub.Unregister(principal.UserID, conn)
		conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}
