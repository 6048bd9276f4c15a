package notification

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type NotificationService interface {
	Notify(ctx context.Context, orgID, userID primitive.ObjectID, kind, title, refType, refID string) error
	ListForUser(ctx context.Context, orgID, userID primitive.ObjectID, page, limit int64) ([]Notification, int64, error)
	UnreadCount(ctx context.Context, orgID, userID primitive.ObjectID) (int64, error)
	MarkRead(ctx context.Context, orgID, userID, id primitive.ObjectID) error
	MarkAllRead(ctx context.Context, orgID, userID primitive.ObjectID) error
}

type NotificationServiceImpl struct {
	Repo NotificationRepository
	Hub  *Hub
}

func NewNotificationService(repo NotificationRepository, hub *Hub) NotificationService {
	return &NotificationServiceImpl{
		Repo: repo,
		Hub:  hub,
	}
}

// Notify persists the notification and pushes it to the recipient's open
// websocket connections.
func (s *NotificationServiceImpl) Notify(ctx context.Context, orgID, userID primitive.ObjectID, kind, title, refType, refID string) error {
	n := &Notification{
		TenantID: orgID,
		UserID:   userID,
		Kind:     kind,
		Title:    title,
		RefType:  refType,
		RefID:    refID,
	}
	if err := s.Repo.Create(ctx, n); err != nil {
		return err
	}
	s.Hub.Push(userID, n)
	return nil
}

func (s *NotificationServiceImpl) ListForUser(ctx context.Context, orgID, userID primitive.ObjectID, page, limit int64) ([]Notification, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	return s.Repo.ListForUser(ctx, orgID, userID, limit, (page-1)*limit)
}

func (s *NotificationServiceImpl) UnreadCount(ctx context.Context, orgID, userID primitive.ObjectID) (int64, error) {
	return s.Repo.UnreadCount(ctx, orgID, userID)
}

func (s *NotificationServiceImpl) MarkRead(ctx context.Context, orgID, userID, id primitive.ObjectID) error {
	return s.Repo.MarkRead(ctx, orgID, userID, id)
}

func (s *NotificationServiceImpl) MarkAllRead(ctx context.Context, orgID, userID primitive.ObjectID) error {
	return s.Repo.MarkAllRead(ctx, orgID, userID)
}
