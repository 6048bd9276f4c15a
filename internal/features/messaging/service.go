package messaging

import (
	"context"
	"time"

	"go-lpm/internal/common/models"
	"go-lpm/internal/features/matter"
	"go-lpm/internal/features/rbac"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Threads and messages follow the matter's visibility on both sides of the
// conversation: staff reach them through lead/grant, portal users through
// their client's matters.
var (
	threadRowPolicy = rbac.RowPolicy{
		Resource:         "thread",
		MatterField:      "matter_id",
		BypassPermission: "matter.view_all",
	}
	messageRowPolicy = rbac.RowPolicy{
		Resource:         "message",
		MatterField:      "matter_id",
		BypassPermission: "matter.view_all",
	}
)

// ClientDirectory resolves a client's portal user for reply notifications.
// Satisfied by the client feature's repository.
type ClientDirectory interface {
	PortalUserIDForClient(ctx context.Context, orgID, clientID primitive.ObjectID) (primitive.ObjectID, error)
}

type MessagingService interface {
	CreateThread(ctx context.Context, thread *MessageThread) error
	GetThread(ctx context.Context, id primitive.ObjectID) (*MessageThread, error)
	ListThreads(ctx context.Context, matterID *primitive.ObjectID, page, limit int64) ([]MessageThread, error)
	PostMessage(ctx context.Context, threadID primitive.ObjectID, body string) (*Message, error)
	ListMessages(ctx context.Context, threadID primitive.ObjectID, page, limit int64) ([]Message, error)
}

type MessagingServiceImpl struct {
	Threads      ThreadRepository
	Messages     MessageRepository
	Matters      matter.MatterService
	Clients      ClientDirectory
	Scoper       *rbac.Scoper
	Notifier     models.Notifier
	AuditService rbac.AuditLogger
}

func NewMessagingService(
	threads ThreadRepository,
	messages MessageRepository,
	matters matter.MatterService,
	clients ClientDirectory,
	scoper *rbac.Scoper,
	notifier models.Notifier,
	auditService rbac.AuditLogger,
) MessagingService {
	return &MessagingServiceImpl{
		Threads:      threads,
		Messages:     messages,
		Matters:      matters,
		Clients:      clients,
		Scoper:       scoper,
		Notifier:     notifier,
		AuditService: auditService,
	}
}

func (s *MessagingServiceImpl) CreateThread(ctx context.Context, thread *MessageThread) error {
	principal := rbac.PrincipalFrom(ctx)

	// The creator must be able to see the matter.
	if _, err := s.Matters.GetMatter(ctx, thread.MatterID); err != nil {
		return err
	}

	thread.TenantID = principal.OrganizationID
	thread.CreatedBy = principal.UserID
	if err := s.Threads.Create(ctx, thread); err != nil {
		return err
	}

	_ = s.AuditService.LogChange(ctx, models.AuditActionCreate, "message_thread", thread.ID.Hex(), map[string]models.Change{
		"subject": {New: thread.Subject},
		"matter":  {New: thread.MatterID.Hex()},
	})
	return nil
}

func (s *MessagingServiceImpl) GetThread(ctx context.Context, id primitive.ObjectID) (*MessageThread, error) {
	filter, err := s.scoped(ctx, threadRowPolicy)
	if err != nil {
		return nil, err
	}
	filter["_id"] = id
	return s.Threads.FindOne(ctx, filter)
}

func (s *MessagingServiceImpl) ListThreads(ctx context.Context, matterID *primitive.ObjectID, page, limit int64) ([]MessageThread, error) {
	filter, err := s.scoped(ctx, threadRowPolicy)
	if err != nil {
		return nil, err
	}
	if matterID != nil {
		filter["matter_id"] = *matterID
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	return s.Threads.List(ctx, filter, limit, (page-1)*limit)
}

// PostMessage appends to a visible thread and pings the other side of the
// conversation.
func (s *MessagingServiceImpl) PostMessage(ctx context.Context, threadID primitive.ObjectID, body string) (*Message, error) {
	principal := rbac.PrincipalFrom(ctx)

	thread, err := s.GetThread(ctx, threadID)
	if err != nil {
		return nil, err
	}

	msg := &Message{
		TenantID: principal.OrganizationID,
		ThreadID: thread.ID,
		MatterID: thread.MatterID,
		SenderID: principal.UserID,
		Body:     body,
		SentAt:   time.Now(),
	}
	if err := s.Messages.Create(ctx, msg); err != nil {
		return nil, err
	}
	if err := s.Threads.TouchLastMessage(ctx, principal.OrganizationID, thread.ID, msg.SentAt); err != nil {
		return nil, err
	}

	s.notifyCounterpart(ctx, thread)
	return msg, nil
}

// notifyCounterpart pings the lead lawyer for portal senders and the matter's
// portal user for staff senders. Best effort.
func (s *MessagingServiceImpl) notifyCounterpart(ctx context.Context, thread *MessageThread) {
	principal := rbac.PrincipalFrom(ctx)

	m, err := s.Matters.GetMatter(ctx, thread.MatterID)
	if err != nil {
		return
	}

	title := "New message in " + thread.Subject
	if principal.IsClient() {
		_ = s.Notifier.Notify(ctx, principal.OrganizationID, m.LeadLawyerID,
			"message", title, "thread", thread.ID.Hex())
		return
	}

	portalUserID, err := s.Clients.PortalUserIDForClient(ctx, principal.OrganizationID, m.ClientID)
	if err != nil {
		return
	}
	_ = s.Notifier.Notify(ctx, principal.OrganizationID, portalUserID,
		"message", title, "thread", thread.ID.Hex())
}

func (s *MessagingServiceImpl) ListMessages(ctx context.Context, threadID primitive.ObjectID, page, limit int64) ([]Message, error) {
	// Resolving the thread through the scoper covers the messages beneath it.
	if _, err := s.GetThread(ctx, threadID); err != nil {
		return nil, err
	}

	filter, err := s.scoped(ctx, messageRowPolicy)
	if err != nil {
		return nil, err
	}
	filter["thread_id"] = threadID
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 50
	}
	return s.Messages.List(ctx, filter, limit, (page-1)*limit)
}

func (s *MessagingServiceImpl) scoped(ctx context.Context, policy rbac.RowPolicy) (bson.M, error) {
	principal := rbac.PrincipalFrom(ctx)
	return s.Scoper.Scope(ctx, principal, policy)
}
