package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	"go-lpm/internal/features/matter"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type fakeDeadlineRepo struct {
	due      []matter.Deadline
	sent     []primitive.ObjectID
	sendFail bool
}

func (r *fakeDeadlineRepo) Create(ctx context.Context, d *matter.Deadline) error { return nil }
func (r *fakeDeadlineRepo) FindOne(ctx context.Context, filter bson.M) (*matter.Deadline, error) {
	return nil, mongo.ErrNoDocuments
}
func (r *fakeDeadlineRepo) List(ctx context.Context, filter bson.M, limit, offset int64) ([]matter.Deadline, error) {
	return nil, nil
}
func (r *fakeDeadlineRepo) ListInRange(ctx context.Context, filter bson.M, from, to time.Time) ([]matter.Deadline, error) {
	return nil, nil
}
func (r *fakeDeadlineRepo) Update(ctx context.Context, d *matter.Deadline) error { return nil }
func (r *fakeDeadlineRepo) Delete(ctx context.Context, orgID, id primitive.ObjectID) error {
	return nil
}
func (r *fakeDeadlineRepo) MarkCompleted(ctx context.Context, orgID, id, userID primitive.ObjectID) error {
	return nil
}
func (r *fakeDeadlineRepo) Count(ctx context.Context, filter bson.M) (int64, error) { return 0, nil }

func (r *fakeDeadlineRepo) DueForReminder(ctx context.Context, within time.Duration) ([]matter.Deadline, error) {
	return r.due, nil
}

func (r *fakeDeadlineRepo) MarkReminderSent(ctx context.Context, id primitive.ObjectID) error {
	if r.sendFail {
		return errors.New("mark failed")
	}
	r.sent = append(r.sent, id)
	return nil
}

type fakeMatterRepo struct {
	matters map[primitive.ObjectID]*matter.Matter
}

func (r *fakeMatterRepo) Create(ctx context.Context, m *matter.Matter) error { return nil }
func (r *fakeMatterRepo) FindOne(ctx context.Context, filter bson.M) (*matter.Matter, error) {
	id, _ := filter["_id"].(primitive.ObjectID)
	m, ok := r.matters[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	if tenantID, ok := filter["tenant_id"].(primitive.ObjectID); ok && m.TenantID != tenantID {
		return nil, mongo.ErrNoDocuments
	}
	return m, nil
}
func (r *fakeMatterRepo) List(ctx context.Context, filter bson.M, limit, offset int64) ([]matter.Matter, error) {
	return nil, nil
}
func (r *fakeMatterRepo) Update(ctx context.Context, m *matter.Matter) error { return nil }
func (r *fakeMatterRepo) Delete(ctx context.Context, orgID, id primitive.ObjectID) error {
	return nil
}
func (r *fakeMatterRepo) GrantAccess(ctx context.Context, orgID, matterID, userID primitive.ObjectID) error {
	return nil
}
func (r *fakeMatterRepo) RevokeAccess(ctx context.Context, orgID, matterID, userID primitive.ObjectID) error {
	return nil
}
func (r *fakeMatterRepo) VisibleMatterIDs(ctx context.Context, orgID, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	return nil, nil
}
func (r *fakeMatterRepo) ClientMatterIDs(ctx context.Context, orgID, clientID primitive.ObjectID) ([]primitive.ObjectID, error) {
	return nil, nil
}

type recordedNotification struct {
	userID primitive.ObjectID
	kind   string
	title  string
}

type fakeNotificationService struct {
	NotificationService
	sent []recordedNotification
}

func (s *fakeNotificationService) Notify(ctx context.Context, orgID, userID primitive.ObjectID, kind, title, refType, refID string) error {
	s.sent = append(s.sent, recordedNotification{userID: userID, kind: kind, title: title})
	return nil
}

func TestReminderRunNotifiesLeadLawyer(t *testing.T) {
	orgID := primitive.NewObjectID()
	lawyerID := primitive.NewObjectID()
	matterID := primitive.NewObjectID()
	deadlineID := primitive.NewObjectID()

	deadlines := &fakeDeadlineRepo{due: []matter.Deadline{{
		ID:       deadlineID,
		TenantID: orgID,
		MatterID: matterID,
		Title:    "File statement of claim",
		DueDate:  time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC),
	}}}
	matters := &fakeMatterRepo{matters: map[primitive.ObjectID]*matter.Matter{
		matterID: {ID: matterID, TenantID: orgID, Reference: "DEMO-00001", LeadLawyerID: lawyerID},
	}}
	service := &fakeNotificationService{}
	r := NewDeadlineReminder(deadlines, matters, service)

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(service.sent) != 1 {
		t.Fatalf("got %d notifications, want 1", len(service.sent))
	}
	got := service.sent[0]
	if got.userID != lawyerID {
		t.Errorf("notified %v, want lead lawyer %v", got.userID, lawyerID)
	}
	if got.kind != KindDeadlineReminder {
		t.Errorf("kind = %q", got.kind)
	}
	if want := "File statement of claim is due Sep 1 (DEMO-00001)"; got.title != want {
		t.Errorf("title = %q, want %q", got.title, want)
	}
	if len(deadlines.sent) != 1 || deadlines.sent[0] != deadlineID {
		t.Errorf("reminder not marked sent: %v", deadlines.sent)
	}
}

func TestReminderSkipsUnresolvableMatters(t *testing.T) {
	orgID := primitive.NewObjectID()
	deadlines := &fakeDeadlineRepo{due: []matter.Deadline{{
		ID:       primitive.NewObjectID(),
		TenantID: orgID,
		MatterID: primitive.NewObjectID(), // no such matter
		Title:    "Orphaned deadline",
		DueDate:  time.Now(),
	}}}
	service := &fakeNotificationService{}
	r := NewDeadlineReminder(deadlines, &fakeMatterRepo{matters: map[primitive.ObjectID]*matter.Matter{}}, service)

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(service.sent) != 0 {
		t.Errorf("notified for an unresolvable matter: %v", service.sent)
	}
	if len(deadlines.sent) != 0 {
		t.Errorf("marked sent without notifying anyone: %v", deadlines.sent)
	}
}

// The mark is written before the notification so a crash between the two can
// only lose a reminder, never duplicate one.
func TestReminderDoesNotNotifyWhenMarkFails(t *testing.T) {
	orgID := primitive.NewObjectID()
	matterID := primitive.NewObjectID()
	deadlines := &fakeDeadlineRepo{
		sendFail: true,
		due: []matter.Deadline{{
			ID:       primitive.NewObjectID(),
			TenantID: orgID,
			MatterID: matterID,
			Title:    "Limitation date",
			DueDate:  time.Now(),
		}},
	}
	matters := &fakeMatterRepo{matters: map[primitive.ObjectID]*matter.Matter{
		matterID: {ID: matterID, TenantID: orgID, Reference: "DEMO-00002", LeadLawyerID: primitive.NewObjectID()},
	}}
	service := &fakeNotificationService{}
	r := NewDeadlineReminder(deadlines, matters, service)

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(service.sent) != 0 {
		t.Errorf("notification sent despite mark failure: %v", service.sent)
	}
}
