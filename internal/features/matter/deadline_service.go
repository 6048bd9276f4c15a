package matter

import (
	"context"
	"time"

	"go-lpm/internal/common/models"
	"go-lpm/internal/features/rbac"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Deadlines inherit visibility from their parent matter.
var deadlineRowPolicy = rbac.RowPolicy{
	Resource:         "deadline",
	MatterField:      "matter_id",
	BypassPermission: "matter.view_all",
}

type DeadlineService interface {
	CreateDeadline(ctx context.Context, d *Deadline) error
	GetDeadline(ctx context.Context, id primitive.ObjectID) (*Deadline, error)
	ListDeadlines(ctx context.Context, matterID *primitive.ObjectID, page, limit int64) ([]Deadline, error)
	UpdateDeadline(ctx context.Context, d *Deadline) error
	DeleteDeadline(ctx context.Context, id primitive.ObjectID) error
	MarkCompleted(ctx context.Context, id primitive.ObjectID) error
	Summary(ctx context.Context) (*DeadlineSummary, error)
	Calendar(ctx context.Context, from, to time.Time) ([]Deadline, error)
}

type DeadlineServiceImpl struct {
	Repo         DeadlineRepository
	Matters      MatterService
	Scoper       *rbac.Scoper
	AuditService rbac.AuditLogger
}

func NewDeadlineService(repo DeadlineRepository, matters MatterService, scoper *rbac.Scoper, auditService rbac.AuditLogger) DeadlineService {
	return &DeadlineServiceImpl{
		Repo:         repo,
		Matters:      matters,
		Scoper:       scoper,
		AuditService: auditService,
	}
}

func (s *DeadlineServiceImpl) CreateDeadline(ctx context.Context, d *Deadline) error {
	principal := rbac.PrincipalFrom(ctx)

	// The caller must be able to see the matter they attach the deadline to.
	if _, err := s.Matters.GetMatter(ctx, d.MatterID); err != nil {
		return err
	}

	d.TenantID = principal.OrganizationID
	d.CreatedBy = principal.UserID
	if err := s.Repo.Create(ctx, d); err != nil {
		return err
	}

	_ = s.AuditService.LogChange(ctx, models.AuditActionCreate, "deadline", d.ID.Hex(), map[string]models.Change{
		"title":    {New: d.Title},
		"due_date": {New: d.DueDate},
	})
	return nil
}

func (s *DeadlineServiceImpl) GetDeadline(ctx context.Context, id primitive.ObjectID) (*Deadline, error) {
	filter, err := s.scopedFilter(ctx)
	if err != nil {
		return nil, err
	}
	filter["_id"] = id
	return s.Repo.FindOne(ctx, filter)
}

func (s *DeadlineServiceImpl) ListDeadlines(ctx context.Context, matterID *primitive.ObjectID, page, limit int64) ([]Deadline, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 50
	}
	filter, err := s.scopedFilter(ctx)
	if err != nil {
		return nil, err
	}
	if matterID != nil {
		filter["matter_id"] = *matterID
	}
	return s.Repo.List(ctx, filter, limit, (page-1)*limit)
}

func (s *DeadlineServiceImpl) UpdateDeadline(ctx context.Context, d *Deadline) error {
	existing, err := s.GetDeadline(ctx, d.ID)
	if err != nil {
		return err
	}

	d.TenantID = existing.TenantID
	d.MatterID = existing.MatterID
	d.CreatedBy = existing.CreatedBy
	d.CreatedAt = existing.CreatedAt
	d.Completed = existing.Completed
	d.CompletedAt = existing.CompletedAt
	d.CompletedBy = existing.CompletedBy
	if err := s.Repo.Update(ctx, d); err != nil {
		return err
	}

	changes := map[string]models.Change{}
	if !existing.DueDate.Equal(d.DueDate) {
		changes["due_date"] = models.Change{Old: existing.DueDate, New: d.DueDate}
	}
	if existing.Title != d.Title {
		changes["title"] = models.Change{Old: existing.Title, New: d.Title}
	}
	_ = s.AuditService.LogChange(ctx, models.AuditActionUpdate, "deadline", d.ID.Hex(), changes)
	return nil
}

func (s *DeadlineServiceImpl) DeleteDeadline(ctx context.Context, id primitive.ObjectID) error {
	principal := rbac.PrincipalFrom(ctx)
	if _, err := s.GetDeadline(ctx, id); err != nil {
		return err
	}
	if err := s.Repo.Delete(ctx, principal.OrganizationID, id); err != nil {
		return err
	}
	_ = s.AuditService.LogChange(ctx, models.AuditActionDelete, "deadline", id.Hex(), nil)
	return nil
}

func (s *DeadlineServiceImpl) MarkCompleted(ctx context.Context, id primitive.ObjectID) error {
	principal := rbac.PrincipalFrom(ctx)
	if _, err := s.GetDeadline(ctx, id); err != nil {
		return err
	}
	if err := s.Repo.MarkCompleted(ctx, principal.OrganizationID, id, principal.UserID); err != nil {
		return err
	}
	_ = s.AuditService.LogChange(ctx, models.AuditActionUpdate, "deadline", id.Hex(), map[string]models.Change{
		"completed": {Old: false, New: true},
	})
	return nil
}

// Summary counts the caller's visible deadlines by urgency bucket.
func (s *DeadlineServiceImpl) Summary(ctx context.Context) (*DeadlineSummary, error) {
	base, err := s.scopedFilter(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	endOfDay := startOfDay.AddDate(0, 0, 1)
	endOfWeek := startOfDay.AddDate(0, 0, 7)

	summary := &DeadlineSummary{}
	counts := []struct {
		dest  *int64
		extra bson.M
	}{
		{&summary.Overdue, bson.M{"completed": false, "due_date": bson.M{"$lt": startOfDay}}},
		{&summary.DueToday, bson.M{"completed": false, "due_date": bson.M{"$gte": startOfDay, "$lt": endOfDay}}},
		{&summary.DueIn7, bson.M{"completed": false, "due_date": bson.M{"$gte": startOfDay, "$lt": endOfWeek}}},
		{&summary.Completed, bson.M{"completed": true}},
	}
	for _, c := range counts {
		filter := bson.M{}
		for k, v := range base {
			filter[k] = v
		}
		for k, v := range c.extra {
			filter[k] = v
		}
		n, err := s.Repo.Count(ctx, filter)
		if err != nil {
			return nil, err
		}
		*c.dest = n
	}
	return summary, nil
}

func (s *DeadlineServiceImpl) Calendar(ctx context.Context, from, to time.Time) ([]Deadline, error) {
	filter, err := s.scopedFilter(ctx)
	if err != nil {
		return nil, err
	}
	return s.Repo.ListInRange(ctx, filter, from, to)
}

func (s *DeadlineServiceImpl) scopedFilter(ctx context.Context) (bson.M, error) {
	principal := rbac.PrincipalFrom(ctx)
	return s.Scoper.Scope(ctx, principal, deadlineRowPolicy)
}
