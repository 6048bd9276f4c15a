package notification

import (
	"context"
	"fmt"
	"log"
	"time"

	"go-lpm/internal/features/matter"

	"github.com/robfig/cron/v3"
	"go.mongodb.org/mongo-driver/bson"
)

// reminderWindow is how far ahead a deadline must fall to trigger a reminder.
const reminderWindow = 48 * time.Hour

// DeadlineReminder runs on a schedule, turning upcoming deadlines into
// notifications for the matter's lead lawyer. Each deadline is reminded at
// most once; MarkReminderSent is written before the notification so a crash
// cannot double-remind.
type DeadlineReminder struct {
	Deadlines matter.DeadlineRepository
	Matters   matter.MatterRepository
	Service   NotificationService

	scheduler *cron.Cron
}

func NewDeadlineReminder(deadlines matter.DeadlineRepository, matters matter.MatterRepository, service NotificationService) *DeadlineReminder {
	return &DeadlineReminder{
		Deadlines: deadlines,
		Matters:   matters,
		Service:   service,
	}
}

// Start schedules the reminder sweep every 15 minutes.
func (r *DeadlineReminder) Start() error {
	r.scheduler = cron.New()
	if _, err := r.scheduler.AddFunc("*/15 * * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := r.Run(ctx); err != nil {
			log.Printf("deadline reminder sweep failed: %v", err)
		}
	}); err != nil {
		return err
	}
	r.scheduler.Start()
	return nil
}

func (r *DeadlineReminder) Stop() {
	if r.scheduler != nil {
		r.scheduler.Stop()
	}
}

// Run performs one sweep. Exported so the scheduler and tests share the same
// path.
func (r *DeadlineReminder) Run(ctx context.Context) error {
	due, err := r.Deadlines.DueForReminder(ctx, reminderWindow)
	if err != nil {
		return err
	}

	for _, d := range due {
		m, err := r.Matters.FindOne(ctx, bson.M{"_id": d.MatterID, "tenant_id": d.TenantID})
		if err != nil {
			log.Printf("deadline reminder: matter %s lookup failed: %v", d.MatterID.Hex(), err)
			continue
		}

		if err := r.Deadlines.MarkReminderSent(ctx, d.ID); err != nil {
			log.Printf("deadline reminder: mark sent failed for %s: %v", d.ID.Hex(), err)
			continue
		}

		title := fmt.Sprintf("%s is due %s (%s)", d.Title, d.DueDate.Format("Jan 2"), m.Reference)
		if err := r.Service.Notify(ctx, d.TenantID, m.LeadLawyerID, KindDeadlineReminder, title, "deadline", d.ID.Hex()); err != nil {
			log.Printf("deadline reminder: notify failed for %s: %v", d.ID.Hex(), err)
		}
	}
	return nil
}
