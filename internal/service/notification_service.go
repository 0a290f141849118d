package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ShaheerAzam/backend/internal/models"
	"github.com/ShaheerAzam/backend/pkg/jobs"
	"github.com/ShaheerAzam/backend/pkg/mail"
)

// Notification event kinds.
const (
	NotifyLessonScheduled   = "lesson.scheduled"
	NotifyLessonRescheduled = "lesson.rescheduled"
	NotifyLessonCancelled   = "lesson.cancelled"
	NotifyLessonReinstated  = "lesson.reinstated"
	NotifyLessonCompleted   = "lesson.completed"
	NotifyEarningsDecided   = "earnings.decided"
	NotifyEarningsPending   = "earnings.pending"
	NotifyPasswordReset     = "auth.password_reset"
)

// NotificationService renders and dispatches emails for domain events.
// Delivery is strictly best effort: every method returns nothing, enqueue
// failures are logged and never propagate to the calling operation.
type NotificationService struct {
	queue        *jobs.Queue
	mailer       mail.Mailer
	metrics      *MetricsService
	appName      string
	dashboardURL string
	logger       *zap.Logger
}

// NewNotificationService constructs a NotificationService backed by a retry
// queue in front of the given mailer.
func NewNotificationService(mailer mail.Mailer, metrics *MetricsService, logger *zap.Logger, appName, dashboardURL string, queueCfg jobs.QueueConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &NotificationService{
		mailer:       mailer,
		metrics:      metrics,
		appName:      appName,
		dashboardURL: dashboardURL,
		logger:       logger,
	}
	queueCfg.Logger = logger
	s.queue = jobs.NewQueue("notifications", s.deliver, queueCfg)
	return s
}

// Start begins background delivery workers.
func (s *NotificationService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the delivery workers.
func (s *NotificationService) Stop() {
	s.queue.Stop()
}

func (s *NotificationService) deliver(ctx context.Context, job jobs.Job) error {
	msg, ok := job.Payload.(mail.Message)
	if !ok {
		s.logger.Error("unexpected notification payload", zap.String("kind", job.Kind))
		return nil
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.metrics.RecordNotification("failure")
		return err
	}
	s.metrics.RecordNotification("success")
	return nil
}

func (s *NotificationService) enqueue(kind string, msg mail.Message) {
	job := jobs.Job{ID: uuid.NewString(), Kind: kind, Payload: msg}
	if err := s.queue.Enqueue(job); err != nil {
		s.logger.Warn("notification dropped", zap.String("kind", kind), zap.Error(err))
	}
}

// LessonScheduled notifies both parties about a newly booked lesson.
func (s *NotificationService) LessonScheduled(lesson *models.Lesson, tutor *models.Tutor, student *models.Student) {
	when := fmt.Sprintf("%s at %s", lesson.LessonDate.Format("Monday 2 January 2006"), lesson.LessonTime)

	s.enqueue(NotifyLessonScheduled, mail.Message{
		To:      []mail.Address{{Name: tutor.FullName, Email: tutor.Email}},
		Subject: "New lesson scheduled",
		Text: fmt.Sprintf("Hi %s,\n\nA %s lesson in %s with %s has been scheduled for %s (%d minutes).\n\nSee your schedule: %s\n",
			tutor.FullName, lesson.Type, lesson.Topic, student.FullName, when, lesson.DurationMinutes, s.dashboardURL),
	})
	s.enqueue(NotifyLessonScheduled, mail.Message{
		To:      []mail.Address{{Name: student.FullName, Email: student.Email}},
		Subject: "Your lesson is booked",
		Text: fmt.Sprintf("Hi %s,\n\nYour %s lesson in %s with %s is booked for %s (%d minutes).\n\nSee your schedule: %s\n",
			student.FullName, lesson.Type, lesson.Topic, tutor.FullName, when, lesson.DurationMinutes, s.dashboardURL),
	})
}

// LessonRescheduled notifies both parties about a moved lesson.
func (s *NotificationService) LessonRescheduled(lesson *models.Lesson, tutor *models.Tutor, student *models.Student) {
	when := fmt.Sprintf("%s at %s", lesson.LessonDate.Format("Monday 2 January 2006"), lesson.LessonTime)
	body := fmt.Sprintf("The %s lesson in %s has been moved to %s (%d minutes).\n\nSee your schedule: %s\n",
		lesson.Type, lesson.Topic, when, lesson.DurationMinutes, s.dashboardURL)

	s.enqueue(NotifyLessonRescheduled, mail.Message{
		To:      []mail.Address{{Name: tutor.FullName, Email: tutor.Email}},
		Subject: "Lesson rescheduled",
		Text:    fmt.Sprintf("Hi %s,\n\n%s", tutor.FullName, body),
	})
	s.enqueue(NotifyLessonRescheduled, mail.Message{
		To:      []mail.Address{{Name: student.FullName, Email: student.Email}},
		Subject: "Lesson rescheduled",
		Text:    fmt.Sprintf("Hi %s,\n\n%s", student.FullName, body),
	})
}

// LessonCancelled notifies both parties about a cancellation. The tutor copy
// states whether the lesson still counts towards pay.
func (s *NotificationService) LessonCancelled(lesson *models.Lesson, tutor *models.Tutor, student *models.Student) {
	when := fmt.Sprintf("%s at %s", lesson.LessonDate.Format("Monday 2 January 2006"), lesson.LessonTime)

	payNote := "Because the lesson was cancelled more than 24 hours in advance, it will not count towards your earnings."
	if lesson.TutorPaid {
		payNote = "Because the lesson was cancelled less than 24 hours before its start, it still counts towards your earnings."
	}

	s.enqueue(NotifyLessonCancelled, mail.Message{
		To:      []mail.Address{{Name: tutor.FullName, Email: tutor.Email}},
		Subject: "Lesson cancelled",
		Text: fmt.Sprintf("Hi %s,\n\nThe %s lesson in %s with %s on %s has been cancelled. %s\n",
			tutor.FullName, lesson.Type, lesson.Topic, student.FullName, when, payNote),
	})
	s.enqueue(NotifyLessonCancelled, mail.Message{
		To:      []mail.Address{{Name: student.FullName, Email: student.Email}},
		Subject: "Lesson cancelled",
		Text: fmt.Sprintf("Hi %s,\n\nYour %s lesson in %s on %s has been cancelled.\n",
			student.FullName, lesson.Type, lesson.Topic, when),
	})
}

// LessonReinstated notifies both parties that a cancellation was undone.
func (s *NotificationService) LessonReinstated(lesson *models.Lesson, tutor *models.Tutor, student *models.Student) {
	when := fmt.Sprintf("%s at %s", lesson.LessonDate.Format("Monday 2 January 2006"), lesson.LessonTime)
	body := fmt.Sprintf("The cancelled %s lesson in %s on %s is back on the schedule.\n\nSee your schedule: %s\n",
		lesson.Type, lesson.Topic, when, s.dashboardURL)

	s.enqueue(NotifyLessonReinstated, mail.Message{
		To:      []mail.Address{{Name: tutor.FullName, Email: tutor.Email}},
		Subject: "Lesson reinstated",
		Text:    fmt.Sprintf("Hi %s,\n\n%s", tutor.FullName, body),
	})
	s.enqueue(NotifyLessonReinstated, mail.Message{
		To:      []mail.Address{{Name: student.FullName, Email: student.Email}},
		Subject: "Lesson reinstated",
		Text:    fmt.Sprintf("Hi %s,\n\n%s", student.FullName, body),
	})
}

// LessonCompleted confirms to both parties that a lesson was marked taught.
func (s *NotificationService) LessonCompleted(lesson *models.Lesson, tutor *models.Tutor, student *models.Student) {
	when := fmt.Sprintf("%s at %s", lesson.LessonDate.Format("Monday 2 January 2006"), lesson.LessonTime)

	s.enqueue(NotifyLessonCompleted, mail.Message{
		To:      []mail.Address{{Name: tutor.FullName, Email: tutor.Email}},
		Subject: "Lesson completed",
		Text: fmt.Sprintf("Hi %s,\n\nThe %s lesson in %s with %s on %s has been marked completed and will count towards your next earnings period.\n",
			tutor.FullName, lesson.Type, lesson.Topic, student.FullName, when),
	})
	s.enqueue(NotifyLessonCompleted, mail.Message{
		To:      []mail.Address{{Name: student.FullName, Email: student.Email}},
		Subject: "Lesson completed",
		Text: fmt.Sprintf("Hi %s,\n\nYour %s lesson in %s on %s has been marked completed.\n",
			student.FullName, lesson.Type, lesson.Topic, when),
	})
}

// EarningsDecided notifies a tutor that a payroll period was approved or
// rejected.
func (s *NotificationService) EarningsDecided(tutor *models.Tutor, approval *models.EarningsApproval) {
	period := fmt.Sprintf("%s - %s", approval.PeriodStart.Format("2 January 2006"), approval.PeriodEnd.AddDate(0, 0, -1).Format("2 January 2006"))

	var subject, body string
	switch approval.Status {
	case models.ApprovalApproved:
		subject = "Earnings approved"
		body = fmt.Sprintf("Your earnings of %s NOK for the period %s have been approved for payout.", approval.TotalAmount.StringFixed(2), period)
	case models.ApprovalRejected:
		subject = "Earnings under review"
		body = fmt.Sprintf("Your earnings for the period %s were not approved. Please contact the administration.", period)
	default:
		return
	}

	s.enqueue(NotifyEarningsDecided, mail.Message{
		To:      []mail.Address{{Name: tutor.FullName, Email: tutor.Email}},
		Subject: subject,
		Text:    fmt.Sprintf("Hi %s,\n\n%s\n\nDetails: %s\n", tutor.FullName, body, s.dashboardURL),
	})
}

// EarningsPending notifies a tutor that a new payroll period is awaiting
// admin approval.
func (s *NotificationService) EarningsPending(tutor *models.Tutor, total decimal.Decimal, periodStart, periodEnd string) {
	s.enqueue(NotifyEarningsPending, mail.Message{
		To:      []mail.Address{{Name: tutor.FullName, Email: tutor.Email}},
		Subject: "Earnings summary ready",
		Text: fmt.Sprintf("Hi %s,\n\nYour earnings of %s NOK for the period %s - %s are awaiting approval.\n\nDetails: %s\n",
			tutor.FullName, total.StringFixed(2), periodStart, periodEnd, s.dashboardURL),
	})
}

// PasswordReset emails a temporary password to the account holder.
func (s *NotificationService) PasswordReset(role models.UserRole, email, fullName, tempPassword string) {
	s.enqueue(NotifyPasswordReset, mail.Message{
		To:      []mail.Address{{Name: fullName, Email: email}},
		Subject: "Your password has been reset",
		Text: fmt.Sprintf("Hi %s,\n\nYour %s account password has been reset. Temporary password:\n\n    %s\n\nPlease sign in and change it: %s\n",
			fullName, role, tempPassword, s.dashboardURL),
	})
}
