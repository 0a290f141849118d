package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ShaheerAzam/backend/internal/models"
	"github.com/ShaheerAzam/backend/internal/repository"
	appErrors "github.com/ShaheerAzam/backend/pkg/errors"
)

// cancellationPayWindow is the cutoff below which a cancelled lesson still
// counts towards the tutor's earnings.
const cancellationPayWindow = 24 * time.Hour

type lessonRepository interface {
	Create(ctx context.Context, lesson *models.Lesson) error
	CreateBatch(ctx context.Context, lessons []*models.Lesson) error
	FindByID(ctx context.Context, id string) (*models.Lesson, error)
	List(ctx context.Context, filter models.LessonFilter) ([]models.LessonWithNames, error)
	ListForTutorOnDate(ctx context.Context, tutorID string, date time.Time) ([]models.Lesson, error)
	ListByIDs(ctx context.Context, ids []string) ([]models.Lesson, error)
	Update(ctx context.Context, lesson *models.Lesson) error
	UpdateFields(ctx context.Context, ids []string, set models.LessonBulkSet) ([]models.Lesson, error)
	MarkCompletedBefore(ctx context.Context, now time.Time) (int64, error)
	ActivateDue(ctx context.Context, now time.Time) (int64, error)
}

type lessonAccountReader interface {
	FindTutorByID(ctx context.Context, id string) (*models.Tutor, error)
	FindStudentByID(ctx context.Context, id string) (*models.Student, error)
}

type lessonNotifier interface {
	LessonScheduled(lesson *models.Lesson, tutor *models.Tutor, student *models.Student)
	LessonRescheduled(lesson *models.Lesson, tutor *models.Tutor, student *models.Student)
	LessonCancelled(lesson *models.Lesson, tutor *models.Tutor, student *models.Student)
	LessonReinstated(lesson *models.Lesson, tutor *models.Tutor, student *models.Student)
	LessonCompleted(lesson *models.Lesson, tutor *models.Tutor, student *models.Student)
}

// LessonService implements the lesson lifecycle: booking, bundles,
// rescheduling, cancellation with the 24-hour pay rule, and the time-driven
// status sweep.
type LessonService struct {
	lessons   lessonRepository
	accounts  lessonAccountReader
	notifier  lessonNotifier
	validator *validator.Validate
	logger    *zap.Logger
	nowFn     func() time.Time
}

// NewLessonService constructs a LessonService.
func NewLessonService(lessons lessonRepository, accounts lessonAccountReader, notifier lessonNotifier, validate *validator.Validate, logger *zap.Logger) *LessonService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &LessonService{
		lessons:   lessons,
		accounts:  accounts,
		notifier:  notifier,
		validator: validate,
		logger:    logger,
		nowFn:     func() time.Time { return time.Now().UTC() },
	}
}

// ScheduleLesson books a lesson for a tutor/student pair. Admins book on
// behalf of anyone; students only book for themselves. When Weeks > 1 the
// same weekday slot is booked that many weeks in a row as an atomic bundle:
// if any occurrence conflicts, nothing is persisted.
func (s *LessonService) ScheduleLesson(ctx context.Context, actor *models.JWTClaims, req models.ScheduleLessonRequest) ([]models.LessonView, error) {
	switch actor.Role {
	case models.RoleAdmin:
	case models.RoleStudent:
		if req.StudentID != actor.UserID {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "students can only book lessons for themselves")
		}
	default:
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only admins and students can book lessons")
	}

	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lesson payload")
	}
	if !models.ValidLessonLevel(req.Level) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown level %q", req.Level))
	}

	firstDate, err := time.ParseInLocation("2006-01-02", req.LessonDate, time.UTC)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid lesson date")
	}

	tutor, student, err := s.loadParticipants(ctx, req.TutorID, req.StudentID)
	if err != nil {
		return nil, err
	}

	location := req.Location
	if req.Type == models.LessonOnline {
		location = nil
	}

	weeks := req.Weeks
	if weeks < 1 {
		weeks = 1
	}
	var bundleID *string
	if weeks > 1 {
		id := uuid.NewString()
		bundleID = &id
	}

	now := s.nowFn()
	lessons := make([]*models.Lesson, 0, weeks)
	for week := 0; week < weeks; week++ {
		date := firstDate.AddDate(0, 0, 7*week)

		if err := s.ensureAvailable(ctx, req.TutorID, date, req.LessonTime, req.DurationMinutes, ""); err != nil {
			return nil, err
		}

		start, end, err := lessonWindow(date, req.LessonTime, req.DurationMinutes)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid lesson time")
		}

		lessons = append(lessons, &models.Lesson{
			LessonDate:      date,
			LessonTime:      req.LessonTime,
			DurationMinutes: req.DurationMinutes,
			Level:           req.Level,
			Topic:           req.Topic,
			Type:            req.Type,
			Location:        location,
			TutorID:         req.TutorID,
			StudentID:       req.StudentID,
			Status:          deriveStatus(start, end, now),
			BundleID:        bundleID,
		})
	}

	if len(lessons) == 1 {
		err = s.lessons.Create(ctx, lessons[0])
	} else {
		err = s.lessons.CreateBatch(ctx, lessons)
	}
	if err != nil {
		if errors.Is(err, repository.ErrSlotTaken) {
			return nil, appErrors.Clone(appErrors.ErrScheduleConflict, "tutor is not available at the specified time")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist lesson")
	}

	views := make([]models.LessonView, 0, len(lessons))
	for _, lesson := range lessons {
		s.notifier.LessonScheduled(lesson, tutor, student)
		views = append(views, lessonView(lesson, tutor.FullName, student.FullName))
	}

	s.logger.Info("lesson scheduled",
		zap.String("tutor_id", req.TutorID),
		zap.String("student_id", req.StudentID),
		zap.Int("occurrences", len(lessons)))
	return views, nil
}

// GetLesson returns a single lesson, scoped to the requesting user.
func (s *LessonService) GetLesson(ctx context.Context, actor *models.JWTClaims, id string) (*models.LessonView, error) {
	lesson, err := s.findLesson(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeParticipant(actor, lesson); err != nil {
		return nil, err
	}

	tutor, student, err := s.loadParticipants(ctx, lesson.TutorID, lesson.StudentID)
	if err != nil {
		return nil, err
	}
	view := lessonView(lesson, tutor.FullName, student.FullName)
	return &view, nil
}

// ListLessons returns lessons visible to the requesting user: admins see
// everything, tutors and students only their own.
func (s *LessonService) ListLessons(ctx context.Context, actor *models.JWTClaims) ([]models.LessonView, error) {
	var filter models.LessonFilter
	switch actor.Role {
	case models.RoleAdmin:
	case models.RoleTutor:
		filter.TutorID = actor.UserID
	case models.RoleStudent:
		filter.StudentID = actor.UserID
	default:
		return nil, appErrors.Clone(appErrors.ErrForbidden, "unknown role")
	}

	rows, err := s.lessons.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list lessons")
	}

	views := make([]models.LessonView, 0, len(rows))
	for i := range rows {
		views = append(views, lessonView(&rows[i].Lesson, rows[i].TutorName, rows[i].StudentName))
	}
	return views, nil
}

// RescheduleLesson moves a lesson to a new slot, re-deriving its status from
// the new window. Omitted fields keep the lesson's current values; at least
// one must be given. Completed and cancelled lessons cannot be moved.
func (s *LessonService) RescheduleLesson(ctx context.Context, actor *models.JWTClaims, id string, req models.RescheduleLessonRequest) (*models.LessonView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reschedule payload")
	}
	if req.LessonDate == nil && req.LessonTime == nil && req.DurationMinutes == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "at least one of lesson_date, lesson_time or duration is required")
	}

	lesson, err := s.findLesson(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeTutorOrAdmin(actor, lesson); err != nil {
		return nil, err
	}
	if lesson.Status == models.LessonCompleted || lesson.Status == models.LessonCancelled {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("cannot reschedule a %s lesson", lesson.Status))
	}

	date := lesson.LessonDate
	if req.LessonDate != nil {
		date, err = time.ParseInLocation("2006-01-02", *req.LessonDate, time.UTC)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid lesson date")
		}
	}
	lessonTime := lesson.LessonTime
	if req.LessonTime != nil {
		lessonTime = *req.LessonTime
	}
	duration := lesson.DurationMinutes
	if req.DurationMinutes != nil {
		duration = *req.DurationMinutes
	}

	if err := s.ensureAvailable(ctx, lesson.TutorID, date, lessonTime, duration, lesson.ID); err != nil {
		return nil, err
	}

	start, end, err := lessonWindow(date, lessonTime, duration)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid lesson time")
	}

	lesson.LessonDate = date
	lesson.LessonTime = lessonTime
	lesson.DurationMinutes = duration
	lesson.Status = deriveStatus(start, end, s.nowFn())

	if err := s.lessons.Update(ctx, lesson); err != nil {
		if errors.Is(err, repository.ErrSlotTaken) {
			return nil, appErrors.Clone(appErrors.ErrScheduleConflict, "tutor is not available at the specified time")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reschedule lesson")
	}

	tutor, student, err := s.loadParticipants(ctx, lesson.TutorID, lesson.StudentID)
	if err != nil {
		return nil, err
	}
	s.notifier.LessonRescheduled(lesson, tutor, student)

	s.logger.Info("lesson rescheduled", zap.String("lesson_id", lesson.ID), zap.Time("new_date", lesson.LessonDate))
	view := lessonView(lesson, tutor.FullName, student.FullName)
	return &view, nil
}

// CancelLesson cancels a lesson on behalf of the actor. A student cancelling
// less than 24 hours before the start still owes the tutor for the lesson;
// admin and tutor cancellations never trigger pay.
func (s *LessonService) CancelLesson(ctx context.Context, actor *models.JWTClaims, id string) (*models.LessonView, error) {
	lesson, err := s.findLesson(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeParticipant(actor, lesson); err != nil {
		return nil, err
	}
	if lesson.Status == models.LessonCancelled {
		return nil, appErrors.Clone(appErrors.ErrConflict, "lesson is already cancelled")
	}
	if lesson.Status == models.LessonCompleted {
		return nil, appErrors.Clone(appErrors.ErrConflict, "completed lessons cannot be cancelled")
	}

	now := s.nowFn()
	start, _, err := lessonWindow(lesson.LessonDate, lesson.LessonTime, lesson.DurationMinutes)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "corrupt lesson time")
	}

	lesson.Status = models.LessonCancelled
	lesson.CancelledAt = &now
	// Pay is owed only for late student cancellations: under 24 hours of
	// notice, including lessons already in progress.
	lesson.TutorPaid = actor.Role == models.RoleStudent && start.Sub(now) < cancellationPayWindow

	if err := s.lessons.Update(ctx, lesson); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel lesson")
	}

	tutor, student, err := s.loadParticipants(ctx, lesson.TutorID, lesson.StudentID)
	if err != nil {
		return nil, err
	}
	s.notifier.LessonCancelled(lesson, tutor, student)

	s.logger.Info("lesson cancelled",
		zap.String("lesson_id", lesson.ID),
		zap.String("cancelled_by", actor.UserID),
		zap.Bool("tutor_paid", lesson.TutorPaid))
	view := lessonView(lesson, tutor.FullName, student.FullName)
	return &view, nil
}

// UndoLessonCancellation puts a cancelled lesson back on the schedule.
// Restoring is only allowed while at least 24 hours remain before the start,
// and fails with a conflict if the slot has since been taken.
func (s *LessonService) UndoLessonCancellation(ctx context.Context, actor *models.JWTClaims, id string) (*models.LessonView, error) {
	lesson, err := s.findLesson(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeParticipant(actor, lesson); err != nil {
		return nil, err
	}
	if lesson.Status != models.LessonCancelled {
		return nil, appErrors.Clone(appErrors.ErrConflict, "lesson is not cancelled")
	}

	start, end, err := lessonWindow(lesson.LessonDate, lesson.LessonTime, lesson.DurationMinutes)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "corrupt lesson time")
	}

	now := s.nowFn()
	if !now.Before(start) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "lesson start time has already passed")
	}
	if start.Sub(now) < cancellationPayWindow {
		return nil, appErrors.Clone(appErrors.ErrValidation, "lessons can only be restored up to 24 hours before start")
	}

	if err := s.ensureAvailable(ctx, lesson.TutorID, lesson.LessonDate, lesson.LessonTime, lesson.DurationMinutes, lesson.ID); err != nil {
		return nil, err
	}

	lesson.Status = deriveStatus(start, end, now)
	lesson.CancelledAt = nil
	lesson.TutorPaid = false

	if err := s.lessons.Update(ctx, lesson); err != nil {
		if errors.Is(err, repository.ErrSlotTaken) {
			return nil, appErrors.Clone(appErrors.ErrScheduleConflict, "the slot has been taken since cancellation")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reinstate lesson")
	}

	tutor, student, err := s.loadParticipants(ctx, lesson.TutorID, lesson.StudentID)
	if err != nil {
		return nil, err
	}
	s.notifier.LessonReinstated(lesson, tutor, student)

	s.logger.Info("lesson reinstated", zap.String("lesson_id", lesson.ID), zap.String("status", string(lesson.Status)))
	view := lessonView(lesson, tutor.FullName, student.FullName)
	return &view, nil
}

// UpdateLesson changes lesson fields. Moving the slot or reassigning the
// tutor triggers an availability check; switching to online clears the
// location; reassigned participants are validated before anything persists.
func (s *LessonService) UpdateLesson(ctx context.Context, actor *models.JWTClaims, id string, req models.UpdateLessonRequest) (*models.LessonView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid update payload")
	}
	if req.Level != nil && !models.ValidLessonLevel(*req.Level) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown level %q", *req.Level))
	}

	lesson, err := s.findLesson(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeTutorOrAdmin(actor, lesson); err != nil {
		return nil, err
	}
	if lesson.Status == models.LessonCompleted || lesson.Status == models.LessonCancelled {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("cannot update a %s lesson", lesson.Status))
	}

	if req.LessonDate != nil {
		date, err := time.ParseInLocation("2006-01-02", *req.LessonDate, time.UTC)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid lesson date")
		}
		lesson.LessonDate = date
	}
	if req.LessonTime != nil {
		lesson.LessonTime = *req.LessonTime
	}
	if req.DurationMinutes != nil {
		lesson.DurationMinutes = *req.DurationMinutes
	}
	if req.Level != nil {
		lesson.Level = *req.Level
	}
	if req.Topic != nil {
		lesson.Topic = *req.Topic
	}
	if req.Type != nil {
		lesson.Type = *req.Type
	}
	if req.Location != nil {
		lesson.Location = req.Location
	}
	if lesson.Type == models.LessonOnline {
		lesson.Location = nil
	}

	tutorChanged := req.TutorID != nil && *req.TutorID != lesson.TutorID
	if tutorChanged {
		lesson.TutorID = *req.TutorID
	}
	if req.StudentID != nil {
		lesson.StudentID = *req.StudentID
	}

	// Reassigned participants must exist before anything is written.
	tutor, student, err := s.loadParticipants(ctx, lesson.TutorID, lesson.StudentID)
	if err != nil {
		return nil, err
	}

	slotMoved := req.LessonDate != nil || req.LessonTime != nil || req.DurationMinutes != nil
	if slotMoved || tutorChanged {
		if err := s.ensureAvailable(ctx, lesson.TutorID, lesson.LessonDate, lesson.LessonTime, lesson.DurationMinutes, lesson.ID); err != nil {
			return nil, err
		}
	}
	if slotMoved {
		start, end, err := lessonWindow(lesson.LessonDate, lesson.LessonTime, lesson.DurationMinutes)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid lesson time")
		}
		lesson.Status = deriveStatus(start, end, s.nowFn())
	}

	if err := s.lessons.Update(ctx, lesson); err != nil {
		if errors.Is(err, repository.ErrSlotTaken) {
			return nil, appErrors.Clone(appErrors.ErrScheduleConflict, "tutor is not available at the specified time")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update lesson")
	}

	if slotMoved {
		s.notifier.LessonRescheduled(lesson, tutor, student)
	}
	view := lessonView(lesson, tutor.FullName, student.FullName)
	return &view, nil
}

// BulkUpdateLessons applies the same field set to many lessons, typically a
// bundle. Completed and cancelled lessons in the set are rejected up front.
func (s *LessonService) BulkUpdateLessons(ctx context.Context, req models.BulkUpdateLessonsRequest) ([]models.LessonView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bulk update payload")
	}
	if req.Updates.Level != nil && !models.ValidLessonLevel(*req.Updates.Level) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown level %q", *req.Updates.Level))
	}

	existing, err := s.lessons.ListByIDs(ctx, req.LessonIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lessons")
	}
	if len(existing) != len(req.LessonIDs) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "one or more lessons do not exist")
	}
	for i := range existing {
		if existing[i].Status == models.LessonCompleted || existing[i].Status == models.LessonCancelled {
			return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("lesson %s is %s and cannot be updated", existing[i].ID, existing[i].Status))
		}
	}

	set, err := bulkSetFromRequest(req.Updates)
	if err != nil {
		return nil, err
	}

	updated, err := s.lessons.UpdateFields(ctx, req.LessonIDs, set)
	if err != nil {
		if errors.Is(err, repository.ErrSlotTaken) {
			return nil, appErrors.Clone(appErrors.ErrScheduleConflict, "update would double-book the tutor")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to bulk update lessons")
	}

	views := make([]models.LessonView, 0, len(updated))
	for i := range updated {
		lesson := &updated[i]
		tutor, student, err := s.loadParticipants(ctx, lesson.TutorID, lesson.StudentID)
		if err != nil {
			return nil, err
		}
		views = append(views, lessonView(lesson, tutor.FullName, student.FullName))
	}

	s.logger.Info("lessons bulk updated", zap.Int("count", len(updated)))
	return views, nil
}

// CompleteLesson marks a lesson as taught ahead of the automatic sweep.
// Cancelled lessons stay cancelled.
func (s *LessonService) CompleteLesson(ctx context.Context, actor *models.JWTClaims, id string) (*models.LessonView, error) {
	lesson, err := s.findLesson(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeTutorOrAdmin(actor, lesson); err != nil {
		return nil, err
	}
	if lesson.Status == models.LessonCancelled {
		return nil, appErrors.Clone(appErrors.ErrConflict, "cancelled lessons cannot be completed")
	}
	if lesson.Status == models.LessonCompleted {
		return nil, appErrors.Clone(appErrors.ErrConflict, "lesson is already completed")
	}

	lesson.Status = models.LessonCompleted
	if err := s.lessons.Update(ctx, lesson); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to complete lesson")
	}

	tutor, student, err := s.loadParticipants(ctx, lesson.TutorID, lesson.StudentID)
	if err != nil {
		return nil, err
	}
	s.notifier.LessonCompleted(lesson, tutor, student)

	s.logger.Info("lesson completed", zap.String("lesson_id", lesson.ID), zap.String("completed_by", actor.UserID))
	view := lessonView(lesson, tutor.FullName, student.FullName)
	return &view, nil
}

// CheckAvailability reports whether the tutor is free for the requested slot.
func (s *LessonService) CheckAvailability(ctx context.Context, req models.AvailabilityRequest) (bool, error) {
	if err := s.validator.Struct(req); err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid availability payload")
	}
	date, err := time.ParseInLocation("2006-01-02", req.LessonDate, time.UTC)
	if err != nil {
		return false, appErrors.Clone(appErrors.ErrValidation, "invalid lesson date")
	}

	err = s.ensureAvailable(ctx, req.TutorID, date, req.LessonTime, req.DurationMinutes, req.ExcludeLessonID)
	if err == nil {
		return true, nil
	}
	var appErr *appErrors.Error
	if errors.As(err, &appErr) && appErr.Code == appErrors.ErrScheduleConflict.Code {
		return false, nil
	}
	return false, err
}

// SweepStatuses promotes Incoming lessons into Active and Active lessons past
// their window into Completed. Returns the counts of rows moved.
func (s *LessonService) SweepStatuses(ctx context.Context) (activated, completed int64, err error) {
	now := s.nowFn()
	completed, err = s.lessons.MarkCompletedBefore(ctx, now)
	if err != nil {
		return 0, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to complete expired lessons")
	}
	activated, err = s.lessons.ActivateDue(ctx, now)
	if err != nil {
		return 0, completed, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to activate due lessons")
	}
	if activated > 0 || completed > 0 {
		s.logger.Info("lesson status sweep", zap.Int64("activated", activated), zap.Int64("completed", completed))
	}
	return activated, completed, nil
}

func (s *LessonService) findLesson(ctx context.Context, id string) (*models.Lesson, error) {
	lesson, err := s.lessons.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson")
	}
	return lesson, nil
}

func (s *LessonService) authorizeParticipant(actor *models.JWTClaims, lesson *models.Lesson) error {
	switch actor.Role {
	case models.RoleAdmin:
		return nil
	case models.RoleTutor:
		if lesson.TutorID == actor.UserID {
			return nil
		}
	case models.RoleStudent:
		if lesson.StudentID == actor.UserID {
			return nil
		}
	}
	return appErrors.Clone(appErrors.ErrForbidden, "lesson belongs to another user")
}

func (s *LessonService) authorizeTutorOrAdmin(actor *models.JWTClaims, lesson *models.Lesson) error {
	if actor.Role == models.RoleAdmin {
		return nil
	}
	if actor.Role == models.RoleTutor && lesson.TutorID == actor.UserID {
		return nil
	}
	return appErrors.Clone(appErrors.ErrForbidden, "only an admin or the assigned tutor may do this")
}

func (s *LessonService) loadParticipants(ctx context.Context, tutorID, studentID string) (*models.Tutor, *models.Student, error) {
	tutor, err := s.accounts.FindTutorByID(ctx, tutorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "tutor not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load tutor")
	}
	student, err := s.accounts.FindStudentByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return tutor, student, nil
}

// ensureAvailable checks the tutor's schedule for an overlapping lesson on
// the requested day. Windows are half-open, so back-to-back lessons never
// conflict. The database exclusion constraint catches races this pre-check
// cannot see.
func (s *LessonService) ensureAvailable(ctx context.Context, tutorID string, date time.Time, lessonTime string, duration int, excludeLessonID string) error {
	start, end, err := lessonWindow(date, lessonTime, duration)
	if err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "invalid lesson time")
	}

	booked, err := s.lessons.ListForTutorOnDate(ctx, tutorID, date)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check availability")
	}

	for i := range booked {
		other := &booked[i]
		if other.ID == excludeLessonID {
			continue
		}
		otherStart, otherEnd, err := lessonWindow(other.LessonDate, other.LessonTime, other.DurationMinutes)
		if err != nil {
			s.logger.Warn("skipping lesson with corrupt time", zap.String("lesson_id", other.ID), zap.Error(err))
			continue
		}
		if start.Before(otherEnd) && otherStart.Before(end) {
			return appErrors.Clone(appErrors.ErrScheduleConflict, "tutor is not available at the specified time")
		}
	}
	return nil
}

// lessonWindow resolves a lesson's half-open [start, end) window in UTC.
func lessonWindow(date time.Time, lessonTime string, durationMinutes int) (time.Time, time.Time, error) {
	clock, err := time.Parse("15:04", lessonTime)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse lesson time %q: %w", lessonTime, err)
	}
	start := time.Date(date.Year(), date.Month(), date.Day(), clock.Hour(), clock.Minute(), 0, 0, time.UTC)
	end := start.Add(time.Duration(durationMinutes) * time.Minute)
	return start, end, nil
}

// deriveStatus maps the clock onto the lesson lifecycle: before the window
// is Incoming, inside it Active, at or past its end Completed.
func deriveStatus(start, end, now time.Time) models.LessonStatus {
	switch {
	case now.Before(start):
		return models.LessonIncoming
	case now.Before(end):
		return models.LessonActive
	default:
		return models.LessonCompleted
	}
}

func bulkSetFromRequest(req models.UpdateLessonRequest) (models.LessonBulkSet, error) {
	var set models.LessonBulkSet
	if req.TutorID != nil || req.StudentID != nil {
		return set, appErrors.Clone(appErrors.ErrValidation, "tutor and student cannot be reassigned in bulk")
	}
	if req.LessonDate != nil {
		date, err := time.ParseInLocation("2006-01-02", *req.LessonDate, time.UTC)
		if err != nil {
			return set, appErrors.Clone(appErrors.ErrValidation, "invalid lesson date")
		}
		set.LessonDate = &date
	}
	set.LessonTime = req.LessonTime
	set.DurationMinutes = req.DurationMinutes
	set.Level = req.Level
	set.Topic = req.Topic
	set.Type = req.Type
	set.Location = req.Location
	if req.Type != nil && *req.Type == models.LessonOnline {
		set.Location = nil
		set.ClearLocation = true
	}
	return set, nil
}

func lessonView(lesson *models.Lesson, tutorName, studentName string) models.LessonView {
	return models.LessonView{
		LessonID:    lesson.ID,
		LessonDate:  lesson.LessonDate,
		LessonTime:  lesson.LessonTime,
		Duration:    lesson.DurationMinutes,
		Level:       lesson.Level,
		Topic:       lesson.Topic,
		Type:        string(lesson.Type),
		Location:    lesson.Location,
		TutorName:   tutorName,
		StudentName: studentName,
		Status:      models.PublicStatus(lesson.Status),
		BundleID:    lesson.BundleID,
		TutorPaid:   lesson.TutorPaid,
	}
}
