package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ShaheerAzam/backend/internal/models"
)

// ErrSlotTaken signals that the database rejected a lesson because its slot
// overlaps another non-cancelled lesson for the same tutor. The exclusion
// constraint is the transactional backstop behind the in-service
// availability pre-check.
var ErrSlotTaken = errors.New("lesson slot already taken")

const lessonColumns = `id, lesson_date, lesson_time, duration_minutes, level, topic, lesson_type, location, tutor_id, student_id, status, bundle_id, tutor_paid, cancelled_at, created_at, updated_at`

// LessonRepository manages persistence for lessons.
type LessonRepository struct {
	db *sqlx.DB
}

// NewLessonRepository constructs a LessonRepository.
func NewLessonRepository(db *sqlx.DB) *LessonRepository {
	return &LessonRepository{db: db}
}

func isSlotConflict(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23P01" || pqErr.Code == "23505"
	}
	return false
}

// Create inserts a single lesson.
func (r *LessonRepository) Create(ctx context.Context, lesson *models.Lesson) error {
	prepareLesson(lesson)

	const query = `INSERT INTO lessons (` + lessonColumns + `)
		VALUES (:id, :lesson_date, :lesson_time, :duration_minutes, :level, :topic, :lesson_type, :location, :tutor_id, :student_id, :status, :bundle_id, :tutor_paid, :cancelled_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, lesson); err != nil {
		if isSlotConflict(err) {
			return ErrSlotTaken
		}
		return fmt.Errorf("create lesson: %w", err)
	}
	return nil
}

// CreateBatch inserts all lessons in one transaction. Either every lesson is
// persisted or none are; a slot conflict on any occurrence aborts the batch.
func (r *LessonRepository) CreateBatch(ctx context.Context, lessons []*models.Lesson) error {
	if len(lessons) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin lesson batch: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const query = `INSERT INTO lessons (` + lessonColumns + `)
		VALUES (:id, :lesson_date, :lesson_time, :duration_minutes, :level, :topic, :lesson_type, :location, :tutor_id, :student_id, :status, :bundle_id, :tutor_paid, :cancelled_at, :created_at, :updated_at)`
	for _, lesson := range lessons {
		prepareLesson(lesson)
		if _, err := tx.NamedExecContext(ctx, query, lesson); err != nil {
			if isSlotConflict(err) {
				return ErrSlotTaken
			}
			return fmt.Errorf("create lesson batch: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit lesson batch: %w", err)
	}
	return nil
}

// FindByID fetches a lesson by ID.
func (r *LessonRepository) FindByID(ctx context.Context, id string) (*models.Lesson, error) {
	const query = `SELECT ` + lessonColumns + ` FROM lessons WHERE id = $1`
	var lesson models.Lesson
	if err := r.db.GetContext(ctx, &lesson, query, id); err != nil {
		return nil, err
	}
	return &lesson, nil
}

// List returns lessons matching the participant filter, joined with display
// names, ordered by lesson date ascending.
func (r *LessonRepository) List(ctx context.Context, filter models.LessonFilter) ([]models.LessonWithNames, error) {
	query := `SELECT l.id, l.lesson_date, l.lesson_time, l.duration_minutes, l.level, l.topic, l.lesson_type, l.location,
		l.tutor_id, l.student_id, l.status, l.bundle_id, l.tutor_paid, l.cancelled_at, l.created_at, l.updated_at,
		t.full_name AS tutor_name, s.full_name AS student_name
		FROM lessons l
		JOIN tutors t ON t.id = l.tutor_id
		JOIN students s ON s.id = l.student_id`

	var conditions []string
	var args []interface{}
	if filter.TutorID != "" {
		conditions = append(conditions, fmt.Sprintf("l.tutor_id = $%d", len(args)+1))
		args = append(args, filter.TutorID)
	}
	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("l.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY l.lesson_date ASC, l.lesson_time ASC"

	var lessons []models.LessonWithNames
	if err := r.db.SelectContext(ctx, &lessons, query, args...); err != nil {
		return nil, fmt.Errorf("list lessons: %w", err)
	}
	return lessons, nil
}

// ListForTutorOnDate returns a tutor's Incoming and Active lessons on one
// calendar day. Cancelled and completed lessons never conflict.
func (r *LessonRepository) ListForTutorOnDate(ctx context.Context, tutorID string, date time.Time) ([]models.Lesson, error) {
	const query = `SELECT ` + lessonColumns + ` FROM lessons
		WHERE tutor_id = $1 AND lesson_date = $2 AND status IN ('Incoming', 'Active')`
	var lessons []models.Lesson
	if err := r.db.SelectContext(ctx, &lessons, query, tutorID, date); err != nil {
		return nil, fmt.Errorf("list tutor lessons for date: %w", err)
	}
	return lessons, nil
}

// ListByIDs fetches lessons for the given IDs.
func (r *LessonRepository) ListByIDs(ctx context.Context, ids []string) ([]models.Lesson, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT `+lessonColumns+` FROM lessons WHERE id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("build lessons by ids: %w", err)
	}
	query = r.db.Rebind(query)
	var lessons []models.Lesson
	if err := r.db.SelectContext(ctx, &lessons, query, args...); err != nil {
		return nil, fmt.Errorf("list lessons by ids: %w", err)
	}
	return lessons, nil
}

// ListPayableInPeriod returns a tutor's lessons that count towards pay for a
// period: completed ones, plus cancellations inside the 24-hour pay window.
// The lesson date must fall inside [periodStart, periodEnd).
func (r *LessonRepository) ListPayableInPeriod(ctx context.Context, tutorID string, periodStart, periodEnd time.Time) ([]models.Lesson, error) {
	const query = `SELECT ` + lessonColumns + ` FROM lessons
		WHERE tutor_id = $1 AND (status = 'Completed' OR (status = 'Cancelled' AND tutor_paid))
		AND lesson_date >= $2 AND lesson_date < $3`
	var lessons []models.Lesson
	if err := r.db.SelectContext(ctx, &lessons, query, tutorID, periodStart, periodEnd); err != nil {
		return nil, fmt.Errorf("list payable lessons in period: %w", err)
	}
	return lessons, nil
}

// Update persists a modified lesson.
func (r *LessonRepository) Update(ctx context.Context, lesson *models.Lesson) error {
	lesson.UpdatedAt = time.Now().UTC()
	const query = `UPDATE lessons SET lesson_date = :lesson_date, lesson_time = :lesson_time, duration_minutes = :duration_minutes,
		level = :level, topic = :topic, lesson_type = :lesson_type, location = :location, tutor_id = :tutor_id,
		student_id = :student_id, status = :status, bundle_id = :bundle_id, tutor_paid = :tutor_paid,
		cancelled_at = :cancelled_at, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, lesson); err != nil {
		if isSlotConflict(err) {
			return ErrSlotTaken
		}
		return fmt.Errorf("update lesson: %w", err)
	}
	return nil
}

// UpdateFields applies one field set to every lesson in ids and returns the
// updated rows. Existence of every id is the caller's responsibility; the
// UPDATE itself is not guaranteed atomic across rows.
func (r *LessonRepository) UpdateFields(ctx context.Context, ids []string, set models.LessonBulkSet) ([]models.Lesson, error) {
	if len(ids) == 0 || set.Empty() {
		return r.ListByIDs(ctx, ids)
	}

	var assignments []string
	var args []interface{}
	add := func(column string, value interface{}) {
		assignments = append(assignments, fmt.Sprintf("%s = $%d", column, len(args)+1))
		args = append(args, value)
	}

	if set.LessonDate != nil {
		add("lesson_date", *set.LessonDate)
	}
	if set.LessonTime != nil {
		add("lesson_time", *set.LessonTime)
	}
	if set.DurationMinutes != nil {
		add("duration_minutes", *set.DurationMinutes)
	}
	if set.Level != nil {
		add("level", *set.Level)
	}
	if set.Topic != nil {
		add("topic", *set.Topic)
	}
	if set.Type != nil {
		add("lesson_type", string(*set.Type))
	}
	if set.ClearLocation {
		assignments = append(assignments, "location = NULL")
	} else if set.Location != nil {
		add("location", *set.Location)
	}
	add("updated_at", time.Now().UTC())

	query := fmt.Sprintf("UPDATE lessons SET %s WHERE id = ANY($%d)", strings.Join(assignments, ", "), len(args)+1)
	args = append(args, pq.Array(ids))

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if isSlotConflict(err) {
			return nil, ErrSlotTaken
		}
		return nil, fmt.Errorf("bulk update lessons: %w", err)
	}
	return r.ListByIDs(ctx, ids)
}

// MarkCompletedBefore promotes Active lessons whose window has ended to
// Completed. Returns the number of rows promoted.
func (r *LessonRepository) MarkCompletedBefore(ctx context.Context, now time.Time) (int64, error) {
	const query = `UPDATE lessons SET status = 'Completed', updated_at = $1
		WHERE status = 'Active'
		AND lesson_date + lesson_time::interval + make_interval(mins => duration_minutes) <= $1`
	result, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("complete expired lessons: %w", err)
	}
	return result.RowsAffected()
}

// ActivateDue promotes Incoming lessons whose window now contains the clock
// to Active. Returns the number of rows promoted.
func (r *LessonRepository) ActivateDue(ctx context.Context, now time.Time) (int64, error) {
	const query = `UPDATE lessons SET status = 'Active', updated_at = $1
		WHERE status = 'Incoming'
		AND lesson_date + lesson_time::interval <= $1
		AND lesson_date + lesson_time::interval + make_interval(mins => duration_minutes) > $1`
	result, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("activate due lessons: %w", err)
	}
	return result.RowsAffected()
}

func prepareLesson(lesson *models.Lesson) {
	if lesson.ID == "" {
		lesson.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if lesson.CreatedAt.IsZero() {
		lesson.CreatedAt = now
	}
	lesson.UpdatedAt = now
}
