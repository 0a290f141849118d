package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShaheerAzam/backend/internal/models"
)

func newLessonRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	cleanup := func() {
		_ = sqlxDB.Close()
		db.Close()
	}
	return sqlxDB, mock, cleanup
}

func lessonRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "lesson_date", "lesson_time", "duration_minutes", "level", "topic",
		"lesson_type", "location", "tutor_id", "student_id", "status", "bundle_id",
		"tutor_paid", "cancelled_at", "created_at", "updated_at",
	})
}

func TestLessonRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newLessonRepoMock(t)
	defer cleanup()
	repo := NewLessonRepository(db)

	mock.ExpectExec("INSERT INTO lessons").WillReturnResult(sqlmock.NewResult(0, 1))

	lesson := &models.Lesson{
		LessonDate: time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC), LessonTime: "14:00",
		DurationMinutes: 60, Level: "8th grade", Topic: "Algebra",
		Type: models.LessonOnline, TutorID: "tutor-1", StudentID: "student-1",
		Status: models.LessonIncoming,
	}
	require.NoError(t, repo.Create(context.Background(), lesson))
	assert.NotEmpty(t, lesson.ID)
	assert.False(t, lesson.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLessonRepositoryCreateSlotConflict(t *testing.T) {
	db, mock, cleanup := newLessonRepoMock(t)
	defer cleanup()
	repo := NewLessonRepository(db)

	// The exclusion constraint surfaces as 23P01.
	mock.ExpectExec("INSERT INTO lessons").WillReturnError(&pq.Error{Code: "23P01"})

	err := repo.Create(context.Background(), &models.Lesson{Status: models.LessonIncoming})
	require.ErrorIs(t, err, ErrSlotTaken)
}

func TestLessonRepositoryCreateBatchAbortsOnConflict(t *testing.T) {
	db, mock, cleanup := newLessonRepoMock(t)
	defer cleanup()
	repo := NewLessonRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO lessons").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO lessons").WillReturnError(&pq.Error{Code: "23P01"})
	mock.ExpectRollback()

	lessons := []*models.Lesson{
		{Status: models.LessonIncoming},
		{Status: models.LessonIncoming},
	}
	err := repo.CreateBatch(context.Background(), lessons)
	require.ErrorIs(t, err, ErrSlotTaken)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLessonRepositoryFindByIDNotFound(t *testing.T) {
	db, mock, cleanup := newLessonRepoMock(t)
	defer cleanup()
	repo := NewLessonRepository(db)

	mock.ExpectQuery("SELECT .+ FROM lessons WHERE id").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "missing")
	require.True(t, errors.Is(err, sql.ErrNoRows))
}

func TestLessonRepositoryListPayableInPeriod(t *testing.T) {
	db, mock, cleanup := newLessonRepoMock(t)
	defer cleanup()
	repo := NewLessonRepository(db)

	start := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 29, 0, 0, 0, 0, time.UTC)

	rows := lessonRows().
		AddRow("lesson-1", start.AddDate(0, 0, 1), "14:00", 60, "8th grade", "Algebra",
			"online", nil, "tutor-1", "student-1", "Completed", nil, false, nil, start, start).
		AddRow("lesson-2", start.AddDate(0, 0, 2), "15:00", 90, "8th grade", "Algebra",
			"in-person", "Oslo Library", "tutor-1", "student-1", "Cancelled", nil, true, start, start, start)

	// Completed lessons plus cancellations inside the pay window.
	mock.ExpectQuery(regexp.QuoteMeta(`(status = 'Completed' OR (status = 'Cancelled' AND tutor_paid))`)).
		WithArgs("tutor-1", start, end).
		WillReturnRows(rows)

	lessons, err := repo.ListPayableInPeriod(context.Background(), "tutor-1", start, end)
	require.NoError(t, err)
	require.Len(t, lessons, 2)
	assert.Equal(t, models.LessonCancelled, lessons[1].Status)
	assert.True(t, lessons[1].TutorPaid)
}

func TestLessonRepositoryListForTutorOnDate(t *testing.T) {
	db, mock, cleanup := newLessonRepoMock(t)
	defer cleanup()
	repo := NewLessonRepository(db)

	date := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	rows := lessonRows().
		AddRow("lesson-1", date, "14:00", 60, "8th grade", "Algebra",
			"online", nil, "tutor-1", "student-1", "Incoming", nil, false, nil, date, date)

	mock.ExpectQuery(regexp.QuoteMeta(`status IN ('Incoming', 'Active')`)).
		WithArgs("tutor-1", date).
		WillReturnRows(rows)

	lessons, err := repo.ListForTutorOnDate(context.Background(), "tutor-1", date)
	require.NoError(t, err)
	require.Len(t, lessons, 1)
	assert.Equal(t, "14:00", lessons[0].LessonTime)
}

func TestLessonRepositoryUpdateSlotConflict(t *testing.T) {
	db, mock, cleanup := newLessonRepoMock(t)
	defer cleanup()
	repo := NewLessonRepository(db)

	// A unique violation on update maps the same way as on insert.
	mock.ExpectExec("UPDATE lessons SET").WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Update(context.Background(), &models.Lesson{ID: "lesson-1"})
	require.ErrorIs(t, err, ErrSlotTaken)
}

func TestLessonRepositoryUpdateFieldsClearsLocation(t *testing.T) {
	db, mock, cleanup := newLessonRepoMock(t)
	defer cleanup()
	repo := NewLessonRepository(db)

	online := models.LessonOnline
	set := models.LessonBulkSet{Type: &online, ClearLocation: true}

	mock.ExpectExec(regexp.QuoteMeta("location = NULL")).
		WillReturnResult(sqlmock.NewResult(0, 2))

	date := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	rows := lessonRows().
		AddRow("lesson-1", date, "14:00", 60, "8th grade", "Algebra",
			"online", nil, "tutor-1", "student-1", "Incoming", nil, false, nil, date, date).
		AddRow("lesson-2", date, "15:00", 60, "8th grade", "Algebra",
			"online", nil, "tutor-1", "student-1", "Incoming", nil, false, nil, date, date)
	mock.ExpectQuery("SELECT .+ FROM lessons WHERE id IN").WillReturnRows(rows)

	updated, err := repo.UpdateFields(context.Background(), []string{"lesson-1", "lesson-2"}, set)
	require.NoError(t, err)
	assert.Len(t, updated, 2)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLessonRepositorySweepQueries(t *testing.T) {
	db, mock, cleanup := newLessonRepoMock(t)
	defer cleanup()
	repo := NewLessonRepository(db)

	now := time.Date(2026, 9, 7, 15, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("SET status = 'Completed'")).
		WithArgs(now).
		WillReturnResult(sqlmock.NewResult(0, 3))
	completed, err := repo.MarkCompletedBefore(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, int64(3), completed)

	mock.ExpectExec(regexp.QuoteMeta("SET status = 'Active'")).
		WithArgs(now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	activated, err := repo.ActivateDue(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), activated)
}
