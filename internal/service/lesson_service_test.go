package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ShaheerAzam/backend/internal/models"
	"github.com/ShaheerAzam/backend/internal/repository"
)

type mockLessonRepo struct {
	lessons   map[string]*models.Lesson
	createErr error
	batchErr  error
}

func newMockLessonRepo() *mockLessonRepo {
	return &mockLessonRepo{lessons: make(map[string]*models.Lesson)}
}

func (m *mockLessonRepo) Create(ctx context.Context, lesson *models.Lesson) error {
	if m.createErr != nil {
		return m.createErr
	}
	if lesson.ID == "" {
		lesson.ID = uuid.NewString()
	}
	m.lessons[lesson.ID] = lesson
	return nil
}

func (m *mockLessonRepo) CreateBatch(ctx context.Context, lessons []*models.Lesson) error {
	if m.batchErr != nil {
		return m.batchErr
	}
	for _, lesson := range lessons {
		if err := m.Create(ctx, lesson); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockLessonRepo) FindByID(ctx context.Context, id string) (*models.Lesson, error) {
	if lesson, ok := m.lessons[id]; ok {
		copied := *lesson
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockLessonRepo) List(ctx context.Context, filter models.LessonFilter) ([]models.LessonWithNames, error) {
	var out []models.LessonWithNames
	for _, lesson := range m.lessons {
		if filter.TutorID != "" && lesson.TutorID != filter.TutorID {
			continue
		}
		if filter.StudentID != "" && lesson.StudentID != filter.StudentID {
			continue
		}
		out = append(out, models.LessonWithNames{Lesson: *lesson, TutorName: "Tutor", StudentName: "Student"})
	}
	return out, nil
}

func (m *mockLessonRepo) ListForTutorOnDate(ctx context.Context, tutorID string, date time.Time) ([]models.Lesson, error) {
	var out []models.Lesson
	for _, lesson := range m.lessons {
		if lesson.TutorID != tutorID || !lesson.LessonDate.Equal(date) {
			continue
		}
		if lesson.Status != models.LessonIncoming && lesson.Status != models.LessonActive {
			continue
		}
		out = append(out, *lesson)
	}
	return out, nil
}

func (m *mockLessonRepo) ListByIDs(ctx context.Context, ids []string) ([]models.Lesson, error) {
	var out []models.Lesson
	for _, id := range ids {
		if lesson, ok := m.lessons[id]; ok {
			out = append(out, *lesson)
		}
	}
	return out, nil
}

func (m *mockLessonRepo) Update(ctx context.Context, lesson *models.Lesson) error {
	if _, ok := m.lessons[lesson.ID]; !ok {
		return sql.ErrNoRows
	}
	copied := *lesson
	m.lessons[lesson.ID] = &copied
	return nil
}

func (m *mockLessonRepo) UpdateFields(ctx context.Context, ids []string, set models.LessonBulkSet) ([]models.Lesson, error) {
	for _, id := range ids {
		lesson := m.lessons[id]
		if set.LessonDate != nil {
			lesson.LessonDate = *set.LessonDate
		}
		if set.LessonTime != nil {
			lesson.LessonTime = *set.LessonTime
		}
		if set.DurationMinutes != nil {
			lesson.DurationMinutes = *set.DurationMinutes
		}
		if set.Level != nil {
			lesson.Level = *set.Level
		}
		if set.Topic != nil {
			lesson.Topic = *set.Topic
		}
		if set.Type != nil {
			lesson.Type = *set.Type
		}
		if set.ClearLocation {
			lesson.Location = nil
		} else if set.Location != nil {
			lesson.Location = set.Location
		}
	}
	return m.ListByIDs(ctx, ids)
}

func (m *mockLessonRepo) MarkCompletedBefore(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	for _, lesson := range m.lessons {
		if lesson.Status != models.LessonActive {
			continue
		}
		_, end, err := lessonWindow(lesson.LessonDate, lesson.LessonTime, lesson.DurationMinutes)
		if err != nil {
			continue
		}
		if !end.After(now) {
			lesson.Status = models.LessonCompleted
			n++
		}
	}
	return n, nil
}

func (m *mockLessonRepo) ActivateDue(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	for _, lesson := range m.lessons {
		if lesson.Status != models.LessonIncoming {
			continue
		}
		start, end, err := lessonWindow(lesson.LessonDate, lesson.LessonTime, lesson.DurationMinutes)
		if err != nil {
			continue
		}
		if !start.After(now) && end.After(now) {
			lesson.Status = models.LessonActive
			n++
		}
	}
	return n, nil
}

type mockAccountReader struct {
	tutors   map[string]*models.Tutor
	students map[string]*models.Student
}

func (m *mockAccountReader) FindTutorByID(ctx context.Context, id string) (*models.Tutor, error) {
	if tutor, ok := m.tutors[id]; ok {
		return tutor, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAccountReader) FindStudentByID(ctx context.Context, id string) (*models.Student, error) {
	if student, ok := m.students[id]; ok {
		return student, nil
	}
	return nil, sql.ErrNoRows
}

type mockNotifier struct {
	scheduled   int
	rescheduled int
	cancelled   int
	reinstated  int
	completed   int
}

func (m *mockNotifier) LessonScheduled(*models.Lesson, *models.Tutor, *models.Student)   { m.scheduled++ }
func (m *mockNotifier) LessonRescheduled(*models.Lesson, *models.Tutor, *models.Student) { m.rescheduled++ }
func (m *mockNotifier) LessonCancelled(*models.Lesson, *models.Tutor, *models.Student)   { m.cancelled++ }
func (m *mockNotifier) LessonReinstated(*models.Lesson, *models.Tutor, *models.Student)  { m.reinstated++ }
func (m *mockNotifier) LessonCompleted(*models.Lesson, *models.Tutor, *models.Student)   { m.completed++ }

var (
	testTutorID   = uuid.NewString()
	testStudentID = uuid.NewString()
)

func adminClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: uuid.NewString(), Role: models.RoleAdmin}
}

func strp(s string) *string { return &s }

func newLessonFixture() (*LessonService, *mockLessonRepo, *mockNotifier) {
	repo := newMockLessonRepo()
	accounts := &mockAccountReader{
		tutors:   map[string]*models.Tutor{testTutorID: {ID: testTutorID, FullName: "Kari Nordmann", Email: "kari@example.com"}},
		students: map[string]*models.Student{testStudentID: {ID: testStudentID, FullName: "Ola Hansen", Email: "ola@example.com"}},
	}
	notifier := &mockNotifier{}
	svc := NewLessonService(repo, accounts, notifier, validator.New(), zap.NewNop())
	svc.nowFn = fixedNow(time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC))
	return svc, repo, notifier
}

func fixedNow(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestDeriveStatus(t *testing.T) {
	start := time.Date(2026, 9, 7, 14, 0, 0, 0, time.UTC)
	end := start.Add(60 * time.Minute)

	cases := []struct {
		name string
		now  time.Time
		want models.LessonStatus
	}{
		{"before window", start.Add(-time.Minute), models.LessonIncoming},
		{"at start", start, models.LessonActive},
		{"inside window", start.Add(30 * time.Minute), models.LessonActive},
		{"at end", end, models.LessonCompleted},
		{"after end", end.Add(time.Hour), models.LessonCompleted},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, deriveStatus(start, end, tc.now))
		})
	}
}

func TestScheduleLessonCreatesIncoming(t *testing.T) {
	svc, repo, notifier := newLessonFixture()
	svc.nowFn = fixedNow(time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC))

	views, err := svc.ScheduleLesson(context.Background(), adminClaims(), models.ScheduleLessonRequest{
		LessonDate: "2026-09-07", LessonTime: "14:00", DurationMinutes: 60,
		Level: "8th grade", Topic: "Algebra", Type: models.LessonOnline,
		TutorID: testTutorID, StudentID: testStudentID,
	})
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "scheduled", views[0].Status)
	assert.Len(t, repo.lessons, 1)
	assert.Equal(t, 1, notifier.scheduled)
}

func TestScheduleLessonRejectsUnknownLevel(t *testing.T) {
	svc, _, _ := newLessonFixture()

	_, err := svc.ScheduleLesson(context.Background(), adminClaims(), models.ScheduleLessonRequest{
		LessonDate: "2026-09-07", LessonTime: "14:00", DurationMinutes: 60,
		Level: "13th grade", Topic: "Algebra", Type: models.LessonOnline,
		TutorID: testTutorID, StudentID: testStudentID,
	})
	require.Error(t, err)
}

func TestScheduleLessonClearsLocationForOnline(t *testing.T) {
	svc, repo, _ := newLessonFixture()
	loc := "Oslo Library"

	views, err := svc.ScheduleLesson(context.Background(), adminClaims(), models.ScheduleLessonRequest{
		LessonDate: "2026-09-07", LessonTime: "14:00", DurationMinutes: 60,
		Level: "8th grade", Topic: "Algebra", Type: models.LessonOnline, Location: &loc,
		TutorID: testTutorID, StudentID: testStudentID,
	})
	require.NoError(t, err)
	assert.Nil(t, views[0].Location)
	for _, lesson := range repo.lessons {
		assert.Nil(t, lesson.Location)
	}
}

func TestScheduleLessonOverlapRejected(t *testing.T) {
	svc, _, _ := newLessonFixture()

	_, err := svc.ScheduleLesson(context.Background(), adminClaims(), models.ScheduleLessonRequest{
		LessonDate: "2026-09-07", LessonTime: "14:00", DurationMinutes: 60,
		Level: "8th grade", Topic: "Algebra", Type: models.LessonOnline,
		TutorID: testTutorID, StudentID: testStudentID,
	})
	require.NoError(t, err)

	// Overlaps 14:00-15:00.
	_, err = svc.ScheduleLesson(context.Background(), adminClaims(), models.ScheduleLessonRequest{
		LessonDate: "2026-09-07", LessonTime: "14:30", DurationMinutes: 60,
		Level: "8th grade", Topic: "Geometry", Type: models.LessonOnline,
		TutorID: testTutorID, StudentID: testStudentID,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not available")
}

func TestScheduleLessonBackToBackAllowed(t *testing.T) {
	svc, repo, _ := newLessonFixture()

	_, err := svc.ScheduleLesson(context.Background(), adminClaims(), models.ScheduleLessonRequest{
		LessonDate: "2026-09-07", LessonTime: "14:00", DurationMinutes: 60,
		Level: "8th grade", Topic: "Algebra", Type: models.LessonOnline,
		TutorID: testTutorID, StudentID: testStudentID,
	})
	require.NoError(t, err)

	// Starts exactly when the first ends; half-open windows do not conflict.
	_, err = svc.ScheduleLesson(context.Background(), adminClaims(), models.ScheduleLessonRequest{
		LessonDate: "2026-09-07", LessonTime: "15:00", DurationMinutes: 60,
		Level: "8th grade", Topic: "Geometry", Type: models.LessonOnline,
		TutorID: testTutorID, StudentID: testStudentID,
	})
	require.NoError(t, err)
	assert.Len(t, repo.lessons, 2)
}

func TestScheduleBundleCreatesWeeklyOccurrences(t *testing.T) {
	svc, repo, notifier := newLessonFixture()

	views, err := svc.ScheduleLesson(context.Background(), adminClaims(), models.ScheduleLessonRequest{
		LessonDate: "2026-09-07", LessonTime: "14:00", DurationMinutes: 60,
		Level: "8th grade", Topic: "Algebra", Type: models.LessonOnline,
		TutorID: testTutorID, StudentID: testStudentID, Weeks: 4,
	})
	require.NoError(t, err)
	require.Len(t, views, 4)
	assert.Len(t, repo.lessons, 4)
	assert.Equal(t, 4, notifier.scheduled)

	bundleID := views[0].BundleID
	require.NotNil(t, bundleID)
	for _, v := range views {
		assert.Equal(t, *bundleID, *v.BundleID)
	}
	assert.Equal(t, time.Date(2026, 9, 28, 0, 0, 0, 0, time.UTC), views[3].LessonDate)
}

func TestScheduleBundleAtomicOnConflict(t *testing.T) {
	svc, repo, notifier := newLessonFixture()
	repo.batchErr = repository.ErrSlotTaken

	_, err := svc.ScheduleLesson(context.Background(), adminClaims(), models.ScheduleLessonRequest{
		LessonDate: "2026-09-07", LessonTime: "14:00", DurationMinutes: 60,
		Level: "8th grade", Topic: "Algebra", Type: models.LessonOnline,
		TutorID: testTutorID, StudentID: testStudentID, Weeks: 3,
	})
	require.Error(t, err)
	assert.Empty(t, repo.lessons)
	assert.Zero(t, notifier.scheduled)
}

func TestScheduleLessonStudentBooksForSelf(t *testing.T) {
	svc, repo, _ := newLessonFixture()

	student := &models.JWTClaims{UserID: testStudentID, Role: models.RoleStudent}
	views, err := svc.ScheduleLesson(context.Background(), student, models.ScheduleLessonRequest{
		LessonDate: "2026-09-07", LessonTime: "14:00", DurationMinutes: 60,
		Level: "8th grade", Topic: "Algebra", Type: models.LessonOnline,
		TutorID: testTutorID, StudentID: testStudentID,
	})
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Len(t, repo.lessons, 1)
}

func TestScheduleLessonStudentCannotBookForOthers(t *testing.T) {
	svc, repo, _ := newLessonFixture()

	student := &models.JWTClaims{UserID: uuid.NewString(), Role: models.RoleStudent}
	_, err := svc.ScheduleLesson(context.Background(), student, models.ScheduleLessonRequest{
		LessonDate: "2026-09-07", LessonTime: "14:00", DurationMinutes: 60,
		Level: "8th grade", Topic: "Algebra", Type: models.LessonOnline,
		TutorID: testTutorID, StudentID: testStudentID,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "themselves")
	assert.Empty(t, repo.lessons)
}

func TestScheduleLessonByTutorForbidden(t *testing.T) {
	svc, _, _ := newLessonFixture()

	tutor := &models.JWTClaims{UserID: testTutorID, Role: models.RoleTutor}
	_, err := svc.ScheduleLesson(context.Background(), tutor, models.ScheduleLessonRequest{
		LessonDate: "2026-09-07", LessonTime: "14:00", DurationMinutes: 60,
		Level: "8th grade", Topic: "Algebra", Type: models.LessonOnline,
		TutorID: testTutorID, StudentID: testStudentID,
	})
	require.Error(t, err)
}

func scheduleOne(t *testing.T, svc *LessonService, date, clock string) string {
	t.Helper()
	views, err := svc.ScheduleLesson(context.Background(), adminClaims(), models.ScheduleLessonRequest{
		LessonDate: date, LessonTime: clock, DurationMinutes: 60,
		Level: "8th grade", Topic: "Algebra", Type: models.LessonOnline,
		TutorID: testTutorID, StudentID: testStudentID,
	})
	require.NoError(t, err)
	return views[0].LessonID
}

func TestCancelLessonOutsidePayWindow(t *testing.T) {
	svc, repo, notifier := newLessonFixture()
	// 2026-09-07 14:00 starts more than 24h after now.
	svc.nowFn = fixedNow(time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC))
	id := scheduleOne(t, svc, "2026-09-07", "14:00")

	student := &models.JWTClaims{UserID: testStudentID, Role: models.RoleStudent}
	view, err := svc.CancelLesson(context.Background(), student, id)
	require.NoError(t, err)
	assert.Equal(t, "cancelled", view.Status)
	assert.False(t, view.TutorPaid)
	assert.NotNil(t, repo.lessons[id].CancelledAt)
	assert.Equal(t, 1, notifier.cancelled)
}

func TestCancelLessonInsidePayWindow(t *testing.T) {
	svc, _, _ := newLessonFixture()
	svc.nowFn = fixedNow(time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC))
	id := scheduleOne(t, svc, "2026-09-07", "14:00")

	// A student cancelling 23 hours before start owes the tutor.
	svc.nowFn = fixedNow(time.Date(2026, 9, 6, 15, 0, 0, 0, time.UTC))
	student := &models.JWTClaims{UserID: testStudentID, Role: models.RoleStudent}
	view, err := svc.CancelLesson(context.Background(), student, id)
	require.NoError(t, err)
	assert.True(t, view.TutorPaid)
}

func TestCancelLessonExactlyAtBoundaryUnpaid(t *testing.T) {
	svc, _, _ := newLessonFixture()
	svc.nowFn = fixedNow(time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC))
	id := scheduleOne(t, svc, "2026-09-07", "14:00")

	// Exactly 24 hours of notice does not trigger the pay rule.
	svc.nowFn = fixedNow(time.Date(2026, 9, 6, 14, 0, 0, 0, time.UTC))
	student := &models.JWTClaims{UserID: testStudentID, Role: models.RoleStudent}
	view, err := svc.CancelLesson(context.Background(), student, id)
	require.NoError(t, err)
	assert.False(t, view.TutorPaid)
}

func TestCancelLessonLateByAdminOrTutorUnpaid(t *testing.T) {
	svc, _, _ := newLessonFixture()
	svc.nowFn = fixedNow(time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC))
	first := scheduleOne(t, svc, "2026-09-07", "14:00")
	second := scheduleOne(t, svc, "2026-09-08", "14:00")

	// Late notice, but the pay rule only applies to student cancellations.
	svc.nowFn = fixedNow(time.Date(2026, 9, 6, 15, 0, 0, 0, time.UTC))
	admin := &models.JWTClaims{UserID: uuid.NewString(), Role: models.RoleAdmin}
	view, err := svc.CancelLesson(context.Background(), admin, first)
	require.NoError(t, err)
	assert.False(t, view.TutorPaid)

	svc.nowFn = fixedNow(time.Date(2026, 9, 7, 15, 0, 0, 0, time.UTC))
	tutor := &models.JWTClaims{UserID: testTutorID, Role: models.RoleTutor}
	view, err = svc.CancelLesson(context.Background(), tutor, second)
	require.NoError(t, err)
	assert.False(t, view.TutorPaid)
}

func TestCancelLessonTwiceRejected(t *testing.T) {
	svc, _, _ := newLessonFixture()
	id := scheduleOne(t, svc, "2026-09-07", "14:00")

	admin := &models.JWTClaims{UserID: uuid.NewString(), Role: models.RoleAdmin}
	_, err := svc.CancelLesson(context.Background(), admin, id)
	require.NoError(t, err)
	_, err = svc.CancelLesson(context.Background(), admin, id)
	require.Error(t, err)
}

func TestCancelLessonByUnrelatedStudentForbidden(t *testing.T) {
	svc, _, _ := newLessonFixture()
	id := scheduleOne(t, svc, "2026-09-07", "14:00")

	stranger := &models.JWTClaims{UserID: uuid.NewString(), Role: models.RoleStudent}
	_, err := svc.CancelLesson(context.Background(), stranger, id)
	require.Error(t, err)
}

func TestUndoCancellationRestoresLesson(t *testing.T) {
	svc, repo, notifier := newLessonFixture()
	svc.nowFn = fixedNow(time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC))
	id := scheduleOne(t, svc, "2026-09-07", "14:00")

	admin := &models.JWTClaims{UserID: uuid.NewString(), Role: models.RoleAdmin}
	_, err := svc.CancelLesson(context.Background(), admin, id)
	require.NoError(t, err)
	repo.lessons[id].TutorPaid = true

	// 25 hours before start the lesson is still restorable.
	svc.nowFn = fixedNow(time.Date(2026, 9, 6, 13, 0, 0, 0, time.UTC))
	view, err := svc.UndoLessonCancellation(context.Background(), admin, id)
	require.NoError(t, err)
	assert.Equal(t, "scheduled", view.Status)
	assert.False(t, view.TutorPaid)
	assert.Nil(t, repo.lessons[id].CancelledAt)
	assert.Equal(t, 1, notifier.reinstated)
}

func TestUndoCancellationInsideWindowRejected(t *testing.T) {
	svc, _, _ := newLessonFixture()
	svc.nowFn = fixedNow(time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC))
	id := scheduleOne(t, svc, "2026-09-07", "14:00")

	admin := &models.JWTClaims{UserID: uuid.NewString(), Role: models.RoleAdmin}
	_, err := svc.CancelLesson(context.Background(), admin, id)
	require.NoError(t, err)

	// Only 10 hours remain before start.
	svc.nowFn = fixedNow(time.Date(2026, 9, 7, 4, 0, 0, 0, time.UTC))
	_, err = svc.UndoLessonCancellation(context.Background(), admin, id)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "24 hours")
}

func TestUndoCancellationAfterStartRejected(t *testing.T) {
	svc, _, _ := newLessonFixture()
	svc.nowFn = fixedNow(time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC))
	id := scheduleOne(t, svc, "2026-09-07", "14:00")

	admin := &models.JWTClaims{UserID: uuid.NewString(), Role: models.RoleAdmin}
	_, err := svc.CancelLesson(context.Background(), admin, id)
	require.NoError(t, err)

	svc.nowFn = fixedNow(time.Date(2026, 9, 8, 9, 0, 0, 0, time.UTC))
	_, err = svc.UndoLessonCancellation(context.Background(), admin, id)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already passed")
}

func TestUndoCancellationSlotTaken(t *testing.T) {
	svc, _, _ := newLessonFixture()
	svc.nowFn = fixedNow(time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC))
	id := scheduleOne(t, svc, "2026-09-07", "14:00")

	admin := &models.JWTClaims{UserID: uuid.NewString(), Role: models.RoleAdmin}
	_, err := svc.CancelLesson(context.Background(), admin, id)
	require.NoError(t, err)

	// The freed slot gets rebooked before the undo.
	scheduleOne(t, svc, "2026-09-07", "14:30")

	_, err = svc.UndoLessonCancellation(context.Background(), admin, id)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not available")
}

func TestUndoOnNonCancelledRejected(t *testing.T) {
	svc, _, _ := newLessonFixture()
	id := scheduleOne(t, svc, "2026-09-07", "14:00")

	admin := &models.JWTClaims{UserID: uuid.NewString(), Role: models.RoleAdmin}
	_, err := svc.UndoLessonCancellation(context.Background(), admin, id)
	require.Error(t, err)
}

func TestCompleteLessonGuards(t *testing.T) {
	svc, _, _ := newLessonFixture()
	id := scheduleOne(t, svc, "2026-09-07", "14:00")
	admin := &models.JWTClaims{UserID: uuid.NewString(), Role: models.RoleAdmin}

	view, err := svc.CompleteLesson(context.Background(), admin, id)
	require.NoError(t, err)
	assert.Equal(t, "completed", view.Status)

	// Completing twice fails.
	_, err = svc.CompleteLesson(context.Background(), admin, id)
	require.Error(t, err)

	// A cancelled lesson can never be completed.
	other := scheduleOne(t, svc, "2026-09-08", "14:00")
	_, err = svc.CancelLesson(context.Background(), admin, other)
	require.NoError(t, err)
	_, err = svc.CompleteLesson(context.Background(), admin, other)
	require.Error(t, err)
}

func TestCompleteLessonNotifiesParticipants(t *testing.T) {
	svc, _, notifier := newLessonFixture()
	id := scheduleOne(t, svc, "2026-09-07", "14:00")

	tutor := &models.JWTClaims{UserID: testTutorID, Role: models.RoleTutor}
	_, err := svc.CompleteLesson(context.Background(), tutor, id)
	require.NoError(t, err)
	assert.Equal(t, 1, notifier.completed)
}

func TestCompleteLessonByOtherTutorForbidden(t *testing.T) {
	svc, _, _ := newLessonFixture()
	id := scheduleOne(t, svc, "2026-09-07", "14:00")

	otherTutor := &models.JWTClaims{UserID: uuid.NewString(), Role: models.RoleTutor}
	_, err := svc.CompleteLesson(context.Background(), otherTutor, id)
	require.Error(t, err)
}

func TestRescheduleDerivesNewStatus(t *testing.T) {
	svc, _, _ := newLessonFixture()
	svc.nowFn = fixedNow(time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC))
	id := scheduleOne(t, svc, "2026-09-07", "14:00")

	// Move the lesson into a window containing the clock.
	svc.nowFn = fixedNow(time.Date(2026, 9, 8, 14, 30, 0, 0, time.UTC))
	tutor := &models.JWTClaims{UserID: testTutorID, Role: models.RoleTutor}
	view, err := svc.RescheduleLesson(context.Background(), tutor, id, models.RescheduleLessonRequest{
		LessonDate: strp("2026-09-08"), LessonTime: strp("14:00"),
	})
	require.NoError(t, err)
	// Active still reads as scheduled externally.
	assert.Equal(t, "scheduled", view.Status)
	assert.Equal(t, time.Date(2026, 9, 8, 0, 0, 0, 0, time.UTC), view.LessonDate)
}

func TestRescheduleTimeOnlyKeepsDate(t *testing.T) {
	svc, repo, _ := newLessonFixture()
	id := scheduleOne(t, svc, "2026-09-07", "14:00")

	tutor := &models.JWTClaims{UserID: testTutorID, Role: models.RoleTutor}
	view, err := svc.RescheduleLesson(context.Background(), tutor, id, models.RescheduleLessonRequest{
		LessonTime: strp("16:00"),
	})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC), view.LessonDate)
	assert.Equal(t, "16:00", repo.lessons[id].LessonTime)
	assert.Equal(t, 60, repo.lessons[id].DurationMinutes)
}

func TestRescheduleEmptyPayloadRejected(t *testing.T) {
	svc, _, _ := newLessonFixture()
	id := scheduleOne(t, svc, "2026-09-07", "14:00")

	tutor := &models.JWTClaims{UserID: testTutorID, Role: models.RoleTutor}
	_, err := svc.RescheduleLesson(context.Background(), tutor, id, models.RescheduleLessonRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one")
}

func TestRescheduleCancelledRejected(t *testing.T) {
	svc, _, _ := newLessonFixture()
	id := scheduleOne(t, svc, "2026-09-07", "14:00")
	admin := &models.JWTClaims{UserID: uuid.NewString(), Role: models.RoleAdmin}
	_, err := svc.CancelLesson(context.Background(), admin, id)
	require.NoError(t, err)

	_, err = svc.RescheduleLesson(context.Background(), admin, id, models.RescheduleLessonRequest{
		LessonDate: strp("2026-09-08"), LessonTime: strp("14:00"),
	})
	require.Error(t, err)
}

func TestRescheduleByOtherTutorForbidden(t *testing.T) {
	svc, _, _ := newLessonFixture()
	id := scheduleOne(t, svc, "2026-09-07", "14:00")

	otherTutor := &models.JWTClaims{UserID: uuid.NewString(), Role: models.RoleTutor}
	_, err := svc.RescheduleLesson(context.Background(), otherTutor, id, models.RescheduleLessonRequest{
		LessonDate: strp("2026-09-08"), LessonTime: strp("14:00"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "assigned tutor")
}

func TestRescheduleConflictRejected(t *testing.T) {
	svc, _, _ := newLessonFixture()
	id := scheduleOne(t, svc, "2026-09-07", "14:00")
	scheduleOne(t, svc, "2026-09-08", "14:00")

	// Moving onto the other lesson's slot is refused.
	admin := &models.JWTClaims{UserID: uuid.NewString(), Role: models.RoleAdmin}
	_, err := svc.RescheduleLesson(context.Background(), admin, id, models.RescheduleLessonRequest{
		LessonDate: strp("2026-09-08"), LessonTime: strp("14:30"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not available")
}

func TestListLessonsRoleScoping(t *testing.T) {
	svc, repo, _ := newLessonFixture()
	scheduleOne(t, svc, "2026-09-07", "14:00")

	otherTutorID := uuid.NewString()
	repo.lessons["foreign"] = &models.Lesson{
		ID: "foreign", TutorID: otherTutorID, StudentID: uuid.NewString(),
		LessonDate: time.Date(2026, 9, 9, 0, 0, 0, 0, time.UTC), LessonTime: "10:00",
		DurationMinutes: 60, Status: models.LessonIncoming,
	}

	admin := &models.JWTClaims{UserID: uuid.NewString(), Role: models.RoleAdmin}
	all, err := svc.ListLessons(context.Background(), admin)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	tutor := &models.JWTClaims{UserID: testTutorID, Role: models.RoleTutor}
	own, err := svc.ListLessons(context.Background(), tutor)
	require.NoError(t, err)
	assert.Len(t, own, 1)

	student := &models.JWTClaims{UserID: testStudentID, Role: models.RoleStudent}
	own, err = svc.ListLessons(context.Background(), student)
	require.NoError(t, err)
	assert.Len(t, own, 1)
}

func TestUpdateLessonReassignsStudent(t *testing.T) {
	svc, repo, _ := newLessonFixture()
	id := scheduleOne(t, svc, "2026-09-07", "14:00")

	otherStudent := uuid.NewString()
	svc.accounts.(*mockAccountReader).students[otherStudent] = &models.Student{ID: otherStudent, FullName: "Nora Berg"}

	admin := &models.JWTClaims{UserID: uuid.NewString(), Role: models.RoleAdmin}
	_, err := svc.UpdateLesson(context.Background(), admin, id, models.UpdateLessonRequest{StudentID: &otherStudent})
	require.NoError(t, err)
	assert.Equal(t, otherStudent, repo.lessons[id].StudentID)
}

func TestUpdateLessonUnknownTutorRejected(t *testing.T) {
	svc, repo, _ := newLessonFixture()
	id := scheduleOne(t, svc, "2026-09-07", "14:00")

	unknown := uuid.NewString()
	admin := &models.JWTClaims{UserID: uuid.NewString(), Role: models.RoleAdmin}
	_, err := svc.UpdateLesson(context.Background(), admin, id, models.UpdateLessonRequest{TutorID: &unknown})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tutor not found")
	// Nothing persisted.
	assert.Equal(t, testTutorID, repo.lessons[id].TutorID)
}

func TestUpdateLessonNewTutorMustBeFree(t *testing.T) {
	svc, _, _ := newLessonFixture()
	id := scheduleOne(t, svc, "2026-09-07", "14:00")

	// The second tutor already teaches an overlapping lesson that day.
	otherTutor := uuid.NewString()
	svc.accounts.(*mockAccountReader).tutors[otherTutor] = &models.Tutor{ID: otherTutor, FullName: "Per Olsen"}
	busy := scheduleOne(t, svc, "2026-09-08", "09:00")
	svc.lessons.(*mockLessonRepo).lessons[busy].TutorID = otherTutor
	svc.lessons.(*mockLessonRepo).lessons[busy].LessonDate = time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	svc.lessons.(*mockLessonRepo).lessons[busy].LessonTime = "14:30"

	admin := &models.JWTClaims{UserID: uuid.NewString(), Role: models.RoleAdmin}
	_, err := svc.UpdateLesson(context.Background(), admin, id, models.UpdateLessonRequest{TutorID: &otherTutor})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not available")
}

func TestUpdateLessonByStudentForbidden(t *testing.T) {
	svc, _, _ := newLessonFixture()
	id := scheduleOne(t, svc, "2026-09-07", "14:00")

	topic := "Fractions"
	student := &models.JWTClaims{UserID: testStudentID, Role: models.RoleStudent}
	_, err := svc.UpdateLesson(context.Background(), student, id, models.UpdateLessonRequest{Topic: &topic})
	require.Error(t, err)
}

func TestBulkUpdateRejectsParticipantReassignment(t *testing.T) {
	svc, _, _ := newLessonFixture()
	id := scheduleOne(t, svc, "2026-09-07", "14:00")

	other := uuid.NewString()
	_, err := svc.BulkUpdateLessons(context.Background(), models.BulkUpdateLessonsRequest{
		LessonIDs: []string{id},
		Updates:   models.UpdateLessonRequest{TutorID: &other},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be reassigned in bulk")
}

func TestBulkUpdateRejectsFinishedLessons(t *testing.T) {
	svc, _, _ := newLessonFixture()
	first := scheduleOne(t, svc, "2026-09-07", "14:00")
	second := scheduleOne(t, svc, "2026-09-08", "14:00")

	admin := &models.JWTClaims{UserID: uuid.NewString(), Role: models.RoleAdmin}
	_, err := svc.CancelLesson(context.Background(), admin, second)
	require.NoError(t, err)

	topic := "Fractions"
	_, err = svc.BulkUpdateLessons(context.Background(), models.BulkUpdateLessonsRequest{
		LessonIDs: []string{first, second},
		Updates:   models.UpdateLessonRequest{Topic: &topic},
	})
	require.Error(t, err)
}

func TestBulkUpdateAppliesFields(t *testing.T) {
	svc, repo, _ := newLessonFixture()
	first := scheduleOne(t, svc, "2026-09-07", "14:00")
	second := scheduleOne(t, svc, "2026-09-08", "14:00")

	topic := "Fractions"
	views, err := svc.BulkUpdateLessons(context.Background(), models.BulkUpdateLessonsRequest{
		LessonIDs: []string{first, second},
		Updates:   models.UpdateLessonRequest{Topic: &topic},
	})
	require.NoError(t, err)
	assert.Len(t, views, 2)
	assert.Equal(t, "Fractions", repo.lessons[first].Topic)
	assert.Equal(t, "Fractions", repo.lessons[second].Topic)
}

func TestSweepStatuses(t *testing.T) {
	svc, repo, _ := newLessonFixture()
	now := time.Date(2026, 9, 7, 14, 30, 0, 0, time.UTC)
	svc.nowFn = fixedNow(now)

	repo.lessons["due"] = &models.Lesson{
		ID: "due", TutorID: testTutorID, StudentID: testStudentID,
		LessonDate: time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC), LessonTime: "14:00",
		DurationMinutes: 60, Status: models.LessonIncoming,
	}
	repo.lessons["expired"] = &models.Lesson{
		ID: "expired", TutorID: testTutorID, StudentID: testStudentID,
		LessonDate: time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC), LessonTime: "12:00",
		DurationMinutes: 60, Status: models.LessonActive,
	}
	repo.lessons["cancelled"] = &models.Lesson{
		ID: "cancelled", TutorID: testTutorID, StudentID: testStudentID,
		LessonDate: time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC), LessonTime: "12:00",
		DurationMinutes: 60, Status: models.LessonCancelled,
	}

	activated, completed, err := svc.SweepStatuses(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), activated)
	assert.Equal(t, int64(1), completed)
	assert.Equal(t, models.LessonActive, repo.lessons["due"].Status)
	assert.Equal(t, models.LessonCompleted, repo.lessons["expired"].Status)
	assert.Equal(t, models.LessonCancelled, repo.lessons["cancelled"].Status)
}

func TestCheckAvailability(t *testing.T) {
	svc, _, _ := newLessonFixture()
	id := scheduleOne(t, svc, "2026-09-07", "14:00")

	free, err := svc.CheckAvailability(context.Background(), models.AvailabilityRequest{
		TutorID: testTutorID, LessonDate: "2026-09-07", LessonTime: "14:30", DurationMinutes: 60,
	})
	require.NoError(t, err)
	assert.False(t, free)

	// Excluding the booked lesson frees its own slot for reschedules.
	free, err = svc.CheckAvailability(context.Background(), models.AvailabilityRequest{
		TutorID: testTutorID, LessonDate: "2026-09-07", LessonTime: "14:30", DurationMinutes: 60,
		ExcludeLessonID: id,
	})
	require.NoError(t, err)
	assert.True(t, free)
}
