package models

// ScheduleLessonRequest books a lesson, or a weekly bundle when Weeks > 1.
type ScheduleLessonRequest struct {
	LessonDate      string     `json:"lesson_date" validate:"required,datetime=2006-01-02"`
	LessonTime      string     `json:"lesson_time" validate:"required,datetime=15:04"`
	DurationMinutes int        `json:"duration_minutes" validate:"required,gt=0,lte=480"`
	Level           string     `json:"level" validate:"required"`
	Topic           string     `json:"topic" validate:"required"`
	Type            LessonType `json:"type" validate:"required,oneof=online in-person"`
	Location        *string    `json:"location,omitempty"`
	TutorID         string     `json:"tutor_id" validate:"required,uuid4"`
	StudentID       string     `json:"student_id" validate:"required,uuid4"`
	Weeks           int        `json:"weeks,omitempty" validate:"omitempty,gte=1,lte=52"`
}

// RescheduleLessonRequest moves a lesson to a new slot. Omitted fields keep
// their current values; the service requires at least one to be present.
type RescheduleLessonRequest struct {
	LessonDate      *string `json:"lesson_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	LessonTime      *string `json:"lesson_time,omitempty" validate:"omitempty,datetime=15:04"`
	DurationMinutes *int    `json:"duration_minutes,omitempty" validate:"omitempty,gt=0,lte=480"`
}

// UpdateLessonRequest changes lesson fields without moving it through the
// lifecycle. All fields are optional.
type UpdateLessonRequest struct {
	LessonDate      *string     `json:"lesson_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	LessonTime      *string     `json:"lesson_time,omitempty" validate:"omitempty,datetime=15:04"`
	DurationMinutes *int        `json:"duration_minutes,omitempty" validate:"omitempty,gt=0,lte=480"`
	Level           *string     `json:"level,omitempty"`
	Topic           *string     `json:"topic,omitempty"`
	Type            *LessonType `json:"type,omitempty" validate:"omitempty,oneof=online in-person"`
	Location        *string     `json:"location,omitempty"`
	TutorID         *string     `json:"tutor_id,omitempty" validate:"omitempty,uuid4"`
	StudentID       *string     `json:"student_id,omitempty" validate:"omitempty,uuid4"`
}

// BulkUpdateLessonsRequest applies one field set to many lessons at once.
type BulkUpdateLessonsRequest struct {
	LessonIDs []string            `json:"lesson_ids" validate:"required,min=1,dive,uuid4"`
	Updates   UpdateLessonRequest `json:"updates"`
}

// AvailabilityRequest asks whether a tutor is free for a slot. The exclude
// field lets reschedules ignore the lesson being moved.
type AvailabilityRequest struct {
	TutorID         string `json:"tutor_id" validate:"required,uuid4"`
	LessonDate      string `json:"lesson_date" validate:"required,datetime=2006-01-02"`
	LessonTime      string `json:"lesson_time" validate:"required,datetime=15:04"`
	DurationMinutes int    `json:"duration_minutes" validate:"required,gt=0,lte=480"`
	ExcludeLessonID string `json:"exclude_lesson_id,omitempty" validate:"omitempty,uuid4"`
}
