package models

import "time"

// LessonStatus is the internal lifecycle state of a lesson.
type LessonStatus string

const (
	LessonIncoming  LessonStatus = "Incoming"
	LessonActive    LessonStatus = "Active"
	LessonCompleted LessonStatus = "Completed"
	LessonCancelled LessonStatus = "Cancelled"
)

// LessonType distinguishes delivery modes.
type LessonType string

const (
	LessonOnline   LessonType = "online"
	LessonInPerson LessonType = "in-person"
)

// LessonLevels is the fixed set of accepted level/grade categories.
var LessonLevels = []string{
	"1st grade", "2nd grade", "3rd grade", "4th grade", "5th grade",
	"6th grade", "7th grade", "8th grade", "9th grade", "10th grade",
	"1T", "1P", "2P", "S1", "R1", "S2", "R2",
}

// ValidLessonLevel reports whether the level is one of the accepted categories.
func ValidLessonLevel(level string) bool {
	for _, l := range LessonLevels {
		if l == level {
			return true
		}
	}
	return false
}

// Lesson is the authoritative booking record. Status follows wall-clock time
// unless the lesson was cancelled or explicitly completed.
type Lesson struct {
	ID              string       `db:"id" json:"id"`
	LessonDate      time.Time    `db:"lesson_date" json:"lesson_date"`
	LessonTime      string       `db:"lesson_time" json:"lesson_time"` // HH:MM
	DurationMinutes int          `db:"duration_minutes" json:"duration_minutes"`
	Level           string       `db:"level" json:"level"`
	Topic           string       `db:"topic" json:"topic"`
	Type            LessonType   `db:"lesson_type" json:"type"`
	Location        *string      `db:"location" json:"location,omitempty"`
	TutorID         string       `db:"tutor_id" json:"tutor_id"`
	StudentID       string       `db:"student_id" json:"student_id"`
	Status          LessonStatus `db:"status" json:"status"`
	BundleID        *string      `db:"bundle_id" json:"bundle_id,omitempty"`
	TutorPaid       bool         `db:"tutor_paid" json:"tutor_paid"`
	CancelledAt     *time.Time   `db:"cancelled_at" json:"cancelled_at,omitempty"`
	CreatedAt       time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time    `db:"updated_at" json:"updated_at"`
}

// LessonWithNames is a Lesson joined with participant display names.
type LessonWithNames struct {
	Lesson
	TutorName   string `db:"tutor_name" json:"tutor_name"`
	StudentName string `db:"student_name" json:"student_name"`
}

// PublicStatus is the external tri-state view of a lesson status.
// Incoming and Active both read as "scheduled".
func PublicStatus(status LessonStatus) string {
	switch status {
	case LessonCancelled:
		return "cancelled"
	case LessonCompleted:
		return "completed"
	default:
		return "scheduled"
	}
}

// LessonView is the external representation returned by lesson listings.
type LessonView struct {
	LessonID    string    `json:"lesson_id"`
	LessonDate  time.Time `json:"lesson_date"`
	LessonTime  string    `json:"lesson_time"`
	Duration    int       `json:"duration"`
	Level       string    `json:"level"`
	Topic       string    `json:"topic"`
	Type        string    `json:"type"`
	Location    *string   `json:"location,omitempty"`
	TutorName   string    `json:"tutor_name"`
	StudentName string    `json:"student_name"`
	Status      string    `json:"status"`
	BundleID    *string   `json:"bundle_id,omitempty"`
	TutorPaid   bool      `json:"tutor_paid"`
}

// LessonFilter scopes lesson listings to a participant.
type LessonFilter struct {
	TutorID   string
	StudentID string
}

// LessonBulkSet holds the optional fields a bulk update may apply.
// ClearLocation is set when switching delivery type to online.
type LessonBulkSet struct {
	LessonDate      *time.Time
	LessonTime      *string
	DurationMinutes *int
	Level           *string
	Topic           *string
	Type            *LessonType
	Location        *string
	ClearLocation   bool
}

// Empty reports whether the set would change nothing.
func (s LessonBulkSet) Empty() bool {
	return s.LessonDate == nil && s.LessonTime == nil && s.DurationMinutes == nil &&
		s.Level == nil && s.Topic == nil && s.Type == nil && s.Location == nil && !s.ClearLocation
}
