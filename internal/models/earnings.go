package models

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// ApprovalStatus is the decision state of an earnings approval record.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// EarningsApproval is one tutor's completed-lesson earnings for one bi-weekly
// period, awaiting (or past) a single admin decision. Period boundaries are
// global, not per-tutor: [PeriodStart, PeriodEnd).
type EarningsApproval struct {
	ID          string          `db:"id" json:"id"`
	TutorID     string          `db:"tutor_id" json:"tutor_id"`
	PeriodStart time.Time       `db:"period_start" json:"period_start"`
	PeriodEnd   time.Time       `db:"period_end" json:"period_end"`
	TotalHours  float64         `db:"total_hours" json:"total_hours"`
	TotalAmount decimal.Decimal `db:"total_amount" json:"total_amount"`
	Status      ApprovalStatus  `db:"status" json:"status"`
	ApprovedBy  *string         `db:"approved_by" json:"approved_by,omitempty"`
	ApprovedAt  *time.Time      `db:"approved_at" json:"approved_at,omitempty"`
	LessonIDs   pq.StringArray  `db:"lesson_ids" json:"lesson_ids"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

// EarningsConfig is the singleton payout configuration row.
type EarningsConfig struct {
	ID            string          `db:"id" json:"id"`
	InPersonBonus decimal.Decimal `db:"in_person_bonus" json:"in_person_bonus"` // flat amount per in-person lesson
	InvoiceMarkup decimal.Decimal `db:"invoice_markup" json:"invoice_markup"`   // percentage, 0-100
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
}

// PendingApprovalView is an approval joined with tutor display info.
type PendingApprovalView struct {
	ID          string          `db:"id" json:"id"`
	TutorID     string          `db:"tutor_id" json:"tutor_id"`
	TutorName   string          `db:"tutor_name" json:"tutor_name"`
	TutorEmail  string          `db:"tutor_email" json:"tutor_email"`
	PeriodStart time.Time       `db:"period_start" json:"period_start"`
	PeriodEnd   time.Time       `db:"period_end" json:"period_end"`
	TotalHours  float64         `db:"total_hours" json:"total_hours"`
	TotalAmount decimal.Decimal `db:"total_amount" json:"total_amount"`
	LessonCount int             `db:"lesson_count" json:"lesson_count"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}

// EarningsHistoryEntry is one approval in a tutor's earnings history.
type EarningsHistoryEntry struct {
	ID          string          `json:"id"`
	PeriodStart time.Time       `json:"period_start"`
	PeriodEnd   time.Time       `json:"period_end"`
	TotalHours  float64         `json:"total_hours"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Status      ApprovalStatus  `json:"status"`
	ApprovedAt  *time.Time      `json:"approved_at,omitempty"`
	LessonCount int             `json:"lesson_count"`
}

// TutorEarnings summarises a tutor's pending and approved totals.
// Rejected approvals stay visible in history but never count toward totals.
type TutorEarnings struct {
	PendingTotal  decimal.Decimal        `json:"pending_total"`
	ApprovedTotal decimal.Decimal        `json:"approved_total"`
	History       []EarningsHistoryEntry `json:"earnings_history"`
}

// PeriodBreakdown is one bi-weekly period in the enhanced earnings report.
type PeriodBreakdown struct {
	PeriodStart     time.Time       `json:"period_start"`
	PeriodEnd       time.Time       `json:"period_end"`
	OnlineHours     float64         `json:"online_hours"`
	InPersonHours   float64         `json:"in_person_hours"`
	OnlineLessons   int             `json:"online_lessons"`
	InPersonLessons int             `json:"in_person_lessons"`
	BaseSalary      decimal.Decimal `json:"base_salary"`
	InPersonBonus   decimal.Decimal `json:"in_person_bonus"`
	TotalSalary     decimal.Decimal `json:"total_salary"`
	InvoiceAmount   decimal.Decimal `json:"invoice_amount"`
	Status          ApprovalStatus  `json:"status"`
}

// TutorEarningsReport is the per-tutor slice of the enhanced earnings view.
type TutorEarningsReport struct {
	TutorID    string            `json:"tutor_id"`
	TutorName  string            `json:"tutor_name"`
	HourlyRate decimal.Decimal   `json:"hourly_rate"`
	Periods    []PeriodBreakdown `json:"periods"`
}
