package models

import "github.com/shopspring/decimal"

// ApprovalDecisionRequest decides one pending approval.
type ApprovalDecisionRequest struct {
	Approve bool `json:"approve"`
}

// PeriodApprovalRequest decides a tutor's earnings for one period addressed
// by its boundary dates instead of an approval ID. The record is created on
// the fly when the generator has not produced it yet.
type PeriodApprovalRequest struct {
	TutorID     string `json:"tutor_id" validate:"required,uuid4"`
	PeriodStart string `json:"period_start" validate:"required,datetime=2006-01-02"`
	PeriodEnd   string `json:"period_end" validate:"required,datetime=2006-01-02"`
	Approve     bool   `json:"approve"`
}

// UpdateEarningsConfigRequest changes the payout configuration.
type UpdateEarningsConfigRequest struct {
	InPersonBonus *decimal.Decimal `json:"in_person_bonus,omitempty"`
	InvoiceMarkup *decimal.Decimal `json:"invoice_markup,omitempty"`
}
