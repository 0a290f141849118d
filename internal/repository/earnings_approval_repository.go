package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ShaheerAzam/backend/internal/models"
)

// ErrDuplicatePeriod signals the unique (tutor_id, period_start, period_end)
// constraint fired: an approval for that tutor and period already exists.
var ErrDuplicatePeriod = errors.New("earnings approval already exists for period")

const approvalColumns = `id, tutor_id, period_start, period_end, total_hours, total_amount, status, approved_by, approved_at, lesson_ids, created_at, updated_at`

// EarningsApprovalRepository manages persistence for earnings approvals.
type EarningsApprovalRepository struct {
	db *sqlx.DB
}

// NewEarningsApprovalRepository constructs an EarningsApprovalRepository.
func NewEarningsApprovalRepository(db *sqlx.DB) *EarningsApprovalRepository {
	return &EarningsApprovalRepository{db: db}
}

// Create inserts a new approval record.
func (r *EarningsApprovalRepository) Create(ctx context.Context, approval *models.EarningsApproval) error {
	if approval.ID == "" {
		approval.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if approval.CreatedAt.IsZero() {
		approval.CreatedAt = now
	}
	approval.UpdatedAt = now

	const query = `INSERT INTO earnings_approvals (` + approvalColumns + `)
		VALUES (:id, :tutor_id, :period_start, :period_end, :total_hours, :total_amount, :status, :approved_by, :approved_at, :lesson_ids, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, approval); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicatePeriod
		}
		return fmt.Errorf("create earnings approval: %w", err)
	}
	return nil
}

// FindByID fetches an approval by ID.
func (r *EarningsApprovalRepository) FindByID(ctx context.Context, id string) (*models.EarningsApproval, error) {
	const query = `SELECT ` + approvalColumns + ` FROM earnings_approvals WHERE id = $1`
	var approval models.EarningsApproval
	if err := r.db.GetContext(ctx, &approval, query, id); err != nil {
		return nil, err
	}
	return &approval, nil
}

// FindByPeriod fetches the approval for an exact (tutor, period) triple.
func (r *EarningsApprovalRepository) FindByPeriod(ctx context.Context, tutorID string, periodStart, periodEnd time.Time) (*models.EarningsApproval, error) {
	const query = `SELECT ` + approvalColumns + ` FROM earnings_approvals
		WHERE tutor_id = $1 AND period_start = $2 AND period_end = $3`
	var approval models.EarningsApproval
	if err := r.db.GetContext(ctx, &approval, query, tutorID, periodStart, periodEnd); err != nil {
		return nil, err
	}
	return &approval, nil
}

// ListPending returns all pending approvals with tutor display info, newest
// created first.
func (r *EarningsApprovalRepository) ListPending(ctx context.Context) ([]models.PendingApprovalView, error) {
	const query = `SELECT a.id, a.tutor_id, t.full_name AS tutor_name, t.email AS tutor_email,
		a.period_start, a.period_end, a.total_hours, a.total_amount,
		cardinality(a.lesson_ids) AS lesson_count, a.created_at
		FROM earnings_approvals a
		JOIN tutors t ON t.id = a.tutor_id
		WHERE a.status = 'pending'
		ORDER BY a.created_at DESC`
	var approvals []models.PendingApprovalView
	if err := r.db.SelectContext(ctx, &approvals, query); err != nil {
		return nil, fmt.Errorf("list pending approvals: %w", err)
	}
	return approvals, nil
}

// ListByTutor returns all approvals for a tutor, newest period first.
func (r *EarningsApprovalRepository) ListByTutor(ctx context.Context, tutorID string) ([]models.EarningsApproval, error) {
	const query = `SELECT ` + approvalColumns + ` FROM earnings_approvals
		WHERE tutor_id = $1 ORDER BY period_start DESC`
	var approvals []models.EarningsApproval
	if err := r.db.SelectContext(ctx, &approvals, query, tutorID); err != nil {
		return nil, fmt.Errorf("list tutor approvals: %w", err)
	}
	return approvals, nil
}

// Update persists the decision fields of an approval.
func (r *EarningsApprovalRepository) Update(ctx context.Context, approval *models.EarningsApproval) error {
	approval.UpdatedAt = time.Now().UTC()
	const query = `UPDATE earnings_approvals SET status = :status, approved_by = :approved_by,
		approved_at = :approved_at, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, approval); err != nil {
		return fmt.Errorf("update earnings approval: %w", err)
	}
	return nil
}
