package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/ShaheerAzam/backend/internal/models"
)

// Default payout configuration used when the singleton row is absent.
var (
	DefaultInPersonBonus = decimal.NewFromInt(5)
	DefaultInvoiceMarkup = decimal.NewFromInt(15)
)

// EarningsConfigRepository manages the singleton payout configuration row.
type EarningsConfigRepository struct {
	db *sqlx.DB
}

// NewEarningsConfigRepository constructs an EarningsConfigRepository.
func NewEarningsConfigRepository(db *sqlx.DB) *EarningsConfigRepository {
	return &EarningsConfigRepository{db: db}
}

// GetOrCreate returns the configuration row, lazily inserting defaults the
// first time it is read.
func (r *EarningsConfigRepository) GetOrCreate(ctx context.Context) (*models.EarningsConfig, error) {
	cfg, err := r.get(ctx)
	if err == nil {
		return cfg, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("load earnings config: %w", err)
	}

	now := time.Now().UTC()
	cfg = &models.EarningsConfig{
		ID:            uuid.NewString(),
		InPersonBonus: DefaultInPersonBonus,
		InvoiceMarkup: DefaultInvoiceMarkup,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	const query = `INSERT INTO earnings_config (id, in_person_bonus, invoice_markup, created_at, updated_at)
		VALUES (:id, :in_person_bonus, :invoice_markup, :created_at, :updated_at)
		ON CONFLICT (singleton) DO NOTHING`
	if _, err := r.db.NamedExecContext(ctx, query, cfg); err != nil {
		return nil, fmt.Errorf("seed earnings config: %w", err)
	}
	// Re-read to win a concurrent seed race.
	return r.get(ctx)
}

// Update persists new bonus/markup values.
func (r *EarningsConfigRepository) Update(ctx context.Context, cfg *models.EarningsConfig) error {
	cfg.UpdatedAt = time.Now().UTC()
	const query = `UPDATE earnings_config SET in_person_bonus = :in_person_bonus,
		invoice_markup = :invoice_markup, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, cfg); err != nil {
		return fmt.Errorf("update earnings config: %w", err)
	}
	return nil
}

func (r *EarningsConfigRepository) get(ctx context.Context) (*models.EarningsConfig, error) {
	const query = `SELECT id, in_person_bonus, invoice_markup, created_at, updated_at FROM earnings_config LIMIT 1`
	var cfg models.EarningsConfig
	if err := r.db.GetContext(ctx, &cfg, query); err != nil {
		return nil, err
	}
	return &cfg, nil
}
