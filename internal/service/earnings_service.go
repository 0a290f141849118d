package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ShaheerAzam/backend/internal/models"
	"github.com/ShaheerAzam/backend/internal/repository"
	appErrors "github.com/ShaheerAzam/backend/pkg/errors"
	"github.com/ShaheerAzam/backend/pkg/export"
)

// periodDays is the payroll period length. Periods tile the calendar in
// fixed two-week blocks counted from the configured epoch; boundaries are
// global, never per-tutor.
const periodDays = 14

const reportCachePrefix = "earnings:report:"

type earningsLessonReader interface {
	ListPayableInPeriod(ctx context.Context, tutorID string, periodStart, periodEnd time.Time) ([]models.Lesson, error)
	ListByIDs(ctx context.Context, ids []string) ([]models.Lesson, error)
}

type earningsApprovalRepository interface {
	Create(ctx context.Context, approval *models.EarningsApproval) error
	FindByID(ctx context.Context, id string) (*models.EarningsApproval, error)
	FindByPeriod(ctx context.Context, tutorID string, periodStart, periodEnd time.Time) (*models.EarningsApproval, error)
	ListPending(ctx context.Context) ([]models.PendingApprovalView, error)
	ListByTutor(ctx context.Context, tutorID string) ([]models.EarningsApproval, error)
	Update(ctx context.Context, approval *models.EarningsApproval) error
}

type earningsConfigRepository interface {
	GetOrCreate(ctx context.Context) (*models.EarningsConfig, error)
	Update(ctx context.Context, cfg *models.EarningsConfig) error
}

type earningsTutorReader interface {
	FindTutorByID(ctx context.Context, id string) (*models.Tutor, error)
	ListTutors(ctx context.Context) ([]models.Tutor, error)
}

type earningsCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

type earningsNotifier interface {
	EarningsPending(tutor *models.Tutor, total decimal.Decimal, periodStart, periodEnd string)
	EarningsDecided(tutor *models.Tutor, approval *models.EarningsApproval)
}

// EarningsService implements the bi-weekly payroll engine: period math,
// idempotent approval generation, one-shot admin decisions, tutor summaries,
// the cached cross-tutor report, and statement export.
type EarningsService struct {
	lessons   earningsLessonReader
	approvals earningsApprovalRepository
	config    earningsConfigRepository
	accounts  earningsTutorReader
	cache     earningsCache
	notifier  earningsNotifier
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger

	epoch          time.Time
	reportCacheTTL time.Duration
	reportPeriods  int
	nowFn          func() time.Time
}

// EarningsOptions tunes the payroll engine.
type EarningsOptions struct {
	// PeriodEpoch anchors period boundaries. Must be a Monday so periods
	// align with calendar weeks.
	PeriodEpoch    time.Time
	ReportCacheTTL time.Duration
	ReportPeriods  int
}

// NewEarningsService constructs an EarningsService.
func NewEarningsService(
	lessons earningsLessonReader,
	approvals earningsApprovalRepository,
	config earningsConfigRepository,
	accounts earningsTutorReader,
	cache earningsCache,
	notifier earningsNotifier,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	opts EarningsOptions,
) *EarningsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if opts.PeriodEpoch.IsZero() {
		opts.PeriodEpoch = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	}
	if opts.ReportCacheTTL <= 0 {
		opts.ReportCacheTTL = 10 * time.Minute
	}
	if opts.ReportPeriods <= 0 {
		opts.ReportPeriods = 6
	}
	return &EarningsService{
		lessons:        lessons,
		approvals:      approvals,
		config:         config,
		accounts:       accounts,
		cache:          cache,
		notifier:       notifier,
		metrics:        metrics,
		validator:      validate,
		logger:         logger,
		epoch:          opts.PeriodEpoch.UTC().Truncate(24 * time.Hour),
		reportCacheTTL: opts.ReportCacheTTL,
		reportPeriods:  opts.ReportPeriods,
		nowFn:          func() time.Time { return time.Now().UTC() },
	}
}

// PeriodFor returns the half-open [start, end) boundaries of the bi-weekly
// period containing t. Dates before the epoch land in negative periods.
func (s *EarningsService) PeriodFor(t time.Time) (time.Time, time.Time) {
	days := int(t.UTC().Truncate(24*time.Hour).Sub(s.epoch).Hours() / 24)
	index := floorDiv(days, periodDays)
	start := s.epoch.AddDate(0, 0, index*periodDays)
	return start, start.AddDate(0, 0, periodDays)
}

// GenerateDueApprovals creates pending approvals for every tutor for the
// period containing now. Safe to call repeatedly: existing (tutor, period)
// records are left untouched and tutors without payable lessons are skipped.
func (s *EarningsService) GenerateDueApprovals(ctx context.Context) (int, error) {
	periodStart, periodEnd := s.PeriodFor(s.nowFn())
	return s.GenerateForPeriod(ctx, periodStart, periodEnd)
}

// GenerateForPeriod creates pending approvals for every tutor with payable
// lessons in [periodStart, periodEnd). Periods that have not begun yet are
// silently skipped. Returns the number created.
func (s *EarningsService) GenerateForPeriod(ctx context.Context, periodStart, periodEnd time.Time) (int, error) {
	if periodStart.After(s.nowFn()) {
		return 0, nil
	}

	tutors, err := s.accounts.ListTutors(ctx)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list tutors")
	}

	created := 0
	for i := range tutors {
		tutor := &tutors[i]

		if _, err := s.approvals.FindByPeriod(ctx, tutor.ID, periodStart, periodEnd); err == nil {
			continue
		} else if !errors.Is(err, sql.ErrNoRows) {
			return created, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing approval")
		}

		approval, err := s.buildApproval(ctx, tutor, periodStart, periodEnd)
		if err != nil {
			return created, err
		}
		if approval == nil {
			continue
		}

		if err := s.approvals.Create(ctx, approval); err != nil {
			if errors.Is(err, repository.ErrDuplicatePeriod) {
				// Lost a race with a concurrent generator; the record exists.
				continue
			}
			return created, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create approval")
		}
		created++

		s.notifier.EarningsPending(tutor, approval.TotalAmount,
			periodStart.Format("2 January 2006"), periodEnd.AddDate(0, 0, -1).Format("2 January 2006"))
	}

	if created > 0 {
		s.invalidateReportCache(ctx)
		s.logger.Info("earnings approvals generated",
			zap.Time("period_start", periodStart),
			zap.Time("period_end", periodEnd),
			zap.Int("created", created))
	}
	return created, nil
}

// buildApproval computes a tutor's pending approval for one period, or nil
// when the tutor has nothing payable in it. The amount is hours times the
// tutor's current rate; the in-person bonus belongs to the report view only.
func (s *EarningsService) buildApproval(ctx context.Context, tutor *models.Tutor, periodStart, periodEnd time.Time) (*models.EarningsApproval, error) {
	lessons, err := s.lessons.ListPayableInPeriod(ctx, tutor.ID, periodStart, periodEnd)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list payable lessons")
	}
	if len(lessons) == 0 {
		return nil, nil
	}

	var totalMinutes int
	ids := make([]string, 0, len(lessons))
	for i := range lessons {
		totalMinutes += lessons[i].DurationMinutes
		ids = append(ids, lessons[i].ID)
	}

	hours := decimal.NewFromInt(int64(totalMinutes)).Div(decimal.NewFromInt(60))
	amount := tutor.HourlyRate.Mul(hours)

	return &models.EarningsApproval{
		TutorID:     tutor.ID,
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
		TotalHours:  hours.InexactFloat64(),
		TotalAmount: amount.Round(2),
		Status:      models.ApprovalPending,
		LessonIDs:   ids,
	}, nil
}

// ListPendingApprovals returns every pending approval for the admin queue.
func (s *EarningsService) ListPendingApprovals(ctx context.Context) ([]models.PendingApprovalView, error) {
	views, err := s.approvals.ListPending(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list pending approvals")
	}
	return views, nil
}

// DecideApproval approves or rejects one pending approval. Decisions are
// one-shot: a second decision on the same record fails.
func (s *EarningsService) DecideApproval(ctx context.Context, adminID, approvalID string, approve bool) (*models.EarningsApproval, error) {
	approval, err := s.approvals.FindByID(ctx, approvalID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "approval not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load approval")
	}
	return s.decide(ctx, adminID, approval, approve)
}

// DecidePeriodApproval approves or rejects a tutor's earnings for a period
// addressed by boundary dates, creating the record first if the generator
// has not run for that period yet.
func (s *EarningsService) DecidePeriodApproval(ctx context.Context, adminID string, req models.PeriodApprovalRequest) (*models.EarningsApproval, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid period approval payload")
	}
	periodStart, err := time.ParseInLocation("2006-01-02", req.PeriodStart, time.UTC)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid period start")
	}
	periodEnd, err := time.ParseInLocation("2006-01-02", req.PeriodEnd, time.UTC)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid period end")
	}
	if wantStart, wantEnd := s.PeriodFor(periodStart); !periodStart.Equal(wantStart) || !periodEnd.Equal(wantEnd) {
		return nil, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("dates do not match a payroll period; expected %s to %s",
				wantStart.Format("2006-01-02"), wantEnd.Format("2006-01-02")))
	}

	approval, err := s.approvals.FindByPeriod(ctx, req.TutorID, periodStart, periodEnd)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load approval")
		}
		approval, err = s.createOnDemand(ctx, req.TutorID, periodStart, periodEnd)
		if err != nil {
			return nil, err
		}
	}
	return s.decide(ctx, adminID, approval, req.Approve)
}

func (s *EarningsService) createOnDemand(ctx context.Context, tutorID string, periodStart, periodEnd time.Time) (*models.EarningsApproval, error) {
	tutor, err := s.accounts.FindTutorByID(ctx, tutorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "tutor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load tutor")
	}
	approval, err := s.buildApproval(ctx, tutor, periodStart, periodEnd)
	if err != nil {
		return nil, err
	}
	if approval == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "tutor has no payable lessons in the period")
	}

	if err := s.approvals.Create(ctx, approval); err != nil {
		if errors.Is(err, repository.ErrDuplicatePeriod) {
			return s.reloadByPeriod(ctx, tutorID, periodStart, periodEnd)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create approval")
	}
	return approval, nil
}

func (s *EarningsService) reloadByPeriod(ctx context.Context, tutorID string, periodStart, periodEnd time.Time) (*models.EarningsApproval, error) {
	approval, err := s.approvals.FindByPeriod(ctx, tutorID, periodStart, periodEnd)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load approval")
	}
	return approval, nil
}

func (s *EarningsService) decide(ctx context.Context, adminID string, approval *models.EarningsApproval, approve bool) (*models.EarningsApproval, error) {
	if approval.Status != models.ApprovalPending {
		return nil, appErrors.Clone(appErrors.ErrAlreadyProcessed,
			fmt.Sprintf("approval has already been %s", approval.Status))
	}

	now := s.nowFn()
	if approve {
		approval.Status = models.ApprovalApproved
	} else {
		approval.Status = models.ApprovalRejected
	}
	approval.ApprovedBy = &adminID
	approval.ApprovedAt = &now

	if err := s.approvals.Update(ctx, approval); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update approval")
	}

	s.invalidateReportCache(ctx)

	if tutor, err := s.accounts.FindTutorByID(ctx, approval.TutorID); err == nil {
		s.notifier.EarningsDecided(tutor, approval)
	} else {
		s.logger.Warn("skipping earnings notification", zap.String("tutor_id", approval.TutorID), zap.Error(err))
	}

	s.logger.Info("earnings approval decided",
		zap.String("approval_id", approval.ID),
		zap.String("status", string(approval.Status)),
		zap.String("decided_by", adminID))
	return approval, nil
}

// GetTutorEarnings summarises a tutor's approvals: pending and approved
// totals plus full history. Rejected records appear in history only.
func (s *EarningsService) GetTutorEarnings(ctx context.Context, tutorID string) (*models.TutorEarnings, error) {
	approvals, err := s.approvals.ListByTutor(ctx, tutorID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list approvals")
	}

	result := &models.TutorEarnings{
		PendingTotal:  decimal.Zero,
		ApprovedTotal: decimal.Zero,
		History:       make([]models.EarningsHistoryEntry, 0, len(approvals)),
	}
	for i := range approvals {
		a := &approvals[i]
		switch a.Status {
		case models.ApprovalPending:
			result.PendingTotal = result.PendingTotal.Add(a.TotalAmount)
		case models.ApprovalApproved:
			result.ApprovedTotal = result.ApprovedTotal.Add(a.TotalAmount)
		}
		result.History = append(result.History, models.EarningsHistoryEntry{
			ID:          a.ID,
			PeriodStart: a.PeriodStart,
			PeriodEnd:   a.PeriodEnd,
			TotalHours:  a.TotalHours,
			TotalAmount: a.TotalAmount,
			Status:      a.Status,
			ApprovedAt:  a.ApprovedAt,
			LessonCount: len(a.LessonIDs),
		})
	}
	return result, nil
}

// GetEarningsReport builds the cross-tutor report over the last configured
// number of periods, with per-period hour splits, bonus and invoice amounts.
// The payload is cached in Redis and rebuilt on miss.
func (s *EarningsService) GetEarningsReport(ctx context.Context) ([]models.TutorEarningsReport, error) {
	currentStart, _ := s.PeriodFor(s.nowFn())
	cacheKey := fmt.Sprintf("%s%s:%d", reportCachePrefix, currentStart.Format("2006-01-02"), s.reportPeriods)

	var cached []models.TutorEarningsReport
	if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
		s.metrics.RecordCacheLookup(true)
		return cached, nil
	} else if !errors.Is(err, appErrors.ErrCacheMiss) {
		s.logger.Warn("earnings report cache read failed", zap.Error(err))
	}
	s.metrics.RecordCacheLookup(false)

	cfg, err := s.config.GetOrCreate(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load earnings config")
	}
	tutors, err := s.accounts.ListTutors(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list tutors")
	}

	reports := make([]models.TutorEarningsReport, 0, len(tutors))
	for i := range tutors {
		tutor := &tutors[i]
		report := models.TutorEarningsReport{
			TutorID:    tutor.ID,
			TutorName:  tutor.FullName,
			HourlyRate: tutor.HourlyRate,
			Periods:    make([]models.PeriodBreakdown, 0, s.reportPeriods),
		}

		for p := s.reportPeriods - 1; p >= 0; p-- {
			periodStart := currentStart.AddDate(0, 0, -p*periodDays)
			periodEnd := periodStart.AddDate(0, 0, periodDays)
			breakdown, err := s.buildPeriodBreakdown(ctx, tutor, cfg, periodStart, periodEnd)
			if err != nil {
				return nil, err
			}
			report.Periods = append(report.Periods, *breakdown)
		}
		reports = append(reports, report)
	}

	if err := s.cache.Set(ctx, cacheKey, reports, s.reportCacheTTL); err != nil {
		s.logger.Warn("earnings report cache write failed", zap.Error(err))
	}
	return reports, nil
}

func (s *EarningsService) buildPeriodBreakdown(ctx context.Context, tutor *models.Tutor, cfg *models.EarningsConfig, periodStart, periodEnd time.Time) (*models.PeriodBreakdown, error) {
	lessons, err := s.lessons.ListPayableInPeriod(ctx, tutor.ID, periodStart, periodEnd)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list payable lessons")
	}

	var onlineMinutes, inPersonMinutes, onlineCount, inPersonCount int
	for i := range lessons {
		if lessons[i].Type == models.LessonInPerson {
			inPersonMinutes += lessons[i].DurationMinutes
			inPersonCount++
		} else {
			onlineMinutes += lessons[i].DurationMinutes
			onlineCount++
		}
	}

	onlineHours := decimal.NewFromInt(int64(onlineMinutes)).Div(decimal.NewFromInt(60))
	inPersonHours := decimal.NewFromInt(int64(inPersonMinutes)).Div(decimal.NewFromInt(60))
	base := tutor.HourlyRate.Mul(onlineHours.Add(inPersonHours))
	bonus := cfg.InPersonBonus.Mul(decimal.NewFromInt(int64(inPersonCount)))
	total := base.Add(bonus)
	invoice := total.Mul(decimal.NewFromInt(100).Add(cfg.InvoiceMarkup)).Div(decimal.NewFromInt(100))

	status := models.ApprovalPending
	if approval, err := s.approvals.FindByPeriod(ctx, tutor.ID, periodStart, periodEnd); err == nil {
		status = approval.Status
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load approval")
	}

	return &models.PeriodBreakdown{
		PeriodStart:     periodStart,
		PeriodEnd:       periodEnd,
		OnlineHours:     onlineHours.InexactFloat64(),
		InPersonHours:   inPersonHours.InexactFloat64(),
		OnlineLessons:   onlineCount,
		InPersonLessons: inPersonCount,
		BaseSalary:      base.Round(2),
		InPersonBonus:   bonus.Round(2),
		TotalSalary:     total.Round(2),
		InvoiceAmount:   invoice.Round(2),
		Status:          status,
	}, nil
}

// GetConfig returns the payout configuration, seeding defaults on first read.
func (s *EarningsService) GetConfig(ctx context.Context) (*models.EarningsConfig, error) {
	cfg, err := s.config.GetOrCreate(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load earnings config")
	}
	return cfg, nil
}

// UpdateConfig changes bonus and markup. Existing approvals keep the amounts
// they were computed with; only future computations see the new values.
func (s *EarningsService) UpdateConfig(ctx context.Context, req models.UpdateEarningsConfigRequest) (*models.EarningsConfig, error) {
	if req.InPersonBonus == nil && req.InvoiceMarkup == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "nothing to update")
	}
	if req.InPersonBonus != nil && req.InPersonBonus.IsNegative() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "in-person bonus cannot be negative")
	}
	if req.InvoiceMarkup != nil {
		if req.InvoiceMarkup.IsNegative() || req.InvoiceMarkup.GreaterThan(decimal.NewFromInt(100)) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invoice markup must be between 0 and 100")
		}
	}

	cfg, err := s.config.GetOrCreate(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load earnings config")
	}
	if req.InPersonBonus != nil {
		cfg.InPersonBonus = *req.InPersonBonus
	}
	if req.InvoiceMarkup != nil {
		cfg.InvoiceMarkup = *req.InvoiceMarkup
	}

	if err := s.config.Update(ctx, cfg); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update earnings config")
	}

	s.invalidateReportCache(ctx)
	s.logger.Info("earnings config updated",
		zap.String("in_person_bonus", cfg.InPersonBonus.String()),
		zap.String("invoice_markup", cfg.InvoiceMarkup.String()))
	return cfg, nil
}

// ExportStatement renders one approval as a downloadable statement.
// Format is "csv" or "pdf".
func (s *EarningsService) ExportStatement(ctx context.Context, approvalID, format string) ([]byte, string, error) {
	approval, err := s.approvals.FindByID(ctx, approvalID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", appErrors.Clone(appErrors.ErrNotFound, "approval not found")
		}
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load approval")
	}
	tutor, err := s.accounts.FindTutorByID(ctx, approval.TutorID)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load tutor")
	}
	lessons, err := s.lessons.ListByIDs(ctx, approval.LessonIDs)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load statement lessons")
	}

	statement := export.Statement{
		TutorName:   tutor.FullName,
		PeriodStart: approval.PeriodStart.Format("2006-01-02"),
		PeriodEnd:   approval.PeriodEnd.AddDate(0, 0, -1).Format("2006-01-02"),
		Status:      string(approval.Status),
		Total:       approval.TotalAmount,
		Lines:       make([]export.StatementLine, 0, len(lessons)),
	}
	for i := range lessons {
		lesson := &lessons[i]
		hours := decimal.NewFromInt(int64(lesson.DurationMinutes)).Div(decimal.NewFromInt(60))
		statement.Lines = append(statement.Lines, export.StatementLine{
			Date:     lesson.LessonDate.Format("2006-01-02"),
			Time:     lesson.LessonTime,
			Topic:    lesson.Topic,
			Level:    lesson.Level,
			Duration: fmt.Sprintf("%d min", lesson.DurationMinutes),
			Amount:   tutor.HourlyRate.Mul(hours).Round(2),
		})
	}

	switch format {
	case "csv":
		data, err := export.RenderCSV(statement)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render statement")
		}
		return data, "text/csv", nil
	case "pdf":
		data, err := export.RenderPDF(statement)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render statement")
		}
		return data, "application/pdf", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported format %q", format))
	}
}

func (s *EarningsService) invalidateReportCache(ctx context.Context) {
	if err := s.cache.DeleteByPattern(ctx, reportCachePrefix+"*"); err != nil {
		s.logger.Warn("failed to invalidate earnings report cache", zap.Error(err))
	}
}

// floorDiv divides rounding towards negative infinity, so pre-epoch dates
// still map to well-formed periods.
func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}
