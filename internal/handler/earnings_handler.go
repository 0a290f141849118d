package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ShaheerAzam/backend/internal/models"
	"github.com/ShaheerAzam/backend/internal/service"
	appErrors "github.com/ShaheerAzam/backend/pkg/errors"
	"github.com/ShaheerAzam/backend/pkg/response"
)

// EarningsHandler wires HTTP endpoints to the earnings service.
type EarningsHandler struct {
	service *service.EarningsService
}

// NewEarningsHandler creates a new handler.
func NewEarningsHandler(svc *service.EarningsService) *EarningsHandler {
	return &EarningsHandler{service: svc}
}

// ListPending godoc
// @Summary List pending approvals
// @Description All tutor earnings awaiting an admin decision
// @Tags Earnings
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /earnings/pending [get]
func (h *EarningsHandler) ListPending(c *gin.Context) {
	views, err := h.service.ListPendingApprovals(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "", views)
}

// Decide godoc
// @Summary Decide an approval
// @Description Approve or reject one pending approval; decisions are one-shot
// @Tags Earnings
// @Accept json
// @Produce json
// @Param id path string true "Approval ID"
// @Param payload body models.ApprovalDecisionRequest true "Decision"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /earnings/{id}/decide [post]
func (h *EarningsHandler) Decide(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.ApprovalDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid decision payload"))
		return
	}

	approval, err := h.service.DecideApproval(c.Request.Context(), claims.UserID, c.Param("id"), req.Approve)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, fmt.Sprintf("approval %s", approval.Status), approval)
}

// DecidePeriod godoc
// @Summary Decide a period by dates
// @Description Approve or reject a tutor's earnings for a period addressed by its boundary dates
// @Tags Earnings
// @Accept json
// @Produce json
// @Param payload body models.PeriodApprovalRequest true "Period decision"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /earnings/periods/decide [post]
func (h *EarningsHandler) DecidePeriod(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.PeriodApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid period decision payload"))
		return
	}

	approval, err := h.service.DecidePeriodApproval(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, fmt.Sprintf("approval %s", approval.Status), approval)
}

// TutorEarnings godoc
// @Summary Get tutor earnings
// @Description Pending and approved totals plus full history for one tutor
// @Tags Earnings
// @Produce json
// @Param id path string true "Tutor ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /earnings/tutors/{id} [get]
func (h *EarningsHandler) TutorEarnings(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	tutorID := c.Param("id")
	if claims.Role == models.RoleTutor && claims.UserID != tutorID {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "earnings belong to another tutor"))
		return
	}

	earnings, err := h.service.GetTutorEarnings(c.Request.Context(), tutorID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "", earnings)
}

// Report godoc
// @Summary Cross-tutor earnings report
// @Description Per-tutor period breakdowns with hour splits, bonus and invoice amounts
// @Tags Earnings
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /earnings/report [get]
func (h *EarningsHandler) Report(c *gin.Context) {
	report, err := h.service.GetEarningsReport(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "", report)
}

// Generate godoc
// @Summary Generate approvals for a period
// @Description Manually trigger approval generation; omit dates for the most recently ended period
// @Tags Earnings
// @Produce json
// @Param period_start query string false "Period start (YYYY-MM-DD)"
// @Param period_end query string false "Period end, exclusive (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /earnings/generate [post]
func (h *EarningsHandler) Generate(c *gin.Context) {
	startStr := c.Query("period_start")
	endStr := c.Query("period_end")

	var created int
	var err error
	if startStr == "" && endStr == "" {
		created, err = h.service.GenerateDueApprovals(c.Request.Context())
	} else {
		var periodStart, periodEnd time.Time
		periodStart, err = time.ParseInLocation("2006-01-02", startStr, time.UTC)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid period_start"))
			return
		}
		periodEnd, err = time.ParseInLocation("2006-01-02", endStr, time.UTC)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid period_end"))
			return
		}
		created, err = h.service.GenerateForPeriod(c.Request.Context(), periodStart, periodEnd)
	}
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "generation finished", gin.H{"created": created})
}

// GetConfig godoc
// @Summary Get payout configuration
// @Tags Earnings
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /earnings/config [get]
func (h *EarningsHandler) GetConfig(c *gin.Context) {
	cfg, err := h.service.GetConfig(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "", cfg)
}

// UpdateConfig godoc
// @Summary Update payout configuration
// @Description Change the in-person bonus and invoice markup used by future computations
// @Tags Earnings
// @Accept json
// @Produce json
// @Param payload body models.UpdateEarningsConfigRequest true "New values"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /earnings/config [put]
func (h *EarningsHandler) UpdateConfig(c *gin.Context) {
	var req models.UpdateEarningsConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid config payload"))
		return
	}

	cfg, err := h.service.UpdateConfig(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "config updated", cfg)
}

// ExportStatement godoc
// @Summary Export an earnings statement
// @Description Download one approval as a CSV or PDF statement
// @Tags Earnings
// @Produce octet-stream
// @Param id path string true "Approval ID"
// @Param format query string false "csv or pdf" default(pdf)
// @Success 200 {file} binary
// @Failure 404 {object} response.Envelope
// @Router /earnings/{id}/statement [get]
func (h *EarningsHandler) ExportStatement(c *gin.Context) {
	format := c.DefaultQuery("format", "pdf")

	data, contentType, err := h.service.ExportStatement(c.Request.Context(), c.Param("id"), format)
	if err != nil {
		response.Error(c, err)
		return
	}

	filename := fmt.Sprintf("statement-%s.%s", c.Param("id"), format)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, filename))
	c.Data(http.StatusOK, contentType, data)
}
