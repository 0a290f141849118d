package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ShaheerAzam/backend/internal/models"
	"github.com/ShaheerAzam/backend/internal/service"
	appErrors "github.com/ShaheerAzam/backend/pkg/errors"
	"github.com/ShaheerAzam/backend/pkg/response"
)

// LessonHandler wires HTTP endpoints to the lesson service.
type LessonHandler struct {
	service *service.LessonService
}

// NewLessonHandler creates a new handler.
func NewLessonHandler(svc *service.LessonService) *LessonHandler {
	return &LessonHandler{service: svc}
}

// Schedule godoc
// @Summary Schedule a lesson
// @Description Book a lesson, or a weekly bundle when weeks > 1. Admins book for anyone, students only for themselves. All occurrences are created atomically.
// @Tags Lessons
// @Accept json
// @Produce json
// @Param payload body models.ScheduleLessonRequest true "Lesson payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /lessons [post]
func (h *LessonHandler) Schedule(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.ScheduleLessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid lesson payload"))
		return
	}

	views, err := h.service.ScheduleLesson(c.Request.Context(), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "lesson scheduled", views)
}

// List godoc
// @Summary List lessons
// @Description Admins see all lessons; tutors and students only their own
// @Tags Lessons
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /lessons [get]
func (h *LessonHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	views, err := h.service.ListLessons(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "", views)
}

// Get godoc
// @Summary Get a lesson
// @Tags Lessons
// @Produce json
// @Param id path string true "Lesson ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /lessons/{id} [get]
func (h *LessonHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	view, err := h.service.GetLesson(c.Request.Context(), claims, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "", view)
}

// Reschedule godoc
// @Summary Reschedule a lesson
// @Description Move a lesson to a new slot; omitted fields keep their current values and status is re-derived from the new window
// @Tags Lessons
// @Accept json
// @Produce json
// @Param id path string true "Lesson ID"
// @Param payload body models.RescheduleLessonRequest true "New slot"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /lessons/{id}/reschedule [put]
func (h *LessonHandler) Reschedule(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.RescheduleLessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid reschedule payload"))
		return
	}

	view, err := h.service.RescheduleLesson(c.Request.Context(), claims, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "lesson rescheduled", view)
}

// Update godoc
// @Summary Update a lesson
// @Description Change lesson fields; moving the slot re-checks availability
// @Tags Lessons
// @Accept json
// @Produce json
// @Param id path string true "Lesson ID"
// @Param payload body models.UpdateLessonRequest true "Fields to change"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /lessons/{id} [patch]
func (h *LessonHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.UpdateLessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid update payload"))
		return
	}

	view, err := h.service.UpdateLesson(c.Request.Context(), claims, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "lesson updated", view)
}

// BulkUpdate godoc
// @Summary Bulk update lessons
// @Description Apply one field set to many lessons, typically a bundle
// @Tags Lessons
// @Accept json
// @Produce json
// @Param payload body models.BulkUpdateLessonsRequest true "IDs and fields"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /lessons/bulk [patch]
func (h *LessonHandler) BulkUpdate(c *gin.Context) {
	var req models.BulkUpdateLessonsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid bulk update payload"))
		return
	}

	views, err := h.service.BulkUpdateLessons(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "lessons updated", views)
}

// Cancel godoc
// @Summary Cancel a lesson
// @Description Cancel a lesson; a student cancelling under 24 hours before start still owes the tutor
// @Tags Lessons
// @Produce json
// @Param id path string true "Lesson ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /lessons/{id}/cancel [post]
func (h *LessonHandler) Cancel(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	view, err := h.service.CancelLesson(c.Request.Context(), claims, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "lesson cancelled", view)
}

// UndoCancel godoc
// @Summary Undo a cancellation
// @Description Reinstate a cancelled lesson while at least 24 hours remain and the slot is still free
// @Tags Lessons
// @Produce json
// @Param id path string true "Lesson ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /lessons/{id}/undo-cancel [post]
func (h *LessonHandler) UndoCancel(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	view, err := h.service.UndoLessonCancellation(c.Request.Context(), claims, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "lesson reinstated", view)
}

// Complete godoc
// @Summary Complete a lesson
// @Description Mark a lesson as taught ahead of the automatic sweep
// @Tags Lessons
// @Produce json
// @Param id path string true "Lesson ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /lessons/{id}/complete [post]
func (h *LessonHandler) Complete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	view, err := h.service.CompleteLesson(c.Request.Context(), claims, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "lesson completed", view)
}

// CheckAvailability godoc
// @Summary Check tutor availability
// @Description Reports whether the tutor is free for the requested slot
// @Tags Lessons
// @Accept json
// @Produce json
// @Param payload body models.AvailabilityRequest true "Slot to check"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /lessons/availability [post]
func (h *LessonHandler) CheckAvailability(c *gin.Context) {
	var req models.AvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid availability payload"))
		return
	}

	available, err := h.service.CheckAvailability(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "", gin.H{"available": available})
}

// Sweep godoc
// @Summary Run the lesson status sweep
// @Description Manually trigger the Incoming/Active/Completed promotion normally run by the scheduler
// @Tags Lessons
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /lessons/sweep [post]
func (h *LessonHandler) Sweep(c *gin.Context) {
	activated, completed, err := h.service.SweepStatuses(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "sweep finished", gin.H{"activated": activated, "completed": completed})
}
