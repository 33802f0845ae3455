package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/siga-dev/siga-api/internal/service"
	appErrors "github.com/siga-dev/siga-api/pkg/errors"
	"github.com/siga-dev/siga-api/pkg/response"
)

// EnrollmentHandler exposes the enrollment engine endpoints.
type EnrollmentHandler struct {
	enrollments *service.EnrollmentService
	metrics     *service.MetricsService
}

// NewEnrollmentHandler constructs EnrollmentHandler.
func NewEnrollmentHandler(enrollments *service.EnrollmentService, metrics *service.MetricsService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollments: enrollments, metrics: metrics}
}

// Eligibility godoc
// @Summary Classify course eligibility for a student
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param payload body service.EligibilityRequest true "Eligibility query"
// @Success 200 {object} response.Envelope
// @Router /enrollments/eligibility [post]
func (h *EnrollmentHandler) Eligibility(c *gin.Context) {
	var req service.EligibilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	view, err := h.enrollments.Eligibility(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// Create godoc
// @Summary Enroll a student into a section
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param payload body service.EnrollRequest true "Enrollment payload"
// @Success 201 {object} response.Envelope
// @Router /enrollments [post]
func (h *EnrollmentHandler) Create(c *gin.Context) {
	var req service.EnrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	enrollment, err := h.enrollments.Enroll(c.Request.Context(), req)
	if err != nil {
		h.metrics.CountEnrollCommand("enroll", appErrors.FromError(err).Code)
		response.Error(c, err)
		return
	}
	h.metrics.CountEnrollCommand("enroll", "ok")
	response.Created(c, enrollment)
}

// Delete godoc
// @Summary Withdraw an enrollment
// @Tags Enrollments
// @Produce json
// @Param id path string true "Enrollment ID"
// @Success 204
// @Router /enrollments/{id} [delete]
func (h *EnrollmentHandler) Delete(c *gin.Context) {
	if err := h.enrollments.Withdraw(c.Request.Context(), c.Param("id")); err != nil {
		h.metrics.CountEnrollCommand("withdraw", appErrors.FromError(err).Code)
		response.Error(c, err)
		return
	}
	h.metrics.CountEnrollCommand("withdraw", "ok")
	response.NoContent(c)
}

// ByStudent godoc
// @Summary Current courses of a student with grade entries
// @Tags Enrollments
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/enrollments [get]
func (h *EnrollmentHandler) ByStudent(c *gin.Context) {
	courses, err := h.enrollments.ListEnrolled(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, nil)
}
