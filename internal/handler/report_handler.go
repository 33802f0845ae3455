package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/siga-dev/siga-api/internal/service"
	"github.com/siga-dev/siga-api/pkg/response"
)

// ReportHandler serves rendered PDF/CSV exports.
type ReportHandler struct {
	reports *service.ReportService
}

// NewReportHandler constructs ReportHandler.
func NewReportHandler(reports *service.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// Transcript godoc
// @Summary Download a student's academic record
// @Tags Reports
// @Produce application/pdf
// @Param id path string true "Student ID"
// @Param format query string false "pdf or csv" default(pdf)
// @Success 200 {file} binary
// @Router /reports/transcript/{id} [get]
func (h *ReportHandler) Transcript(c *gin.Context) {
	format := service.ReportFormat(strings.ToLower(c.DefaultQuery("format", "pdf")))
	report, err := h.reports.Transcript(c.Request.Context(), c.Param("id"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	serveReport(c, report)
}

// SectionRoster godoc
// @Summary Download a section roster
// @Tags Reports
// @Produce application/pdf
// @Param id path string true "Section ID"
// @Param format query string false "pdf or csv" default(pdf)
// @Success 200 {file} binary
// @Router /reports/roster/{id} [get]
func (h *ReportHandler) SectionRoster(c *gin.Context) {
	format := service.ReportFormat(strings.ToLower(c.DefaultQuery("format", "pdf")))
	report, err := h.reports.SectionRoster(c.Request.Context(), c.Param("id"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	serveReport(c, report)
}

func serveReport(c *gin.Context, report *service.Report) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.Filename))
	c.Data(http.StatusOK, report.ContentType, report.Data)
}
