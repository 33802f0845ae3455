package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/siga-dev/siga-api/internal/service"
	appErrors "github.com/siga-dev/siga-api/pkg/errors"
	"github.com/siga-dev/siga-api/pkg/response"
)

// TranscriptHandler exposes the completed-course ledger.
type TranscriptHandler struct {
	transcripts *service.TranscriptService
}

// NewTranscriptHandler constructs TranscriptHandler.
func NewTranscriptHandler(transcripts *service.TranscriptService) *TranscriptHandler {
	return &TranscriptHandler{transcripts: transcripts}
}

// ByStudent godoc
// @Summary Academic record of a student
// @Tags Transcripts
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/transcript [get]
func (h *TranscriptHandler) ByStudent(c *gin.Context) {
	entries, err := h.transcripts.ByStudent(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// Correct godoc
// @Summary Append an administrative ledger correction
// @Tags Transcripts
// @Accept json
// @Produce json
// @Param payload body service.CorrectionRequest true "Correction payload"
// @Success 201 {object} response.Envelope
// @Router /transcripts/corrections [post]
func (h *TranscriptHandler) Correct(c *gin.Context) {
	var req service.CorrectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	record, err := h.transcripts.Correct(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}
