package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/jhs-sis-api/internal/service"
	appErrors "github.com/noah-isme/jhs-sis-api/pkg/errors"
	"github.com/noah-isme/jhs-sis-api/pkg/response"
)

// GradeSettingsHandler exposes the singleton grade entry gate.
type GradeSettingsHandler struct {
	settings *service.GradeSettingsService
}

// NewGradeSettingsHandler constructs GradeSettingsHandler.
func NewGradeSettingsHandler(settings *service.GradeSettingsService) *GradeSettingsHandler {
	return &GradeSettingsHandler{settings: settings}
}

// Get godoc
// @Summary Get grade settings
// @Tags GradeSettings
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /grade-settings [get]
func (h *GradeSettingsHandler) Get(c *gin.Context) {
	settings, err := h.settings.Get(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, settings, nil)
}

// Create godoc
// @Summary Create grade settings
// @Description Creates the singleton settings row; fails if one already exists
// @Tags GradeSettings
// @Accept json
// @Produce json
// @Param payload body service.CreateGradeSettingsRequest true "Quarter flags"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /grade-settings [post]
func (h *GradeSettingsHandler) Create(c *gin.Context) {
	var req service.CreateGradeSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	settings, err := h.settings.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, settings)
}

// Update godoc
// @Summary Update grade settings
// @Description Partially updates the quarter flags
// @Tags GradeSettings
// @Accept json
// @Produce json
// @Param payload body service.UpdateGradeSettingsRequest true "Quarter flags"
// @Success 200 {object} response.Envelope
// @Router /grade-settings [patch]
func (h *GradeSettingsHandler) Update(c *gin.Context) {
	var req service.UpdateGradeSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	settings, err := h.settings.Update(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, settings, nil)
}
