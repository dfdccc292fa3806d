package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/jhs-sis-api/internal/models"
	"github.com/noah-isme/jhs-sis-api/internal/service"
	appErrors "github.com/noah-isme/jhs-sis-api/pkg/errors"
	"github.com/noah-isme/jhs-sis-api/pkg/response"
)

// ClinicHandler exposes clinic visit endpoints.
type ClinicHandler struct {
	clinic *service.ClinicService
}

// NewClinicHandler constructs ClinicHandler.
func NewClinicHandler(clinic *service.ClinicService) *ClinicHandler {
	return &ClinicHandler{clinic: clinic}
}

// List godoc
// @Summary List clinic visits
// @Tags Clinic
// @Produce json
// @Param studentId query string false "Filter by student"
// @Param from query string false "Visits on or after this date (YYYY-MM-DD)"
// @Param to query string false "Visits before this date (YYYY-MM-DD)"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /clinic-visits [get]
func (h *ClinicHandler) List(c *gin.Context) {
	var filter models.ClinicVisitFilter
	filter.StudentID = c.Query("studentId")
	if from := c.Query("from"); from != "" {
		parsed, err := time.Parse("2006-01-02", from)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "from must use YYYY-MM-DD"))
			return
		}
		filter.From = &parsed
	}
	if to := c.Query("to"); to != "" {
		parsed, err := time.Parse("2006-01-02", to)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "to must use YYYY-MM-DD"))
			return
		}
		filter.To = &parsed
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	visits, pagination, err := h.clinic.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, visits, pagination)
}

// Get godoc
// @Summary Get clinic visit
// @Tags Clinic
// @Produce json
// @Param id path string true "Clinic visit ID"
// @Success 200 {object} response.Envelope
// @Router /clinic-visits/{id} [get]
func (h *ClinicHandler) Get(c *gin.Context) {
	visit, err := h.clinic.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, visit, nil)
}

// Create godoc
// @Summary Log clinic visit
// @Tags Clinic
// @Accept json
// @Produce json
// @Param payload body service.ClinicVisitRequest true "Clinic visit payload"
// @Success 201 {object} response.Envelope
// @Router /clinic-visits [post]
func (h *ClinicHandler) Create(c *gin.Context) {
	var req service.ClinicVisitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	visit, err := h.clinic.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, visit)
}

// Update godoc
// @Summary Update clinic visit
// @Tags Clinic
// @Accept json
// @Produce json
// @Param id path string true "Clinic visit ID"
// @Param payload body service.ClinicVisitRequest true "Clinic visit payload"
// @Success 200 {object} response.Envelope
// @Router /clinic-visits/{id} [put]
func (h *ClinicHandler) Update(c *gin.Context) {
	var req service.ClinicVisitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	visit, err := h.clinic.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, visit, nil)
}

// Delete godoc
// @Summary Delete clinic visit
// @Tags Clinic
// @Produce json
// @Param id path string true "Clinic visit ID"
// @Success 204
// @Router /clinic-visits/{id} [delete]
func (h *ClinicHandler) Delete(c *gin.Context) {
	if err := h.clinic.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
