package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/jhs-sis-api/internal/models"
	"github.com/noah-isme/jhs-sis-api/internal/service"
	appErrors "github.com/noah-isme/jhs-sis-api/pkg/errors"
	"github.com/noah-isme/jhs-sis-api/pkg/response"
)

// BehaviorHandler exposes behavior record endpoints.
type BehaviorHandler struct {
	behavior *service.BehaviorService
}

// NewBehaviorHandler constructs BehaviorHandler.
func NewBehaviorHandler(behavior *service.BehaviorService) *BehaviorHandler {
	return &BehaviorHandler{behavior: behavior}
}

// List godoc
// @Summary List behavior records
// @Tags Behavior
// @Produce json
// @Param studentId query string false "Filter by student"
// @Param category query string false "Filter by category"
// @Param resolved query bool false "Filter by resolved state"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /behavior-records [get]
func (h *BehaviorHandler) List(c *gin.Context) {
	var filter models.BehaviorFilter
	filter.StudentID = c.Query("studentId")
	filter.Category = c.Query("category")
	if resolved := c.Query("resolved"); resolved != "" {
		if resolved == "true" {
			v := true
			filter.Resolved = &v
		} else if resolved == "false" {
			v := false
			filter.Resolved = &v
		}
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	records, pagination, err := h.behavior.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, pagination)
}

// Get godoc
// @Summary Get behavior record
// @Tags Behavior
// @Produce json
// @Param id path string true "Behavior record ID"
// @Success 200 {object} response.Envelope
// @Router /behavior-records/{id} [get]
func (h *BehaviorHandler) Get(c *gin.Context) {
	record, err := h.behavior.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// Create godoc
// @Summary Log behavior record
// @Tags Behavior
// @Accept json
// @Produce json
// @Param payload body service.BehaviorRequest true "Behavior payload"
// @Success 201 {object} response.Envelope
// @Router /behavior-records [post]
func (h *BehaviorHandler) Create(c *gin.Context) {
	var req service.BehaviorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	record, err := h.behavior.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}

// Update godoc
// @Summary Update behavior record
// @Tags Behavior
// @Accept json
// @Produce json
// @Param id path string true "Behavior record ID"
// @Param payload body service.BehaviorRequest true "Behavior payload"
// @Success 200 {object} response.Envelope
// @Router /behavior-records/{id} [put]
func (h *BehaviorHandler) Update(c *gin.Context) {
	var req service.BehaviorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	record, err := h.behavior.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// Delete godoc
// @Summary Delete behavior record
// @Tags Behavior
// @Produce json
// @Param id path string true "Behavior record ID"
// @Success 204
// @Router /behavior-records/{id} [delete]
func (h *BehaviorHandler) Delete(c *gin.Context) {
	if err := h.behavior.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
