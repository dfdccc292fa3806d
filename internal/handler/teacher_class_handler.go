package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/jhs-sis-api/internal/models"
	"github.com/noah-isme/jhs-sis-api/internal/service"
	appErrors "github.com/noah-isme/jhs-sis-api/pkg/errors"
	"github.com/noah-isme/jhs-sis-api/pkg/response"
)

// TeacherClassHandler exposes teacher class endpoints.
type TeacherClassHandler struct {
	classes *service.TeacherClassService
}

// NewTeacherClassHandler constructs TeacherClassHandler.
func NewTeacherClassHandler(classes *service.TeacherClassService) *TeacherClassHandler {
	return &TeacherClassHandler{classes: classes}
}

// List godoc
// @Summary List teacher classes
// @Tags TeacherClasses
// @Produce json
// @Param subjectId query string false "Filter by subject"
// @Param sectionId query string false "Filter by section"
// @Param schoolYear query string false "Filter by school year"
// @Param search query string false "Search by teacher name"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /teacher-classes [get]
func (h *TeacherClassHandler) List(c *gin.Context) {
	var filter models.TeacherClassFilter
	filter.SubjectID = c.Query("subjectId")
	filter.SectionID = c.Query("sectionId")
	filter.SchoolYear = c.Query("schoolYear")
	filter.Search = strings.TrimSpace(c.Query("search"))
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	classes, pagination, err := h.classes.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, classes, pagination)
}

// Get godoc
// @Summary Get teacher class
// @Tags TeacherClasses
// @Produce json
// @Param id path string true "Teacher class ID"
// @Success 200 {object} response.Envelope
// @Router /teacher-classes/{id} [get]
func (h *TeacherClassHandler) Get(c *gin.Context) {
	class, err := h.classes.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, class, nil)
}

// Roster godoc
// @Summary List enrolled students
// @Description Students enrolled in the class through its enrollments
// @Tags TeacherClasses
// @Produce json
// @Param id path string true "Teacher class ID"
// @Success 200 {object} response.Envelope
// @Router /teacher-classes/{id}/students [get]
func (h *TeacherClassHandler) Roster(c *gin.Context) {
	students, err := h.classes.Roster(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, nil)
}

// Create godoc
// @Summary Create teacher class
// @Tags TeacherClasses
// @Accept json
// @Produce json
// @Param payload body service.TeacherClassRequest true "Teacher class payload"
// @Success 201 {object} response.Envelope
// @Router /teacher-classes [post]
func (h *TeacherClassHandler) Create(c *gin.Context) {
	var req service.TeacherClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	class, err := h.classes.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, class)
}

// Update godoc
// @Summary Update teacher class
// @Tags TeacherClasses
// @Accept json
// @Produce json
// @Param id path string true "Teacher class ID"
// @Param payload body service.TeacherClassRequest true "Teacher class payload"
// @Success 200 {object} response.Envelope
// @Router /teacher-classes/{id} [put]
func (h *TeacherClassHandler) Update(c *gin.Context) {
	var req service.TeacherClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	class, err := h.classes.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, class, nil)
}

// Delete godoc
// @Summary Delete teacher class
// @Tags TeacherClasses
// @Produce json
// @Param id path string true "Teacher class ID"
// @Success 204
// @Router /teacher-classes/{id} [delete]
func (h *TeacherClassHandler) Delete(c *gin.Context) {
	if err := h.classes.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
