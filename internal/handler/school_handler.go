package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/quiznexusai/quiznexus-backend/internal/repository"
	"github.com/quiznexusai/quiznexus-backend/internal/response"
)

// SchoolHandler serves the school and class reference lists.
type SchoolHandler struct {
	schools *repository.SchoolRepository
}

// NewSchoolHandler creates a new SchoolHandler.
func NewSchoolHandler(schools *repository.SchoolRepository) *SchoolHandler {
	return &SchoolHandler{schools: schools}
}

// ListSchools godoc
// GET /api/v1/schools
func (h *SchoolHandler) ListSchools(c *gin.Context) {
	schools, err := h.schools.ListSchools(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, schools)
}

// ListClasses godoc
// GET /api/v1/schools/:school_id/classes
func (h *SchoolHandler) ListClasses(c *gin.Context) {
	schoolID, err := strconv.Atoi(c.Param("school_id"))
	if err != nil || schoolID < 1 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	classes, err := h.schools.ListClasses(c.Request.Context(), schoolID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, classes)
}
