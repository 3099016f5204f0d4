package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/quiznexusai/quiznexus-backend/internal/middleware"
	"github.com/quiznexusai/quiznexus-backend/internal/model"
	"github.com/quiznexusai/quiznexus-backend/internal/repository"
	"github.com/quiznexusai/quiznexus-backend/internal/response"
)

// ResultHandler serves persisted attempt records.
type ResultHandler struct {
	attempts *repository.AttemptRepository
}

// NewResultHandler creates a new ResultHandler.
func NewResultHandler(attempts *repository.AttemptRepository) *ResultHandler {
	return &ResultHandler{attempts: attempts}
}

// ListMine godoc
// GET /api/v1/results
// Returns the caller's attempt history, newest first.
func (h *ResultHandler) ListMine(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	attempts, err := h.attempts.ListByUser(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, attempts)
}

// Get godoc
// GET /api/v1/results/:attempt_id
// Students can only read their own attempts; staff can read any.
func (h *ResultHandler) Get(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	id, err := uuid.Parse(c.Param("attempt_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	attempt, err := h.attempts.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if attempt == nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	if claims.Role == model.RoleStudent && attempt.UserID != claims.UserID {
		response.Fail(c, http.StatusForbidden, response.ErrForbidden)
		return
	}

	response.Success(c, http.StatusOK, attempt)
}
