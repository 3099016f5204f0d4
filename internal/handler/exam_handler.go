package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/quiznexusai/quiznexus-backend/internal/middleware"
	"github.com/quiznexusai/quiznexus-backend/internal/model"
	"github.com/quiznexusai/quiznexus-backend/internal/response"
	"github.com/quiznexusai/quiznexus-backend/internal/service"
	"github.com/quiznexusai/quiznexus-backend/internal/validator"
)

// ExamHandler exposes the exam session state machine over HTTP.
type ExamHandler struct {
	sessions *service.ExamSessionService
}

// NewExamHandler creates a new ExamHandler.
func NewExamHandler(sessions *service.ExamSessionService) *ExamHandler {
	return &ExamHandler{sessions: sessions}
}

// Start godoc
// POST /api/v1/exam/start
// Opens a session for the caller, charges an attempt and returns the first
// section's questions.
func (h *ExamHandler) Start(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	start, err := h.sessions.Start(c.Request.Context(), claims.UserID)
	if err != nil {
		failSessionError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, start)
}

// Active godoc
// GET /api/v1/exam/active
// Returns the caller's running attempt id, if any.
func (h *ExamHandler) Active(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	id, ok := h.sessions.ActiveAttempt(claims.UserID)
	if !ok {
		response.Fail(c, http.StatusNotFound, response.ErrNoActiveSession)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"attempt_id": id})
}

// CurrentQuestion godoc
// GET /api/v1/exam/attempts/:attempt_id/question
// Returns the question awaiting an answer. A session past its deadline is
// sealed here and reported as TIME_UP together with the final result.
func (h *ExamHandler) CurrentQuestion(c *gin.Context) {
	attemptID, ok := h.authorizeAttempt(c, false)
	if !ok {
		return
	}

	q, section, err := h.sessions.CurrentQuestion(c.Request.Context(), attemptID)
	if err != nil {
		h.failWithResult(c, attemptID, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"section": section, "question": q})
}

// SubmitAnswer godoc
// POST /api/v1/exam/attempts/:attempt_id/answers
// Evaluates one answer. Invalid input returns 422 and leaves the session
// unchanged; the same question stays current.
func (h *ExamHandler) SubmitAnswer(c *gin.Context) {
	attemptID, ok := h.authorizeAttempt(c, false)
	if !ok {
		return
	}

	var req model.SubmitAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusUnprocessableEntity, response.ErrValidation, fields)
		return
	}

	questionID, err := uuid.Parse(req.QuestionID)
	if err != nil {
		response.Fail(c, http.StatusUnprocessableEntity, response.ErrInvalidID)
		return
	}

	out, err := h.sessions.Submit(c.Request.Context(), attemptID, questionID, req.Response)
	if err != nil {
		if errors.Is(err, service.ErrTimeUp) || errors.Is(err, service.ErrSessionEnded) {
			code := response.ErrTimeUp
			if errors.Is(err, service.ErrSessionEnded) {
				code = response.ErrSessionEnded
			}
			var result *model.AttemptResult
			if out != nil {
				result = out.Result
			}
			response.FailWithData(c, http.StatusConflict, code, result)
			return
		}
		failSessionError(c, err)
		return
	}

	response.Success(c, http.StatusOK, out)
}

// Finish godoc
// POST /api/v1/exam/attempts/:attempt_id/finish
// Seals the session early with the answers captured so far.
func (h *ExamHandler) Finish(c *gin.Context) {
	attemptID, ok := h.authorizeAttempt(c, false)
	if !ok {
		return
	}

	result, err := h.sessions.Finish(c.Request.Context(), attemptID)
	if err != nil {
		failSessionError(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// State godoc
// GET /api/v1/exam/attempts/:attempt_id/state
// Returns progress and remaining time for polling clients.
func (h *ExamHandler) State(c *gin.Context) {
	attemptID, ok := h.authorizeAttempt(c, false)
	if !ok {
		return
	}

	state, err := h.sessions.State(attemptID)
	if err != nil {
		failSessionError(c, err)
		return
	}

	response.Success(c, http.StatusOK, state)
}

// Result godoc
// GET /api/v1/exam/attempts/:attempt_id/result
// Returns the sealed result of an ended attempt. Students may only read
// their own; staff may read any.
func (h *ExamHandler) Result(c *gin.Context) {
	attemptID, ok := h.authorizeAttempt(c, true)
	if !ok {
		return
	}

	result, err := h.sessions.Result(attemptID)
	if err != nil {
		failSessionError(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

func (h *ExamHandler) attemptID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("attempt_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return uuid.Nil, false
	}
	return id, true
}

// authorizeAttempt resolves the attempt id and confirms the attempt belongs
// to the caller. With allowStaff set, teachers and admins bypass the
// ownership check.
func (h *ExamHandler) authorizeAttempt(c *gin.Context, allowStaff bool) (uuid.UUID, bool) {
	attemptID, ok := h.attemptID(c)
	if !ok {
		return uuid.Nil, false
	}

	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return uuid.Nil, false
	}
	if allowStaff && claims.Role != model.RoleStudent {
		return attemptID, true
	}

	if err := h.sessions.VerifyOwner(attemptID, claims.UserID); err != nil {
		failSessionError(c, err)
		return uuid.Nil, false
	}
	return attemptID, true
}

// failWithResult reports session errors, attaching the sealed result when
// the failure is the time cutoff.
func (h *ExamHandler) failWithResult(c *gin.Context, attemptID uuid.UUID, err error) {
	if errors.Is(err, service.ErrTimeUp) {
		result, _ := h.sessions.Result(attemptID)
		response.FailWithData(c, http.StatusConflict, response.ErrTimeUp, result)
		return
	}
	failSessionError(c, err)
}

// failSessionError maps engine errors onto the response envelope.
func failSessionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNoAttemptsLeft):
		response.Fail(c, http.StatusForbidden, response.ErrNoAttemptsLeft)
	case errors.Is(err, service.ErrSessionActive):
		response.Fail(c, http.StatusConflict, response.ErrSessionActive)
	case errors.Is(err, service.ErrNoActiveSession):
		response.Fail(c, http.StatusNotFound, response.ErrNoActiveSession)
	case errors.Is(err, service.ErrNotSessionOwner):
		response.Fail(c, http.StatusForbidden, response.ErrForbidden)
	case errors.Is(err, service.ErrSessionEnded):
		response.Fail(c, http.StatusConflict, response.ErrSessionEnded)
	case errors.Is(err, service.ErrTimeUp):
		response.Fail(c, http.StatusConflict, response.ErrTimeUp)
	case service.IsValidation(err):
		response.FailWithFields(c, http.StatusUnprocessableEntity, response.ErrValidation,
			map[string]string{"response": err.Error()})
	case service.IsDataIntegrity(err):
		response.Fail(c, http.StatusInternalServerError, response.ErrDataIntegrity)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
