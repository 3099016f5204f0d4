package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/quiznexusai/quiznexus-backend/internal/model"
	"github.com/quiznexusai/quiznexus-backend/internal/repository"
	"github.com/quiznexusai/quiznexus-backend/internal/response"
	"github.com/quiznexusai/quiznexus-backend/internal/validator"
)

// QuestionHandler covers question authoring for teachers and admins.
// Answer keys are accepted on write and returned on single-question reads,
// never on the student-facing exam endpoints.
type QuestionHandler struct {
	questions *repository.QuestionRepository
	keys      *repository.AnswerKeyRepository
}

// NewQuestionHandler creates a new QuestionHandler.
func NewQuestionHandler(questions *repository.QuestionRepository, keys *repository.AnswerKeyRepository) *QuestionHandler {
	return &QuestionHandler{questions: questions, keys: keys}
}

// List godoc
// GET /api/v1/questions?section=&page=&per_page=
func (h *QuestionHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	var section *int
	if raw := c.Query("section"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
			return
		}
		section = &n
	}

	questions, total, err := h.questions.List(c.Request.Context(), section, perPage, (page-1)*perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	totalPages := (total + perPage - 1) / perPage
	response.SuccessWithPagination(c, http.StatusOK, questions, &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: totalPages,
	})
}

// Get godoc
// GET /api/v1/questions/:question_id
// Returns the question together with its answer key.
func (h *QuestionHandler) Get(c *gin.Context) {
	id, ok := h.questionID(c)
	if !ok {
		return
	}

	q, err := h.questions.QuestionByID(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if q == nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	key, err := h.keys.AnswerFor(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	var answer []string
	if key != nil {
		answer = key.Texts
	}
	response.Success(c, http.StatusOK, gin.H{"question": q, "answer": answer})
}

// Create godoc
// POST /api/v1/questions
// Creates a question and its answer key in one call so the bank never holds
// a keyless question.
func (h *QuestionHandler) Create(c *gin.Context) {
	var req model.CreateQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusUnprocessableEntity, response.ErrValidation, fields)
		return
	}

	q := &model.Question{
		Section: req.Section,
		Text:    req.Text,
		Type:    model.QuestionType(req.Type),
		Points:  req.Points,
		Options: req.Options,
	}
	if fields := validateAuthoring(q, req.Answer); fields != nil {
		response.FailWithFields(c, http.StatusUnprocessableEntity, response.ErrValidation, fields)
		return
	}

	if err := h.questions.Create(c.Request.Context(), q); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if err := h.keys.Upsert(c.Request.Context(), &model.AnswerKey{QuestionID: q.ID, Texts: req.Answer}); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, q)
}

// Update godoc
// PUT /api/v1/questions/:question_id
// The question type is immutable; everything else, key included, can move.
func (h *QuestionHandler) Update(c *gin.Context) {
	id, ok := h.questionID(c)
	if !ok {
		return
	}

	var req model.UpdateQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusUnprocessableEntity, response.ErrValidation, fields)
		return
	}

	existing, err := h.questions.QuestionByID(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if existing == nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	q := &model.Question{
		ID:      id,
		Section: req.Section,
		Text:    req.Text,
		Type:    existing.Type,
		Points:  req.Points,
		Options: req.Options,
	}
	if fields := validateAuthoring(q, req.Answer); fields != nil {
		response.FailWithFields(c, http.StatusUnprocessableEntity, response.ErrValidation, fields)
		return
	}

	if err := h.questions.Update(c.Request.Context(), q); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if err := h.keys.Upsert(c.Request.Context(), &model.AnswerKey{QuestionID: id, Texts: req.Answer}); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, q)
}

// Delete godoc
// DELETE /api/v1/questions/:question_id
func (h *QuestionHandler) Delete(c *gin.Context) {
	id, ok := h.questionID(c)
	if !ok {
		return
	}

	if err := h.questions.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

func (h *QuestionHandler) questionID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("question_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return uuid.Nil, false
	}
	return id, true
}

// validateAuthoring enforces the rules binding tags cannot express: option
// presence per type, key shape, and key membership against the options. A
// key text that names no option would score every submission wrong.
func validateAuthoring(q *model.Question, answer []string) map[string]string {
	switch q.Type {
	case model.QuestionTypeTrueFalse:
		if len(q.Options) != 0 {
			return map[string]string{"options": "true/false questions carry no explicit options"}
		}
		if len(answer) != 1 {
			return map[string]string{"answer": "true/false questions take exactly one answer"}
		}
		if fields := answerWithinOptions(answer, model.TrueFalseOptions[:]); fields != nil {
			return map[string]string{"answer": "the answer must be True or False"}
		}
	case model.QuestionTypeSingleChoice:
		if len(q.Options) < 2 {
			return map[string]string{"options": "at least two options are required"}
		}
		if len(answer) != 1 {
			return map[string]string{"answer": "single choice questions take exactly one answer"}
		}
		if fields := answerWithinOptions(answer, q.Options); fields != nil {
			return fields
		}
	case model.QuestionTypeMultipleChoice:
		if len(q.Options) < 2 {
			return map[string]string{"options": "at least two options are required"}
		}
		if len(answer) < 1 || len(answer) > len(q.Options) {
			return map[string]string{"answer": "answer count must be between 1 and the option count"}
		}
		if fields := answerWithinOptions(answer, q.Options); fields != nil {
			return fields
		}
	case model.QuestionTypeOrdering:
		if len(q.Options) < 2 {
			return map[string]string{"options": "at least two options are required"}
		}
		if len(answer) != len(q.Options) {
			return map[string]string{"answer": "ordering answers must cover every option"}
		}
		if fields := answerWithinOptions(answer, q.Options); fields != nil {
			return fields
		}
	default:
		return map[string]string{"type": "unknown question type"}
	}
	return nil
}

// answerWithinOptions checks that every key text names a distinct option.
// Comparison ignores case and surrounding whitespace, matching how answers
// are scored.
func answerWithinOptions(answer, options []string) map[string]string {
	known := make(map[string]struct{}, len(options))
	for _, o := range options {
		known[normalizeOption(o)] = struct{}{}
	}

	seen := make(map[string]struct{}, len(answer))
	for _, a := range answer {
		n := normalizeOption(a)
		if _, ok := known[n]; !ok {
			return map[string]string{"answer": "the answer must name existing options"}
		}
		if _, dup := seen[n]; dup {
			return map[string]string{"answer": "answer texts must be distinct"}
		}
		seen[n] = struct{}{}
	}
	return nil
}

func normalizeOption(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
