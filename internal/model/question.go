package model

import "github.com/google/uuid"

// QuestionType enumerates the supported question formats.
type QuestionType string

const (
	QuestionTypeSingleChoice   QuestionType = "single_choice"
	QuestionTypeMultipleChoice QuestionType = "multiple_choice"
	QuestionTypeTrueFalse      QuestionType = "true_false"
	QuestionTypeOrdering       QuestionType = "ordering"
)

// TrueFalseOptions are the implicit option texts for true/false questions.
// The stored Options list is empty for this type; input "1" maps to the
// first entry and "2" to the second.
var TrueFalseOptions = [2]string{"True", "False"}

// Question is a single bank entry. Immutable while an exam session is
// running; the session works on copies handed out by the bank.
type Question struct {
	ID      uuid.UUID    `json:"id"`
	Section int          `json:"section"`
	Text    string       `json:"text"`
	Type    QuestionType `json:"type"`
	Points  float64      `json:"points"`
	Options []string     `json:"options,omitempty"`
}

// OptionCount returns the number of selectable options, accounting for the
// implicit true/false pair.
func (q *Question) OptionCount() int {
	if q.Type == QuestionTypeTrueFalse {
		return len(TrueFalseOptions)
	}
	return len(q.Options)
}

// AnswerKey is the canonical correct answer for one question.
// Interpretation of Texts depends on the question type: a single entry for
// single_choice and true_false, an unordered set for multiple_choice, and
// a position-significant list for ordering.
type AnswerKey struct {
	QuestionID uuid.UUID `json:"question_id"`
	Texts      []string  `json:"texts"`
}

// CreateQuestionRequest is the payload for authoring a question together
// with its answer key.
type CreateQuestionRequest struct {
	Section int      `json:"section" binding:"required,min=1"`
	Text    string   `json:"text" binding:"required,min=1,max=2000"`
	Type    string   `json:"type" binding:"required,oneof=single_choice multiple_choice true_false ordering"`
	Points  float64  `json:"points" binding:"required,gt=0"`
	Options []string `json:"options" binding:"omitempty,max=10,dive,min=1"`
	Answer  []string `json:"answer" binding:"required,min=1,dive,min=1"`
}

// UpdateQuestionRequest mirrors CreateQuestionRequest for edits.
type UpdateQuestionRequest struct {
	Section int      `json:"section" binding:"required,min=1"`
	Text    string   `json:"text" binding:"required,min=1,max=2000"`
	Points  float64  `json:"points" binding:"required,gt=0"`
	Options []string `json:"options" binding:"omitempty,max=10,dive,min=1"`
	Answer  []string `json:"answer" binding:"required,min=1,dive,min=1"`
}
