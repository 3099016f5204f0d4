package model

import (
	"time"

	"github.com/google/uuid"
)

// Answer is one captured submission. Created once per question when the
// user's input passes validation; never mutated afterwards.
type Answer struct {
	QuestionID   uuid.UUID `json:"question_id"`
	Section      int       `json:"section"`
	Value        []string  `json:"value"`
	IsCorrect    bool      `json:"is_correct"`
	PointsEarned float64   `json:"points_earned"`
}

// QuestionDetail is the per-question breakdown kept on the attempt record
// for display and statistics.
type QuestionDetail struct {
	QuestionID    uuid.UUID    `json:"question_id"`
	Text          string       `json:"text"`
	Type          QuestionType `json:"type"`
	UserAnswer    []string     `json:"user_answer"`
	CorrectAnswer []string     `json:"correct_answer,omitempty"`
	IsCorrect     bool         `json:"is_correct"`
	PointsEarned  float64      `json:"points_earned"`
}

// SectionResult rolls up one section of an attempt. Total covers every
// question that was selected for the section, answered or not; a section
// that was never reached stays at 0/0.
type SectionResult struct {
	Section   int              `json:"section"`
	Earned    float64          `json:"earned"`
	Total     float64          `json:"total"`
	Questions []QuestionDetail `json:"questions,omitempty"`
}

// Percentage is the section success rate, 0 when nothing was selected.
func (s *SectionResult) Percentage() float64 {
	if s.Total == 0 {
		return 0
	}
	return s.Earned / s.Total * 100
}

// AttemptResult is the sealed outcome of one exam session. Built exactly
// once when the session ends and immutable from then on.
type AttemptResult struct {
	AttemptID     uuid.UUID       `json:"attempt_id"`
	UserID        int             `json:"user_id"`
	UserName      string          `json:"user_name"`
	ClassName     string          `json:"class_name,omitempty"`
	SchoolName    string          `json:"school_name,omitempty"`
	StartedAt     time.Time       `json:"started_at"`
	FinishedAt    time.Time       `json:"finished_at"`
	Sections      []SectionResult `json:"sections"`
	TotalScore    float64         `json:"total_score"`
	Passed        bool            `json:"passed"`
	ShortSections []int           `json:"short_sections,omitempty"`
	TimedOut      bool            `json:"timed_out"`
}

// SubmitAnswerRequest is the payload for one answer submission.
type SubmitAnswerRequest struct {
	QuestionID string `json:"question_id" binding:"required,uuid"`
	Response   string `json:"response" binding:"required,max=200"`
}
