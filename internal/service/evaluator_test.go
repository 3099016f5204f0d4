package service

import (
	"context"
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/quiznexusai/quiznexus-backend/internal/model"
)

func newEvaluatorWith(q *model.Question, keyTexts []string) *Evaluator {
	keys := &memKeys{keys: map[uuid.UUID][]string{}}
	if keyTexts != nil {
		keys.keys[q.ID] = keyTexts
	}
	return NewEvaluator(keys)
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestEvaluateSingleChoiceCorrect(t *testing.T) {
	q := &model.Question{
		ID:      uuid.New(),
		Type:    model.QuestionTypeSingleChoice,
		Points:  10,
		Options: []string{"Mercury", "Venus", "Mars", "Jupiter"},
	}
	e := newEvaluatorWith(q, []string{"Venus"})

	ev, err := e.Evaluate(context.Background(), q, "2")
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !ev.IsCorrect {
		t.Error("expected is_correct=true")
	}
	if !almostEqual(ev.PointsEarned, 10) {
		t.Errorf("points = %v, want 10", ev.PointsEarned)
	}
	if len(ev.Normalized) != 1 || ev.Normalized[0] != "Venus" {
		t.Errorf("normalized = %v, want [Venus]", ev.Normalized)
	}
}

func TestEvaluateSingleChoiceWrongIsZero(t *testing.T) {
	q := &model.Question{
		ID:      uuid.New(),
		Type:    model.QuestionTypeSingleChoice,
		Points:  10,
		Options: []string{"A", "B", "C", "D"},
	}
	e := newEvaluatorWith(q, []string{"B"})

	ev, err := e.Evaluate(context.Background(), q, "3")
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if ev.IsCorrect || ev.PointsEarned != 0 {
		t.Errorf("wrong answer scored %v correct=%v, want 0/false", ev.PointsEarned, ev.IsCorrect)
	}
}

func TestEvaluateSingleChoiceRejectsOutOfRange(t *testing.T) {
	q := &model.Question{
		ID:      uuid.New(),
		Type:    model.QuestionTypeSingleChoice,
		Points:  10,
		Options: []string{"A", "B", "C", "D"},
	}
	e := newEvaluatorWith(q, []string{"B"})

	for _, raw := range []string{"0", "5", "x", "", "  "} {
		if _, err := e.Evaluate(context.Background(), q, raw); !IsValidation(err) {
			t.Errorf("input %q: got %v, want validation error", raw, err)
		}
	}
}

func TestEvaluateTrueFalse(t *testing.T) {
	q := &model.Question{
		ID:     uuid.New(),
		Type:   model.QuestionTypeTrueFalse,
		Points: 5,
	}
	e := newEvaluatorWith(q, []string{"True"})

	ev, err := e.Evaluate(context.Background(), q, "1")
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !ev.IsCorrect || !almostEqual(ev.PointsEarned, 5) {
		t.Errorf("got %v/%v, want 5/true", ev.PointsEarned, ev.IsCorrect)
	}

	ev, err = e.Evaluate(context.Background(), q, "2")
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if ev.IsCorrect || ev.PointsEarned != 0 {
		t.Errorf("false pick scored %v/%v, want 0/false", ev.PointsEarned, ev.IsCorrect)
	}

	// Only the 1/2 encoding is accepted.
	for _, raw := range []string{"true", "True", "3", "yes"} {
		if _, err := e.Evaluate(context.Background(), q, raw); !IsValidation(err) {
			t.Errorf("input %q: got %v, want validation error", raw, err)
		}
	}
}

func TestEvaluateMultipleChoicePenalty(t *testing.T) {
	// 12 points, 4 options, 2 correct: one hit and one miss cancel out.
	q := &model.Question{
		ID:      uuid.New(),
		Type:    model.QuestionTypeMultipleChoice,
		Points:  12,
		Options: []string{"A", "B", "C", "D"},
	}
	e := newEvaluatorWith(q, []string{"A", "B"})

	ev, err := e.Evaluate(context.Background(), q, "1,3")
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !almostEqual(ev.PointsEarned, 0) {
		t.Errorf("points = %v, want 0", ev.PointsEarned)
	}
	if ev.IsCorrect {
		t.Error("partial selection must not be flagged correct")
	}
}

func TestEvaluateMultipleChoiceExactMatch(t *testing.T) {
	q := &model.Question{
		ID:      uuid.New(),
		Type:    model.QuestionTypeMultipleChoice,
		Points:  12,
		Options: []string{"A", "B", "C", "D"},
	}
	e := newEvaluatorWith(q, []string{"A", "B"})

	// Order and duplicates in the input must not matter.
	ev, err := e.Evaluate(context.Background(), q, "2,1,2")
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !ev.IsCorrect {
		t.Error("exact set match must be correct")
	}
	if !almostEqual(ev.PointsEarned, 12) {
		t.Errorf("points = %v, want 12", ev.PointsEarned)
	}
}

func TestEvaluateMultipleChoiceClampsAtZero(t *testing.T) {
	// Picking only wrong options would go negative without the clamp.
	q := &model.Question{
		ID:      uuid.New(),
		Type:    model.QuestionTypeMultipleChoice,
		Points:  12,
		Options: []string{"A", "B", "C", "D"},
	}
	e := newEvaluatorWith(q, []string{"A"})

	ev, err := e.Evaluate(context.Background(), q, "2,3,4")
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if ev.PointsEarned != 0 {
		t.Errorf("points = %v, want clamped 0", ev.PointsEarned)
	}
}

func TestEvaluateMultipleChoicePartialCredit(t *testing.T) {
	q := &model.Question{
		ID:      uuid.New(),
		Type:    model.QuestionTypeMultipleChoice,
		Points:  12,
		Options: []string{"A", "B", "C", "D"},
	}
	e := newEvaluatorWith(q, []string{"A", "B"})

	// One of two correct options, no wrong picks: half credit.
	ev, err := e.Evaluate(context.Background(), q, "1")
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !almostEqual(ev.PointsEarned, 6) {
		t.Errorf("points = %v, want 6", ev.PointsEarned)
	}
	if ev.IsCorrect {
		t.Error("incomplete selection must not be flagged correct")
	}
}

func TestEvaluateOrderingPositionWise(t *testing.T) {
	// 8 points over 4 items, 2 in the right slot: half credit.
	q := &model.Question{
		ID:      uuid.New(),
		Type:    model.QuestionTypeOrdering,
		Points:  8,
		Options: []string{"alpha", "beta", "gamma", "delta"},
	}
	e := newEvaluatorWith(q, []string{"alpha", "beta", "gamma", "delta"})

	// alpha and beta land correctly, gamma/delta are swapped.
	ev, err := e.Evaluate(context.Background(), q, "1,2,4,3")
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !almostEqual(ev.PointsEarned, 4) {
		t.Errorf("points = %v, want 4", ev.PointsEarned)
	}
	if ev.IsCorrect {
		t.Error("ordering answers are never flagged correct")
	}
}

func TestEvaluateOrderingPerfectStillNotFlaggedCorrect(t *testing.T) {
	q := &model.Question{
		ID:      uuid.New(),
		Type:    model.QuestionTypeOrdering,
		Points:  8,
		Options: []string{"a", "b", "c", "d"},
	}
	e := newEvaluatorWith(q, []string{"a", "b", "c", "d"})

	ev, err := e.Evaluate(context.Background(), q, "1,2,3,4")
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !almostEqual(ev.PointsEarned, 8) {
		t.Errorf("points = %v, want 8", ev.PointsEarned)
	}
	if ev.IsCorrect {
		t.Error("ordering answers are never flagged correct")
	}
}

func TestEvaluateOrderingRequiresFullPermutation(t *testing.T) {
	q := &model.Question{
		ID:      uuid.New(),
		Type:    model.QuestionTypeOrdering,
		Points:  8,
		Options: []string{"a", "b", "c", "d"},
	}
	e := newEvaluatorWith(q, []string{"a", "b", "c", "d"})

	if _, err := e.Evaluate(context.Background(), q, "1,2"); !IsValidation(err) {
		t.Errorf("partial list: got %v, want validation error", err)
	}
}

func TestEvaluateMissingKeyIsDataIntegrity(t *testing.T) {
	q := &model.Question{
		ID:      uuid.New(),
		Type:    model.QuestionTypeSingleChoice,
		Points:  10,
		Options: []string{"A", "B"},
	}
	e := newEvaluatorWith(q, nil)

	_, err := e.Evaluate(context.Background(), q, "1")
	if !IsDataIntegrity(err) {
		t.Fatalf("got %v, want data integrity error", err)
	}
}

func TestEvaluateAnswerKeyComparisonIgnoresCase(t *testing.T) {
	q := &model.Question{
		ID:      uuid.New(),
		Type:    model.QuestionTypeSingleChoice,
		Points:  10,
		Options: []string{"Photosynthesis", "Respiration"},
	}
	e := newEvaluatorWith(q, []string{"  photosynthesis "})

	ev, err := e.Evaluate(context.Background(), q, "1")
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !ev.IsCorrect {
		t.Error("comparison must ignore case and surrounding whitespace")
	}
}
