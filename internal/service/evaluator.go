package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/quiznexusai/quiznexus-backend/internal/model"
)

// Evaluation is the scored outcome of one submission. Normalized holds the
// option texts the raw input resolved to: a single element for
// single_choice and true_false, a set for multiple_choice, and a
// position-significant list for ordering.
type Evaluation struct {
	Normalized   []string
	CorrectTexts []string
	IsCorrect    bool
	PointsEarned float64
}

// Evaluator parses, normalizes and scores raw answer input per question
// type. Parsing failures come back as *ValidationError; a missing answer
// key comes back as *DataIntegrityError, never as a zero score.
type Evaluator struct {
	keys AnswerKeyStore
}

// NewEvaluator creates an Evaluator backed by the given key store.
func NewEvaluator(keys AnswerKeyStore) *Evaluator {
	return &Evaluator{keys: keys}
}

// Evaluate scores raw user input against the question's answer key.
func (e *Evaluator) Evaluate(ctx context.Context, q *model.Question, raw string) (Evaluation, error) {
	key, err := e.keys.AnswerFor(ctx, q.ID)
	if err != nil {
		return Evaluation{}, fmt.Errorf("load answer key: %w", err)
	}
	if key == nil || len(key.Texts) == 0 {
		return Evaluation{}, &DataIntegrityError{QuestionID: q.ID, Msg: "question has no answer key"}
	}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Evaluation{}, validationf("please enter an answer")
	}

	switch q.Type {
	case model.QuestionTypeSingleChoice:
		return e.evaluateSingleChoice(q, key, raw)
	case model.QuestionTypeTrueFalse:
		return e.evaluateTrueFalse(q, key, raw)
	case model.QuestionTypeMultipleChoice:
		return e.evaluateMultipleChoice(q, key, raw)
	case model.QuestionTypeOrdering:
		return e.evaluateOrdering(q, key, raw)
	default:
		return Evaluation{}, &DataIntegrityError{QuestionID: q.ID, Msg: fmt.Sprintf("unsupported question type %q", q.Type)}
	}
}

func (e *Evaluator) evaluateSingleChoice(q *model.Question, key *model.AnswerKey, raw string) (Evaluation, error) {
	idx, err := parseOptionIndex(raw, len(q.Options))
	if err != nil {
		return Evaluation{}, err
	}

	picked := q.Options[idx]
	ev := Evaluation{
		Normalized:   []string{picked},
		CorrectTexts: key.Texts,
		IsCorrect:    textsEqual(picked, key.Texts[0]),
	}
	if ev.IsCorrect {
		ev.PointsEarned = q.Points
	}
	return ev, nil
}

func (e *Evaluator) evaluateTrueFalse(q *model.Question, key *model.AnswerKey, raw string) (Evaluation, error) {
	var picked string
	switch raw {
	case "1":
		picked = model.TrueFalseOptions[0]
	case "2":
		picked = model.TrueFalseOptions[1]
	default:
		return Evaluation{}, validationf("please enter 1 (true) or 2 (false)")
	}

	ev := Evaluation{
		Normalized:   []string{picked},
		CorrectTexts: key.Texts,
		IsCorrect:    textsEqual(picked, key.Texts[0]),
	}
	if ev.IsCorrect {
		ev.PointsEarned = q.Points
	}
	return ev, nil
}

// evaluateMultipleChoice scores with the per-option penalty rule: each
// correct selection is worth points/C and each wrong selection costs
// points/(T-C), where C is the correct-option count and T the total option
// count. The sum is clamped at zero. The correctness flag stays binary:
// only exact set equality counts as correct.
func (e *Evaluator) evaluateMultipleChoice(q *model.Question, key *model.AnswerKey, raw string) (Evaluation, error) {
	indices, err := parseOptionIndexList(raw, len(q.Options))
	if err != nil {
		return Evaluation{}, err
	}

	selected := make(map[string]struct{}, len(indices))
	normalized := make([]string, 0, len(indices))
	for _, idx := range indices {
		text := q.Options[idx]
		if _, dup := selected[text]; dup {
			continue
		}
		selected[text] = struct{}{}
		normalized = append(normalized, text)
	}

	correct := make(map[string]struct{}, len(key.Texts))
	for _, t := range key.Texts {
		correct[normalizeText(t)] = struct{}{}
	}

	truePositives, falsePositives := 0, 0
	for text := range selected {
		if _, ok := correct[normalizeText(text)]; ok {
			truePositives++
		} else {
			falsePositives++
		}
	}

	totalOptions := len(q.Options)
	correctCount := len(correct)

	perCorrect := 0.0
	if correctCount > 0 {
		perCorrect = q.Points / float64(correctCount)
	}
	perWrong := 0.0
	if wrongOptions := totalOptions - correctCount; wrongOptions > 0 {
		perWrong = -q.Points / float64(wrongOptions)
	}

	score := float64(truePositives)*perCorrect + float64(falsePositives)*perWrong
	if score < 0 {
		score = 0
	}

	return Evaluation{
		Normalized:   normalized,
		CorrectTexts: key.Texts,
		IsCorrect:    falsePositives == 0 && truePositives == correctCount,
		PointsEarned: score,
	}, nil
}

// evaluateOrdering awards points/total_items for every position where the
// user's item matches the canonical item at the same index. Position-wise,
// not set overlap. The correctness flag is always false for this type; a
// single boolean cannot express a partial ordering.
func (e *Evaluator) evaluateOrdering(q *model.Question, key *model.AnswerKey, raw string) (Evaluation, error) {
	indices, err := parseOptionIndexList(raw, len(q.Options))
	if err != nil {
		return Evaluation{}, err
	}
	if len(indices) != len(q.Options) {
		return Evaluation{}, validationf("please enter all %d option numbers", len(q.Options))
	}

	normalized := make([]string, len(indices))
	for i, idx := range indices {
		normalized[i] = q.Options[idx]
	}

	totalItems := len(key.Texts)
	if totalItems == 0 {
		return Evaluation{}, &DataIntegrityError{QuestionID: q.ID, Msg: "ordering question has an empty answer key"}
	}

	matches := 0
	for i := 0; i < len(normalized) && i < totalItems; i++ {
		if textsEqual(normalized[i], key.Texts[i]) {
			matches++
		}
	}

	score := q.Points / float64(totalItems) * float64(matches)
	if score < 0 {
		score = 0
	}

	return Evaluation{
		Normalized:   normalized,
		CorrectTexts: key.Texts,
		IsCorrect:    false,
		PointsEarned: score,
	}, nil
}

// parseOptionIndex parses a 1-based option number into a 0-based index.
func parseOptionIndex(raw string, optionCount int) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, validationf("please enter an option number between 1 and %d", optionCount)
	}
	if n < 1 || n > optionCount {
		return 0, validationf("please enter an option number between 1 and %d", optionCount)
	}
	return n - 1, nil
}

// parseOptionIndexList parses comma-separated 1-based option numbers.
func parseOptionIndexList(raw string, optionCount int) ([]int, error) {
	parts := strings.Split(raw, ",")
	indices := make([]int, 0, len(parts))
	for _, p := range parts {
		idx, err := parseOptionIndex(p, optionCount)
		if err != nil {
			return nil, err
		}
		indices = append(indices, idx)
	}
	return indices, nil
}

func normalizeText(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func textsEqual(a, b string) bool {
	return normalizeText(a) == normalizeText(b)
}
