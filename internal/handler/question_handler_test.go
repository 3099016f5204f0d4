package handler

import (
	"testing"

	"github.com/quiznexusai/quiznexus-backend/internal/model"
)

func choiceQuestion(qt model.QuestionType, options ...string) *model.Question {
	return &model.Question{Section: 1, Text: "q", Type: qt, Points: 10, Options: options}
}

func TestValidateAuthoringAcceptsWellFormedKeys(t *testing.T) {
	cases := []struct {
		name   string
		q      *model.Question
		answer []string
	}{
		{"true_false", choiceQuestion(model.QuestionTypeTrueFalse), []string{"True"}},
		{"true_false lowercase", choiceQuestion(model.QuestionTypeTrueFalse), []string{"false"}},
		{"single_choice", choiceQuestion(model.QuestionTypeSingleChoice, "Oxygen", "Helium"), []string{"Oxygen"}},
		{"single_choice spacing", choiceQuestion(model.QuestionTypeSingleChoice, "Oxygen", "Helium"), []string{" oxygen "}},
		{"multiple_choice", choiceQuestion(model.QuestionTypeMultipleChoice, "2", "3", "4", "5"), []string{"2", "3", "5"}},
		{"ordering", choiceQuestion(model.QuestionTypeOrdering, "a", "b", "c"), []string{"c", "a", "b"}},
	}
	for _, tc := range cases {
		if fields := validateAuthoring(tc.q, tc.answer); fields != nil {
			t.Errorf("%s: rejected with %v", tc.name, fields)
		}
	}
}

func TestValidateAuthoringRejectsKeysOutsideOptions(t *testing.T) {
	cases := []struct {
		name   string
		q      *model.Question
		answer []string
	}{
		{"true_false stray text", choiceQuestion(model.QuestionTypeTrueFalse), []string{"Yes"}},
		{"single_choice unknown option", choiceQuestion(model.QuestionTypeSingleChoice, "Oxygen", "Helium"), []string{"Nitrogen"}},
		{"multiple_choice one stray", choiceQuestion(model.QuestionTypeMultipleChoice, "2", "3", "4"), []string{"2", "7"}},
		{"multiple_choice duplicate", choiceQuestion(model.QuestionTypeMultipleChoice, "2", "3", "4"), []string{"2", "2"}},
		{"ordering unknown option", choiceQuestion(model.QuestionTypeOrdering, "a", "b", "c"), []string{"a", "b", "d"}},
		{"ordering repeats one option", choiceQuestion(model.QuestionTypeOrdering, "a", "b", "c"), []string{"a", "b", "b"}},
	}
	for _, tc := range cases {
		fields := validateAuthoring(tc.q, tc.answer)
		if fields == nil {
			t.Errorf("%s: accepted a key no submission could match", tc.name)
			continue
		}
		if _, ok := fields["answer"]; !ok {
			t.Errorf("%s: error fields = %v, want an answer message", tc.name, fields)
		}
	}
}
