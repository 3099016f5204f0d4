package service

import (
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/quiznexusai/quiznexus-backend/internal/model"
)

// typePriority is the fixed draw order used to guarantee type diversity
// before the random fill.
var typePriority = [...]model.QuestionType{
	model.QuestionTypeTrueFalse,
	model.QuestionTypeSingleChoice,
	model.QuestionTypeMultipleChoice,
	model.QuestionTypeOrdering,
}

// Selection is the outcome of picking questions for one section. Short is
// set when the section could not supply the full target count; that is a
// diagnostic, never a failure.
type Selection struct {
	Questions []model.Question
	Short     bool
}

// Selector draws a constrained random subset of questions for a section.
// It reads the session's used-id set but never writes it; the caller
// commits the picked ids, which keeps the selector pure and testable.
type Selector struct {
	target int
	rng    *rand.Rand
}

// NewSelector creates a selector picking target questions per section.
// A nil rng falls back to a time-seeded source.
func NewSelector(target int, rng *rand.Rand) *Selector {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Selector{target: target, rng: rng}
}

// SelectForSection picks up to the target count from pool, excluding ids in
// used. One question of each type is drawn first (in priority order, when
// the section has one left), the rest is a uniform fill, and the final list
// is shuffled so the type-diversity pass does not leak into question order.
func (s *Selector) SelectForSection(pool []model.Question, used map[uuid.UUID]struct{}) Selection {
	taken := make(map[uuid.UUID]struct{}, s.target)
	picked := make([]model.Question, 0, s.target)

	available := func(t model.QuestionType) []model.Question {
		var out []model.Question
		for _, q := range pool {
			if t != "" && q.Type != t {
				continue
			}
			if _, ok := used[q.ID]; ok {
				continue
			}
			if _, ok := taken[q.ID]; ok {
				continue
			}
			out = append(out, q)
		}
		return out
	}

	// One of each type first, skipping types the section has run out of.
	for _, t := range typePriority {
		if len(picked) >= s.target {
			break
		}
		candidates := available(t)
		if len(candidates) == 0 {
			continue
		}
		q := candidates[s.rng.Intn(len(candidates))]
		picked = append(picked, q)
		taken[q.ID] = struct{}{}
	}

	// Uniform fill without replacement, any type.
	short := false
	if remaining := s.target - len(picked); remaining > 0 {
		candidates := available("")
		if len(candidates) < remaining {
			short = true
			remaining = len(candidates)
		}
		s.rng.Shuffle(len(candidates), func(i, j int) {
			candidates[i], candidates[j] = candidates[j], candidates[i]
		})
		for _, q := range candidates[:remaining] {
			picked = append(picked, q)
			taken[q.ID] = struct{}{}
		}
	}

	s.rng.Shuffle(len(picked), func(i, j int) {
		picked[i], picked[j] = picked[j], picked[i]
	})

	return Selection{Questions: picked, Short: short}
}
