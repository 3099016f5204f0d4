package service

import (
	"sort"
	"time"

	"github.com/quiznexusai/quiznexus-backend/internal/model"
)

// ResultAggregator rolls a sealed session's answers into an AttemptResult.
// Aggregate is pure: calling it twice on the same sealed session yields
// identical results. Persistence and statistics are the session service's
// job and happen exactly once.
type ResultAggregator struct {
	PassThreshold float64
	TotalSections int
}

// Aggregate computes per-section earned/total sums, the weighted overall
// percentage and the pass/fail decision.
//
// Section totals cover every question selected for the section, answered
// or not, so a time cutoff mid-section still charges the unanswered
// remainder. Sections never reached have nothing selected and stay at 0/0:
// they contribute nothing to the overall denominator, but their 0%
// section score still fails the pass conjunction — an attempt cannot pass
// without reaching every section.
func (a *ResultAggregator) Aggregate(sess *Session, finishedAt time.Time) *model.AttemptResult {
	bySection := make(map[int]*model.SectionResult, a.TotalSections)
	for n := 1; n <= a.TotalSections; n++ {
		bySection[n] = &model.SectionResult{Section: n}
	}

	for section, questions := range sess.selected {
		sr := bySection[section]
		if sr == nil {
			continue
		}
		for _, q := range questions {
			sr.Total += q.Points
		}
	}

	for i, ans := range sess.answers {
		sr := bySection[ans.Section]
		if sr == nil {
			continue
		}
		sr.Earned += ans.PointsEarned
		if i < len(sess.details) {
			sr.Questions = append(sr.Questions, sess.details[i])
		}
	}

	sections := make([]model.SectionResult, 0, a.TotalSections)
	for n := 1; n <= a.TotalSections; n++ {
		sections = append(sections, *bySection[n])
	}

	var earned, possible float64
	passed := true
	for i := range sections {
		earned += sections[i].Earned
		possible += sections[i].Total
		if sections[i].Percentage() < a.PassThreshold {
			passed = false
		}
	}

	total := 0.0
	if possible > 0 {
		total = earned / possible * 100
	}
	if total < a.PassThreshold {
		passed = false
	}

	short := append([]int(nil), sess.shortSections...)
	sort.Ints(short)

	return &model.AttemptResult{
		AttemptID:     sess.ID,
		UserID:        sess.User.ID,
		UserName:      sess.User.Name + " " + sess.User.Surname,
		StartedAt:     sess.StartedAt,
		FinishedAt:    finishedAt,
		Sections:      sections,
		TotalScore:    total,
		Passed:        passed,
		ShortSections: short,
		TimedOut:      sess.timeUp,
	}
}
