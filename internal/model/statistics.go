package model

import "github.com/google/uuid"

// QuestionTally counts correct vs wrong submissions for one question.
type QuestionTally struct {
	Correct int `json:"correct"`
	Wrong   int `json:"wrong"`
}

// SectionStats is the running aggregate for one section within a class or
// school. AverageScore is a streaming mean of section percentages.
type SectionStats struct {
	AverageScore float64                      `json:"average_score"`
	StudentCount int                          `json:"student_count"`
	Questions    map[uuid.UUID]*QuestionTally `json:"questions"`
}

// AddScore folds one section percentage into the streaming mean.
func (s *SectionStats) AddScore(v float64) {
	s.StudentCount++
	s.AverageScore = (s.AverageScore*float64(s.StudentCount-1) + v) / float64(s.StudentCount)
}

// Tally bumps the correct/wrong bucket for a question.
func (s *SectionStats) Tally(questionID uuid.UUID, correct bool) {
	if s.Questions == nil {
		s.Questions = make(map[uuid.UUID]*QuestionTally)
	}
	t := s.Questions[questionID]
	if t == nil {
		t = &QuestionTally{}
		s.Questions[questionID] = t
	}
	if correct {
		t.Correct++
	} else {
		t.Wrong++
	}
}

// GroupStats is the running aggregate for one class or one school.
type GroupStats struct {
	AverageScore float64               `json:"average_score"`
	StudentCount int                   `json:"student_count"`
	Sections     map[int]*SectionStats `json:"sections"`
}

// AddScore folds one overall attempt percentage into the streaming mean.
func (g *GroupStats) AddScore(v float64) {
	g.StudentCount++
	g.AverageScore = (g.AverageScore*float64(g.StudentCount-1) + v) / float64(g.StudentCount)
}

// Section returns the stats bucket for a section, creating it on first use.
func (g *GroupStats) Section(n int) *SectionStats {
	if g.Sections == nil {
		g.Sections = make(map[int]*SectionStats)
	}
	s := g.Sections[n]
	if s == nil {
		s = &SectionStats{Questions: make(map[uuid.UUID]*QuestionTally)}
		g.Sections[n] = s
	}
	return s
}

// AggregateStatistics is the school-wide rollup. Mutated incrementally,
// once per completed student attempt; never recomputed from history.
type AggregateStatistics struct {
	Classes         map[int]*GroupStats `json:"classes"`
	Schools         map[int]*GroupStats `json:"schools"`
	TotalStudents   int                 `json:"total_students"`
	TotalExams      int                 `json:"total_exams"`
	SuccessfulExams int                 `json:"successful_exams"`
	FailedExams     int                 `json:"failed_exams"`
}

// NewAggregateStatistics returns an empty, ready-to-fold aggregate.
func NewAggregateStatistics() *AggregateStatistics {
	return &AggregateStatistics{
		Classes: make(map[int]*GroupStats),
		Schools: make(map[int]*GroupStats),
	}
}

// Class returns the class bucket, creating it on first use.
func (a *AggregateStatistics) Class(id int) *GroupStats {
	if a.Classes == nil {
		a.Classes = make(map[int]*GroupStats)
	}
	g := a.Classes[id]
	if g == nil {
		g = &GroupStats{Sections: make(map[int]*SectionStats)}
		a.Classes[id] = g
	}
	return g
}

// School returns the school bucket, creating it on first use.
func (a *AggregateStatistics) School(id int) *GroupStats {
	if a.Schools == nil {
		a.Schools = make(map[int]*GroupStats)
	}
	g := a.Schools[id]
	if g == nil {
		g = &GroupStats{Sections: make(map[int]*SectionStats)}
		a.Schools[id] = g
	}
	return g
}
