package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/quiznexusai/quiznexus-backend/internal/config"
	"github.com/quiznexusai/quiznexus-backend/internal/model"
	"github.com/rs/zerolog"
)

// In-memory store fakes shared by the engine tests.

type memBank struct {
	sections map[int][]model.Question
}

func (b *memBank) QuestionsInSection(_ context.Context, section int) ([]model.Question, error) {
	return b.sections[section], nil
}

func (b *memBank) QuestionByID(_ context.Context, id uuid.UUID) (*model.Question, error) {
	for _, pool := range b.sections {
		for i := range pool {
			if pool[i].ID == id {
				q := pool[i]
				return &q, nil
			}
		}
	}
	return nil, nil
}

type memKeys struct {
	keys map[uuid.UUID][]string
}

func (k *memKeys) AnswerFor(_ context.Context, questionID uuid.UUID) (*model.AnswerKey, error) {
	texts, ok := k.keys[questionID]
	if !ok {
		return nil, nil
	}
	return &model.AnswerKey{QuestionID: questionID, Texts: texts}, nil
}

type memUsers struct {
	mu    sync.Mutex
	users map[int]*model.User
}

func (u *memUsers) GetByID(_ context.Context, id int) (*model.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	user, ok := u.users[id]
	if !ok {
		return nil, fmt.Errorf("user %d not found", id)
	}
	cp := *user
	return &cp, nil
}

func (u *memUsers) Update(_ context.Context, user *model.User) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	cp := *user
	u.users[user.ID] = &cp
	return nil
}

type memAttempts struct {
	mu    sync.Mutex
	saved []*model.AttemptResult
}

func (a *memAttempts) SaveAttempt(_ context.Context, r *model.AttemptResult) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.saved = append(a.saved, r)
	return nil
}

func (a *memAttempts) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.saved)
}

type memStatsStore struct {
	mu    sync.Mutex
	stats *model.AggregateStatistics
}

func (s *memStatsStore) LoadStatistics(_ context.Context) (*model.AggregateStatistics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats, nil
}

func (s *memStatsStore) SaveStatistics(_ context.Context, stats *model.AggregateStatistics) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats = stats
	return nil
}

type memRoster struct {
	classes map[int]string
	schools map[int]string
}

func (r *memRoster) ClassName(_ context.Context, id int) (string, error) {
	return r.classes[id], nil
}

func (r *memRoster) SchoolName(_ context.Context, id int) (string, error) {
	return r.schools[id], nil
}

type recordingSink struct {
	mu      sync.Mutex
	results []*model.AttemptResult
}

func (s *recordingSink) Update(_ context.Context, r *model.AttemptResult, _ *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, r)
	return nil
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.results)
}

// fakeClock lets tests move session time without sleeping.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// scriptedSource replays a fixed answer list through the Run loop.
type scriptedSource struct {
	answers []string
	i       int
}

func (s *scriptedSource) NextAnswer(model.Question, int) (string, error) {
	if s.i >= len(s.answers) {
		return "", fmt.Errorf("out of scripted answers")
	}
	a := s.answers[s.i]
	s.i++
	return a, nil
}

func testConfig() *config.Config {
	return &config.Config{
		ExamDuration:            3 * time.Minute,
		ExamSections:            4,
		ExamQuestionsPerSection: 5,
		ExamPassThreshold:       75,
		ExamMaxAttempts:         2,
	}
}

func quietLogger() zerolog.Logger {
	return zerolog.Nop()
}
