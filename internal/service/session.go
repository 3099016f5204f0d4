package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/quiznexusai/quiznexus-backend/internal/config"
	"github.com/quiznexusai/quiznexus-backend/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// SessionPhase tracks the session lifecycle.
type SessionPhase string

const (
	PhaseNotStarted SessionPhase = "NOT_STARTED"
	PhaseInProgress SessionPhase = "IN_PROGRESS"
	PhaseEnded      SessionPhase = "ENDED"
)

// Session is one user's exam attempt: timing, the per-section question
// queue, and every captured answer. All mutation happens under mu; the
// background monitor and the submission path agree on the timeUp flag
// through it.
type Session struct {
	ID        uuid.UUID
	User      *model.User
	StartedAt time.Time
	Deadline  time.Time

	mu            sync.Mutex
	phase         SessionPhase
	timeUp        bool
	section       int
	queue         []model.Question
	selected      map[int][]model.Question
	used          map[uuid.UUID]struct{}
	answers       []model.Answer
	details       []model.QuestionDetail
	shortSections []int
	result        *model.AttemptResult
	stop          chan struct{}
	stopped       bool
}

func (s *Session) expired(now time.Time) bool {
	return s.timeUp || !now.Before(s.Deadline)
}

func (s *Session) stopMonitor() {
	if !s.stopped {
		s.stopped = true
		close(s.stop)
	}
}

// SectionQuestions is one section's presented question list. Answer keys
// never travel with it.
type SectionQuestions struct {
	Section   int              `json:"section"`
	Questions []model.Question `json:"questions"`
	Short     bool             `json:"short,omitempty"`
}

// StartResult is returned when a session opens.
type StartResult struct {
	AttemptID uuid.UUID        `json:"attempt_id"`
	Deadline  time.Time        `json:"deadline"`
	First     SectionQuestions `json:"first_section"`
}

// SubmitOutcome describes what happened after an accepted answer.
type SubmitOutcome struct {
	SectionComplete bool                 `json:"section_complete"`
	NextSection     *SectionQuestions    `json:"next_section,omitempty"`
	Finished        bool                 `json:"finished"`
	Result          *model.AttemptResult `json:"result,omitempty"`
}

// SessionState is a read-only snapshot for the state endpoint and the
// websocket monitor.
type SessionState struct {
	AttemptID        uuid.UUID `json:"attempt_id"`
	Section          int       `json:"section"`
	Answered         int       `json:"answered"`
	RemainingSeconds float64   `json:"remaining_seconds"`
	Ended            bool      `json:"ended"`
}

// AnswerSource supplies raw answers for the non-interactive Run loop.
// Returning an error ends the exam early with whatever was captured.
type AnswerSource interface {
	NextAnswer(q model.Question, section int) (string, error)
}

// ExamSessionService owns active sessions and drives the state machine:
// NotStarted -> InProgress -> Ended, section by section, under the exam
// time budget. One session belongs to one user; cross-session state is
// guarded by the service mutex, per-session state by the session mutex.
type ExamSessionService struct {
	bank       QuestionBank
	users      UserStore
	attempts   AttemptStore
	roster     Roster
	stats      StatisticsSink
	selector   *Selector
	evaluator  *Evaluator
	aggregator *ResultAggregator
	rdb        *redis.Client
	log        zerolog.Logger

	duration    time.Duration
	sections    int
	maxAttempts int
	tick        time.Duration
	now         func() time.Time

	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
	byUser   map[int]uuid.UUID
}

// NewExamSessionService wires the engine. roster, stats and rdb may be nil;
// the corresponding side channels are then skipped.
func NewExamSessionService(
	bank QuestionBank,
	keys AnswerKeyStore,
	users UserStore,
	attempts AttemptStore,
	roster Roster,
	stats StatisticsSink,
	rdb *redis.Client,
	cfg *config.Config,
	log zerolog.Logger,
) *ExamSessionService {
	return &ExamSessionService{
		bank:      bank,
		users:     users,
		attempts:  attempts,
		roster:    roster,
		stats:     stats,
		selector:  NewSelector(cfg.ExamQuestionsPerSection, nil),
		evaluator: NewEvaluator(keys),
		aggregator: &ResultAggregator{
			PassThreshold: cfg.ExamPassThreshold,
			TotalSections: cfg.ExamSections,
		},
		rdb:         rdb,
		log:         log.With().Str("component", "exam_session").Logger(),
		duration:    cfg.ExamDuration,
		sections:    cfg.ExamSections,
		maxAttempts: cfg.ExamMaxAttempts,
		tick:        time.Second,
		now:         time.Now,
		sessions:    make(map[uuid.UUID]*Session),
		byUser:      make(map[int]uuid.UUID),
	}
}

// Start opens a session for the user, charges an attempt, selects section 1
// and launches the time-budget monitor.
func (s *ExamSessionService) Start(ctx context.Context, userID int) (*StartResult, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}

	if !user.AttemptExempt() && user.Attempts >= s.maxAttempts {
		return nil, ErrNoAttemptsLeft
	}

	// Reserve the user's slot before charging the attempt so two
	// concurrent starts cannot both pass the active check.
	sessID := uuid.New()
	s.mu.Lock()
	if _, active := s.byUser[user.ID]; active {
		s.mu.Unlock()
		return nil, ErrSessionActive
	}
	s.byUser[user.ID] = sessID
	s.mu.Unlock()

	now := s.now()
	user.Attempts++
	user.LastAttemptAt = &now
	if err := s.users.Update(ctx, user); err != nil {
		s.unreserve(user.ID, sessID)
		return nil, fmt.Errorf("charge attempt: %w", err)
	}

	sess := &Session{
		ID:        sessID,
		User:      user,
		StartedAt: now,
		Deadline:  now.Add(s.duration),
		phase:     PhaseInProgress,
		selected:  make(map[int][]model.Question),
		used:      make(map[uuid.UUID]struct{}),
		stop:      make(chan struct{}),
	}

	first, err := s.advanceSection(ctx, sess)
	if err != nil {
		s.unreserve(user.ID, sessID)
		return nil, err
	}
	if first == nil {
		// Every section empty after selection; the bank is unusable.
		s.unreserve(user.ID, sessID)
		return nil, &DataIntegrityError{Msg: "question bank yielded no questions for any section"}
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	if s.rdb != nil {
		ttl := s.duration + time.Minute
		startKey := config.CacheKey.AttemptStartKey(sess.ID.String())
		if err := s.rdb.Set(ctx, startKey, sess.StartedAt.Unix(), ttl).Err(); err != nil {
			s.log.Warn().Err(err).Msg("Failed to cache attempt start time")
		}
		activeKey := config.CacheKey.UserActiveAttemptKey(user.ID)
		if err := s.rdb.Set(ctx, activeKey, sess.ID.String(), ttl).Err(); err != nil {
			s.log.Warn().Err(err).Msg("Failed to cache active attempt")
		}
	}

	go s.monitor(sess)

	s.log.Info().
		Str("attempt_id", sess.ID.String()).
		Int("user_id", user.ID).
		Time("deadline", sess.Deadline).
		Msg("Exam session started")

	return &StartResult{AttemptID: sess.ID, Deadline: sess.Deadline, First: *first}, nil
}

// CurrentQuestion returns the question awaiting an answer. The time budget
// is checked first: an expired session is sealed here and ErrTimeUp
// returned, per the hard-cutoff rule.
func (s *ExamSessionService) CurrentQuestion(ctx context.Context, attemptID uuid.UUID) (*model.Question, int, error) {
	sess, err := s.lookup(attemptID)
	if err != nil {
		return nil, 0, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.phase == PhaseEnded {
		return nil, 0, ErrSessionEnded
	}
	if sess.expired(s.now()) {
		s.sealLocked(ctx, sess)
		return nil, 0, ErrTimeUp
	}
	if len(sess.queue) == 0 {
		return nil, 0, ErrSessionEnded
	}

	q := sess.queue[0]
	return &q, sess.section, nil
}

// Submit evaluates one answer for the session's current question.
// Validation failures leave the session untouched so the same question is
// re-presented; an accepted answer advances the pointer and, at section or
// exam boundaries, triggers selection or sealing.
func (s *ExamSessionService) Submit(ctx context.Context, attemptID, questionID uuid.UUID, raw string) (*SubmitOutcome, error) {
	sess, err := s.lookup(attemptID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.phase == PhaseEnded {
		return &SubmitOutcome{Finished: true, Result: sess.result}, ErrSessionEnded
	}
	if sess.expired(s.now()) {
		res := s.sealLocked(ctx, sess)
		return &SubmitOutcome{Finished: true, Result: res}, ErrTimeUp
	}
	if len(sess.queue) == 0 {
		return nil, ErrSessionEnded
	}

	q := sess.queue[0]
	if q.ID != questionID {
		return nil, validationf("question %s is not the current question", questionID)
	}

	ev, err := s.evaluator.Evaluate(ctx, &q, raw)
	if err != nil {
		if IsDataIntegrity(err) {
			// The bank is broken mid-session: abort without recording a
			// result, persisting an attempt or touching statistics.
			s.abortLocked(sess)
			return nil, err
		}
		return nil, err
	}

	sess.answers = append(sess.answers, model.Answer{
		QuestionID:   q.ID,
		Section:      sess.section,
		Value:        ev.Normalized,
		IsCorrect:    ev.IsCorrect,
		PointsEarned: ev.PointsEarned,
	})
	sess.details = append(sess.details, model.QuestionDetail{
		QuestionID:    q.ID,
		Text:          q.Text,
		Type:          q.Type,
		UserAnswer:    ev.Normalized,
		CorrectAnswer: ev.CorrectTexts,
		IsCorrect:     ev.IsCorrect,
		PointsEarned:  ev.PointsEarned,
	})
	sess.queue = sess.queue[1:]

	if len(sess.queue) > 0 {
		return &SubmitOutcome{}, nil
	}

	next, err := s.advanceSection(ctx, sess)
	if err != nil {
		if IsDataIntegrity(err) {
			s.abortLocked(sess)
		}
		return nil, err
	}
	if next == nil {
		res := s.sealLocked(ctx, sess)
		return &SubmitOutcome{SectionComplete: true, Finished: true, Result: res}, nil
	}
	return &SubmitOutcome{SectionComplete: true, NextSection: next}, nil
}

// Finish seals the session early with whatever answers were captured.
func (s *ExamSessionService) Finish(ctx context.Context, attemptID uuid.UUID) (*model.AttemptResult, error) {
	sess, err := s.lookup(attemptID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.phase == PhaseEnded {
		return sess.result, nil
	}
	return s.sealLocked(ctx, sess), nil
}

// Result returns the sealed result of an attempt, if the session ended.
func (s *ExamSessionService) Result(attemptID uuid.UUID) (*model.AttemptResult, error) {
	sess, err := s.lookup(attemptID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.result == nil {
		return nil, ErrSessionActive
	}
	return sess.result, nil
}

// State snapshots the session for the state endpoint and the monitor.
func (s *ExamSessionService) State(attemptID uuid.UUID) (*SessionState, error) {
	sess, err := s.lookup(attemptID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	remaining := sess.Deadline.Sub(s.now()).Seconds()
	if remaining < 0 || sess.phase == PhaseEnded {
		remaining = 0
	}
	return &SessionState{
		AttemptID:        sess.ID,
		Section:          sess.section,
		Answered:         len(sess.answers),
		RemainingSeconds: remaining,
		Ended:            sess.phase == PhaseEnded,
	}, nil
}

// ActiveAttempt returns the id of the user's running session, if any.
func (s *ExamSessionService) ActiveAttempt(userID int) (uuid.UUID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byUser[userID]
	return id, ok
}

// Run drives a full exam for one user through an AnswerSource, looping the
// same state machine the HTTP handlers use: present, submit, re-present on
// validation failure, stop on time cutoff.
func (s *ExamSessionService) Run(ctx context.Context, userID int, source AnswerSource) (*model.AttemptResult, error) {
	start, err := s.Start(ctx, userID)
	if err != nil {
		return nil, err
	}
	attemptID := start.AttemptID

	for {
		q, section, err := s.CurrentQuestion(ctx, attemptID)
		if err != nil {
			if errors.Is(err, ErrTimeUp) || errors.Is(err, ErrSessionEnded) {
				return s.Result(attemptID)
			}
			return nil, err
		}

		raw, err := source.NextAnswer(*q, section)
		if err != nil {
			return s.Finish(ctx, attemptID)
		}

		out, err := s.Submit(ctx, attemptID, q.ID, raw)
		if err != nil {
			if IsValidation(err) {
				continue // same question is re-presented
			}
			if errors.Is(err, ErrTimeUp) || errors.Is(err, ErrSessionEnded) {
				return out.Result, nil
			}
			return nil, err
		}
		if out.Finished {
			return out.Result, nil
		}
	}
}

// ─── internals ─────────────────────────────────────────────────────────

// VerifyOwner confirms the attempt belongs to the given user.
func (s *ExamSessionService) VerifyOwner(attemptID uuid.UUID, userID int) error {
	sess, err := s.lookup(attemptID)
	if err != nil {
		return err
	}
	if sess.User.ID != userID {
		return ErrNotSessionOwner
	}
	return nil
}

// unreserve frees a byUser slot claimed during Start when the session
// never made it into the sessions map.
func (s *ExamSessionService) unreserve(userID int, sessID uuid.UUID) {
	s.mu.Lock()
	if s.byUser[userID] == sessID {
		delete(s.byUser, userID)
	}
	s.mu.Unlock()
}

func (s *ExamSessionService) lookup(attemptID uuid.UUID) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[attemptID]
	if !ok {
		return nil, ErrNoActiveSession
	}
	return sess, nil
}

// advanceSection selects questions for the next section, skipping sections
// whose pool is fully used up. Returns nil when no sections remain. A
// section with zero questions in the bank is a data-integrity failure; a
// section with fewer than the target is only flagged short.
// Called with sess.mu held (or before the session is shared).
func (s *ExamSessionService) advanceSection(ctx context.Context, sess *Session) (*SectionQuestions, error) {
	for sess.section < s.sections {
		sess.section++

		pool, err := s.bank.QuestionsInSection(ctx, sess.section)
		if err != nil {
			return nil, fmt.Errorf("load section %d: %w", sess.section, err)
		}
		if len(pool) == 0 {
			return nil, &DataIntegrityError{Section: sess.section, Msg: "section has no questions in the bank"}
		}

		sel := s.selector.SelectForSection(pool, sess.used)
		if sel.Short {
			sess.shortSections = append(sess.shortSections, sess.section)
			s.log.Warn().
				Int("section", sess.section).
				Int("selected", len(sel.Questions)).
				Msg("Section could not supply the full question count")
		}
		if len(sel.Questions) == 0 {
			continue
		}

		for _, q := range sel.Questions {
			sess.used[q.ID] = struct{}{}
		}
		sess.selected[sess.section] = sel.Questions
		sess.queue = append([]model.Question(nil), sel.Questions...)

		return &SectionQuestions{Section: sess.section, Questions: sel.Questions, Short: sel.Short}, nil
	}
	return nil, nil
}

// sealLocked transitions the session to Ended exactly once: aggregate,
// persist, update the user's score history and hand the result to the
// statistics sink. Repeat calls return the stored result. Called with
// sess.mu held.
func (s *ExamSessionService) sealLocked(ctx context.Context, sess *Session) *model.AttemptResult {
	if sess.result != nil {
		return sess.result
	}

	sess.phase = PhaseEnded
	sess.stopMonitor()

	res := s.aggregator.Aggregate(sess, s.now())
	s.resolveNames(ctx, sess.User, res)
	sess.result = res

	if err := s.attempts.SaveAttempt(ctx, res); err != nil {
		s.log.Error().Err(err).Str("attempt_id", res.AttemptID.String()).Msg("Failed to persist attempt")
	}

	if sess.User.Role == model.RoleStudent {
		sess.User.RecordAttemptScore(res.TotalScore)
		if err := s.users.Update(ctx, sess.User); err != nil {
			s.log.Error().Err(err).Int("user_id", sess.User.ID).Msg("Failed to update user scores")
		}
	}

	if s.stats != nil {
		if err := s.stats.Update(ctx, res, sess.User); err != nil {
			s.log.Error().Err(err).Str("attempt_id", res.AttemptID.String()).Msg("Failed to hand attempt to statistics")
		}
	}

	s.release(sess)

	s.log.Info().
		Str("attempt_id", res.AttemptID.String()).
		Float64("total_score", res.TotalScore).
		Bool("passed", res.Passed).
		Bool("timed_out", res.TimedOut).
		Msg("Exam session sealed")

	return res
}

// abortLocked ends a session that hit a data-integrity failure: no result,
// no persistence, no statistics. Called with sess.mu held.
func (s *ExamSessionService) abortLocked(sess *Session) {
	sess.phase = PhaseEnded
	sess.stopMonitor()
	s.release(sess)

	s.mu.Lock()
	delete(s.sessions, sess.ID)
	s.mu.Unlock()
}

// release frees the per-user slot and the redis start-time cache entry.
func (s *ExamSessionService) release(sess *Session) {
	s.mu.Lock()
	if s.byUser[sess.User.ID] == sess.ID {
		delete(s.byUser, sess.User.ID)
	}
	s.mu.Unlock()

	if s.rdb != nil {
		keys := []string{
			config.CacheKey.AttemptStartKey(sess.ID.String()),
			config.CacheKey.UserActiveAttemptKey(sess.User.ID),
		}
		if err := s.rdb.Del(context.Background(), keys...).Err(); err != nil {
			s.log.Debug().Err(err).Msg("Failed to drop attempt cache entries")
		}
	}
}

func (s *ExamSessionService) resolveNames(ctx context.Context, user *model.User, res *model.AttemptResult) {
	if s.roster == nil {
		return
	}
	if name, err := s.roster.ClassName(ctx, user.ClassID); err == nil {
		res.ClassName = name
	}
	if name, err := s.roster.SchoolName(ctx, user.SchoolID); err == nil {
		res.SchoolName = name
	}
}

// monitor ticks once per second and flips the shared timeUp flag when the
// deadline passes; how late a cutoff can be observed is bounded by the
// tick. It then seals the session itself so an abandoned attempt still
// ends at the deadline.
func (s *ExamSessionService) monitor(sess *Session) {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-sess.stop:
			return
		case <-ticker.C:
			sess.mu.Lock()
			if sess.phase == PhaseEnded {
				sess.mu.Unlock()
				return
			}
			if !s.now().Before(sess.Deadline) {
				sess.timeUp = true
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				s.sealLocked(ctx, sess)
				cancel()
				sess.mu.Unlock()
				return
			}
			sess.mu.Unlock()
		}
	}
}
