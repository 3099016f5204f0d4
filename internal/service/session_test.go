package service

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/quiznexusai/quiznexus-backend/internal/model"
)

type testEngine struct {
	svc      *ExamSessionService
	clock    *fakeClock
	users    *memUsers
	attempts *memAttempts
	sink     *recordingSink
	bank     *memBank
	keys     *memKeys
}

// newTestEngine builds a deterministic engine: a bank of six true/false
// questions per section keyed to "True", a frozen clock and a seeded
// selector. Answer "1" is always correct, "2" always wrong.
func newTestEngine(t *testing.T) *testEngine {
	t.Helper()

	bank := &memBank{sections: make(map[int][]model.Question)}
	keys := &memKeys{keys: make(map[uuid.UUID][]string)}
	for section := 1; section <= 4; section++ {
		for i := 0; i < 6; i++ {
			q := model.Question{
				ID:      uuid.New(),
				Section: section,
				Type:    model.QuestionTypeTrueFalse,
				Points:  5,
			}
			bank.sections[section] = append(bank.sections[section], q)
			keys.keys[q.ID] = []string{"True"}
		}
	}

	users := &memUsers{users: map[int]*model.User{
		1: {ID: 1, Name: "Ada", Surname: "Lovelace", Role: model.RoleStudent, ClassID: 10, SchoolID: 20},
		2: {ID: 2, Name: "Grace", Surname: "Hopper", Role: model.RoleTeacher},
	}}
	attempts := &memAttempts{}
	sink := &recordingSink{}
	roster := &memRoster{
		classes: map[int]string{10: "10-A"},
		schools: map[int]string{20: "Lyceum 9"},
	}

	clock := newFakeClock()
	svc := NewExamSessionService(bank, keys, users, attempts, roster, sink, nil, testConfig(), quietLogger())
	svc.now = clock.now
	svc.tick = time.Hour // keep the monitor quiet unless a test wants it
	svc.selector = NewSelector(5, rand.New(rand.NewSource(1)))

	return &testEngine{svc: svc, clock: clock, users: users, attempts: attempts, sink: sink, bank: bank, keys: keys}
}

func allCorrect(n int) *scriptedSource {
	answers := make([]string, n)
	for i := range answers {
		answers[i] = "1"
	}
	return &scriptedSource{answers: answers}
}

func TestStartOpensFirstSection(t *testing.T) {
	e := newTestEngine(t)

	start, err := e.svc.Start(context.Background(), 1)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if start.First.Section != 1 {
		t.Errorf("first section = %d, want 1", start.First.Section)
	}
	if len(start.First.Questions) != 5 {
		t.Errorf("selected %d questions, want 5", len(start.First.Questions))
	}
	if !start.Deadline.Equal(e.clock.now().Add(3 * time.Minute)) {
		t.Errorf("deadline = %v, want start + 3m", start.Deadline)
	}

	user, _ := e.users.GetByID(context.Background(), 1)
	if user.Attempts != 1 {
		t.Errorf("attempts = %d, want 1 (charged at start)", user.Attempts)
	}
}

func TestRunFullExamPasses(t *testing.T) {
	e := newTestEngine(t)

	res, err := e.svc.Run(context.Background(), 1, allCorrect(20))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !res.Passed {
		t.Error("all-correct run must pass")
	}
	if !almostEqual(res.TotalScore, 100) {
		t.Errorf("total = %v, want 100", res.TotalScore)
	}
	if res.ClassName != "10-A" || res.SchoolName != "Lyceum 9" {
		t.Errorf("roster names = %q/%q", res.ClassName, res.SchoolName)
	}

	// The exam must never repeat a question.
	seen := make(map[uuid.UUID]struct{})
	for _, sec := range res.Sections {
		for _, q := range sec.Questions {
			if _, dup := seen[q.QuestionID]; dup {
				t.Fatalf("question %s appeared twice", q.QuestionID)
			}
			seen[q.QuestionID] = struct{}{}
		}
	}
	if len(seen) != 20 {
		t.Errorf("answered %d distinct questions, want 20", len(seen))
	}

	if e.attempts.count() != 1 {
		t.Errorf("persisted %d attempts, want 1", e.attempts.count())
	}
	if e.sink.count() != 1 {
		t.Errorf("statistics sink received %d attempts, want 1", e.sink.count())
	}

	user, _ := e.users.GetByID(context.Background(), 1)
	if user.Score1 == nil || !almostEqual(*user.Score1, 100) {
		t.Errorf("score1 = %v, want 100", user.Score1)
	}
}

func TestAttemptLimitForStudents(t *testing.T) {
	e := newTestEngine(t)

	if _, err := e.svc.Run(context.Background(), 1, allCorrect(20)); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if _, err := e.svc.Run(context.Background(), 1, allCorrect(20)); err != nil {
		t.Fatalf("second run: %v", err)
	}

	if _, err := e.svc.Start(context.Background(), 1); !errors.Is(err, ErrNoAttemptsLeft) {
		t.Fatalf("third start: got %v, want ErrNoAttemptsLeft", err)
	}

	user, _ := e.users.GetByID(context.Background(), 1)
	if user.Score1 == nil || user.Score2 == nil || user.ScoreAvg == nil {
		t.Fatal("both attempt scores and the average must be recorded")
	}
	if !almostEqual(*user.ScoreAvg, (*user.Score1+*user.Score2)/2) {
		t.Errorf("score_avg = %v, want mean of %v and %v", *user.ScoreAvg, *user.Score1, *user.Score2)
	}
}

func TestStaffExemptFromAttemptLimit(t *testing.T) {
	e := newTestEngine(t)

	for i := 0; i < 3; i++ {
		if _, err := e.svc.Run(context.Background(), 2, allCorrect(20)); err != nil {
			t.Fatalf("staff run %d: %v", i+1, err)
		}
	}

	// Staff runs are not folded into score history.
	user, _ := e.users.GetByID(context.Background(), 2)
	if user.Score1 != nil || user.Score2 != nil {
		t.Error("staff attempts must not record score history")
	}
}

func TestOneActiveSessionPerUser(t *testing.T) {
	e := newTestEngine(t)

	if _, err := e.svc.Start(context.Background(), 1); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := e.svc.Start(context.Background(), 1); !errors.Is(err, ErrSessionActive) {
		t.Fatalf("second start: got %v, want ErrSessionActive", err)
	}
}

// slowUsers widens the window between the active check and the attempt
// charge so interleaved starts actually overlap.
type slowUsers struct {
	*memUsers
	delay time.Duration
}

func (u *slowUsers) Update(ctx context.Context, user *model.User) error {
	time.Sleep(u.delay)
	return u.memUsers.Update(ctx, user)
}

func TestConcurrentStartChargesOneAttempt(t *testing.T) {
	e := newTestEngine(t)
	e.svc.users = &slowUsers{memUsers: e.users, delay: 20 * time.Millisecond}

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = e.svc.Start(context.Background(), 1)
		}(i)
	}
	wg.Wait()

	started, rejected := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			started++
		case errors.Is(err, ErrSessionActive):
			rejected++
		default:
			t.Fatalf("unexpected start error: %v", err)
		}
	}
	if started != 1 || rejected != 1 {
		t.Fatalf("started=%d rejected=%d, want exactly one of each", started, rejected)
	}

	user, _ := e.users.GetByID(context.Background(), 1)
	if user.Attempts != 1 {
		t.Errorf("attempts = %d, want 1 (charged once)", user.Attempts)
	}
}

func TestVerifyOwner(t *testing.T) {
	e := newTestEngine(t)

	start, err := e.svc.Start(context.Background(), 1)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	if err := e.svc.VerifyOwner(start.AttemptID, 1); err != nil {
		t.Errorf("owner check: %v", err)
	}
	if err := e.svc.VerifyOwner(start.AttemptID, 2); !errors.Is(err, ErrNotSessionOwner) {
		t.Errorf("foreign user: got %v, want ErrNotSessionOwner", err)
	}
	if err := e.svc.VerifyOwner(uuid.New(), 1); !errors.Is(err, ErrNoActiveSession) {
		t.Errorf("unknown attempt: got %v, want ErrNoActiveSession", err)
	}
}

func TestSubmitRejectsNonHeadQuestion(t *testing.T) {
	e := newTestEngine(t)

	start, err := e.svc.Start(context.Background(), 1)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	_, err = e.svc.Submit(context.Background(), start.AttemptID, uuid.New(), "1")
	if !IsValidation(err) {
		t.Fatalf("got %v, want validation error", err)
	}
}

func TestInvalidInputLeavesSessionUnchanged(t *testing.T) {
	e := newTestEngine(t)

	start, err := e.svc.Start(context.Background(), 1)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	head, _, err := e.svc.CurrentQuestion(context.Background(), start.AttemptID)
	if err != nil {
		t.Fatalf("CurrentQuestion: %v", err)
	}

	if _, err := e.svc.Submit(context.Background(), start.AttemptID, head.ID, "banana"); !IsValidation(err) {
		t.Fatalf("got %v, want validation error", err)
	}

	again, _, err := e.svc.CurrentQuestion(context.Background(), start.AttemptID)
	if err != nil {
		t.Fatalf("CurrentQuestion after rejection: %v", err)
	}
	if again.ID != head.ID {
		t.Error("rejected input must re-present the same question")
	}

	state, err := e.svc.State(start.AttemptID)
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	if state.Answered != 0 {
		t.Errorf("answered = %d, want 0", state.Answered)
	}
}

func TestTimeCutoffSealsSession(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	start, err := e.svc.Start(ctx, 1)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	// Answer one question inside the budget.
	head, _, err := e.svc.CurrentQuestion(ctx, start.AttemptID)
	if err != nil {
		t.Fatalf("CurrentQuestion: %v", err)
	}
	if _, err := e.svc.Submit(ctx, start.AttemptID, head.ID, "1"); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	e.clock.advance(4 * time.Minute)

	head, _, err = e.svc.CurrentQuestion(ctx, start.AttemptID)
	if !errors.Is(err, ErrTimeUp) {
		t.Fatalf("got %v, want ErrTimeUp", err)
	}
	if head != nil {
		t.Error("no question may be presented after the cutoff")
	}

	res, err := e.svc.Result(start.AttemptID)
	if err != nil {
		t.Fatalf("Result: %v", err)
	}
	if !res.TimedOut {
		t.Error("timed_out must be set")
	}
	if res.Passed {
		t.Error("a one-answer cutoff run must not pass")
	}
	// Unanswered selected questions still count against section 1.
	if got := res.Sections[0].Total; !almostEqual(got, 25) {
		t.Errorf("section 1 total = %v, want 25", got)
	}
	if got := res.Sections[0].Earned; !almostEqual(got, 5) {
		t.Errorf("section 1 earned = %v, want 5", got)
	}

	if e.attempts.count() != 1 {
		t.Errorf("persisted %d attempts, want exactly 1", e.attempts.count())
	}

	// The sealed session rejects further submissions.
	if _, err := e.svc.Submit(ctx, start.AttemptID, head2(res), "1"); !errors.Is(err, ErrSessionEnded) {
		t.Fatalf("submit after seal: got %v, want ErrSessionEnded", err)
	}
}

// head2 returns any question id from the result; the sealed session must
// reject it regardless.
func head2(res *model.AttemptResult) uuid.UUID {
	for _, sec := range res.Sections {
		for _, q := range sec.Questions {
			return q.QuestionID
		}
	}
	return uuid.New()
}

func TestFinishIsIdempotent(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	start, err := e.svc.Start(ctx, 1)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	first, err := e.svc.Finish(ctx, start.AttemptID)
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	second, err := e.svc.Finish(ctx, start.AttemptID)
	if err != nil {
		t.Fatalf("second Finish: %v", err)
	}
	if first != second {
		t.Error("repeated Finish must return the same sealed result")
	}
	if e.attempts.count() != 1 {
		t.Errorf("persisted %d attempts, want 1", e.attempts.count())
	}
	if e.sink.count() != 1 {
		t.Errorf("statistics sink received %d attempts, want 1", e.sink.count())
	}

	// A finished session frees the user's slot.
	if _, active := e.svc.ActiveAttempt(1); active {
		t.Error("user slot must be free after finish")
	}
}

func TestMissingAnswerKeyAbortsSession(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	start, err := e.svc.Start(ctx, 1)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	// Break the bank under the running session.
	e.keys.keys = map[uuid.UUID][]string{}

	head, _, err := e.svc.CurrentQuestion(ctx, start.AttemptID)
	if err != nil {
		t.Fatalf("CurrentQuestion: %v", err)
	}

	_, err = e.svc.Submit(ctx, start.AttemptID, head.ID, "1")
	if !IsDataIntegrity(err) {
		t.Fatalf("got %v, want data integrity error", err)
	}

	// Aborted: nothing persisted, nothing folded, session gone.
	if e.attempts.count() != 0 {
		t.Errorf("persisted %d attempts, want 0", e.attempts.count())
	}
	if e.sink.count() != 0 {
		t.Errorf("statistics sink received %d attempts, want 0", e.sink.count())
	}
	if _, _, err := e.svc.CurrentQuestion(ctx, start.AttemptID); !errors.Is(err, ErrNoActiveSession) {
		t.Errorf("got %v, want ErrNoActiveSession", err)
	}
}

func TestEmptySectionFailsStart(t *testing.T) {
	e := newTestEngine(t)
	broken := e.bank.sections[1]
	e.bank.sections[1] = nil

	_, err := e.svc.Start(context.Background(), 1)
	if !IsDataIntegrity(err) {
		t.Fatalf("got %v, want data integrity error", err)
	}

	// The failed start must free the user's slot.
	e.bank.sections[1] = broken
	if _, err := e.svc.Start(context.Background(), 1); err != nil {
		t.Fatalf("start after repair: %v", err)
	}
}

func TestShortSectionIsFlaggedNotFatal(t *testing.T) {
	e := newTestEngine(t)
	e.bank.sections[2] = e.bank.sections[2][:3]

	res, err := e.svc.Run(context.Background(), 1, allCorrect(18))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.ShortSections) != 1 || res.ShortSections[0] != 2 {
		t.Errorf("short sections = %v, want [2]", res.ShortSections)
	}
	if !almostEqual(res.TotalScore, 100) {
		t.Errorf("total = %v, want 100 despite the short section", res.TotalScore)
	}
}

func TestRunFinishesEarlyWhenSourceStops(t *testing.T) {
	e := newTestEngine(t)

	res, err := e.svc.Run(context.Background(), 1, allCorrect(3))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res == nil {
		t.Fatal("early finish must still yield a result")
	}

	answered := 0
	for _, sec := range res.Sections {
		answered += len(sec.Questions)
	}
	if answered != 3 {
		t.Errorf("answered = %d, want 3", answered)
	}
	if res.Passed {
		t.Error("a three-answer run must not pass")
	}
}

func TestMonitorSealsAbandonedSession(t *testing.T) {
	e := newTestEngine(t)
	e.svc.tick = 5 * time.Millisecond

	start, err := e.svc.Start(context.Background(), 1)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	e.clock.advance(4 * time.Minute)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if res, err := e.svc.Result(start.AttemptID); err == nil {
			if !res.TimedOut {
				t.Error("monitor-sealed session must be marked timed out")
			}
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("monitor did not seal the abandoned session")
}

func TestStateCountsDownWithTheClock(t *testing.T) {
	e := newTestEngine(t)

	start, err := e.svc.Start(context.Background(), 1)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	before, err := e.svc.State(start.AttemptID)
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	e.clock.advance(30 * time.Second)
	after, err := e.svc.State(start.AttemptID)
	if err != nil {
		t.Fatalf("State: %v", err)
	}

	if !almostEqual(before.RemainingSeconds-after.RemainingSeconds, 30) {
		t.Errorf("remaining dropped by %v, want 30", before.RemainingSeconds-after.RemainingSeconds)
	}
}
