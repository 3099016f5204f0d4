package service

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Session flow errors. ErrTimeUp is an expected control transition, not a
// failure: callers receive it once the budget is exhausted and must treat
// the session as sealed.
var (
	ErrTimeUp          = errors.New("exam time budget exhausted")
	ErrSessionEnded    = errors.New("exam session already ended")
	ErrNoActiveSession = errors.New("no active exam session")
	ErrSessionActive   = errors.New("an exam session is already active")
	ErrNoAttemptsLeft  = errors.New("no exam attempts remaining")
	ErrNotSessionOwner = errors.New("attempt belongs to another user")
)

// ValidationError reports malformed answer input. It is recoverable and
// local: the session state is unchanged and the same question is
// re-presented.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func validationf(format string, args ...any) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is an input validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// DataIntegrityError reports a broken bank invariant: a question without an
// answer key, or a section with no questions at all. It is fatal to the
// current session and must never be recorded as an incorrect answer.
type DataIntegrityError struct {
	QuestionID uuid.UUID
	Section    int
	Msg        string
}

func (e *DataIntegrityError) Error() string {
	if e.QuestionID != uuid.Nil {
		return fmt.Sprintf("%s (question %s)", e.Msg, e.QuestionID)
	}
	if e.Section > 0 {
		return fmt.Sprintf("%s (section %d)", e.Msg, e.Section)
	}
	return e.Msg
}

// IsDataIntegrity reports whether err is a bank integrity failure.
func IsDataIntegrity(err error) bool {
	var de *DataIntegrityError
	return errors.As(err, &de)
}
