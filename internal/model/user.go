package model

import "time"

// Role enumerates the account roles known to the platform.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
)

// User represents a platform account. Students carry exam attempt history
// and class/school membership; teachers and admins author questions and
// read statistics.
type User struct {
	ID            int        `json:"id"`
	Username      string     `json:"username"`
	PasswordHash  string     `json:"-"`
	Name          string     `json:"name"`
	Surname       string     `json:"surname"`
	PhoneNumber   string     `json:"phone_number"`
	Role          Role       `json:"role"`
	Attempts      int        `json:"attempts"`
	LastAttemptAt *time.Time `json:"last_attempt_at,omitempty"`
	Score1        *float64   `json:"score1,omitempty"`
	Score2        *float64   `json:"score2,omitempty"`
	ScoreAvg      *float64   `json:"score_avg,omitempty"`
	ClassID       int        `json:"class_id"`
	SchoolID      int        `json:"school_id"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// AttemptExempt reports whether the attempt limit applies to this account.
// Only students are bounded; staff can run the exam freely for review.
func (u *User) AttemptExempt() bool {
	return u.Role != RoleStudent
}

// RecordAttemptScore stores the overall percentage of the attempt that was
// just sealed. Attempts is expected to have been incremented already, so
// attempt 1 fills Score1 and attempt 2 fills Score2. ScoreAvg is the mean
// of whichever slots are filled.
func (u *User) RecordAttemptScore(total float64) {
	switch u.Attempts {
	case 1:
		u.Score1 = &total
	case 2:
		u.Score2 = &total
	}

	switch {
	case u.Score1 != nil && u.Score2 != nil:
		avg := (*u.Score1 + *u.Score2) / 2
		u.ScoreAvg = &avg
	case u.Score1 != nil:
		u.ScoreAvg = u.Score1
	case u.Score2 != nil:
		u.ScoreAvg = u.Score2
	}
}

// LoginRequest is the payload for authentication.
type LoginRequest struct {
	Username string `json:"username" binding:"required,min=3,max=64"`
	Password string `json:"password" binding:"required,min=4,max=128"`
}

// LoginResponse is returned after a successful login.
type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
