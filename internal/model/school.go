package model

import "time"

// School is a reference record; attempts and statistics hang off its id.
type School struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Class is a class group within a school.
type Class struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	SchoolID  int       `json:"school_id"`
	CreatedAt time.Time `json:"created_at"`
}
