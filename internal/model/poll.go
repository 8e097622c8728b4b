package model

import (
	"encoding/json"
	"time"
)

// PollOption is one answer choice. Votes is derived from the tally.
type PollOption struct {
	ID    string `json:"id"`
	Text  string `json:"text"`
	Votes int    `json:"votes"`
}

// Poll is the single current poll of the classroom.
type Poll struct {
	ID        string       `json:"id"`
	Question  string       `json:"question"`
	Options   []PollOption `json:"options"`
	TimeLimit int          `json:"timeLimit"`
	CreatedAt time.Time    `json:"createdAt"`
	EndedAt   *time.Time   `json:"endedAt"`
	IsActive  bool         `json:"isActive"`
}

// Clone returns a deep copy safe to hand out of the classroom lock.
func (p *Poll) Clone() *Poll {
	if p == nil {
		return nil
	}
	c := *p
	c.Options = make([]PollOption, len(p.Options))
	copy(c.Options, p.Options)
	if p.EndedAt != nil {
		t := *p.EndedAt
		c.EndedAt = &t
	}
	return &c
}

// PollResults is the payload of the poll-results event.
type PollResults struct {
	PollID     string       `json:"pollId"`
	Results    []PollOption `json:"results"`
	TotalVotes int          `json:"totalVotes"`
}

// Student is a roster entry.
type Student struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ConnID      string `json:"socketId"`
	HasAnswered bool   `json:"hasAnswered"`
}

// PollRecord is a persisted row of the poll history table.
type PollRecord struct {
	ID            string          `json:"id"`
	Question      string          `json:"question"`
	Options       json.RawMessage `json:"options"`
	TimeLimit     int             `json:"time_limit"`
	CreatedAt     time.Time       `json:"created_at"`
	EndedAt       *time.Time      `json:"ended_at"`
	IsActive      bool            `json:"is_active"`
	TotalStudents int             `json:"total_students"`
	TotalVotes    int             `json:"total_votes"`
}
