package model

import "time"

// ChatMessage is a single entry of the in-memory classroom chat.
type ChatMessage struct {
	ID        string    `json:"id"`
	Sender    string    `json:"sender"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	IsTeacher bool      `json:"isTeacher"`
}
