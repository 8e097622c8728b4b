package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

type WSEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// NewWSEvent marshals data into an event envelope.
func NewWSEvent(eventType string, data any) (*WSEvent, error) {
	if data == nil {
		return &WSEvent{Type: eventType}, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", eventType, err)
	}
	return &WSEvent{Type: eventType, Data: raw}, nil
}

// Inbound event types.
const (
	EventJoinTeacher    = "join-as-teacher"
	EventJoinStudent    = "join-as-student"
	EventCreatePoll     = "create-poll"
	EventSubmitAnswer   = "submit-answer"
	EventEndPoll        = "end-poll"
	EventGetResults     = "get-results"
	EventGetPollHistory = "get-poll-history"
	EventKickStudent    = "kick-student"
	EventSendChat       = "send-chat-message"
	EventGetChatHistory = "get-chat-history"
	EventPing           = "ping"
)

// Outbound event types.
const (
	EventCurrentPoll    = "current-poll"
	EventStudentsUpdate = "students-update"
	EventChatHistory    = "chat-history"
	EventNewPoll        = "new-poll"
	EventPollResults    = "poll-results"
	EventPollEnded      = "poll-ended"
	EventPollHistory    = "poll-history"
	EventChatMessage    = "chat-message"
	EventError          = "error"
	EventKicked         = "kicked"
	EventPong           = "pong"
)

var ErrMalformedPayload = errors.New("malformed payload")

type JoinStudentPayload struct {
	StudentID string `json:"studentId"`
	Name      string `json:"name"`
}

type CreatePollPayload struct {
	Question  string   `json:"question"`
	Options   []string `json:"options"`
	TimeLimit int      `json:"timeLimit"`
}

type SubmitAnswerPayload struct {
	OptionID string `json:"optionId"`
}

type ChatPayload struct {
	Sender    string `json:"sender"`
	Message   string `json:"message"`
	IsTeacher bool   `json:"isTeacher"`
}

func decode(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: missing data", ErrMalformedPayload)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return nil
}

func DecodeJoinStudent(data json.RawMessage) (JoinStudentPayload, error) {
	var p JoinStudentPayload
	if err := decode(data, &p); err != nil {
		return p, err
	}
	p.StudentID = strings.TrimSpace(p.StudentID)
	p.Name = strings.TrimSpace(p.Name)
	if p.StudentID == "" {
		return p, fmt.Errorf("%w: studentId is required", ErrMalformedPayload)
	}
	if p.Name == "" {
		return p, fmt.Errorf("%w: name is required", ErrMalformedPayload)
	}
	return p, nil
}

// DecodeCreatePoll only checks the shape; question and option rules are
// enforced by the classroom.
func DecodeCreatePoll(data json.RawMessage) (CreatePollPayload, error) {
	var p CreatePollPayload
	err := decode(data, &p)
	return p, err
}

func DecodeSubmitAnswer(data json.RawMessage) (SubmitAnswerPayload, error) {
	var p SubmitAnswerPayload
	if err := decode(data, &p); err != nil {
		return p, err
	}
	if p.OptionID == "" {
		return p, fmt.Errorf("%w: optionId is required", ErrMalformedPayload)
	}
	return p, nil
}

// DecodeKickStudent accepts either a bare JSON string or {"studentId": "..."}.
func DecodeKickStudent(data json.RawMessage) (string, error) {
	var id string
	if err := json.Unmarshal(data, &id); err != nil {
		var obj struct {
			StudentID string `json:"studentId"`
		}
		if err := decode(data, &obj); err != nil {
			return "", err
		}
		id = obj.StudentID
	}
	if id == "" {
		return "", fmt.Errorf("%w: studentId is required", ErrMalformedPayload)
	}
	return id, nil
}

func DecodeChat(data json.RawMessage) (ChatPayload, error) {
	var p ChatPayload
	err := decode(data, &p)
	return p, err
}
