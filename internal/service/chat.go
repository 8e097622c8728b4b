package service

import (
	"time"

	"github.com/ayush-sharaf/pollproject-backend/internal/model"

	"github.com/google/uuid"
)

const chatHistoryLimit = 100

// ChatLog keeps the most recent chat messages in memory only.
type ChatLog struct {
	limit    int
	messages []model.ChatMessage
}

func NewChatLog(limit int) *ChatLog {
	if limit <= 0 {
		limit = chatHistoryLimit
	}
	return &ChatLog{limit: limit}
}

// Append stores a message, dropping the oldest entries past the limit.
func (l *ChatLog) Append(sender, text string, isTeacher bool, now time.Time) model.ChatMessage {
	msg := model.ChatMessage{
		ID:        uuid.NewString(),
		Sender:    sender,
		Message:   text,
		Timestamp: now,
		IsTeacher: isTeacher,
	}
	l.messages = append(l.messages, msg)
	if over := len(l.messages) - l.limit; over > 0 {
		l.messages = append(l.messages[:0:0], l.messages[over:]...)
	}
	return msg
}

func (l *ChatLog) History() []model.ChatMessage {
	out := make([]model.ChatMessage, len(l.messages))
	copy(out, l.messages)
	return out
}

func (l *ChatLog) Len() int {
	return len(l.messages)
}
