package service

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/ayush-sharaf/pollproject-backend/internal/model"

	"github.com/google/uuid"
)

var (
	ErrPollActive       = errors.New("a poll is already active")
	ErrQuestionRequired = errors.New("question is required")
	ErrTooFewOptions    = errors.New("at least two options are required")
	ErrInvalidTimeLimit = errors.New("time limit must be between 1 and 3600 seconds")
)

const (
	DefaultTimeLimit    = 60
	maxTimeLimit        = 3600
	pollHistoryLimit    = 10
	defaultStoreTimeout = 5 * time.Second
)

// PollState is the lifecycle of the current poll.
type PollState int

const (
	NoPoll PollState = iota
	PollActive
	// PollEnding covers the window in which the ended poll is being
	// persisted. The poll is already inactive; no second end and no new
	// poll may start until it reaches PollEnded.
	PollEnding
	PollEnded
)

func (s PollState) String() string {
	switch s {
	case PollActive:
		return "active"
	case PollEnding:
		return "ending"
	case PollEnded:
		return "ended"
	default:
		return "none"
	}
}

// Broadcaster delivers events to connected clients.
type Broadcaster interface {
	Broadcast(event *model.WSEvent)
	BroadcastToTeachers(event *model.WSEvent)
	SendTo(connID string, event *model.WSEvent) bool
	Disconnect(connID string)
}

// HistoryStore persists ended polls.
type HistoryStore interface {
	SavePoll(ctx context.Context, rec *model.PollRecord) error
	RecentPolls(ctx context.Context, limit int) ([]model.PollRecord, error)
}

type ClassroomConfig struct {
	DefaultTimeLimit int
	StoreTimeout     time.Duration
}

// Classroom owns the roster, the current poll with its tally and the chat
// log. A single mutex serialises every mutation, and events are emitted
// while it is held so all clients see them in mutation order. The history
// write in EndPoll is the only call made without the lock.
type Classroom struct {
	mu      sync.Mutex
	hub     Broadcaster
	history HistoryStore

	roster *Roster
	chat   *ChatLog
	poll   *model.Poll
	state  PollState
	tally  map[string]int

	defaultTimeLimit int
	storeTimeout     time.Duration
	onEnded          []func(model.PollRecord)
	now              func() time.Time
}

func NewClassroom(hub Broadcaster, history HistoryStore, cfg ClassroomConfig) *Classroom {
	if cfg.DefaultTimeLimit <= 0 {
		cfg.DefaultTimeLimit = DefaultTimeLimit
	}
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = defaultStoreTimeout
	}
	return &Classroom{
		hub:              hub,
		history:          history,
		roster:           NewRoster(),
		chat:             NewChatLog(chatHistoryLimit),
		tally:            make(map[string]int),
		defaultTimeLimit: cfg.DefaultTimeLimit,
		storeTimeout:     cfg.StoreTimeout,
		now:              time.Now,
	}
}

// OnPollEnded registers a callback run after a poll has been persisted
// and its end broadcast.
func (c *Classroom) OnPollEnded(fn func(model.PollRecord)) {
	c.mu.Lock()
	c.onEnded = append(c.onEnded, fn)
	c.mu.Unlock()
}

func (c *Classroom) State() PollState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Classroom) CurrentPoll() *model.Poll {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.poll.Clone()
}

func (c *Classroom) Students() []model.Student {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.roster.Snapshot()
}

func (c *Classroom) ChatHistory() []model.ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.chat.History()
}

// CreatePoll starts a new poll. It fails with ErrPollActive while the
// current poll is active or still being persisted.
func (c *Classroom) CreatePoll(req model.CreatePollPayload) (*model.Poll, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, ErrQuestionRequired
	}
	var texts []string
	for _, o := range req.Options {
		if t := strings.TrimSpace(o); t != "" {
			texts = append(texts, t)
		}
	}
	if len(texts) < 2 {
		return nil, ErrTooFewOptions
	}
	timeLimit := req.TimeLimit
	if timeLimit == 0 {
		timeLimit = c.defaultTimeLimit
	}
	if timeLimit < 0 || timeLimit > maxTimeLimit {
		return nil, ErrInvalidTimeLimit
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == PollActive || c.state == PollEnding {
		return nil, ErrPollActive
	}

	poll := &model.Poll{
		ID:        uuid.NewString(),
		Question:  question,
		Options:   make([]model.PollOption, 0, len(texts)),
		TimeLimit: timeLimit,
		CreatedAt: c.now(),
		IsActive:  true,
	}
	c.tally = make(map[string]int, len(texts))
	for _, t := range texts {
		opt := model.PollOption{ID: uuid.NewString(), Text: t}
		poll.Options = append(poll.Options, opt)
		c.tally[opt.ID] = 0
	}
	c.roster.ResetAnswers()
	c.poll = poll
	c.state = PollActive

	log.Printf("[Poll] created %s %q (%d options, %ds)", poll.ID, poll.Question, len(poll.Options), poll.TimeLimit)

	c.broadcast(model.EventNewPoll, poll)
	c.broadcastStudents()
	return poll.Clone(), nil
}

// SubmitAnswer records one answer per student for the active poll. Stale or
// duplicate submissions are ignored and reported as false. When the last
// student on the roster answers, the poll is ended.
func (c *Classroom) SubmitAnswer(ctx context.Context, studentID, optionID string) bool {
	c.mu.Lock()
	if c.state != PollActive {
		c.mu.Unlock()
		return false
	}
	if !c.roster.MarkAnswered(studentID) {
		c.mu.Unlock()
		return false
	}

	// Unknown option ids are still counted; they never appear in the
	// per-option results.
	if _, ok := c.tally[optionID]; !ok {
		log.Printf("[Poll] answer from %s for unknown option %s", studentID, optionID)
	}
	c.tally[optionID]++
	for i := range c.poll.Options {
		c.poll.Options[i].Votes = c.tally[c.poll.Options[i].ID]
	}

	c.broadcast(model.EventPollResults, c.resultsLocked())
	c.broadcastStudents()

	complete := AllAnswered(c.roster.Snapshot(), c.poll)
	pollID := c.poll.ID
	c.mu.Unlock()

	if complete {
		log.Printf("[Poll] all students answered, ending poll %s", pollID)
		c.endPoll(ctx, pollID)
	}
	return true
}

// EndPoll ends the current poll if it is active. It reports whether this
// call performed the transition; concurrent callers get false and emit
// nothing.
func (c *Classroom) EndPoll(ctx context.Context) bool {
	return c.endPoll(ctx, "")
}

// endPoll ends the current poll, optionally only when it is still pollID.
// The state moves to PollEnding under the lock before the history write so
// a second caller returns immediately.
func (c *Classroom) endPoll(ctx context.Context, pollID string) bool {
	c.mu.Lock()
	if c.state != PollActive || (pollID != "" && c.poll.ID != pollID) {
		c.mu.Unlock()
		return false
	}
	endedAt := c.now()
	c.state = PollEnding
	c.poll.IsActive = false
	c.poll.EndedAt = &endedAt

	results := c.resultsLocked()
	rec := c.recordLocked(results.TotalVotes)
	ended := c.poll.Clone()
	c.mu.Unlock()

	c.persist(ctx, rec)

	c.mu.Lock()
	c.state = PollEnded
	c.broadcast(model.EventPollResults, results)
	c.broadcast(model.EventPollEnded, ended)
	hooks := append([]func(model.PollRecord){}, c.onEnded...)
	c.mu.Unlock()

	log.Printf("[Poll] ended %s (%d votes, %d students)", rec.ID, rec.TotalVotes, rec.TotalStudents)

	for _, fn := range hooks {
		fn(*rec)
	}
	return true
}

func (c *Classroom) persist(ctx context.Context, rec *model.PollRecord) {
	if c.history == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, c.storeTimeout)
	defer cancel()
	if err := c.history.SavePoll(ctx, rec); err != nil {
		log.Printf("[History] failed to save poll %s: %v", rec.ID, err)
	}
}

func (c *Classroom) recordLocked(totalVotes int) *model.PollRecord {
	options, err := json.Marshal(c.poll.Options)
	if err != nil {
		log.Printf("[Poll] marshal options for %s: %v", c.poll.ID, err)
		options = json.RawMessage("[]")
	}
	return &model.PollRecord{
		ID:            c.poll.ID,
		Question:      c.poll.Question,
		Options:       options,
		TimeLimit:     c.poll.TimeLimit,
		CreatedAt:     c.poll.CreatedAt,
		EndedAt:       c.poll.EndedAt,
		IsActive:      false,
		TotalStudents: c.roster.Len(),
		TotalVotes:    totalVotes,
	}
}

// Results returns the current poll's tally. ok is false when no poll exists.
func (c *Classroom) Results() (model.PollResults, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.poll == nil {
		return model.PollResults{}, false
	}
	return c.resultsLocked(), true
}

// SendResults delivers the current results to one connection.
func (c *Classroom) SendResults(connID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.poll == nil {
		return
	}
	c.sendTo(connID, model.EventPollResults, c.resultsLocked())
}

func (c *Classroom) resultsLocked() model.PollResults {
	total := 0
	for _, n := range c.tally {
		total += n
	}
	results := make([]model.PollOption, len(c.poll.Options))
	for i, o := range c.poll.Options {
		o.Votes = c.tally[o.ID]
		results[i] = o
	}
	return model.PollResults{PollID: c.poll.ID, Results: results, TotalVotes: total}
}

// PollHistory returns the most recent ended polls, newest first.
func (c *Classroom) PollHistory(ctx context.Context) ([]model.PollRecord, error) {
	if c.history == nil {
		return []model.PollRecord{}, nil
	}
	ctx, cancel := context.WithTimeout(ctx, c.storeTimeout)
	defer cancel()
	return c.history.RecentPolls(ctx, pollHistoryLimit)
}

// WelcomeTeacher sends the current poll, roster and chat to a teacher.
func (c *Classroom) WelcomeTeacher(connID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sendTo(connID, model.EventCurrentPoll, c.poll)
	c.sendTo(connID, model.EventStudentsUpdate, c.roster.Snapshot())
	c.sendTo(connID, model.EventChatHistory, c.chat.History())
}

// JoinStudent adds or rebinds a student and sends it the current poll and
// chat history.
func (c *Classroom) JoinStudent(studentID, name, connID string) model.Student {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.roster.Join(studentID, name, connID, c.poll != nil && c.poll.IsActive)
	log.Printf("[Roster] %s (%s) joined on %s", s.Name, s.ID, connID)

	c.broadcastStudents()
	c.sendTo(connID, model.EventCurrentPoll, c.poll)
	c.sendTo(connID, model.EventChatHistory, c.chat.History())
	return s
}

// LeaveStudent removes a student whose connection closed.
func (c *Classroom) LeaveStudent(studentID, connID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.roster.RemoveIfConn(studentID, connID) {
		return false
	}
	log.Printf("[Roster] %s left", studentID)
	c.broadcastStudents()
	return true
}

// KickStudent notifies the student's connection, closes it and removes the
// student from the roster.
func (c *Classroom) KickStudent(studentID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.roster.Get(studentID)
	if !ok {
		return false
	}
	c.sendTo(s.ConnID, model.EventKicked, map[string]string{"message": "You have been removed by the teacher"})
	c.hub.Disconnect(s.ConnID)
	c.roster.Remove(studentID)
	log.Printf("[Roster] %s kicked", studentID)
	c.broadcastStudents()
	return true
}

// SendChat appends a message to the log and broadcasts it.
func (c *Classroom) SendChat(sender, text string, isTeacher bool) model.ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	msg := c.chat.Append(sender, text, isTeacher, c.now())
	c.broadcast(model.EventChatMessage, msg)
	return msg
}

// SendChatHistory delivers the retained chat log to one connection.
func (c *Classroom) SendChatHistory(connID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sendTo(connID, model.EventChatHistory, c.chat.History())
}

func (c *Classroom) broadcast(eventType string, data any) {
	event, err := model.NewWSEvent(eventType, data)
	if err != nil {
		log.Printf("[WS] %v", err)
		return
	}
	c.hub.Broadcast(event)
}

func (c *Classroom) broadcastStudents() {
	event, err := model.NewWSEvent(model.EventStudentsUpdate, c.roster.Snapshot())
	if err != nil {
		log.Printf("[WS] %v", err)
		return
	}
	c.hub.BroadcastToTeachers(event)
}

func (c *Classroom) sendTo(connID, eventType string, data any) {
	event, err := model.NewWSEvent(eventType, data)
	if err != nil {
		log.Printf("[WS] %v", err)
		return
	}
	c.hub.SendTo(connID, event)
}
