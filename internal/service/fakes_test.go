package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/ayush-sharaf/pollproject-backend/internal/model"

	"github.com/stretchr/testify/require"
)

const (
	toAll      = "all"
	toTeachers = "teachers"
	toConn     = "conn"
)

type sentEvent struct {
	audience string
	connID   string
	event    *model.WSEvent
}

// recordingHub captures everything the classroom emits.
type recordingHub struct {
	mu           sync.Mutex
	sent         []sentEvent
	disconnected []string
}

func (h *recordingHub) Broadcast(event *model.WSEvent) {
	h.record(sentEvent{audience: toAll, event: event})
}

func (h *recordingHub) BroadcastToTeachers(event *model.WSEvent) {
	h.record(sentEvent{audience: toTeachers, event: event})
}

func (h *recordingHub) SendTo(connID string, event *model.WSEvent) bool {
	h.record(sentEvent{audience: toConn, connID: connID, event: event})
	return true
}

func (h *recordingHub) Disconnect(connID string) {
	h.mu.Lock()
	h.disconnected = append(h.disconnected, connID)
	h.mu.Unlock()
}

func (h *recordingHub) record(e sentEvent) {
	h.mu.Lock()
	h.sent = append(h.sent, e)
	h.mu.Unlock()
}

func (h *recordingHub) events(eventType string) []sentEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []sentEvent
	for _, e := range h.sent {
		if e.event.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

func (h *recordingHub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sent)
}

func (h *recordingHub) reset() {
	h.mu.Lock()
	h.sent = nil
	h.mu.Unlock()
}

// memoryHistory is an in-memory HistoryStore. When block is set, SavePoll
// signals started and waits for release.
type memoryHistory struct {
	mu      sync.Mutex
	saved   []model.PollRecord
	saveErr error
	listErr error
	limits  []int

	block   bool
	started chan struct{}
	release chan struct{}
}

func newBlockingHistory() *memoryHistory {
	return &memoryHistory{
		block:   true,
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
}

func (m *memoryHistory) SavePoll(ctx context.Context, rec *model.PollRecord) error {
	if m.block {
		m.started <- struct{}{}
		select {
		case <-m.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = append(m.saved, *rec)
	return nil
}

func (m *memoryHistory) RecentPolls(_ context.Context, limit int) ([]model.PollRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.limits = append(m.limits, limit)
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]model.PollRecord, 0, len(m.saved))
	for i := len(m.saved) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.saved[i])
	}
	return out, nil
}

func (m *memoryHistory) records() []model.PollRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.PollRecord(nil), m.saved...)
}

// fakeClock is a settable clock for the classroom.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestClassroom(t *testing.T, history HistoryStore) (*Classroom, *recordingHub, *fakeClock) {
	t.Helper()
	hub := &recordingHub{}
	clock := newFakeClock()
	c := NewClassroom(hub, history, ClassroomConfig{StoreTimeout: 2 * time.Second})
	c.now = clock.Now
	return c, hub, clock
}

func decodeData[T any](t *testing.T, e sentEvent) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(e.event.Data, &v))
	return v
}

func createPoll(t *testing.T, c *Classroom, question string, timeLimit int, options ...string) *model.Poll {
	t.Helper()
	poll, err := c.CreatePoll(model.CreatePollPayload{Question: question, Options: options, TimeLimit: timeLimit})
	require.NoError(t, err)
	return poll
}

func tallySum(c *Classroom) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, v := range c.tally {
		n += v
	}
	return n
}
