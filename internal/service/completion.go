package service

import (
	"context"
	"log"
	"time"

	"github.com/ayush-sharaf/pollproject-backend/internal/model"
)

// AllAnswered reports whether an active poll has a non-empty roster in
// which every student has answered.
func AllAnswered(students []model.Student, poll *model.Poll) bool {
	if poll == nil || !poll.IsActive || len(students) == 0 {
		return false
	}
	for _, s := range students {
		if !s.HasAnswered {
			return false
		}
	}
	return true
}

// TimedOut reports whether an active poll has used up its time limit.
func TimedOut(poll *model.Poll, now time.Time) bool {
	if poll == nil || !poll.IsActive {
		return false
	}
	return now.Sub(poll.CreatedAt) >= time.Duration(poll.TimeLimit)*time.Second
}

// CheckTimeout ends the current poll when its time limit has elapsed.
func (c *Classroom) CheckTimeout(ctx context.Context) bool {
	c.mu.Lock()
	expired := c.state == PollActive && TimedOut(c.poll, c.now())
	var pollID string
	if expired {
		pollID = c.poll.ID
	}
	c.mu.Unlock()
	if !expired {
		return false
	}
	log.Printf("[Poll] time limit reached for %s", pollID)
	return c.endPoll(ctx, pollID)
}

// RunTimer checks the time limit once per interval until ctx is done.
// Ticks are handled in this goroutine so they never overlap.
func (c *Classroom) RunTimer(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.CheckTimeout(ctx)
		}
	}
}
