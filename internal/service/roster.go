package service

import (
	"github.com/ayush-sharaf/pollproject-backend/internal/model"

	"golang.org/x/exp/slices"
)

// Roster holds connected students in join order. It is not safe for
// concurrent use; Classroom serialises access.
type Roster struct {
	students map[string]*model.Student
	order    []string
}

func NewRoster() *Roster {
	return &Roster{students: make(map[string]*model.Student)}
}

// Join upserts a student. HasAnswered survives a reconnect only while a
// poll is active.
func (r *Roster) Join(id, name, connID string, pollActive bool) model.Student {
	s, ok := r.students[id]
	if !ok {
		s = &model.Student{ID: id}
		r.students[id] = s
		r.order = append(r.order, id)
	}
	s.Name = name
	s.ConnID = connID
	if !pollActive {
		s.HasAnswered = false
	}
	return *s
}

// Remove deletes a student and returns the removed entry.
func (r *Roster) Remove(id string) (model.Student, bool) {
	s, ok := r.students[id]
	if !ok {
		return model.Student{}, false
	}
	delete(r.students, id)
	if i := slices.Index(r.order, id); i >= 0 {
		r.order = slices.Delete(r.order, i, i+1)
	}
	return *s, true
}

// RemoveIfConn removes the student only while it is still bound to connID,
// so a late disconnect of a replaced connection leaves the new one alone.
func (r *Roster) RemoveIfConn(id, connID string) bool {
	s, ok := r.students[id]
	if !ok || s.ConnID != connID {
		return false
	}
	_, removed := r.Remove(id)
	return removed
}

func (r *Roster) Get(id string) (model.Student, bool) {
	s, ok := r.students[id]
	if !ok {
		return model.Student{}, false
	}
	return *s, true
}

func (r *Roster) Len() int {
	return len(r.order)
}

// MarkAnswered flips HasAnswered and reports whether it changed.
func (r *Roster) MarkAnswered(id string) bool {
	s, ok := r.students[id]
	if !ok || s.HasAnswered {
		return false
	}
	s.HasAnswered = true
	return true
}

func (r *Roster) ResetAnswers() {
	for _, s := range r.students {
		s.HasAnswered = false
	}
}

func (r *Roster) AnsweredCount() int {
	n := 0
	for _, s := range r.students {
		if s.HasAnswered {
			n++
		}
	}
	return n
}

// Snapshot returns a copy of all students in join order.
func (r *Roster) Snapshot() []model.Student {
	out := make([]model.Student, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.students[id])
	}
	return out
}
