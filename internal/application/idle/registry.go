package idle

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/KenzoYff/evently-ux-platform-94/internal/domain"
	"github.com/KenzoYff/evently-ux-platform-94/internal/pkg/clock"
)

// Registry owns the idle timer of every live session on this instance.
type Registry struct {
	clock      clock.Clock
	events     Events
	terminator Terminator

	mu     sync.Mutex
	timers map[string]*Timer
}

func NewRegistry(clk clock.Clock, events Events, terminator Terminator) *Registry {
	if clk == nil {
		clk = clock.Real()
	}
	return &Registry{
		clock:      clk,
		events:     events,
		terminator: terminator,
		timers:     make(map[string]*Timer),
	}
}

// Start begins a new idle cycle for sessionID, replacing any previous timer.
func (r *Registry) Start(subjectID, sessionID string, timeout time.Duration) error {
	t := NewTimer(TimerConfig{
		SubjectID:  subjectID,
		SessionID:  sessionID,
		Clock:      r.clock,
		Events:     r.events,
		Terminator: r.terminator,
	})

	r.mu.Lock()
	prev := r.timers[sessionID]
	r.timers[sessionID] = t
	r.mu.Unlock()

	if prev != nil {
		prev.Stop()
	}
	if err := t.Start(timeout); err != nil {
		r.remove(sessionID, t)
		return err
	}
	return nil
}

// Touch records activity on sessionID. It returns ErrNotFound when this
// instance holds no timer for the session.
func (r *Registry) Touch(sessionID string) error {
	t := r.get(sessionID)
	if t == nil {
		return fmt.Errorf("idle timer %s: %w", sessionID, domain.ErrNotFound)
	}
	return t.Activity()
}

// Stop cancels and forgets the timer of sessionID.
func (r *Registry) Stop(sessionID string) {
	r.mu.Lock()
	t := r.timers[sessionID]
	delete(r.timers, sessionID)
	r.mu.Unlock()

	if t != nil {
		t.Stop()
	}
}

// StopSubject cancels and forgets every timer of subjectID and returns how
// many were stopped. Used when all of a user's sessions end at once.
func (r *Registry) StopSubject(subjectID string) int {
	var owned []*Timer
	r.mu.Lock()
	for id, t := range r.timers {
		if t.subjectID == subjectID {
			owned = append(owned, t)
			delete(r.timers, id)
		}
	}
	r.mu.Unlock()

	for _, t := range owned {
		t.Stop()
	}
	return len(owned)
}

// Reconfigure restarts every running timer of subjectID with a new timeout
// and returns how many were restarted.
func (r *Registry) Reconfigure(subjectID string, timeout time.Duration) (int, error) {
	if timeout <= 0 {
		return 0, fmt.Errorf("idle timeout must be positive: %w", domain.ErrBadRequest)
	}
	var owned []*Timer
	r.mu.Lock()
	for _, t := range r.timers {
		if t.subjectID == subjectID {
			owned = append(owned, t)
		}
	}
	r.mu.Unlock()

	n := 0
	for _, t := range owned {
		st := t.Snapshot()
		if st.Stopped || st.Status == StatusExpired {
			continue
		}
		if err := t.Start(timeout); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func (r *Registry) Snapshot(sessionID string) (State, bool) {
	t := r.get(sessionID)
	if t == nil {
		return State{}, false
	}
	return t.Snapshot(), true
}

// Sweep forgets stopped timers and expired timers whose session was
// terminated, and returns how many it removed. Expired timers whose
// termination failed are retried and kept until it succeeds, so the
// session stays rejected in the meantime.
func (r *Registry) Sweep(ctx context.Context) int {
	retry := make(map[string]*Timer)
	n := 0
	r.mu.Lock()
	for id, t := range r.timers {
		st := t.Snapshot()
		switch {
		case st.Stopped, st.Status == StatusExpired && st.Terminated:
			delete(r.timers, id)
			n++
		case st.Status == StatusExpired:
			retry[id] = t
		}
	}
	r.mu.Unlock()

	for id, t := range retry {
		if err := t.RetryTermination(ctx); err != nil {
			slog.Warn("idle session termination retry failed", "user_id", t.subjectID, "session_id", id, "err", err)
			continue
		}
		r.remove(id, t)
		n++
	}
	return n
}

// Len returns the number of tracked sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.timers)
}

func (r *Registry) get(sessionID string) *Timer {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.timers[sessionID]
}

func (r *Registry) remove(sessionID string, t *Timer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.timers[sessionID] == t {
		delete(r.timers, sessionID)
	}
}
