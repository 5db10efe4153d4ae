// Package idle enforces automatic sign-out after a period without user
// activity. Each session owns one Timer: it warns WarningLead before the
// deadline and terminates the session at the deadline unless activity
// re-arms it first.
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

// WarningLead is how long before expiry the warning fires.
const WarningLead = 2 * time.Minute

// callbackTimeout bounds the outbound calls made from timer callbacks.
const callbackTimeout = 10 * time.Second

type Status string

const (
	StatusActive        Status = "active"
	StatusWarningIssued Status = "warning_issued"
	StatusExpired       Status = "expired"
)

// Events receives the user-visible notices of an idle cycle.
type Events interface {
	Warning(ctx context.Context, subjectID, sessionID string, remaining time.Duration)
	Expired(ctx context.Context, subjectID, sessionID string)
}

// Terminator ends a session, e.g. by disabling it in the session store.
type Terminator interface {
	Terminate(ctx context.Context, subjectID, sessionID string) error
}

// TerminatorFunc adapts a function to Terminator.
type TerminatorFunc func(ctx context.Context, subjectID, sessionID string) error

func (f TerminatorFunc) Terminate(ctx context.Context, subjectID, sessionID string) error {
	return f(ctx, subjectID, sessionID)
}

// State is a point-in-time copy of a timer.
type State struct {
	SubjectID      string        `json:"subject_id"`
	SessionID      string        `json:"session_id"`
	Status         Status        `json:"status"`
	Stopped        bool          `json:"stopped"`
	// Terminated reports that the terminator succeeded after expiry.
	Terminated     bool          `json:"terminated"`
	Timeout        time.Duration `json:"timeout"`
	LastActivityAt time.Time     `json:"last_activity_at"`
	ExpiresAt      time.Time     `json:"expires_at"`
}

// Timer tracks one session's idle cycle. The zero value is not usable;
// create timers with NewTimer.
type Timer struct {
	subjectID  string
	sessionID  string
	clock      clock.Clock
	events     Events
	terminator Terminator

	mu             sync.Mutex
	gen            uint64
	timeout        time.Duration
	lastActivityAt time.Time
	status         Status
	started        bool
	stopped        bool
	terminated     bool
	warn           *clock.Timer
	expire         *clock.Timer
}

type TimerConfig struct {
	SubjectID  string
	SessionID  string
	Clock      clock.Clock
	Events     Events
	Terminator Terminator
}

func NewTimer(cfg TimerConfig) *Timer {
	clk := cfg.Clock
	if clk == nil {
		clk = clock.Real()
	}
	return &Timer{
		subjectID:  cfg.SubjectID,
		sessionID:  cfg.SessionID,
		clock:      clk,
		events:     cfg.Events,
		terminator: cfg.Terminator,
	}
}

// Start arms the timer with a fresh idle cycle of length timeout.
// It may be called again to restart with a different timeout.
func (t *Timer) Start(timeout time.Duration) error {
	if timeout <= 0 {
		return fmt.Errorf("idle timeout must be positive: %w", domain.ErrBadRequest)
	}
	t.mu.Lock()
	t.timeout = timeout
	t.started = true
	t.stopped = false
	gen, warnNow := t.armLocked()
	t.mu.Unlock()

	if warnNow {
		t.fireWarning(gen)
	}
	return nil
}

// Activity records user interaction and restarts the idle cycle.
// It fails with ErrSessionExpired once the timer has expired or been stopped.
func (t *Timer) Activity() error {
	t.mu.Lock()
	if !t.started || t.stopped || t.status == StatusExpired {
		t.mu.Unlock()
		return domain.ErrSessionExpired
	}
	gen, warnNow := t.armLocked()
	t.mu.Unlock()

	if warnNow {
		t.fireWarning(gen)
	}
	return nil
}

// Stop cancels pending callbacks. A stopped timer never fires again.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
	t.gen++
	t.cancelLocked()
}

func (t *Timer) Snapshot() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return State{
		SubjectID:      t.subjectID,
		SessionID:      t.sessionID,
		Status:         t.status,
		Stopped:        t.stopped,
		Terminated:     t.terminated,
		Timeout:        t.timeout,
		LastActivityAt: t.lastActivityAt,
		ExpiresAt:      t.lastActivityAt.Add(t.timeout),
	}
}

// armLocked cancels pending callbacks and schedules a new cycle from now.
// When the warning is already due it is not scheduled; the caller fires it
// after releasing the lock.
func (t *Timer) armLocked() (gen uint64, warnNow bool) {
	t.cancelLocked()
	t.gen++
	gen = t.gen
	t.lastActivityAt = t.clock.Now()
	t.status = StatusActive
	t.terminated = false

	t.expire = t.clock.AfterFunc(t.timeout, func() { t.fireExpiry(gen) })
	warnDelay := t.timeout - WarningLead
	if warnDelay <= 0 {
		return gen, true
	}
	t.warn = t.clock.AfterFunc(warnDelay, func() { t.fireWarning(gen) })
	return gen, false
}

func (t *Timer) cancelLocked() {
	t.warn.Stop()
	t.expire.Stop()
	t.warn, t.expire = nil, nil
}

func (t *Timer) fireWarning(gen uint64) {
	t.mu.Lock()
	if gen != t.gen || t.stopped || t.status != StatusActive {
		t.mu.Unlock()
		return
	}
	t.status = StatusWarningIssued
	remaining := WarningLead
	if t.timeout < remaining {
		remaining = t.timeout
	}
	t.mu.Unlock()

	if t.events == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), callbackTimeout)
	defer cancel()
	t.events.Warning(ctx, t.subjectID, t.sessionID, remaining)
}

func (t *Timer) fireExpiry(gen uint64) {
	t.mu.Lock()
	if gen != t.gen || t.stopped || t.status == StatusExpired {
		t.mu.Unlock()
		return
	}
	t.status = StatusExpired
	t.cancelLocked()
	t.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), callbackTimeout)
	defer cancel()
	if t.events != nil {
		t.events.Expired(ctx, t.subjectID, t.sessionID)
	}
	if err := t.terminate(ctx); err != nil {
		slog.Warn("idle session termination failed", "user_id", t.subjectID, "session_id", t.sessionID, "err", err)
	}
}

// RetryTermination runs the terminator again for an expired timer whose
// termination failed. It is a no-op for any other timer.
func (t *Timer) RetryTermination(ctx context.Context) error {
	t.mu.Lock()
	pending := t.status == StatusExpired && !t.stopped && !t.terminated
	t.mu.Unlock()
	if !pending {
		return nil
	}
	return t.terminate(ctx)
}

func (t *Timer) terminate(ctx context.Context) error {
	if t.terminator != nil {
		if err := t.terminator.Terminate(ctx, t.subjectID, t.sessionID); err != nil {
			return err
		}
	}
	t.mu.Lock()
	t.terminated = true
	t.mu.Unlock()
	return nil
}
