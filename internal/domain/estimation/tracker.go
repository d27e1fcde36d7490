package estimation

import (
	"context"
	"sync"
	"time"
)

// idleSessionTTL bounds how long a settled session's view is kept without activity.
const idleSessionTTL = 12 * time.Hour

type State string

const (
	StateIdle       State = "idle"
	StateRequesting State = "requesting"
	StateSucceeded  State = "succeeded"
	StateFailed     State = "failed"
)

type session struct {
	generation uint64
	cancel     context.CancelCauseFunc
	view       View
	touched    time.Time
}

// Tracker holds per-session estimation state. Each run gets a new generation;
// only the latest generation of a session may publish its result.
type Tracker struct {
	mu        sync.Mutex
	sessions  map[string]*session
	now       func() time.Time
	nextSweep time.Time
}

func NewTracker() *Tracker {
	return &Tracker{sessions: make(map[string]*session), now: time.Now}
}

func (t *Tracker) get(key string) *session {
	s, ok := t.sessions[key]
	if !ok {
		s = &session{view: View{State: StateIdle}}
		t.sessions[key] = s
	}
	return s
}

// sweep drops settled sessions untouched for idleSessionTTL. Runs in flight are kept.
func (t *Tracker) sweep(now time.Time) {
	if now.Before(t.nextSweep) {
		return
	}
	t.nextSweep = now.Add(time.Minute)
	for key, s := range t.sessions {
		if s.view.State != StateRequesting && now.Sub(s.touched) > idleSessionTTL {
			delete(t.sessions, key)
		}
	}
}

// Begin starts a new generation for key, cancelling any run still in flight.
func (t *Tracker) Begin(parent context.Context, key string, inputs Inputs) (context.Context, uint64, func()) {
	ctx, cancel := context.WithCancelCause(parent)

	t.mu.Lock()
	now := t.now()
	t.sweep(now)
	s := t.get(key)
	s.touched = now
	if s.cancel != nil {
		s.cancel(ErrSuperseded)
	}
	s.generation++
	s.cancel = cancel
	s.view = View{State: StateRequesting, Generation: s.generation, Inputs: inputs}
	gen := s.generation
	t.mu.Unlock()

	return ctx, gen, func() { cancel(nil) }
}

// Finish publishes the outcome of generation gen. It returns false when a newer
// generation, a cancellation or a forgotten session has made the outcome stale.
func (t *Tracker) Finish(key string, gen uint64, manifest Manifest, err error) (View, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.sessions[key]
	if !ok {
		return View{}, false
	}
	if s.generation != gen {
		return s.view, false
	}
	s.cancel = nil
	s.touched = t.now()
	if err != nil {
		s.view.State = StateFailed
		s.view.Manifest = nil
		s.view.Error = NewViewError(err)
	} else {
		m := manifest
		s.view.State = StateSucceeded
		s.view.Manifest = &m
		s.view.Error = nil
	}
	return s.view, true
}

// Cancel aborts the in-flight run for key and returns the session to idle.
func (t *Tracker) Cancel(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.sessions[key]
	if !ok || s.view.State != StateRequesting {
		return false
	}
	if s.cancel != nil {
		s.cancel(ErrCancelled)
		s.cancel = nil
	}
	s.generation++
	s.view = View{State: StateIdle, Generation: s.generation}
	s.touched = t.now()
	return true
}

func (t *Tracker) View(key string) View {
	t.mu.Lock()
	defer t.mu.Unlock()

	if s, ok := t.sessions[key]; ok {
		return s.view
	}
	return View{State: StateIdle}
}

// Forget drops all state for key, cancelling any run in flight.
func (t *Tracker) Forget(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if s, ok := t.sessions[key]; ok && s.cancel != nil {
		s.cancel(ErrCancelled)
	}
	delete(t.sessions, key)
}
