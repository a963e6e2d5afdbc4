// Package session holds the per-user scanner state: the uploaded lookup
// table and the capture flow of the current scan. Sessions live only in
// memory.
package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"bezirk_scanner/internal/lookup"
	"bezirk_scanner/internal/streets"
)

// State is a step of the capture flow.
type State string

const (
	StateIdle       State = "IDLE"
	StateCamera     State = "CAMERA"
	StateProcessing State = "PROCESSING_IMAGE"
	StateResult     State = "RESULT"
	StateError      State = "ERROR"
)

var (
	// ErrStale is returned when a scan finishes after the flow moved on.
	// Its result must be dropped.
	ErrStale = errors.New("scan superseded")
	// ErrInvalidTransition is returned for a step the current state does not allow.
	ErrInvalidTransition = errors.New("invalid flow transition")
)

// Ticket identifies one processing attempt.
type Ticket struct {
	generation uint64
}

// Session is the context object passed to the resolver and the loader.
type Session struct {
	ID        string
	CreatedAt time.Time

	table atomic.Pointer[lookup.Table]

	mu         sync.Mutex
	state      State
	generation uint64
	cancel     context.CancelFunc
	lastResult *streets.Result
	lastError  string
}

// New returns an idle session with an empty table.
func New(id string) *Session {
	s := &Session{
		ID:        id,
		CreatedAt: time.Now(),
		state:     StateIdle,
	}
	s.table.Store(lookup.New(nil))
	return s
}

// Table returns the current table. Readers always see a complete table.
func (s *Session) Table() *lookup.Table {
	return s.table.Load()
}

// ReplaceTable swaps the table in one step.
func (s *Session) ReplaceTable(t *lookup.Table) {
	if t == nil {
		t = lookup.New(nil)
	}
	s.table.Store(t)
}

// ClearTable drops all imported entries.
func (s *Session) ClearTable() {
	s.table.Store(lookup.New(nil))
}

// State returns the current flow step.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// OpenCamera moves IDLE to CAMERA.
func (s *Session) OpenCamera() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateIdle {
		return ErrInvalidTransition
	}
	s.state = StateCamera
	return nil
}

// CloseCamera returns to IDLE from CAMERA or PROCESSING_IMAGE. A scan in
// flight is cancelled and its result will be stale.
func (s *Session) CloseCamera() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateCamera && s.state != StateProcessing {
		return ErrInvalidTransition
	}
	s.invalidateLocked()
	s.state = StateIdle
	return nil
}

// BeginProcessing starts a scan from any state. The returned context is
// cancelled when the scan is superseded, reset or the session ends.
func (s *Session) BeginProcessing(ctx context.Context) (context.Context, Ticket) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.invalidateLocked()
	scanCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.state = StateProcessing
	s.lastError = ""
	s.lastResult = nil
	return scanCtx, Ticket{generation: s.generation}
}

// Complete stores the result and moves to RESULT.
func (s *Session) Complete(t Ticket, result streets.Result) error {
	return s.finish(t, func() {
		s.state = StateResult
		s.lastResult = &result
	})
}

// Abandon returns to IDLE without a result, as after an unreadable sign.
func (s *Session) Abandon(t Ticket) error {
	return s.finish(t, func() {
		s.state = StateIdle
	})
}

// Fail moves to ERROR and keeps message for display.
func (s *Session) Fail(t Ticket, message string) error {
	return s.finish(t, func() {
		s.state = StateError
		s.lastError = message
	})
}

func (s *Session) finish(t Ticket, apply func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.generation != s.generation || s.state != StateProcessing {
		return ErrStale
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	apply()
	return nil
}

// Reset goes back to IDLE and forgets the last result.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invalidateLocked()
	s.state = StateIdle
	s.lastResult = nil
	s.lastError = ""
}

// Close cancels any scan in flight. Called when the session is removed.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invalidateLocked()
}

func (s *Session) invalidateLocked() {
	s.generation++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// Status is a point-in-time view of a session.
type Status struct {
	ID         string          `json:"id"`
	State      State           `json:"state"`
	TableSize  int             `json:"tableSize"`
	LastResult *streets.Result `json:"lastResult,omitempty"`
	LastError  string          `json:"lastError,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// Status snapshots the session.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Status{
		ID:        s.ID,
		State:     s.state,
		TableSize: s.Table().Len(),
		LastError: s.lastError,
		CreatedAt: s.CreatedAt,
	}
	if s.lastResult != nil {
		r := *s.lastResult
		st.LastResult = &r
	}
	return st
}
