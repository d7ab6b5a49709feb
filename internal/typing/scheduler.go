// Package typing replays text into a sink one character at a time.
package typing

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/verte-zerg/faketype/internal/model"
)

var (
	// ErrEmptySource is returned when there is nothing to replay.
	ErrEmptySource = errors.New("source text is empty")
	// ErrInvalidConfig is returned when the speed settings are out of range.
	ErrInvalidConfig = errors.New("invalid speed config")
)

// Sink receives emitted characters and caret moves. Offsets are in runes.
type Sink interface {
	Clear()
	InsertAt(offset int, r rune)
	MoveCursorTo(offset int)
	ReplaceAll(text string)
}

// Transactor is implemented by sinks that can apply several edits as one
// atomic change.
type Transactor interface {
	Transact(fn func(Sink))
}

// State is the lifecycle state of a session.
type State int

// Session states. Completed and Aborted are terminal.
const (
	Running State = iota
	Paused
	Completed
	Aborted
)

// String returns the human-readable name of the state.
func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Paused:
		return "paused"
	case Completed:
		return "completed"
	case Aborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further emission can happen.
func (s State) Terminal() bool {
	return s == Completed || s == Aborted
}

// Scheduler starts typing sessions on a shared clock.
type Scheduler struct {
	clock Clock

	mu  sync.Mutex
	rnd *rand.Rand
}

// New returns a Scheduler on the system clock seeded with the current time.
func New() *Scheduler {
	return NewWithClock(SystemClock, time.Now().UnixNano())
}

// NewWithClock returns a Scheduler using clock and a deterministic seed.
func NewWithClock(clock Clock, seed int64) *Scheduler {
	return &Scheduler{
		clock: clock,
		rnd:   rand.New(rand.NewSource(seed)),
	}
}

// Start clears sink and begins replaying text into it. onComplete runs once
// after the last character; it never runs for an aborted session. Nothing is
// touched when Start returns an error.
func (s *Scheduler) Start(text string, cfg model.SpeedConfig, sink Sink, onComplete func()) (*Session, error) {
	if text == "" {
		return nil, ErrEmptySource
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	s.mu.Lock()
	seed := s.rnd.Int63()
	s.mu.Unlock()

	sess := &Session{
		text:       []rune(text),
		source:     text,
		cfg:        cfg,
		sink:       sink,
		onComplete: onComplete,
		clock:      s.clock,
		rnd:        rand.New(rand.NewSource(seed)),
		state:      Running,
	}
	sink.Clear()

	sess.mu.Lock()
	sess.scheduleLocked(0)
	sess.mu.Unlock()
	return sess, nil
}

// Session is one replay of a captured text. It is owned by the caller that
// started it.
type Session struct {
	text       []rune
	source     string
	cfg        model.SpeedConfig
	sink       Sink
	onComplete func()
	clock      Clock
	rnd        *rand.Rand

	// editMu serializes sink edits so that no emission lands after a restore.
	editMu sync.Mutex

	mu     sync.Mutex
	state  State
	cursor int
	timer  Timer
	gen    uint64
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Cursor returns the number of characters emitted so far.
func (s *Session) Cursor() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

// Len returns the number of characters in the source text.
func (s *Session) Len() int {
	return len(s.text)
}

// Config returns the speed settings captured at start.
func (s *Session) Config() model.SpeedConfig {
	return s.cfg
}

// Progress returns the fraction of characters emitted, in [0, 1].
func (s *Session) Progress() float64 {
	return float64(s.Cursor()) / float64(len(s.text))
}

// Pause stops emission until Resume. It reports whether the state changed.
func (s *Session) Pause() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Running {
		return false
	}
	s.state = Paused
	s.cancelLocked()
	return true
}

// Resume continues from the current cursor. The next character is emitted
// immediately, without waiting for a delay. It reports whether the state
// changed.
func (s *Session) Resume() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Paused {
		return false
	}
	s.state = Running
	s.scheduleLocked(0)
	return true
}

// Abort stops the session and writes the original text to restore. It must
// not be called from inside a Sink method. It reports whether the session
// was still active.
func (s *Session) Abort(restore Sink) bool {
	s.mu.Lock()
	if s.state.Terminal() {
		s.mu.Unlock()
		return false
	}
	s.state = Aborted
	s.cancelLocked()
	s.mu.Unlock()

	s.editMu.Lock()
	defer s.editMu.Unlock()
	if restore != nil {
		restore.ReplaceAll(s.source)
	}
	return true
}

func (s *Session) scheduleLocked(d time.Duration) {
	s.cancelLocked()
	gen := s.gen
	s.timer = s.clock.AfterFunc(d, func() {
		s.tick(gen)
	})
}

func (s *Session) cancelLocked() {
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Session) tick(gen uint64) {
	s.editMu.Lock()
	completed := s.step(gen)
	s.editMu.Unlock()
	if completed && s.onComplete != nil {
		s.onComplete()
	}
}

// step runs one tick with editMu held and reports whether the session just
// completed.
func (s *Session) step(gen uint64) bool {
	s.mu.Lock()
	if s.state != Running || gen != s.gen {
		s.mu.Unlock()
		return false
	}
	s.timer = nil
	if s.cursor >= len(s.text) {
		s.state = Completed
		s.mu.Unlock()
		return true
	}
	offset := s.cursor
	ch := s.text[offset]
	s.mu.Unlock()

	// The sink may call Pause from here, so the state lock is released.
	s.emit(offset, ch)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursor = offset + 1
	if s.state != Running {
		return false
	}
	if s.cursor == len(s.text) {
		s.state = Completed
		s.gen++
		return true
	}
	s.scheduleLocked(NextDelay(s.cfg, s.rnd, s.cursor+1 == len(s.text)))
	return false
}

func (s *Session) emit(offset int, ch rune) {
	defer func() {
		// Sink panics stay inside the tick.
		_ = recover()
	}()
	apply := func(e Sink) {
		e.InsertAt(offset, ch)
		e.MoveCursorTo(offset + 1)
	}
	if tx, ok := s.sink.(Transactor); ok {
		tx.Transact(apply)
		return
	}
	apply(s.sink)
}
