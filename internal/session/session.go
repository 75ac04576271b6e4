// Package session holds the presentation-side controller: the in-flight
// flag, the last error message and the playback sequencer that carries the
// displayed journey, wired together the way the player and keyboard expect.
package session

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/pbaille/wanderword/internal/domain"
	"github.com/pbaille/wanderword/internal/playback"
	"github.com/pbaille/wanderword/internal/resolver"
)

// DefaultAutoplayDelay is how long a freshly loaded journey waits before playing
const DefaultAutoplayDelay = 800 * time.Millisecond

// ErrEmptyInput is returned by Search for blank words
var ErrEmptyInput = resolver.ErrEmptyInput

// Resolver produces journeys
type Resolver interface {
	Resolve(ctx context.Context, word string) (domain.Journey, error)
}

// Key is a keyboard input relevant to playback
type Key int

const (
	KeyLeft Key = iota
	KeyRight
)

// Snapshot is what the shell renders
type Snapshot struct {
	Journey  *domain.Journey
	Playback playback.State
	Loading  bool
	Error    string
}

// Progress mirrors the sequencer's display fraction
func (s Snapshot) Progress() float64 { return s.Playback.Progress() }

// Option customizes a Session
type Option func(*Session)

// WithAutoplayDelay sets the pause between load and auto-play; 0 disables auto-play
func WithAutoplayDelay(d time.Duration) Option {
	return func(s *Session) { s.autoplay = d }
}

// WithScheduler sets the timer source for auto-play
func WithScheduler(sc playback.Scheduler) Option {
	return func(s *Session) {
		if sc != nil {
			s.sched = sc
		}
	}
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// Session coordinates searches and playback
type Session struct {
	resolver Resolver
	seq      *playback.Sequencer
	sched    playback.Scheduler
	logger   *slog.Logger
	autoplay time.Duration

	mu        sync.Mutex
	inFlight  int
	errMsg    string
	autoTimer playback.Timer
	autoGen   uint64
}

// New creates a Session over r and seq
func New(r Resolver, seq *playback.Sequencer, opts ...Option) *Session {
	s := &Session{
		resolver: r,
		seq:      seq,
		sched:    afterFunc{},
		logger:   slog.Default(),
		autoplay: DefaultAutoplayDelay,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sequencer exposes the playback state machine for direct commands
func (s *Session) Sequencer() *playback.Sequencer { return s.seq }

// Search resolves word and, on success, loads it for playback.
// On failure the displayed journey and cursor are left as they were.
// A new search does not cancel one already in flight; the last to finish wins.
func (s *Session) Search(ctx context.Context, word string) (domain.Journey, error) {
	word = strings.TrimSpace(word)
	if word == "" {
		return domain.Journey{}, ErrEmptyInput
	}

	s.mu.Lock()
	s.inFlight++
	s.errMsg = ""
	s.cancelAutoplayLocked()
	s.mu.Unlock()
	s.seq.Pause()

	j, err := s.resolver.Resolve(ctx, word)

	s.mu.Lock()
	s.inFlight--
	if err != nil {
		s.errMsg = FailureMessage(err)
		s.mu.Unlock()
		s.logger.Warn("search failed", "word", word, "error", err)
		return domain.Journey{}, err
	}
	s.mu.Unlock()

	// the sequencer holds the displayed journey; it notifies outside its lock
	s.seq.Load(j)

	s.mu.Lock()
	s.armAutoplayLocked()
	s.mu.Unlock()
	s.logger.Info("journey loaded", "word", j.Word, "source", j.Source, "waypoints", j.Len())
	return j, nil
}

// Key maps arrow keys to retreat/advance while a journey is shown and
// nothing is resolving. It reports whether the key was handled.
func (s *Session) Key(k Key) bool {
	loaded := s.seq.State().Loaded()
	s.mu.Lock()
	ready := loaded && s.inFlight == 0
	if ready {
		s.cancelAutoplayLocked()
	}
	s.mu.Unlock()
	if !ready {
		return false
	}

	switch k {
	case KeyLeft:
		s.seq.Retreat()
	case KeyRight:
		s.seq.Advance()
	default:
		return false
	}
	return true
}

// Play, Pause, Toggle, Reset and SetSpeed forward to the sequencer and
// cancel a pending auto-play.

func (s *Session) Play()   { s.userCommand(s.seq.Play) }
func (s *Session) Pause()  { s.userCommand(s.seq.Pause) }
func (s *Session) Toggle() { s.userCommand(s.seq.Toggle) }
func (s *Session) Reset()  { s.userCommand(s.seq.Reset) }

func (s *Session) SetSpeed(sp playback.Speed) error {
	s.mu.Lock()
	s.cancelAutoplayLocked()
	s.mu.Unlock()
	return s.seq.SetSpeed(sp)
}

// Dismiss clears the displayed journey (new search)
func (s *Session) Dismiss() {
	s.mu.Lock()
	s.cancelAutoplayLocked()
	s.errMsg = ""
	s.mu.Unlock()
	s.seq.Clear()
}

// ClearError hides the failure banner
func (s *Session) ClearError() {
	s.mu.Lock()
	s.errMsg = ""
	s.mu.Unlock()
}

// Snapshot returns the current view state
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	snap := Snapshot{Loading: s.inFlight > 0, Error: s.errMsg}
	s.mu.Unlock()
	j, st, ok := s.seq.Current()
	snap.Playback = st
	if ok {
		snap.Journey = &j
	}
	return snap
}

func (s *Session) userCommand(fn func()) {
	s.mu.Lock()
	s.cancelAutoplayLocked()
	s.mu.Unlock()
	fn()
}

func (s *Session) armAutoplayLocked() {
	s.cancelAutoplayLocked()
	if s.autoplay <= 0 {
		return
	}
	gen := s.autoGen
	s.autoTimer = s.sched.AfterFunc(s.autoplay, func() {
		s.mu.Lock()
		live := gen == s.autoGen
		s.autoTimer = nil
		s.mu.Unlock()
		if live {
			s.seq.Play()
		}
	})
}

func (s *Session) cancelAutoplayLocked() {
	s.autoGen++
	if s.autoTimer != nil {
		s.autoTimer.Stop()
		s.autoTimer = nil
	}
}

// FailureMessage renders a short, human-readable message for a failed search
func FailureMessage(err error) string {
	var rerr *resolver.ResolutionError
	switch {
	case errors.Is(err, ErrEmptyInput):
		return "Enter a word to trace."
	case errors.As(err, &rerr) && rerr.Kind == resolver.NotFound:
		return "No journey found for that word."
	case errors.As(err, &rerr):
		return "Could not trace this word's roots. Try again later."
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "Search cancelled."
	default:
		return "Research failed."
	}
}

type afterFunc struct{}

func (afterFunc) AfterFunc(d time.Duration, f func()) playback.Timer {
	return time.AfterFunc(d, f)
}
