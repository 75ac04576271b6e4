// Package playback drives a cursor through a journey's waypoints on a timer.
//
// A loaded sequencer starts paused at cursor -1 (the origin). While playing,
// one advance is scheduled every BaseInterval/speed; reaching the last
// waypoint pauses automatically. At most one advance is pending at any time
// and every transition out of Playing cancels it.
package playback

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/pbaille/wanderword/internal/domain"
)

// BaseInterval is the delay between waypoints at speed 1
const BaseInterval = 2000 * time.Millisecond

// Speed is a playback rate multiplier
type Speed float64

const (
	SpeedHalf   Speed = 0.5
	SpeedNormal Speed = 1
	SpeedDouble Speed = 2
)

// Speeds lists the accepted rates in ascending order
var Speeds = []Speed{SpeedHalf, SpeedNormal, SpeedDouble}

// ErrInvalidSpeed is returned by SetSpeed for unsupported rates
var ErrInvalidSpeed = errors.New("invalid playback speed")

// Interval is the delay before the next advance at speed s
func (s Speed) Interval() time.Duration {
	return time.Duration(float64(BaseInterval) / float64(s))
}

func (s Speed) valid() bool {
	for _, v := range Speeds {
		if s == v {
			return true
		}
	}
	return false
}

func (s Speed) String() string {
	return fmt.Sprintf("%gx", float64(s))
}

// Status is the coarse state of the sequencer
type Status int

const (
	Idle Status = iota
	Paused
	Playing
)

func (s Status) String() string {
	switch s {
	case Paused:
		return "paused"
	case Playing:
		return "playing"
	default:
		return "idle"
	}
}

// State is a snapshot of the playback state. Epoch increments on every Load.
type State struct {
	Status Status
	Cursor int
	Length int
	Speed  Speed
	Epoch  uint64
}

// IsPlaying reports whether an advance is scheduled
func (s State) IsPlaying() bool { return s.Status == Playing }

// Loaded reports whether a journey is loaded
func (s State) Loaded() bool { return s.Status != Idle }

// CanAdvance reports whether a further waypoint exists
func (s State) CanAdvance() bool { return s.Loaded() && s.Cursor < s.Length-1 }

// CanRetreat reports whether the cursor is past the origin
func (s State) CanRetreat() bool { return s.Loaded() && s.Cursor > -1 }

// Progress is (cursor+1)/(length+1): 0 at the origin, never 1 for a finite journey
func (s State) Progress() float64 {
	if !s.Loaded() {
		return 0
	}
	return float64(s.Cursor+1) / float64(s.Length+1)
}

// Timer is a cancellable scheduled call
type Timer interface {
	Stop() bool
}

// Scheduler arms timers. The default uses time.AfterFunc.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Option customizes a Sequencer
type Option func(*Sequencer)

// WithScheduler replaces the timer source
func WithScheduler(s Scheduler) Option {
	return func(q *Sequencer) {
		if s != nil {
			q.sched = s
		}
	}
}

// WithNotify registers a callback invoked after every state change.
// It runs outside the sequencer lock, possibly on a timer goroutine.
func WithNotify(fn func(State)) Option {
	return func(q *Sequencer) { q.notify = fn }
}

// Sequencer is the playback state machine
type Sequencer struct {
	mu      sync.Mutex
	journey *domain.Journey
	cursor  int
	status  Status
	speed   Speed
	epoch   uint64

	sched  Scheduler
	timer  Timer
	gen    uint64
	notify func(State)
}

// New creates an idle Sequencer
func New(opts ...Option) *Sequencer {
	q := &Sequencer{
		cursor: -1,
		speed:  SpeedNormal,
		sched:  realScheduler{},
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Load resets playback to the origin of j, paused, at speed 1
func (q *Sequencer) Load(j domain.Journey) {
	q.mutate(func() {
		q.disarm()
		c := j.Clone()
		q.journey = &c
		q.epoch++
		q.cursor = -1
		q.status = Paused
		q.speed = SpeedNormal
	})
}

// Clear unloads the journey
func (q *Sequencer) Clear() {
	q.mutate(func() {
		q.disarm()
		q.journey = nil
		q.cursor = -1
		q.status = Idle
		q.speed = SpeedNormal
	})
}

// Journey returns the loaded journey
func (q *Sequencer) Journey() (domain.Journey, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.journey == nil {
		return domain.Journey{}, false
	}
	return q.journey.Clone(), true
}

// Current returns the loaded journey together with the state it belongs to
func (q *Sequencer) Current() (domain.Journey, State, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	st := q.snapshot()
	if q.journey == nil {
		return domain.Journey{}, st, false
	}
	return q.journey.Clone(), st, true
}

// Play starts auto-advance. It is a no-op at the last waypoint or when idle.
func (q *Sequencer) Play() {
	q.mutate(func() {
		if q.status == Idle || q.status == Playing || q.atEnd() {
			return
		}
		q.status = Playing
		q.arm()
	})
}

// Pause cancels any pending advance
func (q *Sequencer) Pause() {
	q.mutate(func() {
		if q.status != Playing {
			return
		}
		q.disarm()
		q.status = Paused
	})
}

// Toggle switches between Play and Pause
func (q *Sequencer) Toggle() {
	if q.State().IsPlaying() {
		q.Pause()
		return
	}
	q.Play()
}

// Advance moves to the next waypoint. At the last waypoint it only stops playback.
func (q *Sequencer) Advance() {
	q.mutate(q.advance)
}

func (q *Sequencer) advance() {
	if q.status == Idle {
		return
	}
	if q.atEnd() {
		q.disarm()
		q.status = Paused
		return
	}
	q.cursor++
	if q.status != Playing {
		return
	}
	if q.atEnd() {
		q.disarm()
		q.status = Paused
		return
	}
	q.arm()
}

// Retreat steps back one waypoint, floored at the origin. Play state is kept.
func (q *Sequencer) Retreat() {
	q.mutate(func() {
		if q.status == Idle || q.cursor <= -1 {
			return
		}
		q.cursor--
		if q.status == Playing {
			q.arm()
		}
	})
}

// Reset returns to the origin, paused
func (q *Sequencer) Reset() {
	q.mutate(func() {
		if q.status == Idle {
			return
		}
		q.disarm()
		q.cursor = -1
		q.status = Paused
	})
}

// SetSpeed changes the rate. A pending advance keeps its original delay.
func (q *Sequencer) SetSpeed(s Speed) error {
	if !s.valid() {
		return fmt.Errorf("%w: %v", ErrInvalidSpeed, float64(s))
	}
	q.mutate(func() { q.speed = s })
	return nil
}

// State returns a snapshot
func (q *Sequencer) State() State {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.snapshot()
}

// Progress is the display fraction for the current cursor
func (q *Sequencer) Progress() float64 {
	return q.State().Progress()
}

func (q *Sequencer) snapshot() State {
	s := State{Status: q.status, Cursor: q.cursor, Speed: q.speed, Epoch: q.epoch}
	if q.journey != nil {
		s.Length = q.journey.Len()
	}
	return s
}

func (q *Sequencer) atEnd() bool {
	return q.journey == nil || q.cursor >= q.journey.Len()-1
}

// arm replaces any pending advance with a fresh one. Caller holds mu.
func (q *Sequencer) arm() {
	q.disarm()
	gen := q.gen
	q.timer = q.sched.AfterFunc(q.speed.Interval(), func() { q.fire(gen) })
}

// disarm cancels the pending advance. Caller holds mu.
func (q *Sequencer) disarm() {
	q.gen++
	if q.timer != nil {
		q.timer.Stop()
		q.timer = nil
	}
}

func (q *Sequencer) fire(gen uint64) {
	q.mutate(func() {
		// a timer that lost the race with Stop must not act on newer state
		if gen != q.gen || q.status != Playing {
			return
		}
		q.timer = nil
		q.advance()
	})
}

// mutate runs fn under the lock and notifies if the state changed
func (q *Sequencer) mutate(fn func()) {
	q.mu.Lock()
	before := q.snapshot()
	fn()
	after := q.snapshot()
	notify := q.notify
	q.mu.Unlock()

	if notify != nil && before != after {
		notify(after)
	}
}
