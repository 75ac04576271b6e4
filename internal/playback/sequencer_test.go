package playback

import (
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/pbaille/wanderword/internal/archive"
	"github.com/pbaille/wanderword/internal/domain"
)

type fakeTimer struct {
	d       time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped && !t.fired
	t.stopped = true
	return was
}

// fakeScheduler records timers; tests fire them by hand
type fakeScheduler struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTimer{d: d, f: f}
	s.timers = append(s.timers, t)
	return t
}

func (s *fakeScheduler) pending() []*fakeTimer {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*fakeTimer
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			out = append(out, t)
		}
	}
	return out
}

// fire runs the single pending timer and returns its delay
func (s *fakeScheduler) fire(t *testing.T) time.Duration {
	t.Helper()
	p := s.pending()
	if len(p) != 1 {
		t.Fatalf("expected exactly one pending timer, got %d", len(p))
	}
	p[0].fired = true
	p[0].f()
	return p[0].d
}

func journeyOf(n int) domain.Journey {
	j := domain.Journey{Word: "w"}
	for i := 0; i < n; i++ {
		j.Waypoints = append(j.Waypoints, domain.Waypoint{Word: "w"})
	}
	return j
}

func newTestSequencer() (*Sequencer, *fakeScheduler) {
	s := &fakeScheduler{}
	return New(WithScheduler(s)), s
}

func TestLoadInitialState(t *testing.T) {
	q, _ := newTestSequencer()
	if q.State().Status != Idle {
		t.Fatalf("new sequencer should be idle")
	}
	q.Load(journeyOf(3))
	st := q.State()
	if st.Cursor != -1 || st.IsPlaying() || st.Speed != SpeedNormal || st.Status != Paused {
		t.Fatalf("unexpected state after load: %+v", st)
	}
}

func TestLoadResetsPreviousPlayback(t *testing.T) {
	q, s := newTestSequencer()
	q.Load(journeyOf(3))
	q.SetSpeed(SpeedDouble)
	q.Play()
	s.fire(t)

	q.Load(journeyOf(5))
	st := q.State()
	if st.Cursor != -1 || st.IsPlaying() || st.Speed != SpeedNormal || st.Length != 5 {
		t.Fatalf("load must start fresh: %+v", st)
	}
	if len(s.pending()) != 0 {
		t.Fatalf("load must cancel the pending advance")
	}
}

func TestPlayAdvancesAfterInterval(t *testing.T) {
	for _, speed := range Speeds {
		q, s := newTestSequencer()
		q.Load(journeyOf(4))
		if err := q.SetSpeed(speed); err != nil {
			t.Fatalf("set speed: %v", err)
		}
		q.Play()
		if !q.State().IsPlaying() {
			t.Fatalf("expected playing")
		}
		d := s.fire(t)
		if want := time.Duration(float64(2000*time.Millisecond) / float64(speed)); d != want {
			t.Fatalf("speed %v: expected delay %v, got %v", speed, want, d)
		}
		if got := q.State().Cursor; got != 0 {
			t.Fatalf("expected cursor 0 after one interval, got %d", got)
		}
	}
}

func TestPauseBeforeIntervalKeepsCursor(t *testing.T) {
	q, s := newTestSequencer()
	q.Load(journeyOf(4))
	q.Play()
	timer := s.pending()[0]
	q.Pause()

	if !timer.stopped {
		t.Fatalf("pause must cancel the pending advance")
	}
	// a late fire from a timer that already left the heap is ignored
	timer.f()
	st := q.State()
	if st.Cursor != -1 || st.IsPlaying() {
		t.Fatalf("unexpected state %+v", st)
	}
}

func TestTeaPlaysToCompletion(t *testing.T) {
	tea, ok := archive.Default().Lookup("tea")
	if !ok {
		t.Fatalf("tea missing")
	}
	q, s := newTestSequencer()
	q.Load(tea)

	visited := []int{q.State().Cursor}
	q.Play()
	for q.State().IsPlaying() {
		s.fire(t)
		visited = append(visited, q.State().Cursor)
	}

	if want := []int{-1, 0, 1, 2, 3}; !reflect.DeepEqual(visited, want) {
		t.Fatalf("visited %v, want %v", visited, want)
	}
	if len(s.pending()) != 0 {
		t.Fatalf("terminal index must leave no pending advance")
	}
	if p := q.Progress(); p != 0.8 {
		t.Fatalf("expected progress 0.8 at the last waypoint, got %v", p)
	}
}

func TestAdvanceAtEnd(t *testing.T) {
	q, _ := newTestSequencer()
	q.Load(journeyOf(2))
	q.Advance()
	q.Advance()
	if got := q.State().Cursor; got != 1 {
		t.Fatalf("expected cursor 1, got %d", got)
	}

	q.Advance()
	st := q.State()
	if st.Cursor != 1 || st.IsPlaying() {
		t.Fatalf("advance at end must not move and must stop playback: %+v", st)
	}
}

func TestPlayAtEndIsNoop(t *testing.T) {
	q, s := newTestSequencer()
	q.Load(journeyOf(2))
	q.Advance()
	q.Advance()
	q.Play()
	if q.State().IsPlaying() {
		t.Fatalf("play at the last index must not enter playing")
	}
	if len(s.pending()) != 0 {
		t.Fatalf("no timer expected")
	}
}

func TestRetreat(t *testing.T) {
	q, s := newTestSequencer()
	q.Load(journeyOf(3))
	q.Retreat()
	if got := q.State().Cursor; got != -1 {
		t.Fatalf("retreat at origin is a no-op, got %d", got)
	}

	q.Advance()
	q.Advance()
	q.Play()
	q.Retreat()
	st := q.State()
	if st.Cursor != 0 || !st.IsPlaying() {
		t.Fatalf("retreat keeps play state: %+v", st)
	}
	if len(s.pending()) != 1 {
		t.Fatalf("exactly one advance pending after retreat, got %d", len(s.pending()))
	}
}

func TestReset(t *testing.T) {
	q, s := newTestSequencer()
	q.Load(journeyOf(3))
	q.Play()
	s.fire(t)
	q.Reset()
	st := q.State()
	if st.Cursor != -1 || st.IsPlaying() {
		t.Fatalf("unexpected state after reset %+v", st)
	}
	if len(s.pending()) != 0 {
		t.Fatalf("reset must cancel the pending advance")
	}
}

func TestSetSpeedKeepsPendingDelay(t *testing.T) {
	q, s := newTestSequencer()
	q.Load(journeyOf(4))
	q.Play()
	if err := q.SetSpeed(SpeedDouble); err != nil {
		t.Fatalf("set speed: %v", err)
	}
	if d := s.fire(t); d != 2000*time.Millisecond {
		t.Fatalf("pending advance must keep its delay, got %v", d)
	}
	if d := s.fire(t); d != 1000*time.Millisecond {
		t.Fatalf("next advance uses the new speed, got %v", d)
	}
}

func TestSetSpeedRejectsUnknown(t *testing.T) {
	q, _ := newTestSequencer()
	for _, s := range []Speed{0, 1.5, 3, -1} {
		if err := q.SetSpeed(s); !errors.Is(err, ErrInvalidSpeed) {
			t.Fatalf("speed %v: expected ErrInvalidSpeed, got %v", s, err)
		}
	}
}

func TestAtMostOnePendingAdvance(t *testing.T) {
	q, s := newTestSequencer()
	q.Load(journeyOf(6))
	q.Play()
	q.Play()
	q.Advance()
	q.Retreat()
	q.Advance()
	q.Toggle()
	q.Toggle()
	if n := len(s.pending()); n != 1 {
		t.Fatalf("expected one pending advance, got %d", n)
	}
}

func TestProgress(t *testing.T) {
	q, _ := newTestSequencer()
	if q.Progress() != 0 {
		t.Fatalf("idle progress should be 0")
	}
	q.Load(journeyOf(4))
	want := []float64{0, 0.2, 0.4, 0.6, 0.8}
	for i, w := range want {
		if got := q.Progress(); got != w {
			t.Fatalf("step %d: progress %v, want %v", i, got, w)
		}
		q.Advance()
	}
}

func TestClear(t *testing.T) {
	q, s := newTestSequencer()
	q.Load(journeyOf(3))
	q.Play()
	q.Clear()
	if st := q.State(); st.Loaded() || st.IsPlaying() {
		t.Fatalf("unexpected state after clear %+v", st)
	}
	if len(s.pending()) != 0 {
		t.Fatalf("clear must cancel the pending advance")
	}
	q.Play()
	q.Advance()
	if st := q.State(); st.Loaded() || st.Cursor != -1 {
		t.Fatalf("commands on an idle sequencer are ignored: %+v", st)
	}
}

func TestNotify(t *testing.T) {
	s := &fakeScheduler{}
	var got []State
	q := New(WithScheduler(s), WithNotify(func(st State) { got = append(got, st) }))

	q.Load(journeyOf(2))
	q.Play()
	s.fire(t)
	s.fire(t)
	q.Retreat()
	q.Retreat()
	q.Retreat() // no change, no notification

	var cursors []int
	for _, st := range got {
		cursors = append(cursors, st.Cursor)
	}
	if want := []int{-1, -1, 0, 1, 0, -1}; !reflect.DeepEqual(cursors, want) {
		t.Fatalf("notified cursors %v, want %v", cursors, want)
	}
	if got[len(got)-3].IsPlaying() {
		t.Fatalf("reaching the end should notify a paused state")
	}
}

func TestRealTimerAdvances(t *testing.T) {
	if testing.Short() {
		t.Skip("waits on a real timer")
	}
	done := make(chan State, 4)
	q := New(WithNotify(func(st State) {
		if st.Cursor == 0 {
			done <- st
		}
	}))
	q.Load(journeyOf(3))
	q.SetSpeed(SpeedDouble)
	start := time.Now()
	q.Play()

	select {
	case st := <-done:
		if elapsed := time.Since(start); elapsed < 900*time.Millisecond {
			t.Fatalf("advanced too early: %v", elapsed)
		}
		if !st.IsPlaying() {
			t.Fatalf("should still be playing at cursor 0")
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("timer never fired")
	}
	q.Pause()
}

func TestCurrentMatchesState(t *testing.T) {
	q, _ := newTestSequencer()
	if _, st, ok := q.Current(); ok || st.Loaded() {
		t.Fatalf("idle sequencer reported a journey")
	}
	q.Load(journeyOf(3))
	q.Advance()
	j, st, ok := q.Current()
	if !ok || j.Len() != st.Length || st.Cursor != 0 {
		t.Fatalf("journey len %d, state %+v", j.Len(), st)
	}
}
