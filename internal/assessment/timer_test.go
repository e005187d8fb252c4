package assessment

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shams-academy/assessment/internal/model"
)

type fakeTicks struct {
	c       chan time.Time
	stopped atomic.Bool
}

func newFakeTicks() *fakeTicks { return &fakeTicks{c: make(chan time.Time)} }

func (f *fakeTicks) C() <-chan time.Time { return f.c }
func (f *fakeTicks) Stop()               { f.stopped.Store(true) }

func waitDone(t *testing.T, tm *Timer) {
	t.Helper()
	select {
	case <-tm.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("timer did not stop")
	}
}

func TestTimer_RunsSessionToTimeout(t *testing.T) {
	s := mustStart(t, newTest(3, 0))
	results := make(chan model.Result, 2)
	s.OnFinish(func(r model.Result) { results <- r })

	src := newFakeTicks()
	tm := StartTimer(src, s.Tick)
	for i := 0; i < 3; i++ {
		src.c <- time.Now()
	}
	waitDone(t, tm)

	if !s.Finished() || s.FinishReason() != FinishTimeout {
		t.Fatalf("status = %s reason = %q", s.Status(), s.FinishReason())
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if !src.stopped.Load() {
		t.Error("tick source not stopped")
	}
	tm.Stop()
}

func TestTimer_StopHaltsTicks(t *testing.T) {
	var calls atomic.Int32
	ran := make(chan struct{}, 1)
	src := newFakeTicks()
	tm := StartTimer(src, func() bool {
		calls.Add(1)
		ran <- struct{}{}
		return true
	})

	// The send returns once the tick is received, before tick runs, so wait
	// for each call before stopping.
	for i := 0; i < 2; i++ {
		src.c <- time.Now()
		select {
		case <-ran:
		case <-time.After(2 * time.Second):
			t.Fatalf("tick %d did not run", i+1)
		}
	}
	tm.Stop()
	tm.Stop()

	if got := calls.Load(); got != 2 {
		t.Errorf("tick calls = %d, want 2", got)
	}
	if !src.stopped.Load() {
		t.Error("tick source not stopped")
	}
	select {
	case src.c <- time.Now():
		t.Error("tick delivered after Stop")
	case <-time.After(20 * time.Millisecond):
	}
}

func TestTimer_StopAfterManualFinish(t *testing.T) {
	s := mustStart(t, newTest(60, 0))
	var mu sync.Mutex
	src := newFakeTicks()
	tm := StartTimer(src, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return s.Tick()
	})

	src.c <- time.Now()
	mu.Lock()
	s.Finish()
	mu.Unlock()
	src.c <- time.Now()
	waitDone(t, tm)
	tm.Stop()

	if s.RemainingSeconds() != 59 {
		t.Errorf("RemainingSeconds = %d, want 59", s.RemainingSeconds())
	}
}

func TestNewTicker(t *testing.T) {
	src := NewTicker(time.Millisecond)
	defer src.Stop()

	select {
	case <-src.C():
	case <-time.After(time.Second):
		t.Fatal("no tick from NewTicker")
	}
}
