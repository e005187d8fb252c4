package assessment

import (
	"sync"
	"time"
)

// TickSource delivers periodic ticks.
type TickSource interface {
	C() <-chan time.Time
	Stop()
}

type ticker struct {
	t *time.Ticker
}

// NewTicker returns a TickSource backed by time.Ticker.
func NewTicker(d time.Duration) TickSource {
	return &ticker{t: time.NewTicker(d)}
}

func (t *ticker) C() <-chan time.Time { return t.t.C }
func (t *ticker) Stop()               { t.t.Stop() }

// Timer drives a tick function from a TickSource until the function returns
// false or Stop is called. It is the owned handle for a session's countdown.
type Timer struct {
	src  TickSource
	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// StartTimer starts calling tick on every tick from src. The caller owns the
// returned Timer and must Stop it when it is done with the session.
func StartTimer(src TickSource, tick func() bool) *Timer {
	t := &Timer{
		src:  src,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go t.run(tick)
	return t
}

func (t *Timer) run(tick func() bool) {
	defer close(t.done)
	defer t.src.Stop()

	for {
		select {
		case <-t.stop:
			return
		case <-t.src.C():
			// A tick that raced with Stop is dropped.
			select {
			case <-t.stop:
				return
			default:
			}
			if !tick() {
				return
			}
		}
	}
}

// Stop halts the timer and waits until no tick is running. It is safe to call
// more than once and after the timer ended on its own. It must not be called
// from inside the tick function.
func (t *Timer) Stop() {
	t.once.Do(func() { close(t.stop) })
	<-t.done
}

// Done is closed once the timer has stopped for any reason.
func (t *Timer) Done() <-chan struct{} { return t.done }
