// Package timers schedules one-shot and repeating callbacks that can be
// cancelled by handle.
package timers

import (
	"sync"
	"time"
)

// Handle cancels a scheduled callback. Stop is safe to call more than once.
type Handle interface {
	Stop()
}

type Scheduler interface {
	After(d time.Duration, fn func()) Handle
	Every(d time.Duration, fn func()) Handle
	Now() time.Time
}

// Real schedules on the runtime timer. Callbacks run on their own goroutines.
type Real struct{}

func (Real) Now() time.Time {
	return time.Now()
}

func (Real) After(d time.Duration, fn func()) Handle {
	return realTimer{t: time.AfterFunc(d, fn)}
}

func (Real) Every(d time.Duration, fn func()) Handle {
	rt := &realTicker{
		t:    time.NewTicker(d),
		done: make(chan struct{}),
	}
	go rt.loop(fn)
	return rt
}

type realTimer struct {
	t *time.Timer
}

func (r realTimer) Stop() {
	r.t.Stop()
}

type realTicker struct {
	t    *time.Ticker
	done chan struct{}
	once sync.Once
}

func (r *realTicker) loop(fn func()) {
	for {
		select {
		case <-r.done:
			return
		case <-r.t.C:
			fn()
		}
	}
}

func (r *realTicker) Stop() {
	r.once.Do(func() {
		r.t.Stop()
		close(r.done)
	})
}
