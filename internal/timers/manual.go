package timers

import (
	"sync"
	"time"
)

// Manual is a scheduler driven by Advance. Callbacks run synchronously on the
// goroutine calling Advance, in deadline order; equal deadlines fire in the
// order they were scheduled.
type Manual struct {
	mu      sync.Mutex
	now     time.Time
	seq     uint64
	pending []*manualTimer
}

type manualTimer struct {
	m       *Manual
	at      time.Time
	every   time.Duration
	seq     uint64
	fn      func()
	stopped bool
}

func (t *manualTimer) Stop() {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	t.stopped = true
}

func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *Manual) After(d time.Duration, fn func()) Handle {
	return m.add(d, 0, fn)
}

func (m *Manual) Every(d time.Duration, fn func()) Handle {
	if d <= 0 {
		d = time.Nanosecond
	}
	return m.add(d, d, fn)
}

func (m *Manual) add(d, every time.Duration, fn func()) *manualTimer {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d < 0 {
		d = 0
	}
	m.seq++
	t := &manualTimer{
		m:     m,
		at:    m.now.Add(d),
		every: every,
		seq:   m.seq,
		fn:    fn,
	}
	m.pending = append(m.pending, t)
	return t
}

// Advance moves the clock forward by d, firing every callback that comes due
// along the way. Callbacks may schedule or stop other timers.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	end := m.now.Add(d)
	m.mu.Unlock()

	for {
		m.mu.Lock()
		next := m.popDue(end)
		if next == nil {
			m.now = end
			m.mu.Unlock()
			return
		}
		m.now = next.at
		if next.every > 0 {
			next.at = next.at.Add(next.every)
			m.seq++
			next.seq = m.seq
			m.pending = append(m.pending, next)
		}
		fn := next.fn
		m.mu.Unlock()

		fn()
	}
}

// Pending reports how many live timers are waiting to fire.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.pending {
		if !t.stopped {
			n++
		}
	}
	return n
}

// popDue removes and returns the earliest live timer due at or before end.
// Stopped timers are dropped as a side effect. Caller holds m.mu.
func (m *Manual) popDue(end time.Time) *manualTimer {
	live := m.pending[:0]
	for _, t := range m.pending {
		if !t.stopped {
			live = append(live, t)
		}
	}
	m.pending = live

	best := -1
	for i, t := range m.pending {
		if t.at.After(end) {
			continue
		}
		if best < 0 || t.at.Before(m.pending[best].at) ||
			(t.at.Equal(m.pending[best].at) && t.seq < m.pending[best].seq) {
			best = i
		}
	}
	if best < 0 {
		return nil
	}
	t := m.pending[best]
	m.pending = append(m.pending[:best], m.pending[best+1:]...)
	return t
}
