// Package engine hosts a session state machine: it serializes commands and
// timer firings onto one session and carries out the effects each transition
// asks for.
package engine

import (
	"flagsmash/internal/audio"
	"flagsmash/internal/events"
	"flagsmash/internal/gamedata"
	"flagsmash/internal/timers"
	"sync"
	"time"
)

// Renderer receives a snapshot after every transition that changed what is
// on screen. Render runs with the session locked and must not block.
type Renderer interface {
	Render(snap gamedata.Snapshot)
}

// Observer is told about phase changes, resolved targets and the session
// going away. Calls happen with the session locked and must not block.
type Observer interface {
	PhaseChanged(sessionID string, from, to gamedata.Phase, snap gamedata.Snapshot)
	TargetResolved(sessionID string, o events.Outcome)
	// SessionClosed is the last call for a session. snap is its state at
	// close, which may still be mid-game.
	SessionClosed(sessionID string, snap gamedata.Snapshot)
}

type Deps struct {
	Scheduler timers.Scheduler
	Renderer  Renderer
	Audio     audio.Player
	Observers []Observer
}

type nopRenderer struct{}

func (nopRenderer) Render(gamedata.Snapshot) {}

type armed struct {
	handle timers.Handle
	gen    uint64
}

// Controller owns one session and every timer scheduled on its behalf.
type Controller struct {
	mu         sync.Mutex
	id         string
	rules      *gamedata.Rules
	deps       Deps
	session    gamedata.Session
	timers     map[events.Timer]armed
	gen        uint64
	closed     bool
	lastActive time.Time
}

func New(id string, rules *gamedata.Rules, deps Deps) *Controller {
	if deps.Scheduler == nil {
		deps.Scheduler = timers.Real{}
	}
	if deps.Renderer == nil {
		deps.Renderer = nopRenderer{}
	}
	if deps.Audio == nil {
		deps.Audio = audio.Nop{}
	}
	return &Controller{
		id:         id,
		rules:      rules,
		deps:       deps,
		session:    rules.NewSession(0, 0),
		timers:     make(map[events.Timer]armed),
		lastActive: deps.Scheduler.Now(),
	}
}

func (c *Controller) ID() string {
	return c.id
}

func (c *Controller) Start() {
	c.dispatch(events.Event{Kind: events.Start})
}

func (c *Controller) Click(targetID int) {
	c.dispatch(events.Event{Kind: events.Click, TargetID: targetID})
}

func (c *Controller) Restart() {
	c.dispatch(events.Event{Kind: events.Restart})
}

func (c *Controller) Resize(width, height int) {
	c.dispatch(events.Event{Kind: events.Resize, Width: width, Height: height})
}

func (c *Controller) Snapshot() gamedata.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Snapshot()
}

// Refresh pushes the current snapshot to the renderer.
func (c *Controller) Refresh() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.deps.Renderer.Render(c.session.Snapshot())
}

// LastActive is the time of the last player command.
func (c *Controller) LastActive() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastActive
}

// Close cancels every pending timer and reports the session closed to the
// observers. The controller ignores all later input.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.stopAll()
	c.closed = true
	snap := c.session.Snapshot()
	for _, o := range c.deps.Observers {
		o.SessionClosed(c.id, snap)
	}
}

func (c *Controller) dispatch(ev events.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.lastActive = c.deps.Scheduler.Now()
	c.apply(ev)
}

// fire delivers a timer's event unless the timer was cancelled or replaced
// after it was armed. Caller does not hold c.mu.
func (c *Controller) fire(slot events.Timer, gen uint64, repeating bool, ev events.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	cur, ok := c.timers[slot]
	if !ok || cur.gen != gen {
		return
	}
	if !repeating {
		delete(c.timers, slot)
	}
	c.apply(ev)
}

func (c *Controller) apply(ev events.Event) {
	ev.At = c.deps.Scheduler.Now()
	before := c.session.Snapshot()
	next, effects := c.rules.Apply(c.session, ev)
	c.session = next
	after := next.Snapshot()

	for _, e := range effects {
		c.run(e)
	}
	if before.Phase != after.Phase {
		for _, o := range c.deps.Observers {
			o.PhaseChanged(c.id, before.Phase, after.Phase, after)
		}
	}
	if !before.Equal(after) {
		c.deps.Renderer.Render(after)
	}
}

func (c *Controller) run(e events.Effect) {
	switch e.Kind {
	case events.Schedule, events.Repeat:
		c.arm(e)
	case events.Cancel:
		c.stop(e.Timer)
	case events.CancelAll:
		c.stopAll()
	case events.PlayCue:
		c.deps.Audio.Play(e.Cue)
	case events.Resolved:
		for _, o := range c.deps.Observers {
			o.TargetResolved(c.id, e.Outcome)
		}
	}
}

func (c *Controller) arm(e events.Effect) {
	c.stop(e.Timer)
	c.gen++
	gen, slot, ev := c.gen, e.Timer, e.Event
	repeating := e.Kind == events.Repeat

	fn := func() { c.fire(slot, gen, repeating, ev) }
	var h timers.Handle
	if repeating {
		h = c.deps.Scheduler.Every(e.After, fn)
	} else {
		h = c.deps.Scheduler.After(e.After, fn)
	}
	c.timers[slot] = armed{handle: h, gen: gen}
}

func (c *Controller) stop(slot events.Timer) {
	if a, ok := c.timers[slot]; ok {
		a.handle.Stop()
		delete(c.timers, slot)
	}
}

func (c *Controller) stopAll() {
	for slot, a := range c.timers {
		a.handle.Stop()
		delete(c.timers, slot)
	}
}
