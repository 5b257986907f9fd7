// Package events holds the vocabulary of the session state machine: the
// inputs it reacts to and the effects it asks its host to carry out.
package events

import (
	"flagsmash/internal/targets"
	"time"
)

type Kind string

const (
	Start           = Kind("start")
	Click           = Kind("click")
	Restart         = Kind("restart")
	Resize          = Kind("resize")
	CountdownTick   = Kind("countdown_tick")
	SpawnDue        = Kind("spawn_due")
	TargetExpired   = Kind("target_expired")
	FeedbackExpired = Kind("feedback_expired")
)

type Event struct {
	Kind     Kind
	TargetID int // Click, TargetExpired
	Width    int // Resize
	Height   int // Resize
	At       time.Time
}

// Timer names the slots a session keeps timers in. Scheduling into an
// occupied slot replaces the previous timer.
type Timer string

const (
	TimerCountdown = Timer("countdown")
	TimerSpawn     = Timer("spawn")
	TimerExpiry    = Timer("expiry")
	TimerFeedback  = Timer("feedback")
)

type Cue string

const (
	CueStart    = Cue("start")
	CueHit      = Cue("hit")
	CueMiss     = Cue("miss")
	CueGameOver = Cue("gameOver")
)

type EffectKind int

const (
	Schedule EffectKind = iota
	Repeat
	Cancel
	CancelAll
	PlayCue
	Resolved
)

type Effect struct {
	Kind    EffectKind
	Timer   Timer
	After   time.Duration
	Event   Event
	Cue     Cue
	Outcome Outcome
}

// Outcome describes how a target left the screen.
type Outcome struct {
	Target     targets.Target
	Hit        bool
	Visible    time.Duration
	Reaction   time.Duration // zero for misses
	ResolvedAt time.Time
}

func ScheduleAfter(timer Timer, d time.Duration, ev Event) Effect {
	return Effect{Kind: Schedule, Timer: timer, After: d, Event: ev}
}

func ScheduleEvery(timer Timer, d time.Duration, ev Event) Effect {
	return Effect{Kind: Repeat, Timer: timer, After: d, Event: ev}
}

func Stop(timer Timer) Effect {
	return Effect{Kind: Cancel, Timer: timer}
}

func StopAll() Effect {
	return Effect{Kind: CancelAll}
}

func Play(cue Cue) Effect {
	return Effect{Kind: PlayCue, Cue: cue}
}

func Resolve(o Outcome) Effect {
	return Effect{Kind: Resolved, Outcome: o}
}
