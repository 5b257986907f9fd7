package gamedata

import (
	"flagsmash/internal/targets"
	"time"
)

type Phase string

const (
	PhaseIdle      = Phase("idle")
	PhaseCountdown = Phase("countdown")
	PhasePlaying   = Phase("playing")
	PhaseGameOver  = Phase("game_over")
)

type FeedbackKind string

const (
	FeedbackHit  = FeedbackKind("hit")
	FeedbackMiss = FeedbackKind("miss")
)

type Feedback struct {
	Kind FeedbackKind
	X    int
	Y    int
}

type Config struct {
	CountdownSecs    int
	MissLimit        int
	InitialVisible   time.Duration
	MinVisible       time.Duration
	SpawnDelay       time.Duration
	FeedbackDuration time.Duration
	TargetSize       int
}

func DefaultConfig() Config {
	return Config{
		CountdownSecs:    3,
		MissLimit:        5,
		InitialVisible:   2000 * time.Millisecond,
		MinVisible:       500 * time.Millisecond,
		SpawnDelay:       500 * time.Millisecond,
		FeedbackDuration: 500 * time.Millisecond,
		TargetSize:       targets.DefaultSize,
	}
}

// visibleSteps is checked top down; the first threshold the score reaches wins.
var visibleSteps = []struct {
	score   int
	visible time.Duration
}{
	{75, 800 * time.Millisecond},
	{50, 1200 * time.Millisecond},
	{25, 1500 * time.Millisecond},
}

// VisibleFor returns how long a target stays up at the given score. It never
// exceeds InitialVisible and never drops under MinVisible.
func (c Config) VisibleFor(score int) time.Duration {
	d := c.InitialVisible
	for _, step := range visibleSteps {
		if score >= step.score {
			if step.visible < d {
				d = step.visible
			}
			break
		}
	}
	if d < c.MinVisible {
		d = c.MinVisible
	}
	return d
}

// Session is the whole state of one game. Values are replaced, never shared:
// Target and Feedback point at fresh copies on every transition.
type Session struct {
	Phase              Phase
	CountdownRemaining int
	Score              int
	Misses             int
	MissLimit          int
	Target             *targets.Target
	VisibleDuration    time.Duration
	Feedback           *Feedback
	Width              int
	Height             int
	NextTargetID       int
}

// Snapshot is the read-only view handed to renderers.
type Snapshot struct {
	Phase              Phase
	CountdownRemaining int
	Score              int
	Misses             int
	MissLimit          int
	Target             *targets.Target
	VisibleDuration    time.Duration
	Feedback           *Feedback
	Width              int
	Height             int
}

func (s Session) Snapshot() Snapshot {
	snap := Snapshot{
		Phase:              s.Phase,
		CountdownRemaining: s.CountdownRemaining,
		Score:              s.Score,
		Misses:             s.Misses,
		MissLimit:          s.MissLimit,
		VisibleDuration:    s.VisibleDuration,
		Width:              s.Width,
		Height:             s.Height,
	}
	if s.Target != nil {
		t := *s.Target
		snap.Target = &t
	}
	if s.Feedback != nil {
		f := *s.Feedback
		snap.Feedback = &f
	}
	return snap
}

// Equal reports whether two snapshots would render the same.
func (s Snapshot) Equal(o Snapshot) bool {
	if s.Phase != o.Phase || s.CountdownRemaining != o.CountdownRemaining ||
		s.Score != o.Score || s.Misses != o.Misses || s.MissLimit != o.MissLimit ||
		s.VisibleDuration != o.VisibleDuration || s.Width != o.Width || s.Height != o.Height {
		return false
	}
	if (s.Target == nil) != (o.Target == nil) || (s.Feedback == nil) != (o.Feedback == nil) {
		return false
	}
	if s.Target != nil && *s.Target != *o.Target {
		return false
	}
	if s.Feedback != nil && *s.Feedback != *o.Feedback {
		return false
	}
	return true
}
