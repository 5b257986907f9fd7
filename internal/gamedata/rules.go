package gamedata

import (
	"flagsmash/internal/events"
	"flagsmash/internal/targets"
	"time"
)

const countdownInterval = 1 * time.Second

// Rules is the session state machine. Apply is deterministic for a given
// spawner seed; all timing is expressed as effects for the host to schedule.
type Rules struct {
	Config  Config
	Spawner *targets.Spawner
}

func NewRules(cfg Config, spawner *targets.Spawner) *Rules {
	if cfg.MissLimit <= 0 {
		cfg.MissLimit = DefaultConfig().MissLimit
	}
	if spawner == nil {
		spawner = targets.NewSpawner(cfg.TargetSize, nil)
	}
	cfg.TargetSize = spawner.Size()
	return &Rules{Config: cfg, Spawner: spawner}
}

// NewSession returns a fresh idle session for a viewport of the given size.
func (r *Rules) NewSession(width, height int) Session {
	return Session{
		Phase:           PhaseIdle,
		MissLimit:       r.Config.MissLimit,
		VisibleDuration: r.Config.VisibleFor(0),
		Width:           width,
		Height:          height,
	}
}

// Apply returns the session after ev and the effects the transition asks for.
// Events that make no sense in the current phase return s unchanged and no
// effects.
func (r *Rules) Apply(s Session, ev events.Event) (Session, []events.Effect) {
	switch ev.Kind {
	case events.Resize:
		return r.resize(s, ev), nil
	case events.Restart:
		return r.NewSession(s.Width, s.Height), []events.Effect{events.StopAll()}
	case events.Start:
		return r.start(s, ev)
	case events.CountdownTick:
		return r.countdownTick(s, ev)
	case events.SpawnDue:
		if s.Phase != PhasePlaying || s.Target != nil {
			return s, nil
		}
		return r.spawn(s, ev.At)
	case events.Click:
		return r.click(s, ev)
	case events.TargetExpired:
		return r.expire(s, ev)
	case events.FeedbackExpired:
		s.Feedback = nil
		return s, nil
	}
	return s, nil
}

func (r *Rules) resize(s Session, ev events.Event) Session {
	if ev.Width > 0 {
		s.Width = ev.Width
	}
	if ev.Height > 0 {
		s.Height = ev.Height
	}
	return s
}

func (r *Rules) start(s Session, ev events.Event) (Session, []events.Effect) {
	if s.Phase != PhaseIdle {
		return s, nil
	}
	effects := []events.Effect{events.Play(events.CueStart)}
	if r.Config.CountdownSecs <= 0 {
		var spawned []events.Effect
		s, spawned = r.enterPlaying(s, ev.At)
		return s, append(effects, spawned...)
	}
	s.Phase = PhaseCountdown
	s.CountdownRemaining = r.Config.CountdownSecs
	effects = append(effects, events.ScheduleEvery(events.TimerCountdown, countdownInterval, events.Event{Kind: events.CountdownTick}))
	return s, effects
}

func (r *Rules) countdownTick(s Session, ev events.Event) (Session, []events.Effect) {
	if s.Phase != PhaseCountdown {
		return s, nil
	}
	s.CountdownRemaining--
	if s.CountdownRemaining > 0 {
		return s, nil
	}
	s.CountdownRemaining = 0
	s, spawned := r.enterPlaying(s, ev.At)
	return s, append([]events.Effect{events.Stop(events.TimerCountdown)}, spawned...)
}

func (r *Rules) enterPlaying(s Session, at time.Time) (Session, []events.Effect) {
	s.Phase = PhasePlaying
	return r.spawn(s, at)
}

func (r *Rules) spawn(s Session, at time.Time) (Session, []events.Effect) {
	s.NextTargetID++
	t := r.Spawner.Spawn(s.NextTargetID, s.Width, s.Height, at)
	s.Target = &t
	expire := events.Event{Kind: events.TargetExpired, TargetID: t.ID}
	return s, []events.Effect{events.ScheduleAfter(events.TimerExpiry, s.VisibleDuration, expire)}
}

// click resolves a hit. Only the visible target's id counts, so a click
// racing its own expiry (or aimed at an earlier target) is dropped here.
func (r *Rules) click(s Session, ev events.Event) (Session, []events.Effect) {
	if s.Phase != PhasePlaying || s.Target == nil || s.Target.ID != ev.TargetID {
		return s, nil
	}
	t := *s.Target
	visible := s.VisibleDuration
	s.Target = nil
	s.Score++
	if d := r.Config.VisibleFor(s.Score); d < s.VisibleDuration {
		s.VisibleDuration = d
	}
	s.Feedback = &Feedback{Kind: FeedbackHit, X: t.X, Y: t.Y}

	return s, []events.Effect{
		events.Stop(events.TimerExpiry),
		events.Play(events.CueHit),
		events.Resolve(events.Outcome{
			Target:     t,
			Hit:        true,
			Visible:    visible,
			Reaction:   ev.At.Sub(t.SpawnedAt),
			ResolvedAt: ev.At,
		}),
		events.ScheduleAfter(events.TimerFeedback, r.Config.FeedbackDuration, events.Event{Kind: events.FeedbackExpired}),
		events.ScheduleAfter(events.TimerSpawn, r.Config.SpawnDelay, events.Event{Kind: events.SpawnDue}),
	}
}

func (r *Rules) expire(s Session, ev events.Event) (Session, []events.Effect) {
	if s.Phase != PhasePlaying || s.Target == nil || s.Target.ID != ev.TargetID {
		return s, nil
	}
	t := *s.Target
	s.Target = nil
	s.Misses++
	s.Feedback = &Feedback{Kind: FeedbackMiss, X: t.X, Y: t.Y}

	effects := []events.Effect{
		events.Play(events.CueMiss),
		events.Resolve(events.Outcome{
			Target:     t,
			Visible:    s.VisibleDuration,
			ResolvedAt: ev.At,
		}),
	}
	feedback := events.ScheduleAfter(events.TimerFeedback, r.Config.FeedbackDuration, events.Event{Kind: events.FeedbackExpired})

	if s.Misses >= s.MissLimit {
		s.Misses = s.MissLimit
		s.Phase = PhaseGameOver
		return s, append(effects, events.StopAll(), events.Play(events.CueGameOver), feedback)
	}
	return s, append(effects, feedback, events.ScheduleAfter(events.TimerSpawn, r.Config.SpawnDelay, events.Event{Kind: events.SpawnDue}))
}
