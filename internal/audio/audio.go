// Package audio plays the short cues that accompany game transitions.
package audio

import "flagsmash/internal/events"

// Player plays a cue and returns immediately. Implementations swallow their
// own failures.
type Player interface {
	Play(cue events.Cue)
}

type Nop struct{}

func (Nop) Play(events.Cue) {}
