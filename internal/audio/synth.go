package audio

import (
	"flagsmash/internal/events"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
)

const sampleRate = beep.SampleRate(44100)

type note struct {
	freq     float64
	duration time.Duration
}

var cueNotes = map[events.Cue][]note{
	events.CueStart: {
		{523.25, 120 * time.Millisecond},
		{659.25, 120 * time.Millisecond},
		{783.99, 200 * time.Millisecond},
	},
	events.CueHit: {
		{880, 60 * time.Millisecond},
		{1318.51, 40 * time.Millisecond},
	},
	events.CueMiss: {
		{196, 200 * time.Millisecond},
	},
	events.CueGameOver: {
		{392, 220 * time.Millisecond},
		{329.63, 220 * time.Millisecond},
		{261.63, 220 * time.Millisecond},
		{196, 420 * time.Millisecond},
	},
}

// Synth synthesizes each cue as a short run of sine tones on the speaker.
type Synth struct {
	mu          sync.Mutex
	initialized bool
	volume      float64
}

func NewSynth() *Synth {
	return &Synth{volume: -1.5}
}

// Init opens the audio device. A Synth that failed to initialize stays silent.
func (s *Synth) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.initialized {
		return nil
	}
	if err := speaker.Init(sampleRate, sampleRate.N(100*time.Millisecond)); err != nil {
		return fmt.Errorf("initializing speaker: %w", err)
	}
	s.initialized = true
	return nil
}

func (s *Synth) Play(cue events.Cue) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return
	}
	streamer, err := cueStreamer(cue, s.volume)
	if err != nil {
		log.Printf("[Audio] cue %q: %v\n", cue, err)
		return
	}
	speaker.Play(streamer)
}

func (s *Synth) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return
	}
	speaker.Clear()
	speaker.Close()
	s.initialized = false
}

func cueStreamer(cue events.Cue, volume float64) (beep.Streamer, error) {
	notes, ok := cueNotes[cue]
	if !ok {
		return nil, fmt.Errorf("unknown cue")
	}
	parts := make([]beep.Streamer, 0, len(notes))
	for _, n := range notes {
		tone, err := generators.SineTone(sampleRate, n.freq)
		if err != nil {
			return nil, fmt.Errorf("tone %.0fHz: %w", n.freq, err)
		}
		parts = append(parts, beep.Take(sampleRate.N(n.duration), tone))
	}
	return &effects.Volume{
		Streamer: beep.Seq(parts...),
		Base:     2,
		Volume:   volume,
	}, nil
}
