package audio

import (
	"flagsmash/internal/events"
	"testing"
	"time"
)

func TestCueStreamer_Length(t *testing.T) {
	for cue, notes := range cueNotes {
		s, err := cueStreamer(cue, 0)
		if err != nil {
			t.Fatalf("cueStreamer(%q) error: %v", cue, err)
		}

		want := 0
		for _, n := range notes {
			want += sampleRate.N(n.duration)
		}

		got := 0
		buf := make([][2]float64, 512)
		for {
			n, ok := s.Stream(buf)
			got += n
			if !ok {
				break
			}
		}
		if got != want {
			t.Errorf("cue %q streamed %d samples, want %d", cue, got, want)
		}
	}
}

func TestCueStreamer_EveryCueDefined(t *testing.T) {
	for _, cue := range []events.Cue{events.CueStart, events.CueHit, events.CueMiss, events.CueGameOver} {
		if _, err := cueStreamer(cue, 0); err != nil {
			t.Errorf("cueStreamer(%q) error: %v", cue, err)
		}
	}
}

func TestCueStreamer_Unknown(t *testing.T) {
	if _, err := cueStreamer(events.Cue("fanfare"), 0); err == nil {
		t.Error("unknown cue should return an error")
	}
}

func TestSynth_PlayBeforeInit(t *testing.T) {
	s := NewSynth()
	// Should not panic or block without a speaker
	s.Play(events.CueHit)
	s.Close()
}

func TestCueNotes_Short(t *testing.T) {
	for cue, notes := range cueNotes {
		var total time.Duration
		for _, n := range notes {
			total += n.duration
		}
		if total > 2*time.Second {
			t.Errorf("cue %q lasts %v, want at most 2s", cue, total)
		}
	}
}

func TestNop(t *testing.T) {
	var p Player = Nop{}
	p.Play(events.CueMiss)
}
