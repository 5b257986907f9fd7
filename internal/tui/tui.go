// Package tui plays the game in a terminal. One cell is one viewport unit and
// row 0 holds the HUD, so the arena starts at row 1.
package tui

import (
	"flagsmash/internal/engine"
	"flagsmash/internal/gamedata"
	"flagsmash/internal/targets"
	"fmt"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/google/uuid"
)

// TargetSize is the target's edge in cells.
const TargetSize = 4

const hudRows = 1

var (
	hudStyle   = tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorNavy)
	titleStyle = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	textStyle  = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	hitStyle   = tcell.StyleDefault.Foreground(tcell.ColorGreen).Bold(true)
	missStyle  = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
)

var imageColors = map[targets.Image]tcell.Color{
	targets.ImageIndia:    tcell.ColorOrange,
	targets.ImageIsrael:   tcell.ColorBlue,
	targets.ImageIskcon:   tcell.ColorGold,
	targets.ImageALLeague: tcell.ColorGreen,
}

// UI wires a tcell screen to one session. Render may be called from timer
// goroutines; drawing is serialized on mu.
type UI struct {
	screen  tcell.Screen
	session *engine.Controller

	mu      sync.Mutex
	snap    gamedata.Snapshot
	pressed bool
}

// New builds the UI and its session. The screen must already be initialized.
// deps.Renderer is replaced by the UI.
func New(screen tcell.Screen, rules *gamedata.Rules, deps engine.Deps) *UI {
	ui := &UI{screen: screen}
	deps.Renderer = ui
	ui.session = engine.New(uuid.New().String(), rules, deps)
	w, h := screen.Size()
	ui.session.Resize(w, h-hudRows)
	ui.session.Refresh()
	return ui
}

// Run polls the screen until the player quits or the screen is finalized.
func (ui *UI) Run() {
	defer ui.session.Close()
	for {
		ev := ui.screen.PollEvent()
		if ev == nil || !ui.HandleEvent(ev) {
			return
		}
	}
}

// HandleEvent applies one terminal event. It returns false when the player quits.
func (ui *UI) HandleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch {
		case ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC:
			return false
		case ev.Key() != tcell.KeyRune:
		case ev.Rune() == 'q':
			return false
		case ev.Rune() == 's':
			ui.session.Start()
		case ev.Rune() == 'r':
			ui.session.Restart()
		}

	case *tcell.EventMouse:
		down := ev.Buttons()&tcell.Button1 != 0
		ui.mu.Lock()
		click := down && !ui.pressed
		ui.pressed = down
		target := ui.snap.Target
		ui.mu.Unlock()

		if click && target != nil {
			x, y := ev.Position()
			if target.Contains(x, y-hudRows) {
				ui.session.Click(target.ID)
			}
		}

	case *tcell.EventResize:
		ui.screen.Sync()
		w, h := ev.Size()
		ui.session.Resize(w, h-hudRows)
		ui.session.Refresh()
	}
	return true
}

func (ui *UI) Render(snap gamedata.Snapshot) {
	ui.mu.Lock()
	defer ui.mu.Unlock()
	ui.snap = snap
	ui.draw()
}

func (ui *UI) draw() {
	s := ui.screen
	snap := ui.snap
	s.Clear()
	w, h := s.Size()

	for x := 0; x < w; x++ {
		s.SetContent(x, 0, ' ', nil, hudStyle)
	}
	ui.text(1, 0, fmt.Sprintf("Score: %d   Misses: %d/%d", snap.Score, snap.Misses, snap.MissLimit), hudStyle)
	help := "[s]tart [r]estart [q]uit"
	ui.text(w-len(help)-1, 0, help, hudStyle)

	if t := snap.Target; t != nil {
		style := tcell.StyleDefault.Background(imageColors[t.Image]).Foreground(tcell.ColorBlack).Bold(true)
		for dy := 0; dy < t.Size; dy++ {
			for dx := 0; dx < t.Size; dx++ {
				s.SetContent(t.X+dx, t.Y+dy+hudRows, ' ', nil, style)
			}
		}
		label := t.Image.Label()
		ui.text(t.X+(t.Size-len(label))/2, t.Y+t.Size/2+hudRows, label, style)
	}

	if f := snap.Feedback; f != nil {
		if f.Kind == gamedata.FeedbackHit {
			ui.text(f.X, f.Y+hudRows, "HIT!", hitStyle)
		} else {
			ui.text(f.X, f.Y+hudRows, "MISS!", missStyle)
		}
	}

	mid := hudRows + (h-hudRows)/2
	switch snap.Phase {
	case gamedata.PhaseIdle:
		ui.center(mid-1, "FLAG SMASH", titleStyle)
		ui.center(mid+1, "Click the flag before it disappears. Press s to start.", textStyle)
	case gamedata.PhaseCountdown:
		ui.center(mid, fmt.Sprintf("%d", snap.CountdownRemaining), titleStyle)
	case gamedata.PhaseGameOver:
		ui.center(mid-1, "GAME OVER", missStyle)
		ui.center(mid+1, fmt.Sprintf("Final score: %d. Press r to play again.", snap.Score), textStyle)
	}

	s.Show()
}

func (ui *UI) text(x, y int, str string, style tcell.Style) {
	for i, r := range []rune(str) {
		ui.screen.SetContent(x+i, y, r, nil, style)
	}
}

func (ui *UI) center(y int, str string, style tcell.Style) {
	w, _ := ui.screen.Size()
	ui.text((w-len([]rune(str)))/2, y, str, style)
}
