package main

import (
	"flagsmash/internal/audio"
	"flagsmash/internal/config"
	"flagsmash/internal/db"
	"flagsmash/internal/engine"
	"flagsmash/internal/gamedata"
	"flagsmash/internal/targets"
	"flagsmash/internal/tui"
	"log"
	"os"
	"path/filepath"

	"github.com/gdamore/tcell/v2"
)

func main() {
	// The terminal belongs to the game; logs go to a file.
	logPath := filepath.Join(os.TempDir(), "flagsmash-tui.log")
	if f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err == nil {
		log.SetOutput(f)
		defer f.Close()
	}

	appCfg := config.Load()
	gameCfg := appCfg.Game()
	gameCfg.TargetSize = tui.TargetSize
	rules := gamedata.NewRules(gameCfg, targets.NewSpawner(tui.TargetSize, nil))

	var observers []engine.Observer
	if appCfg.DatabaseURL != "" {
		database, err := db.Connect(appCfg.DatabaseURL)
		if err != nil {
			log.Printf("[DB] Failed to connect: %v (running without database)\n", err)
		} else {
			defer database.Close()
			if err := database.Migrate(); err != nil {
				log.Printf("[DB] Migration failed: %v\n", err)
			}
			journal := db.NewJournal(database, nil)
			defer journal.Close()
			observers = append(observers, journal)
		}
	}

	synth := audio.NewSynth()
	if err := synth.Init(); err != nil {
		// Non-fatal, game can run without sound
		log.Printf("[Audio] Initialization failed: %v\n", err)
	}
	defer synth.Close()

	screen, err := tcell.NewScreen()
	if err != nil {
		log.Fatal(err)
	}
	if err := screen.Init(); err != nil {
		log.Fatal(err)
	}
	screen.EnableMouse()
	defer screen.Fini()

	ui := tui.New(screen, rules, engine.Deps{Audio: synth, Observers: observers})
	ui.Run()
}
