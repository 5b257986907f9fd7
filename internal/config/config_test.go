package config

import (
	"flagsmash/internal/gamedata"
	"testing"
	"time"
)

var gameVars = []string{
	"COUNTDOWN_SECONDS", "MISS_LIMIT", "INITIAL_VISIBLE_MS", "MIN_VISIBLE_MS",
	"SPAWN_DELAY_MS", "FEEDBACK_MS", "TARGET_SIZE",
}

func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv("PORT", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("SESSION_TTL", "")
	for _, k := range gameVars {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want %q", cfg.Port, "8080")
	}
	if cfg.DatabaseURL != "" {
		t.Errorf("DatabaseURL = %q, want %q", cfg.DatabaseURL, "")
	}
	if cfg.SessionTTL != time.Hour {
		t.Errorf("SessionTTL = %v, want %v", cfg.SessionTTL, time.Hour)
	}
	if got, want := cfg.Game(), gamedata.DefaultConfig(); got != want {
		t.Errorf("Game() = %+v, want %+v", got, want)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "3000")
	t.Setenv("DATABASE_URL", "postgres://localhost/flagsmash")
	t.Setenv("SESSION_TTL", "15m")
	t.Setenv("COUNTDOWN_SECONDS", "0")
	t.Setenv("MISS_LIMIT", "3")
	t.Setenv("INITIAL_VISIBLE_MS", "1500")
	t.Setenv("TARGET_SIZE", "80")

	cfg := Load()

	if cfg.Port != "3000" {
		t.Errorf("Port = %q, want %q", cfg.Port, "3000")
	}
	if cfg.DatabaseURL != "postgres://localhost/flagsmash" {
		t.Errorf("DatabaseURL = %q, want %q", cfg.DatabaseURL, "postgres://localhost/flagsmash")
	}
	if cfg.SessionTTL != 15*time.Minute {
		t.Errorf("SessionTTL = %v, want %v", cfg.SessionTTL, 15*time.Minute)
	}

	game := cfg.Game()
	if game.CountdownSecs != 0 {
		t.Errorf("CountdownSecs = %d, want 0", game.CountdownSecs)
	}
	if game.MissLimit != 3 {
		t.Errorf("MissLimit = %d, want 3", game.MissLimit)
	}
	if game.InitialVisible != 1500*time.Millisecond {
		t.Errorf("InitialVisible = %v, want 1.5s", game.InitialVisible)
	}
	if game.TargetSize != 80 {
		t.Errorf("TargetSize = %d, want 80", game.TargetSize)
	}
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("MISS_LIMIT", "abc")
	t.Setenv("SESSION_TTL", "soon")
	t.Setenv("TARGET_SIZE", "-4")

	cfg := Load()

	if cfg.MissLimit != 5 {
		t.Errorf("MissLimit = %d, want %d (fallback)", cfg.MissLimit, 5)
	}
	if cfg.SessionTTL != time.Hour {
		t.Errorf("SessionTTL = %v, want %v (fallback)", cfg.SessionTTL, time.Hour)
	}
	if cfg.TargetSize != 100 {
		t.Errorf("TargetSize = %d, want %d (fallback)", cfg.TargetSize, 100)
	}
}

func TestLoad_MinVisibleNotAboveInitial(t *testing.T) {
	clearEnv(t)
	t.Setenv("INITIAL_VISIBLE_MS", "300")
	t.Setenv("MIN_VISIBLE_MS", "900")

	game := Load().Game()

	if game.MinVisible > game.InitialVisible {
		t.Errorf("MinVisible %v > InitialVisible %v", game.MinVisible, game.InitialVisible)
	}
}
