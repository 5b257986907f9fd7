package config

import (
	"flagsmash/internal/gamedata"
	"flagsmash/internal/targets"
	"log"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Port        string        `env:"PORT" envDefault:"8080"`
	DatabaseURL string        `env:"DATABASE_URL"`
	SessionTTL  time.Duration `env:"SESSION_TTL" envDefault:"1h"`

	CountdownSeconds int `env:"COUNTDOWN_SECONDS" envDefault:"3"`
	MissLimit        int `env:"MISS_LIMIT" envDefault:"5"`
	InitialVisibleMs int `env:"INITIAL_VISIBLE_MS" envDefault:"2000"`
	MinVisibleMs     int `env:"MIN_VISIBLE_MS" envDefault:"500"`
	SpawnDelayMs     int `env:"SPAWN_DELAY_MS" envDefault:"500"`
	FeedbackMs       int `env:"FEEDBACK_MS" envDefault:"500"`
	TargetSize       int `env:"TARGET_SIZE" envDefault:"100"`
}

func defaults() Config {
	game := gamedata.DefaultConfig()
	return Config{
		Port:             "8080",
		SessionTTL:       time.Hour,
		CountdownSeconds: game.CountdownSecs,
		MissLimit:        game.MissLimit,
		InitialVisibleMs: int(game.InitialVisible / time.Millisecond),
		MinVisibleMs:     int(game.MinVisible / time.Millisecond),
		SpawnDelayMs:     int(game.SpawnDelay / time.Millisecond),
		FeedbackMs:       int(game.FeedbackDuration / time.Millisecond),
		TargetSize:       targets.DefaultSize,
	}
}

// Load reads the environment. A variable that fails to parse keeps its
// default and is logged.
func Load() Config {
	cfg := defaults()
	if err := env.Parse(&cfg); err != nil {
		log.Printf("[Config] %v", err)
	}
	return cfg.sanitized()
}

// sanitized replaces values the game cannot run with.
func (c Config) sanitized() Config {
	d := defaults()
	if c.CountdownSeconds < 0 {
		c.CountdownSeconds = d.CountdownSeconds
	}
	if c.MissLimit <= 0 {
		c.MissLimit = d.MissLimit
	}
	if c.InitialVisibleMs <= 0 {
		c.InitialVisibleMs = d.InitialVisibleMs
	}
	if c.MinVisibleMs <= 0 || c.MinVisibleMs > c.InitialVisibleMs {
		c.MinVisibleMs = min(d.MinVisibleMs, c.InitialVisibleMs)
	}
	if c.SpawnDelayMs < 0 {
		c.SpawnDelayMs = d.SpawnDelayMs
	}
	if c.FeedbackMs <= 0 {
		c.FeedbackMs = d.FeedbackMs
	}
	if c.TargetSize <= 0 {
		c.TargetSize = d.TargetSize
	}
	if c.SessionTTL <= 0 {
		c.SessionTTL = d.SessionTTL
	}
	return c
}

func (c Config) Game() gamedata.Config {
	return gamedata.Config{
		CountdownSecs:    c.CountdownSeconds,
		MissLimit:        c.MissLimit,
		InitialVisible:   time.Duration(c.InitialVisibleMs) * time.Millisecond,
		MinVisible:       time.Duration(c.MinVisibleMs) * time.Millisecond,
		SpawnDelay:       time.Duration(c.SpawnDelayMs) * time.Millisecond,
		FeedbackDuration: time.Duration(c.FeedbackMs) * time.Millisecond,
		TargetSize:       c.TargetSize,
	}
}
