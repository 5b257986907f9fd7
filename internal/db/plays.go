package db

import (
	"fmt"
	"time"
)

const (
	EndGameOver = "game_over"
	EndRestart  = "restart"
	EndClosed   = "closed"
)

// Play is one game from the first countdown second to game over or restart.
type Play struct {
	ID        string
	SessionID string
	StartedAt time.Time
}

func (d *DB) StartPlay(p Play) error {
	_, err := d.conn.Exec(`
		INSERT INTO plays (id, session_id, started_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO NOTHING
	`, p.ID, p.SessionID, p.StartedAt)
	if err != nil {
		return fmt.Errorf("starting play: %w", err)
	}
	return nil
}

func (d *DB) EndPlay(id string, endedAt time.Time, reason string) error {
	_, err := d.conn.Exec(`
		UPDATE plays SET ended_at = $2, end_reason = $3 WHERE id = $1 AND ended_at IS NULL
	`, id, endedAt, reason)
	if err != nil {
		return fmt.Errorf("ending play: %w", err)
	}
	return nil
}
