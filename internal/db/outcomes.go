package db

import (
	"database/sql"
	"fmt"
	"time"
)

// TargetOutcome is one resolved target. ReactionMs is only set for hits.
type TargetOutcome struct {
	PlayID     string
	TargetID   int
	Image      string
	TargetX    int
	TargetY    int
	TargetSize int
	Hit        bool
	VisibleMs  int
	ReactionMs sql.NullInt32
	SpawnedAt  time.Time
	ResolvedAt time.Time
}

const insertOutcome = `
	INSERT INTO target_outcomes (play_id, target_id, image, target_x, target_y, target_size, hit, visible_ms, reaction_ms, spawned_at, resolved_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
`

func (d *DB) BatchRecordOutcomes(outcomes []TargetOutcome) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(insertOutcome)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, o := range outcomes {
		if _, err := stmt.Exec(o.PlayID, o.TargetID, o.Image, o.TargetX, o.TargetY, o.TargetSize, o.Hit, o.VisibleMs, o.ReactionMs, o.SpawnedAt, o.ResolvedAt); err != nil {
			return fmt.Errorf("recording outcome in batch: %w", err)
		}
	}

	return tx.Commit()
}
