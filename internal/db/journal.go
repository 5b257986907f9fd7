package db

import (
	"database/sql"
	"flagsmash/internal/events"
	"flagsmash/internal/gamedata"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	journalBuffer   = 1000
	journalBatch    = 50
	journalInterval = 500 * time.Millisecond
)

// Store is what the journal writes to. *DB implements it.
type Store interface {
	StartPlay(p Play) error
	EndPlay(id string, endedAt time.Time, reason string) error
	BatchRecordOutcomes(outcomes []TargetOutcome) error
}

type record struct {
	start   *Play
	end     *playEnd
	outcome *TargetOutcome
}

type playEnd struct {
	id     string
	at     time.Time
	reason string
}

// Journal appends plays and target outcomes to a Store in the background. It
// is an engine.Observer: calls never block, and records are dropped when the
// buffer is full.
type Journal struct {
	store  Store
	now    func() time.Time
	onDrop func()

	mu     sync.Mutex
	plays  map[string]string // session id -> open play id
	buffer chan record
	closed bool
	done   chan struct{}
}

// NewJournal starts the writer goroutine. onDrop may be nil.
func NewJournal(store Store, onDrop func()) *Journal {
	j := &Journal{
		store:  store,
		now:    time.Now,
		onDrop: onDrop,
		plays:  make(map[string]string),
		buffer: make(chan record, journalBuffer),
		done:   make(chan struct{}),
	}
	go j.writer()
	return j
}

func inGame(p gamedata.Phase) bool {
	return p == gamedata.PhaseCountdown || p == gamedata.PhasePlaying
}

func (j *Journal) PhaseChanged(sessionID string, from, to gamedata.Phase, _ gamedata.Snapshot) {
	j.mu.Lock()
	defer j.mu.Unlock()

	switch {
	case from == gamedata.PhaseIdle && inGame(to):
		p := Play{ID: uuid.New().String(), SessionID: sessionID, StartedAt: j.now()}
		j.plays[sessionID] = p.ID
		j.enqueue(record{start: &p})
	case to == gamedata.PhaseGameOver || (inGame(from) && to == gamedata.PhaseIdle):
		id, ok := j.plays[sessionID]
		if !ok {
			return
		}
		delete(j.plays, sessionID)
		reason := EndGameOver
		if to == gamedata.PhaseIdle {
			reason = EndRestart
		}
		j.enqueue(record{end: &playEnd{id: id, at: j.now(), reason: reason}})
	}
}

// SessionClosed ends a play the session left open.
func (j *Journal) SessionClosed(sessionID string, _ gamedata.Snapshot) {
	j.mu.Lock()
	defer j.mu.Unlock()

	id, ok := j.plays[sessionID]
	if !ok {
		return
	}
	delete(j.plays, sessionID)
	j.enqueue(record{end: &playEnd{id: id, at: j.now(), reason: EndClosed}})
}

func (j *Journal) TargetResolved(sessionID string, o events.Outcome) {
	j.mu.Lock()
	defer j.mu.Unlock()

	id, ok := j.plays[sessionID]
	if !ok {
		return
	}
	rec := TargetOutcome{
		PlayID:     id,
		TargetID:   o.Target.ID,
		Image:      string(o.Target.Image),
		TargetX:    o.Target.X,
		TargetY:    o.Target.Y,
		TargetSize: o.Target.Size,
		Hit:        o.Hit,
		VisibleMs:  int(o.Visible.Milliseconds()),
		SpawnedAt:  o.Target.SpawnedAt,
		ResolvedAt: o.ResolvedAt,
	}
	if o.Hit {
		rec.ReactionMs = sql.NullInt32{Int32: int32(o.Reaction.Milliseconds()), Valid: true}
	}
	j.enqueue(record{outcome: &rec})
}

// enqueue must be called with j.mu held.
func (j *Journal) enqueue(r record) {
	if j.closed {
		return
	}
	select {
	case j.buffer <- r:
	default:
		log.Println("[Journal] Buffer full, dropping record")
		if j.onDrop != nil {
			j.onDrop()
		}
	}
}

// Close flushes what is buffered and stops the writer.
func (j *Journal) Close() {
	j.mu.Lock()
	if j.closed {
		j.mu.Unlock()
		return
	}
	j.closed = true
	close(j.buffer)
	j.mu.Unlock()
	<-j.done
}

func (j *Journal) writer() {
	defer close(j.done)
	ticker := time.NewTicker(journalInterval)
	defer ticker.Stop()

	batch := make([]TargetOutcome, 0, journalBatch)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := j.store.BatchRecordOutcomes(batch); err != nil {
			log.Printf("[Journal] BatchRecordOutcomes error: %v\n", err)
		}
		batch = batch[:0]
	}

	for {
		select {
		case r, ok := <-j.buffer:
			if !ok {
				flush()
				return
			}
			switch {
			case r.outcome != nil:
				batch = append(batch, *r.outcome)
				if len(batch) >= journalBatch {
					flush()
				}
			case r.start != nil:
				if err := j.store.StartPlay(*r.start); err != nil {
					log.Printf("[Journal] StartPlay error: %v\n", err)
				}
			case r.end != nil:
				// Outcomes reference the play; write them before closing it.
				flush()
				if err := j.store.EndPlay(r.end.id, r.end.at, r.end.reason); err != nil {
					log.Printf("[Journal] EndPlay error: %v\n", err)
				}
			}
		case <-ticker.C:
			flush()
		}
	}
}
