// Package sessions keeps the live game sessions of the web frontend and
// closes the ones nobody has touched for a while.
package sessions

import (
	"flagsmash/internal/audio"
	"flagsmash/internal/engine"
	"flagsmash/internal/gamedata"
	"flagsmash/internal/timers"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultTTL    = 1 * time.Hour
	sweepInterval = 5 * time.Minute
)

type Options struct {
	TTL       time.Duration
	Scheduler timers.Scheduler
	Observers []engine.Observer
	// OnExpire runs after the sweeper closed an idle session.
	OnExpire func(id string)
}

type Store struct {
	mu       sync.Mutex
	sessions map[string]*engine.Controller
	rules    *gamedata.Rules
	opts     Options
	done     chan struct{}
	once     sync.Once
}

func NewStore(rules *gamedata.Rules, opts Options) *Store {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Scheduler == nil {
		opts.Scheduler = timers.Real{}
	}
	s := &Store{
		sessions: make(map[string]*engine.Controller),
		rules:    rules,
		opts:     opts,
		done:     make(chan struct{}),
	}
	go s.sweepStale()
	return s
}

// Create starts a new idle session that renders and plays through the
// given frontend.
func (s *Store) Create(r engine.Renderer, a audio.Player) *engine.Controller {
	c := engine.New(uuid.New().String(), s.rules, engine.Deps{
		Scheduler: s.opts.Scheduler,
		Renderer:  r,
		Audio:     a,
		Observers: s.opts.Observers,
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[c.ID()] = c
	return c
}

func (s *Store) Get(id string) *engine.Controller {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[id]
}

// Delete closes and forgets a session.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	c, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if ok {
		c.Close()
	}
}

func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep closes every session idle for longer than the TTL and returns their ids.
func (s *Store) Sweep(now time.Time) []string {
	s.mu.Lock()
	var stale []*engine.Controller
	for id, c := range s.sessions {
		if now.Sub(c.LastActive()) > s.opts.TTL {
			stale = append(stale, c)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	ids := make([]string, 0, len(stale))
	for _, c := range stale {
		c.Close()
		ids = append(ids, c.ID())
		if s.opts.OnExpire != nil {
			s.opts.OnExpire(c.ID())
		}
	}
	if len(ids) > 0 {
		log.Printf("[Session] Swept %d idle sessions\n", len(ids))
	}
	return ids
}

// Close stops the sweeper and closes every session.
func (s *Store) Close() {
	s.once.Do(func() { close(s.done) })

	s.mu.Lock()
	list := make([]*engine.Controller, 0, len(s.sessions))
	for id, c := range s.sessions {
		list = append(list, c)
		delete(s.sessions, id)
	}
	s.mu.Unlock()

	for _, c := range list {
		c.Close()
	}
}

func (s *Store) sweepStale() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.Sweep(s.opts.Scheduler.Now())
		}
	}
}
