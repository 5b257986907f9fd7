package targets

import (
	"math/rand/v2"
	"sync"
	"time"
)

const (
	DefaultWidth  = 600
	DefaultHeight = 400
	DefaultSize   = 100
)

// Spawner picks the image and position of new targets.
type Spawner struct {
	mu   sync.Mutex
	rng  *rand.Rand
	size int
}

// NewSpawner returns a spawner drawing squares of the given size. A nil rng
// gets a randomly seeded one.
func NewSpawner(size int, rng *rand.Rand) *Spawner {
	if size <= 0 {
		size = DefaultSize
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Spawner{rng: rng, size: size}
}

// NewSeededSpawner is NewSpawner with a deterministic PCG source.
func NewSeededSpawner(size int, seed uint64) *Spawner {
	return NewSpawner(size, rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
}

func (s *Spawner) Size() int {
	return s.size
}

// Spawn places a target uniformly inside a width x height viewport so that
// the whole square stays on screen. Viewports smaller than the target pin it
// to the origin on that axis.
func (s *Spawner) Spawn(id, width, height int, now time.Time) Target {
	s.mu.Lock()
	defer s.mu.Unlock()
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	return Target{
		ID:        id,
		Image:     Images[s.rng.IntN(len(Images))],
		X:         s.coord(width),
		Y:         s.coord(height),
		Size:      s.size,
		SpawnedAt: now,
	}
}

func (s *Spawner) coord(extent int) int {
	room := extent - s.size
	if room <= 0 {
		return 0
	}
	return s.rng.IntN(room + 1)
}
