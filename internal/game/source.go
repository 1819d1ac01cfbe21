package game

import (
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Source supplies the clock, shuffling and id generation the engine depends on.
type Source interface {
	Now() time.Time
	Shuffle(n int, swap func(i, j int))
	NewID() string
}

type systemSource struct{}

func (systemSource) Now() time.Time { return time.Now().UTC() }
func (systemSource) Shuffle(n int, swap func(i, j int)) { rand.Shuffle(n, swap) }
func (systemSource) NewID() string { return uuid.NewString() }

// SystemSource uses the wall clock, the global random generator and random uuids.
func SystemSource() Source { return systemSource{} }

// SeededSource is a reproducible Source. Ids are uuids read from the seeded
// generator and the clock only moves when Advance is called.
type SeededSource struct {
	mu  sync.Mutex
	rng *rand.Rand
	now time.Time
}

// NewSeededSource returns a SeededSource whose clock starts at start.
func NewSeededSource(seed int64, start time.Time) *SeededSource {
	return &SeededSource{rng: rand.New(rand.NewSource(seed)), now: start.UTC()}
}

func (s *SeededSource) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// Advance moves the clock forward by d.
func (s *SeededSource) Advance(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = s.now.Add(d)
}

func (s *SeededSource) Shuffle(n int, swap func(i, j int)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rng.Shuffle(n, swap)
}

func (s *SeededSource) NewID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, err := uuid.NewRandomFromReader(s.rng)
	if err != nil {
		// math/rand never fails a read
		panic(err)
	}
	return id.String()
}
