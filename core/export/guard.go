package export

import (
	"errors"
	"sync"
	"time"
)

// ErrBusy is returned when the same export is already running or just finished.
var ErrBusy = errors.New("export already in progress, try again shortly")

const DefaultCooldown = 500 * time.Millisecond

// Guard rejects double submissions of an export kind: while one runs, and during
// the cool-down after it finished.
type Guard struct {
	cooldown time.Duration
	now      func() time.Time

	mu        sync.Mutex
	running   map[Kind]bool
	idleAfter map[Kind]time.Time
}

func NewGuard(cooldown time.Duration) *Guard {
	if cooldown < 0 {
		cooldown = 0
	}
	return &Guard{
		cooldown:  cooldown,
		now:       time.Now,
		running:   make(map[Kind]bool),
		idleAfter: make(map[Kind]time.Time),
	}
}

// Acquire marks `kind` as running. The returned func must be called once the export is done.
func (g *Guard) Acquire(kind Kind) (release func(), err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.running[kind] || g.now().Before(g.idleAfter[kind]) {
		return nil, ErrBusy
	}
	g.running[kind] = true

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			defer g.mu.Unlock()
			g.running[kind] = false
			g.idleAfter[kind] = g.now().Add(g.cooldown)
		})
	}, nil
}
