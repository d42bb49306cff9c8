package podcast

import (
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Janitor tracks the temporary artifacts of one run and deletes them
// exactly once, either immediately on failure or after a scheduled delay
// on success. Deletion is best-effort per path: a missing file is a no-op
// and any other failure is logged without blocking the remaining paths.
type Janitor struct {
	mu       sync.Mutex
	paths    []string
	released bool
	logger   zerolog.Logger
}

func NewJanitor(logger zerolog.Logger) *Janitor {
	return &Janitor{logger: logger}
}

// Register records a path for cleanup. Artifacts are registered before or
// at the moment of creation so partial failures still clean up.
func (j *Janitor) Register(path string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.released {
		// Late registration after release: delete right away rather
		// than leaking.
		j.remove(path)
		return
	}
	j.paths = append(j.paths, path)
}

// Release deletes every registered path. Subsequent calls are no-ops, so
// an immediate failure-path release and a later scheduled release cannot
// double-fire.
func (j *Janitor) Release() {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.released {
		return
	}
	j.released = true

	for _, path := range j.paths {
		j.remove(path)
	}
	j.paths = nil
}

// Schedule fires Release once after the delay. The timer is one-shot and
// tied to this run; it is not durable across process restarts.
func (j *Janitor) Schedule(delay time.Duration) {
	time.AfterFunc(delay, j.Release)
}

func (j *Janitor) remove(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		j.logger.Error().Err(err).Str("path", path).Msg("Failed to remove artifact")
		return
	}
	j.logger.Debug().Str("path", path).Msg("Removed artifact")
}
