package naming

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
)

// CollisionResolver tracks output paths claimed by source files and resolves
// duplicates by appending "-N" to the stem. All methods are goroutine-safe.
type CollisionResolver struct {
	mu       sync.Mutex
	owners   map[string]string // output path → source path that owns it
	counters map[string]int    // requested output path → next counter
}

// NewCollisionResolver creates a ready-to-use resolver.
func NewCollisionResolver() *CollisionResolver {
	return &CollisionResolver{
		owners:   make(map[string]string),
		counters: make(map[string]int),
	}
}

// Resolve returns the final output path for source. If requested is
// unclaimed (or already owned by source) it is returned as is; otherwise
// the first free "<stem>-N<ext>" variant is claimed. Comparison is
// case-insensitive so results are stable on case-folding filesystems.
func (cr *CollisionResolver) Resolve(source, requested string) string {
	cr.mu.Lock()
	defer cr.mu.Unlock()

	if cr.claim(source, requested) {
		return requested
	}

	dir := filepath.Dir(requested)
	base := filepath.Base(requested)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	key := strings.ToLower(requested)
	counter := cr.counters[key]
	if counter == 0 {
		counter = 1
	}
	for {
		candidate := filepath.Join(dir, fmt.Sprintf("%s-%d%s", stem, counter, ext))
		counter++
		if cr.claim(source, candidate) {
			cr.counters[key] = counter
			return candidate
		}
	}
}

func (cr *CollisionResolver) claim(source, path string) bool {
	key := strings.ToLower(path)
	owner, taken := cr.owners[key]
	if taken && owner != source {
		return false
	}
	cr.owners[key] = source
	return true
}
