package plate

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// resourceRegistry tracks every live resource created from a Device so
// that Destroy can report leaks. Entries are keyed by a per-resource id
// rather than the native handle, which the driver may recycle.
type resourceRegistry struct {
	mu   sync.Mutex
	live map[uuid.UUID]string
}

func newResourceRegistry() *resourceRegistry {
	return &resourceRegistry{live: make(map[uuid.UUID]string)}
}

func (r *resourceRegistry) add(kind string) uuid.UUID {
	id := uuid.New()
	r.mu.Lock()
	r.live[id] = kind
	r.mu.Unlock()
	return id
}

func (r *resourceRegistry) remove(id uuid.UUID) {
	r.mu.Lock()
	delete(r.live, id)
	r.mu.Unlock()
}

// leaks returns a sorted count of live resources by kind.
func (r *resourceRegistry) leaks() []string {
	r.mu.Lock()
	counts := make(map[string]int)
	for _, kind := range r.live {
		counts[kind]++
	}
	r.mu.Unlock()

	kinds := make([]string, 0, len(counts))
	for kind := range counts {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)

	out := make([]string, len(kinds))
	for i, kind := range kinds {
		out[i] = fmt.Sprintf("%s×%d", kind, counts[kind])
	}
	return out
}
