package registry

import (
	"strings"
	"sync"
)

type entry struct {
	component Component
	source    string
}

type pendingWaiter struct {
	query Query
	fn    func(Component)
}

// InMemoryRegistry is a Registry backed by a plain map. It is used by tests
// and by embedders that publish components from the same process.
type InMemoryRegistry struct {
	mu      sync.Mutex
	entries []entry
	pending []pendingWaiter
}

var _ Registry = &InMemoryRegistry{}

func NewInMemoryRegistry() *InMemoryRegistry {
	return &InMemoryRegistry{}
}

// Publish registers a component together with its module source text and
// fires any waiters whose query it satisfies. Each waiter is called at most
// once.
func (r *InMemoryRegistry) Publish(c Component, source string) {
	r.mu.Lock()
	r.entries = append(r.entries, entry{component: c, source: source})

	var fire []pendingWaiter
	kept := r.pending[:0]
	for _, w := range r.pending {
		if matches(w.query, c, source) {
			fire = append(fire, w)
		} else {
			kept = append(kept, w)
		}
	}
	r.pending = kept
	r.mu.Unlock()

	for _, w := range fire {
		w.fn(c)
	}
}

func (r *InMemoryRegistry) WaitFor(q Query, fn func(Component)) {
	r.mu.Lock()
	for _, e := range r.entries {
		if matches(q, e.component, e.source) {
			c := e.component
			r.mu.Unlock()
			fn(c)
			return
		}
	}
	r.pending = append(r.pending, pendingWaiter{query: q, fn: fn})
	r.mu.Unlock()
}

func matches(q Query, c Component, source string) bool {
	switch q.Kind {
	case QueryByName:
		return c.Name == q.Term
	case QueryBySourceFragment:
		return q.Term != "" && strings.Contains(source, q.Term)
	default:
		return false
	}
}
