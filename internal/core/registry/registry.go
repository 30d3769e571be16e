package registry

import "fmt"

// Component is a handle to a UI component exposed by the mod host.
type Component struct {
	Name   string `json:"name"`
	Module string `json:"module,omitempty"`
}

type QueryKind int

const (
	QueryByName QueryKind = iota + 1
	QueryBySourceFragment
)

func (k QueryKind) String() string {
	switch k {
	case QueryByName:
		return "name"
	case QueryBySourceFragment:
		return "source"
	default:
		return "unknown"
	}
}

// Query describes a component lookup. Queries are immutable values built
// once at startup and passed around by copy.
type Query struct {
	Kind QueryKind
	Term string
}

// ByName matches a component by its registered name.
func ByName(name string) Query {
	return Query{Kind: QueryByName, Term: name}
}

// BySourceFragment matches a component whose module source contains the
// given substring. The actual matching is performed by the host registry.
func BySourceFragment(fragment string) Query {
	return Query{Kind: QueryBySourceFragment, Term: fragment}
}

func (q Query) String() string {
	switch q.Kind {
	case QueryByName:
		return fmt.Sprintf("name(%s)", q.Term)
	case QueryBySourceFragment:
		return fmt.Sprintf("source(%s)", q.Term)
	default:
		return fmt.Sprintf("unknown(%s)", q.Term)
	}
}

// Registry is the host's asynchronous component registry.
//
// WaitFor invokes fn at most once, when a component matching q becomes
// available. Implementations expose no cancellation handle; callers bound
// waits by racing the callback against their own timers.
type Registry interface {
	WaitFor(q Query, fn func(Component))
}
