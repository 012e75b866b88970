// Package pending implements the one-shot suspend/resume registry the
// interception mediator uses to park a captured request or response while
// a human tester decides its fate, and to resume the waiting pipeline
// goroutine exactly once with that decision.
package pending

import (
	"context"
	"fmt"
	"sync"

	"github.com/antigravity/mediator/internal/capture"
)

// Verdict is the outcome of a parked item, decided by the control channel.
type Verdict int

const (
	// Forward delivers the item onward, optionally with overrides applied.
	Forward Verdict = iota
	// Drop aborts the in-flight exchange instead of delivering it.
	Drop
)

// Resolution is the decision delivered to a parked item's waiter. Overrides
// is nil when the tester forwarded the item unmodified.
type Resolution struct {
	Verdict   Verdict
	Overrides *Overrides
}

// Overrides carries the fields a tester edited in the intercept UI before
// forwarding. Any nil/zero field means "leave as captured".
type Overrides struct {
	Method  string          `json:"method,omitempty"`
	URL     string          `json:"url,omitempty"`
	Status  int             `json:"status,omitempty"`
	Headers capture.Headers `json:"headers,omitempty"`
	Body    string          `json:"body,omitempty"`
}

// item is one parked request or response, holding its capture.Kind and
// the one-shot channel its pipeline goroutine blocks on.
type item struct {
	kind capture.Kind
	done chan Resolution
}

// Registry is the process-wide table of parked items. A pipeline goroutine
// calls Park to suspend, handing the registry an id the control channel
// will later use to call Resolve (Forward or Drop) exactly once.
//
// Thread-safe — Park/Resolve/Exists/Kind/Len are called concurrently from
// pipeline goroutines and the control channel's command handler.
type Registry struct {
	mu    sync.Mutex
	items map[string]*item
}

// New creates an empty pending registry.
func New() *Registry {
	return &Registry{items: make(map[string]*item)}
}

// Park registers id as pending and returns a channel that receives exactly
// one Resolution when Resolve is later called for the same id, or is
// closed without a value if ctx is cancelled first (e.g. mediator
// shutdown) — the "orphaned on shutdown" case, which the caller must
// treat as a drop.
func (r *Registry) Park(ctx context.Context, id string, kind capture.Kind) <-chan Resolution {
	it := &item{kind: kind, done: make(chan Resolution, 1)}

	r.mu.Lock()
	r.items[id] = it
	r.mu.Unlock()

	out := make(chan Resolution, 1)
	go func() {
		select {
		case res := <-it.done:
			out <- res
		case <-ctx.Done():
			r.mu.Lock()
			delete(r.items, id)
			r.mu.Unlock()
			close(out)
		}
	}()
	return out
}

// Exists reports whether id is currently parked.
func (r *Registry) Exists(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.items[id]
	return ok
}

// Kind returns the capture.Kind of the parked item, if any.
func (r *Registry) Kind(id string) (capture.Kind, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.items[id]
	if !ok {
		return "", false
	}
	return it.kind, true
}

// Resolve delivers a verdict to the parked item identified by id, waking
// its Park caller exactly once. Resolving an id that is not (or no longer)
// parked — already resolved, or never existed — returns an error rather
// than silently succeeding, since a second resolution for the same id
// would otherwise be a no-op write into a closed channel.
func (r *Registry) Resolve(id string, res Resolution) error {
	r.mu.Lock()
	it, ok := r.items[id]
	if ok {
		delete(r.items, id)
	}
	r.mu.Unlock()

	if !ok {
		return fmt.Errorf("pending item %q not found (already resolved or unknown)", id)
	}

	it.done <- res
	return nil
}

// Len reports the number of currently parked items — how much in-flight
// traffic is awaiting a tester decision.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}
