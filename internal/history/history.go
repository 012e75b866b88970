// Package history tracks per-origin traffic statistics recorded by the
// mediator pipeline, summarising how much traffic the mediator has seen
// without having to replay the capture stream. The registry is in-memory
// only; neither the control channel nor any mediatorctl command reports it.
package history

import (
	"net/url"
	"sort"
	"sync"
	"time"
)

// OriginStats accumulates counters for a single origin (scheme://host).
type OriginStats struct {
	Origin       string    `json:"origin"`
	Requests     uint64    `json:"requests"`
	Responses    uint64    `json:"responses"`
	ErrorStatus  uint64    `json:"error_status"` // responses with status >= 400
	FirstSeen    time.Time `json:"first_seen"`
	LastSeen     time.Time `json:"last_seen"`
}

// Registry is the in-memory per-origin traffic stats table.
//
// Thread-safe — RecordRequest/RecordResponse are called concurrently
// from every mediator pipeline goroutine.
type Registry struct {
	mu    sync.Mutex
	stats map[string]*OriginStats
}

// New creates an empty history registry.
func New() *Registry {
	return &Registry{stats: make(map[string]*OriginStats)}
}

func originOf(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil || u.Host == "" {
		return urlStr
	}
	return u.Scheme + "://" + u.Host
}

// RecordRequest increments the request counter for urlStr's origin.
func (r *Registry) RecordRequest(urlStr string) {
	origin := originOf(urlStr)
	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.stats[origin]
	if !ok {
		s = &OriginStats{Origin: origin, FirstSeen: now}
		r.stats[origin] = s
	}
	s.Requests++
	s.LastSeen = now
}

// RecordResponse increments the response counter (and, for status >= 400,
// the error counter) for urlStr's origin.
func (r *Registry) RecordResponse(urlStr string, status int) {
	origin := originOf(urlStr)
	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.stats[origin]
	if !ok {
		s = &OriginStats{Origin: origin, FirstSeen: now}
		r.stats[origin] = s
	}
	s.Responses++
	if status >= 400 {
		s.ErrorStatus++
	}
	s.LastSeen = now
}

// List returns a snapshot of all tracked origins, sorted alphabetically.
func (r *Registry) List() []OriginStats {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]OriginStats, 0, len(r.stats))
	for _, s := range r.stats {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Origin < out[j].Origin })
	return out
}

// Get returns the stats for a single origin, if any traffic has been
// recorded for it.
func (r *Registry) Get(origin string) (OriginStats, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.stats[origin]
	if !ok {
		return OriginStats{}, false
	}
	return *s, true
}
