// Package capture defines the wire-level data model shared by the rule
// engine, the pending registry, the interception mediator, and the
// browser-context replayer: captured requests and responses, the ordered
// header multimap they carry, and the process-wide interception flags.
package capture

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Kind distinguishes a request-side capture from a response-side one.
type Kind string

const (
	KindRequest  Kind = "request"
	KindResponse Kind = "response"
)

// Header is a single name/value pair in an ordered multimap. Headers are
// kept in arrival order; duplicate names are preserved as separate
// entries, including through a rule rewrite (see internal/rules).
type Header struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Headers is an ordered multimap of HTTP headers. It preserves insertion
// order and repeated names, matching the "ordered multimap<string,string>"
// shape spec.md's data model calls for.
type Headers []Header

// Get returns the value of the first header matching name
// (case-insensitive), and whether it was found.
func (h Headers) Get(name string) (string, bool) {
	for _, kv := range h {
		if equalFold(kv.Name, name) {
			return kv.Value, true
		}
	}
	return "", false
}

// Add appends a header, preserving any existing entries with the same name.
func (h Headers) Add(name, value string) Headers {
	return append(h, Header{Name: name, Value: value})
}

// Without returns a copy of h with every header matching name removed
// (case-insensitive).
func (h Headers) Without(names ...string) Headers {
	out := make(Headers, 0, len(h))
	for _, kv := range h {
		skip := false
		for _, n := range names {
			if equalFold(kv.Name, n) {
				skip = true
				break
			}
		}
		if !skip {
			out = append(out, kv)
		}
	}
	return out
}

// Map collapses the multimap to a plain map under last-writer-wins
// semantics, the lossy-but-documented behaviour spec.md §9 describes for
// the rewrite protocol.
func (h Headers) Map() map[string]string {
	m := make(map[string]string, len(h))
	for _, kv := range h {
		m[kv.Name] = kv.Value
	}
	return m
}

// FromMap builds an ordered Headers value from a plain map. Order is not
// meaningful coming from a map; callers that need a stable order should
// sort the map's keys first.
func FromMap(m map[string]string) Headers {
	out := make(Headers, 0, len(m))
	for k, v := range m {
		out = append(out, Header{Name: k, Value: v})
	}
	return out
}

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

// Body is an optional bytes-or-text payload. Text holds a decoded body;
// Binary is set when the body could not be decoded as text (spec.md §4.C
// step 6's DecodeError path); NewBinaryBody then stores the
// "<binary data>" marker in Text.
type Body struct {
	Text    string `json:"text"`
	Binary  bool   `json:"binary"`
	Present bool   `json:"present"`
}

// NewTextBody wraps decoded text as a present, non-binary body.
func NewTextBody(s string) Body { return Body{Text: s, Present: true} }

// NewBinaryBody marks a body present but undecodable.
func NewBinaryBody() Body { return Body{Text: "<binary data>", Binary: true, Present: true} }

// Request is CapturedRequest from spec.md §3.
type Request struct {
	ID           string  `json:"id"`
	Method       string  `json:"method"`
	URL          string  `json:"url"`
	Headers      Headers `json:"headers"`
	Body         Body    `json:"body"`
	ResourceType string  `json:"resourceType"`
	TimestampMs  int64   `json:"timestampMs"`
	Pending      bool    `json:"pending"`
}

// Response is CapturedResponse from spec.md §3. ReqID equals the
// originating request's ID — the non-null linkage invariant.
type Response struct {
	ID          string  `json:"id"`
	ReqID       string  `json:"req_id"`
	URL         string  `json:"url"`
	Status      int     `json:"status"`
	Headers     Headers `json:"headers"`
	Body        Body    `json:"body"`
	Pending     bool    `json:"pending"`
	TimestampMs int64   `json:"timestampMs"`
}

// NewID mints a fresh correlation id, used as both CapturedRequest.ID and
// CapturedResponse.ID.
func NewID() string {
	return uuid.NewString()
}

// NowMs returns the current time in epoch milliseconds, the unit spec.md's
// data model uses for timestamps.
func NowMs() int64 {
	return time.Now().UnixMilli()
}

// Flags holds the two process-wide interception booleans from spec.md §3.
// Reads and writes are expected to be single-word-sized and are exposed
// through atomics so a pipeline can sample them once per entry without a
// lock, matching spec.md §5's "plain atomics semantically" note.
type Flags struct {
	interceptRequests  atomic.Bool
	interceptResponses atomic.Bool
}

// InterceptRequests reports whether request-side suspension is enabled.
func (f *Flags) InterceptRequests() bool { return f.interceptRequests.Load() }

// InterceptResponses reports whether response-side suspension is enabled.
func (f *Flags) InterceptResponses() bool { return f.interceptResponses.Load() }

// SetInterceptRequests sets the request-side flag.
func (f *Flags) SetInterceptRequests(v bool) { f.interceptRequests.Store(v) }

// SetInterceptResponses sets the response-side flag.
func (f *Flags) SetInterceptResponses(v bool) { f.interceptResponses.Store(v) }
