// Package mediator implements the interception mediator: the per-network
// event pipeline that ties the rule engine, the pending registry, and the
// browser's own network stack together (capture → optional suspend →
// rewrite → dispatch → capture response → optional suspend → deliver).
package mediator

import (
	"context"
	"net/http"

	"github.com/antigravity/mediator/internal/capture"
	"github.com/antigravity/mediator/internal/pending"
	"github.com/antigravity/mediator/internal/rules"
)

// NetworkEvent is what the browser automation surface hands the mediator
// for a single intercepted network operation, before any rewrite.
type NetworkEvent struct {
	Method       string
	URL          string
	Headers      capture.Headers
	Body         capture.Body
	ResourceType string
}

// FetchResult is the raw response obtained in mediated-mode dispatch,
// before the rule engine's response-side rewrite runs.
type FetchResult struct {
	Status  int
	Headers capture.Headers
	Body    capture.Body
}

// RouteControl is the per-event handle the browser automation surface
// gives the mediator for one intercepted network operation — the Go
// shape of a CDP/Playwright route (continue/fetch/fulfill/abort). A real
// browser integration implements this; DefaultRouteControl is the
// HTTP-only stand-in used when no browser is attached.
type RouteControl interface {
	// Continue hands the request back to the browser's own network
	// stack unmodified-by-us from here on — bypass mode's dispatch.
	Continue(ctx context.Context, method, url string, headers capture.Headers, body capture.Body) error
	// Fetch performs the HTTP exchange from the automation layer and
	// returns the raw response — mediated mode's dispatch step.
	Fetch(ctx context.Context, method, url string, headers capture.Headers, body capture.Body) (*FetchResult, error)
	// Fulfill completes the route with an explicit status/headers/body —
	// mediated mode's delivery step.
	Fulfill(ctx context.Context, status int, headers capture.Headers, body capture.Body) error
	// Abort terminates the route without a response.
	Abort(ctx context.Context) error
}

// CaptureSink receives capture events for delivery to the control
// channel. Implemented by internal/control.
type CaptureSink interface {
	EmitRequest(capture.Request)
	EmitResponse(capture.Response)
}

// ScopeMatcher decides whether a URL is excluded from capture/interception
// for the active project. Implemented by internal/scope. A nil Scope on
// Mediator means nothing is excluded.
type ScopeMatcher interface {
	Excluded(urlStr string) bool
}

// HistoryRecorder records per-origin traffic stats. Implemented by
// internal/history. A nil History on Mediator disables stat recording.
type HistoryRecorder interface {
	RecordRequest(urlStr string)
	RecordResponse(urlStr string, status int)
}

// Options holds the dependencies wired into a Mediator at construction.
type Options struct {
	Rules   *rules.Engine
	Pending *pending.Registry
	Flags   *capture.Flags
	Sink    CaptureSink
	Scope   ScopeMatcher
	History HistoryRecorder
	Nonce   string
	Client  *http.Client
}

// Mediator is the interception pipeline runner (component C).
type Mediator struct {
	rules   *rules.Engine
	pending *pending.Registry
	flags   *capture.Flags
	sink    CaptureSink
	scope   ScopeMatcher
	history HistoryRecorder
	nonce   string
	client  *http.Client
}

// New constructs a Mediator from its dependencies. Client defaults to
// http.DefaultClient if nil.
func New(opts Options) *Mediator {
	client := opts.Client
	if client == nil {
		client = http.DefaultClient
	}
	return &Mediator{
		rules:   opts.Rules,
		pending: opts.Pending,
		flags:   opts.Flags,
		sink:    opts.Sink,
		scope:   opts.Scope,
		history: opts.History,
		nonce:   opts.Nonce,
		client:  client,
	}
}
