package replayer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/antigravity/mediator/internal/capture"
)

// DefaultTimeout is the replay deadline from spec.md §5: on expiry the
// replayer returns an error result and abandons the underlying attempt.
const DefaultTimeout = 30 * time.Second

// Driver is the live-page surface the replayer needs: navigate to an
// origin, and inject a script that performs an in-page request and
// reports back its outcome. A real browser integration implements this
// against CDP/Playwright; it is the external boundary spec.md §6
// describes as "script evaluation in the current page, and navigation".
type Driver interface {
	Navigate(ctx context.Context, origin string) error
	Dispatch(ctx context.Context, method, url string, headers capture.Headers, body capture.Body) (status int, headers2 capture.Headers, body2 capture.Body, err error)
}

// Result is what Replay returns to the control channel: either a
// completed exchange or an error message, matching the replay_response
// outbound event's `{status,headers,body}` or `{error}` shape.
type Result struct {
	Status  int             `json:"status,omitempty"`
	Headers capture.Headers `json:"headers,omitempty"`
	Body    capture.Body    `json:"body,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Replayer re-issues a stored request from inside the page's JS context
// (component D). It never talks to the network directly; it always goes
// through Driver, which in turn is expected to funnel the in-page
// request back through the interception mediator for bypass-mode
// dispatch.
type Replayer struct {
	driver  Driver
	nonce   string
	timeout time.Duration
}

// New creates a Replayer. timeout of zero uses DefaultTimeout.
func New(driver Driver, nonce string, timeout time.Duration) *Replayer {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Replayer{driver: driver, nonce: nonce, timeout: timeout}
}

// Replay executes spec.md §4.D steps 1-6 for a single stored request.
func (r *Replayer) Replay(ctx context.Context, req capture.Request) Result {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	origin, err := Origin(req.URL)
	if err != nil {
		return Result{Error: fmt.Sprintf("parsing target origin: %v", err)}
	}

	if err := r.driver.Navigate(ctx, origin); err != nil {
		// Navigation failures are non-fatal and logged (spec.md §4.D
		// step 1) — the page may already be on the right origin.
		slog.Warn("replay navigation failed", "origin", origin, "error", err)
	}

	channelHeaders, err := buildChannelHeaders(req.Headers, r.nonce)
	if err != nil {
		return Result{Error: fmt.Sprintf("building channel headers: %v", err)}
	}

	status, headers, body, err := r.driver.Dispatch(ctx, req.Method, req.URL, channelHeaders, req.Body)
	if err != nil {
		if ctx.Err() != nil {
			return Result{Error: "replay timed out"}
		}
		return Result{Error: fmt.Sprintf("in-page dispatch failed: %v", err)}
	}

	return Result{Status: status, Headers: headers, Body: body}
}
