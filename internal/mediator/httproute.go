package mediator

import (
	"context"
	"net/http"

	"github.com/antigravity/mediator/internal/capture"
)

// HTTPProxyRouteControl is the RouteControl used when the mediator itself
// terminates the client connection as a standalone HTTP forward proxy,
// rather than being driven by a browser automation surface. There is no
// separate browser network stack to hand a request back to, so Continue
// performs the exchange itself and writes the result directly to the
// client — bypass mode and mediated mode converge on the same wire
// output, just at different pipeline stages.
//
// One instance is created per inbound HTTP request; it is not reused.
type HTTPProxyRouteControl struct {
	w      http.ResponseWriter
	client *http.Client
	fetch  *DefaultRouteControl
}

// NewHTTPProxyRouteControl builds a RouteControl that proxies a single
// inbound *http.Request's response onto w.
func NewHTTPProxyRouteControl(w http.ResponseWriter, client *http.Client) *HTTPProxyRouteControl {
	return &HTTPProxyRouteControl{w: w, client: client, fetch: NewDefaultRouteControl(client)}
}

// Continue is bypass mode's terminal step here: perform the exchange and
// write it straight through, since there is no browser to resume it.
func (h *HTTPProxyRouteControl) Continue(ctx context.Context, method, url string, headers capture.Headers, body capture.Body) error {
	result, err := h.fetch.Fetch(ctx, method, url, headers, body)
	if err != nil {
		return err
	}
	return h.Fulfill(ctx, result.Status, result.Headers, result.Body)
}

// Fetch performs the exchange without writing a response yet, so the
// pipeline can still run response-side rewrite and interception first.
func (h *HTTPProxyRouteControl) Fetch(ctx context.Context, method, url string, headers capture.Headers, body capture.Body) (*FetchResult, error) {
	return h.fetch.Fetch(ctx, method, url, headers, body)
}

// Fulfill writes the final status/headers/body to the proxied client.
func (h *HTTPProxyRouteControl) Fulfill(ctx context.Context, status int, headers capture.Headers, body capture.Body) error {
	for _, kv := range headers {
		if isHopByHop(kv.Name) {
			continue
		}
		h.w.Header().Add(kv.Name, kv.Value)
	}
	if status == 0 {
		status = http.StatusOK
	}
	h.w.WriteHeader(status)
	if body.Present {
		_, err := h.w.Write([]byte(body.Text))
		return err
	}
	return nil
}

// Abort terminates the proxied request with a Bad Gateway response.
func (h *HTTPProxyRouteControl) Abort(ctx context.Context) error {
	http.Error(h.w, "mediator: upstream exchange aborted", http.StatusBadGateway)
	return nil
}
