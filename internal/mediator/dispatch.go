package mediator

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/andybalholm/brotli"

	"github.com/antigravity/mediator/internal/capture"
)

// hopByHopHeaders must never be forwarded across a proxy hop; they are
// connection-specific to a single leg of the exchange. Keys are
// lowercase; stripHopByHop and Fulfill both lowercase the name they look
// up, so a driver that doesn't canonicalize header casing (e.g. a literal
// "TE" or "Transfer-Encoding" variant) is still caught.
var hopByHopHeaders = map[string]bool{
	"connection":          true,
	"keep-alive":          true,
	"proxy-authenticate":  true,
	"proxy-authorization": true,
	"te":                  true,
	"trailers":            true,
	"transfer-encoding":   true,
	"upgrade":             true,
}

func isHopByHop(name string) bool {
	return hopByHopHeaders[strings.ToLower(name)]
}

func stripHopByHop(h capture.Headers) capture.Headers {
	out := make(capture.Headers, 0, len(h))
	for _, kv := range h {
		if isHopByHop(kv.Name) {
			continue
		}
		out = append(out, kv)
	}
	return out
}

// DefaultRouteControl is the HTTP-only stand-in for a real browser
// automation surface: Fetch performs the exchange itself via an
// http.Client, Continue degrades to the same thing (there is no separate
// browser network stack to hand the request back to), and Fulfill/Abort
// are no-ops for callers that don't have a real route handle (e.g. the
// replayer's own synthetic request, or tests).
//
// A real browser integration (CDP/Playwright-shaped) implements
// RouteControl directly against the live page and does not use this type.
type DefaultRouteControl struct {
	Client *http.Client
}

// NewDefaultRouteControl builds a DefaultRouteControl, defaulting to
// http.DefaultClient.
func NewDefaultRouteControl(client *http.Client) *DefaultRouteControl {
	if client == nil {
		client = http.DefaultClient
	}
	return &DefaultRouteControl{Client: client}
}

func (d *DefaultRouteControl) Continue(ctx context.Context, method, url string, headers capture.Headers, body capture.Body) error {
	_, err := d.do(ctx, method, url, headers, body)
	return err
}

func (d *DefaultRouteControl) Fetch(ctx context.Context, method, url string, headers capture.Headers, body capture.Body) (*FetchResult, error) {
	return d.do(ctx, method, url, headers, body)
}

func (d *DefaultRouteControl) Fulfill(ctx context.Context, status int, headers capture.Headers, body capture.Body) error {
	return nil
}

func (d *DefaultRouteControl) Abort(ctx context.Context) error {
	return nil
}

func (d *DefaultRouteControl) do(ctx context.Context, method, url string, headers capture.Headers, body capture.Body) (*FetchResult, error) {
	var reader io.Reader
	if body.Present && !body.Binary {
		reader = strings.NewReader(body.Text)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	for _, kv := range headers {
		req.Header.Add(kv.Name, kv.Value)
	}

	resp, err := d.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("dispatching %s %s: %w", method, url, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	resHeaders := make(capture.Headers, 0)
	for name, values := range resp.Header {
		for _, v := range values {
			resHeaders = append(resHeaders, capture.Header{Name: name, Value: v})
		}
	}

	return &FetchResult{
		Status:  resp.StatusCode,
		Headers: resHeaders,
		Body:    decodeBody(raw, resp.Header.Get("Content-Encoding")),
	}, nil
}

// decodeBody applies Content-Encoding (br/gzip) and falls back to the
// opaque "<binary data>" marker when the result isn't valid UTF-8 text —
// spec.md §7's DecodeError path.
func decodeBody(raw []byte, encoding string) capture.Body {
	if len(raw) == 0 {
		return capture.Body{Present: false}
	}

	decoded, err := decompress(raw, encoding)
	if err != nil {
		return capture.NewBinaryBody()
	}

	if !utf8.Valid(decoded) {
		return capture.NewBinaryBody()
	}
	return capture.NewTextBody(string(decoded))
}

func decompress(raw []byte, encoding string) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "br":
		return io.ReadAll(brotli.NewReader(bytes.NewReader(raw)))
	case "gzip":
		zr, err := gzip.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		return io.ReadAll(zr)
	default:
		return raw, nil
	}
}
