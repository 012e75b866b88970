package replayer

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/antigravity/mediator/internal/capture"
	"github.com/antigravity/mediator/internal/mediator"
)

// forbiddenNames are headers the in-page JS request API refuses to set
// directly (spec.md §4.D step 2) — these must travel through the channel
// header instead of the safe set.
// Keys are lowercase; isForbidden lowercases the name it looks up so a
// driver that doesn't canonicalize header casing (e.g. a literal "TE" or
// "transfer-encoding") is still caught.
var forbiddenNames = map[string]bool{
	"host":              true,
	"connection":        true,
	"keep-alive":        true,
	"te":                true,
	"trailer":           true,
	"transfer-encoding": true,
	"upgrade":           true,
	"cookie":            true,
	"user-agent":        true,
	"referer":           true,
	"origin":            true,
	"content-length":    true,
	"date":              true,
	"expect":            true,
}

func isForbidden(name string) bool {
	lower := strings.ToLower(name)
	if forbiddenNames[lower] {
		return true
	}
	return strings.HasPrefix(lower, "sec-") || strings.HasPrefix(lower, "proxy-")
}

// partition splits a stored header set into the safe set (headers the
// in-page request API will actually send) and the forbidden set (headers
// that must instead be smuggled through the channel header protocol).
func partition(h capture.Headers) (safe, forbidden capture.Headers) {
	for _, kv := range h {
		if isForbidden(kv.Name) {
			forbidden = append(forbidden, kv)
		} else {
			safe = append(safe, kv)
		}
	}
	return safe, forbidden
}

// buildChannelHeaders implements spec.md §4.D step 3: serialise the full
// original header map to JSON in X-Antigravity-Override, set
// X-WAF-Bypass-Repeater, bind both to the per-process nonce, and add them
// to the safe set that the in-page script will actually send.
func buildChannelHeaders(original capture.Headers, nonce string) (capture.Headers, error) {
	safe, _ := partition(original)

	overrideJSON, err := json.Marshal(original.Map())
	if err != nil {
		return nil, fmt.Errorf("encoding header override: %w", err)
	}

	out := safe
	out = out.Add(mediator.HeaderOverride, string(overrideJSON))
	out = out.Add(mediator.HeaderBypass, "1")
	if nonce != "" {
		out = out.Add(mediator.HeaderNonce, nonce)
	}
	return out, nil
}
