package mediator

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log/slog"

	"github.com/antigravity/mediator/internal/capture"
)

// Reserved wire headers (spec.md §6). They never reach the egress wire —
// inspectChannel strips them on every path through the pipeline.
const (
	HeaderBypass   = "X-WAF-Bypass-Repeater"
	HeaderOverride = "X-Antigravity-Override"
	// HeaderNonce binds the override channel to replayer-originated
	// requests: a per-process random value the replayer embeds so an
	// arbitrary page script cannot forge a bypass/override pair.
	HeaderNonce = "X-Antigravity-Nonce"
)

// NewNonce mints a random per-process nonce for the override channel.
func NewNonce() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand failing means the platform RNG is broken; fall back
		// to a fixed-but-unique-enough value rather than panic, since the
		// channel is additive hardening, not the primary trust boundary.
		return "fallback-nonce-" + capture.NewID()
	}
	return hex.EncodeToString(b)
}

// channelResult is what step 3 of the pipeline (spec.md §4.C) derives
// from inspecting the rewritten request headers.
type channelResult struct {
	bypass    bool
	overrides map[string]string
	headers   capture.Headers // with all three reserved headers stripped
}

// inspectChannel implements spec.md §4.C step 3: find the reserved
// headers, verify the nonce, and (only when trusted) honor bypass mode
// and the header overrides. An untrusted bypass/override pair is logged
// as a protocol violation and ignored, but is still stripped before
// egress — the reserved headers must never reach the wire either way.
func (m *Mediator) inspectChannel(h capture.Headers) channelResult {
	var (
		bypassPresent   bool
		overrideRaw     string
		overridePresent bool
		nonceVal        string
		noncePresent    bool
	)

	for _, kv := range h {
		switch {
		case equalFold(kv.Name, HeaderBypass):
			bypassPresent = true
		case equalFold(kv.Name, HeaderOverride):
			overrideRaw = kv.Value
			overridePresent = true
		case equalFold(kv.Name, HeaderNonce):
			nonceVal = kv.Value
			noncePresent = true
		}
	}

	stripped := h.Without(HeaderBypass, HeaderOverride, HeaderNonce)

	if !bypassPresent && !overridePresent {
		return channelResult{headers: stripped}
	}

	trusted := m.nonce != "" && noncePresent && nonceVal == m.nonce
	if !trusted {
		slog.Warn("channel header protocol violation: untrusted bypass/override attempt",
			"bypass_present", bypassPresent, "override_present", overridePresent)
		return channelResult{headers: stripped}
	}

	result := channelResult{bypass: bypassPresent, headers: stripped}
	if overridePresent {
		var overrides map[string]string
		if err := json.Unmarshal([]byte(overrideRaw), &overrides); err != nil {
			slog.Warn("channel header protocol violation: malformed override JSON", "error", err)
			return result
		}
		result.overrides = overrides
	}
	return result
}

// applyOverrides merges the override map on top of headers, replacing any
// existing value for a given name and appending new names, per spec.md §3's
// "merge on top" wording for the channel protocol.
func applyOverrides(h capture.Headers, overrides map[string]string) capture.Headers {
	if len(overrides) == 0 {
		return h
	}
	out := h
	for name, value := range overrides {
		replaced := false
		for i := range out {
			if equalFold(out[i].Name, name) {
				out[i].Value = value
				replaced = true
			}
		}
		if !replaced {
			out = out.Add(name, value)
		}
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
