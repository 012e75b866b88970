package rules

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/antigravity/mediator/internal/capture"
)

// rewriteLine applies a single rule's match/replace to one line of text,
// silently leaving the line untouched if the rule is a regex rule with no
// compiled pattern (invalid at load time) — the skip-silently error policy.
func rewriteLine(r Rule, line string) string {
	if r.IsRegex {
		if r.compiled == nil {
			return line
		}
		return r.compiled.ReplaceAllString(line, r.Replace)
	}
	return strings.ReplaceAll(line, r.Match, r.Replace)
}

func enabledFor(rs []Rule, item ItemSlice) []Rule {
	out := make([]Rule, 0, len(rs))
	for _, r := range rs {
		if r.Enabled && r.Item == item {
			out = append(out, r)
		}
	}
	return out
}

// ApplyRequestFirstLine linearizes method+url into a single request line,
// runs every enabled RequestFirstLine rule over it in order, then reparses
// the rewritten line back into method/url. A line that no longer splits
// into at least two space-separated fields leaves method/url unchanged.
func ApplyRequestFirstLine(rs []Rule, method, url string) (string, string) {
	active := enabledFor(rs, RequestFirstLine)
	if len(active) == 0 {
		return method, url
	}

	line := fmt.Sprintf("%s %s HTTP/1.1", method, url)
	for _, r := range active {
		line = rewriteLine(r, line)
	}

	parts := strings.Fields(line)
	if len(parts) >= 2 {
		return parts[0], parts[1]
	}
	return method, url
}

// ApplyResponseFirstLine is the response-side analog of
// ApplyRequestFirstLine: it linearizes the status code, rewrites, and
// reparses. A malformed result after rewrite leaves status unchanged.
func ApplyResponseFirstLine(rs []Rule, status int) int {
	active := enabledFor(rs, ResponseFirstLine)
	if len(active) == 0 {
		return status
	}

	line := fmt.Sprintf("HTTP/1.1 %d", status)
	for _, r := range active {
		line = rewriteLine(r, line)
	}

	parts := strings.Fields(line)
	if len(parts) < 2 {
		return status
	}
	n, err := strconv.Atoi(parts[1])
	if err != nil {
		return status
	}
	return n
}

// ApplyHeaders linearizes a header multimap into "Name: Value" lines, runs
// every enabled rule of the given item kind over each line in turn, then
// reparses the surviving lines back into a multimap. A rule that rewrites
// a line to empty deletes that header; a line with no colon after rewrite
// is dropped on reparse (unlike the first-line case, which keeps the
// original on malformed output). Repeated names stay separate entries.
func ApplyHeaders(rs []Rule, item ItemSlice, h capture.Headers) capture.Headers {
	active := enabledFor(rs, item)
	if len(active) == 0 {
		return h
	}

	lines := make([]string, 0, len(h))
	for _, kv := range h {
		lines = append(lines, kv.Name+": "+kv.Value)
	}

	for _, r := range active {
		rewritten := make([]string, 0, len(lines))
		for _, line := range lines {
			newLine := rewriteLine(r, line)
			if newLine != "" {
				rewritten = append(rewritten, newLine)
			}
		}
		lines = rewritten
	}

	out := make(capture.Headers, 0, len(lines))
	for _, line := range lines {
		if name, value, ok := strings.Cut(line, ": "); ok {
			out = append(out, capture.Header{Name: name, Value: value})
			continue
		}
		if name, value, ok := strings.Cut(line, ":"); ok {
			out = append(out, capture.Header{Name: name, Value: value})
		}
	}
	return out
}

// ApplyBody runs every enabled rule of the given item kind over body text
// in order. item must be RequestBody or ResponseBody.
func ApplyBody(rs []Rule, item ItemSlice, body string) string {
	active := enabledFor(rs, item)
	for _, r := range active {
		body = rewriteLine(r, body)
	}
	return body
}
