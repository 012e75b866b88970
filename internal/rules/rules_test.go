package rules

import (
	"testing"

	"github.com/antigravity/mediator/internal/capture"
)

func TestApplyRequestFirstLineLiteral(t *testing.T) {
	rs := []Rule{{Enabled: true, Item: RequestFirstLine, Match: "/v1/", Replace: "/v2/"}}
	method, url := ApplyRequestFirstLine(rs, "GET", "/v1/users")
	if method != "GET" || url != "/v2/users" {
		t.Fatalf("got %s %s", method, url)
	}
}

func TestApplyRequestFirstLineRegex(t *testing.T) {
	rs := []Rule{{Enabled: true, Item: RequestFirstLine, IsRegex: true, Match: `GET`, Replace: "POST"}}
	for i := range rs {
		rs[i].compile()
	}
	method, _ := ApplyRequestFirstLine(rs, "GET", "/x")
	if method != "POST" {
		t.Fatalf("got %s", method)
	}
}

func TestApplyRequestFirstLineDisabledRuleIgnored(t *testing.T) {
	rs := []Rule{{Enabled: false, Item: RequestFirstLine, Match: "/v1/", Replace: "/v2/"}}
	method, url := ApplyRequestFirstLine(rs, "GET", "/v1/users")
	if method != "GET" || url != "/v1/users" {
		t.Fatalf("disabled rule should not apply, got %s %s", method, url)
	}
}

func TestApplyRequestFirstLineWrongItemIgnored(t *testing.T) {
	rs := []Rule{{Enabled: true, Item: ResponseFirstLine, Match: "/v1/", Replace: "/v2/"}}
	method, url := ApplyRequestFirstLine(rs, "GET", "/v1/users")
	if method != "GET" || url != "/v1/users" {
		t.Fatalf("response-side rule should not touch request line, got %s %s", method, url)
	}
}

func TestApplyResponseFirstLineRewritesStatus(t *testing.T) {
	rs := []Rule{{Enabled: true, Item: ResponseFirstLine, Match: "403", Replace: "200"}}
	got := ApplyResponseFirstLine(rs, 403)
	if got != 200 {
		t.Fatalf("got %d", got)
	}
}

func TestApplyHeadersRewritesValue(t *testing.T) {
	h := capture.Headers{{Name: "X-Env", Value: "staging"}}
	rs := []Rule{{Enabled: true, Item: RequestHeader, Match: "staging", Replace: "prod"}}
	out := ApplyHeaders(rs, RequestHeader, h)
	v, ok := out.Get("X-Env")
	if !ok || v != "prod" {
		t.Fatalf("got %q, %v", v, ok)
	}
}

func TestApplyHeadersEmptyReplaceDeletesHeader(t *testing.T) {
	h := capture.Headers{
		{Name: "X-Drop-Me", Value: "1"},
		{Name: "X-Keep", Value: "yes"},
	}
	rs := []Rule{{Enabled: true, Item: RequestHeader, IsRegex: true, Match: `X-Drop-Me: .*`, Replace: ""}}
	for i := range rs {
		rs[i].compile()
	}
	out := ApplyHeaders(rs, RequestHeader, h)
	if len(out) != 1 || out[0].Name != "X-Keep" {
		t.Fatalf("got %+v", out)
	}
}

func TestApplyHeadersInvalidRegexSkipsSilently(t *testing.T) {
	h := capture.Headers{{Name: "X-Foo", Value: "bar"}}
	rs := []Rule{{Enabled: true, Item: RequestHeader, IsRegex: true, Match: "(unclosed", Replace: "x"}}
	for i := range rs {
		rs[i].compile()
	}
	out := ApplyHeaders(rs, RequestHeader, h)
	v, _ := out.Get("X-Foo")
	if v != "bar" {
		t.Fatalf("invalid regex should leave header untouched, got %q", v)
	}
}

func TestApplyBodyLiteral(t *testing.T) {
	rs := []Rule{
		{Enabled: true, Item: RequestBody, Match: "secret", Replace: "REDACTED"},
	}
	out := ApplyBody(rs, RequestBody, `{"token":"secret"}`)
	if out != `{"token":"REDACTED"}` {
		t.Fatalf("got %q", out)
	}
}

func TestEngineSnapshotIsolatesFromReplace(t *testing.T) {
	e := &Engine{rules: []Rule{{Enabled: true, Item: RequestBody, Match: "a", Replace: "b"}}}
	snap := e.Snapshot()
	e.Replace([]Rule{{Enabled: true, Item: RequestBody, Match: "c", Replace: "d"}})
	if len(snap) != 1 || snap[0].Match != "a" {
		t.Fatalf("snapshot mutated after Replace: %+v", snap)
	}
	if e.Count() != 1 || e.Snapshot()[0].Match != "c" {
		t.Fatalf("Replace did not take effect")
	}
}

func TestEngineRemoveOutOfRange(t *testing.T) {
	e := &Engine{}
	if err := e.Remove(0); err == nil {
		t.Fatal("expected error removing from empty rule list")
	}
}
