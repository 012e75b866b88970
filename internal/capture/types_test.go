package capture

import "testing"

func TestHeadersGetCaseInsensitive(t *testing.T) {
	h := Headers{{Name: "Content-Type", Value: "text/html"}}
	v, ok := h.Get("content-type")
	if !ok || v != "text/html" {
		t.Fatalf("Get case-insensitive: got %q, %v", v, ok)
	}
}

func TestHeadersWithoutRemovesAllMatches(t *testing.T) {
	h := Headers{
		{Name: "Host", Value: "a.example"},
		{Name: "X-Foo", Value: "bar"},
		{Name: "host", Value: "dup"},
	}
	out := h.Without("Host")
	if len(out) != 1 || out[0].Name != "X-Foo" {
		t.Fatalf("Without: got %+v", out)
	}
}

func TestHeadersMapLastWriterWins(t *testing.T) {
	h := Headers{
		{Name: "X-Foo", Value: "first"},
		{Name: "X-Foo", Value: "second"},
	}
	m := h.Map()
	if m["X-Foo"] != "second" {
		t.Fatalf("Map last-writer-wins: got %q", m["X-Foo"])
	}
}

func TestFlagsIndependentAndLive(t *testing.T) {
	var f Flags
	if f.InterceptRequests() || f.InterceptResponses() {
		t.Fatal("flags should start false")
	}
	f.SetInterceptRequests(true)
	if !f.InterceptRequests() {
		t.Fatal("SetInterceptRequests(true) did not stick")
	}
	if f.InterceptResponses() {
		t.Fatal("InterceptResponses should be independent of InterceptRequests")
	}
}

func TestNewIDIsUnique(t *testing.T) {
	a, b := NewID(), NewID()
	if a == b {
		t.Fatal("NewID produced a duplicate")
	}
}
