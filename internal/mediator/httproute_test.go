package mediator

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/antigravity/mediator/internal/capture"
)

func TestHTTPProxyRouteControlFulfillWritesStatusHeadersBody(t *testing.T) {
	rec := httptest.NewRecorder()
	rt := NewHTTPProxyRouteControl(rec, http.DefaultClient)

	err := rt.Fulfill(context.Background(), http.StatusCreated,
		capture.Headers{
			{Name: "X-Custom", Value: "yes"},
			{Name: "Connection", Value: "close"},
		},
		capture.NewTextBody("hello"),
	)
	if err != nil {
		t.Fatalf("Fulfill: %v", err)
	}

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", rec.Code)
	}
	if rec.Header().Get("X-Custom") != "yes" {
		t.Fatalf("expected X-Custom header to be written, got %+v", rec.Header())
	}
	if rec.Header().Get("Connection") != "" {
		t.Fatalf("hop-by-hop header Connection must not be written, got %+v", rec.Header())
	}
	if rec.Body.String() != "hello" {
		t.Fatalf("expected body %q, got %q", "hello", rec.Body.String())
	}
}

func TestHTTPProxyRouteControlFulfillDefaultsStatusToOK(t *testing.T) {
	rec := httptest.NewRecorder()
	rt := NewHTTPProxyRouteControl(rec, http.DefaultClient)

	if err := rt.Fulfill(context.Background(), 0, nil, capture.Body{}); err != nil {
		t.Fatalf("Fulfill: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected default status 200, got %d", rec.Code)
	}
}

func TestHTTPProxyRouteControlAbortWritesBadGateway(t *testing.T) {
	rec := httptest.NewRecorder()
	rt := NewHTTPProxyRouteControl(rec, http.DefaultClient)

	if err := rt.Abort(context.Background()); err != nil {
		t.Fatalf("Abort: %v", err)
	}
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected status 502, got %d", rec.Code)
	}
}

func TestHTTPProxyRouteControlContinuePerformsFetchThenFulfill(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Upstream", "1")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("upstream body"))
	}))
	defer upstream.Close()

	rec := httptest.NewRecorder()
	rt := NewHTTPProxyRouteControl(rec, upstream.Client())

	err := rt.Continue(context.Background(), http.MethodGet, upstream.URL, nil, capture.Body{})
	if err != nil {
		t.Fatalf("Continue: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if rec.Header().Get("X-Upstream") != "1" {
		t.Fatalf("expected upstream header to pass through, got %+v", rec.Header())
	}
	if rec.Body.String() != "upstream body" {
		t.Fatalf("expected upstream body to pass through, got %q", rec.Body.String())
	}
}

func TestHTTPProxyRouteControlFetchDoesNotWriteResponse(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	defer upstream.Close()

	rec := httptest.NewRecorder()
	rt := NewHTTPProxyRouteControl(rec, upstream.Client())

	result, err := rt.Fetch(context.Background(), http.MethodGet, upstream.URL, nil, capture.Body{})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if result.Status != http.StatusTeapot {
		t.Fatalf("expected fetched status 418, got %d", result.Status)
	}
	if rec.Result().StatusCode != http.StatusOK {
		t.Fatalf("Fetch must not write to the ResponseWriter (recorder default is 200), got code %d", rec.Result().StatusCode)
	}
}
