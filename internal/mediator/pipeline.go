package mediator

import (
	"context"
	"log/slog"

	"github.com/antigravity/mediator/internal/capture"
	"github.com/antigravity/mediator/internal/classify"
	"github.com/antigravity/mediator/internal/pending"
	"github.com/antigravity/mediator/internal/rules"
)

// HandleRoute runs the full interception pipeline (spec.md §4.C) exactly
// once for a single intercepted network operation. It consumes ev (the
// normalised request the browser observed) and drives rt to either hand
// the exchange back to the browser (bypass mode) or perform it from the
// automation layer and deliver the result (mediated mode).
//
// A panic in a rewrite stage is recovered and logged, and the pipeline
// continues with the values rewritten before the panic; the original,
// unmodified request is not passed through as a fallback. A dispatch
// failure in either mode aborts the route — there is no retry.
func (m *Mediator) HandleRoute(ctx context.Context, ev NetworkEvent, rt RouteControl) {
	reqID := capture.NewID()

	method, url := ev.Method, ev.URL
	headers := ev.Headers
	body := ev.Body

	// Step 2: rewrite request (pre-decision).
	func() {
		defer m.recoverRewrite("request rewrite")
		method, url = m.rules.RewriteRequestFirstLine(method, url)
		headers = m.rules.RewriteHeaders(rules.RequestHeader, headers)
		if body.Present && !body.Binary {
			body.Text = m.rules.RewriteBody(rules.RequestBody, body.Text)
		}
	}()

	// Step 3: channel-header protocol.
	ch := m.inspectChannel(headers)
	headers = ch.headers
	bypass := ch.bypass
	if len(ch.overrides) > 0 {
		headers = applyOverrides(headers, ch.overrides)
	}

	excluded := m.scope != nil && m.scope.Excluded(url)
	if excluded {
		bypass = true
	}

	resourceType := ev.ResourceType
	if resourceType == "" {
		contentType, _ := headers.Get("Content-Type")
		resourceType = string(classify.FromURLAndContentType(url, contentType))
	}

	req := capture.Request{
		ID:           reqID,
		Method:       method,
		URL:          url,
		Headers:      headers,
		Body:         body,
		ResourceType: resourceType,
		TimestampMs:  capture.NowMs(),
	}

	// Step 4: capture or suspend (request side).
	interceptThis := m.flags != nil && m.flags.InterceptRequests() && !bypass
	req.Pending = interceptThis
	if !excluded {
		m.emitRequest(req)
	}
	if m.history != nil {
		m.history.RecordRequest(url)
	}

	if interceptThis {
		verdict, ok := m.awaitVerdict(ctx, reqID, capture.KindRequest)
		if !ok || verdict.Verdict == pending.Drop {
			m.abort(ctx, rt)
			return
		}
		method, url, headers, body = applyRequestOverrides(method, url, headers, body, verdict.Overrides)
	}

	// Step 5: dispatch.
	if bypass {
		// Host and Content-Length must be recomputed by the browser's own
		// network stack, not carried over stale from the channel-header
		// override (spec.md §4.C step 5); stripHopByHop alone doesn't
		// cover either.
		if err := rt.Continue(ctx, method, url, stripHopByHop(headers).Without("Host", "Content-Length"), body); err != nil {
			slog.Error("bypass continue failed", "url", url, "error", err)
			m.abort(ctx, rt)
		}
		// No response-side interception in bypass mode; the response
		// follows the browser's own path (spec.md §4.C step 5).
		return
	}

	result, err := rt.Fetch(ctx, method, url, stripHopByHop(headers), body)
	if err != nil {
		slog.Error("mediated dispatch failed", "url", url, "error", err)
		m.abort(ctx, rt)
		return
	}

	// Step 6: rewrite response (pre-decision).
	status := result.Status
	resHeaders := result.Headers
	resBody := result.Body
	func() {
		defer m.recoverRewrite("response rewrite")
		status = m.rules.RewriteResponseFirstLine(status)
		resHeaders = m.rules.RewriteHeaders(rules.ResponseHeader, resHeaders)
		if resBody.Present && !resBody.Binary {
			resBody.Text = m.rules.RewriteBody(rules.ResponseBody, resBody.Text)
		}
	}()

	resID := capture.NewID()
	res := capture.Response{
		ID:          resID,
		ReqID:       reqID,
		URL:         url,
		Status:      status,
		Headers:     resHeaders,
		Body:        resBody,
		TimestampMs: capture.NowMs(),
	}

	// Step 7: capture or suspend (response side).
	interceptRes := m.flags != nil && m.flags.InterceptResponses()
	res.Pending = interceptRes
	m.emitResponse(res)
	if m.history != nil {
		m.history.RecordResponse(url, status)
	}

	if interceptRes {
		verdict, ok := m.awaitVerdict(ctx, resID, capture.KindResponse)
		if !ok || verdict.Verdict == pending.Drop {
			m.abort(ctx, rt)
			return
		}
		status, resHeaders, resBody = applyResponseOverrides(status, resHeaders, resBody, verdict.Overrides)
	}

	// Step 8: deliver.
	if err := rt.Fulfill(ctx, status, resHeaders, resBody); err != nil {
		slog.Error("fulfill failed", "url", url, "error", err)
	}
}

// recoverRewrite absorbs a panic from the rule engine's rewrite stage
// (e.g. a third-party regex library panicking on pathological input),
// matching spec.md §7's recoverable-RuleError policy: logged, never
// fatal, pipeline continues with whatever slice was rewritten so far.
func (m *Mediator) recoverRewrite(stage string) {
	if r := recover(); r != nil {
		slog.Error("recovered from panic during rewrite", "stage", stage, "panic", r)
	}
}

func (m *Mediator) emitRequest(r capture.Request) {
	if m.sink != nil {
		m.sink.EmitRequest(r)
	}
}

func (m *Mediator) emitResponse(r capture.Response) {
	if m.sink != nil {
		m.sink.EmitResponse(r)
	}
}

// awaitVerdict parks id in the pending registry and blocks until a
// verdict arrives or ctx is cancelled (shutdown), in which case the item
// is treated as an Orphaned/Drop terminal state.
func (m *Mediator) awaitVerdict(ctx context.Context, id string, kind capture.Kind) (pending.Resolution, bool) {
	ch := m.pending.Park(ctx, id, kind)
	res, ok := <-ch
	return res, ok
}

func (m *Mediator) abort(ctx context.Context, rt RouteControl) {
	if err := rt.Abort(ctx); err != nil {
		slog.Error("abort failed", "error", err)
	}
}

func applyRequestOverrides(method, url string, headers capture.Headers, body capture.Body, ov *pending.Overrides) (string, string, capture.Headers, capture.Body) {
	if ov == nil {
		return method, url, headers, body
	}
	if ov.Method != "" {
		method = ov.Method
	}
	if ov.URL != "" {
		url = ov.URL
	}
	if ov.Headers != nil {
		headers = ov.Headers
	}
	if ov.Body != "" {
		body = capture.NewTextBody(ov.Body)
	}
	return method, url, headers, body
}

func applyResponseOverrides(status int, headers capture.Headers, body capture.Body, ov *pending.Overrides) (int, capture.Headers, capture.Body) {
	if ov == nil {
		return status, headers, body
	}
	if ov.Status != 0 {
		status = ov.Status
	}
	if ov.Headers != nil {
		headers = ov.Headers
	}
	if ov.Body != "" {
		body = capture.NewTextBody(ov.Body)
	}
	return status, headers, body
}
