package control

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/antigravity/mediator/internal/pending"
)

// handle decodes one inbound WebSocket frame and dispatches it to the
// matching command handler, replying to c (never broadcasting, since
// every reply in spec.md §6 is addressed to the requester).
func (h *Hub) handle(c *conn, data []byte) {
	var msg inbound
	if err := json.Unmarshal(data, &msg); err != nil {
		slog.Warn("control channel: malformed message", "error", err)
		c.reply(marshal(outbound{Type: "error", Error: "malformed message"}))
		return
	}

	switch msg.Command {
	case "start":
		h.handleStart(c, msg)
	case "stop":
		h.handleStop(c)
	case "intercept_requests":
		h.flags.SetInterceptRequests(msg.Enabled)
		h.replyInterceptStatus(c)
	case "intercept_responses":
		h.flags.SetInterceptResponses(msg.Enabled)
		h.replyInterceptStatus(c)
	case "forward":
		h.handleForward(c, msg)
	case "drop":
		h.handleDrop(c, msg)
	case "replay":
		h.handleReplay(c, msg)
	default:
		slog.Warn("control channel: unknown command", "command", msg.Command)
		c.reply(marshal(outbound{Type: "error", Error: "unknown command: " + msg.Command}))
	}
}

func (h *Hub) handleStart(c *conn, msg inbound) {
	if h.lifecycle == nil {
		c.reply(marshal(outbound{Type: "error", Error: "no browser lifecycle attached"}))
		return
	}
	if err := h.lifecycle.Start(context.Background(), msg.URL); err != nil {
		slog.Error("control channel: start failed", "url", msg.URL, "error", err)
		c.reply(marshal(outbound{Type: "error", Error: err.Error()}))
	}
}

func (h *Hub) handleStop(c *conn) {
	if h.lifecycle == nil {
		c.reply(marshal(outbound{Type: "error", Error: "no browser lifecycle attached"}))
		return
	}
	if err := h.lifecycle.Stop(); err != nil {
		slog.Error("control channel: stop failed", "error", err)
		c.reply(marshal(outbound{Type: "error", Error: err.Error()}))
	}
}

func (h *Hub) replyInterceptStatus(c *conn) {
	reqFlag := h.flags.InterceptRequests()
	respFlag := h.flags.InterceptResponses()
	c.reply(marshal(outbound{
		Type:               "intercept_status",
		InterceptRequests:  &reqFlag,
		InterceptResponses: &respFlag,
	}))
}

func (h *Hub) handleForward(c *conn, msg inbound) {
	if msg.ID == "" {
		c.reply(marshal(outbound{Type: "forward_result", ID: msg.ID, OK: false}))
		return
	}
	err := h.pending.Resolve(msg.ID, pending.Resolution{Verdict: pending.Forward, Overrides: msg.Modified})
	c.reply(marshal(outbound{Type: "forward_result", ID: msg.ID, OK: err == nil}))
}

func (h *Hub) handleDrop(c *conn, msg inbound) {
	if msg.ID == "" {
		c.reply(marshal(outbound{Type: "drop_result", ID: msg.ID, OK: false}))
		return
	}
	err := h.pending.Resolve(msg.ID, pending.Resolution{Verdict: pending.Drop})
	c.reply(marshal(outbound{Type: "drop_result", ID: msg.ID, OK: err == nil}))
}

func (h *Hub) handleReplay(c *conn, msg inbound) {
	if msg.Request == nil {
		c.reply(marshal(outbound{Type: "replay_response", TabID: msg.TabID, Error: "missing request"}))
		return
	}
	if h.replayer == nil {
		c.reply(marshal(outbound{Type: "replay_response", OriginalID: msg.Request.ID, TabID: msg.TabID, Error: "no replayer attached"}))
		return
	}

	result := h.replayer.Replay(context.Background(), *msg.Request)
	c.reply(marshal(outbound{
		Type:       "replay_response",
		OriginalID: msg.Request.ID,
		TabID:      msg.TabID,
		Status:     result.Status,
		Headers:    result.Headers,
		Body:       result.Body,
		Error:      result.Error,
	}))
}
