package control

import (
	"encoding/json"

	"github.com/antigravity/mediator/internal/capture"
	"github.com/antigravity/mediator/internal/pending"
)

// inbound is the envelope every message from the UI is decoded into
// first — the `command` discriminator selects which optional fields are
// meaningful, per spec.md §6's inbound command table.
type inbound struct {
	Command string `json:"command"`

	URL      string             `json:"url,omitempty"`
	Enabled  bool               `json:"enabled,omitempty"`
	ID       string             `json:"id,omitempty"`
	Modified *pending.Overrides `json:"modified,omitempty"`
	Request  *capture.Request   `json:"request,omitempty"`
	TabID    string             `json:"tabId,omitempty"`
}

// outbound is the envelope every message to the UI is encoded from — the
// `type` discriminator disambiguates, mirroring the inbound `command`
// field's role.
type outbound struct {
	Type string `json:"type"`

	Data               any    `json:"data,omitempty"`
	InterceptRequests  *bool  `json:"interceptRequests,omitempty"`
	InterceptResponses *bool  `json:"interceptResponses,omitempty"`
	ID                 string `json:"id,omitempty"`
	OK                 bool   `json:"ok,omitempty"`
	OriginalID         string `json:"original_id,omitempty"`
	TabID              string `json:"tab_id,omitempty"`
	Status             int    `json:"status,omitempty"`
	Headers            any    `json:"headers,omitempty"`
	Body               any    `json:"body,omitempty"`
	Error              string `json:"error,omitempty"`
}

func marshal(o outbound) []byte {
	data, err := json.Marshal(o)
	if err != nil {
		// Only a message carrying an unmarshalable field reaches here;
		// losing one event is preferable to crashing the hub.
		return []byte(`{"type":"error","error":"internal: failed to encode outbound message"}`)
	}
	return data
}
