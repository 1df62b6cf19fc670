package live

import (
	"encoding/json"

	"github.com/loom-ui/loom/pkg/memdom"
)

// Frame types carried on the wire.
const (
	FramePatches = "patches" // Server -> client: recorded tree patches
	FrameEvent   = "event"   // Client -> server: listener invocation
	FramePing    = "ping"    // Client -> server keepalive
	FramePong    = "pong"    // Server -> client keepalive reply
	FrameClose   = "close"   // Server -> client: session ended
)

// Frame is the JSON wire unit exchanged with the thin client.
type Frame struct {
	Type string `json:"type"`

	// Seq numbers patch frames for client-side ordering checks.
	Seq uint64 `json:"seq,omitempty"`

	// Patches carries tree operations for a patches frame.
	Patches []memdom.Patch `json:"patches,omitempty"`

	// Node and Event identify the listener for an event frame.
	Node  uint64 `json:"node,omitempty"`
	Event string `json:"event,omitempty"`

	// Payload is the event's host-defined payload, decoded lazily.
	Payload json.RawMessage `json:"payload,omitempty"`

	// Reason explains a close frame.
	Reason string `json:"reason,omitempty"`
}

// DecodeFrame parses a wire frame.
func DecodeFrame(data []byte) (*Frame, error) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// Encode serializes the frame for the wire.
func (f *Frame) Encode() ([]byte, error) {
	return json.Marshal(f)
}
