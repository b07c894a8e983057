package rpc

import (
	"encoding/json"
)

// Frame types
const (
	FrameExecute = "execute"
	FrameCall    = "call"
	FrameReply   = "reply"
	FrameResult  = "result"
	FrameError   = "error"
	FramePing    = "ping"
	FramePong    = "pong"
)

// Frame is one WebSocket message
type Frame struct {
	Type string          `json:"type"`
	ID   uint64          `json:"id,omitempty"`
	Data string          `json:"data,omitempty"`
	Body json.RawMessage `json:"body,omitempty"`
}
