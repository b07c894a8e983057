package types

import "encoding/json"

// ExecuteRequest is the body of an execution API call. Options stays raw
// so that perDomain order survives decoding.
type ExecuteRequest struct {
	Script      string          `json:"script" binding:"required"`
	AccountID   string          `json:"account_id,omitempty"`
	Task        string          `json:"task,omitempty"`
	Preferences Preferences     `json:"preferences,omitempty"`
	Options     json.RawMessage `json:"options,omitempty"`
	TimeoutMS   int64           `json:"timeout_ms,omitempty"`
}

// ExecuteResponse carries every result of one session plus its trace
type ExecuteResponse struct {
	SessionID  string       `json:"session_id"`
	AccountID  string       `json:"account_id"`
	Results    []Result     `json:"results"`
	Trace      []TraceEntry `json:"trace,omitempty"`
	DurationMS int64        `json:"duration_ms"`
	Error      string       `json:"error,omitempty"`
}

// TraceEntry is one diagnostic line written by a guest program
type TraceEntry struct {
	Caller  string `json:"caller"`
	Message string `json:"message"`
}
