package types

// HTTPResponse is the payload produced by one outbound request.
// Binary is set only when the response was requested in the "binary"
// charset; otherwise Body carries decoded text or base64.
type HTTPResponse struct {
	Status  string `json:"status"`
	Headers Pairs  `json:"headers"`
	URL     string `json:"url"`
	Body    string `json:"body"`
	Binary  []byte `json:"-"`
}

// IsBinary reports whether the body is a raw buffer
func (r *HTTPResponse) IsBinary() bool {
	return r.Binary != nil
}
