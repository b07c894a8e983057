// Package server exposes the provider runner over HTTP.
//
// Routes:
//   - POST /v1/execute runs a program locally and answers with every result
//   - GET /v1/session upgrades to a WebSocket session where the peer owns
//     account storage and trace output
//   - GET /health and GET /metrics report liveness and Prometheus metrics
//
// The middleware stack is gin recovery, request metrics, CORS and an
// optional per-IP rate limit.
package server
