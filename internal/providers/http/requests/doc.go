// Package requests executes provider HTTP requests.
//
// An Executor resolves per-destination options (method, charsets, proxy,
// TLS policy), encodes the outbound body, performs the exchange through the
// shared client and converts the response body to text, base64 or raw bytes.
package requests
