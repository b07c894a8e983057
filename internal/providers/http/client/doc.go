// Package client provides the outbound HTTP client used by the request executor.
//
// Built on go-resty/resty over a pooled go-retryablehttp transport:
//   - Retries disabled; failures reach the caller unchanged
//   - Per-request proxy and TLS policy chosen through the request context
//   - Rate limiting per client instance
//   - Pluggable cookie jar shared with explicit cookie operations
//
// Example Usage:
//
//	c := client.NewClient(client.DefaultConfig(), jar)
//	req, err := c.Request(client.WithRoute(ctx, client.Route{Proxy: "http://proxy:3128"}))
package client
