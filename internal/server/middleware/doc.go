// Package middleware holds the gin middleware of the API server.
package middleware
