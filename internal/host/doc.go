// Package host is the in-process implementation of the provider
// capabilities: outbound HTTP with a session cookie jar, persistent
// options, authentication, sleeping and verification code retrieval.
package host
