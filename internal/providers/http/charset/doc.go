/*
Package charset negotiates the character encoding of HTTP responses.

A response charset is chosen in this order: a forced option, the charset
parameter of Content-Type, a meta tag or XML declaration in the first
bytes of the body, and finally the configured default. The pseudo
charsets "base64" and "binary" skip decoding entirely.
*/
package charset
