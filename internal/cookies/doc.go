/*
Package cookies implements the per-session cookie store.

Store satisfies http.CookieJar so the transport records cookies on its own,
and it also accepts explicit set requests from provider programs. Domain
cookies are reported with a leading dot; host-only cookies are not.
*/
package cookies
