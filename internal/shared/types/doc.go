// Package types provides shared data structures for the provider host.
//
// These types cross package boundaries: the capability façade, the
// in-process HTTP host, the remote dispatch adapter and the sandbox all
// exchange them, and most of them have a stable JSON shape because they
// travel over the remote channel unchanged.
//
// Core Types:
//   - Preferences: account-scoped settings supplied at session start
//   - Result: one execution result (success payload or error)
//   - Cookie, CookieParams: cookie store entries and set-cookie parameters
//   - HTTPResponse: the payload of one outbound request
//   - Pair, Pairs: ordered name/value tuples (headers, form bodies)
//
// Example Usage:
//
//	res := types.NewError("login failed")
//	res.Investigate = true
//	data, _ := json.Marshal(res) // {"error":true,"message":"login failed","investigate":true}
package types
