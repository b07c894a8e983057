// Package runner executes provider programs.
//
// Each Run is one session: a fresh host with its own cookie jar and
// options, a capability façade bound to the account's persisted data,
// and a goja sandbox driving main() through the multi-pass controller.
// Sessions with a remote channel take storage and trace from the peer.
package runner
