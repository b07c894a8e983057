/*
Package api is the capability façade handed to provider programs.

Each capability is served by a collaborator chosen once at construction:
an in-process implementation when one is configured, otherwise a Remote
adapter that serializes the call as

	<signature>{"method": "requestPost", "params": [...]}

over a Channel and expects {"payload": ...} or {"error": true, "message": ...}
back. The façade also owns the account data cache, counter availability
and the one-result-per-pass rule, and Execute drives the provider's entry
point once or once per counter selection.
*/
package api
