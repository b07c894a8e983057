/*
Package rpc carries capability calls over a WebSocket connection.

Both ends exchange Frames. The session owner sends an execute frame, the
provider host answers every capability call with a call frame that the
owner replies to, and the session ends with a result or error frame.

	conn, err := rpc.Dial(ctx, "ws://operator/session", nil)
	reply, err := conn.Call(ctx, `{"method":"getLevel","params":[]}`)

Conn implements api.Channel. Calls pass through a circuit breaker so a
dead peer fails fast instead of stalling every remaining capability call.
*/
package rpc
