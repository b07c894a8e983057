/*
Package sandbox runs provider programs in a goja JavaScript runtime.

The program sees two globals: AnyBalance, bound to an api.API, and the
optional Outer value supplied by the embedder. Module loaders and process
access are removed, timers are inert and console output is routed to the
trace capability. The run is bounded by a wall-clock timeout that
interrupts the VM.

	rt, _ := sandbox.New(sandbox.DefaultConfig(), logger)
	err := rt.Run(ctx, facade, script, sandbox.RunOptions{Task: "balance"})

Capability calls are synchronous. Programs written with async/await work
unchanged since every awaited value is already settled.
*/
package sandbox
