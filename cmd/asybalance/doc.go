// Command asybalance runs AnyBalance providers.
//
// Usage:
//
//	# Run a provider bundle once and print its results
//	asybalance run ./provider.zip --prefs prefs.yaml
//
//	# Start the execution API
//	asybalance serve --port 8000
//
// Process settings come from the environment (PORT, STORAGE_BACKEND,
// SESSION_TIMEOUT, LOG_LEVEL and friends); flags override them.
//
// Signals:
//   - SIGINT, SIGTERM: cancel the running session or shut the server down
package main
