package sandbox

import "time"

// Config controls the runtime
type Config struct {
	Timeout          time.Duration // wall-clock budget for one Run
	MaxCallStackSize int
	EnableConsole    bool
}

// DefaultTimeout is the wall-clock budget when none is configured
const DefaultTimeout = 3000000 * time.Millisecond

// DefaultConfig returns production defaults
func DefaultConfig() Config {
	return Config{
		Timeout:          DefaultTimeout,
		MaxCallStackSize: 1024,
		EnableConsole:    true,
	}
}

// RunOptions are the per-run inputs
type RunOptions struct {
	// Task is passed to main() as its only argument when not empty
	Task string
	// Outer is exposed to the program as the Outer global
	Outer interface{}
	// Name labels the script in stack traces
	Name string
}
