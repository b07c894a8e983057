// Package logging provides structured logging using uber/zap.
//
// Two modes are available:
//   - Production: JSON output for machine parsing
//   - Development: colored console output for human readability
//
// Logs go to stderr by default so that the run command can keep stdout
// for results.
//
// Example Usage:
//
//	logger, _ := logging.New(logging.DefaultConfig())
//	log := logging.Session(logger.Logger, sessionID, accountID)
//	log.Info("Starting provider", zap.String(logging.FieldTask, task))
package logging
