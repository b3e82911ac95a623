// Package logging provides a minimal logging interface and adapters for the
// werewolf agent.
//
// The Logger interface defines the standard logging methods (Debug, Info,
// Warn, Error) that every component accepts through its options. This
// package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter and AgentLogger over Go's structured logging
//   - ZapAdapter over go.uber.org/zap
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	a, err := agent.New("alice", m, func(o *agent.Options) { o.Logger = logger })
package logging
