// Package logging provides a minimal logging interface and adapters for Houston.
//
// The Logger interface defines the standard logging methods (Debug, Info,
// Warn, Error) that the registry, adapters and tools use for observability.
// This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - NoOpLogger for silent operation (testing, minimal setups)
//   - HoustonLogger with contextual helpers and domain logging methods
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	registry := houston.NewRegistry(func(o *houston.RegistryOptions) { o.Logger = logger })
//
// The design intentionally keeps the interface minimal to avoid vendor lock-in
// while supporting structured logging where available.
package logging
