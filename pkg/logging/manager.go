package logging

import "sync"

// processLogger holds the logger shared by every component of a relayer
// process. It is built once from cmd main; later Init calls are no-ops.
type processLogger struct {
	mu     sync.RWMutex
	logger Logger
}

var process = &processLogger{}

// InitServiceLogger builds the process-wide logger from config. Only the
// first successful call takes effect.
func InitServiceLogger(config LoggerConfig) error {
	process.mu.Lock()
	defer process.mu.Unlock()

	if process.logger != nil {
		return nil
	}
	logger, err := NewZapLogger(config)
	if err != nil {
		return err
	}
	process.logger = logger
	return nil
}

// GetServiceLogger returns the process-wide logger. Before initialization
// it returns a NoopLogger so library code and tests never crash on a log
// call.
func GetServiceLogger() Logger {
	process.mu.RLock()
	defer process.mu.RUnlock()

	if process.logger == nil {
		return &NoopLogger{}
	}
	return process.logger
}

// Shutdown flushes buffered log entries. Sync errors on stdout are expected
// and ignored.
func Shutdown() {
	process.mu.RLock()
	defer process.mu.RUnlock()

	if zl, ok := process.logger.(*ZapLogger); ok && zl != nil {
		_ = zl.logger.Sync()
	}
}
