// Package logger provides the structured logging interface used across gagsync.
//
// It wraps zerolog. There is no package-level logger: build one with New from the
// logging configuration and pass it to each component at construction. Components
// accept a nil Logger and fall back to NewNopLogger.
//
//	log, err := logger.New(&cfg.Logging)
//	if err != nil {
//	    return err
//	}
//	log.WithField("item_id", "aOBmnq2").Info("item written")
//
// TestLogger captures entries for assertions in tests.
package logger
