// Package logger provides the structured logging interface used across the
// scraper.
//
// It wraps zerolog with a small Logger interface supporting levels, fields
// and errors. Console output is coloured only when it goes to a terminal;
// an optional log file receives the same events as JSON.
//
//	if err := logger.Initialize(&cfg.Logging); err != nil {
//	    return err
//	}
//	logger.WithField("tomb", "kv-9").Info("Tomb fetched")
//
// Components take a Logger explicitly; tests pass NewTestLogger() and assert
// on the captured messages.
package logger
