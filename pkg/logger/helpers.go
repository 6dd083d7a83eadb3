package logger

import (
	"context"

	"github.com/rs/zerolog"

	"thebanscraper/pkg/errors"
)

// LogRequest logs one HTTP exchange with the remote site
func LogRequest(l Logger, method, url string, statusCode int, durationMs float64) {
	fields := map[string]interface{}{
		"method":      method,
		"url":         url,
		"status_code": statusCode,
		"duration_ms": durationMs,
	}

	switch {
	case statusCode >= 500:
		l.ErrorWithFields("HTTP request server error", fields)
	case statusCode >= 400:
		l.WarnWithFields("HTTP request client error", fields)
	default:
		l.DebugWithFields("HTTP request completed", fields)
	}
}

// LogTomb logs the classification result for one tomb page
func LogTomb(l Logger, tombID, title string, images, warnings int) {
	fields := map[string]interface{}{
		"tomb":     tombID,
		"title":    title,
		"images":   images,
		"warnings": warnings,
	}
	if images == 0 && warnings == 0 {
		l.DebugWithFields("Tomb has no matching imagery", fields)
		return
	}
	l.InfoWithFields("Tomb classified", fields)
}

// LogDownload logs the outcome of one image download
func LogDownload(l Logger, tombID, section, url, outcome string, err error) {
	entry := l.WithFields(map[string]interface{}{
		"tomb":    tombID,
		"section": section,
		"url":     url,
		"outcome": outcome,
	})

	switch {
	case err != nil:
		entry.WithError(err).Error("Download failed")
	case outcome == "downloaded":
		entry.Info("Download completed")
	default:
		entry.Debug("Download skipped")
	}
}

// LogClassificationWarning logs an image that could not be assigned a section
func LogClassificationWarning(l Logger, w errors.ClassificationWarning) {
	l.WarnWithFields("Image not assigned to a section", map[string]interface{}{
		"tomb":   w.TombID,
		"url":    w.ImageURL,
		"state":  w.State,
		"reason": w.Reason,
	})
}

// NewNopLogger creates a no-operation logger for testing
func NewNopLogger() Logger {
	return &nopLogger{}
}

type nopLogger struct{}

func (n *nopLogger) Debug(msg string)                                          {}
func (n *nopLogger) Info(msg string)                                           {}
func (n *nopLogger) Warn(msg string)                                           {}
func (n *nopLogger) Error(msg string)                                          {}
func (n *nopLogger) WithField(key string, value interface{}) Logger            { return n }
func (n *nopLogger) WithFields(fields map[string]interface{}) Logger           { return n }
func (n *nopLogger) WithError(err error) Logger                                { return n }
func (n *nopLogger) WithContext(ctx context.Context) Logger                    { return n }
func (n *nopLogger) DebugWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) InfoWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) WarnWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) ErrorWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) GetZerolog() *zerolog.Logger                               { return nil }
