// Package logging provides structured logging configuration for stubrouter.
//
// It wraps log/slog so the store API, the editor and the CLI log the same
// way. Components accept a *slog.Logger through an option and fall back to
// Nop() when none is given:
//
//	logger := logging.New(logging.Config{
//	    Level:  logging.LevelInfo,
//	    Format: logging.FormatJSON,
//	})
//	logger.Error("save stub failed", "target", target, "path", path, "error", err)
package logging
