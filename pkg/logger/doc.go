// Package logger provides structured logging for riddle.
//
// It wraps zerolog behind a small Logger interface so components can carry
// contextual fields (feed, file, url) without depending on zerolog directly.
// Console output is human-readable and goes to stderr, keeping stdout free for
// progress and status lines. When a log file is configured, events are written
// there as JSON lines.
//
//	if err := logger.Initialize(&cfg.Logging); err != nil {
//	    return err
//	}
//	log := logger.GetLogger().WithField("feed", "wallpapers")
//	log.InfoWithFields("listing fetched", map[string]interface{}{"posts": 25})
//
// Tests use NewNopLogger or NewTestLogger, which records every message.
package logger
