package slogutil

import (
	"io"
	"log/slog"

	"hammy/internal/config"
	"hammy/internal/paths"
)

// LoggerFactory hands out per-subsystem file loggers under <root>/.hammy/logs.
// A CLI level, when set, overrides the configured one.
type LoggerFactory struct {
	root     string
	config   *config.Config
	cliLevel *slog.Level
	closers  []io.Closer
}

// NewLoggerFactory creates a factory. cliLevel may be nil.
func NewLoggerFactory(root string, cfg *config.Config, cliLevel *slog.Level) *LoggerFactory {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &LoggerFactory{root: root, config: cfg, cliLevel: cliLevel}
}

// IndexLogger writes to .hammy/logs/index.log.
func (f *LoggerFactory) IndexLogger() *slog.Logger {
	return f.subsystemLogger("index")
}

// WatchLogger writes to .hammy/logs/watch.log.
func (f *LoggerFactory) WatchLogger() *slog.Logger {
	return f.subsystemLogger("watch")
}

// subsystemLogger never fails; a logger that cannot open its file discards.
func (f *LoggerFactory) subsystemLogger(subsystem string) *slog.Logger {
	if f.root == "" {
		return NewDiscardLogger()
	}
	if _, err := paths.EnsureLogsDir(f.root); err != nil {
		return NewDiscardLogger()
	}

	logger, closer, err := NewFileLoggerWithRotation(
		paths.LogPath(f.root, subsystem),
		f.Level(),
		f.config.Logging.MaxSize,
		f.config.Logging.MaxBackups,
	)
	if err != nil {
		return NewDiscardLogger()
	}
	f.closers = append(f.closers, closer)
	return logger.With("subsystem", subsystem)
}

// Level is the effective level: CLI flag, then config, then info.
func (f *LoggerFactory) Level() slog.Level {
	if f.cliLevel != nil {
		return *f.cliLevel
	}
	return LevelFromString(f.config.Logging.Level)
}

// Close closes every file opened by the factory.
func (f *LoggerFactory) Close() error {
	var firstErr error
	for _, c := range f.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	f.closers = nil
	return firstErr
}
