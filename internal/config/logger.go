package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/simp-lee/logger"
)

var outputFormats = map[string]logger.OutputFormat{
	"text": logger.FormatText,
	"json": logger.FormatJSON,
}

// SetupLogger builds the application logger from cfg and installs it as the
// slog default. The caller owns Close.
func SetupLogger(cfg *LogConfig) (*logger.Logger, error) {
	if cfg == nil {
		return nil, errors.New("log config is nil")
	}

	log, err := logger.New(loggerOptions(cfg)...)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	log.SetDefault()
	return log, nil
}

// loggerOptions always logs to the console. A file path adds a rotated log
// file in the same format; rotation limits left at zero keep the library
// defaults.
func loggerOptions(cfg *LogConfig) []logger.Option {
	format, ok := outputFormats[strings.ToLower(cfg.Format)]
	if !ok {
		format = logger.FormatCustom
	}

	opts := []logger.Option{
		logger.WithLevel(logLevel(cfg.Level)),
		logger.WithMiddleware(logger.ContextMiddleware()),
		logger.WithConsoleFormat(format),
		logger.WithConsoleColor(cfg.Color == nil || *cfg.Color),
	}
	if cfg.FilePath == "" {
		return opts
	}

	opts = append(opts, logger.WithFilePath(cfg.FilePath), logger.WithFileFormat(format))
	for _, limit := range []struct {
		value int
		opt   func(int) logger.Option
	}{
		{cfg.MaxSizeMB, logger.WithMaxSizeMB},
		{cfg.RetentionDays, logger.WithRetentionDays},
		{cfg.MaxBackups, logger.WithMaxBackups},
	} {
		if limit.value > 0 {
			opts = append(opts, limit.opt(limit.value))
		}
	}
	if cfg.CompressRotated != nil {
		opts = append(opts, logger.WithCompressRotated(*cfg.CompressRotated))
	}
	return opts
}

// logLevel parses a slog level name. Unknown names log at info.
func logLevel(name string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return slog.LevelInfo
	}
	return level
}
