package config

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// NewLogger builds the logger described by cfg, writing to stderr
func NewLogger(cfg LogConfig) *logrus.Logger {
	return NewLoggerTo(os.Stderr, cfg)
}

// NewLoggerTo builds the logger described by cfg, writing to out
func NewLoggerTo(out io.Writer, cfg LogConfig) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	if err != nil && cfg.Level != "" {
		logger.WithField("log_level", cfg.Level).Warn("Unknown log level, using info")
	}

	return logger
}
