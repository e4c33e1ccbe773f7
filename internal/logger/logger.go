// Package logger configures the process-wide logrus logger.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/comit-io/galaxyapi/internal/apperrors"
	"github.com/comit-io/galaxyapi/internal/config"
)

const timestampFormat = "2006-01-02 15:04:05.000"

var std = logrus.New()

// Init builds a logger from cfg and installs it as the package logger.
func Init(cfg config.LoggingConfig) (*logrus.Logger, error) {
	l, err := New(cfg)
	if err != nil {
		return nil, err
	}
	std = l
	return l, nil
}

// New builds a logger writing to stdout and, when enabled, to a rotating file.
func New(cfg config.LoggingConfig) (*logrus.Logger, error) {
	l := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	switch strings.ToLower(cfg.Format) {
	case "", "json":
		l.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: timestampFormat,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	case "text":
		l.SetFormatter(&logrus.TextFormatter{
			TimestampFormat: timestampFormat,
			FullTimestamp:   true,
		})
	default:
		return nil, fmt.Errorf("unsupported log format: %s", cfg.Format)
	}

	var out io.Writer = os.Stdout
	if cfg.File.Enabled {
		if err := os.MkdirAll(filepath.Dir(cfg.File.Path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		out = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   cfg.File.Path,
			MaxSize:    cfg.File.MaxSize,
			MaxBackups: cfg.File.MaxBackups,
			MaxAge:     cfg.File.MaxAge,
			Compress:   cfg.File.Compress,
		})
	}
	l.SetOutput(out)

	return l, nil
}

// L returns the package logger.
func L() *logrus.Logger { return std }

func WithField(key string, value interface{}) *logrus.Entry {
	return std.WithField(key, value)
}

func WithFields(fields logrus.Fields) *logrus.Entry {
	return std.WithFields(fields)
}

func Info(args ...interface{})                 { std.Info(args...) }
func Infof(format string, args ...interface{}) { std.Infof(format, args...) }
func Warnf(format string, args ...interface{}) { std.Warnf(format, args...) }

// LogError records err with its kind and full internal detail. Logging is
// best-effort: a panicking hook, formatter or writer is recovered and dropped.
func LogError(entry *logrus.Entry, op string, err error) {
	if err == nil {
		return
	}
	defer func() { _ = recover() }()

	if entry == nil {
		entry = logrus.NewEntry(std)
	}
	fields := logrus.Fields{
		"op":   op,
		"kind": string(apperrors.KindOf(err)),
	}
	switch apperrors.KindOf(err) {
	case apperrors.KindValidation, apperrors.KindNotFound, apperrors.KindUnauthorized, apperrors.KindForbidden:
		entry.WithFields(fields).WithError(err).Warn("request rejected")
	default:
		entry.WithFields(fields).WithError(err).Error("request failed")
	}
}
