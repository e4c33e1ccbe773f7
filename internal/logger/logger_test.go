package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comit-io/galaxyapi/internal/apperrors"
	"github.com/comit-io/galaxyapi/internal/config"
)

type panicHook struct{}

func (panicHook) Levels() []logrus.Level { return logrus.AllLevels }
func (panicHook) Fire(*logrus.Entry) error {
	panic("hook exploded")
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestNew(t *testing.T) {
	t.Run("json format with level", func(t *testing.T) {
		l, err := New(config.LoggingConfig{Level: "debug", Format: "json"})
		require.NoError(t, err)
		assert.Equal(t, logrus.DebugLevel, l.GetLevel())
		assert.IsType(t, &logrus.JSONFormatter{}, l.Formatter)
	})

	t.Run("unknown level falls back to info", func(t *testing.T) {
		l, err := New(config.LoggingConfig{Level: "chatty", Format: "text"})
		require.NoError(t, err)
		assert.Equal(t, logrus.InfoLevel, l.GetLevel())
	})

	t.Run("unknown format is rejected", func(t *testing.T) {
		_, err := New(config.LoggingConfig{Format: "xml"})
		assert.Error(t, err)
	})

	t.Run("file output creates the directory", func(t *testing.T) {
		cfg := config.LoggingConfig{Level: "info", Format: "json"}
		cfg.File.Enabled = true
		cfg.File.Path = filepath.Join(t.TempDir(), "nested", "galaxy.log")
		cfg.File.MaxSize = 1
		l, err := New(cfg)
		require.NoError(t, err)
		l.Info("hello")
		assert.FileExists(t, cfg.File.Path)
	})
}

func TestLogError(t *testing.T) {
	t.Run("records kind and op", func(t *testing.T) {
		var buf bytes.Buffer
		l := logrus.New()
		l.SetOutput(&buf)
		l.SetFormatter(&logrus.JSONFormatter{})

		LogError(logrus.NewEntry(l), "TagRepository.Search", apperrors.Storage("query", errors.New("deadlock")))

		var line map[string]interface{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
		assert.Equal(t, "TagRepository.Search", line["op"])
		assert.Equal(t, string(apperrors.KindStorage), line["kind"])
		assert.Contains(t, line["error"], "deadlock")
		assert.Equal(t, "error", line["level"])
	})

	t.Run("panicking hook is swallowed", func(t *testing.T) {
		l := logrus.New()
		l.SetOutput(&bytes.Buffer{})
		l.AddHook(panicHook{})

		assert.NotPanics(t, func() {
			LogError(logrus.NewEntry(l), "op", errors.New("boom"))
		})
	})

	t.Run("failing writer is swallowed", func(t *testing.T) {
		l := logrus.New()
		l.SetOutput(failingWriter{})

		assert.NotPanics(t, func() {
			LogError(logrus.NewEntry(l), "op", errors.New("boom"))
		})
	})

	t.Run("nil error is ignored", func(t *testing.T) {
		assert.NotPanics(t, func() { LogError(nil, "op", nil) })
	})
}
