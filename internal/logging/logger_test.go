package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry), line)
		out = append(out, entry)
	}
	return out
}

func TestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := New(WarnLevel, &buf)

	logger.Debug("hidden")
	logger.Info("hidden")
	logger.Warn("shown", map[string]interface{}{"k": 1})
	logger.Error("also shown")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 2)
	assert.Equal(t, "WARN", entries[0]["level"])
	assert.Equal(t, "shown", entries[0]["message"])
	assert.Equal(t, 1.0, entries[0]["k"])
	assert.Contains(t, entries[0]["caller"], "logging/logger_test.go:")
	assert.Equal(t, "ERROR", entries[1]["level"])
}

func TestLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	base := New(DebugLevel, &buf).WithField("job", "abc")
	child := base.WithFields(map[string]interface{}{"generation": 3}).WithError(errors.New("boom"))

	base.Info("base")
	child.Info("child", map[string]interface{}{"job": "override"})
	assert.Same(t, base, base.WithError(nil))

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 2)
	assert.Equal(t, "abc", entries[0]["job"])
	assert.NotContains(t, entries[0], "generation")
	assert.Equal(t, "override", entries[1]["job"])
	assert.Equal(t, 3.0, entries[1]["generation"])
	assert.Equal(t, "boom", entries[1]["error"])
}

func TestLoggerFatalExits(t *testing.T) {
	var buf bytes.Buffer
	logger := New(InfoLevel, &buf)
	code := -1
	logger.sink.exit = func(c int) { code = c }

	logger.Fatal("bye")
	assert.Equal(t, 1, code)
	assert.Equal(t, "FATAL", decodeLines(t, &buf)[0]["level"])
}

func TestTextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithFormat(InfoLevel, TextFormat, &buf)
	logger.Info("Job started", map[string]interface{}{"function": "Ackley", "note": "two words"})

	line := strings.TrimSpace(buf.String())
	assert.Contains(t, line, " INFO  Job started ")
	assert.Contains(t, line, " function=Ackley")
	assert.Contains(t, line, ` note="two words"`)
	assert.Less(t, strings.Index(line, "caller="), strings.Index(line, "function="), "keys are sorted")
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(nil)
	require.NoError(t, err)
	assert.Equal(t, InfoLevel, logger.Level())

	path := filepath.Join(t.TempDir(), "service.log")
	logger, err = NewLogger(&Config{Level: "debug", Format: "text", Output: path})
	require.NoError(t, err)
	assert.Equal(t, DebugLevel, logger.Level())
	assert.Equal(t, TextFormat, logger.sink.format)

	_, err = NewLogger(&Config{Format: "xml"})
	assert.Error(t, err)

	_, err = NewLogger(&Config{Output: filepath.Join(t.TempDir(), "missing", "dir", "x.log")})
	assert.Error(t, err)

	assert.Equal(t, WarnLevel, ParseLevel("warning"))
	assert.Equal(t, InfoLevel, ParseLevel("verbose"))
}

func TestContextLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := New(InfoLevel, &buf).WithField("request_id", "r1")

	ctx := NewContext(context.Background(), logger)
	FromContext(ctx).Info("inside")
	assert.Equal(t, "r1", decodeLines(t, &buf)[0]["request_id"])

	assert.NotNil(t, FromContext(context.Background()).Logger)
}

func TestZapLogger(t *testing.T) {
	var buf bytes.Buffer
	zl := NewZapLogger(New(InfoLevel, &buf)).Named("bees")

	zl.Debug("filtered", zap.Int("generation", 1))
	zl.With(zap.String("job", "j1")).Info("Generation completed",
		zap.Int("generation", 7),
		zap.Float64("best_fitness", -0.25),
		zap.Duration("elapsed", 1500*time.Millisecond),
		zap.Error(errors.New("boom")),
	)
	zl.Warn("careful")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 2)

	e := entries[0]
	assert.Equal(t, "INFO", e["level"])
	assert.Equal(t, "Generation completed", e["message"])
	assert.Equal(t, "bees", e["logger"])
	assert.Equal(t, "j1", e["job"])
	assert.Equal(t, 7.0, e["generation"])
	assert.Equal(t, -0.25, e["best_fitness"])
	assert.Equal(t, "boom", e["error"])
	assert.Contains(t, e["caller"], "logging/logger_test.go:")

	assert.Equal(t, "WARN", entries[1]["level"])
	assert.True(t, zl.Core().Enabled(zap.WarnLevel))
	assert.False(t, zl.Core().Enabled(zap.DebugLevel))
}

func TestMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := New(InfoLevel, &buf)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(Middleware(logger))
	r.Use(Recoverer(logger))
	r.Get("/ok", func(w http.ResponseWriter, r *http.Request) {
		FromContext(r.Context()).Info("handler")
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/missing", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	})
	r.Get("/panic", func(w http.ResponseWriter, r *http.Request) {
		panic("kaboom")
	})

	for _, path := range []string{"/ok", "/missing", "/panic"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if path == "/panic" {
			assert.Equal(t, http.StatusInternalServerError, rec.Code)
		}
	}

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 5)

	assert.Equal(t, "handler", entries[0]["message"])
	assert.NotEmpty(t, entries[0]["request_id"])

	assert.Equal(t, "Request completed", entries[1]["message"])
	assert.Equal(t, 200.0, entries[1]["status"])
	assert.Equal(t, "/ok", entries[1]["path"])

	assert.Equal(t, "Request rejected", entries[2]["message"])
	assert.Equal(t, 404.0, entries[2]["status"])

	assert.Equal(t, "Recovered from panic", entries[3]["message"])
	assert.Equal(t, "kaboom", entries[3]["error"])
	assert.Equal(t, "Request failed", entries[4]["message"])
	assert.Equal(t, 500.0, entries[4]["status"])
}
