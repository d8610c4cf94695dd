package telemetry

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/apex/log"
	jsonhandler "github.com/apex/log/handlers/json"
)

var (
	mu     sync.RWMutex
	logger = newLogger(os.Stdout)
)

func newLogger(w io.Writer) *log.Logger {
	level, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(os.Getenv("LOG_LEVEL"))))
	if err != nil {
		level = log.InfoLevel
	}
	return &log.Logger{Handler: jsonhandler.New(w), Level: level}
}

// SetOutput redirects log lines to w. Tests use it to capture output.
func SetOutput(w io.Writer) {
	mu.Lock()
	logger = newLogger(w)
	mu.Unlock()
}

// Info writes an info-level log line with the given fields.
func Info(msg string, fields map[string]any) {
	entry(fields).Info(msg)
}

// Warn writes a warn-level log line with the given fields.
func Warn(msg string, fields map[string]any) {
	entry(fields).Warn(msg)
}

// Error writes an error-level log line with the given fields.
func Error(msg string, fields map[string]any) {
	entry(fields).Error(msg)
}

func entry(fields map[string]any) *log.Entry {
	mu.RLock()
	l := logger
	mu.RUnlock()
	return l.WithFields(log.Fields(fields))
}
