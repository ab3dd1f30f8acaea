// Package log is a thin facade over the process-wide logger so the rest of
// the codebase does not carry handler configuration around.
package log

import (
	"io"
	"os"
	"sync"

	charmlog "github.com/charmbracelet/log"
)

var (
	mu     sync.RWMutex
	logger = charmlog.NewWithOptions(os.Stderr, charmlog.Options{
		Level:           charmlog.InfoLevel,
		ReportTimestamp: false,
	})
)

// Options configures the global logger.
type Options struct {
	Verbose bool
	Quiet   bool
	Output  io.Writer
}

// Configure replaces the global logger. Called once from the CLI root.
func Configure(opts Options) {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	level := charmlog.InfoLevel
	if opts.Verbose {
		level = charmlog.DebugLevel
	}
	if opts.Quiet {
		level = charmlog.ErrorLevel
	}

	mu.Lock()
	defer mu.Unlock()
	logger = charmlog.NewWithOptions(out, charmlog.Options{
		Level:           level,
		ReportTimestamp: false,
	})
}

func get() *charmlog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// With returns a logger carrying the given key/value context.
func With(keyvals ...interface{}) *charmlog.Logger {
	return get().With(keyvals...)
}

func Debug(msg interface{}, keyvals ...interface{}) { get().Debug(msg, keyvals...) }
func Info(msg interface{}, keyvals ...interface{})  { get().Info(msg, keyvals...) }
func Warn(msg interface{}, keyvals ...interface{})  { get().Warn(msg, keyvals...) }
func Error(msg interface{}, keyvals ...interface{}) { get().Error(msg, keyvals...) }
