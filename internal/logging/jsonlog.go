package logging

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config selects level and output format for the global logger.
type Config struct {
	Level  string    // debug, info, warn, error
	Format string    // json or console
	Output io.Writer // defaults to os.Stderr
}

var (
	mu  sync.RWMutex
	log = newLogger(Config{})
)

// Init reconfigures the global logger. Safe to call more than once.
func Init(cfg Config) {
	l := newLogger(cfg)
	mu.Lock()
	log = l
	mu.Unlock()
}

func newLogger(cfg Config) zerolog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.MessageFieldName = "message"
	if strings.EqualFold(cfg.Format, "console") {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	}
	return zerolog.New(out).Level(parseLevel(cfg.Level)).With().Timestamp().Logger()
}

func parseLevel(s string) zerolog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	}
	return zerolog.InfoLevel
}

// Logger returns the current global logger.
func Logger() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

func Log(level zerolog.Level, msg string, fields map[string]any) {
	l := Logger()
	e := l.WithLevel(level)
	if e == nil {
		return
	}
	if len(fields) > 0 {
		e = e.Fields(fields)
	}
	e.Msg(msg)
}

func Debug(msg string, fields map[string]any) { Log(zerolog.DebugLevel, msg, fields) }
func Info(msg string, fields map[string]any)  { Log(zerolog.InfoLevel, msg, fields) }
func Warn(msg string, fields map[string]any)  { Log(zerolog.WarnLevel, msg, fields) }
func Error(msg string, fields map[string]any) { Log(zerolog.ErrorLevel, msg, fields) }
