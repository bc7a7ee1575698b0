package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

var _default Logger = NewSlog(slog.LevelInfo, HandlerJSON)

type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

const (
	HandlerJSON = "json"
	HandlerText = "text"
	HandlerDev  = "dev"
)

var HandlerOptions = []string{HandlerJSON, HandlerText, HandlerDev}

var once sync.Once

func InitLogger(l Logger) {
	once.Do(func() {
		_default = l
	})
}

func Debug(msg string, args ...any) {
	_default.Debug(msg, args...)
}

func Info(msg string, args ...any) {
	_default.Info(msg, args...)
}

func Warn(msg string, args ...any) {
	_default.Warn(msg, args...)
}

func Error(msg string, args ...any) {
	_default.Error(msg, args...)
}

// NewSlog logs to stderr; stdout belongs to the console output.
func NewSlog(logLevel slog.Level, handler string) Logger {
	return newSlog(os.Stderr, logLevel, handler, isatty.IsTerminal(os.Stderr.Fd()))
}

func newSlog(w io.Writer, logLevel slog.Level, handler string, color bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: logLevel}

	switch strings.ToLower(handler) {
	case HandlerDev:
		return slog.New(tint.NewHandler(w, &tint.Options{
			Level:      logLevel,
			TimeFormat: "[15:04:05.000]",
			NoColor:    !color,
			ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
				if a.Key != slog.LevelKey || len(groups) != 0 {
					return a
				}
				if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == slog.LevelDebug {
					return tint.Attr(3, slog.String(a.Key, "DBG"))
				}
				return a
			},
		}))
	case HandlerText:
		return slog.New(slog.NewTextHandler(w, opts))
	default:
		return slog.New(slog.NewJSONHandler(w, opts))
	}
}
