package logger

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"newsfeed.app/internal/config"
)

var levels = map[string]slog.Level{
	"debug":   slog.LevelDebug,
	"info":    slog.LevelInfo,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
}

// InitializeDefaultLogger makes logger from LOG_* options the default one.
// Close returned closer on exit, to close log files.
func InitializeDefaultLogger() (io.Closer, error) {
	l, closer, err := New(config.Opts.Logging())
	if err != nil {
		return nil, err
	}
	slog.SetDefault(l)
	return closer, nil
}

// New returns logger, which writes to every one of logs. Already opened files
// are closed, if any of logs failed.
func New(logs []config.Log) (*slog.Logger, io.Closer, error) {
	handlers := make([]slog.Handler, 0, len(logs))
	var files closers

	for i := range logs {
		h, f, err := newHandler(&logs[i])
		if err != nil {
			_ = files.Close()
			return nil, nil, err
		} else if f != nil {
			files = append(files, f)
		}
		handlers = append(handlers, h)
	}

	if len(handlers) == 1 {
		return slog.New(handlers[0]), files, nil
	}
	return slog.New(NewMultiHandler(handlers)), files, nil
}

type closers []io.Closer

func (self closers) Close() error {
	var errs []error
	for _, c := range self {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func newHandler(c *config.Log) (slog.Handler, io.Closer, error) {
	var w io.Writer
	var f *LogFile
	switch c.LogFile {
	case "stdout":
		w = os.Stdout
	case "stderr":
		w = os.Stderr
	default:
		var err error
		if f, err = NewLogFile(c.LogFile); err != nil {
			return nil, nil, fmt.Errorf(
				"logger: unable to open log file %q: %w", c.LogFile, err)
		}
		w = f
	}

	opts := &slog.HandlerOptions{Level: levels[c.LogLevel]}
	if !c.LogDateTime {
		opts.ReplaceAttr = withoutTime
	}

	var h slog.Handler
	switch c.LogFormat {
	case "human":
		h = NewHumanTextHandler(w, opts, c.LogDateTime)
	case "json":
		h = slog.NewJSONHandler(w, opts)
	default:
		h = slog.NewTextHandler(w, opts)
	}

	if f == nil {
		return h, nil, nil
	}
	return h, f, nil
}

func withoutTime(groups []string, a slog.Attr) slog.Attr {
	if len(groups) == 0 && a.Key == slog.TimeKey {
		return slog.Attr{}
	}
	return a
}
