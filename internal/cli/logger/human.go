package logger

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

const (
	humanTimeLayout = "2006/01/02 15:04:05"
	maxLineBuffer   = 16 << 10
)

// NewHumanTextHandler returns a handler, which writes level and message
// first, like:
//
//	INFO Fetched feed feed_url=https://example.org/rss items=10
//
// and everything else in [slog.TextHandler] format. With logTime every line
// starts with local date and time.
func NewHumanTextHandler(w io.Writer, opts *slog.HandlerOptions,
	logTime bool,
) *HumanTextHandler {
	self := &HumanTextHandler{logTime: logTime, line: &humanLine{w: w}}
	if opts != nil {
		self.opts = *opts
	}

	attrOpts := self.opts
	attrOpts.ReplaceAttr = self.replace
	self.attrs = slog.NewTextHandler(self.line, &attrOpts)
	return self
}

type HumanTextHandler struct {
	logTime bool
	opts    slog.HandlerOptions
	attrs   slog.Handler
	line    *humanLine
}

var _ slog.Handler = (*HumanTextHandler)(nil)

// humanLine collects one formatted record. attrs handler writes into it,
// between prefix and the final newline.
type humanLine struct {
	mu  sync.Mutex
	w   io.Writer
	buf []byte
}

func (self *humanLine) Write(p []byte) (int, error) {
	self.buf = append(self.buf, p...)
	return len(p), nil
}

func (self *humanLine) flush() error {
	self.buf = append(bytes.TrimRight(self.buf, " \n"), '\n')
	_, err := self.w.Write(self.buf)
	if cap(self.buf) > maxLineBuffer {
		self.buf = nil
	} else {
		self.buf = self.buf[:0]
	}
	if err != nil {
		return fmt.Errorf("logger: write formatted entry: %w", err)
	}
	return nil
}

// replace removes builtin attributes, because Handle writes them itself.
func (self *HumanTextHandler) replace(groups []string, a slog.Attr) slog.Attr {
	if len(groups) == 0 {
		switch a.Key {
		case slog.TimeKey, slog.LevelKey, slog.MessageKey:
			return slog.Attr{}
		}
	}
	if self.opts.ReplaceAttr != nil {
		return self.opts.ReplaceAttr(groups, a)
	}
	return a
}

func (self *HumanTextHandler) Enabled(ctx context.Context, level slog.Level,
) bool {
	return self.attrs.Enabled(ctx, level)
}

func (self *HumanTextHandler) Handle(ctx context.Context, r slog.Record) error {
	line := self.line
	line.mu.Lock()
	defer line.mu.Unlock()

	if self.logTime && !r.Time.IsZero() {
		line.buf = r.Time.AppendFormat(line.buf, humanTimeLayout)
		line.buf = append(line.buf, ' ')
	}
	line.buf = append(line.buf, r.Level.String()...)
	line.buf = append(line.buf, ' ')
	line.buf = append(line.buf, r.Message...)
	line.buf = append(line.buf, ' ')

	if err := self.attrs.Handle(ctx, r); err != nil {
		line.buf = line.buf[:0]
		return fmt.Errorf("logger: format attributes: %w", err)
	}
	return line.flush()
}

func (self *HumanTextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	h := *self
	h.attrs = self.attrs.WithAttrs(attrs)
	return &h
}

func (self *HumanTextHandler) WithGroup(name string) slog.Handler {
	h := *self
	h.attrs = self.attrs.WithGroup(name)
	return &h
}
