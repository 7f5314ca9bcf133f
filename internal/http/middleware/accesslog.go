// SPDX-FileCopyrightText: Copyright The Miniflux Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package middleware // import "newsfeed.app/internal/http/middleware"

import (
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"newsfeed.app/internal/logging"
	"newsfeed.app/internal/storage"
)

// WithAccessLog logs one line per request, with database queries made while
// serving it. Requests with path starting with one of quietPrefixes are
// logged at debug level, server errors at warn level.
func WithAccessLog(quietPrefixes ...string) func(http.Handler) http.Handler {
	level := func(r *http.Request, status int) slog.Level {
		if status >= http.StatusInternalServerError {
			return slog.LevelWarn
		}
		for _, prefix := range quietPrefixes {
			if strings.HasPrefix(r.URL.Path, prefix) {
				return slog.LevelDebug
			}
		}
		return slog.LevelInfo
	}

	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			ctx, queries := storage.WithTraceStat(r.Context())
			rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
			started := time.Now()
			next.ServeHTTP(rec, r.WithContext(ctx))

			attrs := []slog.Attr{
				slog.String("client_ip", ClientIPFrom(r)),
				slog.String("proto", r.Proto),
				slog.Int("status_code", rec.status),
				slog.Int("size", rec.size),
				slog.Duration("request_time", time.Since(started)),
			}
			if n := queries.Queries(); n > 0 {
				attrs = append(attrs, slog.GroupAttrs("storage",
					slog.Int64("queries", n),
					slog.Duration("elapsed", queries.Elapsed())))
			}

			logging.FromContext(ctx).LogAttrs(ctx, level(r, rec.status),
				r.Method+" "+r.URL.RequestURI(), attrs...)
		}
		return http.HandlerFunc(fn)
	}
}

// responseRecorder remembers the first status code and counts body bytes.
type responseRecorder struct {
	http.ResponseWriter

	status  int
	written bool
	size    int
}

var _ io.ReaderFrom = (*responseRecorder)(nil)

func (self *responseRecorder) WriteHeader(statusCode int) {
	if !self.written {
		self.status = statusCode
		self.written = true
	}
	self.ResponseWriter.WriteHeader(statusCode)
}

func (self *responseRecorder) Write(b []byte) (int, error) {
	self.written = true
	n, err := self.ResponseWriter.Write(b)
	self.size += n
	return n, err //nolint:wrapcheck // return as is
}

func (self *responseRecorder) ReadFrom(r io.Reader) (int64, error) {
	self.written = true
	n, err := io.Copy(self.ResponseWriter, r)
	self.size += int(n)
	return n, err //nolint:wrapcheck // return as is
}

func (self *responseRecorder) Unwrap() http.ResponseWriter {
	return self.ResponseWriter
}
