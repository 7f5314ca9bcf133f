// SPDX-FileCopyrightText: Copyright The Miniflux Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package middleware // import "newsfeed.app/internal/http/middleware"

import (
	"bytes"
	"log/slog"
	"net/http"
	"runtime/debug"

	"newsfeed.app/internal/logging"
)

// WithPanic recovers from panics of next, logs them with a stack trace and
// responds with 500.
func WithPanic(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			err := recover()
			if err == nil {
				return
			}
			//nolint:errorlint // we are checking exactly ErrAbortHandler
			if err == http.ErrAbortHandler {
				panic(err)
			}
			logPanic(r, err)
			http.Error(w, http.StatusText(http.StatusInternalServerError),
				http.StatusInternalServerError)
		}()
		next.ServeHTTP(w, r)
	}
	return http.HandlerFunc(fn)
}

func logPanic(r *http.Request, err any) {
	log := logging.FromContext(r.Context())
	log.Error("request aborted with panic", slog.Any("reason", err))

	for line := range bytes.Lines(debug.Stack()) {
		line = bytes.Replace(line, []byte("\t"), []byte("  "), 1)
		log.Error("panic: " + string(bytes.TrimRight(line, "\n")))
	}
}
