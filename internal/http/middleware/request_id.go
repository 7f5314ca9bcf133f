// SPDX-FileCopyrightText: Copyright The Miniflux Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package middleware // import "newsfeed.app/internal/http/middleware"

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"sync/atomic"

	"newsfeed.app/internal/logging"
)

const (
	RequestIdHeader = "X-Request-Id"

	maxRequestIdLen = 64
)

type ctxRequestId struct{}

var requestIdKey ctxRequestId = struct{}{}

var lastRequestId atomic.Uint64

// RequestId tags every request with an id, adds it to the request logger as
// "rid" and returns it in X-Request-Id response header. An id, which came
// from a trusted proxy, is used as is, otherwise the next sequence number is.
func RequestId(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		id := incomingRequestId(r)
		if id == "" {
			id = strconv.FormatUint(lastRequestId.Add(1), 10)
		}

		w.Header().Set(RequestIdHeader, id)
		ctx := context.WithValue(r.Context(), requestIdKey, id)
		ctx = logging.With(ctx, slog.String("rid", id))
		next.ServeHTTP(w, r.WithContext(ctx))
	}
	return http.HandlerFunc(fn)
}

func incomingRequestId(r *http.Request) string {
	id := r.Header.Get(RequestIdHeader)
	if id == "" || len(id) > maxRequestIdLen || !trustedProxy(remoteIP(r)) {
		return ""
	}
	for i := range len(id) {
		if c := id[i]; c <= ' ' || c > '~' {
			return ""
		}
	}
	return id
}

// RequestIdFrom returns id of the request, assigned by [RequestId].
func RequestIdFrom(ctx context.Context) string {
	if id, ok := ctx.Value(requestIdKey).(string); ok {
		return id
	}
	return ""
}
