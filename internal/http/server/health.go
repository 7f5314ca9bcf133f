// SPDX-FileCopyrightText: Copyright The Miniflux Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package server // import "newsfeed.app/internal/http/server"

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"newsfeed.app/internal/logging"
)

// probes answer orchestrator health checks with plain "OK".
type probes struct {
	ping func(ctx context.Context) error
}

// Live reports the process is up, no matter of the database.
func (self probes) Live(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "OK")
}

// Ready reports the process can serve items.
func (self probes) Ready(w http.ResponseWriter, r *http.Request) {
	if err := self.ping(r.Context()); err != nil {
		logging.FromContext(r.Context()).Warn("Readiness probe failed",
			slog.Any("error", err))
		http.Error(w, "Database unavailable: "+err.Error(),
			http.StatusServiceUnavailable)
		return
	}
	self.Live(w, r)
}
