// SPDX-FileCopyrightText: Copyright The Miniflux Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package api // import "newsfeed.app/internal/api"

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"runtime"
	"strconv"

	"newsfeed.app/internal/config"
	"newsfeed.app/internal/http/mux"
	"newsfeed.app/internal/http/response/json"
	"newsfeed.app/internal/metric"
	"newsfeed.app/internal/model"
	"newsfeed.app/internal/reader/excerpt"
	"newsfeed.app/internal/version"
)

const (
	PathPrefix = "/v1"

	// maxMarkupSize limits body of excerpt requests.
	maxMarkupSize = 1 << 20
)

// ItemStore returns stored news items.
type ItemStore interface {
	Items(ctx context.Context, limit int) (model.Items, error)
}

type handler struct {
	store ItemStore
}

// Serve declares API routes for the application.
func Serve(m *mux.ServeMux, store ItemStore) {
	h := &handler{store: store}

	m.PrefixGroup(PathPrefix).
		Use(CORS).
		HandleFunc("OPTIONS /", func(http.ResponseWriter, *http.Request) {}).
		HandleFunc("GET /items", h.items).
		HandleFunc("POST /excerpt", h.excerpt).
		HandleFunc("GET /version", h.versionHandler)
}

func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept")
		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Max-Age", "3600")
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *handler) items(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", config.Opts.ItemsLimit())
	if err != nil {
		json.BadRequest(w, r, err)
		return
	} else if limit < 1 {
		json.BadRequest(w, r, fmt.Errorf("limit must be positive: %d", limit))
		return
	}
	limit = min(limit, config.Opts.ItemsLimit())

	items, err := h.store.Items(r.Context(), limit)
	if err != nil {
		json.ServerError(w, r, err)
		return
	}
	if items == nil {
		items = model.Items{}
	}
	json.OK(w, r, &ItemsResponse{Total: len(items), Items: items})
}

func (h *handler) excerpt(w http.ResponseWriter, r *http.Request) {
	length, err := queryInt(r, "length", config.Opts.ExcerptLength())
	if err != nil {
		json.BadRequest(w, r, err)
		return
	} else if length < 0 {
		json.BadRequest(w, r, fmt.Errorf("length must not be negative: %d", length))
		return
	}

	b, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxMarkupSize))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			json.BadRequest(w, r, fmt.Errorf("markup exceeds %d bytes", maxErr.Limit))
			return
		}
		json.BadRequest(w, r, fmt.Errorf("unable read markup: %w", err))
		return
	}

	s, cut := excerpt.Truncate(excerpt.StripHTML(string(b)), length)
	metric.ExcerptCuts.WithLabelValues(cut.String()).Inc()
	json.OK(w, r, &ExcerptResponse{Excerpt: s, Cut: cut.String()})
}

func (h *handler) versionHandler(w http.ResponseWriter, r *http.Request) {
	json.OK(w, r, &VersionResponse{
		Version:   version.Version,
		Commit:    version.Commit,
		BuildDate: version.BuildDate,
		GoVersion: runtime.Version(),
		Compiler:  runtime.Compiler,
		Arch:      runtime.GOARCH,
		OS:        runtime.GOOS,
	})
}

func queryInt(r *http.Request, name string, fallback int) (int, error) {
	value := r.URL.Query().Get(name)
	if value == "" {
		return fallback, nil
	}

	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", name, value)
	}
	return n, nil
}
