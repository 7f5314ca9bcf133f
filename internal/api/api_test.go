// SPDX-FileCopyrightText: Copyright The Miniflux Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsfeed.app/internal/config"
	"newsfeed.app/internal/http/mux"
	"newsfeed.app/internal/model"
)

type itemsFunc func(ctx context.Context, limit int) (model.Items, error)

func (self itemsFunc) Items(ctx context.Context, limit int) (model.Items, error) {
	return self(ctx, limit)
}

func newTestMux(t *testing.T, store ItemStore) *mux.ServeMux {
	t.Helper()
	os.Clearenv()
	t.Setenv("ITEMS_LIMIT", "10")
	require.NoError(t, config.Load(""))

	m := mux.New()
	Serve(m, store)
	return m
}

func serve(m http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, target, nil)
	} else {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	m.ServeHTTP(w, r)
	return w
}

func TestItems(t *testing.T) {
	publishDate := time.Date(2017, time.August, 14, 16, 0, 0, 0, time.UTC)
	stored := model.Items{
		{
			Title:       "ASP.NET Core 2.0",
			Excerpt:     "ASP.NET Core 2.0 is here!",
			PublishDate: publishDate,
			URL:         "https://example.org/core",
			Hash:        "abc",
			FeedURL:     "https://example.org/rss",
		},
	}

	var gotLimit int
	m := newTestMux(t, itemsFunc(func(ctx context.Context, limit int,
	) (model.Items, error) {
		gotLimit = limit
		return stored, nil
	}))

	tests := []struct {
		name       string
		target     string
		wantStatus int
		wantLimit  int
	}{
		{
			name:       "default limit",
			target:     "/v1/items",
			wantStatus: http.StatusOK,
			wantLimit:  10,
		},
		{
			name:       "with limit",
			target:     "/v1/items?limit=5",
			wantStatus: http.StatusOK,
			wantLimit:  5,
		},
		{
			name:       "limit above maximum",
			target:     "/v1/items?limit=500",
			wantStatus: http.StatusOK,
			wantLimit:  10,
		},
		{
			name:       "zero limit",
			target:     "/v1/items?limit=0",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "invalid limit",
			target:     "/v1/items?limit=abc",
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotLimit = 0
			w := serve(m, http.MethodGet, tt.target, "")
			require.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantLimit, gotLimit)
			if tt.wantStatus != http.StatusOK {
				return
			}

			var resp ItemsResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, 1, resp.Total)
			assert.Equal(t, stored, resp.Items)
		})
	}
}

func TestItems_empty(t *testing.T) {
	m := newTestMux(t, itemsFunc(func(context.Context, int) (model.Items, error) {
		return nil, nil
	}))

	w := serve(m, http.MethodGet, "/v1/items", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"total":0,"items":[]}`, w.Body.String())
}

func TestItems_storeFailed(t *testing.T) {
	m := newTestMux(t, itemsFunc(func(context.Context, int) (model.Items, error) {
		return nil, errors.New("connection refused")
	}))

	w := serve(m, http.MethodGet, "/v1/items", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")
}

func TestExcerpt(t *testing.T) {
	m := newTestMux(t, nil)

	tests := []struct {
		name       string
		target     string
		body       string
		wantStatus int
		want       ExcerptResponse
	}{
		{
			name:       "default length",
			target:     "/v1/excerpt",
			body:       "<p>Hello &amp; welcome</p>",
			wantStatus: http.StatusOK,
			want:       ExcerptResponse{Excerpt: "Hello & welcome", Cut: "none"},
		},
		{
			name:       "terminator",
			target:     "/v1/excerpt?length=5",
			body:       "One. Two. Three.",
			wantStatus: http.StatusOK,
			want:       ExcerptResponse{Excerpt: "One.", Cut: "terminator"},
		},
		{
			name:       "word",
			target:     "/v1/excerpt?length=10",
			body:       "<b>Hello</b> wonderful world",
			wantStatus: http.StatusOK,
			want:       ExcerptResponse{Excerpt: "Hello...", Cut: "word"},
		},
		{
			name:       "zero length",
			target:     "/v1/excerpt?length=0",
			body:       "text",
			wantStatus: http.StatusOK,
			want:       ExcerptResponse{Excerpt: "...", Cut: "hard"},
		},
		{
			name:       "empty body",
			target:     "/v1/excerpt",
			wantStatus: http.StatusOK,
			want:       ExcerptResponse{Cut: "none"},
		},
		{
			name:       "negative length",
			target:     "/v1/excerpt?length=-1",
			body:       "text",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "invalid length",
			target:     "/v1/excerpt?length=ten",
			body:       "text",
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(m, http.MethodPost, tt.target, tt.body)
			require.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus != http.StatusOK {
				return
			}

			var resp ExcerptResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.want, resp)
		})
	}
}

func TestExcerpt_tooLarge(t *testing.T) {
	m := newTestMux(t, nil)
	w := serve(m, http.MethodPost, "/v1/excerpt",
		strings.Repeat("a", maxMarkupSize+1))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "markup exceeds")
}

func TestExcerpt_methodNotAllowed(t *testing.T) {
	m := newTestMux(t, nil)
	w := serve(m, http.MethodGet, "/v1/excerpt", "")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestVersion(t *testing.T) {
	m := newTestMux(t, nil)
	w := serve(m, http.MethodGet, "/v1/version", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp VersionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Version)
	assert.NotEmpty(t, resp.GoVersion)
	assert.NotEmpty(t, resp.OS)
}

func TestCORS(t *testing.T) {
	m := newTestMux(t, nil)
	w := serve(m, http.MethodOptions, "/v1/items", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "3600", w.Header().Get("Access-Control-Max-Age"))
}
