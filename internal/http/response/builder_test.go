// SPDX-FileCopyrightText: Copyright The Miniflux Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package response

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuilder(t *testing.T) {
	tests := []struct {
		name       string
		build      func(b *Builder) *Builder
		wantStatus int
		wantBody   string
		wantHeader http.Header
	}{
		{
			name:       "common headers",
			build:      func(b *Builder) *Builder { return b },
			wantStatus: http.StatusOK,
			wantHeader: http.Header{
				"Cache-Control":          {"no-store"},
				"X-Content-Type-Options": {"nosniff"},
				"X-Frame-Options":        {"DENY"},
				"Referrer-Policy":        {"no-referrer"},
			},
		},
		{
			name: "custom status",
			build: func(b *Builder) *Builder {
				return b.WithStatus(http.StatusNotAcceptable)
			},
			wantStatus: http.StatusNotAcceptable,
		},
		{
			name: "custom header",
			build: func(b *Builder) *Builder {
				return b.WithHeader("X-My-Header", "Value")
			},
			wantStatus: http.StatusOK,
			wantHeader: http.Header{"X-My-Header": {"Value"}},
		},
		{
			name: "byte body",
			build: func(b *Builder) *Builder {
				return b.WithBody([]byte("body"))
			},
			wantStatus: http.StatusOK,
			wantBody:   "body",
		},
		{
			name: "string body",
			build: func(b *Builder) *Builder {
				return b.WithBody("body")
			},
			wantStatus: http.StatusOK,
			wantBody:   "body",
		},
		{
			name: "error body",
			build: func(b *Builder) *Builder {
				return b.WithStatus(http.StatusBadGateway).
					WithBody(errors.New("upstream failed"))
			},
			wantStatus: http.StatusBadGateway,
			wantBody:   "upstream failed",
		},
		{
			name: "reader body",
			build: func(b *Builder) *Builder {
				return b.WithBody(strings.NewReader("body"))
			},
			wantStatus: http.StatusOK,
			wantBody:   "body",
		},
		{
			name: "replaced default header",
			build: func(b *Builder) *Builder {
				return b.WithHeader("Cache-Control", "max-age=60")
			},
			wantStatus: http.StatusOK,
			wantHeader: http.Header{"Cache-Control": {"max-age=60"}},
		},
		{
			name: "unknown body",
			build: func(b *Builder) *Builder {
				return b.WithBody(42)
			},
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			w := httptest.NewRecorder()
			tt.build(New(w, r)).Write()

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantBody, w.Body.String())
			for key, values := range tt.wantHeader {
				assert.Equal(t, values, w.Header().Values(key), key)
			}
		})
	}
}
