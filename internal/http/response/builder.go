// SPDX-FileCopyrightText: Copyright The Miniflux Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package response // import "newsfeed.app/internal/http/response"

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"newsfeed.app/internal/logging"
)

// securityHeaders are added to every response. API responses aren't cached,
// because items change with every refresh.
var securityHeaders = http.Header{
	"Cache-Control":          {"no-store"},
	"Referrer-Policy":        {"no-referrer"},
	"X-Content-Type-Options": {"nosniff"},
	"X-Frame-Options":        {"DENY"},
}

// Builder collects status, headers and body of a response and writes them
// all at once.
type Builder struct {
	w      http.ResponseWriter
	r      *http.Request
	status int
	header http.Header
	body   io.Reader
}

// New returns a builder of 200 OK response without body.
func New(w http.ResponseWriter, r *http.Request) *Builder {
	return &Builder{w: w, r: r, status: http.StatusOK, header: http.Header{}}
}

func (b *Builder) WithStatus(statusCode int) *Builder {
	b.status = statusCode
	return b
}

// WithHeader sets header key to value, replacing default headers.
func (b *Builder) WithHeader(key, value string) *Builder {
	b.header.Set(key, value)
	return b
}

// WithBody sets body of the response. It can be []byte, string, error or
// io.Reader, anything else is ignored.
func (b *Builder) WithBody(body any) *Builder {
	switch v := body.(type) {
	case []byte:
		b.body = bytes.NewReader(v)
	case string:
		b.body = strings.NewReader(v)
	case error:
		b.body = strings.NewReader(v.Error())
	case io.Reader:
		b.body = v
	default:
		b.body = nil
	}
	return b
}

// Write sends the response.
func (b *Builder) Write() {
	h := b.w.Header()
	for key, values := range securityHeaders {
		h.Set(key, values[0])
	}
	for key, values := range b.header {
		h[key] = values
	}
	b.w.WriteHeader(b.status)

	if b.body == nil {
		return
	}
	if _, err := io.Copy(b.w, b.body); err != nil {
		logging.FromContext(b.r.Context()).Error(
			"http/response: unable to write response", slog.Any("error", err))
	}
}
