// SPDX-FileCopyrightText: Copyright The Miniflux Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

// Package mux wraps [http.ServeMux] with middlewares and prefixed groups of
// routes.
package mux // import "newsfeed.app/internal/http/mux"

import (
	"net/http"
	"slices"
	"strings"
)

func New() *ServeMux {
	return &ServeMux{ServeMux: http.NewServeMux()}
}

type ServeMux struct {
	*http.ServeMux

	middlewares []MiddlewareFunc
}

type MiddlewareFunc func(next http.Handler) http.Handler

var _ http.Handler = (*ServeMux)(nil)

// Group returns a copy of the mux, which registers routes into the same
// [http.ServeMux], but has its own list of middlewares.
func (self *ServeMux) Group(funcs ...func(m *ServeMux)) *ServeMux {
	g := *self
	g.middlewares = slices.Clone(self.middlewares)
	for _, fn := range funcs {
		fn(&g)
	}
	return &g
}

// Handle registers handler for pattern, wrapped by all middlewares of the
// mux, the first one is the outermost.
func (self *ServeMux) Handle(pattern string, handler http.Handler) *ServeMux {
	for _, m := range slices.Backward(self.middlewares) {
		handler = m(handler)
	}
	self.ServeMux.Handle(pattern, handler)
	return self
}

func (self *ServeMux) HandleFunc(pattern string,
	handler func(http.ResponseWriter, *http.Request),
) *ServeMux {
	return self.Handle(pattern, http.HandlerFunc(handler))
}

// PrefixGroup returns a mux for routes under prefix. Routes of the group are
// registered without prefix. Middlewares of the parent wrap the whole group,
// the group starts with its own empty list.
func (self *ServeMux) PrefixGroup(prefix string, funcs ...func(m *ServeMux),
) *ServeMux {
	if prefix == "" {
		return self.Group(funcs...)
	}

	pattern := prefix
	if !strings.HasSuffix(pattern, "/") {
		pattern += "/"
	}
	mux := http.NewServeMux()
	self.Handle(pattern, http.StripPrefix(strings.TrimSuffix(prefix, "/"), mux))

	g := &ServeMux{ServeMux: mux}
	for _, fn := range funcs {
		fn(g)
	}
	return g
}

func (self *ServeMux) Use(m ...MiddlewareFunc) *ServeMux {
	self.middlewares = append(self.middlewares, m...)
	return self
}
