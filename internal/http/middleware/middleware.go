// SPDX-FileCopyrightText: Copyright The Miniflux Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package middleware // import "newsfeed.app/internal/http/middleware"

import (
	"context"
	"net"
	"net/http"
	"slices"
	"strings"

	"github.com/klauspost/compress/gzhttp"
)

type ctxClientIP struct{}

var clientIPKey ctxClientIP = struct{}{}

// Gzip compresses responses, if client accepts it.
func Gzip(next http.Handler) http.Handler { return gzhttp.GzipHandler(next) }

// ClientIP finds real IP address of the client and stores it in request
// context, see [ClientIPFrom]. X-Forwarded-For and X-Real-IP are trusted only
// from loopback addresses.
func ClientIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), clientIPKey, findClientIP(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ClientIPFrom returns client IP, found by [ClientIP], or remote address of
// r.
func ClientIPFrom(r *http.Request) string {
	if ip, ok := r.Context().Value(clientIPKey).(string); ok {
		return ip
	}
	return remoteIP(r)
}

func findClientIP(r *http.Request) string {
	ip := remoteIP(r)
	if !trustedProxy(ip) {
		return ip
	}

	if forwarded := forwardedFor(r); forwarded != "" {
		return forwarded
	}

	realIP := dropIPv6zone(strings.TrimSpace(r.Header.Get("X-Real-IP")))
	if realIP != "" && net.ParseIP(realIP) != nil {
		return realIP
	}
	return ip
}

// forwardedFor returns the last address from X-Forwarded-For, which isn't a
// trusted proxy.
func forwardedFor(r *http.Request) string {
	for _, value := range slices.Backward(r.Header.Values("X-Forwarded-For")) {
		for _, ip := range slices.Backward(strings.Split(value, ",")) {
			ip = strings.TrimSpace(ip)
			if trustedProxy(ip) {
				continue
			}
			ip = dropIPv6zone(ip)
			if net.ParseIP(ip) == nil {
				return ""
			}
			return ip
		}
	}
	return ""
}

func trustedProxy(ip string) bool {
	// Unix socket.
	if ip == "" || ip == "@" {
		return true
	}
	parsed := net.ParseIP(ip)
	return parsed != nil && parsed.IsLoopback()
}

func remoteIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}
	return dropIPv6zone(ip)
}

func dropIPv6zone(address string) string {
	before, _, _ := strings.Cut(address, "%")
	return before
}
