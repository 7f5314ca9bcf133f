// SPDX-FileCopyrightText: Copyright The Miniflux Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package server // import "newsfeed.app/internal/http/server"

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"newsfeed.app/internal/api"
	"newsfeed.app/internal/config"
	"newsfeed.app/internal/http/middleware"
	"newsfeed.app/internal/http/mux"
	"newsfeed.app/internal/logging"
	"newsfeed.app/internal/metric"
)

// Storage is everything HTTP handlers need from the storage.
type Storage interface {
	api.ItemStore
	metric.Collector

	Ping(ctx context.Context) error
}

// Listener returns listener for systemd socket activation or a unix socket,
// if LISTEN_ADDR is a path. Otherwise it returns nil and the server listens
// on LISTEN_ADDR itself.
func Listener() (net.Listener, error) {
	listenAddr := config.Opts.ListenAddr()
	switch {
	case systemdActivated():
		f := os.NewFile(3, "systemd socket")
		l, err := net.FileListener(f)
		if err != nil {
			return nil, fmt.Errorf(
				"http/server: create listener from systemd socket: %w", err)
		}
		return l, nil
	case strings.HasPrefix(listenAddr, "/"):
		return unixListener(listenAddr, 0o666)
	}
	return nil, nil
}

func systemdActivated() bool {
	return os.Getenv("LISTEN_PID") == strconv.Itoa(os.Getpid())
}

func unixListener(path string, mode os.FileMode) (*net.UnixListener, error) {
	if err := unlinkStaleUnix(path); err != nil {
		return nil, err
	}

	laddr, err := net.ResolveUnixAddr("unix", path)
	if err != nil {
		return nil, fmt.Errorf("http/server: resolve unix address: %w", err)
	}

	l, err := net.ListenUnix("unix", laddr)
	if err != nil {
		return nil, fmt.Errorf("http/server: listen unix: %w", err)
	}
	l.SetUnlinkOnClose(true)

	if err := os.Chmod(path, mode); err != nil {
		_ = l.Close()
		return nil, fmt.Errorf(
			"http/server: change socket mode to %O: %w", mode, err)
	}
	return l, nil
}

func unlinkStaleUnix(path string) error {
	sockdir := filepath.Dir(path)
	if err := os.MkdirAll(sockdir, 0o755); err != nil {
		return fmt.Errorf("http/server: cannot mkdir %q: %w", sockdir, err)
	}

	err := os.Remove(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("http/server: cannot remove stale socket: %w", err)
	}
	return nil
}

// StartWebServer starts HTTP server in g. It serves on listener, if it isn't
// nil, or on LISTEN_ADDR. Use Shutdown of returned server to stop it.
func StartWebServer(ctx context.Context, store Storage, g *errgroup.Group,
	listener net.Listener,
) *http.Server {
	timeout := config.Opts.HTTPServerTimeout()
	server := &http.Server{
		Addr:         config.Opts.ListenAddr(),
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
		IdleTimeout:  timeout,
		Handler:      NewHandler(store),
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	g.Go(func() error {
		log := logging.FromContext(ctx)
		var err error
		if listener != nil {
			log.Info("Starting HTTP server",
				slog.String("listen_address", listener.Addr().String()))
			err = server.Serve(listener)
		} else {
			log.Info("Starting HTTP server",
				slog.String("listen_address", server.Addr))
			err = server.ListenAndServe()
		}

		if !errors.Is(err, http.ErrServerClosed) {
			log.Error("failed serve HTTP server", slog.Any("error", err))
			return fmt.Errorf("http/server: failed serve HTTP server: %w", err)
		}
		return nil
	})
	return server
}

// NewHandler returns handler with all routes of the HTTP service.
func NewHandler(store Storage) http.Handler {
	m := mux.New()

	// Probes aren't logged and compressed.
	health := probes{ping: store.Ping}
	m.HandleFunc("/liveness", health.Live).
		HandleFunc("/readiness", health.Ready).
		HandleFunc("/healthcheck", health.Ready)

	m.Use(middleware.RequestId, middleware.ClientIP,
		middleware.WithAccessLog("/metrics"), middleware.WithPanic,
		middleware.Gzip)

	if config.Opts.HasMetricsCollector() {
		m.Handle("/metrics", metric.Handler(store))
	}
	api.Serve(m, store)
	return m
}
