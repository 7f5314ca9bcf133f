// SPDX-FileCopyrightText: Copyright The Miniflux Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package metric // import "newsfeed.app/internal/metric"

import (
	"context"
	"log/slog"
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"newsfeed.app/internal/config"
	"newsfeed.app/internal/logging"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Prometheus Metrics.
var (
	FetchRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "newsfeed",
			Name:      "fetch_request_duration",
			Help:      "Duration of feed downloads, retries included",
			Buckets:   prometheus.LinearBuckets(0.5, 1, 20),
		},
		[]string{"status"},
	)

	FetchRetries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "newsfeed",
			Name:      "fetch_retries_total",
			Help:      "Number of retried feed downloads",
		},
	)

	RefreshDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "newsfeed",
			Name:      "refresh_duration",
			Help:      "Processing time to fetch all feeds",
			Buckets:   prometheus.LinearBuckets(1, 2, 15),
		},
		[]string{"status"},
	)

	ExcerptCuts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "newsfeed",
			Name:      "excerpt_cuts_total",
			Help:      "Number of excerpts by the way they were truncated",
		},
		[]string{"cut"},
	)

	StoredItems = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "newsfeed",
			Name:      "stored_items",
			Help:      "Number of items in the database",
		},
	)
)

func RegisterMetrics() {
	prometheus.MustRegister(FetchRequestDuration)
	prometheus.MustRegister(FetchRetries)
	prometheus.MustRegister(RefreshDuration)
	prometheus.MustRegister(ExcerptCuts)
	prometheus.MustRegister(StoredItems)
}

// Collector refreshes metrics, which can't be updated in place, like number
// of stored items.
type Collector interface {
	CollectMetrics(ctx context.Context) error
}

// Handler returns prometheus handler, which refreshes metrics of store on
// every request. It responds with 404 to clients outside of
// METRICS_ALLOWED_NETWORKS.
func Handler(store Collector) http.Handler {
	promHandler := promhttp.Handler()

	fn := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		log := logging.FromContext(ctx)
		if !allowedNetwork(r) {
			log.Warn("Unauthorized access to metrics endpoint",
				slog.String("client_remote_addr", r.RemoteAddr),
				slog.String("client_user_agent", r.UserAgent()))
			http.NotFound(w, r)
			return
		}

		if store != nil {
			if err := store.CollectMetrics(ctx); err != nil {
				log.Error("unable collect storage metrics", slog.Any("error", err))
				http.Error(w, http.StatusText(http.StatusInternalServerError),
					http.StatusInternalServerError)
				return
			}
		}
		promHandler.ServeHTTP(w, r)
	}
	return http.HandlerFunc(fn)
}

func allowedNetwork(r *http.Request) bool {
	remoteIP, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		remoteIP = r.RemoteAddr
	}

	// Unix socket.
	if remoteIP == "@" || remoteIP == "" {
		return true
	}

	ip := net.ParseIP(remoteIP)
	for _, cidr := range config.Opts.MetricsAllowedNetworks() {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			continue
		}
		if network.Contains(ip) {
			return true
		}
	}
	return false
}
