// SPDX-FileCopyrightText: Copyright The Miniflux Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package storage // import "newsfeed.app/internal/storage"

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"

	"newsfeed.app/internal/metric"
)

type poolGauge struct {
	name  string
	help  string
	value func(stat *pgxpool.Stat) float64
}

var poolGauges = [...]poolGauge{
	{
		name: "acquire_count",
		help: "Cumulative count of successful acquires from the pool",
		value: func(stat *pgxpool.Stat) float64 {
			return float64(stat.AcquireCount())
		},
	},
	{
		name: "acquired_conns",
		help: "Number of currently acquired connections",
		value: func(stat *pgxpool.Stat) float64 {
			return float64(stat.AcquiredConns())
		},
	},
	{
		name: "empty_acquire_count",
		help: "Cumulative count of acquires that waited for a free connection",
		value: func(stat *pgxpool.Stat) float64 {
			return float64(stat.EmptyAcquireCount())
		},
	},
	{
		name: "idle_conns",
		help: "Number of currently idle connections",
		value: func(stat *pgxpool.Stat) float64 {
			return float64(stat.IdleConns())
		},
	},
	{
		name: "max_conns",
		help: "Maximum size of the pool",
		value: func(stat *pgxpool.Stat) float64 {
			return float64(stat.MaxConns())
		},
	},
	{
		name: "total_conns",
		help: "Number of connections currently in the pool",
		value: func(stat *pgxpool.Stat) float64 {
			return float64(stat.TotalConns())
		},
	},
}

// poolCollectors returns gauges, which read pool statistics on every scrape.
func (s *Storage) poolCollectors() []prometheus.Collector {
	collectors := make([]prometheus.Collector, len(poolGauges))
	for i, g := range poolGauges {
		collectors[i] = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "newsfeed",
			Subsystem: "pgx",
			Name:      g.name,
			Help:      g.help,
		}, func() float64 { return g.value(s.db.Stat()) })
	}
	return collectors
}

// RegisterMetrics registers connection pool gauges in the default registry.
func (s *Storage) RegisterMetrics() {
	prometheus.MustRegister(s.poolCollectors()...)
}

// CollectMetrics refreshes the number of stored items.
func (s *Storage) CollectMetrics(ctx context.Context) error {
	n, err := s.CountItems(ctx)
	if err != nil {
		return err
	}
	metric.StoredItems.Set(float64(n))
	return nil
}
