// SPDX-FileCopyrightText: Copyright The Miniflux Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package config // import "newsfeed.app/internal/config"

import (
	"fmt"
	"maps"
	"net/url"
	"runtime"
	"slices"
	"strings"
	"time"

	"newsfeed.app/internal/version"
)

const (
	defaultDatabaseURL = "user=postgres password=postgres dbname=newsfeed sslmode=disable"
	defaultFeedURL     = "https://www.asp.net/rss/spotlight"
)

var defaultUA = "Newsfeed/" + version.Version

// Option contains a key to value map of a single option. It may be used to
// output debug strings.
type Option struct {
	Key   string
	Value any
}

// Options contains configuration options.
type Options struct {
	env EnvOptions

	feeds      []string
	hostLimits map[string]HostLimits
}

type yamlOptions struct {
	Feeds      []string              `yaml:"feeds" validate:"dive,required,http_url"`
	HostLimits map[string]HostLimits `yaml:"host_limits" validate:"dive,keys,required,endkeys,required"`
}

type HostLimits struct {
	Connections int64   `yaml:"connections" validate:"omitempty,min=0"`
	Rate        float64 `yaml:"rate" validate:"omitempty,min=0"`
}

func (self *HostLimits) withDefaults(connections int64, rate float64,
) HostLimits {
	limits := *self
	if limits.Connections == 0 {
		limits.Connections = connections
	}
	if limits.Rate == 0 {
		limits.Rate = rate
	}
	return limits
}

type EnvOptions struct {
	LogFile                    string   `env:"LOG_FILE" validate:"required"`
	LogDateTime                bool     `env:"LOG_DATE_TIME"`
	LogFormat                  string   `env:"LOG_FORMAT" validate:"required,oneof=human json text"`
	LogLevel                   string   `env:"LOG_LEVEL" validate:"required,oneof=debug info warning error"`
	Logging                    []Log    `envPrefix:"LOG" validate:"dive,required"`
	FeedURLs                   []string `env:"FEED_URLS" validate:"dive,required,http_url"`
	ExcerptLength              int      `env:"EXCERPT_LENGTH" validate:"min=0"`
	WorkerPoolSize             int      `env:"WORKER_POOL_SIZE" validate:"min=1"`
	DatabaseURL                string   `env:"DATABASE_URL" validate:"required"`
	DatabaseURLFile            *string  `env:"DATABASE_URL_FILE,file"`
	DatabaseMaxConns           int      `env:"DATABASE_MAX_CONNS" validate:"min=1"`
	DatabaseMinConns           int      `env:"DATABASE_MIN_CONNS" validate:"min=0"`
	DatabaseConnectionLifetime int      `env:"DATABASE_CONNECTION_LIFETIME" validate:"gt=0"`
	RunMigrations              bool     `env:"RUN_MIGRATIONS"`
	ListenAddr                 string   `env:"LISTEN_ADDR" validate:"required,hostname_port|startswith=/"`
	PollingFrequency           int      `env:"POLLING_FREQUENCY" validate:"min=1"`
	CleanupArchiveDays         int      `env:"CLEANUP_ARCHIVE_DAYS" validate:"min=0"`
	ItemsLimit                 int      `env:"ITEMS_LIMIT" validate:"min=1"`
	HttpClientTimeout          int      `env:"HTTP_CLIENT_TIMEOUT" validate:"min=1"`
	HttpClientMaxBodySize      int64    `env:"HTTP_CLIENT_MAX_BODY_SIZE" validate:"min=1"`
	HttpClientProxyURL         *url.URL `env:"HTTP_CLIENT_PROXY"`
	HttpClientUserAgent        string   `env:"HTTP_CLIENT_USER_AGENT"`
	HttpServerTimeout          int      `env:"HTTP_SERVER_TIMEOUT" validate:"min=1"`
	ConnectionsPerSever        int64    `env:"CONNECTIONS_PER_SERVER" validate:"min=0"`
	RateLimitPerServer         float64  `env:"RATE_LIMIT_PER_SERVER" validate:"min=0"`
	FetchMaxElapsedTime        int      `env:"FETCH_MAX_ELAPSED_TIME" validate:"min=0"`
	MetricsCollector           bool     `env:"METRICS_COLLECTOR"`
	MetricsAllowedNetworks     []string `env:"METRICS_ALLOWED_NETWORKS" validate:"dive,required,cidr"`
}

type Log struct {
	LogFile     string `env:"FILE" validate:"required"`
	LogDateTime bool   `env:"DATE_TIME"`
	LogFormat   string `env:"FORMAT" validate:"required,oneof=human json text"`
	LogLevel    string `env:"LEVEL" validate:"required,oneof=debug info warning error"`
}

// NewOptions returns Options with default values.
func NewOptions() *Options {
	maxConns := max(4, runtime.GOMAXPROCS(0))

	return &Options{
		hostLimits: map[string]HostLimits{},

		env: EnvOptions{
			LogFile:                    "stderr",
			LogFormat:                  "text",
			LogLevel:                   "info",
			FeedURLs:                   []string{defaultFeedURL},
			ExcerptLength:              200,
			WorkerPoolSize:             16,
			DatabaseURL:                defaultDatabaseURL,
			DatabaseMaxConns:           maxConns,
			DatabaseMinConns:           0,
			DatabaseConnectionLifetime: 60,
			ListenAddr:                 "127.0.0.1:8080",
			PollingFrequency:           60,
			CleanupArchiveDays:         30,
			ItemsLimit:                 100,
			HttpClientTimeout:          20,
			HttpClientMaxBodySize:      15,
			HttpClientUserAgent:        defaultUA,
			HttpServerTimeout:          300,
			ConnectionsPerSever:        8,
			RateLimitPerServer:         10,
			FetchMaxElapsedTime:        60,
			MetricsAllowedNetworks:     []string{"127.0.0.1/8"},
		},
	}
}

func (o *Options) init() error {
	if err := Validator().Struct(&o.env); err != nil {
		return fmt.Errorf("config: failed validate: %w", err)
	}

	o.env.HttpClientMaxBodySize *= 1024 * 1024
	o.env.FeedURLs = uniqStringList(o.env.FeedURLs)
	if o.env.DatabaseURLFile != nil {
		o.env.DatabaseURL = strings.TrimSpace(*o.env.DatabaseURLFile)
	}
	return nil
}

func (o *Options) applyYAML(y *yamlOptions) {
	if len(y.Feeds) > 0 {
		o.feeds = uniqStringList(slices.Concat(o.feeds, y.Feeds))
	}
	maps.Copy(o.hostLimits, y.HostLimits)
}

func uniqStringList(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	uniq := items[:0]
	for _, s := range items {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, found := seen[s]; !found {
			seen[s] = struct{}{}
			uniq = append(uniq, s)
		}
	}
	return uniq
}

func (o *Options) LogFile() string { return o.env.LogFile }

// LogDateTime returns true if the date/time should be displayed in log
// messages.
func (o *Options) LogDateTime() bool { return o.env.LogDateTime }

func (o *Options) LogFormat() string { return o.env.LogFormat }

func (o *Options) LogLevel() string { return o.env.LogLevel }

// SetLogLevel overrides the log level.
func (o *Options) SetLogLevel(level string) { o.env.LogLevel = level }

func (o *Options) Logging() []Log {
	if len(o.env.Logging) == 0 {
		return []Log{{
			LogFile:     o.LogFile(),
			LogDateTime: o.LogDateTime(),
			LogFormat:   o.LogFormat(),
			LogLevel:    o.LogLevel(),
		}}
	}
	return slices.Clone(o.env.Logging)
}

// FeedURLs returns the list of feeds to fetch. Feeds from YAML replace
// FEED_URLS.
func (o *Options) FeedURLs() []string {
	if len(o.feeds) > 0 {
		return slices.Clone(o.feeds)
	}
	return slices.Clone(o.env.FeedURLs)
}

// SetFeedURLs overrides the list of feeds.
func (o *Options) SetFeedURLs(urls ...string) {
	o.feeds = uniqStringList(slices.Clone(urls))
}

// ExcerptLength returns max length of item excerpts, in characters.
func (o *Options) ExcerptLength() int { return o.env.ExcerptLength }

func (o *Options) WorkerPoolSize() int { return o.env.WorkerPoolSize }

func (o *Options) IsDefaultDatabaseURL() bool {
	return o.env.DatabaseURL == defaultDatabaseURL
}

func (o *Options) DatabaseURL() string { return o.env.DatabaseURL }

func (o *Options) DatabaseMaxConns() int { return o.env.DatabaseMaxConns }

func (o *Options) DatabaseMinConns() int { return o.env.DatabaseMinConns }

func (o *Options) DatabaseConnectionLifetime() time.Duration {
	return time.Duration(o.env.DatabaseConnectionLifetime) * time.Minute
}

func (o *Options) RunMigrations() bool { return o.env.RunMigrations }

func (o *Options) ListenAddr() string { return o.env.ListenAddr }

// PollingFrequency returns the interval between refreshes of all feeds.
func (o *Options) PollingFrequency() time.Duration {
	return time.Duration(o.env.PollingFrequency) * time.Minute
}

// CleanupArchiveDays returns how long stored items live. Zero disables
// cleanup.
func (o *Options) CleanupArchiveDays() int { return o.env.CleanupArchiveDays }

// ItemsLimit returns default number of items returned by API.
func (o *Options) ItemsLimit() int { return o.env.ItemsLimit }

func (o *Options) HTTPClientTimeout() time.Duration {
	return time.Duration(o.env.HttpClientTimeout) * time.Second
}

// HTTPClientMaxBodySize returns the maximum body size in bytes.
func (o *Options) HTTPClientMaxBodySize() int64 {
	return o.env.HttpClientMaxBodySize
}

func (o *Options) HTTPClientProxyURL() *url.URL {
	return o.env.HttpClientProxyURL
}

func (o *Options) HTTPClientUserAgent() string {
	return o.env.HttpClientUserAgent
}

func (o *Options) HTTPServerTimeout() time.Duration {
	return time.Duration(o.env.HttpServerTimeout) * time.Second
}

func (o *Options) ConnectionsPerServer() int64 {
	return o.env.ConnectionsPerSever
}

func (o *Options) RateLimitPerServer() float64 {
	return o.env.RateLimitPerServer
}

// FetchMaxElapsedTime returns how long failed fetches are retried. Zero
// disables retries.
func (o *Options) FetchMaxElapsedTime() time.Duration {
	return time.Duration(o.env.FetchMaxElapsedTime) * time.Second
}

func (o *Options) HasMetricsCollector() bool { return o.env.MetricsCollector }

func (o *Options) MetricsAllowedNetworks() []string {
	return o.env.MetricsAllowedNetworks
}

// FindHostLimits returns limits of hostname or of its closest parent domain,
// with defaults for unset values.
func (o *Options) FindHostLimits(hostname string) (found HostLimits) {
	for hostname != "" {
		if limits, ok := o.hostLimits[hostname]; ok {
			found = limits
			break
		}
		_, hostname, _ = strings.Cut(hostname, ".")
	}
	return found.withDefaults(o.ConnectionsPerServer(), o.RateLimitPerServer())
}

// SortedOptions returns options as a list of key value pairs, sorted by keys.
func (o *Options) SortedOptions(redactSecret bool) []Option {
	var clientProxyURL string
	if u := o.HTTPClientProxyURL(); u != nil {
		if redactSecret {
			clientProxyURL = u.Redacted()
		} else {
			clientProxyURL = u.String()
		}
	}

	databaseURL := o.DatabaseURL()
	if redactSecret {
		databaseURL = "<secret>"
	}

	keyValues := map[string]any{
		"CLEANUP_ARCHIVE_DAYS":         o.CleanupArchiveDays(),
		"CONNECTIONS_PER_SERVER":       o.ConnectionsPerServer(),
		"DATABASE_CONNECTION_LIFETIME": o.env.DatabaseConnectionLifetime,
		"DATABASE_MAX_CONNS":           o.DatabaseMaxConns(),
		"DATABASE_MIN_CONNS":           o.DatabaseMinConns(),
		"DATABASE_URL":                 databaseURL,
		"EXCERPT_LENGTH":               o.ExcerptLength(),
		"FEED_URLS":                    strings.Join(o.FeedURLs(), ","),
		"FETCH_MAX_ELAPSED_TIME":       o.env.FetchMaxElapsedTime,
		"HTTP_CLIENT_MAX_BODY_SIZE":    o.HTTPClientMaxBodySize(),
		"HTTP_CLIENT_PROXY":            clientProxyURL,
		"HTTP_CLIENT_TIMEOUT":          o.env.HttpClientTimeout,
		"HTTP_CLIENT_USER_AGENT":       o.HTTPClientUserAgent(),
		"HTTP_SERVER_TIMEOUT":          o.env.HttpServerTimeout,
		"ITEMS_LIMIT":                  o.ItemsLimit(),
		"LISTEN_ADDR":                  o.ListenAddr(),
		"LOG_DATE_TIME":                o.LogDateTime(),
		"LOG_FILE":                     o.LogFile(),
		"LOG_FORMAT":                   o.LogFormat(),
		"LOG_LEVEL":                    o.LogLevel(),
		"METRICS_ALLOWED_NETWORKS":     strings.Join(o.MetricsAllowedNetworks(), ","),
		"METRICS_COLLECTOR":            o.HasMetricsCollector(),
		"POLLING_FREQUENCY":            o.env.PollingFrequency,
		"RATE_LIMIT_PER_SERVER":        o.RateLimitPerServer(),
		"RUN_MIGRATIONS":               o.RunMigrations(),
		"WORKER_POOL_SIZE":             o.WorkerPoolSize(),
	}

	sortedKeys := slices.Sorted(maps.Keys(keyValues))
	sortedOptions := make([]Option, len(sortedKeys))
	for i, key := range sortedKeys {
		sortedOptions[i] = Option{Key: key, Value: keyValues[key]}
	}
	return sortedOptions
}

func (o *Options) String() string {
	var builder strings.Builder
	for _, option := range o.SortedOptions(false) {
		fmt.Fprintf(&builder, "%s=%v\n", option.Key, option.Value)
	}
	return builder.String()
}
