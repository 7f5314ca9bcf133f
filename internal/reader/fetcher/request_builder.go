// SPDX-FileCopyrightText: Copyright The Miniflux Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package fetcher // import "newsfeed.app/internal/reader/fetcher"

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/klauspost/compress/gzhttp"

	"newsfeed.app/internal/config"
	"newsfeed.app/internal/logging"
)

const defaultAcceptHeader = "application/rss+xml, application/atom+xml, application/rdf+xml, application/xml, text/xml;q=0.9, */*;q=0.8"

// Fetch downloads body of feed rawURL, using configured defaults.
func Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	return NewRequestBuilder().WithContext(ctx).Fetch(rawURL)
}

type RequestBuilder struct {
	ctx            context.Context
	headers        http.Header
	clientProxyURL *url.URL
	clientTimeout  time.Duration
	maxBodySize    int64
	maxElapsedTime time.Duration
	limits         *limitHosts

	customizedClient bool
}

func NewRequestBuilder() *RequestBuilder {
	r := &RequestBuilder{
		headers:        make(http.Header),
		clientProxyURL: config.Opts.HTTPClientProxyURL(),
		clientTimeout:  config.Opts.HTTPClientTimeout(),
		maxBodySize:    config.Opts.HTTPClientMaxBodySize(),
		maxElapsedTime: config.Opts.FetchMaxElapsedTime(),
		limits:         limitPerServer,
	}
	return r.WithUserAgent(config.Opts.HTTPClientUserAgent())
}

func (r *RequestBuilder) WithContext(ctx context.Context) *RequestBuilder {
	r.ctx = ctx
	return r
}

func (r *RequestBuilder) Context() context.Context {
	if r.ctx != nil {
		return r.ctx
	}
	return context.Background()
}

func (r *RequestBuilder) WithHeader(key, value string) *RequestBuilder {
	r.headers.Set(key, value)
	return r
}

func (r *RequestBuilder) WithUserAgent(userAgent string) *RequestBuilder {
	if userAgent != "" {
		r.headers.Set("User-Agent", userAgent)
	}
	return r
}

// WithProxyURL makes requests through proxyURL instead of
// HTTP_CLIENT_PROXY.
func (r *RequestBuilder) WithProxyURL(proxyURL *url.URL) *RequestBuilder {
	r.clientProxyURL = proxyURL
	r.customizedClient = true
	return r
}

func (r *RequestBuilder) WithTimeout(d time.Duration) *RequestBuilder {
	r.clientTimeout = d
	r.customizedClient = true
	return r
}

// WithMaxElapsedTime sets how long failed requests are retried. Zero disables
// retries.
func (r *RequestBuilder) WithMaxElapsedTime(d time.Duration) *RequestBuilder {
	r.maxElapsedTime = d
	return r
}

func (r *RequestBuilder) WithMaxBodySize(n int64) *RequestBuilder {
	r.maxBodySize = n
	return r
}

func (r *RequestBuilder) Timeout() time.Duration { return r.clientTimeout }

// Request makes one GET request of requestURL, respecting connection and rate
// limits of its host. The returned handler must be closed.
func (r *RequestBuilder) Request(requestURL string) (*ResponseHandler, error) {
	u, err := url.Parse(requestURL)
	if err != nil {
		return nil, fmt.Errorf("reader/fetcher: parse %q: %w", requestURL, err)
	}

	ctx := r.Context()
	release, err := r.limits.Acquire(ctx, u.Hostname())
	if err != nil {
		return nil, err
	}

	//nolint:bodyclose // ResponseHandler.Close() it
	resp, err := r.execute(requestURL)
	h := NewResponseHandler(resp, err).WithMaxBodySize(r.maxBodySize)
	h.release = release
	return h, nil
}

func (r *RequestBuilder) execute(requestURL string) (*http.Response, error) {
	req, err := r.req(requestURL)
	if err != nil {
		return nil, err
	}

	log := logging.FromContext(r.Context())
	log.Debug("Making outgoing request",
		slog.Bool("customized", r.customizedClient),
		slog.String("method", req.Method),
		slog.String("url", req.URL.String()),
		slog.Any("headers", req.Header))

	start := time.Now()
	resp, err := r.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("reader/fetcher: do http request: %w", err)
	}

	log.Debug("Got response",
		slog.Int("status_code", resp.StatusCode),
		slog.String("status", resp.Status),
		slog.Int64("content_length", resp.ContentLength),
		slog.String("proto", resp.Proto),
		slog.Duration("request_time", time.Since(start)))
	return resp, nil
}

var (
	defaultClient *http.Client
	onceClient    sync.Once
)

func (r *RequestBuilder) client() *http.Client {
	if r.customizedClient {
		return r.makeClient()
	}
	onceClient.Do(func() { defaultClient = r.makeClient() })
	return defaultClient
}

func (r *RequestBuilder) makeClient() *http.Client {
	return &http.Client{Transport: r.transport(), Timeout: r.Timeout()}
}

func (r *RequestBuilder) transport() http.RoundTripper {
	dialer := &net.Dialer{Timeout: r.Timeout()}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		TLSHandshakeTimeout:   r.Timeout(),
		DisableKeepAlives:     r.customizedClient,
		IdleConnTimeout:       10 * time.Second,
		ResponseHeaderTimeout: r.Timeout(),

		// Setting `DialContext` disables HTTP/2, this option forces the transport
		// to try HTTP/2 regardless.
		ForceAttemptHTTP2: true,
	}

	if r.clientProxyURL != nil {
		transport.Proxy = http.ProxyURL(r.clientProxyURL)
	}
	return gzhttp.Transport(transport)
}

func (r *RequestBuilder) req(requestURL string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet,
		requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("reader/fetcher: create http request: %w", err)
	}

	req.Header = r.headers.Clone()
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", defaultAcceptHeader)
	}
	return req, nil
}
