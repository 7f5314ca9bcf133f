// SPDX-FileCopyrightText: Copyright The Miniflux Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package client // import "newsfeed.app/internal/client"

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Client holds API procedure calls.
type Client struct {
	request *request
}

// NewClient returns a new API client for the server at endpoint, like
// "http://127.0.0.1:8080".
func NewClient(endpoint string) *Client {
	return &Client{request: &request{
		endpoint: endpoint,
		client:   &http.Client{Timeout: defaultTimeout},
	}}
}

// Healthcheck checks if the server is up and its database is reachable.
func (c *Client) Healthcheck(ctx context.Context) error {
	body, err := c.request.Get(ctx, "/healthcheck")
	if err != nil {
		return err
	}
	defer body.Close()

	b, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("newsfeed: unable to read healthcheck response: %w", err)
	} else if string(b) != "OK" {
		return fmt.Errorf("newsfeed: invalid healthcheck response: %q", b)
	}
	return nil
}

// Version returns the version of the server.
func (c *Client) Version(ctx context.Context) (*VersionResponse, error) {
	var v VersionResponse
	if err := c.get(ctx, "/v1/version", &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// Items returns up to limit stored items, newest first. Zero limit means
// server's default.
func (c *Client) Items(ctx context.Context, limit int) (*ItemsResponse, error) {
	path := "/v1/items"
	if limit > 0 {
		path += "?" + url.Values{"limit": {strconv.Itoa(limit)}}.Encode()
	}

	var items ItemsResponse
	if err := c.get(ctx, path, &items); err != nil {
		return nil, err
	}
	return &items, nil
}

// Excerpt asks server to make plain text excerpt of markup, no longer than
// length characters. Negative length means server's default.
func (c *Client) Excerpt(ctx context.Context, markup string, length int,
) (*Excerpt, error) {
	path := "/v1/excerpt"
	if length >= 0 {
		path += "?" + url.Values{"length": {strconv.Itoa(length)}}.Encode()
	}

	body, err := c.request.Post(ctx, path, "text/html; charset=utf-8",
		strings.NewReader(markup))
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var e Excerpt
	if err := json.NewDecoder(body).Decode(&e); err != nil {
		return nil, fmt.Errorf("newsfeed: response error (%w)", err)
	}
	return &e, nil
}

func (c *Client) get(ctx context.Context, path string, v any) error {
	body, err := c.request.Get(ctx, path)
	if err != nil {
		return err
	}
	defer body.Close()

	if err := json.NewDecoder(body).Decode(v); err != nil {
		return fmt.Errorf("newsfeed: response error (%w)", err)
	}
	return nil
}
