// SPDX-FileCopyrightText: Copyright The Miniflux Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package client // import "newsfeed.app/internal/client"

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	userAgent      = "Newsfeed Client Library"
	defaultTimeout = 80 * time.Second
)

var (
	ErrNotFound    = errors.New("newsfeed: resource not found")
	ErrServerError = errors.New("newsfeed: internal server error")
	ErrBadRequest  = errors.New("newsfeed: bad request")
)

type request struct {
	endpoint string
	client   *http.Client
}

func (r *request) Get(ctx context.Context, path string) (io.ReadCloser, error) {
	return r.execute(ctx, http.MethodGet, path, "", nil)
}

func (r *request) Post(ctx context.Context, path, contentType string,
	body io.Reader,
) (io.ReadCloser, error) {
	return r.execute(ctx, http.MethodPost, path, contentType, body)
}

func (r *request) execute(ctx context.Context, method, path,
	contentType string, body io.Reader,
) (io.ReadCloser, error) {
	if r.endpoint == "" {
		return nil, errors.New("newsfeed: empty endpoint")
	} else if strings.HasSuffix(r.endpoint, "/") {
		r.endpoint = r.endpoint[:len(r.endpoint)-1]
	}

	u, err := url.Parse(r.endpoint + path)
	if err != nil {
		return nil, fmt.Errorf("newsfeed: parse %q: %w", r.endpoint+path, err)
	} else if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("newsfeed: invalid endpoint %q", r.endpoint)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("newsfeed: create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("newsfeed: %s %s: %w", method, u, err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return resp.Body, nil
	case http.StatusNotFound:
		resp.Body.Close()
		return nil, ErrNotFound
	case http.StatusBadRequest:
		defer resp.Body.Close()
		return nil, withMessage(ErrBadRequest, resp.Body)
	case http.StatusInternalServerError:
		defer resp.Body.Close()
		return nil, withMessage(ErrServerError, resp.Body)
	}
	resp.Body.Close()
	return nil, fmt.Errorf("newsfeed: unexpected status code %d",
		resp.StatusCode)
}

func withMessage(err error, body io.Reader) error {
	var resp errorResponse
	if json.NewDecoder(body).Decode(&resp) != nil || resp.ErrorMessage == "" {
		return err
	}
	return fmt.Errorf("%w: %s", err, resp.ErrorMessage)
}
