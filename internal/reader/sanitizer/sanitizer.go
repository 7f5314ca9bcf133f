// SPDX-FileCopyrightText: Copyright The Miniflux Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package sanitizer // import "newsfeed.app/internal/reader/sanitizer"

import (
	"net/url"
	"strings"

	"github.com/dsh2dsh/bluemonday/v2"
	"golang.org/x/net/html"
)

var titlePolicy = bluemonday.StrictPolicy()

// StripTags removes all HTML from s, decodes entities and collapses
// whitespace into single spaces. It's for short one-line strings, like
// titles.
func StripTags(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	s = html.UnescapeString(titlePolicy.Sanitize(s))
	return strings.Join(strings.Fields(s), " ")
}

// CleanURL resolves rawURL against base, if it's relative, and strips
// tracking parameters from it. It returns an empty string for invalid URLs and
// for anything except http and https.
func CleanURL(rawURL string, base *url.URL) string {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return ""
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	} else if !u.IsAbs() {
		if base == nil {
			return ""
		}
		u = base.ResolveReference(u)
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return ""
	}

	refHostnames := []string{u.Hostname()}
	if base != nil {
		refHostnames = append(refHostnames, base.Hostname())
	}
	StripTracking(u, refHostnames...)
	return u.String()
}
