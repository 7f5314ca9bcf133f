// SPDX-FileCopyrightText: Copyright The Miniflux Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package parser // import "newsfeed.app/internal/reader/parser"

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"newsfeed.app/internal/model"
)

var ErrFeedFormatNotDetected = errors.New("reader/parser: unable to detect feed format")

type Format int

const (
	FormatUnknown Format = iota
	FormatRSS
	FormatAtom
)

func (self Format) String() string {
	switch self {
	case FormatRSS:
		return "rss"
	case FormatAtom:
		return "atom"
	}
	return "unknown"
}

// ParseBytes parses feed document b, downloaded from feedURL, and returns a
// normalized feed. Entries without publish date get current time.
func ParseBytes(feedURL string, b []byte) (*model.Feed, error) {
	return parseBytes(feedURL, b, time.Now())
}

func parseBytes(feedURL string, b []byte, now time.Time) (*model.Feed, error) {
	baseURL, err := url.Parse(feedURL)
	if err != nil {
		return nil, fmt.Errorf("reader/parser: parse feed url %q: %w",
			feedURL, err)
	}

	switch DetectFeedFormat(b) {
	case FormatRSS:
		return parseRSS(baseURL, b, now)
	case FormatAtom:
		return parseAtom(baseURL, b, now)
	}
	return nil, ErrFeedFormatNotDetected
}

// DetectFeedFormat returns format of feed document b by name of its root
// element: rss and RDF are RSS, feed is Atom.
func DetectFeedFormat(b []byte) Format {
	d := xml.NewDecoder(bytes.NewReader(b))
	d.Strict = false
	d.CharsetReader = func(_ string, input io.Reader) (io.Reader, error) {
		// Element names are ASCII in every encoding feeds use.
		return input, nil
	}

	for {
		token, err := d.Token()
		if err != nil {
			return FormatUnknown
		}

		if el, ok := token.(xml.StartElement); ok {
			switch strings.ToLower(el.Name.Local) {
			case "rss", "rdf":
				return FormatRSS
			case "feed":
				return FormatAtom
			}
			return FormatUnknown
		}
	}
}

func absURL(u *url.URL) *url.URL {
	if u == nil || !u.IsAbs() {
		return nil
	}
	return u
}

// resolveURL returns rawURL resolved against base, or nil, if result isn't an
// absolute URL.
func resolveURL(base *url.URL, rawURL string) *url.URL {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	switch {
	case err != nil:
		return nil
	case u.IsAbs():
		return u
	case base == nil:
		return nil
	}
	return absURL(base.ResolveReference(u))
}
