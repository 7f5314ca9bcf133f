// SPDX-FileCopyrightText: Copyright The Miniflux Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package model // import "newsfeed.app/internal/model"

import (
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Feed represents a parsed feed document.
type Feed struct {
	FeedURL string   `json:"feed_url"`
	SiteURL string   `json:"site_url"`
	Title   string   `json:"title"`
	Entries []*Entry `json:"entries"`
}

// Entry is a feed entry as it was parsed, before its description became an
// excerpt.
type Entry struct {
	Hash        string    `json:"hash"`
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Description string    `json:"description"`
	Date        time.Time `json:"published_at"`
}

// HashFrom sets hash of the entry from given string, which must identify the
// entry, like its URL or GUID.
func (self *Entry) HashFrom(s string) *Entry {
	self.Hash = HashFromString(s)
	return self
}

// HashFromString returns xxhash of s in hex.
func HashFromString(s string) string {
	return strconv.FormatUint(xxhash.Sum64String(s), 16)
}
