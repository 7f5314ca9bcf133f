// SPDX-FileCopyrightText: Copyright The Miniflux Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package parser // import "newsfeed.app/internal/reader/parser"

import (
	"bytes"
	"fmt"
	"net/url"
	"time"

	"github.com/dsh2dsh/gofeed/v2/options"
	"github.com/dsh2dsh/gofeed/v2/rss"

	"newsfeed.app/internal/model"
	"newsfeed.app/internal/reader/sanitizer"
)

type rssFeed struct {
	baseURL *url.URL
	rss     *rss.Feed
	now     time.Time

	siteURL *url.URL
}

func parseRSS(feedURL *url.URL, b []byte, now time.Time) (*model.Feed, error) {
	parsed, err := rss.NewParser().Parse(bytes.NewReader(b),
		options.WithSkipUnknownElements(true))
	if err != nil {
		return nil, fmt.Errorf("reader/parser: parse RSS feed: %w", err)
	}

	p := rssFeed{baseURL: feedURL, rss: parsed, now: now}
	return p.Feed(), nil
}

func (self *rssFeed) Feed() *model.Feed {
	self.siteURL = resolveURL(absURL(self.baseURL), self.rss.Link())
	if self.siteURL == nil {
		self.siteURL = absURL(self.baseURL)
	}

	feed := &model.Feed{
		FeedURL: self.baseURL.String(),
		Title:   sanitizer.StripTags(self.rss.GetTitle()),
	}
	if self.siteURL != nil {
		feed.SiteURL = self.siteURL.String()
	}

	if len(self.rss.Items) != 0 {
		feed.Entries = make([]*model.Entry, len(self.rss.Items))
		for i, item := range self.rss.Items {
			feed.Entries[i] = self.entry(item)
		}
	}
	return feed
}

func (self *rssFeed) entry(item *rss.Item) *model.Entry {
	b := entryBuilder{
		siteURL:     self.siteURL,
		now:         self.now,
		title:       item.GetTitle(),
		link:        item.Link(),
		// content:encoded when present, description otherwise. Excerpts of
		// full articles differ from excerpts of the short description.
		description: item.GetContent(),
		published:   item.GetPublishedParsed(),
	}
	if item.GUID != nil {
		b.id = item.GUID.Value
	}
	return b.Entry()
}
