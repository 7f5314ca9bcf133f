// SPDX-FileCopyrightText: Copyright The Miniflux Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package sanitizer // import "newsfeed.app/internal/reader/sanitizer"

import (
	"net/url"
	"slices"
	"strings"
)

var (
	// See also:
	// https://raw.githubusercontent.com/AdguardTeam/AdguardFilters/master/TrackParamFilter/sections/general_url.txt
	// https://firefox.settings.services.mozilla.com/v1/buckets/main/collections/query-stripping/records
	tracking = newSet(
		// Facebook
		"fbclid", "_openstat", "fb_action_ids", "fb_action_types", "fb_ref",
		"fb_source", "fb_comment_id",
		// Google
		"gclid", "dclid", "gbraid", "wbraid", "gclsrc", "srsltid",
		"campaign_id", "campaign_medium", "campaign_name", "campaign_source",
		"campaign_term", "campaign_content",
		"itm_campaign", "itm_medium", "itm_source",
		// Yandex
		"yclid", "ysclid",
		// Microsoft, Twitter
		"msclkid", "twclid",
		// Mailchimp
		"mc_cid", "mc_eid", "mc_tc",
		// Hubspot
		"hsa_cam", "_hsenc", "__hssc", "__hstc", "__hsfp", "_hsmi",
		"hsctatracking",
		// Email marketing
		"mkt_tok", "sc_cid", "vero_id", "vero_conv", "_bhlid",
		"_branch_match_id", "_branch_referrer",
	)

	// Parameters, which append url of the referring site to outbound links.
	trackingRef = newSet("ref")

	trackingPrefixes = []string{"utm_", "mtm_"}
)

func newSet(items ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(items))
	for _, s := range items {
		m[s] = struct{}{}
	}
	return m
}

// StripTracking removes tracking query parameters from u and returns true if
// it removed something. Parameters like ref are removed only when their value
// is one of refHostnames.
func StripTracking(u *url.URL, refHostnames ...string) bool {
	if u.RawQuery == "" {
		return false
	}

	var hasTrackers bool
	query := u.Query()

	for param, values := range query {
		key := strings.ToLower(param)
		if trackingParam(key) {
			query.Del(param)
			hasTrackers = true
			continue
		}

		if _, ok := trackingRef[key]; !ok {
			continue
		}
		if slices.ContainsFunc(values, func(ref string) bool {
			return ref != "" && slices.Contains(refHostnames, ref)
		}) {
			query.Del(param)
			hasTrackers = true
		}
	}

	if hasTrackers {
		u.RawQuery = query.Encode()
	}
	return hasTrackers
}

func trackingParam(key string) bool {
	if _, ok := tracking[key]; ok {
		return true
	}
	return slices.ContainsFunc(trackingPrefixes, func(prefix string) bool {
		return strings.HasPrefix(key, prefix)
	})
}
