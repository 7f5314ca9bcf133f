// SPDX-FileCopyrightText: Copyright The Miniflux Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

/*
Package excerpt flattens feed supplied markup into plain text and cuts it down
to a bounded, sentence aware excerpt.

Flattening is not sanitizing: the output is meant for plain text displays and
must never be rendered as HTML.

	s := excerpt.Excerpt(`<p>Hello &amp; welcome.<br/>Bye</p>`, 200)
	// "Hello & welcome.\nBye"

All functions are pure and safe for concurrent use.
*/
package excerpt // import "newsfeed.app/internal/reader/excerpt"
