// SPDX-FileCopyrightText: Copyright The Miniflux Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package excerpt // import "newsfeed.app/internal/reader/excerpt"

import (
	"strings"
	"unicode/utf8"

	"github.com/rivo/uniseg"
)

const (
	// Ellipsis is appended to excerpts cut anywhere but after a terminator.
	Ellipsis = "..."

	// Terminators are punctuation marks an excerpt prefers to end on.
	Terminators = ".,;:?!"
)

// Cut tells how Truncate shortened its input.
type Cut int

const (
	CutNone       Cut = iota // text already fits
	CutTerminator            // kept through the last terminator
	CutWord                  // cut before the last space, plus Ellipsis
	CutHard                  // no terminator or space in range, plus Ellipsis
)

func (self Cut) String() string {
	switch self {
	case CutNone:
		return "none"
	case CutTerminator:
		return "terminator"
	case CutWord:
		return "word"
	case CutHard:
		return "hard"
	}
	return "unknown"
}

// TruncatePlainText bounds flat text to maxLength runes, see Truncate. It
// doesn't strip markup, call StripHTML first.
func TruncatePlainText(text string, maxLength int) string {
	s, _ := Truncate(text, maxLength)
	return s
}

// Truncate returns text unchanged if it has no more than maxLength runes.
// Otherwise it looks at rune positions 0 to maxLength inclusive and keeps
// everything through the last terminator. Without a terminator in range it
// cuts before the last space and appends Ellipsis. Without a space either it
// keeps as many whole grapheme clusters as fit in maxLength runes and appends
// Ellipsis. The result never exceeds maxLength+3 runes and never splits a
// grapheme cluster.
//
// Truncate panics if maxLength is negative.
func Truncate(text string, maxLength int) (string, Cut) {
	if maxLength < 0 {
		panic("excerpt: negative max length")
	}

	if utf8.RuneCountInString(text) <= maxLength {
		return text, CutNone
	}

	terminator, space, hard := -1, -1, 0
	runes, state := 0, -1
	for rest := text; rest != "" && runes <= maxLength; {
		var cluster string
		cluster, rest, _, state = uniseg.FirstGraphemeClusterInString(rest, state)
		offset := len(text) - len(rest) - len(cluster)

		switch {
		case cluster == " ":
			space = offset
		case len(cluster) == 1 && strings.IndexByte(Terminators, cluster[0]) >= 0:
			terminator = offset + 1
		}

		runes += utf8.RuneCountInString(cluster)
		if runes <= maxLength {
			hard = offset + len(cluster)
		}
	}

	switch {
	case terminator > 0:
		return text[:terminator], CutTerminator
	case space >= 0:
		return text[:space] + Ellipsis, CutWord
	}
	return text[:hard] + Ellipsis, CutHard
}

// Excerpt flattens raw markup with StripHTML and bounds the result with
// TruncatePlainText.
func Excerpt(raw string, maxLength int) string {
	return TruncatePlainText(StripHTML(raw), maxLength)
}
