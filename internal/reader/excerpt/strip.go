// SPDX-FileCopyrightText: Copyright The Miniflux Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package excerpt // import "newsfeed.app/internal/reader/excerpt"

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// LineBreak replaces every line-break tag of the input.
const LineBreak = "\n"

// StripHTML converts raw markup into flat text. It decodes HTML entities,
// drops whitespace between adjacent tags, turns <br> variants into LineBreak
// and removes all other tags, including an unterminated tag at the end of
// input. Text without markup comes back with only its entities decoded.
func StripHTML(raw string) string {
	s := html.UnescapeString(raw)
	if strings.IndexByte(s, '<') < 0 {
		return s
	}

	scan := newScanner(s)
	return scan.Flatten()
}

type scanState int

const (
	stateText scanState = iota
	stateTag
)

type scanner struct {
	s     string
	b     strings.Builder
	pos   int
	tag   int
	state scanState
}

func newScanner(s string) *scanner {
	self := &scanner{s: s}
	self.b.Grow(len(s))
	return self
}

// Flatten runs the scanner over the whole input. Every byte is visited at most
// twice: once by the whitespace lookahead after '>' and once by the text
// state.
func (self *scanner) Flatten() string {
	for self.pos < len(self.s) {
		switch self.state {
		case stateText:
			self.text()
		case stateTag:
			self.closeTag()
		}
	}
	return self.b.String()
}

func (self *scanner) text() {
	rest := self.s[self.pos:]
	i := strings.IndexAny(rest, "<>")
	if i < 0 {
		self.b.WriteString(rest)
		self.pos = len(self.s)
		return
	}

	if rest[i] == '<' {
		self.b.WriteString(rest[:i])
		self.tag = self.pos + i
		self.pos = self.tag + 1
		self.state = stateTag
		return
	}

	// A stray '>' in text counts as a tag close for whitespace collapsing.
	self.b.WriteString(rest[:i+1])
	self.pos = self.skipSpaceBeforeTag(self.pos + i + 1)
}

func (self *scanner) closeTag() {
	i := strings.IndexByte(self.s[self.pos:], '>')
	if i < 0 {
		// Unterminated tag swallows the rest of input.
		self.pos = len(self.s)
		return
	}

	end := self.pos + i
	if lineBreakTag(self.s[self.tag+1 : end]) {
		self.b.WriteString(LineBreak)
	}
	self.pos = self.skipSpaceBeforeTag(end + 1)
	self.state = stateText
}

// skipSpaceBeforeTag returns the position of the next '<' if only whitespace
// separates it from i, otherwise i itself.
func (self *scanner) skipSpaceBeforeTag(i int) int {
	j := i
	for j < len(self.s) {
		r, size := utf8.DecodeRuneInString(self.s[j:])
		if !unicode.IsSpace(r) {
			break
		}
		j += size
	}

	if j > i && j < len(self.s) && self.s[j] == '<' {
		return j
	}
	return i
}

// lineBreakTag reports whether the content between '<' and '>' is one of br,
// br/, br /, br followed by a single whitespace, in any letter case.
func lineBreakTag(tag string) bool {
	if len(tag) < 2 || !strings.EqualFold(tag[:2], "br") {
		return false
	}

	rest := tag[2:]
	if r, size := utf8.DecodeRuneInString(rest); size > 0 && unicode.IsSpace(r) {
		rest = rest[size:]
	}
	return rest == "" || rest == "/"
}
