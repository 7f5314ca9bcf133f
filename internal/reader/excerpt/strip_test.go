// SPDX-FileCopyrightText: Copyright The Miniflux Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package excerpt

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestStripHTML(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "empty"},
		{
			name:  "plain text",
			input: "Nothing to see here.",
			want:  "Nothing to see here.",
		},
		{
			name:  "decoded angle bracket starts a tag",
			input: "Fish &amp; chips &lt;3 caf&#233; &#x2014; ok",
			want:  "Fish & chips ",
		},
		{
			name:  "named and numeric entities",
			input: "caf&eacute; &#8220;quoted&#8221; &copy;",
			want:  "café “quoted” ©",
		},
		{
			name:  "paragraph",
			input: "<p>Hello &amp; welcome</p>",
			want:  "Hello & welcome",
		},
		{
			name:  "line break",
			input: "a<br>b",
			want:  "a" + LineBreak + "b",
		},
		{
			name:  "self closing line break",
			input: "a<br/>b",
			want:  "a\nb",
		},
		{
			name:  "spaced line break",
			input: "a<br />b",
			want:  "a\nb",
		},
		{
			name:  "upper case line break",
			input: "a<BR>b<BR />c",
			want:  "a\nb\nc",
		},
		{
			name:  "mixed case line break",
			input: "a<Br/>b",
			want:  "a\nb",
		},
		{
			name:  "line break with trailing space",
			input: "a<br >b",
			want:  "a\nb",
		},
		{
			name:  "not a line break",
			input: "a<brx>b<br  />c<br class=x>d",
			want:  "abcd",
		},
		{
			name:  "line breaks separated by whitespace",
			input: "a<br>\n  <br/>b",
			want:  "a\n\nb",
		},
		{
			name:  "pretty printed list",
			input: "<ul>\n  <li>One</li>\n  <li>Two</li>\n</ul>\n",
			want:  "OneTwo\n",
		},
		{
			name:  "whitespace next to text is kept",
			input: "Hello <b>big</b> world",
			want:  "Hello big world",
		},
		{
			name:  "nbsp between tags",
			input: "<p>a</p>&nbsp;<p>b</p>",
			want:  "ab",
		},
		{
			name:  "escaped markup",
			input: "&lt;p&gt;Escaped &lt;b&gt;bold&lt;/b&gt;&lt;/p&gt;",
			want:  "Escaped bold",
		},
		{
			name:  "unterminated tag",
			input: "text <span unclosed",
			want:  "text ",
		},
		{
			name:  "unterminated tag across lines",
			input: "text <a href=\"x\"\nmore text",
			want:  "text ",
		},
		{
			name:  "lone angle bracket",
			input: "<",
			want:  "",
		},
		{
			name:  "stray closing bracket",
			input: "5 > 3",
			want:  "5 > 3",
		},
		{
			name:  "stray closing bracket before tag",
			input: "a >  <i>b</i>",
			want:  "a >b",
		},
		{
			name:  "only tags",
			input: "<div><span></span></div>",
			want:  "",
		},
		{
			name:  "only tags and breaks",
			input: "<div>\n<br>\n</div>",
			want:  "\n",
		},
		{
			name:  "empty tag",
			input: "a<>b",
			want:  "ab",
		},
		{
			name:  "unicode text",
			input: "<p>Привет,&nbsp;<em>мир</em></p>",
			want:  "Привет,\u00a0мир",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripHTML(tt.input))
		})
	}
}

func TestStripHTML_lineBreakVariants(t *testing.T) {
	want := StripHTML("a<br>b")
	for _, s := range []string{"a<br/>b", "a<br />b", "a<BR>b", "a<BR/>b"} {
		assert.Equal(t, want, StripHTML(s), s)
	}
}

func TestStripHTML_idempotent(t *testing.T) {
	tests := []string{
		"",
		"plain",
		"Two lines\nof text.",
		"Émoji 🇺🇸 and, punctuation!",
		"5 > 3",
	}

	for _, s := range tests {
		once := StripHTML(s)
		assert.Equal(t, once, StripHTML(once), s)
	}
}

func TestLineBreakTag(t *testing.T) {
	tests := []struct {
		tag  string
		want bool
	}{
		{tag: "br", want: true},
		{tag: "BR", want: true},
		{tag: "bR/", want: true},
		{tag: "br /", want: true},
		{tag: "br\t/", want: true},
		{tag: "br ", want: true},
		{tag: "br  /"},
		{tag: "br//"},
		{tag: "b"},
		{tag: "bra"},
		{tag: "/br"},
		{tag: ""},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			assert.Equal(t, tt.want, lineBreakTag(tt.tag))
		})
	}
}

func FuzzStripHTML(f *testing.F) {
	f.Add("<p>Hello &amp; welcome</p>")
	f.Add("a<br>b<BR />c")
	f.Add("text <span unclosed")
	f.Add("<ul>\n <li>x</li>\n</ul>")
	f.Add("&lt;b&gt;x&lt;/b")
	f.Add("> \u00a0 <")

	f.Fuzz(func(t *testing.T, raw string) {
		got := StripHTML(raw)
		if strings.Contains(got, "<") {
			t.Fatalf("tag syntax left in %q", got)
		}
		if utf8.ValidString(raw) && !utf8.ValidString(got) {
			t.Fatalf("invalid UTF-8 from valid input: %q", got)
		}
	})
}

func BenchmarkStripHTML(b *testing.B) {
	raw := strings.Repeat(
		"<p>Lorem ipsum <b>dolor</b> sit amet,&nbsp;consectetur.<br/>\n  </p>\n", 64)

	b.ReportAllocs()
	for b.Loop() {
		StripHTML(raw)
	}
}
