// Package repair applies a replacement table to file content.
package repair

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/haytac/emojifix/internal/table"
)

// Result is the outcome of repairing one piece of content.
type Result struct {
	Content      string
	Changed      bool
	Lenient      bool           // invalid UTF-8 was replaced with U+FFFD while decoding
	Replacements int            // total occurrences replaced across all entries
	Hits         map[string]int // corrupted sequence -> occurrences replaced
}

// Decode reads raw as UTF-8, substituting U+FFFD for invalid byte sequences.
// The second result reports whether any substitution happened.
func Decode(raw []byte) (string, bool) {
	if utf8.Valid(raw) {
		return string(raw), false
	}
	out, _, err := transform.Bytes(unicode.UTF8.NewDecoder(), raw)
	if err != nil {
		// The UTF-8 decoder never fails on bad input; this is the fallback if that changes.
		return strings.ToValidUTF8(string(raw), string(utf8.RuneError)), true
	}
	return string(out), true
}

// Apply replaces every occurrence of each corrupted sequence, entry by entry in table order.
// Matching is literal, leftmost-first and non-overlapping per entry. An earlier entry
// consumes characters before a later entry gets to see them.
func Apply(content string, t *table.Table) Result {
	res := Result{Content: content}
	for _, e := range t.Entries() {
		n := strings.Count(res.Content, e.Corrupted)
		if n == 0 {
			continue
		}
		res.Content = strings.ReplaceAll(res.Content, e.Corrupted, e.Correct)
		res.Replacements += n
		if res.Hits == nil {
			res.Hits = make(map[string]int)
		}
		res.Hits[e.Corrupted] += n
	}
	res.Changed = res.Replacements > 0
	return res
}

// Repair decodes raw leniently and applies t.
func Repair(raw []byte, t *table.Table) Result {
	text, lenient := Decode(raw)
	res := Apply(text, t)
	res.Lenient = lenient
	return res
}
