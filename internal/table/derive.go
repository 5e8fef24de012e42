package table

import (
	"fmt"

	"golang.org/x/text/encoding/charmap"
)

// MaxDepth bounds Corrupt; every round grows the text about 2x.
const MaxDepth = 4

// DefaultDepths are the corruption depths the built-in table covers, deepest first.
// Depth 2 is what editors that re-save a mis-decoded file leave behind.
var DefaultDepths = []int{2, 1}

// DefaultEmoji is the emoji set the built-in table repairs.
var DefaultEmoji = []string{
	"\U0001F4C5",       // calendar
	"\U0001F4E2",       // loudspeaker
	"\U0001F465",       // busts in silhouette
	"\U0001F4B3",       // credit card
	"\U0001F44B",       // waving hand
	"\U0001F4E7",       // e-mail
	"\U0001F333",       // deciduous tree
	"\U0001F4B0",       // money bag
	"\U0001F511",       // key
	"\U0001F3C6",       // trophy
	"\U0001F4CB",       // clipboard
	"\U0001F3E2",       // office building
	"\U0001F4CA",       // bar chart
	"\U0001F3AF",       // direct hit
	"\U0001F4C8",       // chart increasing
	"\U0001F3AC",       // clapper board
	"\U0001F4C4",       // page facing up
	"\U0001F4A1",       // light bulb
	"\u2728",           // sparkles
	"\U0001F381",       // wrapped gift
	"\U0001F3F7\uFE0F", // label
	"\U0001F3A5",       // movie camera
	"\U0001F550",       // one o'clock
	"\U0001F30D",       // globe Europe-Africa
}

// Corrupt returns s after depth rounds of "take the UTF-8 bytes, read them as Windows-1252".
// Depth 0 returns s unchanged.
func Corrupt(s string, depth int) (string, error) {
	if depth < 0 || depth > MaxDepth {
		return "", fmt.Errorf("corruption depth %d out of range [0,%d]", depth, MaxDepth)
	}
	dec := charmap.Windows1252.NewDecoder()
	for i := 0; i < depth; i++ {
		out, err := dec.String(s)
		if err != nil {
			return "", fmt.Errorf("windows-1252 decode at depth %d: %w", i+1, err)
		}
		s = out
	}
	return s, nil
}

// Derive builds a table with one entry per (correct, depth) pair.
// Entries are grouped by emoji and ordered by depths as given.
func Derive(correct []string, depths ...int) (*Table, error) {
	if len(depths) == 0 {
		depths = DefaultDepths
	}
	entries := make([]Entry, 0, len(correct)*len(depths))
	for _, c := range correct {
		for _, d := range depths {
			if d < 1 {
				return nil, fmt.Errorf("derive %q: depth must be at least 1, got %d", c, d)
			}
			bad, err := Corrupt(c, d)
			if err != nil {
				return nil, fmt.Errorf("derive %q: %w", c, err)
			}
			entries = append(entries, Entry{Corrupted: bad, Correct: c})
		}
	}
	return New(entries...)
}

var defaultTable = func() *Table {
	t, err := Derive(DefaultEmoji, DefaultDepths...)
	if err != nil {
		panic(fmt.Sprintf("built-in replacement table: %v", err))
	}
	return t
}()

// Default returns the built-in replacement table.
func Default() *Table { return defaultTable }
