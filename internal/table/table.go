package table

import (
	"fmt"
	"strings"
)

// Entry maps one corrupted sequence to the text it should have been.
type Entry struct {
	Corrupted string `json:"corrupted" mapstructure:"corrupted"`
	Correct   string `json:"correct" mapstructure:"correct"`
}

// Table is an ordered, immutable list of replacements.
// Order matters: entries are applied first to last.
type Table struct {
	entries []Entry
}

// New builds a table from entries, keeping their order.
func New(entries ...Entry) (*Table, error) {
	seen := make(map[string]int, len(entries))
	out := make([]Entry, 0, len(entries))
	for i, e := range entries {
		if e.Corrupted == "" {
			return nil, fmt.Errorf("entry %d: corrupted sequence is empty", i)
		}
		if prev, ok := seen[e.Corrupted]; ok {
			return nil, fmt.Errorf("entry %d: corrupted sequence %q duplicates entry %d", i, e.Corrupted, prev)
		}
		seen[e.Corrupted] = i
		out = append(out, e)
	}
	return &Table{entries: out}, nil
}

// MustNew is New for tables known to be valid at compile time.
func MustNew(entries ...Entry) *Table {
	t, err := New(entries...)
	if err != nil {
		panic(err)
	}
	return t
}

// Entries returns a copy of the entries in application order.
func (t *Table) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Len returns the number of entries.
func (t *Table) Len() int { return len(t.entries) }

// Concat returns a table holding t's entries followed by other's.
// Keys of other already present in t are dropped, so t wins.
func (t *Table) Concat(other *Table) *Table {
	seen := make(map[string]struct{}, len(t.entries))
	out := make([]Entry, 0, len(t.entries)+len(other.entries))
	for _, e := range t.entries {
		seen[e.Corrupted] = struct{}{}
		out = append(out, e)
	}
	for _, e := range other.entries {
		if _, dup := seen[e.Corrupted]; dup {
			continue
		}
		out = append(out, e)
	}
	return &Table{entries: out}
}

// OverlapKind says how two entries interfere.
type OverlapKind string

const (
	// KeyInKey: the earlier key is a substring of a later key, so the later one can be shadowed.
	KeyInKey OverlapKind = "key_in_key"
	// KeyInReplacement: a key appears inside another entry's replacement text.
	KeyInReplacement OverlapKind = "key_in_replacement"
)

// Overlap describes a pair of entries whose order affects the output.
type Overlap struct {
	Kind  OverlapKind
	Inner Entry
	Outer Entry
}

func (o Overlap) String() string {
	switch o.Kind {
	case KeyInKey:
		return fmt.Sprintf("key %q is contained in key %q", o.Inner.Corrupted, o.Outer.Corrupted)
	default:
		return fmt.Sprintf("key %q is contained in replacement %q of key %q", o.Inner.Corrupted, o.Outer.Correct, o.Outer.Corrupted)
	}
}

// Overlaps lists entry pairs that make the result depend on table order.
func (t *Table) Overlaps() []Overlap {
	var out []Overlap
	for i, a := range t.entries {
		for j, b := range t.entries {
			if i == j {
				continue
			}
			if strings.Contains(b.Corrupted, a.Corrupted) {
				out = append(out, Overlap{Kind: KeyInKey, Inner: a, Outer: b})
			}
			if strings.Contains(b.Correct, a.Corrupted) {
				out = append(out, Overlap{Kind: KeyInReplacement, Inner: a, Outer: b})
			}
		}
	}
	return out
}
