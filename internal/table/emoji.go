package table

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kyokomi/emoji/v2"
)

// ResolveEmoji turns a ":shortcode:" into its emoji. Other strings are returned as is.
func ResolveEmoji(s string) (string, error) {
	if !isShortcode(s) {
		return s, nil
	}
	if e, ok := emoji.CodeMap()[s]; ok {
		return e, nil
	}
	return "", fmt.Errorf("unknown emoji shortcode %s", s)
}

// Shortcode returns the first alias kyokomi/emoji knows for e, or "".
func Shortcode(e string) string {
	codes := emoji.RevCodeMap()[e]
	if len(codes) == 0 {
		return ""
	}
	sorted := append([]string(nil), codes...)
	sort.Strings(sorted)
	return sorted[0]
}

func isShortcode(s string) bool {
	return len(s) > 2 && strings.HasPrefix(s, ":") && strings.HasSuffix(s, ":") && !strings.ContainsAny(s, " \t\n")
}
