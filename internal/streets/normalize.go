// Package streets resolves a street address read off a sign to its Bezirk.
//
// Resolution is pure: the same street, number and lookup table always
// produce the same Result. Dedicated street rules are evaluated first in
// table order, then the optional lookup table, then the unknown label.
package streets

import (
	"regexp"
	"strings"
)

// whitespaceRun matches what browsers treat as \s, which is wider than RE2's
// ASCII-only class (vertical tab, NBSP, the Unicode space separators, BOM).
var whitespaceRun = regexp.MustCompile(`[\t\n\v\f\r \x{00a0}\x{1680}\x{2000}-\x{200a}\x{2028}\x{2029}\x{202f}\x{205f}\x{3000}\x{feff}]+`)

var hyphenRun = regexp.MustCompile(`-+`)

// NormalizeStreetName turns a street name into the key used for rule
// markers and lookup-table entries.
//
// Both replacements are literal and touch only the first occurrence, so
// "Gereonstr." becomes "gereonstr.." and "Strandweg" becomes "str.andweg".
// Lookup keys are produced by this same function, which keeps them
// consistent with whatever the model returns.
func NormalizeStreetName(name string) string {
	key := strings.ToLower(name)
	key = strings.Replace(key, "straße", "str.", 1)
	key = strings.Replace(key, "str", "str.", 1)
	key = whitespaceRun.ReplaceAllString(key, "-")
	return hyphenRun.ReplaceAllString(key, "-")
}
