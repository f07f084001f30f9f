// Package strings provides string manipulation utilities.
package strings

import (
	"strings"
	"unicode"
)

// TrimStrings trims each referenced string in place.
func TrimStrings(ss ...*string) {
	for _, s := range ss {
		*s = strings.TrimSpace(*s)
	}
}

// CollapseSpaces trims s and reduces internal whitespace runs to a single space.
func CollapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// NameKey folds an entity name into the form used for uniqueness comparisons:
// lowercased, whitespace collapsed.
//
//	NameKey("  Acme   Holdings ") // "acme holdings"
func NameKey(name string) string {
	return strings.ToLower(CollapseSpaces(name))
}

// ToSnakeCase converts a Go field name to snake_case: "LegalType" -> "legal_type".
func ToSnakeCase(s string) string {
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		if unicode.IsUpper(r) && i > 0 &&
			(unicode.IsLower(runes[i-1]) || (i+1 < len(runes) && unicode.IsLower(runes[i+1]))) {
			b.WriteByte('_')
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}
