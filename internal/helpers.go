// Package internal holds small helpers shared by the generator packages.
package internal

import (
	"strings"
	"unicode"
)

// ToPascalCase converts snake_case or kebab-case to PascalCase.
// A run of separators is collapsed, the rest of each part is kept as-is.
func ToPascalCase(s string) string {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == '_' || r == '-'
	})

	var result strings.Builder
	for _, part := range parts {
		runes := []rune(part)
		result.WriteRune(unicode.ToUpper(runes[0]))
		result.WriteString(string(runes[1:]))
	}
	return result.String()
}

// TrimPointer strips one trailing pointer sigil and reports whether one was present.
func TrimPointer(typ string) (string, bool) {
	trimmed := strings.TrimSpace(typ)
	if !strings.HasSuffix(trimmed, "*") {
		return trimmed, false
	}
	return strings.TrimSpace(strings.TrimSuffix(trimmed, "*")), true
}
