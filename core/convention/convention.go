// Package convention derives wire names from the underscore method names
// used in descriptor tables.
package convention

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// CamelCase turns "create_symbolic_link" into "CreateSymbolicLink".
func CamelCase(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, w := range strings.Split(name, "_") {
		b.WriteString(title(w))
	}
	return b.String()
}

// LowerCamelCase turns "create_symbolic_link" into "createSymbolicLink",
// the operation name used by the remote service.
func LowerCamelCase(name string) string {
	words := strings.Split(name, "_")
	var b strings.Builder
	b.Grow(len(name))
	b.WriteString(words[0])
	for _, w := range words[1:] {
		b.WriteString(title(w))
	}
	return b.String()
}

// RequestName derives the request message name of a method that builds its
// request from its own name: "rename" → "RenameRequest".
func RequestName(name string) string {
	return CamelCase(name) + "Request"
}

// Underscore is the inverse of LowerCamelCase: "getAdaptorName" →
// "get_adaptor_name".
func Underscore(name string) string {
	var b strings.Builder
	b.Grow(len(name) + 4)
	for i, r := range name {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}

// title upper-cases the first rune and lower-cases the rest.
func title(w string) string {
	if w == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(w)
	return string(unicode.ToUpper(r)) + strings.ToLower(w[size:])
}
