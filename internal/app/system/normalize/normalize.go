// internal/app/system/normalize/normalize.go
package normalize

import "strings"

// Email lowercases and trims an email address for storage and lookup.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name collapses interior whitespace runs and trims the result. Used for
// display names and GP specific names before folding/storage.
func Name(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Token trims a short identifier-like value (category names, sub-types,
// genres, query params).
func Token(s string) string {
	return strings.TrimSpace(s)
}
