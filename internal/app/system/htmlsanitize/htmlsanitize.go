// internal/app/system/htmlsanitize/htmlsanitize.go
package htmlsanitize

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Vibess stores plain text only: descriptions, reason notes, and chat
// messages are stripped of all markup before persistence.
var strict = bluemonday.StrictPolicy()

// Plain strips every HTML tag and trims the result.
func Plain(s string) string {
	return strings.TrimSpace(strict.Sanitize(s))
}

// PlainAll sanitizes each element of a slice in place and returns it.
func PlainAll(ss []string) []string {
	for i, s := range ss {
		ss[i] = Plain(s)
	}
	return ss
}
