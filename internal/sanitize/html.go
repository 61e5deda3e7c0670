// Package sanitize strips markup from user-supplied text before it is stored.
package sanitize

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// StrictPolicy removes all HTML tags and attributes.
var StrictPolicy = bluemonday.StrictPolicy()

// Text strips all HTML tags and returns plain text with surrounding
// whitespace removed. Use for event titles, descriptions, locations and
// usernames, which front ends may render with innerHTML.
func Text(input string) string {
	return strings.TrimSpace(StrictPolicy.Sanitize(input))
}

// Changed reports whether Text would alter input beyond trimming.
func Changed(input string) bool {
	return Text(input) != strings.TrimSpace(input)
}
