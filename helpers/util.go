package helpers

import (
	"strings"
)

// CleanText collapses runs of whitespace into single spaces
func CleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
