package domain

import (
	"fmt"
	"strings"
)

// PageHeader marks the start of page n, one based
func PageHeader(n int) string { return fmt.Sprintf("--- Page %d ---\n", n) }

// JoinPages renders page texts in order, each under its header, separated by one newline
func JoinPages(texts []string, firstPage int) string {
	parts := make([]string, len(texts))
	for i, t := range texts {
		parts[i] = PageHeader(firstPage+i) + t
	}
	return strings.Join(parts, "\n")
}
