package services

import "strings"

// likePattern builds a substring pattern for "LOWER(col) LIKE ?".
// LIKE wildcards in the search term are dropped.
func likePattern(term string) string {
	term = strings.NewReplacer("%", "", "_", "").Replace(strings.ToLower(strings.TrimSpace(term)))
	return "%" + term + "%"
}
