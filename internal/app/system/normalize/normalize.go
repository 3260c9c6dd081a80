// Package normalize holds the canonical forms of user-supplied strings
// before they are validated and stored.
package normalize

import "strings"

// Username trims whitespace, drops a leading "@", and lowercases.
func Username(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "@")
	return strings.ToLower(s)
}

// Name trims surrounding whitespace and collapses inner runs of whitespace.
// Case is preserved.
func Name(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// ThreadText trims surrounding whitespace and normalizes line endings to \n.
// Inner whitespace is kept so that formatting survives.
func ThreadText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.TrimSpace(s)
}

// QueryParam trims a search or filter value. Case is preserved.
func QueryParam(s string) string {
	return strings.TrimSpace(s)
}

// Sort orders accepted by thread search.
const (
	SortLatest = "latest"
	SortOldest = "oldest"
)

// SearchSort maps a requested sort to SortLatest or SortOldest.
// Empty means SortLatest; anything unrecognized returns "".
func SearchSort(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", SortLatest, "desc", "newest":
		return SortLatest
	case SortOldest, "asc":
		return SortOldest
	default:
		return ""
	}
}

// Direction maps a listing sort ("asc"/"desc", or the search aliases) to a
// MongoDB sort direction. Unknown values sort newest first.
func Direction(s string) int {
	if SearchSort(s) == SortOldest {
		return 1
	}
	return -1
}
