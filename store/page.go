package store

// Page applies offset/limit paging to an ordered slice. A zero limit means
// no limit.
func Page[T any](items []T, limit, offset int) []T {
	start := offset
	if start > len(items) {
		start = len(items)
	}
	if start < 0 {
		start = 0
	}
	end := start + limit
	if limit <= 0 || end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
