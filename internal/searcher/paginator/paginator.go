// Package paginator splits result lists into fixed-size pages.
package paginator

// Paginate splits items into consecutive pages of pageSize; the last page
// holds the remainder. A non-positive pageSize yields a single page. Pages
// share the backing array of items.
func Paginate[T any](items []T, pageSize int) [][]T {
	if len(items) == 0 {
		return [][]T{}
	}
	if pageSize <= 0 || pageSize >= len(items) {
		return [][]T{items}
	}
	pages := make([][]T, 0, (len(items)+pageSize-1)/pageSize)
	for start := 0; start < len(items); start += pageSize {
		end := min(start+pageSize, len(items))
		pages = append(pages, items[start:end:end])
	}
	return pages
}

// Page returns page n (0-based) of items, or ok=false when there is no
// such page.
func Page[T any](items []T, pageSize, n int) (page []T, ok bool) {
	pages := Paginate(items, pageSize)
	if n < 0 || n >= len(pages) {
		return nil, false
	}
	return pages[n], true
}
