package comparison

// DefaultPerPage matches the gallery page size.
const DefaultPerPage = 10

// Page is one slice of a paginated list.
type Page[T any] struct {
	Items      []T
	Number     int
	TotalPages int
	TotalItems int
}

// HasPrev reports whether a previous page exists.
func (p Page[T]) HasPrev() bool { return p.Number > 1 }

// HasNext reports whether a following page exists.
func (p Page[T]) HasNext() bool { return p.Number < p.TotalPages }

// Paginate returns the requested page. The page number is clamped to
// [1, TotalPages] and TotalPages is never less than 1.
func Paginate[T any](items []T, page, perPage int) Page[T] {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	total := (len(items) + perPage - 1) / perPage
	if total < 1 {
		total = 1
	}
	page = min(max(page, 1), total)

	start := (page - 1) * perPage
	end := min(start+perPage, len(items))
	var slice []T
	if start < end {
		slice = items[start:end]
	}

	return Page[T]{
		Items:      slice,
		Number:     page,
		TotalPages: total,
		TotalItems: len(items),
	}
}
