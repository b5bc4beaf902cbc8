package collection

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument marks caller misuse, such as a non-positive page size.
var ErrInvalidArgument = errors.New("invalid argument")

type Page[T any] struct {
	Items      []T
	Number     int
	Size       int
	TotalPages int
	TotalItems int
}

func (p Page[T]) HasPrevious() bool { return p.Number > 1 }

func (p Page[T]) HasNext() bool { return p.Number < p.TotalPages }

// TotalPages is ceil(n/pageSize), never less than one.
func TotalPages(n, pageSize int) (int, error) {
	if pageSize <= 0 {
		return 0, fmt.Errorf("page size %d: %w", pageSize, ErrInvalidArgument)
	}
	if n <= 0 {
		return 1, nil
	}
	return (n + pageSize - 1) / pageSize, nil
}

// Paginate returns the 1-based page of items. Pages outside
// [1, TotalPages] come back empty rather than failing, so a stale page
// number left over from an earlier collection is harmless.
func Paginate[T any](items []T, pageSize, page int) (Page[T], error) {
	total, err := TotalPages(len(items), pageSize)
	if err != nil {
		return Page[T]{}, err
	}

	result := Page[T]{
		Items:      []T{},
		Number:     page,
		Size:       pageSize,
		TotalPages: total,
		TotalItems: len(items),
	}
	if page < 1 || page > total {
		return result, nil
	}

	start := (page - 1) * pageSize
	if start >= len(items) {
		return result, nil
	}
	end := min(start+pageSize, len(items))
	result.Items = items[start:end:end]
	return result, nil
}

func ClampPage(page, totalPages int) int {
	if totalPages < 1 {
		totalPages = 1
	}
	return max(1, min(page, totalPages))
}

func NextPage(current, totalPages int) int {
	return ClampPage(current+1, totalPages)
}

func PreviousPage(current, totalPages int) int {
	return ClampPage(current-1, totalPages)
}
