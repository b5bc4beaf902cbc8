// Package panel drives the fetch, filter, paginate and render cycle for one
// data domain at a time.
package panel

import (
	"fmt"
	"net/url"
	"regexp"
	"slices"
	"strings"
	"time"

	"tarediiran-industries.com/transit-dashboard/internal/collection"
	"tarediiran-industries.com/transit-dashboard/internal/fetch"
)

// Column renders one table column of a record.
type Column[T any] struct {
	Header string
	Value  func(T) string
}

// Domain describes one panel: where its collection comes from and how it
// is searched, paged and drawn.
type Domain[T collection.Record] struct {
	Name  string
	Title string
	Path  string

	Decoder      fetch.Decoder[T]
	SearchFields []string
	PageSize     int
	Columns      []Column[T]

	// Required params must be present before any request is sent.
	Required []string
	// ServerParams are the keys that change the server-side query; setting
	// one on an open panel triggers a refetch.
	ServerParams []string
	// Normalize, when set, rewrites params in place before validation.
	Normalize func(url.Values)
}

func (d Domain[T]) check() error {
	if d.PageSize <= 0 {
		return fmt.Errorf("panel %q: page size %d: %w", d.Name, d.PageSize, collection.ErrInvalidArgument)
	}
	if d.Name == "" {
		return fmt.Errorf("panel without a name: %w", collection.ErrInvalidArgument)
	}
	if d.Decoder == nil {
		return fmt.Errorf("panel %q: no decoder: %w", d.Name, collection.ErrInvalidArgument)
	}
	return nil
}

func (d Domain[T]) isServerParam(key string) bool {
	return slices.Contains(d.ServerParams, key) || slices.Contains(d.Required, key)
}

// ValidationError reports a query param that blocks a fetch.
type ValidationError struct {
	Param   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Param, e.Message)
}

var dateRE = regexp.MustCompile(`^\d{8}$`)

// ValidDate reports whether s is a real calendar date in YYYYMMDD form.
func ValidDate(s string) bool {
	if !dateRE.MatchString(s) {
		return false
	}
	_, err := time.Parse("20060102", s)
	return err == nil
}

func (d Domain[T]) validate(params url.Values) error {
	for _, key := range d.Required {
		if strings.TrimSpace(params.Get(key)) == "" {
			return &ValidationError{Param: key, Message: "is required"}
		}
	}
	if date := params.Get("date"); date != "" && !ValidDate(date) {
		return &ValidationError{Param: "date", Message: fmt.Sprintf("%q is not a YYYYMMDD date", date)}
	}
	return nil
}

// CollapseSpaces trims s and folds inner whitespace runs to one space.
func CollapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
