package panel

import (
	"fmt"
	"net/url"
	"slices"
	"sort"

	"tarediiran-industries.com/transit-dashboard/internal/collection"
	"tarediiran-industries.com/transit-dashboard/internal/fetch"
)

// Panel is a Controller with its record type erased, which is all a shell
// needs to drive it.
type Panel interface {
	Name() string
	Title() string
	Open(params url.Values) error
	Refetch() error
	Close()
	SetQueryParam(key, value string) error
	SetSearchText(text string)
	GoToPage(n int)
	NextPage()
	PreviousPage()
	View() View
	Wait()
}

var _ Panel = (*Controller[collection.Record])(nil)

// Entry is one catalog item. New builds a fresh, closed panel.
type Entry struct {
	Name        string
	Title       string
	Group       string
	Description string
	Required    []string
	Optional    []string
	New         func() Panel
}

type Catalog struct {
	entries map[string]Entry
	order   []string
}

func NewCatalog() *Catalog {
	return &Catalog{entries: map[string]Entry{}}
}

// Add registers domain under its name. The domain is checked once here so
// a bad definition fails at startup rather than when a user opens it.
func Add[T collection.Record](catalog *Catalog, group, description string, domain Domain[T], client *fetch.Client, opts ...Option) error {
	if _, err := New(domain, client, opts...); err != nil {
		return err
	}
	if _, dup := catalog.entries[domain.Name]; dup {
		return fmt.Errorf("panel %q registered twice: %w", domain.Name, collection.ErrInvalidArgument)
	}

	var optional []string
	for _, key := range domain.ServerParams {
		if !slices.Contains(domain.Required, key) {
			optional = append(optional, key)
		}
	}

	catalog.entries[domain.Name] = Entry{
		Name:        domain.Name,
		Title:       domain.Title,
		Group:       group,
		Description: description,
		Required:    append([]string(nil), domain.Required...),
		Optional:    optional,
		New: func() Panel {
			c, _ := New(domain, client, opts...)
			return c
		},
	}
	catalog.order = append(catalog.order, domain.Name)
	return nil
}

func (catalog *Catalog) Lookup(name string) (Entry, bool) {
	entry, ok := catalog.entries[name]
	return entry, ok
}

// Entries returns the catalog in registration order.
func (catalog *Catalog) Entries() []Entry {
	out := make([]Entry, 0, len(catalog.order))
	for _, name := range catalog.order {
		out = append(out, catalog.entries[name])
	}
	return out
}

// Groups returns the entries bucketed by group, groups sorted by name.
func (catalog *Catalog) Groups() map[string][]Entry {
	groups := map[string][]Entry{}
	for _, entry := range catalog.Entries() {
		groups[entry.Group] = append(groups[entry.Group], entry)
	}
	return groups
}

func (catalog *Catalog) GroupNames() []string {
	seen := map[string]bool{}
	var names []string
	for _, entry := range catalog.Entries() {
		if !seen[entry.Group] {
			seen[entry.Group] = true
			names = append(names, entry.Group)
		}
	}
	sort.Strings(names)
	return names
}
