package panel

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"tarediiran-industries.com/transit-dashboard/internal/collection"
	"tarediiran-industries.com/transit-dashboard/internal/common"
	"tarediiran-industries.com/transit-dashboard/internal/fetch"
)

// ErrClosed is returned by operations that need an open panel.
var ErrClosed = errors.New("panel is closed")

type loadFunc[T any] func(ctx context.Context, params url.Values) ([]T, error)

type options struct {
	log     zerolog.Logger
	metrics *common.Metrics
	now     func() time.Time
}

type Option func(*options)

func WithLogger(log zerolog.Logger) Option {
	return func(o *options) { o.log = log }
}

func WithMetrics(metrics *common.Metrics) Option {
	return func(o *options) { o.metrics = metrics }
}

func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// Controller owns one panel's collection, page state, query params and
// search text. All methods are safe for concurrent use; fetches run on
// their own goroutine and never block the caller.
type Controller[T collection.Record] struct {
	domain Domain[T]
	load   loadFunc[T]
	opts   options

	mu        sync.Mutex
	state     State
	status    Status
	err       string
	invalid   string
	items     []T
	have      bool
	fetchedAt time.Time
	params    url.Values
	search    string
	page      int

	seq      uint64
	cancel   context.CancelFunc
	inflight sync.WaitGroup
}

func New[T collection.Record](domain Domain[T], client *fetch.Client, opts ...Option) (*Controller[T], error) {
	if err := domain.check(); err != nil {
		return nil, err
	}

	o := options{log: zerolog.Nop(), now: time.Now}
	if client != nil {
		o.log = client.Logger()
		o.metrics = client.Metrics()
	}
	for _, opt := range opts {
		opt(&o)
	}

	c := &Controller[T]{
		domain: domain,
		opts:   o,
		params: url.Values{},
		page:   1,
	}
	c.opts.log = o.log.With().Str("panel", domain.Name).Logger()
	c.load = func(ctx context.Context, params url.Values) ([]T, error) {
		if client == nil {
			return nil, errors.New("panel has no client")
		}
		return fetch.Fetch(ctx, client, domain.Path, params, domain.Decoder)
	}
	return c, nil
}

func (c *Controller[T]) Name() string { return c.domain.Name }

func (c *Controller[T]) Title() string { return c.domain.Title }

// Open resets the panel and starts its first fetch. An invalid param set
// is rejected before anything changes and nothing is sent.
func (c *Controller[T]) Open(params url.Values) error {
	next := cloneValues(params)
	if c.domain.Normalize != nil {
		c.domain.Normalize(next)
	}
	if err := c.domain.validate(next); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.resetLocked()
	c.params = next
	c.startLocked()
	return nil
}

// Refetch reissues the current query, keeping whatever is displayed until
// the new result lands.
func (c *Controller[T]) Refetch() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refetchLocked()
}

func (c *Controller[T]) refetchLocked() error {
	if c.state == StateClosed {
		return ErrClosed
	}
	if err := c.domain.validate(c.params); err != nil {
		c.invalid = err.Error()
		return err
	}
	c.startLocked()
	return nil
}

// Close cancels any outstanding fetch and discards everything the panel
// holds. Late results are dropped.
func (c *Controller[T]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked()
}

func (c *Controller[T]) resetLocked() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.seq++
	c.state = StateClosed
	c.status = StatusIdle
	c.err = ""
	c.invalid = ""
	c.items = nil
	c.have = false
	c.fetchedAt = time.Time{}
	c.params = url.Values{}
	c.search = ""
	c.page = 1
}

// SetQueryParam sets or, for an empty value, removes key. Changing a
// server-side key of an open panel refetches; other keys only re-derive.
// An invalid change is rejected and the previous params are kept.
func (c *Controller[T]) SetQueryParam(key, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateClosed {
		return ErrClosed
	}

	next := cloneValues(c.params)
	if strings.TrimSpace(value) == "" {
		next.Del(key)
	} else {
		next.Set(key, value)
	}
	if c.domain.Normalize != nil {
		c.domain.Normalize(next)
	}

	if next.Get(key) == c.params.Get(key) {
		return nil
	}
	// A rejected value leaves the current query in place.
	if err := c.domain.validate(next); err != nil {
		c.invalid = err.Error()
		return err
	}
	c.params = next
	c.invalid = ""
	if !c.domain.isServerParam(key) {
		return nil
	}
	return c.refetchLocked()
}

func (c *Controller[T]) SetSearchText(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateClosed {
		return
	}
	c.search = text
	c.page = 1
}

func (c *Controller[T]) GoToPage(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.page = collection.ClampPage(n, c.totalPagesLocked())
}

func (c *Controller[T]) NextPage() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.page = collection.NextPage(c.page, c.totalPagesLocked())
}

func (c *Controller[T]) PreviousPage() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.page = collection.PreviousPage(c.page, c.totalPagesLocked())
}

func (c *Controller[T]) totalPagesLocked() int {
	filtered := collection.Filter(c.items, c.domain.SearchFields, c.search)
	total, _ := collection.TotalPages(len(filtered), c.domain.PageSize)
	return total
}

// Wait blocks until no fetch started by this controller is running.
func (c *Controller[T]) Wait() {
	c.inflight.Wait()
}

func (c *Controller[T]) startLocked() {
	if c.cancel != nil {
		c.cancel()
	}
	c.seq++
	tag := c.seq

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.state = StateLoading
	c.status = StatusLoading
	c.invalid = ""

	params := cloneValues(c.params)
	c.opts.log.Debug().Uint64("tag", tag).Str("params", params.Encode()).Msg("fetch started")

	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		defer cancel()
		items, err := c.load(ctx, params)
		c.finish(tag, items, err)
	}()
}

func (c *Controller[T]) finish(tag uint64, items []T, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if tag != c.seq || c.state == StateClosed {
		c.opts.metrics.ObserveStale(c.domain.Name)
		c.opts.log.Debug().Uint64("tag", tag).Uint64("latest", c.seq).Msg("stale result discarded")
		return
	}
	c.cancel = nil

	if err != nil {
		c.state = StateError
		c.status = StatusFailure
		c.err = err.Error()
		c.opts.log.Warn().Err(err).Bool("retained", c.have).Msg("fetch failed")
		return
	}

	c.items = items
	c.have = true
	c.fetchedAt = c.opts.now()
	c.page = 1
	c.err = ""
	c.state = StateReady
	c.status = StatusSuccess
}

// Page returns the visible page of typed records.
func (c *Controller[T]) Page() collection.Page[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	page, _ := c.pageLocked()
	return page
}

func (c *Controller[T]) pageLocked() (collection.Page[T], int) {
	filtered := collection.Filter(c.items, c.domain.SearchFields, c.search)
	// PageSize is checked at construction.
	page, _ := collection.Paginate(filtered, c.domain.PageSize, c.page)
	return page, len(filtered)
}

func (c *Controller[T]) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	page, filtered := c.pageLocked()

	headers := make([]string, 0, len(c.domain.Columns))
	for _, column := range c.domain.Columns {
		headers = append(headers, column.Header)
	}
	rows := make([][]string, 0, len(page.Items))
	for _, item := range page.Items {
		row := make([]string, 0, len(c.domain.Columns))
		for _, column := range c.domain.Columns {
			row = append(row, column.Value(item))
		}
		rows = append(rows, row)
	}

	return View{
		Name:       c.domain.Name,
		Title:      c.domain.Title,
		State:      c.state,
		Status:     c.status,
		Err:        c.err,
		Invalid:    c.invalid,
		Stale:      c.have && c.status != StatusSuccess,
		Headers:    headers,
		Rows:       rows,
		Page:       page.Number,
		TotalPages: page.TotalPages,
		PageSize:   page.Size,
		Filtered:   filtered,
		Total:      len(c.items),
		Search:     c.search,
		Params:     cloneValues(c.params),
		FetchedAt:  c.fetchedAt,
	}
}

func cloneValues(in url.Values) url.Values {
	out := make(url.Values, len(in))
	for key, values := range in {
		out[key] = append([]string(nil), values...)
	}
	return out
}
