// Package pagination implements page-number windowing for list responses.
//
// A request names a page (1-based, or "last") and optionally a page size.
// The size falls back to the configured default when absent or invalid and
// is clamped to the configured maximum. Asking for a page past the end is a
// 404, except that page 1 of an empty result is always valid.
package pagination

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/kutbudev/cardboard/internal/errors"
)

const (
	DefaultPageSize = 100
	MaxPageSize     = 1000

	PageQueryParam     = "page"
	PageSizeQueryParam = "page_size"
	LastPage           = "last"
)

// ErrInvalidPage is returned for page numbers outside the result set.
var ErrInvalidPage = errors.New("Invalid page.", errors.NotFound())

// Config holds the server-side bounds.
type Config struct {
	PageSize    int
	MaxPageSize int
}

// DefaultConfig is 100 per page, capped at 1000.
func DefaultConfig() Config {
	return Config{PageSize: DefaultPageSize, MaxPageSize: MaxPageSize}
}

// Params is what a client asked for.
type Params struct {
	// Page is the raw page parameter; empty means the first page.
	Page string
	Size int
}

// Params reads page and page_size from a query string.
func (c Config) Params(q url.Values) Params {
	size := c.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	limit := c.MaxPageSize
	if limit <= 0 {
		limit = MaxPageSize
	}

	if raw := strings.TrimSpace(q.Get(PageSizeQueryParam)); raw != "" {
		n, err := strconv.Atoi(raw)
		switch {
		case err == nil && n > 0:
			size = n
		case errors.Is(err, strconv.ErrNumRange) && !strings.HasPrefix(raw, "-"):
			size = limit
		}
	}
	if size > limit {
		size = limit
	}

	return Params{
		Page: strings.TrimSpace(q.Get(PageQueryParam)),
		Size: size,
	}
}

// Page is a resolved window over count results.
type Page struct {
	Number   int
	Size     int
	NumPages int
	Count    int64
}

// Resolve checks the requested page against count.
func (p Params) Resolve(count int64) (Page, error) {
	size := p.Size
	if size <= 0 {
		size = DefaultPageSize
	}

	numPages := int((count + int64(size) - 1) / int64(size))
	if numPages == 0 {
		numPages = 1
	}

	number := 1
	switch p.Page {
	case "":
	case LastPage:
		number = numPages
	default:
		n, err := strconv.Atoi(p.Page)
		if err != nil || n < 1 || n > numPages {
			return Page{}, ErrInvalidPage
		}
		number = n
	}

	return Page{Number: number, Size: size, NumPages: numPages, Count: count}, nil
}

// Offset is the index of the first result on the page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

func (p Page) HasNext() bool     { return p.Number < p.NumPages }
func (p Page) HasPrevious() bool { return p.Number > 1 }

// Links navigate between pages. Nil renders as JSON null.
type Links struct {
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
}

// Envelope is the body of every list response.
type Envelope[T any] struct {
	Links   Links `json:"links"`
	Count   int64 `json:"count"`
	Results []T   `json:"results"`
}

// NewEnvelope wraps results for page. Links are built from base, the
// absolute URL of the current request, with the page parameter replaced.
func NewEnvelope[T any](base *url.URL, page Page, results []T) Envelope[T] {
	if results == nil {
		results = []T{}
	}

	env := Envelope[T]{Count: page.Count, Results: results}
	if page.HasNext() {
		next := pageURL(base, page.Number+1)
		env.Links.Next = &next
	}
	if page.HasPrevious() {
		prev := pageURL(base, page.Number-1)
		env.Links.Previous = &prev
	}
	return env
}

// pageURL points base at number. The first page drops the parameter.
func pageURL(base *url.URL, number int) string {
	u := *base
	q := u.Query()
	if number == 1 {
		q.Del(PageQueryParam)
	} else {
		q.Set(PageQueryParam, strconv.Itoa(number))
	}
	u.RawQuery = q.Encode()
	return u.String()
}
