package pagination

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultPageSize is the limit used for full listings.
const DefaultPageSize = 100

// ErrCursorLoop is returned when the server links back to a page that was
// already fetched.
var ErrCursorLoop = errors.New("pagination: next link points to an already fetched page")

// Cursor points at one page of a listing.
type Cursor struct {
	url    *url.URL
	begin  bool
	offset int
	limit  int
}

// Begin returns a cursor for the page of u starting at offset.
func Begin(u *url.URL, offset, limit int) Cursor {
	return Cursor{url: u, begin: true, offset: offset, limit: limit}
}

// Next returns a cursor for a server supplied continuation URL.
func Next(u *url.URL) Cursor {
	return Cursor{url: u}
}

// IsBegin reports whether c was built with Begin.
func (c Cursor) IsBegin() bool {
	return c.begin
}

// URL returns the request URL for the page. For Begin cursors offset and
// limit are set on a copy of the collection URL.
func (c Cursor) URL() *url.URL {
	if c.url == nil {
		return nil
	}
	u := *c.url
	if c.begin {
		q := u.Query()
		q.Set("offset", strconv.Itoa(c.offset))
		q.Set("limit", strconv.Itoa(c.limit))
		u.RawQuery = q.Encode()
	}
	return &u
}

// PageFunc fetches the page at u. It returns the page's items and the next
// page's URL, or nil on the last page.
type PageFunc[T any] func(ctx context.Context, u *url.URL) (items []T, next *url.URL, err error)

// Collect fetches every page starting at start and returns the concatenated
// items. On error no items are returned.
func Collect[T any](ctx context.Context, start Cursor, fetch PageFunc[T]) ([]T, error) {
	if start.url == nil {
		return nil, errors.New("pagination: cursor has no URL")
	}

	began := time.Now()
	var (
		items   []T
		pages   int
		fetched = make(map[string]struct{})
	)

	for cursor, ok := start, true; ok; {
		u := cursor.URL()
		if _, seen := fetched[u.String()]; seen {
			return nil, fmt.Errorf("%w: %s", ErrCursorLoop, u)
		}
		fetched[u.String()] = struct{}{}

		pageItems, next, err := fetch(ctx, u)
		if err != nil {
			log.Debug().
				Err(err).
				Int("page", pages+1).
				Int("items_discarded", len(items)).
				Msg("Page fetch failed")
			return nil, fmt.Errorf("fetch page %d: %w", pages+1, err)
		}
		pages++
		items = append(items, pageItems...)
		log.Debug().
			Str("url", u.String()).
			Bool("begin", cursor.IsBegin()).
			Int("items", len(pageItems)).
			Msg("Fetched page")

		if next == nil {
			ok = false
		} else {
			cursor = Next(next)
		}
	}

	log.Debug().
		Str("url", start.URL().String()).
		Int("pages", pages).
		Int("items", len(items)).
		Dur("duration", time.Since(began)).
		Msg("Listing complete")

	return items, nil
}
