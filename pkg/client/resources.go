package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/Sternrassler/pokeapi-client/pkg/pagination"
	"github.com/Sternrassler/pokeapi-client/pkg/resource"
)

// GetByName fetches the resource of kind T named name, e.g.
//
//	pikachu, err := client.GetByName[resource.Pokemon](ctx, c, "pikachu")
func GetByName[T resource.Resource](ctx context.Context, c *Client, name string) (T, error) {
	var zero T
	u, err := elementURL[T](c, name)
	if err != nil {
		return zero, err
	}
	return get[T](ctx, c, u)
}

// GetByID fetches the resource of kind T with the given id.
func GetByID[T resource.Resource](ctx context.Context, c *Client, id int) (T, error) {
	var zero T
	if id <= 0 {
		return zero, fmt.Errorf("%w: id %d", ErrInvalidName, id)
	}
	u, err := elementURL[T](c, strconv.Itoa(id))
	if err != nil {
		return zero, err
	}
	return get[T](ctx, c, u)
}

// GetByRef fetches the resource a reference points to. The reference URL is
// used as is.
func GetByRef[T resource.Resource](ctx context.Context, c *Client, ref resource.NamedResource[T]) (T, error) {
	var zero T
	u, err := ref.Parse()
	if err != nil {
		return zero, fmt.Errorf("%w: %v", ErrInvalidReference, err)
	}
	if !u.IsAbs() || u.Host == "" {
		return zero, fmt.Errorf("%w: %q is not an absolute url", ErrInvalidReference, ref.URL)
	}
	return get[T](ctx, c, u)
}

// List returns every reference of kind T in server order. Pages are fetched
// one after another with pagination.DefaultPageSize; if any page fails the
// whole listing fails.
func List[T resource.Resource](ctx context.Context, c *Client) ([]resource.NamedResource[T], error) {
	collection, err := resource.CollectionURL[T](c.baseURL)
	if err != nil {
		return nil, err
	}
	kind := string(resource.KindOf[T]())

	start := pagination.Begin(collection, 0, pagination.DefaultPageSize)
	refs, err := pagination.Collect(ctx, start, func(ctx context.Context, u *url.URL) ([]resource.NamedResource[T], *url.URL, error) {
		body, err := c.fetch(ctx, u, kind)
		if err != nil {
			return nil, nil, err
		}

		var page resource.Page[T]
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, nil, decodeError(u, err)
		}
		if !page.HasNext() {
			return page.Results, nil, nil
		}

		next, err := u.Parse(page.Next)
		if err != nil {
			return nil, nil, decodeError(u, fmt.Errorf("next link: %w", err))
		}
		return page.Results, next, nil
	})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}
	return refs, nil
}

func get[T resource.Resource](ctx context.Context, c *Client, u *url.URL) (T, error) {
	var value T
	body, err := c.fetch(ctx, u, string(resource.KindOf[T]()))
	if err != nil {
		return value, err
	}
	if err := json.Unmarshal(body, &value); err != nil {
		var zero T
		return zero, decodeError(u, err)
	}
	return value, nil
}

// elementURL appends segment to the collection URL of T.
func elementURL[T resource.Resource](c *Client, segment string) (*url.URL, error) {
	if err := validateSegment(segment); err != nil {
		return nil, err
	}
	collection, err := resource.CollectionURL[T](c.baseURL)
	if err != nil {
		return nil, err
	}
	u := *collection
	u.Path += segment
	u.RawPath = ""
	return &u, nil
}

func validateSegment(segment string) error {
	switch {
	case segment == "":
		return fmt.Errorf("%w: empty", ErrInvalidName)
	case segment == "." || segment == "..":
		return fmt.Errorf("%w: %q", ErrInvalidName, segment)
	case strings.ContainsAny(segment, "/?#"):
		return fmt.Errorf("%w: %q contains a reserved character", ErrInvalidName, segment)
	case strings.IndexFunc(segment, func(r rune) bool { return r < 0x20 || r == 0x7f }) >= 0:
		return fmt.Errorf("%w: %q contains a control character", ErrInvalidName, segment)
	}
	return nil
}

func decodeError(u *url.URL, err error) error {
	errorsTotal.WithLabelValues(string(ErrorClassDecode)).Inc()
	return &APIError{Class: ErrorClassDecode, URL: u.String(), Err: err}
}
