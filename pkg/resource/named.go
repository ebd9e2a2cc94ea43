package resource

import "net/url"

// NamedResource is a reference to an entity of type T.
type NamedResource[T any] struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Parse returns the referenced URL.
func (r NamedResource[T]) Parse() (*url.URL, error) {
	return url.Parse(r.URL)
}

// Page is one page of a collection listing. Next and Previous are empty on
// the last and first page respectively.
type Page[T any] struct {
	Count    int                `json:"count"`
	Next     string             `json:"next"`
	Previous string             `json:"previous"`
	Results  []NamedResource[T] `json:"results"`
}

// HasNext reports whether another page follows.
func (p Page[T]) HasNext() bool {
	return p.Next != ""
}
