package resource

import (
	"fmt"
	"net/url"
	"strings"
)

// DefaultBaseURL is the root of the PokeAPI v2 catalog.
const DefaultBaseURL = "https://pokeapi.co/api/v2/"

// Kind identifies an entity collection.
type Kind string

const (
	KindPokemon        Kind = "pokemon"
	KindPokemonSpecies Kind = "pokemon-species"
	KindLanguage       Kind = "language"
)

var basePaths = map[Kind]string{
	KindPokemon:        "pokemon/",
	KindPokemonSpecies: "pokemon-species/",
	KindLanguage:       "language/",
}

// Resource is implemented by every entity type that can be looked up by
// name or id and listed.
type Resource interface {
	Kind() Kind
}

// BasePath returns the collection path of k relative to the API root, or ""
// for an unregistered kind.
func BasePath(k Kind) string {
	return basePaths[k]
}

// Valid reports whether k is registered.
func (k Kind) Valid() bool {
	_, ok := basePaths[k]
	return ok
}

// KindOf returns the kind of T.
func KindOf[T Resource]() Kind {
	var zero T
	return zero.Kind()
}

// CollectionURL resolves the collection URL of T against base.
func CollectionURL[T Resource](base *url.URL) (*url.URL, error) {
	kind := KindOf[T]()
	path := BasePath(kind)
	if path == "" {
		return nil, fmt.Errorf("resource kind %q is not registered", kind)
	}
	return withTrailingSlash(base).ResolveReference(&url.URL{Path: path}), nil
}

// withTrailingSlash makes relative resolution append to the last path
// segment instead of replacing it.
func withTrailingSlash(base *url.URL) *url.URL {
	u := *base
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
		if u.RawPath != "" {
			u.RawPath += "/"
		}
	}
	return &u
}
