// Package resource describes the PokeAPI entity kinds the client can fetch.
//
// Every fetchable kind implements Resource, which ties a Go type to its
// collection base path:
//
//	var p resource.Pokemon
//	p.Kind()                    // resource.KindPokemon
//	resource.BasePath(p.Kind()) // "pokemon/"
//
// Listings return NamedResource[T] references. The type parameter only
// exists at compile time, so a NamedResource[Language] cannot be resolved as
// a Pokemon, while the JSON form stays {"name": ..., "url": ...}.
//
// Entity values are plain records decoded from JSON and returned by value.
package resource
