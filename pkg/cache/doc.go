// Package cache provides the persistent response cache used by the PokeAPI
// client.
//
// The package has two halves:
//
// - Stores: a content-addressed mapping from request URL to Record
// (cache policy + body). DiskStore is the primary backend; MemoryStore
// and RedisStore are optional layers.
// - Policy: HTTP cache semantics (storability, freshness lifetime, age,
// conditional revalidation) evaluated against a stored response.
//
// # Keys
//
// A Key is the SHA3-384 digest of the exact request URL, namespaced by
// StoreVersion:
//
//	key := cache.KeyFor("https://pokeapi.co/api/v2/pokemon/pikachu")
//	key.String()         // "v2/3b1f...c07d" (96 hex chars)
//	key.Path(".pokecache") // ".pokecache/v2/3b1f...c07d"
//
// # Basic Usage
//
//	store, err := cache.NewDiskStore(".pokecache")
//	if err != nil {
//		return err
//	}
//
//	record, err := store.Get(ctx, key)
//	if errors.Is(err, cache.ErrCacheMiss) {
//		// Nothing usable stored - fetch from the API
//	}
//
// # Policies
//
//	policy := cache.NewPolicy(req, resp, time.Now(), cache.PrivatePolicyOptions())
//	if policy.Storable() {
//		_ = store.Put(ctx, key, &cache.Record{Policy: policy, Body: body})
//	}
//
//	// Later
//	if !record.Policy.SatisfiedWithoutRevalidation(req, time.Now()) {
//		req.Header = record.Policy.RevalidationHeaders(req)
//		// send req; a 304 keeps the stored body
//		updated, modified := record.Policy.Revalidate(req, resp, time.Now())
//	}
//
// # Record Format
//
// Records are framed as magic "PKDX", a version byte and a flags byte,
// followed by the CBOR encoded record (zstd compressed for larger bodies).
// Anything that does not decode is reported as ErrCacheMiss, never as a
// hard error.
//
// # Metrics
//
//   - pokeapi_cache_hits_total{layer} - Store hits
//   - pokeapi_cache_misses_total{layer} - Store misses
//   - pokeapi_cache_corrupt_records_total{layer} - Undecodable records
//   - pokeapi_cache_writes_total{layer} - Records written
//   - pokeapi_cache_write_bytes_total{layer} - Encoded bytes written
//   - pokeapi_cache_errors_total{layer,operation} - Store I/O errors
//
// There is no eviction: the disk store grows with the number of distinct
// URLs fetched.
package cache
