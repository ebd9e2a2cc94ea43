package cache

import (
	"encoding/hex"
	"net/url"
	"path/filepath"

	"golang.org/x/crypto/sha3"
)

// StoreVersion namespaces every key. Bump it whenever the record layout
// changes so that old entries are never decoded by a newer reader.
const StoreVersion = "v2"

// Key identifies a cached PokeAPI response.
type Key struct {
	// Version is the store format version the key belongs to.
	Version string

	// Digest is the lowercase hex SHA3-384 digest of the request URL.
	Digest string
}

// NewKey derives the key for a request URL.
func NewKey(u *url.URL) Key {
	return KeyFor(u.String())
}

// KeyFor derives the key for a raw URL string. The string is hashed exactly
// as given, no normalization is applied.
func KeyFor(rawURL string) Key {
	sum := sha3.Sum384([]byte(rawURL))
	return Key{
		Version: StoreVersion,
		Digest:  hex.EncodeToString(sum[:]),
	}
}

// String returns the key in "version/digest" form.
//
// Example:
//
//	v2/4f2c...e91a
func (k Key) String() string {
	return k.Version + "/" + k.Digest
}

// Path returns the location of the entry below root.
func (k Key) Path(root string) string {
	return filepath.Join(root, k.Version, k.Digest)
}

// redisKey returns the key used by RedisStore.
func (k Key) redisKey() string {
	return "pokeapi:" + k.Version + ":" + k.Digest
}
