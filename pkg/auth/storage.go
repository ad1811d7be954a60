package auth

import (
	"errors"
)

// Cache is sealed storage for opaque byte blobs, scoped to the current OS
// user. Content is unreadable by other OS principals (owner-only file modes).
type Cache interface {
	Read(name string) ([]byte, error)
	Set(name string, value []byte) error
	Delete(name string) error
}

var errCacheKeyNotFound = errors.New("key not found")

// NewSealedStorage creates the default sealed storage rooted at the given
// directory: an in-memory write-through layer over per-name files guarded by
// cross-process file locks. The root directory must be created beforehand.
func NewSealedStorage(root string) Cache {
	return &memoryCache{
		cache: make(map[string][]byte),
		inner: &fileCache{
			prefix: "cache",
			root:   root,
			ext:    "json",
		},
	}
}
