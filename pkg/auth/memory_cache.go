package auth

import (
	"bytes"
)

// memoryCache is a write-through cache over an inner Cache. Reads are served
// from memory once populated; writes that do not change the stored bytes are
// not forwarded to the inner cache, so unchanged state never touches disk.
type memoryCache struct {
	cache map[string][]byte
	inner Cache
}

func (c *memoryCache) Read(name string) ([]byte, error) {
	if v, has := c.cache[name]; has {
		return v, nil
	}

	if c.inner == nil {
		return nil, errCacheKeyNotFound
	}

	v, err := c.inner.Read(name)
	if err != nil {
		return nil, err
	}

	c.cache[name] = v
	return v, nil
}

func (c *memoryCache) Set(name string, value []byte) error {
	old, has := c.cache[name]
	if has && bytes.Equal(old, value) {
		// no change, nothing more to do.
		return nil
	}

	c.cache[name] = value
	if c.inner != nil {
		return c.inner.Set(name, value)
	}

	return nil
}

func (c *memoryCache) Delete(name string) error {
	delete(c.cache, name)
	if c.inner != nil {
		return c.inner.Delete(name)
	}

	return nil
}
