package auth

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/armctl/armctl/pkg/osutil"
	"github.com/gofrs/flock"
)

// fileCache implements Cache by storing the data to disk. The cache name is
// used as part of the filename for the stored object. Files are stored in
// [root] and are named [prefix][name].[ext].
//
// Many short-lived processes share the same files, so every read and write
// takes a cross-process file lock. Writers race at whole-file granularity;
// last writer wins.
type fileCache struct {
	prefix string
	root   string
	ext    string
}

func (c *fileCache) Read(name string) ([]byte, error) {
	cachePath := c.pathForCache(name)
	lockPath := c.pathForLock(name)

	fl := flock.New(lockPath)

	if err := fl.Lock(); err != nil {
		return nil, fmt.Errorf("locking file %s: %w", lockPath, err)
	}
	defer func() {
		if err := fl.Unlock(); err != nil {
			log.Printf("failed to release file lock: %v", err)
		}
	}()

	contents, err := os.ReadFile(cachePath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, errCacheKeyNotFound
	}

	return contents, err
}

func (c *fileCache) Set(name string, value []byte) error {
	cachePath := c.pathForCache(name)
	lockPath := c.pathForLock(name)

	fl := flock.New(lockPath)

	if err := fl.Lock(); err != nil {
		return fmt.Errorf("locking file %s: %w", lockPath, err)
	}
	defer func() {
		if err := fl.Unlock(); err != nil {
			log.Printf("failed to release file lock: %v", err)
		}
	}()

	return os.WriteFile(cachePath, value, osutil.PermissionFileOwnerOnly)
}

func (c *fileCache) Delete(name string) error {
	cachePath := c.pathForCache(name)
	lockPath := c.pathForLock(name)

	fl := flock.New(lockPath)

	if err := fl.Lock(); err != nil {
		return fmt.Errorf("locking file %s: %w", lockPath, err)
	}
	defer func() {
		if err := fl.Unlock(); err != nil {
			log.Printf("failed to release file lock: %v", err)
		}
	}()

	err := os.Remove(cachePath)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}

	return err
}

func (c *fileCache) pathForCache(name string) string {
	return filepath.Join(c.root, fmt.Sprintf("%s%s.%s", c.prefix, name, c.ext))
}

func (c *fileCache) pathForLock(name string) string {
	return filepath.Join(c.root, fmt.Sprintf("%s%s.%s.lock", c.prefix, name, c.ext))
}
