package environment

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/armctl/armctl/internal/version"
	"github.com/armctl/armctl/pkg/config"
	"github.com/armctl/armctl/pkg/osutil"
	"github.com/joho/godotenv"
)

// The file recording which environment was last selected, along with the tool
// version that wrote it.
const cSavedEnvironmentFile = "environment.json"

// The directory under the user config dir holding all persisted cache state.
// Caches are partitioned per environment beneath it.
const cCacheDirName = "cache"

// The optional dotenv file feeding profile field overrides into the process
// environment.
const cOverridesEnvFile = "overrides.env"

// savedEnvironment is the persisted environment marker. A version mismatch on
// load invalidates all cached state, since record shapes may have changed
// across tool versions.
type savedEnvironment struct {
	Version     string `json:"ver"`
	Environment string `json:"env"`
}

// Registry tracks the current environment profile for the process and owns
// the on-disk cache directory layout.
//
// Exactly one profile is current per process. Selecting a different
// environment purges all cached credential state, since a token issued by one
// environment's authority must never be served against another.
type Registry struct {
	configDir string
	overrides config.Config
	current   *Profile
}

// NewRegistry loads the registry state from the user config directory. The
// previously selected environment is restored; if none was saved, Prod is
// selected. If the marker was written by a different tool version, all cache
// files are deleted and the marker is rewritten.
func NewRegistry(configDir string, overrides config.Config) (*Registry, error) {
	// Optional dotenv overrides. Values already present in the process
	// environment win.
	if err := godotenv.Load(filepath.Join(configDir, cOverridesEnvFile)); err != nil &&
		!errors.Is(err, os.ErrNotExist) {
		log.Printf("ignoring %s: %v", cOverridesEnvFile, err)
	}

	r := &Registry{
		configDir: configDir,
		overrides: overrides,
	}

	saved, err := r.loadSaved()
	if err != nil {
		// An unreadable marker is treated like a version mismatch: purge and
		// start over rather than failing the process.
		log.Printf("resetting saved environment: %v", err)
		saved = nil
	}

	name := ProdName
	if saved != nil {
		if saved.Version != version.Version {
			log.Printf("cache was written by version %q, current version is %q, clearing all cached state",
				saved.Version, version.Version)
			if err := r.purgeCaches(); err != nil {
				return nil, fmt.Errorf("clearing cache after version change: %w", err)
			}
			saved.Version = version.Version
		}
		name = saved.Environment
	}

	profile, err := r.profileByName(name)
	if err != nil {
		return nil, err
	}

	r.current = profile
	if err := r.saveMarker(name); err != nil {
		return nil, err
	}

	return r, nil
}

// Current returns the profile selected for this process.
func (r *Registry) Current() *Profile {
	return r.current
}

// CacheDir returns the directory holding persisted cache state for the current
// environment. The directory is created if needed.
func (r *Registry) CacheDir() (string, error) {
	dir := filepath.Join(r.configDir, cCacheDirName, r.current.Name)
	if err := os.MkdirAll(dir, osutil.PermissionDirectoryOwnerOnly); err != nil {
		return "", fmt.Errorf("creating cache directory: %w", err)
	}
	return dir, nil
}

// Select switches the current environment by name or by authority URL. When
// the selection differs from the current environment, every cache file is
// deleted before the switch takes effect.
func (r *Registry) Select(nameOrAuthority string) (*Profile, error) {
	name := nameOrAuthority
	if strings.Contains(nameOrAuthority, "://") || strings.Contains(nameOrAuthority, ".") {
		matched, ok := r.ProfileForHost(nameOrAuthority)
		if !ok {
			return nil, fmt.Errorf("no known environment uses the host '%s'", nameOrAuthority)
		}
		name = matched
	}

	profile, err := r.profileByName(name)
	if err != nil {
		return nil, err
	}

	if r.current != nil && r.current.Name != profile.Name {
		if err := r.purgeCaches(); err != nil {
			return nil, fmt.Errorf("clearing caches for environment switch: %w", err)
		}
	}

	r.current = profile
	if err := r.saveMarker(name); err != nil {
		return nil, err
	}

	return profile, nil
}

// ProfileForHost reverse-maps a bare URL or hostname to the environment whose
// profile contains that host.
func (r *Registry) ProfileForHost(rawURL string) (string, bool) {
	host := strings.ToLower(rawURL)
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		host = strings.ToLower(u.Host)
	}

	for _, name := range Names() {
		profile := newProfile(name, builtinDefaults[name], r.overrides)
		for _, h := range profile.hosts() {
			if h == host {
				return name, true
			}
		}
	}

	return "", false
}

func (r *Registry) profileByName(name string) (*Profile, error) {
	defaults, ok := builtinDefaults[name]
	if !ok {
		return nil, fmt.Errorf("unknown environment '%s', expected one of: %s", name, strings.Join(Names(), ", "))
	}

	return newProfile(name, defaults, r.overrides), nil
}

func (r *Registry) loadSaved() (*savedEnvironment, error) {
	data, err := os.ReadFile(filepath.Join(r.configDir, cSavedEnvironmentFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	var saved savedEnvironment
	if err := json.Unmarshal(data, &saved); err != nil {
		return nil, fmt.Errorf("parsing saved environment: %w", err)
	}

	return &saved, nil
}

func (r *Registry) saveMarker(name string) error {
	data, err := json.Marshal(savedEnvironment{
		Version:     version.Version,
		Environment: name,
	})
	if err != nil {
		return err
	}

	path := filepath.Join(r.configDir, cSavedEnvironmentFile)
	if err := os.WriteFile(path, data, osutil.PermissionFileOwnerOnly); err != nil {
		return fmt.Errorf("saving environment marker: %w", err)
	}

	return nil
}

// purgeCaches deletes every file under the cache directory, across all
// environments.
func (r *Registry) purgeCaches() error {
	dir := filepath.Join(r.configDir, cCacheDirName)
	if err := os.RemoveAll(dir); err != nil {
		return err
	}
	return nil
}
