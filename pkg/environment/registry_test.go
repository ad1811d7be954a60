package environment

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/armctl/armctl/pkg/config"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T, configDir string) *Registry {
	t.Helper()

	r, err := NewRegistry(configDir, config.NewEmptyConfig())
	require.NoError(t, err)
	return r
}

func seedCacheFile(t *testing.T, r *Registry) string {
	t.Helper()

	dir, err := r.CacheDir()
	require.NoError(t, err)

	path := filepath.Join(dir, "cachetokens.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o600))
	return path
}

func TestRegistryDefaultsToProd(t *testing.T) {
	configDir := t.TempDir()

	r := newTestRegistry(t, configDir)
	require.Equal(t, ProdName, r.Current().Name)

	// The selection marker is persisted for the next process.
	data, err := os.ReadFile(filepath.Join(configDir, "environment.json"))
	require.NoError(t, err)

	var saved savedEnvironment
	require.NoError(t, json.Unmarshal(data, &saved))
	require.Equal(t, ProdName, saved.Environment)
	require.NotEmpty(t, saved.Version)
}

func TestRegistryRestoresSelection(t *testing.T) {
	configDir := t.TempDir()

	r := newTestRegistry(t, configDir)
	_, err := r.Select(ChinaName)
	require.NoError(t, err)

	r2 := newTestRegistry(t, configDir)
	require.Equal(t, ChinaName, r2.Current().Name)
}

func TestRegistrySwitchPurgesCaches(t *testing.T) {
	configDir := t.TempDir()
	r := newTestRegistry(t, configDir)

	cached := seedCacheFile(t, r)

	_, err := r.Select(USGovernmentName)
	require.NoError(t, err)

	_, statErr := os.Stat(cached)
	require.True(t, os.IsNotExist(statErr), "cache file should be purged on environment switch")
	require.Equal(t, USGovernmentName, r.Current().Name)
}

func TestRegistryReselectKeepsCaches(t *testing.T) {
	configDir := t.TempDir()
	r := newTestRegistry(t, configDir)

	cached := seedCacheFile(t, r)

	_, err := r.Select(ProdName)
	require.NoError(t, err)

	_, statErr := os.Stat(cached)
	require.NoError(t, statErr, "reselecting the current environment must not purge")
}

func TestRegistrySelectByAuthorityURL(t *testing.T) {
	configDir := t.TempDir()
	r := newTestRegistry(t, configDir)

	profile, err := r.Select("https://login.microsoftonline.us")
	require.NoError(t, err)
	require.Equal(t, USGovernmentName, profile.Name)

	// A bare hostname works too.
	profile, err = r.Select("management.chinacloudapi.cn")
	require.NoError(t, err)
	require.Equal(t, ChinaName, profile.Name)

	_, err = r.Select("https://unknown.example.com")
	require.Error(t, err)
}

func TestRegistryUnknownName(t *testing.T) {
	r := newTestRegistry(t, t.TempDir())

	_, err := r.Select("NoSuchCloud")
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown environment")
}

func TestRegistryVersionMismatchPurges(t *testing.T) {
	configDir := t.TempDir()

	r := newTestRegistry(t, configDir)
	cached := seedCacheFile(t, r)

	// Rewrite the marker as if an older build had written it.
	marker := filepath.Join(configDir, "environment.json")
	data, err := json.Marshal(savedEnvironment{Version: "0.0.1-old", Environment: ProdName})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(marker, data, 0o600))

	r2 := newTestRegistry(t, configDir)
	require.Equal(t, ProdName, r2.Current().Name)

	_, statErr := os.Stat(cached)
	require.True(t, os.IsNotExist(statErr), "cache file should be purged on version change")
}

func TestRegistryCorruptMarkerResets(t *testing.T) {
	configDir := t.TempDir()
	marker := filepath.Join(configDir, "environment.json")
	require.NoError(t, os.WriteFile(marker, []byte("{corrupt"), 0o600))

	r := newTestRegistry(t, configDir)
	require.Equal(t, ProdName, r.Current().Name)
}
