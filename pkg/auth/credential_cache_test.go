package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testRecord(tenant, resource, token string) TokenRecord {
	return TokenRecord{
		AccessToken: token,
		TokenKind:   "Bearer",
		UserID:      "ella@contoso.com",
		TenantID:    tenant,
		Resource:    resource,
		ExpiresOn:   time.Unix(1700000000, 0).UTC(),
	}
}

func TestCredentialCacheRoundTrip(t *testing.T) {
	c := NewCredentialCache()
	c.Put(testRecord("tenant-a", "https://management.core.windows.net/", "tok-1"))
	c.Put(testRecord("tenant-b", "https://graph.windows.net/", "tok-2"))

	data, err := c.Serialize()
	require.NoError(t, err)

	restored := DeserializeCredentialCache(data)
	require.Equal(t, 2, restored.Len())

	record, ok := restored.Get("tenant-a", "https://management.core.windows.net/")
	require.True(t, ok)
	require.Equal(t, "tok-1", record.AccessToken)
	require.Equal(t, time.Unix(1700000000, 0).UTC(), record.ExpiresOn)
}

func TestCredentialCacheSecondPutWins(t *testing.T) {
	c := NewCredentialCache()
	c.Put(testRecord("tenant-a", "https://management.core.windows.net/", "old"))

	// The same key in any of its spellings overwrites, never duplicates.
	c.Put(testRecord("TENANT-A", "https://management.core.windows.net//.default", "new"))

	require.Equal(t, 1, c.Len())
	record, ok := c.Get("tenant-a", "https://management.core.windows.net/")
	require.True(t, ok)
	require.Equal(t, "new", record.AccessToken)
}

func TestCredentialCacheCorruptFailsOpen(t *testing.T) {
	restored := DeserializeCredentialCache([]byte("{not json"))
	require.Equal(t, 0, restored.Len())

	restored = DeserializeCredentialCache(nil)
	require.Equal(t, 0, restored.Len())
}

func TestCredentialCacheGetAll(t *testing.T) {
	c := NewCredentialCache()
	c.Put(testRecord("tenant-b", "https://management.core.windows.net/", "tok-b"))
	c.Put(testRecord("tenant-a", "https://management.core.windows.net", "tok-a"))
	c.Put(testRecord("tenant-c", "https://graph.windows.net/", "tok-c"))

	matches := c.GetAll("https://management.core.windows.net//.default")
	require.Len(t, matches, 2)
	require.Equal(t, "tenant-a", matches[0].TenantID)
	require.Equal(t, "tenant-b", matches[1].TenantID)
}

func TestCredentialCacheRemove(t *testing.T) {
	c := NewCredentialCache()
	record := testRecord("tenant-a", "https://management.core.windows.net/", "tok")
	c.Put(record)
	c.Remove(record)

	_, ok := c.Get("tenant-a", "https://management.core.windows.net/")
	require.False(t, ok)
}
