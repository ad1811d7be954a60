package auth

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRecentTokensSlots(t *testing.T) {
	r := NewRecentTokens()

	_, ok := r.Get(CategoryManagement)
	require.False(t, ok)

	management := testRecord("tenant-a", "https://management.core.windows.net/", "m")
	other := testRecord("tenant-a", "https://vault.azure.net/", "o")

	r.Put(management, CategoryManagement)
	r.Put(other, CategoryOther)

	got, ok := r.Get(CategoryManagement)
	require.True(t, ok)
	require.Equal(t, "m", got.AccessToken)

	got, ok = r.Get(CategoryOther)
	require.True(t, ok)
	require.Equal(t, "o", got.AccessToken)

	r.Remove(CategoryManagement)
	_, ok = r.Get(CategoryManagement)
	require.False(t, ok)
}

func TestRecentTokensSerializeSlot(t *testing.T) {
	r := NewRecentTokens()

	_, ok, err := r.SerializeSlot(CategoryManagement)
	require.NoError(t, err)
	require.False(t, ok)

	r.Put(testRecord("tenant-a", "https://management.core.windows.net/", "m"), CategoryManagement)

	data, ok, err := r.SerializeSlot(CategoryManagement)
	require.NoError(t, err)
	require.True(t, ok)

	restored := NewRecentTokens()
	restored.DeserializeSlot(CategoryManagement, data)

	got, ok := restored.Get(CategoryManagement)
	require.True(t, ok)
	require.Equal(t, "m", got.AccessToken)

	// Corrupt bytes leave the slot empty.
	corrupt := NewRecentTokens()
	corrupt.DeserializeSlot(CategoryOther, []byte("{bad"))
	_, ok = corrupt.Get(CategoryOther)
	require.False(t, ok)
}
