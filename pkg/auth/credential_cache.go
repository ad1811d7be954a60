package auth

import (
	"encoding/json"
	"log"
	"sort"
)

// CredentialCache is an in-memory keyed store of (tenant, resource) to
// TokenRecord. It has no side effects beyond the map; persistence is the
// caller's responsibility, at well-defined load/save boundaries.
type CredentialCache struct {
	records map[string]TokenRecord
}

// NewCredentialCache creates an empty credential cache.
func NewCredentialCache() *CredentialCache {
	return &CredentialCache{
		records: map[string]TokenRecord{},
	}
}

// Get performs an exact key lookup. No expiry check is applied; the caller
// decides expiry policy.
func (c *CredentialCache) Get(tenantID, resource string) (TokenRecord, bool) {
	record, ok := c.records[credentialKey(tenantID, resource)]
	return record, ok
}

// GetAll returns every record cached for a resource, ordered by tenant id.
func (c *CredentialCache) GetAll(resource string) []TokenRecord {
	canonical := canonicalResource(resource)

	matches := []TokenRecord{}
	for _, record := range c.records {
		if canonicalResource(record.Resource) == canonical {
			matches = append(matches, record)
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].TenantID < matches[j].TenantID
	})

	return matches
}

// All returns every cached record, ordered by key.
func (c *CredentialCache) All() []TokenRecord {
	keys := make([]string, 0, len(c.records))
	for key := range c.records {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	records := make([]TokenRecord, 0, len(keys))
	for _, key := range keys {
		records = append(records, c.records[key])
	}

	return records
}

// Put inserts or overwrites the record under its (tenant, resource) key.
func (c *CredentialCache) Put(record TokenRecord) {
	c.records[record.Key()] = record
}

// Remove deletes the entry at the record's key. Removing before a refresh
// ensures a failed refresh cannot leave a stale record to be silently reused.
func (c *CredentialCache) Remove(record TokenRecord) {
	delete(c.records, record.Key())
}

// Len returns the number of cached records.
func (c *CredentialCache) Len() int {
	return len(c.records)
}

// Serialize snapshots the full cache state.
func (c *CredentialCache) Serialize() ([]byte, error) {
	return json.Marshal(c.records)
}

// DeserializeCredentialCache restores a cache from a snapshot. Unknown or
// malformed bytes fail closed to an empty cache; a corrupt performance cache
// is recoverable, crashing on it is not.
func DeserializeCredentialCache(data []byte) *CredentialCache {
	cache := NewCredentialCache()
	if len(data) == 0 {
		return cache
	}

	if err := json.Unmarshal(data, &cache.records); err != nil {
		log.Printf("discarding corrupt credential cache: %v", err)
		cache.records = map[string]TokenRecord{}
	}

	return cache
}
