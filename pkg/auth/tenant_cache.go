package auth

import (
	"encoding/json"
	"log"
	"sort"
	"strings"
)

// UnknownPlaceholder is the display name and domain recorded for a tenant
// whose directory details could not be fetched. Discovery tolerates partial
// failure: subscription enumeration may succeed while the directory lookup
// does not.
const UnknownPlaceholder = "unknown"

// SubscriptionRecord is one subscription discovered under a tenant.
type SubscriptionRecord struct {
	ID          string `json:"subscriptionId"`
	DisplayName string `json:"displayName"`
}

// TenantRecord is discovered directory metadata for one tenant. Records are
// written wholesale during a discovery pass and never partially mutated
// outside one.
type TenantRecord struct {
	TenantID      string               `json:"tenantId"`
	DisplayName   string               `json:"displayName"`
	DefaultDomain string               `json:"defaultDomain"`
	Subscriptions []SubscriptionRecord `json:"subscriptions"`
}

// TenantDirectoryCache is a keyed store of tenant-or-domain identifier to
// TenantRecord. Each record is stored under its tenant id and, when the
// default domain is known, under the domain too, so identifier resolution
// succeeds via either.
type TenantDirectoryCache struct {
	records map[string]TenantRecord
}

// NewTenantDirectoryCache creates an empty tenant directory cache.
func NewTenantDirectoryCache() *TenantDirectoryCache {
	return &TenantDirectoryCache{
		records: map[string]TenantRecord{},
	}
}

// Get looks up a record by tenant id or default domain.
func (c *TenantDirectoryCache) Get(idOrDomain string) (TenantRecord, bool) {
	record, ok := c.records[strings.ToLower(idOrDomain)]
	return record, ok
}

// Put stores the record under its tenant id, and under its default domain
// when the domain is known and not the placeholder.
func (c *TenantDirectoryCache) Put(record TenantRecord) {
	c.records[strings.ToLower(record.TenantID)] = record

	if record.DefaultDomain != "" && record.DefaultDomain != UnknownPlaceholder {
		c.records[strings.ToLower(record.DefaultDomain)] = record
	}
}

// All returns every distinct tenant record, ordered by tenant id.
func (c *TenantDirectoryCache) All() []TenantRecord {
	seen := map[string]bool{}
	records := []TenantRecord{}
	for _, record := range c.records {
		if seen[strings.ToLower(record.TenantID)] {
			continue
		}
		seen[strings.ToLower(record.TenantID)] = true
		records = append(records, record)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].TenantID < records[j].TenantID
	})

	return records
}

// FindSubscription searches all known tenants for the given subscription id
// and returns the owning tenant. A subscription always resolves to its parent
// tenant, never to itself.
func (c *TenantDirectoryCache) FindSubscription(subscriptionID string) (TenantRecord, SubscriptionRecord, bool) {
	for _, tenant := range c.All() {
		for _, sub := range tenant.Subscriptions {
			if strings.EqualFold(sub.ID, subscriptionID) {
				return tenant, sub, true
			}
		}
	}

	return TenantRecord{}, SubscriptionRecord{}, false
}

// Serialize snapshots the full directory state.
func (c *TenantDirectoryCache) Serialize() ([]byte, error) {
	return json.Marshal(c.records)
}

// DeserializeTenantDirectoryCache restores a directory from a snapshot.
// Malformed bytes fail closed to an empty directory.
func DeserializeTenantDirectoryCache(data []byte) *TenantDirectoryCache {
	cache := NewTenantDirectoryCache()
	if len(data) == 0 {
		return cache
	}

	if err := json.Unmarshal(data, &cache.records); err != nil {
		log.Printf("discarding corrupt tenant directory cache: %v", err)
		cache.records = map[string]TenantRecord{}
	}

	return cache
}
