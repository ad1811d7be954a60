package auth

import (
	"encoding/json"
	"log"
)

// ResourceCategory partitions the recent-token slots. Two slots are enough in
// practice: one for the management resource, one for everything else.
type ResourceCategory string

const (
	CategoryManagement ResourceCategory = "management"
	CategoryOther      ResourceCategory = "other"
)

// RecentTokens records the last-used token per resource category so the
// common "use whatever I logged in with most recently" case is answered
// without a tenant or subscription lookup.
//
// RecentTokens itself is a dumb slot: the acquisition engine applies the
// expiry and refresh policy before handing a slotted record to a caller.
type RecentTokens struct {
	slots map[ResourceCategory]TokenRecord
}

// NewRecentTokens creates an empty set of slots.
func NewRecentTokens() *RecentTokens {
	return &RecentTokens{
		slots: map[ResourceCategory]TokenRecord{},
	}
}

// Get returns the last-used record for a category.
func (r *RecentTokens) Get(category ResourceCategory) (TokenRecord, bool) {
	record, ok := r.slots[category]
	return record, ok
}

// Put records the last-used token for a category.
func (r *RecentTokens) Put(record TokenRecord, category ResourceCategory) {
	r.slots[category] = record
}

// Remove clears the slot for a category.
func (r *RecentTokens) Remove(category ResourceCategory) {
	delete(r.slots, category)
}

// SerializeSlot snapshots a single category's slot. The second return is
// false when the slot is empty.
func (r *RecentTokens) SerializeSlot(category ResourceCategory) ([]byte, bool, error) {
	record, ok := r.slots[category]
	if !ok {
		return nil, false, nil
	}

	data, err := json.Marshal(record)
	return data, true, err
}

// DeserializeSlot restores a single category's slot. Malformed bytes leave
// the slot empty.
func (r *RecentTokens) DeserializeSlot(category ResourceCategory, data []byte) {
	if len(data) == 0 {
		return
	}

	var record TokenRecord
	if err := json.Unmarshal(data, &record); err != nil {
		log.Printf("discarding corrupt recent-token slot %q: %v", category, err)
		return
	}

	r.slots[category] = record
}
