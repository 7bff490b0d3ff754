package domain

import (
	"time"

	"github.com/google/uuid"
)

// Slot is the unit of sale: sellable eligibility for exactly one
// (lead, bucket) pair. At most one slot ever exists per pair, and its only
// transition is unsold -> sold, applied exactly once.
type Slot struct {
	ID        uuid.UUID
	LeadID    uuid.UUID
	Bucket    Bucket
	CreatedAt time.Time
	SoldAt    *time.Time
}

// Available reports whether the slot can still be sold.
func (s Slot) Available() bool {
	return s.SoldAt == nil
}

// AvailableSlot is the read model for browsing and for the batch engine's
// suggestion path: a slot joined with the lead columns buyers filter on.
type AvailableSlot struct {
	SlotID         uuid.UUID
	LeadID         uuid.UUID
	Bucket         Bucket
	CreatedAt      time.Time
	State          string
	County         string
	Classification Classification
}

// InventoryFilter narrows availability queries. Empty slices mean "any".
type InventoryFilter struct {
	Classifications []Classification
	Buckets         []Bucket
	States          []string
	Counties        []string
	IncludeSold     bool
}
