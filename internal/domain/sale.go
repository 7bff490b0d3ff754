package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Sale is the append-only audit record of one allocated slot. A sale's
// existence for a slot is equivalent to that slot's SoldAt being set; the
// allocation engine keeps the two consistent within one transaction.
type Sale struct {
	ID        uuid.UUID
	SlotID    uuid.UUID
	LeadID    uuid.UUID
	Bucket    Bucket
	BuyerID   uuid.UUID
	Price     decimal.Decimal
	Currency  string
	SoldAt    time.Time
	CreatedAt time.Time
}
