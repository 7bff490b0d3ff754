package domain

import "github.com/google/uuid"

type BuyerStatus string

const (
	BuyerStatusActive    BuyerStatus = "active"
	BuyerStatusSuspended BuyerStatus = "suspended"
	BuyerStatusClosed    BuyerStatus = "closed"
)

// Buyer is the purchasing account. Authentication happens elsewhere; the
// engine only needs the eligibility answer.
type Buyer struct {
	ID            uuid.UUID
	Email         string
	Status        BuyerStatus
	EmailVerified bool
}

// CanPurchase reports whether the buyer may allocate inventory.
func (b Buyer) CanPurchase() bool {
	return b.Status == BuyerStatusActive && b.EmailVerified
}
