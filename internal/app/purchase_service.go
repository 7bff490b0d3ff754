package app

import (
	"context"
	"time"

	"github.com/fairlead/lead-exchange/internal/clock"
	"github.com/fairlead/lead-exchange/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BuyerDirectory answers purchase eligibility for a buyer account.
type BuyerDirectory interface {
	Get(ctx context.Context, buyerID uuid.UUID) (domain.Buyer, error)
}

// PurchaseLedger is the slice of the inventory ledger the single-slot path
// needs: one transaction, one exclusive row lock, one conditional transition.
type PurchaseLedger interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetSlotForUpdate(ctx context.Context, leadID uuid.UUID, bucket domain.Bucket) (domain.Slot, error)
	MarkSold(ctx context.Context, slotID uuid.UUID, soldAt time.Time) error
}

// SaleStore appends completed sales.
type SaleStore interface {
	Insert(ctx context.Context, sale domain.Sale) error
}

type PurchaseService struct {
	buyers BuyerDirectory
	slots  PurchaseLedger
	sales  SaleStore
	clock  clock.Clock
}

func NewPurchaseService(buyers BuyerDirectory, slots PurchaseLedger, sales SaleStore, clk clock.Clock) *PurchaseService {
	return &PurchaseService{
		buyers: buyers,
		slots:  slots,
		sales:  sales,
		clock:  clk,
	}
}

type PurchaseInput struct {
	LeadID  uuid.UUID
	Bucket  domain.Bucket
	BuyerID uuid.UUID
	Price   decimal.Decimal
	// Currency of Price; defaults to USD.
	Currency string
}

// Purchase sells one (lead, bucket) slot to one buyer, at most once, under
// arbitrary concurrency. The slot row is locked NOWAIT for the duration of
// the transaction: contenders for the same pair are serialized by the lock,
// the first committer wins, and everyone else observes ErrAlreadySold or
// ErrContended. Any failure rolls the whole unit back.
func (s *PurchaseService) Purchase(ctx context.Context, in PurchaseInput) (domain.Sale, error) {
	if !in.Bucket.Valid() {
		return domain.Sale{}, domain.ErrNotEligible
	}
	if in.Price.IsNegative() {
		return domain.Sale{}, domain.ErrInvalidQuantity
	}

	buyer, err := s.buyers.Get(ctx, in.BuyerID)
	if err != nil {
		return domain.Sale{}, err
	}
	if !buyer.CanPurchase() {
		return domain.Sale{}, domain.ErrBuyerNotEligible
	}

	currency := in.Currency
	if currency == "" {
		currency = "USD"
	}

	now := s.clock.Now()
	var sale domain.Sale

	err = s.slots.WithTx(ctx, func(txCtx context.Context) error {
		slot, err := s.slots.GetSlotForUpdate(txCtx, in.LeadID, in.Bucket)
		if err != nil {
			return err
		}
		if !slot.Available() {
			return domain.ErrAlreadySold
		}

		if err := s.slots.MarkSold(txCtx, slot.ID, now); err != nil {
			return err
		}

		sale = domain.Sale{
			ID:        uuid.New(),
			SlotID:    slot.ID,
			LeadID:    slot.LeadID,
			Bucket:    slot.Bucket,
			BuyerID:   in.BuyerID,
			Price:     in.Price,
			Currency:  currency,
			SoldAt:    now,
			CreatedAt: now,
		}
		return s.sales.Insert(txCtx, sale)
	})
	if err != nil {
		return domain.Sale{}, err
	}
	return sale, nil
}
