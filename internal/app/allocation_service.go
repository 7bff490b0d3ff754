package app

import (
	"context"
	"errors"
	"time"

	"github.com/fairlead/lead-exchange/internal/clock"
	"github.com/fairlead/lead-exchange/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AllocationLedger is the batch path's view of the inventory ledger.
type AllocationLedger interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	SelectAvailableForUpdate(ctx context.Context, c domain.Criterion, limit int) ([]domain.Slot, error)
	MarkSold(ctx context.Context, slotID uuid.UUID, soldAt time.Time) error
}

// AvailabilityIndex is the read-only side used for suggestions. It must be
// the same index the write path selects from, so suggested counts match what
// an immediate retry would find.
type AvailabilityIndex interface {
	CountAvailable(ctx context.Context, f domain.InventoryFilter) (int, error)
	CountAvailableByBucket(ctx context.Context, f domain.InventoryFilter) (map[domain.Bucket]int, error)
}

type AllocationService struct {
	buyers BuyerDirectory
	slots  AllocationLedger
	sales  SaleStore
	avail  AvailabilityIndex
	clock  clock.Clock
}

func NewAllocationService(buyers BuyerDirectory, slots AllocationLedger, sales SaleStore, avail AvailabilityIndex, clk clock.Clock) *AllocationService {
	return &AllocationService{
		buyers: buyers,
		slots:  slots,
		sales:  sales,
		avail:  avail,
		clock:  clk,
	}
}

// BatchCriterion pairs a selection criterion with the unit price the caller
// was quoted. The engine stores the price it is given; it does not compute
// pricing.
type BatchCriterion struct {
	domain.Criterion
	UnitPrice decimal.Decimal
	Currency  string
}

type BatchInput struct {
	BuyerID  uuid.UUID
	Criteria []BatchCriterion
}

type BatchResult struct {
	Sales []domain.Sale
	Total decimal.Decimal
}

// shortfall carries an unsatisfiable criterion out of the transaction so the
// rollback happens before any suggestion query runs.
type shortfall struct {
	index     int
	available int
}

func (shortfall) Error() string { return "insufficient inventory" }

// PurchaseBatch allocates every criterion in one all-or-nothing transaction.
// Slots are selected in ascending slot id order and locked NOWAIT; if any
// criterion cannot be fully satisfied, or any selected slot is locked by a
// concurrent batch, the whole transaction rolls back with nothing mutated.
// Insufficient inventory is reported with read-only alternative suggestions
// computed after the rollback.
func (s *AllocationService) PurchaseBatch(ctx context.Context, in BatchInput) (BatchResult, error) {
	if len(in.Criteria) == 0 {
		return BatchResult{}, domain.ErrEmptyCriteria
	}
	for _, c := range in.Criteria {
		if c.Quantity <= 0 {
			return BatchResult{}, domain.ErrInvalidQuantity
		}
		if !c.Bucket.Valid() || !c.Classification.Valid() {
			return BatchResult{}, domain.ErrInvalidQuantity
		}
	}

	buyer, err := s.buyers.Get(ctx, in.BuyerID)
	if err != nil {
		return BatchResult{}, err
	}
	if !buyer.CanPurchase() {
		return BatchResult{}, domain.ErrBuyerNotEligible
	}

	now := s.clock.Now()
	var result BatchResult
	result.Total = decimal.Zero

	err = s.slots.WithTx(ctx, func(txCtx context.Context) error {
		for i, c := range in.Criteria {
			locked, err := s.slots.SelectAvailableForUpdate(txCtx, c.Criterion, c.Quantity)
			if err != nil {
				return err
			}
			if len(locked) < c.Quantity {
				return shortfall{index: i, available: len(locked)}
			}

			currency := c.Currency
			if currency == "" {
				currency = "USD"
			}
			for _, slot := range locked {
				if err := s.slots.MarkSold(txCtx, slot.ID, now); err != nil {
					return err
				}
				sale := domain.Sale{
					ID:        uuid.New(),
					SlotID:    slot.ID,
					LeadID:    slot.LeadID,
					Bucket:    slot.Bucket,
					BuyerID:   in.BuyerID,
					Price:     c.UnitPrice,
					Currency:  currency,
					SoldAt:    now,
					CreatedAt: now,
				}
				if err := s.sales.Insert(txCtx, sale); err != nil {
					return err
				}
				result.Sales = append(result.Sales, sale)
				result.Total = result.Total.Add(c.UnitPrice)
			}
		}
		return nil
	})
	if err != nil {
		var sf shortfall
		if errors.As(err, &sf) {
			c := in.Criteria[sf.index]
			return BatchResult{}, &domain.InsufficientInventoryError{
				CriterionIndex: sf.index,
				Criterion:      c.Criterion,
				Requested:      c.Quantity,
				Available:      sf.available,
				Alternatives:   s.suggestions(ctx, c.Criterion, sf.available),
			}
		}
		return BatchResult{}, err
	}
	return result, nil
}

// suggestions computes advisory alternatives for an unsatisfiable criterion.
// Pure reads over the availability index; nothing is locked or reserved.
func (s *AllocationService) suggestions(ctx context.Context, c domain.Criterion, available int) []domain.Suggestion {
	var out []domain.Suggestion

	if available > 0 {
		out = append(out, domain.Suggestion{Kind: domain.SuggestionPartial, Available: available})
	}

	if c.State != "" || c.County != "" {
		noGeo := c
		noGeo.State = ""
		noGeo.County = ""
		if count, err := s.avail.CountAvailable(ctx, noGeo.Filter()); err == nil {
			out = append(out, domain.Suggestion{Kind: domain.SuggestionDropGeography, Available: count})
		}
	}

	geoFilter := c.Filter()
	geoFilter.Buckets = nil
	counts, err := s.avail.CountAvailableByBucket(ctx, geoFilter)
	if err != nil {
		return out
	}
	for _, b := range domain.Buckets() {
		if b == c.Bucket {
			continue
		}
		if n := counts[b]; n > 0 {
			out = append(out, domain.Suggestion{Kind: domain.SuggestionOtherBucket, Bucket: b, Available: n})
		}
	}
	return out
}
