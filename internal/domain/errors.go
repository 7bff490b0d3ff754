package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidTimestamp = errors.New("timestamp must be UTC (offset 0)")
	ErrUnknownLead      = errors.New("unknown lead")
	ErrBuyerNotEligible = errors.New("buyer not eligible to purchase")
	ErrNotEligible      = errors.New("no inventory slot for (lead, bucket)")
	ErrAlreadySold      = errors.New("inventory slot already sold")
	ErrContended        = errors.New("inventory slot locked by a concurrent purchase")
	ErrDuplicateSale    = errors.New("sale already recorded for inventory slot")
	ErrInvalidID        = errors.New("invalid id")
	ErrInvalidQuantity  = errors.New("invalid quantity")
	ErrEmptyCriteria    = errors.New("at least one criterion is required")
	ErrPriceNotFound    = errors.New("no price for (classification, bucket)")
)

// InsufficientInventoryError reports a batch criterion that could not be
// fully satisfied, together with read-only alternative suggestions. The
// failed batch mutates nothing.
type InsufficientInventoryError struct {
	CriterionIndex int
	Criterion      Criterion
	Requested      int
	Available      int
	Alternatives   []Suggestion
}

func (e *InsufficientInventoryError) Error() string {
	return fmt.Sprintf("insufficient inventory for %s: requested %d, available %d",
		e.Criterion, e.Requested, e.Available)
}
