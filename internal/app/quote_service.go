package app

import (
	"context"

	"github.com/fairlead/lead-exchange/internal/domain"
	"github.com/shopspring/decimal"
)

// PricingLookup supplies the unit price per (classification, bucket). The
// allocation engine never computes prices itself.
type PricingLookup interface {
	Price(ctx context.Context, classification domain.Classification, bucket domain.Bucket) (decimal.Decimal, string, error)
}

type QuoteService struct {
	prices PricingLookup
}

func NewQuoteService(prices PricingLookup) *QuoteService {
	return &QuoteService{prices: prices}
}

type QuoteRequest struct {
	Classification domain.Classification
	Bucket         domain.Bucket
	Quantity       int
}

type QuoteLine struct {
	Classification domain.Classification
	Bucket         domain.Bucket
	Quantity       int
	UnitPrice      decimal.Decimal
	LineTotal      decimal.Decimal
}

type Quote struct {
	Lines    []QuoteLine
	Subtotal decimal.Decimal
	Currency string
}

// Quote prices a prospective batch. Advisory only: no inventory is checked
// or reserved here.
func (s *QuoteService) Quote(ctx context.Context, reqs []QuoteRequest) (Quote, error) {
	if len(reqs) == 0 {
		return Quote{}, domain.ErrEmptyCriteria
	}

	quote := Quote{Subtotal: decimal.Zero}
	for _, req := range reqs {
		if req.Quantity <= 0 {
			return Quote{}, domain.ErrInvalidQuantity
		}
		unit, currency, err := s.prices.Price(ctx, req.Classification, req.Bucket)
		if err != nil {
			return Quote{}, err
		}
		if quote.Currency == "" {
			quote.Currency = currency
		}
		line := QuoteLine{
			Classification: req.Classification,
			Bucket:         req.Bucket,
			Quantity:       req.Quantity,
			UnitPrice:      unit,
			LineTotal:      unit.Mul(decimal.NewFromInt(int64(req.Quantity))),
		}
		quote.Lines = append(quote.Lines, line)
		quote.Subtotal = quote.Subtotal.Add(line.LineTotal)
	}
	return quote, nil
}
