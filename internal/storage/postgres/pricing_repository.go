package postgres

import (
	"context"
	"fmt"

	"github.com/fairlead/lead-exchange/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PricingRepository looks prices up from the price book. Managing the book
// is out of scope; callers consult it before invoking the allocation engine.
type PricingRepository struct {
	pool *pgxpool.Pool
}

func NewPricingRepository(pool *pgxpool.Pool) *PricingRepository {
	return &PricingRepository{pool: pool}
}

func (r *PricingRepository) Price(ctx context.Context, classification domain.Classification, bucket domain.Bucket) (decimal.Decimal, string, error) {
	const query = `SELECT price, currency FROM price_book WHERE classification = $1 AND age_bucket = $2`

	var price decimal.Decimal
	var currency string
	err := r.queryRow(ctx, query, string(classification), string(bucket)).Scan(&price, &currency)
	if err != nil {
		if err == pgx.ErrNoRows {
			return decimal.Zero, "", domain.ErrPriceNotFound
		}
		return decimal.Zero, "", fmt.Errorf("get price: %w", err)
	}
	return price, currency, nil
}

func (r *PricingRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}
