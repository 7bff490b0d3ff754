package postgres

import (
	"context"
	"fmt"

	"github.com/fairlead/lead-exchange/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SaleRepository is the append-only sale store. No update or delete exists.
type SaleRepository struct {
	pool *pgxpool.Pool
}

func NewSaleRepository(pool *pgxpool.Pool) *SaleRepository {
	return &SaleRepository{pool: pool}
}

func (r *SaleRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

// Insert records one sale. The unique constraint on inventory_id is the
// defensive backstop behind the allocation engine's locking discipline; a
// violation means the ledger invariant was broken upstream.
func (r *SaleRepository) Insert(ctx context.Context, sale domain.Sale) error {
	const stmt = `
INSERT INTO sales (id, inventory_id, lead_id, age_bucket, buyer_id, price, currency, sold_at, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.exec(ctx, stmt,
		sale.ID,
		sale.SlotID,
		sale.LeadID,
		string(sale.Bucket),
		sale.BuyerID,
		sale.Price,
		sale.Currency,
		sale.SoldAt,
		sale.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateSale
		}
		return fmt.Errorf("insert sale: %w", err)
	}
	return nil
}

// List returns sales oldest first, for the audit export.
func (r *SaleRepository) List(ctx context.Context, limit, offset int) ([]domain.Sale, error) {
	const query = `
SELECT id, inventory_id, lead_id, age_bucket, buyer_id, price, currency, sold_at, created_at
FROM sales
ORDER BY created_at, id
LIMIT $1 OFFSET $2`

	rows, err := r.query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	defer rows.Close()

	var sales []domain.Sale
	for rows.Next() {
		var s domain.Sale
		if err := rows.Scan(&s.ID, &s.SlotID, &s.LeadID, &s.Bucket, &s.BuyerID, &s.Price, &s.Currency, &s.SoldAt, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan sale: %w", err)
		}
		sales = append(sales, s)
	}
	return sales, rows.Err()
}

func (r *SaleRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *SaleRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}
