package postgres

import (
	"context"
	"fmt"

	"github.com/fairlead/lead-exchange/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// BuyerRepository backs the account-status collaborator. Account lifecycle
// is managed elsewhere; allocation only reads it.
type BuyerRepository struct {
	pool *pgxpool.Pool
}

func NewBuyerRepository(pool *pgxpool.Pool) *BuyerRepository {
	return &BuyerRepository{pool: pool}
}

// Get returns the buyer, or ErrBuyerNotEligible when no such account exists:
// an unknown buyer is never purchasing-eligible.
func (r *BuyerRepository) Get(ctx context.Context, buyerID uuid.UUID) (domain.Buyer, error) {
	const query = `SELECT id, email, status, email_verified FROM buyers WHERE id = $1`

	var b domain.Buyer
	err := r.queryRow(ctx, query, buyerID).Scan(&b.ID, &b.Email, &b.Status, &b.EmailVerified)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Buyer{}, domain.ErrBuyerNotEligible
		}
		return domain.Buyer{}, fmt.Errorf("get buyer: %w", err)
	}
	return b, nil
}

func (r *BuyerRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}
