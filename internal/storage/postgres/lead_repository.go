package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/fairlead/lead-exchange/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// LeadRepository is read-only: leads are owned by the ingestion pipeline.
type LeadRepository struct {
	pool *pgxpool.Pool
}

func NewLeadRepository(pool *pgxpool.Pool) *LeadRepository {
	return &LeadRepository{pool: pool}
}

func (r *LeadRepository) Get(ctx context.Context, leadID uuid.UUID) (domain.Lead, error) {
	const query = `
SELECT id, source, state, COALESCE(county, ''), COALESCE(city, ''), COALESCE(zip, ''), classification, created_at
FROM leads
WHERE id = $1`

	var l domain.Lead
	err := r.queryRow(ctx, query, leadID).
		Scan(&l.ID, &l.Source, &l.State, &l.County, &l.City, &l.Zip, &l.Classification, &l.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Lead{}, domain.ErrUnknownLead
		}
		return domain.Lead{}, fmt.Errorf("get lead: %w", err)
	}
	return l, nil
}

// ListSellableAsOf pages through leads old enough to occupy some bucket at
// asOf (created at least 90 days earlier), oldest id first.
func (r *LeadRepository) ListSellableAsOf(ctx context.Context, asOf time.Time, limit, offset int) ([]domain.Lead, error) {
	cutoff := asOf.Add(-90 * 24 * time.Hour)

	const query = `
SELECT id, source, state, COALESCE(county, ''), COALESCE(city, ''), COALESCE(zip, ''), classification, created_at
FROM leads
WHERE created_at <= $1
ORDER BY id
LIMIT $2 OFFSET $3`

	rows, err := r.query(ctx, query, cutoff, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list sellable leads: %w", err)
	}
	defer rows.Close()

	var leads []domain.Lead
	for rows.Next() {
		var l domain.Lead
		if err := rows.Scan(&l.ID, &l.Source, &l.State, &l.County, &l.City, &l.Zip, &l.Classification, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}
		leads = append(leads, l)
	}
	return leads, rows.Err()
}

func (r *LeadRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}

func (r *LeadRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}
