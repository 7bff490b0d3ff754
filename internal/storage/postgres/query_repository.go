package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/fairlead/lead-exchange/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// QueryRepository is the read-only availability index. The batch engine's
// suggestion path and the browse endpoint both run through it, so what is
// suggested is what the write path would actually see.
type QueryRepository struct {
	pool *pgxpool.Pool
}

func NewQueryRepository(pool *pgxpool.Pool) *QueryRepository {
	return &QueryRepository{pool: pool}
}

func buildFilter(f domain.InventoryFilter) (string, []any) {
	conds := []string{"TRUE"}
	var args []any

	if !f.IncludeSold {
		conds = append(conds, "i.sold_at IS NULL")
	}
	if len(f.Buckets) > 0 {
		vals := make([]string, len(f.Buckets))
		for i, b := range f.Buckets {
			vals[i] = string(b)
		}
		args = append(args, vals)
		conds = append(conds, fmt.Sprintf("i.age_bucket = ANY($%d)", len(args)))
	}
	if len(f.Classifications) > 0 {
		vals := make([]string, len(f.Classifications))
		for i, c := range f.Classifications {
			vals[i] = string(c)
		}
		args = append(args, vals)
		conds = append(conds, fmt.Sprintf("l.classification = ANY($%d)", len(args)))
	}
	if len(f.States) > 0 {
		args = append(args, f.States)
		conds = append(conds, fmt.Sprintf("l.state = ANY($%d)", len(args)))
	}
	if len(f.Counties) > 0 {
		args = append(args, f.Counties)
		conds = append(conds, fmt.Sprintf("l.county = ANY($%d)", len(args)))
	}

	return strings.Join(conds, " AND "), args
}

// ListAvailable returns matching slots joined with lead filter columns, in
// ascending slot id order — the same total order the allocation engine uses.
func (r *QueryRepository) ListAvailable(ctx context.Context, f domain.InventoryFilter, limit, offset int) ([]domain.AvailableSlot, error) {
	where, args := buildFilter(f)
	args = append(args, limit, offset)
	query := fmt.Sprintf(`
SELECT i.id, i.lead_id, i.age_bucket, i.created_at, l.state, COALESCE(l.county, ''), l.classification
FROM inventory i
JOIN leads l ON l.id = i.lead_id
WHERE %s
ORDER BY i.id
LIMIT $%d OFFSET $%d`, where, len(args)-1, len(args))

	rows, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list available: %w", err)
	}
	defer rows.Close()

	var items []domain.AvailableSlot
	for rows.Next() {
		var it domain.AvailableSlot
		if err := rows.Scan(&it.SlotID, &it.LeadID, &it.Bucket, &it.CreatedAt, &it.State, &it.County, &it.Classification); err != nil {
			return nil, fmt.Errorf("scan available slot: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *QueryRepository) CountAvailable(ctx context.Context, f domain.InventoryFilter) (int, error) {
	where, args := buildFilter(f)
	query := fmt.Sprintf(`
SELECT COUNT(*)
FROM inventory i
JOIN leads l ON l.id = i.lead_id
WHERE %s`, where)

	var count int
	if err := r.queryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count available: %w", err)
	}
	return count, nil
}

// CountAvailableByBucket groups availability by bucket under the given
// filter (any Buckets in the filter are ignored). Buckets with no inventory
// are absent from the map.
func (r *QueryRepository) CountAvailableByBucket(ctx context.Context, f domain.InventoryFilter) (map[domain.Bucket]int, error) {
	f.Buckets = nil
	where, args := buildFilter(f)
	query := fmt.Sprintf(`
SELECT i.age_bucket, COUNT(*)
FROM inventory i
JOIN leads l ON l.id = i.lead_id
WHERE %s
GROUP BY i.age_bucket`, where)

	rows, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("count by bucket: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.Bucket]int)
	for rows.Next() {
		var bucket string
		var count int
		if err := rows.Scan(&bucket, &count); err != nil {
			return nil, fmt.Errorf("scan bucket count: %w", err)
		}
		counts[domain.Bucket(bucket)] = count
	}
	return counts, rows.Err()
}

func (r *QueryRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}

func (r *QueryRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}
