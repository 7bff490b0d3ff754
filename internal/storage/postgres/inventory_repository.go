package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/fairlead/lead-exchange/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// InventoryRepository persists inventory slots. The unique constraint on
// (lead_id, age_bucket) guarantees at most one slot per pair; the
// conditional update in MarkSold is the slot's only state transition.
type InventoryRepository struct {
	pool *pgxpool.Pool
}

func NewInventoryRepository(pool *pgxpool.Pool) *InventoryRepository {
	return &InventoryRepository{pool: pool}
}

func (r *InventoryRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

// EnsureSlot creates the slot for (leadID, bucket) if none exists and
// returns its id either way. Concurrent callers for the same pair race on
// the unique constraint; the loser re-reads the winner's row, so losing is
// success, not an error.
func (r *InventoryRepository) EnsureSlot(ctx context.Context, leadID uuid.UUID, bucket domain.Bucket, now time.Time) (uuid.UUID, bool, error) {
	const insert = `
INSERT INTO inventory (id, lead_id, age_bucket, created_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (lead_id, age_bucket) DO NOTHING
RETURNING id`

	var id uuid.UUID
	err := r.queryRow(ctx, insert, uuid.New(), leadID, string(bucket), now).Scan(&id)
	if err == nil {
		return id, true, nil
	}
	if err != pgx.ErrNoRows {
		if isForeignKeyViolation(err) {
			return uuid.Nil, false, domain.ErrUnknownLead
		}
		if isInvalidUUID(err) {
			return uuid.Nil, false, domain.ErrInvalidID
		}
		return uuid.Nil, false, fmt.Errorf("ensure slot: %w", err)
	}

	const reselect = `SELECT id FROM inventory WHERE lead_id = $1 AND age_bucket = $2`
	if err := r.queryRow(ctx, reselect, leadID, string(bucket)).Scan(&id); err != nil {
		return uuid.Nil, false, fmt.Errorf("ensure slot reselect: %w", err)
	}
	return id, false, nil
}

// GetSlotForUpdate locks the (leadID, bucket) slot row exclusively without
// waiting. A held lock surfaces as ErrContended; a missing row as
// ErrNotEligible.
func (r *InventoryRepository) GetSlotForUpdate(ctx context.Context, leadID uuid.UUID, bucket domain.Bucket) (domain.Slot, error) {
	const query = `
SELECT id, lead_id, age_bucket, created_at, sold_at
FROM inventory
WHERE lead_id = $1 AND age_bucket = $2
FOR UPDATE NOWAIT`

	var s domain.Slot
	err := r.queryRow(ctx, query, leadID, string(bucket)).
		Scan(&s.ID, &s.LeadID, &s.Bucket, &s.CreatedAt, &s.SoldAt)
	if err != nil {
		if isLockNotAvailable(err) {
			return domain.Slot{}, domain.ErrContended
		}
		if err == pgx.ErrNoRows {
			return domain.Slot{}, domain.ErrNotEligible
		}
		if isInvalidUUID(err) {
			return domain.Slot{}, domain.ErrInvalidID
		}
		return domain.Slot{}, fmt.Errorf("get slot for update: %w", err)
	}
	return s, nil
}

// GetSlot reads a slot without locking it.
func (r *InventoryRepository) GetSlot(ctx context.Context, leadID uuid.UUID, bucket domain.Bucket) (domain.Slot, error) {
	const query = `
SELECT id, lead_id, age_bucket, created_at, sold_at
FROM inventory
WHERE lead_id = $1 AND age_bucket = $2`

	var s domain.Slot
	err := r.queryRow(ctx, query, leadID, string(bucket)).
		Scan(&s.ID, &s.LeadID, &s.Bucket, &s.CreatedAt, &s.SoldAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Slot{}, domain.ErrNotEligible
		}
		return domain.Slot{}, fmt.Errorf("get slot: %w", err)
	}
	return s, nil
}

// MarkSold sets sold_at exactly once. The sold_at IS NULL guard keeps the
// transition append-only: a second attempt updates zero rows and is reported
// as ErrAlreadySold.
func (r *InventoryRepository) MarkSold(ctx context.Context, slotID uuid.UUID, soldAt time.Time) error {
	const stmt = `UPDATE inventory SET sold_at = $2 WHERE id = $1 AND sold_at IS NULL`

	tag, err := r.exec(ctx, stmt, slotID, soldAt)
	if err != nil {
		return fmt.Errorf("mark sold: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var exists bool
	if err := r.queryRow(ctx, `SELECT EXISTS (SELECT 1 FROM inventory WHERE id = $1)`, slotID).Scan(&exists); err != nil {
		return fmt.Errorf("mark sold recheck: %w", err)
	}
	if exists {
		return domain.ErrAlreadySold
	}
	return domain.ErrNotEligible
}

// SelectAvailableForUpdate locks up to limit available slots matching the
// criterion, in ascending slot id order. The ORDER BY makes batch selection
// deterministic: two identical requests against identical inventory pick the
// same slots. Only inventory rows are locked, NOWAIT, so a concurrent batch
// touching any selected slot fails fast with ErrContended.
func (r *InventoryRepository) SelectAvailableForUpdate(ctx context.Context, c domain.Criterion, limit int) ([]domain.Slot, error) {
	query := `
SELECT i.id, i.lead_id, i.age_bucket, i.created_at, i.sold_at
FROM inventory i
JOIN leads l ON l.id = i.lead_id
WHERE i.sold_at IS NULL
  AND i.age_bucket = $1
  AND l.classification = $2`
	args := []any{string(c.Bucket), string(c.Classification)}

	if c.State != "" {
		args = append(args, c.State)
		query += fmt.Sprintf(" AND l.state = $%d", len(args))
	}
	if c.County != "" {
		args = append(args, c.County)
		query += fmt.Sprintf(" AND l.county = $%d", len(args))
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY i.id LIMIT $%d FOR UPDATE OF i NOWAIT", len(args))

	rows, err := r.query(ctx, query, args...)
	if err != nil {
		if isLockNotAvailable(err) {
			return nil, domain.ErrContended
		}
		return nil, fmt.Errorf("select available for update: %w", err)
	}
	defer rows.Close()

	var slots []domain.Slot
	for rows.Next() {
		var s domain.Slot
		if err := rows.Scan(&s.ID, &s.LeadID, &s.Bucket, &s.CreatedAt, &s.SoldAt); err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		slots = append(slots, s)
	}
	if err := rows.Err(); err != nil {
		if isLockNotAvailable(err) {
			return nil, domain.ErrContended
		}
		return nil, fmt.Errorf("select available for update: %w", err)
	}
	return slots, nil
}

// ListByLead returns every slot recorded for a lead, oldest bucket first.
func (r *InventoryRepository) ListByLead(ctx context.Context, leadID uuid.UUID) ([]domain.Slot, error) {
	const query = `
SELECT id, lead_id, age_bucket, created_at, sold_at
FROM inventory
WHERE lead_id = $1
ORDER BY created_at, id`

	rows, err := r.query(ctx, query, leadID)
	if err != nil {
		return nil, fmt.Errorf("list slots by lead: %w", err)
	}
	defer rows.Close()

	var slots []domain.Slot
	for rows.Next() {
		var s domain.Slot
		if err := rows.Scan(&s.ID, &s.LeadID, &s.Bucket, &s.CreatedAt, &s.SoldAt); err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		slots = append(slots, s)
	}
	return slots, rows.Err()
}

func (r *InventoryRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *InventoryRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}

func (r *InventoryRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}
