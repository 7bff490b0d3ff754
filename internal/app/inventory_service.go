package app

import (
	"context"
	"sync"
	"time"

	"github.com/fairlead/lead-exchange/internal/clock"
	"github.com/fairlead/lead-exchange/internal/domain"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// LeadDirectory is the read-only lead source.
type LeadDirectory interface {
	Get(ctx context.Context, leadID uuid.UUID) (domain.Lead, error)
	ListSellableAsOf(ctx context.Context, asOf time.Time, limit, offset int) ([]domain.Lead, error)
}

// SlotWriter is the slot-creation slice of the ledger.
type SlotWriter interface {
	EnsureSlot(ctx context.Context, leadID uuid.UUID, bucket domain.Bucket, now time.Time) (uuid.UUID, bool, error)
}

// InventoryService owns slot creation. Slots can be created lazily
// (EnsureSlot, EnsureCurrentSlot) or eagerly in bulk (GenerateInventory);
// both funnel into the same idempotent insert, so the uniqueness invariant
// holds regardless of which trigger runs first.
type InventoryService struct {
	leads LeadDirectory
	slots SlotWriter
	clock clock.Clock

	// generateWorkers bounds the eager sweep's concurrency.
	generateWorkers int
	pageSize        int
}

func NewInventoryService(leads LeadDirectory, slots SlotWriter, clk clock.Clock, opts ...InventoryServiceOption) *InventoryService {
	svc := &InventoryService{
		leads:           leads,
		slots:           slots,
		clock:           clk,
		generateWorkers: 8,
		pageSize:        1000,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type InventoryServiceOption func(*InventoryService)

func WithGenerateWorkers(n int) InventoryServiceOption {
	return func(s *InventoryService) {
		if n > 0 {
			s.generateWorkers = n
		}
	}
}

func WithGeneratePageSize(n int) InventoryServiceOption {
	return func(s *InventoryService) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// EnsureSlot idempotently creates the slot for an explicit (lead, bucket)
// pair. The lead must exist; its classification is irrelevant here.
func (s *InventoryService) EnsureSlot(ctx context.Context, leadID uuid.UUID, bucket domain.Bucket) (uuid.UUID, error) {
	if !bucket.Valid() {
		return uuid.Nil, domain.ErrNotEligible
	}
	if _, err := s.leads.Get(ctx, leadID); err != nil {
		return uuid.Nil, err
	}
	id, _, err := s.slots.EnsureSlot(ctx, leadID, bucket, s.clock.Now())
	return id, err
}

// EnsureCurrentSlot resolves the bucket the lead occupies right now and
// ensures its slot. ErrNotEligible when the lead is not yet sellable.
func (s *InventoryService) EnsureCurrentSlot(ctx context.Context, leadID uuid.UUID) (uuid.UUID, domain.Bucket, error) {
	lead, err := s.leads.Get(ctx, leadID)
	if err != nil {
		return uuid.Nil, "", err
	}

	now := s.clock.Now()
	bucket, ok, err := domain.ResolveBucket(lead.CreatedAt.UTC(), now)
	if err != nil {
		return uuid.Nil, "", err
	}
	if !ok {
		return uuid.Nil, "", domain.ErrNotEligible
	}

	id, _, err := s.slots.EnsureSlot(ctx, leadID, bucket, now)
	return id, bucket, err
}

type GenerateStats struct {
	LeadsScanned  int
	SlotsCreated  int
	AlreadyExists int
}

// GenerateInventory sweeps every sellable lead and ensures the slot for its
// current bucket, the eager equivalent of a nightly cron run. Pages of leads
// are processed with bounded concurrency; EnsureSlot's conflict handling
// makes a concurrent lazy caller harmless.
func (s *InventoryService) GenerateInventory(ctx context.Context) (GenerateStats, error) {
	now := s.clock.Now()

	var (
		mu    sync.Mutex
		stats GenerateStats
	)

	for offset := 0; ; offset += s.pageSize {
		leads, err := s.leads.ListSellableAsOf(ctx, now, s.pageSize, offset)
		if err != nil {
			return GenerateStats{}, err
		}
		if len(leads) == 0 {
			break
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(s.generateWorkers)
		for _, lead := range leads {
			lead := lead
			g.Go(func() error {
				bucket, ok, err := domain.ResolveBucket(lead.CreatedAt.UTC(), now)
				if err != nil {
					return err
				}
				if !ok {
					return nil
				}
				_, created, err := s.slots.EnsureSlot(gctx, lead.ID, bucket, now)
				if err != nil {
					return err
				}
				mu.Lock()
				if created {
					stats.SlotsCreated++
				} else {
					stats.AlreadyExists++
				}
				mu.Unlock()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return GenerateStats{}, err
		}

		mu.Lock()
		stats.LeadsScanned += len(leads)
		mu.Unlock()

		if len(leads) < s.pageSize {
			break
		}
	}
	return stats, nil
}
