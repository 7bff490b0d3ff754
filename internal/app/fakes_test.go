package app

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fairlead/lead-exchange/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type fakeBuyers struct {
	buyers map[uuid.UUID]domain.Buyer
}

func newFakeBuyers(buyers ...domain.Buyer) *fakeBuyers {
	m := make(map[uuid.UUID]domain.Buyer, len(buyers))
	for _, b := range buyers {
		m[b.ID] = b
	}
	return &fakeBuyers{buyers: m}
}

func (f *fakeBuyers) Get(_ context.Context, buyerID uuid.UUID) (domain.Buyer, error) {
	b, ok := f.buyers[buyerID]
	if !ok {
		return domain.Buyer{}, domain.ErrBuyerNotEligible
	}
	return b, nil
}

type memSlot struct {
	slot domain.Slot
	lead domain.Lead
	seq  int
}

// memLedger is an in-memory stand-in for the Postgres ledger. WithTx holds
// the mutex for the whole callback and restores a snapshot when the callback
// errors, mirroring serialized transactions with rollback.
type memLedger struct {
	mu    sync.Mutex
	slots []*memSlot
	sales []domain.Sale
	seq   int

	selectErr error
	insertErr error
}

func newMemLedger() *memLedger {
	return &memLedger{}
}

func (m *memLedger) addSlot(lead domain.Lead, bucket domain.Bucket) uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	s := &memSlot{
		slot: domain.Slot{
			ID:        uuid.New(),
			LeadID:    lead.ID,
			Bucket:    bucket,
			CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		lead: lead,
		seq:  m.seq,
	}
	m.slots = append(m.slots, s)
	return s.slot.ID
}

func (m *memLedger) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := make([]*memSlot, len(m.slots))
	for i, s := range m.slots {
		cp := *s
		if s.slot.SoldAt != nil {
			soldAt := *s.slot.SoldAt
			cp.slot.SoldAt = &soldAt
		}
		snapshot[i] = &cp
	}
	salesSnapshot := append([]domain.Sale(nil), m.sales...)

	if err := fn(ctx); err != nil {
		m.slots = snapshot
		m.sales = salesSnapshot
		return err
	}
	return nil
}

func (m *memLedger) GetSlotForUpdate(_ context.Context, leadID uuid.UUID, bucket domain.Bucket) (domain.Slot, error) {
	for _, s := range m.slots {
		if s.slot.LeadID == leadID && s.slot.Bucket == bucket {
			return s.slot, nil
		}
	}
	return domain.Slot{}, domain.ErrNotEligible
}

func (m *memLedger) MarkSold(_ context.Context, slotID uuid.UUID, soldAt time.Time) error {
	for _, s := range m.slots {
		if s.slot.ID != slotID {
			continue
		}
		if s.slot.SoldAt != nil {
			return domain.ErrAlreadySold
		}
		t := soldAt
		s.slot.SoldAt = &t
		return nil
	}
	return domain.ErrNotEligible
}

func (m *memLedger) SelectAvailableForUpdate(_ context.Context, c domain.Criterion, limit int) ([]domain.Slot, error) {
	if m.selectErr != nil {
		return nil, m.selectErr
	}
	matched := m.match(c.Filter())
	if len(matched) > limit {
		matched = matched[:limit]
	}
	out := make([]domain.Slot, len(matched))
	for i, s := range matched {
		out[i] = s.slot
	}
	return out, nil
}

func (m *memLedger) CountAvailable(_ context.Context, f domain.InventoryFilter) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.match(f)), nil
}

func (m *memLedger) CountAvailableByBucket(_ context.Context, f domain.InventoryFilter) (map[domain.Bucket]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f.Buckets = nil
	counts := make(map[domain.Bucket]int)
	for _, s := range m.match(f) {
		counts[s.slot.Bucket]++
	}
	return counts, nil
}

func (m *memLedger) match(f domain.InventoryFilter) []*memSlot {
	var out []*memSlot
	for _, s := range m.slots {
		if !f.IncludeSold && s.slot.SoldAt != nil {
			continue
		}
		if len(f.Classifications) > 0 && !containsClassification(f.Classifications, s.lead.Classification) {
			continue
		}
		if len(f.Buckets) > 0 && !containsBucket(f.Buckets, s.slot.Bucket) {
			continue
		}
		if len(f.States) > 0 && !containsString(f.States, s.lead.State) {
			continue
		}
		if len(f.Counties) > 0 && !containsString(f.Counties, s.lead.County) {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}

func (m *memLedger) Insert(_ context.Context, sale domain.Sale) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	for _, existing := range m.sales {
		if existing.SlotID == sale.SlotID {
			return domain.ErrDuplicateSale
		}
	}
	m.sales = append(m.sales, sale)
	return nil
}

func containsClassification(haystack []domain.Classification, needle domain.Classification) bool {
	for _, c := range haystack {
		if c == needle {
			return true
		}
	}
	return false
}

func containsBucket(haystack []domain.Bucket, needle domain.Bucket) bool {
	for _, b := range haystack {
		if b == needle {
			return true
		}
	}
	return false
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

type fakeLeads struct {
	leads []domain.Lead
}

func (f *fakeLeads) Get(_ context.Context, leadID uuid.UUID) (domain.Lead, error) {
	for _, l := range f.leads {
		if l.ID == leadID {
			return l, nil
		}
	}
	return domain.Lead{}, domain.ErrUnknownLead
}

func (f *fakeLeads) ListSellableAsOf(_ context.Context, asOf time.Time, limit, offset int) ([]domain.Lead, error) {
	cutoff := asOf.Add(-90 * 24 * time.Hour)
	var sellable []domain.Lead
	for _, l := range f.leads {
		if !l.CreatedAt.After(cutoff) {
			sellable = append(sellable, l)
		}
	}
	if offset >= len(sellable) {
		return nil, nil
	}
	sellable = sellable[offset:]
	if len(sellable) > limit {
		sellable = sellable[:limit]
	}
	return sellable, nil
}

type memSlotWriter struct {
	mu    sync.Mutex
	slots map[string]uuid.UUID // leadID + bucket
	err   error
}

func newMemSlotWriter() *memSlotWriter {
	return &memSlotWriter{slots: make(map[string]uuid.UUID)}
}

func (m *memSlotWriter) EnsureSlot(_ context.Context, leadID uuid.UUID, bucket domain.Bucket, _ time.Time) (uuid.UUID, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return uuid.Nil, false, m.err
	}
	key := leadID.String() + "/" + string(bucket)
	if id, ok := m.slots[key]; ok {
		return id, false, nil
	}
	id := uuid.New()
	m.slots[key] = id
	return id, true, nil
}

type priceKey struct {
	classification domain.Classification
	bucket         domain.Bucket
}

type fakePrices struct {
	prices map[priceKey]decimal.Decimal
}

func newFakePrices() *fakePrices {
	return &fakePrices{prices: make(map[priceKey]decimal.Decimal)}
}

func (f *fakePrices) set(c domain.Classification, b domain.Bucket, price string) {
	f.prices[priceKey{c, b}] = decimal.RequireFromString(price)
}

func (f *fakePrices) Price(_ context.Context, c domain.Classification, b domain.Bucket) (decimal.Decimal, string, error) {
	p, ok := f.prices[priceKey{c, b}]
	if !ok {
		return decimal.Zero, "", domain.ErrPriceNotFound
	}
	return p, "USD", nil
}
