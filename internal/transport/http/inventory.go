package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fairlead/lead-exchange/internal/domain"
)

// InventoryBrowser is the read-only availability index exposed for browsing.
type InventoryBrowser interface {
	ListAvailable(ctx context.Context, f domain.InventoryFilter, limit, offset int) ([]domain.AvailableSlot, error)
	CountAvailableByBucket(ctx context.Context, f domain.InventoryFilter) (map[domain.Bucket]int, error)
}

type availableSlotResponse struct {
	SlotID         string    `json:"slot_id"`
	LeadID         string    `json:"lead_id"`
	Bucket         string    `json:"bucket"`
	CreatedAt      time.Time `json:"created_at"`
	State          string    `json:"state"`
	County         string    `json:"county,omitempty"`
	Classification string    `json:"classification"`
}

const (
	defaultBrowseLimit = 100
	maxBrowseLimit     = 1000
)

// HandleListInventory browses available slots. Filters come from query
// params: classification, bucket, state, county (comma-separated lists).
func HandleListInventory(browser InventoryBrowser) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := filterFromQuery(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, err.Error())
			return
		}

		limit := intQueryParam(r, "limit", defaultBrowseLimit)
		if limit <= 0 || limit > maxBrowseLimit {
			limit = defaultBrowseLimit
		}
		offset := intQueryParam(r, "offset", 0)
		if offset < 0 {
			offset = 0
		}

		items, err := browser.ListAvailable(r.Context(), filter, limit, offset)
		if err != nil {
			respondDomainError(w, err)
			return
		}

		resp := make([]availableSlotResponse, 0, len(items))
		for _, it := range items {
			resp = append(resp, availableSlotResponse{
				SlotID:         it.SlotID.String(),
				LeadID:         it.LeadID.String(),
				Bucket:         string(it.Bucket),
				CreatedAt:      it.CreatedAt,
				State:          it.State,
				County:         it.County,
				Classification: string(it.Classification),
			})
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}

// HandleInventoryCounts reports available counts grouped by bucket.
func HandleInventoryCounts(browser InventoryBrowser) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := filterFromQuery(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, err.Error())
			return
		}

		counts, err := browser.CountAvailableByBucket(r.Context(), filter)
		if err != nil {
			respondDomainError(w, err)
			return
		}

		resp := make(map[string]int, len(counts))
		for bucket, n := range counts {
			resp[string(bucket)] = n
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func filterFromQuery(r *http.Request) (domain.InventoryFilter, error) {
	var f domain.InventoryFilter

	for _, raw := range splitQueryParam(r, "classification") {
		c := domain.Classification(raw)
		if !c.Valid() {
			return domain.InventoryFilter{}, errInvalidQueryValue("classification", raw)
		}
		f.Classifications = append(f.Classifications, c)
	}
	for _, raw := range splitQueryParam(r, "bucket") {
		b := domain.Bucket(raw)
		if !b.Valid() {
			return domain.InventoryFilter{}, errInvalidQueryValue("bucket", raw)
		}
		f.Buckets = append(f.Buckets, b)
	}
	f.States = splitQueryParam(r, "state")
	f.Counties = splitQueryParam(r, "county")
	return f, nil
}

func splitQueryParam(r *http.Request, name string) []string {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func intQueryParam(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

type queryValueError struct {
	param, value string
}

func errInvalidQueryValue(param, value string) error {
	return queryValueError{param: param, value: value}
}

func (e queryValueError) Error() string {
	return "invalid " + e.param + ": " + e.value
}
