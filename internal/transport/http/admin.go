package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/fairlead/lead-exchange/internal/app"
	"github.com/fairlead/lead-exchange/internal/domain"
	"github.com/fairlead/lead-exchange/internal/export"
	"github.com/google/uuid"
)

// SlotEnsurer creates inventory slots on demand (the lazy trigger).
type SlotEnsurer interface {
	EnsureSlot(ctx context.Context, leadID uuid.UUID, bucket domain.Bucket) (uuid.UUID, error)
	EnsureCurrentSlot(ctx context.Context, leadID uuid.UUID) (uuid.UUID, domain.Bucket, error)
}

// InventoryGenerator runs the eager bulk sweep (the cron-style trigger).
type InventoryGenerator interface {
	GenerateInventory(ctx context.Context) (app.GenerateStats, error)
}

// SalesLister feeds the audit export.
type SalesLister interface {
	List(ctx context.Context, limit, offset int) ([]domain.Sale, error)
}

type ensureSlotRequest struct {
	LeadID string `json:"lead_id" validate:"required,uuid4"`
	// Bucket is optional; when empty the lead's current bucket is resolved.
	Bucket string `json:"bucket,omitempty"`
}

type ensureSlotResponse struct {
	SlotID string `json:"slot_id"`
	Bucket string `json:"bucket"`
}

// HandleEnsureSlot idempotently creates the slot for a (lead, bucket) pair,
// resolving the current bucket when none is named.
func HandleEnsureSlot(svc SlotEnsurer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ensureSlotRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, err.Error())
			return
		}
		leadID, _ := uuid.Parse(req.LeadID)

		var (
			slotID uuid.UUID
			bucket domain.Bucket
			err    error
		)
		if req.Bucket == "" {
			slotID, bucket, err = svc.EnsureCurrentSlot(r.Context(), leadID)
		} else {
			bucket = domain.Bucket(req.Bucket)
			if !bucket.Valid() {
				writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "unknown bucket")
				return
			}
			slotID, err = svc.EnsureSlot(r.Context(), leadID, bucket)
		}
		if err != nil {
			respondDomainError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(ensureSlotResponse{
			SlotID: slotID.String(),
			Bucket: string(bucket),
		})
	}
}

type generateResponse struct {
	LeadsScanned  int `json:"leads_scanned"`
	SlotsCreated  int `json:"slots_created"`
	AlreadyExists int `json:"already_exists"`
}

// HandleGenerateInventory triggers the eager sweep.
func HandleGenerateInventory(svc InventoryGenerator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := svc.GenerateInventory(r.Context())
		if err != nil {
			respondDomainError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(generateResponse{
			LeadsScanned:  stats.LeadsScanned,
			SlotsCreated:  stats.SlotsCreated,
			AlreadyExists: stats.AlreadyExists,
		})
	}
}

const exportPageSize = 5000

// HandleExportSales streams the sales audit trail as CSV.
func HandleExportSales(sales SalesLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="sales.csv"`)

		wroteHeader := false
		for offset := 0; ; offset += exportPageSize {
			page, err := sales.List(r.Context(), exportPageSize, offset)
			if err != nil {
				if !wroteHeader {
					respondDomainError(w, err)
				}
				return
			}
			if err := export.WriteSales(w, page, !wroteHeader); err != nil {
				return
			}
			wroteHeader = true
			if len(page) < exportPageSize {
				return
			}
		}
	}
}
