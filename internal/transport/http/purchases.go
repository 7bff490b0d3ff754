package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/fairlead/lead-exchange/internal/app"
	"github.com/fairlead/lead-exchange/internal/domain"
	"github.com/fairlead/lead-exchange/internal/metrics"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validate = validator.New()

// Purchaser executes the single-slot allocation path.
type Purchaser interface {
	Purchase(ctx context.Context, in app.PurchaseInput) (domain.Sale, error)
}

// LeadGetter supplies the lead's classification for pricing lookup.
type LeadGetter interface {
	Get(ctx context.Context, leadID uuid.UUID) (domain.Lead, error)
}

type purchaseRequest struct {
	LeadID  string `json:"lead_id" validate:"required,uuid4"`
	Bucket  string `json:"bucket" validate:"required"`
	BuyerID string `json:"buyer_id" validate:"required,uuid4"`
}

type saleResponse struct {
	SaleID   string    `json:"sale_id"`
	SlotID   string    `json:"slot_id"`
	LeadID   string    `json:"lead_id"`
	Bucket   string    `json:"bucket"`
	BuyerID  string    `json:"buyer_id"`
	Price    string    `json:"price"`
	Currency string    `json:"currency"`
	SoldAt   time.Time `json:"sold_at"`
}

func toSaleResponse(s domain.Sale) saleResponse {
	return saleResponse{
		SaleID:   s.ID.String(),
		SlotID:   s.SlotID.String(),
		LeadID:   s.LeadID.String(),
		Bucket:   string(s.Bucket),
		BuyerID:  s.BuyerID.String(),
		Price:    s.Price.StringFixed(2),
		Currency: s.Currency,
		SoldAt:   s.SoldAt,
	}
}

// HandlePurchase sells one (lead, bucket) slot. The handler consults the
// price book before invoking the engine; the engine stores the price it is
// given.
func HandlePurchase(svc Purchaser, leads LeadGetter, prices app.PricingLookup) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req purchaseRequest
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
		bucket := domain.Bucket(req.Bucket)
		if !bucket.Valid() {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "unknown bucket")
			return
		}

		leadID, _ := uuid.Parse(req.LeadID)
		buyerID, _ := uuid.Parse(req.BuyerID)

		lead, err := leads.Get(r.Context(), leadID)
		if err != nil {
			respondDomainError(w, err)
			return
		}
		price, currency, err := prices.Price(r.Context(), lead.Classification, bucket)
		if err != nil {
			respondDomainError(w, err)
			return
		}

		sale, err := svc.Purchase(r.Context(), app.PurchaseInput{
			LeadID:   leadID,
			Bucket:   bucket,
			BuyerID:  buyerID,
			Price:    price,
			Currency: currency,
		})
		if err != nil {
			metrics.PurchaseOutcome(purchaseOutcome(err))
			respondDomainError(w, err)
			return
		}
		metrics.PurchaseOutcome("sold")
		metrics.SlotsAllocated.Inc()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(toSaleResponse(sale))
	}
}

func purchaseOutcome(err error) string {
	switch {
	case errors.Is(err, domain.ErrAlreadySold):
		return "already_sold"
	case errors.Is(err, domain.ErrContended):
		return "contended"
	case errors.Is(err, domain.ErrNotEligible):
		return "not_eligible"
	case errors.Is(err, domain.ErrBuyerNotEligible):
		return "buyer_not_eligible"
	default:
		return "error"
	}
}
