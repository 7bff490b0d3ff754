package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fairlead/lead-exchange/internal/app"
	"github.com/fairlead/lead-exchange/internal/domain"
	"github.com/fairlead/lead-exchange/internal/metrics"
	"github.com/google/uuid"
)

// BatchPurchaser executes the all-or-nothing batch allocation path.
type BatchPurchaser interface {
	PurchaseBatch(ctx context.Context, in app.BatchInput) (app.BatchResult, error)
}

type batchCriterionRequest struct {
	Classification string `json:"classification" validate:"required,oneof=Gold Silver"`
	Bucket         string `json:"bucket" validate:"required"`
	Quantity       int    `json:"quantity" validate:"required,gt=0"`
	State          string `json:"state,omitempty"`
	County         string `json:"county,omitempty"`
}

type batchRequest struct {
	BuyerID  string                  `json:"buyer_id" validate:"required,uuid4"`
	Criteria []batchCriterionRequest `json:"criteria" validate:"required,min=1,dive"`
}

type batchResponse struct {
	Sales []saleResponse `json:"sales"`
	Total string         `json:"total"`
}

// HandlePurchaseBatch fulfills a multi-criterion purchase as one atomic
// reservation: either every criterion is fully allocated or nothing is.
func HandlePurchaseBatch(svc BatchPurchaser, prices app.PricingLookup) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req batchRequest
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

		buyerID, _ := uuid.Parse(req.BuyerID)
		in := app.BatchInput{BuyerID: buyerID}
		for _, c := range req.Criteria {
			bucket := domain.Bucket(c.Bucket)
			if !bucket.Valid() {
				writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "unknown bucket")
				return
			}
			classification := domain.Classification(c.Classification)

			unit, currency, err := prices.Price(r.Context(), classification, bucket)
			if err != nil {
				respondDomainError(w, err)
				return
			}
			in.Criteria = append(in.Criteria, app.BatchCriterion{
				Criterion: domain.Criterion{
					Classification: classification,
					Bucket:         bucket,
					Quantity:       c.Quantity,
					State:          c.State,
					County:         c.County,
				},
				UnitPrice: unit,
				Currency:  currency,
			})
		}

		result, err := svc.PurchaseBatch(r.Context(), in)
		if err != nil {
			metrics.PurchaseOutcome(batchOutcome(err))
			respondDomainError(w, err)
			return
		}
		metrics.PurchaseOutcome("sold")
		metrics.SlotsAllocated.Add(float64(len(result.Sales)))

		resp := batchResponse{Total: result.Total.StringFixed(2)}
		for _, sale := range result.Sales {
			resp.Sales = append(resp.Sales, toSaleResponse(sale))
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func batchOutcome(err error) string {
	var insufficient *domain.InsufficientInventoryError
	if errors.As(err, &insufficient) {
		return "insufficient_inventory"
	}
	return purchaseOutcome(err)
}
