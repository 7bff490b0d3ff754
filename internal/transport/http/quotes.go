package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/fairlead/lead-exchange/internal/app"
	"github.com/fairlead/lead-exchange/internal/domain"
)

// Quoter prices prospective purchases without touching inventory.
type Quoter interface {
	Quote(ctx context.Context, reqs []app.QuoteRequest) (app.Quote, error)
}

type quoteLineRequest struct {
	Classification string `json:"classification" validate:"required,oneof=Gold Silver"`
	Bucket         string `json:"bucket" validate:"required"`
	Quantity       int    `json:"quantity" validate:"required,gt=0"`
}

type quoteRequest struct {
	Items []quoteLineRequest `json:"items" validate:"required,min=1,dive"`
}

type quoteLineResponse struct {
	Classification string `json:"classification"`
	Bucket         string `json:"bucket"`
	Quantity       int    `json:"quantity"`
	UnitPrice      string `json:"unit_price"`
	LineTotal      string `json:"line_total"`
}

type quoteResponse struct {
	Lines    []quoteLineResponse `json:"lines"`
	Subtotal string              `json:"subtotal"`
	Currency string              `json:"currency"`
}

func HandleQuote(svc Quoter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req quoteRequest
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

		reqs := make([]app.QuoteRequest, 0, len(req.Items))
		for _, item := range req.Items {
			bucket := domain.Bucket(item.Bucket)
			if !bucket.Valid() {
				writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "unknown bucket")
				return
			}
			reqs = append(reqs, app.QuoteRequest{
				Classification: domain.Classification(item.Classification),
				Bucket:         bucket,
				Quantity:       item.Quantity,
			})
		}

		quote, err := svc.Quote(r.Context(), reqs)
		if err != nil {
			respondDomainError(w, err)
			return
		}

		resp := quoteResponse{
			Subtotal: quote.Subtotal.StringFixed(2),
			Currency: quote.Currency,
		}
		for _, line := range quote.Lines {
			resp.Lines = append(resp.Lines, quoteLineResponse{
				Classification: string(line.Classification),
				Bucket:         string(line.Bucket),
				Quantity:       line.Quantity,
				UnitPrice:      line.UnitPrice.StringFixed(2),
				LineTotal:      line.LineTotal.StringFixed(2),
			})
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}
