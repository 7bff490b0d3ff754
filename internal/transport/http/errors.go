package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fairlead/lead-exchange/internal/domain"
)

const (
	codeNotFound              = "not_found"
	codeMethodNotAllowed      = "method_not_allowed"
	codeInvalidRequestBody    = "invalid_request_body"
	codeInvalidID             = "invalid_id"
	codeInvalidQuantity       = "invalid_quantity"
	codeInvalidTimestamp      = "invalid_timestamp"
	codeUnknownLead           = "unknown_lead"
	codeBuyerNotEligible      = "buyer_not_eligible"
	codeNotEligible           = "not_eligible"
	codeAlreadySold           = "already_sold"
	codeContended             = "contended"
	codeInsufficientInventory = "insufficient_inventory"
	codeDuplicateSale         = "duplicate_sale"
	codePriceNotFound         = "price_not_found"
	codeInternalError         = "internal_error"
)

type errorResponse struct {
	Error        string               `json:"error"`
	Code         string               `json:"code"`
	Retryable    bool                 `json:"retryable,omitempty"`
	Alternatives []suggestionResponse `json:"alternatives,omitempty"`
}

type suggestionResponse struct {
	Kind      string `json:"kind"`
	Bucket    string `json:"bucket,omitempty"`
	Available int    `json:"available"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(errorResponse{
		Error: msg,
		Code:  code,
	})
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}

// respondDomainError maps the allocation error taxonomy onto wire codes.
// Contended is flagged retryable; everything else needs a different request
// or an operator.
func respondDomainError(w http.ResponseWriter, err error) {
	var insufficient *domain.InsufficientInventoryError
	if errors.As(err, &insufficient) {
		resp := errorResponse{
			Error: insufficient.Error(),
			Code:  codeInsufficientInventory,
		}
		for _, alt := range insufficient.Alternatives {
			resp.Alternatives = append(resp.Alternatives, suggestionResponse{
				Kind:      string(alt.Kind),
				Bucket:    string(alt.Bucket),
				Available: alt.Available,
			})
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(resp)
		return
	}

	switch {
	case errors.Is(err, domain.ErrInvalidTimestamp):
		writeError(w, http.StatusBadRequest, codeInvalidTimestamp, err.Error())
	case errors.Is(err, domain.ErrInvalidID):
		writeError(w, http.StatusBadRequest, codeInvalidID, err.Error())
	case errors.Is(err, domain.ErrInvalidQuantity), errors.Is(err, domain.ErrEmptyCriteria):
		writeError(w, http.StatusBadRequest, codeInvalidQuantity, err.Error())
	case errors.Is(err, domain.ErrUnknownLead):
		writeError(w, http.StatusNotFound, codeUnknownLead, err.Error())
	case errors.Is(err, domain.ErrPriceNotFound):
		writeError(w, http.StatusNotFound, codePriceNotFound, err.Error())
	case errors.Is(err, domain.ErrBuyerNotEligible):
		writeError(w, http.StatusForbidden, codeBuyerNotEligible, err.Error())
	case errors.Is(err, domain.ErrNotEligible):
		writeError(w, http.StatusConflict, codeNotEligible, err.Error())
	case errors.Is(err, domain.ErrAlreadySold):
		writeError(w, http.StatusConflict, codeAlreadySold, err.Error())
	case errors.Is(err, domain.ErrContended):
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(errorResponse{
			Error:     err.Error(),
			Code:      codeContended,
			Retryable: true,
		})
	case errors.Is(err, domain.ErrDuplicateSale):
		// Ledger invariant violation. Alarm-worthy, never user-retryable.
		writeError(w, http.StatusInternalServerError, codeDuplicateSale, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}
