package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fairlead/lead-exchange/internal/app"
	"github.com/fairlead/lead-exchange/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type stubBatchPurchaser struct {
	result app.BatchResult
	err    error

	gotInput app.BatchInput
}

func (s *stubBatchPurchaser) PurchaseBatch(_ context.Context, in app.BatchInput) (app.BatchResult, error) {
	s.gotInput = in
	if s.err != nil {
		return app.BatchResult{}, s.err
	}
	return s.result, nil
}

func TestHandlePurchaseBatch(t *testing.T) {
	t.Parallel()

	buyerID := uuid.New()
	sale := domain.Sale{
		ID:       uuid.New(),
		SlotID:   uuid.New(),
		LeadID:   uuid.New(),
		Bucket:   domain.BucketMonth3To5,
		BuyerID:  buyerID,
		Price:    decimal.RequireFromString("5.00"),
		Currency: "USD",
	}
	result := app.BatchResult{
		Sales: []domain.Sale{sale},
		Total: decimal.RequireFromString("5.00"),
	}
	validBody := fmt.Sprintf(
		`{"buyer_id":%q,"criteria":[{"classification":"Gold","bucket":"MONTH_3_TO_5","quantity":1}]}`,
		buyerID)

	tests := []struct {
		name           string
		body           string
		serviceErr     error
		expectedStatus int
		expectedSubstr string
	}{
		{
			name:           "success",
			body:           validBody,
			expectedStatus: http.StatusCreated,
			expectedSubstr: `"total":"5.00"`,
		},
		{
			name:           "invalid json",
			body:           `{"buyer_id":`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "empty criteria",
			body:           fmt.Sprintf(`{"buyer_id":%q,"criteria":[]}`, buyerID),
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "zero quantity",
			body: fmt.Sprintf(
				`{"buyer_id":%q,"criteria":[{"classification":"Gold","bucket":"MONTH_3_TO_5","quantity":0}]}`,
				buyerID),
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "unknown classification",
			body: fmt.Sprintf(
				`{"buyer_id":%q,"criteria":[{"classification":"Bronze","bucket":"MONTH_3_TO_5","quantity":1}]}`,
				buyerID),
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "unknown bucket",
			body: fmt.Sprintf(
				`{"buyer_id":%q,"criteria":[{"classification":"Gold","bucket":"MONTH_1_TO_2","quantity":1}]}`,
				buyerID),
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "contended",
			body:           validBody,
			serviceErr:     domain.ErrContended,
			expectedStatus: http.StatusConflict,
			expectedSubstr: `"retryable":true`,
		},
		{
			name:           "ineligible buyer",
			body:           validBody,
			serviceErr:     domain.ErrBuyerNotEligible,
			expectedStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc := &stubBatchPurchaser{result: result, err: tt.serviceErr}
			prices := &stubPriceBook{price: decimal.RequireFromString("5.00"), currency: "USD"}

			req := httptest.NewRequest(http.MethodPost, "/purchases/batch", bytes.NewBufferString(tt.body))
			rec := httptest.NewRecorder()

			HandlePurchaseBatch(svc, prices).ServeHTTP(rec, req)

			if rec.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d (%s)", tt.expectedStatus, rec.Code, rec.Body.String())
			}
			if tt.expectedSubstr != "" && !strings.Contains(rec.Body.String(), tt.expectedSubstr) {
				t.Fatalf("expected body to contain %s, got %s", tt.expectedSubstr, rec.Body.String())
			}
		})
	}
}

func TestHandlePurchaseBatch_InsufficientInventoryIncludesAlternatives(t *testing.T) {
	t.Parallel()

	buyerID := uuid.New()
	svc := &stubBatchPurchaser{err: &domain.InsufficientInventoryError{
		CriterionIndex: 0,
		Criterion: domain.Criterion{
			Classification: domain.ClassificationGold,
			Bucket:         domain.BucketMonth3To5,
			Quantity:       5,
			State:          "TX",
		},
		Requested: 5,
		Available: 2,
		Alternatives: []domain.Suggestion{
			{Kind: domain.SuggestionPartial, Available: 2},
			{Kind: domain.SuggestionDropGeography, Available: 7},
			{Kind: domain.SuggestionOtherBucket, Bucket: domain.BucketMonth6To8, Available: 3},
		},
	}}
	prices := &stubPriceBook{price: decimal.RequireFromString("5.00"), currency: "USD"}

	body := fmt.Sprintf(
		`{"buyer_id":%q,"criteria":[{"classification":"Gold","bucket":"MONTH_3_TO_5","quantity":5,"state":"TX"}]}`,
		buyerID)
	req := httptest.NewRequest(http.MethodPost, "/purchases/batch", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()

	HandlePurchaseBatch(svc, prices).ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d (%s)", rec.Code, rec.Body.String())
	}

	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Code != codeInsufficientInventory {
		t.Fatalf("expected code %s, got %s", codeInsufficientInventory, resp.Code)
	}
	if len(resp.Alternatives) != 3 {
		t.Fatalf("expected 3 alternatives, got %d", len(resp.Alternatives))
	}
	if resp.Alternatives[0].Kind != string(domain.SuggestionPartial) || resp.Alternatives[0].Available != 2 {
		t.Fatalf("unexpected first alternative: %+v", resp.Alternatives[0])
	}
	if resp.Alternatives[2].Bucket != string(domain.BucketMonth6To8) {
		t.Fatalf("unexpected other bucket: %+v", resp.Alternatives[2])
	}
}

func TestHandlePurchaseBatch_PricesEachCriterion(t *testing.T) {
	t.Parallel()

	buyerID := uuid.New()
	svc := &stubBatchPurchaser{result: app.BatchResult{Total: decimal.Zero}}
	prices := &stubPriceBook{price: decimal.RequireFromString("4.00"), currency: "USD"}

	body := fmt.Sprintf(
		`{"buyer_id":%q,"criteria":[{"classification":"Silver","bucket":"MONTH_12_TO_23","quantity":2,"state":"CA","county":"Kern"}]}`,
		buyerID)
	req := httptest.NewRequest(http.MethodPost, "/purchases/batch", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()

	HandlePurchaseBatch(svc, prices).ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	if len(svc.gotInput.Criteria) != 1 {
		t.Fatalf("expected 1 criterion, got %d", len(svc.gotInput.Criteria))
	}
	got := svc.gotInput.Criteria[0]
	if !got.UnitPrice.Equal(decimal.RequireFromString("4.00")) {
		t.Fatalf("expected unit price 4.00, got %s", got.UnitPrice)
	}
	if got.State != "CA" || got.County != "Kern" || got.Quantity != 2 {
		t.Fatalf("unexpected criterion: %+v", got)
	}
}
