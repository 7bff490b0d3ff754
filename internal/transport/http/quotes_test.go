package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fairlead/lead-exchange/internal/app"
	"github.com/fairlead/lead-exchange/internal/domain"
	"github.com/shopspring/decimal"
)

type stubQuoter struct {
	quote app.Quote
	err   error
}

func (s *stubQuoter) Quote(context.Context, []app.QuoteRequest) (app.Quote, error) {
	if s.err != nil {
		return app.Quote{}, s.err
	}
	return s.quote, nil
}

func TestHandleQuote(t *testing.T) {
	t.Parallel()

	quote := app.Quote{
		Lines: []app.QuoteLine{
			{
				Classification: domain.ClassificationGold,
				Bucket:         domain.BucketMonth3To5,
				Quantity:       3,
				UnitPrice:      decimal.RequireFromString("5.00"),
				LineTotal:      decimal.RequireFromString("15.00"),
			},
		},
		Subtotal: decimal.RequireFromString("15.00"),
		Currency: "USD",
	}

	tests := []struct {
		name           string
		body           string
		serviceErr     error
		expectedStatus int
	}{
		{
			name:           "success",
			body:           `{"items":[{"classification":"Gold","bucket":"MONTH_3_TO_5","quantity":3}]}`,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "invalid json",
			body:           `{"items":`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "empty items",
			body:           `{"items":[]}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "unknown bucket",
			body:           `{"items":[{"classification":"Gold","bucket":"MONTH_1_TO_2","quantity":1}]}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "unpriced pair",
			body:           `{"items":[{"classification":"Gold","bucket":"MONTH_3_TO_5","quantity":1}]}`,
			serviceErr:     domain.ErrPriceNotFound,
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc := &stubQuoter{quote: quote, err: tt.serviceErr}

			req := httptest.NewRequest(http.MethodPost, "/quotes", bytes.NewBufferString(tt.body))
			rec := httptest.NewRecorder()

			HandleQuote(svc).ServeHTTP(rec, req)

			if rec.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d (%s)", tt.expectedStatus, rec.Code, rec.Body.String())
			}
			if tt.expectedStatus != http.StatusOK {
				return
			}

			var resp quoteResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if resp.Subtotal != "15.00" || resp.Currency != "USD" {
				t.Fatalf("unexpected quote: %+v", resp)
			}
			if len(resp.Lines) != 1 || resp.Lines[0].LineTotal != "15.00" {
				t.Fatalf("unexpected lines: %+v", resp.Lines)
			}
		})
	}
}
