package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRequest() Request {
	return Request{
		BookingID:     uuid.MustParse("0190d0a0-0000-7000-8000-000000000001"),
		ScreeningID:   uuid.MustParse("0190d0a0-0000-7000-8000-000000000002"),
		AmountCents:   4500,
		Quantity:      2,
		CustomerRef:   "cust-1",
		CustomerName:  "Ana",
		CustomerEmail: "ana@example.com",
		CustomerTaxID: "12345678909",
	}
}

func TestHTTPIssuerCreatesBilling(t *testing.T) {
	var got billingRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/billing/create", r.URL.Path)
		assert.Equal(t, "Bearer key-1", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"data":{"id":"bill_123","url":"https://pay.example/bill_123"},"error":null}`))
	}))
	defer srv.Close()

	iss := NewHTTPIssuer(srv.URL+"/", "key-1", "https://cine.example/", time.Second)
	bill, err := iss.RequestPayment(context.Background(), sampleRequest())
	require.NoError(t, err)
	assert.Equal(t, Bill{ID: "bill_123", URL: "https://pay.example/bill_123"}, bill)

	assert.Equal(t, "ONE_TIME", got.Frequency)
	assert.Equal(t, []string{"PIX", "CARD"}, got.Methods)
	require.Len(t, got.Products, 1)
	assert.Equal(t, int64(4500), got.Products[0].Price)
	assert.Equal(t, sampleRequest().BookingID.String(), got.Products[0].ExternalID)
	assert.Equal(t, "https://cine.example/checkout/success", got.CompletionURL)
	assert.Equal(t, "12345678909", got.Customer.TaxID)
}

func TestHTTPIssuerErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"provider error", http.StatusBadRequest, `{"data":null,"error":"invalid taxId"}`},
		{"server error without body", http.StatusInternalServerError, `{}`},
		{"garbage", http.StatusOK, `<html>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewHTTPIssuer(srv.URL, "k", "http://site", time.Second).RequestPayment(context.Background(), sampleRequest())
			assert.Error(t, err)
		})
	}
}

func TestLocalIssuer(t *testing.T) {
	bill, err := LocalIssuer{BaseURL: "http://localhost:8080"}.RequestPayment(context.Background(), sampleRequest())
	require.NoError(t, err)
	assert.Equal(t, "local_0190d0a0-0000-7000-8000-000000000001", bill.ID)
	assert.Equal(t, "http://localhost:8080/pay/"+bill.ID, bill.URL)
}
