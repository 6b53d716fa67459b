package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPIssuer creates one-time billing links through the provider's REST
// API.
type HTTPIssuer struct {
	baseURL       string
	apiKey        string
	completionURL string
	returnURL     string
	client        *http.Client
}

// NewHTTPIssuer builds an issuer. siteURL is the public storefront used for
// the completion and return redirects.
func NewHTTPIssuer(baseURL, apiKey, siteURL string, timeout time.Duration) *HTTPIssuer {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	site := strings.TrimRight(siteURL, "/")
	return &HTTPIssuer{
		baseURL:       strings.TrimRight(baseURL, "/"),
		apiKey:        apiKey,
		completionURL: site + "/checkout/success",
		returnURL:     site + "/checkout/cancel",
		client:        &http.Client{Timeout: timeout},
	}
}

type billingProduct struct {
	ExternalID string `json:"externalId"`
	Name       string `json:"name"`
	Quantity   int    `json:"quantity"`
	Price      int64  `json:"price"`
}

type billingCustomer struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	TaxID string `json:"taxId,omitempty"`
}

type billingRequest struct {
	Frequency     string           `json:"frequency"`
	Methods       []string         `json:"methods"`
	Products      []billingProduct `json:"products"`
	CompletionURL string           `json:"completionUrl"`
	ReturnURL     string           `json:"returnUrl"`
	CustomerID    string           `json:"customerId,omitempty"`
	Customer      billingCustomer  `json:"customer"`
}

type billingResponse struct {
	Data *struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	} `json:"data"`
	Error *string `json:"error"`
}

// RequestPayment creates a billing link for the whole booking. The product
// is priced per booking so half-price seats are reflected in the amount.
func (h *HTTPIssuer) RequestPayment(ctx context.Context, req Request) (Bill, error) {
	body, err := json.Marshal(billingRequest{
		Frequency: "ONE_TIME",
		Methods:   []string{"PIX", "CARD"},
		Products: []billingProduct{{
			ExternalID: req.BookingID.String(),
			Name:       fmt.Sprintf("Screening #%s", req.ScreeningID),
			Quantity:   1,
			Price:      req.AmountCents,
		}},
		CompletionURL: h.completionURL,
		ReturnURL:     h.returnURL,
		CustomerID:    req.CustomerRef,
		Customer: billingCustomer{
			Name:  req.CustomerName,
			Email: req.CustomerEmail,
			TaxID: req.CustomerTaxID,
		},
	})
	if err != nil {
		return Bill{}, fmt.Errorf("payment: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+"/billing/create", bytes.NewReader(body))
	if err != nil {
		return Bill{}, fmt.Errorf("payment: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+h.apiKey)

	resp, err := h.client.Do(httpReq)
	if err != nil {
		return Bill{}, fmt.Errorf("payment: create billing: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Bill{}, fmt.Errorf("payment: read response: %w", err)
	}
	var out billingResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return Bill{}, fmt.Errorf("payment: decode response (status %d): %w", resp.StatusCode, err)
	}
	if out.Error != nil && *out.Error != "" {
		return Bill{}, fmt.Errorf("payment: provider error (status %d): %s", resp.StatusCode, *out.Error)
	}
	if resp.StatusCode >= 300 || out.Data == nil || out.Data.ID == "" {
		return Bill{}, errors.New("payment: provider returned no bill (status " + resp.Status + ")")
	}
	return Bill{ID: out.Data.ID, URL: out.Data.URL}, nil
}
