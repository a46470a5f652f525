package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
)

// Checkout session status values as reported by the gateway
const (
	SessionPaid    = "paid"
	SessionUnpaid  = "unpaid"
	SessionFailed  = "failed"
	SessionExpired = "expired"
)

// CheckoutRequest describes a hosted-checkout session to create. PurchaseID
// travels as opaque correlation metadata and comes back in webhook events.
type CheckoutRequest struct {
	PurchaseID  string
	AmountCents int64
	Currency    string
	ProductName string
	SuccessURL  string
	CancelURL   string
}

// CheckoutSession is the gateway's handle for a created session
type CheckoutSession struct {
	ID  string
	URL string // redirect handle the client is sent to
}

// PaymentGateway is the outbound payment collaborator. Implementations must
// honour the context deadline; callers never hold row locks across these calls.
type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
	SessionStatus(ctx context.Context, sessionID string) (string, error)
}

// StripeGateway talks to a Stripe-style hosted checkout API
type StripeGateway struct {
	client *resty.Client
}

func NewStripeGateway(apiURL, secretKey string, timeout time.Duration) *StripeGateway {
	client := resty.New().
		SetBaseURL(apiURL).
		SetTimeout(timeout).
		SetAuthToken(secretKey)
	return &StripeGateway{client: client}
}

func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	resp, err := g.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"mode":                                 "payment",
			"line_items[0][price_data][currency]":  req.Currency,
			"line_items[0][price_data][product_data][name]": req.ProductName,
			"line_items[0][price_data][unit_amount]":        strconv.FormatInt(req.AmountCents, 10),
			"line_items[0][quantity]":              "1",
			"metadata[purchaseId]":                 req.PurchaseID,
			"success_url":                          req.SuccessURL,
			"cancel_url":                           req.CancelURL,
		}).
		Post("/v1/checkout/sessions")
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %v", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("create checkout session: status %d: %s", resp.StatusCode(), resp.String())
	}

	var session struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	}
	if err := json.Unmarshal(resp.Body(), &session); err != nil {
		return nil, fmt.Errorf("parse checkout session: %v", err)
	}
	if session.URL == "" {
		return nil, fmt.Errorf("checkout session has no redirect url")
	}

	return &CheckoutSession{ID: session.ID, URL: session.URL}, nil
}

func (g *StripeGateway) SessionStatus(ctx context.Context, sessionID string) (string, error) {
	resp, err := g.client.R().
		SetContext(ctx).
		Get("/v1/checkout/sessions/" + sessionID)
	if err != nil {
		return "", fmt.Errorf("fetch checkout session: %v", err)
	}
	if resp.StatusCode() != 200 {
		return "", fmt.Errorf("fetch checkout session: status %d: %s", resp.StatusCode(), resp.String())
	}

	var session struct {
		PaymentStatus string `json:"payment_status"`
		Status        string `json:"status"`
	}
	if err := json.Unmarshal(resp.Body(), &session); err != nil {
		return "", fmt.Errorf("parse checkout session: %v", err)
	}

	if session.PaymentStatus == SessionPaid {
		return SessionPaid, nil
	}
	if session.Status == SessionExpired {
		return SessionExpired, nil
	}
	return session.PaymentStatus, nil
}
