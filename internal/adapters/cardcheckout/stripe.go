// Package cardcheckout wraps the hosted card-checkout provider behind a
// small adapter so handlers never touch the Stripe SDK directly.
package cardcheckout

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/checkout/session"
	"github.com/stripe/stripe-go/v83/webhook"
)

// Session is a freshly created hosted checkout session.
type Session struct {
	SessionID string
	URL       string
}

// SessionStatus is the provider's view of an existing session.
type SessionStatus struct {
	Status        string
	PaymentStatus string
	AmountTotal   int64
	Currency      string
}

// WebhookEvent is the parsed, signature-verified provider event.
type WebhookEvent struct {
	Type          string
	SessionID     string
	PaymentStatus string
}

// CreateSessionParams carries everything the provider needs; amounts are in
// the smallest currency unit.
type CreateSessionParams struct {
	AmountMinor int64
	Currency    string
	ProductName string
	SuccessURL  string
	CancelURL   string
	Metadata    map[string]string
}

// Provider is the card-checkout collaborator consumed by the payment flow.
type Provider interface {
	CreateSession(ctx context.Context, p CreateSessionParams) (*Session, error)
	GetStatus(ctx context.Context, sessionID string) (*SessionStatus, error)
	// VerifyWebhook checks the provider signature and parses the event.
	VerifyWebhook(payload []byte, signature string) (*WebhookEvent, error)
}

// StripeProvider implements Provider on Stripe checkout sessions. It is
// constructed once at startup; the SDK key is process-wide per the Stripe
// Go client's design.
type StripeProvider struct {
	webhookSecret string
}

func NewStripeProvider(apiKey, webhookSecret string) *StripeProvider {
	stripe.Key = apiKey
	return &StripeProvider{webhookSecret: webhookSecret}
}

func (s *StripeProvider) CreateSession(ctx context.Context, p CreateSessionParams) (*Session, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(p.SuccessURL),
		CancelURL:  stripe.String(p.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(p.Currency),
				UnitAmount: stripe.Int64(p.AmountMinor),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(p.ProductName),
				},
			},
			Quantity: stripe.Int64(1),
		}},
	}
	params.Context = ctx
	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}

	sess, err := session.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe create session: %w", err)
	}
	return &Session{SessionID: sess.ID, URL: sess.URL}, nil
}

func (s *StripeProvider) GetStatus(ctx context.Context, sessionID string) (*SessionStatus, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	sess, err := session.Get(sessionID, params)
	if err != nil {
		return nil, fmt.Errorf("stripe get session %s: %w", sessionID, err)
	}
	return &SessionStatus{
		Status:        string(sess.Status),
		PaymentStatus: string(sess.PaymentStatus),
		AmountTotal:   sess.AmountTotal,
		Currency:      string(sess.Currency),
	}, nil
}

func (s *StripeProvider) VerifyWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	var event stripe.Event

	if s.webhookSecret == "" {
		// Test mode, same as the signatureless path used in dev.
		log.Println("⚠️ No STRIPE_WEBHOOK_SECRET — accepting unsigned webhook")
		if err := json.Unmarshal(payload, &event); err != nil {
			return nil, fmt.Errorf("stripe webhook payload: %w", err)
		}
	} else {
		var err error
		event, err = webhook.ConstructEvent(payload, signature, s.webhookSecret)
		if err != nil {
			return nil, fmt.Errorf("stripe webhook signature: %w", err)
		}
	}

	parsed := &WebhookEvent{Type: string(event.Type)}
	if event.Type == "checkout.session.completed" || event.Type == "checkout.session.async_payment_succeeded" {
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return nil, fmt.Errorf("stripe webhook session: %w", err)
		}
		parsed.SessionID = sess.ID
		parsed.PaymentStatus = string(sess.PaymentStatus)
	}
	return parsed, nil
}
