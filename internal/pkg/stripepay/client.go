package stripepay

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/checkout/session"
	"github.com/stripe/stripe-go/v74/webhook"

	"github.com/nebula-studio/billing-api/internal/pkg/payment"
)

// Config holds Stripe credentials
type Config struct {
	SecretKey     string
	WebhookSecret string
	// APIURL overrides the API endpoint (stripe-mock, tests)
	APIURL string
}

// Gateway creates Stripe Checkout sessions and verifies Stripe webhooks
type Gateway struct {
	sessions      session.Client
	webhookSecret string
}

// New returns nil when no secret key is configured
func New(cfg Config) *Gateway {
	if strings.TrimSpace(cfg.SecretKey) == "" {
		return nil
	}

	backend := stripe.GetBackend(stripe.APIBackend)
	if cfg.APIURL != "" {
		backend = stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
			URL:               stripe.String(cfg.APIURL),
			MaxNetworkRetries: stripe.Int64(0),
		})
	}

	return &Gateway{
		sessions:      session.Client{B: backend, Key: cfg.SecretKey},
		webhookSecret: cfg.WebhookSecret,
	}
}

func (g *Gateway) Name() string { return payment.ProviderStripe }

// CreateCheckout opens a one-off payment session. Correlation metadata is attached to both
// the session and its payment intent.
func (g *Gateway) CreateCheckout(ctx context.Context, req payment.CheckoutRequest) (*payment.CheckoutSession, error) {
	if req.AmountCents <= 0 {
		return nil, fmt.Errorf("validation error: amount must be > 0")
	}

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(req.SuccessURL),
		CancelURL:         stripe.String(req.CancelURL),
		ClientReferenceID: stripe.String(req.OrderID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Quantity: stripe.Int64(1),
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(strings.ToLower(req.Currency)),
					UnitAmount: stripe.Int64(req.AmountCents),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripe.String(req.ProductName),
						Description: optional(req.Description),
					},
				},
			},
		},
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: req.Metadata,
		},
	}
	if req.CustomerRef != "" {
		params.CustomerEmail = stripe.String(req.CustomerRef)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	params.Context = ctx

	s, err := g.sessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe checkout session: %w", err)
	}
	return &payment.CheckoutSession{SessionID: s.ID, URL: s.URL}, nil
}

// ParseWebhook verifies Stripe-Signature and maps checkout.session.* events
func (g *Gateway) ParseWebhook(payload []byte, headers http.Header) (*payment.WebhookEvent, error) {
	event, err := webhook.ConstructEvent(payload, headers.Get("Stripe-Signature"), g.webhookSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", payment.ErrInvalidSignature, err)
	}

	out := &payment.WebhookEvent{
		Provider:  payment.ProviderStripe,
		EventID:   event.ID,
		EventType: string(event.Type),
		Outcome:   payment.OutcomeIgnored,
	}

	var outcome payment.Outcome
	switch string(event.Type) {
	case "checkout.session.completed":
		outcome = payment.OutcomeCompleted
	case "checkout.session.async_payment_succeeded":
		outcome = payment.OutcomeCompleted
	case "checkout.session.async_payment_failed":
		outcome = payment.OutcomeFailed
	case "checkout.session.expired":
		outcome = payment.OutcomeExpired
	default:
		return out, nil
	}

	if event.Data == nil || len(event.Data.Raw) == 0 {
		return nil, payment.ErrMalformedPayload
	}
	var cs stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &cs); err != nil {
		return nil, fmt.Errorf("%w: %v", payment.ErrMalformedPayload, err)
	}

	// card payments that settle later arrive as completed+unpaid, then async_payment_succeeded
	if string(event.Type) == "checkout.session.completed" && cs.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
		return out, nil
	}

	out.Outcome = outcome
	out.SessionID = cs.ID
	out.AmountCents = cs.AmountTotal
	out.Currency = string(cs.Currency)
	out.Metadata = cs.Metadata
	out.OrderID = cs.Metadata["order_id"]
	if out.OrderID == "" {
		out.OrderID = cs.ClientReferenceID
	}
	return out, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return stripe.String(s)
}
