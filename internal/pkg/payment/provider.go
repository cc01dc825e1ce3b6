package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
)

// Gateway names
const (
	ProviderStripe      = "stripe"
	ProviderNowPayments = "nowpayments"
)

var (
	// ErrInvalidSignature is returned by ParseWebhook when authenticity cannot be established
	ErrInvalidSignature = errors.New("invalid webhook signature")
	// ErrMalformedPayload is returned for verified payloads that cannot be decoded
	ErrMalformedPayload = errors.New("malformed webhook payload")
	// ErrProviderNotFound is returned by the registry for unknown names
	ErrProviderNotFound = errors.New("payment provider not found")
)

// Gateway is implemented by every hosted-checkout provider
type Gateway interface {
	// Name returns the provider identifier used in routes and stored rows
	Name() string

	// CreateCheckout opens a hosted checkout session and returns its redirect URL
	CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)

	// ParseWebhook verifies the signature and normalises the event
	ParseWebhook(payload []byte, headers http.Header) (*WebhookEvent, error)
}

// CheckoutRequest is a provider-neutral session request
type CheckoutRequest struct {
	OrderID     string
	AmountCents int64
	Currency    string
	ProductName string
	Description string
	CustomerRef string
	SuccessURL  string
	CancelURL   string
	CallbackURL string
	Metadata    map[string]string
}

// CheckoutSession is what the purchaser is redirected to
type CheckoutSession struct {
	SessionID string
	URL       string
}

// Outcome is the normalised meaning of a webhook event
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeFailed    Outcome = "failed"
	OutcomeExpired   Outcome = "expired"
	OutcomeIgnored   Outcome = "ignored"
)

// WebhookEvent is a verified, provider-neutral notification
type WebhookEvent struct {
	Provider    string
	EventID     string
	EventType   string
	Outcome     Outcome
	OrderID     string
	SessionID   string
	AmountCents int64
	Currency    string
	Metadata    map[string]string
}

// Registry holds the configured gateways
type Registry struct {
	gateways map[string]Gateway
}

func NewRegistry(gateways ...Gateway) *Registry {
	r := &Registry{gateways: make(map[string]Gateway)}
	for _, g := range gateways {
		r.Register(g)
	}
	return r
}

// Register adds a gateway under its own name; nil gateways are skipped
func (r *Registry) Register(g Gateway) {
	if g == nil {
		return
	}
	r.gateways[g.Name()] = g
}

// Get retrieves a gateway by name
func (r *Registry) Get(name string) (Gateway, error) {
	g, ok := r.gateways[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrProviderNotFound, name)
	}
	return g, nil
}

// Names returns registered gateway names, sorted
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.gateways))
	for name := range r.gateways {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
