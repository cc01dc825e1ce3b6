package payment

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/nebula-studio/billing-api/internal/pkg/email"
	"github.com/nebula-studio/billing-api/internal/pkg/events"
)

// Notifier runs after tokens are committed; failures never undo the credit
type Notifier interface {
	PurchaseCredited(ctx context.Context, receipt Receipt) error
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(ctx context.Context, receipt Receipt) error

func (f NotifierFunc) PurchaseCredited(ctx context.Context, receipt Receipt) error {
	return f(ctx, receipt)
}

type receiptMailer interface {
	SendTokensPurchased(to string, data email.TokensPurchased) bool
}

// EmailNotifier queues a purchase receipt for users with a known address
type EmailNotifier struct {
	mailer       receiptMailer
	dashboardURL string
}

// NewEmailNotifier returns nil when email is not configured
func NewEmailNotifier(mailer *email.Service, frontendURL string) *EmailNotifier {
	if mailer == nil {
		return nil
	}
	return &EmailNotifier{mailer: mailer, dashboardURL: strings.TrimRight(frontendURL, "/") + "/dashboard"}
}

func (n *EmailNotifier) PurchaseCredited(_ context.Context, r Receipt) error {
	if r.Email == "" {
		return nil
	}
	n.mailer.SendTokensPurchased(r.Email, email.TokensPurchased{
		OrderID:      r.OrderID,
		Tokens:       r.Tokens,
		Amount:       decimal.New(r.AmountCents, -2).StringFixed(2),
		Currency:     strings.ToUpper(r.Currency),
		Provider:     r.Provider,
		DashboardURL: n.dashboardURL,
	})
	return nil
}

type creditPublisher interface {
	PublishTokensCredited(ctx context.Context, ev events.TokensCredited) error
}

// EventNotifier publishes tokens.credited to the event bus
type EventNotifier struct {
	publisher creditPublisher
}

// NewEventNotifier returns nil when the event bus is not configured
func NewEventNotifier(publisher *events.Publisher) *EventNotifier {
	if publisher == nil {
		return nil
	}
	return &EventNotifier{publisher: publisher}
}

func (n *EventNotifier) PurchaseCredited(ctx context.Context, r Receipt) error {
	return n.publisher.PublishTokensCredited(ctx, events.TokensCredited{
		UserID:      r.UserID.String(),
		OrderID:     r.OrderID,
		Provider:    r.Provider,
		Tokens:      r.Tokens,
		AmountCents: r.AmountCents,
		Currency:    r.Currency,
		OccurredAt:  r.CreditedAt,
	})
}
