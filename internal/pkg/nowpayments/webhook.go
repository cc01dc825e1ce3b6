package nowpayments

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/nebula-studio/billing-api/internal/pkg/payment"
)

// SignatureHeader carries the IPN HMAC
const SignatureHeader = "x-nowpayments-sig"

// IPN is the instant payment notification body
type IPN struct {
	PaymentID     flexibleID      `json:"payment_id"`
	InvoiceID     flexibleID      `json:"invoice_id"`
	PaymentStatus string          `json:"payment_status"`
	PriceAmount   decimal.Decimal `json:"price_amount"`
	PriceCurrency string          `json:"price_currency"`
	ActuallyPaid  decimal.Decimal `json:"actually_paid"`
	PayCurrency   string          `json:"pay_currency"`
	OrderID       string          `json:"order_id"`
}

// VerifySignature checks HMAC-SHA512 over the key-sorted JSON body
func VerifySignature(payload []byte, signature, secret string) bool {
	if secret == "" || signature == "" {
		return false
	}
	expected, err := sign(payload, secret)
	if err != nil {
		return false
	}
	given, err := hex.DecodeString(strings.ToLower(strings.TrimSpace(signature)))
	if err != nil {
		return false
	}
	return hmac.Equal(given, expected)
}

// GenerateSignature creates the hex signature for a payload (tests, tooling)
func GenerateSignature(payload []byte, secret string) string {
	sum, err := sign(payload, secret)
	if err != nil {
		return ""
	}
	return hex.EncodeToString(sum)
}

func sign(payload []byte, secret string) ([]byte, error) {
	canonical, err := sortedJSON(payload)
	if err != nil {
		return nil, err
	}
	h := hmac.New(sha512.New, []byte(secret))
	h.Write(canonical)
	return h.Sum(nil), nil
}

// sortedJSON re-encodes payload with object keys in lexical order, numbers kept verbatim
func sortedJSON(payload []byte) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// ParseWebhook verifies the IPN signature and maps payment_status to an outcome
func (c *Client) ParseWebhook(payload []byte, headers http.Header) (*payment.WebhookEvent, error) {
	if !VerifySignature(payload, headers.Get(SignatureHeader), c.config.IPNSecret) {
		return nil, payment.ErrInvalidSignature
	}

	var ipn IPN
	if err := json.Unmarshal(payload, &ipn); err != nil {
		return nil, fmt.Errorf("%w: %v", payment.ErrMalformedPayload, err)
	}

	ev := &payment.WebhookEvent{
		Provider:    payment.ProviderNowPayments,
		EventID:     fmt.Sprintf("np_%s_%s", ipn.PaymentID, ipn.PaymentStatus),
		EventType:   ipn.PaymentStatus,
		Outcome:     mapStatus(ipn.PaymentStatus),
		OrderID:     ipn.OrderID,
		SessionID:   string(ipn.InvoiceID),
		AmountCents: ipn.PriceAmount.Shift(2).Round(0).IntPart(),
		Currency:    strings.ToLower(ipn.PriceCurrency),
	}
	return ev, nil
}

func mapStatus(status string) payment.Outcome {
	switch strings.ToLower(status) {
	case "finished":
		return payment.OutcomeCompleted
	case "failed", "refunded":
		return payment.OutcomeFailed
	case "expired":
		return payment.OutcomeExpired
	default:
		// waiting, confirming, confirmed, sending, partially_paid
		return payment.OutcomeIgnored
	}
}
