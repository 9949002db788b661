package adapter

import (
	"net/url"
	"time"

	"content-marketplace/internal/domain/model"
)

// PaymentRequest carries the per-request data the provider wants next to the intent.
type PaymentRequest struct {
	ClientIP  string
	Locale    string // provider locale, e.g. "vn" or "en"; empty uses the configured default
	OrderType string // provider category code; empty uses the configured default
	BankCode  string // optional preselected bank
	CreatedAt time.Time
}

// CallbackData is the verified, provider-agnostic view of a gateway callback.
type CallbackData struct {
	IntentID      string
	Amount        int64 // unscaled, same unit as PaymentIntent.Amount
	ResponseCode  string
	Success       bool
	ProviderTxnNo string
	BankCode      string
	PaidAt        time.Time
}

// PaymentGateway is the hex port for redirect-style payment providers.
type PaymentGateway interface {
	Name() string

	// BuildPaymentURL returns the signed redirect URL for a pending intent. It has no side effects.
	BuildPaymentURL(intent *model.PaymentIntent, req PaymentRequest) (string, error)
	// ParseCallback verifies the signature of a provider callback and decodes it.
	// A failed signature yields domain.ErrSignatureMismatch; signed but malformed data yields
	// domain.ErrValidation or domain.ErrAmountMismatch.
	ParseCallback(params url.Values) (*CallbackData, error)
}
