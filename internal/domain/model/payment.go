package model

import (
	"time"
)

type IntentStatus string

const (
	IntentStatusPending   IntentStatus = "pending"   // created, redirect URL handed to the payer
	IntentStatusCompleted IntentStatus = "completed" // provider confirmed success
	IntentStatusFailed    IntentStatus = "failed"    // provider reported any non-success code
)

// Terminal reports whether no further transition is allowed out of s.
func (s IntentStatus) Terminal() bool {
	return s == IntentStatusCompleted || s == IntentStatusFailed
}

func (s IntentStatus) Valid() bool {
	return s == IntentStatusPending || s.Terminal()
}

// PaymentIntent records one purchase attempt. It is created pending, settled exactly once
// and never deleted.
type PaymentIntent struct {
	ID         string       `json:"id"`          // ULID, sent to the provider as the transaction reference
	PayerID    string       `json:"payer_id"`    // UUID of the owning user
	PackageRef string       `json:"package_ref"` // course id or the subscription sentinel
	Amount     int64        `json:"amount"`      // VND, never scaled, never mutated
	Currency   string       `json:"currency"`
	OrderInfo  string       `json:"order_info"`
	Status     IntentStatus `json:"status"`

	// Filled by the settling callback.
	ProviderTxnNo        string     `json:"provider_txn_no,omitempty"`
	ProviderResponseCode string     `json:"provider_response_code,omitempty"`
	BankCode             string     `json:"bank_code,omitempty"`
	SettledAt            *time.Time `json:"settled_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *PaymentIntent) IsZero() bool { return p == nil || p.ID == "" }

// Settlement carries the provider data stored alongside a terminal transition.
type Settlement struct {
	ProviderTxnNo string
	ResponseCode  string
	BankCode      string
	SettledAt     time.Time
}

// IntentFilter narrows admin listings. Zero values mean "any".
type IntentFilter struct {
	Status  IntentStatus
	PayerID string
	Limit   int
	Offset  int
}
