package repository

import (
	"context"

	"content-marketplace/internal/domain/model"
)

// -----------------------------
// Payment intents
// -----------------------------

type PaymentIntentRepository interface {
	// Create inserts a new intent; an existing id yields domain.ErrAlreadyExists.
	Create(ctx context.Context, tx Tx, p *model.PaymentIntent) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.PaymentIntent, error)
	// TransitionIfPending moves a pending intent to status in a single conditional update.
	// It returns (nil, nil) when no pending row matched, so the caller can tell a lost race
	// (or an already settled intent) from an unknown id.
	TransitionIfPending(ctx context.Context, tx Tx, id string, status model.IntentStatus, s model.Settlement) (*model.PaymentIntent, error)
	List(ctx context.Context, tx Tx, f model.IntentFilter) ([]*model.PaymentIntent, error)
	CountByStatus(ctx context.Context, tx Tx) (map[model.IntentStatus]int, error)
	// SumCompletedSince sums amounts of intents completed in the current week|month|year.
	SumCompletedSince(ctx context.Context, tx Tx, period string) (int64, error)
}
