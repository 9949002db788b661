package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"content-marketplace/internal/domain"
	"content-marketplace/internal/domain/model"
	"content-marketplace/internal/domain/ports/repository"
	"content-marketplace/internal/infra/logging"
	"content-marketplace/internal/infra/metrics"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
)

// Compile-time check
var _ IntentStore = (*intentStore)(nil)

// IntentStore owns the payment intent lifecycle: pending on creation, then exactly one
// transition to completed or failed.
type IntentStore interface {
	Create(ctx context.Context, payerID, packageRef string, amount int64, orderInfo string) (*model.PaymentIntent, error)
	Get(ctx context.Context, intentID string) (*model.PaymentIntent, error)
	// Transition applies a terminal status. If the intent is already terminal the stored
	// record is returned together with domain.ErrInvalidTransition.
	Transition(ctx context.Context, intentID string, status model.IntentStatus, s model.Settlement) (*model.PaymentIntent, error)
	ListByPayer(ctx context.Context, payerID string, limit, offset int) ([]*model.PaymentIntent, error)
	List(ctx context.Context, f model.IntentFilter) ([]*model.PaymentIntent, error)
}

const currencyVND = "VND"

type intentStore struct {
	intents repository.PaymentIntentRepository
	newID   func() string
	now     func() time.Time
	log     *zerolog.Logger
}

func NewIntentStore(intents repository.PaymentIntentRepository, logger *zerolog.Logger) *intentStore {
	return &intentStore{
		intents: intents,
		newID:   func() string { return ulid.Make().String() },
		now:     time.Now,
		log:     logger,
	}
}

func (s *intentStore) Create(ctx context.Context, payerID, packageRef string, amount int64, orderInfo string) (*model.PaymentIntent, error) {
	defer logging.TraceDuration(s.log, "IntentStore.Create")()

	payerID = strings.TrimSpace(payerID)
	packageRef = strings.TrimSpace(packageRef)
	switch {
	case payerID == "":
		return nil, domain.Validationf("payer required")
	case packageRef == "":
		return nil, domain.Validationf("package required")
	case amount <= 0:
		return nil, domain.Validationf("amount must be positive, got %d", amount)
	}

	now := s.now().UTC()
	p := &model.PaymentIntent{
		ID:         s.newID(),
		PayerID:    payerID,
		PackageRef: packageRef,
		Amount:     amount,
		Currency:   currencyVND,
		OrderInfo:  orderInfo,
		Status:     model.IntentStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.intents.Create(ctx, repository.NoTX, p); err != nil {
		return nil, fmt.Errorf("create intent: %w", err)
	}

	metrics.IncIntentCreated(model.PackageKind(packageRef))
	s.log.Info().
		Str("intent_id", p.ID).
		Str("payer_id", payerID).
		Str("package_ref", packageRef).
		Int64("amount", amount).
		Msg("payment intent created")
	return p, nil
}

func (s *intentStore) Get(ctx context.Context, intentID string) (*model.PaymentIntent, error) {
	if strings.TrimSpace(intentID) == "" {
		return nil, domain.ErrIntentNotFound
	}
	return s.intents.FindByID(ctx, repository.NoTX, intentID)
}

func (s *intentStore) Transition(ctx context.Context, intentID string, status model.IntentStatus, st model.Settlement) (*model.PaymentIntent, error) {
	defer logging.TraceDuration(s.log, "IntentStore.Transition")()

	if !status.Terminal() {
		return nil, domain.Validationf("cannot transition to %q", status)
	}
	if st.SettledAt.IsZero() {
		st.SettledAt = s.now()
	}

	updated, err := s.intents.TransitionIfPending(ctx, repository.NoTX, intentID, status, st)
	if err != nil {
		return nil, fmt.Errorf("transition intent %s: %w", intentID, err)
	}
	if updated != nil {
		metrics.IncTransition(string(status))
		if status == model.IntentStatusCompleted {
			metrics.AddRevenue(updated.Currency, updated.Amount)
		}
		s.log.Info().
			Str("intent_id", intentID).
			Str("status", string(status)).
			Str("response_code", st.ResponseCode).
			Msg("payment intent settled")
		return updated, nil
	}

	// No pending row matched: either the id is unknown or another callback settled it first.
	stored, err := s.intents.FindByID(ctx, repository.NoTX, intentID)
	if err != nil {
		return nil, err
	}
	if !stored.Status.Terminal() {
		return nil, fmt.Errorf("intent %s still %s after conditional update: %w", intentID, stored.Status, domain.ErrOperationFailed)
	}
	return stored, fmt.Errorf("intent %s is %s: %w", intentID, stored.Status, domain.ErrInvalidTransition)
}

func (s *intentStore) ListByPayer(ctx context.Context, payerID string, limit, offset int) ([]*model.PaymentIntent, error) {
	if payerID == "" {
		return nil, domain.Validationf("payer required")
	}
	return s.List(ctx, model.IntentFilter{PayerID: payerID, Limit: limit, Offset: offset})
}

func (s *intentStore) List(ctx context.Context, f model.IntentFilter) ([]*model.PaymentIntent, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, domain.Validationf("unknown status %q", f.Status)
	}
	out, err := s.intents.List(ctx, repository.NoTX, f)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	return out, nil
}
