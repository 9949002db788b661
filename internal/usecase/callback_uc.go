// File: internal/usecase/callback_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"content-marketplace/internal/domain"
	"content-marketplace/internal/domain/model"
	"content-marketplace/internal/domain/ports/adapter"
	"content-marketplace/internal/infra/logging"
	"content-marketplace/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ CallbackUseCase = (*callbackUC)(nil)

// Callback sources. The browser return and the server-to-server IPN carry the same signed
// query and share one code path.
const (
	CallbackSourceReturn = "return"
	CallbackSourceIPN    = "ipn"
)

type CallbackResult struct {
	Intent *model.PaymentIntent
	// Replayed is set when the intent was already terminal; nothing was changed.
	Replayed bool
	// EntitlementErr is a fulfilment failure after a completed transition. The payment stays
	// completed and needs manual reconciliation.
	EntitlementErr error
}

type CallbackUseCase interface {
	Handle(ctx context.Context, source string, params url.Values) (*CallbackResult, error)
}

type callbackUC struct {
	gateway      adapter.PaymentGateway
	intents      IntentStore
	entitlements EntitlementUseCase
	log          *zerolog.Logger
}

func NewCallbackUseCase(gateway adapter.PaymentGateway, intents IntentStore, entitlements EntitlementUseCase, logger *zerolog.Logger) *callbackUC {
	return &callbackUC{gateway: gateway, intents: intents, entitlements: entitlements, log: logger}
}

func (u *callbackUC) Handle(ctx context.Context, source string, params url.Values) (*CallbackResult, error) {
	defer logging.TraceDuration(u.log, "CallbackUC.Handle")()
	defer metrics.ObserveCallback(source, time.Now())

	log := logging.With(ctx, u.log).With().
		Str("source", source).
		Str("gateway", u.gateway.Name()).
		Str("txn_ref", params.Get("vnp_TxnRef")).
		Logger()

	cb, err := u.gateway.ParseCallback(params)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrSignatureMismatch):
			metrics.IncCallback(source, "bad_signature")
			log.Warn().Msg("callback rejected: signature mismatch")
		case errors.Is(err, domain.ErrAmountMismatch):
			metrics.IncCallback(source, "amount_mismatch")
			log.Error().Err(err).Msg("callback rejected: malformed amount")
		default:
			metrics.IncCallback(source, "invalid")
			log.Warn().Err(err).Msg("callback rejected: malformed data")
		}
		return nil, err
	}
	log = log.With().Str("intent_id", cb.IntentID).Logger()

	intent, err := u.intents.Get(ctx, cb.IntentID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			metrics.IncCallback(source, "not_found")
			log.Warn().Str("provider_txn_no", cb.ProviderTxnNo).Str("response_code", cb.ResponseCode).
				Msg("signed callback for unknown intent; needs reconciliation")
			return nil, err
		}
		metrics.IncCallback(source, "error")
		return nil, err
	}

	if cb.Amount != intent.Amount {
		metrics.IncCallback(source, "amount_mismatch")
		log.Error().
			Int64("expected", intent.Amount).
			Int64("received", cb.Amount).
			Str("provider_txn_no", cb.ProviderTxnNo).
			Msg("callback amount mismatch; intent left unchanged")
		return &CallbackResult{Intent: intent}, fmt.Errorf("intent %s: expected %d got %d: %w", intent.ID, intent.Amount, cb.Amount, domain.ErrAmountMismatch)
	}

	target := model.IntentStatusFailed
	if cb.Success {
		target = model.IntentStatusCompleted
	}
	settled, err := u.intents.Transition(ctx, intent.ID, target, model.Settlement{
		ProviderTxnNo: cb.ProviderTxnNo,
		ResponseCode:  cb.ResponseCode,
		BankCode:      cb.BankCode,
		SettledAt:     cb.PaidAt,
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidTransition) && settled != nil {
			metrics.IncCallback(source, "replayed")
			log.Info().Str("status", string(settled.Status)).Msg("callback replay; intent already settled")
			return &CallbackResult{Intent: settled, Replayed: true}, nil
		}
		metrics.IncCallback(source, "error")
		log.Error().Err(err).Msg("transition failed")
		return nil, err
	}

	metrics.IncCallback(source, string(settled.Status))
	res := &CallbackResult{Intent: settled}
	if settled.Status != model.IntentStatusCompleted {
		log.Info().Str("response_code", cb.ResponseCode).Msg("payment failed at provider")
		return res, nil
	}

	if gerr := u.entitlements.Grant(ctx, settled); gerr != nil {
		metrics.IncEntitlementFailure(model.PackageKind(settled.PackageRef))
		log.Error().
			Err(gerr).
			Bool("alert", true).
			Str("payer_id", settled.PayerID).
			Str("package_ref", settled.PackageRef).
			Msg("payment completed but entitlement failed")
		res.EntitlementErr = gerr
	}
	return res, nil
}
