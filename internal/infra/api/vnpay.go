package api

import (
	"errors"
	"net/http"
	"net/url"

	"content-marketplace/internal/domain"
	"content-marketplace/internal/domain/model"
	"content-marketplace/internal/infra/logging"
	"content-marketplace/internal/usecase"
)

// IPN acknowledgement codes understood by VNPay.
const (
	ipnOK               = "00"
	ipnOrderNotFound    = "01"
	ipnAlreadyConfirmed = "02"
	ipnInvalidAmount    = "04"
	ipnInvalidChecksum  = "97"
	ipnUnknownError     = "99"
)

type ipnResponse struct {
	RspCode string `json:"RspCode"`
	Message string `json:"Message"`
}

// ipnAck maps a callback outcome onto the acknowledgement the provider expects. Anything
// other than 00 or 02 makes the provider retry.
func ipnAck(res *usecase.CallbackResult, err error) ipnResponse {
	switch {
	case err == nil && res != nil && res.Replayed:
		return ipnResponse{ipnAlreadyConfirmed, "Order already confirmed"}
	case err == nil:
		return ipnResponse{ipnOK, "Confirm Success"}
	case errors.Is(err, domain.ErrSignatureMismatch):
		return ipnResponse{ipnInvalidChecksum, "Invalid Checksum"}
	case errors.Is(err, domain.ErrAmountMismatch):
		return ipnResponse{ipnInvalidAmount, "Invalid amount"}
	case errors.Is(err, domain.ErrNotFound):
		return ipnResponse{ipnOrderNotFound, "Order not found"}
	default:
		return ipnResponse{ipnUnknownError, "Unknown error"}
	}
}

// handleVNPayIPN always answers 200; the outcome is carried in RspCode.
func (s *Server) handleVNPayIPN(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.Callbacks.Handle(r.Context(), usecase.CallbackSourceIPN, r.URL.Query())
	ack := ipnAck(res, err)
	if ack.RspCode == ipnUnknownError {
		l := logging.With(r.Context(), s.log)
		l.Error().Err(err).Msg("ipn processing failed")
	}
	writeJSON(w, http.StatusOK, ack)
}

type returnResponse struct {
	Intent   *model.PaymentIntent `json:"intent"`
	Success  bool                 `json:"success"`
	Replayed bool                 `json:"replayed"`
	// Fulfilment is "pending" when the payment completed but access has not been granted yet.
	Fulfilment string `json:"fulfilment,omitempty"`
}

// handleVNPayReturn settles the intent from the browser redirect, then sends the payer to the
// frontend result page, or answers JSON when no frontend is configured.
func (s *Server) handleVNPayReturn(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.Callbacks.Handle(r.Context(), usecase.CallbackSourceReturn, r.URL.Query())
	if err != nil {
		status, msg := statusFor(err)
		if status == http.StatusInternalServerError {
			l := logging.With(r.Context(), s.log)
			l.Error().Err(err).Msg("return callback failed")
		}
		writeError(w, status, msg)
		return
	}

	success := res.Intent.Status == model.IntentStatusCompleted
	target := s.payCfg.Frontend.FailureURL
	if success {
		target = s.payCfg.Frontend.SuccessURL
	}
	if target != "" {
		if dest, ok := withResult(target, res.Intent); ok {
			http.Redirect(w, r, dest, http.StatusFound)
			return
		}
	}

	body := returnResponse{Intent: res.Intent, Success: success, Replayed: res.Replayed}
	if res.EntitlementErr != nil {
		body.Fulfilment = "pending"
	}
	writeJSON(w, http.StatusOK, body)
}

func withResult(base string, intent *model.PaymentIntent) (string, bool) {
	u, err := url.Parse(base)
	if err != nil {
		return "", false
	}
	q := u.Query()
	q.Set("intent_id", intent.ID)
	q.Set("status", string(intent.Status))
	u.RawQuery = q.Encode()
	return u.String(), true
}
