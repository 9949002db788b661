package api

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"content-marketplace/internal/domain"
	"content-marketplace/internal/domain/model"
	"content-marketplace/internal/infra/logging"
	"content-marketplace/internal/infra/metrics"
	red "content-marketplace/internal/infra/redis"
	"content-marketplace/internal/usecase"

	"github.com/go-chi/chi/v5"
)

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      *model.User `json:"user"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	u, err := s.svc.Users.Register(r.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	s.issueToken(w, r, http.StatusCreated, u)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	u, err := s.svc.Users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		l := logging.With(r.Context(), s.log)
		l.Info().Str("email", logging.Redact(req.Email, s.dev)).Msg("login rejected")
		writeDomainError(w, err)
		return
	}
	s.issueToken(w, r, http.StatusOK, u)
}

func (s *Server) issueToken(w http.ResponseWriter, r *http.Request, status int, u *model.User) {
	tok, exp, err := s.tokens.Mint(u)
	if err != nil {
		l := logging.With(r.Context(), s.log)
		l.Error().Err(err).Msg("mint token")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, status, tokenResponse{Token: tok, ExpiresAt: exp, User: u})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFrom(r.Context())
	profile, err := s.svc.Users.Profile(r.Context(), p.UserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

type createPaymentRequest struct {
	PackageRef string `json:"package_ref"`
	Locale     string `json:"locale,omitempty"`
	BankCode   string `json:"bank_code,omitempty"`
}

func (s *Server) handleCreatePayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, _ := principalFrom(ctx)
	l := logging.With(ctx, s.log)

	var req createPaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}

	if s.limiter != nil {
		ok, err := s.limiter.Allow(ctx, red.UserActionKey(p.UserID, "checkout"), s.payCfg.CheckoutRateLimit, time.Minute)
		switch {
		case err != nil:
			// fail open: a redis outage must not block purchases
			l.Warn().Err(err).Msg("rate limiter unavailable")
		case !ok:
			metrics.IncRateLimited("checkout")
			writeDomainError(w, domain.ErrRateLimited)
			return
		}
	}

	res, err := s.svc.Checkout.Initiate(ctx, usecase.CheckoutRequest{
		PayerID:    p.UserID,
		PackageRef: req.PackageRef,
		ClientIP:   clientIP(r),
		Locale:     req.Locale,
		BankCode:   req.BankCode,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

type intentList struct {
	Items  []*model.PaymentIntent `json:"items"`
	Limit  int                    `json:"limit"`
	Offset int                    `json:"offset"`
}

func (s *Server) handleListPayments(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFrom(r.Context())
	limit, offset := paging(r, 20, 100)
	items, err := s.svc.Intents.ListByPayer(r.Context(), p.UserID, limit, offset)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if items == nil {
		items = []*model.PaymentIntent{}
	}
	writeJSON(w, http.StatusOK, intentList{Items: items, Limit: limit, Offset: offset})
}

func (s *Server) handleGetPayment(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFrom(r.Context())
	intent, err := s.svc.Intents.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	// someone else's intent is reported as missing
	if intent.PayerID != p.UserID && p.Role != model.RoleAdmin {
		writeDomainError(w, domain.ErrIntentNotFound)
		return
	}
	writeJSON(w, http.StatusOK, intent)
}

func (s *Server) handleAdminPayments(w http.ResponseWriter, r *http.Request) {
	limit, offset := paging(r, 100, 500)
	f := model.IntentFilter{
		Status:  model.IntentStatus(r.URL.Query().Get("status")),
		PayerID: r.URL.Query().Get("payer_id"),
		Limit:   limit,
		Offset:  offset,
	}
	if f.Status != "" && !f.Status.Valid() {
		writeError(w, http.StatusBadRequest, "unknown status")
		return
	}
	items, err := s.svc.Intents.List(r.Context(), f)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if items == nil {
		items = []*model.PaymentIntent{}
	}
	writeJSON(w, http.StatusOK, intentList{Items: items, Limit: limit, Offset: offset})
}

type statsResponse struct {
	TotalUsers      int                        `json:"total_users"`
	IntentsByStatus map[model.IntentStatus]int `json:"intents_by_status"`
	Revenue         usecase.Revenue            `json:"revenue_vnd"`
}

func (s *Server) handleAdminStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	users, byStatus, err := s.svc.Stats.Totals(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get totals")
		return
	}
	rev, err := s.svc.Stats.Revenue(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get revenue")
		return
	}
	writeJSON(w, http.StatusOK, statsResponse{TotalUsers: users, IntentsByStatus: byStatus, Revenue: rev})
}

func paging(r *http.Request, def, maxLimit int) (limit, offset int) {
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))
	if limit <= 0 {
		limit = def
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// clientIP prefers the first X-Forwarded-For hop; the provider wants the payer's address.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
