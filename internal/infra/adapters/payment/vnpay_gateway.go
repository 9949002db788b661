// File: internal/infra/adapters/payment/vnpay_gateway.go
package payment

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"content-marketplace/internal/config"
	"content-marketplace/internal/domain"
	"content-marketplace/internal/domain/model"
	"content-marketplace/internal/domain/ports/adapter"
	sig "content-marketplace/internal/infra/payment"
)

var _ adapter.PaymentGateway = (*VNPayGateway)(nil)

const (
	vnpVersion     = "2.1.0"
	vnpCommandPay  = "pay"
	vnpCurrency    = "VND"
	vnpDateLayout  = "20060102150405"
	vnpAmountScale = 100

	// ResponseCodeSuccess is the only vnp_ResponseCode that settles an intent as completed.
	ResponseCodeSuccess = "00"
)

// VNPay reports and expects timestamps in Vietnam time.
var vnpZone = time.FixedZone("GMT+7", 7*60*60)

// VNPayGateway implements adapter.PaymentGateway with the VNPay redirect protocol:
// signed redirect URL out, signed return/IPN query back.
type VNPayGateway struct {
	tmnCode     string
	payURL      string
	returnURL   string
	locale      string
	orderType   string
	expireAfter time.Duration
	signer      *sig.Signer
	now         func() time.Time
}

func NewVNPayGateway(cfg config.VNPayConfig) (*VNPayGateway, error) {
	if cfg.TmnCode == "" {
		return nil, errors.New("vnpay: tmn code empty")
	}
	if cfg.HashSecret == "" {
		return nil, errors.New("vnpay: hash secret empty")
	}
	for name, raw := range map[string]string{"pay url": cfg.PayURL, "return url": cfg.ReturnURL} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("vnpay: invalid %s %q", name, raw)
		}
	}
	return &VNPayGateway{
		tmnCode:     cfg.TmnCode,
		payURL:      cfg.PayURL,
		returnURL:   cfg.ReturnURL,
		locale:      cfg.Locale,
		orderType:   cfg.OrderType,
		expireAfter: cfg.ExpireAfter,
		signer:      sig.NewSigner(cfg.HashSecret),
		now:         time.Now,
	}, nil
}

func (g *VNPayGateway) Name() string { return "vnpay" }

// BuildPaymentURL assembles the redirect to the VNPay checkout page. The query string is the
// canonical encoding itself, so the provider receives exactly the bytes that were signed.
func (g *VNPayGateway) BuildPaymentURL(intent *model.PaymentIntent, req adapter.PaymentRequest) (string, error) {
	if intent.IsZero() {
		return "", domain.ErrInvalidArgument
	}
	if intent.Status != model.IntentStatusPending {
		return "", fmt.Errorf("intent %s is %s: %w", intent.ID, intent.Status, domain.ErrInvalidTransition)
	}
	if intent.Amount <= 0 {
		return "", domain.Validationf("amount must be positive")
	}
	if strings.TrimSpace(req.ClientIP) == "" {
		return "", domain.Validationf("client ip required")
	}

	created := req.CreatedAt
	if created.IsZero() {
		created = g.now()
	}
	created = created.In(vnpZone)

	orderInfo := intent.OrderInfo
	if orderInfo == "" {
		orderInfo = "Thanh toan don hang " + intent.ID
	}

	p := url.Values{}
	p.Set("vnp_Version", vnpVersion)
	p.Set("vnp_Command", vnpCommandPay)
	p.Set("vnp_TmnCode", g.tmnCode)
	p.Set("vnp_Locale", firstNonEmpty(req.Locale, g.locale))
	p.Set("vnp_CurrCode", vnpCurrency)
	p.Set("vnp_TxnRef", intent.ID)
	p.Set("vnp_OrderInfo", orderInfo)
	p.Set("vnp_OrderType", firstNonEmpty(req.OrderType, g.orderType))
	p.Set("vnp_Amount", strconv.FormatInt(intent.Amount*vnpAmountScale, 10))
	p.Set("vnp_ReturnUrl", g.returnURL)
	p.Set("vnp_IpAddr", req.ClientIP)
	p.Set("vnp_CreateDate", created.Format(vnpDateLayout))
	if g.expireAfter > 0 {
		p.Set("vnp_ExpireDate", created.Add(g.expireAfter).Format(vnpDateLayout))
	}
	if req.BankCode != "" {
		p.Set("vnp_BankCode", req.BankCode)
	}

	canonical := sig.Canonicalize(p)
	digest := g.signer.Sign([]byte(canonical))

	sep := "?"
	if strings.Contains(g.payURL, "?") {
		sep = "&"
	}
	return g.payURL + sep + canonical + "&" + sig.FieldSecureHash + "=" + digest, nil
}

// ParseCallback verifies and decodes the return/IPN query. Only a failed signature check
// maps to domain.ErrSignatureMismatch; signed but unusable data maps to ErrValidation.
func (g *VNPayGateway) ParseCallback(params url.Values) (*adapter.CallbackData, error) {
	if !g.signer.Verify(params, params.Get(sig.FieldSecureHash)) {
		return nil, domain.ErrSignatureMismatch
	}

	ref := params.Get("vnp_TxnRef")
	if ref == "" {
		return nil, domain.Validationf("vnp_TxnRef missing")
	}
	raw, err := strconv.ParseInt(params.Get("vnp_Amount"), 10, 64)
	if err != nil || raw <= 0 {
		return nil, domain.Validationf("vnp_Amount %q", params.Get("vnp_Amount"))
	}
	if raw%vnpAmountScale != 0 {
		return nil, fmt.Errorf("vnp_Amount %d not a multiple of %d: %w", raw, vnpAmountScale, domain.ErrAmountMismatch)
	}

	code := params.Get("vnp_ResponseCode")
	paidAt := g.now()
	if pd := params.Get("vnp_PayDate"); pd != "" {
		if t, err := time.ParseInLocation(vnpDateLayout, pd, vnpZone); err == nil {
			paidAt = t
		}
	}

	return &adapter.CallbackData{
		IntentID:      ref,
		Amount:        raw / vnpAmountScale,
		ResponseCode:  code,
		Success:       code == ResponseCodeSuccess,
		ProviderTxnNo: params.Get("vnp_TransactionNo"),
		BankCode:      params.Get("vnp_BankCode"),
		PaidAt:        paidAt,
	}, nil
}

// SignParams exposes the signer for tooling that needs to produce provider-shaped callbacks
// (sandbox replays, the paymentctl CLI).
func (g *VNPayGateway) SignParams(params url.Values) string {
	return g.signer.SignParams(params)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
