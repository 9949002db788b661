// File: internal/usecase/checkout_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"content-marketplace/internal/domain"
	"content-marketplace/internal/domain/model"
	"content-marketplace/internal/domain/ports/adapter"
	"content-marketplace/internal/domain/ports/repository"
	"content-marketplace/internal/infra/logging"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ CheckoutUseCase = (*checkoutUC)(nil)

type CheckoutRequest struct {
	PayerID    string
	PackageRef string
	ClientIP   string
	Locale     string
	BankCode   string
}

type CheckoutResult struct {
	Intent     *model.PaymentIntent `json:"intent"`
	PaymentURL string               `json:"payment_url"`
}

// Messages renders provider-facing texts in the payer's locale.
type Messages interface {
	T(lang, key string, args ...any) string
}

type CheckoutUseCase interface {
	// Initiate prices the package server-side, records a pending intent and returns the signed
	// provider redirect for it.
	Initiate(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error)
}

type checkoutUC struct {
	users        repository.UserRepository
	courses      repository.CourseRepository
	access       repository.CourseAccessRepository
	intents      IntentStore
	gateway      adapter.PaymentGateway
	premiumPrice int64
	messages     Messages
	log          *zerolog.Logger
}

func NewCheckoutUseCase(
	users repository.UserRepository,
	courses repository.CourseRepository,
	access repository.CourseAccessRepository,
	intents IntentStore,
	gateway adapter.PaymentGateway,
	premiumPrice int64,
	messages Messages,
	logger *zerolog.Logger,
) *checkoutUC {
	return &checkoutUC{
		users:        users,
		courses:      courses,
		access:       access,
		intents:      intents,
		gateway:      gateway,
		premiumPrice: premiumPrice,
		messages:     messages,
		log:          logger,
	}
}

func (u *checkoutUC) Initiate(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error) {
	defer logging.TraceDuration(u.log, "CheckoutUC.Initiate")()
	log := logging.With(ctx, u.log)

	if strings.TrimSpace(req.PackageRef) == "" {
		return nil, domain.Validationf("package required")
	}
	user, err := u.users.FindByID(ctx, repository.NoTX, req.PayerID)
	if err != nil {
		return nil, err
	}

	packageRef, amount, orderInfo, err := u.resolve(ctx, user, req.PackageRef, req.Locale)
	if err != nil {
		return nil, err
	}

	intent, err := u.intents.Create(ctx, user.ID, packageRef, amount, orderInfo)
	if err != nil {
		return nil, err
	}

	payURL, err := u.gateway.BuildPaymentURL(intent, adapter.PaymentRequest{
		ClientIP:  req.ClientIP,
		Locale:    req.Locale,
		BankCode:  req.BankCode,
		CreatedAt: intent.CreatedAt,
	})
	if err != nil {
		// The intent stays pending and unreachable; it is harmless and visible to admins.
		log.Warn().Err(err).Str("intent_id", intent.ID).Msg("build payment url failed")
		return nil, fmt.Errorf("build payment url: %w", err)
	}

	log.Info().
		Str("intent_id", intent.ID).
		Str("gateway", u.gateway.Name()).
		Str("client_ip", logging.Redact(req.ClientIP, false)).
		Msg("checkout initiated")
	return &CheckoutResult{Intent: intent, PaymentURL: payURL}, nil
}

// resolve returns the normalized package reference, its price and the provider order description.
func (u *checkoutUC) resolve(ctx context.Context, user *model.User, ref, lang string) (string, int64, string, error) {
	if model.IsSubscriptionPackage(ref) {
		if user.IsPremium() {
			return "", 0, "", fmt.Errorf("user %s is already premium: %w", user.ID, domain.ErrAlreadyExists)
		}
		if u.premiumPrice <= 0 {
			return "", 0, "", domain.Validationf("premium subscription is not for sale")
		}
		return model.PackageSubscriptionPremium, u.premiumPrice, u.messages.T(lang, "order.premium"), nil
	}

	course, err := u.courses.FindByID(ctx, repository.NoTX, ref)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", 0, "", domain.Validationf("unknown package %q", ref)
		}
		return "", 0, "", err
	}
	owned, err := u.access.ListByUser(ctx, repository.NoTX, user.ID)
	if err != nil {
		return "", 0, "", err
	}
	for _, a := range owned {
		if a.CourseID == course.ID {
			return "", 0, "", fmt.Errorf("course %s already owned: %w", course.ID, domain.ErrAlreadyExists)
		}
	}
	return course.ID, course.Price, u.messages.T(lang, "order.course", course.Name), nil
}
