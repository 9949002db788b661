package usecase

import (
	"context"
	"errors"
	"time"

	"content-marketplace/internal/domain"
	"content-marketplace/internal/domain/model"
	"content-marketplace/internal/domain/ports/repository"
	"content-marketplace/internal/infra/logging"
	"content-marketplace/internal/infra/metrics"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
)

// Compile-time check
var _ EntitlementUseCase = (*entitlementUC)(nil)

// EntitlementUseCase applies the effect a completed intent paid for. It never reads or writes
// intent status.
type EntitlementUseCase interface {
	Grant(ctx context.Context, intent *model.PaymentIntent) error
}

type entitlementUC struct {
	users   repository.UserRepository
	courses repository.CourseRepository
	access  repository.CourseAccessRepository
	tm      repository.TransactionManager
	log     *zerolog.Logger
}

func NewEntitlementUseCase(
	users repository.UserRepository,
	courses repository.CourseRepository,
	access repository.CourseAccessRepository,
	tm repository.TransactionManager,
	logger *zerolog.Logger,
) *entitlementUC {
	return &entitlementUC{users: users, courses: courses, access: access, tm: tm, log: logger}
}

// Grant returns a *domain.EntitlementError for every failure.
func (u *entitlementUC) Grant(ctx context.Context, intent *model.PaymentIntent) error {
	defer logging.TraceDuration(u.log, "EntitlementUC.Grant")()

	if intent.IsZero() || intent.Status != model.IntentStatusCompleted {
		return u.fail(intent, domain.Validationf("intent is not completed"))
	}

	kind := model.PackageKind(intent.PackageRef)
	var err error
	if kind == "subscription" {
		err = u.grantPremium(ctx, intent)
	} else {
		err = u.grantCourse(ctx, intent)
	}
	if err != nil {
		return u.fail(intent, err)
	}

	metrics.IncEntitlementGrant(kind)
	u.log.Info().
		Str("intent_id", intent.ID).
		Str("payer_id", intent.PayerID).
		Str("package_ref", intent.PackageRef).
		Msg("entitlement granted")
	return nil
}

func (u *entitlementUC) grantPremium(ctx context.Context, intent *model.PaymentIntent) error {
	return u.tm.WithTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(ctx context.Context, tx repository.Tx) error {
		user, err := u.users.FindByID(ctx, tx, intent.PayerID)
		if err != nil {
			return err
		}
		if user.IsPremium() {
			return nil
		}
		user.SubscriptionTier = model.SubscriptionTierPremium
		user.UpdatedAt = time.Now()
		return u.users.Save(ctx, tx, user)
	})
}

func (u *entitlementUC) grantCourse(ctx context.Context, intent *model.PaymentIntent) error {
	course, err := u.courses.FindByID(ctx, repository.NoTX, intent.PackageRef)
	if err != nil {
		return err
	}
	if _, err := u.users.FindByID(ctx, repository.NoTX, intent.PayerID); err != nil {
		return err
	}
	return u.access.Grant(ctx, repository.NoTX, &model.CourseAccess{
		UserID:    intent.PayerID,
		CourseID:  course.ID,
		IntentID:  intent.ID,
		GrantedAt: time.Now(),
	})
}

func (u *entitlementUC) fail(intent *model.PaymentIntent, err error) error {
	var ee *domain.EntitlementError
	if errors.As(err, &ee) {
		return ee
	}
	out := &domain.EntitlementError{Err: err}
	if intent != nil {
		out.IntentID, out.PayerID, out.PackageRef = intent.ID, intent.PayerID, intent.PackageRef
	}
	return out
}
