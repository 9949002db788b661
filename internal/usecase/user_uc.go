package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"content-marketplace/internal/domain"
	"content-marketplace/internal/domain/model"
	"content-marketplace/internal/domain/ports/repository"
	"content-marketplace/internal/infra/logging"
	"content-marketplace/internal/infra/metrics"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// Compile-time check
var _ UserUseCase = (*userUC)(nil)

const minPasswordLen = 8

// UserProfile is what the /me endpoint renders.
type UserProfile struct {
	User    *model.User           `json:"user"`
	Courses []*model.CourseAccess `json:"courses"`
}

// UserUseCase exposes account operations used by the HTTP API.
type UserUseCase interface {
	Register(ctx context.Context, email, name, password string) (*model.User, error)
	// Authenticate returns domain.ErrUnauthorized for any unknown email or wrong password.
	Authenticate(ctx context.Context, email, password string) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
	Profile(ctx context.Context, id string) (*UserProfile, error)
	Count(ctx context.Context) (int, error)
}

type userUC struct {
	users      repository.UserRepository
	access     repository.CourseAccessRepository
	tm         repository.TransactionManager
	bcryptCost int
	log        *zerolog.Logger
}

func NewUserUseCase(users repository.UserRepository, access repository.CourseAccessRepository, tm repository.TransactionManager, logger *zerolog.Logger) *userUC {
	return &userUC{
		users:      users,
		access:     access,
		tm:         tm,
		bcryptCost: bcrypt.DefaultCost,
		log:        logger,
	}
}

func (u *userUC) Register(ctx context.Context, email, name, password string) (*model.User, error) {
	defer logging.TraceDuration(u.log, "UserUC.Register")()

	if len(password) < minPasswordLen {
		return nil, domain.Validationf("password must be at least %d characters", minPasswordLen)
	}
	nu, err := model.NewUser("", email, name, model.LoginMethodManual)
	if err != nil {
		return nil, domain.Validationf("invalid email or name")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), u.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	nu.PasswordHash = string(hash)

	// The unique index on email is the real guard; the lookup gives a clean error in the common case.
	txOpts := pgx.TxOptions{IsoLevel: pgx.Serializable}
	err = u.tm.WithTx(ctx, txOpts, func(ctx context.Context, tx repository.Tx) error {
		existing, err := u.users.FindByEmail(ctx, tx, nu.Email)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		if existing != nil {
			return domain.ErrAlreadyExists
		}
		return u.users.Save(ctx, tx, nu)
	})
	if err != nil {
		return nil, err
	}

	metrics.IncUsersRegistered()
	u.log.Info().Str("user_id", nu.ID).Msg("user registered")
	return nu, nil
}

func (u *userUC) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	defer logging.TraceDuration(u.log, "UserUC.Authenticate")()

	user, err := u.users.FindByEmail(ctx, repository.NoTX, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, err
	}
	if user.PasswordHash == "" {
		return nil, domain.ErrUnauthorized
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrUnauthorized
	}
	return user, nil
}

func (u *userUC) GetByID(ctx context.Context, id string) (*model.User, error) {
	defer logging.TraceDuration(u.log, "UserUC.GetByID")()
	return u.users.FindByID(ctx, repository.NoTX, id)
}

func (u *userUC) Profile(ctx context.Context, id string) (*UserProfile, error) {
	defer logging.TraceDuration(u.log, "UserUC.Profile")()

	user, err := u.users.FindByID(ctx, repository.NoTX, id)
	if err != nil {
		return nil, err
	}
	courses, err := u.access.ListByUser(ctx, repository.NoTX, id)
	if err != nil {
		return nil, err
	}
	if courses == nil {
		courses = []*model.CourseAccess{}
	}
	return &UserProfile{User: user, Courses: courses}, nil
}

func (u *userUC) Count(ctx context.Context) (int, error) {
	defer logging.TraceDuration(u.log, "UserUC.Count")()
	return u.users.CountUsers(ctx, repository.NoTX)
}
