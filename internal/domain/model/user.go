package model

import (
	"net/mail"
	"strings"
	"time"

	"content-marketplace/internal/domain"

	"github.com/google/uuid"
)

type LoginMethod string

const (
	LoginMethodManual LoginMethod = "manual"
	LoginMethodGoogle LoginMethod = "google"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User is a marketplace account. Only the entitlement grantor changes SubscriptionTier.
type User struct {
	ID               string           `json:"id"`
	Email            string           `json:"email"`
	Name             string           `json:"name"`
	PasswordHash     string           `json:"-"`
	LoginMethod      LoginMethod      `json:"login_method"`
	Role             Role             `json:"role"`
	SubscriptionTier SubscriptionTier `json:"subscription_tier"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

func NewUser(id, email, name string, method LoginMethod) (*User, error) {
	if id == "" {
		id = uuid.NewString()
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, domain.ErrInvalidArgument
	}
	if strings.TrimSpace(name) == "" {
		return nil, domain.ErrInvalidArgument
	}
	if method != LoginMethodManual && method != LoginMethodGoogle {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &User{
		ID:               id,
		Email:            email,
		Name:             strings.TrimSpace(name),
		LoginMethod:      method,
		Role:             RoleUser,
		SubscriptionTier: SubscriptionTierNone,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

func (u *User) IsZero() bool    { return u == nil || u.ID == "" }
func (u *User) IsPremium() bool { return u != nil && u.SubscriptionTier == SubscriptionTierPremium }
func (u *User) IsAdmin() bool   { return u != nil && u.Role == RoleAdmin }
