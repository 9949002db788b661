package model

import (
	"time"

	"content-marketplace/internal/domain"

	"github.com/google/uuid"
)

// Course is a purchasable catalogue entry priced in VND.
type Course struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       int64     `json:"price"`
	CreatedAt   time.Time `json:"created_at"`
}

func (c *Course) IsZero() bool { return c == nil || c.ID == "" }

func NewCourse(id, name, description string, price int64) (*Course, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if name == "" || price <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	return &Course{
		ID:          id,
		Name:        name,
		Description: description,
		Price:       price,
		CreatedAt:   time.Now(),
	}, nil
}

// CourseAccess is the entitlement produced by a completed course purchase.
type CourseAccess struct {
	UserID    string    `json:"user_id"`
	CourseID  string    `json:"course_id"`
	IntentID  string    `json:"intent_id"`
	GrantedAt time.Time `json:"granted_at"`
}
