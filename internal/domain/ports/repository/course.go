package repository

import (
	"context"

	"content-marketplace/internal/domain/model"
)

// -----------------------------
// Courses and course access
// -----------------------------

type CourseRepository interface {
	Save(ctx context.Context, tx Tx, c *model.Course) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Course, error)
}

type CourseAccessRepository interface {
	// Grant records access; granting an already owned course is a no-op.
	Grant(ctx context.Context, tx Tx, a *model.CourseAccess) error
	ListByUser(ctx context.Context, tx Tx, userID string) ([]*model.CourseAccess, error)
}
