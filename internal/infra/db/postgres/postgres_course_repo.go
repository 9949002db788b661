package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"content-marketplace/internal/domain"
	"content-marketplace/internal/domain/model"
	"content-marketplace/internal/domain/ports/repository"
)

var (
	_ repository.CourseRepository       = (*courseRepo)(nil)
	_ repository.CourseAccessRepository = (*courseAccessRepo)(nil)
)

type courseRepo struct{ pool *pgxpool.Pool }

func NewCourseRepo(pool *pgxpool.Pool) *courseRepo {
	return &courseRepo{pool: pool}
}

func (r *courseRepo) Save(ctx context.Context, tx repository.Tx, c *model.Course) error {
	const q = `
INSERT INTO courses (id, name, description, price, created_at)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (id) DO UPDATE SET name=$2, description=$3, price=$4;`
	_, err := execSQL(ctx, r.pool, tx, q, c.ID, c.Name, c.Description, c.Price, c.CreatedAt)
	return mapExecErr(err)
}

func (r *courseRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Course, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT id, name, description, price, created_at FROM courses WHERE id=$1;`, id)
	if err != nil {
		return nil, err
	}
	var c model.Course
	if err := row.Scan(&c.ID, &c.Name, &c.Description, &c.Price, &c.CreatedAt); err != nil {
		return nil, mapScanErr(err, domain.ErrCourseNotFound)
	}
	return &c, nil
}

type courseAccessRepo struct{ pool *pgxpool.Pool }

func NewCourseAccessRepo(pool *pgxpool.Pool) *courseAccessRepo {
	return &courseAccessRepo{pool: pool}
}

// Grant keeps the first grant when the user already owns the course.
func (r *courseAccessRepo) Grant(ctx context.Context, tx repository.Tx, a *model.CourseAccess) error {
	const q = `
INSERT INTO course_access (user_id, course_id, intent_id, granted_at)
VALUES ($1,$2,$3,$4)
ON CONFLICT (user_id, course_id) DO NOTHING;`
	_, err := execSQL(ctx, r.pool, tx, q, a.UserID, a.CourseID, a.IntentID, a.GrantedAt)
	return mapExecErr(err)
}

func (r *courseAccessRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.CourseAccess, error) {
	const q = `SELECT user_id, course_id, intent_id, granted_at FROM course_access WHERE user_id=$1 ORDER BY granted_at ASC;`
	rows, err := queryRows(ctx, r.pool, tx, q, userID)
	if err != nil {
		return nil, mapExecErr(err)
	}
	defer rows.Close()

	var out []*model.CourseAccess
	for rows.Next() {
		a := new(model.CourseAccess)
		if err := rows.Scan(&a.UserID, &a.CourseID, &a.IntentID, &a.GrantedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
