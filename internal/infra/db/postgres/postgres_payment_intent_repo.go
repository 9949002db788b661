package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"content-marketplace/internal/domain"
	"content-marketplace/internal/domain/model"
	"content-marketplace/internal/domain/ports/repository"
)

var _ repository.PaymentIntentRepository = (*paymentIntentRepo)(nil)

const intentColumns = `id, payer_id, package_ref, amount, currency, order_info, status,
  provider_txn_no, provider_response_code, bank_code, settled_at, created_at, updated_at`

type paymentIntentRepo struct{ pool *pgxpool.Pool }

func NewPaymentIntentRepo(pool *pgxpool.Pool) *paymentIntentRepo {
	return &paymentIntentRepo{pool: pool}
}

func scanIntent(row pgx.Row) (*model.PaymentIntent, error) {
	p := &model.PaymentIntent{}
	err := row.Scan(&p.ID, &p.PayerID, &p.PackageRef, &p.Amount, &p.Currency, &p.OrderInfo, &p.Status,
		&p.ProviderTxnNo, &p.ProviderResponseCode, &p.BankCode, &p.SettledAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Create never upserts: an intent row is written once and afterwards only moved by TransitionIfPending.
func (r *paymentIntentRepo) Create(ctx context.Context, tx repository.Tx, p *model.PaymentIntent) error {
	const q = `
INSERT INTO payment_intents (
  id, payer_id, package_ref, amount, currency, order_info, status, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9);`

	_, err := execSQL(ctx, r.pool, tx, q, p.ID, p.PayerID, p.PackageRef, p.Amount, p.Currency, p.OrderInfo, p.Status, p.CreatedAt, p.UpdatedAt)
	return mapExecErr(err)
}

func (r *paymentIntentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.PaymentIntent, error) {
	q := `SELECT ` + intentColumns + ` FROM payment_intents WHERE id=$1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	row, err := pickRow(ctx, r.pool, tx, q+";", id)
	if err != nil {
		return nil, err
	}
	p, err := scanIntent(row)
	if err != nil {
		return nil, mapScanErr(err, domain.ErrIntentNotFound)
	}
	return p, nil
}

// TransitionIfPending settles the intent with one conditional UPDATE, so concurrent callbacks for
// the same id serialize on the row and only the first one matches status='pending'.
func (r *paymentIntentRepo) TransitionIfPending(
	ctx context.Context, tx repository.Tx, id string, status model.IntentStatus, s model.Settlement,
) (*model.PaymentIntent, error) {
	if !status.Terminal() {
		return nil, fmt.Errorf("target %q: %w", status, domain.ErrInvalidTransition)
	}
	settledAt := s.SettledAt
	if settledAt.IsZero() {
		settledAt = time.Now()
	}

	q := `
UPDATE payment_intents
   SET status = $2,
       provider_txn_no = $3,
       provider_response_code = $4,
       bank_code = $5,
       settled_at = $6,
       updated_at = NOW()
 WHERE id = $1
   AND status = 'pending'
RETURNING ` + intentColumns + `;`

	row, err := pickRow(ctx, r.pool, tx, q, id, string(status), s.ProviderTxnNo, s.ResponseCode, s.BankCode, settledAt)
	if err != nil {
		return nil, err
	}
	p, err := scanIntent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, domain.ErrOperationFailed
	}
	return p, nil
}

func (r *paymentIntentRepo) List(ctx context.Context, tx repository.Tx, f model.IntentFilter) ([]*model.PaymentIntent, error) {
	var (
		where []string
		args  []interface{}
	)
	if f.Status != "" {
		args = append(args, string(f.Status))
		where = append(where, fmt.Sprintf("status=$%d", len(args)))
	}
	if f.PayerID != "" {
		args = append(args, f.PayerID)
		where = append(where, fmt.Sprintf("payer_id=$%d", len(args)))
	}
	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	q := `SELECT ` + intentColumns + ` FROM payment_intents`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, limit, offset)
	q += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d;", len(args)-1, len(args))

	rows, err := queryRows(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, mapExecErr(err)
	}
	defer rows.Close()

	var out []*model.PaymentIntent
	for rows.Next() {
		p, err := scanIntent(rows)
		if err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

func (r *paymentIntentRepo) CountByStatus(ctx context.Context, tx repository.Tx) (map[model.IntentStatus]int, error) {
	rows, err := queryRows(ctx, r.pool, tx, `SELECT status, COUNT(*) FROM payment_intents GROUP BY status;`)
	if err != nil {
		return nil, mapExecErr(err)
	}
	defer rows.Close()

	out := map[model.IntentStatus]int{}
	for rows.Next() {
		var (
			s model.IntentStatus
			n int
		)
		if err := rows.Scan(&s, &n); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out[s] = n
	}
	return out, rows.Err()
}

func (r *paymentIntentRepo) SumCompletedSince(ctx context.Context, tx repository.Tx, period string) (int64, error) {
	switch period {
	case "day", "week", "month", "year":
	default:
		return 0, domain.ErrInvalidArgument
	}
	const q = `SELECT COALESCE(SUM(amount),0) FROM payment_intents WHERE status='completed' AND settled_at >= DATE_TRUNC($1, NOW());`
	row, err := pickRow(ctx, r.pool, tx, q, period)
	if err != nil {
		return 0, err
	}

	var sum int64
	if err := row.Scan(&sum); err != nil {
		return 0, domain.ErrReadDatabaseRow
	}
	return sum, nil
}
