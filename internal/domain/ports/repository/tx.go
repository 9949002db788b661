package repository

import (
	"context"
	"sync"

	"github.com/jackc/pgx/v4"
)

// Tx is an opaque storage handle (pgx.Tx for Postgres). Repositories accept nil and then
// run on the pool.
type Tx interface{}

var NoTX Tx

// TransactionManager runs fn inside one storage transaction, committing when fn returns nil.
//
//	tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
//		u, err := users.FindByID(ctx, tx, id)
//		...
//		return users.Save(ctx, tx, u)
//	})
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}

type commitHooksKey struct{}

type commitHooks struct {
	mu  sync.Mutex
	fns []func()
}

// WithCommitHooks returns a ctx that collects AfterCommit callbacks and the func that runs
// them. Transaction managers call run only after a successful commit.
func WithCommitHooks(ctx context.Context) (_ context.Context, run func()) {
	h := &commitHooks{}
	return context.WithValue(ctx, commitHooksKey{}, h), func() {
		h.mu.Lock()
		fns := h.fns
		h.fns = nil
		h.mu.Unlock()
		for _, fn := range fns {
			fn()
		}
	}
}

// AfterCommit defers fn until the transaction carried by ctx commits. Outside a managed
// transaction fn runs immediately. A rolled back transaction drops fn.
func AfterCommit(ctx context.Context, fn func()) {
	h, ok := ctx.Value(commitHooksKey{}).(*commitHooks)
	if !ok {
		fn()
		return
	}
	h.mu.Lock()
	h.fns = append(h.fns, fn)
	h.mu.Unlock()
}
