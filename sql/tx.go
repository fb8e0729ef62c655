package sql

import (
	"context"
	"database/sql/driver"
)

// Compile-time interface check.
var _ driver.Tx = (*tx)(nil)

// tx wraps a driver.Tx. COMMIT and ROLLBACK spans are parented to the
// context the transaction began with.
type tx struct {
	ctx context.Context
	tx  driver.Tx
	cfg *config
}

// newTx creates a new instrumented transaction.
func newTx(ctx context.Context, t driver.Tx, cfg *config) *tx {
	return &tx{
		ctx: ctx,
		tx:  t,
		cfg: cfg,
	}
}

// Commit implements driver.Tx.
func (t *tx) Commit() error {
	return t.cfg.instrumentOp(t.ctx, "COMMIT", func(context.Context) error {
		return t.tx.Commit()
	})
}

// Rollback implements driver.Tx.
func (t *tx) Rollback() error {
	return t.cfg.instrumentOp(t.ctx, "ROLLBACK", func(context.Context) error {
		return t.tx.Rollback()
	})
}
