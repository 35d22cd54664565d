package postgres

import "context"

// TransactionManager exposes Commit/Rollback for one open transaction.
// Dropping it (via Rollback in a defer, since Go has no destructors) must
// issue ROLLBACK best-effort; nested Begin from an already-open
// transaction is rejected.
type TransactionManager struct {
	ex   *Executor
	done bool
}

// Begin opens a transaction on ex via simple-query "BEGIN". Returns
// TransactionAlreadyOpen if ex's last observed ReadyForQuery already
// reported an open (or failed) transaction block.
func Begin(ctx context.Context, ex *Executor) (*TransactionManager, error) {
	if ex.InTransaction() {
		return nil, ErrTransactionAlreadyOpen
	}
	if err := ex.simpleQueryExecute(ctx, "BEGIN", nil); err != nil {
		return nil, err
	}
	return &TransactionManager{ex: ex}, nil
}

// Commit issues COMMIT and marks the transaction closed. ex's transaction
// status afterward reflects the server's own ReadyForQuery reply, not a
// client-side flag.
func (tm *TransactionManager) Commit(ctx context.Context) error {
	if tm.done {
		return nil
	}
	tm.done = true
	return tm.ex.simpleQueryExecute(ctx, "COMMIT", nil)
}

// Rollback issues ROLLBACK and marks the transaction closed. Safe to call
// after Commit (no-op) and safe to call unconditionally in a defer, since Go
// has no destructor to roll back an unfinished transaction automatically.
func (tm *TransactionManager) Rollback(ctx context.Context) error {
	if tm.done {
		return nil
	}
	tm.done = true
	return tm.ex.simpleQueryExecute(ctx, "ROLLBACK", nil)
}
