package postgres

import (
	"context"
	"sync"

	"fakturo/internal/core/apperror"
	"fakturo/internal/core/id"
	"fakturo/internal/core/tenant"
	"fakturo/pkg/logger"
)

// WriteLog records every tenant-scoped row inserted or updated during a
// transaction. Immediately before COMMIT the log is replayed against the
// active tenant; any mismatch aborts the whole transaction with
// TENANT_ISOLATION_VIOLATION.
//
// This is a defense-in-depth safety net. The primary isolation is the
// mandatory tenant predicate in BaseScopedRepo; the log catches code paths
// that bypassed it.
type WriteLog struct {
	mu      sync.Mutex
	entries []pendingWrite
}

type pendingWrite struct {
	Table    string
	TenantID id.ID
}

// NewWriteLog creates an empty write log.
func NewWriteLog() *WriteLog {
	return &WriteLog{}
}

// Record remembers a pending tenant-scoped write.
func (w *WriteLog) Record(table string, tenantID id.ID) {
	w.mu.Lock()
	w.entries = append(w.entries, pendingWrite{Table: table, TenantID: tenantID})
	w.mu.Unlock()
}

// Validate checks every recorded write against the active tenant.
// A nil tenant id on a record is tolerated here (the row is pre-stamp);
// a non-nil mismatch is a programming error and fails the transaction.
func (w *WriteLog) Validate(ctx context.Context) error {
	active := tenant.CurrentID(ctx)
	if id.IsNil(active) {
		// Outside tenant context (migrations, tenantctl, seed). The caller
		// opted out of scoping; nothing to check against.
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	for _, e := range w.entries {
		if !id.IsNil(e.TenantID) && e.TenantID != active {
			err := apperror.NewTenantIsolation(e.Table, e.TenantID.String(), active.String())
			logger.Error(ctx, "tenant isolation violation",
				"table", e.Table,
				"row_tenant", e.TenantID.String(),
				"active_tenant", active.String(),
			)
			return err
		}
	}
	return nil
}

// RecordWrite registers a pending write on the transaction in ctx, if any.
// Out-of-transaction writes are checked inline by the scoped repository, so
// a missing transaction is not an error.
func RecordWrite(ctx context.Context, table string, tenantID id.ID) {
	txm, err := tenant.GetTxManager(ctx)
	if err != nil {
		return
	}
	ptxm, ok := txm.(*TxManager)
	if !ok {
		return
	}
	if tx := ptxm.GetTx(ctx); tx != nil && tx.writes != nil {
		tx.writes.Record(table, tenantID)
	}
}
