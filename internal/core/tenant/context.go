package tenant

import (
	"context"

	"fakturo/internal/core/apperror"
	"fakturo/internal/core/id"
	"fakturo/internal/core/tx"
)

// Context keys for tenant-related values.
type ctxKey int

const (
	tenantKey ctxKey = iota
	txManagerKey
)

// --- Tenant ---

// WithTenant stores the active tenant in context. Set once per request by the
// tenant middleware; core code only reads it.
func WithTenant(ctx context.Context, t *Tenant) context.Context {
	return context.WithValue(ctx, tenantKey, t)
}

// Current returns the active tenant from context, or nil if unresolved.
func Current(ctx context.Context) *Tenant {
	t, _ := ctx.Value(tenantKey).(*Tenant)
	return t
}

// CurrentID returns the active tenant id, or the nil ID if unresolved.
func CurrentID(ctx context.Context) id.ID {
	if t := Current(ctx); t != nil {
		return t.ID
	}
	return id.Nil()
}

// RequireID returns the active tenant id or fails with NO_TENANT_SELECTED.
// Every mutating or scoped operation must call this before building queries
// or new rows.
func RequireID(ctx context.Context) (id.ID, error) {
	t := Current(ctx)
	if t == nil {
		return id.Nil(), apperror.NewNoTenantSelected().WithCause(ErrNoTenant)
	}
	return t.ID, nil
}

// --- Stamping ---

// Scoped is implemented by every tenant-scoped entity.
type Scoped interface {
	GetTenantID() id.ID
	SetTenantID(id.ID)
}

// Stamp sets the entity's tenant id to the active tenant. Call exactly once,
// before the entity is handed to the persistence layer. Restamping with a
// different tenant is refused: tenant ids are never reassigned.
func Stamp(ctx context.Context, e Scoped) error {
	tid, err := RequireID(ctx)
	if err != nil {
		return err
	}
	if cur := e.GetTenantID(); !id.IsNil(cur) && cur != tid {
		return apperror.NewTenantIsolation("entity", cur.String(), tid.String())
	}
	e.SetTenantID(tid)
	return nil
}

// --- TxManager ---

// WithTxManager stores TxManager in context.
func WithTxManager(ctx context.Context, txm tx.Manager) context.Context {
	return context.WithValue(ctx, txManagerKey, txm)
}

// GetTxManager retrieves TxManager from context.
func GetTxManager(ctx context.Context) (tx.Manager, error) {
	txm, ok := ctx.Value(txManagerKey).(tx.Manager)
	if !ok || txm == nil {
		return nil, ErrNoTxManager
	}
	return txm, nil
}
