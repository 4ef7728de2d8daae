package postgres

import (
	"context"
	"fmt"

	"fakturo/internal/core/tenant"
)

const sequencesTable = "number_sequences"

// SequenceStore hands out unique, strictly increasing integers per
// (tenant, entity_type, scope_key), safe under concurrent callers.
//
// The increment is a single UPSERT with RETURNING: the conflicting row is
// locked by the statement itself, so two concurrent transactions on the same
// key serialize on the row and can never observe the same value. Increments
// ride the caller's transaction; a rollback loses the value for good. Gaps
// in numbering are tolerable, duplicates are not.
type SequenceStore struct{}

// NewSequenceStore creates a sequence store.
// Querier is obtained from context per call so increments join the
// surrounding transaction.
func NewSequenceStore() *SequenceStore {
	return &SequenceStore{}
}

// NextValue returns the next counter value for the key, creating the row
// with value 1 on first use.
func (s *SequenceStore) NextValue(ctx context.Context, entityType, scopeKey string) (int64, error) {
	tid, err := tenant.RequireID(ctx)
	if err != nil {
		return 0, err
	}

	querier := MustGetTxManager(ctx).GetQuerier(ctx)

	var value int64
	err = querier.QueryRow(ctx, `
        INSERT INTO `+sequencesTable+` (tenant_id, entity_type, scope_key, last_value)
        VALUES ($1, $2, $3, 1)
        ON CONFLICT (tenant_id, entity_type, scope_key)
        DO UPDATE SET last_value = `+sequencesTable+`.last_value + 1
        RETURNING last_value
	`, tid, entityType, scopeKey).Scan(&value)
	if err != nil {
		return 0, fmt.Errorf("next sequence value: %w", err)
	}

	RecordWrite(ctx, sequencesTable, tid)
	return value, nil
}

// Reset sets all counters of an entity type back to 0 for the active tenant.
// Administrative operation only; never part of normal document creation.
func (s *SequenceStore) Reset(ctx context.Context, entityType string) error {
	tid, err := tenant.RequireID(ctx)
	if err != nil {
		return err
	}

	querier := MustGetTxManager(ctx).GetQuerier(ctx)
	_, err = querier.Exec(ctx, `
        UPDATE `+sequencesTable+`
        SET last_value = 0
        WHERE tenant_id = $1 AND entity_type = $2
	`, tid, entityType)
	if err != nil {
		return fmt.Errorf("reset sequences: %w", err)
	}

	RecordWrite(ctx, sequencesTable, tid)
	return nil
}
