// Package idempotency implements C3's storage contract against Postgres:
// a conditional insert via ON CONFLICT DO NOTHING followed by a re-read,
// matching the teacher's pattern of never overwriting a conflicting row.
package idempotency

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sqrl "github.com/Masterminds/squirrel"

	"github.com/fnyamweya/caricash-nova-sub001/pkg/constant"
	"github.com/fnyamweya/caricash-nova-sub001/pkg/dbtx"
	"github.com/fnyamweya/caricash-nova-sub001/pkg/mmodel"
)

// Repository is the Postgres-backed idempotency Store/IdempotencyRepository.
type Repository struct {
	DB dbtx.DB
}

func (r *Repository) exec(ctx context.Context) dbtx.Executor {
	return dbtx.GetExecutor(ctx, r.DB)
}

// Lookup returns the stored record for (scopeHash, key), or nil if none exists.
func (r *Repository) Lookup(ctx context.Context, scopeHash, key string) (*mmodel.IdempotencyRecord, error) {
	query, args, err := sqrl.StatementBuilder.PlaceholderFormat(sqrl.Dollar).
		Select("scope_hash", "idempotency_key", "payload_hash", "result_json", "created_at", "expires_at").
		From("idempotency_record").
		Where(sqrl.Eq{"scope_hash": scopeHash, "idempotency_key": key}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("idempotency: build lookup: %w", err)
	}

	row := r.exec(ctx).QueryRowContext(ctx, query, args...)

	var rec mmodel.IdempotencyRecord

	if err := row.Scan(&rec.ScopeHash, &rec.IdempotencyKey, &rec.PayloadHash, &rec.ResultJSON, &rec.CreatedAt, &rec.ExpiresAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("idempotency: lookup: %w", err)
	}

	return &rec, nil
}

// Record conditionally inserts rec. A prior row with the same
// (scope_hash, idempotency_key) is never overwritten: Record re-reads it
// and returns constant.ErrIdempotencyConflict when its payload hash
// differs from rec's, and nil when it matches.
func (r *Repository) Record(ctx context.Context, rec mmodel.IdempotencyRecord) error {
	query, args, err := sqrl.StatementBuilder.PlaceholderFormat(sqrl.Dollar).
		Insert("idempotency_record").
		Columns("scope_hash", "idempotency_key", "payload_hash", "result_json", "created_at", "expires_at").
		Values(rec.ScopeHash, rec.IdempotencyKey, rec.PayloadHash, rec.ResultJSON, rec.CreatedAt, rec.ExpiresAt).
		Suffix("ON CONFLICT (scope_hash, idempotency_key) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("idempotency: build record: %w", err)
	}

	result, err := r.exec(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("idempotency: record: %w", err)
	}

	if rows, err := result.RowsAffected(); err != nil || rows > 0 {
		return err
	}

	existing, err := r.Lookup(ctx, rec.ScopeHash, rec.IdempotencyKey)
	if err != nil {
		return err
	}

	if existing != nil && existing.PayloadHash != rec.PayloadHash {
		return constant.ErrIdempotencyConflict
	}

	return nil
}
