// Package idempotency implements C3's scope-hash and conflict semantics
// over the storage-agnostic Store interface the Postgres adapter
// satisfies.
package idempotency

import (
	"context"
	"errors"
	"time"

	"github.com/fnyamweya/caricash-nova-sub001/pkg/constant"
	"github.com/fnyamweya/caricash-nova-sub001/pkg/hashing"
	"github.com/fnyamweya/caricash-nova-sub001/pkg/mmodel"
)

// DefaultTTL is the idempotency record lifetime when none is specified.
const DefaultTTL = 24 * time.Hour

// Store is the storage contract C3 requires; internal/adapters/postgres/idempotency
// implements it against Postgres with an ON CONFLICT DO NOTHING insert.
type Store interface {
	Lookup(ctx context.Context, scopeHash, key string) (*mmodel.IdempotencyRecord, error)
	Record(ctx context.Context, rec mmodel.IdempotencyRecord) error
}

// Outcome is the result of consulting the idempotency store before
// executing a command: either a fresh key to proceed on, or a previously
// stored receipt to replay verbatim.
type Outcome struct {
	Replay     bool
	ResultJSON string
}

// Check implements §4.3's lookup/record-conflict contract: if a record
// exists for (scopeHash, key) with a matching payload hash, it is a
// replay; a different payload hash is a hard conflict; no record means
// the caller should proceed and later call Store.Record.
func Check(ctx context.Context, store Store, scopeHash, key string, payload any) (Outcome, error) {
	payloadHash, err := hashing.PayloadHash(payload)
	if err != nil {
		return Outcome{}, err
	}

	existing, err := store.Lookup(ctx, scopeHash, key)
	if err != nil {
		return Outcome{}, err
	}

	if existing == nil {
		return Outcome{Replay: false}, nil
	}

	if existing.PayloadHash != payloadHash {
		return Outcome{}, errors.Join(constant.ErrIdempotencyConflict, errors.New("payload hash mismatch"))
	}

	return Outcome{Replay: true, ResultJSON: existing.ResultJSON}, nil
}

// ScopeHashFor computes the scope hash for an initiator/txn-type/key
// triple, the partition key that keeps different initiators or
// transaction types from colliding on the same idempotency key.
func ScopeHashFor(initiatorActorID, txnType, idempotencyKey string) string {
	return hashing.ScopeHash(initiatorActorID, txnType, idempotencyKey)
}

// NewRecord builds the IdempotencyRecord to persist alongside a freshly
// computed receipt.
func NewRecord(scopeHash, key, payloadHash, resultJSON string, now time.Time, ttl time.Duration) mmodel.IdempotencyRecord {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return mmodel.IdempotencyRecord{
		ScopeHash:      scopeHash,
		IdempotencyKey: key,
		PayloadHash:    payloadHash,
		ResultJSON:     resultJSON,
		CreatedAt:      now,
		ExpiresAt:      now.Add(ttl),
	}
}
