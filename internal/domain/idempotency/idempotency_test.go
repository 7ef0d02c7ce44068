package idempotency_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fnyamweya/caricash-nova-sub001/internal/domain/idempotency"
	"github.com/fnyamweya/caricash-nova-sub001/pkg/constant"
	"github.com/fnyamweya/caricash-nova-sub001/pkg/hashing"
	"github.com/fnyamweya/caricash-nova-sub001/pkg/mmodel"
)

type fakeStore struct {
	record *mmodel.IdempotencyRecord
}

func (f *fakeStore) Lookup(_ context.Context, _, _ string) (*mmodel.IdempotencyRecord, error) {
	return f.record, nil
}

func (f *fakeStore) Record(_ context.Context, rec mmodel.IdempotencyRecord) error {
	f.record = &rec
	return nil
}

func TestCheckFreshKeyProceeds(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}

	outcome, err := idempotency.Check(context.Background(), store, "scope", "key", map[string]any{"a": 1})
	require.NoError(t, err)
	assert.False(t, outcome.Replay)
}

func TestCheckMatchingPayloadReplays(t *testing.T) {
	t.Parallel()

	payload := map[string]any{"a": 1}
	hash, err := hashing.PayloadHash(payload)
	require.NoError(t, err)

	store := &fakeStore{record: &mmodel.IdempotencyRecord{PayloadHash: hash, ResultJSON: `{"journal_id":"j-1"}`}}

	outcome, err := idempotency.Check(context.Background(), store, "scope", "key", payload)
	require.NoError(t, err)
	assert.True(t, outcome.Replay)
	assert.Equal(t, `{"journal_id":"j-1"}`, outcome.ResultJSON)
}

func TestCheckMismatchedPayloadConflicts(t *testing.T) {
	t.Parallel()

	store := &fakeStore{record: &mmodel.IdempotencyRecord{PayloadHash: "different-hash"}}

	_, err := idempotency.Check(context.Background(), store, "scope", "key", map[string]any{"a": 1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, constant.ErrIdempotencyConflict))
}

func TestScopeHashForIsDeterministic(t *testing.T) {
	t.Parallel()

	h1 := idempotency.ScopeHashFor("actor-1", "P2P", "key-1")
	h2 := idempotency.ScopeHashFor("actor-1", "P2P", "key-1")
	h3 := idempotency.ScopeHashFor("actor-2", "P2P", "key-1")

	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3)
}

func TestNewRecordDefaultsTTL(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)
	rec := idempotency.NewRecord("scope", "key", "hash", "{}", now, 0)

	assert.Equal(t, now.Add(idempotency.DefaultTTL), rec.ExpiresAt)
}
