package command_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fnyamweya/caricash-nova-sub001/internal/services/command"
	"github.com/fnyamweya/caricash-nova-sub001/pkg/mmodel"
)

func TestFloatMovementHandlerPostsEntries(t *testing.T) {
	t.Parallel()

	uc, _, _ := newTestUseCase(t)
	posting := &command.PostingService{UC: uc}
	h := &command.FloatMovementHandler{Posting: posting}

	payload, err := json.Marshal(map[string]any{
		"txn_type":        "FLOAT_TOP_UP",
		"debit_account":   "payer",
		"credit_account":  "payee",
		"amount_minor":    500,
		"currency":        "KES",
		"idempotency_key": "float-1",
		"correlation_id":  "corr-float-1",
		"agent_code":      "AGT001",
	})
	require.NoError(t, err)

	err = h.Handle(context.Background(), "req-1", string(payload))
	require.NoError(t, err)
}

func TestFloatMovementHandlerRejectsBadPayload(t *testing.T) {
	t.Parallel()

	uc, _, _ := newTestUseCase(t)
	h := &command.FloatMovementHandler{Posting: &command.PostingService{UC: uc}}

	err := h.Handle(context.Background(), "req-1", "{not-json")
	require.Error(t, err)
}

func TestPayoutReleaseHandlerPostsEntries(t *testing.T) {
	t.Parallel()

	uc, _, _ := newTestUseCase(t)
	h := &command.PayoutReleaseHandler{Posting: &command.PostingService{UC: uc}}

	payload, err := json.Marshal(map[string]any{
		"payout_hold_account": "payer",
		"recipient_account":   "payee",
		"amount_minor":        250,
		"currency":            "KES",
		"correlation_id":      "corr-payout-1",
	})
	require.NoError(t, err)

	err = h.Handle(context.Background(), "req-2", string(payload))
	require.NoError(t, err)
}

func TestOverdraftActivationHandlerActivates(t *testing.T) {
	t.Parallel()

	uc, _, _ := newTestUseCase(t)
	h := &command.OverdraftActivationHandler{UC: uc}

	payload, err := json.Marshal(map[string]any{
		"facility_id": "fac-1",
		"account_id":  "payer",
		"limit_minor": 100000,
		"valid_from":  "2026-07-31T00:00:00Z",
	})
	require.NoError(t, err)

	err = h.Handle(context.Background(), "req-3", string(payload))
	require.NoError(t, err)
}

func TestFeeMatrixActivationHandlerActivates(t *testing.T) {
	t.Parallel()

	uc, _, _ := newTestUseCase(t)
	h := &command.FeeMatrixActivationHandler{UC: uc}

	payload, err := json.Marshal(map[string]any{
		"version_id": "ver-1",
		"currency":   "KES",
	})
	require.NoError(t, err)

	err = h.Handle(context.Background(), "req-4", string(payload))
	require.NoError(t, err)
}

func TestReversalHandlerReversesJournal(t *testing.T) {
	t.Parallel()

	uc, _, _ := newTestUseCase(t)
	posting := &command.PostingService{UC: uc}

	cmd := command.PostCommand{
		IdempotencyKey: "key-rev-1",
		CorrelationID:  "corr-rev-1",
		TxnType:        "P2P",
		Currency:       "KES",
		ActorType:      mmodel.ActorCustomer,
		ActorID:        "payer",
		Entries: []command.EntryInput{
			{AccountID: "payer", EntryType: mmodel.EntryDebit, AmountMinor: 500},
			{AccountID: "payee", EntryType: mmodel.EntryCredit, AmountMinor: 500},
		},
	}

	receipt, err := posting.Post(context.Background(), cmd)
	require.NoError(t, err)

	h := &command.ReversalHandler{Posting: posting}

	payload, err := json.Marshal(map[string]any{
		"journal_id": receipt.JournalID,
		"reason":     "customer dispute",
		"actor_type": mmodel.ActorStaff,
		"actor_id":   "staff-1",
	})
	require.NoError(t, err)

	err = h.Handle(context.Background(), "req-5", string(payload))
	require.NoError(t, err)
}
