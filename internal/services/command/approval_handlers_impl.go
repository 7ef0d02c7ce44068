package command

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fnyamweya/caricash-nova-sub001/pkg/mmodel"
)

// ReversalHandler posts the counter-journal for an APPROVED reversal
// request, per §4.2's Reverse operation.
type ReversalHandler struct {
	Posting *PostingService
}

type reversalPayload struct {
	JournalID string           `json:"journal_id"`
	Reason    string           `json:"reason"`
	ActorType mmodel.ActorType `json:"actor_type"`
	ActorID   string           `json:"actor_id"`
}

// Handle implements ApprovalHandler.
func (h *ReversalHandler) Handle(ctx context.Context, requestID string, payloadJSON string) error {
	var p reversalPayload
	if err := json.Unmarshal([]byte(payloadJSON), &p); err != nil {
		return fmt.Errorf("reversal handler: decode payload for request %s: %w", requestID, err)
	}

	_, err := h.Posting.Reverse(ctx, p.JournalID, p.Reason, p.ActorType, p.ActorID)

	return err
}

// OverdraftActivationHandler activates an overdraft facility once its
// approval request reaches APPROVED.
type OverdraftActivationHandler struct {
	UC *UseCase
}

type overdraftPayload struct {
	FacilityID string  `json:"facility_id"`
	AccountID  string  `json:"account_id"`
	LimitMinor int64   `json:"limit_minor"`
	ValidFrom  string  `json:"valid_from"`
	ValidTo    *string `json:"valid_to"`
}

// Handle implements ApprovalHandler.
func (h *OverdraftActivationHandler) Handle(ctx context.Context, requestID string, payloadJSON string) error {
	var p overdraftPayload
	if err := json.Unmarshal([]byte(payloadJSON), &p); err != nil {
		return fmt.Errorf("overdraft activation handler: decode payload for request %s: %w", requestID, err)
	}

	validFrom := h.UC.Clock.Now()

	facility := mmodel.OverdraftFacility{
		ID:                  p.FacilityID,
		AccountID:           p.AccountID,
		LimitMinor:          p.LimitMinor,
		State:               mmodel.OverdraftActive,
		ApprovedByRequestID: &requestID,
		ValidFrom:           validFrom,
	}

	return h.UC.AccountRepo.ActivateOverdraft(ctx, facility)
}

// PayoutReleaseHandler posts a previously-held payout to its recipient
// once its approval request reaches APPROVED.
type PayoutReleaseHandler struct {
	Posting *PostingService
}

type payoutReleasePayload struct {
	PayoutHoldAccount string `json:"payout_hold_account"`
	RecipientAccount  string `json:"recipient_account"`
	AmountMinor       int64  `json:"amount_minor"`
	Currency          string `json:"currency"`
	CorrelationID     string `json:"correlation_id"`
}

// Handle implements ApprovalHandler.
func (h *PayoutReleaseHandler) Handle(ctx context.Context, requestID string, payloadJSON string) error {
	var p payoutReleasePayload
	if err := json.Unmarshal([]byte(payloadJSON), &p); err != nil {
		return fmt.Errorf("payout release handler: decode payload for request %s: %w", requestID, err)
	}

	cmd := PostCommand{
		IdempotencyKey: fmt.Sprintf("payout-release:%s", requestID),
		CorrelationID:  p.CorrelationID,
		TxnType:        "PAYOUT_RELEASE",
		Currency:       p.Currency,
		ActorType:      mmodel.ActorSystem,
		ActorID:        requestID,
		Entries: []EntryInput{
			{AccountID: p.PayoutHoldAccount, EntryType: mmodel.EntryDebit, AmountMinor: p.AmountMinor},
			{AccountID: p.RecipientAccount, EntryType: mmodel.EntryCredit, AmountMinor: p.AmountMinor},
		},
	}

	_, err := h.Posting.Post(ctx, cmd)

	return err
}

// FloatMovementHandler posts an agent float top-up or withdrawal once its
// approval request reaches APPROVED, reusing the same payload shape the
// /float/* handlers submit for approval.
type FloatMovementHandler struct {
	Posting *PostingService
}

type floatMovementPayload struct {
	TxnType        string `json:"txn_type"`
	DebitAccount   string `json:"debit_account"`
	CreditAccount  string `json:"credit_account"`
	AmountMinor    int64  `json:"amount_minor"`
	Currency       string `json:"currency"`
	IdempotencyKey string `json:"idempotency_key"`
	CorrelationID  string `json:"correlation_id"`
	AgentCode      string `json:"agent_code"`
}

// Handle implements ApprovalHandler.
func (h *FloatMovementHandler) Handle(ctx context.Context, requestID string, payloadJSON string) error {
	var p floatMovementPayload
	if err := json.Unmarshal([]byte(payloadJSON), &p); err != nil {
		return fmt.Errorf("float movement handler: decode payload for request %s: %w", requestID, err)
	}

	cmd := PostCommand{
		IdempotencyKey: p.IdempotencyKey,
		CorrelationID:  p.CorrelationID,
		TxnType:        p.TxnType,
		Currency:       p.Currency,
		ActorType:      mmodel.ActorAgent,
		ActorID:        p.AgentCode,
		Entries: []EntryInput{
			{AccountID: p.DebitAccount, EntryType: mmodel.EntryDebit, AmountMinor: p.AmountMinor},
			{AccountID: p.CreditAccount, EntryType: mmodel.EntryCredit, AmountMinor: p.AmountMinor},
		},
	}

	_, err := h.Posting.Post(ctx, cmd)

	return err
}

// FeeMatrixActivationHandler activates a fee matrix version once its
// approval request reaches APPROVED.
type FeeMatrixActivationHandler struct {
	UC *UseCase
}

type feeMatrixActivationPayload struct {
	VersionID string `json:"version_id"`
	Currency  string `json:"currency"`
}

// Handle implements ApprovalHandler.
func (h *FeeMatrixActivationHandler) Handle(ctx context.Context, requestID string, payloadJSON string) error {
	var p feeMatrixActivationPayload
	if err := json.Unmarshal([]byte(payloadJSON), &p); err != nil {
		return fmt.Errorf("fee matrix activation handler: decode payload for request %s: %w", requestID, err)
	}

	return h.UC.FeeMatrixRepo.Activate(ctx, p.VersionID, p.Currency, requestID, h.UC.Clock.Now())
}
