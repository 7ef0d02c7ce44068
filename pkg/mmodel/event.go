package mmodel

import "time"

// Event is one outbox row: a domain fact written in the same transaction
// as the state change that caused it, drained at-least-once by a separate
// publisher onto the message broker.
type Event struct {
	ID            string
	Name          string
	EntityType    string
	EntityID      string
	CorrelationID string
	CausationID   *string
	ActorType     ActorType
	ActorID       string
	SchemaVersion int
	PayloadJSON   string
	CreatedAt     time.Time
	PublishedAt   *time.Time
}

// Event names emitted by the core, named by txn_type or lifecycle
// transition per the outbox wire format.
const (
	EventP2PPosted         = "P2P_POSTED"
	EventB2BPosted         = "B2B_POSTED"
	EventMerchantPaymentPosted = "MERCHANT_PAYMENT_POSTED"
	EventFloatTopUpPosted  = "FLOAT_TOP_UP_POSTED"
	EventFloatWithdrawalPosted = "FLOAT_WITHDRAWAL_POSTED"
	EventFeePosted         = "FEE_POSTED"
	EventReversalPosted    = "REVERSAL_POSTED"
	EventApprovalRequested = "APPROVAL_REQUESTED"
	EventApprovalDecided   = "APPROVAL_DECIDED"
	EventJournalChained    = "JOURNAL_CHAINED"
	EventFeeMatrixDraftCreated = "FEE_MATRIX_DRAFT_CREATED"
)
