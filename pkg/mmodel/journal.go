package mmodel

import "time"

// JournalState is the lifecycle state of a LedgerJournal.
type JournalState string

// Supported journal states.
const (
	JournalPending  JournalState = "PENDING"
	JournalPosted   JournalState = "POSTED"
	JournalReversed JournalState = "REVERSED"
	JournalRejected JournalState = "REJECTED"
)

// EntryType is the debit/credit side of a LedgerLine.
type EntryType string

// Supported entry types.
const (
	EntryDebit  EntryType = "DR"
	EntryCredit EntryType = "CR"
)

// LedgerJournal is an atomic set of balanced ledger lines, chained to the
// previous POSTED journal in the same currency for tamper evidence.
type LedgerJournal struct {
	ID                 string
	TxnType            string
	Currency           string
	CorrelationID      string
	State              JournalState
	Description        string
	PrevHash           string
	Hash               string
	EffectiveDate      time.Time
	ReversalOf         *string
	CorrectionOf       *string
	PostingBatchID     *string
	AccountingPeriodID *string
	TotalAmountMinor   int64
	CreatedAt          time.Time
}

// LedgerLine is a single debit or credit leg of a LedgerJournal.
type LedgerLine struct {
	ID          string
	JournalID   string
	AccountID   string
	EntryType   EntryType
	AmountMinor int64
	LineNumber  int
	Description string
}

// PeriodStatus is the lifecycle state of an AccountingPeriod.
type PeriodStatus string

// Supported accounting-period statuses.
const (
	PeriodOpen   PeriodStatus = "OPEN"
	PeriodClosed PeriodStatus = "CLOSED"
	PeriodLocked PeriodStatus = "LOCKED"
)

// AccountingPeriod bounds the effective dates a journal may post into; a
// journal may only post when its covering period's Status is OPEN.
type AccountingPeriod struct {
	ID        string
	StartDate time.Time
	EndDate   time.Time
	Status    PeriodStatus
}

// Covers reports whether date falls within [StartDate, EndDate].
func (p AccountingPeriod) Covers(date time.Time) bool {
	return !date.Before(p.StartDate) && !date.After(p.EndDate)
}
