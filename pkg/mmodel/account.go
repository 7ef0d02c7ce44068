package mmodel

import "time"

// AccountType enumerates the kinds of ledger account C2 may post against.
type AccountType string

// Supported account types.
const (
	AccountWallet     AccountType = "WALLET"
	AccountCashFloat  AccountType = "CASH_FLOAT"
	AccountFee        AccountType = "FEE"
	AccountCommission AccountType = "COMMISSION"
	AccountSuspense   AccountType = "SUSPENSE"
	AccountBankMirror AccountType = "BANK_MIRROR"
)

// AccountClass is the chart-of-accounts classification driving sign
// conventions and the allow_negative precondition.
type AccountClass string

// Supported account classes.
const (
	ClassAsset     AccountClass = "ASSET"
	ClassLiability AccountClass = "LIABILITY"
	ClassEquity    AccountClass = "EQUITY"
	ClassRevenue   AccountClass = "REVENUE"
	ClassExpense   AccountClass = "EXPENSE"
)

// NormalBalance is the entry type a class increases on.
type NormalBalance string

// Supported normal-balance sides.
const (
	NormalDebit  NormalBalance = "DR"
	NormalCredit NormalBalance = "CR"
)

// LedgerAccount is a single ledger account owned by an Actor. Exactly one
// WALLET exists per (owner, currency); AGENT actors additionally hold a
// CASH_FLOAT account.
type LedgerAccount struct {
	ID          string
	OwnerType   ActorType
	OwnerID     string
	AccountType AccountType
	Currency    string
	COACode     string
	CreatedAt   time.Time
}

// ChartOfAccountsEntry backs the allow_negative precondition and the
// signed balance-update rule: it tells the posting engine which side of
// the ledger an account class normally sits on and whether its available
// balance may go negative.
type ChartOfAccountsEntry struct {
	COACode       string
	Class         AccountClass
	NormalBalance NormalBalance
	AllowNegative bool
}

// AccountBalance is the current balance snapshot for a LedgerAccount.
// Invariant: Available = Actual - Hold. LastJournalID is the CAS token the
// posting engine's balance update is conditioned on.
type AccountBalance struct {
	AccountID           string
	ActualMinor         int64
	AvailableMinor      int64
	HoldMinor           int64
	PendingCreditsMinor int64
	LastJournalID       *string
	Currency            string
	UpdatedAt           time.Time
}

// OverdraftFacility is the entity §4.2 precondition 4 references by name
// but does not define: an approved allowance for a specific account to go
// negative by up to LimitMinor while ACTIVE.
type OverdraftFacility struct {
	ID                   string
	AccountID            string
	LimitMinor           int64
	State                OverdraftState
	ApprovedByRequestID  *string
	ValidFrom            time.Time
	ValidTo              *time.Time
}

// OverdraftState is the lifecycle state of an OverdraftFacility.
type OverdraftState string

// Supported overdraft facility states.
const (
	OverdraftActive    OverdraftState = "ACTIVE"
	OverdraftSuspended OverdraftState = "SUSPENDED"
	OverdraftExpired   OverdraftState = "EXPIRED"
)

// Covers reports whether this facility is ACTIVE and in its validity
// window at the given instant.
func (f OverdraftFacility) Covers(at time.Time) bool {
	if f.State != OverdraftActive {
		return false
	}

	if at.Before(f.ValidFrom) {
		return false
	}

	if f.ValidTo != nil && at.After(*f.ValidTo) {
		return false
	}

	return true
}
