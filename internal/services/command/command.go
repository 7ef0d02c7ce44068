// Package command implements the write-side services of the core:
// PostingService (C2) and ApprovalService (C4), aggregating the
// repository interfaces each depends on exactly the way the teacher's
// services/command.UseCase aggregates its repositories.
package command

import (
	"context"
	"time"

	"github.com/fnyamweya/caricash-nova-sub001/internal/domain/posting"
	"github.com/fnyamweya/caricash-nova-sub001/pkg/dbtx"
	"github.com/fnyamweya/caricash-nova-sub001/pkg/mlog"
	"github.com/fnyamweya/caricash-nova-sub001/pkg/mmodel"
)

// AccountRepository resolves ledger accounts and their chart-of-accounts entry.
type AccountRepository interface {
	FindByID(ctx context.Context, id string) (*mmodel.LedgerAccount, error)
	FindCOAEntry(ctx context.Context, coaCode string) (*mmodel.ChartOfAccountsEntry, error)
	FindOverdraftFacility(ctx context.Context, accountID string) (*mmodel.OverdraftFacility, error)
	// FindOwnerState resolves the lifecycle state of the Actor that owns
	// accountID, backing the posting engine's FROZEN-account precondition.
	FindOwnerState(ctx context.Context, accountID string) (mmodel.ActorState, error)
	// ActivateOverdraft inserts a new ACTIVE overdraft facility, invoked by
	// the overdraft-activation ApprovalHandler once its request is APPROVED.
	ActivateOverdraft(ctx context.Context, f mmodel.OverdraftFacility) error
}

// BalanceRepository reads and CAS-updates account balances.
type BalanceRepository interface {
	FindByAccountID(ctx context.Context, accountID string) (*mmodel.AccountBalance, error)
	CompareAndSwap(ctx context.Context, bal mmodel.AccountBalance, expectedLastJournalID *string) (bool, error)
}

// JournalRepository persists journals, lines, and the per-currency chain tail.
type JournalRepository interface {
	LatestHash(ctx context.Context, currency string) (string, error)
	Insert(ctx context.Context, journal mmodel.LedgerJournal, lines []mmodel.LedgerLine) error
	FindByID(ctx context.Context, id string) (*mmodel.LedgerJournal, []mmodel.LedgerLine, error)
	MarkReversed(ctx context.Context, journalID string) error
	// ListInRange returns every journal with created_at in [from, to], with
	// its lines, ordered currency ASC then created_at ASC — the order
	// posting.VerifyChain requires to recompute each currency's chain.
	ListInRange(ctx context.Context, from, to time.Time) ([]posting.JournalWithLines, error)
}

// IdempotencyRepository is the C3 storage contract, re-exported here so
// PostingService depends only on interfaces declared in this package.
type IdempotencyRepository interface {
	Lookup(ctx context.Context, scopeHash, key string) (*mmodel.IdempotencyRecord, error)
	Record(ctx context.Context, rec mmodel.IdempotencyRecord) error
}

// PeriodRepository resolves the accounting period covering an effective date.
type PeriodRepository interface {
	FindCovering(ctx context.Context, effectiveDate time.Time) (*mmodel.AccountingPeriod, error)
}

// FeeMatrixRepository resolves fee/commission rules for C5.
type FeeMatrixRepository interface {
	ActiveVersion(ctx context.Context, currency string, at time.Time) (*mmodel.FeeMatrixVersion, error)
	FindFeeRule(ctx context.Context, versionID, txnType, currency string) (*mmodel.FeeRule, error)
	FindCommissionRule(ctx context.Context, versionID, txnType, currency, agentType string) (*mmodel.FeeRule, error)
	// Activate flips a fee matrix version to ACTIVE and retires the
	// currency's previous ACTIVE version, invoked by the fee-matrix
	// activation ApprovalHandler once its request is APPROVED.
	Activate(ctx context.Context, versionID, currency, requestID string, at time.Time) error
	// CreateDraftVersion inserts a new DRAFT FeeMatrixVersion and its
	// FeeRule rows, for the maker-side draft-creation endpoint.
	CreateDraftVersion(ctx context.Context, version mmodel.FeeMatrixVersion, rules []mmodel.FeeRule) error
}

// OutboxRepository writes domain events transactionally alongside the
// state change that caused them, and backs the C7 publisher's drain loop.
type OutboxRepository interface {
	Insert(ctx context.Context, event mmodel.Event) error
	// Unpublished returns up to limit events with no published_at
	// timestamp, oldest first.
	Unpublished(ctx context.Context, limit int) ([]mmodel.Event, error)
	// MarkPublished stamps published_at on the given event ids after a
	// successful broker publish.
	MarkPublished(ctx context.Context, ids []string) error
}

// Broker publishes a domain event's wire body under a routing key, backing
// the C7 publisher. routingKey is the event name, so broker-side bindings
// can filter by event type the way the teacher's mrabbitmq exchange is
// declared as a topic exchange.
type Broker interface {
	Publish(ctx context.Context, routingKey string, body []byte) error
}

// PolicyRepository resolves approval policies, bindings, conditions and
// stages for C4's matching algorithm.
type PolicyRepository interface {
	ActivePolicies(ctx context.Context, now time.Time) ([]PolicyBundle, error)
	AutoPolicy(ctx context.Context, approvalType string) (*PolicyBundle, error)
	FindByID(ctx context.Context, id string) (*PolicyBundle, error)
}

// PolicyBundle groups a policy with its bindings, conditions, and stages —
// the unit internal/domain/approval.Match reasons about.
type PolicyBundle struct {
	Policy     mmodel.ApprovalPolicy
	Bindings   []mmodel.PolicyBinding
	Conditions []mmodel.PolicyCondition
	Stages     []mmodel.PolicyStage
}

// RequestRepository persists approval requests and stage decisions.
type RequestRepository interface {
	Insert(ctx context.Context, request mmodel.ApprovalRequest) error
	FindByID(ctx context.Context, id string) (*mmodel.ApprovalRequest, error)
	DecisionsForRequest(ctx context.Context, requestID string) ([]mmodel.ApprovalStageDecision, error)
	InsertDecision(ctx context.Context, decision mmodel.ApprovalStageDecision) error
	UpdateState(ctx context.Context, requestID string, state mmodel.RequestState, currentStage int, decidedAt *time.Time) error
	ActiveDelegations(ctx context.Context, staffID string, at time.Time) ([]mmodel.ApprovalDelegation, error)
	// OverdueRequests returns every still-PENDING request, for the
	// expiry/escalation sweeper to check against its policy's deadlines.
	OverdueRequests(ctx context.Context, at time.Time) ([]mmodel.ApprovalRequest, error)
}

// Clock abstracts wall-clock time so tests can control "now" deterministically.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// SystemClock is the production Clock backed by time.Now.
var SystemClock Clock = systemClock{}

// UseCase aggregates every repository and collaborator PostingService and
// ApprovalService depend on, constructed once at bootstrap and shared.
type UseCase struct {
	DB dbtx.DB

	AccountRepo    AccountRepository
	BalanceRepo    BalanceRepository
	JournalRepo    JournalRepository
	IdempotencyRepo IdempotencyRepository
	PeriodRepo     PeriodRepository
	FeeMatrixRepo  FeeMatrixRepository
	OutboxRepo     OutboxRepository
	PolicyRepo     PolicyRepository
	RequestRepo    RequestRepository

	Broker Broker

	Handlers ApprovalHandlerRegistry

	Logger mlog.Logger
	Clock  Clock

	RetryLimit int
}
