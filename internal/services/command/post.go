package command

import (
	"context"
	"fmt"
	"time"

	"github.com/fnyamweya/caricash-nova-sub001/internal/domain/feematrix"
	"github.com/fnyamweya/caricash-nova-sub001/internal/domain/idempotency"
	"github.com/fnyamweya/caricash-nova-sub001/internal/domain/posting"
	"github.com/fnyamweya/caricash-nova-sub001/pkg/constant"
	"github.com/fnyamweya/caricash-nova-sub001/pkg/dbtx"
	"github.com/fnyamweya/caricash-nova-sub001/pkg/hashing"
	"github.com/fnyamweya/caricash-nova-sub001/pkg/mmodel"
	"github.com/fnyamweya/caricash-nova-sub001/pkg/money"
)

// DefaultRetryLimit bounds the CAS retry loop on balance updates.
const DefaultRetryLimit = 5

// EntryInput is one caller-supplied debit or credit leg before fee/commission expansion.
type EntryInput struct {
	AccountID   string
	EntryType   mmodel.EntryType
	AmountMinor int64
	Description string
}

// PostCommand is the input to PostingService.Post, per §4.2.
type PostCommand struct {
	IdempotencyKey      string
	CorrelationID       string
	TxnType             string
	Currency            string
	Entries             []EntryInput
	Description         string
	ActorType           mmodel.ActorType
	ActorID             string
	EffectiveDate       *time.Time
	FeeVersionID        *string
	CommissionVersionID *string
	// ReversalOf, when set, stamps the new journal as the counter-journal
	// of the named journal id, per §4.2 Scenario D.
	ReversalOf *string
}

// Receipt is the result of a successful Post, per §4.2.
type Receipt struct {
	JournalID     string
	State         mmodel.JournalState
	Entries       []EntryInput
	CreatedAt     time.Time
	CorrelationID string
	TxnType       string
	Currency      string
}

// PostingService implements C2: the posting engine's public post/reverse operations.
type PostingService struct {
	UC *UseCase
}

// Post implements §4.2's eight-step algorithm under a single serializable
// transaction, bounded-retrying the CAS balance update up to RetryLimit
// times before surfacing ConcurrencyRetryExhausted.
func (s *PostingService) Post(ctx context.Context, cmd PostCommand) (*Receipt, error) {
	if err := validatePostCommand(cmd); err != nil {
		return nil, err
	}

	scopeHash := idempotency.ScopeHashFor(cmd.ActorID, cmd.TxnType, cmd.IdempotencyKey)

	outcome, err := idempotency.Check(ctx, s.UC.IdempotencyRepo, scopeHash, cmd.IdempotencyKey, cmd)
	if err != nil {
		return nil, err
	}

	if outcome.Replay {
		return decodeReceipt(outcome.ResultJSON)
	}

	retryLimit := s.UC.RetryLimit
	if retryLimit <= 0 {
		retryLimit = DefaultRetryLimit
	}

	var receipt *Receipt

	for attempt := 0; attempt < retryLimit; attempt++ {
		receipt, err = s.postOnce(ctx, cmd, scopeHash)
		if err == nil {
			return receipt, nil
		}

		if err != constant.ErrConcurrencyRetryExhausted {
			return nil, err
		}
	}

	return nil, constant.ErrConcurrencyRetryExhausted
}

func (s *PostingService) postOnce(ctx context.Context, cmd PostCommand, scopeHash string) (*Receipt, error) {
	now := s.UC.Clock.Now()

	effectiveDate := now
	if cmd.EffectiveDate != nil {
		effectiveDate = *cmd.EffectiveDate
	}

	var result *Receipt

	err := dbtx.RunInTransaction(ctx, s.UC.DB, func(ctx context.Context) error {
		period, err := s.UC.PeriodRepo.FindCovering(ctx, effectiveDate)
		if err != nil {
			return err
		}

		if period == nil || period.Status != mmodel.PeriodOpen {
			return constant.ErrPeriodClosed
		}

		entries, err := s.expandWithFeesAndCommission(ctx, cmd)
		if err != nil {
			return err
		}

		if err := assertBalancedEntries(entries); err != nil {
			return err
		}

		if err := s.checkPreconditions(ctx, cmd.Currency, entries); err != nil {
			return err
		}

		prevHash, err := s.UC.JournalRepo.LatestHash(ctx, cmd.Currency)
		if err != nil {
			return err
		}

		journalID := newID()
		lines := toLedgerLines(journalID, entries)

		header := posting.JournalHeader{
			TxnType:       cmd.TxnType,
			Currency:      cmd.Currency,
			CorrelationID: cmd.CorrelationID,
			EffectiveDate: effectiveDate.UTC().Format("2006-01-02T15:04:05.000Z"),
			Description:   cmd.Description,
		}

		hash, err := posting.ComputeHash(prevHash, header, posting.LinesFrom(lines))
		if err != nil {
			return err
		}

		journal := mmodel.LedgerJournal{
			ID:               journalID,
			TxnType:          cmd.TxnType,
			Currency:         cmd.Currency,
			CorrelationID:    cmd.CorrelationID,
			State:            mmodel.JournalPosted,
			Description:      cmd.Description,
			PrevHash:         prevHash,
			Hash:             hash,
			EffectiveDate:    effectiveDate,
			ReversalOf:       cmd.ReversalOf,
			TotalAmountMinor: totalDebits(entries),
			CreatedAt:        now,
		}

		if err := s.UC.JournalRepo.Insert(ctx, journal, lines); err != nil {
			return err
		}

		if err := s.applyBalanceUpdates(ctx, journalID, entries); err != nil {
			return err
		}

		event := mmodel.Event{
			ID:            newULID(),
			Name:          cmd.TxnType + "_POSTED",
			EntityType:    "LedgerJournal",
			EntityID:      journalID,
			CorrelationID: cmd.CorrelationID,
			ActorType:     cmd.ActorType,
			ActorID:       cmd.ActorID,
			SchemaVersion: 1,
			CreatedAt:     now,
		}

		if err := s.UC.OutboxRepo.Insert(ctx, event); err != nil {
			return err
		}

		result = &Receipt{
			JournalID:     journalID,
			State:         mmodel.JournalPosted,
			Entries:       entries,
			CreatedAt:     now,
			CorrelationID: cmd.CorrelationID,
			TxnType:       cmd.TxnType,
			Currency:      cmd.Currency,
		}

		resultJSON, err := hashing.Canonicalize(result)
		if err != nil {
			return err
		}

		payloadHash, err := hashing.PayloadHash(cmd)
		if err != nil {
			return err
		}

		rec := idempotency.NewRecord(scopeHash, cmd.IdempotencyKey, payloadHash, string(resultJSON), now, idempotency.DefaultTTL)

		return s.UC.IdempotencyRepo.Record(ctx, rec)
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (s *PostingService) expandWithFeesAndCommission(ctx context.Context, cmd PostCommand) ([]EntryInput, error) {
	entries := append([]EntryInput{}, cmd.Entries...)

	if cmd.FeeVersionID == nil && cmd.CommissionVersionID == nil {
		return entries, nil
	}

	var feeRule, commissionRule *mmodel.FeeRule

	if cmd.FeeVersionID != nil {
		rule, err := s.UC.FeeMatrixRepo.FindFeeRule(ctx, *cmd.FeeVersionID, cmd.TxnType, cmd.Currency)
		if err != nil {
			return nil, err
		}

		feeRule = rule
	}

	if cmd.CommissionVersionID != nil {
		rule, err := s.UC.FeeMatrixRepo.FindCommissionRule(ctx, *cmd.CommissionVersionID, cmd.TxnType, cmd.Currency, "")
		if err != nil {
			return nil, err
		}

		commissionRule = rule
	}

	payer := entries[0].AccountID

	splice, err := feematrix.Resolve(totalDebits(entries), payer, feeRule, commissionRule)
	if err != nil {
		return nil, err
	}

	for _, l := range append(splice.FeeLines, splice.CommissionLines...) {
		entries = append(entries, EntryInput{AccountID: l.AccountID, EntryType: l.EntryType, AmountMinor: l.AmountMinor, Description: l.Description})
	}

	return entries, nil
}

func (s *PostingService) checkPreconditions(ctx context.Context, currency string, entries []EntryInput) error {
	for _, e := range entries {
		account, err := s.UC.AccountRepo.FindByID(ctx, e.AccountID)
		if err != nil {
			return err
		}

		if account == nil {
			return constant.ErrAccountNotFound
		}

		// Every entry's account currency must match the command currency,
		// per precondition 1; this applies to both DR and CR entries.
		if account.Currency != currency {
			return constant.ErrCurrencyMismatch
		}

		// CR entries are permitted on FROZEN accounts so credits/refunds
		// still land; only DR entries are rejected, per precondition 2.
		if e.EntryType != mmodel.EntryDebit {
			continue
		}

		state, err := s.UC.AccountRepo.FindOwnerState(ctx, e.AccountID)
		if err != nil {
			return err
		}

		if state == mmodel.ActorStateFrozen {
			return constant.ErrAccountFrozen
		}
	}

	return nil
}

func (s *PostingService) applyBalanceUpdates(ctx context.Context, journalID string, entries []EntryInput) error {
	for _, e := range entries {
		bal, err := s.UC.BalanceRepo.FindByAccountID(ctx, e.AccountID)
		if err != nil {
			return err
		}

		if bal == nil {
			return constant.ErrAccountNotFound
		}

		coa, err := s.UC.AccountRepo.FindCOAEntry(ctx, e.AccountID)
		if err != nil {
			return err
		}

		line := mmodel.LedgerLine{AccountID: e.AccountID, EntryType: e.EntryType, AmountMinor: e.AmountMinor}

		var normal mmodel.NormalBalance
		if coa != nil {
			normal = coa.NormalBalance
		}

		delta := posting.SignedDelta(line, normal)

		if coa != nil && posting.WouldOverdraw(*bal, delta, *coa) {
			overdraft, err := s.UC.AccountRepo.FindOverdraftFacility(ctx, e.AccountID)
			if err != nil {
				return err
			}

			deficit := posting.Deficit(*bal, delta)

			if overdraft == nil || !overdraft.Covers(s.UC.Clock.Now()) || overdraft.LimitMinor < deficit {
				return constant.ErrInsufficientFunds
			}
		}

		expected := bal.LastJournalID
		updated := posting.ApplyDelta(*bal, delta)
		updated.LastJournalID = &journalID

		ok, err := s.UC.BalanceRepo.CompareAndSwap(ctx, updated, expected)
		if err != nil {
			return err
		}

		if !ok {
			return constant.ErrConcurrencyRetryExhausted
		}
	}

	return nil
}

func validatePostCommand(cmd PostCommand) error {
	if len(cmd.Entries) == 0 {
		return fmt.Errorf("%w: no entries", constant.ErrMissingRequiredField)
	}

	if cmd.IdempotencyKey == "" {
		return constant.ErrInvalidIdempotencyKey
	}

	for _, e := range cmd.Entries {
		if e.AmountMinor <= 0 {
			return fmt.Errorf("%w: non-positive amount", constant.ErrInvalidAmount)
		}
	}

	return nil
}

func assertBalancedEntries(entries []EntryInput) error {
	moneyEntries := make([]money.Entry, len(entries))
	for i, e := range entries {
		moneyEntries[i] = money.Entry{IsDebit: e.EntryType == mmodel.EntryDebit, Minor: e.AmountMinor}
	}

	return money.AssertBalanced(moneyEntries)
}

func totalDebits(entries []EntryInput) int64 {
	var total int64
	for _, e := range entries {
		if e.EntryType == mmodel.EntryDebit {
			total += e.AmountMinor
		}
	}

	return total
}

func toLedgerLines(journalID string, entries []EntryInput) []mmodel.LedgerLine {
	lines := make([]mmodel.LedgerLine, len(entries))
	for i, e := range entries {
		lines[i] = mmodel.LedgerLine{
			ID:          newID(),
			JournalID:   journalID,
			AccountID:   e.AccountID,
			EntryType:   e.EntryType,
			AmountMinor: e.AmountMinor,
			LineNumber:  i + 1,
			Description: e.Description,
		}
	}

	return lines
}
