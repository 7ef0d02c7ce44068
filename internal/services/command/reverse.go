package command

import (
	"context"
	"fmt"

	"github.com/fnyamweya/caricash-nova-sub001/pkg/constant"
	"github.com/fnyamweya/caricash-nova-sub001/pkg/mmodel"
)

// Reverse implements §4.2's reversal operation: it builds a counter-journal
// with entries swapped (DR<->CR, same amounts) and re-enters Post as a new
// idempotent command keyed "reverse:{journal_id}". Reversing an
// already-REVERSED journal is forbidden.
func (s *PostingService) Reverse(ctx context.Context, journalID, reason string, actorType mmodel.ActorType, actorID string) (*Receipt, error) {
	journal, lines, err := s.UC.JournalRepo.FindByID(ctx, journalID)
	if err != nil {
		return nil, err
	}

	if journal == nil {
		return nil, constant.ErrJournalNotFound
	}

	if journal.State == mmodel.JournalReversed {
		return nil, constant.ErrJournalAlreadyReversed
	}

	entries := make([]EntryInput, len(lines))

	for i, l := range lines {
		swapped := mmodel.EntryCredit
		if l.EntryType == mmodel.EntryCredit {
			swapped = mmodel.EntryDebit
		}

		entries[i] = EntryInput{
			AccountID:   l.AccountID,
			EntryType:   swapped,
			AmountMinor: l.AmountMinor,
			Description: l.Description,
		}
	}

	cmd := PostCommand{
		IdempotencyKey: fmt.Sprintf("reverse:%s", journalID),
		CorrelationID:  journal.CorrelationID,
		TxnType:        "REVERSAL",
		Currency:       journal.Currency,
		Entries:        entries,
		Description:    reason,
		ActorType:      actorType,
		ActorID:        actorID,
		ReversalOf:     &journalID,
	}

	receipt, err := s.Post(ctx, cmd)
	if err != nil {
		return nil, err
	}

	if err := s.UC.JournalRepo.MarkReversed(ctx, journalID); err != nil {
		return nil, err
	}

	return receipt, nil
}
