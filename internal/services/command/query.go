package command

import (
	"context"

	"github.com/fnyamweya/caricash-nova-sub001/pkg/constant"
	"github.com/fnyamweya/caricash-nova-sub001/pkg/mmodel"
)

// QueryService implements the read-side operations the staff/ops surface
// needs alongside PostingService's writes: balance lookups and journal
// inspection.
type QueryService struct {
	UC *UseCase
}

// Balance returns an account's balance row, or ErrAccountNotFound if none
// exists for accountID.
func (s *QueryService) Balance(ctx context.Context, accountID string) (*mmodel.AccountBalance, error) {
	bal, err := s.UC.BalanceRepo.FindByAccountID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if bal == nil {
		return nil, constant.ErrAccountNotFound
	}

	return bal, nil
}

// Journal returns a journal and its lines by id, or ErrJournalNotFound.
func (s *QueryService) Journal(ctx context.Context, id string) (*mmodel.LedgerJournal, []mmodel.LedgerLine, error) {
	journal, lines, err := s.UC.JournalRepo.FindByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	if journal == nil {
		return nil, nil, constant.ErrJournalNotFound
	}

	return journal, lines, nil
}
