// Package balance implements the Postgres CAS-on-last_journal_id balance
// repository, grounded on the teacher's version-checked BalancesUpdate
// tests (update-balance_stale_test.go): an UPDATE ... WHERE
// last_journal_id = $expected whose RowsAffected()==0 signals a stale
// read, letting PostingService retry the whole transaction.
package balance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sqrl "github.com/Masterminds/squirrel"

	"github.com/fnyamweya/caricash-nova-sub001/pkg/dbtx"
	"github.com/fnyamweya/caricash-nova-sub001/pkg/mmodel"
)

// Repository is the Postgres-backed BalanceRepository.
type Repository struct {
	DB dbtx.DB
}

func (r *Repository) exec(ctx context.Context) dbtx.Executor {
	return dbtx.GetExecutor(ctx, r.DB)
}

// FindByAccountID reads the current balance row for an account.
func (r *Repository) FindByAccountID(ctx context.Context, accountID string) (*mmodel.AccountBalance, error) {
	query, args, err := sqrl.StatementBuilder.PlaceholderFormat(sqrl.Dollar).
		Select("account_id", "actual_minor", "available_minor", "hold_minor", "pending_credits_minor", "last_journal_id", "currency", "updated_at").
		From("account_balance").
		Where(sqrl.Eq{"account_id": accountID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("balance: build query: %w", err)
	}

	row := r.exec(ctx).QueryRowContext(ctx, query, args...)

	var b mmodel.AccountBalance

	if err := row.Scan(&b.AccountID, &b.ActualMinor, &b.AvailableMinor, &b.HoldMinor, &b.PendingCreditsMinor, &b.LastJournalID, &b.Currency, &b.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("balance: find by account id: %w", err)
	}

	return &b, nil
}

// CompareAndSwap writes bal only if the row's current last_journal_id
// still equals expected, implementing §5's CAS balance update. It reports
// false (no error) on a stale read so the caller can retry.
func (r *Repository) CompareAndSwap(ctx context.Context, bal mmodel.AccountBalance, expected *string) (bool, error) {
	update := sqrl.StatementBuilder.PlaceholderFormat(sqrl.Dollar).
		Update("account_balance").
		Set("actual_minor", bal.ActualMinor).
		Set("available_minor", bal.AvailableMinor).
		Set("hold_minor", bal.HoldMinor).
		Set("pending_credits_minor", bal.PendingCreditsMinor).
		Set("last_journal_id", bal.LastJournalID).
		Set("updated_at", sqrl.Expr("now()")).
		Where(sqrl.Eq{"account_id": bal.AccountID})

	if expected == nil {
		update = update.Where(sqrl.Expr("last_journal_id IS NULL"))
	} else {
		update = update.Where(sqrl.Eq{"last_journal_id": *expected})
	}

	query, args, err := update.ToSql()
	if err != nil {
		return false, fmt.Errorf("balance: build update: %w", err)
	}

	result, err := r.exec(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("balance: cas update: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("balance: rows affected: %w", err)
	}

	return rows > 0, nil
}
