// Package journal implements the Postgres repository for LedgerJournal and
// LedgerLine, including the per-currency chain-tail lookup C2 needs before
// computing each new journal's hash.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sqrl "github.com/Masterminds/squirrel"

	"github.com/fnyamweya/caricash-nova-sub001/internal/domain/posting"
	"github.com/fnyamweya/caricash-nova-sub001/pkg/dbtx"
	"github.com/fnyamweya/caricash-nova-sub001/pkg/mmodel"
)

// Repository is the Postgres-backed JournalRepository.
type Repository struct {
	DB dbtx.DB
}

func (r *Repository) exec(ctx context.Context) dbtx.Executor {
	return dbtx.GetExecutor(ctx, r.DB)
}

// LatestHash returns the hash of the most recently POSTED journal in
// currency, or posting.ZeroHash if none exists yet.
func (r *Repository) LatestHash(ctx context.Context, currency string) (string, error) {
	query, args, err := sqrl.StatementBuilder.PlaceholderFormat(sqrl.Dollar).
		Select("hash").
		From("ledger_journal").
		Where(sqrl.Eq{"currency": currency, "state": mmodel.JournalPosted}).
		OrderBy("created_at DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("journal: build latest hash query: %w", err)
	}

	row := r.exec(ctx).QueryRowContext(ctx, query, args...)

	var hash string

	if err := row.Scan(&hash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return posting.ZeroHash, nil
		}

		return "", fmt.Errorf("journal: latest hash: %w", err)
	}

	return hash, nil
}

// Insert writes the journal header and its lines in the current transaction.
func (r *Repository) Insert(ctx context.Context, j mmodel.LedgerJournal, lines []mmodel.LedgerLine) error {
	exec := r.exec(ctx)

	journalQuery, journalArgs, err := sqrl.StatementBuilder.PlaceholderFormat(sqrl.Dollar).
		Insert("ledger_journal").
		Columns("id", "txn_type", "currency", "correlation_id", "state", "description", "prev_hash", "hash",
			"effective_date", "reversal_of", "correction_of", "posting_batch_id", "accounting_period_id",
			"total_amount_minor", "created_at").
		Values(j.ID, j.TxnType, j.Currency, j.CorrelationID, j.State, j.Description, j.PrevHash, j.Hash,
			j.EffectiveDate, j.ReversalOf, j.CorrectionOf, j.PostingBatchID, j.AccountingPeriodID,
			j.TotalAmountMinor, j.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("journal: build insert journal: %w", err)
	}

	if _, err := exec.ExecContext(ctx, journalQuery, journalArgs...); err != nil {
		return fmt.Errorf("journal: insert journal: %w", err)
	}

	lineBuilder := sqrl.StatementBuilder.PlaceholderFormat(sqrl.Dollar).
		Insert("ledger_line").
		Columns("id", "journal_id", "account_id", "entry_type", "amount_minor", "line_number", "description")

	for _, l := range lines {
		lineBuilder = lineBuilder.Values(l.ID, l.JournalID, l.AccountID, l.EntryType, l.AmountMinor, l.LineNumber, l.Description)
	}

	lineQuery, lineArgs, err := lineBuilder.ToSql()
	if err != nil {
		return fmt.Errorf("journal: build insert lines: %w", err)
	}

	if _, err := exec.ExecContext(ctx, lineQuery, lineArgs...); err != nil {
		return fmt.Errorf("journal: insert lines: %w", err)
	}

	return nil
}

// FindByID reads a journal and its lines by id.
func (r *Repository) FindByID(ctx context.Context, id string) (*mmodel.LedgerJournal, []mmodel.LedgerLine, error) {
	query, args, err := sqrl.StatementBuilder.PlaceholderFormat(sqrl.Dollar).
		Select("id", "txn_type", "currency", "correlation_id", "state", "description", "prev_hash", "hash",
			"effective_date", "reversal_of", "correction_of", "posting_batch_id", "accounting_period_id",
			"total_amount_minor", "created_at").
		From("ledger_journal").
		Where(sqrl.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, nil, fmt.Errorf("journal: build find query: %w", err)
	}

	row := r.exec(ctx).QueryRowContext(ctx, query, args...)

	var j mmodel.LedgerJournal

	if err := row.Scan(&j.ID, &j.TxnType, &j.Currency, &j.CorrelationID, &j.State, &j.Description, &j.PrevHash,
		&j.Hash, &j.EffectiveDate, &j.ReversalOf, &j.CorrectionOf, &j.PostingBatchID, &j.AccountingPeriodID,
		&j.TotalAmountMinor, &j.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, nil
		}

		return nil, nil, fmt.Errorf("journal: find by id: %w", err)
	}

	lineQuery, lineArgs, err := sqrl.StatementBuilder.PlaceholderFormat(sqrl.Dollar).
		Select("id", "journal_id", "account_id", "entry_type", "amount_minor", "line_number", "description").
		From("ledger_line").
		Where(sqrl.Eq{"journal_id": id}).
		OrderBy("line_number ASC").
		ToSql()
	if err != nil {
		return nil, nil, fmt.Errorf("journal: build lines query: %w", err)
	}

	rows, err := r.exec(ctx).QueryContext(ctx, lineQuery, lineArgs...)
	if err != nil {
		return nil, nil, fmt.Errorf("journal: query lines: %w", err)
	}
	defer rows.Close()

	var lines []mmodel.LedgerLine

	for rows.Next() {
		var l mmodel.LedgerLine

		if err := rows.Scan(&l.ID, &l.JournalID, &l.AccountID, &l.EntryType, &l.AmountMinor, &l.LineNumber, &l.Description); err != nil {
			return nil, nil, fmt.Errorf("journal: scan line: %w", err)
		}

		lines = append(lines, l)
	}

	return &j, lines, rows.Err()
}

// ListInRange returns every journal created in [from, to] together with its
// lines, ordered currency ASC then created_at ASC — the order
// posting.VerifyChain needs to recompute each currency's chain in sequence.
func (r *Repository) ListInRange(ctx context.Context, from, to time.Time) ([]posting.JournalWithLines, error) {
	query, args, err := sqrl.StatementBuilder.PlaceholderFormat(sqrl.Dollar).
		Select("id", "txn_type", "currency", "correlation_id", "state", "description", "prev_hash", "hash",
			"effective_date", "reversal_of", "correction_of", "posting_batch_id", "accounting_period_id",
			"total_amount_minor", "created_at").
		From("ledger_journal").
		Where(sqrl.GtOrEq{"created_at": from}).
		Where(sqrl.LtOrEq{"created_at": to}).
		OrderBy("currency ASC", "created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("journal: build list in range query: %w", err)
	}

	rows, err := r.exec(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("journal: list in range: %w", err)
	}
	defer rows.Close()

	var journals []mmodel.LedgerJournal

	for rows.Next() {
		var j mmodel.LedgerJournal

		if err := rows.Scan(&j.ID, &j.TxnType, &j.Currency, &j.CorrelationID, &j.State, &j.Description, &j.PrevHash,
			&j.Hash, &j.EffectiveDate, &j.ReversalOf, &j.CorrectionOf, &j.PostingBatchID, &j.AccountingPeriodID,
			&j.TotalAmountMinor, &j.CreatedAt); err != nil {
			return nil, fmt.Errorf("journal: scan journal in range: %w", err)
		}

		journals = append(journals, j)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("journal: list in range rows: %w", err)
	}

	out := make([]posting.JournalWithLines, len(journals))

	for i, j := range journals {
		lineQuery, lineArgs, err := sqrl.StatementBuilder.PlaceholderFormat(sqrl.Dollar).
			Select("id", "journal_id", "account_id", "entry_type", "amount_minor", "line_number", "description").
			From("ledger_line").
			Where(sqrl.Eq{"journal_id": j.ID}).
			OrderBy("line_number ASC").
			ToSql()
		if err != nil {
			return nil, fmt.Errorf("journal: build lines query: %w", err)
		}

		lineRows, err := r.exec(ctx).QueryContext(ctx, lineQuery, lineArgs...)
		if err != nil {
			return nil, fmt.Errorf("journal: query lines for %s: %w", j.ID, err)
		}

		var lines []mmodel.LedgerLine

		for lineRows.Next() {
			var l mmodel.LedgerLine

			if err := lineRows.Scan(&l.ID, &l.JournalID, &l.AccountID, &l.EntryType, &l.AmountMinor, &l.LineNumber, &l.Description); err != nil {
				lineRows.Close()
				return nil, fmt.Errorf("journal: scan line for %s: %w", j.ID, err)
			}

			lines = append(lines, l)
		}

		lineErr := lineRows.Err()
		lineRows.Close()

		if lineErr != nil {
			return nil, fmt.Errorf("journal: lines rows for %s: %w", j.ID, lineErr)
		}

		out[i] = posting.JournalWithLines{Journal: j, Lines: lines}
	}

	return out, nil
}

// MarkReversed flips a journal's state to REVERSED.
func (r *Repository) MarkReversed(ctx context.Context, journalID string) error {
	query, args, err := sqrl.StatementBuilder.PlaceholderFormat(sqrl.Dollar).
		Update("ledger_journal").
		Set("state", mmodel.JournalReversed).
		Where(sqrl.Eq{"id": journalID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("journal: build mark reversed: %w", err)
	}

	if _, err := r.exec(ctx).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("journal: mark reversed: %w", err)
	}

	return nil
}
