// Package account implements the Postgres repository for LedgerAccount,
// ChartOfAccountsEntry and OverdraftFacility lookups, following the
// teacher's PortfolioPostgreSQLRepository shape: a squirrel query builder
// over a raw-SQL connection, participating in the caller's transaction
// via pkg/dbtx when one is present in context.
package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sqrl "github.com/Masterminds/squirrel"

	"github.com/fnyamweya/caricash-nova-sub001/pkg/dbtx"
	"github.com/fnyamweya/caricash-nova-sub001/pkg/mmodel"
)

// Repository is the Postgres-backed AccountRepository.
type Repository struct {
	DB dbtx.DB
}

func (r *Repository) exec(ctx context.Context) dbtx.Executor {
	return dbtx.GetExecutor(ctx, r.DB)
}

// FindByID looks up a single ledger account by id.
func (r *Repository) FindByID(ctx context.Context, id string) (*mmodel.LedgerAccount, error) {
	query, args, err := sqrl.StatementBuilder.PlaceholderFormat(sqrl.Dollar).
		Select("id", "owner_type", "owner_id", "account_type", "currency", "coa_code", "created_at").
		From("ledger_account").
		Where(sqrl.Eq{"id": id, "deleted_at": nil}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("account: build query: %w", err)
	}

	row := r.exec(ctx).QueryRowContext(ctx, query, args...)

	var a mmodel.LedgerAccount

	if err := row.Scan(&a.ID, &a.OwnerType, &a.OwnerID, &a.AccountType, &a.Currency, &a.COACode, &a.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("account: find by id: %w", err)
	}

	return &a, nil
}

// FindCOAEntry looks up the chart-of-accounts entry governing an account's
// sign conventions, joining through the account's coa_code.
func (r *Repository) FindCOAEntry(ctx context.Context, accountID string) (*mmodel.ChartOfAccountsEntry, error) {
	query, args, err := sqrl.StatementBuilder.PlaceholderFormat(sqrl.Dollar).
		Select("c.coa_code", "c.class", "c.normal_balance", "c.allow_negative").
		From("chart_of_accounts_entry c").
		Join("ledger_account a ON a.coa_code = c.coa_code").
		Where(sqrl.Eq{"a.id": accountID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("account: build coa query: %w", err)
	}

	row := r.exec(ctx).QueryRowContext(ctx, query, args...)

	var c mmodel.ChartOfAccountsEntry

	if err := row.Scan(&c.COACode, &c.Class, &c.NormalBalance, &c.AllowNegative); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("account: find coa entry: %w", err)
	}

	return &c, nil
}

// FindOwnerState looks up the lifecycle state of the Actor that owns
// accountID, joining through the account's owner_id, for the posting
// engine's FROZEN-account precondition (§4.2 precondition 2).
func (r *Repository) FindOwnerState(ctx context.Context, accountID string) (mmodel.ActorState, error) {
	query, args, err := sqrl.StatementBuilder.PlaceholderFormat(sqrl.Dollar).
		Select("actor.state").
		From("actor").
		Join("ledger_account a ON a.owner_id = actor.id").
		Where(sqrl.Eq{"a.id": accountID}).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("account: build owner state query: %w", err)
	}

	row := r.exec(ctx).QueryRowContext(ctx, query, args...)

	var state mmodel.ActorState

	if err := row.Scan(&state); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}

		return "", fmt.Errorf("account: find owner state: %w", err)
	}

	return state, nil
}

// FindOverdraftFacility looks up the ACTIVE overdraft facility for an
// account, if any.
func (r *Repository) FindOverdraftFacility(ctx context.Context, accountID string) (*mmodel.OverdraftFacility, error) {
	query, args, err := sqrl.StatementBuilder.PlaceholderFormat(sqrl.Dollar).
		Select("id", "account_id", "limit_minor", "state", "approved_by_request_id", "valid_from", "valid_to").
		From("overdraft_facility").
		Where(sqrl.Eq{"account_id": accountID, "state": mmodel.OverdraftActive}).
		OrderBy("valid_from DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("account: build overdraft query: %w", err)
	}

	row := r.exec(ctx).QueryRowContext(ctx, query, args...)

	var f mmodel.OverdraftFacility

	if err := row.Scan(&f.ID, &f.AccountID, &f.LimitMinor, &f.State, &f.ApprovedByRequestID, &f.ValidFrom, &f.ValidTo); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("account: find overdraft facility: %w", err)
	}

	return &f, nil
}

// ActivateOverdraft inserts a new ACTIVE overdraft facility row for an
// account, stamping f.ApprovedByRequestID as the approval request that
// authorized it.
func (r *Repository) ActivateOverdraft(ctx context.Context, f mmodel.OverdraftFacility) error {
	query, args, err := sqrl.StatementBuilder.PlaceholderFormat(sqrl.Dollar).
		Insert("overdraft_facility").
		Columns("id", "account_id", "limit_minor", "state", "approved_by_request_id", "valid_from", "valid_to").
		Values(f.ID, f.AccountID, f.LimitMinor, mmodel.OverdraftActive, f.ApprovedByRequestID, f.ValidFrom, f.ValidTo).
		ToSql()
	if err != nil {
		return fmt.Errorf("account: build activate overdraft query: %w", err)
	}

	if _, err := r.exec(ctx).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("account: activate overdraft: %w", err)
	}

	return nil
}
