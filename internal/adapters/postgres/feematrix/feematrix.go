// Package feematrix implements the Postgres repository backing C5:
// resolving the active FeeMatrixVersion for a currency and looking up the
// FeeRule/CommissionRule row within it, distinguished by the rule_kind column.
package feematrix

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sqrl "github.com/Masterminds/squirrel"

	"github.com/fnyamweya/caricash-nova-sub001/pkg/dbtx"
	"github.com/fnyamweya/caricash-nova-sub001/pkg/mmodel"
)

// Repository is the Postgres-backed FeeMatrixRepository.
type Repository struct {
	DB dbtx.DB
}

func (r *Repository) exec(ctx context.Context) dbtx.Executor {
	return dbtx.GetExecutor(ctx, r.DB)
}

// ActiveVersion returns the ACTIVE, currently-effective FeeMatrixVersion
// for currency, if one exists.
func (r *Repository) ActiveVersion(ctx context.Context, currency string, at time.Time) (*mmodel.FeeMatrixVersion, error) {
	query, args, err := sqrl.StatementBuilder.PlaceholderFormat(sqrl.Dollar).
		Select("id", "currency", "state", "effective_from", "effective_to", "approved_by_request_id").
		From("fee_matrix_version").
		Where(sqrl.Eq{"currency": currency, "state": mmodel.FeeMatrixActive}).
		Where(sqrl.LtOrEq{"effective_from": at}).
		OrderBy("effective_from DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("feematrix: build version query: %w", err)
	}

	row := r.exec(ctx).QueryRowContext(ctx, query, args...)

	var v mmodel.FeeMatrixVersion

	if err := row.Scan(&v.ID, &v.Currency, &v.State, &v.EffectiveFrom, &v.EffectiveTo, &v.ApprovedByRequestID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("feematrix: active version: %w", err)
	}

	return &v, nil
}

// CreateDraftVersion inserts a new DRAFT FeeMatrixVersion and its FeeRule
// rows in a single transaction, for the maker-side "create a draft fee
// matrix" operation. It never touches any other version's state — only
// Activate retires the previously-ACTIVE version for the currency.
func (r *Repository) CreateDraftVersion(ctx context.Context, version mmodel.FeeMatrixVersion, rules []mmodel.FeeRule) error {
	versionQuery, versionArgs, err := sqrl.StatementBuilder.PlaceholderFormat(sqrl.Dollar).
		Insert("fee_matrix_version").
		Columns("id", "currency", "state", "effective_from", "effective_to", "approved_by_request_id").
		Values(version.ID, version.Currency, mmodel.FeeMatrixDraft, version.EffectiveFrom, version.EffectiveTo, version.ApprovedByRequestID).
		ToSql()
	if err != nil {
		return fmt.Errorf("feematrix: build draft version insert: %w", err)
	}

	if _, err := r.exec(ctx).ExecContext(ctx, versionQuery, versionArgs...); err != nil {
		return fmt.Errorf("feematrix: insert draft version: %w", err)
	}

	for _, rule := range rules {
		agentType := ""
		if rule.AgentType != nil {
			agentType = *rule.AgentType
		}

		ruleQuery, ruleArgs, err := sqrl.StatementBuilder.PlaceholderFormat(sqrl.Dollar).
			Insert("fee_rule").
			Columns("version_id", "txn_type", "currency", "agent_type", "rule_kind", "flat_minor", "percent_bp",
				"min_minor", "max_minor", "tax_rate_bp", "fee_account_id", "revenue_account_id").
			Values(version.ID, rule.TxnType, version.Currency, agentType, rule.RuleKind, rule.FlatMinor, rule.PercentBP,
				rule.MinMinor, rule.MaxMinor, rule.TaxRateBP, rule.FeeAccountID, rule.RevenueAccountID).
			ToSql()
		if err != nil {
			return fmt.Errorf("feematrix: build rule insert: %w", err)
		}

		if _, err := r.exec(ctx).ExecContext(ctx, ruleQuery, ruleArgs...); err != nil {
			return fmt.Errorf("feematrix: insert rule: %w", err)
		}
	}

	return nil
}

func (r *Repository) findRule(ctx context.Context, versionID, txnType, currency, agentType, kind string) (*mmodel.FeeRule, error) {
	qb := sqrl.StatementBuilder.PlaceholderFormat(sqrl.Dollar).
		Select("version_id", "txn_type", "currency", "agent_type", "flat_minor", "percent_bp", "min_minor",
			"max_minor", "tax_rate_bp", "fee_account_id", "revenue_account_id").
		From("fee_rule").
		Where(sqrl.Eq{"version_id": versionID, "txn_type": txnType, "currency": currency, "rule_kind": kind})

	if agentType != "" {
		qb = qb.Where(sqrl.Eq{"agent_type": agentType})
	}

	query, args, err := qb.Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("feematrix: build rule query: %w", err)
	}

	row := r.exec(ctx).QueryRowContext(ctx, query, args...)

	var rule mmodel.FeeRule

	if err := row.Scan(&rule.VersionID, &rule.TxnType, &rule.Currency, &rule.AgentType, &rule.FlatMinor,
		&rule.PercentBP, &rule.MinMinor, &rule.MaxMinor, &rule.TaxRateBP, &rule.FeeAccountID, &rule.RevenueAccountID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("feematrix: find rule: %w", err)
	}

	return &rule, nil
}

// FindFeeRule looks up the fee rule row for (versionID, txnType, currency).
func (r *Repository) FindFeeRule(ctx context.Context, versionID, txnType, currency string) (*mmodel.FeeRule, error) {
	return r.findRule(ctx, versionID, txnType, currency, "", "FEE")
}

// FindCommissionRule looks up the commission rule row for an agent type.
func (r *Repository) FindCommissionRule(ctx context.Context, versionID, txnType, currency, agentType string) (*mmodel.FeeRule, error) {
	return r.findRule(ctx, versionID, txnType, currency, agentType, "COMMISSION")
}

// Activate flips versionID to ACTIVE and retires whatever version was
// previously ACTIVE for the same currency, stamping requestID as the
// approval that authorized the switch.
func (r *Repository) Activate(ctx context.Context, versionID, currency, requestID string, at time.Time) error {
	retire, args, err := sqrl.StatementBuilder.PlaceholderFormat(sqrl.Dollar).
		Update("fee_matrix_version").
		Set("state", mmodel.FeeMatrixRetired).
		Set("effective_to", at).
		Where(sqrl.Eq{"currency": currency, "state": mmodel.FeeMatrixActive}).
		ToSql()
	if err != nil {
		return fmt.Errorf("feematrix: build retire query: %w", err)
	}

	if _, err := r.exec(ctx).ExecContext(ctx, retire, args...); err != nil {
		return fmt.Errorf("feematrix: retire active version: %w", err)
	}

	activate, args, err := sqrl.StatementBuilder.PlaceholderFormat(sqrl.Dollar).
		Update("fee_matrix_version").
		Set("state", mmodel.FeeMatrixActive).
		Set("effective_from", at).
		Set("approved_by_request_id", requestID).
		Where(sqrl.Eq{"id": versionID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("feematrix: build activate query: %w", err)
	}

	if _, err := r.exec(ctx).ExecContext(ctx, activate, args...); err != nil {
		return fmt.Errorf("feematrix: activate version: %w", err)
	}

	return nil
}
