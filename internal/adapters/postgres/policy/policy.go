// Package policy implements the Postgres repository for ApprovalPolicy and
// its bindings, conditions and stages — the catalog internal/domain/approval's
// matching algorithm reasons over. Queries follow the same squirrel+dbtx
// shape as the sibling adapters in this tree.
package policy

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sqrl "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/fnyamweya/caricash-nova-sub001/internal/services/command"
	"github.com/fnyamweya/caricash-nova-sub001/pkg/dbtx"
	"github.com/fnyamweya/caricash-nova-sub001/pkg/mmodel"
)

// Repository is the Postgres-backed PolicyRepository.
type Repository struct {
	DB dbtx.DB
}

func (r *Repository) exec(ctx context.Context) dbtx.Executor {
	return dbtx.GetExecutor(ctx, r.DB)
}

// ActivePolicies returns every ACTIVE policy whose validity window covers
// now, each with its bindings, conditions and stages loaded, ordered
// priority DESC then version DESC so the caller can stop at the first
// fully-matching policy per §4.4.
func (r *Repository) ActivePolicies(ctx context.Context, now time.Time) ([]command.PolicyBundle, error) {
	query, args, err := sqrl.StatementBuilder.PlaceholderFormat(sqrl.Dollar).
		Select("id", "name", "approval_type", "priority", "version", "state", "valid_from", "valid_to",
			"expiry_minutes", "escalation_minutes").
		From("approval_policy").
		Where(sqrl.Eq{"state": mmodel.PolicyActive}).
		Where(sqrl.Or{sqrl.Eq{"valid_from": nil}, sqrl.LtOrEq{"valid_from": now}}).
		Where(sqrl.Or{sqrl.Eq{"valid_to": nil}, sqrl.GtOrEq{"valid_to": now}}).
		OrderBy("priority DESC", "version DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("policy: build active policies query: %w", err)
	}

	policies, err := r.scanPolicies(ctx, query, args)
	if err != nil {
		return nil, err
	}

	return r.hydrate(ctx, policies)
}

// AutoPolicy returns one ACTIVE policy that has an APPROVAL_TYPE binding
// for approvalType, if one exists; nil if there is none. Its stages and
// validity window are not checked, and when several policies qualify
// which one is returned is not defined.
func (r *Repository) AutoPolicy(ctx context.Context, approvalType string) (*command.PolicyBundle, error) {
	query, args, err := sqrl.StatementBuilder.PlaceholderFormat(sqrl.Dollar).
		Select("p.id", "p.name", "p.approval_type", "p.priority", "p.version", "p.state", "p.valid_from", "p.valid_to",
			"p.expiry_minutes", "p.escalation_minutes").
		From("approval_policy p").
		Join("policy_binding b ON b.policy_id = p.id").
		Where(sqrl.Eq{"p.state": mmodel.PolicyActive, "b.binding_type": mmodel.BindingApprovalType, "b.binding_value_json": quoteJSON(approvalType)}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("policy: build auto policy query: %w", err)
	}

	policies, err := r.scanPolicies(ctx, query, args)
	if err != nil {
		return nil, err
	}

	if len(policies) == 0 {
		return nil, nil
	}

	bundles, err := r.hydrate(ctx, policies[:1])
	if err != nil {
		return nil, err
	}

	return &bundles[0], nil
}

// FindByID loads a single policy bundle, for re-resolving the policy that
// governed an in-flight ApprovalRequest at decision time.
func (r *Repository) FindByID(ctx context.Context, id string) (*command.PolicyBundle, error) {
	query, args, err := sqrl.StatementBuilder.PlaceholderFormat(sqrl.Dollar).
		Select("id", "name", "approval_type", "priority", "version", "state", "valid_from", "valid_to",
			"expiry_minutes", "escalation_minutes").
		From("approval_policy").
		Where(sqrl.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("policy: build find by id query: %w", err)
	}

	policies, err := r.scanPolicies(ctx, query, args)
	if err != nil {
		return nil, err
	}

	if len(policies) == 0 {
		return nil, nil
	}

	bundles, err := r.hydrate(ctx, policies[:1])
	if err != nil {
		return nil, err
	}

	return &bundles[0], nil
}

func (r *Repository) scanPolicies(ctx context.Context, query string, args []any) ([]mmodel.ApprovalPolicy, error) {
	rows, err := r.exec(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("policy: query: %w", err)
	}
	defer rows.Close()

	var out []mmodel.ApprovalPolicy

	for rows.Next() {
		var p mmodel.ApprovalPolicy

		if err := rows.Scan(&p.ID, &p.Name, &p.ApprovalType, &p.Priority, &p.Version, &p.State, &p.ValidFrom, &p.ValidTo,
			&p.ExpiryMinutes, &p.EscalationMinutes); err != nil {
			return nil, fmt.Errorf("policy: scan: %w", err)
		}

		out = append(out, p)
	}

	return out, rows.Err()
}

func (r *Repository) hydrate(ctx context.Context, policies []mmodel.ApprovalPolicy) ([]command.PolicyBundle, error) {
	bundles := make([]command.PolicyBundle, len(policies))

	for i, p := range policies {
		bindings, err := r.bindings(ctx, p.ID)
		if err != nil {
			return nil, err
		}

		conditions, err := r.conditions(ctx, p.ID)
		if err != nil {
			return nil, err
		}

		stages, err := r.stages(ctx, p.ID)
		if err != nil {
			return nil, err
		}

		bundles[i] = command.PolicyBundle{Policy: p, Bindings: bindings, Conditions: conditions, Stages: stages}
	}

	return bundles, nil
}

func (r *Repository) bindings(ctx context.Context, policyID string) ([]mmodel.PolicyBinding, error) {
	query, args, err := sqrl.StatementBuilder.PlaceholderFormat(sqrl.Dollar).
		Select("policy_id", "binding_type", "binding_value_json").
		From("policy_binding").
		Where(sqrl.Eq{"policy_id": policyID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("policy: build bindings query: %w", err)
	}

	rows, err := r.exec(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("policy: query bindings: %w", err)
	}
	defer rows.Close()

	var out []mmodel.PolicyBinding

	for rows.Next() {
		var b mmodel.PolicyBinding

		if err := rows.Scan(&b.PolicyID, &b.BindingType, &b.BindingValueJSON); err != nil {
			return nil, fmt.Errorf("policy: scan binding: %w", err)
		}

		out = append(out, b)
	}

	return out, rows.Err()
}

func (r *Repository) conditions(ctx context.Context, policyID string) ([]mmodel.PolicyCondition, error) {
	query, args, err := sqrl.StatementBuilder.PlaceholderFormat(sqrl.Dollar).
		Select("policy_id", "field", "operator", "value_json").
		From("policy_condition").
		Where(sqrl.Eq{"policy_id": policyID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("policy: build conditions query: %w", err)
	}

	rows, err := r.exec(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("policy: query conditions: %w", err)
	}
	defer rows.Close()

	var out []mmodel.PolicyCondition

	for rows.Next() {
		var c mmodel.PolicyCondition

		if err := rows.Scan(&c.PolicyID, &c.Field, &c.Operator, &c.ValueJSON); err != nil {
			return nil, fmt.Errorf("policy: scan condition: %w", err)
		}

		out = append(out, c)
	}

	return out, rows.Err()
}

func (r *Repository) stages(ctx context.Context, policyID string) ([]mmodel.PolicyStage, error) {
	query, args, err := sqrl.StatementBuilder.PlaceholderFormat(sqrl.Dollar).
		Select("policy_id", "stage_no", "min_approvals", "roles", "actor_ids", "exclude_maker",
			"exclude_previous_approvers", "timeout_minutes").
		From("policy_stage").
		Where(sqrl.Eq{"policy_id": policyID}).
		OrderBy("stage_no ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("policy: build stages query: %w", err)
	}

	rows, err := r.exec(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("policy: query stages: %w", err)
	}
	defer rows.Close()

	var out []mmodel.PolicyStage

	for rows.Next() {
		var s mmodel.PolicyStage

		if err := rows.Scan(&s.PolicyID, &s.StageNo, &s.MinApprovals, pq.Array(&s.Roles), pq.Array(&s.ActorIDs),
			&s.ExcludeMaker, &s.ExcludePreviousApprovers, &s.TimeoutMinutes); err != nil {
			return nil, fmt.Errorf("policy: scan stage: %w", err)
		}

		out = append(out, s)
	}

	return out, rows.Err()
}

func quoteJSON(s string) string {
	return fmt.Sprintf("%q", s)
}
