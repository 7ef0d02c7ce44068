// Package request implements the Postgres repository for ApprovalRequest,
// its per-stage decisions, and active delegations — the C4 state machine's
// persistence layer.
package request

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

// Repository is the Postgres-backed RequestRepository.
type Repository struct {
	DB dbtx.DB
}

func (r *Repository) exec(ctx context.Context) dbtx.Executor {
	return dbtx.GetExecutor(ctx, r.DB)
}

// Insert writes a newly-submitted ApprovalRequest at its first stage.
func (r *Repository) Insert(ctx context.Context, req mmodel.ApprovalRequest) error {
	query, args, err := sqrl.StatementBuilder.PlaceholderFormat(sqrl.Dollar).
		Insert("approval_request").
		Columns("id", "type", "payload_json", "maker_staff_id", "policy_id", "current_stage", "total_stages",
			"state", "created_at", "decided_at").
		Values(req.ID, req.Type, req.PayloadJSON, req.MakerStaffID, req.PolicyID, req.CurrentStage, req.TotalStages,
			req.State, req.CreatedAt, req.DecidedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("request: build insert: %w", err)
	}

	if _, err := r.exec(ctx).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("request: insert: %w", err)
	}

	return nil
}

// FindByID reads a request by id, nil if it doesn't exist.
func (r *Repository) FindByID(ctx context.Context, id string) (*mmodel.ApprovalRequest, error) {
	query, args, err := sqrl.StatementBuilder.PlaceholderFormat(sqrl.Dollar).
		Select("id", "type", "payload_json", "maker_staff_id", "policy_id", "current_stage", "total_stages",
			"state", "created_at", "decided_at").
		From("approval_request").
		Where(sqrl.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("request: build find query: %w", err)
	}

	row := r.exec(ctx).QueryRowContext(ctx, query, args...)

	var req mmodel.ApprovalRequest

	if err := row.Scan(&req.ID, &req.Type, &req.PayloadJSON, &req.MakerStaffID, &req.PolicyID, &req.CurrentStage,
		&req.TotalStages, &req.State, &req.CreatedAt, &req.DecidedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("request: find by id: %w", err)
	}

	return &req, nil
}

// DecisionsForRequest returns every stage decision recorded so far for
// requestID, in decision order.
func (r *Repository) DecisionsForRequest(ctx context.Context, requestID string) ([]mmodel.ApprovalStageDecision, error) {
	query, args, err := sqrl.StatementBuilder.PlaceholderFormat(sqrl.Dollar).
		Select("request_id", "policy_id", "stage_no", "decision", "decider_id", "decider_role", "reason", "decided_at").
		From("approval_stage_decision").
		Where(sqrl.Eq{"request_id": requestID}).
		OrderBy("decided_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("request: build decisions query: %w", err)
	}

	rows, err := r.exec(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("request: query decisions: %w", err)
	}
	defer rows.Close()

	var out []mmodel.ApprovalStageDecision

	for rows.Next() {
		var d mmodel.ApprovalStageDecision

		if err := rows.Scan(&d.RequestID, &d.PolicyID, &d.StageNo, &d.Decision, &d.DeciderID, &d.DeciderRole,
			&d.Reason, &d.DecidedAt); err != nil {
			return nil, fmt.Errorf("request: scan decision: %w", err)
		}

		out = append(out, d)
	}

	return out, rows.Err()
}

// InsertDecision records one decider's verdict on the request's current stage.
func (r *Repository) InsertDecision(ctx context.Context, decision mmodel.ApprovalStageDecision) error {
	query, args, err := sqrl.StatementBuilder.PlaceholderFormat(sqrl.Dollar).
		Insert("approval_stage_decision").
		Columns("request_id", "policy_id", "stage_no", "decision", "decider_id", "decider_role", "reason", "decided_at").
		Values(decision.RequestID, decision.PolicyID, decision.StageNo, decision.Decision, decision.DeciderID,
			decision.DeciderRole, decision.Reason, decision.DecidedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("request: build insert decision: %w", err)
	}

	if _, err := r.exec(ctx).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("request: insert decision: %w", err)
	}

	return nil
}

// UpdateState advances a request's state and current stage, stamping
// decided_at when the transition reaches a terminal state.
func (r *Repository) UpdateState(ctx context.Context, requestID string, state mmodel.RequestState, currentStage int, decidedAt *time.Time) error {
	query, args, err := sqrl.StatementBuilder.PlaceholderFormat(sqrl.Dollar).
		Update("approval_request").
		Set("state", state).
		Set("current_stage", currentStage).
		Set("decided_at", decidedAt).
		Where(sqrl.Eq{"id": requestID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("request: build update state: %w", err)
	}

	if _, err := r.exec(ctx).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("request: update state: %w", err)
	}

	return nil
}

// ActiveDelegations returns every ACTIVE delegation naming staffID as
// delegate whose validity window covers at.
func (r *Repository) ActiveDelegations(ctx context.Context, staffID string, at time.Time) ([]mmodel.ApprovalDelegation, error) {
	query, args, err := sqrl.StatementBuilder.PlaceholderFormat(sqrl.Dollar).
		Select("delegator_id", "delegate_id", "approval_type", "valid_from", "valid_to", "state").
		From("approval_delegation").
		Where(sqrl.Eq{"delegate_id": staffID, "state": mmodel.DelegationActive}).
		Where(sqrl.LtOrEq{"valid_from": at}).
		Where(sqrl.GtOrEq{"valid_to": at}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("request: build delegations query: %w", err)
	}

	rows, err := r.exec(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("request: query delegations: %w", err)
	}
	defer rows.Close()

	var out []mmodel.ApprovalDelegation

	for rows.Next() {
		var d mmodel.ApprovalDelegation

		if err := rows.Scan(&d.DelegatorID, &d.DelegateID, &d.ApprovalType, &d.ValidFrom, &d.ValidTo, &d.State); err != nil {
			return nil, fmt.Errorf("request: scan delegation: %w", err)
		}

		out = append(out, d)
	}

	return out, rows.Err()
}

// OverdueRequests returns every still-PENDING request, for the sweeper to
// check against each one's own policy-derived timeout/escalation deadline
// (internal/domain/approval.TimeoutDeadline/EscalationDeadline).
func (r *Repository) OverdueRequests(ctx context.Context, _ time.Time) ([]mmodel.ApprovalRequest, error) {
	query, args, err := sqrl.StatementBuilder.PlaceholderFormat(sqrl.Dollar).
		Select("id", "type", "payload_json", "maker_staff_id", "policy_id", "current_stage", "total_stages",
			"state", "created_at", "decided_at").
		From("approval_request").
		Where(sqrl.Eq{"state": mmodel.RequestPending}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("request: build overdue query: %w", err)
	}

	rows, err := r.exec(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("request: query overdue: %w", err)
	}
	defer rows.Close()

	var out []mmodel.ApprovalRequest

	for rows.Next() {
		var req mmodel.ApprovalRequest

		if err := rows.Scan(&req.ID, &req.Type, &req.PayloadJSON, &req.MakerStaffID, &req.PolicyID, &req.CurrentStage,
			&req.TotalStages, &req.State, &req.CreatedAt, &req.DecidedAt); err != nil {
			return nil, fmt.Errorf("request: scan overdue: %w", err)
		}

		out = append(out, req)
	}

	return out, rows.Err()
}
