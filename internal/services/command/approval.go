package command

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fnyamweya/caricash-nova-sub001/internal/domain/approval"
	"github.com/fnyamweya/caricash-nova-sub001/pkg/constant"
	"github.com/fnyamweya/caricash-nova-sub001/pkg/mmodel"
)

// SubmitCommand is the input to ApprovalService.Submit: a maker requests
// approval for a named operation carrying an arbitrary JSON payload that
// policy conditions evaluate against.
type SubmitCommand struct {
	ApprovalType string
	Route        string
	Role         string
	MakerStaffID string
	Payload      map[string]any
}

// ApprovalService implements C4's public submit/decide operations.
type ApprovalService struct {
	UC *UseCase
}

// Submit implements §4.4's matching algorithm against the live policy
// catalog and creates a PENDING ApprovalRequest at stage 1.
func (s *ApprovalService) Submit(ctx context.Context, cmd SubmitCommand) (*mmodel.ApprovalRequest, error) {
	now := s.UC.Clock.Now()

	bundles, err := s.UC.PolicyRepo.ActivePolicies(ctx, now)
	if err != nil {
		return nil, err
	}

	sets := make([]approval.PolicySet, len(bundles))
	for i, b := range bundles {
		sets[i] = approval.PolicySet{Policy: b.Policy, Bindings: b.Bindings, Conditions: b.Conditions, Stages: b.Stages}
	}

	var autoSet *approval.PolicySet

	auto, err := s.UC.PolicyRepo.AutoPolicy(ctx, cmd.ApprovalType)
	if err != nil {
		return nil, err
	}

	if auto != nil {
		autoSet = &approval.PolicySet{Policy: auto.Policy, Bindings: auto.Bindings, Conditions: auto.Conditions, Stages: auto.Stages}
	}

	cand := approval.Candidate{ApprovalType: cmd.ApprovalType, Route: cmd.Route, Role: cmd.Role, Payload: cmd.Payload}

	matched, err := approval.Match(now, sets, cand, autoSet)
	if err != nil {
		return nil, err
	}

	if matched == nil {
		return nil, constant.ErrNoApprovalPolicy
	}

	payloadJSON, err := json.Marshal(cmd.Payload)
	if err != nil {
		return nil, err
	}

	policyID := matched.Policy.ID

	request := mmodel.ApprovalRequest{
		ID:           newID(),
		Type:         cmd.ApprovalType,
		PayloadJSON:  string(payloadJSON),
		MakerStaffID: cmd.MakerStaffID,
		PolicyID:     &policyID,
		CurrentStage: 1,
		TotalStages:  len(matched.Stages),
		State:        mmodel.RequestPending,
		CreatedAt:    now,
	}

	if err := s.UC.RequestRepo.Insert(ctx, request); err != nil {
		return nil, err
	}

	event := mmodel.Event{
		ID:            newULID(),
		Name:          mmodel.EventApprovalRequested,
		EntityType:    "ApprovalRequest",
		EntityID:      request.ID,
		ActorType:     mmodel.ActorStaff,
		ActorID:       cmd.MakerStaffID,
		SchemaVersion: 1,
		PayloadJSON:   string(payloadJSON),
		CreatedAt:     now,
	}

	if err := s.UC.OutboxRepo.Insert(ctx, event); err != nil {
		return nil, err
	}

	return &request, nil
}

// DecideCommand is the input to ApprovalService.Decide.
type DecideCommand struct {
	RequestID   string
	DeciderID   string
	DeciderRole string
	Decision    mmodel.Decision
	Reason      *string
}

// Decide implements §4.4's decision rules and state machine: it
// authorizes the decider against the current stage, records the
// decision, advances or terminates the request, and — on APPROVED —
// invokes the registered handler for the request's approval type with
// the request id as idempotency key.
func (s *ApprovalService) Decide(ctx context.Context, cmd DecideCommand) (*mmodel.ApprovalRequest, error) {
	if cmd.DeciderID == "" {
		return nil, constant.ErrMissingStaffID
	}

	now := s.UC.Clock.Now()

	request, err := s.UC.RequestRepo.FindByID(ctx, cmd.RequestID)
	if err != nil {
		return nil, err
	}

	if request == nil {
		return nil, constant.ErrRequestNotFound
	}

	if request.IsTerminal() {
		return nil, constant.ErrRequestAlreadyDecided
	}

	if request.PolicyID == nil {
		return nil, constant.ErrPolicyNotFound
	}

	bundle, err := s.UC.PolicyRepo.FindByID(ctx, *request.PolicyID)
	if err != nil {
		return nil, err
	}

	if bundle == nil {
		return nil, constant.ErrPolicyNotFound
	}

	stage, ok := findStage(bundle.Stages, request.CurrentStage)
	if !ok {
		return nil, constant.ErrPolicyNotFound
	}

	priorDecisions, err := s.UC.RequestRepo.DecisionsForRequest(ctx, request.ID)
	if err != nil {
		return nil, err
	}

	delegations, err := s.UC.RequestRepo.ActiveDelegations(ctx, cmd.DeciderID, now)
	if err != nil {
		return nil, err
	}

	decider := approval.Decider{StaffID: cmd.DeciderID, Role: cmd.DeciderRole}

	if err := approval.Authorize(stage, *request, priorDecisions, decider, delegations, now); err != nil {
		return nil, err
	}

	decision := mmodel.ApprovalStageDecision{
		RequestID:   request.ID,
		PolicyID:    *request.PolicyID,
		StageNo:     request.CurrentStage,
		Decision:    cmd.Decision,
		DeciderID:   cmd.DeciderID,
		DeciderRole: cmd.DeciderRole,
		Reason:      cmd.Reason,
		DecidedAt:   now,
	}

	if err := s.UC.RequestRepo.InsertDecision(ctx, decision); err != nil {
		return nil, err
	}

	decisionsForStage := append(stageDecisions(priorDecisions, request.CurrentStage), decision)

	transition := approval.RecordDecision(*request, stage, request.TotalStages, decisionsForStage, cmd.Decision)

	var decidedAt *time.Time
	if transition.NewState == mmodel.RequestApproved || transition.NewState == mmodel.RequestRejected {
		decidedAt = &now
	}

	if err := s.UC.RequestRepo.UpdateState(ctx, request.ID, transition.NewState, transition.NewStage, decidedAt); err != nil {
		return nil, err
	}

	request.State = transition.NewState
	request.CurrentStage = transition.NewStage
	request.DecidedAt = decidedAt

	event := mmodel.Event{
		ID:            newULID(),
		Name:          mmodel.EventApprovalDecided,
		EntityType:    "ApprovalRequest",
		EntityID:      request.ID,
		ActorType:     mmodel.ActorStaff,
		ActorID:       cmd.DeciderID,
		SchemaVersion: 1,
		CreatedAt:     now,
	}

	if err := s.UC.OutboxRepo.Insert(ctx, event); err != nil {
		return nil, err
	}

	if transition.NewState == mmodel.RequestApproved {
		handler, err := s.UC.Handlers.Resolve(request.Type)
		if err != nil {
			return nil, err
		}

		if err := handler.Handle(ctx, request.ID, request.PayloadJSON); err != nil {
			return nil, err
		}
	}

	return request, nil
}

func findStage(stages []mmodel.PolicyStage, stageNo int) (mmodel.PolicyStage, bool) {
	for _, s := range stages {
		if s.StageNo == stageNo {
			return s, true
		}
	}

	return mmodel.PolicyStage{}, false
}

func stageDecisions(decisions []mmodel.ApprovalStageDecision, stageNo int) []mmodel.ApprovalStageDecision {
	out := make([]mmodel.ApprovalStageDecision, 0, len(decisions))

	for _, d := range decisions {
		if d.StageNo == stageNo {
			out = append(out, d)
		}
	}

	return out
}
