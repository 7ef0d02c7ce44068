package approval

import (
	"time"

	"github.com/fnyamweya/caricash-nova-sub001/pkg/constant"
	"github.com/fnyamweya/caricash-nova-sub001/pkg/mmodel"
)

// Decider is the identity attempting to record a decision on a stage.
type Decider struct {
	StaffID string
	Role    string
}

// Authorize implements §4.4's decision rules: the decider must not be the
// maker when ExcludeMaker is set, must not already have decided on this
// stage when ExcludePreviousApprovers is set, and must hold (natively or
// via an ACTIVE delegation covering the approval type and time window) a
// role in the stage's Roles, or have their id in ActorIDs.
func Authorize(
	stage mmodel.PolicyStage,
	request mmodel.ApprovalRequest,
	priorDecisions []mmodel.ApprovalStageDecision,
	decider Decider,
	delegations []mmodel.ApprovalDelegation,
	now time.Time,
) error {
	if stage.ExcludeMaker && decider.StaffID == request.MakerStaffID {
		return constant.ErrDeciderIsMaker
	}

	if stage.ExcludePreviousApprovers {
		for _, d := range priorDecisions {
			if d.StageNo == stage.StageNo && d.DeciderID == decider.StaffID {
				return constant.ErrDeciderAlreadyDecided
			}
		}
	}

	if containsString(stage.ActorIDs, decider.StaffID) {
		return nil
	}

	if containsString(stage.Roles, decider.Role) {
		return nil
	}

	for _, del := range delegations {
		if del.DelegateID != decider.StaffID {
			continue
		}

		if !del.Active(request.Type, now) {
			continue
		}

		if containsString(stage.Roles, del.DelegatorID) || containsString(stage.ActorIDs, del.DelegatorID) {
			return nil
		}
	}

	return constant.ErrDeciderNotPermitted
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}

	return false
}

// Transition is the outcome of recording a decision: whether the request
// advanced, reached a terminal state, and which state it is now in.
type Transition struct {
	NewState     mmodel.RequestState
	NewStage     int
	StageCleared bool
}

// RecordDecision implements the stage-advancement rule: a single REJECT
// terminates the request as REJECTED; once MinApprovals APPROVE decisions
// are recorded for the current stage, the request advances — to the next
// stage, or to APPROVED if this was the final stage.
func RecordDecision(
	request mmodel.ApprovalRequest,
	stage mmodel.PolicyStage,
	totalStages int,
	decisionsForStage []mmodel.ApprovalStageDecision,
	decision mmodel.Decision,
) Transition {
	if decision == mmodel.DecisionReject {
		return Transition{NewState: mmodel.RequestRejected, NewStage: request.CurrentStage}
	}

	approvals := 0

	for _, d := range decisionsForStage {
		if d.Decision == mmodel.DecisionApprove {
			approvals++
		}
	}

	if approvals < stage.MinApprovals {
		return Transition{NewState: mmodel.RequestPending, NewStage: request.CurrentStage}
	}

	if request.CurrentStage >= totalStages {
		return Transition{NewState: mmodel.RequestApproved, NewStage: request.CurrentStage, StageCleared: true}
	}

	return Transition{NewState: mmodel.RequestPending, NewStage: request.CurrentStage + 1, StageCleared: true}
}

// TimeoutDeadline returns the instant at which the current stage's
// timeout elapses, if the stage defines one.
func TimeoutDeadline(request mmodel.ApprovalRequest, stage mmodel.PolicyStage) *time.Time {
	if stage.TimeoutMinutes == nil {
		return nil
	}

	deadline := request.CreatedAt.Add(time.Duration(*stage.TimeoutMinutes) * time.Minute)

	return &deadline
}

// EscalationDeadline returns the instant at which the policy's escalation
// window elapses, if the policy defines one.
func EscalationDeadline(request mmodel.ApprovalRequest, policy mmodel.ApprovalPolicy) *time.Time {
	if policy.EscalationMinutes == nil {
		return nil
	}

	deadline := request.CreatedAt.Add(time.Duration(*policy.EscalationMinutes) * time.Minute)

	return &deadline
}
