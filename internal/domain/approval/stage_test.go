package approval_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/fnyamweya/caricash-nova-sub001/internal/domain/approval"
	"github.com/fnyamweya/caricash-nova-sub001/pkg/constant"
	"github.com/fnyamweya/caricash-nova-sub001/pkg/mmodel"
)

func TestAuthorizeRejectsMaker(t *testing.T) {
	t.Parallel()

	stage := mmodel.PolicyStage{StageNo: 1, ExcludeMaker: true, Roles: []string{"MANAGER"}}
	request := mmodel.ApprovalRequest{MakerStaffID: "staff-1", Type: "LARGE_PAYOUT"}
	decider := approval.Decider{StaffID: "staff-1", Role: "MANAGER"}

	err := approval.Authorize(stage, request, nil, decider, nil, time.Now())
	assert.True(t, errors.Is(err, constant.ErrDeciderIsMaker))
}

func TestAuthorizeRejectsRepeatDeciderWhenExcluded(t *testing.T) {
	t.Parallel()

	stage := mmodel.PolicyStage{StageNo: 1, ExcludePreviousApprovers: true, Roles: []string{"MANAGER"}}
	request := mmodel.ApprovalRequest{MakerStaffID: "staff-0", Type: "LARGE_PAYOUT"}
	decider := approval.Decider{StaffID: "staff-2", Role: "MANAGER"}
	prior := []mmodel.ApprovalStageDecision{{StageNo: 1, DeciderID: "staff-2"}}

	err := approval.Authorize(stage, request, prior, decider, nil, time.Now())
	assert.True(t, errors.Is(err, constant.ErrDeciderAlreadyDecided))
}

func TestAuthorizeAllowsMatchingRole(t *testing.T) {
	t.Parallel()

	stage := mmodel.PolicyStage{StageNo: 1, Roles: []string{"MANAGER", "DIRECTOR"}}
	request := mmodel.ApprovalRequest{MakerStaffID: "staff-0", Type: "LARGE_PAYOUT"}
	decider := approval.Decider{StaffID: "staff-3", Role: "DIRECTOR"}

	err := approval.Authorize(stage, request, nil, decider, nil, time.Now())
	assert.NoError(t, err)
}

func TestAuthorizeRejectsUnrelatedRole(t *testing.T) {
	t.Parallel()

	stage := mmodel.PolicyStage{StageNo: 1, Roles: []string{"MANAGER"}}
	request := mmodel.ApprovalRequest{MakerStaffID: "staff-0", Type: "LARGE_PAYOUT"}
	decider := approval.Decider{StaffID: "staff-3", Role: "TELLER"}

	err := approval.Authorize(stage, request, nil, decider, nil, time.Now())
	assert.True(t, errors.Is(err, constant.ErrDeciderNotPermitted))
}

func TestAuthorizeAllowsActiveDelegation(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	stage := mmodel.PolicyStage{StageNo: 1, Roles: []string{"DIRECTOR-ROLE-ALIAS"}}
	approvalType := "LARGE_PAYOUT"
	request := mmodel.ApprovalRequest{MakerStaffID: "staff-0", Type: approvalType}
	decider := approval.Decider{StaffID: "delegate-1", Role: "TELLER"}

	delegations := []mmodel.ApprovalDelegation{
		{
			DelegatorID:  "DIRECTOR-ROLE-ALIAS",
			DelegateID:   "delegate-1",
			ApprovalType: &approvalType,
			ValidFrom:    now.Add(-time.Hour),
			ValidTo:      now.Add(time.Hour),
			State:        mmodel.DelegationActive,
		},
	}

	err := approval.Authorize(stage, request, nil, decider, delegations, now)
	assert.NoError(t, err)
}

func TestRecordDecisionRejectTerminates(t *testing.T) {
	t.Parallel()

	request := mmodel.ApprovalRequest{CurrentStage: 1}
	stage := mmodel.PolicyStage{StageNo: 1, MinApprovals: 1}

	transition := approval.RecordDecision(request, stage, 2, nil, mmodel.DecisionReject)
	assert.Equal(t, mmodel.RequestRejected, transition.NewState)
}

func TestRecordDecisionAdvancesStageWhenThresholdMet(t *testing.T) {
	t.Parallel()

	request := mmodel.ApprovalRequest{CurrentStage: 1}
	stage := mmodel.PolicyStage{StageNo: 1, MinApprovals: 1}
	decisions := []mmodel.ApprovalStageDecision{{StageNo: 1, Decision: mmodel.DecisionApprove}}

	transition := approval.RecordDecision(request, stage, 2, decisions, mmodel.DecisionApprove)
	assert.Equal(t, mmodel.RequestPending, transition.NewState)
	assert.Equal(t, 2, transition.NewStage)
	assert.True(t, transition.StageCleared)
}

func TestRecordDecisionApprovesOnFinalStage(t *testing.T) {
	t.Parallel()

	request := mmodel.ApprovalRequest{CurrentStage: 2}
	stage := mmodel.PolicyStage{StageNo: 2, MinApprovals: 1}
	decisions := []mmodel.ApprovalStageDecision{{StageNo: 2, Decision: mmodel.DecisionApprove}}

	transition := approval.RecordDecision(request, stage, 2, decisions, mmodel.DecisionApprove)
	assert.Equal(t, mmodel.RequestApproved, transition.NewState)
}

func TestRecordDecisionStaysPendingBelowThreshold(t *testing.T) {
	t.Parallel()

	request := mmodel.ApprovalRequest{CurrentStage: 1}
	stage := mmodel.PolicyStage{StageNo: 1, MinApprovals: 2}
	decisions := []mmodel.ApprovalStageDecision{{StageNo: 1, Decision: mmodel.DecisionApprove}}

	transition := approval.RecordDecision(request, stage, 2, decisions, mmodel.DecisionApprove)
	assert.Equal(t, mmodel.RequestPending, transition.NewState)
	assert.False(t, transition.StageCleared)
	assert.Equal(t, 1, transition.NewStage)
}
