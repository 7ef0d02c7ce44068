package approval_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fnyamweya/caricash-nova-sub001/internal/domain/approval"
	"github.com/fnyamweya/caricash-nova-sub001/pkg/mmodel"
)

func bindingFor(approvalType string) mmodel.PolicyBinding {
	return mmodel.PolicyBinding{BindingType: mmodel.BindingApprovalType, BindingValueJSON: `"` + approvalType + `"`}
}

func TestMatchSelectsHighestPriorityPolicyWhoseConditionsHold(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)

	low := approval.PolicySet{
		Policy:     mmodel.ApprovalPolicy{ID: "low", State: mmodel.PolicyActive, Priority: 1, Version: 1},
		Bindings:   []mmodel.PolicyBinding{bindingFor("LARGE_PAYOUT")},
		Conditions: nil,
	}
	high := approval.PolicySet{
		Policy:   mmodel.ApprovalPolicy{ID: "high", State: mmodel.PolicyActive, Priority: 10, Version: 1},
		Bindings: []mmodel.PolicyBinding{bindingFor("LARGE_PAYOUT")},
		Conditions: []mmodel.PolicyCondition{
			{Field: "amount_minor", Operator: "GT", ValueJSON: "1000000"},
		},
	}

	cand := approval.Candidate{
		ApprovalType: "LARGE_PAYOUT",
		Payload:      map[string]any{"amount_minor": float64(2_000_000)},
	}

	matched, err := approval.Match(now, []approval.PolicySet{low, high}, cand, nil)
	require.NoError(t, err)
	require.NotNil(t, matched)
	assert.Equal(t, "high", matched.Policy.ID)
}

func TestMatchFallsBackToNextPolicyWhenConditionsFail(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)

	high := approval.PolicySet{
		Policy:   mmodel.ApprovalPolicy{ID: "high", State: mmodel.PolicyActive, Priority: 10, Version: 1},
		Bindings: []mmodel.PolicyBinding{bindingFor("LARGE_PAYOUT")},
		Conditions: []mmodel.PolicyCondition{
			{Field: "amount_minor", Operator: "GT", ValueJSON: "10000000"},
		},
	}
	low := approval.PolicySet{
		Policy:     mmodel.ApprovalPolicy{ID: "low", State: mmodel.PolicyActive, Priority: 1, Version: 1},
		Bindings:   []mmodel.PolicyBinding{bindingFor("LARGE_PAYOUT")},
		Conditions: nil,
	}

	cand := approval.Candidate{ApprovalType: "LARGE_PAYOUT", Payload: map[string]any{"amount_minor": float64(2_000_000)}}

	matched, err := approval.Match(now, []approval.PolicySet{high, low}, cand, nil)
	require.NoError(t, err)
	require.NotNil(t, matched)
	assert.Equal(t, "low", matched.Policy.ID)
}

func TestMatchUsesAutoPolicyWhenNoneMatch(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)
	auto := approval.PolicySet{Policy: mmodel.ApprovalPolicy{ID: "auto"}}

	matched, err := approval.Match(now, nil, approval.Candidate{ApprovalType: "LARGE_PAYOUT"}, &auto)
	require.NoError(t, err)
	require.NotNil(t, matched)
	assert.Equal(t, "auto", matched.Policy.ID)
}

func TestMatchReturnsNilWithoutAutoPolicy(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)

	matched, err := approval.Match(now, nil, approval.Candidate{ApprovalType: "LARGE_PAYOUT"}, nil)
	require.NoError(t, err)
	assert.Nil(t, matched)
}

func TestMatchSkipsPoliciesOutsideValidityWindow(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)
	expired := now.Add(-time.Hour)

	ps := approval.PolicySet{
		Policy:   mmodel.ApprovalPolicy{ID: "expired", State: mmodel.PolicyActive, Priority: 10, ValidTo: &expired},
		Bindings: []mmodel.PolicyBinding{bindingFor("LARGE_PAYOUT")},
	}

	matched, err := approval.Match(now, []approval.PolicySet{ps}, approval.Candidate{ApprovalType: "LARGE_PAYOUT"}, nil)
	require.NoError(t, err)
	assert.Nil(t, matched)
}
