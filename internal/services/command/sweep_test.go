package command_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fnyamweya/caricash-nova-sub001/internal/services/command"
	"github.com/fnyamweya/caricash-nova-sub001/pkg/mmodel"
)

type fakeSweepPolicyRepo struct {
	bundles map[string]command.PolicyBundle
}

func (f *fakeSweepPolicyRepo) ActivePolicies(_ context.Context, _ time.Time) ([]command.PolicyBundle, error) {
	return nil, nil
}

func (f *fakeSweepPolicyRepo) AutoPolicy(_ context.Context, _ string) (*command.PolicyBundle, error) {
	return nil, nil
}

func (f *fakeSweepPolicyRepo) FindByID(_ context.Context, id string) (*command.PolicyBundle, error) {
	b, ok := f.bundles[id]
	if !ok {
		return nil, nil
	}

	return &b, nil
}

type fakeSweepRequestRepo struct {
	requests map[string]mmodel.ApprovalRequest
	overdue  []mmodel.ApprovalRequest
}

func (f *fakeSweepRequestRepo) Insert(_ context.Context, req mmodel.ApprovalRequest) error {
	f.requests[req.ID] = req
	return nil
}

func (f *fakeSweepRequestRepo) FindByID(_ context.Context, id string) (*mmodel.ApprovalRequest, error) {
	r, ok := f.requests[id]
	if !ok {
		return nil, nil
	}

	return &r, nil
}

func (f *fakeSweepRequestRepo) DecisionsForRequest(_ context.Context, _ string) ([]mmodel.ApprovalStageDecision, error) {
	return nil, nil
}

func (f *fakeSweepRequestRepo) InsertDecision(_ context.Context, _ mmodel.ApprovalStageDecision) error {
	return nil
}

func (f *fakeSweepRequestRepo) UpdateState(_ context.Context, requestID string, state mmodel.RequestState, currentStage int, decidedAt *time.Time) error {
	req := f.requests[requestID]
	req.State = state
	req.CurrentStage = currentStage
	req.DecidedAt = decidedAt
	f.requests[requestID] = req

	return nil
}

func (f *fakeSweepRequestRepo) ActiveDelegations(_ context.Context, _ string, _ time.Time) ([]mmodel.ApprovalDelegation, error) {
	return nil, nil
}

func (f *fakeSweepRequestRepo) OverdueRequests(_ context.Context, _ time.Time) ([]mmodel.ApprovalRequest, error) {
	return f.overdue, nil
}

func TestSweepExpiresRequestPastStageTimeout(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	createdAt := now.Add(-2 * time.Hour)
	timeoutMinutes := 60

	policyID := "policy-1"
	req := mmodel.ApprovalRequest{
		ID: "req-1", Type: "OVERDRAFT_GRANT", PolicyID: &policyID,
		CurrentStage: 1, TotalStages: 1, State: mmodel.RequestPending, CreatedAt: createdAt,
	}

	policyRepo := &fakeSweepPolicyRepo{bundles: map[string]command.PolicyBundle{
		policyID: {
			Policy: mmodel.ApprovalPolicy{ID: policyID},
			Stages: []mmodel.PolicyStage{{PolicyID: policyID, StageNo: 1, TimeoutMinutes: &timeoutMinutes}},
		},
	}}
	requestRepo := &fakeSweepRequestRepo{requests: map[string]mmodel.ApprovalRequest{"req-1": req}, overdue: []mmodel.ApprovalRequest{req}}
	outbox := &fakeOutboxRepo{}

	uc := &command.UseCase{
		PolicyRepo:  policyRepo,
		RequestRepo: requestRepo,
		OutboxRepo:  outbox,
		Clock:       fixedClock{t: now},
	}

	result, err := (&command.SweepService{UC: uc}).Sweep(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Scanned)
	assert.Equal(t, 1, result.Expired)
	assert.Equal(t, mmodel.RequestExpired, requestRepo.requests["req-1"].State)
	require.Len(t, outbox.events, 1)
	assert.Equal(t, "APPROVAL_EXPIRED", outbox.events[0].Name)
}

func TestSweepEscalatesOverTimeoutAndEscalationWindow(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	createdAt := now.Add(-3 * time.Hour)
	timeoutMinutes := 60
	escalationMinutes := 120

	policyID := "policy-2"
	req := mmodel.ApprovalRequest{
		ID: "req-2", Type: "PAYOUT_RELEASE", PolicyID: &policyID,
		CurrentStage: 1, TotalStages: 1, State: mmodel.RequestPending, CreatedAt: createdAt,
	}

	policyRepo := &fakeSweepPolicyRepo{bundles: map[string]command.PolicyBundle{
		policyID: {
			Policy: mmodel.ApprovalPolicy{ID: policyID, EscalationMinutes: &escalationMinutes},
			Stages: []mmodel.PolicyStage{{PolicyID: policyID, StageNo: 1, TimeoutMinutes: &timeoutMinutes}},
		},
	}}
	requestRepo := &fakeSweepRequestRepo{requests: map[string]mmodel.ApprovalRequest{"req-2": req}, overdue: []mmodel.ApprovalRequest{req}}
	outbox := &fakeOutboxRepo{}

	uc := &command.UseCase{
		PolicyRepo:  policyRepo,
		RequestRepo: requestRepo,
		OutboxRepo:  outbox,
		Clock:       fixedClock{t: now},
	}

	result, err := (&command.SweepService{UC: uc}).Sweep(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Escalated)
	assert.Equal(t, mmodel.RequestEscalated, requestRepo.requests["req-2"].State)
}

func TestSweepLeavesRequestsWithinDeadlineAlone(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	createdAt := now.Add(-10 * time.Minute)
	timeoutMinutes := 60

	policyID := "policy-3"
	req := mmodel.ApprovalRequest{
		ID: "req-3", Type: "OVERDRAFT_GRANT", PolicyID: &policyID,
		CurrentStage: 1, TotalStages: 1, State: mmodel.RequestPending, CreatedAt: createdAt,
	}

	policyRepo := &fakeSweepPolicyRepo{bundles: map[string]command.PolicyBundle{
		policyID: {
			Policy: mmodel.ApprovalPolicy{ID: policyID},
			Stages: []mmodel.PolicyStage{{PolicyID: policyID, StageNo: 1, TimeoutMinutes: &timeoutMinutes}},
		},
	}}
	requestRepo := &fakeSweepRequestRepo{requests: map[string]mmodel.ApprovalRequest{"req-3": req}, overdue: []mmodel.ApprovalRequest{req}}
	outbox := &fakeOutboxRepo{}

	uc := &command.UseCase{
		PolicyRepo:  policyRepo,
		RequestRepo: requestRepo,
		OutboxRepo:  outbox,
		Clock:       fixedClock{t: now},
	}

	result, err := (&command.SweepService{UC: uc}).Sweep(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, result.Expired)
	assert.Equal(t, 0, result.Escalated)
	assert.Equal(t, mmodel.RequestPending, requestRepo.requests["req-3"].State)
	assert.Empty(t, outbox.events)
}
