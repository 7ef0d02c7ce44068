package command_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fnyamweya/caricash-nova-sub001/internal/services/command"
	"github.com/fnyamweya/caricash-nova-sub001/pkg/mmodel"
)

type fakePolicyRepo struct {
	bundles []command.PolicyBundle
	auto    map[string]command.PolicyBundle
}

func (f *fakePolicyRepo) ActivePolicies(_ context.Context, _ time.Time) ([]command.PolicyBundle, error) {
	return f.bundles, nil
}

func (f *fakePolicyRepo) AutoPolicy(_ context.Context, approvalType string) (*command.PolicyBundle, error) {
	b, ok := f.auto[approvalType]
	if !ok {
		return nil, nil
	}

	return &b, nil
}

func (f *fakePolicyRepo) FindByID(_ context.Context, id string) (*command.PolicyBundle, error) {
	for _, b := range f.bundles {
		if b.Policy.ID == id {
			return &b, nil
		}
	}

	return nil, nil
}

type fakeRequestRepo struct {
	mu        sync.Mutex
	requests  map[string]mmodel.ApprovalRequest
	decisions map[string][]mmodel.ApprovalStageDecision
}

func (f *fakeRequestRepo) Insert(_ context.Context, r mmodel.ApprovalRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests[r.ID] = r

	return nil
}

func (f *fakeRequestRepo) FindByID(_ context.Context, id string) (*mmodel.ApprovalRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	r, ok := f.requests[id]
	if !ok {
		return nil, nil
	}

	return &r, nil
}

func (f *fakeRequestRepo) DecisionsForRequest(_ context.Context, requestID string) ([]mmodel.ApprovalStageDecision, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.decisions[requestID], nil
}

func (f *fakeRequestRepo) InsertDecision(_ context.Context, d mmodel.ApprovalStageDecision) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.decisions[d.RequestID] = append(f.decisions[d.RequestID], d)

	return nil
}

func (f *fakeRequestRepo) UpdateState(_ context.Context, requestID string, state mmodel.RequestState, stage int, decidedAt *time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	r := f.requests[requestID]
	r.State = state
	r.CurrentStage = stage
	r.DecidedAt = decidedAt
	f.requests[requestID] = r

	return nil
}

func (f *fakeRequestRepo) ActiveDelegations(_ context.Context, _ string, _ time.Time) ([]mmodel.ApprovalDelegation, error) {
	return nil, nil
}

func (f *fakeRequestRepo) OverdueRequests(_ context.Context, _ time.Time) ([]mmodel.ApprovalRequest, error) {
	return nil, nil
}

type recordingHandler struct {
	called bool
}

func (h *recordingHandler) Handle(_ context.Context, _ string, _ string) error {
	h.called = true
	return nil
}

func newApprovalTestUseCase() (*command.UseCase, *fakeRequestRepo, *recordingHandler) {
	stages := []mmodel.PolicyStage{
		{StageNo: 1, MinApprovals: 1, Roles: []string{"MANAGER"}},
		{StageNo: 2, MinApprovals: 1, Roles: []string{"DIRECTOR"}},
	}

	bundle := command.PolicyBundle{
		Policy: mmodel.ApprovalPolicy{ID: "policy-1", State: mmodel.PolicyActive, Priority: 1, Version: 1},
		Bindings: []mmodel.PolicyBinding{
			{BindingType: mmodel.BindingApprovalType, BindingValueJSON: `"LARGE_PAYOUT"`},
		},
		Stages: stages,
	}

	requestRepo := &fakeRequestRepo{requests: map[string]mmodel.ApprovalRequest{}, decisions: map[string][]mmodel.ApprovalStageDecision{}}
	handler := &recordingHandler{}

	registry := command.ApprovalHandlerRegistry{}
	registry.Register("LARGE_PAYOUT", handler)

	uc := &command.UseCase{
		PolicyRepo:  &fakePolicyRepo{bundles: []command.PolicyBundle{bundle}, auto: map[string]command.PolicyBundle{}},
		RequestRepo: requestRepo,
		OutboxRepo:  &fakeOutboxRepo{},
		Handlers:    registry,
		Clock:       fixedClock{t: time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)},
	}

	return uc, requestRepo, handler
}

func TestApprovalServiceSubmitAndTwoStageDecide(t *testing.T) {
	t.Parallel()

	uc, _, handler := newApprovalTestUseCase()
	svc := &command.ApprovalService{UC: uc}

	request, err := svc.Submit(context.Background(), command.SubmitCommand{
		ApprovalType: "LARGE_PAYOUT",
		MakerStaffID: "maker-1",
		Payload:      map[string]any{"amount_minor": float64(1_500_000)},
	})
	require.NoError(t, err)
	require.Equal(t, mmodel.RequestPending, request.State)
	require.Equal(t, 1, request.CurrentStage)

	afterManager, err := svc.Decide(context.Background(), command.DecideCommand{
		RequestID:   request.ID,
		DeciderID:   "manager-1",
		DeciderRole: "MANAGER",
		Decision:    mmodel.DecisionApprove,
	})
	require.NoError(t, err)
	require.Equal(t, mmodel.RequestPending, afterManager.State)
	require.Equal(t, 2, afterManager.CurrentStage)
	require.False(t, handler.called)

	afterDirector, err := svc.Decide(context.Background(), command.DecideCommand{
		RequestID:   request.ID,
		DeciderID:   "director-1",
		DeciderRole: "DIRECTOR",
		Decision:    mmodel.DecisionApprove,
	})
	require.NoError(t, err)
	require.Equal(t, mmodel.RequestApproved, afterDirector.State)
	require.True(t, handler.called)
}

func TestApprovalServiceDecideRejectTerminates(t *testing.T) {
	t.Parallel()

	uc, _, _ := newApprovalTestUseCase()
	svc := &command.ApprovalService{UC: uc}

	request, err := svc.Submit(context.Background(), command.SubmitCommand{
		ApprovalType: "LARGE_PAYOUT",
		MakerStaffID: "maker-1",
		Payload:      map[string]any{},
	})
	require.NoError(t, err)

	decided, err := svc.Decide(context.Background(), command.DecideCommand{
		RequestID:   request.ID,
		DeciderID:   "manager-1",
		DeciderRole: "MANAGER",
		Decision:    mmodel.DecisionReject,
	})
	require.NoError(t, err)
	require.Equal(t, mmodel.RequestRejected, decided.State)
}

func TestApprovalServiceDecideRejectsAlreadyDecided(t *testing.T) {
	t.Parallel()

	uc, requestRepo, _ := newApprovalTestUseCase()
	svc := &command.ApprovalService{UC: uc}

	decidedAt := time.Now()
	requestRepo.requests["done"] = mmodel.ApprovalRequest{ID: "done", State: mmodel.RequestApproved, DecidedAt: &decidedAt}

	_, err := svc.Decide(context.Background(), command.DecideCommand{RequestID: "done", DeciderID: "x", DeciderRole: "MANAGER", Decision: mmodel.DecisionApprove})
	require.Error(t, err)
}
