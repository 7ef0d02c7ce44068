package command

import (
	"context"
	"time"

	"github.com/fnyamweya/caricash-nova-sub001/internal/domain/approval"
	"github.com/fnyamweya/caricash-nova-sub001/pkg/mmodel"
)

// SweepService periodically transitions overdue PENDING approval requests
// to EXPIRED or ESCALATED, the way the handler's APPROVAL_SWEEPER_INTERVAL_SECONDS
// loop runs it at bootstrap (§5's concurrency model).
type SweepService struct {
	UC *UseCase
}

// SweepResult tallies what one sweep pass did, for logging.
type SweepResult struct {
	Scanned   int
	Expired   int
	Escalated int
}

// Sweep scans every PENDING request and, for each whose current stage
// timeout or policy escalation window has elapsed, transitions it and
// emits an outbox event. A request with an elapsed stage timeout but no
// escalation window is marked EXPIRED; one with an elapsed escalation
// window is marked ESCALATED, taking precedence once both have elapsed.
func (s *SweepService) Sweep(ctx context.Context) (SweepResult, error) {
	now := s.UC.Clock.Now()

	requests, err := s.UC.RequestRepo.OverdueRequests(ctx, now)
	if err != nil {
		return SweepResult{}, err
	}

	result := SweepResult{Scanned: len(requests)}

	for _, req := range requests {
		if req.PolicyID == nil {
			continue
		}

		bundle, err := s.UC.PolicyRepo.FindByID(ctx, *req.PolicyID)
		if err != nil {
			return result, err
		}

		if bundle == nil {
			continue
		}

		stage, ok := findStage(bundle.Stages, req.CurrentStage)
		if !ok {
			continue
		}

		newState, fired := s.nextState(req, stage, bundle.Policy, now)
		if !fired {
			continue
		}

		if err := s.UC.RequestRepo.UpdateState(ctx, req.ID, newState, req.CurrentStage, &now); err != nil {
			return result, err
		}

		event := mmodel.Event{
			ID:            newULID(),
			Name:          sweepEventName(newState),
			EntityType:    "ApprovalRequest",
			EntityID:      req.ID,
			ActorType:     mmodel.ActorSystem,
			SchemaVersion: 1,
			CreatedAt:     now,
		}

		if err := s.UC.OutboxRepo.Insert(ctx, event); err != nil {
			return result, err
		}

		if newState == mmodel.RequestExpired {
			result.Expired++
		} else {
			result.Escalated++
		}
	}

	return result, nil
}

func (s *SweepService) nextState(req mmodel.ApprovalRequest, stage mmodel.PolicyStage, policy mmodel.ApprovalPolicy, now time.Time) (mmodel.RequestState, bool) {
	escalation := approval.EscalationDeadline(req, policy)
	if escalation != nil && !now.Before(*escalation) {
		return mmodel.RequestEscalated, true
	}

	timeout := approval.TimeoutDeadline(req, stage)
	if timeout != nil && !now.Before(*timeout) {
		return mmodel.RequestExpired, true
	}

	return "", false
}

func sweepEventName(state mmodel.RequestState) string {
	if state == mmodel.RequestEscalated {
		return "APPROVAL_ESCALATED"
	}

	return "APPROVAL_EXPIRED"
}
