package command

import (
	"context"
	"fmt"
	"time"

	"github.com/fnyamweya/caricash-nova-sub001/pkg/constant"
	"github.com/fnyamweya/caricash-nova-sub001/pkg/mmodel"
)

// FeeRuleInput is one fee or commission rule row of a draft fee matrix
// version, per §6's POST /fee-matrix/versions.
type FeeRuleInput struct {
	TxnType          string
	AgentType        *string
	RuleKind         string
	FlatMinor        int64
	PercentBP        int64
	MinMinor         int64
	MaxMinor         int64
	TaxRateBP        int64
	FeeAccountID     string
	RevenueAccountID string
}

// CreateFeeMatrixDraftCommand is the input to FeeMatrixService.CreateDraft.
type CreateFeeMatrixDraftCommand struct {
	Currency      string
	EffectiveFrom *time.Time
	EffectiveTo   *time.Time
	Rules         []FeeRuleInput
}

// FeeMatrixService implements C5's maker-side draft-creation operation.
// Creating a draft is not itself approval-gated — only the later switch to
// ACTIVE is, via the FEE_MATRIX_ACTIVATION approval type and
// FeeMatrixActivationHandler.
type FeeMatrixService struct {
	UC *UseCase
}

// CreateDraft validates and inserts a new DRAFT FeeMatrixVersion together
// with its FEE and COMMISSION rule rows.
func (s *FeeMatrixService) CreateDraft(ctx context.Context, cmd CreateFeeMatrixDraftCommand) (*mmodel.FeeMatrixVersion, error) {
	if cmd.Currency == "" {
		return nil, fmt.Errorf("%w: currency", constant.ErrMissingRequiredField)
	}

	if len(cmd.Rules) == 0 {
		return nil, fmt.Errorf("%w: rules", constant.ErrMissingRequiredField)
	}

	rules := make([]mmodel.FeeRule, len(cmd.Rules))

	for i, r := range cmd.Rules {
		if r.RuleKind != "FEE" && r.RuleKind != "COMMISSION" {
			return nil, fmt.Errorf("%w: rule_kind %q", constant.ErrUnknownEnumValue, r.RuleKind)
		}

		rules[i] = mmodel.FeeRule{
			TxnType:          r.TxnType,
			AgentType:        r.AgentType,
			RuleKind:         r.RuleKind,
			FlatMinor:        r.FlatMinor,
			PercentBP:        r.PercentBP,
			MinMinor:         r.MinMinor,
			MaxMinor:         r.MaxMinor,
			TaxRateBP:        r.TaxRateBP,
			FeeAccountID:     r.FeeAccountID,
			RevenueAccountID: r.RevenueAccountID,
		}
	}

	now := s.UC.Clock.Now()

	effectiveFrom := now
	if cmd.EffectiveFrom != nil {
		effectiveFrom = *cmd.EffectiveFrom
	}

	version := mmodel.FeeMatrixVersion{
		ID:            newID(),
		Currency:      cmd.Currency,
		State:         mmodel.FeeMatrixDraft,
		EffectiveFrom: effectiveFrom,
		EffectiveTo:   cmd.EffectiveTo,
	}

	if err := s.UC.FeeMatrixRepo.CreateDraftVersion(ctx, version, rules); err != nil {
		return nil, err
	}

	event := mmodel.Event{
		ID:            newULID(),
		Name:          mmodel.EventFeeMatrixDraftCreated,
		EntityType:    "FeeMatrixVersion",
		EntityID:      version.ID,
		ActorType:     mmodel.ActorStaff,
		SchemaVersion: 1,
		CreatedAt:     now,
	}

	if err := s.UC.OutboxRepo.Insert(ctx, event); err != nil {
		return nil, err
	}

	return &version, nil
}
