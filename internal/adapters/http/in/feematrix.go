package in

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/fnyamweya/caricash-nova-sub001/internal/services/command"
	"github.com/fnyamweya/caricash-nova-sub001/pkg/constant"
	"github.com/fnyamweya/caricash-nova-sub001/pkg/mhttp"
)

// FeeMatrixHandler serves POST /fee-matrix/versions, the maker-side
// operation that drafts a new fee matrix version. Promoting a draft to
// ACTIVE is a separate, approval-gated step (FEE_MATRIX_ACTIVATION).
type FeeMatrixHandler struct {
	FeeMatrix *command.FeeMatrixService
}

// FeeRuleRequest is one rule row of a CreateFeeMatrixVersionRequest.
type FeeRuleRequest struct {
	TxnType          string  `json:"txn_type" validate:"required"`
	AgentType        *string `json:"agent_type"`
	RuleKind         string  `json:"rule_kind" validate:"required,oneof=FEE COMMISSION"`
	FlatMinor        int64   `json:"flat_minor"`
	PercentBP        int64   `json:"percent_bp"`
	MinMinor         int64   `json:"min_minor"`
	MaxMinor         int64   `json:"max_minor"`
	TaxRateBP        int64   `json:"tax_rate_bp"`
	FeeAccountID     string  `json:"fee_account_id" validate:"required"`
	RevenueAccountID string  `json:"revenue_account_id" validate:"required"`
}

// CreateFeeMatrixVersionRequest is the body of POST /fee-matrix/versions.
type CreateFeeMatrixVersionRequest struct {
	Currency      string           `json:"currency" validate:"required,len=3"`
	EffectiveFrom *string          `json:"effective_from"`
	EffectiveTo   *string          `json:"effective_to"`
	Rules         []FeeRuleRequest `json:"rules" validate:"required,min=1,dive"`
}

// CreateVersion handles POST /fee-matrix/versions.
func (h *FeeMatrixHandler) CreateVersion(c *fiber.Ctx) error {
	return mhttp.WithBody(&CreateFeeMatrixVersionRequest{}, func(payload any, c *fiber.Ctx) error {
		req := payload.(*CreateFeeMatrixVersionRequest)

		effectiveFrom, err := parseOptionalTime(req.EffectiveFrom)
		if err != nil {
			return mhttp.WithError(c, err)
		}

		effectiveTo, err := parseOptionalTime(req.EffectiveTo)
		if err != nil {
			return mhttp.WithError(c, err)
		}

		rules := make([]command.FeeRuleInput, len(req.Rules))
		for i, r := range req.Rules {
			rules[i] = command.FeeRuleInput{
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

		version, err := h.FeeMatrix.CreateDraft(c.UserContext(), command.CreateFeeMatrixDraftCommand{
			Currency:      req.Currency,
			EffectiveFrom: effectiveFrom,
			EffectiveTo:   effectiveTo,
			Rules:         rules,
		})
		if err != nil {
			return mhttp.WithError(c, err)
		}

		return c.Status(fiber.StatusCreated).JSON(version)
	})(c)
}

func parseOptionalTime(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}

	t, err := time.Parse(time.RFC3339, *s)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", constant.ErrInvalidTimestamp, *s)
	}

	return &t, nil
}
