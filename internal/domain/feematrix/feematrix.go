// Package feematrix implements C5: resolving the fee and commission owed
// on a transaction against a versioned rule matrix, with half-to-even
// rounding at minor-unit precision.
package feematrix

import (
	"github.com/fnyamweya/caricash-nova-sub001/pkg/constant"
	"github.com/fnyamweya/caricash-nova-sub001/pkg/mmodel"
	"github.com/fnyamweya/caricash-nova-sub001/pkg/money"
)

// Line is one DR or CR leg Resolve produces for C2 to splice into the
// journal's entries.
type Line struct {
	AccountID string
	EntryType mmodel.EntryType
	AmountMinor int64
	Description string
}

// Splice is the full set of fee/commission lines and the matrix version
// ids that produced them, returned to C2 for balanced-journal expansion.
type Splice struct {
	FeeLines           []Line
	CommissionLines    []Line
	FeeVersionID        string
	CommissionVersionID string
}

// Resolve implements §4.5's algorithm: fee_minor = clamp(round_half_even(
// flat + amount*percent_bp/10000), min, max); tax_minor computed the same
// way against fee_minor; commission computed identically against an
// agent-typed rule and routed to the agent's COMMISSION account. Either
// rule may be absent — a nil feeRule or commissionRule skips that half of
// the splice and leaves the corresponding VersionID on the Splice empty.
func Resolve(
	amountMinor int64,
	payerAccountID string,
	feeRule *mmodel.FeeRule,
	commissionRule *mmodel.FeeRule,
) (*Splice, error) {
	splice := &Splice{}

	if feeRule != nil {
		lines, err := resolveRule(amountMinor, payerAccountID, *feeRule, "fee")
		if err != nil {
			return nil, err
		}

		splice.FeeLines = lines
		splice.FeeVersionID = feeRule.VersionID
	}

	if commissionRule != nil {
		lines, err := resolveRule(amountMinor, payerAccountID, *commissionRule, "commission")
		if err != nil {
			return nil, err
		}

		splice.CommissionLines = lines
		splice.CommissionVersionID = commissionRule.VersionID
	}

	return splice, nil
}

func resolveRule(amountMinor int64, payerAccountID string, rule mmodel.FeeRule, kind string) ([]Line, error) {
	if rule.FeeAccountID == "" || rule.RevenueAccountID == "" {
		return nil, constant.ErrFeeRuleNotFound
	}

	// flat_minor is already an integer minor-unit amount; folding it into
	// the numerator before rounding is equivalent to rounding only the
	// percent-of-amount fraction and adding flat_minor afterward, since
	// flat_minor*10000 is an exact multiple of the divisor.
	feeMinor := money.RoundHalfEven(rule.FlatMinor*10000+amountMinor*rule.PercentBP, 10000)
	feeMinor = money.Clamp(feeMinor, rule.MinMinor, rule.MaxMinor)

	taxMinor := money.RoundHalfEven(feeMinor*rule.TaxRateBP, 10000)

	lines := []Line{
		{AccountID: payerAccountID, EntryType: mmodel.EntryDebit, AmountMinor: feeMinor, Description: kind + " charge"},
		{AccountID: rule.RevenueAccountID, EntryType: mmodel.EntryCredit, AmountMinor: feeMinor - taxMinor, Description: kind + " revenue"},
	}

	if taxMinor > 0 {
		lines = append(lines, Line{AccountID: rule.FeeAccountID, EntryType: mmodel.EntryCredit, AmountMinor: taxMinor, Description: kind + " tax"})
	}

	return lines, nil
}
