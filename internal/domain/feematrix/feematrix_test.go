package feematrix_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fnyamweya/caricash-nova-sub001/internal/domain/feematrix"
	"github.com/fnyamweya/caricash-nova-sub001/pkg/mmodel"
)

func TestResolveFlatAndPercentFee(t *testing.T) {
	t.Parallel()

	rule := mmodel.FeeRule{
		VersionID:        "fv-1",
		FlatMinor:        10,
		PercentBP:        100, // 1%
		MinMinor:         0,
		MaxMinor:         100000,
		TaxRateBP:        0,
		FeeAccountID:     "fee-acct",
		RevenueAccountID: "rev-acct",
	}

	splice, err := feematrix.Resolve(10000, "payer-acct", &rule, nil)
	require.NoError(t, err)
	require.Len(t, splice.FeeLines, 2)

	total := int64(0)
	for _, l := range splice.FeeLines {
		if l.EntryType == mmodel.EntryDebit {
			total = l.AmountMinor
		}
	}

	assert.Equal(t, int64(110), total) // 10 flat + 1% of 10000 = 100
	assert.Equal(t, "fv-1", splice.FeeVersionID)
	assert.Empty(t, splice.CommissionLines)
}

func TestResolveClampsToMax(t *testing.T) {
	t.Parallel()

	rule := mmodel.FeeRule{
		FlatMinor:        0,
		PercentBP:        5000, // 50%
		MinMinor:         0,
		MaxMinor:         200,
		FeeAccountID:     "fee-acct",
		RevenueAccountID: "rev-acct",
	}

	splice, err := feematrix.Resolve(100000, "payer-acct", &rule, nil)
	require.NoError(t, err)

	for _, l := range splice.FeeLines {
		if l.EntryType == mmodel.EntryDebit {
			assert.Equal(t, int64(200), l.AmountMinor)
		}
	}
}

func TestResolveIncludesTaxLineWhenPositive(t *testing.T) {
	t.Parallel()

	rule := mmodel.FeeRule{
		FlatMinor:        100,
		PercentBP:        0,
		MinMinor:         0,
		MaxMinor:         100000,
		TaxRateBP:        1600, // 16%
		FeeAccountID:     "fee-acct",
		RevenueAccountID: "rev-acct",
	}

	splice, err := feematrix.Resolve(0, "payer-acct", &rule, nil)
	require.NoError(t, err)
	require.Len(t, splice.FeeLines, 3)
}

func TestResolveBothFeeAndCommission(t *testing.T) {
	t.Parallel()

	feeRule := mmodel.FeeRule{FlatMinor: 10, FeeAccountID: "fee-acct", RevenueAccountID: "rev-acct"}
	commissionRule := mmodel.FeeRule{FlatMinor: 5, FeeAccountID: "comm-tax-acct", RevenueAccountID: "agent-comm-acct"}

	splice, err := feematrix.Resolve(1000, "payer-acct", &feeRule, &commissionRule)
	require.NoError(t, err)
	assert.NotEmpty(t, splice.FeeLines)
	assert.NotEmpty(t, splice.CommissionLines)
}

func TestResolveMissingRuleErrors(t *testing.T) {
	t.Parallel()

	incomplete := mmodel.FeeRule{}

	_, err := feematrix.Resolve(1000, "payer-acct", &incomplete, nil)
	require.Error(t, err)
}
