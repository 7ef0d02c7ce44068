package posting_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fnyamweya/caricash-nova-sub001/internal/domain/posting"
	"github.com/fnyamweya/caricash-nova-sub001/pkg/mmodel"
)

func TestSignedDelta(t *testing.T) {
	t.Parallel()

	debitLine := mmodel.LedgerLine{EntryType: mmodel.EntryDebit, AmountMinor: 500}
	creditLine := mmodel.LedgerLine{EntryType: mmodel.EntryCredit, AmountMinor: 500}

	assert.Equal(t, int64(500), posting.SignedDelta(debitLine, mmodel.NormalDebit))
	assert.Equal(t, int64(-500), posting.SignedDelta(creditLine, mmodel.NormalDebit))
	assert.Equal(t, int64(500), posting.SignedDelta(creditLine, mmodel.NormalCredit))
	assert.Equal(t, int64(-500), posting.SignedDelta(debitLine, mmodel.NormalCredit))
}

func TestApplyDeltaRecomputesAvailable(t *testing.T) {
	t.Parallel()

	bal := mmodel.AccountBalance{ActualMinor: 1000, HoldMinor: 200, AvailableMinor: 800}
	got := posting.ApplyDelta(bal, -300)

	assert.Equal(t, int64(700), got.ActualMinor)
	assert.Equal(t, int64(500), got.AvailableMinor)
}

func TestWouldOverdraw(t *testing.T) {
	t.Parallel()

	bal := mmodel.AccountBalance{ActualMinor: 100, AvailableMinor: 100}
	assetNoNegative := mmodel.ChartOfAccountsEntry{Class: mmodel.ClassAsset, AllowNegative: false}
	suspenseAllowsNegative := mmodel.ChartOfAccountsEntry{Class: mmodel.ClassAsset, AllowNegative: true}

	assert.True(t, posting.WouldOverdraw(bal, -150, assetNoNegative))
	assert.False(t, posting.WouldOverdraw(bal, -150, suspenseAllowsNegative))
	assert.False(t, posting.WouldOverdraw(bal, -50, assetNoNegative))
}

func TestDeficit(t *testing.T) {
	t.Parallel()

	bal := mmodel.AccountBalance{ActualMinor: 100, AvailableMinor: 100}

	assert.Equal(t, int64(50), posting.Deficit(bal, -150))
	assert.Equal(t, int64(0), posting.Deficit(bal, -50))
}
