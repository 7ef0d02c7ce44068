package posting_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fnyamweya/caricash-nova-sub001/internal/domain/posting"
	"github.com/fnyamweya/caricash-nova-sub001/pkg/mmodel"
)

func TestComputeHashDeterministic(t *testing.T) {
	t.Parallel()

	header := posting.JournalHeader{
		TxnType:       "P2P",
		Currency:      "KES",
		CorrelationID: "corr-1",
		EffectiveDate: "2026-07-31T00:00:00.000Z",
		Description:   "test transfer",
	}
	lines := []posting.CanonicalLine{
		{AccountID: "acct-1", EntryType: "DR", AmountMinor: 500, LineNumber: 1},
		{AccountID: "acct-2", EntryType: "CR", AmountMinor: 500, LineNumber: 2},
	}

	h1, err := posting.ComputeHash(posting.ZeroHash, header, lines)
	require.NoError(t, err)

	h2, err := posting.ComputeHash(posting.ZeroHash, header, lines)
	require.NoError(t, err)

	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64)
}

func TestComputeHashChangesWithPrevHash(t *testing.T) {
	t.Parallel()

	header := posting.JournalHeader{TxnType: "P2P", Currency: "KES"}
	lines := []posting.CanonicalLine{{AccountID: "a", EntryType: "DR", AmountMinor: 100, LineNumber: 1}}

	h1, err := posting.ComputeHash(posting.ZeroHash, header, lines)
	require.NoError(t, err)

	h2, err := posting.ComputeHash(h1, header, lines)
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2)
}

func TestHeaderFromAndLinesFrom(t *testing.T) {
	t.Parallel()

	journal := mmodel.LedgerJournal{
		TxnType:       "B2B",
		Currency:      "KES",
		CorrelationID: "corr-2",
		EffectiveDate: time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC),
		Description:   "store transfer",
	}
	lines := []mmodel.LedgerLine{
		{AccountID: "acct-1", EntryType: mmodel.EntryDebit, AmountMinor: 250, LineNumber: 1},
		{AccountID: "acct-2", EntryType: mmodel.EntryCredit, AmountMinor: 250, LineNumber: 2},
	}

	header := posting.HeaderFrom(journal)
	assert.Equal(t, "B2B", header.TxnType)
	assert.Equal(t, "2026-07-31T12:00:00.000Z", header.EffectiveDate)

	canon := posting.LinesFrom(lines)
	require.Len(t, canon, 2)
	assert.Equal(t, "DR", canon[0].EntryType)
	assert.Equal(t, int64(250), canon[1].AmountMinor)
}
