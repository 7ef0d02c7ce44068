// Package posting implements the double-entry invariants and hash-chain
// mechanics of C2/C3: balanced-entry checking, signed balance deltas, and
// the per-currency tamper-evident journal chain. It holds no I/O — the
// surrounding service and adapter layers supply persistence and
// transactions.
package posting

import (
	"github.com/fnyamweya/caricash-nova-sub001/pkg/hashing"
	"github.com/fnyamweya/caricash-nova-sub001/pkg/mmodel"
)

// ZeroHash is the prev_hash of the first-ever journal in a currency's chain.
const ZeroHash = "0000000000000000000000000000000000000000000000000000000000000000"

// JournalHeader is the canonical subset of a LedgerJournal's fields hashed
// into the chain, stable regardless of struct field ordering.
type JournalHeader struct {
	TxnType       string `json:"txn_type"`
	Currency      string `json:"currency"`
	CorrelationID string `json:"correlation_id"`
	EffectiveDate string `json:"effective_date"`
	Description   string `json:"description"`
}

// CanonicalLine is the canonical subset of a LedgerLine hashed into the chain.
type CanonicalLine struct {
	AccountID   string `json:"account_id"`
	EntryType   string `json:"entry_type"`
	AmountMinor int64  `json:"amount_minor"`
	LineNumber  int    `json:"line_number"`
}

// ComputeHash derives the chain hash for a journal from the previous
// journal's hash in the same currency, the journal header, and its lines,
// per spec: hash = sha256(prev_hash || canonical(header) || canonical(lines)).
func ComputeHash(prevHash string, header JournalHeader, lines []CanonicalLine) (string, error) {
	headerCanon, err := hashing.Canonicalize(header)
	if err != nil {
		return "", err
	}

	linesCanon, err := hashing.Canonicalize(lines)
	if err != nil {
		return "", err
	}

	input := make([]byte, 0, len(prevHash)+len(headerCanon)+len(linesCanon))
	input = append(input, prevHash...)
	input = append(input, headerCanon...)
	input = append(input, linesCanon...)

	return hashing.SHA256Hex(input), nil
}

// LinesFrom converts domain LedgerLines into their canonical hash shape,
// in line_number order.
func LinesFrom(lines []mmodel.LedgerLine) []CanonicalLine {
	out := make([]CanonicalLine, len(lines))

	for i, l := range lines {
		out[i] = CanonicalLine{
			AccountID:   l.AccountID,
			EntryType:   string(l.EntryType),
			AmountMinor: l.AmountMinor,
			LineNumber:  l.LineNumber,
		}
	}

	return out
}

// HeaderFrom extracts the canonical header from a journal.
func HeaderFrom(j mmodel.LedgerJournal) JournalHeader {
	return JournalHeader{
		TxnType:       j.TxnType,
		Currency:      j.Currency,
		CorrelationID: j.CorrelationID,
		EffectiveDate: j.EffectiveDate.UTC().Format("2006-01-02T15:04:05.000Z"),
		Description:   j.Description,
	}
}

// MismatchError records a journal whose recomputed hash disagrees with its
// stored hash, as returned by a chain verification pass.
type MismatchError struct {
	JournalID string
	Expected  string
	Actual    string
}

func (e *MismatchError) Error() string {
	return "posting: chain hash mismatch at journal " + e.JournalID
}

// JournalWithLines pairs a journal with its lines, the unit VerifyChain
// recomputes hashes over.
type JournalWithLines struct {
	Journal mmodel.LedgerJournal
	Lines   []mmodel.LedgerLine
}

// VerifyChain recomputes the per-currency hash chain over journals, which
// the caller must supply ordered currency-then-created_at ascending. It
// propagates each journal's recomputed hash (not its stored hash) forward
// as the next journal's expected prev_hash, so tampering with one journal's
// amount cascades into a mismatch for every journal chained after it in the
// same currency, per §4.3's chaining guarantee.
func VerifyChain(journals []JournalWithLines) ([]MismatchError, error) {
	expected := make(map[string]string)

	var mismatches []MismatchError

	for _, jwl := range journals {
		j := jwl.Journal

		expectedPrev, seen := expected[j.Currency]
		if !seen {
			expectedPrev = ZeroHash
		}

		recomputed, err := ComputeHash(expectedPrev, HeaderFrom(j), LinesFrom(jwl.Lines))
		if err != nil {
			return nil, err
		}

		if j.PrevHash != expectedPrev || j.Hash != recomputed {
			mismatches = append(mismatches, MismatchError{JournalID: j.ID, Expected: recomputed, Actual: j.Hash})
		}

		expected[j.Currency] = recomputed
	}

	return mismatches, nil
}
