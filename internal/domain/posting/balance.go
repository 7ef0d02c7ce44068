package posting

import "github.com/fnyamweya/caricash-nova-sub001/pkg/mmodel"

// SignedDelta returns the signed change to ActualMinor a single line
// applies, given the account's chart-of-accounts normal balance. A line
// on its normal-balance side increases Actual; a line on the opposite
// side decreases it — this is what lets asset/expense debits and
// liability/equity/revenue credits both read as "increases".
func SignedDelta(line mmodel.LedgerLine, normal mmodel.NormalBalance) int64 {
	sameSide := (line.EntryType == mmodel.EntryDebit && normal == mmodel.NormalDebit) ||
		(line.EntryType == mmodel.EntryCredit && normal == mmodel.NormalCredit)

	if sameSide {
		return line.AmountMinor
	}

	return -line.AmountMinor
}

// ApplyDelta returns the balance that results from adding delta to bal's
// actual, recomputing available as actual - hold.
func ApplyDelta(bal mmodel.AccountBalance, delta int64) mmodel.AccountBalance {
	bal.ActualMinor += delta
	bal.AvailableMinor = bal.ActualMinor - bal.HoldMinor

	return bal
}

// WouldOverdraw reports whether applying delta to bal would leave
// AvailableMinor negative, for an account whose chart-of-accounts entry
// forbids negative balances. Accounts that allow negative balances (e.g.
// SUSPENSE) never trigger this check.
func WouldOverdraw(bal mmodel.AccountBalance, delta int64, coa mmodel.ChartOfAccountsEntry) bool {
	if coa.AllowNegative {
		return false
	}

	projected := ApplyDelta(bal, delta)

	return projected.AvailableMinor < 0
}

// Deficit returns the magnitude by which the projected available balance
// would go negative; zero if it would not.
func Deficit(bal mmodel.AccountBalance, delta int64) int64 {
	projected := ApplyDelta(bal, delta)
	if projected.AvailableMinor >= 0 {
		return 0
	}

	return -projected.AvailableMinor
}
