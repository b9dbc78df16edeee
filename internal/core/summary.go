package core

const (
	BalanceNegative BalanceState = "negative"
	BalanceLow      BalanceState = "low"
	BalanceNormal   BalanceState = "normal"
)

// BalanceState classifies the current balance against total income, used for
// the low-balance warning.
type BalanceState string

// DebtSummary is the aggregate view over all tracked debts. TotalAmount sums
// the full face value of every debt, not the remaining balance.
type DebtSummary struct {
	Count           int
	TotalAmount     Money
	SettledCount    int
	AverageProgress int // rounded mean of per-debt progress, 0 when empty
}

// LedgerTotals is the aggregate view over the income/expense ledger.
type LedgerTotals struct {
	IncomeTotal  Money
	ExpenseTotal Money
	Balance      Money
}

// ClassifyBalance applies the low-balance rule: non-positive balances are
// negative, balances strictly under 20% of total income are low. A balance
// exactly at the threshold is normal.
func ClassifyBalance(t LedgerTotals) BalanceState {
	if t.Balance.Cents <= 0 {
		return BalanceNegative
	}
	if t.Balance.Cents*5 < t.IncomeTotal.Cents {
		return BalanceLow
	}
	return BalanceNormal
}
