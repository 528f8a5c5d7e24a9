package balance

import (
	"ledger/internal/core/types"
	"ledger/internal/domain/catalogs/accounts"
)

// Delta is the balance change a posting of netDebit/netCredit causes on acc.
func Delta(acc *accounts.Account, netDebit, netCredit types.MinorUnits) types.MinorUnits {
	return types.MinorUnits(acc.Direction()) * (netDebit - netCredit)
}

// ComputeFromHistory recomputes every balance bottom-up. A posting account's
// balance is direction * (debit - credit) of its posted lines; a control
// account's balance is the sum of its children's balances.
func ComputeFromHistory(chart *accounts.Chart, totals map[string]Totals) map[string]types.MinorUnits {
	out := make(map[string]types.MinorUnits, chart.Len())
	for _, code := range chart.PostOrder() {
		acc, _ := chart.Get(code)
		t := totals[code]
		bal := Delta(acc, t.Debit, t.Credit)
		for _, child := range chart.Children(code) {
			bal += out[child]
		}
		out[code] = bal
	}
	return out
}

// PropagateDelta applies a posting to code and the same signed delta to each
// ancestor, in place. It returns the delta applied.
func PropagateDelta(chart *accounts.Chart, balances map[string]types.MinorUnits, code string, netDebit, netCredit types.MinorUnits) types.MinorUnits {
	acc, ok := chart.Get(code)
	if !ok {
		return 0
	}
	delta := Delta(acc, netDebit, netCredit)
	if delta == 0 {
		return 0
	}
	balances[code] += delta
	for _, p := range chart.Ancestors(code) {
		balances[p] += delta
	}
	return delta
}

// Mismatch is a cached balance that disagrees with posted history.
type Mismatch struct {
	AccountCode string           `json:"accountCode"`
	Cached      types.MinorUnits `json:"cached"`
	Expected    types.MinorUnits `json:"expected"`
}

// Compare lists accounts whose cached balance differs from expected, in code order.
func Compare(chart *accounts.Chart, expected map[string]types.MinorUnits) []Mismatch {
	var out []Mismatch
	for _, code := range chart.Codes() {
		acc, _ := chart.Get(code)
		if acc.Balance != expected[code] {
			out = append(out, Mismatch{AccountCode: code, Cached: acc.Balance, Expected: expected[code]})
		}
	}
	return out
}
