package reports

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"ledger/internal/core/id"
	"ledger/internal/core/types"
	"ledger/internal/domain"
	"ledger/internal/domain/catalogs/accounts"
	"ledger/internal/domain/catalogs/fiscal_year"
	"ledger/internal/domain/documents/cash_count"
	"ledger/internal/domain/registers/balance"
)

// FiscalYears resolves fiscal year periods.
type FiscalYears interface {
	Get(ctx context.Context, fyID id.ID) (*fiscal_year.FiscalYear, error)
}

// Balances is the balance register surface reports read.
type Balances interface {
	FiscalYearNetChange(ctx context.Context, code string, begin, end time.Time) (types.MinorUnits, error)
	Verify(ctx context.Context) (*balance.Report, error)
}

// CashCounts reads the cash count history view.
type CashCounts interface {
	History(ctx context.Context, filter cash_count.Filter) (domain.ListResult[cash_count.HistoryEntry], error)
}

// Service provides report generation operations.
type Service struct {
	repo        Repository
	chart       balance.ChartSource
	fiscalYears FiscalYears
	balances    Balances
	cashCounts  CashCounts
}

// NewService creates a new reports service.
func NewService(repo Repository, chart balance.ChartSource, fy FiscalYears, balances Balances, cashCounts CashCounts) *Service {
	return &Service{repo: repo, chart: chart, fiscalYears: fy, balances: balances, cashCounts: cashCounts}
}

// TrialBalance lists every account with its balance. A nil asOf reads the
// cached balances; otherwise balances are recomputed from posted lines dated
// at or before asOf.
func (s *Service) TrialBalance(ctx context.Context, asOf *time.Time) (*TrialBalance, error) {
	chart, err := s.chart.Chart(ctx)
	if err != nil {
		return nil, fmt.Errorf("load chart: %w", err)
	}

	balances := make(map[string]types.MinorUnits, chart.Len())
	if asOf == nil {
		for _, code := range chart.Codes() {
			acc, _ := chart.Get(code)
			balances[code] = acc.Balance
		}
	} else {
		totals, err := s.repo.PostedTotalsAsOf(ctx, *asOf)
		if err != nil {
			return nil, fmt.Errorf("posted totals: %w", err)
		}
		balances = balance.ComputeFromHistory(chart, totals)
	}

	tb := &TrialBalance{AsOf: asOf, Rows: make([]TrialBalanceRow, 0, chart.Len())}
	for _, code := range chart.Codes() {
		acc, _ := chart.Get(code)
		row := TrialBalanceRow{
			AccountCode:        acc.Code,
			Name:               acc.Name,
			NormalBalance:      acc.NormalBalance,
			ControlAccountCode: acc.ControlAccountCode,
			IsPostingAccount:   !chart.IsControl(code),
			Depth:              len(chart.Ancestors(code)),
			Balance:            balances[code],
		}
		// A positive balance sits on the account's normal side.
		onDebit := (row.Balance >= 0) == (acc.NormalBalance == accounts.Debit)
		if onDebit {
			row.Debit = row.Balance.Abs()
		} else {
			row.Credit = row.Balance.Abs()
		}
		if row.IsPostingAccount {
			tb.TotalDebit += row.Debit
			tb.TotalCredit += row.Credit
		}
		tb.Rows = append(tb.Rows, row)
	}
	return tb, nil
}

// NetChange reports each account's net change over a fiscal year. An empty
// code list covers every top-level account.
func (s *Service) NetChange(ctx context.Context, fiscalYearID id.ID, accountCodes []string) (*NetChange, error) {
	fy, err := s.fiscalYears.Get(ctx, fiscalYearID)
	if err != nil {
		return nil, err
	}

	codes := make([]string, 0, len(accountCodes))
	for _, c := range accountCodes {
		if c = strings.TrimSpace(c); c != "" {
			codes = append(codes, c)
		}
	}
	if len(codes) == 0 {
		chart, err := s.chart.Chart(ctx)
		if err != nil {
			return nil, fmt.Errorf("load chart: %w", err)
		}
		for _, code := range chart.Codes() {
			acc, _ := chart.Get(code)
			if acc.Parent() == "" {
				codes = append(codes, code)
			}
		}
	}
	sort.Strings(codes)

	out := &NetChange{FiscalYearID: fy.ID, BeginTime: fy.BeginTime, EndTime: fy.EndTime, Rows: make([]NetChangeRow, 0, len(codes))}
	for _, code := range codes {
		net, err := s.balances.FiscalYearNetChange(ctx, code, fy.BeginTime, fy.EndTime)
		if err != nil {
			return nil, err
		}
		out.Rows = append(out.Rows, NetChangeRow{AccountCode: code, NetChange: net})
	}
	return out, nil
}

// CashCountHistory returns cash counts joined with their reconciliation results.
func (s *Service) CashCountHistory(ctx context.Context, filter cash_count.Filter) (domain.ListResult[cash_count.HistoryEntry], error) {
	return s.cashCounts.History(ctx, filter)
}

// BalanceVerification recomputes every balance from posted history and lists
// the accounts whose cached balance disagrees.
func (s *Service) BalanceVerification(ctx context.Context) (*balance.Report, error) {
	return s.balances.Verify(ctx)
}
