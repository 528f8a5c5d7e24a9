package balance

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"ledger/internal/core/apperror"
	"ledger/internal/core/tx"
	"ledger/internal/core/types"
	"ledger/internal/domain"
	"ledger/internal/domain/catalogs/accounts"
	"ledger/pkg/logger"
)

var tracer = otel.Tracer("ledger/balance")

// Net is the posted volume of one entry on one account.
type Net struct {
	Debit  types.MinorUnits
	Credit types.MinorUnits
}

// Accumulator maintains cached balances. It is called only by the journal
// posting pipeline; nothing else writes balances.
type Accumulator struct {
	repo  Repository
	chart ChartSource
	deps  domain.Deps
}

// NewAccumulator creates the accumulator.
func NewAccumulator(repo Repository, chart ChartSource, deps domain.Deps) *Accumulator {
	return &Accumulator{repo: repo, chart: chart, deps: deps}
}

// ApplyPostedLines adds an entry's net volume on one account to its balance
// and to every control account above it.
func (a *Accumulator) ApplyPostedLines(ctx context.Context, ref int64, code string, netDebit, netCredit types.MinorUnits) error {
	return a.ApplyEntry(ctx, ref, map[string]Net{code: {Debit: netDebit, Credit: netCredit}})
}

// ApplyEntry applies every account of a posted entry. All affected rows,
// ancestors included, are locked up front in code order so concurrent
// postings over shared control accounts cannot deadlock. Pairs already
// recorded for ref are skipped.
func (a *Accumulator) ApplyEntry(ctx context.Context, ref int64, nets map[string]Net) error {
	ctx, span := tracer.Start(ctx, "balance.ApplyEntry")
	defer span.End()
	span.SetAttributes(attribute.Int64("journal.ref", ref), attribute.Int("accounts", len(nets)))

	return a.deps.TxManager.RunInTransaction(ctx, func(ctx context.Context) error {
		codes := make([]string, 0, len(nets))
		for code := range nets {
			codes = append(codes, code)
		}
		sort.Strings(codes)

		chains := make(map[string][]string, len(codes))
		lockSet := make(map[string]struct{})
		for _, code := range codes {
			chain, err := a.repo.Ancestors(ctx, code)
			if err != nil {
				return fmt.Errorf("load control chain of %s: %w", code, err)
			}
			chains[code] = chain
			lockSet[code] = struct{}{}
			for _, p := range chain {
				lockSet[p] = struct{}{}
			}
		}
		toLock := make([]string, 0, len(lockSet))
		for code := range lockSet {
			toLock = append(toLock, code)
		}
		sort.Strings(toLock)

		locked, err := a.repo.LockAccounts(ctx, toLock)
		if err != nil {
			return fmt.Errorf("lock accounts: %w", err)
		}

		now := a.deps.Now()
		for _, code := range codes {
			acc, ok := locked[code]
			if !ok {
				return apperror.NewNotFound("account", code)
			}
			fresh, err := a.repo.MarkApplied(ctx, ref, code)
			if err != nil {
				return fmt.Errorf("record balance application: %w", err)
			}
			if !fresh {
				logger.Warn(ctx, "balance already applied, skipping", "ref", ref, "account", code)
				continue
			}
			n := nets[code]
			delta := Delta(acc, n.Debit, n.Credit)
			if delta == 0 {
				continue
			}
			if err := a.repo.AddToBalance(ctx, code, delta, now); err != nil {
				return fmt.Errorf("update balance of %s: %w", code, err)
			}
			for _, p := range chains[code] {
				if err := a.repo.AddToBalance(ctx, p, delta, now); err != nil {
					return fmt.Errorf("roll up balance into %s: %w", p, err)
				}
			}
		}
		return nil
	})
}

// Rollup recomputes a control account's subtree from posted history,
// bottom-up, writes the results and returns the control account's balance.
func (a *Accumulator) Rollup(ctx context.Context, controlCode string) (types.MinorUnits, error) {
	var result types.MinorUnits
	err := a.deps.TxManager.RunInTransaction(ctx, func(ctx context.Context) error {
		chart, err := a.chart.Chart(ctx)
		if err != nil {
			return err
		}
		if _, ok := chart.Get(controlCode); !ok {
			return apperror.NewNotFound("account", controlCode)
		}
		subtree := append([]string{controlCode}, chart.Descendants(controlCode)...)
		sort.Strings(subtree)
		if _, err := a.repo.LockAccounts(ctx, subtree); err != nil {
			return fmt.Errorf("lock subtree: %w", err)
		}
		totals, err := a.repo.PostedMovement(ctx, subtree, Window{})
		if err != nil {
			return err
		}
		expected := ComputeFromHistory(chart, totals)
		now := a.deps.Now()
		for _, code := range subtree {
			if err := a.repo.SetBalance(ctx, code, expected[code], now); err != nil {
				return fmt.Errorf("write rollup of %s: %w", code, err)
			}
		}
		result = expected[controlCode]
		return nil
	})
	return result, err
}

// Report is the outcome of a full balance verification.
type Report struct {
	CheckedAt  time.Time  `json:"checkedAt"`
	Accounts   int        `json:"accounts"`
	Mismatches []Mismatch `json:"mismatches"`
	Repaired   bool       `json:"repaired"`
}

// Verify recomputes every balance from posted history and reports accounts
// whose cached balance differs. Nothing is written. Cached balances and
// posted totals are read from one snapshot.
func (a *Accumulator) Verify(ctx context.Context) (*Report, error) {
	var (
		chart  *accounts.Chart
		totals map[string]Totals
	)
	err := a.snapshot(ctx, func(ctx context.Context) error {
		var err error
		if chart, err = a.chart.Chart(ctx); err != nil {
			return err
		}
		totals, err = a.repo.PostedTotals(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	mismatches := Compare(chart, ComputeFromHistory(chart, totals))
	if len(mismatches) > 0 {
		logger.Warn(ctx, "balance verification found mismatches", "count", len(mismatches))
	}
	return &Report{
		CheckedAt:  a.deps.Now(),
		Accounts:   chart.Len(),
		Mismatches: mismatches,
	}, nil
}

// snapshot runs fn in a read-only transaction when the manager offers one.
func (a *Accumulator) snapshot(ctx context.Context, fn func(ctx context.Context) error) error {
	if ro, ok := a.deps.TxManager.(tx.ReadOnlyManager); ok {
		return ro.ReadOnly(ctx, fn)
	}
	return a.deps.TxManager.RunInTransaction(ctx, fn)
}

// Recompute is Verify that also overwrites mismatched balances, holding
// locks on every account.
func (a *Accumulator) Recompute(ctx context.Context) (*Report, error) {
	var report *Report
	err := a.deps.TxManager.RunInTransaction(ctx, func(ctx context.Context) error {
		chart, err := a.chart.Chart(ctx)
		if err != nil {
			return err
		}
		locked, err := a.repo.LockAccounts(ctx, chart.Codes())
		if err != nil {
			return err
		}
		list := make([]accounts.Account, 0, len(locked))
		for _, acc := range locked {
			list = append(list, *acc)
		}
		chart = accounts.NewChart(list)

		totals, err := a.repo.PostedTotals(ctx)
		if err != nil {
			return err
		}
		mismatches := Compare(chart, ComputeFromHistory(chart, totals))
		now := a.deps.Now()
		for _, m := range mismatches {
			if err := a.repo.SetBalance(ctx, m.AccountCode, m.Expected, now); err != nil {
				return err
			}
		}
		report = &Report{CheckedAt: now, Accounts: chart.Len(), Mismatches: mismatches, Repaired: len(mismatches) > 0}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if report.Repaired {
		logger.Warn(ctx, "balances repaired from posted history", "count", len(report.Mismatches))
	}
	return report, nil
}

// NetMovement is the direction-adjusted posted movement of one account within w.
func (a *Accumulator) NetMovement(ctx context.Context, acc *accounts.Account, w Window) (types.MinorUnits, error) {
	movement, err := a.repo.PostedMovement(ctx, []string{acc.Code}, w)
	if err != nil {
		return 0, err
	}
	t := movement[acc.Code]
	return Delta(acc, t.Debit, t.Credit), nil
}

// FiscalYearNetChange sums direction-adjusted (debit - credit) of posted lines
// dated in [begin, end). A control account covers its whole subtree, each
// account adjusted by its own direction.
func (a *Accumulator) FiscalYearNetChange(ctx context.Context, code string, begin, end time.Time) (types.MinorUnits, error) {
	if !end.After(begin) {
		return 0, apperror.NewValidation("end must be after begin")
	}
	chart, err := a.chart.Chart(ctx)
	if err != nil {
		return 0, err
	}
	if _, ok := chart.Get(code); !ok {
		return 0, apperror.NewNotFound("account", code)
	}
	codes := append([]string{code}, chart.Descendants(code)...)
	movement, err := a.repo.PostedMovement(ctx, codes, Window{From: &begin, To: &end})
	if err != nil {
		return 0, err
	}
	var net types.MinorUnits
	for _, c := range codes {
		acc, _ := chart.Get(c)
		t := movement[c]
		net += Delta(acc, t.Debit, t.Credit)
	}
	return net, nil
}
