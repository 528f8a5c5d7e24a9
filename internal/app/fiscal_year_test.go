package app

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger/internal/core/apperror"
	"ledger/internal/domain/catalogs/fiscal_year"
)

func year(y int) *fiscal_year.FiscalYear {
	name := fmt.Sprintf("FY%d", y)
	return &fiscal_year.FiscalYear{
		BeginTime: time.Date(y, 1, 1, 0, 0, 0, 0, time.UTC),
		EndTime:   time.Date(y+1, 1, 1, 0, 0, 0, 0, time.UTC),
		Name:      &name,
	}
}

func TestFiscalYear_CreateRejectsOverlap(t *testing.T) {
	l, ctx := newLedger(t)

	fy25 := year(2025)
	require.NoError(t, l.FiscalYears.Create(ctx, fy25))
	// Adjacent half-open periods do not overlap.
	require.NoError(t, l.FiscalYears.Create(ctx, year(2026)))

	overlap := &fiscal_year.FiscalYear{
		BeginTime: time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
	}
	err := l.FiscalYears.Create(ctx, overlap)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeConstraintViolation, appErr.Code)
	assert.Equal(t, "fiscal_year_overlap", appErr.Details["rule"])

	list, err := l.FiscalYears.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, fy25.ID, list[0].ID)

	got, err := l.FiscalYears.Containing(ctx, t0)
	require.NoError(t, err)
	assert.Equal(t, fy25.ID, got.ID)

	require.NoError(t, l.FiscalYears.Delete(ctx, fy25.ID))
	_, err = l.FiscalYears.Containing(ctx, t0)
	assert.True(t, apperror.IsNotFound(err))
	require.NoError(t, l.FiscalYears.Create(ctx, year(2025)))
}

func TestFiscalYear_NetChangeReport(t *testing.T) {
	l, ctx := newLedger(t)
	fy := year(2025)
	require.NoError(t, l.FiscalYears.Create(ctx, fy))

	l.fund(t, ctx, "11110", 100000, time.Date(2024, 12, 31, 12, 0, 0, 0, time.UTC))
	l.fund(t, ctx, "11110", 500000, t0)
	l.post(t, ctx, t0, debit("81000", 20000), credit("11110", 20000))
	l.post(t, ctx, t0, debit("11120", 30000), credit("41000", 30000))
	l.fund(t, ctx, "11120", 1, fy.EndTime)

	report, err := l.Reports.NetChange(ctx, fy.ID, nil)
	require.NoError(t, err)
	assert.True(t, report.BeginTime.Equal(fy.BeginTime))

	got := map[string]int64{}
	for _, r := range report.Rows {
		got[r.AccountCode] = int64(r.NetChange)
	}
	assert.Equal(t, map[string]int64{
		"10000": 510000,
		"20000": 0,
		"30000": 500000,
		"40000": 30000,
		"80000": 20000,
	}, got)

	report, err = l.Reports.NetChange(ctx, fy.ID, []string{"11110", " ", "81000"})
	require.NoError(t, err)
	require.Len(t, report.Rows, 2)
	assert.Equal(t, "11110", report.Rows[0].AccountCode)
	assert.EqualValues(t, 480000, report.Rows[0].NetChange)
	assert.EqualValues(t, 20000, report.Rows[1].NetChange)
}
