package register_repo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger/internal/domain/registers/balance"
)

const totalsSelect = "SELECT l.account_code, COALESCE(SUM(l.debit), 0) AS debit, COALESCE(SUM(l.credit), 0) AS credit" +
	" FROM journal_entry_lines l JOIN journal_entries e ON e.ref = l.journal_entry_ref WHERE e.post_time IS NOT NULL"

func TestPostedTotalsQuery(t *testing.T) {
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		codes    []string
		window   balance.Window
		wantSQL  string
		wantArgs []any
	}{
		{
			name:    "whole history",
			wantSQL: totalsSelect + " GROUP BY l.account_code",
		},
		{
			name:   "period movement",
			codes:  []string{"11110", "40000"},
			window: balance.Window{From: &from, To: &to},
			wantSQL: totalsSelect + " AND l.account_code IN ($1,$2) AND e.entry_time >= $3 AND e.entry_time < $4" +
				" GROUP BY l.account_code",
			wantArgs: []any{"11110", "40000", from.UnixMilli(), to.UnixMilli()},
		},
		{
			name:     "as of, inclusive",
			window:   balance.Window{To: &to, ToInclusive: true},
			wantSQL:  totalsSelect + " AND e.entry_time <= $1 GROUP BY l.account_code",
			wantArgs: []any{to.UnixMilli()},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args, err := postedTotalsQuery(tt.codes, tt.window).ToSql()
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, sql)
			if tt.wantArgs == nil {
				assert.Empty(t, args)
			} else {
				assert.Equal(t, tt.wantArgs, args)
			}
		})
	}
}
