package document_repo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger/internal/domain/documents/cash_count"
	"ledger/internal/domain/documents/journal"
)

const journalSelect = "SELECT ref, entry_time, note, source_type, source_reference, created_by, post_time FROM journal_entries"

func TestJournalRepo_ListQuery(t *testing.T) {
	repo := NewJournalRepo(nil)
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	posted := journal.StatusPosted
	draft := journal.StatusDraft

	tests := []struct {
		name     string
		filter   journal.Filter
		wantSQL  string
		wantArgs []any
	}{
		{
			name:    "no filter",
			wantSQL: journalSelect,
		},
		{
			name:    "posted only",
			filter:  journal.Filter{Status: &posted},
			wantSQL: journalSelect + " WHERE post_time IS NOT NULL",
		},
		{
			name:    "drafts only",
			filter:  journal.Filter{Status: &draft},
			wantSQL: journalSelect + " WHERE post_time IS NULL",
		},
		{
			name:   "window and account",
			filter: journal.Filter{From: &from, To: &to, AccountCode: "11110", SourceType: "reconciliation"},
			wantSQL: journalSelect + " WHERE source_type = $1 AND entry_time >= $2 AND entry_time < $3" +
				" AND ref IN (SELECT journal_entry_ref FROM journal_entry_lines WHERE account_code = $4)",
			wantArgs: []any{"reconciliation", from.UnixMilli(), to.UnixMilli(), "11110"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args, err := repo.listQuery(tt.filter).ToSql()
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

func TestHistoryQuery(t *testing.T) {
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	sql, args, err := historyQuery(cash_count.Filter{
		AccountCode:     "11110",
		From:            &from,
		DiscrepancyType: cash_count.Shortage,
	}).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "FROM cash_count_history")
	assert.Contains(t, sql, "internal_balance, discrepancy, discrepancy_type, adjustment_journal_entry_ref")
	assert.Contains(t, sql, "WHERE account_code = $1 AND count_time >= $2 AND discrepancy_type = $3")
	assert.Equal(t, []any{"11110", from.UnixMilli(), "shortage"}, args)
}

func TestLineError(t *testing.T) {
	line := &journal.Line{JournalEntryRef: 7, LineNumber: 2, AccountCode: "11110"}
	plain := assert.AnError
	assert.Same(t, plain, lineError(plain, line))
}
