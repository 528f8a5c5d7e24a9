package catalog_repo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger/internal/domain/catalogs/accounts"
)

const accountSelect = "SELECT account_code, name, normal_balance, control_account_code, is_active, " +
	"is_posting_account, balance, create_time, update_time FROM accounts"

func TestAccountRepo_ListQuery(t *testing.T) {
	repo := NewAccountRepo(nil)
	parent := "11000"

	tests := []struct {
		name     string
		filter   accounts.Filter
		wantSQL  string
		wantArgs []any
	}{
		{
			name:    "all",
			filter:  accounts.Filter{},
			wantSQL: accountSelect + " ORDER BY account_code",
		},
		{
			name:     "children of control account",
			filter:   accounts.Filter{ControlAccountCode: &parent, ActiveOnly: true},
			wantSQL:  accountSelect + " WHERE control_account_code = $1 AND is_active = $2 ORDER BY account_code",
			wantArgs: []any{"11000", true},
		},
		{
			name:   "tag holders paged",
			filter: accounts.Filter{Tag: accounts.TagCashEquivalents, PostingOnly: true, Limit: 10, Offset: 20},
			wantSQL: accountSelect + " WHERE is_posting_account = $1 AND account_code IN " +
				"(SELECT account_code FROM account_tags WHERE tag = $2) ORDER BY account_code LIMIT 10 OFFSET 20",
			wantArgs: []any{true, accounts.TagCashEquivalents},
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

func TestAccountRow_RoundTrip(t *testing.T) {
	parent := "11100"
	acc := accounts.Account{
		Code:               "11110",
		Name:               "Cash on hand",
		NormalBalance:      accounts.Debit,
		ControlAccountCode: &parent,
		IsPostingAccount:   true,
		IsActive:           true,
		Balance:            -250,
	}
	row := toAccountRow(&acc)
	assert.Equal(t, int16(0), row.NormalBalance)

	back := row.toDomain()
	assert.Equal(t, acc.Code, back.Code)
	assert.Equal(t, "11100", back.Parent())
	assert.Equal(t, acc.Balance, back.Balance)
}
