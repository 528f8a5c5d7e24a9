package accounts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger/internal/core/apperror"
)

func TestRuleEvaluator_Eligible(t *testing.T) {
	rules, err := NewRuleEvaluator()
	require.NoError(t, err)

	cash := acct("11110", Debit, "11100")
	capital := acct("31000", Credit, "30000")

	tests := []struct {
		name string
		expr string
		acc  Account
		tags []string
		want bool
	}{
		{"empty rule admits", "", capital, nil, true},
		{"debit normal", `account.normal_balance == "debit"`, cash, nil, true},
		{"credit rejected", `account.normal_balance == "debit"`, capital, nil, false},
		{"parent prefix", `account.control_account_code.startsWith("111")`, cash, nil, true},
		{"posting and active", `account.is_posting && account.is_active`, cash, nil, true},
		{"existing tag", `"Petty" in account.tags`, cash, []string{"Petty"}, true},
		{"missing tag", `!("Petty" in account.tags)`, cash, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := rules.Eligible(tt.expr, &tt.acc, tt.tags)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestRuleEvaluator_RejectsBadRules(t *testing.T) {
	rules, err := NewRuleEvaluator()
	require.NoError(t, err)

	_, err = rules.Compile(`account.code ==`)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	_, err = rules.Compile(`1 + 2`)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	cash := acct("11110", Debit, "")
	_, err = rules.Eligible(`account.code`, &cash, nil)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestRuleEvaluator_CachesPrograms(t *testing.T) {
	rules, err := NewRuleEvaluator()
	require.NoError(t, err)

	p1, err := rules.Compile(`account.is_active`)
	require.NoError(t, err)
	p2, err := rules.Compile(`account.is_active`)
	require.NoError(t, err)
	assert.Equal(t, p1, p2)
}
