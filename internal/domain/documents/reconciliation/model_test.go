package reconciliation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger/internal/core/types"
	"ledger/internal/domain/catalogs/accounts"
)

func TestSession_Discrepancy(t *testing.T) {
	tests := []struct {
		name                                   string
		stmtOpen, stmtClose, intOpen, intClose types.MinorUnits
		want                                   types.MinorUnits
	}{
		{"matching movement", 1000, 1500, 0, 500, 0},
		{"unrecorded deposit", 0, 120000, 0, 100000, 20000},
		{"unrecorded fee", 0, 95000, 0, 100000, -5000},
		{"cash shortage", 500000, 450000, 500000, 500000, -50000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Session{
				StatementOpeningBalance: tt.stmtOpen,
				StatementClosingBalance: tt.stmtClose,
				InternalOpeningBalance:  tt.intOpen,
				InternalClosingBalance:  tt.intClose,
			}
			assert.Equal(t, tt.want, s.Discrepancy())
		})
	}
}

func TestAdjustmentLines(t *testing.T) {
	cash := &accounts.Account{Code: "11110", NormalBalance: accounts.Debit}
	payable := &accounts.Account{Code: "21000", NormalBalance: accounts.Credit}

	tests := []struct {
		name        string
		acc         *accounts.Account
		discrepancy types.MinorUnits
		wantDebit   string
		wantCredit  string
		wantType    DiscrepancyType
	}{
		{"debit-normal shortage", cash, -50000, "82300", "11110", UnrecordedCredit},
		{"debit-normal overage", cash, 50000, "11110", "82300", UnrecordedDebit},
		{"credit-normal increase", payable, 700, "82300", "21000", UnrecordedCredit},
		{"credit-normal decrease", payable, -700, "21000", "82300", UnrecordedDebit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines, kind := AdjustmentLines(tt.acc, "82300", tt.discrepancy, "adj")
			require.Len(t, lines, 2)
			assert.Equal(t, tt.wantType, kind)

			var dr, cr string
			var total types.MinorUnits
			for _, l := range lines {
				require.NoError(t, l.Validate())
				if l.Debit > 0 {
					dr = l.AccountCode
					total += l.Debit
				} else {
					cr = l.AccountCode
					total -= l.Credit
				}
			}
			assert.Equal(t, tt.wantDebit, dr)
			assert.Equal(t, tt.wantCredit, cr)
			assert.Zero(t, total)

			// The adjustment moves the reconciled account's balance by exactly the discrepancy.
			var delta types.MinorUnits
			for _, l := range lines {
				if l.AccountCode == tt.acc.Code {
					delta += types.MinorUnits(tt.acc.Direction()) * (l.Debit - l.Credit)
				}
			}
			assert.Equal(t, tt.discrepancy, delta)
		})
	}
}

func TestBeginInput_Validate(t *testing.T) {
	begin := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	end := begin.AddDate(0, 1, 0)

	ok := BeginInput{AccountCode: " 11120 ", StatementBeginTime: begin, StatementEndTime: end}
	require.NoError(t, ok.Validate())
	assert.Equal(t, "11120", ok.AccountCode)

	reversed := BeginInput{AccountCode: "11120", StatementBeginTime: end, StatementEndTime: begin}
	assert.Error(t, reversed.Validate())

	missing := BeginInput{StatementBeginTime: begin, StatementEndTime: end}
	assert.Error(t, missing.Validate())

	badItem := BeginInput{
		AccountCode:        "11120",
		StatementBeginTime: begin,
		StatementEndTime:   end,
		Items:              []StatementItem{{Description: "fee", Debit: 10, Credit: 10}},
	}
	assert.Error(t, badItem.Validate())
}

func TestProfiles(t *testing.T) {
	assert.Equal(t, accounts.TagReconciliationAdjustment, BankProfile.OffsetTag)
	assert.Equal(t, accounts.TagCashOverShort, CashCountProfile.OffsetTag)
	assert.Equal(t, accounts.TagInventoryGainShrinkage, StockTakingProfile.OffsetTag)
	assert.Equal(t, "Cash Count", CashCountProfile.SourceType)
	assert.Equal(t, "Stock Taking", StockTakingProfile.SourceType)
	assert.Equal(t, "Reconciliation", BankProfile.SourceType)
}
