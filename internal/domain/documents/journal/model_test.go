package journal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger/internal/core/apperror"
	"ledger/internal/domain/registers/balance"
)

func TestJournalEntry_CheckBalanced(t *testing.T) {
	e := &JournalEntry{Ref: 7, Lines: []Line{
		{LineNumber: 1, AccountCode: "11110", Debit: 500},
		{LineNumber: 2, AccountCode: "31000", Credit: 300},
		{LineNumber: 3, AccountCode: "21000", Credit: 200},
	}}
	require.NoError(t, e.CheckBalanced())

	e.Lines[2].Credit = 100
	err := e.CheckBalanced()
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeUnbalancedEntry, appErr.Code)
	assert.EqualValues(t, 500, appErr.Details["debit"])
	assert.EqualValues(t, 400, appErr.Details["credit"])

	empty := &JournalEntry{Ref: 8}
	assert.True(t, apperror.HasCode(empty.CheckBalanced(), apperror.CodeUnbalancedEntry))
}

func TestJournalEntry_NetByAccount(t *testing.T) {
	e := &JournalEntry{Lines: []Line{
		{LineNumber: 1, AccountCode: "11110", Debit: 500},
		{LineNumber: 2, AccountCode: "11110", Credit: 200},
		{LineNumber: 4, AccountCode: "31000", Credit: 300},
	}}
	assert.Equal(t, map[string]balance.Net{
		"11110": {Debit: 500, Credit: 200},
		"31000": {Credit: 300},
	}, e.NetByAccount())
	assert.Equal(t, 5, e.NextLineNumber())
}

func TestLineInput_Validate(t *testing.T) {
	assert.NoError(t, LineInput{AccountCode: "1", Debit: 1}.Validate())
	assert.NoError(t, LineInput{AccountCode: "1", Credit: 1}.Validate())
	assert.Error(t, LineInput{AccountCode: "1"}.Validate())
	assert.Error(t, LineInput{AccountCode: "1", Debit: 1, Credit: 1}.Validate())
	assert.Error(t, LineInput{AccountCode: "1", Debit: -1}.Validate())
	assert.Error(t, LineInput{Debit: 1}.Validate())
}

func TestLineInput_Normalize(t *testing.T) {
	in := LineInput{AccountCode: " 11110\t", Debit: 1, Description: " cash "}
	require.NoError(t, in.Normalize())
	assert.Equal(t, "11110", in.AccountCode)
	assert.Equal(t, "cash", in.Description)

	blank := LineInput{AccountCode: "  ", Debit: 1}
	assert.Error(t, blank.Normalize())
}

func TestDraftInput_Normalize(t *testing.T) {
	in := DraftInput{EntryTime: time.Date(2025, 3, 1, 9, 0, 0, 123_456_789, time.UTC), Note: " n "}
	require.NoError(t, in.Normalize())
	assert.Equal(t, SourceManual, in.SourceType)
	assert.Equal(t, "n", in.Note)
	assert.Equal(t, 123_000_000, in.EntryTime.Nanosecond())

	assert.Error(t, (&DraftInput{}).Normalize())
}
