package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger/internal/core/apperror"
	"ledger/internal/domain"
	"ledger/internal/domain/catalogs/accounts"
	"ledger/internal/domain/documents/journal"
)

func newAccount(code string) *accounts.Account {
	return &accounts.Account{Code: code, Name: "Account " + code, NormalBalance: accounts.Debit, IsActive: true, IsPostingAccount: true}
}

func TestStore_RollbackOnError(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	require.NoError(t, s.Accounts().Create(ctx, newAccount("10000")))

	boom := errors.New("boom")
	err := s.RunInTransaction(ctx, func(ctx context.Context) error {
		require.NoError(t, s.Accounts().Create(ctx, newAccount("20000")))
		require.NoError(t, s.Balances().AddToBalance(ctx, "10000", 500, time.Now()))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = s.Accounts().GetByCode(ctx, "20000")
	assert.True(t, apperror.IsNotFound(err))
	acc, err := s.Accounts().GetByCode(ctx, "10000")
	require.NoError(t, err)
	assert.Zero(t, acc.Balance)
}

func TestStore_RollbackOnPanic(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	err := s.RunInTransaction(ctx, func(ctx context.Context) error {
		require.NoError(t, s.Accounts().Create(ctx, newAccount("10000")))
		panic("kaboom")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kaboom")

	all, err := s.Accounts().All(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestStore_NestedTransactionJoinsOuter(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	err := s.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.RunInTransaction(ctx, func(ctx context.Context) error {
			return s.Accounts().Create(ctx, newAccount("10000"))
		}); err != nil {
			return err
		}
		return s.Publish(ctx, domain.DomainEvent{AggregateType: domain.AggregateAccount, AggregateID: "10000", EventType: "account.created"})
	})
	require.NoError(t, err)

	_, err = s.Accounts().GetByCode(ctx, "10000")
	assert.NoError(t, err)
	require.Len(t, s.Events(), 1)
	assert.Equal(t, "account.created", s.Events()[0].EventType)
}

func TestStore_CancelledContextRollsBack(t *testing.T) {
	s := NewStore()
	ctx, cancel := context.WithCancel(context.Background())

	err := s.RunInTransaction(ctx, func(txCtx context.Context) error {
		require.NoError(t, s.Accounts().Create(txCtx, newAccount("10000")))
		cancel()
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)

	_, err = s.Accounts().GetByCode(context.Background(), "10000")
	assert.True(t, apperror.IsNotFound(err))
}

func TestJournalRepo_RefsAndLines(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	require.NoError(t, s.Accounts().Create(ctx, newAccount("10000")))

	e1 := &journal.JournalEntry{EntryTime: time.Now(), SourceType: journal.SourceManual}
	e2 := &journal.JournalEntry{EntryTime: time.Now(), SourceType: journal.SourceManual}
	require.NoError(t, s.Journal().Create(ctx, e1))
	require.NoError(t, s.Journal().Create(ctx, e2))
	assert.Equal(t, e1.Ref+1, e2.Ref)

	err := s.Journal().InsertLines(ctx, []journal.Line{{JournalEntryRef: e1.Ref, LineNumber: 1, AccountCode: "99999", Debit: 1}})
	require.Error(t, err)

	require.NoError(t, s.Journal().InsertLines(ctx, []journal.Line{
		{JournalEntryRef: e1.Ref, LineNumber: 2, AccountCode: "10000", Credit: 1},
		{JournalEntryRef: e1.Ref, LineNumber: 1, AccountCode: "10000", Debit: 1},
	}))
	got, err := s.Journal().Get(ctx, e1.Ref)
	require.NoError(t, err)
	require.Len(t, got.Lines, 2)
	assert.Equal(t, 1, got.Lines[0].LineNumber)

	has, err := s.Accounts().HasLines(ctx, "10000")
	require.NoError(t, err)
	assert.True(t, has)
}
