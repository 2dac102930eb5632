package repository

import (
	"context"
	"testing"

	"accrue/models"
	"accrue/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerEntryRepository_Record(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewLedgerEntryRepository(testDB.DB)
	ctx := context.Background()

	entry := testutil.CreateTestLedgerEntry("alice", models.EntryTypeMint)
	require.NoError(t, repo.Record(ctx, entry))

	assert.NotZero(t, entry.ID)
	assert.False(t, entry.CreatedAt.IsZero())
}

func TestLedgerEntryRepository_GetByAddress(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewLedgerEntryRepository(testDB.DB)
	ctx := context.Background()

	t.Run("no history", func(t *testing.T) {
		entries, err := repo.GetByAddress(ctx, "alice", 10)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("newest first with limit", func(t *testing.T) {
		for _, entryType := range []models.EntryType{
			models.EntryTypeMint,
			models.EntryTypeInterest,
			models.EntryTypeTransferOut,
		} {
			entry := testutil.CreateTestLedgerEntry("alice", entryType)
			require.NoError(t, repo.Record(ctx, entry))
		}
		// Another account's entries stay out of alice's history
		require.NoError(t, repo.Record(ctx, testutil.CreateTestLedgerEntry("bob", models.EntryTypeMint)))

		entries, err := repo.GetByAddress(ctx, "alice", 2)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, models.EntryTypeTransferOut, entries[0].EntryType)
		assert.Equal(t, models.EntryTypeInterest, entries[1].EntryType)
	})

	t.Run("round-trips amounts and metadata", func(t *testing.T) {
		entry := testutil.CreateTestLedgerEntry("carol", models.EntryTypeBurn)
		entry.Metadata = map[string]any{"burned_by": "vault"}
		require.NoError(t, repo.Record(ctx, entry))

		entries, err := repo.GetByAddress(ctx, "carol", 10)
		require.NoError(t, err)
		require.Len(t, entries, 1)

		got := entries[0]
		assert.Zero(t, got.PrincipalBefore.Cmp(entry.PrincipalBefore))
		assert.Zero(t, got.PrincipalAfter.Cmp(entry.PrincipalAfter))
		assert.Zero(t, got.ChangeAmount.Cmp(entry.ChangeAmount))
		assert.Equal(t, "vault", got.Metadata["burned_by"])
	})
}
