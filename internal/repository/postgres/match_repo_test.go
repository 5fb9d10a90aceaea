package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mkells/robot-orchestra/internal/domain"
	"github.com/mkells/robot-orchestra/internal/repository/postgres"
	"github.com/mkells/robot-orchestra/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	testDB := testutil.NewTestDB(t)
	repo := postgres.NewMatchRepository(testDB.DB)
	ctx := context.Background()

	t.Run("create and get by ID", func(t *testing.T) {
		testDB.Truncate(t)

		m := testutil.NewMatchBuilder().WithInviteCode("AAAA11").Build()
		require.NoError(t, repo.Create(ctx, m))

		got, err := repo.GetByID(ctx, m.ID)
		require.NoError(t, err)
		assert.Equal(t, m.ID, got.ID)
		assert.Equal(t, "AAAA11", got.InviteCode)
		assert.Equal(t, domain.MatchStatusRoundActive, got.Status)
		require.Len(t, got.Participants, 4)
		require.Len(t, got.Rounds, 1)
		assert.Equal(t, 1, got.Rounds[0].RoundNumber)
	})

	t.Run("get by invite code", func(t *testing.T) {
		testDB.Truncate(t)

		m := testutil.NewMatchBuilder().WithInviteCode("BBBB22").Build()
		require.NoError(t, repo.Create(ctx, m))

		got, err := repo.GetByInviteCode(ctx, "BBBB22")
		require.NoError(t, err)
		assert.Equal(t, m.ID, got.ID)
	})

	t.Run("not found", func(t *testing.T) {
		testDB.Truncate(t)

		_, err := repo.GetByID(ctx, uuid.New())
		assert.ErrorIs(t, err, domain.ErrMatchNotFound)

		_, err = repo.GetByInviteCode(ctx, "ZZZZ99")
		assert.ErrorIs(t, err, domain.ErrMatchNotFound)
	})

	t.Run("update round trips jsonb state", func(t *testing.T) {
		testDB.Truncate(t)

		m := testutil.NewMatchBuilder().Build()
		require.NoError(t, repo.Create(ctx, m))

		require.NoError(t, m.RecordResponse(1, "A", "stored answer"))
		m.Status = domain.MatchStatusRoundVoting
		require.NoError(t, repo.Update(ctx, m))

		got, err := repo.GetByID(ctx, m.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.MatchStatusRoundVoting, got.Status)
		require.Len(t, got.Rounds, 1)
		assert.Equal(t, "stored answer", got.Rounds[0].Responses["A"])
	})

	t.Run("list paginates newest first", func(t *testing.T) {
		testDB.Truncate(t)

		for i := 0; i < 3; i++ {
			m := testutil.NewMatchBuilder().Completed().Build()
			m.CreatedAt = time.Now().Add(time.Duration(i) * time.Minute)
			require.NoError(t, repo.Create(ctx, m))
		}

		page, err := repo.List(ctx, 2, 0)
		require.NoError(t, err)
		require.Len(t, page, 2)
		assert.True(t, page[0].CreatedAt.After(page[1].CreatedAt))

		rest, err := repo.List(ctx, 2, 2)
		require.NoError(t, err)
		assert.Len(t, rest, 1)
	})
}
