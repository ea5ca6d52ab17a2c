package server

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"bridge-server/internal/bridge"
	"bridge-server/internal/game"
)

// newTestHistoryStore starts a throwaway Postgres and returns a migrated
// store. Skipped with -short or without a container runtime.
func newTestHistoryStore(t *testing.T) *HistoryStore {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("bridge"),
		postgres.WithUsername("bridge"),
		postgres.WithPassword("bridge"),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	store, err := NewHistoryStore(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(store.Close)
	return store
}

func sampleResult(room string, finished time.Time) bridge.DealResult {
	return bridge.DealResult{
		RoomCode:       room,
		Contract:       bridge.Bet{Contract: 2, Suit: game.Hearts, Order: 1},
		PartnerCard:    game.Card{Value: game.Ace, Suit: game.Spades},
		DeclarerTricks: 8,
		DefenderTricks: 5,
		WinningTeam:    bridge.TeamDeclarers,
		WinningSeats:   []int{1, 3},
		Seats:          [4]string{"Ann", "Bob", "Cat", "Dan"},
		FinishedAt:     finished,
	}
}

func TestNewHistoryStore_EmptyURLDisables(t *testing.T) {
	store, err := NewHistoryStore(context.Background(), "")
	assert.NoError(t, err)
	assert.Nil(t, store)
}

func TestNewDealRecord(t *testing.T) {
	finished := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	rec := NewDealRecord(sampleResult("ABCD", finished))

	assert.Len(t, rec.ID, 26)
	assert.Equal(t, "ABCD", rec.RoomCode)
	assert.Equal(t, 2, rec.Contract)
	assert.Equal(t, int(game.Hearts), rec.TrumpSuit)
	assert.Equal(t, 1, rec.BidderSeat)
	assert.Equal(t, "A♠", rec.PartnerCard)
	assert.Equal(t, bridge.TeamDeclarers, rec.WinningTeam)
	assert.Equal(t, finished, rec.FinishedAt)
}

func TestNewID_Monotonic(t *testing.T) {
	prev := NewID()
	for range 100 {
		id := NewID()
		assert.Greater(t, id, prev)
		prev = id
	}
}

func TestHistoryStore_SaveAndList(t *testing.T) {
	store := newTestHistoryStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Millisecond)
	for i := range 3 {
		rec := NewDealRecord(sampleResult("ABCD", base.Add(time.Duration(i)*time.Minute)))
		require.NoError(t, store.SaveDeal(ctx, rec))
	}
	require.NoError(t, store.SaveDeal(ctx, NewDealRecord(sampleResult("WXYZ", base))))

	deals, err := store.ListDeals(ctx, "ABCD", 10)
	require.NoError(t, err)
	require.Len(t, deals, 3)
	assert.True(t, deals[0].FinishedAt.After(deals[1].FinishedAt), "newest first")
	assert.Equal(t, [4]string{"Ann", "Bob", "Cat", "Dan"}, deals[0].Seats)
	assert.Equal(t, "A♠", deals[0].PartnerCard)
	assert.Equal(t, bridge.TeamDeclarers, deals[0].WinningTeam)

	limited, err := store.ListDeals(ctx, "ABCD", 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	none, err := store.ListDeals(ctx, "NONE", 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestHistoryStore_Cleanup(t *testing.T) {
	store := newTestHistoryStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveDeal(ctx, NewDealRecord(sampleResult("ABCD", time.Now().Add(-48*time.Hour)))))
	require.NoError(t, store.SaveDeal(ctx, NewDealRecord(sampleResult("ABCD", time.Now()))))

	deleted, err := store.Cleanup(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	deals, err := store.ListDeals(ctx, "ABCD", 10)
	require.NoError(t, err)
	assert.Len(t, deals, 1)
}

func TestHistoryStore_MigrationsIdempotent(t *testing.T) {
	store := newTestHistoryStore(t)
	assert.NoError(t, runMigrations(store.pool))
	assert.NoError(t, store.Ping(context.Background()))
}
