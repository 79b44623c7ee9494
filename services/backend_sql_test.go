package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/binary-knight/usurper-reborn-sub009/database"
	"github.com/binary-knight/usurper-reborn-sub009/models"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func TestSQLBackendTeamLifecycle(t *testing.T) {
	ctx := context.Background()
	b := NewSQLBackend(testDB(t))

	info, err := b.FetchTeam(ctx, "Dragons")
	require.NoError(t, err)
	require.False(t, info.Exists)

	require.NoError(t, b.CreateTeam(ctx, "Dragons", "hash", "Ragnar"))

	taken, err := b.IsNameTaken(ctx, "DRAGONS")
	require.NoError(t, err)
	require.True(t, taken)

	info, err = b.FetchTeam(ctx, "dragons")
	require.NoError(t, err)
	require.True(t, info.Exists)
	require.Equal(t, "Dragons", info.Name)
	require.Equal(t, "hash", info.PasswordHash)
	require.Equal(t, 1, info.MemberCount)

	require.NoError(t, b.SetTeamMemberCount(ctx, "Dragons", 3))
	info, _ = b.FetchTeam(ctx, "Dragons")
	require.Equal(t, 3, info.MemberCount)

	// Zero members deactivates the record.
	require.NoError(t, b.SetTeamMemberCount(ctx, "Dragons", 0))
	info, err = b.FetchTeam(ctx, "Dragons")
	require.NoError(t, err)
	require.False(t, info.Exists)

	taken, err = b.IsNameTaken(ctx, "Dragons")
	require.NoError(t, err)
	require.False(t, taken)
}

func TestSQLBackendPlayerGoldGuard(t *testing.T) {
	ctx := context.Background()
	b := NewSQLBackend(testDB(t))

	require.NoError(t, b.CreatePlayer(ctx, &models.Player{Name: "Grim", Gold: 1000}))

	require.NoError(t, b.DebitPlayerGold(ctx, "grim", 600))
	err := b.DebitPlayerGold(ctx, "grim", 600)
	require.ErrorIs(t, err, ErrInsufficientPersonalGold)

	p, err := b.FetchPlayer(ctx, "Grim")
	require.NoError(t, err)
	require.NotNil(t, p)
	require.Equal(t, int64(400), p.Gold)

	require.NoError(t, b.CreditPlayerGold(ctx, "Grim", 100))
	p, _ = b.FetchPlayer(ctx, "Grim")
	require.Equal(t, int64(500), p.Gold)
}

func TestSQLBackendFetchTeamMembers(t *testing.T) {
	ctx := context.Background()
	b := NewSQLBackend(testDB(t))

	require.NoError(t, b.CreatePlayer(ctx, &models.Player{Name: "Grim", Level: 2, Team: "Dragons"}))
	require.NoError(t, b.CreatePlayer(ctx, &models.Player{Name: "Hilda", Level: 9, Team: "Dragons"}))
	require.NoError(t, b.CreatePlayer(ctx, &models.Player{Name: "Loner", Level: 5}))

	records, err := b.FetchTeamMembers(ctx, "dragons")
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, "Hilda", records[0].Name)
}

func TestSQLBackendVaultUpsert(t *testing.T) {
	ctx := context.Background()
	b := NewSQLBackend(testDB(t))

	balance, err := b.LoadVault(ctx, "Dragons")
	require.NoError(t, err)
	require.Zero(t, balance)

	require.NoError(t, b.SaveVault(ctx, "Dragons", 1234))
	require.NoError(t, b.SaveVault(ctx, "dragons", 4321))

	balance, err = b.LoadVault(ctx, "DRAGONS")
	require.NoError(t, err)
	require.Equal(t, int64(4321), balance)
}

func TestSQLBackendUpgradeUpsert(t *testing.T) {
	ctx := context.Background()
	b := NewSQLBackend(testDB(t))

	levels, err := b.LoadUpgrades(ctx, "Dragons")
	require.NoError(t, err)
	require.Empty(t, levels)

	require.NoError(t, b.SaveUpgradeLevel(ctx, "Dragons", models.FacilityVault, 1))
	require.NoError(t, b.SaveUpgradeLevel(ctx, "Dragons", models.FacilityVault, 2))
	require.NoError(t, b.SaveUpgradeLevel(ctx, "Dragons", models.FacilityArmory, 1))

	levels, err = b.LoadUpgrades(ctx, "dragons")
	require.NoError(t, err)
	require.Equal(t, map[models.FacilityKind]int{
		models.FacilityVault:  2,
		models.FacilityArmory: 1,
	}, levels)
}

func TestSQLBackendWarRoundsAndSettlement(t *testing.T) {
	ctx := context.Background()
	b := NewSQLBackend(testDB(t))

	war := &models.TeamWar{
		ID:         "war-1",
		Challenger: "Reds",
		Defender:   "Blues",
		Wager:      500,
		Status:     models.WarStatusActive,
		CreatedAt:  time.Now(),
	}
	require.NoError(t, b.CreateWar(ctx, war))

	active, err := b.ActiveWar(ctx, "blues")
	require.NoError(t, err)
	require.NotNil(t, active)
	require.Equal(t, "war-1", active.ID)

	require.NoError(t, b.RecordWarRound(ctx, "war-1", true))
	require.NoError(t, b.RecordWarRound(ctx, "war-1", true))
	require.NoError(t, b.RecordWarRound(ctx, "war-1", false))

	settled, err := b.CompleteWar(ctx, "war-1", models.WarStatusChallengerWon)
	require.NoError(t, err)
	require.True(t, settled)

	// Second completion and post-settlement rounds are rejected.
	settled, err = b.CompleteWar(ctx, "war-1", models.WarStatusDefenderWon)
	require.NoError(t, err)
	require.False(t, settled)
	require.ErrorIs(t, b.RecordWarRound(ctx, "war-1", true), ErrUnknownWar)

	active, err = b.ActiveWar(ctx, "Reds")
	require.NoError(t, err)
	require.Nil(t, active)

	history, err := b.WarHistory(ctx, "Reds")
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, models.WarStatusChallengerWon, history[0].Status)
	require.Equal(t, 2, history[0].ChallengerWins)
	require.Equal(t, 1, history[0].DefenderWins)
	require.NotNil(t, history[0].CompletedAt)
}

func TestNewsServicePersistAndSubscribe(t *testing.T) {
	news := NewNewsService(testDB(t))

	feed, cancel := news.Subscribe()
	defer cancel()

	news.Publish("The Dragons seized the town corner!", "turf")

	select {
	case item := <-feed:
		require.Equal(t, "turf", item.Category)
	case <-time.After(time.Second):
		t.Fatal("no fan-out to subscriber")
	}

	items, err := news.Recent(10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "The Dragons seized the town corner!", items[0].Message)
}
