// services/backend.go - persistence backend contract
package services

import (
	"context"

	"github.com/binary-knight/usurper-reborn-sub009/models"
)

// Backend is the save backend consumed by the team core. Every call takes a
// context with a bounded deadline; callers fall back to degraded behavior on
// failure rather than blocking the whole operation. Vault, upgrade, and war
// writes mirror the in-memory state 1:1 and are issued after every
// successful in-memory mutation.
type Backend interface {
	// Teams
	FetchTeam(ctx context.Context, name string) (models.TeamInfo, error)
	FetchTeamMembers(ctx context.Context, team string) ([]models.PersistedRecord, error)
	IsNameTaken(ctx context.Context, name string) (bool, error)
	CreateTeam(ctx context.Context, name, passwordHash, founder string) error
	SetTeamPassword(ctx context.Context, name, passwordHash string) error
	SetTeamMemberCount(ctx context.Context, name string, count int) error
	ListTeams(ctx context.Context) ([]models.TeamInfo, error)

	// Players (persisted records mutate only through these calls)
	FetchPlayer(ctx context.Context, name string) (*models.Player, error)
	CreatePlayer(ctx context.Context, p *models.Player) error
	SetPlayerTeam(ctx context.Context, player, team string) error
	SetPlayerOnline(ctx context.Context, player string, online bool) error
	DebitPlayerGold(ctx context.Context, player string, amount int64) error
	CreditPlayerGold(ctx context.Context, player string, amount int64) error

	// Vault and facility mirrors
	LoadVault(ctx context.Context, team string) (int64, error)
	SaveVault(ctx context.Context, team string, balance int64) error
	LoadUpgrades(ctx context.Context, team string) (map[models.FacilityKind]int, error)
	SaveUpgradeLevel(ctx context.Context, team string, kind models.FacilityKind, level int) error

	// Wars
	CreateWar(ctx context.Context, war *models.TeamWar) error
	ActiveWar(ctx context.Context, team string) (*models.TeamWar, error)
	RecordWarRound(ctx context.Context, warID string, challengerWon bool) error
	CompleteWar(ctx context.Context, warID string, status models.WarStatus) (bool, error)
	WarHistory(ctx context.Context, team string) ([]models.TeamWar, error)
}
