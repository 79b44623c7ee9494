// services/backend_sql.go - GORM implementation of the save backend
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/binary-knight/usurper-reborn-sub009/models"

	"gorm.io/gorm"
)

// SQLBackend persists team state through GORM. It is the production Backend;
// tests substitute an in-memory fake.
type SQLBackend struct {
	db *gorm.DB
}

func NewSQLBackend(db *gorm.DB) *SQLBackend {
	return &SQLBackend{db: db}
}

// ================== TEAMS ==================

func (b *SQLBackend) FetchTeam(ctx context.Context, name string) (models.TeamInfo, error) {
	var team models.Team
	err := b.db.WithContext(ctx).
		Where("LOWER(name) = LOWER(?) AND is_active = ?", name, true).
		First(&team).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.TeamInfo{}, nil
	}
	if err != nil {
		return models.TeamInfo{}, fmt.Errorf("fetch team: %w", err)
	}
	return models.TeamInfo{
		Exists:       true,
		Name:         team.Name,
		PasswordHash: team.PasswordHash,
		MemberCount:  team.MemberCount,
		ControlsTurf: team.ControlsTurf,
		DaysHeld:     team.DaysHeld,
	}, nil
}

func (b *SQLBackend) FetchTeamMembers(ctx context.Context, team string) ([]models.PersistedRecord, error) {
	var players []models.Player
	err := b.db.WithContext(ctx).
		Where("LOWER(team) = LOWER(?)", team).
		Order("level DESC").
		Find(&players).Error
	if err != nil {
		return nil, fmt.Errorf("fetch team members: %w", err)
	}
	records := make([]models.PersistedRecord, 0, len(players))
	for i := range players {
		records = append(records, players[i].Record())
	}
	return records, nil
}

func (b *SQLBackend) IsNameTaken(ctx context.Context, name string) (bool, error) {
	var count int64
	err := b.db.WithContext(ctx).Model(&models.Team{}).
		Where("LOWER(name) = LOWER(?) AND is_active = ?", name, true).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("name check: %w", err)
	}
	return count > 0, nil
}

func (b *SQLBackend) CreateTeam(ctx context.Context, name, passwordHash, founder string) error {
	team := &models.Team{
		Name:         name,
		PasswordHash: passwordHash,
		Founder:      founder,
		MemberCount:  1,
		IsActive:     true,
		CreatedAt:    time.Now(),
	}
	if err := b.db.WithContext(ctx).Create(team).Error; err != nil {
		return fmt.Errorf("create team: %w", err)
	}
	return nil
}

func (b *SQLBackend) SetTeamPassword(ctx context.Context, name, passwordHash string) error {
	return b.db.WithContext(ctx).Model(&models.Team{}).
		Where("LOWER(name) = LOWER(?)", name).
		Update("password_hash", passwordHash).Error
}

// SetTeamMemberCount records the current player membership. A count of zero
// deactivates the team row; NPC-founded teams have no row and persist on
// their own in the sim.
func (b *SQLBackend) SetTeamMemberCount(ctx context.Context, name string, count int) error {
	updates := map[string]interface{}{
		"member_count": count,
		"updated_at":   time.Now(),
	}
	if count <= 0 {
		updates["is_active"] = false
	}
	return b.db.WithContext(ctx).Model(&models.Team{}).
		Where("LOWER(name) = LOWER(?)", name).
		Updates(updates).Error
}

func (b *SQLBackend) ListTeams(ctx context.Context) ([]models.TeamInfo, error) {
	var teams []models.Team
	err := b.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("name ASC").
		Find(&teams).Error
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	infos := make([]models.TeamInfo, 0, len(teams))
	for i := range teams {
		infos = append(infos, models.TeamInfo{
			Exists:       true,
			Name:         teams[i].Name,
			MemberCount:  teams[i].MemberCount,
			ControlsTurf: teams[i].ControlsTurf,
			DaysHeld:     teams[i].DaysHeld,
		})
	}
	return infos, nil
}

// ================== PLAYERS ==================

func (b *SQLBackend) FetchPlayer(ctx context.Context, name string) (*models.Player, error) {
	var p models.Player
	err := b.db.WithContext(ctx).
		Where("LOWER(name) = LOWER(?)", name).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch player: %w", err)
	}
	return &p, nil
}

func (b *SQLBackend) CreatePlayer(ctx context.Context, p *models.Player) error {
	if err := b.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("create player: %w", err)
	}
	return nil
}

func (b *SQLBackend) SetPlayerTeam(ctx context.Context, player, team string) error {
	return b.db.WithContext(ctx).Model(&models.Player{}).
		Where("LOWER(name) = LOWER(?)", player).
		Updates(map[string]interface{}{"team": team, "updated_at": time.Now()}).Error
}

func (b *SQLBackend) SetPlayerOnline(ctx context.Context, player string, online bool) error {
	return b.db.WithContext(ctx).Model(&models.Player{}).
		Where("LOWER(name) = LOWER(?)", player).
		Updates(map[string]interface{}{"is_online": online, "last_seen": time.Now()}).Error
}

// DebitPlayerGold is all-or-nothing: the guarded UPDATE only matches when
// the player can cover the amount.
func (b *SQLBackend) DebitPlayerGold(ctx context.Context, player string, amount int64) error {
	if amount < 0 {
		return ErrInvalidAmount
	}
	res := b.db.WithContext(ctx).Model(&models.Player{}).
		Where("LOWER(name) = LOWER(?) AND gold >= ?", player, amount).
		Update("gold", gorm.Expr("gold - ?", amount))
	if res.Error != nil {
		return fmt.Errorf("debit gold: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrInsufficientPersonalGold
	}
	return nil
}

func (b *SQLBackend) CreditPlayerGold(ctx context.Context, player string, amount int64) error {
	if amount < 0 {
		return ErrInvalidAmount
	}
	return b.db.WithContext(ctx).Model(&models.Player{}).
		Where("LOWER(name) = LOWER(?)", player).
		Update("gold", gorm.Expr("gold + ?", amount)).Error
}

// ================== VAULT & FACILITIES ==================

func (b *SQLBackend) LoadVault(ctx context.Context, team string) (int64, error) {
	var vault models.TeamVault
	err := b.db.WithContext(ctx).
		Where("LOWER(team_name) = LOWER(?)", team).
		First(&vault).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("load vault: %w", err)
	}
	return vault.Balance, nil
}

func (b *SQLBackend) SaveVault(ctx context.Context, team string, balance int64) error {
	res := b.db.WithContext(ctx).Model(&models.TeamVault{}).
		Where("LOWER(team_name) = LOWER(?)", team).
		Updates(map[string]interface{}{"balance": balance, "updated_at": time.Now()})
	if res.Error != nil {
		return fmt.Errorf("save vault: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		vault := &models.TeamVault{TeamName: team, Balance: balance, CreatedAt: time.Now()}
		if err := b.db.WithContext(ctx).Create(vault).Error; err != nil {
			return fmt.Errorf("save vault: %w", err)
		}
	}
	return nil
}

func (b *SQLBackend) LoadUpgrades(ctx context.Context, team string) (map[models.FacilityKind]int, error) {
	var rows []models.TeamUpgrade
	err := b.db.WithContext(ctx).
		Where("LOWER(team_name) = LOWER(?)", team).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load upgrades: %w", err)
	}
	levels := make(map[models.FacilityKind]int, len(rows))
	for i := range rows {
		levels[rows[i].Kind] = rows[i].Level
	}
	return levels, nil
}

func (b *SQLBackend) SaveUpgradeLevel(ctx context.Context, team string, kind models.FacilityKind, level int) error {
	res := b.db.WithContext(ctx).Model(&models.TeamUpgrade{}).
		Where("LOWER(team_name) = LOWER(?) AND kind = ?", team, kind).
		Updates(map[string]interface{}{"level": level, "updated_at": time.Now()})
	if res.Error != nil {
		return fmt.Errorf("save upgrade: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		row := &models.TeamUpgrade{TeamName: team, Kind: kind, Level: level, CreatedAt: time.Now()}
		if err := b.db.WithContext(ctx).Create(row).Error; err != nil {
			return fmt.Errorf("save upgrade: %w", err)
		}
	}
	return nil
}

// ================== WARS ==================

func (b *SQLBackend) CreateWar(ctx context.Context, war *models.TeamWar) error {
	if err := b.db.WithContext(ctx).Create(war).Error; err != nil {
		return fmt.Errorf("create war: %w", err)
	}
	return nil
}

func (b *SQLBackend) ActiveWar(ctx context.Context, team string) (*models.TeamWar, error) {
	var war models.TeamWar
	err := b.db.WithContext(ctx).
		Where("status = ? AND (LOWER(challenger) = LOWER(?) OR LOWER(defender) = LOWER(?))",
			models.WarStatusActive, team, team).
		First(&war).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("active war: %w", err)
	}
	return &war, nil
}

// RecordWarRound persists one round's outcome immediately so a crash
// mid-war leaves a recoverable partial score.
func (b *SQLBackend) RecordWarRound(ctx context.Context, warID string, challengerWon bool) error {
	column := "defender_wins"
	if challengerWon {
		column = "challenger_wins"
	}
	res := b.db.WithContext(ctx).Model(&models.TeamWar{}).
		Where("id = ? AND status = ?", warID, models.WarStatusActive).
		Update(column, gorm.Expr(column+" + 1"))
	if res.Error != nil {
		return fmt.Errorf("record round: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrUnknownWar
	}
	return nil
}

// CompleteWar moves an Active war to a terminal status. Returns false when
// the war was already terminal, which makes settlement idempotent.
func (b *SQLBackend) CompleteWar(ctx context.Context, warID string, status models.WarStatus) (bool, error) {
	now := time.Now()
	res := b.db.WithContext(ctx).Model(&models.TeamWar{}).
		Where("id = ? AND status = ?", warID, models.WarStatusActive).
		Updates(map[string]interface{}{"status": status, "completed_at": &now})
	if res.Error != nil {
		return false, fmt.Errorf("complete war: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (b *SQLBackend) WarHistory(ctx context.Context, team string) ([]models.TeamWar, error) {
	var wars []models.TeamWar
	err := b.db.WithContext(ctx).
		Where("LOWER(challenger) = LOWER(?) OR LOWER(defender) = LOWER(?)", team, team).
		Order("created_at DESC").
		Find(&wars).Error
	if err != nil {
		return nil, fmt.Errorf("war history: %w", err)
	}
	return wars, nil
}
