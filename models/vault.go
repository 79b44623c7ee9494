// models/vault.go
package models

import "time"

// VaultBaseCapacity is the capacity of an unupgraded team vault.
const VaultBaseCapacity = 50000

// VaultCapacityPerLevel is added for every level of the vault facility.
const VaultCapacityPerLevel = 50000

// VaultCapacity returns the gold ceiling for a vault at the given upgrade
// level. Never cached across an upgrade; always recompute.
func VaultCapacity(vaultLevel int) int64 {
	return VaultBaseCapacity + int64(vaultLevel)*VaultCapacityPerLevel
}

// TeamVault mirrors the in-memory treasury balance for one team.
type TeamVault struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	TeamName  string    `gorm:"uniqueIndex;not null;size:40" json:"team_name"`
	Balance   int64     `gorm:"default:0" json:"balance"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (TeamVault) TableName() string {
	return "team_vaults"
}
