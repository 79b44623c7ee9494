// models/upgrade.go - Team Headquarters Facilities
package models

import "time"

// Facility kind constants
type FacilityKind string

const (
	FacilityArmory    FacilityKind = "armory"
	FacilityBarracks  FacilityKind = "barracks"
	FacilityTraining  FacilityKind = "training"
	FacilityVault     FacilityKind = "vault"
	FacilityInfirmary FacilityKind = "infirmary"
)

// MaxFacilityLevel caps every facility; purchases above it are refused.
const MaxFacilityLevel = 10

// FacilityDef describes one purchasable headquarters facility.
type FacilityDef struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	BaseCost    int64  `json:"base_cost"`
}

// FacilityDefs holds the catalogue; cost to reach level l+1 is
// BaseCost * (l+1).
var FacilityDefs = map[FacilityKind]FacilityDef{
	FacilityArmory:    {"Armory", "+5% attack per level", 5000},
	FacilityBarracks:  {"Barracks", "+5% defense per level", 5000},
	FacilityTraining:  {"Training Grounds", "+5% XP bonus per level", 8000},
	FacilityVault:     {"Vault", "+50,000 vault capacity per level", 3000},
	FacilityInfirmary: {"Infirmary", "+10% healing per level", 4000},
}

// ValidFacility reports whether kind names a known facility.
func ValidFacility(kind FacilityKind) bool {
	_, ok := FacilityDefs[kind]
	return ok
}

// FacilityCost returns the gold cost to advance kind from level to level+1.
func FacilityCost(kind FacilityKind, level int) int64 {
	def, ok := FacilityDefs[kind]
	if !ok {
		return 0
	}
	return def.BaseCost * int64(level+1)
}

// TeamUpgrade is one (team, facility) level row.
type TeamUpgrade struct {
	ID        uint         `gorm:"primaryKey" json:"id"`
	TeamName  string       `gorm:"not null;index:idx_team_upgrades_key,unique;size:40" json:"team_name"`
	Kind      FacilityKind `gorm:"not null;index:idx_team_upgrades_key,unique;size:20" json:"kind"`
	Level     int          `gorm:"default:0" json:"level"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

func (TeamUpgrade) TableName() string {
	return "team_upgrades"
}
