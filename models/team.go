// models/team.go
package models

import "time"

// MaxTeamSize is the membership cap enforced at join/recruit time.
const MaxTeamSize = 5

// MaxTeamNameLen bounds team names; names are unique case-insensitively
// across both player-founded and NPC-founded teams.
const MaxTeamNameLen = 40

// MaxTeamPasswordLen bounds the shared join secret.
const MaxTeamPasswordLen = 20

// Team is a persisted player-founded team. NPC-founded teams exist only in
// the live sim registry and are never written here.
type Team struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"uniqueIndex;not null;size:40" json:"name"`
	PasswordHash string    `gorm:"not null" json:"-"`
	Founder      string    `gorm:"size:40" json:"founder"`
	MemberCount  int       `gorm:"default:1" json:"member_count"`
	ControlsTurf bool      `gorm:"default:false;index" json:"controls_turf"`
	DaysHeld     int       `gorm:"default:0" json:"days_held"`
	IsActive     bool      `gorm:"default:true;index" json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Team) TableName() string {
	return "teams"
}

// TeamInfo is the summary shape returned by Backend.FetchTeam.
type TeamInfo struct {
	Exists       bool   `json:"exists"`
	Name         string `json:"name"`
	PasswordHash string `json:"-"`
	MemberCount  int    `json:"member_count"`
	ControlsTurf bool   `json:"controls_turf"`
	DaysHeld     int    `json:"days_held"`
}
