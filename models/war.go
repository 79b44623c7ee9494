// models/war.go - Team War Data Models
package models

import "time"

// War status constants
type WarStatus string

const (
	WarStatusActive        WarStatus = "active"
	WarStatusChallengerWon WarStatus = "challenger_won"
	WarStatusDefenderWon   WarStatus = "defender_won"
	WarStatusVoid          WarStatus = "void"
)

// Terminal reports whether a war can no longer change state.
func (s WarStatus) Terminal() bool {
	return s == WarStatusChallengerWon || s == WarStatusDefenderWon || s == WarStatusVoid
}

// TeamWar is the durable record of a wagered inter-team conflict. The round
// counters are persisted after every round so a crash mid-war leaves a
// recoverable partial record.
type TeamWar struct {
	ID             string     `gorm:"primaryKey;size:36" json:"id"`
	Challenger     string     `gorm:"not null;index;size:40" json:"challenger"`
	Defender       string     `gorm:"not null;index;size:40" json:"defender"`
	InitiatedBy    string     `gorm:"size:40" json:"initiated_by"`
	Wager          int64      `gorm:"not null" json:"wager"`
	ChallengerWins int        `gorm:"default:0" json:"challenger_wins"`
	DefenderWins   int        `gorm:"default:0" json:"defender_wins"`
	Status         WarStatus  `gorm:"not null;default:'active';index" json:"status"`
	CreatedAt      time.Time  `json:"created_at"`
	CompletedAt    *time.Time `json:"completed_at"`
}

func (TeamWar) TableName() string {
	return "team_wars"
}
