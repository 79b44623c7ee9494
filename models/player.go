// models/player.go
package models

import "time"

// Player is the persisted record for a human-controlled character.
type Player struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Name     string `gorm:"uniqueIndex;not null;size:40" json:"name"`
	Password string `gorm:"not null" json:"-"`
	Class    string `gorm:"size:20" json:"class"`
	Level    int    `gorm:"default:1" json:"level"`
	Gold     int64  `gorm:"default:0" json:"gold"`
	Strength int    `gorm:"default:10" json:"strength"`
	Defence  int    `gorm:"default:10" json:"defence"`
	Agility  int    `gorm:"default:10" json:"agility"`
	WeapPow  int    `gorm:"default:0" json:"weapon_power"`
	Team     string `gorm:"index;size:40" json:"team"`
	IsOnline bool   `gorm:"default:false;index" json:"is_online"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	LastSeen  time.Time `json:"last_seen"`
}

func (Player) TableName() string {
	return "players"
}

// Record converts the row into the roster projection used by the core.
func (p *Player) Record() PersistedRecord {
	return PersistedRecord{
		Name:     p.Name,
		Level:    p.Level,
		Class:    p.Class,
		IsOnline: p.IsOnline,
		Strength: p.Strength,
		Defence:  p.Defence,
		Agility:  p.Agility,
		WeapPow:  p.WeapPow,
	}
}
