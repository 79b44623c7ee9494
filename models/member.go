// models/member.go
package models

// Member is the read-only projection shared by the two member variants:
// live simulated agents (mutated in-process by the sim package) and
// persisted player records (mutated only through backend calls).
type Member interface {
	DisplayName() string
	MemberLevel() int
	ClassName() string
	Online() bool
	Alive() bool
	// StatTotal is strength+defence+agility, used by the recruitment
	// cost model.
	StatTotal() int
	// CombatRating is the raw score fed to the duel comparator.
	CombatRating() int64
}

// PersistedRecord is a player character as fetched from the backend.
// It is never written through this type; gold and team changes go through
// the Backend interface.
type PersistedRecord struct {
	Name     string `json:"name"`
	Level    int    `json:"level"`
	Class    string `json:"class"`
	IsOnline bool   `json:"is_online"`
	Strength int    `json:"strength"`
	Defence  int    `json:"defence"`
	Agility  int    `json:"agility"`
	WeapPow  int    `json:"weapon_power"`
}

func (r PersistedRecord) DisplayName() string { return r.Name }
func (r PersistedRecord) MemberLevel() int    { return r.Level }
func (r PersistedRecord) ClassName() string   { return r.Class }
func (r PersistedRecord) Online() bool        { return r.IsOnline }
func (r PersistedRecord) Alive() bool         { return true }
func (r PersistedRecord) StatTotal() int      { return r.Strength + r.Defence + r.Agility }

func (r PersistedRecord) CombatRating() int64 {
	return int64(r.Level)*10 + int64(r.Strength) + int64(r.WeapPow) + int64(r.Agility)
}
