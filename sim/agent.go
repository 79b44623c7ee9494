// Package sim holds the live, in-memory population of simulated agents
// (NPCs). Agents are the mutable member variant: the team core reads and
// writes them directly through the Registry, never through the backend.
package sim

// Agent is one simulated character. All mutation happens in-process while
// holding the owning Registry's lock.
type Agent struct {
	Name     string `json:"name"`
	Class    string `json:"class"`
	Level    int    `json:"level"`
	HP       int    `json:"hp"`
	MaxHP    int    `json:"max_hp"`
	Gold     int64  `json:"gold"`
	Strength int    `json:"strength"`
	Defence  int    `json:"defence"`
	Agility  int    `json:"agility"`
	WeapPow  int    `json:"weapon_power"`
	Team     string `json:"team"`
	Location string `json:"location"`
	Dead     bool   `json:"dead"`
}

func (a *Agent) DisplayName() string { return a.Name }
func (a *Agent) MemberLevel() int    { return a.Level }
func (a *Agent) ClassName() string   { return a.Class }

// Online is always true for agents: the sim never sleeps.
func (a *Agent) Online() bool { return true }

func (a *Agent) Alive() bool { return !a.Dead && a.HP > 0 }

func (a *Agent) StatTotal() int { return a.Strength + a.Defence + a.Agility }

func (a *Agent) CombatRating() int64 {
	return int64(a.Level)*10 + int64(a.Strength) + int64(a.WeapPow) + int64(a.Agility)
}

// clone returns a snapshot safe to hand out without the registry lock.
func (a *Agent) clone() *Agent {
	cp := *a
	return &cp
}
