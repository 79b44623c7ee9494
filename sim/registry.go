// sim/registry.go
package sim

import (
	"errors"
	"sort"
	"strings"
	"sync"
)

var (
	ErrUnknownAgent = errors.New("no such agent")
	ErrAgentExists  = errors.New("agent already exists")
	ErrNotDead      = errors.New("agent is not dead")
	ErrPoorAgent    = errors.New("agent cannot afford that")
)

// townLocations are the places where unattached agents can be approached
// for recruitment.
var townLocations = map[string]bool{
	"Main Street": true,
	"Market":      true,
	"Inn":         true,
	"Temple":      true,
	"Church":      true,
	"Weapon Shop": true,
	"Armor Shop":  true,
	"Castle":      true,
	"Bank":        true,
	"Team Corner": true,
}

// Registry owns the live agent population. All reads return snapshots;
// mutations go through Registry methods so the lock discipline stays in
// one place.
type Registry struct {
	mu     sync.RWMutex
	agents map[string]*Agent // keyed by lowercased name
}

func NewRegistry() *Registry {
	return &Registry{agents: make(map[string]*Agent)}
}

func key(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Add registers a new agent. Names are unique case-insensitively.
func (r *Registry) Add(a *Agent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := key(a.Name)
	if _, ok := r.agents[k]; ok {
		return ErrAgentExists
	}
	r.agents[k] = a.clone()
	return nil
}

// Get returns a snapshot of the named agent.
func (r *Registry) Get(name string) (*Agent, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.agents[key(name)]
	if !ok {
		return nil, false
	}
	return a.clone(), true
}

// ByTeam returns snapshots of every agent in the team, dead or alive,
// sorted by descending level.
func (r *Registry) ByTeam(team string) []*Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Agent
	for _, a := range r.agents {
		if strings.EqualFold(a.Team, team) {
			out = append(out, a.clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Level > out[j].Level })
	return out
}

// TeamNameTaken reports whether any agent claims the team name.
func (r *Registry) TeamNameTaken(team string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.agents {
		if strings.EqualFold(a.Team, team) {
			return true
		}
	}
	return false
}

// Recruitable returns up to limit unattached, living agents currently in a
// town location, strongest first.
func (r *Registry) Recruitable(limit int) []*Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Agent
	for _, a := range r.agents {
		if a.Alive() && a.Team == "" && townLocations[a.Location] {
			out = append(out, a.clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Level > out[j].Level })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// AssignTeam puts the named agent on a team.
func (r *Registry) AssignTeam(name, team string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.agents[key(name)]
	if !ok {
		return ErrUnknownAgent
	}
	a.Team = team
	return nil
}

// RemoveFromTeam clears the agent's team field if it matches team.
func (r *Registry) RemoveFromTeam(name, team string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.agents[key(name)]
	if !ok || !strings.EqualFold(a.Team, team) {
		return ErrUnknownAgent
	}
	a.Team = ""
	return nil
}

// Kill drops the agent to zero HP and marks it dead.
func (r *Registry) Kill(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.agents[key(name)]
	if !ok {
		return ErrUnknownAgent
	}
	a.HP = 0
	a.Dead = true
	return nil
}

// Resurrect brings a dead agent back at half health.
func (r *Registry) Resurrect(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.agents[key(name)]
	if !ok {
		return ErrUnknownAgent
	}
	if a.Alive() {
		return ErrNotDead
	}
	a.HP = a.MaxHP / 2
	a.Dead = false
	return nil
}

// DebitGold removes amount from the agent's purse, all or nothing.
func (r *Registry) DebitGold(name string, amount int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.agents[key(name)]
	if !ok {
		return ErrUnknownAgent
	}
	if a.Gold < amount {
		return ErrPoorAgent
	}
	a.Gold -= amount
	return nil
}

// CreditGold adds amount to the agent's purse.
func (r *Registry) CreditGold(name string, amount int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.agents[key(name)]
	if !ok {
		return ErrUnknownAgent
	}
	a.Gold += amount
	return nil
}

// TeamPower aggregates a rough power score over the living agents of every
// team, used by the rankings view.
type TeamPower struct {
	Team         string  `json:"team"`
	Members      int     `json:"members"`
	TotalPower   int64   `json:"total_power"`
	AverageLevel float64 `json:"average_level"`
}

// Powers returns per-team aggregates for all NPC teams.
func (r *Registry) Powers() []TeamPower {
	r.mu.RLock()
	defer r.mu.RUnlock()
	acc := make(map[string]*TeamPower)
	levels := make(map[string]int)
	for _, a := range r.agents {
		if a.Team == "" || !a.Alive() {
			continue
		}
		k := key(a.Team)
		p, ok := acc[k]
		if !ok {
			p = &TeamPower{Team: a.Team}
			acc[k] = p
		}
		p.Members++
		p.TotalPower += int64(a.Level + a.Strength + a.Defence)
		levels[k] += a.Level
	}
	out := make([]TeamPower, 0, len(acc))
	for k, p := range acc {
		if p.Members > 0 {
			p.AverageLevel = float64(levels[k]) / float64(p.Members)
		}
		out = append(out, *p)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TotalPower > out[j].TotalPower })
	return out
}
