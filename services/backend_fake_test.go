package services

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/binary-knight/usurper-reborn-sub009/models"
)

var errFakeDown = errors.New("fake backend down")

// fakeBackend is an in-memory Backend for service tests. Set down to make
// every call fail.
type fakeBackend struct {
	mu       sync.Mutex
	down     bool
	teams    map[string]*models.TeamInfo
	players  map[string]*models.Player
	vaults   map[string]int64
	upgrades map[string]map[models.FacilityKind]int
	wars     map[string]*models.TeamWar
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		teams:    make(map[string]*models.TeamInfo),
		players:  make(map[string]*models.Player),
		vaults:   make(map[string]int64),
		upgrades: make(map[string]map[models.FacilityKind]int),
		wars:     make(map[string]*models.TeamWar),
	}
}

func lower(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func (f *fakeBackend) FetchTeam(ctx context.Context, name string) (models.TeamInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return models.TeamInfo{}, errFakeDown
	}
	if t, ok := f.teams[lower(name)]; ok {
		return *t, nil
	}
	return models.TeamInfo{}, nil
}

func (f *fakeBackend) FetchTeamMembers(ctx context.Context, team string) ([]models.PersistedRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return nil, errFakeDown
	}
	var out []models.PersistedRecord
	for _, p := range f.players {
		if strings.EqualFold(p.Team, team) {
			out = append(out, p.Record())
		}
	}
	return out, nil
}

func (f *fakeBackend) IsNameTaken(ctx context.Context, name string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return false, errFakeDown
	}
	_, ok := f.teams[lower(name)]
	return ok, nil
}

func (f *fakeBackend) CreateTeam(ctx context.Context, name, passwordHash, founder string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return errFakeDown
	}
	f.teams[lower(name)] = &models.TeamInfo{
		Exists:       true,
		Name:         name,
		PasswordHash: passwordHash,
		MemberCount:  1,
	}
	return nil
}

func (f *fakeBackend) SetTeamPassword(ctx context.Context, name, passwordHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return errFakeDown
	}
	if t, ok := f.teams[lower(name)]; ok {
		t.PasswordHash = passwordHash
	}
	return nil
}

func (f *fakeBackend) SetTeamMemberCount(ctx context.Context, name string, count int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return errFakeDown
	}
	if t, ok := f.teams[lower(name)]; ok {
		t.MemberCount = count
		if count <= 0 {
			delete(f.teams, lower(name))
		}
	}
	return nil
}

func (f *fakeBackend) ListTeams(ctx context.Context) ([]models.TeamInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return nil, errFakeDown
	}
	var out []models.TeamInfo
	for _, t := range f.teams {
		out = append(out, *t)
	}
	return out, nil
}

func (f *fakeBackend) FetchPlayer(ctx context.Context, name string) (*models.Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return nil, errFakeDown
	}
	if p, ok := f.players[lower(name)]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeBackend) CreatePlayer(ctx context.Context, p *models.Player) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return errFakeDown
	}
	cp := *p
	f.players[lower(p.Name)] = &cp
	return nil
}

func (f *fakeBackend) SetPlayerTeam(ctx context.Context, player, team string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return errFakeDown
	}
	if p, ok := f.players[lower(player)]; ok {
		p.Team = team
	}
	return nil
}

func (f *fakeBackend) SetPlayerOnline(ctx context.Context, player string, online bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.players[lower(player)]; ok {
		p.IsOnline = online
	}
	return nil
}

func (f *fakeBackend) DebitPlayerGold(ctx context.Context, player string, amount int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return errFakeDown
	}
	p, ok := f.players[lower(player)]
	if !ok || p.Gold < amount {
		return ErrInsufficientPersonalGold
	}
	p.Gold -= amount
	return nil
}

func (f *fakeBackend) CreditPlayerGold(ctx context.Context, player string, amount int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return errFakeDown
	}
	if p, ok := f.players[lower(player)]; ok {
		p.Gold += amount
	}
	return nil
}

func (f *fakeBackend) LoadVault(ctx context.Context, team string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return 0, errFakeDown
	}
	return f.vaults[lower(team)], nil
}

func (f *fakeBackend) SaveVault(ctx context.Context, team string, balance int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return errFakeDown
	}
	f.vaults[lower(team)] = balance
	return nil
}

func (f *fakeBackend) LoadUpgrades(ctx context.Context, team string) (map[models.FacilityKind]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return nil, errFakeDown
	}
	out := make(map[models.FacilityKind]int)
	for k, v := range f.upgrades[lower(team)] {
		out[k] = v
	}
	return out, nil
}

func (f *fakeBackend) SaveUpgradeLevel(ctx context.Context, team string, kind models.FacilityKind, level int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return errFakeDown
	}
	k := lower(team)
	if f.upgrades[k] == nil {
		f.upgrades[k] = make(map[models.FacilityKind]int)
	}
	f.upgrades[k][kind] = level
	return nil
}

func (f *fakeBackend) CreateWar(ctx context.Context, war *models.TeamWar) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return errFakeDown
	}
	cp := *war
	f.wars[war.ID] = &cp
	return nil
}

func (f *fakeBackend) ActiveWar(ctx context.Context, team string) (*models.TeamWar, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return nil, errFakeDown
	}
	for _, w := range f.wars {
		if w.Status != models.WarStatusActive {
			continue
		}
		if strings.EqualFold(w.Challenger, team) || strings.EqualFold(w.Defender, team) {
			cp := *w
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeBackend) RecordWarRound(ctx context.Context, warID string, challengerWon bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return errFakeDown
	}
	w, ok := f.wars[warID]
	if !ok || w.Status != models.WarStatusActive {
		return ErrUnknownWar
	}
	if challengerWon {
		w.ChallengerWins++
	} else {
		w.DefenderWins++
	}
	return nil
}

func (f *fakeBackend) CompleteWar(ctx context.Context, warID string, status models.WarStatus) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return false, errFakeDown
	}
	w, ok := f.wars[warID]
	if !ok || w.Status != models.WarStatusActive {
		return false, nil
	}
	w.Status = status
	return true, nil
}

func (f *fakeBackend) WarHistory(ctx context.Context, team string) ([]models.TeamWar, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return nil, errFakeDown
	}
	var out []models.TeamWar
	for _, w := range f.wars {
		if strings.EqualFold(w.Challenger, team) || strings.EqualFold(w.Defender, team) {
			out = append(out, *w)
		}
	}
	return out, nil
}
