// services/headquarters.go - team vault and facility upgrade ledger
package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"

	"github.com/binary-knight/usurper-reborn-sub009/models"
	"github.com/binary-knight/usurper-reborn-sub009/sim"
)

// PaymentSource is anywhere gold can be drawn from to pay for an upgrade:
// the team vault or one member's personal purse. Debit is all-or-nothing.
type PaymentSource interface {
	Debit(ctx context.Context, amount int64) error
	Refund(ctx context.Context, amount int64)
	Label() string
}

// HeadquartersService owns the per-team treasury and the facility upgrade
// ledger. The in-memory state is authoritative during a session; every
// successful mutation is mirrored to the backend afterwards, outside the
// per-team lock.
type HeadquartersService struct {
	backend Backend
	locks   *teamLocks

	mu     sync.Mutex
	vaults map[string]*hqState
}

type hqState struct {
	balance  int64
	upgrades map[models.FacilityKind]int
}

func NewHeadquartersService(backend Backend) *HeadquartersService {
	return &HeadquartersService{
		backend: backend,
		locks:   newTeamLocks(),
		vaults:  make(map[string]*hqState),
	}
}

// state returns the loaded in-memory state for team, fetching from the
// backend on first touch. The backend call happens without any team lock
// held.
func (s *HeadquartersService) state(ctx context.Context, team string) (*hqState, error) {
	k := strings.ToLower(strings.TrimSpace(team))

	s.mu.Lock()
	if st, ok := s.vaults[k]; ok {
		s.mu.Unlock()
		return st, nil
	}
	s.mu.Unlock()

	loadCtx, cancel := context.WithTimeout(ctx, backendTimeout)
	defer cancel()
	balance, err := s.backend.LoadVault(loadCtx, team)
	if err != nil {
		return nil, ErrBackendUnavailable
	}
	upgrades, err := s.backend.LoadUpgrades(loadCtx, team)
	if err != nil {
		return nil, ErrBackendUnavailable
	}
	if upgrades == nil {
		upgrades = make(map[models.FacilityKind]int)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.vaults[k]; ok {
		// Someone else loaded while we were fetching.
		return st, nil
	}
	st := &hqState{balance: balance, upgrades: upgrades}
	s.vaults[k] = st
	return st, nil
}

func (s *HeadquartersService) mirrorVault(team string, balance int64) {
	ctx, cancel := context.WithTimeout(context.Background(), backendTimeout)
	defer cancel()
	if err := s.backend.SaveVault(ctx, team, balance); err != nil {
		log.Printf("headquarters: vault mirror for %q failed: %v", team, err)
	}
}

func (s *HeadquartersService) mirrorUpgrade(team string, kind models.FacilityKind, level int) {
	ctx, cancel := context.WithTimeout(context.Background(), backendTimeout)
	defer cancel()
	if err := s.backend.SaveUpgradeLevel(ctx, team, kind, level); err != nil {
		log.Printf("headquarters: upgrade mirror for %q/%s failed: %v", team, kind, err)
	}
}

// ================== TREASURY ==================

// Balance returns the current vault balance.
func (s *HeadquartersService) Balance(ctx context.Context, team string) (int64, error) {
	st, err := s.state(ctx, team)
	if err != nil {
		return 0, err
	}
	unlock := s.locks.Lock(team)
	defer unlock()
	return st.balance, nil
}

// Capacity recomputes the vault ceiling from the current vault facility
// level. It is never cached across an upgrade.
func (s *HeadquartersService) Capacity(ctx context.Context, team string) (int64, error) {
	st, err := s.state(ctx, team)
	if err != nil {
		return 0, err
	}
	unlock := s.locks.Lock(team)
	defer unlock()
	return models.VaultCapacity(st.upgrades[models.FacilityVault]), nil
}

// Deposit adds up to amount gold and returns how much was actually
// accepted: min(amount, capacity-balance). The caller must debit only the
// accepted amount from the source. A full vault yields ErrCapacityExceeded.
func (s *HeadquartersService) Deposit(ctx context.Context, team string, amount int64) (accepted int64, err error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	st, err := s.state(ctx, team)
	if err != nil {
		return 0, err
	}

	unlock := s.locks.Lock(team)
	capacity := models.VaultCapacity(st.upgrades[models.FacilityVault])
	space := capacity - st.balance
	if space <= 0 {
		unlock()
		return 0, ErrCapacityExceeded
	}
	accepted = amount
	if accepted > space {
		accepted = space
	}
	st.balance += accepted
	balance := st.balance
	unlock()

	s.mirrorVault(team, balance)
	return accepted, nil
}

// Withdraw removes exactly amount gold, or nothing at all.
func (s *HeadquartersService) Withdraw(ctx context.Context, team string, amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	st, err := s.state(ctx, team)
	if err != nil {
		return err
	}

	unlock := s.locks.Lock(team)
	if st.balance < amount {
		unlock()
		return ErrInsufficientVaultGold
	}
	st.balance -= amount
	balance := st.balance
	if balance < 0 {
		// Should be unreachable; abort rather than commit a negative vault.
		st.balance += amount
		unlock()
		return ErrInvariantViolation
	}
	unlock()

	s.mirrorVault(team, balance)
	return nil
}

// ================== FACILITY LEDGER ==================

// LevelOf returns the team's level for the facility, zero when never
// purchased.
func (s *HeadquartersService) LevelOf(ctx context.Context, team string, kind models.FacilityKind) (int, error) {
	st, err := s.state(ctx, team)
	if err != nil {
		return 0, err
	}
	unlock := s.locks.Lock(team)
	defer unlock()
	return st.upgrades[kind], nil
}

// NextCost is the price of advancing the facility one level.
func (s *HeadquartersService) NextCost(ctx context.Context, team string, kind models.FacilityKind) (int64, error) {
	level, err := s.LevelOf(ctx, team, kind)
	if err != nil {
		return 0, err
	}
	return models.FacilityCost(kind, level), nil
}

// Levels returns a copy of the whole upgrade ledger for the team.
func (s *HeadquartersService) Levels(ctx context.Context, team string) (map[models.FacilityKind]int, error) {
	st, err := s.state(ctx, team)
	if err != nil {
		return nil, err
	}
	unlock := s.locks.Lock(team)
	defer unlock()
	out := make(map[models.FacilityKind]int, len(st.upgrades))
	for k, v := range st.upgrades {
		out[k] = v
	}
	return out, nil
}

// Purchase advances kind by one level, debiting the next cost from source
// first. On any payment failure the level does not change. The debit runs
// without the team lock held; the commit re-validates the level and retries
// when a concurrent purchase got there first.
func (s *HeadquartersService) Purchase(ctx context.Context, team string, kind models.FacilityKind, source PaymentSource) (newLevel int, cost int64, err error) {
	if !models.ValidFacility(kind) {
		return 0, 0, ErrInvalidName
	}
	st, err := s.state(ctx, team)
	if err != nil {
		return 0, 0, err
	}

	for attempt := 0; attempt < 3; attempt++ {
		unlock := s.locks.Lock(team)
		level := st.upgrades[kind]
		unlock()

		if level >= models.MaxFacilityLevel {
			return level, 0, ErrMaxLevelReached
		}
		cost = models.FacilityCost(kind, level)

		if err := source.Debit(ctx, cost); err != nil {
			return level, cost, err
		}

		unlock = s.locks.Lock(team)
		if st.upgrades[kind] != level {
			// Lost the race; give the money back and re-price.
			unlock()
			source.Refund(ctx, cost)
			continue
		}
		st.upgrades[kind] = level + 1
		newLevel = level + 1
		unlock()

		s.mirrorUpgrade(team, kind, newLevel)
		return newLevel, cost, nil
	}
	return 0, 0, ErrInvariantViolation
}

// ================== PAYMENT SOURCES ==================

// VaultSource pays from the team vault.
func (s *HeadquartersService) VaultSource(team string) PaymentSource {
	return &vaultSource{hq: s, team: team}
}

type vaultSource struct {
	hq   *HeadquartersService
	team string
}

func (v *vaultSource) Label() string { return "vault" }

func (v *vaultSource) Debit(ctx context.Context, amount int64) error {
	return v.hq.Withdraw(ctx, v.team, amount)
}

func (v *vaultSource) Refund(ctx context.Context, amount int64) {
	if _, err := v.hq.Deposit(ctx, v.team, amount); err != nil {
		log.Printf("headquarters: vault refund of %d to %q failed: %v", amount, v.team, err)
	}
}

// PersonalSource pays from a persisted player's gold via the backend.
func PersonalSource(backend Backend, player string) PaymentSource {
	return &personalSource{backend: backend, player: player}
}

type personalSource struct {
	backend Backend
	player  string
}

func (p *personalSource) Label() string { return "personal" }

func (p *personalSource) Debit(ctx context.Context, amount int64) error {
	return p.backend.DebitPlayerGold(ctx, p.player, amount)
}

func (p *personalSource) Refund(ctx context.Context, amount int64) {
	if err := p.backend.CreditPlayerGold(ctx, p.player, amount); err != nil {
		log.Printf("headquarters: personal refund of %d to %q failed: %v", amount, p.player, err)
	}
}

// AgentSource pays from a live agent's purse.
func AgentSource(registry *sim.Registry, name string) PaymentSource {
	return &agentSource{registry: registry, name: name}
}

type agentSource struct {
	registry *sim.Registry
	name     string
}

func (a *agentSource) Label() string { return "personal" }

func (a *agentSource) Debit(ctx context.Context, amount int64) error {
	if err := a.registry.DebitGold(a.name, amount); err != nil {
		if errors.Is(err, sim.ErrPoorAgent) {
			return ErrInsufficientPersonalGold
		}
		return err
	}
	return nil
}

func (a *agentSource) Refund(ctx context.Context, amount int64) {
	if err := a.registry.CreditGold(a.name, amount); err != nil {
		log.Printf("headquarters: agent refund of %d to %q failed: %v", amount, a.name, err)
	}
}
