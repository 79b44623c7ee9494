// services/war.go - team war challenges, round resolution and settlement
package services

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/binary-knight/usurper-reborn-sub009/models"
	"github.com/binary-knight/usurper-reborn-sub009/sim"
)

// DuelResolver decides a single round between one challenger-side member
// and one defender-side member. It reports true when the challenger's
// fighter won.
type DuelResolver interface {
	ResolveDuel(ctx context.Context, challenger, defender models.Member) (challengerWon bool, err error)
}

// StatDuelResolver scores each fighter as combat rating scaled by a random
// factor in [0.8, 1.2]. Equal scores go to the defender.
type StatDuelResolver struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewStatDuelResolver() *StatDuelResolver {
	return &StatDuelResolver{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func (r *StatDuelResolver) ResolveDuel(ctx context.Context, challenger, defender models.Member) (bool, error) {
	r.mu.Lock()
	cf := 0.8 + r.rng.Float64()*0.4
	df := 0.8 + r.rng.Float64()*0.4
	r.mu.Unlock()

	cScore := float64(challenger.CombatRating()) * cf
	dScore := float64(defender.CombatRating()) * df
	return cScore >= dScore, nil
}

// WarService runs the full challenge lifecycle: eligibility checks, stake
// escrow, round-by-round resolution and settlement. A war resolves
// synchronously inside Challenge; the backend record is updated as each
// round lands so a crash mid-war leaves a reconstructable trail.
type WarService struct {
	backend  Backend
	roster   *RosterService
	hq       *HeadquartersService
	registry *sim.Registry
	resolver DuelResolver
	news     NewsPublisher

	mu      sync.Mutex
	engaged map[string]string // lower team name -> war id
}

func NewWarService(backend Backend, roster *RosterService, hq *HeadquartersService, registry *sim.Registry, resolver DuelResolver, news NewsPublisher) *WarService {
	return &WarService{
		backend:  backend,
		roster:   roster,
		hq:       hq,
		registry: registry,
		resolver: resolver,
		news:     news,
		engaged:  make(map[string]string),
	}
}

// reserve marks both teams as engaged for the duration of one war. It is
// the in-process guard behind the one-active-war rule; the backend's
// active-war check covers records left behind by other processes.
func (s *WarService) reserve(a, b, warID string) error {
	ka, kb := strings.ToLower(a), strings.ToLower(b)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.engaged[ka]; busy {
		return ErrAlreadyAtWar
	}
	if _, busy := s.engaged[kb]; busy {
		return ErrAlreadyAtWar
	}
	s.engaged[ka] = warID
	s.engaged[kb] = warID
	return nil
}

func (s *WarService) release(a, b string) {
	s.mu.Lock()
	delete(s.engaged, strings.ToLower(a))
	delete(s.engaged, strings.ToLower(b))
	s.mu.Unlock()
}

// ActiveWar reports the team's in-flight war, if any.
func (s *WarService) ActiveWar(ctx context.Context, team string) (*models.TeamWar, error) {
	war, err := s.backend.ActiveWar(ctx, team)
	if err != nil {
		return nil, ErrBackendUnavailable
	}
	return war, nil
}

// History returns the team's settled and active wars, newest first.
func (s *WarService) History(ctx context.Context, team string) ([]models.TeamWar, error) {
	wars, err := s.backend.WarHistory(ctx, team)
	if err != nil {
		return nil, ErrBackendUnavailable
	}
	return wars, nil
}

// Challenge declares war on defenderTeam for the given wager and resolves
// it to completion. The initiator's stake is debited up front from stake;
// the defender's matching stake comes out of their vault. The pot of twice
// the wager goes to the winning side. A wager of zero or less falls back
// to the initiator's default wager.
func (s *WarService) Challenge(ctx context.Context, initiator models.Member, challengerTeam, defenderTeam string, wager int64, stake PaymentSource) (*models.TeamWar, error) {
	challengerTeam = strings.TrimSpace(challengerTeam)
	defenderTeam = strings.TrimSpace(defenderTeam)
	if challengerTeam == "" || defenderTeam == "" ||
		strings.EqualFold(challengerTeam, defenderTeam) {
		return nil, ErrInvalidName
	}
	if wager <= 0 {
		wager = DefaultWager(initiator.MemberLevel())
	}

	if !s.teamExists(ctx, defenderTeam) {
		return nil, ErrUnknownTeam
	}
	for _, team := range []string{challengerTeam, defenderTeam} {
		active, err := s.backend.ActiveWar(ctx, team)
		if err != nil {
			return nil, ErrBackendUnavailable
		}
		if active != nil {
			return nil, ErrAlreadyAtWar
		}
	}

	war := &models.TeamWar{
		ID:          uuid.New().String(),
		Challenger:  challengerTeam,
		Defender:    defenderTeam,
		InitiatedBy: initiator.DisplayName(),
		Wager:       wager,
		Status:      models.WarStatusActive,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.reserve(challengerTeam, defenderTeam, war.ID); err != nil {
		return nil, err
	}
	defer s.release(challengerTeam, defenderTeam)

	// Escrow both stakes before anything is written. The challenger pays
	// from personal gold, the defender's side is matched out of their vault.
	if err := stake.Debit(ctx, wager); err != nil {
		return nil, err
	}
	if err := s.hq.Withdraw(ctx, defenderTeam, wager); err != nil {
		stake.Refund(ctx, wager)
		return nil, err
	}

	if err := s.backend.CreateWar(ctx, war); err != nil {
		stake.Refund(ctx, wager)
		s.refundVault(defenderTeam, wager)
		return nil, ErrBackendUnavailable
	}

	s.publish(fmt.Sprintf("%s of %s has declared war on %s! %d gold rides on the outcome.",
		initiator.DisplayName(), challengerTeam, defenderTeam, wager), "war")

	return s.resolve(ctx, war, stake)
}

func (s *WarService) teamExists(ctx context.Context, team string) bool {
	if s.registry != nil && s.registry.TeamNameTaken(team) {
		return true
	}
	info, err := s.backend.FetchTeam(ctx, team)
	return err == nil && info.Exists
}

// resolve plays every round of the war and settles the pot. Both stakes
// are already escrowed when it runs.
func (s *WarService) resolve(ctx context.Context, war *models.TeamWar, stake PaymentSource) (*models.TeamWar, error) {
	chOrder, _ := s.roster.FightingOrder(ctx, war.Challenger)
	defOrder, _ := s.roster.FightingOrder(ctx, war.Defender)

	if len(chOrder) == 0 || len(defOrder) == 0 {
		// Nobody to fight. Void the war and give everyone their money back.
		if s.settle(ctx, war, models.WarStatusVoid) {
			stake.Refund(ctx, war.Wager)
			s.refundVault(war.Defender, war.Wager)
			s.publish(fmt.Sprintf("The war between %s and %s was called off: one side could field no fighters.",
				war.Challenger, war.Defender), "war")
		}
		return war, nil
	}

	rounds := len(chOrder)
	if len(defOrder) < rounds {
		rounds = len(defOrder)
	}

	for i := 0; i < rounds; i++ {
		won := s.resolveRound(ctx, chOrder[i], defOrder[i])
		if won {
			war.ChallengerWins++
		} else {
			war.DefenderWins++
		}
		if err := s.backend.RecordWarRound(ctx, war.ID, won); err != nil {
			log.Printf("war %s: recording round %d failed: %v", war.ID, i+1, err)
		}
	}

	status := models.WarStatusDefenderWon
	winner := war.Defender
	if war.ChallengerWins > war.DefenderWins {
		status = models.WarStatusChallengerWon
		winner = war.Challenger
	}

	if s.settle(ctx, war, status) {
		s.payout(ctx, war, winner, stake)
		s.publish(fmt.Sprintf("%s defeats %s in open war, %d rounds to %d, and claims a pot of %d gold!",
			winner, s.loserOf(war, winner), s.winsOf(war, winner), s.lossesOf(war, winner), 2*war.Wager), "war")
	}
	return war, nil
}

// resolveRound runs one duel, retrying a failed resolver once. A second
// failure scores the round for the defender.
func (s *WarService) resolveRound(ctx context.Context, challenger, defender models.Member) bool {
	won, err := s.resolver.ResolveDuel(ctx, challenger, defender)
	if err == nil {
		return won
	}
	won, err = s.resolver.ResolveDuel(ctx, challenger, defender)
	if err == nil {
		return won
	}
	log.Printf("war: duel %s vs %s unresolvable, round goes to the defender: %v",
		challenger.DisplayName(), defender.DisplayName(), err)
	return false
}

// settle marks the war terminal exactly once. A false return means another
// path already completed it and the pot must not be paid again.
func (s *WarService) settle(ctx context.Context, war *models.TeamWar, status models.WarStatus) bool {
	settled, err := s.backend.CompleteWar(ctx, war.ID, status)
	if err != nil {
		log.Printf("war %s: settlement write failed: %v", war.ID, err)
		return false
	}
	if settled {
		war.Status = status
		now := time.Now().UTC()
		war.CompletedAt = &now
	}
	return settled
}

// payout delivers the full pot to the winning side's vault. Gold that
// does not fit goes to a member instead so none of the pot evaporates.
func (s *WarService) payout(ctx context.Context, war *models.TeamWar, winner string, stake PaymentSource) {
	pot := 2 * war.Wager
	accepted, err := s.hq.Deposit(ctx, winner, pot)
	if err != nil && err != ErrCapacityExceeded {
		log.Printf("war %s: pot deposit to %q failed: %v", war.ID, winner, err)
	}
	overflow := pot - accepted
	if overflow <= 0 {
		return
	}
	if strings.EqualFold(winner, war.Challenger) {
		stake.Refund(ctx, overflow)
		return
	}
	s.creditAnyMember(ctx, winner, overflow)
}

// creditAnyMember hands gold to the first reachable member of the team,
// preferring a live agent.
func (s *WarService) creditAnyMember(ctx context.Context, team string, amount int64) {
	if s.registry != nil {
		for _, a := range s.registry.ByTeam(team) {
			if err := s.registry.CreditGold(a.Name, amount); err == nil {
				return
			}
		}
	}
	records, err := s.backend.FetchTeamMembers(ctx, team)
	if err == nil {
		for _, rec := range records {
			if err := s.backend.CreditPlayerGold(ctx, rec.Name, amount); err == nil {
				return
			}
		}
	}
	log.Printf("war: no member of %q reachable to take %d overflow gold", team, amount)
}

func (s *WarService) refundVault(team string, amount int64) {
	ctx, cancel := context.WithTimeout(context.Background(), backendTimeout)
	defer cancel()
	if _, err := s.hq.Deposit(ctx, team, amount); err != nil {
		log.Printf("war: vault refund of %d to %q failed: %v", amount, team, err)
	}
}

func (s *WarService) publish(message, category string) {
	if s.news != nil {
		s.news.Publish(message, category)
	}
}

func (s *WarService) loserOf(war *models.TeamWar, winner string) string {
	if strings.EqualFold(winner, war.Challenger) {
		return war.Defender
	}
	return war.Challenger
}

func (s *WarService) winsOf(war *models.TeamWar, winner string) int {
	if strings.EqualFold(winner, war.Challenger) {
		return war.ChallengerWins
	}
	return war.DefenderWins
}

func (s *WarService) lossesOf(war *models.TeamWar, winner string) int {
	if strings.EqualFold(winner, war.Challenger) {
		return war.DefenderWins
	}
	return war.ChallengerWins
}
