// services/roster.go - roster aggregation across live and persisted members
package services

import (
	"context"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/binary-knight/usurper-reborn-sub009/models"
	"github.com/binary-knight/usurper-reborn-sub009/sim"
)

const backendTimeout = 3 * time.Second

// RosterService merges a team's live simulated agents with its persisted
// player records into one canonical member view.
type RosterService struct {
	registry *sim.Registry
	backend  Backend
}

func NewRosterService(registry *sim.Registry, backend Backend) *RosterService {
	return &RosterService{registry: registry, backend: backend}
}

// Members returns the team's roster sorted by descending level. When the
// backend is unreachable it returns the live subset with degraded=true so
// callers can still show something.
//
// A name present both as a live agent and a persisted record yields exactly
// one entry; the live agent wins.
func (s *RosterService) Members(ctx context.Context, teamName string) (roster []models.Member, degraded bool, err error) {
	seen := make(map[string]bool)

	for _, a := range s.registry.ByTeam(teamName) {
		seen[strings.ToLower(a.Name)] = true
		roster = append(roster, a)
	}

	fetchCtx, cancel := context.WithTimeout(ctx, backendTimeout)
	defer cancel()
	records, fetchErr := s.backend.FetchTeamMembers(fetchCtx, teamName)
	if fetchErr != nil {
		log.Printf("roster: backend fetch for %q failed, showing live members only: %v", teamName, fetchErr)
		degraded = true
	}
	for _, r := range records {
		if seen[strings.ToLower(r.Name)] {
			continue
		}
		seen[strings.ToLower(r.Name)] = true
		roster = append(roster, r)
	}

	sort.SliceStable(roster, func(i, j int) bool {
		return roster[i].MemberLevel() > roster[j].MemberLevel()
	})
	return roster, degraded, nil
}

// FightingOrder returns the roster weakest-first, the ordering the war
// engine expects for its round pairings. Dead members are excluded; they
// cannot fight.
func (s *RosterService) FightingOrder(ctx context.Context, teamName string) ([]models.Member, bool) {
	roster, degraded, _ := s.Members(ctx, teamName)
	fit := roster[:0]
	for _, m := range roster {
		if m.Alive() {
			fit = append(fit, m)
		}
	}
	// Members is strongest-first; reverse it.
	for i, j := 0, len(fit)-1; i < j; i, j = i+1, j-1 {
		fit[i], fit[j] = fit[j], fit[i]
	}
	return fit, degraded
}
