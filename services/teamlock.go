// services/teamlock.go - per-team mutual exclusion
package services

import (
	"strings"
	"sync"
)

// teamLocks hands out one mutex per team name so actions on different
// teams never contend. Locks must not be held across duel comparator
// calls or payment debits; membership reads that guard the size cap do
// run under the lock so the cap check sees every committed change.
// Mutexes are never evicted; the map is bounded by the set of team
// names ever touched, which stays small at game scale.
type teamLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newTeamLocks() *teamLocks {
	return &teamLocks{locks: make(map[string]*sync.Mutex)}
}

func (t *teamLocks) lockFor(team string) *sync.Mutex {
	k := strings.ToLower(strings.TrimSpace(team))
	t.mu.Lock()
	defer t.mu.Unlock()
	l, ok := t.locks[k]
	if !ok {
		l = &sync.Mutex{}
		t.locks[k] = l
	}
	return l
}

// Lock acquires the mutex for one team.
func (t *teamLocks) Lock(team string) func() {
	l := t.lockFor(team)
	l.Lock()
	return l.Unlock
}
