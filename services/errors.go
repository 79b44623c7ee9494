// services/errors.go - Team Corner error taxonomy
package services

import "errors"

var (
	ErrNotInTeam     = errors.New("you don't belong to a team")
	ErrAlreadyInTeam = errors.New("already a member of a team")
	ErrTeamFull      = errors.New("team is full")
	ErrNameTaken     = errors.New("a team with that name already exists")
	ErrUnknownTeam   = errors.New("no team found with that name")
	ErrWrongPassword = errors.New("wrong password")
	ErrInvalidName   = errors.New("invalid team name")
	ErrInvalidAmount = errors.New("invalid amount")

	// InsufficientFunds comes in two flavours so callers can tell the
	// player which purse was short.
	ErrInsufficientPersonalGold = errors.New("not enough personal gold")
	ErrInsufficientVaultGold    = errors.New("not enough gold in the team vault")

	ErrCapacityExceeded = errors.New("vault capacity exceeded")
	ErrMaxLevelReached  = errors.New("maximum facility level reached")

	ErrAlreadyAtWar        = errors.New("team already has an active war")
	ErrNoEligibleOpponents = errors.New("no eligible opponent teams")
	ErrUnknownWar          = errors.New("no such war")

	// ErrBackendUnavailable is a degraded-mode signal, not fatal: callers
	// fall back to live-sim data where they can.
	ErrBackendUnavailable = errors.New("save backend unavailable")

	// ErrInvariantViolation marks a concurrency bug. The offending
	// operation aborts without committing partial state.
	ErrInvariantViolation = errors.New("internal invariant violation")
)

// IsInsufficientFunds reports whether err is either funds error.
func IsInsufficientFunds(err error) bool {
	return errors.Is(err, ErrInsufficientPersonalGold) || errors.Is(err, ErrInsufficientVaultGold)
}
