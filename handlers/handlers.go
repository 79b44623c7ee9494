// handlers/handlers.go - shared handler wiring and error mapping
package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/binary-knight/usurper-reborn-sub009/services"
	"github.com/binary-knight/usurper-reborn-sub009/sim"
)

var (
	teamService *services.TeamService
	warService  *services.WarService
	hqService   *services.HeadquartersService
	newsService *services.NewsService
	registry    *sim.Registry
)

// Init wires the handler package to the service layer. Must run before any
// route is registered.
func Init(teams *services.TeamService, wars *services.WarService, hq *services.HeadquartersService, news *services.NewsService, reg *sim.Registry) {
	teamService = teams
	warService = wars
	hqService = hq
	newsService = news
	registry = reg
}

// fail renders a service error with the matching HTTP status.
func fail(c *fiber.Ctx, err error) error {
	return c.Status(statusFor(err)).JSON(fiber.Map{
		"success": false,
		"error":   err.Error(),
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrInvalidName),
		errors.Is(err, services.ErrInvalidAmount):
		return 400
	case services.IsInsufficientFunds(err):
		return 402
	case errors.Is(err, services.ErrWrongPassword):
		return 403
	case errors.Is(err, services.ErrUnknownTeam),
		errors.Is(err, services.ErrUnknownWar):
		return 404
	case errors.Is(err, services.ErrNameTaken),
		errors.Is(err, services.ErrAlreadyInTeam),
		errors.Is(err, services.ErrNotInTeam),
		errors.Is(err, services.ErrTeamFull),
		errors.Is(err, services.ErrAlreadyAtWar),
		errors.Is(err, services.ErrNoEligibleOpponents),
		errors.Is(err, services.ErrCapacityExceeded),
		errors.Is(err, services.ErrMaxLevelReached):
		return 409
	case errors.Is(err, services.ErrBackendUnavailable):
		return 503
	default:
		return 500
	}
}
