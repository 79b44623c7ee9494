// handlers/wars.go - team war HTTP handlers
package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/binary-knight/usurper-reborn-sub009/middleware"
	"github.com/binary-knight/usurper-reborn-sub009/services"
)

type ChallengeRequest struct {
	Opponent string `json:"opponent"`
	Wager    int64  `json:"wager"`
}

// Challenge declares war on another team and resolves it.
// POST /api/wars/challenge
func Challenge(c *fiber.Ctx) error {
	username, err := middleware.GetUsername(c)
	if err != nil {
		return err
	}

	var req ChallengeRequest
	if err := c.BodyParser(&req); err != nil || req.Opponent == "" {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Opponent team is required"})
	}

	member, team, stake, err := teamService.Lookup(c.Context(), username)
	if err != nil {
		return fail(c, err)
	}
	if team == "" {
		return fail(c, services.ErrNotInTeam)
	}

	war, err := warService.Challenge(c.Context(), member, team, req.Opponent, req.Wager, stake)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "war": war})
}

// GetWarHistory lists the caller's team wars, newest first.
// GET /api/wars/history
func GetWarHistory(c *fiber.Ctx) error {
	username, err := middleware.GetUsername(c)
	if err != nil {
		return err
	}

	_, team, _, err := teamService.Lookup(c.Context(), username)
	if err != nil {
		return fail(c, err)
	}
	if team == "" {
		return fail(c, services.ErrNotInTeam)
	}

	wars, err := warService.History(c.Context(), team)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "wars": wars})
}
