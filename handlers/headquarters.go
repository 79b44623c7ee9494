// handlers/headquarters.go - team vault and facility HTTP handlers
package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/binary-knight/usurper-reborn-sub009/middleware"
	"github.com/binary-knight/usurper-reborn-sub009/models"
	"github.com/binary-knight/usurper-reborn-sub009/services"
)

type AmountRequest struct {
	Amount int64 `json:"amount"`
}

type UpgradeRequest struct {
	Kind   string `json:"kind"`
	Source string `json:"source"` // "vault" or "personal"
}

// callerTeam resolves the authenticated caller and requires membership.
func callerTeam(c *fiber.Ctx) (string, services.PaymentSource, error) {
	username, err := middleware.GetUsername(c)
	if err != nil {
		return "", nil, err
	}
	_, team, source, err := teamService.Lookup(c.Context(), username)
	if err != nil {
		return "", nil, err
	}
	if team == "" {
		return "", nil, services.ErrNotInTeam
	}
	return team, source, nil
}

// GetHeadquarters reports the vault and every facility level.
// GET /api/hq
func GetHeadquarters(c *fiber.Ctx) error {
	team, _, err := callerTeam(c)
	if err != nil {
		return fail(c, err)
	}

	balance, err := hqService.Balance(c.Context(), team)
	if err != nil {
		return fail(c, err)
	}
	capacity, err := hqService.Capacity(c.Context(), team)
	if err != nil {
		return fail(c, err)
	}
	levels, err := hqService.Levels(c.Context(), team)
	if err != nil {
		return fail(c, err)
	}

	facilities := make([]fiber.Map, 0, len(models.FacilityDefs))
	for kind, def := range models.FacilityDefs {
		level := levels[kind]
		entry := fiber.Map{
			"kind":        kind,
			"name":        def.Name,
			"description": def.Description,
			"level":       level,
		}
		if level < models.MaxFacilityLevel {
			entry["next_cost"] = models.FacilityCost(kind, level)
		}
		facilities = append(facilities, entry)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"team":    team,
		"vault": fiber.Map{
			"balance":  balance,
			"capacity": capacity,
		},
		"facilities": facilities,
	})
}

// Deposit moves the caller's personal gold into the team vault. The vault
// accepts only what fits; the rest stays in the caller's purse.
// POST /api/hq/deposit
func Deposit(c *fiber.Ctx) error {
	team, source, err := callerTeam(c)
	if err != nil {
		return fail(c, err)
	}

	var req AmountRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid request body"})
	}
	if req.Amount <= 0 {
		return fail(c, services.ErrInvalidAmount)
	}

	if err := source.Debit(c.Context(), req.Amount); err != nil {
		return fail(c, err)
	}
	accepted, err := hqService.Deposit(c.Context(), team, req.Amount)
	if err != nil {
		source.Refund(c.Context(), req.Amount)
		return fail(c, err)
	}
	if accepted < req.Amount {
		source.Refund(c.Context(), req.Amount-accepted)
	}

	return c.JSON(fiber.Map{"success": true, "accepted": accepted})
}

// Withdraw moves vault gold into the caller's purse, all or nothing.
// POST /api/hq/withdraw
func Withdraw(c *fiber.Ctx) error {
	team, source, err := callerTeam(c)
	if err != nil {
		return fail(c, err)
	}

	var req AmountRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid request body"})
	}

	if err := hqService.Withdraw(c.Context(), team, req.Amount); err != nil {
		return fail(c, err)
	}
	source.Refund(c.Context(), req.Amount)

	return c.JSON(fiber.Map{"success": true, "amount": req.Amount})
}

// UpgradeFacility buys the next level of a facility, paid from the vault
// or the caller's own gold.
// POST /api/hq/upgrade
func UpgradeFacility(c *fiber.Ctx) error {
	team, personal, err := callerTeam(c)
	if err != nil {
		return fail(c, err)
	}

	var req UpgradeRequest
	if err := c.BodyParser(&req); err != nil || req.Kind == "" {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Facility kind is required"})
	}

	kind := models.FacilityKind(req.Kind)
	if !models.ValidFacility(kind) {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Unknown facility kind"})
	}

	source := personal
	if req.Source == "" || req.Source == "vault" {
		source = hqService.VaultSource(team)
	}

	level, cost, err := hqService.Purchase(c.Context(), team, kind, source)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"kind":    kind,
		"level":   level,
		"cost":    cost,
		"paid_by": source.Label(),
	})
}
