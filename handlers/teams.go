// handlers/teams.go - team membership HTTP handlers
package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/binary-knight/usurper-reborn-sub009/middleware"
	"github.com/binary-knight/usurper-reborn-sub009/models"
)

type CreateTeamRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

type JoinTeamRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

type RecruitRequest struct {
	Candidate string `json:"candidate"`
}

type ChangePasswordRequest struct {
	Old string `json:"old"`
	New string `json:"new"`
}

type MemberActionRequest struct {
	Member string `json:"member"`
}

// memberView is the roster projection returned by team queries.
type memberView struct {
	Name   string `json:"name"`
	Level  int    `json:"level"`
	Class  string `json:"class"`
	Online bool   `json:"online"`
	Alive  bool   `json:"alive"`
}

func viewOf(m models.Member) memberView {
	return memberView{
		Name:   m.DisplayName(),
		Level:  m.MemberLevel(),
		Class:  m.ClassName(),
		Online: m.Online(),
		Alive:  m.Alive(),
	}
}

// CreateTeam founds a new team for the caller.
// POST /api/teams
func CreateTeam(c *fiber.Ctx) error {
	username, err := middleware.GetUsername(c)
	if err != nil {
		return err
	}

	var req CreateTeamRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid request body"})
	}

	info, err := teamService.CreateTeam(c.Context(), username, req.Name, req.Password)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"success": true, "team": info})
}

// JoinTeam adds the caller to a team.
// POST /api/teams/join
func JoinTeam(c *fiber.Ctx) error {
	username, err := middleware.GetUsername(c)
	if err != nil {
		return err
	}

	var req JoinTeamRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid request body"})
	}

	if err := teamService.JoinTeam(c.Context(), username, req.Name, req.Password); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}

// QuitTeam removes the caller from their team.
// POST /api/teams/quit
func QuitTeam(c *fiber.Ctx) error {
	username, err := middleware.GetUsername(c)
	if err != nil {
		return err
	}
	if err := teamService.QuitTeam(c.Context(), username); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}

// Recruit hires another character into the caller's team.
// POST /api/teams/recruit
func Recruit(c *fiber.Ctx) error {
	username, err := middleware.GetUsername(c)
	if err != nil {
		return err
	}

	var req RecruitRequest
	if err := c.BodyParser(&req); err != nil || req.Candidate == "" {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Candidate name is required"})
	}

	cost, err := teamService.Recruit(c.Context(), username, req.Candidate)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "cost": cost})
}

// ChangeTeamPassword rotates the team's join secret.
// POST /api/teams/password
func ChangeTeamPassword(c *fiber.Ctx) error {
	username, err := middleware.GetUsername(c)
	if err != nil {
		return err
	}

	var req ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid request body"})
	}

	if err := teamService.ChangePassword(c.Context(), username, req.Old, req.New); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}

// SackMember throws a teammate out of the caller's team.
// POST /api/teams/sack
func SackMember(c *fiber.Ctx) error {
	username, err := middleware.GetUsername(c)
	if err != nil {
		return err
	}

	var req MemberActionRequest
	if err := c.BodyParser(&req); err != nil || req.Member == "" {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Member name is required"})
	}

	if err := teamService.SackMember(c.Context(), username, req.Member); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}

// ResurrectMember pays to bring a dead teammate back.
// POST /api/teams/resurrect
func ResurrectMember(c *fiber.Ctx) error {
	username, err := middleware.GetUsername(c)
	if err != nil {
		return err
	}

	var req MemberActionRequest
	if err := c.BodyParser(&req); err != nil || req.Member == "" {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Member name is required"})
	}

	cost, err := teamService.Resurrect(c.Context(), username, req.Member)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "cost": cost})
}

// GetRecruits lists unattached characters hanging around town, strongest
// first.
// GET /api/recruits
func GetRecruits(c *fiber.Ctx) error {
	candidates := registry.Recruitable(20)
	out := make([]memberView, 0, len(candidates))
	for _, a := range candidates {
		out = append(out, viewOf(a))
	}
	return c.JSON(fiber.Map{"success": true, "recruits": out})
}

// GetRankings lists every known team by total power.
// GET /api/teams/rankings
func GetRankings(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success":  true,
		"rankings": teamService.Rankings(c.Context()),
	})
}

// GetTeam returns one team's record and aggregated roster.
// GET /api/teams/:name
func GetTeam(c *fiber.Ctx) error {
	name := c.Params("name")

	info, roster, degraded, err := teamService.TeamStatus(c.Context(), name)
	if err != nil {
		return fail(c, err)
	}

	members := make([]memberView, 0, len(roster))
	for _, m := range roster {
		members = append(members, viewOf(m))
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"team":     info,
		"members":  members,
		"degraded": degraded,
	})
}
