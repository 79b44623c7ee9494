// services/teams.go - team membership orchestration
package services

import (
	"context"
	"sort"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/binary-knight/usurper-reborn-sub009/models"
	"github.com/binary-knight/usurper-reborn-sub009/sim"
)

// TeamService orchestrates team membership: founding, joining, quitting,
// recruiting and the smaller member-management verbs. It spans the live
// agent registry and the persisted player backend and keeps both views
// consistent.
type TeamService struct {
	backend  Backend
	registry *sim.Registry
	roster   *RosterService
	locks    *teamLocks
	news     NewsPublisher
}

func NewTeamService(backend Backend, registry *sim.Registry, roster *RosterService, news NewsPublisher) *TeamService {
	return &TeamService{
		backend:  backend,
		registry: registry,
		roster:   roster,
		locks:    newTeamLocks(),
		news:     news,
	}
}

// actor bundles everything an operation needs to know about who is acting:
// their member view, their purse and which team they currently belong to.
type actor struct {
	member models.Member
	source PaymentSource
	team   string
}

// resolveActor finds name among the live agents first, falling back to the
// persisted player table.
func (s *TeamService) resolveActor(ctx context.Context, name string) (*actor, error) {
	if agent, ok := s.registry.Get(name); ok {
		return &actor{
			member: agent,
			source: AgentSource(s.registry, agent.Name),
			team:   agent.Team,
		}, nil
	}
	player, err := s.backend.FetchPlayer(ctx, name)
	if err != nil {
		return nil, ErrBackendUnavailable
	}
	if player == nil {
		return nil, ErrInvalidName
	}
	return &actor{
		member: player.Record(),
		source: PersonalSource(s.backend, player.Name),
		team:   player.Team,
	}, nil
}

// setMembership points the actor at a team, or at no team when team is
// empty. Live agents update in the registry; persisted players in the
// backend. A live agent that also has a player row gets both updated so
// the views cannot drift.
func (s *TeamService) setMembership(ctx context.Context, name, oldTeam, newTeam string) error {
	if agent, ok := s.registry.Get(name); ok {
		if newTeam == "" {
			if err := s.registry.RemoveFromTeam(agent.Name, oldTeam); err != nil {
				return err
			}
		} else if err := s.registry.AssignTeam(agent.Name, newTeam); err != nil {
			return err
		}
	}
	player, err := s.backend.FetchPlayer(ctx, name)
	if err != nil {
		return ErrBackendUnavailable
	}
	if player != nil {
		if err := s.backend.SetPlayerTeam(ctx, player.Name, newTeam); err != nil {
			return ErrBackendUnavailable
		}
	}
	return nil
}

// syncMemberCount writes the current aggregated roster size for team to the
// backend. An empty roster deactivates the team record.
func (s *TeamService) syncMemberCount(ctx context.Context, team string) {
	roster, _, err := s.roster.Members(ctx, team)
	if err != nil {
		return
	}
	_ = s.backend.SetTeamMemberCount(ctx, team, len(roster))
}

// Lookup resolves a character by name into its member view, current team
// and personal purse. Handlers use it to act on behalf of the caller.
func (s *TeamService) Lookup(ctx context.Context, name string) (models.Member, string, PaymentSource, error) {
	a, err := s.resolveActor(ctx, name)
	if err != nil {
		return nil, "", nil, err
	}
	return a.member, a.team, a.source, nil
}

func validTeamName(name string) bool {
	name = strings.TrimSpace(name)
	return name != "" && len(name) <= models.MaxTeamNameLen
}

// CreateTeam founds a new team. The founder pays the founding fee from
// personal gold and becomes the first member. An empty password leaves the
// team open to anyone.
func (s *TeamService) CreateTeam(ctx context.Context, founderName, teamName, password string) (*models.TeamInfo, error) {
	teamName = strings.TrimSpace(teamName)
	if !validTeamName(teamName) {
		return nil, ErrInvalidName
	}
	if len(password) > models.MaxTeamPasswordLen {
		return nil, ErrInvalidName
	}

	a, err := s.resolveActor(ctx, founderName)
	if err != nil {
		return nil, err
	}
	if a.team != "" {
		return nil, ErrAlreadyInTeam
	}

	if s.registry.TeamNameTaken(teamName) {
		return nil, ErrNameTaken
	}
	taken, err := s.backend.IsNameTaken(ctx, teamName)
	if err != nil {
		return nil, ErrBackendUnavailable
	}
	if taken {
		return nil, ErrNameTaken
	}

	hash := ""
	if password != "" {
		h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		hash = string(h)
	}

	fee := FoundingFee(a.member.MemberLevel())
	if err := a.source.Debit(ctx, fee); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(teamName)
	defer unlock()

	if err := s.backend.CreateTeam(ctx, teamName, hash, a.member.DisplayName()); err != nil {
		a.source.Refund(ctx, fee)
		return nil, ErrBackendUnavailable
	}
	if err := s.setMembership(ctx, founderName, "", teamName); err != nil {
		a.source.Refund(ctx, fee)
		return nil, err
	}

	s.publish(a.member.DisplayName()+" has founded the team "+teamName+"!", "team")
	return &models.TeamInfo{Exists: true, Name: teamName, MemberCount: 1}, nil
}

// JoinTeam adds the actor to an existing team, checking the password and
// the size cap.
func (s *TeamService) JoinTeam(ctx context.Context, playerName, teamName, password string) error {
	a, err := s.resolveActor(ctx, playerName)
	if err != nil {
		return err
	}
	if a.team != "" {
		return ErrAlreadyInTeam
	}

	info, err := s.backend.FetchTeam(ctx, teamName)
	if err != nil {
		return ErrBackendUnavailable
	}
	if !info.Exists && !s.registry.TeamNameTaken(teamName) {
		return ErrUnknownTeam
	}
	if info.PasswordHash != "" {
		if bcrypt.CompareHashAndPassword([]byte(info.PasswordHash), []byte(password)) != nil {
			return ErrWrongPassword
		}
	}

	unlock := s.locks.Lock(teamName)
	defer unlock()

	// The cap check must see every membership committed under this lock,
	// so the roster is read after acquisition.
	roster, _, err := s.roster.Members(ctx, teamName)
	if err != nil {
		return err
	}
	if len(roster) >= models.MaxTeamSize {
		return ErrTeamFull
	}
	if err := s.setMembership(ctx, playerName, "", teamName); err != nil {
		return err
	}

	s.syncMemberCount(ctx, teamName)
	s.publish(a.member.DisplayName()+" has joined "+teamName+".", "team")
	return nil
}

// QuitTeam removes the actor from their team. The last member leaving
// dissolves the team record.
func (s *TeamService) QuitTeam(ctx context.Context, playerName string) error {
	a, err := s.resolveActor(ctx, playerName)
	if err != nil {
		return err
	}
	if a.team == "" {
		return ErrNotInTeam
	}

	unlock := s.locks.Lock(a.team)
	defer unlock()

	if err := s.setMembership(ctx, playerName, a.team, ""); err != nil {
		return err
	}

	s.syncMemberCount(ctx, a.team)
	s.publish(a.member.DisplayName()+" has left "+a.team+".", "team")
	return nil
}

// Recruit hires candidate into the recruiter's team. The recruiter pays
// the recruitment cost from personal gold.
func (s *TeamService) Recruit(ctx context.Context, recruiterName, candidateName string) (cost int64, err error) {
	recruiter, err := s.resolveActor(ctx, recruiterName)
	if err != nil {
		return 0, err
	}
	if recruiter.team == "" {
		return 0, ErrNotInTeam
	}
	candidate, err := s.resolveActor(ctx, candidateName)
	if err != nil {
		return 0, err
	}
	if candidate.team != "" {
		return 0, ErrAlreadyInTeam
	}

	cost = RecruitCost(candidate.member, recruiter.member)
	if err := recruiter.source.Debit(ctx, cost); err != nil {
		return cost, err
	}

	unlock := s.locks.Lock(recruiter.team)
	defer unlock()

	roster, _, err := s.roster.Members(ctx, recruiter.team)
	if err != nil {
		recruiter.source.Refund(ctx, cost)
		return cost, err
	}
	if len(roster) >= models.MaxTeamSize {
		recruiter.source.Refund(ctx, cost)
		return cost, ErrTeamFull
	}
	if err := s.setMembership(ctx, candidateName, "", recruiter.team); err != nil {
		recruiter.source.Refund(ctx, cost)
		return cost, err
	}

	s.syncMemberCount(ctx, recruiter.team)
	s.publish(recruiter.member.DisplayName()+" has recruited "+candidate.member.DisplayName()+
		" into "+recruiter.team+".", "team")
	return cost, nil
}

// ChangePassword rotates the team's join secret after verifying the old
// one. Teams created without a password accept any old value.
func (s *TeamService) ChangePassword(ctx context.Context, playerName, oldPassword, newPassword string) error {
	if len(newPassword) > models.MaxTeamPasswordLen {
		return ErrInvalidName
	}
	a, err := s.resolveActor(ctx, playerName)
	if err != nil {
		return err
	}
	if a.team == "" {
		return ErrNotInTeam
	}

	info, err := s.backend.FetchTeam(ctx, a.team)
	if err != nil {
		return ErrBackendUnavailable
	}
	if info.Exists && info.PasswordHash != "" {
		if bcrypt.CompareHashAndPassword([]byte(info.PasswordHash), []byte(oldPassword)) != nil {
			return ErrWrongPassword
		}
	}

	hash := ""
	if newPassword != "" {
		h, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		hash = string(h)
	}
	if err := s.backend.SetTeamPassword(ctx, a.team, hash); err != nil {
		return ErrBackendUnavailable
	}
	return nil
}

// SackMember throws a teammate out of the actor's team.
func (s *TeamService) SackMember(ctx context.Context, playerName, targetName string) error {
	a, err := s.resolveActor(ctx, playerName)
	if err != nil {
		return err
	}
	if a.team == "" {
		return ErrNotInTeam
	}
	if strings.EqualFold(playerName, targetName) {
		return ErrInvalidName
	}
	target, err := s.resolveActor(ctx, targetName)
	if err != nil {
		return err
	}
	if !strings.EqualFold(target.team, a.team) {
		return ErrNotInTeam
	}

	unlock := s.locks.Lock(a.team)
	defer unlock()

	if err := s.setMembership(ctx, targetName, a.team, ""); err != nil {
		return err
	}

	s.syncMemberCount(ctx, a.team)
	s.publish(target.member.DisplayName()+" has been thrown out of "+a.team+".", "team")
	return nil
}

// Resurrect brings a dead live teammate back at half health. The payer
// covers level x 1000 gold from personal funds.
func (s *TeamService) Resurrect(ctx context.Context, playerName, targetName string) (cost int64, err error) {
	a, err := s.resolveActor(ctx, playerName)
	if err != nil {
		return 0, err
	}
	if a.team == "" {
		return 0, ErrNotInTeam
	}
	target, ok := s.registry.Get(targetName)
	if !ok {
		return 0, ErrInvalidName
	}
	if !strings.EqualFold(target.Team, a.team) {
		return 0, ErrNotInTeam
	}

	cost = ResurrectionCost(target.MemberLevel())
	if err := a.source.Debit(ctx, cost); err != nil {
		return cost, err
	}
	if err := s.registry.Resurrect(target.Name); err != nil {
		a.source.Refund(ctx, cost)
		return cost, err
	}

	s.publish(target.Name+" has been resurrected by "+a.member.DisplayName()+"!", "team")
	return cost, nil
}

// TeamRanking is one row of the town's team standings.
type TeamRanking struct {
	Name         string  `json:"name"`
	Members      int     `json:"members"`
	TotalPower   int64   `json:"total_power"`
	AverageLevel float64 `json:"average_level"`
	ControlsTurf bool    `json:"controls_turf"`
	DaysHeld     int     `json:"days_held"`
}

// Rankings merges live sim power with persisted team records into one
// standings table, strongest first. Backend trouble degrades to the live
// view rather than failing.
func (s *TeamService) Rankings(ctx context.Context) []TeamRanking {
	rows := make(map[string]*TeamRanking)

	for _, p := range s.registry.Powers() {
		rows[strings.ToLower(p.Team)] = &TeamRanking{
			Name:         p.Team,
			Members:      p.Members,
			TotalPower:   p.TotalPower,
			AverageLevel: p.AverageLevel,
		}
	}

	teams, err := s.backend.ListTeams(ctx)
	if err == nil {
		for _, info := range teams {
			key := strings.ToLower(info.Name)
			row, ok := rows[key]
			if !ok {
				row = &TeamRanking{Name: info.Name}
				rows[key] = row
				s.fillPersistedPower(ctx, row)
			}
			row.ControlsTurf = info.ControlsTurf
			row.DaysHeld = info.DaysHeld
		}
	}

	out := make([]TeamRanking, 0, len(rows))
	for _, row := range rows {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalPower != out[j].TotalPower {
			return out[i].TotalPower > out[j].TotalPower
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// fillPersistedPower scores a team with no live presence from its player
// records.
func (s *TeamService) fillPersistedPower(ctx context.Context, row *TeamRanking) {
	records, err := s.backend.FetchTeamMembers(ctx, row.Name)
	if err != nil || len(records) == 0 {
		return
	}
	var levels int
	for _, rec := range records {
		row.TotalPower += int64(rec.Level + rec.Strength + rec.Defence)
		levels += rec.Level
	}
	row.Members = len(records)
	row.AverageLevel = float64(levels) / float64(len(records))
}

// TeamStatus returns the persisted team record plus the aggregated roster.
func (s *TeamService) TeamStatus(ctx context.Context, teamName string) (models.TeamInfo, []models.Member, bool, error) {
	info, err := s.backend.FetchTeam(ctx, teamName)
	if err != nil {
		info = models.TeamInfo{Name: teamName}
	}
	roster, degraded, rerr := s.roster.Members(ctx, teamName)
	if rerr != nil {
		return info, nil, true, rerr
	}
	if !info.Exists && len(roster) == 0 {
		return info, nil, degraded, ErrUnknownTeam
	}
	if !info.Exists {
		info.Exists = true
		info.Name = teamName
	}
	info.MemberCount = len(roster)
	return info, roster, degraded, nil
}

func (s *TeamService) publish(message, category string) {
	if s.news != nil {
		s.news.Publish(message, category)
	}
}
