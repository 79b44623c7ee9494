package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/binary-knight/usurper-reborn-sub009/models"
	"github.com/binary-knight/usurper-reborn-sub009/sim"
)

type teamFixture struct {
	backend  *fakeBackend
	registry *sim.Registry
	teams    *TeamService
}

func newTeamFixture(t *testing.T) *teamFixture {
	t.Helper()
	backend := newFakeBackend()
	registry := sim.NewRegistry()

	agents := []*sim.Agent{
		{Name: "Astrid", Level: 4, HP: 40, MaxHP: 40, Gold: 5000, Strength: 15, Defence: 12, Agility: 10},
		{Name: "Sven", Level: 3, HP: 30, MaxHP: 30, Gold: 500, Strength: 10, Defence: 10, Agility: 10, Location: "Inn"},
		{Name: "Olaf", Level: 2, HP: 20, MaxHP: 20, Gold: 100, Strength: 8, Defence: 8, Agility: 8, Location: "Inn"},
		{Name: "Erik", Level: 1, HP: 10, MaxHP: 10, Gold: 100, Strength: 5, Defence: 5, Agility: 5, Location: "Market"},
		{Name: "Leif", Level: 1, HP: 10, MaxHP: 10, Gold: 100, Strength: 5, Defence: 5, Agility: 5, Location: "Market"},
		{Name: "Gorm", Level: 1, HP: 10, MaxHP: 10, Gold: 100, Strength: 5, Defence: 5, Agility: 5, Location: "Market"},
	}
	for _, a := range agents {
		require.NoError(t, registry.Add(a))
	}

	roster := NewRosterService(registry, backend)
	teams := NewTeamService(backend, registry, roster, nil)
	return &teamFixture{backend: backend, registry: registry, teams: teams}
}

func TestCreateTeamChargesFoundingFee(t *testing.T) {
	f := newTeamFixture(t)
	ctx := context.Background()

	info, err := f.teams.CreateTeam(ctx, "Astrid", "Valkyries", "secret")
	require.NoError(t, err)
	require.True(t, info.Exists)
	require.Equal(t, "Valkyries", info.Name)

	// Level 4 founder pays the fee floor.
	astrid, _ := f.registry.Get("Astrid")
	require.Equal(t, int64(3000), astrid.Gold)
	require.Equal(t, "Valkyries", astrid.Team)

	stored, err := f.backend.FetchTeam(ctx, "valkyries")
	require.NoError(t, err)
	require.True(t, stored.Exists)
}

func TestCreateTeamRejectsDuplicateName(t *testing.T) {
	f := newTeamFixture(t)
	ctx := context.Background()

	_, err := f.teams.CreateTeam(ctx, "Astrid", "Valkyries", "")
	require.NoError(t, err)

	_, err = f.teams.CreateTeam(ctx, "Sven", "valkyries", "")
	require.ErrorIs(t, err, ErrNameTaken)
}

func TestCreateTeamValidation(t *testing.T) {
	f := newTeamFixture(t)
	ctx := context.Background()

	_, err := f.teams.CreateTeam(ctx, "Astrid", "   ", "pw")
	require.ErrorIs(t, err, ErrInvalidName)

	_, err = f.teams.CreateTeam(ctx, "Astrid", strings.Repeat("x", models.MaxTeamNameLen+1), "pw")
	require.ErrorIs(t, err, ErrInvalidName)

	_, err = f.teams.CreateTeam(ctx, "Astrid", "Fine", strings.Repeat("p", models.MaxTeamPasswordLen+1))
	require.ErrorIs(t, err, ErrInvalidName)
}

func TestCreateTeamNeedsTheFee(t *testing.T) {
	f := newTeamFixture(t)

	// Olaf has 100 gold against a 2000 fee.
	_, err := f.teams.CreateTeam(context.Background(), "Olaf", "Paupers", "")
	require.ErrorIs(t, err, ErrInsufficientPersonalGold)
}

func TestCreateTeamWhileAlreadyMember(t *testing.T) {
	f := newTeamFixture(t)
	ctx := context.Background()

	_, err := f.teams.CreateTeam(ctx, "Astrid", "Valkyries", "")
	require.NoError(t, err)

	_, err = f.teams.CreateTeam(ctx, "Astrid", "Second", "")
	require.ErrorIs(t, err, ErrAlreadyInTeam)
}

func TestJoinTeamPasswordAndCap(t *testing.T) {
	f := newTeamFixture(t)
	ctx := context.Background()

	_, err := f.teams.CreateTeam(ctx, "Astrid", "Valkyries", "secret")
	require.NoError(t, err)

	err = f.teams.JoinTeam(ctx, "Sven", "Valkyries", "wrong")
	require.ErrorIs(t, err, ErrWrongPassword)

	for _, name := range []string{"Sven", "Olaf", "Erik", "Leif"} {
		require.NoError(t, f.teams.JoinTeam(ctx, name, "Valkyries", "secret"))
	}

	// Astrid plus four joiners fills the roster.
	err = f.teams.JoinTeam(ctx, "Gorm", "Valkyries", "secret")
	require.ErrorIs(t, err, ErrTeamFull)
}

func TestConcurrentJoinsRespectTeamCap(t *testing.T) {
	f := newTeamFixture(t)
	ctx := context.Background()

	_, err := f.teams.CreateTeam(ctx, "Astrid", "Valkyries", "")
	require.NoError(t, err)
	for _, name := range []string{"Sven", "Olaf", "Erik"} {
		require.NoError(t, f.teams.JoinTeam(ctx, name, "Valkyries", ""))
	}

	// One open slot, two joiners racing for it.
	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for _, name := range []string{"Leif", "Gorm"} {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			errs <- f.teams.JoinTeam(ctx, name, "Valkyries", "")
		}(name)
	}
	wg.Wait()
	close(errs)

	var joined, full int
	for err := range errs {
		switch {
		case err == nil:
			joined++
		case errors.Is(err, ErrTeamFull):
			full++
		default:
			t.Fatalf("unexpected join error: %v", err)
		}
	}
	require.Equal(t, 1, joined)
	require.Equal(t, 1, full)

	roster, _, err := f.teams.roster.Members(ctx, "Valkyries")
	require.NoError(t, err)
	require.Len(t, roster, models.MaxTeamSize)
}

func TestConcurrentRecruitsRespectTeamCap(t *testing.T) {
	f := newTeamFixture(t)
	ctx := context.Background()

	_, err := f.teams.CreateTeam(ctx, "Astrid", "Valkyries", "")
	require.NoError(t, err)
	for _, name := range []string{"Sven", "Olaf", "Erik"} {
		require.NoError(t, f.teams.JoinTeam(ctx, name, "Valkyries", ""))
	}
	require.NoError(t, f.registry.CreditGold("Astrid", 100000))

	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for _, candidate := range []string{"Leif", "Gorm"} {
		wg.Add(1)
		go func(candidate string) {
			defer wg.Done()
			_, err := f.teams.Recruit(ctx, "Astrid", candidate)
			errs <- err
		}(candidate)
	}
	wg.Wait()
	close(errs)

	var hired, full int
	for err := range errs {
		switch {
		case err == nil:
			hired++
		case errors.Is(err, ErrTeamFull):
			full++
		default:
			t.Fatalf("unexpected recruit error: %v", err)
		}
	}
	require.Equal(t, 1, hired)
	require.Equal(t, 1, full)

	roster, _, err := f.teams.roster.Members(ctx, "Valkyries")
	require.NoError(t, err)
	require.Len(t, roster, models.MaxTeamSize)
}

func TestJoinUnknownTeam(t *testing.T) {
	f := newTeamFixture(t)

	err := f.teams.JoinTeam(context.Background(), "Sven", "Nothing", "")
	require.ErrorIs(t, err, ErrUnknownTeam)
}

func TestQuitLastMemberDissolvesTeam(t *testing.T) {
	f := newTeamFixture(t)
	ctx := context.Background()

	_, err := f.teams.CreateTeam(ctx, "Astrid", "Valkyries", "")
	require.NoError(t, err)
	require.NoError(t, f.teams.QuitTeam(ctx, "Astrid"))

	astrid, _ := f.registry.Get("Astrid")
	require.Empty(t, astrid.Team)

	info, err := f.backend.FetchTeam(ctx, "Valkyries")
	require.NoError(t, err)
	require.False(t, info.Exists)

	require.ErrorIs(t, f.teams.QuitTeam(ctx, "Astrid"), ErrNotInTeam)
}

func TestRecruitChargesCostAndAssigns(t *testing.T) {
	f := newTeamFixture(t)
	ctx := context.Background()

	_, err := f.teams.CreateTeam(ctx, "Astrid", "Valkyries", "")
	require.NoError(t, err)

	astridBefore, _ := f.registry.Get("Astrid")
	sven, _ := f.registry.Get("Sven")
	want := RecruitCost(sven, astridBefore)

	cost, err := f.teams.Recruit(ctx, "Astrid", "Sven")
	require.NoError(t, err)
	require.Equal(t, want, cost)

	astrid, _ := f.registry.Get("Astrid")
	require.Equal(t, astridBefore.Gold-cost, astrid.Gold)

	sven, _ = f.registry.Get("Sven")
	require.Equal(t, "Valkyries", sven.Team)
}

func TestRecruitTakenCandidate(t *testing.T) {
	f := newTeamFixture(t)
	ctx := context.Background()

	_, err := f.teams.CreateTeam(ctx, "Astrid", "Valkyries", "")
	require.NoError(t, err)
	require.NoError(t, f.teams.JoinTeam(ctx, "Sven", "Valkyries", ""))

	_, err = f.teams.Recruit(ctx, "Astrid", "Sven")
	require.ErrorIs(t, err, ErrAlreadyInTeam)
}

func TestChangePasswordVerifiesOldSecret(t *testing.T) {
	f := newTeamFixture(t)
	ctx := context.Background()

	_, err := f.teams.CreateTeam(ctx, "Astrid", "Valkyries", "old-pass")
	require.NoError(t, err)

	err = f.teams.ChangePassword(ctx, "Astrid", "nope", "new-pass")
	require.ErrorIs(t, err, ErrWrongPassword)

	require.NoError(t, f.teams.ChangePassword(ctx, "Astrid", "old-pass", "new-pass"))
	require.NoError(t, f.teams.JoinTeam(ctx, "Sven", "Valkyries", "new-pass"))
}

func TestSackMember(t *testing.T) {
	f := newTeamFixture(t)
	ctx := context.Background()

	_, err := f.teams.CreateTeam(ctx, "Astrid", "Valkyries", "")
	require.NoError(t, err)
	require.NoError(t, f.teams.JoinTeam(ctx, "Sven", "Valkyries", ""))

	require.ErrorIs(t, f.teams.SackMember(ctx, "Astrid", "Astrid"), ErrInvalidName)
	require.ErrorIs(t, f.teams.SackMember(ctx, "Astrid", "Olaf"), ErrNotInTeam)

	require.NoError(t, f.teams.SackMember(ctx, "Astrid", "Sven"))
	sven, _ := f.registry.Get("Sven")
	require.Empty(t, sven.Team)
}

func TestResurrectTeammate(t *testing.T) {
	f := newTeamFixture(t)
	ctx := context.Background()

	_, err := f.teams.CreateTeam(ctx, "Astrid", "Valkyries", "")
	require.NoError(t, err)
	require.NoError(t, f.teams.JoinTeam(ctx, "Sven", "Valkyries", ""))

	// Sven falls in battle.
	require.NoError(t, f.registry.Kill("Sven"))

	cost, err := f.teams.Resurrect(ctx, "Astrid", "Sven")
	require.NoError(t, err)
	require.Equal(t, int64(3000), cost)

	sven, _ := f.registry.Get("Sven")
	require.True(t, sven.Alive())
	require.Equal(t, sven.MaxHP/2, sven.HP)
}

func TestResurrectLivingMemberFails(t *testing.T) {
	f := newTeamFixture(t)
	ctx := context.Background()

	_, err := f.teams.CreateTeam(ctx, "Astrid", "Valkyries", "")
	require.NoError(t, err)
	require.NoError(t, f.teams.JoinTeam(ctx, "Sven", "Valkyries", ""))

	astridBefore, _ := f.registry.Get("Astrid")
	_, err = f.teams.Resurrect(ctx, "Astrid", "Sven")
	require.ErrorIs(t, err, sim.ErrNotDead)

	// The fee was refunded.
	astrid, _ := f.registry.Get("Astrid")
	require.Equal(t, astridBefore.Gold, astrid.Gold)
}

func TestRankingsMergeLiveAndPersisted(t *testing.T) {
	f := newTeamFixture(t)
	ctx := context.Background()

	_, err := f.teams.CreateTeam(ctx, "Astrid", "Valkyries", "")
	require.NoError(t, err)

	// A persisted-only team with one offline player.
	require.NoError(t, f.backend.CreateTeam(ctx, "Old Guard", "", "Haldor"))
	require.NoError(t, f.backend.CreatePlayer(ctx, &models.Player{
		Name: "Haldor", Level: 8, Strength: 20, Defence: 20, Team: "Old Guard",
	}))

	rankings := f.teams.Rankings(ctx)
	require.Len(t, rankings, 2)

	byName := make(map[string]TeamRanking)
	for _, r := range rankings {
		byName[r.Name] = r
	}
	require.Contains(t, byName, "Valkyries")
	require.Contains(t, byName, "Old Guard")
	require.Equal(t, int64(8+20+20), byName["Old Guard"].TotalPower)
	require.Equal(t, 1, byName["Old Guard"].Members)
	require.InDelta(t, 4.0, byName["Valkyries"].AverageLevel, 0.001)
	require.InDelta(t, 8.0, byName["Old Guard"].AverageLevel, 0.001)
}

func TestTeamStatusAggregatesRoster(t *testing.T) {
	f := newTeamFixture(t)
	ctx := context.Background()

	_, err := f.teams.CreateTeam(ctx, "Astrid", "Valkyries", "")
	require.NoError(t, err)
	require.NoError(t, f.teams.JoinTeam(ctx, "Sven", "Valkyries", ""))

	info, roster, degraded, err := f.teams.TeamStatus(ctx, "Valkyries")
	require.NoError(t, err)
	require.False(t, degraded)
	require.True(t, info.Exists)
	require.Equal(t, 2, info.MemberCount)
	require.Len(t, roster, 2)
	// Strongest first.
	require.Equal(t, "Astrid", roster[0].DisplayName())

	_, _, _, err = f.teams.TeamStatus(ctx, "Nothing")
	require.ErrorIs(t, err, ErrUnknownTeam)
}
