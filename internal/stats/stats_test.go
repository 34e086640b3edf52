package stats_test

import (
	"context"
	"testing"
	"time"

	"github.com/scrimcore/scrimcore/internal/database"
	"github.com/scrimcore/scrimcore/internal/identity"
	"github.com/scrimcore/scrimcore/internal/scrim"
	"github.com/scrimcore/scrimcore/internal/stats"
	"github.com/scrimcore/scrimcore/pkg/scrimlog"
	"github.com/stretchr/testify/require"
)

type fakeStatsRepository struct {
	bundles  []stats.MapBundle
	reviews  map[int]scrim.Review
	gotLimit int
}

func (f *fakeStatsRepository) RecentMaps(_ context.Context, teamID *int, limit int, cutoff *time.Time) ([]stats.MapBundle, error) {
	f.gotLimit = limit

	selected := []stats.MapBundle{}

	for _, bundle := range f.bundles {
		if teamID != nil && (bundle.Scrim.TeamID == nil || *bundle.Scrim.TeamID != *teamID) {
			continue
		}

		if cutoff != nil && bundle.Scrim.ScrimDate.Before(*cutoff) {
			continue
		}

		if limit > 0 && len(selected) == limit {
			break
		}

		selected = append(selected, bundle)
	}

	return selected, nil
}

func (f *fakeStatsRepository) LatestReviews(_ context.Context, _ []int) (map[int]scrim.Review, error) {
	if f.reviews == nil {
		return map[int]scrim.Review{}, nil
	}

	return f.reviews, nil
}

type fakeIdentityRepository struct {
	teams map[int]identity.Team
}

func (f fakeIdentityRepository) GetTeam(_ context.Context, teamID int) (identity.Team, error) {
	team, found := f.teams[teamID]
	if !found {
		return identity.Team{}, database.ErrNoResult
	}

	return team, nil
}

func (f fakeIdentityRepository) Teams(_ context.Context) ([]identity.Team, error) { return nil, nil }

func (f fakeIdentityRepository) SaveTeam(_ context.Context, _ *identity.Team) error { return nil }

func (f fakeIdentityRepository) GetPlayer(_ context.Context, _ int) (identity.PlayerIdentity, error) {
	return identity.PlayerIdentity{}, database.ErrNoResult
}

func (f fakeIdentityRepository) Players(_ context.Context, _ *int) ([]identity.PlayerIdentity, error) {
	return nil, nil
}

func (f fakeIdentityRepository) SavePlayer(_ context.Context, _ *identity.PlayerIdentity) error {
	return nil
}

func (f fakeIdentityRepository) DistinctAliases(_ context.Context) ([]identity.Alias, error) {
	return nil, nil
}

func mustBundle(t *testing.T, mapID int, scrimID int, teamID *int, rawText string, roster []scrim.RosterEntry) stats.MapBundle {
	t.Helper()

	gameLog, errParse := scrimlog.Parse(rawText)
	require.NoError(t, errParse)

	events, errEncode := scrim.EncodeEvents(gameLog)
	require.NoError(t, errEncode)

	return stats.MapBundle{
		Scrim: scrim.Scrim{
			ScrimID:   scrimID,
			Name:      "scrim",
			ScrimDate: time.Date(2026, 8, 20, 19, 0, 0, 0, time.UTC),
			TeamID:    teamID,
		},
		Record: scrim.MapRecord{
			MapID:   mapID,
			ScrimID: scrimID,
			MapName: gameLog.MatchStart.MapName,
			MapType: gameLog.MatchStart.MapType,
			Team1:   gameLog.MatchStart.Team1,
			Team2:   gameLog.MatchStart.Team2,
		},
		Events: events,
		Roster: roster,
	}
}

func newTestStats(repo stats.Repository) stats.Stats {
	idents := identity.NewIdentities(fakeIdentityRepository{
		teams: map[int]identity.Team{1: {TeamID: 1, TeamName: "TeamX"}},
	})

	return stats.NewStats(repo, idents)
}

func TestParseRange(t *testing.T) {
	parsed, errParse := stats.ParseRange("last20", false)
	require.NoError(t, errParse)
	require.Equal(t, stats.RangeLast20, parsed)

	parsed, errParse = stats.ParseRange("", false)
	require.NoError(t, errParse)
	require.Equal(t, stats.RangeAll, parsed)

	_, errParse = stats.ParseRange("last9000", false)
	require.ErrorIs(t, errParse, stats.ErrInvalidRange)

	// last10 is only valid on the player and hero views.
	_, errParse = stats.ParseRange("last10", false)
	require.ErrorIs(t, errParse, stats.ErrInvalidRange)

	parsed, errParse = stats.ParseRange("last10", true)
	require.NoError(t, errParse)
	require.Equal(t, 10, parsed.MapLimit())
}

const escortWin = `match_start,MapA,Escort,TeamX,TeamY
round_start,1
player_stat,1,TeamX,Stray,Tracer,10,6,2,5000.0,0
player_stat,1,TeamY,Kodiak,Reinhardt,4,2,6,2500.0,0
round_end,1,1,0
match_end,1,3,1
`

const controlEstimated = `match_start,MapB,Control,TeamX,TeamY
round_start,1
player_stat,1,TeamX,Stray,Tracer,5,3,1,2000.0,0
round_end,1,1,0
round_end,2,2,1
`

const hybridGap = `match_start,MapC,Hybrid,TeamX,TeamY
round_start,1
player_stat,1,TeamX,Stray,Tracer,1,1,0,400.0,0
`

func TestWindowingCountsMapsNotScrims(t *testing.T) {
	teamID := 1

	// One scrim, three maps. A two map window must only see two maps.
	repo := &fakeStatsRepository{bundles: []stats.MapBundle{
		mustBundle(t, 3, 1, &teamID, hybridGap, nil),
		mustBundle(t, 2, 1, &teamID, controlEstimated, nil),
		mustBundle(t, 1, 1, &teamID, escortWin, nil),
	}}

	statsUsecase := newTestStats(repo)

	view, errView := statsUsecase.MapTypeView(context.Background(), stats.ViewQuery{Range: stats.RangeLast20})
	require.NoError(t, errView)
	require.Equal(t, 20, repo.gotLimit)

	total := 0
	for _, tally := range view {
		total += tally.Maps
	}

	require.Equal(t, 3, total)

	// Force a window of two through the short range on the player view.
	players, errPlayers := statsUsecase.PlayerView(context.Background(), stats.ViewQuery{Range: stats.RangeLast10})
	require.NoError(t, errPlayers)
	require.Equal(t, 10, repo.gotLimit)

	repo.bundles = repo.bundles[:2]

	players, errPlayers = statsUsecase.PlayerView(context.Background(), stats.ViewQuery{Range: stats.RangeLast10})
	require.NoError(t, errPlayers)
	require.Len(t, players, 1)
	require.Equal(t, 2, players[0].Maps, "two maps of one scrim contribute two units")
}

func TestOpponentViewEndToEnd(t *testing.T) {
	teamID := 1
	repo := &fakeStatsRepository{bundles: []stats.MapBundle{
		mustBundle(t, 2, 1, &teamID, controlEstimated, nil),
		mustBundle(t, 1, 1, &teamID, escortWin, nil),
	}}

	statsUsecase := newTestStats(repo)

	view, errView := statsUsecase.OpponentView(context.Background(), stats.ViewQuery{
		Range:  stats.RangeAll,
		TeamID: &teamID,
	})
	require.NoError(t, errView)

	require.Equal(t, 1, view.TotalScrims, "one scrim even though it has two maps")
	require.Equal(t, 1, view.UniqueOpponents)
	require.Len(t, view.Opponents, 1)

	opponent := view.Opponents[0]
	require.Equal(t, "TeamY", opponent.Opponent)
	require.Equal(t, 1, opponent.Scrims)
	require.Equal(t, 2, opponent.Maps)
	require.Equal(t, 2, opponent.Wins)

	typeWins := map[string]int{}
	for _, tally := range opponent.MapTypes {
		typeWins[tally.MapType] = tally.Wins
	}

	require.Equal(t, map[string]int{"Escort": 1, "Control": 1}, typeWins)
}

func TestOpponentViewLatestReview(t *testing.T) {
	teamID := 1
	repo := &fakeStatsRepository{
		bundles: []stats.MapBundle{mustBundle(t, 1, 1, &teamID, escortWin, nil)},
		reviews: map[int]scrim.Review{
			1: {ReviewID: 5, ScrimID: 1, Notes: "strong dive response", Rating: "good", CreatedOn: time.Now()},
		},
	}

	view, errView := newTestStats(repo).OpponentView(context.Background(), stats.ViewQuery{Range: stats.RangeAll})
	require.NoError(t, errView)
	require.Equal(t, "strong dive response", view.Opponents[0].LatestNotes)
	require.Equal(t, "good", view.Opponents[0].LatestRating)
}

func TestMapTypeViewZeroDenominator(t *testing.T) {
	teamID := 1

	// The Hybrid map has no outcome data at all, a valid gap state.
	repo := &fakeStatsRepository{bundles: []stats.MapBundle{
		mustBundle(t, 1, 1, &teamID, hybridGap, nil),
	}}

	view, errView := newTestStats(repo).MapTypeView(context.Background(), stats.ViewQuery{Range: stats.RangeAll})
	require.NoError(t, errView)
	require.Len(t, view, 1)
	require.Equal(t, "Hybrid", view[0].MapType)
	require.Equal(t, 1, view[0].Maps)
	require.Equal(t, 0, view[0].Wins)
	require.InDelta(t, 0.0, view[0].WinRate, 0.0001)
}

func TestMapTypeViewSortedByWinRate(t *testing.T) {
	teamID := 1
	repo := &fakeStatsRepository{bundles: []stats.MapBundle{
		mustBundle(t, 3, 2, &teamID, hybridGap, nil),
		mustBundle(t, 2, 1, &teamID, controlEstimated, nil),
		mustBundle(t, 1, 1, &teamID, escortWin, nil),
	}}

	view, errView := newTestStats(repo).MapTypeView(context.Background(), stats.ViewQuery{Range: stats.RangeAll})
	require.NoError(t, errView)
	require.Len(t, view, 3)
	require.Equal(t, "Hybrid", view[2].MapType, "zero win rate sorts last")
}

func TestPlayerViewMergesAliases(t *testing.T) {
	teamID := 1
	playerID := 10

	first := mustBundle(t, 1, 1, &teamID, escortWin, []scrim.RosterEntry{
		{MapID: 1, TeamName: "TeamX", RawName: "Stray", PlayerID: &playerID},
	})

	aliased := `match_start,MapB,Control,TeamX,TeamY
round_start,1
player_stat,1,TeamX,St4y,Tracer,5,3,1,2000.0,0
round_end,1,1,0
`

	second := mustBundle(t, 2, 2, &teamID, aliased, []scrim.RosterEntry{
		{MapID: 2, TeamName: "TeamX", RawName: "St4y", PlayerID: &playerID},
	})

	repo := &fakeStatsRepository{bundles: []stats.MapBundle{second, first}}

	players, errPlayers := newTestStats(repo).PlayerView(context.Background(), stats.ViewQuery{
		Range:  stats.RangeAll,
		TeamID: &teamID,
	})
	require.NoError(t, errPlayers)
	require.Len(t, players, 1, "both aliases resolve to the same identity")
	require.Equal(t, 15, players[0].Eliminations)
	require.Equal(t, 2, players[0].Maps)
	require.Equal(t, "Tracer", players[0].MostPlayedHero)
}

func TestPlayerViewTeamScopeExcludesOpponents(t *testing.T) {
	teamID := 1
	repo := &fakeStatsRepository{bundles: []stats.MapBundle{
		mustBundle(t, 1, 1, &teamID, escortWin, nil),
	}}

	scoped, errScoped := newTestStats(repo).PlayerView(context.Background(), stats.ViewQuery{
		Range:  stats.RangeAll,
		TeamID: &teamID,
	})
	require.NoError(t, errScoped)
	require.Len(t, scoped, 1)
	require.Equal(t, "Stray", scoped[0].Player)

	unscoped, errUnscoped := newTestStats(repo).PlayerView(context.Background(), stats.ViewQuery{Range: stats.RangeAll})
	require.NoError(t, errUnscoped)
	require.Len(t, unscoped, 2)
}

func TestHeroViewRates(t *testing.T) {
	teamID := 1
	repo := &fakeStatsRepository{bundles: []stats.MapBundle{
		mustBundle(t, 1, 1, &teamID, escortWin, nil),
	}}

	heroes, errHeroes := newTestStats(repo).HeroView(context.Background(), stats.ViewQuery{Range: stats.RangeAll})
	require.NoError(t, errHeroes)
	require.Len(t, heroes, 2)

	require.Equal(t, "Tracer", heroes[0].Hero)
	require.Equal(t, 10, heroes[0].Eliminations)
	require.Equal(t, 1, heroes[0].Rounds)
	require.InDelta(t, 10.0, heroes[0].ElimsPerRound, 0.0001)
	require.InDelta(t, 5000.0, heroes[0].DamagePerRound, 0.0001)
}

func TestPlayerDetailTrend(t *testing.T) {
	teamID := 1
	repo := &fakeStatsRepository{bundles: []stats.MapBundle{
		mustBundle(t, 2, 1, &teamID, controlEstimated, nil),
		mustBundle(t, 1, 1, &teamID, escortWin, nil),
	}}

	detail, errDetail := newTestStats(repo).PlayerDetail(context.Background(), stats.ViewQuery{Range: stats.RangeAll}, "Stray")
	require.NoError(t, errDetail)
	require.Equal(t, "Stray", detail.Player)
	require.Len(t, detail.TrendData, 2)
	require.Equal(t, 15, detail.Career.Eliminations)
	require.Equal(t, "MapB", detail.TrendData[0].MapName)
}

func TestHeroDetailTopPlayers(t *testing.T) {
	teamID := 1
	repo := &fakeStatsRepository{bundles: []stats.MapBundle{
		mustBundle(t, 1, 1, &teamID, escortWin, nil),
	}}

	detail, errDetail := newTestStats(repo).HeroDetail(context.Background(), stats.ViewQuery{Range: stats.RangeAll}, "Tracer")
	require.NoError(t, errDetail)
	require.Equal(t, 10, detail.Career.Eliminations)
	require.Len(t, detail.TopPlayers, 1)
	require.Equal(t, "Stray", detail.TopPlayers[0].Player)
}

func TestAggregationIdempotent(t *testing.T) {
	teamID := 1
	repo := &fakeStatsRepository{bundles: []stats.MapBundle{
		mustBundle(t, 2, 1, &teamID, controlEstimated, nil),
		mustBundle(t, 1, 1, &teamID, escortWin, nil),
	}}

	statsUsecase := newTestStats(repo)
	query := stats.ViewQuery{Range: stats.RangeAll, TeamID: &teamID}

	first, errFirst := statsUsecase.OpponentView(context.Background(), query)
	require.NoError(t, errFirst)

	second, errSecond := statsUsecase.OpponentView(context.Background(), query)
	require.NoError(t, errSecond)

	require.Equal(t, first, second)
}
