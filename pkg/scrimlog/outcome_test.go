package scrimlog

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int {
	return &v
}

func TestReconcileAuthoritative(t *testing.T) {
	gameLog := &GameLog{
		MatchStart: MatchStartEvt{MapName: "Junkertown", MapType: Escort, Team1: "A", Team2: "B"},
		MatchEnd:   &MatchEndEvt{RoundNum: 2, Team1Score: 3, Team2Score: 1},
		// Conflicting round data must be ignored when match_end is present.
		RoundEnds: []RoundEndEvt{{RoundNum: 2, Team1Score: 9, Team2Score: 9}},
	}

	outcome := Reconcile(gameLog)
	require.Equal(t, intPtr(3), outcome.Team1Score)
	require.Equal(t, intPtr(1), outcome.Team2Score)
	require.Equal(t, TierAuthoritative, outcome.Tier)
	require.Equal(t, Side1, outcome.Winner)
	require.Equal(t, "A", outcome.WinnerName(gameLog.MatchStart))
}

func TestReconcileRoundFallback(t *testing.T) {
	gameLog := &GameLog{
		MatchStart: MatchStartEvt{MapName: "Ilios", MapType: Control, Team1: "A", Team2: "B"},
		RoundEnds: []RoundEndEvt{
			{RoundNum: 1, Team1Score: 1, Team2Score: 0},
			{RoundNum: 3, Team1Score: 1, Team2Score: 2},
			{RoundNum: 2, Team1Score: 1, Team2Score: 1},
		},
	}

	// Highest round number wins, not input order.
	outcome := Reconcile(gameLog)
	require.Equal(t, intPtr(1), outcome.Team1Score)
	require.Equal(t, intPtr(2), outcome.Team2Score)
	require.Equal(t, TierEstimated, outcome.Tier)
	require.Equal(t, Side2, outcome.Winner)
}

func TestReconcileProgressHeuristic(t *testing.T) {
	gameLog := &GameLog{
		MatchStart: MatchStartEvt{MapName: "Junkertown", MapType: Escort, Team1: "A", Team2: "B"},
		PayloadProgress: []PayloadProgressEvt{
			{RoundNum: 1, Team: "A", Progress: 75.5},
			{RoundNum: 1, Team: "B", Progress: 60.0},
			{RoundNum: 2, Team: "A", Progress: 42.0},
			{RoundNum: 2, Team: "B", Progress: 88.1},
		},
	}

	outcome := Reconcile(gameLog)
	require.Equal(t, intPtr(1), outcome.Team1Score)
	require.Equal(t, intPtr(1), outcome.Team2Score)
	require.Equal(t, TierEstimated, outcome.Tier)
	require.Equal(t, SideNone, outcome.Winner)
}

func TestReconcileProgressTie(t *testing.T) {
	gameLog := &GameLog{
		MatchStart: MatchStartEvt{MapName: "Junkertown", MapType: Escort, Team1: "A", Team2: "B"},
		PayloadProgress: []PayloadProgressEvt{
			{RoundNum: 1, Team: "A", Progress: 50.0},
			{RoundNum: 1, Team: "B", Progress: 50.0},
			{RoundNum: 2, Team: "A", Progress: 33.3},
			{RoundNum: 2, Team: "B", Progress: 33.3},
		},
	}

	// Tied rounds award neither side.
	outcome := Reconcile(gameLog)
	require.Equal(t, intPtr(0), outcome.Team1Score)
	require.Equal(t, intPtr(0), outcome.Team2Score)
	require.Equal(t, TierEstimated, outcome.Tier)
	require.Equal(t, SideNone, outcome.Winner)
	require.Empty(t, outcome.WinnerName(gameLog.MatchStart))
}

func TestReconcileProgressSkippedOffEscort(t *testing.T) {
	gameLog := &GameLog{
		MatchStart: MatchStartEvt{MapName: "Ilios", MapType: Control, Team1: "A", Team2: "B"},
		PayloadProgress: []PayloadProgressEvt{
			{RoundNum: 1, Team: "A", Progress: 99.0},
		},
	}

	outcome := Reconcile(gameLog)
	require.Nil(t, outcome.Team1Score)
	require.Nil(t, outcome.Team2Score)
}

func TestReconcileProgressNoneAttributable(t *testing.T) {
	gameLog := &GameLog{
		MatchStart: MatchStartEvt{MapName: "Junkertown", MapType: Escort, Team1: "A", Team2: "B"},
		PayloadProgress: []PayloadProgressEvt{
			// Team matches neither recorded side.
			{RoundNum: 1, Team: "C", Progress: 64.0},
			// Round number outside the two Escort rounds.
			{RoundNum: 7, Team: "A", Progress: 80.0},
		},
	}

	// Observations that cannot be attributed to a side are not scoring data,
	// the map stays in the gap state rather than becoming a 0-0 draw.
	outcome := Reconcile(gameLog)
	require.Nil(t, outcome.Team1Score)
	require.Nil(t, outcome.Team2Score)
	require.Empty(t, outcome.Tier)
	require.Equal(t, SideNone, outcome.Winner)
}

func TestReconcileGap(t *testing.T) {
	gameLog := &GameLog{
		MatchStart:  MatchStartEvt{MapName: "Junkertown", MapType: Escort, Team1: "A", Team2: "B"},
		PlayerStats: []PlayerStatEvt{{RoundNum: 1, Team: "A", Player: "Stray", Hero: "Tracer"}},
	}

	// Absence of scoring data is a valid terminal state, not an error.
	outcome := Reconcile(gameLog)
	require.Nil(t, outcome.Team1Score)
	require.Nil(t, outcome.Team2Score)
	require.Empty(t, outcome.Tier)
	require.Equal(t, SideNone, outcome.Winner)
}

func TestMatchSides(t *testing.T) {
	start := MatchStartEvt{Team1: "Team Alpha", Team2: "Team Bravo"}

	side, ambiguous := MatchSides("Team Alpha", "", start)
	require.Equal(t, Side1, side)
	require.False(t, ambiguous)

	side, ambiguous = MatchSides("team bravo", "", start)
	require.Equal(t, Side2, side)
	require.False(t, ambiguous)

	// Opponent override names the other team.
	side, ambiguous = MatchSides("", "Team Bravo", start)
	require.Equal(t, Side1, side)
	require.False(t, ambiguous)

	// Neither matches: fall back to the first side but flag it.
	side, ambiguous = MatchSides("Team Charlie", "Team Delta", start)
	require.Equal(t, Side1, side)
	require.True(t, ambiguous)
}
