package scrimlog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const exampleLog = `match_start,Junkertown,Escort,Team Alpha,Team Bravo
round_start,1
hero_spawn,Team Alpha,Stray,Tracer
hero_spawn,Team Bravo,Kodiak,Reinhardt
payload_progress,1,Team Alpha,33.5
payload_progress,1,Team Alpha,71.2
payload_progress,1,Team Bravo,15.0
objective_captured,1,Team Alpha,1
player_stat,1,Team Alpha,Stray,Tracer,4,2,1,2450.5,0
player_stat,1,Team Bravo,Kodiak,Reinhardt,2,1,3,1800.0,0
round_end,1,1,0
round_start,2
player_stat,2,Team Alpha,Stray,Tracer,9,5,2,5120.0,0
visual_effect,2,confetti,burst
round_end,2,2,1
match_end,2,2,1
`

func TestParse(t *testing.T) {
	gameLog, errParse := Parse(exampleLog)
	require.NoError(t, errParse)

	require.Equal(t, MatchStartEvt{
		MapName: "Junkertown",
		MapType: Escort,
		Team1:   "Team Alpha",
		Team2:   "Team Bravo",
	}, gameLog.MatchStart)

	require.NotNil(t, gameLog.MatchEnd)
	require.Equal(t, 2, gameLog.MatchEnd.Team1Score)
	require.Equal(t, 1, gameLog.MatchEnd.Team2Score)

	require.Len(t, gameLog.RoundStarts, 2)
	require.Len(t, gameLog.RoundEnds, 2)
	require.Len(t, gameLog.PayloadProgress, 3)
	require.Len(t, gameLog.ObjectiveCaptures, 1)

	// Unknown kinds are preserved, never dropped or fatal.
	require.Len(t, gameLog.Unhandled, 1)
	require.Equal(t, "visual_effect", gameLog.Unhandled[0].Kind)

	// Row order within a kind is preserved so last-value-wins derivations hold.
	require.Len(t, gameLog.PlayerStats, 3)
	require.Equal(t, 4, gameLog.PlayerStats[0].Eliminations)
	require.Equal(t, 9, gameLog.PlayerStats[2].Eliminations)
}

func TestParseRosterHarvest(t *testing.T) {
	gameLog, errParse := Parse(exampleLog)
	require.NoError(t, errParse)

	require.Equal(t, map[string][]string{
		"Team Alpha": {"Stray"},
		"Team Bravo": {"Kodiak"},
	}, gameLog.Rosters)
}

func TestParseFinalPlayerStats(t *testing.T) {
	gameLog, errParse := Parse(exampleLog)
	require.NoError(t, errParse)

	finals := gameLog.FinalPlayerStats()
	require.Len(t, finals, 2)

	// The later cumulative row supersedes the earlier one, not the max.
	require.Equal(t, "Stray", finals[0].Player)
	require.Equal(t, 9, finals[0].Eliminations)
	require.InEpsilon(t, 5120.0, finals[0].Damage, 0.001)
}

func TestParseMissingMatchStart(t *testing.T) {
	_, errParse := Parse("round_end,1,1,0\nplayer_stat,1,Team A,Stray,Tracer,1,1,1,100,0\n")
	require.ErrorIs(t, errParse, ErrMissingMatchStart)
}

func TestParseDuplicateMatchStart(t *testing.T) {
	raw := "match_start,Junkertown,Escort,A,B\nmatch_start,Ilios,Control,A,B\n"
	_, errParse := Parse(raw)
	require.ErrorIs(t, errParse, ErrMultipleMatchStart)
}

func TestParseBadArity(t *testing.T) {
	raw := "match_start,Junkertown,Escort,A,B\nround_end,1,1\n"
	_, errParse := Parse(raw)
	require.ErrorIs(t, errParse, ErrFieldCount)

	var parseErr ParseError
	require.ErrorAs(t, errParse, &parseErr)
	require.Equal(t, 2, parseErr.Line)
	require.Equal(t, RoundEnd, parseErr.Kind)
}

func TestParseBadFieldType(t *testing.T) {
	raw := "match_start,Junkertown,Escort,A,B\nround_end,one,1,0\n"
	_, errParse := Parse(raw)
	require.ErrorIs(t, errParse, ErrFieldValue)
}

func TestValidate(t *testing.T) {
	require.NoError(t, Validate(exampleLog))
	require.ErrorIs(t, Validate(""), ErrEmptyLog)
	require.ErrorIs(t, Validate("   \n\t\n"), ErrEmptyLog)
	require.ErrorIs(t, Validate("<html><body>not a log</body></html>"), ErrUnrecognizedFormat)
	require.ErrorIs(t, Validate("totally,unrelated,csv\nrows,here,too\n"), ErrUnrecognizedFormat)
}

// Validate acceptance guarantees Parse yields either a complete GameLog or a
// row-identifying ParseError, never a silent partial result.
func TestParseTotality(t *testing.T) {
	truncated := strings.Replace(exampleLog, "round_end,2,2,1", "round_end,2,2", 1)
	require.NoError(t, Validate(truncated))

	_, errParse := Parse(truncated)

	var parseErr ParseError
	require.ErrorAs(t, errParse, &parseErr)
	require.Positive(t, parseErr.Line)
}

func TestMapTypeFromString(t *testing.T) {
	require.Equal(t, Escort, MapTypeFromString("escort"))
	require.Equal(t, Control, MapTypeFromString(" Control "))
	require.Equal(t, UnknownMap, MapTypeFromString("deathmatch"))
}
