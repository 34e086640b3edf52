package scrim_test

import (
	"testing"

	"github.com/scrimcore/scrimcore/internal/scrim"
	"github.com/scrimcore/scrimcore/pkg/scrimlog"
	"github.com/stretchr/testify/require"
)

func TestEventsRoundTrip(t *testing.T) {
	original, errParse := scrimlog.Parse(goodLog)
	require.NoError(t, errParse)

	events, errEncode := scrim.EncodeEvents(original)
	require.NoError(t, errEncode)
	require.NotEmpty(t, events)
	require.Equal(t, scrimlog.MatchStart, events[0].Kind)

	record := scrim.MapRecord{MapID: 1, MapName: "Junkertown", MapType: scrimlog.Escort}

	decoded, errDecode := scrim.DecodeGameLog(record, events)
	require.NoError(t, errDecode)

	require.Equal(t, original.MatchStart, decoded.MatchStart)
	require.Equal(t, original.MatchEnd, decoded.MatchEnd)
	require.Equal(t, original.RoundEnds, decoded.RoundEnds)
	require.Equal(t, original.PlayerStats, decoded.PlayerStats)
	require.Equal(t, original.PayloadProgress, decoded.PayloadProgress)
	require.Equal(t, original.Rosters, decoded.Rosters)

	// The reconciler sees the same world before and after storage.
	require.Equal(t, scrimlog.Reconcile(original), scrimlog.Reconcile(decoded))
}

func TestDecodeWithoutMatchStartRowFallsBackToRecord(t *testing.T) {
	record := scrim.MapRecord{
		MapID:   7,
		MapName: "Dorado",
		MapType: scrimlog.Escort,
		Team1:   "Us",
		Team2:   "Them",
	}

	decoded, errDecode := scrim.DecodeGameLog(record, nil)
	require.NoError(t, errDecode)
	require.Equal(t, "Dorado", decoded.MatchStart.MapName)
	require.Equal(t, "Us", decoded.MatchStart.Team1)
}

func TestDecodeRejectsUnknownKind(t *testing.T) {
	_, errDecode := scrim.DecodeGameLog(scrim.MapRecord{MapID: 1}, []scrim.StoredEvent{
		{EventID: 1, LineNum: 1, Kind: "telemetry_blob", Payload: []byte(`{}`)},
	})

	require.Error(t, errDecode)
}
