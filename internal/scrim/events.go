package scrim

import (
	"encoding/json"
	"fmt"

	"github.com/scrimcore/scrimcore/pkg/scrimlog"
)

// EncodeEvents flattens a parsed game log into storable rows. LineNum is a
// batch-local sequence preserving in-kind ordering, which is all the read side
// relies on. Unhandled rows keep their raw text so nothing from the source file
// is lost.
func EncodeEvents(gameLog *scrimlog.GameLog) ([]StoredEvent, error) {
	var (
		events  []StoredEvent
		seq     int
		pushErr error
	)

	push := func(kind scrimlog.EventKind, value any) {
		payload, errMarshal := json.Marshal(value)
		if errMarshal != nil && pushErr == nil {
			pushErr = fmt.Errorf("encode %s event: %w", kind, errMarshal)
		}

		seq++

		events = append(events, StoredEvent{LineNum: seq, Kind: kind, Payload: payload})
	}

	push(scrimlog.MatchStart, gameLog.MatchStart)

	if gameLog.MatchEnd != nil {
		push(scrimlog.MatchEnd, gameLog.MatchEnd)
	}

	for _, evt := range gameLog.RoundStarts {
		push(scrimlog.RoundStart, evt)
	}

	for _, evt := range gameLog.RoundEnds {
		push(scrimlog.RoundEnd, evt)
	}

	for _, evt := range gameLog.PlayerStats {
		push(scrimlog.PlayerStat, evt)
	}

	for _, evt := range gameLog.HeroSpawns {
		push(scrimlog.HeroSpawn, evt)
	}

	for _, evt := range gameLog.PayloadProgress {
		push(scrimlog.PayloadProgress, evt)
	}

	for _, evt := range gameLog.ObjectiveCaptures {
		push(scrimlog.ObjectiveCaptured, evt)
	}

	for _, evt := range gameLog.Unhandled {
		push(scrimlog.UnhandledKind, evt)
	}

	if pushErr != nil {
		return nil, pushErr
	}

	return events, nil
}

// DecodeGameLog rebuilds a game log from stored rows so outcomes and stats are
// always derived from the same event model the parser produced at upload time.
func DecodeGameLog(record MapRecord, events []StoredEvent) (*scrimlog.GameLog, error) {
	gameLog := &scrimlog.GameLog{Rosters: map[string][]string{}}

	for _, event := range events {
		if errApply := decodeEvent(gameLog, event); errApply != nil {
			return nil, fmt.Errorf("map %d event %d: %w", record.MapID, event.EventID, errApply)
		}
	}

	if gameLog.MatchStart.MapName == "" {
		gameLog.MatchStart = scrimlog.MatchStartEvt{
			MapName: record.MapName,
			MapType: record.MapType,
			Team1:   record.Team1,
			Team2:   record.Team2,
		}
	}

	return gameLog, nil
}

func decodeEvent(gameLog *scrimlog.GameLog, event StoredEvent) error {
	switch event.Kind {
	case scrimlog.MatchStart:
		var evt scrimlog.MatchStartEvt
		if err := json.Unmarshal(event.Payload, &evt); err != nil {
			return err
		}

		gameLog.MatchStart = evt
	case scrimlog.MatchEnd:
		var evt scrimlog.MatchEndEvt
		if err := json.Unmarshal(event.Payload, &evt); err != nil {
			return err
		}

		gameLog.MatchEnd = &evt
	case scrimlog.RoundStart:
		var evt scrimlog.RoundStartEvt
		if err := json.Unmarshal(event.Payload, &evt); err != nil {
			return err
		}

		gameLog.RoundStarts = append(gameLog.RoundStarts, evt)
	case scrimlog.RoundEnd:
		var evt scrimlog.RoundEndEvt
		if err := json.Unmarshal(event.Payload, &evt); err != nil {
			return err
		}

		gameLog.RoundEnds = append(gameLog.RoundEnds, evt)
	case scrimlog.PlayerStat:
		var evt scrimlog.PlayerStatEvt
		if err := json.Unmarshal(event.Payload, &evt); err != nil {
			return err
		}

		gameLog.PlayerStats = append(gameLog.PlayerStats, evt)
		rosterAdd(gameLog, evt.Team, evt.Player)
	case scrimlog.HeroSpawn:
		var evt scrimlog.HeroSpawnEvt
		if err := json.Unmarshal(event.Payload, &evt); err != nil {
			return err
		}

		gameLog.HeroSpawns = append(gameLog.HeroSpawns, evt)
		rosterAdd(gameLog, evt.Team, evt.Player)
	case scrimlog.PayloadProgress:
		var evt scrimlog.PayloadProgressEvt
		if err := json.Unmarshal(event.Payload, &evt); err != nil {
			return err
		}

		gameLog.PayloadProgress = append(gameLog.PayloadProgress, evt)
	case scrimlog.ObjectiveCaptured:
		var evt scrimlog.ObjectiveCapturedEvt
		if err := json.Unmarshal(event.Payload, &evt); err != nil {
			return err
		}

		gameLog.ObjectiveCaptures = append(gameLog.ObjectiveCaptures, evt)
	case scrimlog.UnhandledKind:
		var evt scrimlog.RawEvent
		if err := json.Unmarshal(event.Payload, &evt); err != nil {
			return err
		}

		gameLog.Unhandled = append(gameLog.Unhandled, evt)
	default:
		return fmt.Errorf("unknown stored event kind: %s", event.Kind)
	}

	return nil
}

func rosterAdd(gameLog *scrimlog.GameLog, team string, player string) {
	if team == "" || player == "" {
		return
	}

	if containsString(gameLog.Rosters[team], player) {
		return
	}

	gameLog.Rosters[team] = append(gameLog.Rosters[team], player)
}
