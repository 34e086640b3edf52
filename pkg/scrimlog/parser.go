// Package scrimlog parses the scrim recorder's log files into typed events and
// derives map outcomes from them.
//
// The format is row oriented, one event per line. The first comma separated field
// is the event kind, the remaining fields are positional with a fixed layout per
// kind. There is no published grammar, the field contracts here follow what the
// recorder actually emits.
package scrimlog

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrEmptyLog           = errors.New("log contains no event rows")
	ErrUnrecognizedFormat = errors.New("no recognized event markers found")
	ErrMissingMatchStart  = errors.New("missing required match_start event")
	ErrMultipleMatchStart = errors.New("multiple match_start events, one map per file")
	ErrFieldCount         = errors.New("wrong field count for event kind")
	ErrFieldValue         = errors.New("invalid field value")
)

// ParseError identifies the row and kind at fault when a file cannot be parsed.
type ParseError struct {
	Line int
	Kind EventKind
	Err  error
}

func (e ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d (%s): %v", e.Line, e.Kind, e.Err)
	}

	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e ParseError) Unwrap() error {
	return e.Err
}

func newParseError(line int, kind EventKind, err error) ParseError {
	return ParseError{Line: line, Kind: kind, Err: err}
}

// Validate is the cheap pre-parse signature check. It scans for at least one line
// beginning with a known event kind tag and never allocates typed events. A file
// that passes Validate can still fail Parse on a malformed row.
func Validate(rawText string) error {
	if strings.TrimSpace(rawText) == "" {
		return ErrEmptyLog
	}

	for line := range strings.Lines(rawText) {
		tag, _, found := strings.Cut(strings.TrimSpace(line), ",")
		if !found {
			continue
		}

		if _, known := knownArity[EventKind(strings.TrimSpace(tag))]; known {
			return nil
		}
	}

	return ErrUnrecognizedFormat
}

// Parse converts raw log text into a GameLog. It fails with a ParseError on the
// first malformed row, a known kind with the wrong arity is never skipped
// silently. Row order within each kind is preserved and the (team, player)
// roster is harvested in the same pass.
func Parse(rawText string) (*GameLog, error) {
	gameLog := &GameLog{Rosters: map[string][]string{}}

	var (
		lineNum    int
		startCount int
	)

	for line := range strings.Lines(rawText) {
		lineNum++

		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		fields := strings.Split(trimmed, ",")
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}

		kind := EventKind(fields[0])
		args := fields[1:]

		wantArity, known := knownArity[kind]
		if !known {
			gameLog.Unhandled = append(gameLog.Unhandled, RawEvent{
				Kind: fields[0],
				Line: lineNum,
				Raw:  trimmed,
			})

			continue
		}

		if len(args) != wantArity {
			return nil, newParseError(lineNum, kind,
				fmt.Errorf("%w: expected %d fields, got %d", ErrFieldCount, wantArity, len(args)))
		}

		if errRow := applyRow(gameLog, kind, args, lineNum, &startCount); errRow != nil {
			return nil, errRow
		}
	}

	if startCount == 0 {
		return nil, newParseError(0, MatchStart, ErrMissingMatchStart)
	}

	return gameLog, nil
}

//nolint:cyclop
func applyRow(gameLog *GameLog, kind EventKind, args []string, lineNum int, startCount *int) error {
	row := rowReader{line: lineNum, kind: kind, args: args}

	switch kind {
	case MatchStart:
		*startCount++
		if *startCount > 1 {
			return newParseError(lineNum, MatchStart, ErrMultipleMatchStart)
		}

		gameLog.MatchStart = MatchStartEvt{
			MapName: row.str(0),
			MapType: MapTypeFromString(row.str(1)),
			Team1:   row.str(2),
			Team2:   row.str(3),
		}
	case MatchEnd:
		gameLog.MatchEnd = &MatchEndEvt{
			RoundNum:   row.integer(0),
			Team1Score: row.integer(1),
			Team2Score: row.integer(2),
		}
	case RoundStart:
		gameLog.RoundStarts = append(gameLog.RoundStarts, RoundStartEvt{RoundNum: row.integer(0)})
	case RoundEnd:
		gameLog.RoundEnds = append(gameLog.RoundEnds, RoundEndEvt{
			RoundNum:   row.integer(0),
			Team1Score: row.integer(1),
			Team2Score: row.integer(2),
		})
	case PlayerStat:
		stat := PlayerStatEvt{
			RoundNum:     row.integer(0),
			Team:         row.str(1),
			Player:       row.str(2),
			Hero:         row.str(3),
			Eliminations: row.integer(4),
			FinalBlows:   row.integer(5),
			Deaths:       row.integer(6),
			Damage:       row.float(7),
			Healing:      row.float(8),
		}
		gameLog.PlayerStats = append(gameLog.PlayerStats, stat)
		gameLog.addRosterEntry(stat.Team, stat.Player)
	case HeroSpawn:
		spawn := HeroSpawnEvt{
			Team:   row.str(0),
			Player: row.str(1),
			Hero:   row.str(2),
		}
		gameLog.HeroSpawns = append(gameLog.HeroSpawns, spawn)
		gameLog.addRosterEntry(spawn.Team, spawn.Player)
	case PayloadProgress:
		gameLog.PayloadProgress = append(gameLog.PayloadProgress, PayloadProgressEvt{
			RoundNum: row.integer(0),
			Team:     row.str(1),
			Progress: row.float(2),
		})
	case ObjectiveCaptured:
		gameLog.ObjectiveCaptures = append(gameLog.ObjectiveCaptures, ObjectiveCapturedEvt{
			RoundNum:  row.integer(0),
			Team:      row.str(1),
			Objective: row.integer(2),
		})
	case UnhandledKind:
	}

	return row.err
}

// rowReader applies the per-field type contract for a row, capturing the first
// conversion failure instead of panicking on a bad index or value.
type rowReader struct {
	line int
	kind EventKind
	args []string
	err  error
}

func (r *rowReader) str(idx int) string {
	return r.args[idx]
}

func (r *rowReader) integer(idx int) int {
	value, errConv := strconv.Atoi(r.args[idx])
	if errConv != nil && r.err == nil {
		r.err = newParseError(r.line, r.kind,
			fmt.Errorf("%w: field %d %q is not an integer", ErrFieldValue, idx+1, r.args[idx]))
	}

	return value
}

func (r *rowReader) float(idx int) float64 {
	value, errConv := strconv.ParseFloat(r.args[idx], 64)
	if errConv != nil && r.err == nil {
		r.err = newParseError(r.line, r.kind,
			fmt.Errorf("%w: field %d %q is not a number", ErrFieldValue, idx+1, r.args[idx]))
	}

	return value
}
