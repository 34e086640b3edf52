package scrimlog

import "strings"

// EventKind is the leading tag of a log row. The recorder emits one event per line
// with a fixed, kind-specific set of positional fields after the tag.
type EventKind string

const (
	MatchStart        EventKind = "match_start"
	MatchEnd          EventKind = "match_end"
	RoundStart        EventKind = "round_start"
	RoundEnd          EventKind = "round_end"
	PlayerStat        EventKind = "player_stat"
	HeroSpawn         EventKind = "hero_spawn"
	PayloadProgress   EventKind = "payload_progress"
	ObjectiveCaptured EventKind = "objective_captured"
	// UnhandledKind covers rows with a tag we do not have a field contract for. They
	// are retained raw so a re-parse after a parser upgrade loses nothing.
	UnhandledKind EventKind = "unhandled"
)

// knownArity maps every handled kind onto its required field count, excluding the
// kind tag itself. A known kind with the wrong arity fails the whole file.
var knownArity = map[EventKind]int{ //nolint:gochecknoglobals
	MatchStart:        4,
	MatchEnd:          3,
	RoundStart:        1,
	RoundEnd:          3,
	PlayerStat:        9,
	HeroSpawn:         3,
	PayloadProgress:   3,
	ObjectiveCaptured: 3,
}

// MapType is the closed category set for played maps. The reconciliation tiers that
// apply to a map depend on its type, see Reconcile.
type MapType string

const (
	Escort     MapType = "Escort"
	Control    MapType = "Control"
	Hybrid     MapType = "Hybrid"
	Assault    MapType = "Assault"
	Push       MapType = "Push"
	Flashpoint MapType = "Flashpoint"
	UnknownMap MapType = "Unknown"
)

// MapTypeFromString normalizes the recorder's map type field. Values outside the
// known set map onto UnknownMap rather than failing the parse.
func MapTypeFromString(value string) MapType {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "escort":
		return Escort
	case "control":
		return Control
	case "hybrid":
		return Hybrid
	case "assault":
		return Assault
	case "push":
		return Push
	case "flashpoint":
		return Flashpoint
	default:
		return UnknownMap
	}
}

// Side identifies one of the two recorded teams by position in match_start.
type Side int

const (
	SideNone Side = iota
	Side1
	Side2
)

func (s Side) String() string {
	switch s {
	case Side1:
		return "team1"
	case Side2:
		return "team2"
	default:
		return "none"
	}
}

// Other returns the opposing side, or SideNone for SideNone.
func (s Side) Other() Side {
	switch s {
	case Side1:
		return Side2
	case Side2:
		return Side1
	default:
		return SideNone
	}
}
