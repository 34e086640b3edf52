package scrimlog

// MatchStartEvt opens a map recording. Exactly one is required per file.
type MatchStartEvt struct {
	MapName string  `json:"map_name"`
	MapType MapType `json:"map_type"`
	Team1   string  `json:"team_1"`
	Team2   string  `json:"team_2"`
}

// MatchEndEvt carries the authoritative final score. Many recordings are missing
// this row entirely, see Reconcile for the fallback chain.
type MatchEndEvt struct {
	RoundNum   int `json:"round_num"`
	Team1Score int `json:"team_1_score"`
	Team2Score int `json:"team_2_score"`
}

type RoundStartEvt struct {
	RoundNum int `json:"round_num"`
}

// RoundEndEvt carries cumulative side scores as of the end of the round.
type RoundEndEvt struct {
	RoundNum   int `json:"round_num"`
	Team1Score int `json:"team_1_score"`
	Team2Score int `json:"team_2_score"`
}

// PlayerStatEvt is a cumulative combat stat snapshot. The recorder emits these
// repeatedly, the last row for a player within a file is their final line.
type PlayerStatEvt struct {
	RoundNum     int     `json:"round_num"`
	Team         string  `json:"team"`
	Player       string  `json:"player"`
	Hero         string  `json:"hero"`
	Eliminations int     `json:"eliminations"`
	FinalBlows   int     `json:"final_blows"`
	Deaths       int     `json:"deaths"`
	Damage       float64 `json:"damage"`
	Healing      float64 `json:"healing"`
}

type HeroSpawnEvt struct {
	Team   string `json:"team"`
	Player string `json:"player"`
	Hero   string `json:"hero"`
}

// PayloadProgressEvt is a capture progress observation for one side within a round.
// Only meaningful on Escort maps.
type PayloadProgressEvt struct {
	RoundNum int     `json:"round_num"`
	Team     string  `json:"team"`
	Progress float64 `json:"progress"`
}

type ObjectiveCapturedEvt struct {
	RoundNum  int    `json:"round_num"`
	Team      string `json:"team"`
	Objective int    `json:"objective"`
}

// RawEvent preserves a row whose tag has no field contract. Nothing is dropped
// silently, the raw line survives a round trip through storage.
type RawEvent struct {
	Kind string `json:"kind"`
	Line int    `json:"line"`
	Raw  string `json:"raw"`
}

// GameLog is the full typed result of parsing one file. Slices preserve input row
// order within each kind. Rosters is the distinct (team, player) side-output
// harvested from player_stat and hero_spawn rows during the same pass.
type GameLog struct {
	MatchStart        MatchStartEvt          `json:"match_start"`
	MatchEnd          *MatchEndEvt           `json:"match_end,omitempty"`
	RoundStarts       []RoundStartEvt        `json:"round_starts,omitempty"`
	RoundEnds         []RoundEndEvt          `json:"round_ends,omitempty"`
	PlayerStats       []PlayerStatEvt        `json:"player_stats,omitempty"`
	HeroSpawns        []HeroSpawnEvt         `json:"hero_spawns,omitempty"`
	PayloadProgress   []PayloadProgressEvt   `json:"payload_progress,omitempty"`
	ObjectiveCaptures []ObjectiveCapturedEvt `json:"objective_captures,omitempty"`
	Unhandled         []RawEvent             `json:"unhandled,omitempty"`
	Rosters           map[string][]string    `json:"rosters"`
}

func (l *GameLog) addRosterEntry(team string, player string) {
	if team == "" || player == "" {
		return
	}

	for _, existing := range l.Rosters[team] {
		if existing == player {
			return
		}
	}

	l.Rosters[team] = append(l.Rosters[team], player)
}

// FinalPlayerStats reduces the cumulative player_stat stream to the last observed
// row per (team, player), in first-seen order.
func (l *GameLog) FinalPlayerStats() []PlayerStatEvt {
	type key struct {
		team   string
		player string
	}

	index := map[key]int{}
	finals := make([]PlayerStatEvt, 0, len(l.Rosters))

	for _, stat := range l.PlayerStats {
		k := key{team: stat.Team, player: stat.Player}
		if pos, found := index[k]; found {
			finals[pos] = stat

			continue
		}

		index[k] = len(finals)
		finals = append(finals, stat)
	}

	return finals
}
