package stats

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/scrimcore/scrimcore/internal/scrim"
	"github.com/scrimcore/scrimcore/pkg/scrimlog"
)

type MapResult string

const (
	ResultWin     MapResult = "win"
	ResultLoss    MapResult = "loss"
	ResultDraw    MapResult = "draw"
	ResultUnknown MapResult = ""
)

// PlayerLine is one player's final cumulative stat line for one map, annotated
// with roster resolution and which side they played on.
type PlayerLine struct {
	RawName      string
	PlayerID     *int
	Hero         string
	Eliminations int
	FinalBlows   int
	Deaths       int
	Damage       float64
	Healing      float64
	OnOurSide    bool
}

// MapFact is one map normalized for aggregation: outcome resolved, side
// determined and stat lines flattened. Views never look at raw events.
type MapFact struct {
	ScrimID        int
	ScrimDate      time.Time
	MapID          int
	MapName        string
	MapType        scrimlog.MapType
	Opponent       string
	Result         MapResult
	Tier           scrimlog.ResultTier
	SidesAmbiguous bool
	Rounds         int
	Lines          []PlayerLine
}

func NewMapFact(bundle MapBundle, ourTeamName string) (MapFact, error) {
	gameLog, errDecode := scrim.DecodeGameLog(bundle.Record, bundle.Events)
	if errDecode != nil {
		return MapFact{}, errDecode
	}

	outcome := scrimlog.Reconcile(gameLog)
	ourSide, ambiguous := scrimlog.MatchSides(ourTeamName, bundle.Scrim.OpponentOverride, gameLog.MatchStart)

	fact := MapFact{
		ScrimID:        bundle.Scrim.ScrimID,
		ScrimDate:      bundle.Scrim.ScrimDate,
		MapID:          bundle.Record.MapID,
		MapName:        bundle.Record.MapName,
		MapType:        bundle.Record.MapType,
		Opponent:       scrim.OpponentName(bundle.Record, ourSide, bundle.Scrim.OpponentOverride),
		Result:         mapResult(outcome, ourSide),
		Tier:           outcome.Tier,
		SidesAmbiguous: ambiguous,
		Rounds:         countRounds(gameLog),
	}

	ourSideName := gameLog.MatchStart.Team1
	if ourSide == scrimlog.Side2 {
		ourSideName = gameLog.MatchStart.Team2
	}

	resolved := map[[2]string]*int{}
	for _, entry := range bundle.Roster {
		resolved[[2]string{entry.TeamName, entry.RawName}] = entry.PlayerID
	}

	for _, stat := range gameLog.FinalPlayerStats() {
		line := PlayerLine{
			RawName:      stat.Player,
			PlayerID:     resolved[[2]string{stat.Team, stat.Player}],
			Hero:         stat.Hero,
			Eliminations: stat.Eliminations,
			FinalBlows:   stat.FinalBlows,
			Deaths:       stat.Deaths,
			Damage:       stat.Damage,
			Healing:      stat.Healing,
			OnOurSide:    strings.EqualFold(stat.Team, ourSideName),
		}

		fact.Lines = append(fact.Lines, line)
	}

	return fact, nil
}

// mapResult translates an outcome into our perspective. Unset scores are the
// reconciliation gap state and contribute to no tally.
func mapResult(outcome scrimlog.Outcome, ourSide scrimlog.Side) MapResult {
	if outcome.Team1Score == nil || outcome.Team2Score == nil {
		return ResultUnknown
	}

	switch outcome.Winner {
	case scrimlog.SideNone:
		return ResultDraw
	case ourSide:
		return ResultWin
	default:
		return ResultLoss
	}
}

func countRounds(gameLog *scrimlog.GameLog) int {
	maxRound := 0

	for _, evt := range gameLog.RoundStarts {
		if evt.RoundNum > maxRound {
			maxRound = evt.RoundNum
		}
	}

	for _, evt := range gameLog.RoundEnds {
		if evt.RoundNum > maxRound {
			maxRound = evt.RoundNum
		}
	}

	return maxRound
}

type Tally struct {
	Maps    int     `json:"maps"`
	Wins    int     `json:"wins"`
	Losses  int     `json:"losses"`
	Draws   int     `json:"draws"`
	WinRate float64 `json:"win_rate"`
}

func (t *Tally) add(result MapResult) {
	t.Maps++

	switch result {
	case ResultWin:
		t.Wins++
	case ResultLoss:
		t.Losses++
	case ResultDraw:
		t.Draws++
	case ResultUnknown:
	}
}

// finalize computes the win rate over decided maps. A zero denominator yields
// 0, never NaN.
func (t *Tally) finalize() {
	decided := t.Wins + t.Losses + t.Draws
	if decided == 0 {
		t.WinRate = 0

		return
	}

	t.WinRate = float64(t.Wins) / float64(decided)
}

type MapTypeTally struct {
	MapType string `json:"map_type"`
	Tally
}

type OpponentSummary struct {
	Opponent     string         `json:"opponent"`
	Scrims       int            `json:"scrims"`
	LatestNotes  string         `json:"latest_notes,omitempty"`
	LatestRating string         `json:"latest_rating,omitempty"`
	MapTypes     []MapTypeTally `json:"map_types"`
	Tally
}

type OpponentView struct {
	TeamID          *int              `json:"team_id,omitempty"`
	TotalScrims     int               `json:"total_scrims"`
	UniqueOpponents int               `json:"unique_opponents"`
	Opponents       []OpponentSummary `json:"opponents"`
	MapStats        []MapTypeTally    `json:"map_stats"`
}

func BuildOpponentView(teamID *int, facts []MapFact, reviews map[int]scrim.Review) OpponentView {
	type opponentAcc struct {
		summary  OpponentSummary
		scrims   map[int]bool
		mapTypes map[string]*Tally
		latest   time.Time
	}

	accs := map[string]*opponentAcc{}
	order := []string{}
	allScrims := map[int]bool{}

	for _, fact := range facts {
		allScrims[fact.ScrimID] = true

		key := strings.ToLower(fact.Opponent)

		acc, found := accs[key]
		if !found {
			acc = &opponentAcc{
				summary:  OpponentSummary{Opponent: fact.Opponent},
				scrims:   map[int]bool{},
				mapTypes: map[string]*Tally{},
			}
			accs[key] = acc
			order = append(order, key)
		}

		acc.scrims[fact.ScrimID] = true
		acc.summary.add(fact.Result)

		typeKey := string(fact.MapType)
		if acc.mapTypes[typeKey] == nil {
			acc.mapTypes[typeKey] = &Tally{}
		}

		acc.mapTypes[typeKey].add(fact.Result)

		if review, hasReview := reviews[fact.ScrimID]; hasReview && review.CreatedOn.After(acc.latest) {
			acc.latest = review.CreatedOn
			acc.summary.LatestNotes = review.Notes
			acc.summary.LatestRating = review.Rating
		}
	}

	view := OpponentView{
		TeamID:      teamID,
		TotalScrims: len(allScrims),
		Opponents:   []OpponentSummary{},
		MapStats:    BuildMapTypeView(facts),
	}

	for _, key := range order {
		acc := accs[key]
		acc.summary.Scrims = len(acc.scrims)
		acc.summary.finalize()
		acc.summary.MapTypes = sortedMapTypes(acc.mapTypes)

		view.Opponents = append(view.Opponents, acc.summary)
	}

	// Primary volume metric first, name as a stable tie break.
	sort.SliceStable(view.Opponents, func(i, j int) bool {
		if view.Opponents[i].Maps != view.Opponents[j].Maps {
			return view.Opponents[i].Maps > view.Opponents[j].Maps
		}

		return view.Opponents[i].Opponent < view.Opponents[j].Opponent
	})

	view.UniqueOpponents = len(view.Opponents)

	return view
}

func BuildMapTypeView(facts []MapFact) []MapTypeTally {
	tallies := map[string]*Tally{}

	for _, fact := range facts {
		key := string(fact.MapType)
		if tallies[key] == nil {
			tallies[key] = &Tally{}
		}

		tallies[key].add(fact.Result)
	}

	return sortedMapTypes(tallies)
}

func sortedMapTypes(tallies map[string]*Tally) []MapTypeTally {
	result := make([]MapTypeTally, 0, len(tallies))

	for mapType, tally := range tallies {
		tally.finalize()
		result = append(result, MapTypeTally{MapType: mapType, Tally: *tally})
	}

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].WinRate != result[j].WinRate {
			return result[i].WinRate > result[j].WinRate
		}

		return result[i].MapType < result[j].MapType
	})

	return result
}

type PlayerTotals struct {
	Player         string  `json:"player"`
	PlayerID       *int    `json:"player_id,omitempty"`
	Maps           int     `json:"maps"`
	Rounds         int     `json:"rounds"`
	Eliminations   int     `json:"eliminations"`
	FinalBlows     int     `json:"final_blows"`
	Deaths         int     `json:"deaths"`
	Damage         float64 `json:"damage"`
	Healing        float64 `json:"healing"`
	MostPlayedHero string  `json:"most_played_hero"`

	heroPlays map[string]int
}

func (p *PlayerTotals) addLine(line PlayerLine, rounds int) {
	p.Maps++
	p.Rounds += rounds
	p.Eliminations += line.Eliminations
	p.FinalBlows += line.FinalBlows
	p.Deaths += line.Deaths
	p.Damage += line.Damage
	p.Healing += line.Healing

	if p.heroPlays == nil {
		p.heroPlays = map[string]int{}
	}

	p.heroPlays[line.Hero]++
}

func (p *PlayerTotals) finalize() {
	best := 0

	heroes := make([]string, 0, len(p.heroPlays))
	for hero := range p.heroPlays {
		heroes = append(heroes, hero)
	}

	sort.Strings(heroes)

	for _, hero := range heroes {
		if p.heroPlays[hero] > best {
			best = p.heroPlays[hero]
			p.MostPlayedHero = hero
		}
	}
}

// playerKey merges aliases that resolve to the same identity, unresolved names
// aggregate under their literal raw name.
func playerKey(line PlayerLine) string {
	if line.PlayerID != nil {
		return "id:" + strconv.Itoa(*line.PlayerID)
	}

	return "raw:" + strings.ToLower(line.RawName)
}

// BuildPlayerView sums final stat lines per player. When ourSideOnly is set the
// view is scoped to the roster side of the linked team, otherwise every player
// observed in the window is included.
func BuildPlayerView(facts []MapFact, ourSideOnly bool) []PlayerTotals {
	totals := map[string]*PlayerTotals{}
	order := []string{}

	for _, fact := range facts {
		for _, line := range fact.Lines {
			if ourSideOnly && !line.OnOurSide {
				continue
			}

			key := playerKey(line)

			entry, found := totals[key]
			if !found {
				entry = &PlayerTotals{Player: line.RawName, PlayerID: line.PlayerID}
				totals[key] = entry
				order = append(order, key)
			}

			entry.addLine(line, fact.Rounds)
		}
	}

	result := make([]PlayerTotals, 0, len(order))

	for _, key := range order {
		totals[key].finalize()
		result = append(result, *totals[key])
	}

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Eliminations != result[j].Eliminations {
			return result[i].Eliminations > result[j].Eliminations
		}

		return result[i].Player < result[j].Player
	})

	return result
}

type HeroTotals struct {
	Hero           string  `json:"hero"`
	Maps           int     `json:"maps"`
	Rounds         int     `json:"rounds"`
	Players        int     `json:"players"`
	Eliminations   int     `json:"eliminations"`
	FinalBlows     int     `json:"final_blows"`
	Deaths         int     `json:"deaths"`
	Damage         float64 `json:"damage"`
	Healing        float64 `json:"healing"`
	ElimsPerRound  float64 `json:"elims_per_round"`
	DamagePerRound float64 `json:"damage_per_round"`

	players map[string]bool
}

func (h *HeroTotals) addLine(line PlayerLine, rounds int) {
	h.Maps++
	h.Rounds += rounds
	h.Eliminations += line.Eliminations
	h.FinalBlows += line.FinalBlows
	h.Deaths += line.Deaths
	h.Damage += line.Damage
	h.Healing += line.Healing

	if h.players == nil {
		h.players = map[string]bool{}
	}

	h.players[playerKey(line)] = true
}

func (h *HeroTotals) finalize() {
	h.Players = len(h.players)

	if h.Rounds > 0 {
		h.ElimsPerRound = float64(h.Eliminations) / float64(h.Rounds)
		h.DamagePerRound = h.Damage / float64(h.Rounds)
	}
}

func BuildHeroView(facts []MapFact) []HeroTotals {
	totals := map[string]*HeroTotals{}
	order := []string{}

	for _, fact := range facts {
		for _, line := range fact.Lines {
			key := strings.ToLower(line.Hero)

			entry, found := totals[key]
			if !found {
				entry = &HeroTotals{Hero: line.Hero}
				totals[key] = entry
				order = append(order, key)
			}

			entry.addLine(line, fact.Rounds)
		}
	}

	result := make([]HeroTotals, 0, len(order))

	for _, key := range order {
		totals[key].finalize()
		result = append(result, *totals[key])
	}

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Eliminations != result[j].Eliminations {
			return result[i].Eliminations > result[j].Eliminations
		}

		return result[i].Hero < result[j].Hero
	})

	return result
}

// TrendPoint is one map's worth of activity for a detail call, newest first in
// the order the window was scanned.
type TrendPoint struct {
	ScrimID      int       `json:"scrim_id"`
	ScrimDate    time.Time `json:"scrim_date"`
	MapName      string    `json:"map_name"`
	MapType      string    `json:"map_type"`
	Opponent     string    `json:"opponent"`
	Hero         string    `json:"hero"`
	Eliminations int       `json:"eliminations"`
	Deaths       int       `json:"deaths"`
	Damage       float64   `json:"damage"`
	Healing      float64   `json:"healing"`
}

type PlayerDetail struct {
	Player    string       `json:"player"`
	Career    PlayerTotals `json:"career"`
	TrendData []TrendPoint `json:"trend_data"`
}

func BuildPlayerDetail(facts []MapFact, player string) PlayerDetail {
	detail := PlayerDetail{Player: player, TrendData: []TrendPoint{}}
	career := PlayerTotals{Player: player}

	for _, fact := range facts {
		for _, line := range fact.Lines {
			if !strings.EqualFold(line.RawName, player) {
				continue
			}

			career.addLine(line, fact.Rounds)
			detail.TrendData = append(detail.TrendData, TrendPoint{
				ScrimID:      fact.ScrimID,
				ScrimDate:    fact.ScrimDate,
				MapName:      fact.MapName,
				MapType:      string(fact.MapType),
				Opponent:     fact.Opponent,
				Hero:         line.Hero,
				Eliminations: line.Eliminations,
				Deaths:       line.Deaths,
				Damage:       line.Damage,
				Healing:      line.Healing,
			})
		}
	}

	career.finalize()
	detail.Career = career

	return detail
}

type HeroDetail struct {
	Hero       string         `json:"hero"`
	Career     HeroTotals     `json:"career"`
	TopPlayers []PlayerTotals `json:"top_players"`
}

func BuildHeroDetail(facts []MapFact, hero string) HeroDetail {
	detail := HeroDetail{Hero: hero, TopPlayers: []PlayerTotals{}}
	career := HeroTotals{Hero: hero}

	heroFacts := make([]MapFact, 0, len(facts))

	for _, fact := range facts {
		filtered := fact

		filtered.Lines = nil
		for _, line := range fact.Lines {
			if strings.EqualFold(line.Hero, hero) {
				filtered.Lines = append(filtered.Lines, line)
				career.addLine(line, fact.Rounds)
			}
		}

		if len(filtered.Lines) > 0 {
			heroFacts = append(heroFacts, filtered)
		}
	}

	career.finalize()
	detail.Career = career
	detail.TopPlayers = BuildPlayerView(heroFacts, false)

	return detail
}
