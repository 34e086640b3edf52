package scrimlog

import "strings"

// ResultTier distinguishes an authoritative final score from one estimated by a
// fallback heuristic. Consumers flag estimated results visually.
type ResultTier string

const (
	TierAuthoritative ResultTier = "authoritative"
	TierEstimated     ResultTier = "estimated"
)

// Outcome is the computed result for one map. It is derived on read and never
// stored. Nil scores with an empty tier is the valid terminal state for a map
// with no usable scoring data, such as an aborted recording.
type Outcome struct {
	Team1Score *int       `json:"team_1_score"`
	Team2Score *int       `json:"team_2_score"`
	Tier       ResultTier `json:"result_tier,omitempty"`
	Winner     Side       `json:"-"`
}

// WinnerName resolves the winning side against the recorded team names, empty
// when the map was drawn or unscored.
func (o Outcome) WinnerName(start MatchStartEvt) string {
	switch o.Winner {
	case Side1:
		return start.Team1
	case Side2:
		return start.Team2
	default:
		return ""
	}
}

func scoredOutcome(team1 int, team2 int, tier ResultTier) Outcome {
	outcome := Outcome{Team1Score: &team1, Team2Score: &team2, Tier: tier}

	switch {
	case team1 > team2:
		outcome.Winner = Side1
	case team2 > team1:
		outcome.Winner = Side2
	default:
		outcome.Winner = SideNone
	}

	return outcome
}

// Reconcile derives the final score for a map from its parsed events. Tiers are
// tried in order and the first applicable one wins:
//
//  1. The match_end row, taken verbatim.
//  2. The cumulative scores from the highest numbered round_end row.
//  3. On Escort maps only, per-round max payload progress comparison.
//
// When no tier yields data the returned Outcome has nil scores and no winner,
// which is not an error.
func Reconcile(gameLog *GameLog) Outcome {
	if final, ok := reconcileFinal(gameLog.MatchEnd); ok {
		return final
	}

	if rounds, ok := reconcileRounds(gameLog.RoundEnds); ok {
		return rounds
	}

	if gameLog.MatchStart.MapType == Escort {
		if progress, ok := reconcileProgress(gameLog.PayloadProgress, gameLog.MatchStart); ok {
			return progress
		}
	}

	return Outcome{}
}

func reconcileFinal(end *MatchEndEvt) (Outcome, bool) {
	if end == nil {
		return Outcome{}, false
	}

	return scoredOutcome(end.Team1Score, end.Team2Score, TierAuthoritative), true
}

func reconcileRounds(rounds []RoundEndEvt) (Outcome, bool) {
	if len(rounds) == 0 {
		return Outcome{}, false
	}

	last := rounds[0]
	for _, round := range rounds[1:] {
		if round.RoundNum >= last.RoundNum {
			last = round
		}
	}

	return scoredOutcome(last.Team1Score, last.Team2Score, TierEstimated), true
}

// reconcileProgress scores an Escort map from payload observations. Each of the two
// rounds goes to whichever side pushed the payload further in it, a tied round
// awards neither side. An observation only counts when its team matches a recorded
// side and its round number is within the two Escort rounds; if nothing counts the
// map has no usable progress data and stays in the gap state.
func reconcileProgress(observations []PayloadProgressEvt, start MatchStartEvt) (Outcome, bool) {
	if len(observations) == 0 {
		return Outcome{}, false
	}

	const escortRounds = 2

	maxProgress := map[Side][escortRounds + 1]float64{}
	attributed := false

	for _, obs := range observations {
		if obs.RoundNum < 1 || obs.RoundNum > escortRounds {
			continue
		}

		side := matchTeamName(obs.Team, start)
		if side == SideNone {
			continue
		}

		attributed = true

		current := maxProgress[side]
		if obs.Progress > current[obs.RoundNum] {
			current[obs.RoundNum] = obs.Progress
			maxProgress[side] = current
		}
	}

	if !attributed {
		return Outcome{}, false
	}

	var team1Wins, team2Wins int

	for round := 1; round <= escortRounds; round++ {
		side1 := maxProgress[Side1][round]
		side2 := maxProgress[Side2][round]

		switch {
		case side1 > side2:
			team1Wins++
		case side2 > side1:
			team2Wins++
		}
	}

	return scoredOutcome(team1Wins, team2Wins, TierEstimated), true
}

func matchTeamName(name string, start MatchStartEvt) Side {
	switch {
	case teamNamesEqual(name, start.Team1):
		return Side1
	case teamNamesEqual(name, start.Team2):
		return Side2
	default:
		return SideNone
	}
}

func teamNamesEqual(left string, right string) bool {
	return left != "" && strings.EqualFold(strings.TrimSpace(left), strings.TrimSpace(right))
}

// MatchSides resolves which recorded side is "ours" by matching the linked internal
// team name, then the explicit opponent override, against the two team names from
// match_start. When neither matches, the first-listed side is used for ordering
// and ambiguous is true so callers can surface the condition instead of silently
// guessing.
func MatchSides(ourTeam string, opponentOverride string, start MatchStartEvt) (Side, bool) {
	if side := matchTeamName(ourTeam, start); side != SideNone {
		return side, false
	}

	if opponentSide := matchTeamName(opponentOverride, start); opponentSide != SideNone {
		return opponentSide.Other(), false
	}

	return Side1, true
}
