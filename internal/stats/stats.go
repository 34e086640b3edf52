// Package stats builds read-only rollups over recent scrim activity. All views
// are pure folds over a bounded window of maps, recomputed per request, nothing
// is cached or stored.
package stats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/scrimcore/scrimcore/internal/identity"
	"github.com/scrimcore/scrimcore/internal/scrim"
	"github.com/scrimcore/scrimcore/pkg/log"
)

var ErrInvalidRange = errors.New("invalid range selector")

// Range bounds how many maps a view scans. Count ranges are measured in maps,
// not scrims, a three map scrim contributes three units to the window.
type Range string

const (
	RangeLast10  Range = "last10"
	RangeLast20  Range = "last20"
	RangeLast50  Range = "last50"
	RangeLast30d Range = "last30d"
	RangeAll     Range = "all"
)

// ParseRange validates a range selector. last10 is only accepted where
// allowShort is set, the player and hero views.
func ParseRange(value string, allowShort bool) (Range, error) {
	switch Range(value) {
	case RangeLast10:
		if !allowShort {
			return "", fmt.Errorf("%w: %s", ErrInvalidRange, value)
		}

		return RangeLast10, nil
	case RangeLast20, RangeLast50, RangeLast30d, RangeAll:
		return Range(value), nil
	case "":
		return RangeAll, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrInvalidRange, value)
	}
}

// MapLimit returns the map-count bound for the range, 0 meaning unbounded.
func (r Range) MapLimit() int {
	switch r {
	case RangeLast10:
		return 10
	case RangeLast20:
		return 20
	case RangeLast50:
		return 50
	default:
		return 0
	}
}

// Cutoff returns the wall-clock lower bound for date ranges, nil otherwise.
func (r Range) Cutoff(now time.Time) *time.Time {
	if r != RangeLast30d {
		return nil
	}

	cutoff := now.AddDate(0, 0, -30)

	return &cutoff
}

// MapBundle is one windowed map with everything a view needs, loaded in a
// single repository pass so aggregation itself never touches storage.
type MapBundle struct {
	Scrim  scrim.Scrim
	Record scrim.MapRecord
	Events []scrim.StoredEvent
	Roster []scrim.RosterEntry
}

type Repository interface {
	// RecentMaps returns the newest maps first, bounded by map count and date
	// cutoff, optionally filtered to scrims linked to one team.
	RecentMaps(ctx context.Context, teamID *int, limit int, cutoff *time.Time) ([]MapBundle, error)
	// LatestReviews returns the most recent review per scrim id.
	LatestReviews(ctx context.Context, scrimIDs []int) (map[int]scrim.Review, error)
}

type ViewQuery struct {
	Range  Range
	TeamID *int
}

type Stats struct {
	repository Repository
	identities identity.Identities
}

func NewStats(repository Repository, identities identity.Identities) Stats {
	return Stats{repository: repository, identities: identities}
}

func (u Stats) window(ctx context.Context, query ViewQuery) ([]MapFact, error) {
	bundles, errBundles := u.repository.RecentMaps(ctx, query.TeamID, query.Range.MapLimit(), query.Range.Cutoff(time.Now()))
	if errBundles != nil {
		return nil, errBundles
	}

	return u.buildFacts(ctx, bundles), nil
}

// buildFacts converts raw bundles into the normalized per-map records the fold
// functions consume. A bundle that fails to decode is dropped with a warning
// rather than failing the whole view, stored rows are trusted but not fatal.
func (u Stats) buildFacts(ctx context.Context, bundles []MapBundle) []MapFact {
	teamNames := map[int]string{}

	lookup := func(teamID *int) string {
		if teamID == nil {
			return ""
		}

		if name, found := teamNames[*teamID]; found {
			return name
		}

		name := ""

		team, errTeam := u.identities.GetTeam(ctx, *teamID)
		if errTeam == nil {
			name = team.TeamName
		}

		teamNames[*teamID] = name

		return name
	}

	facts := make([]MapFact, 0, len(bundles))

	for _, bundle := range bundles {
		fact, errFact := NewMapFact(bundle, lookup(bundle.Scrim.TeamID))
		if errFact != nil {
			slog.Warn("Skipping undecodable map",
				slog.Int("map_id", bundle.Record.MapID), log.ErrAttr(errFact))

			continue
		}

		facts = append(facts, fact)
	}

	return facts
}

func (u Stats) OpponentView(ctx context.Context, query ViewQuery) (OpponentView, error) {
	facts, errFacts := u.window(ctx, query)
	if errFacts != nil {
		return OpponentView{}, errFacts
	}

	scrimIDs := make([]int, 0, len(facts))
	seen := map[int]bool{}

	for _, fact := range facts {
		if !seen[fact.ScrimID] {
			seen[fact.ScrimID] = true

			scrimIDs = append(scrimIDs, fact.ScrimID)
		}
	}

	reviews, errReviews := u.repository.LatestReviews(ctx, scrimIDs)
	if errReviews != nil {
		return OpponentView{}, errReviews
	}

	return BuildOpponentView(query.TeamID, facts, reviews), nil
}

func (u Stats) MapTypeView(ctx context.Context, query ViewQuery) ([]MapTypeTally, error) {
	facts, errFacts := u.window(ctx, query)
	if errFacts != nil {
		return nil, errFacts
	}

	return BuildMapTypeView(facts), nil
}

func (u Stats) PlayerView(ctx context.Context, query ViewQuery) ([]PlayerTotals, error) {
	facts, errFacts := u.window(ctx, query)
	if errFacts != nil {
		return nil, errFacts
	}

	return BuildPlayerView(facts, query.TeamID != nil), nil
}

func (u Stats) HeroView(ctx context.Context, query ViewQuery) ([]HeroTotals, error) {
	facts, errFacts := u.window(ctx, query)
	if errFacts != nil {
		return nil, errFacts
	}

	return BuildHeroView(facts), nil
}

func (u Stats) PlayerDetail(ctx context.Context, query ViewQuery, player string) (PlayerDetail, error) {
	facts, errFacts := u.window(ctx, query)
	if errFacts != nil {
		return PlayerDetail{}, errFacts
	}

	return BuildPlayerDetail(facts, player), nil
}

func (u Stats) HeroDetail(ctx context.Context, query ViewQuery, hero string) (HeroDetail, error) {
	facts, errFacts := u.window(ctx, query)
	if errFacts != nil {
		return HeroDetail{}, errFacts
	}

	return BuildHeroDetail(facts, hero), nil
}
