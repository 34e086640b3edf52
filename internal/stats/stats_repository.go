package stats

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/scrimcore/scrimcore/internal/database"
	"github.com/scrimcore/scrimcore/internal/scrim"
	"github.com/scrimcore/scrimcore/pkg/scrimlog"
)

type postgresRepository struct {
	db     database.Database
	scrims scrim.Repository
}

// NewRepository reuses the scrim repository for per-map event and roster loads
// so the row shapes stay defined in one place.
func NewRepository(db database.Database, scrims scrim.Repository) Repository {
	return &postgresRepository{db: db, scrims: scrims}
}

func (r *postgresRepository) RecentMaps(ctx context.Context, teamID *int, limit int, cutoff *time.Time) ([]MapBundle, error) {
	builder := r.db.Builder().
		Select("m.map_id", "m.scrim_id", "m.position", "m.map_name", "m.map_type",
			"m.team_1", "m.team_2", "m.created_on",
			"s.batch_id", "s.scrim_name", "s.scrim_date", "s.team_id", "s.opponent_override", "s.created_on").
		From("scrim_map m").
		Join("scrim s ON s.scrim_id = m.scrim_id").
		OrderBy("s.scrim_date DESC", "s.scrim_id DESC", "m.position DESC")

	if teamID != nil {
		builder = builder.Where(sq.Eq{"s.team_id": *teamID})
	}

	if cutoff != nil {
		builder = builder.Where(sq.GtOrEq{"s.scrim_date": *cutoff})
	}

	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}

	rows, errRows := r.db.QueryBuilder(ctx, builder)
	if errRows != nil {
		return nil, database.DBErr(errRows)
	}

	defer rows.Close()

	bundles := []MapBundle{}

	for rows.Next() {
		var (
			bundle  MapBundle
			mapType string
		)

		if errScan := rows.Scan(&bundle.Record.MapID, &bundle.Record.ScrimID, &bundle.Record.Position,
			&bundle.Record.MapName, &mapType, &bundle.Record.Team1, &bundle.Record.Team2,
			&bundle.Record.CreatedOn,
			&bundle.Scrim.BatchID, &bundle.Scrim.Name, &bundle.Scrim.ScrimDate, &bundle.Scrim.TeamID,
			&bundle.Scrim.OpponentOverride, &bundle.Scrim.CreatedOn); errScan != nil {
			return nil, database.DBErr(errScan)
		}

		bundle.Record.MapType = scrimlog.MapTypeFromString(mapType)
		bundle.Scrim.ScrimID = bundle.Record.ScrimID

		bundles = append(bundles, bundle)
	}

	for idx := range bundles {
		events, errEvents := r.scrims.MapEvents(ctx, bundles[idx].Record.MapID)
		if errEvents != nil {
			return nil, errEvents
		}

		roster, errRoster := r.scrims.MapRoster(ctx, bundles[idx].Record.MapID)
		if errRoster != nil {
			return nil, errRoster
		}

		bundles[idx].Events = events
		bundles[idx].Roster = roster
	}

	return bundles, nil
}

func (r *postgresRepository) LatestReviews(ctx context.Context, scrimIDs []int) (map[int]scrim.Review, error) {
	reviews := map[int]scrim.Review{}

	if len(scrimIDs) == 0 {
		return reviews, nil
	}

	rows, errRows := r.db.Query(ctx, `
		SELECT DISTINCT ON (scrim_id) review_id, scrim_id, notes, rating, created_on
		FROM scrim_review
		WHERE scrim_id = ANY($1)
		ORDER BY scrim_id, created_on DESC`, scrimIDs)
	if errRows != nil {
		return nil, database.DBErr(errRows)
	}

	defer rows.Close()

	for rows.Next() {
		var review scrim.Review
		if errScan := rows.Scan(&review.ReviewID, &review.ScrimID, &review.Notes,
			&review.Rating, &review.CreatedOn); errScan != nil {
			return nil, database.DBErr(errScan)
		}

		reviews[review.ScrimID] = review
	}

	return reviews, nil
}
