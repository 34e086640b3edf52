package scrim

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/scrimcore/scrimcore/internal/database"
	"github.com/scrimcore/scrimcore/pkg/scrimlog"
)

type postgresRepository struct {
	db database.Database
}

func NewRepository(db database.Database) Repository {
	return &postgresRepository{db: db}
}

// SaveBatch persists a scrim with all maps, events and roster rows inside one
// transaction. A failure anywhere rolls the whole batch back.
func (r *postgresRepository) SaveBatch(ctx context.Context, scrim *Scrim, maps []MapUpload) error {
	return database.DBErr(r.db.WrapTx(ctx, func(tx pgx.Tx) error {
		if errScrim := tx.QueryRow(ctx, `
			INSERT INTO scrim (batch_id, scrim_name, scrim_date, team_id, opponent_override, created_on)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING scrim_id`,
			scrim.BatchID, scrim.Name, scrim.ScrimDate, scrim.TeamID, scrim.OpponentOverride, scrim.CreatedOn).
			Scan(&scrim.ScrimID); errScrim != nil {
			return errScrim
		}

		for idx := range maps {
			upload := &maps[idx]
			upload.Record.ScrimID = scrim.ScrimID
			upload.Record.CreatedOn = scrim.CreatedOn

			if errMap := tx.QueryRow(ctx, `
				INSERT INTO scrim_map (scrim_id, position, map_name, map_type, team_1, team_2, created_on)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
				RETURNING map_id`,
				upload.Record.ScrimID, upload.Record.Position, upload.Record.MapName,
				string(upload.Record.MapType), upload.Record.Team1, upload.Record.Team2,
				upload.Record.CreatedOn).
				Scan(&upload.Record.MapID); errMap != nil {
				return errMap
			}

			for _, event := range upload.Events {
				if _, errEvent := tx.Exec(ctx, `
					INSERT INTO map_event (map_id, line_num, kind, payload)
					VALUES ($1, $2, $3, $4)`,
					upload.Record.MapID, event.LineNum, string(event.Kind), event.Payload); errEvent != nil {
					return errEvent
				}
			}

			for _, entry := range upload.Roster {
				if _, errRoster := tx.Exec(ctx, `
					INSERT INTO map_roster (map_id, team_name, raw_name, player_id)
					VALUES ($1, $2, $3, $4)
					ON CONFLICT (map_id, team_name, raw_name) DO UPDATE SET player_id = excluded.player_id`,
					upload.Record.MapID, entry.TeamName, entry.RawName, entry.PlayerID); errRoster != nil {
					return errRoster
				}
			}
		}

		return nil
	}))
}

func (r *postgresRepository) GetScrim(ctx context.Context, scrimID int) (Scrim, error) {
	var scrim Scrim

	row := r.db.QueryRow(ctx, `
		SELECT scrim_id, batch_id, scrim_name, scrim_date, team_id, opponent_override, created_on
		FROM scrim WHERE scrim_id = $1`, scrimID)

	if errScan := row.Scan(&scrim.ScrimID, &scrim.BatchID, &scrim.Name, &scrim.ScrimDate,
		&scrim.TeamID, &scrim.OpponentOverride, &scrim.CreatedOn); errScan != nil {
		return scrim, database.DBErr(errScan)
	}

	return scrim, nil
}

func (r *postgresRepository) Scrims(ctx context.Context, query ScrimsQuery) ([]Scrim, int64, error) {
	builder := r.db.Builder().
		Select("scrim_id", "batch_id", "scrim_name", "scrim_date", "team_id", "opponent_override", "created_on").
		From("scrim").
		OrderBy("scrim_date DESC", "scrim_id DESC")

	countBuilder := r.db.Builder().Select("count(scrim_id)").From("scrim")

	if query.TeamID != nil {
		builder = builder.Where(sq.Eq{"team_id": *query.TeamID})
		countBuilder = countBuilder.Where(sq.Eq{"team_id": *query.TeamID})
	}

	if query.Limit > 0 {
		builder = builder.Limit(uint64(query.Limit))
	}

	if query.Offset > 0 {
		builder = builder.Offset(uint64(query.Offset))
	}

	rows, errRows := r.db.QueryBuilder(ctx, builder)
	if errRows != nil {
		return nil, 0, database.DBErr(errRows)
	}

	defer rows.Close()

	scrims := []Scrim{}

	for rows.Next() {
		var scrim Scrim
		if errScan := rows.Scan(&scrim.ScrimID, &scrim.BatchID, &scrim.Name, &scrim.ScrimDate,
			&scrim.TeamID, &scrim.OpponentOverride, &scrim.CreatedOn); errScan != nil {
			return nil, 0, database.DBErr(errScan)
		}

		scrims = append(scrims, scrim)
	}

	count, errCount := r.db.GetCount(ctx, countBuilder)
	if errCount != nil {
		return nil, 0, database.DBErr(errCount)
	}

	return scrims, count, nil
}

func (r *postgresRepository) ScrimMaps(ctx context.Context, scrimID int) ([]MapRecord, error) {
	rows, errRows := r.db.Query(ctx, `
		SELECT map_id, scrim_id, position, map_name, map_type, team_1, team_2, created_on
		FROM scrim_map WHERE scrim_id = $1 ORDER BY position`, scrimID)
	if errRows != nil {
		return nil, database.DBErr(errRows)
	}

	defer rows.Close()

	return scanMapRecords(rows)
}

func (r *postgresRepository) GetMap(ctx context.Context, mapID int) (MapRecord, error) {
	var (
		record  MapRecord
		mapType string
	)

	row := r.db.QueryRow(ctx, `
		SELECT map_id, scrim_id, position, map_name, map_type, team_1, team_2, created_on
		FROM scrim_map WHERE map_id = $1`, mapID)

	if errScan := row.Scan(&record.MapID, &record.ScrimID, &record.Position, &record.MapName,
		&mapType, &record.Team1, &record.Team2, &record.CreatedOn); errScan != nil {
		return record, database.DBErr(errScan)
	}

	record.MapType = scrimlog.MapTypeFromString(mapType)

	return record, nil
}

func (r *postgresRepository) MapEvents(ctx context.Context, mapID int) ([]StoredEvent, error) {
	rows, errRows := r.db.Query(ctx, `
		SELECT event_id, map_id, line_num, kind, payload
		FROM map_event WHERE map_id = $1 ORDER BY line_num`, mapID)
	if errRows != nil {
		return nil, database.DBErr(errRows)
	}

	defer rows.Close()

	events := []StoredEvent{}

	for rows.Next() {
		var (
			event StoredEvent
			kind  string
		)

		if errScan := rows.Scan(&event.EventID, &event.MapID, &event.LineNum, &kind, &event.Payload); errScan != nil {
			return nil, database.DBErr(errScan)
		}

		event.Kind = scrimlog.EventKind(kind)
		events = append(events, event)
	}

	return events, nil
}

func (r *postgresRepository) MapRoster(ctx context.Context, mapID int) ([]RosterEntry, error) {
	rows, errRows := r.db.Query(ctx, `
		SELECT map_id, team_name, raw_name, player_id
		FROM map_roster WHERE map_id = $1 ORDER BY team_name, raw_name`, mapID)
	if errRows != nil {
		return nil, database.DBErr(errRows)
	}

	defer rows.Close()

	roster := []RosterEntry{}

	for rows.Next() {
		var entry RosterEntry
		if errScan := rows.Scan(&entry.MapID, &entry.TeamName, &entry.RawName, &entry.PlayerID); errScan != nil {
			return nil, database.DBErr(errScan)
		}

		roster = append(roster, entry)
	}

	return roster, nil
}

// Delete relies on ON DELETE CASCADE to clear maps, events, roster rows and
// reviews along with the scrim.
func (r *postgresRepository) Delete(ctx context.Context, scrimID int) error {
	return database.DBErr(r.db.ExecDeleteBuilder(ctx, r.db.Builder().
		Delete("scrim").
		Where(sq.Eq{"scrim_id": scrimID})))
}

func (r *postgresRepository) SaveReview(ctx context.Context, review *Review) error {
	return database.DBErr(r.db.ExecInsertBuilderWithReturnValue(ctx, r.db.Builder().
		Insert("scrim_review").
		SetMap(map[string]any{
			"scrim_id":   review.ScrimID,
			"notes":      review.Notes,
			"rating":     review.Rating,
			"created_on": review.CreatedOn,
		}).
		Suffix("RETURNING review_id"), &review.ReviewID))
}

func (r *postgresRepository) Reviews(ctx context.Context, scrimID int) ([]Review, error) {
	rows, errRows := r.db.QueryBuilder(ctx, r.db.Builder().
		Select("review_id", "scrim_id", "notes", "rating", "created_on").
		From("scrim_review").
		Where(sq.Eq{"scrim_id": scrimID}).
		OrderBy("created_on DESC"))
	if errRows != nil {
		return nil, database.DBErr(errRows)
	}

	defer rows.Close()

	reviews := []Review{}

	for rows.Next() {
		var review Review
		if errScan := rows.Scan(&review.ReviewID, &review.ScrimID, &review.Notes,
			&review.Rating, &review.CreatedOn); errScan != nil {
			return nil, database.DBErr(errScan)
		}

		reviews = append(reviews, review)
	}

	return reviews, nil
}

func scanMapRecords(rows pgx.Rows) ([]MapRecord, error) {
	records := []MapRecord{}

	for rows.Next() {
		var (
			record  MapRecord
			mapType string
		)

		if errScan := rows.Scan(&record.MapID, &record.ScrimID, &record.Position, &record.MapName,
			&mapType, &record.Team1, &record.Team2, &record.CreatedOn); errScan != nil {
			return nil, database.DBErr(errScan)
		}

		record.MapType = scrimlog.MapTypeFromString(mapType)
		records = append(records, record)
	}

	return records, nil
}
