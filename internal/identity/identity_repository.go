package identity

import (
	"context"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/scrimcore/scrimcore/internal/database"
)

type postgresRepository struct {
	db database.Database
}

func NewRepository(db database.Database) Repository {
	return postgresRepository{db: db}
}

func (r postgresRepository) GetTeam(ctx context.Context, teamID int) (Team, error) {
	row := r.db.QueryRow(ctx, `SELECT team_id, team_name, created_on FROM team WHERE team_id = $1`, teamID)

	var team Team
	if errScan := row.Scan(&team.TeamID, &team.TeamName, &team.CreatedOn); errScan != nil {
		return Team{}, database.DBErr(errScan)
	}

	return team, nil
}

func (r postgresRepository) Teams(ctx context.Context) ([]Team, error) {
	rows, errQuery := r.db.QueryBuilder(ctx, r.db.
		Builder().
		Select("team_id", "team_name", "created_on").
		From("team").
		OrderBy("team_name"))
	if errQuery != nil {
		return nil, database.DBErr(errQuery)
	}

	defer rows.Close()

	teams := []Team{}

	for rows.Next() {
		var team Team
		if errScan := rows.Scan(&team.TeamID, &team.TeamName, &team.CreatedOn); errScan != nil {
			return nil, database.DBErr(errScan)
		}

		teams = append(teams, team)
	}

	return teams, nil
}

func (r postgresRepository) SaveTeam(ctx context.Context, team *Team) error {
	if team.TeamID > 0 {
		return database.DBErr(r.db.ExecUpdateBuilder(ctx, r.db.
			Builder().
			Update("team").
			Set("team_name", team.TeamName).
			Where(sq.Eq{"team_id": team.TeamID})))
	}

	team.CreatedOn = time.Now()

	query := r.db.
		Builder().
		Insert("team").
		Columns("team_name", "created_on").
		Values(team.TeamName, team.CreatedOn).
		Suffix("RETURNING team_id")

	return database.DBErr(r.db.ExecInsertBuilderWithReturnValue(ctx, query, &team.TeamID))
}

func (r postgresRepository) GetPlayer(ctx context.Context, playerID int) (PlayerIdentity, error) {
	row := r.db.QueryRow(ctx,
		`SELECT player_id, name, team_id, created_on, updated_on FROM player_identity WHERE player_id = $1`,
		playerID)

	var player PlayerIdentity
	if errScan := row.Scan(&player.PlayerID, &player.Name, &player.TeamID,
		&player.CreatedOn, &player.UpdatedOn); errScan != nil {
		return PlayerIdentity{}, database.DBErr(errScan)
	}

	return player, nil
}

func (r postgresRepository) Players(ctx context.Context, teamID *int) ([]PlayerIdentity, error) {
	builder := r.db.
		Builder().
		Select("player_id", "name", "team_id", "created_on", "updated_on").
		From("player_identity").
		OrderBy("name")

	if teamID != nil {
		builder = builder.Where(sq.Eq{"team_id": *teamID})
	}

	rows, errQuery := r.db.QueryBuilder(ctx, builder)
	if errQuery != nil {
		return nil, database.DBErr(errQuery)
	}

	defer rows.Close()

	players := []PlayerIdentity{}

	for rows.Next() {
		var player PlayerIdentity
		if errScan := rows.Scan(&player.PlayerID, &player.Name, &player.TeamID,
			&player.CreatedOn, &player.UpdatedOn); errScan != nil {
			return nil, database.DBErr(errScan)
		}

		players = append(players, player)
	}

	return players, nil
}

func (r postgresRepository) SavePlayer(ctx context.Context, player *PlayerIdentity) error {
	now := time.Now()

	if player.PlayerID > 0 {
		player.UpdatedOn = now

		return database.DBErr(r.db.ExecUpdateBuilder(ctx, r.db.
			Builder().
			Update("player_identity").
			Set("name", player.Name).
			Set("team_id", player.TeamID).
			Set("updated_on", player.UpdatedOn).
			Where(sq.Eq{"player_id": player.PlayerID})))
	}

	player.CreatedOn = now
	player.UpdatedOn = now

	query := r.db.
		Builder().
		Insert("player_identity").
		Columns("name", "team_id", "created_on", "updated_on").
		Values(player.Name, player.TeamID, player.CreatedOn, player.UpdatedOn).
		Suffix("RETURNING player_id")

	errInsert := r.db.ExecInsertBuilderWithReturnValue(ctx, query, &player.PlayerID)
	if errInsert != nil {
		if errors.Is(database.DBErr(errInsert), database.ErrDuplicate) {
			return database.ErrDuplicate
		}

		return database.DBErr(errInsert)
	}

	return nil
}

// DistinctAliases returns every raw name ever recorded on a map roster together
// with its resolved identity, if any. Input for the offline duplicate scan.
func (r postgresRepository) DistinctAliases(ctx context.Context) ([]Alias, error) {
	rows, errQuery := r.db.QueryBuilder(ctx, r.db.
		Builder().
		Select("DISTINCT r.raw_name", "r.player_id").
		From("map_roster r").
		OrderBy("r.raw_name"))
	if errQuery != nil {
		return nil, database.DBErr(errQuery)
	}

	defer rows.Close()

	aliases := []Alias{}

	for rows.Next() {
		var alias Alias
		if errScan := rows.Scan(&alias.RawName, &alias.PlayerID); errScan != nil {
			return nil, database.DBErr(errScan)
		}

		aliases = append(aliases, alias)
	}

	return aliases, nil
}
