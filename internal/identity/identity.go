// Package identity maps raw in-game player names onto canonical player identities.
package identity

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

var (
	ErrNameTooShort    = errors.New("name too short")
	ErrUnknownIdentity = errors.New("mapping references an unknown player identity")
)

// Team is an internal roster team that scrims and identities can link to.
type Team struct {
	TeamID    int       `json:"team_id"`
	TeamName  string    `json:"team_name"`
	CreatedOn time.Time `json:"created_on"`
}

// PlayerIdentity is a canonical person, optionally linked to a roster team.
// Created lazily during resolution and reused across scrims.
type PlayerIdentity struct {
	PlayerID  int       `json:"player_id"`
	Name      string    `json:"name"`
	TeamID    *int      `json:"team_id,omitempty"`
	CreatedOn time.Time `json:"created_on"`
	UpdatedOn time.Time `json:"updated_on"`
}

// Repository is the storage surface for teams and identities. Kept as an
// interface so resolution logic can be exercised without a database.
type Repository interface {
	GetTeam(ctx context.Context, teamID int) (Team, error)
	Teams(ctx context.Context) ([]Team, error)
	SaveTeam(ctx context.Context, team *Team) error
	GetPlayer(ctx context.Context, playerID int) (PlayerIdentity, error)
	Players(ctx context.Context, teamID *int) ([]PlayerIdentity, error)
	SavePlayer(ctx context.Context, player *PlayerIdentity) error
	DistinctAliases(ctx context.Context) ([]Alias, error)
}

type Identities struct {
	repository Repository
}

func NewIdentities(repository Repository) Identities {
	return Identities{repository: repository}
}

func (u Identities) GetTeam(ctx context.Context, teamID int) (Team, error) {
	return u.repository.GetTeam(ctx, teamID)
}

func (u Identities) Teams(ctx context.Context) ([]Team, error) {
	return u.repository.Teams(ctx)
}

func (u Identities) SaveTeam(ctx context.Context, team *Team) error {
	if len(team.TeamName) < 2 {
		return ErrNameTooShort
	}

	return u.repository.SaveTeam(ctx, team)
}

func (u Identities) GetPlayer(ctx context.Context, playerID int) (PlayerIdentity, error) {
	return u.repository.GetPlayer(ctx, playerID)
}

func (u Identities) Players(ctx context.Context, teamID *int) ([]PlayerIdentity, error) {
	return u.repository.Players(ctx, teamID)
}

func (u Identities) SavePlayer(ctx context.Context, player *PlayerIdentity) error {
	if len(player.Name) < 2 {
		return ErrNameTooShort
	}

	if err := u.repository.SavePlayer(ctx, player); err != nil {
		return err
	}

	slog.Info("Saved player identity",
		slog.Int("player_id", player.PlayerID), slog.String("name", player.Name))

	return nil
}

// Resolution pairs a raw in-game name with its canonical identity, nil when the
// operator chose not to map it. Unresolved names still aggregate under their
// literal value downstream.
type Resolution struct {
	RawName string          `json:"raw_name"`
	Player  *PlayerIdentity `json:"player,omitempty"`
}

// Resolve applies an operator-supplied rawName to player id mapping over a side's
// roster. It performs no fuzzy matching, the duplicate scan is a separate offline
// routine. A mapping entry pointing at a missing identity fails the whole call so
// an upload batch aborts before anything persists.
func (u Identities) Resolve(ctx context.Context, mapping map[string]int, rawNames []string) ([]Resolution, error) {
	resolutions := make([]Resolution, 0, len(rawNames))

	for _, rawName := range rawNames {
		resolution := Resolution{RawName: rawName}

		if playerID, found := mapping[rawName]; found {
			player, errPlayer := u.repository.GetPlayer(ctx, playerID)
			if errPlayer != nil {
				return nil, errors.Join(errPlayer, ErrUnknownIdentity)
			}

			resolution.Player = &player
		}

		resolutions = append(resolutions, resolution)
	}

	return resolutions, nil
}
