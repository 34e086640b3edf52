package identity_test

import (
	"context"
	"testing"

	"github.com/scrimcore/scrimcore/internal/database"
	"github.com/scrimcore/scrimcore/internal/identity"
	"github.com/stretchr/testify/require"
)

type fakeRepository struct {
	players map[int]identity.PlayerIdentity
	aliases []identity.Alias
}

func (f fakeRepository) GetTeam(_ context.Context, _ int) (identity.Team, error) {
	return identity.Team{}, database.ErrNoResult
}

func (f fakeRepository) Teams(_ context.Context) ([]identity.Team, error) {
	return nil, nil
}

func (f fakeRepository) SaveTeam(_ context.Context, _ *identity.Team) error {
	return nil
}

func (f fakeRepository) GetPlayer(_ context.Context, playerID int) (identity.PlayerIdentity, error) {
	player, found := f.players[playerID]
	if !found {
		return identity.PlayerIdentity{}, database.ErrNoResult
	}

	return player, nil
}

func (f fakeRepository) Players(_ context.Context, _ *int) ([]identity.PlayerIdentity, error) {
	return nil, nil
}

func (f fakeRepository) SavePlayer(_ context.Context, _ *identity.PlayerIdentity) error {
	return nil
}

func (f fakeRepository) DistinctAliases(_ context.Context) ([]identity.Alias, error) {
	return f.aliases, nil
}

func TestResolveAppliesMapping(t *testing.T) {
	repo := fakeRepository{players: map[int]identity.PlayerIdentity{
		7: {PlayerID: 7, Name: "Jamie Park"},
	}}

	identities := identity.NewIdentities(repo)

	resolutions, errResolve := identities.Resolve(context.Background(),
		map[string]int{"xXStrayXx": 7},
		[]string{"xXStrayXx", "RandomRinger"})
	require.NoError(t, errResolve)
	require.Len(t, resolutions, 2)

	require.Equal(t, "xXStrayXx", resolutions[0].RawName)
	require.NotNil(t, resolutions[0].Player)
	require.Equal(t, 7, resolutions[0].Player.PlayerID)

	// Unmapped names stay literal with no identity attached.
	require.Equal(t, "RandomRinger", resolutions[1].RawName)
	require.Nil(t, resolutions[1].Player)
}

func TestResolveUnknownIdentity(t *testing.T) {
	identities := identity.NewIdentities(fakeRepository{players: map[int]identity.PlayerIdentity{}})

	_, errResolve := identities.Resolve(context.Background(),
		map[string]int{"xXStrayXx": 99}, []string{"xXStrayXx"})
	require.ErrorIs(t, errResolve, identity.ErrUnknownIdentity)
}

func TestScanDuplicates(t *testing.T) {
	seven := 7

	repo := fakeRepository{aliases: []identity.Alias{
		{RawName: "Stray"},
		{RawName: "Strey"},
		{RawName: "Kodiak"},
		{RawName: "xXStrayXx", PlayerID: &seven},
	}}

	identities := identity.NewIdentities(repo)

	candidates, errScan := identities.ScanDuplicates(context.Background(), 2)
	require.NoError(t, errScan)
	require.Len(t, candidates, 1)
	require.Equal(t, "Stray", candidates[0].NameA)
	require.Equal(t, "Strey", candidates[0].NameB)
	require.Equal(t, 1, candidates[0].Distance)
}

func TestScanDuplicatesSkipsSharedIdentity(t *testing.T) {
	seven := 7

	repo := fakeRepository{aliases: []identity.Alias{
		{RawName: "Stray", PlayerID: &seven},
		{RawName: "Strey", PlayerID: &seven},
	}}

	identities := identity.NewIdentities(repo)

	candidates, errScan := identities.ScanDuplicates(context.Background(), 2)
	require.NoError(t, errScan)
	require.Empty(t, candidates)
}
