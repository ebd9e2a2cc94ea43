package registration

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/Sternrassler/pokeapi-client/pkg/starter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "players.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

var charmander = starter.Starter{ID: 4, Name: "charmander", DisplayName: "Charmander", Order: 5, FlavorText: "Obviously prefers hot places."}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := Open("  ")
	require.Error(t, err)
}

func TestRegisterPlayer(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	registeredAt := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return registeredAt }

	registered, err := store.IsPlayerRegistered(ctx, "ash")
	require.NoError(t, err)
	assert.False(t, registered)

	require.NoError(t, store.RegisterPlayer(ctx, "ash", charmander))

	registered, err = store.IsPlayerRegistered(ctx, "ash")
	require.NoError(t, err)
	assert.True(t, registered)

	player, err := store.GetPlayer(ctx, "ash")
	require.NoError(t, err)
	assert.Equal(t, Player{
		ID:           "ash",
		Pokemon:      []starter.Starter{charmander},
		Buddy:        0,
		RegisteredAt: registeredAt,
	}, player)
}

func TestRegisterPlayer_Duplicate(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.RegisterPlayer(ctx, "misty", charmander))

	err := store.RegisterPlayer(ctx, "misty", starter.Starter{ID: 7, Name: "squirtle"})
	require.ErrorIs(t, err, ErrPlayerAlreadyExists)

	player, err := store.GetPlayer(ctx, "misty")
	require.NoError(t, err)
	require.Len(t, player.Pokemon, 1)
	assert.Equal(t, "charmander", player.Pokemon[0].Name, "first registration wins")
}

func TestRegisterPlayer_Invalid(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	assert.ErrorIs(t, store.RegisterPlayer(ctx, "", charmander), ErrInvalidPlayer)
	assert.ErrorIs(t, store.RegisterPlayer(ctx, "   ", charmander), ErrInvalidPlayer)
	assert.ErrorIs(t, store.RegisterPlayer(ctx, "brock", starter.Starter{}), ErrInvalidPlayer)
}

func TestRegisterPlayer_CancelledContext(t *testing.T) {
	store := openTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, store.RegisterPlayer(ctx, "gary", charmander), context.Canceled)
}

func TestGetPlayer_NotFound(t *testing.T) {
	store := openTestStore(t)
	_, err := store.GetPlayer(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrPlayerNotFound)
}

func TestStore_PersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "players.db")
	ctx := context.Background()

	first, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, first.RegisterPlayer(ctx, "oak", charmander))
	require.NoError(t, first.Close())

	second, err := Open(path)
	require.NoError(t, err)
	defer second.Close()

	registered, err := second.IsPlayerRegistered(ctx, "oak")
	require.NoError(t, err)
	assert.True(t, registered)
}
