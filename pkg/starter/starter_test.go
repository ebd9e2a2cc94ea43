package starter

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Sternrassler/pokeapi-client/internal/testutil"
	"github.com/Sternrassler/pokeapi-client/pkg/client"
	"github.com/Sternrassler/pokeapi-client/pkg/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultNames(t *testing.T) {
	assert.Len(t, DefaultNames, 24)

	seen := make(map[string]bool)
	for _, name := range DefaultNames {
		assert.False(t, seen[name], "duplicate starter %s", name)
		seen[name] = true
	}
}

func englishRef() resource.NamedResource[resource.Language] {
	return resource.NamedResource[resource.Language]{Name: "en", URL: "https://pokeapi.co/api/v2/language/9/"}
}

func TestFromResources(t *testing.T) {
	p := resource.Pokemon{ID: 4, Name: "charmander", Order: 5}
	s := resource.PokemonSpecies{
		ID:            4,
		Name:          "charmander",
		CaptureRate:   45,
		BaseHappiness: 50,
		GenderRate:    1,
		Names: []resource.Name{
			{Name: "Glumanda", Language: resource.NamedResource[resource.Language]{Name: "de"}},
			{Name: "Charmander", Language: englishRef()},
		},
		FlavorTextEntries: []resource.FlavorText{
			{FlavorText: "Auf dem Schwanz\nlodert eine Flamme.", Language: resource.NamedResource[resource.Language]{Name: "de"}},
			{FlavorText: "Obviously prefers\nhot places. When\fit rains, steam\nis said to spout\nfrom the tip of\nits tail.", Language: englishRef()},
			{FlavorText: "A later entry.", Language: englishRef()},
		},
	}

	got := FromResources(p, s, "")

	assert.Equal(t, Starter{
		ID:            4,
		Name:          "charmander",
		DisplayName:   "Charmander",
		Order:         5,
		CaptureRate:   45,
		BaseHappiness: 50,
		GenderRate:    1,
		FlavorText:    "Obviously prefers hot places. When it rains, steam is said to spout from the tip of its tail.",
	}, got)

	de := FromResources(p, s, "de")
	assert.Equal(t, "Glumanda", de.DisplayName)
	assert.Equal(t, "Auf dem Schwanz lodert eine Flamme.", de.FlavorText)

	fr := FromResources(p, s, "fr")
	assert.Equal(t, "charmander", fr.DisplayName)
	assert.Empty(t, fr.FlavorText)
}

func serveStarter(mock *testutil.MockPokeAPI, id int, name string, order int) {
	mock.SetResource("pokemon", name, testutil.NewFreshResponse(fmt.Sprintf(
		`{"id":%d,"name":%q,"order":%d,"species":{"name":%q,"url":"%spokemon-species/%d/"}}`,
		id, name, order, name, mock.BaseURL(), id)))
	mock.SetResource("pokemon-species", fmt.Sprint(id), testutil.NewFreshResponse(fmt.Sprintf(
		`{"id":%d,"name":%q,"order":%d,"capture_rate":45,"names":[{"name":"Display %s","language":{"name":"en","url":""}}],`+
			`"flavor_text_entries":[{"flavor_text":"About\n%s.","language":{"name":"en","url":""}}],"form_descriptions":[]}`,
		id, name, order, name, name)))
}

func TestLoad(t *testing.T) {
	mock := testutil.NewMockPokeAPI()
	defer mock.Close()
	serveStarter(mock, 7, "squirtle", 10)
	serveStarter(mock, 1, "bulbasaur", 1)
	serveStarter(mock, 4, "charmander", 5)

	cacheDir := t.TempDir()
	var created atomic.Int32
	newClient := func() (*client.Client, error) {
		created.Add(1)
		cfg := client.DefaultConfig()
		cfg.BaseURL = mock.BaseURL()
		cfg.CacheDir = cacheDir
		cfg.Timeout = 5 * time.Second
		return client.New(cfg)
	}

	// Reverse order on purpose, the result is sorted by Order.
	starters, err := Load(context.Background(), newClient, []string{"squirtle", "charmander", "bulbasaur"})
	require.NoError(t, err)
	require.Len(t, starters, 3)

	assert.Equal(t, []string{"bulbasaur", "charmander", "squirtle"},
		[]string{starters[0].Name, starters[1].Name, starters[2].Name})
	assert.Equal(t, "Display charmander", starters[1].DisplayName)
	assert.Equal(t, "About charmander.", starters[1].FlavorText)
	assert.Equal(t, int32(3), created.Load(), "one client per starter")
	assert.Equal(t, 6, mock.GetRequestCount())
}

func TestLoad_Failure(t *testing.T) {
	mock := testutil.NewMockPokeAPI()
	defer mock.Close()
	serveStarter(mock, 1, "bulbasaur", 1)

	cacheDir := t.TempDir()
	newClient := func() (*client.Client, error) {
		cfg := client.DefaultConfig()
		cfg.BaseURL = mock.BaseURL()
		cfg.CacheDir = cacheDir
		return client.New(cfg)
	}

	starters, err := Load(context.Background(), newClient, []string{"bulbasaur", "missingno"})
	require.Error(t, err)
	assert.Nil(t, starters)
	assert.True(t, client.IsNotFound(err))
}

func TestLoad_ClientFactoryError(t *testing.T) {
	_, err := Load(context.Background(), func() (*client.Client, error) {
		return nil, fmt.Errorf("no cache dir")
	}, []string{"bulbasaur"})
	require.ErrorContains(t, err, "no cache dir")
}
