// Package starter builds the starter Pokemon offered to new players from
// PokeAPI data.
package starter

import (
	"context"
	"fmt"
	"strings"

	"github.com/Sternrassler/pokeapi-client/pkg/client"
	"github.com/Sternrassler/pokeapi-client/pkg/resource"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// DefaultLanguage is used for names and flavor text.
const DefaultLanguage = "en"

// DefaultConcurrency bounds the number of clients Load runs at once.
const DefaultConcurrency = 4

// DefaultNames lists the three starters of generations I to VIII in
// national dex order.
var DefaultNames = []string{
	"bulbasaur", "charmander", "squirtle",
	"chikorita", "cyndaquil", "totodile",
	"treecko", "torchic", "mudkip",
	"turtwig", "chimchar", "piplup",
	"snivy", "tepig", "oshawott",
	"chespin", "fennekin", "froakie",
	"rowlet", "litten", "popplio",
	"grookey", "scorbunny", "sobble",
}

// Starter is the host-facing record of a starter Pokemon.
type Starter struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	DisplayName   string `json:"display_name"`
	Order         int    `json:"order"`
	CaptureRate   uint8  `json:"capture_rate"`
	BaseHappiness uint8  `json:"base_happiness"`
	GenderRate    int8   `json:"gender_rate"`
	FlavorText    string `json:"flavor_text"`
}

// FromResources combines a Pokemon with its species. Names and flavor text
// are taken in lang, falling back to the API name and an empty text.
func FromResources(p resource.Pokemon, s resource.PokemonSpecies, lang string) Starter {
	if lang == "" {
		lang = DefaultLanguage
	}

	display, ok := s.LocalizedName(lang)
	if !ok {
		display = p.Name
	}
	text, _ := s.FlavorTextIn(lang)

	return Starter{
		ID:            p.ID,
		Name:          p.Name,
		DisplayName:   display,
		Order:         p.Order,
		CaptureRate:   s.CaptureRate,
		BaseHappiness: s.BaseHappiness,
		GenderRate:    s.GenderRate,
		FlavorText:    normalizeSpace(text),
	}
}

// normalizeSpace collapses the line and page breaks PokeAPI keeps from the
// game text.
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// NewClientFunc creates a client for one goroutine.
type NewClientFunc func() (*client.Client, error)

// Load fetches names and returns their starters sorted by Order. Clients are
// not shared, every worker creates its own with newClient.
func Load(ctx context.Context, newClient NewClientFunc, names []string) ([]Starter, error) {
	type loaded struct {
		pokemon resource.Pokemon
		species resource.PokemonSpecies
	}
	results := make([]loaded, len(names))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(DefaultConcurrency)

	for i, name := range names {
		eg.Go(func() error {
			c, err := newClient()
			if err != nil {
				return fmt.Errorf("create client: %w", err)
			}
			defer c.Close()

			p, err := client.GetByName[resource.Pokemon](ctx, c, name)
			if err != nil {
				return fmt.Errorf("load pokemon %s: %w", name, err)
			}
			s, err := client.GetByRef(ctx, c, p.Species)
			if err != nil {
				return fmt.Errorf("load species of %s: %w", name, err)
			}
			results[i] = loaded{pokemon: p, species: s}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	pokemon := make([]resource.Pokemon, len(results))
	species := make(map[int]resource.PokemonSpecies, len(results))
	for i, r := range results {
		pokemon[i] = r.pokemon
		species[r.pokemon.ID] = r.species
	}
	resource.SortByOrder(pokemon)

	starters := make([]Starter, len(pokemon))
	for i, p := range pokemon {
		starters[i] = FromResources(p, species[p.ID], DefaultLanguage)
	}

	log.Debug().Int("starters", len(starters)).Msg("Loaded starters")
	return starters, nil
}
