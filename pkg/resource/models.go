package resource

import (
	"cmp"
	"slices"
)

// Name is a localized name of a resource.
type Name struct {
	Name     string                  `json:"name"`
	Language NamedResource[Language] `json:"language"`
}

// Language is a language supported by the catalog.
type Language struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Official bool   `json:"official"`
	// ISO639 is the two-letter language code. Not unique.
	ISO639 string `json:"iso639"`
	// ISO3166 is the two-letter country code. Not unique.
	ISO3166 string `json:"iso3166"`
	Names   []Name `json:"names"`
}

func (Language) Kind() Kind { return KindLanguage }

// Pokemon is a single Pokemon form.
type Pokemon struct {
	ID             int    `json:"id"`
	Name           string `json:"name"`
	BaseExperience int    `json:"base_experience"`
	// IsDefault is set for exactly one Pokemon per species.
	IsDefault bool `json:"is_default"`
	// Order is almost national order, except families are grouped together.
	Order   int                           `json:"order"`
	Species NamedResource[PokemonSpecies] `json:"species"`
}

func (Pokemon) Kind() Kind { return KindPokemon }

// PokemonSpecies is the species a Pokemon belongs to.
type PokemonSpecies struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Order int    `json:"order"`
	// GenderRate is the chance of being female in eighths, or -1 for genderless.
	GenderRate           int8          `json:"gender_rate"`
	CaptureRate          uint8         `json:"capture_rate"`
	BaseHappiness        uint8         `json:"base_happiness"`
	IsBaby               bool          `json:"is_baby"`
	IsLegendary          bool          `json:"is_legendary"`
	IsMythical           bool          `json:"is_mythical"`
	HatchCounter         int           `json:"hatch_counter"`
	HasGenderDifferences bool          `json:"has_gender_differences"`
	FormsSwitchable      bool          `json:"forms_switchable"`
	Names                []Name        `json:"names"`
	FlavorTextEntries    []FlavorText  `json:"flavor_text_entries"`
	FormDescriptions     []Description `json:"form_descriptions"`
}

func (PokemonSpecies) Kind() Kind { return KindPokemonSpecies }

// FlavorText is a localized flavor text entry.
type FlavorText struct {
	FlavorText string                  `json:"flavor_text"`
	Language   NamedResource[Language] `json:"language"`
}

// Description is a localized description.
type Description struct {
	Description string                  `json:"description"`
	Language    NamedResource[Language] `json:"language"`
}

// LocalizedName returns the species name in language lang.
func (s PokemonSpecies) LocalizedName(lang string) (string, bool) {
	for _, n := range s.Names {
		if n.Language.Name == lang {
			return n.Name, true
		}
	}
	return "", false
}

// FlavorTextIn returns the first flavor text entry in language lang.
func (s PokemonSpecies) FlavorTextIn(lang string) (string, bool) {
	for _, f := range s.FlavorTextEntries {
		if f.Language.Name == lang {
			return f.FlavorText, true
		}
	}
	return "", false
}

// SortByOrder sorts pokemon by their Order field, keeping input order for ties.
func SortByOrder(pokemon []Pokemon) {
	slices.SortStableFunc(pokemon, func(a, b Pokemon) int {
		return cmp.Compare(a.Order, b.Order)
	})
}
