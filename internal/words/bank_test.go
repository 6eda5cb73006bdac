package words

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func newRNG(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}

func TestPickReturnsPairFromLanguage(t *testing.T) {
	b := NewBank([]Theme{
		{ID: "drinks", Language: language.English, Pairs: []Pair{{Civilian: "Beer", Impostor: "Wine"}}},
		{ID: "drinks", Language: language.French, Pairs: []Pair{{Civilian: "Bière", Impostor: "Vin"}}},
	}, language.English)

	p, err := b.Pick("fr-CA", newRNG(1))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Bière", "Vin"}, []string{p.Civilian, p.Impostor})
}

func TestPickSwapsBothWays(t *testing.T) {
	b := NewBank([]Theme{
		{ID: "drinks", Language: language.English, Pairs: []Pair{{Civilian: "Beer", Impostor: "Wine"}}},
	}, language.English)

	rng := newRNG(7)
	seen := map[string]int{}
	for i := 0; i < 200; i++ {
		p, err := b.Pick("en", rng)
		require.NoError(t, err)
		seen[p.Civilian]++
	}
	assert.Greater(t, seen["Beer"], 0, "original order should occur")
	assert.Greater(t, seen["Wine"], 0, "swapped order should occur")
}

func TestPickFallsBackToDefaultLanguage(t *testing.T) {
	b := NewBank([]Theme{
		{ID: "drinks", Language: language.English, Pairs: []Pair{{Civilian: "Beer", Impostor: "Wine"}}},
	}, language.English)

	for _, lang := range []string{"de", "", "not a tag"} {
		p, err := b.Pick(lang, newRNG(3))
		require.NoError(t, err, "language %q", lang)
		assert.Contains(t, []string{"Beer", "Wine"}, p.Civilian)
	}
}

func TestPickEmptyCatalog(t *testing.T) {
	b := NewBank(nil, language.English)
	_, err := b.Pick("en", newRNG(1))
	assert.ErrorIs(t, err, ErrEmptyCatalog)
	assert.False(t, b.Supports("en"))

	// A fallback with no pairs is the same as no fallback.
	b = NewBank([]Theme{
		{ID: "drinks", Language: language.French, Pairs: []Pair{{Civilian: "Bière", Impostor: "Vin"}}},
	}, language.German)
	_, err = b.Pick("es", newRNG(1))
	assert.ErrorIs(t, err, ErrEmptyCatalog)
}

func TestPickTheme(t *testing.T) {
	b := DefaultBank("en")

	p, err := b.PickTheme("en", "animals", newRNG(5))
	require.NoError(t, err)
	assert.NotEmpty(t, p.Civilian)
	assert.NotEqual(t, p.Civilian, p.Impostor)

	_, err = b.PickTheme("en", "dinosaurs", newRNG(5))
	assert.ErrorIs(t, err, ErrUnknownTheme)
	assert.True(t, b.HasTheme("fr", "food"))
	assert.False(t, b.HasTheme("fr", "dinosaurs"))
}

func TestResolve(t *testing.T) {
	b := DefaultBank("en")

	lang, err := b.Resolve("fr-CA")
	require.NoError(t, err)
	assert.Equal(t, "fr", lang)

	lang, err = b.Resolve("ja")
	require.NoError(t, err)
	assert.Equal(t, "en", lang)

	_, err = NewBank(nil, language.English).Resolve("en")
	assert.ErrorIs(t, err, ErrEmptyCatalog)
}

func TestDefaultCatalog(t *testing.T) {
	b := DefaultBank("en")
	assert.Equal(t, []string{"en", "fr"}, b.Languages())

	themes := b.Themes("fr")
	require.NotEmpty(t, themes)
	for _, th := range themes {
		assert.Equal(t, "fr", th.Language)
		assert.Positive(t, th.PairCount)
	}

	for _, th := range defaultThemes {
		for _, p := range th.Pairs {
			assert.NotEmpty(t, p.Civilian, "theme %s", th.ID)
			assert.NotEmpty(t, p.Impostor, "theme %s", th.ID)
			assert.NotEqual(t, p.Civilian, p.Impostor, "theme %s", th.ID)
		}
	}
}
