// Package words supplies the civilian/impostor word pairs dealt to a session.
package words

import (
	"errors"
	"math/rand/v2"
	"sort"
	"strings"

	"golang.org/x/text/language"
)

var (
	// ErrEmptyCatalog means neither the requested nor the fallback language has any pairs.
	ErrEmptyCatalog = errors.New("no word pairs available for language")
	// ErrUnknownTheme means the requested theme does not exist in the resolved language.
	ErrUnknownTheme = errors.New("unknown word theme")
)

// Pair is one civilian/impostor word pair.
type Pair struct {
	Civilian string `json:"civilian"`
	Impostor string `json:"impostor"`
}

// Theme groups pairs under an id for a single language.
type Theme struct {
	ID       string
	Language language.Tag
	Pairs    []Pair
}

// ThemeInfo is the public listing of a theme.
type ThemeInfo struct {
	ID        string `json:"id"`
	Language  string `json:"language"`
	PairCount int    `json:"pairCount"`
}

// Bank is an immutable lookup of word pairs keyed by base language.
type Bank struct {
	fallback language.Base
	themes   map[language.Base][]Theme
}

// NewBank builds a bank from the given themes. Requests for a language with no
// pairs fall back to the fallback language.
func NewBank(themes []Theme, fallback language.Tag) *Bank {
	fb, _ := fallback.Base()
	b := &Bank{
		fallback: fb,
		themes:   make(map[language.Base][]Theme),
	}
	for _, th := range themes {
		if len(th.Pairs) == 0 {
			continue
		}
		base, _ := th.Language.Base()
		b.themes[base] = append(b.themes[base], th)
	}
	return b
}

// DefaultBank returns the curated en/fr catalog with the given fallback language.
func DefaultBank(fallback string) *Bank {
	tag, err := language.Parse(fallback)
	if err != nil {
		tag = language.English
	}
	return NewBank(defaultThemes, tag)
}

// resolve picks the base language to draw from.
func (b *Bank) resolve(lang string) (language.Base, error) {
	if tag, err := language.Parse(strings.TrimSpace(lang)); err == nil {
		base, _ := tag.Base()
		if len(b.themes[base]) > 0 {
			return base, nil
		}
	}
	if len(b.themes[b.fallback]) > 0 {
		return b.fallback, nil
	}
	return language.Base{}, ErrEmptyCatalog
}

// Resolve returns the base language Pick would draw from for lang.
func (b *Bank) Resolve(lang string) (string, error) {
	base, err := b.resolve(lang)
	if err != nil {
		return "", err
	}
	return base.String(), nil
}

// Supports reports whether Pick would succeed for lang.
func (b *Bank) Supports(lang string) bool {
	_, err := b.resolve(lang)
	return err == nil
}

// Pick draws one pair uniformly across every theme of the language, then
// swaps the two words half of the time so table order carries no signal.
func (b *Bank) Pick(lang string, rng *rand.Rand) (Pair, error) {
	return b.PickTheme(lang, "", rng)
}

// PickTheme is Pick restricted to one theme. An empty themeID means any theme.
func (b *Bank) PickTheme(lang, themeID string, rng *rand.Rand) (Pair, error) {
	base, err := b.resolve(lang)
	if err != nil {
		return Pair{}, err
	}

	var candidates []Pair
	for _, th := range b.themes[base] {
		if themeID == "" || th.ID == themeID {
			candidates = append(candidates, th.Pairs...)
		}
	}
	if len(candidates) == 0 {
		return Pair{}, ErrUnknownTheme
	}

	p := candidates[rng.IntN(len(candidates))]
	if rng.IntN(2) == 1 {
		p.Civilian, p.Impostor = p.Impostor, p.Civilian
	}
	return p, nil
}

// HasTheme reports whether themeID exists in the resolved language.
func (b *Bank) HasTheme(lang, themeID string) bool {
	base, err := b.resolve(lang)
	if err != nil {
		return false
	}
	for _, th := range b.themes[base] {
		if th.ID == themeID {
			return true
		}
	}
	return false
}

// Themes lists the themes available for lang (after fallback).
func (b *Bank) Themes(lang string) []ThemeInfo {
	base, err := b.resolve(lang)
	if err != nil {
		return nil
	}
	out := make([]ThemeInfo, 0, len(b.themes[base]))
	for _, th := range b.themes[base] {
		out = append(out, ThemeInfo{ID: th.ID, Language: base.String(), PairCount: len(th.Pairs)})
	}
	return out
}

// Languages lists the base languages with at least one pair, sorted.
func (b *Bank) Languages() []string {
	out := make([]string, 0, len(b.themes))
	for base := range b.themes {
		out = append(out, base.String())
	}
	sort.Strings(out)
	return out
}
