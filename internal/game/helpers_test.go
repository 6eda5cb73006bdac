package game

import (
	"context"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/jason-s-yu/undercover/internal/models"
	"github.com/jason-s-yu/undercover/internal/words"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

// mockRecorder collects records instead of queueing them to Redis.
type mockRecorder struct {
	mu      sync.Mutex
	records []models.ActionRecord
}

func (m *mockRecorder) Record(_ context.Context, rec models.ActionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return nil
}

func (m *mockRecorder) types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.records))
	for i, r := range m.records {
		out[i] = r.ActionType
	}
	return out
}

func (m *mockRecorder) last() *models.ActionRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.records) == 0 {
		return nil
	}
	return &m.records[len(m.records)-1]
}

// testBank has one accented pair so guesses exercise normalization.
func testBank() *words.Bank {
	return words.NewBank([]words.Theme{
		{ID: "drinks", Language: language.English, Pairs: []words.Pair{{Civilian: "Café", Impostor: "Thé"}}},
	}, language.English)
}

// plainGuess maps each word of testBank to a guess differing in case,
// accents and surrounding space.
var plainGuess = map[string]string{
	"Café": "  CAFE ",
	"Thé":  "the",
}

var testNames = []string{"Alice", "Bob", "Chloé", "Dmitri", "Eve", "Farah", "Gus", "Hana", "Ivan", "Jo"}

// setupTestSession creates a session with n joined players and cfg applied.
// The first id is the host.
func setupTestSession(t *testing.T, mode Mode, n int, cfg SessionConfig, rec Recorder) (*GameSession, []string) {
	t.Helper()
	opts := SessionOptions{
		Language: "en",
		Bank:     testBank(),
		Rand:     rand.New(rand.NewPCG(1, 2)),
	}
	if rec != nil {
		opts.Recorder = rec
	}
	s := NewSession("TEST01", mode, opts)

	ids := make([]string, n)
	for i := 0; i < n; i++ {
		id, err := s.Join(testNames[i])
		require.NoError(t, err)
		ids[i] = id
	}
	require.NoError(t, s.Configure(ids[0], cfg))
	return s, ids
}

// setupPlayingSession starts the game and moves it past Reveal.
func setupPlayingSession(t *testing.T, mode Mode, n int, cfg SessionConfig, rec Recorder) (*GameSession, []string) {
	t.Helper()
	s, ids := setupTestSession(t, mode, n, cfg, rec)
	require.NoError(t, s.Start(ids[0]))
	if mode == ModeHosted {
		require.NoError(t, s.BeginPlay(ids[0]))
	} else {
		for _, id := range ids {
			require.NoError(t, s.AcknowledgeReveal(id))
		}
	}
	require.Equal(t, PhasePlaying, s.Phase())
	return s, ids
}

// idsWithRole lists players dealt role, in roster order.
func idsWithRole(s *GameSession, role Role) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []string
	for _, p := range s.players {
		if p.Role == role {
			out = append(out, p.ID)
		}
	}
	return out
}

// player returns a copy of the player's internal state.
func player(s *GameSession, id string) Player {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.players {
		if p.ID == id {
			return *p
		}
	}
	return Player{}
}
