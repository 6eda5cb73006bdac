package game

import "fmt"

// MinPlayers is the smallest roster that can start a game.
const MinPlayers = 3

// SessionConfig holds the count of each special role. Every player not
// covered by a special role is dealt Civilian.
type SessionConfig struct {
	ImpostorCount       int `json:"impostorCount"`
	SilentImpostorCount int `json:"silentImpostorCount"`
	JesterCount         int `json:"jesterCount"`
	ProtectorCount      int `json:"protectorCount"`
}

// DefaultConfig is one impostor and no extended roles.
func DefaultConfig() SessionConfig {
	return SessionConfig{ImpostorCount: 1}
}

// Specials is the number of non-civilian roles.
func (c SessionConfig) Specials() int {
	return c.ImpostorCount + c.SilentImpostorCount + c.JesterCount + c.ProtectorCount
}

// Validate checks the counts against a roster of rosterSize players. A
// rosterSize of zero only checks the counts themselves.
func (c SessionConfig) Validate(rosterSize int) error {
	if c.ImpostorCount < 0 || c.SilentImpostorCount < 0 || c.JesterCount < 0 || c.ProtectorCount < 0 {
		return fmt.Errorf("%w: role counts must not be negative", ErrInvalidConfig)
	}
	if rosterSize > 0 && c.Specials() >= rosterSize {
		return fmt.Errorf("%w: %d special roles for %d players", ErrInvalidConfig, c.Specials(), rosterSize)
	}
	return nil
}
