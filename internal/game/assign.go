package game

import (
	"fmt"
	"math/rand/v2"

	"github.com/jason-s-yu/undercover/internal/words"
)

// Assignment is the role and secret dealt to one player.
type Assignment struct {
	PlayerID           string
	Role               Role
	Word               string
	ProtectionTargetID string
}

// Assign deals roles for the roster. The role multiset and the roster are
// shuffled independently and zipped by position. Results come back in
// roster order.
func Assign(playerIDs []string, cfg SessionConfig, pair words.Pair, rng *rand.Rand) ([]Assignment, error) {
	n := len(playerIDs)
	if cfg.Specials() >= n {
		return nil, fmt.Errorf("%w: %d special roles for %d players", ErrRoleCountExceedsRoster, cfg.Specials(), n)
	}
	if err := cfg.Validate(0); err != nil {
		return nil, err
	}

	roles := make([]Role, 0, n)
	roles = appendN(roles, RoleImpostor, cfg.ImpostorCount)
	roles = appendN(roles, RoleSilentImpostor, cfg.SilentImpostorCount)
	roles = appendN(roles, RoleJester, cfg.JesterCount)
	roles = appendN(roles, RoleProtector, cfg.ProtectorCount)
	roles = appendN(roles, RoleCivilian, n-len(roles))

	shuffled := make([]string, n)
	copy(shuffled, playerIDs)
	rng.Shuffle(n, func(i, j int) { roles[i], roles[j] = roles[j], roles[i] })
	rng.Shuffle(n, func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

	dealt := make(map[string]Assignment, n)
	for i, id := range shuffled {
		a := Assignment{PlayerID: id, Role: roles[i]}
		switch a.Role {
		case RoleCivilian, RoleJester:
			a.Word = pair.Civilian
		case RoleProtector:
			a.Word = pair.Civilian
			a.ProtectionTargetID = pickOther(playerIDs, id, rng)
		case RoleImpostor:
			a.Word = pair.Impostor
		case RoleSilentImpostor, RoleUnset:
		}
		dealt[id] = a
	}

	out := make([]Assignment, n)
	for i, id := range playerIDs {
		out[i] = dealt[id]
	}
	return out, nil
}

func appendN(roles []Role, r Role, count int) []Role {
	for i := 0; i < count; i++ {
		roles = append(roles, r)
	}
	return roles
}

// pickOther draws uniformly among ids other than self. The roster always has
// at least two players when a protector is dealt.
func pickOther(ids []string, self string, rng *rand.Rand) string {
	others := make([]string, 0, len(ids)-1)
	for _, id := range ids {
		if id != self {
			others = append(others, id)
		}
	}
	if len(others) == 0 {
		return ""
	}
	return others[rng.IntN(len(others))]
}
