package game

// aliveCounts tallies living players by role.
type aliveCounts struct {
	total           int
	civilians       int // strict Civilian role
	civilianAligned int // Civilian, Jester and Protector
	impostors       int
	silent          int
}

func countAlive(players []*Player) aliveCounts {
	var c aliveCounts
	for _, p := range players {
		if p.IsEliminated {
			continue
		}
		c.total++
		switch p.Role {
		case RoleCivilian:
			c.civilians++
			c.civilianAligned++
		case RoleJester, RoleProtector:
			c.civilianAligned++
		case RoleImpostor:
			c.impostors++
		case RoleSilentImpostor:
			c.silent++
		case RoleUnset:
		}
	}
	return c
}

// evaluateWinner applies the win rules in priority order. Jester and
// Protector never win on their own; they only count as civilian-aligned
// when checking whether any civilian side remains.
func evaluateWinner(players []*Player) Winner {
	c := countAlive(players)
	switch {
	case c.silent > 0 && c.total <= 2:
		return WinnerSilentImpostor
	case c.impostors == 0 && c.silent == 0:
		return WinnerCivilians
	case c.civilianAligned == 0:
		return WinnerImpostors
	case c.impostors >= c.civilians+c.silent:
		return WinnerImpostors
	case c.silent == 0 && c.impostors >= c.civilians:
		return WinnerImpostors
	}
	return WinnerNone
}
