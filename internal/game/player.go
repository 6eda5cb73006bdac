package game

// Player is one participant of a session. It is owned by its GameSession and
// only mutated by session commands while the session lock is held.
type Player struct {
	ID          string
	DisplayName string

	Role               Role
	SecretWord         string
	ProtectionTargetID string

	IsEliminated  bool
	HasVoted      bool
	VotesReceived int
	votedFor      string

	// Acknowledged marks that the player finished their private reveal step.
	Acknowledged bool
}

// resetRound clears per-round voting state.
func (p *Player) resetRound() {
	p.HasVoted = false
	p.VotesReceived = 0
	p.votedFor = ""
}

// resetGame clears everything dealt for a game.
func (p *Player) resetGame() {
	p.Role = RoleUnset
	p.SecretWord = ""
	p.ProtectionTargetID = ""
	p.IsEliminated = false
	p.Acknowledged = false
	p.resetRound()
}
