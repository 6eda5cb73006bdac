package game

// Role is the secret role dealt to a player. The zero value means unassigned.
type Role string

const (
	RoleUnset          Role = ""
	RoleCivilian       Role = "civilian"
	RoleImpostor       Role = "impostor"
	RoleSilentImpostor Role = "silent_impostor"
	RoleJester         Role = "jester"
	RoleProtector      Role = "protector"
)

// ReceivesCivilianWord reports whether the role is dealt the civilian word.
func (r Role) ReceivesCivilianWord() bool {
	switch r {
	case RoleCivilian, RoleJester, RoleProtector:
		return true
	case RoleImpostor, RoleSilentImpostor, RoleUnset:
		return false
	}
	return false
}

// Winner is the side that won a finished game. The zero value means no winner yet.
type Winner string

const (
	WinnerNone           Winner = ""
	WinnerCivilians      Winner = "civilians"
	WinnerImpostors      Winner = "impostors"
	WinnerSilentImpostor Winner = "silent_impostor"
)

// Phase is a session's position in the game lifecycle.
type Phase string

const (
	PhaseLobby    Phase = "lobby"
	PhaseReveal   Phase = "reveal"
	PhasePlaying  Phase = "playing"
	PhaseVoting   Phase = "voting"
	PhaseFinished Phase = "finished"
)

// Mode selects who holds authority over a session.
type Mode string

const (
	// ModeHosted is a server-authoritative session shared by many clients.
	ModeHosted Mode = "hosted"
	// ModeLocal is a single-device pass-and-play session.
	ModeLocal Mode = "local"
)
