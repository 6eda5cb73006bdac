package game

import "errors"

// Validation errors. The command is rejected and the session is unchanged.
var (
	ErrDuplicateName          = errors.New("a player with that name already joined")
	ErrInvalidName            = errors.New("player name must not be blank")
	ErrInvalidConfig          = errors.New("special roles must leave at least one civilian")
	ErrInsufficientPlayers    = errors.New("not enough players to start")
	ErrAlreadyVoted           = errors.New("player already voted this round")
	ErrAlreadyEliminated      = errors.New("player is already eliminated")
	ErrUnknownPlayer          = errors.New("player is not in this session")
	ErrRoleCountExceedsRoster = errors.New("special role count exceeds roster size")
	ErrCannotVoteSelf         = errors.New("players cannot vote for themselves")
	ErrInvalidPhase           = errors.New("command not allowed in the current phase")
	ErrWrongMode              = errors.New("command not available in this session mode")
)

// Authorization errors.
var (
	ErrNotHost       = errors.New("only the host can do that")
	ErrNotAuthorized = errors.New("player is not allowed to do that")
)

// Resource errors.
var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrSessionNotInLobby = errors.New("session is not accepting players")
)
