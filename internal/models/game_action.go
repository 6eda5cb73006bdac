package models

import "github.com/google/uuid"

// Action types written to the action log.
const (
	ActionSessionCreated = "session_created"
	ActionPlayerJoined   = "player_joined"
	ActionPlayerLeft     = "player_left"
	ActionPlayerKicked   = "player_kicked"
	ActionConfigured     = "configured"
	ActionGameStarted    = "game_started"
	ActionRevealAck      = "reveal_acknowledged"
	ActionPlayBegan      = "play_began"
	ActionVoteCast       = "vote_cast"
	ActionEliminated     = "player_eliminated"
	ActionGameFinished   = "game_finished"
	ActionReturnedLobby  = "returned_to_lobby"
)

// ActionRecord is one committed session command as seen by the historian.
// GameID changes every time a session deals a new game (start or restart).
type ActionRecord struct {
	SessionCode   string                 `json:"session_code"`
	GameID        uuid.UUID              `json:"game_id"`
	ActionIndex   int                    `json:"action_index"`
	ActorID       string                 `json:"actor_id,omitempty"`
	ActionType    string                 `json:"action_type"`
	ActionPayload map[string]interface{} `json:"action_payload,omitempty"`
	Timestamp     int64                  `json:"timestamp"` // epoch millis
}

// GameSummary is a finished game as stored by the historian.
type GameSummary struct {
	GameID       uuid.UUID `json:"gameId"`
	SessionCode  string    `json:"sessionCode"`
	Winner       string    `json:"winner"`
	CivilianWord string    `json:"civilianWord"`
	ImpostorWord string    `json:"impostorWord"`
	Rounds       int       `json:"rounds"`
	PlayerCount  int       `json:"playerCount"`
	StartedAt    int64     `json:"startedAt"`
	EndedAt      int64     `json:"endedAt"`
}
