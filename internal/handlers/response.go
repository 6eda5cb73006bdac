package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jason-s-yu/undercover/internal/auth"
	"github.com/jason-s-yu/undercover/internal/game"
	"github.com/jason-s-yu/undercover/internal/middleware"
	"github.com/jason-s-yu/undercover/internal/words"
	"github.com/sirupsen/logrus"
)

var (
	errUnknownCommand = errors.New("unknown command")
	errBadRequest     = errors.New("malformed request body")
	errWrongSession   = errors.New("token belongs to another session")
)

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *apiError   `json:"error,omitempty"`
}

// errorMapping ties a sentinel to an HTTP status and a stable code clients
// can switch on.
type errorMapping struct {
	err    error
	status int
	code   string
}

var errorMappings = []errorMapping{
	{game.ErrSessionNotFound, http.StatusNotFound, "session_not_found"},
	{game.ErrUnknownPlayer, http.StatusNotFound, "unknown_player"},
	{game.ErrNotHost, http.StatusForbidden, "not_host"},
	{game.ErrNotAuthorized, http.StatusForbidden, "not_authorized"},
	{errWrongSession, http.StatusForbidden, "wrong_session"},
	{middleware.ErrNoToken, http.StatusUnauthorized, "missing_token"},
	{auth.ErrInvalidToken, http.StatusUnauthorized, "invalid_token"},
	{game.ErrDuplicateName, http.StatusConflict, "duplicate_name"},
	{game.ErrSessionNotInLobby, http.StatusConflict, "session_not_in_lobby"},
	{game.ErrInvalidPhase, http.StatusConflict, "invalid_phase"},
	{game.ErrAlreadyVoted, http.StatusConflict, "already_voted"},
	{game.ErrAlreadyEliminated, http.StatusConflict, "already_eliminated"},
	{game.ErrInsufficientPlayers, http.StatusConflict, "insufficient_players"},
	{game.ErrRoleCountExceedsRoster, http.StatusConflict, "role_count_exceeds_roster"},
	{game.ErrInvalidName, http.StatusBadRequest, "invalid_name"},
	{game.ErrInvalidConfig, http.StatusBadRequest, "invalid_config"},
	{game.ErrCannotVoteSelf, http.StatusBadRequest, "cannot_vote_self"},
	{game.ErrWrongMode, http.StatusBadRequest, "wrong_mode"},
	{words.ErrUnknownTheme, http.StatusBadRequest, "unknown_theme"},
	{errUnknownCommand, http.StatusBadRequest, "unknown_command"},
	{errBadRequest, http.StatusBadRequest, "bad_request"},
	{words.ErrEmptyCatalog, http.StatusServiceUnavailable, "empty_catalog"},
}

// classify returns the status and code for err; unknown errors are 500s.
func classify(err error) (int, string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, "internal_error"
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeData(w http.ResponseWriter, status int, data interface{}) {
	writeJSON(w, status, envelope{Success: true, Data: data})
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		s.Logger.WithFields(logrus.Fields{
			"path":       r.URL.Path,
			"request_id": chimw.GetReqID(r.Context()),
		}).WithError(err).Error("request failed")
		msg = "internal error"
	}
	writeJSON(w, status, envelope{Error: &apiError{Code: code, Message: msg}})
}
