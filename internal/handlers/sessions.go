// internal/handlers/sessions.go
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jason-s-yu/undercover/internal/database"
	"github.com/jason-s-yu/undercover/internal/game"
	"github.com/jason-s-yu/undercover/internal/middleware"
	"github.com/jason-s-yu/undercover/internal/models"
	"github.com/jason-s-yu/undercover/internal/words"
	"github.com/sirupsen/logrus"
)

// Command types accepted over REST and as WebSocket frames.
const (
	cmdLeave       = "leave"
	cmdKick        = "kick"
	cmdConfigure   = "configure"
	cmdStart       = "start"
	cmdBegin       = "begin"
	cmdAcknowledge = "acknowledge"
	cmdEliminate   = "eliminate"
	cmdVote        = "vote"
	cmdRestart     = "restart"
	cmdLobby       = "lobby"
)

// command is one session command from a client.
type command struct {
	Type     string              `json:"type"`
	TargetID string              `json:"targetId,omitempty"`
	Guess    string              `json:"guess,omitempty"`
	Config   *game.SessionConfig `json:"config,omitempty"`
}

// apply runs cmd against sess on behalf of playerID.
func (s *Server) apply(sess *game.GameSession, playerID string, cmd command) error {
	var err error
	switch cmd.Type {
	case cmdLeave:
		err = sess.Leave(playerID)
	case cmdKick:
		err = sess.Kick(playerID, cmd.TargetID)
	case cmdConfigure:
		if cmd.Config == nil {
			return fmt.Errorf("%w: config required", errBadRequest)
		}
		err = sess.Configure(playerID, *cmd.Config)
	case cmdStart:
		err = sess.Start(playerID)
	case cmdBegin:
		err = sess.BeginPlay(playerID)
	case cmdAcknowledge:
		err = sess.AcknowledgeReveal(playerID)
	case cmdEliminate:
		err = sess.Eliminate(playerID, cmd.TargetID, cmd.Guess)
	case cmdVote:
		err = sess.Vote(playerID, cmd.TargetID)
	case cmdRestart:
		err = sess.Restart(playerID)
	case cmdLobby:
		err = sess.ReturnToLobby(playerID)
	default:
		return fmt.Errorf("%w: %q", errUnknownCommand, cmd.Type)
	}
	if err != nil {
		return err
	}

	s.Logger.WithFields(logrus.Fields{
		"session": sess.Code(),
		"player":  playerID,
		"command": cmd.Type,
	}).Debug("command applied")

	if cmd.Type == cmdLeave || cmd.Type == cmdKick {
		if s.Directory.RemoveIfEmpty(sess.Code()) {
			s.Logger.WithField("session", sess.Code()).Info("removed empty session")
		}
	}
	return nil
}

// session resolves the {code} path parameter.
func (s *Server) session(r *http.Request) (*game.GameSession, error) {
	return s.Directory.Get(chi.URLParam(r, "code"))
}

// player returns the token holder's id after checking the token was issued
// for sess.
func player(r *http.Request, sess *game.GameSession) (string, error) {
	claims, err := middleware.PlayerFromContext(r.Context())
	if err != nil {
		return "", err
	}
	if !strings.EqualFold(claims.SessionCode, sess.Code()) {
		return "", errWrongSession
	}
	return claims.PlayerID, nil
}

// decodeBody decodes an optional JSON body into dst.
func decodeBody(r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

type createSessionRequest struct {
	Language string `json:"language"`
	Theme    string `json:"theme"`
}

type createSessionResponse struct {
	Code     string `json:"code"`
	Language string `json:"language"`
	Theme    string `json:"theme,omitempty"`
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	sess, err := s.Directory.Create(req.Language, req.Theme)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	v := sess.View("")
	writeData(w, http.StatusCreated, createSessionResponse{Code: v.Code, Language: v.Language, Theme: v.Theme})
}

type joinRequest struct {
	Name string `json:"name"`
}

type joinResponse struct {
	PlayerID string          `json:"playerId"`
	Token    string          `json:"token"`
	View     game.PublicView `json:"view"`
}

func (s *Server) join(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req joinRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	id, err := sess.Join(req.Name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	token, err := s.Issuer.Issue(sess.Code(), id)
	if err != nil {
		s.writeError(w, r, fmt.Errorf("issue token: %w", err))
		return
	}
	writeData(w, http.StatusCreated, joinResponse{PlayerID: id, Token: token, View: sess.View(id)})
}

// getView answers with the viewer's projection, or the spectator view when
// no token is sent.
func (s *Server) getView(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	viewer, err := player(r, sess)
	if err != nil && !errors.Is(err, middleware.ErrNoToken) {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, sess.View(viewer))
}

// command returns a handler running one command type for the token holder
// and answering with their updated view.
func (s *Server) command(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.session(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		playerID, err := player(r, sess)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		cmd := command{Type: kind}
		switch kind {
		case cmdConfigure:
			var cfg game.SessionConfig
			if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
				s.writeError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
				return
			}
			cmd.Config = &cfg
		case cmdKick:
			cmd.TargetID = chi.URLParam(r, "playerId")
		default:
			if err := decodeBody(r, &cmd); err != nil {
				s.writeError(w, r, err)
				return
			}
			cmd.Type = kind
		}

		if err := s.apply(sess, playerID, cmd); err != nil {
			s.writeError(w, r, err)
			return
		}
		if kind == cmdLeave {
			writeData(w, http.StatusOK, nil)
			return
		}
		writeData(w, http.StatusOK, sess.View(playerID))
	}
}

type themesResponse struct {
	Languages []string          `json:"languages"`
	Themes    []words.ThemeInfo `json:"themes"`
}

func (s *Server) listThemes(w http.ResponseWriter, r *http.Request) {
	bank := s.Directory.Bank()
	themes := bank.Themes(r.URL.Query().Get("language"))
	if len(themes) == 0 {
		s.writeError(w, r, words.ErrEmptyCatalog)
		return
	}
	writeData(w, http.StatusOK, themesResponse{Languages: bank.Languages(), Themes: themes})
}

type pairResponse struct {
	Language string `json:"language"`
	Theme    string `json:"theme,omitempty"`
	Civilian string `json:"civilian"`
	Impostor string `json:"impostor"`
}

// randomPair draws a standalone word pair for clients running a game on
// their own device.
func (s *Server) randomPair(w http.ResponseWriter, r *http.Request) {
	bank := s.Directory.Bank()
	query := r.URL.Query()
	lang, err := bank.Resolve(query.Get("language"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	theme := query.Get("theme")
	rng := rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	pair, err := bank.PickTheme(lang, theme, rng)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, pairResponse{Language: lang, Theme: theme, Civilian: pair.Civilian, Impostor: pair.Impostor})
}

func (s *Server) listHistory(w http.ResponseWriter, r *http.Request) {
	limit := database.DefaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > database.MaxHistoryLimit {
			s.writeError(w, r, fmt.Errorf("%w: limit must be between 1 and %d", errBadRequest, database.MaxHistoryLimit))
			return
		}
		limit = n
	}
	games, err := s.History.RecentGames(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, fmt.Errorf("recent games: %w", err))
		return
	}
	if games == nil {
		games = []models.GameSummary{}
	}
	writeData(w, http.StatusOK, games)
}
