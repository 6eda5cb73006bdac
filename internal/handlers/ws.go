// internal/handlers/ws.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/jason-s-yu/undercover/internal/auth"
	"github.com/jason-s-yu/undercover/internal/game"
	"github.com/jason-s-yu/undercover/internal/middleware"
	"github.com/sirupsen/logrus"
)

// Subprotocol is the WebSocket subprotocol clients must request.
const Subprotocol = "undercover"

const wsWriteTimeout = 5 * time.Second

// viewFrame carries one projected view to the client.
type viewFrame struct {
	Type string          `json:"type"`
	View game.PublicView `json:"view"`
}

type ackFrame struct {
	Type    string `json:"type"`
	Command string `json:"command"`
}

type errorFrame struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// subscribe upgrades to a WebSocket that streams the viewer's projection:
// the current view first, then one view per committed command. Players may
// send command frames on the same socket.
func (s *Server) subscribe(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		Subprotocols:   []string{Subprotocol},
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		s.Logger.WithError(err).Warn("WebSocket accept error")
		return
	}
	defer c.Close(websocket.StatusInternalError, "Internal server error during handler exit.")

	if c.Subprotocol() != Subprotocol {
		c.Close(BadSubprotocolError, "Client must use the 'undercover' subprotocol.")
		return
	}

	sess, err := s.session(r)
	if err != nil {
		c.Close(SessionNotFoundError, "Session not found.")
		return
	}

	viewer, err := player(r, sess)
	switch {
	case err == nil, errors.Is(err, middleware.ErrNoToken):
	case errors.Is(err, errWrongSession):
		c.Close(WrongSessionError, "Token belongs to another session.")
		return
	case errors.Is(err, auth.ErrInvalidToken):
		c.Close(InvalidAuthTokenError, "Invalid player token.")
		return
	default:
		c.Close(InvalidAuthTokenError, "Authentication failed.")
		return
	}

	logger := s.Logger.WithFields(logrus.Fields{"session": sess.Code(), "viewer": viewer})
	middleware.LogWebSocketConnect(s.Logger, r.RemoteAddr, sess.Code(), viewer)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	sub := sess.Subscribe(viewer)
	defer sess.Unsubscribe(sub)

	go s.pushViews(ctx, cancel, c, sub, logger)

	err = s.readCommands(ctx, c, sess, viewer, logger)
	middleware.LogWebSocketDisconnect(s.Logger, r.RemoteAddr, sess.Code(), viewer, err)
	if err == nil {
		c.Close(websocket.StatusNormalClosure, "")
	}
}

// pushViews writes every view the subscription yields until it ends, then
// closes the socket with a code describing why.
func (s *Server) pushViews(ctx context.Context, cancel context.CancelFunc, c *websocket.Conn, sub *game.Subscription, logger logrus.FieldLogger) {
	defer cancel()
	for {
		v, err := sub.Next(ctx)
		switch {
		case err == nil:
		case errors.Is(err, game.ErrSubscriberLagging):
			logger.Warn("closing lagging subscriber")
			c.Close(SubscriberLagError, "Too far behind the view stream.")
			return
		case errors.Is(err, game.ErrSubscriptionClosed):
			c.Close(SessionClosedError, "Session closed.")
			return
		default:
			return
		}
		if err := writeFrame(ctx, c, viewFrame{Type: "view", View: v}); err != nil {
			logger.WithError(err).Debug("view write failed")
			return
		}
	}
}

// readCommands handles inbound frames until the client goes away.
func (s *Server) readCommands(ctx context.Context, c *websocket.Conn, sess *game.GameSession, viewer string, logger logrus.FieldLogger) error {
	for {
		msgType, data, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway || ctx.Err() != nil {
				return nil
			}
			return err
		}
		if msgType != websocket.MessageText {
			continue
		}

		var cmd command
		if err := json.Unmarshal(data, &cmd); err != nil {
			sendWsError(ctx, c, errBadRequest)
			continue
		}

		if cmd.Type == "ping" {
			writeFrame(ctx, c, map[string]string{"type": "pong"})
			continue
		}
		if viewer == "" {
			sendWsError(ctx, c, game.ErrNotAuthorized)
			continue
		}
		if err := s.apply(sess, viewer, cmd); err != nil {
			logger.WithError(err).WithField("command", cmd.Type).Debug("command rejected")
			sendWsError(ctx, c, err)
			continue
		}
		writeFrame(ctx, c, ackFrame{Type: "ack", Command: cmd.Type})
	}
}

// writeFrame marshals message and writes it with a timeout.
func writeFrame(ctx context.Context, c *websocket.Conn, message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	return c.Write(writeCtx, websocket.MessageText, data)
}

// sendWsError reports a rejected frame; the connection stays open.
func sendWsError(ctx context.Context, c *websocket.Conn, err error) {
	_, code := classify(err)
	msg := err.Error()
	if code == "internal_error" {
		msg = "internal error"
	}
	writeFrame(ctx, c, errorFrame{Type: "error", Code: code, Message: msg})
}
