// internal/handlers/ws_codes.go
package handlers

import "github.com/coder/websocket"

// Custom WebSocket close codes used by the session stream.
// These provide more specific reasons for closure than standard codes.
const (
	BadSubprotocolError   websocket.StatusCode = 3000 // Client connected without the undercover subprotocol.
	InvalidAuthTokenError websocket.StatusCode = 3001 // Player token was invalid or expired.
	WrongSessionError     websocket.StatusCode = 3002 // Player token was issued for another session.
	SessionNotFoundError  websocket.StatusCode = 3003 // Session code does not exist or was evicted.
	SubscriberLagError    websocket.StatusCode = 3004 // Client fell too far behind the view stream.
	SessionClosedError    websocket.StatusCode = 3005 // Session was evicted while connected.
)
