package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jason-s-yu/undercover/internal/auth"
	"github.com/jason-s-yu/undercover/internal/game"
	"github.com/jason-s-yu/undercover/internal/words"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *apiError       `json:"error"`
}

func testBank() *words.Bank {
	return words.NewBank([]words.Theme{
		{ID: "drinks", Language: language.English, Pairs: []words.Pair{{Civilian: "Café", Impostor: "Thé"}}},
	}, language.English)
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	issuer, err := auth.NewIssuer(time.Hour)
	require.NoError(t, err)
	logger := quietLogger()
	dir := game.NewDirectory(game.DirectoryOptions{Bank: testBank(), Logger: logger})
	return NewServer(dir, issuer, logger)
}

// doJSON sends body as JSON with an optional bearer token and decodes the envelope.
func doJSON(t *testing.T, h http.Handler, method, path, token string, body interface{}) (int, apiResponse) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var resp apiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "body: %s", w.Body.String())
	return w.Code, resp
}

func decodeData(t *testing.T, resp apiResponse, dst interface{}) {
	t.Helper()
	require.True(t, resp.Success, "error: %+v", resp.Error)
	require.NoError(t, json.Unmarshal(resp.Data, dst))
}

// createSession creates a hosted session over REST and returns its code.
func createSession(t *testing.T, h http.Handler) string {
	t.Helper()
	status, resp := doJSON(t, h, http.MethodPost, "/sessions", "", map[string]string{"language": "en"})
	require.Equal(t, http.StatusCreated, status)
	var created createSessionResponse
	decodeData(t, resp, &created)
	require.Len(t, created.Code, game.CodeLength)
	return created.Code
}

type seat struct {
	ID    string
	Token string
}

// joinPlayers joins each name in order; the first becomes host.
func joinPlayers(t *testing.T, h http.Handler, code string, names ...string) []seat {
	t.Helper()
	out := make([]seat, 0, len(names))
	for _, name := range names {
		status, resp := doJSON(t, h, http.MethodPost, "/sessions/"+code+"/players", "", joinRequest{Name: name})
		require.Equal(t, http.StatusCreated, status, "join %s: %+v", name, resp.Error)
		var joined joinResponse
		decodeData(t, resp, &joined)
		out = append(out, seat{ID: joined.PlayerID, Token: joined.Token})
	}
	return out
}

func viewOf(t *testing.T, h http.Handler, code, token string) game.PublicView {
	t.Helper()
	status, resp := doJSON(t, h, http.MethodGet, "/sessions/"+code, token, nil)
	require.Equal(t, http.StatusOK, status)
	var v game.PublicView
	decodeData(t, resp, &v)
	return v
}

// doJSONRaw issues a GET and returns the status and raw body.
func doJSONRaw(t *testing.T, h http.Handler, path string) (int, string) {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w.Code, w.Body.String()
}
