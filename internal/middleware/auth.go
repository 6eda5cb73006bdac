package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/jason-s-yu/undercover/internal/auth"
)

// ErrNoToken means the request carried no player token.
var ErrNoToken = errors.New("missing player token")

// TokenVerifier is satisfied by *auth.Issuer.
type TokenVerifier interface {
	Verify(token string) (auth.Claims, error)
}

type playerKey struct{}

type playerResult struct {
	claims auth.Claims
	err    error
}

// PlayerToken verifies the request's player token, if any, and stores the
// outcome for PlayerFromContext. It never rejects a request on its own.
func PlayerToken(v TokenVerifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res := playerResult{err: ErrNoToken}
			if token := ExtractToken(r); token != "" {
				res.claims, res.err = v.Verify(token)
			}
			ctx := context.WithValue(r.Context(), playerKey{}, res)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// PlayerFromContext returns the verified claims, ErrNoToken, or the
// verification error.
func PlayerFromContext(ctx context.Context) (auth.Claims, error) {
	res, ok := ctx.Value(playerKey{}).(playerResult)
	if !ok {
		return auth.Claims{}, ErrNoToken
	}
	return res.claims, res.err
}

// ExtractToken reads "Authorization: Bearer <token>" or, for browsers opening
// a WebSocket, the token query parameter.
func ExtractToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if scheme, token, ok := strings.Cut(h, " "); ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}
	return r.URL.Query().Get("token")
}
