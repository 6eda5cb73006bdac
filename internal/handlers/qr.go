package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/skip2/go-qrcode"
)

const (
	defaultQRSize = 320 // mobile-friendly size
	minQRSize     = 128
	maxQRSize     = 1024
)

// joinURL is the link players scan to join code.
func (s *Server) joinURL(r *http.Request, code string) string {
	base := strings.TrimRight(s.PublicURL, "/")
	if base == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.ToLower(strings.TrimSpace(strings.Split(proto, ",")[0]))
		}
		base = scheme + "://" + r.Host
	}
	return base + "/join/" + code
}

// qrCode renders a PNG QR code of the session's join link.
func (s *Server) qrCode(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	size := defaultQRSize
	if raw := r.URL.Query().Get("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < minQRSize || n > maxQRSize {
			s.writeError(w, r, fmt.Errorf("%w: size must be between %d and %d", errBadRequest, minQRSize, maxQRSize))
			return
		}
		size = n
	}

	png, err := qrcode.Encode(s.joinURL(r, sess.Code()), qrcode.Medium, size)
	if err != nil {
		s.writeError(w, r, fmt.Errorf("qr generation failed: %w", err))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(png)
}
