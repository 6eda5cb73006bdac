package game

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jason-s-yu/undercover/internal/words"
	"github.com/sirupsen/logrus"
)

const (
	// CodeLength is the length of a session code.
	CodeLength = 6
	// CodeAlphabet leaves out characters that are easy to misread (0/O, 1/I).
	CodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

	DefaultIdleTimeout   = time.Hour
	DefaultEmptyGrace    = 2 * time.Minute
	DefaultSweepInterval = time.Minute

	maxCodeAttempts = 16
)

// DirectoryOptions configures a Directory. Zero values get defaults.
type DirectoryOptions struct {
	Bank             *words.Bank
	DefaultLanguage  string
	Recorder         Recorder
	Logger           logrus.FieldLogger
	SubscriberBuffer int

	// IdleTimeout evicts sessions with no committed command for this long.
	IdleTimeout time.Duration
	// EmptyGrace evicts sessions with no players once idle this long, which
	// leaves the creator time to join.
	EmptyGrace    time.Duration
	SweepInterval time.Duration
	Now           func() time.Time
}

// Directory maps session codes to sessions. Lookups run concurrently;
// commands on a session only lock that session.
type Directory struct {
	mu       sync.RWMutex
	sessions map[string]*GameSession
	opts     DirectoryOptions
	logger   logrus.FieldLogger
}

// NewDirectory creates an empty directory. Call Run to start eviction.
func NewDirectory(opts DirectoryOptions) *Directory {
	if opts.DefaultLanguage == "" {
		opts.DefaultLanguage = "en"
	}
	if opts.Bank == nil {
		opts.Bank = words.DefaultBank(opts.DefaultLanguage)
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = DefaultIdleTimeout
	}
	if opts.EmptyGrace <= 0 {
		opts.EmptyGrace = DefaultEmptyGrace
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = DefaultSweepInterval
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Directory{
		sessions: make(map[string]*GameSession),
		opts:     opts,
		logger:   opts.Logger,
	}
}

// Bank is the word bank sessions draw from.
func (d *Directory) Bank() *words.Bank {
	return d.opts.Bank
}

// Create registers a new hosted session. It fails with words.ErrEmptyCatalog
// when no words exist for the language or the fallback, and with
// words.ErrUnknownTheme for a theme the language does not have.
func (d *Directory) Create(language, theme string) (*GameSession, error) {
	return d.create(ModeHosted, language, theme)
}

// CreateLocal registers a new pass-and-play session.
func (d *Directory) CreateLocal(language, theme string) (*GameSession, error) {
	return d.create(ModeLocal, language, theme)
}

func (d *Directory) create(mode Mode, language, theme string) (*GameSession, error) {
	if language == "" {
		language = d.opts.DefaultLanguage
	}
	if !d.opts.Bank.Supports(language) {
		return nil, words.ErrEmptyCatalog
	}
	if theme != "" && !d.opts.Bank.HasTheme(language, theme) {
		return nil, fmt.Errorf("%w: %q", words.ErrUnknownTheme, theme)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	code, err := d.uniqueCode()
	if err != nil {
		return nil, err
	}
	s := NewSession(code, mode, SessionOptions{
		Language:         language,
		Theme:            theme,
		Bank:             d.opts.Bank,
		Recorder:         d.opts.Recorder,
		Logger:           d.logger,
		SubscriberBuffer: d.opts.SubscriberBuffer,
		Now:              d.opts.Now,
	})
	d.sessions[code] = s
	d.logger.WithFields(logrus.Fields{"session": code, "mode": mode, "language": language}).Info("session created")
	return s, nil
}

// uniqueCode draws codes until one is free. Callers hold d.mu.
func (d *Directory) uniqueCode() (string, error) {
	for i := 0; i < maxCodeAttempts; i++ {
		code, err := GenerateCode()
		if err != nil {
			return "", err
		}
		if _, exists := d.sessions[code]; !exists {
			return code, nil
		}
	}
	return "", errors.New("failed to generate unique session code")
}

// GenerateCode returns a random session code.
func GenerateCode() (string, error) {
	b := make([]byte, CodeLength)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	code := make([]byte, CodeLength)
	for i := range code {
		// 256 is a multiple of len(CodeAlphabet), so the modulo is unbiased.
		code[i] = CodeAlphabet[int(b[i])%len(CodeAlphabet)]
	}
	return string(code), nil
}

// Get finds a session by code, case-insensitively.
func (d *Directory) Get(code string) (*GameSession, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	s, ok := d.sessions[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Remove evicts a session and closes its subscriptions.
func (d *Directory) Remove(code string) {
	code = strings.ToUpper(strings.TrimSpace(code))
	d.mu.Lock()
	s, ok := d.sessions[code]
	delete(d.sessions, code)
	d.mu.Unlock()

	if ok {
		s.Close()
		d.logger.WithField("session", code).Info("session removed")
	}
}

// RemoveIfEmpty evicts the session when nobody is left in it.
func (d *Directory) RemoveIfEmpty(code string) bool {
	return d.evictIf(code, func(players int, _ time.Time) bool { return players == 0 })
}

// evictIf removes code when evict holds for the session. The session's
// check and close are atomic with respect to its commands.
func (d *Directory) evictIf(code string, evict func(players int, lastActive time.Time) bool) bool {
	code = strings.ToUpper(strings.TrimSpace(code))
	d.mu.Lock()
	defer d.mu.Unlock()
	s, ok := d.sessions[code]
	if !ok || !s.closeIf(evict) {
		return false
	}
	delete(d.sessions, code)
	d.logger.WithField("session", code).Info("session removed")
	return true
}

// Len is the number of live sessions.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.sessions)
}

// Run sweeps for idle and empty sessions until ctx is done.
func (d *Directory) Run(ctx context.Context) {
	ticker := time.NewTicker(d.opts.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := d.Sweep(); n > 0 {
				d.logger.WithField("evicted", n).Info("swept idle sessions")
			}
		}
	}
}

// Sweep evicts sessions that are idle past IdleTimeout, or empty and idle
// past EmptyGrace. It returns how many were evicted.
func (d *Directory) Sweep() int {
	now := d.opts.Now()
	stale := func(players int, lastActive time.Time) bool {
		idle := now.Sub(lastActive)
		return idle > d.opts.IdleTimeout || (players == 0 && idle > d.opts.EmptyGrace)
	}

	d.mu.RLock()
	codes := make([]string, 0, len(d.sessions))
	for code := range d.sessions {
		codes = append(codes, code)
	}
	d.mu.RUnlock()

	evicted := 0
	for _, code := range codes {
		if d.evictIf(code, stale) {
			evicted++
		}
	}
	return evicted
}

// Shutdown closes every session.
func (d *Directory) Shutdown() {
	d.mu.Lock()
	sessions := d.sessions
	d.sessions = make(map[string]*GameSession)
	d.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}
