package game

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/undercover/internal/models"
	"github.com/jason-s-yu/undercover/internal/words"
	"github.com/sirupsen/logrus"
)

// DefaultSubscriberBuffer bounds the views queued for one subscriber.
const DefaultSubscriberBuffer = 256

// SessionOptions configures a new GameSession. Zero values get defaults.
type SessionOptions struct {
	Language string
	Theme    string

	Bank             *words.Bank
	Rand             *rand.Rand
	Recorder         Recorder
	Logger           logrus.FieldLogger
	SubscriberBuffer int
	Now              func() time.Time
}

// GameSession owns one game's lifecycle. Every command takes the write lock,
// validates fully before mutating, and on success fans out one projected view
// per subscriber before releasing it. Reads take the read lock.
type GameSession struct {
	mu sync.RWMutex

	code      string
	mode      Mode
	language  string
	theme     string
	bank      *words.Bank
	rng       *rand.Rand
	recorder  Recorder
	logger    logrus.FieldLogger
	subBuffer int
	now       func() time.Time

	phase        Phase
	players      []*Player
	config       SessionConfig
	civilianWord string
	impostorWord string
	hostID       string
	round        int
	winner       Winner

	gameID      uuid.UUID
	actionIndex int
	lastActive  time.Time
	subs        map[*Subscription]struct{}
	closed      bool
}

// NewSession creates a session in the Lobby phase.
func NewSession(code string, mode Mode, opts SessionOptions) *GameSession {
	if opts.Bank == nil {
		opts.Bank = words.DefaultBank("en")
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if opts.SubscriberBuffer <= 0 {
		opts.SubscriberBuffer = DefaultSubscriberBuffer
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := &GameSession{
		code:      code,
		mode:      mode,
		language:  opts.Language,
		theme:     opts.Theme,
		bank:      opts.Bank,
		rng:       opts.Rand,
		recorder:  opts.Recorder,
		logger:    opts.Logger.WithField("session", code),
		subBuffer: opts.SubscriberBuffer,
		now:       opts.Now,
		phase:     PhaseLobby,
		config:    DefaultConfig(),
		gameID:    uuid.New(),
		subs:      make(map[*Subscription]struct{}),
	}
	s.lastActive = s.now()
	s.commit("", models.ActionSessionCreated, map[string]interface{}{
		"mode":     string(mode),
		"language": opts.Language,
		"theme":    opts.Theme,
	})
	return s
}

// Code is the session's shareable identifier.
func (s *GameSession) Code() string { return s.code }

// Mode reports whether the session is hosted or local.
func (s *GameSession) Mode() Mode { return s.mode }

// Len is the number of players in the roster.
func (s *GameSession) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.players)
}

// LastActive is when the last command committed.
func (s *GameSession) LastActive() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastActive
}

// Phase is the current phase.
func (s *GameSession) Phase() Phase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phase
}

// HostID is the current host, "" when the roster is empty.
func (s *GameSession) HostID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hostID
}

// Join adds a player in the Lobby and returns the new player id. The first
// player to join becomes host.
func (s *GameSession) Join(displayName string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return "", err
	}

	name := strings.TrimSpace(displayName)
	if name == "" {
		return "", ErrInvalidName
	}
	if s.phase != PhaseLobby {
		return "", ErrSessionNotInLobby
	}
	for _, p := range s.players {
		if strings.EqualFold(p.DisplayName, name) {
			return "", fmt.Errorf("%w: %q", ErrDuplicateName, name)
		}
	}

	p := &Player{ID: uuid.NewString(), DisplayName: name}
	s.players = append(s.players, p)
	if s.hostID == "" {
		s.hostID = p.ID
	}
	s.commit(p.ID, models.ActionPlayerJoined, map[string]interface{}{"name": name})
	return p.ID, nil
}

// Leave removes playerID from the roster.
func (s *GameSession) Leave(playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	idx := s.indexOf(playerID)
	if idx < 0 {
		return ErrUnknownPlayer
	}
	s.commitRemoval(playerID, models.ActionPlayerLeft, nil, s.removeAt(idx))
	return nil
}

// Kick lets the host remove targetID.
func (s *GameSession) Kick(hostID, targetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	if err := s.requireHost(hostID); err != nil {
		return err
	}
	idx := s.indexOf(targetID)
	if idx < 0 {
		return ErrUnknownPlayer
	}
	s.commitRemoval(hostID, models.ActionPlayerKicked, map[string]interface{}{"target": targetID}, s.removeAt(idx))
	return nil
}

// Configure replaces the role counts. Lobby only. Rosters smaller than
// MinPlayers are checked as if MinPlayers had joined; Start checks the
// actual roster again.
func (s *GameSession) Configure(hostID string, cfg SessionConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	if err := s.requireHost(hostID); err != nil {
		return err
	}
	if s.phase != PhaseLobby {
		return ErrInvalidPhase
	}
	if err := cfg.Validate(max(len(s.players), MinPlayers)); err != nil {
		return err
	}
	s.config = cfg
	s.commit(hostID, models.ActionConfigured, map[string]interface{}{
		"impostors":       cfg.ImpostorCount,
		"silentImpostors": cfg.SilentImpostorCount,
		"jesters":         cfg.JesterCount,
		"protectors":      cfg.ProtectorCount,
	})
	return nil
}

// Start deals roles and words and moves the session to Reveal.
func (s *GameSession) Start(hostID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	if err := s.requireHost(hostID); err != nil {
		return err
	}
	if s.phase != PhaseLobby {
		return ErrInvalidPhase
	}
	if err := s.deal(); err != nil {
		return err
	}
	s.commit(hostID, models.ActionGameStarted, s.dealPayload())
	return nil
}

// Restart deals a fresh word pair and fresh roles to the same roster and
// config, re-entering Reveal.
func (s *GameSession) Restart(hostID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	if err := s.requireHost(hostID); err != nil {
		return err
	}
	if s.phase == PhaseLobby {
		return ErrInvalidPhase
	}
	if err := s.deal(); err != nil {
		return err
	}
	s.commit(hostID, models.ActionGameStarted, s.dealPayload())
	return nil
}

// ReturnToLobby clears the dealt game but keeps roster and config so the
// group can adjust roles or let new players join.
func (s *GameSession) ReturnToLobby(hostID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	if err := s.requireHost(hostID); err != nil {
		return err
	}
	if s.phase == PhaseLobby {
		return ErrInvalidPhase
	}
	s.resetToLobby()
	s.commit(hostID, models.ActionReturnedLobby, nil)
	return nil
}

// AcknowledgeReveal marks that playerID saw their role on the shared device.
// When the last player acknowledges, play begins. Acknowledging twice is a no-op.
func (s *GameSession) AcknowledgeReveal(playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	if s.mode != ModeLocal {
		return ErrWrongMode
	}
	if s.phase != PhaseReveal {
		return ErrInvalidPhase
	}
	idx := s.indexOf(playerID)
	if idx < 0 {
		return ErrUnknownPlayer
	}
	p := s.players[idx]
	if p.Acknowledged {
		return nil
	}
	p.Acknowledged = true
	s.maybeFinishReveal()
	s.commit(playerID, models.ActionRevealAck, nil)
	return nil
}

// BeginPlay ends the Reveal phase of a hosted session once the host sees
// everyone has read their role.
func (s *GameSession) BeginPlay(hostID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	if s.mode != ModeHosted {
		return ErrWrongMode
	}
	if err := s.requireHost(hostID); err != nil {
		return err
	}
	if s.phase != PhaseReveal {
		return ErrInvalidPhase
	}
	s.phase = PhasePlaying
	s.commit(hostID, models.ActionPlayBegan, nil)
	return nil
}

// Vote records voterID's advisory vote against targetID for this round. The
// first vote of a round opens the Voting phase. Votes never resolve on their
// own; the host eliminates.
func (s *GameSession) Vote(voterID, targetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	if s.mode != ModeHosted {
		return ErrWrongMode
	}
	if s.phase != PhasePlaying && s.phase != PhaseVoting {
		return ErrInvalidPhase
	}
	vi := s.indexOf(voterID)
	if vi < 0 {
		return ErrUnknownPlayer
	}
	voter := s.players[vi]
	if voter.IsEliminated {
		return ErrNotAuthorized
	}
	if voter.HasVoted {
		return ErrAlreadyVoted
	}
	ti := s.indexOf(targetID)
	if ti < 0 {
		return ErrUnknownPlayer
	}
	target := s.players[ti]
	if target.IsEliminated {
		return ErrAlreadyEliminated
	}
	if voterID == targetID {
		return ErrCannotVoteSelf
	}

	voter.HasVoted = true
	voter.votedFor = targetID
	target.VotesReceived++
	s.phase = PhaseVoting
	s.commit(voterID, models.ActionVoteCast, map[string]interface{}{"target": targetID})
	return nil
}

// Eliminate removes targetID from play. In hosted sessions only the host may
// eliminate; in local sessions any roster member (or the device itself, with
// an empty actorID) may. A correct guess by an eliminated Silent Impostor
// wins the game outright.
func (s *GameSession) Eliminate(actorID, targetID, guess string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	if s.phase != PhasePlaying && s.phase != PhaseVoting {
		return ErrInvalidPhase
	}
	switch s.mode {
	case ModeHosted:
		if actorID == "" || actorID != s.hostID {
			return ErrNotAuthorized
		}
	case ModeLocal:
		if actorID != "" && s.indexOf(actorID) < 0 {
			return ErrNotAuthorized
		}
	}
	ti := s.indexOf(targetID)
	if ti < 0 {
		return ErrUnknownPlayer
	}
	target := s.players[ti]
	if target.IsEliminated {
		return ErrAlreadyEliminated
	}

	if target.Role == RoleSilentImpostor && guessMatches(guess, s.civilianWord) {
		s.finish(WinnerSilentImpostor)
		s.record(actorID, models.ActionEliminated, map[string]interface{}{
			"target":       targetID,
			"role":         string(target.Role),
			"guessCorrect": true,
		})
		s.commit(actorID, models.ActionGameFinished, s.finishPayload())
		return nil
	}

	target.IsEliminated = true
	s.round++
	payload := map[string]interface{}{
		"target": targetID,
		"role":   string(target.Role),
	}
	if target.Role == RoleSilentImpostor {
		payload["guessCorrect"] = false
	}
	if w := evaluateWinner(s.players); w != WinnerNone {
		s.finish(w)
		s.record(actorID, models.ActionEliminated, payload)
		s.commit(actorID, models.ActionGameFinished, s.finishPayload())
		return nil
	}
	s.phase = PhasePlaying
	for _, p := range s.players {
		p.resetRound()
	}
	s.commit(actorID, models.ActionEliminated, payload)
	return nil
}

// View projects the session for viewerID.
func (s *GameSession) View(viewerID string) PublicView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.project(viewerID)
}

// Subscribe registers a push stream for viewerID. The current view is queued
// first so the subscriber never misses the state it subscribed to.
func (s *GameSession) Subscribe(viewerID string) *Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub := newSubscription(viewerID, s.subBuffer)
	if s.closed {
		sub.close(ErrSubscriptionClosed)
		return sub
	}
	sub.push(s.project(viewerID))
	s.subs[sub] = struct{}{}
	return sub
}

// Unsubscribe stops and closes sub.
func (s *GameSession) Unsubscribe(sub *Subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, sub)
	sub.close(ErrSubscriptionClosed)
}

// Subscribers is the number of live subscriptions.
func (s *GameSession) Subscribers() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs)
}

// Close rejects further commands and ends every subscription.
func (s *GameSession) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for sub := range s.subs {
		sub.close(ErrSubscriptionClosed)
		delete(s.subs, sub)
	}
}

// closeIf closes the session when evict, given the roster size and the last
// activity time, says so. Check and close happen under one lock so a
// concurrent Join either lands first or sees a closed session.
func (s *GameSession) closeIf(evict func(players int, lastActive time.Time) bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || !evict(len(s.players), s.lastActive) {
		return false
	}
	s.closed = true
	for sub := range s.subs {
		sub.close(ErrSubscriptionClosed)
		delete(s.subs, sub)
	}
	return true
}

// The helpers below assume s.mu is held for writing.

func (s *GameSession) checkOpen() error {
	if s.closed {
		return ErrSessionNotFound
	}
	return nil
}

func (s *GameSession) requireHost(playerID string) error {
	if playerID == "" || playerID != s.hostID {
		return ErrNotHost
	}
	return nil
}

func (s *GameSession) indexOf(playerID string) int {
	for i, p := range s.players {
		if p.ID == playerID {
			return i
		}
	}
	return -1
}

// removeAt drops the player at idx, hands host to the next-oldest player and
// keeps a running game consistent with the smaller roster. It reports whether
// the removal ended the game.
func (s *GameSession) removeAt(idx int) bool {
	removed := s.players[idx]
	s.players = append(s.players[:idx], s.players[idx+1:]...)

	if removed.ID == s.hostID {
		s.hostID = ""
		if len(s.players) > 0 {
			s.hostID = s.players[0].ID
		}
	}
	if len(s.players) == 0 {
		s.resetToLobby()
		return false
	}

	s.withdrawVotes(removed)

	switch s.phase {
	case PhaseReveal, PhasePlaying, PhaseVoting:
		if w := evaluateWinner(s.players); w != WinnerNone {
			s.finish(w)
			return true
		}
		if s.phase == PhaseReveal && s.mode == ModeLocal {
			s.maybeFinishReveal()
		}
	case PhaseLobby, PhaseFinished:
	}
	return false
}

// withdrawVotes undoes removed's vote and frees the votes cast against them,
// so the tally keeps counting only voters still on the roster.
func (s *GameSession) withdrawVotes(removed *Player) {
	for _, p := range s.players {
		if removed.HasVoted && p.ID == removed.votedFor && p.VotesReceived > 0 {
			p.VotesReceived--
		}
		if p.HasVoted && p.votedFor == removed.ID {
			p.HasVoted = false
			p.votedFor = ""
		}
	}
}

func (s *GameSession) commitRemoval(actorID, actionType string, payload map[string]interface{}, finished bool) {
	if !finished {
		s.commit(actorID, actionType, payload)
		return
	}
	s.record(actorID, actionType, payload)
	s.commit(actorID, models.ActionGameFinished, s.finishPayload())
}

// deal validates the roster and config, draws a pair and assigns roles.
// Nothing is mutated unless every step succeeds.
func (s *GameSession) deal() error {
	if len(s.players) < MinPlayers {
		return fmt.Errorf("%w: have %d, need %d", ErrInsufficientPlayers, len(s.players), MinPlayers)
	}
	if s.config.Specials() >= len(s.players) {
		return fmt.Errorf("%w: %d special roles for %d players", ErrRoleCountExceedsRoster, s.config.Specials(), len(s.players))
	}

	pair, err := s.bank.PickTheme(s.language, s.theme, s.rng)
	if err != nil {
		return fmt.Errorf("draw word pair: %w", err)
	}
	ids := make([]string, len(s.players))
	for i, p := range s.players {
		ids[i] = p.ID
	}
	assignments, err := Assign(ids, s.config, pair, s.rng)
	if err != nil {
		return err
	}

	for i, p := range s.players {
		p.resetGame()
		a := assignments[i]
		p.Role = a.Role
		p.SecretWord = a.Word
		p.ProtectionTargetID = a.ProtectionTargetID
	}
	s.civilianWord = pair.Civilian
	s.impostorWord = pair.Impostor
	s.phase = PhaseReveal
	s.round = 1
	s.winner = WinnerNone
	s.gameID = uuid.New()
	return nil
}

func (s *GameSession) resetToLobby() {
	for _, p := range s.players {
		p.resetGame()
	}
	s.civilianWord = ""
	s.impostorWord = ""
	s.phase = PhaseLobby
	s.round = 0
	s.winner = WinnerNone
}

func (s *GameSession) maybeFinishReveal() {
	for _, p := range s.players {
		if !p.Acknowledged {
			return
		}
	}
	s.phase = PhasePlaying
}

func (s *GameSession) finish(w Winner) {
	s.winner = w
	s.phase = PhaseFinished
}

func (s *GameSession) dealPayload() map[string]interface{} {
	return map[string]interface{}{
		"players":         len(s.players),
		"impostors":       s.config.ImpostorCount,
		"silentImpostors": s.config.SilentImpostorCount,
		"jesters":         s.config.JesterCount,
		"protectors":      s.config.ProtectorCount,
	}
}

func (s *GameSession) finishPayload() map[string]interface{} {
	roles := make(map[string]interface{}, len(s.players))
	for _, p := range s.players {
		roles[p.ID] = string(p.Role)
	}
	return map[string]interface{}{
		"winner":       string(s.winner),
		"civilianWord": s.civilianWord,
		"impostorWord": s.impostorWord,
		"rounds":       s.round,
		"players":      len(s.players),
		"roles":        roles,
	}
}

// commit ends a successful command: it stamps activity, pushes exactly one
// view to every subscriber and records the action.
func (s *GameSession) commit(actorID, actionType string, payload map[string]interface{}) {
	s.lastActive = s.now()

	for sub := range s.subs {
		if !sub.push(s.project(sub.viewerID)) {
			delete(s.subs, sub)
			s.logger.WithField("viewer", sub.viewerID).Warn("dropped lagging subscriber")
		}
	}
	s.record(actorID, actionType, payload)
}

// record hands one action to the recorder. Recorders must not block.
func (s *GameSession) record(actorID, actionType string, payload map[string]interface{}) {
	s.actionIndex++
	if s.recorder == nil {
		return
	}
	rec := models.ActionRecord{
		SessionCode:   s.code,
		GameID:        s.gameID,
		ActionIndex:   s.actionIndex,
		ActorID:       actorID,
		ActionType:    actionType,
		ActionPayload: payload,
		Timestamp:     s.now().UnixMilli(),
	}
	if err := s.recorder.Record(context.Background(), rec); err != nil {
		s.logger.WithError(err).WithField("action", actionType).Warn("failed to record action")
	}
}
