package game

// PlayerView is the public part of a player, identical for every viewer
// except IsYou.
type PlayerView struct {
	ID            string `json:"id"`
	DisplayName   string `json:"displayName"`
	IsHost        bool   `json:"isHost"`
	IsYou         bool   `json:"isYou"`
	IsEliminated  bool   `json:"isEliminated"`
	HasVoted      bool   `json:"hasVoted"`
	VotesReceived int    `json:"votesReceived"`
	Acknowledged  bool   `json:"acknowledged"`
}

// SecretView is what only the viewer may see about themselves.
type SecretView struct {
	Role               Role   `json:"role"`
	Word               string `json:"word,omitempty"`
	ProtectionTargetID string `json:"protectionTargetId,omitempty"`
}

// PublicView is the session as projected for one viewer.
type PublicView struct {
	Code     string        `json:"code"`
	Mode     Mode          `json:"mode"`
	Phase    Phase         `json:"phase"`
	Language string        `json:"language,omitempty"`
	Theme    string        `json:"theme,omitempty"`
	HostID   string        `json:"hostId,omitempty"`
	Round    int           `json:"round"`
	Config   SessionConfig `json:"config"`
	Players  []PlayerView  `json:"players"`
	Winner   Winner        `json:"winner,omitempty"`

	// ViewerID is empty for spectators.
	ViewerID string      `json:"viewerId,omitempty"`
	You      *SecretView `json:"you,omitempty"`

	// NextRevealerID is the first player in join order still to see their
	// role on a shared device.
	NextRevealerID string `json:"nextRevealerId,omitempty"`
}

// Project returns s as seen by viewerID. An empty or unknown viewerID gets
// the spectator view with no secrets at all.
func Project(s *GameSession, viewerID string) PublicView {
	return s.View(viewerID)
}

// project builds the view. Callers hold s.mu.
func (s *GameSession) project(viewerID string) PublicView {
	v := PublicView{
		Code:     s.code,
		Mode:     s.mode,
		Phase:    s.phase,
		Language: s.language,
		Theme:    s.theme,
		HostID:   s.hostID,
		Round:    s.round,
		Config:   s.config,
		Players:  make([]PlayerView, 0, len(s.players)),
		Winner:   s.winner,
	}

	for _, p := range s.players {
		isYou := viewerID != "" && p.ID == viewerID
		v.Players = append(v.Players, PlayerView{
			ID:            p.ID,
			DisplayName:   p.DisplayName,
			IsHost:        p.ID == s.hostID,
			IsYou:         isYou,
			IsEliminated:  p.IsEliminated,
			HasVoted:      p.HasVoted,
			VotesReceived: p.VotesReceived,
			Acknowledged:  p.Acknowledged,
		})
		if isYou {
			v.ViewerID = p.ID
			if p.Role != RoleUnset {
				v.You = &SecretView{
					Role:               p.Role,
					Word:               p.SecretWord,
					ProtectionTargetID: p.ProtectionTargetID,
				}
			}
		}
		if s.mode == ModeLocal && s.phase == PhaseReveal && v.NextRevealerID == "" && !p.Acknowledged {
			v.NextRevealerID = p.ID
		}
	}
	return v
}
