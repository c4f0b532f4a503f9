package game

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/merev/scorecard-api/internal/catalog"
	"github.com/merev/scorecard-api/internal/scoring"
)

// QuickRef is the session reference of every transient session.
const QuickRef = "quick"

// Session is one played game. Quick sessions are never stored and have no
// ID.
type Session struct {
	ID            int64            `json:"id,omitempty"`
	Quick         bool             `json:"isQuick"`
	Owner         string           `json:"owner,omitempty"`
	GameType      catalog.GameType `json:"gameType"`
	Players       []scoring.Player `json:"players"`
	Rounds        []scoring.Round  `json:"rounds"`
	Targets       catalog.Targets  `json:"targets"`
	PhaseProgress map[string]int   `json:"phase10Progress,omitempty"`
	Active        bool             `json:"isActive"`
	CreatedAt     time.Time        `json:"createdAt"`
}

// Ref is the session's reference: its decimal id, or "quick".
func (s Session) Ref() string {
	if s.Quick {
		return QuickRef
	}
	return strconv.FormatInt(s.ID, 10)
}

// PlayerIDs lists seated player ids in seat order.
func (s Session) PlayerIDs() []string {
	return scoring.PlayerIDs(s.Players)
}

// NextRound is the number the next submitted round receives.
func (s Session) NextRound() int {
	return len(s.Rounds) + 1
}

func (s Session) roundIndex(number int) int {
	for i, r := range s.Rounds {
		if r.Number == number {
			return i
		}
	}
	return -1
}

// clone copies the parts of a session that SubmitRound and EditRound change.
func (s Session) clone() Session {
	out := s
	out.Rounds = make([]scoring.Round, len(s.Rounds))
	copy(out.Rounds, s.Rounds)
	if s.PhaseProgress != nil {
		out.PhaseProgress = make(map[string]int, len(s.PhaseProgress))
		for id, p := range s.PhaseProgress {
			out.PhaseProgress[id] = p
		}
	}
	return out
}

// NewQuickPlayer creates a throwaway player for a quick session.
func NewQuickPlayer(name string) (scoring.Player, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return scoring.Player{}, fmt.Errorf("generate quick player id: %w", err)
	}
	return scoring.Player{ID: "quick-" + id.String(), Name: name, Quick: true}, nil
}

// NewSession is what the store needs to create a durable session.
type NewSession struct {
	GameType  catalog.BackendGameType
	PlayerIDs []int64
}

// TargetRequest carries optional thresholds; nil means the game's default.
type TargetRequest struct {
	NertsWinTarget   *int64 `json:"nertsWinTarget"`
	Flip7TargetScore *int64 `json:"flip7TargetScore"`
	Phase10WinTarget *int64 `json:"phase10WinTarget"`
}

// CreateSessionRequest is the body we expect on POST /api/sessions.
type CreateSessionRequest struct {
	GameType  string  `json:"gameType" validate:"required"`
	PlayerIDs []int64 `json:"players" validate:"required,min=1,unique,dive,gt=0"`
	TargetRequest
}

// CreateQuickSessionRequest is the body we expect on POST /api/quick/sessions.
type CreateQuickSessionRequest struct {
	GameType    string   `json:"gameType" validate:"required"`
	PlayerNames []string `json:"players" validate:"required,min=1,dive,required,max=64"`
	TargetRequest
}

// RoundRequest carries one round's structured input.
type RoundRequest struct {
	Entry scoring.Entry `json:"entry"`
}

// QuickViewRequest carries a client-held quick session.
type QuickViewRequest struct {
	Session Session `json:"session"`
}

// QuickRoundRequest applies a round to a client-held quick session. A zero
// RoundNumber appends a new round; otherwise that round is replaced.
type QuickRoundRequest struct {
	Session     Session       `json:"session"`
	RoundNumber int           `json:"roundNumber"`
	Entry       scoring.Entry `json:"entry"`
}

// View is everything one score sheet render needs.
type View struct {
	Session       Session              `json:"session"`
	Template      catalog.GameTemplate `json:"template"`
	Standings     []scoring.Standing   `json:"standings"`
	GameEnd       scoring.GameEnd      `json:"gameEnd"`
	NextRound     int                  `json:"nextRound"`
	CanAddRound   bool                 `json:"canAddRound"`
	CanEditRounds bool                 `json:"canEditRounds"`

	// Phase 10 only.
	CompletionOneWay   bool            `json:"completionOneWay,omitempty"`
	CompletionEditable map[string]bool `json:"completionEditable,omitempty"`
}

// EntryForm is the pre-filled form for a round.
type EntryForm struct {
	RoundNumber int           `json:"roundNumber"`
	Entry       scoring.Entry `json:"entry"`
	Cached      bool          `json:"cached"`
	// CompletionOneWay is set when ticked Phase 10 boxes can not be cleared.
	CompletionOneWay bool `json:"completionOneWay"`
}
