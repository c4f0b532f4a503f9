package game

import (
	"context"
	"errors"

	"github.com/merev/scorecard-api/internal/scoring"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrRoundNotFound   = errors.New("round not found")
	ErrRoundNumber     = errors.New("round number out of sequence")
	ErrGameOver        = errors.New("game is over")
	ErrQuickSession    = errors.New("quick sessions are not stored")
	ErrPlayerCount     = errors.New("player count outside game bounds")
	ErrTarget          = errors.New("invalid target score")
)

// Store persists durable sessions. Player ids cross it as decimal strings.
type Store interface {
	CreateSession(ctx context.Context, owner string, ns NewSession) (int64, error)
	GetSession(ctx context.Context, id int64) (Session, error)
	ListSessions(ctx context.Context, owner string) ([]Session, error)

	// AppendRound requires number to be the next round number.
	AppendRound(ctx context.Context, id int64, number int, scores map[string]int64) error
	ReplaceRound(ctx context.Context, id int64, number int, scores map[string]int64) error

	// SubmitPhase10Round appends a round and advances every completed
	// player's phase in one step.
	SubmitPhase10Round(ctx context.Context, id int64, number int, scores map[string]int64, completed map[string]bool) error
	// AdvancePhases advances the completed players round number has not
	// advanced yet and records them against the round.
	AdvancePhases(ctx context.Context, id int64, number int, completed map[string]bool) error

	// FinishSession closes a session and folds its result into the player
	// profiles. Finishing a closed session does nothing.
	FinishSession(ctx context.Context, id int64, standings, winners []scoring.Standing) error

	// DeleteSession removes one of owner's sessions with its rounds. Profile
	// totals already folded in by FinishSession stay.
	DeleteSession(ctx context.Context, id int64, owner string) error
}

// PersistError reports a store failure after the session was already
// updated locally. The updated session is returned alongside it.
type PersistError struct {
	Op  string
	Err error
}

func (e *PersistError) Error() string {
	return "persist " + e.Op + ": " + e.Err.Error()
}

func (e *PersistError) Unwrap() error {
	return e.Err
}
