package game_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/merev/scorecard-api/internal/catalog"
	"github.com/merev/scorecard-api/internal/game"
	"github.com/merev/scorecard-api/internal/scoring"
)

// fakeStore keeps sessions in memory and records what it was asked to do.
type fakeStore struct {
	mu       sync.Mutex
	nextID   int64
	sessions map[int64]game.Session
	backends map[int64]catalog.BackendGameType

	calls    []string
	advanced []map[string]bool
	finished map[int64][]scoring.Standing

	failWrites error
	failFinish error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		sessions: make(map[int64]game.Session),
		backends: make(map[int64]catalog.BackendGameType),
		finished: make(map[int64][]scoring.Standing),
	}
}

func (f *fakeStore) record(call string) {
	f.calls = append(f.calls, call)
}

func (f *fakeStore) CreateSession(_ context.Context, owner string, ns game.NewSession) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("CreateSession")

	f.nextID++
	id := f.nextID
	players := make([]scoring.Player, 0, len(ns.PlayerIDs))
	for _, pid := range ns.PlayerIDs {
		players = append(players, scoring.Player{
			ID:    scoring.ProfileID(pid),
			Name:  fmt.Sprintf("P%d", pid),
			Owner: fmt.Sprintf("owner-%d", pid),
		})
	}
	gameType := catalog.FromBackend(ns.GameType)
	sess := game.Session{
		ID:        id,
		Owner:     owner,
		GameType:  gameType,
		Players:   players,
		Rounds:    []scoring.Round{},
		Targets:   catalog.TargetsFromBackend(ns.GameType),
		Active:    true,
		CreatedAt: time.Now(),
	}
	if gameType == catalog.Phase10 {
		sess.PhaseProgress = scoring.AdvancePhases(nil, nil, scoring.PlayerIDs(players))
	}
	f.sessions[id] = sess
	f.backends[id] = ns.GameType
	return id, nil
}

func (f *fakeStore) GetSession(_ context.Context, id int64) (game.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	sess, ok := f.sessions[id]
	if !ok {
		return game.Session{}, fmt.Errorf("%w: %d", game.ErrSessionNotFound, id)
	}
	return copySession(sess), nil
}

func (f *fakeStore) ListSessions(_ context.Context, owner string) ([]game.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := []game.Session{}
	for id := f.nextID; id > 0; id-- {
		if s, ok := f.sessions[id]; ok && s.Owner == owner {
			out = append(out, copySession(s))
		}
	}
	return out, nil
}

func (f *fakeStore) AppendRound(_ context.Context, id int64, number int, scores map[string]int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("AppendRound")
	return f.appendLocked(id, number, scores)
}

func (f *fakeStore) ReplaceRound(_ context.Context, id int64, number int, scores map[string]int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ReplaceRound")
	if f.failWrites != nil {
		return f.failWrites
	}

	sess, ok := f.sessions[id]
	if !ok {
		return game.ErrSessionNotFound
	}
	for i, r := range sess.Rounds {
		if r.Number == number {
			sess.Rounds[i] = scoring.Round{Number: number, Scores: scores, Advanced: r.Advanced}
			f.sessions[id] = sess
			return nil
		}
	}
	return game.ErrRoundNotFound
}

func (f *fakeStore) SubmitPhase10Round(_ context.Context, id int64, number int, scores map[string]int64, completed map[string]bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("SubmitPhase10Round")
	if err := f.appendLocked(id, number, scores); err != nil {
		return err
	}
	return f.advanceLocked(id, number, completed)
}

func (f *fakeStore) AdvancePhases(_ context.Context, id int64, number int, completed map[string]bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("AdvancePhases")
	if f.failWrites != nil {
		return f.failWrites
	}
	return f.advanceLocked(id, number, completed)
}

func (f *fakeStore) FinishSession(_ context.Context, id int64, standings, _ []scoring.Standing) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("FinishSession")
	if f.failWrites != nil {
		return f.failWrites
	}
	if f.failFinish != nil {
		return f.failFinish
	}

	sess, ok := f.sessions[id]
	if !ok {
		return game.ErrSessionNotFound
	}
	if !sess.Active {
		return nil
	}
	sess.Active = false
	f.sessions[id] = sess
	f.finished[id] = standings
	return nil
}

func (f *fakeStore) DeleteSession(_ context.Context, id int64, owner string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeleteSession")

	sess, ok := f.sessions[id]
	if !ok || sess.Owner != owner {
		return fmt.Errorf("%w: %d", game.ErrSessionNotFound, id)
	}
	delete(f.sessions, id)
	return nil
}

func (f *fakeStore) appendLocked(id int64, number int, scores map[string]int64) error {
	if f.failWrites != nil {
		return f.failWrites
	}
	sess, ok := f.sessions[id]
	if !ok {
		return game.ErrSessionNotFound
	}
	if number != len(sess.Rounds)+1 {
		return game.ErrRoundNumber
	}
	sess.Rounds = append(sess.Rounds, scoring.Round{Number: number, Scores: scores})
	f.sessions[id] = sess
	return nil
}

// advanceLocked mirrors the round_completions table: a player is advanced at
// most once per round.
func (f *fakeStore) advanceLocked(id int64, number int, completed map[string]bool) error {
	sess := f.sessions[id]
	idx := -1
	for i, r := range sess.Rounds {
		if r.Number == number {
			idx = i
		}
	}
	if idx < 0 {
		return game.ErrRoundNotFound
	}

	fresh, counted := scoring.CountCompletions(sess.Rounds[idx].Advanced, completed)
	sess.Rounds[idx].Advanced = counted
	sess.PhaseProgress = scoring.AdvancePhases(sess.PhaseProgress, fresh, sess.PlayerIDs())
	f.sessions[id] = sess
	f.advanced = append(f.advanced, fresh)
	return nil
}

func (f *fakeStore) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func copySession(s game.Session) game.Session {
	out := s
	out.Rounds = append([]scoring.Round{}, s.Rounds...)
	if s.PhaseProgress != nil {
		out.PhaseProgress = make(map[string]int, len(s.PhaseProgress))
		for k, v := range s.PhaseProgress {
			out.PhaseProgress[k] = v
		}
	}
	return out
}
