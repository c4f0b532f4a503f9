package game

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/merev/scorecard-api/internal/catalog"
	"github.com/merev/scorecard-api/internal/scoring"
)

// Repository is the pgx-backed Store.
type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// -----------------------------------------------------------------------------
// Session creation & loading
// -----------------------------------------------------------------------------

// CreateSession inserts a session row, its seats and, for Phase 10, every
// player's starting phase.
func (r *Repository) CreateSession(ctx context.Context, owner string, ns NewSession) (int64, error) {
	if len(ns.PlayerIDs) == 0 {
		return 0, ErrPlayerCount
	}

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	gt := ns.GameType
	var id int64
	err = tx.QueryRow(ctx, `
INSERT INTO game_sessions (owner, game_kind, rules_summary, game_end_condition, scoring_method, scoring_details, win_target, target_score)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id;
`, owner, string(gt.Kind), gt.RulesSummary, gt.GameEndCondition, string(gt.ScoringMethod), gt.ScoringDetails, gt.WinTarget, gt.TargetScore).
		Scan(&id)
	if err != nil {
		return 0, err
	}

	for i, pid := range ns.PlayerIDs {
		if _, err := tx.Exec(ctx, `
INSERT INTO session_players (session_id, player_id, seat)
VALUES ($1, $2, $3);
`, id, pid, i+1); err != nil {
			return 0, fmt.Errorf("seat player %d: %w", pid, err)
		}
	}

	if gt.Kind == catalog.KindPhase10 {
		if _, err := tx.Exec(ctx, `
INSERT INTO phase_progress (session_id, player_id, phase)
SELECT session_id, player_id, $2
FROM session_players
WHERE session_id = $1;
`, id, scoring.FirstPhase); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return id, nil
}

// GetSession loads a session with its players, rounds and phase progress.
func (r *Repository) GetSession(ctx context.Context, id int64) (Session, error) {
	var (
		sess    Session
		backend catalog.BackendGameType
		kind    string
		method  string
	)

	err := r.db.QueryRow(ctx, `
SELECT id, owner, game_kind, rules_summary, game_end_condition, scoring_method, scoring_details,
       win_target, target_score, is_active, created_at
FROM game_sessions
WHERE id = $1;
`, id).Scan(
		&sess.ID,
		&sess.Owner,
		&kind,
		&backend.RulesSummary,
		&backend.GameEndCondition,
		&method,
		&backend.ScoringDetails,
		&backend.WinTarget,
		&backend.TargetScore,
		&sess.Active,
		&sess.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Session{}, fmt.Errorf("%w: %d", ErrSessionNotFound, id)
		}
		return Session{}, err
	}
	backend.Kind = catalog.BackendKind(kind)
	backend.ScoringMethod = catalog.ScoringMethod(method)
	sess.GameType = catalog.FromBackend(backend)
	sess.Targets = catalog.TargetsFromBackend(backend)

	if sess.Players, err = r.loadPlayers(ctx, id); err != nil {
		return Session{}, err
	}
	if sess.Rounds, err = r.loadRounds(ctx, id); err != nil {
		return Session{}, err
	}
	if sess.GameType == catalog.Phase10 {
		if sess.PhaseProgress, err = r.loadPhases(ctx, id); err != nil {
			return Session{}, err
		}
		if err := r.loadCompletions(ctx, id, sess.Rounds); err != nil {
			return Session{}, err
		}
	}

	return sess, nil
}

// ListSessions returns owner's sessions, newest first.
func (r *Repository) ListSessions(ctx context.Context, owner string) ([]Session, error) {
	rows, err := r.db.Query(ctx, `
SELECT id
FROM game_sessions
WHERE owner = $1
ORDER BY created_at DESC, id DESC;
`, owner)
	if err != nil {
		return nil, err
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, err
	}

	sessions := make([]Session, 0, len(ids))
	for _, id := range ids {
		sess, err := r.GetSession(ctx, id)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, nil
}

func (r *Repository) loadPlayers(ctx context.Context, sessionID int64) ([]scoring.Player, error) {
	rows, err := r.db.Query(ctx, `
SELECT p.id, p.name, p.owner
FROM session_players sp
JOIN player_profiles p ON p.id = sp.player_id
WHERE sp.session_id = $1
ORDER BY sp.seat ASC;
`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	players := make([]scoring.Player, 0)
	for rows.Next() {
		var (
			pid int64
			p   scoring.Player
		)
		if err := rows.Scan(&pid, &p.Name, &p.Owner); err != nil {
			return nil, err
		}
		p.ID = scoring.ProfileID(pid)
		players = append(players, p)
	}
	return players, rows.Err()
}

func (r *Repository) loadRounds(ctx context.Context, sessionID int64) ([]scoring.Round, error) {
	rows, err := r.db.Query(ctx, `
SELECT rd.round_number, rs.player_id, rs.score
FROM rounds rd
JOIN round_scores rs ON rs.round_id = rd.id
WHERE rd.session_id = $1
ORDER BY rd.round_number ASC, rs.player_id ASC;
`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rounds := make([]scoring.Round, 0)
	for rows.Next() {
		var (
			number int
			pid    int64
			score  int64
		)
		if err := rows.Scan(&number, &pid, &score); err != nil {
			return nil, err
		}
		if n := len(rounds); n == 0 || rounds[n-1].Number != number {
			rounds = append(rounds, scoring.Round{Number: number, Scores: make(map[string]int64)})
		}
		rounds[len(rounds)-1].Scores[scoring.ProfileID(pid)] = score
	}
	return rounds, rows.Err()
}

func (r *Repository) loadPhases(ctx context.Context, sessionID int64) (map[string]int, error) {
	rows, err := r.db.Query(ctx, `
SELECT player_id, phase
FROM phase_progress
WHERE session_id = $1;
`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	phases := make(map[string]int)
	for rows.Next() {
		var (
			pid   int64
			phase int
		)
		if err := rows.Scan(&pid, &phase); err != nil {
			return nil, err
		}
		phases[scoring.ProfileID(pid)] = phase
	}
	return phases, rows.Err()
}

// loadCompletions attaches the players each round has advanced.
func (r *Repository) loadCompletions(ctx context.Context, sessionID int64, rounds []scoring.Round) error {
	rows, err := r.db.Query(ctx, `
SELECT rd.round_number, rc.player_id
FROM rounds rd
JOIN round_completions rc ON rc.round_id = rd.id
WHERE rd.session_id = $1;
`, sessionID)
	if err != nil {
		return err
	}
	defer rows.Close()

	byNumber := make(map[int]*scoring.Round, len(rounds))
	for i := range rounds {
		byNumber[rounds[i].Number] = &rounds[i]
	}
	for rows.Next() {
		var (
			number int
			pid    int64
		)
		if err := rows.Scan(&number, &pid); err != nil {
			return err
		}
		round, ok := byNumber[number]
		if !ok {
			continue
		}
		if round.Advanced == nil {
			round.Advanced = make(map[string]bool)
		}
		round.Advanced[scoring.ProfileID(pid)] = true
	}
	return rows.Err()
}

// -----------------------------------------------------------------------------
// Rounds
// -----------------------------------------------------------------------------

// AppendRound stores the next round of a session.
func (r *Repository) AppendRound(ctx context.Context, id int64, number int, scores map[string]int64) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		_, err := appendRound(ctx, tx, id, number, scores)
		return err
	})
}

// ReplaceRound overwrites the scores of an existing round.
func (r *Repository) ReplaceRound(ctx context.Context, id int64, number int, scores map[string]int64) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := lockSession(ctx, tx, id); err != nil {
			return err
		}
		roundID, err := findRound(ctx, tx, id, number)
		if err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, `DELETE FROM round_scores WHERE round_id = $1;`, roundID); err != nil {
			return err
		}
		return insertScores(ctx, tx, roundID, scores)
	})
}

// SubmitPhase10Round appends a round and advances the completed players.
func (r *Repository) SubmitPhase10Round(ctx context.Context, id int64, number int, scores map[string]int64, completed map[string]bool) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		roundID, err := appendRound(ctx, tx, id, number, scores)
		if err != nil {
			return err
		}
		return advancePhases(ctx, tx, id, roundID, completed)
	})
}

// AdvancePhases moves every completed player one phase on, up to the last,
// unless round number already advanced them.
func (r *Repository) AdvancePhases(ctx context.Context, id int64, number int, completed map[string]bool) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := lockSession(ctx, tx, id); err != nil {
			return err
		}
		roundID, err := findRound(ctx, tx, id, number)
		if err != nil {
			return err
		}
		return advancePhases(ctx, tx, id, roundID, completed)
	})
}

func appendRound(ctx context.Context, tx pgx.Tx, id int64, number int, scores map[string]int64) (int64, error) {
	if _, err := lockSession(ctx, tx, id); err != nil {
		return 0, err
	}

	var count int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM rounds WHERE session_id = $1;`, id).Scan(&count); err != nil {
		return 0, err
	}
	if number != count+1 {
		return 0, fmt.Errorf("%w: expected %d, got %d", ErrRoundNumber, count+1, number)
	}

	var roundID int64
	if err := tx.QueryRow(ctx, `
INSERT INTO rounds (session_id, round_number)
VALUES ($1, $2)
RETURNING id;
`, id, number).Scan(&roundID); err != nil {
		return 0, err
	}
	return roundID, insertScores(ctx, tx, roundID, scores)
}

func findRound(ctx context.Context, tx pgx.Tx, id int64, number int) (int64, error) {
	var roundID int64
	err := tx.QueryRow(ctx, `
SELECT id FROM rounds WHERE session_id = $1 AND round_number = $2;
`, id, number).Scan(&roundID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("%w: %d", ErrRoundNotFound, number)
		}
		return 0, err
	}
	return roundID, nil
}

func insertScores(ctx context.Context, tx pgx.Tx, roundID int64, scores map[string]int64) error {
	for player, score := range scores {
		pid, err := scoring.ParseProfileID(player)
		if err != nil {
			return fmt.Errorf("score for player %q: %w", player, err)
		}
		if _, err := tx.Exec(ctx, `
INSERT INTO round_scores (round_id, player_id, score)
VALUES ($1, $2, $3);
`, roundID, pid, score); err != nil {
			return err
		}
	}
	return nil
}

// advancePhases records the completed players against the round and moves on
// only those it had not recorded before.
func advancePhases(ctx context.Context, tx pgx.Tx, id, roundID int64, completed map[string]bool) error {
	ids := make([]int64, 0, len(completed))
	for player, done := range completed {
		if !done {
			continue
		}
		pid, err := scoring.ParseProfileID(player)
		if err != nil {
			return fmt.Errorf("phase for player %q: %w", player, err)
		}
		ids = append(ids, pid)
	}
	if len(ids) == 0 {
		return nil
	}

	rows, err := tx.Query(ctx, `
INSERT INTO round_completions (round_id, player_id)
SELECT $1, unnest($2::BIGINT[])
ON CONFLICT DO NOTHING
RETURNING player_id;
`, roundID, ids)
	if err != nil {
		return err
	}
	fresh, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return err
	}
	if len(fresh) == 0 {
		return nil
	}

	_, err = tx.Exec(ctx, `
UPDATE phase_progress
SET phase = LEAST(phase + 1, $3)
WHERE session_id = $1 AND player_id = ANY($2);
`, id, fresh, scoring.LastPhase)
	return err
}

// -----------------------------------------------------------------------------
// Finishing
// -----------------------------------------------------------------------------

// FinishSession marks a session inactive, records its final standings and
// folds the result into each player's profile.
func (r *Repository) FinishSession(ctx context.Context, id int64, standings, winners []scoring.Standing) error {
	won := make(map[string]bool, len(winners))
	for _, w := range winners {
		won[w.PlayerID] = true
	}

	return r.inTx(ctx, func(tx pgx.Tx) error {
		active, err := lockSession(ctx, tx, id)
		if err != nil {
			return err
		}
		if !active {
			return nil
		}

		if _, err := tx.Exec(ctx, `
UPDATE game_sessions SET is_active = FALSE, finished_at = $2 WHERE id = $1;
`, id, time.Now().UTC()); err != nil {
			return err
		}

		for i, st := range standings {
			pid, err := scoring.ParseProfileID(st.PlayerID)
			if err != nil {
				return fmt.Errorf("final score for player %q: %w", st.PlayerID, err)
			}
			wins := 0
			if won[st.PlayerID] {
				wins = 1
			}

			if _, err := tx.Exec(ctx, `
INSERT INTO final_scores (session_id, player_id, position, total, is_winner)
VALUES ($1, $2, $3, $4, $5);
`, id, pid, i+1, st.Total, wins == 1); err != nil {
				return err
			}

			if _, err := tx.Exec(ctx, `
UPDATE player_profiles
SET games_played  = games_played + 1,
    wins          = wins + $2,
    total_score   = total_score + $3,
    average_score = (total_score + $3) / (games_played + 1)
WHERE id = $1;
`, pid, wins, st.Total); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteSession removes one of owner's sessions. Rounds, seats and phase
// progress go with it.
func (r *Repository) DeleteSession(ctx context.Context, id int64, owner string) error {
	tag, err := r.db.Exec(ctx, `
DELETE FROM game_sessions WHERE id = $1 AND owner = $2;
`, id, owner)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %d", ErrSessionNotFound, id)
	}
	return nil
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

func (r *Repository) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	// Ensure rollback if we return before Commit
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// lockSession serializes writers on one session and reports whether it is
// still active.
func lockSession(ctx context.Context, tx pgx.Tx, id int64) (bool, error) {
	var active bool
	err := tx.QueryRow(ctx, `SELECT is_active FROM game_sessions WHERE id = $1 FOR UPDATE;`, id).Scan(&active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, fmt.Errorf("%w: %d", ErrSessionNotFound, id)
		}
		return false, err
	}
	return active, nil
}
