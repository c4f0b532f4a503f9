package database

import (
	"context"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

func NewPool(dsn string) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}

	db, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(ctx); err != nil {
		return nil, err
	}

	return db, nil
}

// NewRedis connects to the entry-state cache.
func NewRedis(addr, password string, db int) (*redis.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return rdb, nil
}

func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	const profilesTable = `
CREATE TABLE IF NOT EXISTS player_profiles (
    id            BIGSERIAL PRIMARY KEY,
    owner         TEXT NOT NULL,
    name          TEXT NOT NULL,
    games_played  BIGINT NOT NULL DEFAULT 0,
    wins          BIGINT NOT NULL DEFAULT 0,
    total_score   BIGINT NOT NULL DEFAULT 0,
    average_score BIGINT NOT NULL DEFAULT 0,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

	const sessionsTable = `
CREATE TABLE IF NOT EXISTS game_sessions (
    id                 BIGSERIAL PRIMARY KEY,
    owner              TEXT NOT NULL,
    game_kind          TEXT NOT NULL,
    rules_summary      TEXT NOT NULL,
    game_end_condition TEXT NOT NULL,
    scoring_method     TEXT NOT NULL,
    scoring_details    TEXT NOT NULL DEFAULT '',
    win_target         BIGINT,
    target_score       BIGINT,
    is_active          BOOLEAN NOT NULL DEFAULT TRUE,
    created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
    finished_at        TIMESTAMPTZ
);
`

	const sessionsOwnerIndex = `
CREATE INDEX IF NOT EXISTS game_sessions_owner_idx ON game_sessions (owner, created_at DESC);
`

	const sessionPlayersTable = `
CREATE TABLE IF NOT EXISTS session_players (
    session_id BIGINT NOT NULL REFERENCES game_sessions(id) ON DELETE CASCADE,
    player_id  BIGINT NOT NULL REFERENCES player_profiles(id) ON DELETE RESTRICT,
    seat       INT NOT NULL,
    PRIMARY KEY (session_id, player_id)
);
`

	const phaseProgressTable = `
CREATE TABLE IF NOT EXISTS phase_progress (
    session_id BIGINT NOT NULL,
    player_id  BIGINT NOT NULL,
    phase      INT NOT NULL DEFAULT 1 CHECK (phase BETWEEN 1 AND 10),
    PRIMARY KEY (session_id, player_id),
    FOREIGN KEY (session_id, player_id) REFERENCES session_players(session_id, player_id) ON DELETE CASCADE
);
`

	const roundsTable = `
CREATE TABLE IF NOT EXISTS rounds (
    id           BIGSERIAL PRIMARY KEY,
    session_id   BIGINT NOT NULL REFERENCES game_sessions(id) ON DELETE CASCADE,
    round_number INT NOT NULL CHECK (round_number >= 1),
    created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
    UNIQUE (session_id, round_number)
);
`

	const roundScoresTable = `
CREATE TABLE IF NOT EXISTS round_scores (
    round_id  BIGINT NOT NULL REFERENCES rounds(id) ON DELETE CASCADE,
    player_id BIGINT NOT NULL REFERENCES player_profiles(id) ON DELETE RESTRICT,
    score     BIGINT NOT NULL,
    PRIMARY KEY (round_id, player_id)
);
`

	// One row per player whose phase a round has advanced. Rows are never
	// removed by edits.
	const roundCompletionsTable = `
CREATE TABLE IF NOT EXISTS round_completions (
    round_id  BIGINT NOT NULL REFERENCES rounds(id) ON DELETE CASCADE,
    player_id BIGINT NOT NULL REFERENCES player_profiles(id) ON DELETE RESTRICT,
    PRIMARY KEY (round_id, player_id)
);
`

	const finalScoresTable = `
CREATE TABLE IF NOT EXISTS final_scores (
    session_id BIGINT NOT NULL REFERENCES game_sessions(id) ON DELETE CASCADE,
    player_id  BIGINT NOT NULL REFERENCES player_profiles(id) ON DELETE RESTRICT,
    position   INT NOT NULL,
    total      BIGINT NOT NULL,
    is_winner  BOOLEAN NOT NULL DEFAULT FALSE,
    PRIMARY KEY (session_id, player_id)
);
`

	for _, stmt := range []string{
		profilesTable,
		sessionsTable,
		sessionsOwnerIndex,
		sessionPlayersTable,
		phaseProgressTable,
		roundsTable,
		roundScoresTable,
		roundCompletionsTable,
		finalScoresTable,
	} {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return err
		}
	}

	log.Println("scorecard-api migrations applied")
	return nil
}
