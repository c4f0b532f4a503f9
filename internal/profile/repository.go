package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const profileColumns = `id, owner, name, games_played, wins, total_score, average_score, created_at`

// Create inserts a profile owned by owner.
func (r *Repository) Create(ctx context.Context, owner, name string) (Profile, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Profile{}, errors.New("name is required")
	}

	row := r.db.QueryRow(ctx, `
INSERT INTO player_profiles (owner, name)
VALUES ($1, $2)
RETURNING `+profileColumns+`;
`, owner, name)
	return scanProfile(row)
}

// List returns every profile in the requested order.
func (r *Repository) List(ctx context.Context, sort Sort) ([]Profile, error) {
	order := "name ASC, id ASC"
	if sort == SortByGamesPlayed {
		order = "games_played DESC, name ASC, id ASC"
	}

	rows, err := r.db.Query(ctx, `
SELECT `+profileColumns+`
FROM player_profiles
ORDER BY `+order+`;
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	profiles := make([]Profile, 0)
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return profiles, nil
}

// Get loads one profile.
func (r *Repository) Get(ctx context.Context, id int64) (Profile, error) {
	row := r.db.QueryRow(ctx, `
SELECT `+profileColumns+`
FROM player_profiles
WHERE id = $1;
`, id)
	p, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Profile{}, fmt.Errorf("%w: %d", ErrProfileNotFound, id)
		}
		return Profile{}, err
	}
	return p, nil
}

func scanProfile(row pgx.Row) (Profile, error) {
	var p Profile
	err := row.Scan(
		&p.ID,
		&p.Owner,
		&p.Name,
		&p.GamesPlayed,
		&p.Wins,
		&p.TotalScore,
		&p.AverageScore,
		&p.CreatedAt,
	)
	return p, err
}
