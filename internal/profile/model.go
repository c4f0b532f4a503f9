package profile

import (
	"errors"
	"fmt"
	"time"
)

var ErrProfileNotFound = errors.New("profile not found")

// Profile is a durable player identity. The aggregates are written when a
// session the player took part in finishes.
type Profile struct {
	ID           int64     `json:"id"`
	Owner        string    `json:"owner"`
	Name         string    `json:"name"`
	GamesPlayed  int64     `json:"gamesPlayed"`
	Wins         int64     `json:"wins"`
	TotalScore   int64     `json:"totalScore"`
	AverageScore int64     `json:"averageScore"`
	CreatedAt    time.Time `json:"createdAt"`
}

// CreateProfileRequest is the body we expect on POST /api/profiles.
type CreateProfileRequest struct {
	Name string `json:"name" validate:"required,max=64"`
}

// Sort selects the order of a profile listing.
type Sort string

const (
	SortByName        Sort = "name"
	SortByGamesPlayed Sort = "gamesPlayed"
)

// ParseSort accepts "" as SortByName.
func ParseSort(raw string) (Sort, error) {
	switch Sort(raw) {
	case "", SortByName:
		return SortByName, nil
	case SortByGamesPlayed:
		return SortByGamesPlayed, nil
	default:
		return "", fmt.Errorf("unknown sort %q", raw)
	}
}
