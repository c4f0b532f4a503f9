package scoring

import (
	"sort"

	"github.com/merev/scorecard-api/internal/catalog"
)

// Standing is a player's running total. Phase is only set for Phase 10.
type Standing struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
	Total      int64  `json:"total"`
	Phase      int    `json:"phase,omitempty"`
}

// Order is how a game ranks totals.
type Order int

const (
	LowestWins Order = iota
	HighestWins
	PhaseThenLowest
)

// OrderFor returns the ranking rule of a game type.
func OrderFor(gameType catalog.GameType) Order {
	switch gameType {
	case catalog.MilleBornes, catalog.Nerts, catalog.Flip7, catalog.SpiritsOwl:
		return HighestWins
	case catalog.Phase10:
		return PhaseThenLowest
	default:
		return LowestWins
	}
}

// ComputeStandings totals every round per player and orders the result for
// gameType. Scores for ids that are not seated are ignored; a seated player
// missing from a round scores 0 for it. phases is only read for Phase 10.
func ComputeStandings(rounds []Round, players []Player, gameType catalog.GameType, phases map[string]int) []Standing {
	totals := make(map[string]int64, len(players))
	for _, r := range rounds {
		for id, score := range r.Scores {
			totals[id] += score
		}
	}

	order := OrderFor(gameType)
	standings := make([]Standing, len(players))
	for i, p := range players {
		standings[i] = Standing{
			PlayerID:   p.ID,
			PlayerName: p.Name,
			Total:      totals[p.ID],
		}
		if order == PhaseThenLowest {
			standings[i].Phase = PhaseOf(phases, p.ID)
		}
	}

	switch order {
	case HighestWins:
		sort.SliceStable(standings, func(i, j int) bool {
			return standings[i].Total > standings[j].Total
		})
	case PhaseThenLowest:
		sort.SliceStable(standings, func(i, j int) bool {
			a, b := standings[i], standings[j]
			if a.Phase != b.Phase {
				return a.Phase > b.Phase
			}
			if a.Total != b.Total {
				return a.Total < b.Total
			}
			return a.PlayerID < b.PlayerID
		})
	default:
		sort.SliceStable(standings, func(i, j int) bool {
			return standings[i].Total < standings[j].Total
		})
	}

	return standings
}
