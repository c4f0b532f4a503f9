package scoring

import "github.com/merev/scorecard-api/internal/catalog"

// GameEnd is the evaluator's verdict. Winners holds every player tied at the
// leading total.
type GameEnd struct {
	Ended   bool       `json:"ended"`
	Winners []Standing `json:"winners"`
}

// CheckGameEnd decides whether the game is over. standings must already be
// ordered by ComputeStandings: the leader is standings[0].
//
// Skyjo, Mille Bornes, generic games and Spirits of the Wild never end on
// their own.
func CheckGameEnd(standings []Standing, gameType catalog.GameType, targets catalog.Targets) GameEnd {
	var target int64
	switch gameType {
	case catalog.Nerts:
		target = targets.NertsWinTarget
	case catalog.Flip7:
		target = targets.Flip7TargetScore
	case catalog.Phase10:
		target = targets.Phase10WinTarget
	default:
		return GameEnd{Winners: []Standing{}}
	}

	if target <= 0 || len(standings) == 0 {
		return GameEnd{Winners: []Standing{}}
	}

	leading := standings[0].Total
	if leading < target {
		return GameEnd{Winners: []Standing{}}
	}

	winners := make([]Standing, 0, 1)
	for _, s := range standings {
		if s.Total == leading {
			winners = append(winners, s)
		}
	}
	return GameEnd{Ended: true, Winners: winners}
}
