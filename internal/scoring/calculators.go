package scoring

import (
	"errors"
	"fmt"
)

// NertsScore is +1 per card played to the center and -2 per card left in
// the tableau.
func NertsScore(centerCards, tableauCards int64) int64 {
	return centerCards - 2*tableauCards
}

// Mille Bornes bonuses.
const (
	TripBonus          int64 = 300
	TripTargetBonus    int64 = 400
	DelayedActionBonus int64 = 300
	SafeTripBonus      int64 = 300
	ShutoutBonus       int64 = 500
	ExtensionBonus     int64 = 200
	AllSafetiesBonus   int64 = 700
	CoupFourreBonus    int64 = 300
)

const twoPlayers = 2

// MilleBornesHand is one player's end-of-hand tally.
type MilleBornesHand struct {
	Distance        int64
	TripCompleted   bool
	DelayedAction   bool
	SafeTrip        bool
	Shutout         bool
	ExtensionTo1000 bool
	AllSafeties     bool
	CoupFourre      int64
	OtherBonuses    int64
}

// MilleBornesTripTarget is 700 km for two players and 1000 km otherwise.
func MilleBornesTripTarget(playerCount int) int64 {
	if playerCount == twoPlayers {
		return 700
	}
	return 1000
}

// MilleBornesScore totals distance and bonuses. Negative counts are treated
// as zero.
func MilleBornesScore(h MilleBornesHand, playerCount int) int64 {
	distance := nonNegative(h.Distance)
	score := distance

	if h.TripCompleted {
		if distance >= MilleBornesTripTarget(playerCount) {
			score += TripTargetBonus
		} else {
			score += TripBonus
		}
	}
	if h.DelayedAction {
		score += DelayedActionBonus
	}
	if h.SafeTrip {
		score += SafeTripBonus
	}
	if h.Shutout {
		score += ShutoutBonus
	}
	if h.ExtensionTo1000 && playerCount == twoPlayers {
		score += ExtensionBonus
	}
	if h.AllSafeties {
		score += AllSafetiesBonus
	}
	score += nonNegative(h.CoupFourre) * CoupFourreBonus
	score += nonNegative(h.OtherBonuses)

	return score
}

// Flip 7 card set.
const (
	Flip7MinCard    = 0
	Flip7MaxCard    = 12
	Flip7CardsToWin = 7
)

// Flip7Bonus is awarded for seven number cards.
const Flip7Bonus int64 = 15

var flip7Modifiers = map[int]bool{4: true, 10: true}

var (
	errDuplicateCard = errors.New("card selected more than once")
	errCardRange     = errors.New("card value out of range")
	errModifier      = errors.New("unknown modifier card")
)

// Flip7Hand is one player's selection for a round.
type Flip7Hand struct {
	Cards     []int
	Modifiers []int
	Manual    *int64
	Doubled   bool
}

// Flip7Achieved reports whether the hand holds seven number cards.
func Flip7Achieved(cards []int) bool {
	return len(cards) == Flip7CardsToWin
}

// Flip7BaseScore sums number cards and modifiers, plus the Flip 7 bonus.
func Flip7BaseScore(cards, modifiers []int) (int64, error) {
	seen := make(map[int]bool, len(cards))
	var base int64
	for _, c := range cards {
		if c < Flip7MinCard || c > Flip7MaxCard {
			return 0, fmt.Errorf("%w: %d", errCardRange, c)
		}
		if seen[c] {
			return 0, fmt.Errorf("%w: %d", errDuplicateCard, c)
		}
		seen[c] = true
		base += int64(c)
	}

	seenMod := make(map[int]bool, len(modifiers))
	for _, m := range modifiers {
		if !flip7Modifiers[m] {
			return 0, fmt.Errorf("%w: +%d", errModifier, m)
		}
		if seenMod[m] {
			return 0, fmt.Errorf("%w: +%d", errDuplicateCard, m)
		}
		seenMod[m] = true
		base += int64(m)
	}

	if Flip7Achieved(cards) {
		base += Flip7Bonus
	}
	return base, nil
}

// Flip7Score applies the manual override, if any, then the x2 toggle. The
// override replaces the card tally, it is never added to it.
func Flip7Score(h Flip7Hand) (int64, error) {
	var base int64
	if h.Manual != nil {
		base = *h.Manual
	} else {
		b, err := Flip7BaseScore(h.Cards, h.Modifiers)
		if err != nil {
			return 0, err
		}
		base = b
	}
	if h.Doubled {
		return base * 2, nil
	}
	return base, nil
}

// Spirits of the Wild, Owl board.
const OwlPointsPerPair int64 = 3

// OwlScore scores 3 points per pair with both stones, doubled by the spirit
// stone.
func OwlScore(pair1, pair2, pair3 [2]bool, spiritStone bool) int64 {
	var completed int64
	for _, p := range [3][2]bool{pair1, pair2, pair3} {
		if p[0] && p[1] {
			completed++
		}
	}
	score := completed * OwlPointsPerPair
	if spiritStone {
		score *= 2
	}
	return score
}

func nonNegative(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}
