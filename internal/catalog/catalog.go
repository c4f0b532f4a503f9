package catalog

import (
	"errors"
	"fmt"
)

// GameType identifies a game template.
type GameType string

const (
	Skyjo       GameType = "skyjo"
	MilleBornes GameType = "milleBornes"
	Nerts       GameType = "nerts"
	Flip7       GameType = "flip7"
	Phase10     GameType = "phase10"
	GenericGame GameType = "genericGame"
	SpiritsOwl  GameType = "spiritsOwl"
)

var ErrUnknownGameType = errors.New("unknown game type")

// GameTemplate is the static descriptor of a supported game.
type GameTemplate struct {
	ID               GameType `json:"id"`
	Name             string   `json:"name"`
	Icon             string   `json:"icon"`
	MinPlayers       int      `json:"minPlayers"`
	MaxPlayers       int      `json:"maxPlayers"`
	RulesSummary     string   `json:"rulesSummary"`
	GameEndCondition string   `json:"gameEndCondition"`
}

// order is the display order used by All.
var order = []GameType{Skyjo, MilleBornes, Nerts, Flip7, Phase10, GenericGame, SpiritsOwl}

var templates = map[GameType]GameTemplate{
	Skyjo: {
		ID:         Skyjo,
		Name:       "Skyjo",
		Icon:       "☁️",
		MinPlayers: 2,
		MaxPlayers: 8,
		RulesSummary: "Skyjo is a card game where players aim to have the lowest total score at the end of the game. " +
			"Players take turns flipping cards, trying to minimize their row totals. The game ends when a player's row is fully flipped.",
		GameEndCondition: "The game ends when a player's row is fully flipped, and scores are calculated. " +
			"The player with the lowest total score wins.",
	},
	MilleBornes: {
		ID:         MilleBornes,
		Name:       "Mille Bornes",
		Icon:       "🚗",
		MinPlayers: 2,
		MaxPlayers: 6,
		RulesSummary: "Mille Bornes is a French card game where players attempt to complete a 1000 km journey. " +
			"Players collect mileage cards to reach the goal, while also interrupting opponents with hazard cards.",
		GameEndCondition: "The first player or team to reach 1000 km wins the game. " +
			"Points are awarded based on distance travelled and bonuses for specific achievements.",
	},
	Nerts: {
		ID:         Nerts,
		Name:       "Nerts",
		Icon:       "🃏",
		MinPlayers: 2,
		MaxPlayers: 6,
		RulesSummary: "Nerts is a fast-paced, multi-player card game involving simultaneous solitaire-style play. " +
			"Players race to clear their 'Nerts' pile and aim for the highest score. " +
			"+1 per card played into the center, -2 per card left in a player's tableau.",
		GameEndCondition: "Game ends when a player reaches the set win target points. " +
			"Points are tallied at the end of each round until the target is met.",
	},
	Flip7: {
		ID:         Flip7,
		Name:       "Flip 7",
		Icon:       "🎴",
		MinPlayers: 2,
		MaxPlayers: 6,
		RulesSummary: "Flip 7 is a fun and fast-paced card game similar to Nerts, but with a unique twist. " +
			"Players race to be the first to reach 100 points by strategically flipping cards and playing quickly.",
		GameEndCondition: "Game ends when a player reaches 100 total points.",
	},
	Phase10: {
		ID:         Phase10,
		Name:       "Phase 10",
		Icon:       "🔟",
		MinPlayers: 2,
		MaxPlayers: 6,
		RulesSummary: "Phase 10 is a rummy-type card game where players compete to complete 10 different phases. " +
			"Points are accumulated based on the cards left in hand when a player goes out. " +
			"+5 for cards 1-9, +10 for cards 10-12, +15 for skip and reverse, and +25 for wild cards.",
		GameEndCondition: "The game ends when a player completes all 10 phases. " +
			"The player with the lowest score when the first player completes phase 10 wins.",
	},
	GenericGame: {
		ID:         GenericGame,
		Name:       "Generic Game",
		Icon:       "🎲",
		MinPlayers: 1,
		MaxPlayers: 12,
		RulesSummary: "A generic game allows for unlimited rounds with one numeric score per player per round. " +
			"Totals are automatically computed from entered round scores. Ideal for tracking scores in various games.",
		GameEndCondition: "There is no automatic game end. The game continues until players decide to stop.",
	},
	SpiritsOwl: {
		ID:         SpiritsOwl,
		Name:       "Spirits of the Wild (Owl)",
		Icon:       "🦉",
		MinPlayers: 2,
		MaxPlayers: 5,
		RulesSummary: "Spirits of the Wild is a strategic set collection game. The Owl spirit rewards collecting pairs of stones. " +
			"Each completed pair (both stones collected) scores 3 points. The Spirit Stone doubles your total score for the round.",
		GameEndCondition: "The game continues for multiple rounds. The player with the highest total score at the end wins.",
	},
}

// TemplateFor returns the template registered under id.
func TemplateFor(id GameType) (GameTemplate, error) {
	t, ok := templates[id]
	if !ok {
		return GameTemplate{}, fmt.Errorf("%w: %q", ErrUnknownGameType, id)
	}
	return t, nil
}

// Parse validates a raw game type string.
func Parse(raw string) (GameType, error) {
	id := GameType(raw)
	if _, ok := templates[id]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownGameType, raw)
	}
	return id, nil
}

// All returns every template in display order.
func All() []GameTemplate {
	out := make([]GameTemplate, 0, len(order))
	for _, id := range order {
		out = append(out, templates[id])
	}
	return out
}

// AcceptsPlayers reports whether n players fit the template's bounds.
func (t GameTemplate) AcceptsPlayers(n int) bool {
	return n >= t.MinPlayers && n <= t.MaxPlayers
}
