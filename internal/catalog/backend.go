package catalog

import "fmt"

// ScoringMethod mirrors the store's scoring method column.
type ScoringMethod string

const (
	RoundBased ScoringMethod = "roundBased"
	EndOfGame  ScoringMethod = "endOfGame"
)

// BackendKind is the game kind as the session store knows it. The store has
// no dedicated kind for Spirits of the Wild.
type BackendKind string

const (
	KindSkyjo       BackendKind = "skyjo"
	KindMilleBornes BackendKind = "milleBornes"
	KindNerts       BackendKind = "nerts"
	KindFlip7       BackendKind = "flip7"
	KindPhase10     BackendKind = "phase10"
	KindGenericGame BackendKind = "genericGame"
)

// BackendGameType is the persisted shape of a session's game type.
type BackendGameType struct {
	Kind             BackendKind   `json:"kind"`
	RulesSummary     string        `json:"rulesSummary"`
	GameEndCondition string        `json:"gameEndCondition"`
	ScoringMethod    ScoringMethod `json:"scoringMethod"`
	ScoringDetails   string        `json:"scoringDetails,omitempty"`
	WinTarget        *int64        `json:"winTarget,omitempty"`   // nerts, phase10
	TargetScore      *int64        `json:"targetScore,omitempty"` // flip7
}

// Targets holds the per-session thresholds. Zero disables automatic end.
type Targets struct {
	NertsWinTarget   int64 `json:"nertsWinTarget,omitempty"`
	Flip7TargetScore int64 `json:"flip7TargetScore,omitempty"`
	Phase10WinTarget int64 `json:"phase10WinTarget,omitempty"`
}

// Default target values offered when a session is created without one.
const (
	DefaultNertsWinTarget   int64 = 200
	DefaultFlip7TargetScore int64 = 100
	DefaultPhase10WinTarget int64 = 0

	MinNertsWinTarget   int64 = 200
	MinFlip7TargetScore int64 = 50
)

const (
	nertsScoringDetails   = "+1 per card moved to the center stack. -2 per card remaining in player's tableau. Round-based scoring."
	phase10ScoringDetails = "+5 for cards 1-9, +10 for cards 10-12, +15 for skip and reverse, +25 for wild cards. Round-based scoring."
)

// ToBackend encodes a game type and its targets for the session store.
//
// SpiritsOwl is written as a genericGame record carrying the Owl template's
// exact rule text; FromBackend recognises it by that text. Editing either
// template's RulesSummary or GameEndCondition breaks reading back sessions
// stored before the edit.
func ToBackend(id GameType, targets Targets) (BackendGameType, error) {
	t, err := TemplateFor(id)
	if err != nil {
		return BackendGameType{}, err
	}

	b := BackendGameType{
		RulesSummary:     t.RulesSummary,
		GameEndCondition: t.GameEndCondition,
		ScoringMethod:    RoundBased,
	}

	switch id {
	case Skyjo:
		b.Kind = KindSkyjo
	case MilleBornes:
		b.Kind = KindMilleBornes
		b.ScoringMethod = EndOfGame
	case Nerts:
		b.Kind = KindNerts
		b.ScoringDetails = nertsScoringDetails
		b.WinTarget = int64Ptr(targets.NertsWinTarget)
	case Flip7:
		b.Kind = KindFlip7
		b.TargetScore = int64Ptr(targets.Flip7TargetScore)
	case Phase10:
		b.Kind = KindPhase10
		b.ScoringDetails = phase10ScoringDetails
		b.WinTarget = int64Ptr(targets.Phase10WinTarget)
	case GenericGame, SpiritsOwl:
		b.Kind = KindGenericGame
	default:
		return BackendGameType{}, fmt.Errorf("%w: %q", ErrUnknownGameType, id)
	}

	return b, nil
}

// FromBackend decodes a stored game type. Unrecognised kinds fall back to
// GenericGame.
func FromBackend(b BackendGameType) GameType {
	switch b.Kind {
	case KindSkyjo:
		return Skyjo
	case KindMilleBornes:
		return MilleBornes
	case KindNerts:
		return Nerts
	case KindFlip7:
		return Flip7
	case KindPhase10:
		return Phase10
	case KindGenericGame:
		if isSpiritsOwl(b) {
			return SpiritsOwl
		}
		return GenericGame
	default:
		return GenericGame
	}
}

// TargetsFromBackend extracts the thresholds stored alongside a game type.
func TargetsFromBackend(b BackendGameType) Targets {
	var t Targets
	switch b.Kind {
	case KindNerts:
		t.NertsWinTarget = deref(b.WinTarget)
	case KindFlip7:
		t.Flip7TargetScore = deref(b.TargetScore)
	case KindPhase10:
		t.Phase10WinTarget = deref(b.WinTarget)
	}
	return t
}

func isSpiritsOwl(b BackendGameType) bool {
	owl := templates[SpiritsOwl]
	return b.RulesSummary == owl.RulesSummary && b.GameEndCondition == owl.GameEndCondition
}

func int64Ptr(v int64) *int64 { return &v }

func deref(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}
