package scoring

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/merev/scorecard-api/internal/catalog"
)

var ErrGameTypeMismatch = errors.New("entry state does not match game type")

// FieldError describes one rejected input.
type FieldError struct {
	PlayerID string `json:"playerId"`
	Field    string `json:"field"`
	Reason   string `json:"reason"`
}

// InvalidInputError rejects a whole round. No score from the round is
// applied when it is returned.
type InvalidInputError struct {
	Fields []FieldError `json:"fields"`
}

func (e *InvalidInputError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("player %s: %s %s", f.PlayerID, f.Field, f.Reason))
	}
	return "invalid round input: " + strings.Join(parts, "; ")
}

// EntryState is the structured input behind one round's scores. There is one
// implementation per game type.
type EntryState interface {
	GameType() catalog.GameType
	scores(players []string) (map[string]int64, []FieldError)
}

// ScoreRound turns an entry state into one score per player. Either every
// player scores or the round is rejected with an *InvalidInputError.
func ScoreRound(gameType catalog.GameType, state EntryState, players []string) (map[string]int64, error) {
	if state == nil {
		return nil, &InvalidInputError{Fields: []FieldError{{Field: "entryState", Reason: "is required"}}}
	}
	if state.GameType() != gameType {
		return nil, fmt.Errorf("%w: got %s, session is %s", ErrGameTypeMismatch, state.GameType(), gameType)
	}
	scores, fields := state.scores(players)
	if len(fields) > 0 {
		return nil, &InvalidInputError{Fields: fields}
	}
	return scores, nil
}

const (
	reasonRequired    = "is required"
	reasonNonNegative = "must be non-negative"
)

// SkyjoEntry holds one manually entered score per player.
type SkyjoEntry struct {
	PlayerScores map[string]int64 `json:"playerScores"`
}

func (SkyjoEntry) GameType() catalog.GameType { return catalog.Skyjo }

func (e SkyjoEntry) scores(players []string) (map[string]int64, []FieldError) {
	return manualScores(e.PlayerScores, players)
}

// GenericEntry holds one manually entered score per player.
type GenericEntry struct {
	PlayerScores map[string]int64 `json:"playerScores"`
}

func (GenericEntry) GameType() catalog.GameType { return catalog.GenericGame }

func (e GenericEntry) scores(players []string) (map[string]int64, []FieldError) {
	return manualScores(e.PlayerScores, players)
}

// Phase10Entry pairs a manual score with the phase-completed flag. The flag
// does not affect the score.
type Phase10Entry struct {
	PlayerScores     map[string]int64 `json:"playerScores"`
	PhaseCompletions map[string]bool  `json:"phaseCompletions"`
}

func (Phase10Entry) GameType() catalog.GameType { return catalog.Phase10 }

func (e Phase10Entry) scores(players []string) (map[string]int64, []FieldError) {
	return manualScores(e.PlayerScores, players)
}

// NertsEntry holds the two card counts per player.
type NertsEntry struct {
	CenterCards  map[string]int64 `json:"centerCards"`
	TableauCards map[string]int64 `json:"tableauCards"`
}

func (NertsEntry) GameType() catalog.GameType { return catalog.Nerts }

func (e NertsEntry) scores(players []string) (map[string]int64, []FieldError) {
	out := make(map[string]int64, len(players))
	var fields []FieldError
	for _, id := range players {
		center, okC := e.CenterCards[id]
		tableau, okT := e.TableauCards[id]
		valid := true
		if !okC {
			fields = append(fields, FieldError{PlayerID: id, Field: "centerCards", Reason: reasonRequired})
			valid = false
		} else if center < 0 {
			fields = append(fields, FieldError{PlayerID: id, Field: "centerCards", Reason: reasonNonNegative})
			valid = false
		}
		if !okT {
			fields = append(fields, FieldError{PlayerID: id, Field: "tableauCards", Reason: reasonRequired})
			valid = false
		} else if tableau < 0 {
			fields = append(fields, FieldError{PlayerID: id, Field: "tableauCards", Reason: reasonNonNegative})
			valid = false
		}
		if valid {
			out[id] = NertsScore(center, tableau)
		}
	}
	return out, fields
}

// MilleBornesEntry holds the end-of-hand tally per player. Every field is
// optional; missing values count as zero or unchecked.
type MilleBornesEntry struct {
	Distance        map[string]int64 `json:"distance"`
	TripCompleted   map[string]bool  `json:"tripCompleted"`
	DelayedAction   map[string]bool  `json:"delayedAction"`
	SafeTrip        map[string]bool  `json:"safeTrip"`
	Shutout         map[string]bool  `json:"shutout"`
	ExtensionTo1000 map[string]bool  `json:"extensionTo1000"`
	AllSafeties     map[string]bool  `json:"allSafeties"`
	CoupFourre      map[string]int64 `json:"coupFourre"`
	OtherBonuses    map[string]int64 `json:"otherBonuses"`
}

func (MilleBornesEntry) GameType() catalog.GameType { return catalog.MilleBornes }

// Hand extracts one player's tally.
func (e MilleBornesEntry) Hand(playerID string) MilleBornesHand {
	return MilleBornesHand{
		Distance:        e.Distance[playerID],
		TripCompleted:   e.TripCompleted[playerID],
		DelayedAction:   e.DelayedAction[playerID],
		SafeTrip:        e.SafeTrip[playerID],
		Shutout:         e.Shutout[playerID],
		ExtensionTo1000: e.ExtensionTo1000[playerID],
		AllSafeties:     e.AllSafeties[playerID],
		CoupFourre:      e.CoupFourre[playerID],
		OtherBonuses:    e.OtherBonuses[playerID],
	}
}

func (e MilleBornesEntry) scores(players []string) (map[string]int64, []FieldError) {
	out := make(map[string]int64, len(players))
	for _, id := range players {
		out[id] = MilleBornesScore(e.Hand(id), len(players))
	}
	return out, nil
}

// Flip7Entry holds card selections per player. A manual score replaces the
// card tally for that player.
type Flip7Entry struct {
	SelectedCards map[string][]int  `json:"selectedCards"`
	Modifiers     map[string][]int  `json:"modifiers"`
	Multipliers   map[string]bool   `json:"multipliers"`
	ManualScores  map[string]*int64 `json:"manualScores"`
}

func (Flip7Entry) GameType() catalog.GameType { return catalog.Flip7 }

// Hand extracts one player's selection.
func (e Flip7Entry) Hand(playerID string) Flip7Hand {
	return Flip7Hand{
		Cards:     e.SelectedCards[playerID],
		Modifiers: e.Modifiers[playerID],
		Manual:    e.ManualScores[playerID],
		Doubled:   e.Multipliers[playerID],
	}
}

func (e Flip7Entry) scores(players []string) (map[string]int64, []FieldError) {
	out := make(map[string]int64, len(players))
	var fields []FieldError
	for _, id := range players {
		score, err := Flip7Score(e.Hand(id))
		if err != nil {
			fields = append(fields, FieldError{PlayerID: id, Field: "selectedCards", Reason: err.Error()})
			continue
		}
		out[id] = score
	}
	return out, fields
}

// SpiritsOwlEntry holds the Owl board checkboxes per player.
type SpiritsOwlEntry struct {
	Pair1       map[string][2]bool `json:"pair1"`
	Pair2       map[string][2]bool `json:"pair2"`
	Pair3       map[string][2]bool `json:"pair3"`
	SpiritStone map[string]bool    `json:"spiritStone"`
}

func (SpiritsOwlEntry) GameType() catalog.GameType { return catalog.SpiritsOwl }

func (e SpiritsOwlEntry) scores(players []string) (map[string]int64, []FieldError) {
	out := make(map[string]int64, len(players))
	for _, id := range players {
		out[id] = OwlScore(e.Pair1[id], e.Pair2[id], e.Pair3[id], e.SpiritStone[id])
	}
	return out, nil
}

func manualScores(entered map[string]int64, players []string) (map[string]int64, []FieldError) {
	out := make(map[string]int64, len(players))
	var fields []FieldError
	for _, id := range players {
		v, ok := entered[id]
		if !ok {
			fields = append(fields, FieldError{PlayerID: id, Field: "playerScores", Reason: reasonRequired})
			continue
		}
		out[id] = v
	}
	return out, fields
}

// DefaultEntryState builds the edit form for a round whose snapshot is gone.
// Manual-score games are pre-filled from the stored integers and Flip 7 uses
// them as manual overrides; the others start empty.
func DefaultEntryState(gameType catalog.GameType, scores map[string]int64, players []string) EntryState {
	switch gameType {
	case catalog.Skyjo:
		return SkyjoEntry{PlayerScores: copyScores(scores, players)}
	case catalog.GenericGame:
		return GenericEntry{PlayerScores: copyScores(scores, players)}
	case catalog.Phase10:
		completions := make(map[string]bool, len(players))
		for _, id := range players {
			completions[id] = false
		}
		return Phase10Entry{PlayerScores: copyScores(scores, players), PhaseCompletions: completions}
	case catalog.Flip7:
		manual := make(map[string]*int64, len(players))
		for _, id := range players {
			if v, ok := scores[id]; ok {
				manual[id] = &v
			}
		}
		return Flip7Entry{ManualScores: manual}
	case catalog.Nerts:
		return NertsEntry{CenterCards: map[string]int64{}, TableauCards: map[string]int64{}}
	case catalog.MilleBornes:
		return MilleBornesEntry{}
	case catalog.SpiritsOwl:
		return SpiritsOwlEntry{}
	default:
		return nil
	}
}

func copyScores(scores map[string]int64, players []string) map[string]int64 {
	out := make(map[string]int64, len(players))
	for _, id := range players {
		if v, ok := scores[id]; ok {
			out[id] = v
		}
	}
	return out
}

// Entry is the wire form of an EntryState: {"type": ..., "state": {...}}.
type Entry struct {
	State EntryState
}

type entryEnvelope struct {
	Type  catalog.GameType `json:"type"`
	State json.RawMessage  `json:"state"`
}

func (e Entry) MarshalJSON() ([]byte, error) {
	if e.State == nil {
		return []byte("null"), nil
	}
	state, err := json.Marshal(e.State)
	if err != nil {
		return nil, err
	}
	return json.Marshal(entryEnvelope{Type: e.State.GameType(), State: state})
}

func (e *Entry) UnmarshalJSON(data []byte) error {
	var env entryEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	if env.Type == "" && len(env.State) == 0 {
		e.State = nil
		return nil
	}
	state, err := decodeState(env.Type, env.State)
	if err != nil {
		return err
	}
	e.State = state
	return nil
}

func decodeState(gameType catalog.GameType, raw json.RawMessage) (EntryState, error) {
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}
	switch gameType {
	case catalog.Skyjo:
		var s SkyjoEntry
		err := json.Unmarshal(raw, &s)
		return s, err
	case catalog.GenericGame:
		var s GenericEntry
		err := json.Unmarshal(raw, &s)
		return s, err
	case catalog.Phase10:
		var s Phase10Entry
		err := json.Unmarshal(raw, &s)
		return s, err
	case catalog.Nerts:
		var s NertsEntry
		err := json.Unmarshal(raw, &s)
		return s, err
	case catalog.MilleBornes:
		var s MilleBornesEntry
		err := json.Unmarshal(raw, &s)
		return s, err
	case catalog.Flip7:
		var s Flip7Entry
		err := json.Unmarshal(raw, &s)
		return s, err
	case catalog.SpiritsOwl:
		var s SpiritsOwlEntry
		err := json.Unmarshal(raw, &s)
		return s, err
	default:
		return nil, fmt.Errorf("%w: %q", catalog.ErrUnknownGameType, gameType)
	}
}

// MarshalEntryState encodes a snapshot for caching.
func MarshalEntryState(s EntryState) ([]byte, error) {
	return json.Marshal(Entry{State: s})
}

// UnmarshalEntryState decodes a cached snapshot.
func UnmarshalEntryState(data []byte) (EntryState, error) {
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return e.State, nil
}
