package scoring

import (
	"encoding/json"
	"strconv"
)

// Player is a seated player. Durable players carry their profile id in
// decimal form; quick players carry a session-local id.
type Player struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Quick bool   `json:"isQuick"`
	Owner string `json:"ownerPrincipal,omitempty"`
}

// ProfileID canonicalizes a store identifier into a player id.
func ProfileID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// ParseProfileID is the inverse of ProfileID.
func ParseProfileID(id string) (int64, error) {
	return strconv.ParseInt(id, 10, 64)
}

// Round is one scoring event. Entry is the cached structured input and may
// be nil. Advanced holds the Phase 10 players whose phase this round has
// already moved; it only grows, whatever later edits do to Entry.
type Round struct {
	Number   int              `json:"roundNumber"`
	Scores   map[string]int64 `json:"scores"`
	Entry    EntryState       `json:"-"`
	Advanced map[string]bool  `json:"-"`
}

type roundJSON struct {
	Number   int              `json:"roundNumber"`
	Scores   map[string]int64 `json:"scores"`
	Entry    *Entry           `json:"entryState,omitempty"`
	Advanced map[string]bool  `json:"phaseAdvanced,omitempty"`
}

func (r Round) MarshalJSON() ([]byte, error) {
	out := roundJSON{Number: r.Number, Scores: r.Scores, Advanced: r.Advanced}
	if r.Entry != nil {
		out.Entry = &Entry{State: r.Entry}
	}
	return json.Marshal(out)
}

func (r *Round) UnmarshalJSON(data []byte) error {
	var in roundJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	r.Number = in.Number
	r.Scores = in.Scores
	r.Advanced = in.Advanced
	r.Entry = nil
	if in.Entry != nil {
		r.Entry = in.Entry.State
	}
	return nil
}

// PlayerIDs lists the ids of players in seat order.
func PlayerIDs(players []Player) []string {
	ids := make([]string, len(players))
	for i, p := range players {
		ids[i] = p.ID
	}
	return ids
}
