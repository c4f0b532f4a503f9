package entrystate

import (
	"fmt"

	"github.com/merev/scorecard-api/internal/catalog"
)

// Key names.
const (
	// roundPrefix holds snapshots of submitted rounds:
	// round-entry-{session}-{gameType}-{roundNumber}
	roundPrefix = "round-entry"

	// draftPrefix holds the in-progress form for the next round:
	// round-draft-{session}-{gameType}-{roundNumber}
	draftPrefix = "round-draft"
)

// Key addresses one cached entry state. Session is the decimal session id or
// "quick".
type Key struct {
	Session  string
	GameType catalog.GameType
	Round    int
	Draft    bool
}

// RoundKey addresses the snapshot of a submitted round.
func RoundKey(session string, gameType catalog.GameType, round int) Key {
	return Key{Session: session, GameType: gameType, Round: round}
}

// DraftKey addresses the pending form of a not yet submitted round.
func DraftKey(session string, gameType catalog.GameType, round int) Key {
	return Key{Session: session, GameType: gameType, Round: round, Draft: true}
}

func (k Key) String() string {
	prefix := roundPrefix
	if k.Draft {
		prefix = draftPrefix
	}
	return fmt.Sprintf("%s-%s-%s-%d", prefix, k.Session, k.GameType, k.Round)
}

func sessionPrefixes(session string) []string {
	return []string{
		fmt.Sprintf("%s-%s-", roundPrefix, session),
		fmt.Sprintf("%s-%s-", draftPrefix, session),
	}
}
