package scoring

const (
	FirstPhase = 1
	LastPhase  = 10
)

// PhaseOf returns a player's current phase, clamped to 1..10. Players with no
// recorded progress are on phase 1.
func PhaseOf(progress map[string]int, playerID string) int {
	return clampPhase(progress[playerID])
}

// AdvancePhases returns a new progress map in which every seated player
// flagged in completed moves up one phase, stopping at 10. progress is not
// modified.
func AdvancePhases(progress map[string]int, completed map[string]bool, players []string) map[string]int {
	next := make(map[string]int, len(players))
	for _, id := range players {
		phase := PhaseOf(progress, id)
		if completed[id] {
			phase = clampPhase(phase + 1)
		}
		next[id] = phase
	}
	return next
}

// NewlyCompleted lists the players flagged in next but not in prev.
func NewlyCompleted(prev, next map[string]bool) map[string]bool {
	out := make(map[string]bool, len(next))
	for id, done := range next {
		if done && !prev[id] {
			out[id] = true
		}
	}
	return out
}

// CountCompletions splits flags against the players a round has already
// advanced. It returns the players to advance now and the grown record.
// Clearing a flag never shrinks the record, so a player is advanced at most
// once per round however often the flag is toggled.
func CountCompletions(advanced, flags map[string]bool) (newly, counted map[string]bool) {
	newly = NewlyCompleted(advanced, flags)
	counted = make(map[string]bool, len(advanced)+len(newly))
	for id, done := range advanced {
		if done {
			counted[id] = true
		}
	}
	for id := range newly {
		counted[id] = true
	}
	return newly, counted
}

func clampPhase(p int) int {
	if p < FirstPhase {
		return FirstPhase
	}
	if p > LastPhase {
		return LastPhase
	}
	return p
}

// CompletionToggle tracks the phase-completed checkboxes of one form. When
// oneWay is set a checked box can not be cleared again.
type CompletionToggle struct {
	oneWay bool
	flags  map[string]bool
}

// NewCompletionToggle starts a toggle from an existing set of flags.
func NewCompletionToggle(oneWay bool, initial map[string]bool) *CompletionToggle {
	flags := make(map[string]bool, len(initial))
	for id, v := range initial {
		flags[id] = v
	}
	return &CompletionToggle{oneWay: oneWay, flags: flags}
}

// Set changes a flag and returns the value actually held afterwards.
func (c *CompletionToggle) Set(playerID string, checked bool) bool {
	if c.oneWay && c.flags[playerID] && !checked {
		return true
	}
	c.flags[playerID] = checked
	return checked
}

// Flags returns a copy of the current flags.
func (c *CompletionToggle) Flags() map[string]bool {
	out := make(map[string]bool, len(c.flags))
	for id, v := range c.flags {
		out[id] = v
	}
	return out
}

// OneWayCompletion reports whether phase-completed flags are one-way. Only
// the first submission of a round in a durable session is one-way; quick
// sessions and edits of existing rounds toggle freely.
func OneWayCompletion(durable, editing bool) bool {
	return durable && !editing
}

// MergeCompletions applies next on top of prev under the given policy.
func MergeCompletions(prev, next map[string]bool, oneWay bool) map[string]bool {
	toggle := NewCompletionToggle(oneWay, prev)
	for id, v := range next {
		toggle.Set(id, v)
	}
	return toggle.Flags()
}
