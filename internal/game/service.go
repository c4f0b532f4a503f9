package game

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/merev/scorecard-api/internal/catalog"
	"github.com/merev/scorecard-api/internal/entrystate"
	"github.com/merev/scorecard-api/internal/scoring"
)

// Service drives a score sheet: it applies rounds to a session, keeps the
// store and the entry-state cache in step, and decides what may happen next.
type Service struct {
	store   Store
	entries entrystate.Cache
}

func NewService(store Store, entries entrystate.Cache) *Service {
	return &Service{store: store, entries: entries}
}

// -----------------------------------------------------------------------------
// Session creation & loading
// -----------------------------------------------------------------------------

// CreateSession stores a new durable session owned by owner.
func (s *Service) CreateSession(ctx context.Context, owner string, req CreateSessionRequest) (Session, error) {
	gameType, err := catalog.Parse(req.GameType)
	if err != nil {
		return Session{}, err
	}
	tpl, _ := catalog.TemplateFor(gameType)
	if !tpl.AcceptsPlayers(len(req.PlayerIDs)) {
		return Session{}, fmt.Errorf("%w: %s takes %d-%d players, got %d",
			ErrPlayerCount, tpl.Name, tpl.MinPlayers, tpl.MaxPlayers, len(req.PlayerIDs))
	}
	targets, err := resolveTargets(gameType, req.TargetRequest)
	if err != nil {
		return Session{}, err
	}
	backend, err := catalog.ToBackend(gameType, targets)
	if err != nil {
		return Session{}, err
	}

	id, err := s.store.CreateSession(ctx, owner, NewSession{GameType: backend, PlayerIDs: req.PlayerIDs})
	if err != nil {
		return Session{}, err
	}
	return s.store.GetSession(ctx, id)
}

// NewQuickSession builds a transient session with throwaway players. Nothing
// is stored.
func (s *Service) NewQuickSession(req CreateQuickSessionRequest) (Session, error) {
	gameType, err := catalog.Parse(req.GameType)
	if err != nil {
		return Session{}, err
	}
	tpl, _ := catalog.TemplateFor(gameType)
	if !tpl.AcceptsPlayers(len(req.PlayerNames)) {
		return Session{}, fmt.Errorf("%w: %s takes %d-%d players, got %d",
			ErrPlayerCount, tpl.Name, tpl.MinPlayers, tpl.MaxPlayers, len(req.PlayerNames))
	}
	targets, err := resolveTargets(gameType, req.TargetRequest)
	if err != nil {
		return Session{}, err
	}

	players := make([]scoring.Player, 0, len(req.PlayerNames))
	for _, name := range req.PlayerNames {
		p, err := NewQuickPlayer(strings.TrimSpace(name))
		if err != nil {
			return Session{}, err
		}
		players = append(players, p)
	}

	sess := Session{
		Quick:     true,
		GameType:  gameType,
		Players:   players,
		Rounds:    []scoring.Round{},
		Targets:   targets,
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}
	if gameType == catalog.Phase10 {
		sess.PhaseProgress = scoring.AdvancePhases(nil, nil, sess.PlayerIDs())
	}
	return sess, nil
}

// Load fetches a durable session by reference and attaches cached entry
// states to its rounds.
func (s *Service) Load(ctx context.Context, ref string) (Session, error) {
	id, err := parseRef(ref)
	if err != nil {
		return Session{}, err
	}
	sess, err := s.store.GetSession(ctx, id)
	if err != nil {
		return Session{}, err
	}
	for i, r := range sess.Rounds {
		entry, err := entrystate.Lookup(ctx, s.entries, entrystate.RoundKey(sess.Ref(), sess.GameType, r.Number))
		if err != nil {
			if !errors.Is(err, entrystate.ErrNotFound) {
				log.Printf("load entry state for session %s round %d: %v", sess.Ref(), r.Number, err)
			}
			continue
		}
		if entry.GameType() == sess.GameType {
			sess.Rounds[i].Entry = entry
		}
	}

	// A finish that failed after its round was stored is retried here.
	finished, err := s.finishIfEnded(ctx, sess)
	if err != nil {
		log.Printf("finish session %s: %v", sess.Ref(), err)
		return sess, nil
	}
	return finished, nil
}

// DeleteSession abandons one of owner's sessions and drops its cached entry
// states.
func (s *Service) DeleteSession(ctx context.Context, owner, ref string) error {
	id, err := parseRef(ref)
	if err != nil {
		return err
	}
	if err := s.store.DeleteSession(ctx, id, owner); err != nil {
		return err
	}
	ref = strconv.FormatInt(id, 10)
	if err := s.entries.ClearSession(ctx, ref); err != nil {
		log.Printf("clear entry states for session %s: %v", ref, err)
	}
	return nil
}

// List returns owner's durable sessions.
func (s *Service) List(ctx context.Context, owner string) ([]Session, error) {
	return s.store.ListSessions(ctx, owner)
}

// -----------------------------------------------------------------------------
// Score sheet
// -----------------------------------------------------------------------------

// View evaluates a session for one render. caller is the principal looking
// at it, or "" when anonymous.
func (s *Service) View(sess Session, caller string) View {
	tpl, err := catalog.TemplateFor(sess.GameType)
	if err != nil {
		tpl = catalog.GameTemplate{ID: sess.GameType, Name: string(sess.GameType)}
	}
	standings, end := evaluate(sess)

	v := View{
		Session:       sess,
		Template:      tpl,
		Standings:     standings,
		GameEnd:       end,
		NextRound:     sess.NextRound(),
		CanAddRound:   !end.Ended && (sess.Quick || sess.Active),
		CanEditRounds: len(sess.Rounds) > 0,
	}

	if sess.GameType == catalog.Phase10 {
		v.CompletionOneWay = completionOneWay(sess, false)
		v.CompletionEditable = make(map[string]bool, len(sess.Players))
		for _, p := range sess.Players {
			v.CompletionEditable[p.ID] = canToggleCompletion(sess, p, caller)
		}
	}
	return v
}

// canToggleCompletion lets the session owner tick any box and a profile owner
// tick their own. Quick players are open to everyone at the table.
func canToggleCompletion(sess Session, p scoring.Player, caller string) bool {
	if sess.Quick || p.Quick || p.Owner == "" {
		return true
	}
	return caller != "" && (caller == p.Owner || caller == sess.Owner)
}

func evaluate(sess Session) ([]scoring.Standing, scoring.GameEnd) {
	standings := scoring.ComputeStandings(sess.Rounds, sess.Players, sess.GameType, sess.PhaseProgress)
	return standings, scoring.CheckGameEnd(standings, sess.GameType, sess.Targets)
}

// SubmitRound scores entry and appends it as the next round.
//
// Invalid input leaves sess untouched and returns an
// *scoring.InvalidInputError. A store failure returns the locally updated
// session together with a *PersistError.
func (s *Service) SubmitRound(ctx context.Context, sess Session, entry scoring.EntryState) (Session, error) {
	if _, end := evaluate(sess); end.Ended || (!sess.Quick && !sess.Active) {
		return sess, ErrGameOver
	}

	number := sess.NextRound()
	draftKey := entrystate.DraftKey(sess.Ref(), sess.GameType, number)

	var completed map[string]bool
	if p10, ok := entry.(scoring.Phase10Entry); ok && sess.GameType == catalog.Phase10 {
		if !sess.Quick {
			p10.PhaseCompletions = s.mergeDraftCompletions(ctx, draftKey, p10.PhaseCompletions)
			entry = p10
		}
		completed = p10.PhaseCompletions
	}

	scores, err := scoring.ScoreRound(sess.GameType, entry, sess.PlayerIDs())
	if err != nil {
		return sess, err
	}

	round := scoring.Round{Number: number, Scores: scores, Entry: entry}
	next := sess.clone()
	if sess.GameType == catalog.Phase10 {
		completed, round.Advanced = scoring.CountCompletions(nil, completed)
		next.PhaseProgress = scoring.AdvancePhases(sess.PhaseProgress, completed, sess.PlayerIDs())
	}
	next.Rounds = append(next.Rounds, round)

	if sess.Quick {
		return next, nil
	}

	s.cacheEntry(ctx, entrystate.RoundKey(next.Ref(), next.GameType, number), entry)
	if err := s.entries.Delete(ctx, draftKey); err != nil {
		log.Printf("drop draft %s: %v", draftKey, err)
	}

	if sess.GameType == catalog.Phase10 {
		err = s.store.SubmitPhase10Round(ctx, next.ID, number, scores, completed)
	} else {
		err = s.store.AppendRound(ctx, next.ID, number, scores)
	}
	if err != nil {
		return next, &PersistError{Op: "append round", Err: err}
	}

	return s.finishIfEnded(ctx, next)
}

// EditRound replaces the scores and entry state of an existing round. The
// round keeps its number. A Phase 10 edit advances a flagged player only if
// this round has never advanced them before; phases never move back.
func (s *Service) EditRound(ctx context.Context, sess Session, number int, entry scoring.EntryState) (Session, error) {
	idx := sess.roundIndex(number)
	if idx < 0 {
		return sess, fmt.Errorf("%w: %d", ErrRoundNotFound, number)
	}

	scores, err := scoring.ScoreRound(sess.GameType, entry, sess.PlayerIDs())
	if err != nil {
		return sess, err
	}

	var newly map[string]bool
	advanced := sess.Rounds[idx].Advanced
	if p10, ok := entry.(scoring.Phase10Entry); ok {
		newly, advanced = scoring.CountCompletions(advanced, p10.PhaseCompletions)
	}

	next := sess.clone()
	next.Rounds[idx] = scoring.Round{Number: number, Scores: scores, Entry: entry, Advanced: advanced}
	if len(newly) > 0 {
		next.PhaseProgress = scoring.AdvancePhases(sess.PhaseProgress, newly, sess.PlayerIDs())
	}

	if sess.Quick {
		return next, nil
	}

	s.cacheEntry(ctx, entrystate.RoundKey(next.Ref(), next.GameType, number), entry)

	if err := s.store.ReplaceRound(ctx, next.ID, number, scores); err != nil {
		return next, &PersistError{Op: "replace round", Err: err}
	}
	if len(newly) > 0 {
		if err := s.store.AdvancePhases(ctx, next.ID, number, newly); err != nil {
			return next, &PersistError{Op: "advance phases", Err: err}
		}
	}

	return s.finishIfEnded(ctx, next)
}

// ApplyQuickRound appends (number == 0) or replaces a round of a quick
// session.
func (s *Service) ApplyQuickRound(ctx context.Context, sess Session, number int, entry scoring.EntryState) (Session, error) {
	sess.Quick = true
	sess.ID = 0
	if number == 0 {
		return s.SubmitRound(ctx, sess, entry)
	}
	return s.EditRound(ctx, sess, number, entry)
}

// EditForm returns the structured input to pre-fill when round number is
// reopened. A missing snapshot falls back to a default form; cached reports
// which one was used.
func (s *Service) EditForm(ctx context.Context, sess Session, number int) (EntryForm, error) {
	idx := sess.roundIndex(number)
	if idx < 0 {
		return EntryForm{}, fmt.Errorf("%w: %d", ErrRoundNotFound, number)
	}
	round := sess.Rounds[idx]
	form := EntryForm{RoundNumber: number, CompletionOneWay: completionOneWay(sess, true)}

	if round.Entry != nil && round.Entry.GameType() == sess.GameType {
		form.Entry, form.Cached = scoring.Entry{State: round.Entry}, true
		return form, nil
	}
	if !sess.Quick {
		entry, err := entrystate.Lookup(ctx, s.entries, entrystate.RoundKey(sess.Ref(), sess.GameType, number))
		switch {
		case err == nil && entry.GameType() == sess.GameType:
			form.Entry, form.Cached = scoring.Entry{State: entry}, true
			return form, nil
		case err != nil && !errors.Is(err, entrystate.ErrNotFound):
			log.Printf("load entry state for session %s round %d: %v", sess.Ref(), number, err)
		}
	}

	form.Entry = scoring.Entry{State: scoring.DefaultEntryState(sess.GameType, round.Scores, sess.PlayerIDs())}
	return form, nil
}

// -----------------------------------------------------------------------------
// Drafts
// -----------------------------------------------------------------------------

// SaveDraft caches the in-progress form of the next round. Phase 10
// completion flags already saved in the draft can not be cleared.
func (s *Service) SaveDraft(ctx context.Context, sess Session, entry scoring.EntryState) (EntryForm, error) {
	if sess.Quick {
		return EntryForm{}, ErrQuickSession
	}
	if entry == nil || entry.GameType() != sess.GameType {
		return EntryForm{}, scoring.ErrGameTypeMismatch
	}

	number := sess.NextRound()
	key := entrystate.DraftKey(sess.Ref(), sess.GameType, number)
	if p10, ok := entry.(scoring.Phase10Entry); ok {
		p10.PhaseCompletions = s.mergeDraftCompletions(ctx, key, p10.PhaseCompletions)
		entry = p10
	}
	if err := s.entries.Save(ctx, key, entry); err != nil {
		return EntryForm{}, err
	}
	return EntryForm{
		RoundNumber:      number,
		Entry:            scoring.Entry{State: entry},
		Cached:           true,
		CompletionOneWay: completionOneWay(sess, false),
	}, nil
}

// Draft returns the in-progress form of the next round, or an empty one.
func (s *Service) Draft(ctx context.Context, sess Session) (EntryForm, error) {
	if sess.Quick {
		return EntryForm{}, ErrQuickSession
	}
	number := sess.NextRound()
	form := EntryForm{RoundNumber: number, CompletionOneWay: completionOneWay(sess, false)}
	entry, err := s.entries.Load(ctx, entrystate.DraftKey(sess.Ref(), sess.GameType, number))
	if err == nil && entry.GameType() == sess.GameType {
		form.Entry, form.Cached = scoring.Entry{State: entry}, true
		return form, nil
	}
	if err != nil && !errors.Is(err, entrystate.ErrNotFound) {
		log.Printf("load draft for session %s: %v", sess.Ref(), err)
	}
	form.Entry = scoring.Entry{State: scoring.DefaultEntryState(sess.GameType, nil, sess.PlayerIDs())}
	return form, nil
}

func (s *Service) mergeDraftCompletions(ctx context.Context, key entrystate.Key, next map[string]bool) map[string]bool {
	var prev map[string]bool
	draft, err := s.entries.Load(ctx, key)
	switch {
	case err == nil:
		if p10, ok := draft.(scoring.Phase10Entry); ok {
			prev = p10.PhaseCompletions
		}
	case !errors.Is(err, entrystate.ErrNotFound):
		log.Printf("load draft %s: %v", key, err)
	}
	return scoring.MergeCompletions(prev, next, true)
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

func parseRef(ref string) (int64, error) {
	if ref == QuickRef {
		return 0, ErrQuickSession
	}
	id, err := strconv.ParseInt(ref, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrSessionNotFound, ref)
	}
	return id, nil
}

// completionOneWay reports whether the Phase 10 checkboxes of a form on sess
// can only be ticked.
func completionOneWay(sess Session, editing bool) bool {
	return sess.GameType == catalog.Phase10 && scoring.OneWayCompletion(!sess.Quick, editing)
}

func (s *Service) cacheEntry(ctx context.Context, key entrystate.Key, entry scoring.EntryState) {
	if err := s.entries.Save(ctx, key, entry); err != nil {
		log.Printf("cache entry state %s: %v", key, err)
	}
}

func (s *Service) finishIfEnded(ctx context.Context, sess Session) (Session, error) {
	standings, end := evaluate(sess)
	if !end.Ended || !sess.Active {
		return sess, nil
	}
	if err := s.store.FinishSession(ctx, sess.ID, standings, end.Winners); err != nil {
		return sess, &PersistError{Op: "finish session", Err: err}
	}
	sess.Active = false
	return sess, nil
}

// resolveTargets fills in defaults and enforces minimums. Targets of other
// game types are dropped.
func resolveTargets(gameType catalog.GameType, req TargetRequest) (catalog.Targets, error) {
	var t catalog.Targets
	switch gameType {
	case catalog.Nerts:
		t.NertsWinTarget = valueOr(req.NertsWinTarget, catalog.DefaultNertsWinTarget)
		if t.NertsWinTarget < catalog.MinNertsWinTarget {
			return t, fmt.Errorf("%w: nerts target must be at least %d", ErrTarget, catalog.MinNertsWinTarget)
		}
	case catalog.Flip7:
		t.Flip7TargetScore = valueOr(req.Flip7TargetScore, catalog.DefaultFlip7TargetScore)
		if t.Flip7TargetScore < catalog.MinFlip7TargetScore {
			return t, fmt.Errorf("%w: flip 7 target must be at least %d", ErrTarget, catalog.MinFlip7TargetScore)
		}
	case catalog.Phase10:
		t.Phase10WinTarget = valueOr(req.Phase10WinTarget, catalog.DefaultPhase10WinTarget)
		if t.Phase10WinTarget < 0 {
			return t, fmt.Errorf("%w: phase 10 target can not be negative", ErrTarget)
		}
	}
	return t, nil
}

func valueOr(v *int64, def int64) int64 {
	if v == nil {
		return def
	}
	return *v
}
