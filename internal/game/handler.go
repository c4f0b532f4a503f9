package game

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/merev/scorecard-api/internal/auth"
	"github.com/merev/scorecard-api/internal/catalog"
	"github.com/merev/scorecard-api/internal/scoring"
)

type Handler struct {
	svc      *Service
	validate *validator.Validate
	timeout  time.Duration
}

func NewHandler(svc *Service, timeout time.Duration) *Handler {
	return &Handler{svc: svc, validate: validator.New(), timeout: timeout}
}

// GET /api/games
func (h *Handler) ListGames(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, catalog.All())
}

// GET /api/games/{gameType}
func (h *Handler) GetGame(w http.ResponseWriter, r *http.Request) {
	tpl, err := catalog.TemplateFor(catalog.GameType(chi.URLParam(r, "gameType")))
	if err != nil {
		respondWithError(w, http.StatusNotFound, "unknown game type", err)
		return
	}
	writeJSON(w, http.StatusOK, tpl)
}

// POST /api/sessions
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	owner, _ := auth.OwnerFrom(ctx)

	var req CreateSessionRequest
	if !h.decode(w, r, &req) {
		return
	}

	sess, err := h.svc.CreateSession(ctx, owner, req)
	if err != nil {
		h.fail(w, "failed to create session", err)
		return
	}

	writeJSON(w, http.StatusCreated, h.svc.View(sess, owner))
}

// GET /api/sessions
func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	owner, _ := auth.OwnerFrom(ctx)
	sessions, err := h.svc.List(ctx, owner)
	if err != nil {
		h.fail(w, "failed to list sessions", err)
		return
	}

	writeJSON(w, http.StatusOK, sessions)
}

// GET /api/sessions/{id}
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	owner, _ := auth.OwnerFrom(ctx)
	sess, err := h.svc.Load(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "failed to load session", err)
		return
	}

	writeJSON(w, http.StatusOK, h.svc.View(sess, owner))
}

// DELETE /api/sessions/{id}
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	owner, _ := auth.OwnerFrom(ctx)
	if err := h.svc.DeleteSession(ctx, owner, chi.URLParam(r, "id")); err != nil {
		h.fail(w, "failed to delete session", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// POST /api/sessions/{id}/rounds
func (h *Handler) SubmitRound(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	owner, sess, ok := h.loadSession(ctx, w, r)
	if !ok {
		return
	}

	var req RoundRequest
	if !h.decode(w, r, &req) {
		return
	}

	next, err := h.svc.SubmitRound(ctx, sess, req.Entry.State)
	if err != nil {
		h.failWithView(w, "failed to submit round", err, next, owner)
		return
	}

	writeJSON(w, http.StatusCreated, h.svc.View(next, owner))
}

// PUT /api/sessions/{id}/rounds/{round}
func (h *Handler) EditRound(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	number, ok := roundParam(w, r)
	if !ok {
		return
	}
	owner, sess, ok := h.loadSession(ctx, w, r)
	if !ok {
		return
	}

	var req RoundRequest
	if !h.decode(w, r, &req) {
		return
	}

	next, err := h.svc.EditRound(ctx, sess, number, req.Entry.State)
	if err != nil {
		h.failWithView(w, "failed to edit round", err, next, owner)
		return
	}

	writeJSON(w, http.StatusOK, h.svc.View(next, owner))
}

// GET /api/sessions/{id}/rounds/{round}/entry
func (h *Handler) GetEditForm(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	number, ok := roundParam(w, r)
	if !ok {
		return
	}
	sess, err := h.svc.Load(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "failed to load session", err)
		return
	}

	form, err := h.svc.EditForm(ctx, sess, number)
	if err != nil {
		h.fail(w, "failed to load round entry", err)
		return
	}

	writeJSON(w, http.StatusOK, form)
}

// GET /api/sessions/{id}/draft
func (h *Handler) GetDraft(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	_, sess, ok := h.loadSession(ctx, w, r)
	if !ok {
		return
	}

	form, err := h.svc.Draft(ctx, sess)
	if err != nil {
		h.fail(w, "failed to load draft", err)
		return
	}

	writeJSON(w, http.StatusOK, form)
}

// PUT /api/sessions/{id}/draft
func (h *Handler) SaveDraft(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	_, sess, ok := h.loadSession(ctx, w, r)
	if !ok {
		return
	}

	var req RoundRequest
	if !h.decode(w, r, &req) {
		return
	}

	form, err := h.svc.SaveDraft(ctx, sess, req.Entry.State)
	if err != nil {
		h.fail(w, "failed to save draft", err)
		return
	}

	writeJSON(w, http.StatusOK, form)
}

// -----------------------------------------------------------------------------
// Quick sessions
// -----------------------------------------------------------------------------

// POST /api/quick/sessions
func (h *Handler) CreateQuickSession(w http.ResponseWriter, r *http.Request) {
	var req CreateQuickSessionRequest
	if !h.decode(w, r, &req) {
		return
	}

	sess, err := h.svc.NewQuickSession(req)
	if err != nil {
		h.fail(w, "failed to create quick session", err)
		return
	}

	owner, _ := auth.OwnerFrom(r.Context())
	writeJSON(w, http.StatusCreated, h.svc.View(sess, owner))
}

// POST /api/quick/view
func (h *Handler) ViewQuickSession(w http.ResponseWriter, r *http.Request) {
	var req QuickViewRequest
	if !h.decode(w, r, &req) {
		return
	}
	req.Session.Quick = true
	req.Session.ID = 0

	owner, _ := auth.OwnerFrom(r.Context())
	writeJSON(w, http.StatusOK, h.svc.View(req.Session, owner))
}

// POST /api/quick/rounds
func (h *Handler) ApplyQuickRound(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req QuickRoundRequest
	if !h.decode(w, r, &req) {
		return
	}

	next, err := h.svc.ApplyQuickRound(ctx, req.Session, req.RoundNumber, req.Entry.State)
	if err != nil {
		h.fail(w, "failed to apply round", err)
		return
	}

	owner, _ := auth.OwnerFrom(ctx)
	writeJSON(w, http.StatusOK, h.svc.View(next, owner))
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

// decode reads and validates a JSON body, answering 400 on failure.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid JSON body", err)
		return false
	}
	if err := h.validate.Struct(v); err != nil {
		var invalid *validator.InvalidValidationError
		if !errors.As(err, &invalid) {
			respondWithError(w, http.StatusBadRequest, "invalid request: "+err.Error(), nil)
			return false
		}
	}
	return true
}

func (h *Handler) loadSession(ctx context.Context, w http.ResponseWriter, r *http.Request) (string, Session, bool) {
	owner, _ := auth.OwnerFrom(ctx)
	sess, err := h.svc.Load(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "failed to load session", err)
		return owner, Session{}, false
	}
	return owner, sess, true
}

func roundParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	number, err := strconv.Atoi(chi.URLParam(r, "round"))
	if err != nil || number < 1 {
		respondWithError(w, http.StatusBadRequest, "invalid round number", err)
		return 0, false
	}
	return number, true
}

type invalidInputResponse struct {
	Error  string               `json:"error"`
	Fields []scoring.FieldError `json:"fields"`
}

type persistFailureResponse struct {
	Error string `json:"error"`
	View  View   `json:"view"`
}

func (h *Handler) fail(w http.ResponseWriter, msg string, err error) {
	var invalid *scoring.InvalidInputError
	if errors.As(err, &invalid) {
		writeJSON(w, http.StatusBadRequest, invalidInputResponse{Error: invalid.Error(), Fields: invalid.Fields})
		return
	}
	status := statusFor(err)
	text := msg + ": " + err.Error()
	if status < http.StatusInternalServerError {
		err = nil
	}
	respondWithError(w, status, text, err)
}

// failWithView answers a persistence failure with the locally updated
// session so the client keeps what it entered.
func (h *Handler) failWithView(w http.ResponseWriter, msg string, err error, sess Session, owner string) {
	var persist *PersistError
	if errors.As(err, &persist) {
		log.Printf("%s: %v", msg, err)
		writeJSON(w, http.StatusBadGateway, persistFailureResponse{
			Error: msg + ": " + err.Error(),
			View:  h.svc.View(sess, owner),
		})
		return
	}
	h.fail(w, msg, err)
}

func statusFor(err error) int {
	var persist *PersistError
	switch {
	case errors.As(err, &persist):
		return http.StatusBadGateway
	case errors.Is(err, ErrSessionNotFound), errors.Is(err, ErrRoundNotFound):
		return http.StatusNotFound
	case errors.Is(err, auth.ErrNoIdentity):
		return http.StatusUnauthorized
	case errors.Is(err, ErrGameOver), errors.Is(err, ErrRoundNumber):
		return http.StatusConflict
	case errors.Is(err, catalog.ErrUnknownGameType),
		errors.Is(err, scoring.ErrGameTypeMismatch),
		errors.Is(err, ErrPlayerCount),
		errors.Is(err, ErrTarget),
		errors.Is(err, ErrQuickSession):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondWithError logs err (when set) and writes msg with status.
func respondWithError(w http.ResponseWriter, status int, msg string, err error) {
	if err != nil {
		log.Printf("%s: %v", msg, err)
	}
	http.Error(w, msg, status)
}

// Helper to write JSON responses.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
