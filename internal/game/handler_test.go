package game_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/merev/scorecard-api/internal/auth"
	"github.com/merev/scorecard-api/internal/catalog"
	"github.com/merev/scorecard-api/internal/game"
)

// newTestRouter mounts the game routes with the caller taken from the
// X-Owner header.
func newTestRouter(h *game.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if owner := req.Header.Get("X-Owner"); owner != "" {
				req = req.WithContext(auth.WithOwner(req.Context(), owner))
			}
			next.ServeHTTP(w, req)
		})
	})
	r.Get("/api/games/{gameType}", h.GetGame)
	r.Post("/api/sessions", h.CreateSession)
	r.Get("/api/sessions/{id}", h.GetSession)
	r.Delete("/api/sessions/{id}", h.DeleteSession)
	r.Post("/api/sessions/{id}/rounds", h.SubmitRound)
	r.Put("/api/sessions/{id}/rounds/{round}", h.EditRound)
	r.Get("/api/sessions/{id}/rounds/{round}/entry", h.GetEditForm)
	r.Post("/api/quick/sessions", h.CreateQuickSession)
	r.Post("/api/quick/rounds", h.ApplyQuickRound)
	return r
}

func do(t *testing.T, h http.Handler, method, path, owner, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if owner != "" {
		req.Header.Set("X-Owner", owner)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandlerSessionFlow(t *testing.T) {
	svc, store, _ := setup(t)
	router := newTestRouter(game.NewHandler(svc, time.Second))

	rec := do(t, router, http.MethodPost, "/api/sessions", "host", `{"gameType":"skyjo","players":[1,2]}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	tests := []struct {
		name       string
		method     string
		path       string
		owner      string
		body       string
		wantStatus int
	}{
		{"missing score", http.MethodPost, "/api/sessions/1/rounds", "host",
			`{"entry":{"type":"skyjo","state":{"playerScores":{"1":3}}}}`, http.StatusBadRequest},
		{"wrong game type", http.MethodPost, "/api/sessions/1/rounds", "host",
			`{"entry":{"type":"genericGame","state":{"playerScores":{"1":3,"2":4}}}}`, http.StatusBadRequest},
		{"unknown session", http.MethodPost, "/api/sessions/99/rounds", "host",
			`{"entry":{"type":"skyjo","state":{"playerScores":{"1":3,"2":4}}}}`, http.StatusNotFound},
		{"submit", http.MethodPost, "/api/sessions/1/rounds", "host",
			`{"entry":{"type":"skyjo","state":{"playerScores":{"1":3,"2":4}}}}`, http.StatusCreated},
		{"player owner may submit", http.MethodPost, "/api/sessions/1/rounds", "owner-2",
			`{"entry":{"type":"skyjo","state":{"playerScores":{"1":1,"2":1}}}}`, http.StatusCreated},
		{"edit", http.MethodPut, "/api/sessions/1/rounds/1", "host",
			`{"entry":{"type":"skyjo","state":{"playerScores":{"1":0,"2":4}}}}`, http.StatusOK},
		{"edit missing round", http.MethodPut, "/api/sessions/1/rounds/7", "host",
			`{"entry":{"type":"skyjo","state":{"playerScores":{"1":0,"2":4}}}}`, http.StatusNotFound},
		{"bad round number", http.MethodPut, "/api/sessions/1/rounds/zero", "host", `{}`, http.StatusBadRequest},
		{"edit form", http.MethodGet, "/api/sessions/1/rounds/1/entry", "host", "", http.StatusOK},
		{"view", http.MethodGet, "/api/sessions/1", "stranger", "", http.StatusOK},
		{"invalid json", http.MethodPost, "/api/sessions", "host", `{`, http.StatusBadRequest},
		{"validation", http.MethodPost, "/api/sessions", "host", `{"gameType":"skyjo","players":[]}`, http.StatusBadRequest},
		{"unknown game", http.MethodGet, "/api/games/chess", "", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, tt.method, tt.path, tt.owner, tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
		})
	}

	stored := store.sessions[1]
	if len(stored.Rounds) != 2 || stored.Rounds[0].Scores["1"] != 0 {
		t.Fatalf("unexpected stored rounds %+v", stored.Rounds)
	}
}

func TestHandlerDeleteSession(t *testing.T) {
	svc, _, _ := setup(t)
	router := newTestRouter(game.NewHandler(svc, time.Second))
	do(t, router, http.MethodPost, "/api/sessions", "host", `{"gameType":"skyjo","players":[1,2]}`)

	tests := []struct {
		name       string
		method     string
		path       string
		owner      string
		wantStatus int
	}{
		{"other owner", http.MethodDelete, "/api/sessions/1", "stranger", http.StatusNotFound},
		{"quick", http.MethodDelete, "/api/sessions/quick", "host", http.StatusBadRequest},
		{"delete", http.MethodDelete, "/api/sessions/1", "host", http.StatusNoContent},
		{"gone", http.MethodGet, "/api/sessions/1", "host", http.StatusNotFound},
		{"delete again", http.MethodDelete, "/api/sessions/1", "host", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, tt.method, tt.path, tt.owner, "")
			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestHandlerInvalidInputListsFields(t *testing.T) {
	svc, _, _ := setup(t)
	router := newTestRouter(game.NewHandler(svc, time.Second))
	do(t, router, http.MethodPost, "/api/sessions", "host", `{"gameType":"nerts","players":[1,2]}`)

	rec := do(t, router, http.MethodPost, "/api/sessions/1/rounds", "host",
		`{"entry":{"type":"nerts","state":{"centerCards":{"1":3,"2":-1},"tableauCards":{"1":0}}}}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	var body struct {
		Fields []struct {
			PlayerID string `json:"playerId"`
			Field    string `json:"field"`
		} `json:"fields"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Fields) != 2 {
		t.Fatalf("expected 2 field errors, got %+v", body.Fields)
	}
}

func TestHandlerPersistFailureReturnsView(t *testing.T) {
	svc, store, _ := setup(t)
	router := newTestRouter(game.NewHandler(svc, time.Second))
	do(t, router, http.MethodPost, "/api/sessions", "host", `{"gameType":"genericGame","players":[1,2]}`)
	store.failWrites = errors.New("connection reset")

	rec := do(t, router, http.MethodPost, "/api/sessions/1/rounds", "host",
		`{"entry":{"type":"genericGame","state":{"playerScores":{"1":3,"2":4}}}}`)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}

	var body struct {
		View game.View `json:"view"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.View.Session.Rounds) != 1 {
		t.Fatalf("expected optimistic round in view, got %+v", body.View.Session.Rounds)
	}
}

func TestHandlerQuickSession(t *testing.T) {
	svc, store, _ := setup(t)
	router := newTestRouter(game.NewHandler(svc, time.Second))

	rec := do(t, router, http.MethodPost, "/api/quick/sessions", "", `{"gameType":"genericGame","players":["Ana","Bo"]}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var view game.View
	if err := json.NewDecoder(rec.Body).Decode(&view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if view.Session.GameType != catalog.GenericGame || len(view.Session.Players) != 2 {
		t.Fatalf("unexpected quick session %+v", view.Session)
	}

	a, b := view.Session.Players[0].ID, view.Session.Players[1].ID
	session, _ := json.Marshal(view.Session)
	body := `{"session":` + string(session) + `,"entry":{"type":"genericGame","state":{"playerScores":{"` + a + `":5,"` + b + `":2}}}}`

	rec = do(t, router, http.MethodPost, "/api/quick/rounds", "", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if err := json.NewDecoder(rec.Body).Decode(&view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(view.Session.Rounds) != 1 || view.Standings[0].PlayerID != b {
		t.Fatalf("unexpected quick view %+v", view)
	}
	if store.callCount() != 0 {
		t.Fatalf("expected no store calls, got %v", store.calls)
	}
}
