package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/merev/scorecard-api/internal/auth"
	"github.com/merev/scorecard-api/internal/game"
	"github.com/merev/scorecard-api/internal/profile"
)

func NewRouter(gh *game.Handler, ph *profile.Handler, verifier *auth.Verifier) http.Handler {
	r := chi.NewRouter()

	r.Route("/api", func(api chi.Router) {
		// Open to everyone; a token, when sent, identifies the caller.
		api.Group(func(open chi.Router) {
			open.Use(verifier.Optional)

			open.Get("/games", gh.ListGames)          // GET /api/games
			open.Get("/games/{gameType}", gh.GetGame) // GET /api/games/:gameType
			open.Get("/profiles", ph.ListProfiles)    // GET /api/profiles?sort=gamesPlayed
			open.Get("/profiles/{id}", ph.GetProfile) // GET /api/profiles/:id
			open.Post("/quick/sessions", gh.CreateQuickSession)
			open.Post("/quick/view", gh.ViewQuickSession)
			open.Post("/quick/rounds", gh.ApplyQuickRound)
		})

		api.Group(func(authed chi.Router) {
			authed.Use(verifier.Middleware)

			authed.Post("/profiles", ph.CreateProfile) // POST /api/profiles

			authed.Post("/sessions", gh.CreateSession) // POST /api/sessions
			authed.Get("/sessions", gh.ListSessions)   // GET /api/sessions
			authed.Get("/sessions/{id}", gh.GetSession)
			authed.Delete("/sessions/{id}", gh.DeleteSession)
			authed.Post("/sessions/{id}/rounds", gh.SubmitRound)
			authed.Put("/sessions/{id}/rounds/{round}", gh.EditRound)
			authed.Get("/sessions/{id}/rounds/{round}/entry", gh.GetEditForm)
			authed.Get("/sessions/{id}/draft", gh.GetDraft)
			authed.Put("/sessions/{id}/draft", gh.SaveDraft)
		})
	})

	return r
}
