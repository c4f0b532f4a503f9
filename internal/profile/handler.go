package profile

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
)

// Store is the part of Repository the handlers use.
type Store interface {
	Create(ctx context.Context, owner, name string) (Profile, error)
	List(ctx context.Context, sort Sort) ([]Profile, error)
	Get(ctx context.Context, id int64) (Profile, error)
}

type Handler struct {
	store    Store
	validate *validator.Validate
	timeout  time.Duration
}

func NewHandler(store Store, timeout time.Duration) *Handler {
	return &Handler{store: store, validate: validator.New(), timeout: timeout}
}

// POST /api/profiles
func (h *Handler) CreateProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	owner, ok := auth.OwnerFrom(ctx)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req CreateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		http.Error(w, "invalid request: "+err.Error(), http.StatusBadRequest)
		return
	}

	p, err := h.store.Create(ctx, owner, req.Name)
	if err != nil {
		log.Printf("create profile: %v", err)
		http.Error(w, "failed to create profile: "+err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusCreated, p)
}

// GET /api/profiles?sort=gamesPlayed
func (h *Handler) ListProfiles(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sort, err := ParseSort(r.URL.Query().Get("sort"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	profiles, err := h.store.List(ctx, sort)
	if err != nil {
		log.Printf("list profiles: %v", err)
		http.Error(w, "failed to list profiles: "+err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, profiles)
}

// GET /api/profiles/{id}
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid profile id", http.StatusBadRequest)
		return
	}

	p, err := h.store.Get(ctx, id)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrProfileNotFound) {
			status = http.StatusNotFound
		} else {
			log.Printf("get profile %d: %v", id, err)
		}
		http.Error(w, "failed to load profile: "+err.Error(), status)
		return
	}

	writeJSON(w, http.StatusOK, p)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
