package auth_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/merev/scorecard-api/internal/auth"
)

func echoOwner(w http.ResponseWriter, r *http.Request) {
	owner, ok := auth.OwnerFrom(r.Context())
	if !ok {
		owner = "anonymous"
	}
	_, _ = w.Write([]byte(owner))
}

func TestVerifyRoundTrip(t *testing.T) {
	v := auth.NewVerifier("secret", "scorecard")
	token, err := v.Issue("principal-1", time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	got, err := v.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got != "principal-1" {
		t.Fatalf("expected principal-1, got %q", got)
	}
}

func TestVerifyRejects(t *testing.T) {
	v := auth.NewVerifier("secret", "scorecard")

	expired, _ := v.Issue("p", -time.Minute)
	otherKey, _ := auth.NewVerifier("other", "scorecard").Issue("p", time.Minute)
	otherIssuer, _ := auth.NewVerifier("secret", "elsewhere").Issue("p", time.Minute)
	noSubject, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Issuer: "scorecard"}).SignedString([]byte("secret"))
	hs512, _ := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{Subject: "p", Issuer: "scorecard"}).SignedString([]byte("secret"))

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"expired", expired},
		{"wrong key", otherKey},
		{"wrong issuer", otherIssuer},
		{"no subject", noSubject},
		{"wrong method", hs512},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := v.Verify(tt.token); !errors.Is(err, auth.ErrNoIdentity) {
				t.Fatalf("expected ErrNoIdentity, got %v", err)
			}
		})
	}
}

func TestMiddleware(t *testing.T) {
	v := auth.NewVerifier("secret", "")
	token, _ := v.Issue("alice", time.Minute)

	tests := []struct {
		name       string
		optional   bool
		header     string
		wantStatus int
		wantBody   string
	}{
		{"required with token", false, "Bearer " + token, http.StatusOK, "alice"},
		{"required without token", false, "", http.StatusUnauthorized, ""},
		{"required bad scheme", false, "Basic " + token, http.StatusUnauthorized, ""},
		{"optional without token", true, "", http.StatusOK, "anonymous"},
		{"optional with token", true, "Bearer " + token, http.StatusOK, "alice"},
		{"optional bad token", true, "Bearer nope", http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mw := v.Middleware
			if tt.optional {
				mw = v.Optional
			}
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			mw(http.HandlerFunc(echoOwner)).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			if tt.wantBody != "" && rec.Body.String() != tt.wantBody {
				t.Fatalf("expected body %q, got %q", tt.wantBody, rec.Body.String())
			}
		})
	}
}
