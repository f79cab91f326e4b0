package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/corebank/internal/domain"
	"github.com/iho/corebank/internal/infrastructure/auth"
)

func TestAuthMiddleware(t *testing.T) {
	jwtManager := auth.NewJWTManager("test-secret", time.Minute)

	var gotSession *auth.Claims
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSession, _ = GetSession(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	protected := Auth(jwtManager)(next)

	t.Run("valid token", func(t *testing.T) {
		token, err := jwtManager.Generate(&domain.Account{ID: "acc-1", CustomerID: 9})
		if err != nil {
			t.Fatalf("failed to generate token: %v", err)
		}

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if gotSession == nil || gotSession.AccountID != "acc-1" {
			t.Fatalf("expected session for acc-1, got %+v", gotSession)
		}
	})

	t.Run("missing header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("malformed header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Basic abc123")
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("garbage token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer not-a-token")
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})
}

func TestSessionOwns(t *testing.T) {
	claims := &auth.Claims{AccountID: "acc-1"}
	ctx := context.WithValue(context.Background(), sessionKey, claims)

	if !SessionOwns(ctx, "acc-1") {
		t.Error("expected session to own its own account")
	}
	if SessionOwns(ctx, "acc-2") {
		t.Error("expected session not to own a foreign account")
	}
	if SessionOwns(context.Background(), "acc-1") {
		t.Error("expected no ownership without a session")
	}

	id, ok := SessionAccountID(ctx)
	if !ok || id != "acc-1" {
		t.Errorf("expected acc-1, got %q/%v", id, ok)
	}
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/api/v1/accounts/acc-123/balance", "/api/v1/accounts/{id}/balance"},
		{"/api/v1/accounts/acc-123/statement", "/api/v1/accounts/{id}/statement"},
		{"/api/v1/transfers", "/api/v1/transfers"},
		{"/health", "/health"},
		{"/internal/reconciliation/accounts/acc-9", "/internal/reconciliation/accounts/{id}"},
	}

	for _, tt := range tests {
		if got := normalizePath(tt.in); got != tt.want {
			t.Errorf("normalizePath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRecoveryConvertsPanic(t *testing.T) {
	h := Recovery(zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}
