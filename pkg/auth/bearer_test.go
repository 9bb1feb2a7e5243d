package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestVerifyBearerToken(t *testing.T) {
	validToken := "valid-test-token-12345"

	tests := []struct {
		name        string
		authHeader  string
		token       string
		wantErr     bool
		errContains string
	}{
		{
			name:       "valid bearer token",
			authHeader: "Bearer " + validToken,
			token:      validToken,
			wantErr:    false,
		},
		{
			name:        "missing authorization header",
			authHeader:  "",
			token:       validToken,
			wantErr:     true,
			errContains: "missing Authorization header",
		},
		{
			name:        "invalid format - no space",
			authHeader:  "Bearer" + validToken,
			token:       validToken,
			wantErr:     true,
			errContains: "invalid Authorization header format",
		},
		{
			name:        "invalid scheme",
			authHeader:  "Basic " + validToken,
			token:       validToken,
			wantErr:     true,
			errContains: "invalid authorization scheme",
		},
		{
			name:        "wrong token",
			authHeader:  "Bearer wrong-token",
			token:       validToken,
			wantErr:     true,
			errContains: "invalid bearer token",
		},
		{
			name:       "case insensitive scheme",
			authHeader: "bearer " + validToken,
			token:      validToken,
			wantErr:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin/stats", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			err := VerifyBearerToken(req, tt.token)

			if (err != nil) != tt.wantErr {
				t.Errorf("VerifyBearerToken() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && tt.errContains != "" && !strings.Contains(err.Error(), tt.errContains) {
				t.Errorf("error = %q, want substring %q", err.Error(), tt.errContains)
			}
		})
	}
}

func TestMiddleware(t *testing.T) {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})

	handler := Middleware("secret-token", logger)(next)

	t.Run("rejects missing token", func(t *testing.T) {
		called = false
		req := httptest.NewRequest(http.MethodGet, "/admin/stats", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
		}
		if called {
			t.Error("next handler was called for an unauthenticated request")
		}
	})

	t.Run("accepts valid token", func(t *testing.T) {
		called = false
		req := httptest.NewRequest(http.MethodGet, "/admin/stats", nil)
		req.Header.Set("Authorization", "Bearer secret-token")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
		}
		if !called {
			t.Error("next handler was not called for an authenticated request")
		}
	})
}
