package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/GlebRadaev/clubledger/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware(t *testing.T) {
	jwtService := NewJWTService(testSecret)
	member, err := jwtService.GenerateJWT(7, false, time.Now().Add(time.Hour))
	require.NoError(t, err)

	var got domain.Actor
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = ActorFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	handler := Middleware(jwtService)(next)

	tests := []struct {
		name         string
		header       string
		expectedCode int
	}{
		{name: "No header", expectedCode: http.StatusUnauthorized},
		{name: "Wrong scheme", header: "Basic abc", expectedCode: http.StatusUnauthorized},
		{name: "Bad token", header: "Bearer abc", expectedCode: http.StatusUnauthorized},
		{name: "Valid token", header: "Bearer " + member, expectedCode: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/balance", http.NoBody)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedCode, w.Code)
		})
	}
	assert.Equal(t, domain.Actor{UserID: 7}, got)
}

func TestRequireAdmin(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name         string
		actor        domain.Actor
		expectedCode int
	}{
		{name: "Member", actor: domain.Actor{UserID: 7}, expectedCode: http.StatusForbidden},
		{name: "Admin", actor: domain.Actor{UserID: 1, Admin: true}, expectedCode: http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/admin/checkouts", http.NoBody)
			req = req.WithContext(WithActor(req.Context(), tt.actor))
			w := httptest.NewRecorder()

			RequireAdmin(next).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedCode, w.Code)
		})
	}
}
