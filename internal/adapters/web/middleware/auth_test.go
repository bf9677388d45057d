package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestAdminTokenMiddleware(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	var actor string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor = Actor(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name   string
		hash   []byte
		header string
		want   int
	}{
		{"valid token", hash, "Bearer s3cret", http.StatusOK},
		{"wrong token", hash, "Bearer nope", http.StatusUnauthorized},
		{"missing header", hash, "", http.StatusUnauthorized},
		{"basic scheme", hash, "Basic s3cret", http.StatusUnauthorized},
		{"disabled", nil, "Bearer s3cret", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/admin/reload", nil)
			req.RemoteAddr = "192.0.2.7:5555"
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			AdminTokenMiddleware(tt.hash)(next).ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
	assert.Equal(t, "admin@192.0.2.7", actor)
}

func TestActor_Default(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, "anonymous", Actor(req.Context()))
}
