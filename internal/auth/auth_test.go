package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/joao-fontenele/storefront/internal/domain"
)

func TestTokens_RoundTrip(t *testing.T) {
	tokens := NewTokens("secret", time.Hour)

	raw, err := tokens.Sign(domain.Identity{UserID: 42, Staff: true})
	require.NoError(t, err)

	id, err := tokens.Verify(raw)
	require.NoError(t, err)
	assert.Equal(t, domain.Identity{UserID: 42, Staff: true}, id)
}

func TestTokens_RejectsWrongSecret(t *testing.T) {
	raw, err := NewTokens("secret", time.Hour).Sign(domain.Identity{UserID: 1})
	require.NoError(t, err)

	_, err = NewTokens("other", time.Hour).Verify(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokens_RejectsExpired(t *testing.T) {
	tokens := NewTokens("secret", time.Minute)
	tokens.now = func() time.Time { return time.Now().Add(-time.Hour) }

	raw, err := tokens.Sign(domain.Identity{UserID: 1})
	require.NoError(t, err)

	tokens.now = time.Now
	_, err = tokens.Verify(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokens_RejectsOtherAlgorithms(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "1"})
	raw, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewTokens("secret", time.Hour).Verify(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthenticate(t *testing.T) {
	tokens := NewTokens("secret", time.Hour)
	staffToken, err := tokens.Sign(domain.Identity{UserID: 7, Staff: true})
	require.NoError(t, err)
	userToken, err := tokens.Sign(domain.Identity{UserID: 8})
	require.NoError(t, err)

	staffOnly := Authenticate(tokens)(RequireStaff(func(w http.ResponseWriter, r *http.Request) {
		id, ok := FromContext(r.Context())
		assert.True(t, ok)
		assert.Equal(t, int64(7), id.UserID)
		w.WriteHeader(http.StatusNoContent)
	}))
	userOnly := Authenticate(tokens)(RequireUser(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name    string
		handler http.Handler
		header  string
		want    int
	}{
		{"staff route with staff token", staffOnly, "Bearer " + staffToken, http.StatusNoContent},
		{"staff route with user token", staffOnly, "Bearer " + userToken, http.StatusForbidden},
		{"staff route anonymous", staffOnly, "", http.StatusUnauthorized},
		{"user route with user token", userOnly, "Bearer " + userToken, http.StatusNoContent},
		{"user route anonymous", userOnly, "", http.StatusUnauthorized},
		{"garbage token", userOnly, "Bearer nope", http.StatusUnauthorized},
		{"wrong scheme", userOnly, "Basic abc", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			tt.handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)

	assert.NoError(t, bcrypt.CompareHashAndPassword(hash, []byte("correct horse")))
	assert.Error(t, bcrypt.CompareHashAndPassword(hash, []byte("battery staple")))
}
