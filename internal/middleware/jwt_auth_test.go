package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/anonto42/spotlight/backend/internal/models"
	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func serve(t *testing.T, header string) (*httptest.ResponseRecorder, uint) {
	t.Helper()
	e := echo.New()
	var seen uint
	e.GET("/", func(c echo.Context) error {
		seen = UserID(c)
		return c.NoContent(http.StatusNoContent)
	}, JWTAuthMiddleware(secret))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set(echo.HeaderAuthorization, header)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec, seen
}

func TestJWTAuthMiddleware(t *testing.T) {
	user := &models.User{ID: 42, ProviderUID: "uid_42"}
	valid, err := IssueToken(secret, user, time.Hour, time.Now())
	require.NoError(t, err)
	expired, err := IssueToken(secret, user, time.Hour, time.Now().Add(-2*time.Hour))
	require.NoError(t, err)
	foreign, err := IssueToken("other-secret", user, time.Hour, time.Now())
	require.NoError(t, err)
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, &models.JwtCustomClaims{UserID: 42}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
		userID uint
	}{
		{"valid", "Bearer " + valid, http.StatusNoContent, 42},
		{"lowercase scheme", "bearer " + valid, http.StatusNoContent, 42},
		{"missing", "", http.StatusUnauthorized, 0},
		{"not bearer", "Basic abc", http.StatusUnauthorized, 0},
		{"expired", "Bearer " + expired, http.StatusUnauthorized, 0},
		{"wrong secret", "Bearer " + foreign, http.StatusUnauthorized, 0},
		{"alg none", "Bearer " + none, http.StatusUnauthorized, 0},
		{"garbage", "Bearer not.a.token", http.StatusUnauthorized, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, seen := serve(t, tt.header)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.userID, seen)
		})
	}
}
