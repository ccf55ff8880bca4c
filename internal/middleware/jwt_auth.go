package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/anonto42/spotlight/backend/internal/models"
	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
)

const claimsKey = "user"

// JWTAuthMiddleware checks for a valid application JWT and stores its claims
// on the context
func JWTAuthMiddleware(secret string) echo.MiddlewareFunc {
	key := []byte(secret)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing Authorization header")
			}

			// Expecting "Bearer <token>"
			parts := strings.Fields(authHeader)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid Authorization header format")
			}

			claims := &models.JwtCustomClaims{}
			token, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, errors.New("unexpected signing method")
				}
				return key, nil
			})
			if err != nil || !token.Valid {
				var ve *jwt.ValidationError
				if errors.As(err, &ve) && ve.Errors&jwt.ValidationErrorExpired != 0 {
					return echo.NewHTTPError(http.StatusUnauthorized, "Token expired")
				}
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
			}
			if claims.UserID == 0 {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
			}

			c.Set(claimsKey, claims)
			return next(c)
		}
	}
}

// IssueToken signs an HS256 session token for user, valid for ttl
func IssueToken(secret string, user *models.User, ttl time.Duration, now time.Time) (string, error) {
	claims := &models.JwtCustomClaims{
		UserID:      user.ID,
		ProviderUID: user.ProviderUID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// Claims returns the claims stored by JWTAuthMiddleware, or nil
func Claims(c echo.Context) *models.JwtCustomClaims {
	claims, _ := c.Get(claimsKey).(*models.JwtCustomClaims)
	return claims
}

// UserID returns the authenticated user's id, or 0 when unauthenticated
func UserID(c echo.Context) uint {
	if claims := Claims(c); claims != nil {
		return claims.UserID
	}
	return 0
}
