package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/voxhire/voxhire/internal/profile"
)

const (
	userIDContextKey = "voxhire.user_id"

	// devUserHeader identifies the candidate in dev and demo modes where no
	// token flow exists.
	devUserHeader = "X-User-ID"

	tokenIssuer   = "voxhire"
	tokenLifetime = 2 * time.Hour
)

// GenerateToken issues a candidate bearer token whose subject is the user id.
func GenerateToken(secret, userID string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenLifetime)),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", errors.Wrap(err, "failed to sign token")
	}
	return signed, nil
}

// parseToken validates a bearer token and returns its subject.
func parseToken(secret, tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithIssuer(tokenIssuer))
	if err != nil {
		return "", errors.Wrap(err, "invalid token")
	}
	if claims.Subject == "" {
		return "", errors.New("token has no subject")
	}
	return claims.Subject, nil
}

// Auth resolves the candidate identity for each request. Bearer tokens are
// accepted in every mode; dev and demo additionally accept the plain
// X-User-ID header so local clients can skip the token flow.
func Auth(p *profile.Profile) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if strings.HasPrefix(header, "Bearer ") {
				userID, err := parseToken(p.JWTSecret, strings.TrimPrefix(header, "Bearer "))
				if err == nil {
					c.Set(userIDContextKey, userID)
					return next(c)
				}
				if !p.IsDev() {
					return unauthorized(c)
				}
			}

			if p.IsDev() {
				if userID := c.Request().Header.Get(devUserHeader); userID != "" {
					c.Set(userIDContextKey, userID)
					return next(c)
				}
			}

			return unauthorized(c)
		}
	}
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, map[string]any{
		"status":  "error",
		"code":    "UNAUTHORIZED",
		"message": "authentication required",
	})
}

// UserIDFromEcho returns the authenticated candidate id, or "".
func UserIDFromEcho(c echo.Context) string {
	if userID, ok := c.Get(userIDContextKey).(string); ok {
		return userID
	}
	return ""
}
